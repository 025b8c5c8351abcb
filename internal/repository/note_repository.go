package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"noteapp-server/internal/domain"

	"github.com/go-kivik/kivik/v4"
	"github.com/google/uuid"
)

var (
	ErrNoteNotFound = errors.New("note not found")
	ErrNoteExists   = errors.New("note already exists")
)

// NoteRepository persists notes. Create assigns the note ID.
type NoteRepository interface {
	Create(ctx context.Context, note *domain.Note) error
	FindByID(ctx context.Context, id string) (*domain.Note, error)
	Replace(ctx context.Context, note *domain.Note) error
	Delete(ctx context.Context, id string) error
	FindByTags(ctx context.Context, filter domain.TagFilter, page domain.PageRequest) ([]*domain.Note, int64, error)
}

const (
	noteDocType   = "note"
	noteDocPrefix = "note:"

	replaceAttempts = 2

	// Fixed width and always UTC, so string order is time order in Mango sorts.
	createdAtLayout = "2006-01-02T15:04:05.000000000Z"
)

type CouchNoteRepository struct {
	db *kivik.DB
}

type noteDoc struct {
	ID        string       `json:"_id"`
	Rev       string       `json:"_rev,omitempty"`
	DocType   string       `json:"doc_type"`
	Title     string       `json:"title"`
	Text      string       `json:"text"`
	Tags      []domain.Tag `json:"tags"`
	CreatedAt string       `json:"created_at"`
}

func NewNoteRepository(client *kivik.Client, dbName string) *CouchNoteRepository {
	return &CouchNoteRepository{
		db: client.DB(dbName),
	}
}

func (r *CouchNoteRepository) Create(ctx context.Context, note *domain.Note) error {
	note.ID = uuid.New().String()
	doc := noteToDoc(note)

	if _, err := r.db.Put(ctx, doc.ID, doc); err != nil {
		if kivik.HTTPStatus(err) == http.StatusConflict {
			return fmt.Errorf("failed to create note %s: %w", note.ID, ErrNoteExists)
		}
		return fmt.Errorf("failed to create note: %w", err)
	}

	return nil
}

func (r *CouchNoteRepository) FindByID(ctx context.Context, id string) (*domain.Note, error) {
	doc, err := r.getDoc(ctx, id)
	if err != nil {
		return nil, err
	}
	return docToNote(doc)
}

// Replace overwrites the stored note with its current revision, so the last
// writer wins. A write committed between the revision read and the put makes
// CouchDB answer 409; Replace then reads the new revision and tries once more.
func (r *CouchNoteRepository) Replace(ctx context.Context, note *domain.Note) error {
	doc := noteToDoc(note)

	var err error
	for attempt := 0; attempt < replaceAttempts; attempt++ {
		var existing *noteDoc
		existing, err = r.getDoc(ctx, note.ID)
		if err != nil {
			return err
		}

		doc.Rev = existing.Rev
		if _, err = r.db.Put(ctx, doc.ID, doc); err == nil {
			return nil
		}
		if kivik.HTTPStatus(err) != http.StatusConflict {
			break
		}
	}

	return fmt.Errorf("failed to replace note %s: %w", note.ID, err)
}

func (r *CouchNoteRepository) Delete(ctx context.Context, id string) error {
	existing, err := r.getDoc(ctx, id)
	if err != nil {
		return err
	}

	if _, err := r.db.Delete(ctx, existing.ID, existing.Rev); err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return ErrNoteNotFound
		}
		return fmt.Errorf("failed to delete note %s: %w", id, err)
	}

	return nil
}

func (r *CouchNoteRepository) FindByTags(ctx context.Context, filter domain.TagFilter, page domain.PageRequest) ([]*domain.Note, int64, error) {
	rows := r.db.Find(ctx, pageQuery(filter, page))
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to query notes: %w", err)
	}
	defer rows.Close()

	notes := make([]*domain.Note, 0, page.Size)
	for rows.Next() {
		var doc noteDoc
		if err := rows.ScanDoc(&doc); err != nil {
			return nil, 0, fmt.Errorf("failed to scan note: %w", err)
		}

		note, err := docToNote(&doc)
		if err != nil {
			return nil, 0, err
		}
		notes = append(notes, note)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read notes: %w", err)
	}

	total, err := r.count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	return notes, total, nil
}

// count pages through the matching IDs with Mango bookmarks since Mango has
// no count operator. It is a separate read from the page query, so a write in
// between can make the total disagree with the page by that write.
func (r *CouchNoteRepository) count(ctx context.Context, filter domain.TagFilter) (int64, error) {
	var (
		total    int64
		bookmark string
	)
	for {
		rows := r.db.Find(ctx, countQuery(filter, bookmark))
		if err := rows.Err(); err != nil {
			return 0, fmt.Errorf("failed to count notes: %w", err)
		}

		n := 0
		for rows.Next() {
			n++
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return 0, fmt.Errorf("failed to count notes: %w", err)
		}
		meta, err := rows.Metadata()
		rows.Close()
		if err != nil {
			return 0, fmt.Errorf("failed to count notes: %w", err)
		}

		total += int64(n)
		if n < countBatchSize || meta.Bookmark == "" {
			return total, nil
		}
		bookmark = meta.Bookmark
	}
}

func (r *CouchNoteRepository) getDoc(ctx context.Context, id string) (*noteDoc, error) {
	row := r.db.Get(ctx, noteDocPrefix+id)

	var doc noteDoc
	if err := row.ScanDoc(&doc); err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return nil, ErrNoteNotFound
		}
		return nil, fmt.Errorf("failed to get note %s: %w", id, err)
	}
	if doc.DocType != noteDocType {
		return nil, ErrNoteNotFound
	}

	return &doc, nil
}

func noteToDoc(note *domain.Note) *noteDoc {
	tags := note.Tags
	if tags == nil {
		tags = []domain.Tag{}
	}
	return &noteDoc{
		ID:        noteDocPrefix + note.ID,
		DocType:   noteDocType,
		Title:     note.Title,
		Text:      note.Text,
		Tags:      tags,
		CreatedAt: formatCreatedAt(note.CreatedAt),
	}
}

func docToNote(doc *noteDoc) (*domain.Note, error) {
	createdAt, err := parseCreatedAt(doc.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at of %s: %w", doc.ID, err)
	}

	tags := doc.Tags
	if tags == nil {
		tags = []domain.Tag{}
	}

	return &domain.Note{
		ID:        strings.TrimPrefix(doc.ID, noteDocPrefix),
		Title:     doc.Title,
		Text:      doc.Text,
		Tags:      tags,
		CreatedAt: createdAt,
	}, nil
}

func formatCreatedAt(t time.Time) string {
	return t.UTC().Format(createdAtLayout)
}

func parseCreatedAt(s string) (time.Time, error) {
	return time.Parse(createdAtLayout, s)
}
