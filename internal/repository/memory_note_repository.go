package repository

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"noteapp-server/internal/domain"

	"github.com/google/uuid"
)

// MemoryNoteRepository keeps notes in process memory. It backs the "memory"
// database driver and the service tests. Stored notes are copied on the way
// in and out, like a real store.
type MemoryNoteRepository struct {
	mu    sync.RWMutex
	notes map[string]*memoryEntry
	seq   uint64
}

type memoryEntry struct {
	note domain.Note
	seq  uint64
}

func NewMemoryNoteRepository() *MemoryNoteRepository {
	return &MemoryNoteRepository{
		notes: make(map[string]*memoryEntry),
	}
}

func (r *MemoryNoteRepository) Create(ctx context.Context, note *domain.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	note.ID = uuid.New().String()
	if _, exists := r.notes[note.ID]; exists {
		return fmt.Errorf("failed to create note %s: %w", note.ID, ErrNoteExists)
	}

	r.seq++
	r.notes[note.ID] = &memoryEntry{note: cloneNote(note), seq: r.seq}
	return nil
}

func (r *MemoryNoteRepository) FindByID(ctx context.Context, id string) (*domain.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, exists := r.notes[id]
	if !exists {
		return nil, ErrNoteNotFound
	}

	note := cloneNote(&entry.note)
	return &note, nil
}

func (r *MemoryNoteRepository) Replace(ctx context.Context, note *domain.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.notes[note.ID]
	if !exists {
		return ErrNoteNotFound
	}

	entry.note = cloneNote(note)
	return nil
}

func (r *MemoryNoteRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.notes[id]; !exists {
		return ErrNoteNotFound
	}

	delete(r.notes, id)
	return nil
}

func (r *MemoryNoteRepository) FindByTags(ctx context.Context, filter domain.TagFilter, page domain.PageRequest) ([]*domain.Note, int64, error) {
	r.mu.RLock()
	matches := make([]memoryEntry, 0, len(r.notes))
	for _, entry := range r.notes {
		if filter.Matches(entry.note.Tags) {
			matches = append(matches, memoryEntry{note: cloneNote(&entry.note), seq: entry.seq})
		}
	}
	r.mu.RUnlock()

	slices.SortFunc(matches, func(a, b memoryEntry) int {
		if c := b.note.CreatedAt.Compare(a.note.CreatedAt); c != 0 {
			return c
		}
		if a.seq > b.seq {
			return -1
		}
		return 1
	})

	total := int64(len(matches))
	start := min(page.Offset(), len(matches))
	end := min(start+page.Size, len(matches))

	notes := make([]*domain.Note, 0, end-start)
	for i := start; i < end; i++ {
		notes = append(notes, &matches[i].note)
	}

	return notes, total, nil
}

func cloneNote(note *domain.Note) domain.Note {
	c := *note
	c.Tags = slices.Clone(note.Tags)
	if c.Tags == nil {
		c.Tags = []domain.Tag{}
	}
	return c
}
