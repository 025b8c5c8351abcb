package service

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"

	"noteapp-server/internal/domain"
	"noteapp-server/internal/repository"
	"noteapp-server/internal/stats"
)

// ChangeNotifier receives committed note mutations. Implementations must not
// block the caller.
type ChangeNotifier interface {
	NotifyNoteChange(change *domain.NoteChange)
}

type NoteService struct {
	repo     repository.NoteRepository
	clock    Clock
	notifier ChangeNotifier
}

// NewNoteService wires the service. A nil clock means SystemClock; notifier
// may be nil.
func NewNoteService(repo repository.NoteRepository, clock Clock, notifier ChangeNotifier) *NoteService {
	if clock == nil {
		clock = SystemClock
	}
	return &NoteService{
		repo:     repo,
		clock:    clock,
		notifier: notifier,
	}
}

func (s *NoteService) Create(ctx context.Context, req *domain.CreateNoteRequest) (*domain.NoteResponse, error) {
	if verr := validateCreate(req); verr != nil {
		return nil, verr
	}

	note := &domain.Note{
		Title:     req.Title,
		Text:      req.Text,
		Tags:      slices.Clone(req.Tags),
		CreatedAt: s.clock.Now().UTC(),
	}

	if err := s.repo.Create(ctx, note); err != nil {
		slog.ErrorContext(ctx, "failed to save note", "op", "create", "error", err)
		return nil, &SaveError{Op: "create", Err: err}
	}

	response := toNoteResponse(note)
	s.publish(domain.ChangeCreated, note, response)

	return response, nil
}

func (s *NoteService) GetByID(ctx context.Context, id string) (*domain.NoteResponse, error) {
	note, err := s.findNote(ctx, "get", id)
	if err != nil {
		return nil, err
	}
	return toNoteResponse(note), nil
}

func (s *NoteService) GetText(ctx context.Context, id string) (*domain.NoteTextResponse, error) {
	note, err := s.findNote(ctx, "get text", id)
	if err != nil {
		return nil, err
	}
	return toTextResponse(note), nil
}

func (s *NoteService) GetStats(ctx context.Context, id string) (*domain.NoteStatsResponse, error) {
	note, err := s.findNote(ctx, "get stats", id)
	if err != nil {
		return nil, err
	}

	return &domain.NoteStatsResponse{
		NoteID: note.ID,
		Stats:  stats.Compute(note.Text),
	}, nil
}

// Update applies patch field by field and writes the whole note back. Two
// concurrent updates of one note resolve last-write-wins.
func (s *NoteService) Update(ctx context.Context, id string, patch domain.NotePatch) (*domain.NoteResponse, error) {
	if verr := validatePatch(patch); verr != nil {
		return nil, verr
	}

	note, err := s.findNote(ctx, "update", id)
	if err != nil {
		return nil, err
	}

	merged := domain.MergeNote(*note, patch)

	if err := s.repo.Replace(ctx, &merged); err != nil {
		if errors.Is(err, repository.ErrNoteNotFound) {
			return nil, &NotFoundError{Op: "update", ID: id}
		}
		slog.ErrorContext(ctx, "failed to save note", "op", "update", "id", id, "error", err)
		return nil, &SaveError{Op: "update", ID: id, Err: err}
	}

	response := toNoteResponse(&merged)
	s.publish(domain.ChangeUpdated, &merged, response)

	return response, nil
}

func (s *NoteService) Delete(ctx context.Context, id string) error {
	note, err := s.findNote(ctx, "delete", id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNoteNotFound) {
			return &NotFoundError{Op: "delete", ID: id}
		}
		slog.ErrorContext(ctx, "failed to delete note", "id", id, "error", err)
		return &StoreError{Op: "delete", Err: err}
	}

	s.publish(domain.ChangeDeleted, note, nil)

	return nil
}

// ListPreviews returns one page of notes carrying any tag of filter, newest
// first. An empty filter lists every note; a zero page size means the default.
func (s *NoteService) ListPreviews(ctx context.Context, filter domain.TagFilter, page domain.PageRequest) (*domain.Page[domain.NotePreview], error) {
	if page.Size == 0 {
		page.Size = domain.DefaultPageSize
	}
	if verr := validateListing(filter, page); verr != nil {
		return nil, verr
	}

	notes, total, err := s.repo.FindByTags(ctx, filter, page)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list notes", "tags", filter, "page", page.Page, "size", page.Size, "error", err)
		return nil, &StoreError{Op: "list", Err: err}
	}

	previews := make([]domain.NotePreview, len(notes))
	for i, n := range notes {
		previews[i] = toPreview(n)
	}

	return domain.NewPage(previews, page, total), nil
}

func (s *NoteService) findNote(ctx context.Context, op, id string) (*domain.Note, error) {
	note, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNoteNotFound) {
			return nil, &NotFoundError{Op: op, ID: id}
		}
		slog.ErrorContext(ctx, "failed to read note", "op", op, "id", id, "error", err)
		return nil, &StoreError{Op: op, Err: err}
	}
	return note, nil
}

func (s *NoteService) publish(op domain.ChangeOperation, note *domain.Note, response *domain.NoteResponse) {
	if s.notifier == nil {
		return
	}
	s.notifier.NotifyNoteChange(&domain.NoteChange{
		Operation: op,
		NoteID:    note.ID,
		Tags:      slices.Clone(note.Tags),
		Note:      response,
	})
}

func validateCreate(req *domain.CreateNoteRequest) *ValidationError {
	verr := NewValidationError()
	if strings.TrimSpace(req.Title) == "" {
		verr.Add("title", MsgNotBlank)
	}
	if strings.TrimSpace(req.Text) == "" {
		verr.Add("text", MsgNotBlank)
	}
	if req.Tags == nil {
		verr.Add("tags", MsgNotNull)
	}
	checkTags(verr, "tags", req.Tags)

	if verr.HasErrors() {
		return verr
	}
	return nil
}

func validatePatch(patch domain.NotePatch) *ValidationError {
	verr := NewValidationError()
	if title, ok := patch.Title.Get(); ok && title == "" {
		verr.Add("title", MsgMinSize)
	}
	if text, ok := patch.Text.Get(); ok && text == "" {
		verr.Add("text", MsgMinSize)
	}
	if tags, ok := patch.Tags.Get(); ok {
		checkTags(verr, "tags", tags)
	}

	if verr.HasErrors() {
		return verr
	}
	return nil
}

func validateListing(filter domain.TagFilter, page domain.PageRequest) *ValidationError {
	verr := NewValidationError()
	if page.Page < 0 || page.OffsetOverflows() {
		verr.Add("page", MsgPageIndex)
	}
	if page.Size < 1 || page.Size > domain.MaxPageSize {
		verr.Add("size", MsgPageSize)
	}
	checkTags(verr, "tags", filter)

	if verr.HasErrors() {
		return verr
	}
	return nil
}

func checkTags(verr *ValidationError, field string, tags []domain.Tag) {
	for i, t := range tags {
		if !t.Valid() {
			verr.Add(indexedField(field, i), MsgUnknownTag)
		}
	}
}
