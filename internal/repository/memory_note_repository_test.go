package repository

import (
	"context"
	"math"
	"testing"
	"time"

	"noteapp-server/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2024, 6, 15, 8, 0, 0, 0, time.UTC)

func seedNote(t *testing.T, repo NoteRepository, title string, offset time.Duration, tags ...domain.Tag) *domain.Note {
	t.Helper()
	note := &domain.Note{
		Title:     title,
		Text:      title + " text",
		Tags:      tags,
		CreatedAt: baseTime.Add(offset),
	}
	require.NoError(t, repo.Create(context.Background(), note))
	return note
}

func TestMemoryNoteRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryNoteRepository()

	note := seedNote(t, repo, "first", 0, domain.TagPersonal)
	require.NotEmpty(t, note.ID)

	found, err := repo.FindByID(ctx, note.ID)
	require.NoError(t, err)
	assert.Equal(t, "first", found.Title)
	assert.Equal(t, []domain.Tag{domain.TagPersonal}, found.Tags)

	found.Tags[0] = domain.TagBusiness
	again, err := repo.FindByID(ctx, note.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TagPersonal, again.Tags[0], "stored note must not alias returned copies")

	again.Title = "renamed"
	require.NoError(t, repo.Replace(ctx, again))
	renamed, err := repo.FindByID(ctx, note.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", renamed.Title)

	require.NoError(t, repo.Delete(ctx, note.ID))
	_, err = repo.FindByID(ctx, note.ID)
	assert.ErrorIs(t, err, ErrNoteNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, note.ID), ErrNoteNotFound)
	assert.ErrorIs(t, repo.Replace(ctx, note), ErrNoteNotFound)
}

func TestMemoryNoteRepository_FindByTags(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryNoteRepository()

	oldest := seedNote(t, repo, "oldest", 0, domain.TagBusiness)
	seedNote(t, repo, "personal", time.Minute, domain.TagPersonal)
	mixed := seedNote(t, repo, "mixed", 2*time.Minute, domain.TagPersonal, domain.TagBusiness)
	newest := seedNote(t, repo, "newest", 3*time.Minute, domain.TagBusiness, domain.TagImportant)
	seedNote(t, repo, "untagged", 4*time.Minute)

	notes, total, err := repo.FindByTags(ctx, domain.TagFilter{domain.TagBusiness}, domain.PageRequest{Page: 0, Size: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, notes, 3)
	assert.Equal(t, newest.ID, notes[0].ID)
	assert.Equal(t, mixed.ID, notes[1].ID)
	assert.Equal(t, oldest.ID, notes[2].ID)

	page, total, err := repo.FindByTags(ctx, domain.TagFilter{domain.TagBusiness}, domain.PageRequest{Page: 1, Size: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total, "total counts every match, not the page")
	require.Len(t, page, 1)
	assert.Equal(t, oldest.ID, page[0].ID)

	all, total, err := repo.FindByTags(ctx, nil, domain.PageRequest{Page: 0, Size: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, all, 5)

	beyond, total, err := repo.FindByTags(ctx, nil, domain.PageRequest{Page: 9, Size: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Empty(t, beyond)
}

func TestMemoryNoteRepository_SameTimestampNewestInsertFirst(t *testing.T) {
	repo := NewMemoryNoteRepository()

	first := seedNote(t, repo, "a", 0)
	second := seedNote(t, repo, "b", 0)

	notes, _, err := repo.FindByTags(context.Background(), nil, domain.DefaultPageRequest())
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, second.ID, notes[0].ID)
	assert.Equal(t, first.ID, notes[1].ID)
}

func TestMemoryNoteRepository_FindByTags_PastTheEnd(t *testing.T) {
	repo := NewMemoryNoteRepository()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &domain.Note{Title: "t", Text: "x", Tags: []domain.Tag{}, CreatedAt: time.Now()}))

	for _, req := range []domain.PageRequest{
		{Page: 5, Size: 10},
		{Page: math.MaxInt/10 + 1, Size: 10},
		{Page: math.MaxInt, Size: domain.MaxPageSize},
	} {
		notes, total, err := repo.FindByTags(ctx, nil, req)
		require.NoError(t, err)
		assert.Empty(t, notes)
		assert.Equal(t, int64(1), total)
	}
}
