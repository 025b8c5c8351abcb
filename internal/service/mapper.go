package service

import (
	"slices"

	"noteapp-server/internal/domain"
)

func toNoteResponse(n *domain.Note) *domain.NoteResponse {
	tags := slices.Clone(n.Tags)
	if tags == nil {
		tags = []domain.Tag{}
	}
	return &domain.NoteResponse{
		ID:        n.ID,
		Title:     n.Title,
		Text:      n.Text,
		Tags:      tags,
		CreatedAt: n.CreatedAt,
	}
}

func toTextResponse(n *domain.Note) *domain.NoteTextResponse {
	return &domain.NoteTextResponse{
		ID:   n.ID,
		Text: n.Text,
	}
}

func toPreview(n *domain.Note) domain.NotePreview {
	return domain.NotePreview{
		ID:        n.ID,
		Title:     n.Title,
		CreatedAt: n.CreatedAt,
	}
}
