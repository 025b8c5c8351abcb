package domain

import "time"

type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Text      string    `json:"text"`
	Tags      []Tag     `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateNoteRequest struct {
	Title string `json:"title" validate:"notblank"`
	Text  string `json:"text" validate:"notblank"`
	Tags  []Tag  `json:"tags" validate:"required,dive,notetag"`
}

// UpdateNoteRequest is the wire shape of a partial update. A missing key and
// an explicit null both leave the field untouched.
type UpdateNoteRequest struct {
	Title *string `json:"title" validate:"omitempty,min=1"`
	Text  *string `json:"text" validate:"omitempty,min=1"`
	Tags  *[]Tag  `json:"tags" validate:"omitempty,dive,notetag"`
}

func (r *UpdateNoteRequest) ToPatch() NotePatch {
	var patch NotePatch
	if r.Title != nil {
		patch.Title = Some(*r.Title)
	}
	if r.Text != nil {
		patch.Text = Some(*r.Text)
	}
	if r.Tags != nil {
		patch.Tags = Some(*r.Tags)
	}
	return patch
}

type NoteResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Text      string    `json:"text"`
	Tags      []Tag     `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
}

type NoteTextResponse struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type NotePreview struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

type NoteStatsEntry struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

type NoteStatsResponse struct {
	NoteID string           `json:"note_id"`
	Stats  []NoteStatsEntry `json:"stats"`
}
