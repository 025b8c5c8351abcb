package domain

// NoteChange describes a committed mutation, published to change listeners.
type NoteChange struct {
	Operation ChangeOperation `json:"operation"`
	NoteID    string          `json:"note_id"`
	Tags      []Tag           `json:"tags"`
	Note      *NoteResponse   `json:"note,omitempty"`
}

type ChangeOperation string

const (
	ChangeCreated ChangeOperation = "created"
	ChangeUpdated ChangeOperation = "updated"
	ChangeDeleted ChangeOperation = "deleted"
)
