package repository

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-kivik/kivik/v4"
)

const (
	indexDesignDoc      = "notes-index"
	indexName           = "by-type-created-at"
	validationDesignDoc = "_design/notes"
)

// validateNoteDoc rejects note documents whose title or text is missing or
// empty. It mirrors the service's own checks at the storage layer.
const validateNoteDoc = `function (newDoc, oldDoc, userCtx, secObj) {
  if (newDoc._deleted || newDoc.doc_type !== 'note') {
    return;
  }
  if (typeof newDoc.title !== 'string' || newDoc.title.length < 1) {
    throw({forbidden: 'title must be a non-empty string'});
  }
  if (typeof newDoc.text !== 'string' || newDoc.text.length < 1) {
    throw({forbidden: 'text must be a non-empty string'});
  }
  if (!Array.isArray(newDoc.tags)) {
    throw({forbidden: 'tags must be an array'});
  }
}`

type designDoc struct {
	ID                string `json:"_id"`
	Rev               string `json:"_rev,omitempty"`
	Language          string `json:"language"`
	ValidateDocUpdate string `json:"validate_doc_update"`
}

// EnsureSchema creates the database, the listing index and the validation
// design document when they are missing. It is safe to run repeatedly.
func EnsureSchema(ctx context.Context, client *kivik.Client, dbName string) error {
	exists, err := client.DBExists(ctx, dbName)
	if err != nil {
		return fmt.Errorf("failed to check database existence: %w", err)
	}

	if !exists {
		if err := client.CreateDB(ctx, dbName); err != nil && kivik.HTTPStatus(err) != http.StatusPreconditionFailed {
			return fmt.Errorf("failed to create database: %w", err)
		}
		slog.Info("created database", "name", dbName)
	}

	db := client.DB(dbName)

	index := map[string]interface{}{
		"fields": []string{"doc_type", "created_at"},
	}
	if err := db.CreateIndex(ctx, indexDesignDoc, indexName, index); err != nil {
		return fmt.Errorf("failed to create note index: %w", err)
	}

	return putValidationDoc(ctx, db)
}

func putValidationDoc(ctx context.Context, db *kivik.DB) error {
	doc := designDoc{
		ID:                validationDesignDoc,
		Language:          "javascript",
		ValidateDocUpdate: validateNoteDoc,
	}

	var existing designDoc
	err := db.Get(ctx, validationDesignDoc).ScanDoc(&existing)
	switch {
	case err == nil:
		if existing.ValidateDocUpdate == validateNoteDoc {
			return nil
		}
		doc.Rev = existing.Rev
	case kivik.HTTPStatus(err) != http.StatusNotFound:
		return fmt.Errorf("failed to read validation design doc: %w", err)
	}

	if _, err := db.Put(ctx, doc.ID, doc); err != nil {
		return fmt.Errorf("failed to store validation design doc: %w", err)
	}
	slog.Info("installed note validation", "design_doc", validationDesignDoc)

	return nil
}
