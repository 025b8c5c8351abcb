package service

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError reports rejected input as field -> message.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

func (e *ValidationError) Add(field, message string) {
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = message
	}
}

func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

type NotFoundError struct {
	Op string
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: note %s not found", e.Op, e.ID)
}

// SaveMessage is the only text of a SaveError shown to clients.
const SaveMessage = "Note saving error"

// SaveError means the store rejected a write.
type SaveError struct {
	Op  string
	ID  string
	Err error
}

func (e *SaveError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s: %s: %v", e.Op, SaveMessage, e.Err)
	}
	return fmt.Sprintf("%s %s: %s: %v", e.Op, e.ID, SaveMessage, e.Err)
}

func (e *SaveError) Unwrap() error {
	return e.Err
}

// StoreMessage is the only text of a StoreError shown to clients.
const StoreMessage = "Note store error"

// StoreError is any other store failure.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, StoreMessage, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
