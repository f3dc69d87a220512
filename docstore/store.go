// Package docstore defines the document store the tournament data lives in
// and its backends: an in-process Memory store, a Postgres JSONB store and a
// Firestore store.
//
// Paths alternate collection and document ids: "teams" is a collection,
// "teams/t1" a document, "teams/t1/participants" a sub-collection.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound      = errors.New("document not found")
	ErrAlreadyExists = errors.New("document already exists")
	ErrInvalidPath   = errors.New("invalid document path")
)

type Document struct {
	ID   string
	Path string
	Data map[string]any
}

// DataTo decodes the document fields into v, a pointer to a struct with json tags.
func (d Document) DataTo(v any) error {
	return Decode(d.Data, v)
}

// Update sets one field. Path may be dotted to address nested fields.
type Update struct {
	Path  string
	Value any
}

type increment struct {
	delta int64
}

// Increment returns an update value that atomically adds delta to a numeric field.
// A missing field is treated as zero.
func Increment(delta int64) any {
	return increment{delta: delta}
}

type Op string

const (
	OpEqual        Op = "=="
	OpLess         Op = "<"
	OpLessEqual    Op = "<="
	OpGreater      Op = ">"
	OpGreaterEqual Op = ">="
)

type Filter struct {
	Field string
	Op    Op
	Value any
}

type OrderBy struct {
	Field string
	Desc  bool
}

type Store interface {
	List(ctx context.Context, collection string) ([]Document, error)
	Get(ctx context.Context, path string) (Document, error)
	Set(ctx context.Context, path string, fields map[string]any) error
	Update(ctx context.Context, path string, updates []Update) error
	Add(ctx context.Context, collection string, fields map[string]any) (string, error)
	Delete(ctx context.Context, path string) error
	Query(ctx context.Context, collection string, filters []Filter, order *OrderBy) ([]Document, error)
	// RunTransaction runs fn atomically. Reads inside fn must go through tx.
	RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	Close() error
}

// Tx is the view of the store inside RunTransaction. Writes become visible
// only when the transaction function returns nil.
type Tx interface {
	Get(path string) (Document, error)
	Set(path string, fields map[string]any) error
	Update(path string, updates []Update) error
	Delete(path string) error
}

// Join builds a path from its segments.
func Join(segments ...string) string {
	return strings.Join(segments, "/")
}

// splitDocPath returns the parent collection and id of a document path.
func splitDocPath(path string) (collection, id string, err error) {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments)%2 != 0 || hasEmpty(segments) {
		return "", "", fmt.Errorf("%w: %q is not a document path", ErrInvalidPath, path)
	}
	return strings.Join(segments[:len(segments)-1], "/"), segments[len(segments)-1], nil
}

func checkCollectionPath(path string) (string, error) {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments)%2 != 1 || hasEmpty(segments) {
		return "", fmt.Errorf("%w: %q is not a collection path", ErrInvalidPath, path)
	}
	return strings.Join(segments, "/"), nil
}

func hasEmpty(segments []string) bool {
	for _, s := range segments {
		if s == "" {
			return true
		}
	}
	return false
}
