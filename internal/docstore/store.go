// Package docstore wraps the external document database: one schemaless
// collection per user kind, queried by equality and in-set predicates with
// single-field ordering and offset pagination. The filter surface mirrors
// what the backing store supports and must not be widened.
package docstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the document does not exist.
var ErrNotFound = errors.New("docstore: document not found")

// Document is one stored record: its id plus the raw field map.
type Document struct {
	ID     string
	Fields map[string]any
}

// Condition is one predicate on a declared field: equality when Values has
// one element, "value in set" otherwise.
type Condition struct {
	Field  string
	Values []any
}

// Filter is a conjunction of conditions.
type Filter []Condition

// Eq builds an equality condition.
func Eq(field string, value any) Condition {
	return Condition{Field: field, Values: []any{value}}
}

// In builds an in-set condition.
func In(field string, values ...any) Condition {
	return Condition{Field: field, Values: values}
}

// Sort orders results by a single field.
type Sort struct {
	Field string
	Desc  bool
}

// Store is the capability surface this service needs from the document
// backend. Set is a full overwrite used only at create time; Update is a
// partial patch used by diff reconciliation.
type Store interface {
	Get(ctx context.Context, collection, id string) (Document, error)
	Set(ctx context.Context, collection, id string, fields map[string]any) error
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	Delete(ctx context.Context, collection, id string) error
	Query(ctx context.Context, collection string, filter Filter, sort *Sort, offset, limit int) ([]Document, error)
	Count(ctx context.Context, collection string, filter Filter) (int64, error)
}
