// Package pagination implements offset paging over the document store's
// constrained query surface.
package pagination

import (
	"context"

	"github.com/civicgrid/user-service/internal/docstore"
)

// Direction orders a page by its sort field.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

const DefaultPageSize = 20

// Pageable is an offset page request. Construct through NewPageable so the
// clamping invariants hold: page >= 0, size >= 1.
type Pageable struct {
	page      int
	size      int
	sortField string
	direction Direction
}

// NewPageable builds a clamped page request.
func NewPageable(page, size int, sortField string, direction Direction) Pageable {
	if page < 0 {
		page = 0
	}
	if size < 1 {
		size = 1
	}
	if direction != Asc {
		direction = Desc
	}
	return Pageable{page: page, size: size, sortField: sortField, direction: direction}
}

func (p Pageable) Page() int         { return p.page }
func (p Pageable) Size() int         { return p.size }
func (p Pageable) Offset() int       { return p.page * p.size }
func (p Pageable) SortField() string { return p.sortField }

// Sort returns the docstore ordering for this request, nil when unsorted.
func (p Pageable) Sort() *docstore.Sort {
	if p.sortField == "" {
		return nil
	}
	return &docstore.Sort{Field: p.sortField, Desc: p.direction == Desc}
}

// PagedResult is one page of mapped items plus the totals for the whole
// filtered set.
type PagedResult[T any] struct {
	Items       []T
	CurrentPage int
	TotalItems  int64
	TotalPages  int
}

// MapFunc converts one raw document into an item. Returning ok=false skips
// the document without failing the page; skipped documents still count
// toward TotalItems, a known approximation of the totals.
type MapFunc[T any] func(ctx context.Context, doc docstore.Document) (item T, ok bool, err error)

// Paginate counts the filtered set, fetches one page and maps it. Adapter
// failures propagate; an error never masquerades as an empty page.
func Paginate[T any](ctx context.Context, store docstore.Store, collection string, filter docstore.Filter, pageable Pageable, mapFn MapFunc[T]) (PagedResult[T], error) {
	totalItems, err := store.Count(ctx, collection, filter)
	if err != nil {
		return PagedResult[T]{}, err
	}
	totalPages := int((totalItems + int64(pageable.Size()) - 1) / int64(pageable.Size()))

	documents, err := store.Query(ctx, collection, filter, pageable.Sort(), pageable.Offset(), pageable.Size())
	if err != nil {
		return PagedResult[T]{}, err
	}

	items := make([]T, 0, len(documents))
	for _, document := range documents {
		item, ok, err := mapFn(ctx, document)
		if err != nil {
			return PagedResult[T]{}, err
		}
		if !ok {
			continue
		}
		items = append(items, item)
	}

	return PagedResult[T]{
		Items:       items,
		CurrentPage: pageable.Page(),
		TotalItems:  totalItems,
		TotalPages:  totalPages,
	}, nil
}
