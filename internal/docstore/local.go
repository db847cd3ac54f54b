package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"
)

// DocumentRow is the gorm model backing the local document store: one JSON
// blob per document.
type DocumentRow struct {
	Collection string    `gorm:"column:collection;primaryKey;size:64;not null"`
	ID         string    `gorm:"column:doc_id;primaryKey;size:190;not null"`
	FieldsJSON string    `gorm:"column:fields_json;not null"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName exposes the table backing local documents.
func (DocumentRow) TableName() string {
	return "doc_store"
}

// LocalStore implements Store on sqlite for development and tests. Filters
// and ordering run in memory after loading the collection, which keeps the
// backend honest about the declared Eq/In-only query surface.
type LocalStore struct {
	db *gorm.DB
}

// NewLocalStore constructs the embedded store.
func NewLocalStore(db *gorm.DB) (*LocalStore, error) {
	if db == nil {
		return nil, fmt.Errorf("docstore: database connection required")
	}
	return &LocalStore{db: db}, nil
}

func (s *LocalStore) Get(ctx context.Context, collection, id string) (Document, error) {
	var row DocumentRow
	err := s.db.WithContext(ctx).
		Where("collection = ? AND doc_id = ?", collection, id).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("docstore: get %s/%s: %w", collection, id, err)
	}
	return rowToDocument(row)
}

func (s *LocalStore) Set(ctx context.Context, collection, id string, fields map[string]any) error {
	encoded, err := encodeFields(fields)
	if err != nil {
		return fmt.Errorf("docstore: set %s/%s: %w", collection, id, err)
	}
	row := DocumentRow{Collection: collection, ID: id, FieldsJSON: encoded}
	err = s.db.WithContext(ctx).Save(&row).Error
	if err != nil {
		return fmt.Errorf("docstore: set %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *LocalStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	current, err := s.Get(ctx, collection, id)
	if err != nil {
		return err
	}
	for key, value := range fields {
		current.Fields[key] = value
	}
	encoded, err := encodeFields(current.Fields)
	if err != nil {
		return fmt.Errorf("docstore: update %s/%s: %w", collection, id, err)
	}
	err = s.db.WithContext(ctx).Model(&DocumentRow{}).
		Where("collection = ? AND doc_id = ?", collection, id).
		Update("fields_json", encoded).Error
	if err != nil {
		return fmt.Errorf("docstore: update %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *LocalStore) Delete(ctx context.Context, collection, id string) error {
	err := s.db.WithContext(ctx).
		Where("collection = ? AND doc_id = ?", collection, id).
		Delete(&DocumentRow{}).Error
	if err != nil {
		return fmt.Errorf("docstore: delete %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *LocalStore) Query(ctx context.Context, collection string, filter Filter, sortBy *Sort, offset, limit int) ([]Document, error) {
	documents, err := s.load(ctx, collection, filter)
	if err != nil {
		return nil, err
	}

	if sortBy != nil && sortBy.Field != "" {
		field := sortBy.Field
		desc := sortBy.Desc
		sort.SliceStable(documents, func(i, j int) bool {
			less := compareValues(documents[i].Fields[field], documents[j].Fields[field]) < 0
			if desc {
				return !less
			}
			return less
		})
	}

	if offset >= len(documents) {
		return nil, nil
	}
	documents = documents[offset:]
	if limit > 0 && limit < len(documents) {
		documents = documents[:limit]
	}
	return documents, nil
}

func (s *LocalStore) Count(ctx context.Context, collection string, filter Filter) (int64, error) {
	documents, err := s.load(ctx, collection, filter)
	if err != nil {
		return 0, err
	}
	return int64(len(documents)), nil
}

func (s *LocalStore) load(ctx context.Context, collection string, filter Filter) ([]Document, error) {
	var rows []DocumentRow
	err := s.db.WithContext(ctx).
		Where("collection = ?", collection).
		Order("doc_id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("docstore: query %s: %w", collection, err)
	}

	var documents []Document
	for _, row := range rows {
		document, err := rowToDocument(row)
		if err != nil {
			return nil, err
		}
		if matches(document, filter) {
			documents = append(documents, document)
		}
	}
	return documents, nil
}

func matches(document Document, filter Filter) bool {
	for _, condition := range filter {
		value := document.Fields[condition.Field]
		found := false
		for _, candidate := range condition.Values {
			if compareValues(value, candidate) == 0 {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// compareValues orders two field values: numbers numerically, times
// chronologically, everything else by string form. RFC3339 strings written
// by encodeFields order chronologically either way.
func compareValues(a, b any) int {
	if na, aok := asNumber(a); aok {
		if nb, bok := asNumber(b); bok {
			switch {
			case na < nb:
				return -1
			case na > nb:
				return 1
			default:
				return 0
			}
		}
	}
	sa, sb := asString(a), asString(b)
	switch {
	case sa < sb:
		return -1
	case sa > sb:
		return 1
	default:
		return 0
	}
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case time.Time:
		return s.UTC().Format(time.RFC3339Nano)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", s)
	}
}

func encodeFields(fields map[string]any) (string, error) {
	normalized := make(map[string]any, len(fields))
	for key, value := range fields {
		if t, ok := value.(time.Time); ok {
			normalized[key] = t.UTC().Format(time.RFC3339Nano)
			continue
		}
		normalized[key] = value
	}
	encoded, err := json.Marshal(normalized)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

func rowToDocument(row DocumentRow) (Document, error) {
	fields := map[string]any{}
	if err := json.Unmarshal([]byte(row.FieldsJSON), &fields); err != nil {
		return Document{}, fmt.Errorf("docstore: decode %s/%s: %w", row.Collection, row.ID, err)
	}
	return Document{ID: row.ID, Fields: fields}, nil
}
