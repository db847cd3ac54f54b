package docstore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore implements Store on top of a Cloud Firestore client.
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore wraps an initialized Firestore client.
func NewFirestoreStore(client *firestore.Client) (*FirestoreStore, error) {
	if client == nil {
		return nil, fmt.Errorf("docstore: firestore client required")
	}
	return &FirestoreStore{client: client}, nil
}

func (s *FirestoreStore) Get(ctx context.Context, collection, id string) (Document, error) {
	snapshot, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("docstore: get %s/%s: %w", collection, id, err)
	}
	if !snapshot.Exists() {
		return Document{}, ErrNotFound
	}
	return Document{ID: snapshot.Ref.ID, Fields: snapshot.Data()}, nil
}

func (s *FirestoreStore) Set(ctx context.Context, collection, id string, fields map[string]any) error {
	if _, err := s.client.Collection(collection).Doc(id).Set(ctx, fields); err != nil {
		return fmt.Errorf("docstore: set %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *FirestoreStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	updates := make([]firestore.Update, 0, len(fields))
	for key, value := range fields {
		updates = append(updates, firestore.Update{Path: key, Value: value})
	}
	_, err := s.client.Collection(collection).Doc(id).Update(ctx, updates)
	if status.Code(err) == codes.NotFound {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("docstore: update %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *FirestoreStore) Delete(ctx context.Context, collection, id string) error {
	if _, err := s.client.Collection(collection).Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("docstore: delete %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *FirestoreStore) Query(ctx context.Context, collection string, filter Filter, sort *Sort, offset, limit int) ([]Document, error) {
	query := s.applyFilter(s.client.Collection(collection).Query, filter)
	if sort != nil && sort.Field != "" {
		direction := firestore.Asc
		if sort.Desc {
			direction = firestore.Desc
		}
		query = query.OrderBy(sort.Field, direction)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var documents []Document
	for {
		snapshot, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("docstore: query %s: %w", collection, err)
		}
		documents = append(documents, Document{ID: snapshot.Ref.ID, Fields: snapshot.Data()})
	}
	return documents, nil
}

func (s *FirestoreStore) Count(ctx context.Context, collection string, filter Filter) (int64, error) {
	iter := s.applyFilter(s.client.Collection(collection).Query, filter).Documents(ctx)
	defer iter.Stop()

	var total int64
	for {
		_, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("docstore: count %s: %w", collection, err)
		}
		total++
	}
	return total, nil
}

func (s *FirestoreStore) applyFilter(query firestore.Query, filter Filter) firestore.Query {
	for _, condition := range filter {
		if len(condition.Values) == 1 {
			query = query.Where(condition.Field, "==", condition.Values[0])
		} else if len(condition.Values) > 1 {
			query = query.Where(condition.Field, "in", condition.Values)
		}
	}
	return query
}
