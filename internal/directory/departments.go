package directory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/civicgrid/user-service/internal/docstore"
	"github.com/civicgrid/user-service/internal/pagination"
	"github.com/civicgrid/user-service/internal/users"
	"github.com/google/uuid"
)

const departmentKind = "Department"

// DepartmentStore manages the one kind without an identity record:
// departments live purely in the document store, keyed by a generated uid
// and owned by a service through the serviceUid reference.
type DepartmentStore struct {
	store      docstore.Store
	collection string
	newID      func() string
	clock      func() time.Time
}

// NewDepartmentStore wires the department collection.
func NewDepartmentStore(store docstore.Store, collection string) (*DepartmentStore, error) {
	if store == nil {
		return nil, fmt.Errorf("directory: document store required")
	}
	return &DepartmentStore{
		store:      store,
		collection: collection,
		newID:      uuid.NewString,
		clock:      time.Now,
	}, nil
}

// Find loads one department.
func (s *DepartmentStore) Find(ctx context.Context, uid string) (*users.Department, error) {
	document, err := s.store.Get(ctx, s.collection, uid)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, users.NewNotFound(departmentKind, uid)
	}
	if err != nil {
		return nil, err
	}
	return decodeDepartment(document), nil
}

// ListByService pages the departments owned by one service.
func (s *DepartmentStore) ListByService(ctx context.Context, serviceUID string, pageable pagination.Pageable) (pagination.PagedResult[*users.Department], error) {
	filter := docstore.Filter{docstore.Eq(fieldServiceUID, serviceUID)}
	return pagination.Paginate(ctx, s.store, s.collection, filter, pageable,
		func(_ context.Context, document docstore.Document) (*users.Department, bool, error) {
			return decodeDepartment(document), true, nil
		})
}

// Create assigns a fresh uid and writes the full document.
func (s *DepartmentStore) Create(ctx context.Context, department *users.Department) error {
	department.UID = s.newID()
	department.CreatedAt = s.clock().UTC()

	fields := encodeDepartment(department)
	fields[fieldCreationDate] = department.CreatedAt
	return s.store.Set(ctx, s.collection, department.UID, fields)
}

// Update patches only the changed fields. The serviceUid reference is fixed
// at create time and never part of the patch.
func (s *DepartmentStore) Update(ctx context.Context, department *users.Department) (*users.Department, error) {
	document, err := s.store.Get(ctx, s.collection, department.UID)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, users.NewNotFound(departmentKind, department.UID)
	}
	if err != nil {
		return nil, err
	}

	patch := map[string]any{}
	if department.Name != docstore.String(document.Fields, fieldName) {
		patch[fieldName] = department.Name
	}
	if department.Description != docstore.String(document.Fields, fieldDescription) {
		patch[fieldDescription] = department.Description
	}
	if department.Address != docstore.String(document.Fields, fieldAddress) {
		patch[fieldAddress] = department.Address
	}
	if department.PhoneNumber != docstore.String(document.Fields, fieldPhoneNumber) {
		patch[fieldPhoneNumber] = department.PhoneNumber
	}
	if !int64sEqual(department.Categories, docstore.Int64s(document.Fields, fieldCategories)) {
		patch[fieldCategories] = department.Categories
	}

	if len(patch) > 0 {
		if err := s.store.Update(ctx, s.collection, department.UID, patch); err != nil {
			return nil, err
		}
	}
	return department, nil
}

// Delete removes the document. Departments carry no status, so this is the
// one kind where delete is hard.
func (s *DepartmentStore) Delete(ctx context.Context, uid string) error {
	if _, err := s.Find(ctx, uid); err != nil {
		return err
	}
	return s.store.Delete(ctx, s.collection, uid)
}

func decodeDepartment(document docstore.Document) *users.Department {
	return &users.Department{
		UID:         document.ID,
		Name:        docstore.String(document.Fields, fieldName),
		Description: docstore.String(document.Fields, fieldDescription),
		Address:     docstore.String(document.Fields, fieldAddress),
		PhoneNumber: docstore.String(document.Fields, fieldPhoneNumber),
		Categories:  docstore.Int64s(document.Fields, fieldCategories),
		ServiceUID:  docstore.String(document.Fields, fieldServiceUID),
		CreatedAt:   docstore.Time(document.Fields, fieldCreationDate),
	}
}

func encodeDepartment(department *users.Department) map[string]any {
	return map[string]any{
		fieldName:        department.Name,
		fieldDescription: department.Description,
		fieldAddress:     department.Address,
		fieldPhoneNumber: department.PhoneNumber,
		fieldCategories:  department.Categories,
		fieldServiceUID:  department.ServiceUID,
	}
}

func int64sEqual(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
