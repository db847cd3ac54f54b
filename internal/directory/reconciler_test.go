package directory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/civicgrid/user-service/internal/docstore"
	"github.com/civicgrid/user-service/internal/identity"
	"github.com/civicgrid/user-service/internal/pagination"
	"github.com/civicgrid/user-service/internal/users"
	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// spyProvider counts mutating identity calls on top of the real adapter.
type spyProvider struct {
	identity.Provider
	userUpdates int
	claimWrites int
}

func (s *spyProvider) UpdateUser(ctx context.Context, uid string, update identity.Update) error {
	s.userUpdates++
	return s.Provider.UpdateUser(ctx, uid, update)
}

func (s *spyProvider) SetClaims(ctx context.Context, uid string, claims identity.Claims) error {
	s.claimWrites++
	return s.Provider.SetClaims(ctx, uid, claims)
}

// spyStore counts mutating document calls on top of the real adapter.
type spyStore struct {
	docstore.Store
	sets    int
	updates int
}

func (s *spyStore) Set(ctx context.Context, collection, id string, fields map[string]any) error {
	s.sets++
	return s.Store.Set(ctx, collection, id, fields)
}

func (s *spyStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	s.updates++
	return s.Store.Update(ctx, collection, id, fields)
}

func (s *spyStore) reset() { s.sets, s.updates = 0, 0 }

type testBackend struct {
	directory *Directory
	provider  *spyProvider
	store     *spyStore
}

func (b *testBackend) resetCounters() {
	b.provider.userUpdates = 0
	b.provider.claimWrites = 0
	b.store.reset()
}

func newTestBackend(t *testing.T, name string) *testBackend {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&identity.UserRow{}, &docstore.DocumentRow{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	localProvider, err := identity.NewLocalProvider(identity.LocalProviderConfig{
		Database:      db,
		SigningSecret: []byte("directory-test-secret"),
		TokenTTL:      time.Hour,
	})
	if err != nil {
		t.Fatalf("failed to build provider: %v", err)
	}
	localStore, err := docstore.NewLocalStore(db)
	if err != nil {
		t.Fatalf("failed to build store: %v", err)
	}

	provider := &spyProvider{Provider: localProvider}
	store := &spyStore{Store: localStore}

	dir, err := New(Config{Provider: provider, Store: store})
	if err != nil {
		t.Fatalf("failed to build directory: %v", err)
	}
	return &testBackend{directory: dir, provider: provider, store: store}
}

func mustCreateResident(t *testing.T, backend *testBackend, email string) *users.Resident {
	t.Helper()
	resident := &users.Resident{
		Account:   users.Account{Email: email, Password: "secret123", PhoneNumber: "+420123456789"},
		FirstName: "Jane",
		LastName:  "Doe",
	}
	if err := backend.directory.Residents.Create(context.Background(), resident); err != nil {
		t.Fatalf("create resident failed: %v", err)
	}
	return resident
}

func TestCreateResidentProvisionsBothStores(t *testing.T) {
	backend := newTestBackend(t, "dir_create")
	ctx := context.Background()

	resident := mustCreateResident(t, backend, "jane@example.com")
	if resident.UID == "" {
		t.Fatalf("expected a uid after create")
	}
	if resident.Status != users.StatusActive || resident.Role != users.RoleResident {
		t.Fatalf("expected an active resident, got role=%s status=%s", resident.Role, resident.Status)
	}
	if resident.Password != "" {
		t.Fatalf("expected the password to be cleared after create")
	}

	record, err := backend.provider.GetUser(ctx, resident.UID)
	if err != nil {
		t.Fatalf("identity record missing: %v", err)
	}
	if record.Claims.Role() != "RESIDENT" || record.Claims.Status() != "ACTIVE" {
		t.Fatalf("expected role and status claims, got %v", record.Claims)
	}

	document, err := backend.store.Get(ctx, "residents", resident.UID)
	if err != nil {
		t.Fatalf("profile document missing: %v", err)
	}
	if docstore.String(document.Fields, "firstName") != "Jane" {
		t.Fatalf("expected profile fields on the document, got %v", document.Fields)
	}
	if docstore.String(document.Fields, "status") != "ACTIVE" {
		t.Fatalf("expected the status copy on the document, got %v", document.Fields["status"])
	}
	if _, ok := document.Fields["creationDate"]; !ok {
		t.Fatalf("expected a creationDate field on the document")
	}
}

func TestFindRejectsCrossKindUID(t *testing.T) {
	backend := newTestBackend(t, "dir_crosskind")
	resident := mustCreateResident(t, backend, "jane@example.com")

	_, err := backend.directory.Services.Find(context.Background(), resident.UID)
	if !errors.Is(err, users.ErrNotFound) {
		t.Fatalf("expected a resident uid to read as absent through the service kind, got %v", err)
	}
}

func TestUpdateWithIdenticalPayloadWritesNothing(t *testing.T) {
	backend := newTestBackend(t, "dir_noop_update")
	ctx := context.Background()
	resident := mustCreateResident(t, backend, "jane@example.com")

	current, err := backend.directory.Residents.Find(ctx, resident.UID)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}

	backend.resetCounters()
	if _, err := backend.directory.Residents.Update(ctx, current); err != nil {
		t.Fatalf("no-op update failed: %v", err)
	}
	if backend.provider.userUpdates != 0 || backend.provider.claimWrites != 0 {
		t.Fatalf("expected zero identity writes for an identical payload, got %d updates and %d claim writes",
			backend.provider.userUpdates, backend.provider.claimWrites)
	}
	if backend.store.sets != 0 || backend.store.updates != 0 {
		t.Fatalf("expected zero document writes for an identical payload, got %d sets and %d updates",
			backend.store.sets, backend.store.updates)
	}
}

func TestUpdateWritesOnlyTheChangedStore(t *testing.T) {
	backend := newTestBackend(t, "dir_partial_update")
	ctx := context.Background()
	resident := mustCreateResident(t, backend, "jane@example.com")

	current, err := backend.directory.Residents.Find(ctx, resident.UID)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}

	// phone number lives only on the identity record
	current.PhoneNumber = "+420999000111"
	backend.resetCounters()
	if _, err := backend.directory.Residents.Update(ctx, current); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if backend.provider.userUpdates != 1 {
		t.Fatalf("expected exactly one identity write, got %d", backend.provider.userUpdates)
	}
	if backend.store.updates != 0 {
		t.Fatalf("expected no document write for a phone change, got %d", backend.store.updates)
	}

	// last name lives only on the document, but changes the display name too
	current.LastName = "Smith"
	backend.resetCounters()
	updated, err := backend.directory.Residents.Update(ctx, current)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if backend.store.updates != 1 {
		t.Fatalf("expected exactly one document write, got %d", backend.store.updates)
	}
	if updated.LastName != "Smith" {
		t.Fatalf("expected the change to stick, got %q", updated.LastName)
	}
}

func TestDeleteIsSoftAndRepeatConflicts(t *testing.T) {
	backend := newTestBackend(t, "dir_soft_delete")
	ctx := context.Background()
	resident := mustCreateResident(t, backend, "jane@example.com")

	if err := backend.directory.Residents.Delete(ctx, resident.UID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	found, err := backend.directory.Residents.Find(ctx, resident.UID)
	if err != nil {
		t.Fatalf("expected a soft-deleted resident to keep resolving, got %v", err)
	}
	if found.Status != users.StatusDeleted {
		t.Fatalf("expected status DELETED, got %s", found.Status)
	}

	err = backend.directory.Residents.Delete(ctx, resident.UID)
	if !errors.Is(err, users.ErrConflict) {
		t.Fatalf("expected a repeat delete to conflict, got %v", err)
	}
}

func TestStatusFilterRestrictsListings(t *testing.T) {
	backend := newTestBackend(t, "dir_status_filter")
	ctx := context.Background()

	active := mustCreateResident(t, backend, "active@example.com")
	banned := mustCreateResident(t, backend, "banned@example.com")
	if _, err := backend.directory.Residents.UpdateStatus(ctx, banned.UID, users.StatusBanned); err != nil {
		t.Fatalf("status update failed: %v", err)
	}

	pageable := pagination.NewPageable(0, 20, "creationDate", pagination.Asc)
	result, err := backend.directory.Residents.List(ctx, StatusFilter([]users.Status{users.StatusActive}), pageable)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if result.TotalItems != 1 || len(result.Items) != 1 {
		t.Fatalf("expected the ban to drop out of the active listing, got %d items", len(result.Items))
	}
	if result.Items[0].UID != active.UID {
		t.Fatalf("expected the active resident, got %q", result.Items[0].UID)
	}

	all, err := backend.directory.Residents.List(ctx, nil, pageable)
	if err != nil {
		t.Fatalf("unfiltered list failed: %v", err)
	}
	if all.TotalItems != 2 {
		t.Fatalf("expected both residents without a filter, got %d", all.TotalItems)
	}
}

func TestListPagesPartitionTheListing(t *testing.T) {
	backend := newTestBackend(t, "dir_page_walk")
	ctx := context.Background()

	const total = 7
	for i := 0; i < total; i++ {
		mustCreateResident(t, backend, fmt.Sprintf("resident%d@example.com", i))
	}

	seen := map[string]bool{}
	page := 0
	for {
		pageable := pagination.NewPageable(page, 3, "creationDate", pagination.Asc)
		result, err := backend.directory.Residents.List(ctx, nil, pageable)
		if err != nil {
			t.Fatalf("list page %d failed: %v", page, err)
		}
		if result.TotalItems != total {
			t.Fatalf("expected %d total items on page %d, got %d", total, page, result.TotalItems)
		}
		if result.TotalPages != 3 {
			t.Fatalf("expected 3 pages for %d items of size 3, got %d", total, result.TotalPages)
		}
		for _, item := range result.Items {
			if seen[item.UID] {
				t.Fatalf("resident %q appeared on more than one page", item.UID)
			}
			seen[item.UID] = true
		}
		page++
		if page >= result.TotalPages {
			break
		}
	}
	if len(seen) != total {
		t.Fatalf("expected the pages to cover all %d residents, got %d", total, len(seen))
	}
}

func TestPurgeRemovesBothRecords(t *testing.T) {
	backend := newTestBackend(t, "dir_purge")
	ctx := context.Background()
	resident := mustCreateResident(t, backend, "jane@example.com")

	if err := backend.directory.Residents.Purge(ctx, resident.UID); err != nil {
		t.Fatalf("purge failed: %v", err)
	}
	if _, err := backend.directory.Residents.Find(ctx, resident.UID); !errors.Is(err, users.ErrNotFound) {
		t.Fatalf("expected purged resident to be gone, got %v", err)
	}
	if _, err := backend.provider.GetUser(ctx, resident.UID); !errors.Is(err, identity.ErrUserNotFound) {
		t.Fatalf("expected the identity record to be gone, got %v", err)
	}
	if _, err := backend.store.Get(ctx, "residents", resident.UID); !errors.Is(err, docstore.ErrNotFound) {
		t.Fatalf("expected the document to be gone, got %v", err)
	}
}

func TestCreateEmployeeRequiresOwnedDepartment(t *testing.T) {
	backend := newTestBackend(t, "dir_employee")
	ctx := context.Background()

	service := &users.Service{
		Account: users.Account{Email: "roads@example.com", Password: "secret123"},
		Name:    "Roads",
	}
	if err := backend.directory.Services.Create(ctx, service); err != nil {
		t.Fatalf("create service failed: %v", err)
	}
	department := &users.Department{Name: "Potholes", Categories: []int64{1, 2}}
	if err := backend.directory.CreateDepartment(ctx, service.UID, department); err != nil {
		t.Fatalf("create department failed: %v", err)
	}

	stranger := &users.Employee{
		Account:       users.Account{Email: "worker@example.com", Password: "secret123"},
		FirstName:     "Sam",
		LastName:      "Field",
		DepartmentUID: "someone-elses-department",
	}
	err := backend.directory.CreateEmployee(ctx, service.UID, stranger)
	if !errors.Is(err, users.ErrNotFound) {
		t.Fatalf("expected a foreign department to read as absent, got %v", err)
	}

	stranger.DepartmentUID = department.UID
	if err := backend.directory.CreateEmployee(ctx, service.UID, stranger); err != nil {
		t.Fatalf("create employee failed: %v", err)
	}

	record, err := backend.provider.GetUser(ctx, stranger.UID)
	if err != nil {
		t.Fatalf("identity record missing: %v", err)
	}
	if record.Claims["serviceUid"] != service.UID || record.Claims["departmentUid"] != department.UID {
		t.Fatalf("expected service and department claims, got %v", record.Claims)
	}

	owned, err := backend.directory.ServiceOwnsEmployee(ctx, service.UID, stranger.UID)
	if err != nil || !owned {
		t.Fatalf("expected the service to own its employee, got owned=%v err=%v", owned, err)
	}
}
