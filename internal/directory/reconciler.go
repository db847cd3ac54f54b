// Package directory reconciles the two independently-mutable user stores —
// the identity provider record and the profile document — into one domain
// entity per user kind.
package directory

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/civicgrid/user-service/internal/docstore"
	"github.com/civicgrid/user-service/internal/identity"
	"github.com/civicgrid/user-service/internal/pagination"
	"github.com/civicgrid/user-service/internal/users"
	"go.uber.org/zap"
)

const (
	claimRole   = "role"
	claimStatus = "status"

	fieldStatus       = "status"
	fieldCreationDate = "creationDate"
)

// Descriptor tells the generic reconciler how one user kind maps onto the
// two stores. One descriptor per kind replaces the per-kind repository
// copy-paste the service grew out of.
type Descriptor[E any] struct {
	Kind       string
	Role       users.Role
	Collection string

	// Email verification conventions differ per kind: residents confirm
	// their own address, staff accounts are provisioned pre-verified.
	CreateEmailVerified   bool
	EmailVerifiedOnChange bool

	// Account exposes the embedded identity-backed fields of the entity.
	Account     func(*E) *users.Account
	DisplayName func(*E) string

	// Encode produces the full profile document at create time; Decode reads
	// profile fields out of a document; Diff returns only the changed fields.
	Encode func(*E) map[string]any
	Decode func(*E, map[string]any)
	Diff   func(*E, map[string]any) map[string]any

	// ExtraClaims contributes kind-specific claims beyond role and status,
	// e.g. the employee's service and department references. Optional.
	ExtraClaims func(*E) identity.Claims
}

// Reconciler performs reads as identity+document merges and writes as
// field-level diffs against both stores. The stores share no transaction;
// ordering is identity first, document second, and the create path accepts
// an orphaned-identity window that is logged for the reconciliation sweep.
type Reconciler[E any] struct {
	desc     Descriptor[E]
	provider identity.Provider
	store    docstore.Store
	logger   *zap.Logger
}

// NewReconciler wires one kind's reconciler.
func NewReconciler[E any](desc Descriptor[E], provider identity.Provider, store docstore.Store, logger *zap.Logger) (*Reconciler[E], error) {
	if provider == nil {
		return nil, fmt.Errorf("directory: identity provider required")
	}
	if store == nil {
		return nil, fmt.Errorf("directory: document store required")
	}
	if desc.Account == nil || desc.Encode == nil || desc.Decode == nil || desc.Diff == nil {
		return nil, fmt.Errorf("directory: incomplete descriptor for %s", desc.Kind)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler[E]{desc: desc, provider: provider, store: store, logger: logger}, nil
}

// Find merges the identity record and the profile document for one uid. A
// record whose role claim names a different kind is reported as not found;
// a cross-kind uid is indistinguishable from an absent one.
func (r *Reconciler[E]) Find(ctx context.Context, uid string) (*E, error) {
	record, err := r.provider.GetUser(ctx, uid)
	if errors.Is(err, identity.ErrUserNotFound) {
		return nil, users.NewNotFound(r.desc.Kind, uid)
	}
	if err != nil {
		return nil, err
	}
	if record.Claims.Role() != string(r.desc.Role) {
		return nil, users.NewNotFound(r.desc.Kind, uid)
	}

	document, err := r.store.Get(ctx, r.desc.Collection, uid)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, users.NewNotFound(r.desc.Kind, uid)
	}
	if err != nil {
		return nil, err
	}

	return r.merge(record, document), nil
}

// List pages over the kind's collection. Documents whose identity record is
// missing or carries another role are skipped; the totals still count them.
func (r *Reconciler[E]) List(ctx context.Context, filter docstore.Filter, pageable pagination.Pageable) (pagination.PagedResult[*E], error) {
	return pagination.Paginate(ctx, r.store, r.desc.Collection, filter, pageable,
		func(ctx context.Context, document docstore.Document) (*E, bool, error) {
			record, err := r.provider.GetUser(ctx, document.ID)
			if errors.Is(err, identity.ErrUserNotFound) {
				return nil, false, nil
			}
			if err != nil {
				return nil, false, err
			}
			if record.Claims.Role() != string(r.desc.Role) {
				return nil, false, nil
			}
			return r.merge(record, document), true, nil
		})
}

// Count reports the size of the filtered collection.
func (r *Reconciler[E]) Count(ctx context.Context, filter docstore.Filter) (int64, error) {
	return r.store.Count(ctx, r.desc.Collection, filter)
}

// Create provisions identity record, claims and profile document in that
// order. A failure after the identity write leaves an orphaned record; the
// uid is logged so the sweep can pick it up.
func (r *Reconciler[E]) Create(ctx context.Context, entity *E) error {
	account := r.desc.Account(entity)

	record, err := r.provider.CreateUser(ctx, identity.CreateRequest{
		Email:         account.Email,
		Password:      account.Password,
		DisplayName:   r.desc.DisplayName(entity),
		PhoneNumber:   account.PhoneNumber,
		EmailVerified: r.desc.CreateEmailVerified,
	})
	if err != nil {
		return err
	}

	claims := identity.Claims{
		claimRole:   string(r.desc.Role),
		claimStatus: string(users.StatusActive),
	}
	if r.desc.ExtraClaims != nil {
		for key, value := range r.desc.ExtraClaims(entity) {
			claims[key] = value
		}
	}
	if err := r.provider.SetClaims(ctx, record.UID, claims); err != nil {
		r.logger.Error("identity record orphaned: claims write failed",
			zap.String("kind", r.desc.Kind), zap.String("uid", record.UID), zap.Error(err))
		return err
	}

	fields := r.desc.Encode(entity)
	fields[fieldCreationDate] = record.CreatedAt
	// Query-only copy: filtered lists need the status on the document, but
	// the merged entity always reads it from the claims.
	fields[fieldStatus] = string(users.StatusActive)
	if err := r.store.Set(ctx, r.desc.Collection, record.UID, fields); err != nil {
		r.logger.Error("identity record orphaned: document write failed",
			zap.String("kind", r.desc.Kind), zap.String("uid", record.UID), zap.Error(err))
		return err
	}

	account.UID = record.UID
	account.Password = ""
	account.Role = r.desc.Role
	account.Status = users.StatusActive
	account.CreatedAt = record.CreatedAt
	return nil
}

// Update diffs the entity against both stores and writes only what changed.
// An update carrying the current state issues no writes at all. Claims are
// replaced wholesale when any claim differs; the provider has no claim patch.
func (r *Reconciler[E]) Update(ctx context.Context, entity *E) (*E, error) {
	account := r.desc.Account(entity)

	record, err := r.provider.GetUser(ctx, account.UID)
	if errors.Is(err, identity.ErrUserNotFound) {
		return nil, users.NewNotFound(r.desc.Kind, account.UID)
	}
	if err != nil {
		return nil, err
	}
	if record.Claims.Role() != string(r.desc.Role) {
		return nil, users.NewNotFound(r.desc.Kind, account.UID)
	}

	document, err := r.store.Get(ctx, r.desc.Collection, account.UID)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, users.NewNotFound(r.desc.Kind, account.UID)
	}
	if err != nil {
		return nil, err
	}

	update := identity.Update{}
	if displayName := r.desc.DisplayName(entity); displayName != record.DisplayName {
		update.DisplayName = identity.Ptr(displayName)
	}
	if account.Email != record.Email {
		update.Email = identity.Ptr(account.Email)
		update.EmailVerified = identity.Ptr(r.desc.EmailVerifiedOnChange)
	}
	if account.Password != "" {
		update.Password = identity.Ptr(account.Password)
	}
	if account.PhoneNumber != record.PhoneNumber {
		update.PhoneNumber = identity.Ptr(account.PhoneNumber)
	}

	claims := record.Claims.Clone()
	if claims == nil {
		claims = identity.Claims{}
	}
	claims[claimRole] = string(r.desc.Role)
	claims[claimStatus] = string(account.Status)
	if r.desc.ExtraClaims != nil {
		for key, value := range r.desc.ExtraClaims(entity) {
			claims[key] = value
		}
	}
	if !reflect.DeepEqual(claims, record.Claims) {
		update.Claims = claims
	}

	if !update.Empty() {
		if err := r.provider.UpdateUser(ctx, account.UID, update); err != nil {
			return nil, err
		}
	}

	patch := r.desc.Diff(entity, document.Fields)
	if docstore.String(document.Fields, fieldStatus) != string(account.Status) {
		if patch == nil {
			patch = map[string]any{}
		}
		patch[fieldStatus] = string(account.Status)
	}
	if len(patch) > 0 {
		if err := r.store.Update(ctx, r.desc.Collection, account.UID, patch); err != nil {
			return nil, err
		}
	}

	account.Password = ""
	return entity, nil
}

// UpdateStatus reads, flips the status and delegates to Update.
func (r *Reconciler[E]) UpdateStatus(ctx context.Context, uid string, status users.Status) (*E, error) {
	entity, err := r.Find(ctx, uid)
	if err != nil {
		return nil, err
	}
	r.desc.Account(entity).Status = status
	return r.Update(ctx, entity)
}

// Delete soft-deletes: a status transition, not a record removal, so the
// uid keeps resolving for moderator and foreign-key paths. Deleting an
// already deleted user is a conflict, not a no-op.
func (r *Reconciler[E]) Delete(ctx context.Context, uid string) error {
	entity, err := r.Find(ctx, uid)
	if err != nil {
		return err
	}
	account := r.desc.Account(entity)
	if account.Status == users.StatusDeleted {
		return fmt.Errorf("%s %q already deleted: %w", r.desc.Kind, uid, users.ErrConflict)
	}
	account.Status = users.StatusDeleted
	_, err = r.Update(ctx, entity)
	return err
}

// Purge hard-deletes identity record and document. Admin-only escape hatch
// behind the soft-delete policy.
func (r *Reconciler[E]) Purge(ctx context.Context, uid string) error {
	if _, err := r.Find(ctx, uid); err != nil {
		return err
	}
	if err := r.provider.DeleteUser(ctx, uid); err != nil {
		return err
	}
	return r.store.Delete(ctx, r.desc.Collection, uid)
}

func (r *Reconciler[E]) merge(record *identity.Record, document docstore.Document) *E {
	entity := new(E)
	account := r.desc.Account(entity)
	account.UID = record.UID
	account.Email = record.Email
	account.PhoneNumber = record.PhoneNumber
	account.PhotoURL = record.PhotoURL
	account.Role = r.desc.Role
	account.CreatedAt = record.CreatedAt
	if status, ok := users.ParseStatus(record.Claims.Status()); ok {
		account.Status = status
	}
	r.desc.Decode(entity, document.Fields)
	return entity
}

// StatusFilter builds the document filter for a status-restricted listing.
// Nil when no restriction applies.
func StatusFilter(statuses []users.Status) docstore.Filter {
	if len(statuses) == 0 {
		return nil
	}
	values := make([]any, 0, len(statuses))
	for _, status := range statuses {
		values = append(values, string(status))
	}
	return docstore.Filter{docstore.In(fieldStatus, values...)}
}
