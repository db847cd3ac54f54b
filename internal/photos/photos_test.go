package photos

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/civicgrid/user-service/internal/identity"
)

type fakeBlobStore struct {
	uploads []string
	deletes []string
}

func (f *fakeBlobStore) Upload(ctx context.Context, path, contentType string, data []byte) (string, error) {
	f.uploads = append(f.uploads, path)
	return "https://storage.googleapis.com/test-bucket/" + path, nil
}

func (f *fakeBlobStore) Delete(ctx context.Context, path string) error {
	f.deletes = append(f.deletes, path)
	return nil
}

type fakeProvider struct {
	record     *identity.Record
	getErr     error
	lastUpdate identity.Update
}

func (f *fakeProvider) GetUser(ctx context.Context, uid string) (*identity.Record, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.record, nil
}

func (f *fakeProvider) CreateUser(ctx context.Context, req identity.CreateRequest) (*identity.Record, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeProvider) UpdateUser(ctx context.Context, uid string, update identity.Update) error {
	f.lastUpdate = update
	return nil
}

func (f *fakeProvider) SetClaims(ctx context.Context, uid string, claims identity.Claims) error {
	return nil
}

func (f *fakeProvider) DeleteUser(ctx context.Context, uid string) error {
	return nil
}

func (f *fakeProvider) VerifyToken(ctx context.Context, token string) (*identity.Token, error) {
	return nil, identity.ErrInvalidToken
}

func TestUpdateRejectsUnsupportedContentType(t *testing.T) {
	provider := &fakeProvider{record: &identity.Record{UID: "res-1"}}
	service, err := NewService(provider, &fakeBlobStore{}, nil)
	if err != nil {
		t.Fatalf("failed to build service: %v", err)
	}

	_, err = service.Update(context.Background(), "res-1", "residents", "image/gif", []byte{1})
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
}

func TestUpdateAcceptsContentTypeWithParameters(t *testing.T) {
	blobs := &fakeBlobStore{}
	provider := &fakeProvider{record: &identity.Record{UID: "res-1"}}
	service, err := NewService(provider, blobs, nil)
	if err != nil {
		t.Fatalf("failed to build service: %v", err)
	}

	_, err = service.Update(context.Background(), "res-1", "residents", "image/jpeg; charset=utf-8", []byte{0xFF, 0xD8})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if len(blobs.uploads) != 1 || !strings.HasSuffix(blobs.uploads[0], ".jpg") {
		t.Fatalf("expected a jpg upload, got %v", blobs.uploads)
	}
}

func TestUpdateRejectsOversizedUpload(t *testing.T) {
	provider := &fakeProvider{record: &identity.Record{UID: "res-1"}}
	service, err := NewService(provider, &fakeBlobStore{}, nil)
	if err != nil {
		t.Fatalf("failed to build service: %v", err)
	}

	_, err = service.Update(context.Background(), "res-1", "residents", "image/png", make([]byte, MaxPhotoBytes+1))
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
}

func TestUpdateReplacesPreviousObject(t *testing.T) {
	blobs := &fakeBlobStore{}
	provider := &fakeProvider{record: &identity.Record{
		UID:      "res-1",
		PhotoURL: "https://storage.googleapis.com/test-bucket/residents/res-1/old.jpg",
	}}
	service, err := NewService(provider, blobs, nil)
	if err != nil {
		t.Fatalf("failed to build service: %v", err)
	}

	photoURL, err := service.Update(context.Background(), "res-1", "residents", "image/jpeg", []byte{0xFF, 0xD8})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if len(blobs.deletes) != 1 || blobs.deletes[0] != "residents/res-1/old.jpg" {
		t.Fatalf("expected the old object to be removed, got %v", blobs.deletes)
	}
	if len(blobs.uploads) != 1 || !strings.HasPrefix(blobs.uploads[0], "residents/res-1/") {
		t.Fatalf("expected the new object under the user's directory, got %v", blobs.uploads)
	}
	if !strings.HasSuffix(blobs.uploads[0], ".jpg") {
		t.Fatalf("expected a jpg extension, got %q", blobs.uploads[0])
	}
	if provider.lastUpdate.PhotoURL == nil || *provider.lastUpdate.PhotoURL != photoURL {
		t.Fatalf("expected the identity record to point at the new URL")
	}
}
