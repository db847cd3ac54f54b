// Package photos manages profile photo uploads to blob storage and keeps
// the identity record's photo URL in sync.
package photos

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/url"
	"strings"

	"github.com/civicgrid/user-service/internal/identity"
	"github.com/civicgrid/user-service/internal/users"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxPhotoBytes bounds accepted uploads.
const MaxPhotoBytes = 5 << 20

var (
	// ErrUnsupportedType is returned for anything but jpeg and png.
	ErrUnsupportedType = errors.New("photos: unsupported content type")
	// ErrTooLarge is returned when the upload exceeds MaxPhotoBytes.
	ErrTooLarge = errors.New("photos: file too large")
)

var extensionByType = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

// BlobStore is the blob storage collaborator. Upload returns the public URL
// of the stored object.
type BlobStore interface {
	Upload(ctx context.Context, path, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, path string) error
}

// Service uploads a user's photo under {kind}s/{uid}/{uuid}.{ext}, removing
// the previous object first when one exists.
type Service struct {
	provider identity.Provider
	blobs    BlobStore
	logger   *zap.Logger
	newID    func() string
}

// NewService wires the photo service.
func NewService(provider identity.Provider, blobs BlobStore, logger *zap.Logger) (*Service, error) {
	if provider == nil {
		return nil, fmt.Errorf("photos: identity provider required")
	}
	if blobs == nil {
		return nil, fmt.Errorf("photos: blob store required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{provider: provider, blobs: blobs, logger: logger, newID: uuid.NewString}, nil
}

// Update validates the upload, replaces the stored object, and points the
// identity record at the new URL. kindDir is the plural directory for the
// caller's kind, e.g. "residents".
func (s *Service) Update(ctx context.Context, uid, kindDir, contentType string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("photos: empty upload: %w", users.ErrValidation)
	}
	if len(data) > MaxPhotoBytes {
		return "", fmt.Errorf("%w (%d bytes)", ErrTooLarge, len(data))
	}
	// Multipart part headers may carry parameters, e.g. "image/jpeg; charset=utf-8".
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, contentType)
	}
	extension, ok := extensionByType[mediaType]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, contentType)
	}

	record, err := s.provider.GetUser(ctx, uid)
	if errors.Is(err, identity.ErrUserNotFound) {
		return "", users.NewNotFound("User", uid)
	}
	if err != nil {
		return "", err
	}

	if record.PhotoURL != "" {
		if path := objectPath(record.PhotoURL); path != "" {
			if err := s.blobs.Delete(ctx, path); err != nil {
				// The orphaned object is harmless; the upload proceeds.
				s.logger.Warn("previous photo delete failed",
					zap.String("uid", uid), zap.String("path", path), zap.Error(err))
			}
		}
	}

	path := fmt.Sprintf("%s/%s/%s%s", kindDir, uid, s.newID(), extension)
	photoURL, err := s.blobs.Upload(ctx, path, mediaType, data)
	if err != nil {
		return "", err
	}

	err = s.provider.UpdateUser(ctx, uid, identity.Update{PhotoURL: identity.Ptr(photoURL)})
	if err != nil {
		return "", err
	}
	return photoURL, nil
}

// objectPath recovers the storage path from a stored photo URL. Returns
// empty when the URL does not look like one of ours.
func objectPath(photoURL string) string {
	parsed, err := url.Parse(photoURL)
	if err != nil {
		return ""
	}
	path := strings.TrimPrefix(parsed.Path, "/")
	// Public GCS URLs carry the bucket as the first path segment.
	if _, rest, found := strings.Cut(path, "/"); found {
		return rest
	}
	return path
}
