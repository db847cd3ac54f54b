package identity

import (
	"context"
	"fmt"
	"time"

	"firebase.google.com/go/v4/auth"
)

// FirebaseProvider implements Provider on top of the Firebase Auth Admin SDK.
type FirebaseProvider struct {
	client *auth.Client
}

// NewFirebaseProvider wraps an initialized Firebase Auth client.
func NewFirebaseProvider(client *auth.Client) (*FirebaseProvider, error) {
	if client == nil {
		return nil, fmt.Errorf("identity: firebase auth client required")
	}
	return &FirebaseProvider{client: client}, nil
}

func (p *FirebaseProvider) GetUser(ctx context.Context, uid string) (*Record, error) {
	record, err := p.client.GetUser(ctx, uid)
	if err != nil {
		if auth.IsUserNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("identity: get user %q: %w", uid, err)
	}
	return fromUserRecord(record), nil
}

func (p *FirebaseProvider) CreateUser(ctx context.Context, req CreateRequest) (*Record, error) {
	params := (&auth.UserToCreate{}).
		Email(req.Email).
		Password(req.Password).
		DisplayName(req.DisplayName).
		EmailVerified(req.EmailVerified)
	if req.PhoneNumber != "" {
		params = params.PhoneNumber(req.PhoneNumber)
	}

	record, err := p.client.CreateUser(ctx, params)
	if err != nil {
		if auth.IsEmailAlreadyExists(err) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("identity: create user: %w", err)
	}
	return fromUserRecord(record), nil
}

func (p *FirebaseProvider) UpdateUser(ctx context.Context, uid string, update Update) error {
	if update.Empty() {
		return nil
	}

	params := &auth.UserToUpdate{}
	if update.DisplayName != nil {
		params = params.DisplayName(*update.DisplayName)
	}
	if update.Email != nil {
		params = params.Email(*update.Email)
	}
	if update.EmailVerified != nil {
		params = params.EmailVerified(*update.EmailVerified)
	}
	if update.Password != nil {
		params = params.Password(*update.Password)
	}
	if update.PhoneNumber != nil {
		params = params.PhoneNumber(*update.PhoneNumber)
	}
	if update.PhotoURL != nil {
		params = params.PhotoURL(*update.PhotoURL)
	}
	if update.Claims != nil {
		params = params.CustomClaims(map[string]any(update.Claims))
	}

	if _, err := p.client.UpdateUser(ctx, uid, params); err != nil {
		if auth.IsUserNotFound(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("identity: update user %q: %w", uid, err)
	}
	return nil
}

func (p *FirebaseProvider) SetClaims(ctx context.Context, uid string, claims Claims) error {
	if err := p.client.SetCustomUserClaims(ctx, uid, map[string]any(claims)); err != nil {
		if auth.IsUserNotFound(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("identity: set claims for %q: %w", uid, err)
	}
	return nil
}

func (p *FirebaseProvider) DeleteUser(ctx context.Context, uid string) error {
	if err := p.client.DeleteUser(ctx, uid); err != nil {
		if auth.IsUserNotFound(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("identity: delete user %q: %w", uid, err)
	}
	return nil
}

func (p *FirebaseProvider) VerifyToken(ctx context.Context, token string) (*Token, error) {
	verified, err := p.client.VerifyIDToken(ctx, token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return &Token{UID: verified.UID, Claims: Claims(verified.Claims)}, nil
}

func fromUserRecord(record *auth.UserRecord) *Record {
	out := &Record{
		UID:           record.UID,
		Email:         record.Email,
		EmailVerified: record.EmailVerified,
		PhoneNumber:   record.PhoneNumber,
		DisplayName:   record.DisplayName,
		PhotoURL:      record.PhotoURL,
		Claims:        Claims(record.CustomClaims),
	}
	if record.UserMetadata != nil {
		out.CreatedAt = time.UnixMilli(record.UserMetadata.CreationTimestamp).UTC()
	}
	return out
}
