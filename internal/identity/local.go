package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const defaultLocalTokenTTL = 30 * time.Minute

// UserRow is the gorm model backing the local identity provider.
type UserRow struct {
	UID           string    `gorm:"column:uid;primaryKey;size:190;not null"`
	Email         string    `gorm:"column:email;size:320;uniqueIndex;not null"`
	EmailVerified bool      `gorm:"column:email_verified"`
	PasswordHash  string    `gorm:"column:password_hash;size:128"`
	PhoneNumber   string    `gorm:"column:phone_number;size:32"`
	DisplayName   string    `gorm:"column:display_name;size:320"`
	PhotoURL      string    `gorm:"column:photo_url;size:512"`
	ClaimsJSON    string    `gorm:"column:claims_json"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName exposes the table backing local identity records.
func (UserRow) TableName() string {
	return "identity_users"
}

// LocalProviderConfig describes the dependencies of the embedded provider.
type LocalProviderConfig struct {
	Database      *gorm.DB
	SigningSecret []byte
	TokenTTL      time.Duration
	Clock         func() time.Time
}

// LocalProvider is an embedded Provider used for development and tests. It
// stores records in sqlite and mints HS256 JWTs whose subject is the uid;
// claims are read from the row at verification time, not from the token, so
// role and status changes take effect immediately.
type LocalProvider struct {
	db            *gorm.DB
	signingSecret []byte
	tokenTTL      time.Duration
	clock         func() time.Time
}

// NewLocalProvider constructs the embedded provider.
func NewLocalProvider(cfg LocalProviderConfig) (*LocalProvider, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("identity: database connection required")
	}
	if len(cfg.SigningSecret) == 0 {
		return nil, fmt.Errorf("identity: signing secret required")
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = defaultLocalTokenTTL
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &LocalProvider{
		db:            cfg.Database,
		signingSecret: cfg.SigningSecret,
		tokenTTL:      ttl,
		clock:         clock,
	}, nil
}

func (p *LocalProvider) GetUser(ctx context.Context, uid string) (*Record, error) {
	var row UserRow
	err := p.db.WithContext(ctx).Where("uid = ?", uid).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("identity: get user %q: %w", uid, err)
	}
	return rowToRecord(&row)
}

func (p *LocalProvider) CreateUser(ctx context.Context, req CreateRequest) (*Record, error) {
	var existing UserRow
	err := p.db.WithContext(ctx).Where("email = ?", req.Email).First(&existing).Error
	if err == nil {
		return nil, ErrEmailExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("identity: create user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("identity: hash password: %w", err)
	}

	row := UserRow{
		UID:           uuid.NewString(),
		Email:         req.Email,
		EmailVerified: req.EmailVerified,
		PasswordHash:  string(hash),
		PhoneNumber:   req.PhoneNumber,
		DisplayName:   req.DisplayName,
		ClaimsJSON:    "{}",
		CreatedAt:     p.clock().UTC(),
	}
	if err := p.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, fmt.Errorf("identity: create user: %w", err)
	}
	return rowToRecord(&row)
}

func (p *LocalProvider) UpdateUser(ctx context.Context, uid string, update Update) error {
	if update.Empty() {
		return nil
	}

	columns := map[string]any{}
	if update.DisplayName != nil {
		columns["display_name"] = *update.DisplayName
	}
	if update.Email != nil {
		columns["email"] = *update.Email
	}
	if update.EmailVerified != nil {
		columns["email_verified"] = *update.EmailVerified
	}
	if update.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*update.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("identity: hash password: %w", err)
		}
		columns["password_hash"] = string(hash)
	}
	if update.PhoneNumber != nil {
		columns["phone_number"] = *update.PhoneNumber
	}
	if update.PhotoURL != nil {
		columns["photo_url"] = *update.PhotoURL
	}
	if update.Claims != nil {
		encoded, err := json.Marshal(update.Claims)
		if err != nil {
			return fmt.Errorf("identity: encode claims: %w", err)
		}
		columns["claims_json"] = string(encoded)
	}

	result := p.db.WithContext(ctx).Model(&UserRow{}).Where("uid = ?", uid).Updates(columns)
	if result.Error != nil {
		return fmt.Errorf("identity: update user %q: %w", uid, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (p *LocalProvider) SetClaims(ctx context.Context, uid string, claims Claims) error {
	return p.UpdateUser(ctx, uid, Update{Claims: claims})
}

func (p *LocalProvider) DeleteUser(ctx context.Context, uid string) error {
	result := p.db.WithContext(ctx).Where("uid = ?", uid).Delete(&UserRow{})
	if result.Error != nil {
		return fmt.Errorf("identity: delete user %q: %w", uid, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// IssueToken mints a short-lived bearer token for an existing uid. Used by
// the dev token subcommand and tests.
func (p *LocalProvider) IssueToken(ctx context.Context, uid string) (string, error) {
	if _, err := p.GetUser(ctx, uid); err != nil {
		return "", err
	}
	now := p.clock()
	claims := jwt.RegisteredClaims{
		Subject:   uid,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(p.tokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(p.signingSecret)
	if err != nil {
		return "", fmt.Errorf("identity: sign token: %w", err)
	}
	return signed, nil
}

func (p *LocalProvider) VerifyToken(ctx context.Context, raw string) (*Token, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrInvalidToken
	}

	parsed, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return p.signingSecret, nil
	}, jwt.WithTimeFunc(p.clock))
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	registered, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || registered.Subject == "" {
		return nil, ErrInvalidToken
	}

	record, err := p.GetUser(ctx, registered.Subject)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	return &Token{UID: record.UID, Claims: record.Claims}, nil
}

func rowToRecord(row *UserRow) (*Record, error) {
	claims := Claims{}
	if row.ClaimsJSON != "" {
		if err := json.Unmarshal([]byte(row.ClaimsJSON), &claims); err != nil {
			return nil, fmt.Errorf("identity: decode claims for %q: %w", row.UID, err)
		}
	}
	if len(claims) == 0 {
		claims = nil
	}
	return &Record{
		UID:           row.UID,
		Email:         row.Email,
		EmailVerified: row.EmailVerified,
		PhoneNumber:   row.PhoneNumber,
		DisplayName:   row.DisplayName,
		PhotoURL:      row.PhotoURL,
		Claims:        claims,
		CreatedAt:     row.CreatedAt,
	}, nil
}
