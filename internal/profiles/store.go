package profiles

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrProfileNotFound indicates no profile exists for the lookup key.
	ErrProfileNotFound = errors.New("profiles: profile not found")
	// ErrInvalidProfileKey indicates an empty identity id or email.
	ErrInvalidProfileKey = errors.New("profiles: invalid profile key")
)

// StoreConfig describes the dependencies required by the profile store.
type StoreConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
}

// Store persists profiles and implements the idempotent provisioning upsert.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// NewStore constructs the profile store.
func NewStore(cfg StoreConfig) (*Store, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("profiles: database connection required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Store{db: cfg.Database, now: clock}, nil
}

// EnsureProfileExists creates a profile row for the identity if absent.
// The upsert is keyed by identity id, so repeated calls with the same
// identity leave exactly one row regardless of retries or races.
func (s *Store) EnsureProfileExists(ctx context.Context, identityID, email string) error {
	identityID = strings.TrimSpace(identityID)
	email = strings.ToLower(strings.TrimSpace(email))
	if identityID == "" || email == "" {
		return ErrInvalidProfileKey
	}

	now := s.now().UTC()
	profile := Profile{
		ID:                  identityID,
		Email:               email,
		InventoryVisibility: string(VisibilityPrivate),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).
		Create(&profile).Error
}

// FindByEmail returns the profile registered under the normalized email, or
// nil when none exists. Used as the signup duplicate pre-check.
func (s *Store) FindByEmail(ctx context.Context, email string) (*Profile, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, ErrInvalidProfileKey
	}
	var profile Profile
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetByID returns the profile for the identity id.
func (s *Store) GetByID(ctx context.Context, identityID string) (*Profile, error) {
	identityID = strings.TrimSpace(identityID)
	if identityID == "" {
		return nil, ErrInvalidProfileKey
	}
	var profile Profile
	err := s.db.WithContext(ctx).Where("id = ?", identityID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// Update describes the owner-editable profile fields.
type Update struct {
	Username            string
	FullName            string
	Bio                 string
	FavoriteDisc        string
	FavoriteGolfer      string
	Phone               string
	InventoryVisibility string
}

// Apply persists the owner-editable fields for the identity's profile.
func (s *Store) Apply(ctx context.Context, identityID string, update Update) (*Profile, error) {
	identityID = strings.TrimSpace(identityID)
	if identityID == "" {
		return nil, ErrInvalidProfileKey
	}
	visibility, err := ParseVisibility(update.InventoryVisibility)
	if err != nil {
		return nil, err
	}

	columns := map[string]interface{}{
		"username":             strings.TrimSpace(update.Username),
		"full_name":            strings.TrimSpace(update.FullName),
		"bio":                  strings.TrimSpace(update.Bio),
		"favorite_disc":        strings.TrimSpace(update.FavoriteDisc),
		"favorite_golfer":      strings.TrimSpace(update.FavoriteGolfer),
		"phone":                strings.TrimSpace(update.Phone),
		"inventory_visibility": string(visibility),
		"updated_at":           s.now().UTC(),
	}
	result := s.db.WithContext(ctx).Model(&Profile{}).Where("id = ?", identityID).Updates(columns)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrProfileNotFound
	}
	return s.GetByID(ctx, identityID)
}
