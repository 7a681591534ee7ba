package marketplace

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/flightline-labs/discstash/internal/inventory"
)

var (
	// ErrListingNotFound indicates no active listing matches the id.
	ErrListingNotFound = errors.New("marketplace: listing not found")
	// ErrDiscNotOwned indicates the disc does not belong to the lister.
	ErrDiscNotOwned = errors.New("marketplace: disc not owned by user")
	// ErrDiscAlreadyListed indicates the disc already has an active listing.
	ErrDiscAlreadyListed = errors.New("marketplace: disc already listed")
	// ErrInvalidPrice indicates a negative price.
	ErrInvalidPrice = errors.New("marketplace: price must not be negative")
)

// Filters narrow a marketplace browse. Zero values mean "no constraint".
type Filters struct {
	Type           string
	ManufacturerID string
	DiscType       string
	MinPriceCents  int64
	MaxPriceCents  int64
	Search         string
}

// ServiceConfig describes the marketplace service dependencies.
type ServiceConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
	Logger   *zap.Logger
}

// Service manages marketplace listings over user inventories.
type Service struct {
	db     *gorm.DB
	now    func() time.Time
	logger *zap.Logger
}

// NewService constructs the marketplace service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("marketplace: database connection required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: cfg.Database, now: clock, logger: logger}, nil
}

// CreateListingInput describes a new listing.
type CreateListingInput struct {
	DiscID      string
	ListingType string
	PriceCents  int64
	Description string
}

// CreateListing posts one of the user's discs to the marketplace. A disc can
// carry at most one active listing.
func (s *Service) CreateListing(ctx context.Context, userID string, input CreateListingInput) (*Listing, error) {
	listingType, err := ParseListingType(input.ListingType)
	if err != nil {
		return nil, err
	}
	if input.PriceCents < 0 {
		return nil, ErrInvalidPrice
	}

	var owned int64
	err = s.db.WithContext(ctx).Model(&inventory.UserDisc{}).
		Where("id = ? AND user_id = ?", input.DiscID, userID).
		Count(&owned).Error
	if err != nil {
		return nil, err
	}
	if owned == 0 {
		return nil, ErrDiscNotOwned
	}

	var active int64
	err = s.db.WithContext(ctx).Model(&Listing{}).
		Where("disc_id = ? AND is_active = ?", input.DiscID, true).
		Count(&active).Error
	if err != nil {
		return nil, err
	}
	if active > 0 {
		return nil, ErrDiscAlreadyListed
	}

	listing := Listing{
		ID:          uuid.NewString(),
		UserID:      userID,
		DiscID:      input.DiscID,
		ListingType: string(listingType),
		PriceCents:  input.PriceCents,
		Description: strings.TrimSpace(input.Description),
		IsActive:    true,
		CreatedAt:   s.now().UTC(),
		UpdatedAt:   s.now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&listing).Error; err != nil {
		return nil, err
	}
	return s.GetListing(ctx, listing.ID)
}

// GetListing returns an active listing with disc, catalog, and seller details.
func (s *Service) GetListing(ctx context.Context, listingID string) (*Listing, error) {
	var listing Listing
	err := s.db.WithContext(ctx).
		Preload("Disc.DiscModel.Manufacturer").
		Preload("Seller").
		Where("id = ? AND is_active = ?", listingID, true).
		First(&listing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrListingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

// Deactivate closes a listing. Only the seller may close it.
func (s *Service) Deactivate(ctx context.Context, userID, listingID string) error {
	result := s.db.WithContext(ctx).Model(&Listing{}).
		Where("id = ? AND user_id = ? AND is_active = ?", listingID, userID, true).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_at": s.now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrListingNotFound
	}
	return nil
}

// ListListings returns active listings matching the filters, newest first.
// Each filter translates to one predicate over the joined catalog rows.
func (s *Service) ListListings(ctx context.Context, filters Filters) ([]Listing, error) {
	query := s.db.WithContext(ctx).Model(&Listing{}).
		Joins("JOIN user_discs ON user_discs.id = marketplace_listings.disc_id").
		Joins("JOIN disc_models ON disc_models.id = user_discs.disc_model_id").
		Joins("JOIN disc_manufacturers ON disc_manufacturers.id = disc_models.manufacturer_id").
		Where("marketplace_listings.is_active = ?", true)

	if filters.Type != "" {
		query = query.Where("marketplace_listings.listing_type = ?", filters.Type)
	}
	if filters.ManufacturerID != "" {
		query = query.Where("disc_models.manufacturer_id = ?", filters.ManufacturerID)
	}
	if filters.DiscType != "" {
		query = query.Where("disc_models.type = ?", filters.DiscType)
	}
	if filters.MinPriceCents > 0 {
		query = query.Where("marketplace_listings.price_cents >= ?", filters.MinPriceCents)
	}
	if filters.MaxPriceCents > 0 {
		query = query.Where("marketplace_listings.price_cents <= ?", filters.MaxPriceCents)
	}
	if search := strings.TrimSpace(filters.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(disc_models.name) LIKE ? OR LOWER(disc_manufacturers.name) LIKE ? OR LOWER(marketplace_listings.description) LIKE ?",
			pattern, pattern, pattern,
		)
	}

	var listings []Listing
	err := query.
		Preload("Disc.DiscModel.Manufacturer").
		Preload("Seller").
		Order("marketplace_listings.created_at DESC").
		Find(&listings).Error
	if err != nil {
		return nil, err
	}
	return listings, nil
}
