package marketplace

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/flightline-labs/discstash/internal/inventory"
	"github.com/flightline-labs/discstash/internal/profiles"
)

// ErrUnknownListingType indicates a listing type outside the known set.
var ErrUnknownListingType = errors.New("marketplace: unknown listing type")

// ListingType distinguishes discs offered for sale from wanted posts.
type ListingType string

const (
	ListingTypeSale ListingType = "sale"
	ListingTypeWant ListingType = "want"
)

// ParseListingType validates raw input and returns a ListingType.
func ParseListingType(rawInput string) (ListingType, error) {
	switch ListingType(strings.ToLower(strings.TrimSpace(rawInput))) {
	case ListingTypeSale:
		return ListingTypeSale, nil
	case ListingTypeWant:
		return ListingTypeWant, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownListingType, rawInput)
	}
}

// Listing offers a disc on the marketplace.
type Listing struct {
	ID          string             `gorm:"column:id;primaryKey;size:190;not null" json:"id"`
	UserID      string             `gorm:"column:user_id;size:190;index;not null" json:"user_id"`
	DiscID      string             `gorm:"column:disc_id;size:190;index;not null" json:"disc_id"`
	ListingType string             `gorm:"column:listing_type;size:16;not null" json:"listing_type"`
	PriceCents  int64              `gorm:"column:price_cents;not null" json:"price_cents"`
	Description string             `gorm:"column:description;size:2000" json:"description"`
	IsActive    bool               `gorm:"column:is_active;not null;default:true;index" json:"is_active"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time          `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
	Disc        inventory.UserDisc `gorm:"foreignKey:DiscID" json:"disc"`
	Seller      profiles.Profile   `gorm:"foreignKey:UserID" json:"seller"`
}

// TableName exposes the table backing marketplace listings.
func (Listing) TableName() string {
	return "marketplace_listings"
}
