package inventory

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidAttribute indicates a disc attribute outside the known set.
var ErrInvalidAttribute = errors.New("inventory: invalid disc attribute")

// DiscType enumerates the flight categories in the catalog.
type DiscType string

const (
	DiscTypeDistance DiscType = "distance"
	DiscTypeFairway  DiscType = "fairway"
	DiscTypeMidrange DiscType = "midrange"
	DiscTypePutter   DiscType = "putter"
)

// ParseDiscType validates raw input and returns a DiscType.
func ParseDiscType(rawInput string) (DiscType, error) {
	switch DiscType(strings.ToLower(strings.TrimSpace(rawInput))) {
	case DiscTypeDistance:
		return DiscTypeDistance, nil
	case DiscTypeFairway:
		return DiscTypeFairway, nil
	case DiscTypeMidrange:
		return DiscTypeMidrange, nil
	case DiscTypePutter:
		return DiscTypePutter, nil
	default:
		return "", fmt.Errorf("%w: unknown disc type %q", ErrInvalidAttribute, rawInput)
	}
}

// Condition grades the wear on an owned disc.
type Condition string

const (
	ConditionNew     Condition = "new"
	ConditionLikeNew Condition = "like_new"
	ConditionGood    Condition = "good"
	ConditionFair    Condition = "fair"
	ConditionPoor    Condition = "poor"
)

// ParseCondition validates raw input and returns a Condition.
func ParseCondition(rawInput string) (Condition, error) {
	switch Condition(strings.ToLower(strings.TrimSpace(rawInput))) {
	case ConditionNew:
		return ConditionNew, nil
	case ConditionLikeNew:
		return ConditionLikeNew, nil
	case ConditionGood:
		return ConditionGood, nil
	case ConditionFair:
		return ConditionFair, nil
	case ConditionPoor:
		return ConditionPoor, nil
	default:
		return "", fmt.Errorf("%w: unknown condition %q", ErrInvalidAttribute, rawInput)
	}
}

// FormatCondition renders a condition for display.
func FormatCondition(condition Condition) string {
	if condition == "" {
		return "Unknown"
	}
	return strings.ToUpper(strings.ReplaceAll(string(condition), "_", " "))
}

// DiscManufacturer is a catalog manufacturer entry.
type DiscManufacturer struct {
	ID        string    `gorm:"column:id;primaryKey;size:190;not null" json:"id"`
	Name      string    `gorm:"column:name;size:190;uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName exposes the table backing disc manufacturers.
func (DiscManufacturer) TableName() string {
	return "disc_manufacturers"
}

// DiscModel is a catalog disc mold with its flight numbers.
type DiscModel struct {
	ID             string           `gorm:"column:id;primaryKey;size:190;not null" json:"id"`
	ManufacturerID string           `gorm:"column:manufacturer_id;size:190;index;not null" json:"manufacturer_id"`
	Name           string           `gorm:"column:name;size:190;not null" json:"name"`
	Type           string           `gorm:"column:type;size:16;not null" json:"type"`
	Speed          int              `gorm:"column:speed" json:"speed"`
	Glide          int              `gorm:"column:glide" json:"glide"`
	Turn           int              `gorm:"column:turn" json:"turn"`
	Fade           int              `gorm:"column:fade" json:"fade"`
	CreatedAt      time.Time        `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	Manufacturer   DiscManufacturer `gorm:"foreignKey:ManufacturerID" json:"manufacturer"`
}

// TableName exposes the table backing disc models.
func (DiscModel) TableName() string {
	return "disc_models"
}

// StorageLocation is a user-defined place where discs are kept.
type StorageLocation struct {
	ID        string    `gorm:"column:id;primaryKey;size:190;not null" json:"id"`
	UserID    string    `gorm:"column:user_id;size:190;index;not null" json:"user_id"`
	Name      string    `gorm:"column:name;size:190;not null" json:"name"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName exposes the table backing storage locations.
func (StorageLocation) TableName() string {
	return "storage_locations"
}

// UserDisc is a disc in a user's personal inventory.
type UserDisc struct {
	ID                string           `gorm:"column:id;primaryKey;size:190;not null" json:"id"`
	UserID            string           `gorm:"column:user_id;size:190;index;not null" json:"user_id"`
	DiscModelID       string           `gorm:"column:disc_model_id;size:190;index;not null" json:"disc_model_id"`
	StorageLocationID string           `gorm:"column:storage_location_id;size:190;index" json:"storage_location_id"`
	Condition         string           `gorm:"column:condition;size:16;not null" json:"condition"`
	Color             string           `gorm:"column:color;size:64" json:"color"`
	WeightGrams       int              `gorm:"column:weight_grams" json:"weight_grams"`
	Notes             string           `gorm:"column:notes;size:2000" json:"notes"`
	ImageURL          string           `gorm:"column:image_url;size:512" json:"image_url"`
	CreatedAt         time.Time        `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time        `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
	DiscModel         DiscModel        `gorm:"foreignKey:DiscModelID" json:"disc_model"`
	StorageLocation   *StorageLocation `gorm:"foreignKey:StorageLocationID" json:"storage_location,omitempty"`
}

// TableName exposes the table backing user discs.
func (UserDisc) TableName() string {
	return "user_discs"
}
