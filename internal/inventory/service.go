package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrDiscNotFound indicates no disc matches the id for the user.
	ErrDiscNotFound = errors.New("inventory: disc not found")
	// ErrUnknownDiscModel indicates the referenced catalog model does not exist.
	ErrUnknownDiscModel = errors.New("inventory: unknown disc model")
	// ErrUnknownLocation indicates the referenced storage location does not
	// exist or belongs to another user.
	ErrUnknownLocation = errors.New("inventory: unknown storage location")
)

// Filters narrow an inventory listing. Zero values mean "no constraint";
// each set field translates to one predicate of the backing query.
type Filters struct {
	Search         string
	ManufacturerID string
	DiscType       string
	Condition      string
	LocationID     string
}

// ServiceConfig describes the inventory service dependencies.
type ServiceConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
	Logger   *zap.Logger
}

// Service manages the disc catalog and per-user inventories.
type Service struct {
	db     *gorm.DB
	now    func() time.Time
	logger *zap.Logger
}

// NewService constructs the inventory service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("inventory: database connection required")
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

// AddDiscInput describes a disc being added to an inventory.
type AddDiscInput struct {
	DiscModelID       string
	StorageLocationID string
	Condition         string
	Color             string
	WeightGrams       int
	Notes             string
}

// AddDisc records a disc in the user's inventory.
func (s *Service) AddDisc(ctx context.Context, userID string, input AddDiscInput) (*UserDisc, error) {
	condition, err := ParseCondition(input.Condition)
	if err != nil {
		return nil, err
	}
	if err := s.checkDiscModel(ctx, input.DiscModelID); err != nil {
		return nil, err
	}
	if input.StorageLocationID != "" {
		if err := s.checkLocation(ctx, userID, input.StorageLocationID); err != nil {
			return nil, err
		}
	}

	disc := UserDisc{
		ID:                uuid.NewString(),
		UserID:            userID,
		DiscModelID:       input.DiscModelID,
		StorageLocationID: input.StorageLocationID,
		Condition:         string(condition),
		Color:             strings.TrimSpace(input.Color),
		WeightGrams:       input.WeightGrams,
		Notes:             strings.TrimSpace(input.Notes),
		CreatedAt:         s.now().UTC(),
		UpdatedAt:         s.now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&disc).Error; err != nil {
		return nil, err
	}
	return s.GetDisc(ctx, userID, disc.ID)
}

// GetDisc returns one disc from the user's inventory with catalog details.
func (s *Service) GetDisc(ctx context.Context, userID, discID string) (*UserDisc, error) {
	var disc UserDisc
	err := s.db.WithContext(ctx).
		Preload("DiscModel.Manufacturer").
		Preload("StorageLocation").
		Where("id = ? AND user_id = ?", discID, userID).
		First(&disc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDiscNotFound
	}
	if err != nil {
		return nil, err
	}
	return &disc, nil
}

// UpdateDiscInput describes the editable fields of an owned disc.
type UpdateDiscInput struct {
	StorageLocationID string
	Condition         string
	Color             string
	WeightGrams       int
	Notes             string
}

// UpdateDisc edits an owned disc.
func (s *Service) UpdateDisc(ctx context.Context, userID, discID string, input UpdateDiscInput) (*UserDisc, error) {
	condition, err := ParseCondition(input.Condition)
	if err != nil {
		return nil, err
	}
	if input.StorageLocationID != "" {
		if err := s.checkLocation(ctx, userID, input.StorageLocationID); err != nil {
			return nil, err
		}
	}

	columns := map[string]interface{}{
		"storage_location_id": input.StorageLocationID,
		"condition":           string(condition),
		"color":               strings.TrimSpace(input.Color),
		"weight_grams":        input.WeightGrams,
		"notes":               strings.TrimSpace(input.Notes),
		"updated_at":          s.now().UTC(),
	}
	result := s.db.WithContext(ctx).Model(&UserDisc{}).
		Where("id = ? AND user_id = ?", discID, userID).
		Updates(columns)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrDiscNotFound
	}
	return s.GetDisc(ctx, userID, discID)
}

// SetDiscImage records the stored image URL for a disc.
func (s *Service) SetDiscImage(ctx context.Context, userID, discID, imageURL string) error {
	result := s.db.WithContext(ctx).Model(&UserDisc{}).
		Where("id = ? AND user_id = ?", discID, userID).
		Updates(map[string]interface{}{
			"image_url":  imageURL,
			"updated_at": s.now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrDiscNotFound
	}
	return nil
}

// RemoveDisc deletes a disc from the user's inventory.
func (s *Service) RemoveDisc(ctx context.Context, userID, discID string) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", discID, userID).
		Delete(&UserDisc{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrDiscNotFound
	}
	return nil
}

// ListDiscs returns the user's discs matching the filters, newest first.
func (s *Service) ListDiscs(ctx context.Context, userID string, filters Filters) ([]UserDisc, error) {
	query := s.db.WithContext(ctx).Model(&UserDisc{}).
		Joins("JOIN disc_models ON disc_models.id = user_discs.disc_model_id").
		Joins("JOIN disc_manufacturers ON disc_manufacturers.id = disc_models.manufacturer_id").
		Where("user_discs.user_id = ?", userID)

	query = applyCatalogFilters(query, filters)
	if filters.Condition != "" {
		query = query.Where("user_discs.condition = ?", filters.Condition)
	}
	if filters.LocationID != "" {
		query = query.Where("user_discs.storage_location_id = ?", filters.LocationID)
	}

	var discs []UserDisc
	err := query.
		Preload("DiscModel.Manufacturer").
		Preload("StorageLocation").
		Order("user_discs.created_at DESC").
		Find(&discs).Error
	if err != nil {
		return nil, err
	}
	return discs, nil
}

// applyCatalogFilters translates the catalog-level filters shared by
// inventory and marketplace queries.
func applyCatalogFilters(query *gorm.DB, filters Filters) *gorm.DB {
	if filters.ManufacturerID != "" {
		query = query.Where("disc_models.manufacturer_id = ?", filters.ManufacturerID)
	}
	if filters.DiscType != "" {
		query = query.Where("disc_models.type = ?", filters.DiscType)
	}
	if search := strings.TrimSpace(filters.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(disc_models.name) LIKE ? OR LOWER(disc_manufacturers.name) LIKE ?", pattern, pattern)
	}
	return query
}

// ListManufacturers returns the catalog manufacturers ordered by name.
func (s *Service) ListManufacturers(ctx context.Context) ([]DiscManufacturer, error) {
	var manufacturers []DiscManufacturer
	err := s.db.WithContext(ctx).Order("name").Find(&manufacturers).Error
	if err != nil {
		return nil, err
	}
	return manufacturers, nil
}

// ListModels returns catalog models, optionally limited to one manufacturer.
func (s *Service) ListModels(ctx context.Context, manufacturerID string) ([]DiscModel, error) {
	query := s.db.WithContext(ctx).Model(&DiscModel{}).Preload("Manufacturer")
	if manufacturerID != "" {
		query = query.Where("manufacturer_id = ?", manufacturerID)
	}
	var models []DiscModel
	if err := query.Order("name").Find(&models).Error; err != nil {
		return nil, err
	}
	return models, nil
}

// AddLocation creates a storage location for the user.
func (s *Service) AddLocation(ctx context.Context, userID, name string) (*StorageLocation, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("inventory: location name is required")
	}
	location := StorageLocation{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		CreatedAt: s.now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&location).Error; err != nil {
		return nil, err
	}
	return &location, nil
}

// ListLocations returns the user's storage locations ordered by name.
func (s *Service) ListLocations(ctx context.Context, userID string) ([]StorageLocation, error) {
	var locations []StorageLocation
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("name").
		Find(&locations).Error
	if err != nil {
		return nil, err
	}
	return locations, nil
}

func (s *Service) checkDiscModel(ctx context.Context, modelID string) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&DiscModel{}).Where("id = ?", modelID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrUnknownDiscModel
	}
	return nil
}

func (s *Service) checkLocation(ctx context.Context, userID, locationID string) error {
	var count int64
	err := s.db.WithContext(ctx).Model(&StorageLocation{}).
		Where("id = ? AND user_id = ?", locationID, userID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrUnknownLocation
	}
	return nil
}
