package marketplace

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/flightline-labs/discstash/internal/inventory"
	"github.com/flightline-labs/discstash/internal/profiles"
)

type fixture struct {
	service   *Service
	inventory *inventory.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	err = db.AutoMigrate(
		&profiles.Profile{},
		&inventory.DiscManufacturer{}, &inventory.DiscModel{},
		&inventory.StorageLocation{}, &inventory.UserDisc{},
		&Listing{},
	)
	if err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	clock := func() time.Time { return time.Unix(1700000000, 0) }
	inventoryService, err := inventory.NewService(inventory.ServiceConfig{Database: db, Clock: clock})
	if err != nil {
		t.Fatalf("failed to create inventory service: %v", err)
	}
	service, err := NewService(ServiceConfig{Database: db, Clock: clock})
	if err != nil {
		t.Fatalf("failed to create marketplace service: %v", err)
	}

	seed := []interface{}{
		&profiles.Profile{ID: "user-1", Email: "seller@example.com", Username: "seller", InventoryVisibility: "public"},
		&profiles.Profile{ID: "user-2", Email: "buyer@example.com", Username: "buyer", InventoryVisibility: "public"},
		&inventory.DiscManufacturer{ID: "mfr-innova", Name: "Innova"},
		&inventory.DiscManufacturer{ID: "mfr-discraft", Name: "Discraft"},
		&inventory.DiscModel{ID: "model-destroyer", ManufacturerID: "mfr-innova", Name: "Destroyer", Type: "distance", Speed: 12, Glide: 5, Turn: -1, Fade: 3},
		&inventory.DiscModel{ID: "model-buzzz", ManufacturerID: "mfr-discraft", Name: "Buzzz", Type: "midrange", Speed: 5, Glide: 4, Turn: -1, Fade: 1},
	}
	for _, record := range seed {
		if err := db.Create(record).Error; err != nil {
			t.Fatalf("failed to seed: %v", err)
		}
	}
	return &fixture{service: service, inventory: inventoryService}
}

func (f *fixture) addDisc(t *testing.T, userID, modelID string) *inventory.UserDisc {
	t.Helper()
	disc, err := f.inventory.AddDisc(context.Background(), userID, inventory.AddDiscInput{
		DiscModelID: modelID,
		Condition:   "good",
	})
	if err != nil {
		t.Fatalf("failed to add disc: %v", err)
	}
	return disc
}

func TestCreateListingRequiresOwnership(t *testing.T) {
	f := newFixture(t)
	disc := f.addDisc(t, "user-1", "model-destroyer")

	_, err := f.service.CreateListing(context.Background(), "user-2", CreateListingInput{
		DiscID:      disc.ID,
		ListingType: "sale",
		PriceCents:  2500,
	})
	if !errors.Is(err, ErrDiscNotOwned) {
		t.Fatalf("expected ErrDiscNotOwned, got %v", err)
	}
}

func TestCreateListingRejectsSecondActiveListing(t *testing.T) {
	f := newFixture(t)
	disc := f.addDisc(t, "user-1", "model-destroyer")
	ctx := context.Background()

	if _, err := f.service.CreateListing(ctx, "user-1", CreateListingInput{
		DiscID: disc.ID, ListingType: "sale", PriceCents: 2500,
	}); err != nil {
		t.Fatalf("first listing failed: %v", err)
	}
	_, err := f.service.CreateListing(ctx, "user-1", CreateListingInput{
		DiscID: disc.ID, ListingType: "sale", PriceCents: 3000,
	})
	if !errors.Is(err, ErrDiscAlreadyListed) {
		t.Fatalf("expected ErrDiscAlreadyListed, got %v", err)
	}
}

func TestCreateListingLoadsSellerAndCatalog(t *testing.T) {
	f := newFixture(t)
	disc := f.addDisc(t, "user-1", "model-destroyer")

	listing, err := f.service.CreateListing(context.Background(), "user-1", CreateListingInput{
		DiscID: disc.ID, ListingType: "sale", PriceCents: 2500, Description: "lightly thrown",
	})
	if err != nil {
		t.Fatalf("create listing failed: %v", err)
	}
	if listing.Seller.Username != "seller" {
		t.Fatalf("expected seller profile, got %+v", listing.Seller)
	}
	if listing.Disc.DiscModel.Manufacturer.Name != "Innova" {
		t.Fatalf("expected joined catalog details, got %+v", listing.Disc.DiscModel)
	}
}

func TestListListingsTranslatesFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	destroyer := f.addDisc(t, "user-1", "model-destroyer")
	buzzz := f.addDisc(t, "user-2", "model-buzzz")

	if _, err := f.service.CreateListing(ctx, "user-1", CreateListingInput{
		DiscID: destroyer.ID, ListingType: "sale", PriceCents: 2500, Description: "big distance",
	}); err != nil {
		t.Fatalf("create listing failed: %v", err)
	}
	if _, err := f.service.CreateListing(ctx, "user-2", CreateListingInput{
		DiscID: buzzz.ID, ListingType: "want", PriceCents: 1000,
	}); err != nil {
		t.Fatalf("create listing failed: %v", err)
	}

	cases := []struct {
		name    string
		filters Filters
		want    int
	}{
		{name: "all active", filters: Filters{}, want: 2},
		{name: "type sale", filters: Filters{Type: "sale"}, want: 1},
		{name: "manufacturer", filters: Filters{ManufacturerID: "mfr-discraft"}, want: 1},
		{name: "disc type", filters: Filters{DiscType: "distance"}, want: 1},
		{name: "min price", filters: Filters{MinPriceCents: 2000}, want: 1},
		{name: "max price", filters: Filters{MaxPriceCents: 1500}, want: 1},
		{name: "search description", filters: Filters{Search: "distance"}, want: 1},
		{name: "search manufacturer", filters: Filters{Search: "discraft"}, want: 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			listings, err := f.service.ListListings(ctx, tc.filters)
			if err != nil {
				t.Fatalf("list failed: %v", err)
			}
			if len(listings) != tc.want {
				t.Fatalf("expected %d listings, got %d", tc.want, len(listings))
			}
		})
	}
}

func TestDeactivateHidesListing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	disc := f.addDisc(t, "user-1", "model-destroyer")
	listing, err := f.service.CreateListing(ctx, "user-1", CreateListingInput{
		DiscID: disc.ID, ListingType: "sale", PriceCents: 2500,
	})
	if err != nil {
		t.Fatalf("create listing failed: %v", err)
	}

	if err := f.service.Deactivate(ctx, "user-2", listing.ID); !errors.Is(err, ErrListingNotFound) {
		t.Fatalf("expected ErrListingNotFound for foreign user, got %v", err)
	}
	if err := f.service.Deactivate(ctx, "user-1", listing.ID); err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}
	if _, err := f.service.GetListing(ctx, listing.ID); !errors.Is(err, ErrListingNotFound) {
		t.Fatalf("expected listing hidden, got %v", err)
	}

	listings, err := f.service.ListListings(ctx, Filters{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(listings) != 0 {
		t.Fatalf("expected no active listings, got %d", len(listings))
	}
}
