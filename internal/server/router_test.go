package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/flightline-labs/discstash/internal/auth"
	"github.com/flightline-labs/discstash/internal/identity"
	"github.com/flightline-labs/discstash/internal/inventory"
	"github.com/flightline-labs/discstash/internal/marketplace"
	"github.com/flightline-labs/discstash/internal/messaging"
	"github.com/flightline-labs/discstash/internal/profiles"
	"github.com/flightline-labs/discstash/internal/signup"
)

type testServer struct {
	handler http.Handler
	db      *gorm.DB
}

type testServerOptions struct {
	publicRatePerMinute int
}

func newTestServer(t *testing.T) *testServer {
	return newTestServerWithOptions(t, testServerOptions{})
}

func newTestServerWithOptions(t *testing.T, options testServerOptions) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to access connection pool: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	err = db.AutoMigrate(
		&identity.Identity{},
		&profiles.Profile{},
		&inventory.DiscManufacturer{}, &inventory.DiscModel{},
		&inventory.StorageLocation{}, &inventory.UserDisc{},
		&marketplace.Listing{},
		&messaging.Conversation{}, &messaging.Message{},
	)
	if err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	tokenIssuer := auth.NewTokenIssuer(auth.TokenIssuerConfig{
		SigningSecret: []byte("test-signing-secret"),
		TokenTTL:      time.Hour,
	})
	identityService, err := identity.NewService(identity.ServiceConfig{
		Database:   db,
		Tokens:     tokenIssuer,
		IDProvider: identity.NewUUIDProvider(),
	})
	if err != nil {
		t.Fatalf("failed to create identity service: %v", err)
	}
	profileStore, err := profiles.NewStore(profiles.StoreConfig{Database: db})
	if err != nil {
		t.Fatalf("failed to create profile store: %v", err)
	}
	provisioner, err := signup.NewProvisioner(signup.ProvisionerConfig{
		Profiles: profileStore,
		Sleep:    func(context.Context, time.Duration) error { return nil },
	})
	if err != nil {
		t.Fatalf("failed to create provisioner: %v", err)
	}
	signupService, err := signup.NewService(signup.ServiceConfig{
		Registrar:    identityService,
		Profiles:     profileStore,
		Provisioner:  provisioner,
		Compensation: signup.SignOutCompensation{Sessions: identityService},
	})
	if err != nil {
		t.Fatalf("failed to create signup service: %v", err)
	}
	inventoryService, err := inventory.NewService(inventory.ServiceConfig{Database: db})
	if err != nil {
		t.Fatalf("failed to create inventory service: %v", err)
	}
	marketplaceService, err := marketplace.NewService(marketplace.ServiceConfig{Database: db})
	if err != nil {
		t.Fatalf("failed to create marketplace service: %v", err)
	}
	messagingService, err := messaging.NewService(messaging.ServiceConfig{Database: db})
	if err != nil {
		t.Fatalf("failed to create messaging service: %v", err)
	}
	images, err := inventory.NewImageStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create image store: %v", err)
	}

	seed := []interface{}{
		&inventory.DiscManufacturer{ID: "mfr-innova", Name: "Innova"},
		&inventory.DiscModel{ID: "model-destroyer", ManufacturerID: "mfr-innova", Name: "Destroyer", Type: "distance", Speed: 12, Glide: 5, Turn: -1, Fade: 3},
	}
	for _, record := range seed {
		if err := db.Create(record).Error; err != nil {
			t.Fatalf("failed to seed catalog: %v", err)
		}
	}

	handler, err := NewHTTPHandler(Dependencies{
		Signup:              signupService,
		Identity:            identityService,
		Tokens:              tokenIssuer,
		Profiles:            profileStore,
		Inventory:           inventoryService,
		Marketplace:         marketplaceService,
		Messaging:           messagingService,
		Images:              images,
		Logger:              zap.NewNop(),
		PublicRatePerMinute: options.publicRatePerMinute,
	})
	if err != nil {
		t.Fatalf("failed to construct http handler: %v", err)
	}
	return &testServer{handler: handler, db: db}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Buffer
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
		reader = bytes.NewBuffer(encoded)
	} else {
		reader = bytes.NewBuffer(nil)
	}
	request := httptest.NewRequest(method, path, reader)
	request.Header.Set("Content-Type", "application/json")
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	s.handler.ServeHTTP(recorder, request)
	return recorder
}

func (s *testServer) signUp(t *testing.T, email, password string) (userID, token string) {
	t.Helper()
	recorder := s.do(t, http.MethodPost, "/auth/signup", "", map[string]string{
		"email":    email,
		"password": password,
	})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("signup failed with status %d: %s", recorder.Code, recorder.Body.String())
	}
	var response sessionPayload
	if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to decode signup response: %v", err)
	}
	return response.UserID, response.AccessToken
}

func decodeJSON(t *testing.T, recorder *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to decode response %s: %v", recorder.Body.String(), err)
	}
}
