package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/flightline-labs/discstash/internal/auth"
	"github.com/flightline-labs/discstash/internal/database"
	"github.com/flightline-labs/discstash/internal/identity"
	"github.com/flightline-labs/discstash/internal/inventory"
	"github.com/flightline-labs/discstash/internal/marketplace"
	"github.com/flightline-labs/discstash/internal/messaging"
	"github.com/flightline-labs/discstash/internal/profiles"
	"github.com/flightline-labs/discstash/internal/server"
	"github.com/flightline-labs/discstash/internal/session"
	"github.com/flightline-labs/discstash/internal/signup"
)

func newAPIServer(t *testing.T) *httptest.Server {
	t.Helper()

	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "discstash.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	tokenIssuer := auth.NewTokenIssuer(auth.TokenIssuerConfig{
		SigningSecret: []byte("integration-signing-secret"),
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
	provisioner, err := signup.NewProvisioner(signup.ProvisionerConfig{Profiles: profileStore})
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
	imageStore, err := inventory.NewImageStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create image store: %v", err)
	}

	handler, err := server.NewHTTPHandler(server.Dependencies{
		Signup:      signupService,
		Identity:    identityService,
		Tokens:      tokenIssuer,
		Profiles:    profileStore,
		Inventory:   inventoryService,
		Marketplace: marketplaceService,
		Messaging:   messagingService,
		Images:      imageStore,
		Logger:      zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("failed to construct http handler: %v", err)
	}

	apiServer := httptest.NewServer(handler)
	t.Cleanup(apiServer.Close)
	return apiServer
}

type apiClient struct {
	t       *testing.T
	baseURL string
	session *session.Store
}

func newAPIClient(t *testing.T, baseURL string) *apiClient {
	return &apiClient{t: t, baseURL: baseURL, session: session.NewStore()}
}

func (c *apiClient) request(method, path, token string, body interface{}, target interface{}) int {
	c.t.Helper()
	encoded := []byte(nil)
	if body != nil {
		var err error
		encoded, err = json.Marshal(body)
		if err != nil {
			c.t.Fatalf("failed to encode body: %v", err)
		}
	}
	request, err := http.NewRequest(method, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		c.t.Fatalf("failed to construct request: %v", err)
	}
	request.Header.Set("Content-Type", "application/json")
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	response, err := http.DefaultClient.Do(request)
	if err != nil {
		c.t.Fatalf("request failed: %v", err)
	}
	defer response.Body.Close()
	if target != nil {
		if err := json.NewDecoder(response.Body).Decode(target); err != nil {
			c.t.Fatalf("failed to decode response: %v", err)
		}
	}
	return response.StatusCode
}

type sessionResponse struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	AccessToken string `json:"access_token"`
}

func TestSignupThroughMarketplaceFlow(t *testing.T) {
	apiServer := newAPIServer(t)
	client := newAPIClient(t, apiServer.URL)

	// Seller registers and stocks a disc.
	var seller sessionResponse
	status := client.request(http.MethodPost, "/auth/signup", "", map[string]string{
		"email":    "seller@example.com",
		"password": "seller-pass",
	}, &seller)
	if status != http.StatusCreated {
		t.Fatalf("seller signup failed with status %d", status)
	}
	if err := client.session.Set(session.Session{IdentityID: seller.UserID, Email: seller.Email}); err != nil {
		t.Fatalf("failed to record client session: %v", err)
	}

	var disc inventory.UserDisc
	status = client.request(http.MethodPost, "/inventory/discs", seller.AccessToken, map[string]interface{}{
		"disc_model_id": "model-destroyer",
		"condition":     "good",
		"color":         "blue",
	}, &disc)
	if status != http.StatusCreated {
		t.Fatalf("add disc failed with status %d", status)
	}

	var listing marketplace.Listing
	status = client.request(http.MethodPost, "/marketplace/listings", seller.AccessToken, map[string]interface{}{
		"disc_id":      disc.ID,
		"listing_type": "sale",
		"price_cents":  2200,
		"description":  "Blue Destroyer, good shape",
	}, &listing)
	if status != http.StatusCreated {
		t.Fatalf("create listing failed with status %d", status)
	}

	// Buyer registers, finds the listing and opens a conversation.
	var buyer sessionResponse
	status = client.request(http.MethodPost, "/auth/signup", "", map[string]string{
		"email":    "buyer@example.com",
		"password": "buyer-pass",
	}, &buyer)
	if status != http.StatusCreated {
		t.Fatalf("buyer signup failed with status %d", status)
	}

	var browse struct {
		Listings []marketplace.Listing `json:"listings"`
	}
	status = client.request(http.MethodGet, "/marketplace/listings?search=destroyer", buyer.AccessToken, nil, &browse)
	if status != http.StatusOK || len(browse.Listings) != 1 {
		t.Fatalf("expected one listing in browse, status %d listings %+v", status, browse.Listings)
	}

	var conversation messaging.Conversation
	status = client.request(http.MethodPost, "/conversations", buyer.AccessToken, map[string]string{
		"listing_id": listing.ID,
	}, &conversation)
	if status != http.StatusCreated {
		t.Fatalf("start conversation failed with status %d", status)
	}

	var message messaging.Message
	status = client.request(http.MethodPost, "/conversations/"+conversation.ID+"/messages", buyer.AccessToken, map[string]string{
		"content": "Would you take 2000 for it?",
	}, &message)
	if status != http.StatusCreated {
		t.Fatalf("send message failed with status %d", status)
	}

	// Seller sees the unread message, then logs out.
	var unread struct {
		Unread int64 `json:"unread"`
	}
	status = client.request(http.MethodGet, "/conversations/unread", seller.AccessToken, nil, &unread)
	if status != http.StatusOK || unread.Unread != 1 {
		t.Fatalf("expected one unread message, status %d unread %d", status, unread.Unread)
	}

	status = client.request(http.MethodPost, "/auth/logout", seller.AccessToken, nil, nil)
	if status != http.StatusNoContent {
		t.Fatalf("logout failed with status %d", status)
	}
	if err := client.session.Clear(); err != nil {
		t.Fatalf("failed to clear client session: %v", err)
	}

	status = client.request(http.MethodGet, "/auth/session", seller.AccessToken, nil, nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("expected revoked session, got status %d", status)
	}
	if _, ok := client.session.Current(); ok {
		t.Fatal("expected cleared client session")
	}
}
