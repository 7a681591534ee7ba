package server

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/flightline-labs/discstash/internal/inventory"
	"github.com/flightline-labs/discstash/internal/profiles"
)

func TestProfileRoundTrip(t *testing.T) {
	server := newTestServer(t)
	_, token := server.signUp(t, "player@example.com", "secret-pass")

	recorder := server.do(t, http.MethodPut, "/profile", token, map[string]string{
		"username":             "chains",
		"full_name":            "Casey Chains",
		"favorite_disc":        "Destroyer",
		"inventory_visibility": "public",
	})
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, recorder.Code, recorder.Body.String())
	}

	recorder = server.do(t, http.MethodGet, "/profile", token, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, recorder.Code)
	}
	var profile profiles.Profile
	decodeJSON(t, recorder, &profile)
	if profile.Username != "chains" || profile.InventoryVisibility != "public" {
		t.Fatalf("unexpected profile: %+v", profile)
	}
}

func TestProfileUpdateRejectsUnknownVisibility(t *testing.T) {
	server := newTestServer(t)
	_, token := server.signUp(t, "player@example.com", "secret-pass")

	recorder := server.do(t, http.MethodPut, "/profile", token, map[string]string{
		"inventory_visibility": "everyone",
	})
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, recorder.Code)
	}
}

func TestInventoryDiscLifecycle(t *testing.T) {
	server := newTestServer(t)
	_, token := server.signUp(t, "player@example.com", "secret-pass")

	recorder := server.do(t, http.MethodPost, "/inventory/discs", token, map[string]interface{}{
		"disc_model_id": "model-destroyer",
		"condition":     "good",
		"color":         "red",
		"weight_grams":  175,
	})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, recorder.Code, recorder.Body.String())
	}
	var disc inventory.UserDisc
	decodeJSON(t, recorder, &disc)

	recorder = server.do(t, http.MethodGet, "/inventory/discs", token, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, recorder.Code)
	}
	var listing struct {
		Discs []inventory.UserDisc `json:"discs"`
	}
	decodeJSON(t, recorder, &listing)
	if len(listing.Discs) != 1 || listing.Discs[0].ID != disc.ID {
		t.Fatalf("unexpected inventory listing: %+v", listing)
	}
	if listing.Discs[0].DiscModel.Manufacturer.Name != "Innova" {
		t.Fatalf("expected catalog preload, got %+v", listing.Discs[0].DiscModel)
	}

	recorder = server.do(t, http.MethodPut, "/inventory/discs/"+disc.ID, token, map[string]interface{}{
		"condition": "fair",
		"color":     "red",
	})
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, recorder.Code, recorder.Body.String())
	}

	recorder = server.do(t, http.MethodDelete, "/inventory/discs/"+disc.ID, token, nil)
	if recorder.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, recorder.Code)
	}
	recorder = server.do(t, http.MethodGet, "/inventory/discs/"+disc.ID, token, nil)
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, recorder.Code)
	}
}

func TestInventoryRejectsUnknownModel(t *testing.T) {
	server := newTestServer(t)
	_, token := server.signUp(t, "player@example.com", "secret-pass")

	recorder := server.do(t, http.MethodPost, "/inventory/discs", token, map[string]interface{}{
		"disc_model_id": "model-unknown",
		"condition":     "good",
	})
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, recorder.Code)
	}
}

func TestInventoryIsScopedToOwner(t *testing.T) {
	server := newTestServer(t)
	_, ownerToken := server.signUp(t, "owner@example.com", "secret-pass")
	_, otherToken := server.signUp(t, "other@example.com", "secret-pass")

	recorder := server.do(t, http.MethodPost, "/inventory/discs", ownerToken, map[string]interface{}{
		"disc_model_id": "model-destroyer",
		"condition":     "good",
	})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, recorder.Code)
	}
	var disc inventory.UserDisc
	decodeJSON(t, recorder, &disc)

	recorder = server.do(t, http.MethodGet, "/inventory/discs/"+disc.ID, otherToken, nil)
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected foreign disc to be hidden, got status %d", recorder.Code)
	}
}

func TestDiscImageUpload(t *testing.T) {
	server := newTestServer(t)
	_, token := server.signUp(t, "player@example.com", "secret-pass")

	recorder := server.do(t, http.MethodPost, "/inventory/discs", token, map[string]interface{}{
		"disc_model_id": "model-destroyer",
		"condition":     "good",
	})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, recorder.Code)
	}
	var disc inventory.UserDisc
	decodeJSON(t, recorder, &disc)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("image", "destroyer.png")
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write([]byte("fake image bytes")); err != nil {
		t.Fatalf("failed to write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	request := httptest.NewRequest(http.MethodPost, "/inventory/discs/"+disc.ID+"/image", body)
	request.Header.Set("Content-Type", writer.FormDataContentType())
	request.Header.Set("Authorization", "Bearer "+token)
	uploadRecorder := httptest.NewRecorder()
	server.handler.ServeHTTP(uploadRecorder, request)

	if uploadRecorder.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, uploadRecorder.Code, uploadRecorder.Body.String())
	}
	var response struct {
		ImageURL string `json:"image_url"`
	}
	decodeJSON(t, uploadRecorder, &response)
	if !strings.HasPrefix(response.ImageURL, "/uploads/") {
		t.Fatalf("unexpected image url %q", response.ImageURL)
	}
}
