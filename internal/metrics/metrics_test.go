package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/flightline-labs/discstash/internal/signup"
)

func counterValue(t *testing.T, registry *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		total := 0.0
		for _, metric := range family.GetMetric() {
			total += metric.GetCounter().GetValue()
		}
		return total
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

func TestCollectorImplementsSignupMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	var _ signup.Metrics = NewCollector(registry)
}

func TestCollectorCountsSignupOutcomes(t *testing.T) {
	registry := prometheus.NewRegistry()
	collector := NewCollector(registry)

	collector.SignUpSucceeded()
	collector.SignUpSucceeded()
	collector.SignUpFailed("duplicate_email")
	collector.SignUpFailed("provisioning")
	collector.SignUpFailed("provisioning")

	if got := counterValue(t, registry, "discstash_signup_success_total"); got != 2 {
		t.Fatalf("signup_success_total = %v, want 2", got)
	}
	if got := counterValue(t, registry, "discstash_signup_failure_total"); got != 3 {
		t.Fatalf("signup_failure_total = %v, want 3", got)
	}
}

func TestCollectorCountsProvisioningActivity(t *testing.T) {
	registry := prometheus.NewRegistry()
	collector := NewCollector(registry)

	collector.ProvisionAttempted()
	collector.ProvisionAttempted()
	collector.ProvisionAttempted()
	collector.Compensated("sign_out")

	if got := counterValue(t, registry, "discstash_profile_provision_attempts_total"); got != 3 {
		t.Fatalf("provision_attempts_total = %v, want 3", got)
	}
	if got := counterValue(t, registry, "discstash_signup_compensations_total"); got != 1 {
		t.Fatalf("compensations_total = %v, want 1", got)
	}
}

func TestHandlerServesPrometheusFormat(t *testing.T) {
	registry := prometheus.NewRegistry()
	collector := NewCollector(registry)
	collector.SignUpSucceeded()
	collector.RequestObserved(http.MethodPost, "/auth/signup", http.StatusCreated, 25*time.Millisecond)

	request := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	recorder := httptest.NewRecorder()
	Handler(registry).ServeHTTP(recorder, request)

	response := recorder.Result()
	if response.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", response.StatusCode, http.StatusOK)
	}
	body, err := io.ReadAll(response.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	for _, name := range []string{
		"discstash_signup_success_total",
		"discstash_http_requests_total",
		"discstash_http_request_duration_seconds",
	} {
		if !strings.Contains(string(body), name) {
			t.Fatalf("scrape output missing %s", name)
		}
	}
}
