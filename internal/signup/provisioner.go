package signup

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/flightline-labs/discstash/internal/profiles"
)

// ProfileUpserter is the remote procedure the provisioner drives: an
// idempotent upsert keyed by identity id. Calling it twice with the same
// identity yields one profile row.
type ProfileUpserter interface {
	EnsureProfileExists(ctx context.Context, identityID, email string) error
}

// ProvisionerConfig describes the provisioner dependencies.
type ProvisionerConfig struct {
	Profiles ProfileUpserter
	Policy   RetryPolicy
	Sleep    SleepFunc
	Logger   *zap.Logger
	Metrics  Metrics
}

// Provisioner ensures a profile row exists for a freshly registered identity,
// retrying transient upsert failures with exponential backoff. Safety under
// concurrent provisioning is delegated to the idempotent server-side upsert;
// the provisioner performs no locking and never fans attempts out.
type Provisioner struct {
	profiles ProfileUpserter
	policy   RetryPolicy
	sleep    SleepFunc
	logger   *zap.Logger
	metrics  Metrics
}

// NewProvisioner constructs a Provisioner.
func NewProvisioner(cfg ProvisionerConfig) (*Provisioner, error) {
	if cfg.Profiles == nil {
		return nil, errors.New("signup: profile upserter required")
	}
	policy := cfg.Policy
	if policy.MaxAttempts < 1 {
		policy = DefaultRetryPolicy()
	}
	if policy.IsRetryable == nil {
		policy.IsRetryable = func(err error) bool {
			return !isValidationClass(err)
		}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Provisioner{
		profiles: cfg.Profiles,
		policy:   policy,
		sleep:    cfg.Sleep,
		logger:   logger,
		metrics:  metrics,
	}, nil
}

// EnsureProfile guarantees a profile exists for the identity, or reports a
// terminal error. Malformed inputs fail immediately without any remote call;
// validation-class failures from the remote short-circuit the retry loop.
func (p *Provisioner) EnsureProfile(ctx context.Context, identityID, email string) error {
	if strings.TrimSpace(identityID) == "" || strings.TrimSpace(email) == "" {
		return ErrInvalidProfileInput
	}

	attempt := 0
	err := Retry(ctx, func(ctx context.Context) error {
		attempt++
		p.metrics.ProvisionAttempted()
		return p.profiles.EnsureProfileExists(ctx, identityID, email)
	}, p.policy, p.sleep)
	if err == nil {
		return nil
	}

	if isValidationClass(err) {
		p.logger.Warn("profile provisioning rejected input",
			zap.String("identity_id", identityID),
			zap.Error(err))
		return ErrInvalidProfileInput
	}

	p.logger.Error("profile provisioning exhausted retries",
		zap.String("identity_id", identityID),
		zap.Int("attempts", attempt),
		zap.Error(err))
	return &ProvisioningError{Attempts: attempt, Err: err}
}

// isValidationClass reports whether the remote rejected the input itself,
// which must not be retried.
func isValidationClass(err error) bool {
	return errors.Is(err, profiles.ErrInvalidProfileKey) || errors.Is(err, ErrInvalidProfileInput)
}
