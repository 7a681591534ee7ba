package signup

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/flightline-labs/discstash/internal/identity"
	"github.com/flightline-labs/discstash/internal/profiles"
)

const defaultMinPasswordLength = 6

// IdentityRegistrar is the identity service operation consumed by signup.
type IdentityRegistrar interface {
	Register(ctx context.Context, email, password string) (identity.Registration, error)
}

// ProfileFinder is the point lookup backing the duplicate-email pre-check.
type ProfileFinder interface {
	FindByEmail(ctx context.Context, email string) (*profiles.Profile, error)
}

// Metrics records signup flow outcomes. Implemented by the metrics package;
// a no-op stands in when absent.
type Metrics interface {
	SignUpSucceeded()
	SignUpFailed(reason string)
	ProvisionAttempted()
	Compensated(policy string)
}

type nopMetrics struct{}

func (nopMetrics) SignUpSucceeded()    {}
func (nopMetrics) SignUpFailed(string) {}
func (nopMetrics) ProvisionAttempted() {}
func (nopMetrics) Compensated(string)  {}

// SignUpResult is the caller-facing outcome of a successful registration.
type SignUpResult struct {
	IdentityID  string
	Email       string
	AccessToken string
	ExpiresIn   int64
}

// ServiceConfig describes the signup orchestrator dependencies.
type ServiceConfig struct {
	Registrar         IdentityRegistrar
	Profiles          ProfileFinder
	Provisioner       *Provisioner
	Compensation      CompensationPolicy
	MinPasswordLength int
	Logger            *zap.Logger
	Metrics           Metrics
}

// Service orchestrates account provisioning: credential validation, the
// best-effort duplicate pre-check, registration, retried profile
// provisioning, and compensation when provisioning permanently fails. Each
// step runs strictly in sequence.
type Service struct {
	registrar    IdentityRegistrar
	profiles     ProfileFinder
	provisioner  *Provisioner
	compensation CompensationPolicy
	minPassword  int
	logger       *zap.Logger
	metrics      Metrics
}

// NewService constructs the signup orchestrator.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Registrar == nil {
		return nil, errors.New("signup: identity registrar required")
	}
	if cfg.Profiles == nil {
		return nil, errors.New("signup: profile finder required")
	}
	if cfg.Provisioner == nil {
		return nil, errors.New("signup: provisioner required")
	}
	if cfg.Compensation == nil {
		return nil, errors.New("signup: compensation policy required")
	}
	minPassword := cfg.MinPasswordLength
	if minPassword < 1 {
		minPassword = defaultMinPasswordLength
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Service{
		registrar:    cfg.Registrar,
		profiles:     cfg.Profiles,
		provisioner:  cfg.Provisioner,
		compensation: cfg.Compensation,
		minPassword:  minPassword,
		logger:       logger,
		metrics:      metrics,
	}, nil
}

// SignUp registers the credentials and guarantees a profile exists for the
// new identity before reporting success. On terminal provisioning failure the
// compensation policy reverts the registration and the provisioning error is
// surfaced regardless of the compensation outcome.
func (s *Service) SignUp(ctx context.Context, creds Credentials) (SignUpResult, error) {
	if err := ValidateCredentials(creds, s.minPassword); err != nil {
		s.metrics.SignUpFailed("validation")
		return SignUpResult{}, err
	}

	email := strings.ToLower(strings.TrimSpace(creds.Email))

	// Best-effort duplicate pre-check. A lookup failure is logged and the
	// identity service remains the authority on uniqueness.
	existing, err := s.profiles.FindByEmail(ctx, email)
	if err != nil {
		s.logger.Warn("duplicate pre-check failed", zap.Error(err))
	} else if existing != nil {
		s.metrics.SignUpFailed("duplicate_email")
		return SignUpResult{}, ErrDuplicateEmail
	}

	registration, err := s.registrar.Register(ctx, email, creds.Password)
	if err != nil {
		s.logger.Warn("identity registration failed", zap.String("email", email), zap.Error(err))
		s.metrics.SignUpFailed("registration")
		return SignUpResult{}, err
	}

	if err := s.provisioner.EnsureProfile(ctx, registration.IdentityID, registration.Email); err != nil {
		s.metrics.SignUpFailed("provisioning")

		var provisioningErr *ProvisioningError
		if errors.As(err, &provisioningErr) {
			s.compensate(ctx, FailedRegistration{
				IdentityID:  registration.IdentityID,
				Email:       registration.Email,
				AccessToken: registration.AccessToken,
			})
		}
		return SignUpResult{}, err
	}

	s.metrics.SignUpSucceeded()
	return SignUpResult{
		IdentityID:  registration.IdentityID,
		Email:       registration.Email,
		AccessToken: registration.AccessToken,
		ExpiresIn:   registration.ExpiresIn,
	}, nil
}

// compensate reverts the partially-completed registration. Best effort: its
// own failure is logged and never replaces the provisioning error.
func (s *Service) compensate(ctx context.Context, failed FailedRegistration) {
	s.metrics.Compensated(s.compensation.Name())
	if err := s.compensation.Compensate(ctx, failed); err != nil {
		s.logger.Error("registration compensation failed",
			zap.String("policy", s.compensation.Name()),
			zap.String("identity_id", failed.IdentityID),
			zap.Error(err))
		return
	}
	s.logger.Info("registration compensated",
		zap.String("policy", s.compensation.Name()),
		zap.String("identity_id", failed.IdentityID))
}
