package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/flightline-labs/discstash/internal/auth"
)

// ServiceError reports an identity service failure with an HTTP-style status
// class, mirroring the contract of a hosted auth provider.
type ServiceError struct {
	Status  int
	Message string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("identity: status %d: %s", e.Status, e.Message)
}

// Registration is the outcome of a successful credential registration. The
// identity service signs the new user in as part of registration, so a live
// session accompanies the identity until confirmed or signed out.
type Registration struct {
	IdentityID  string
	Email       string
	AccessToken string
	ExpiresIn   int64
}

// Session is an authenticated session issued after sign-in.
type Session struct {
	IdentityID  string
	Email       string
	AccessToken string
	ExpiresIn   int64
}

// IDProvider issues identifiers for new identities.
type IDProvider interface {
	NewID() (string, error)
}

// ServiceConfig describes the dependencies required by the identity service.
type ServiceConfig struct {
	Database   *gorm.DB
	Tokens     *auth.TokenIssuer
	IDProvider IDProvider
	Clock      func() time.Time
	Logger     *zap.Logger
}

// Service registers and authenticates identities. It plays the role of the
// external identity provider consumed by the signup flow.
type Service struct {
	db     *gorm.DB
	tokens *auth.TokenIssuer
	ids    IDProvider
	now    func() time.Time
	logger *zap.Logger
}

// NewService constructs the identity service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("identity: database connection required")
	}
	if cfg.Tokens == nil {
		return nil, fmt.Errorf("identity: token issuer required")
	}
	if cfg.IDProvider == nil {
		return nil, fmt.Errorf("identity: id provider required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		db:     cfg.Database,
		tokens: cfg.Tokens,
		ids:    cfg.IDProvider,
		now:    clock,
		logger: logger,
	}, nil
}

// Register creates a new identity for the credentials. A conflicting email is
// reported with status 422; other storage failures with status 500.
func (s *Service) Register(ctx context.Context, email, password string) (Registration, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return Registration{}, &ServiceError{Status: http.StatusBadRequest, Message: "email and password are required"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Registration{}, &ServiceError{Status: http.StatusInternalServerError, Message: "unable to hash password"}
	}

	id, err := s.ids.NewID()
	if err != nil {
		return Registration{}, &ServiceError{Status: http.StatusInternalServerError, Message: "unable to allocate identity id"}
	}

	record := Identity{
		ID:           id,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
		UpdatedAt:    s.now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		if isUniqueViolation(err) {
			return Registration{}, &ServiceError{Status: http.StatusUnprocessableEntity, Message: "email already registered"}
		}
		s.logger.Error("identity insert failed", zap.Error(err))
		return Registration{}, &ServiceError{Status: http.StatusInternalServerError, Message: "unable to create identity"}
	}

	token, expiresIn, err := s.tokens.IssueSessionToken(ctx, record.ID, record.Email)
	if err != nil {
		s.logger.Error("session token issue failed", zap.Error(err))
		return Registration{}, &ServiceError{Status: http.StatusInternalServerError, Message: "unable to issue session"}
	}

	return Registration{
		IdentityID:  record.ID,
		Email:       record.Email,
		AccessToken: token,
		ExpiresIn:   expiresIn,
	}, nil
}

// SignIn verifies credentials and issues a session token.
func (s *Service) SignIn(ctx context.Context, email, password string) (Session, error) {
	email = NormalizeEmail(email)
	var record Identity
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Session{}, &ServiceError{Status: http.StatusBadRequest, Message: "invalid email or password"}
	}
	if err != nil {
		s.logger.Error("identity lookup failed", zap.Error(err))
		return Session{}, &ServiceError{Status: http.StatusInternalServerError, Message: "unable to sign in"}
	}
	if err := bcrypt.CompareHashAndPassword([]byte(record.PasswordHash), []byte(password)); err != nil {
		return Session{}, &ServiceError{Status: http.StatusBadRequest, Message: "invalid email or password"}
	}

	token, expiresIn, err := s.tokens.IssueSessionToken(ctx, record.ID, record.Email)
	if err != nil {
		s.logger.Error("session token issue failed", zap.Error(err))
		return Session{}, &ServiceError{Status: http.StatusInternalServerError, Message: "unable to issue session"}
	}
	return Session{
		IdentityID:  record.ID,
		Email:       record.Email,
		AccessToken: token,
		ExpiresIn:   expiresIn,
	}, nil
}

// SignOut revokes the session token so no authenticated state remains.
func (s *Service) SignOut(ctx context.Context, token string) error {
	return s.tokens.RevokeToken(ctx, token)
}

// Get returns the identity record by id.
func (s *Service) Get(ctx context.Context, identityID string) (Identity, error) {
	var record Identity
	err := s.db.WithContext(ctx).Where("id = ?", identityID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Identity{}, &ServiceError{Status: http.StatusNotFound, Message: "identity not found"}
	}
	if err != nil {
		return Identity{}, &ServiceError{Status: http.StatusInternalServerError, Message: "unable to load identity"}
	}
	return record, nil
}

// Delete removes the identity record. Administrative operation used by the
// delete-identity compensation policy; dependent profiles are left in place.
func (s *Service) Delete(ctx context.Context, identityID string) error {
	if strings.TrimSpace(identityID) == "" {
		return &ServiceError{Status: http.StatusBadRequest, Message: "identity id is required"}
	}
	if err := s.db.WithContext(ctx).Where("id = ?", identityID).Delete(&Identity{}).Error; err != nil {
		return &ServiceError{Status: http.StatusInternalServerError, Message: "unable to delete identity"}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
