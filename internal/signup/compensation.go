package signup

import (
	"context"
)

// FailedRegistration carries what compensation needs to undo a registration
// whose profile provisioning permanently failed.
type FailedRegistration struct {
	IdentityID  string
	Email       string
	AccessToken string
}

// CompensationPolicy decides how to revert a partially-completed
// registration. The orchestrator invokes it only after provisioning exhausts
// its retries on a fresh registration; the policy itself is best-effort and
// its failure never masks the original provisioning error.
type CompensationPolicy interface {
	Name() string
	Compensate(ctx context.Context, failed FailedRegistration) error
}

// SessionEnder revokes an authenticated session.
type SessionEnder interface {
	SignOut(ctx context.Context, token string) error
}

// IdentityDeleter removes an identity record. Administrative privilege.
type IdentityDeleter interface {
	Delete(ctx context.Context, identityID string) error
}

// SignOutCompensation ends the session created during registration so the
// caller is left unauthenticated. The identity row may persist server-side
// pending administrative cleanup. This is the default policy.
type SignOutCompensation struct {
	Sessions SessionEnder
}

func (c SignOutCompensation) Name() string { return "sign_out" }

func (c SignOutCompensation) Compensate(ctx context.Context, failed FailedRegistration) error {
	return c.Sessions.SignOut(ctx, failed.AccessToken)
}

// DeleteIdentityCompensation removes the orphaned identity outright. Requires
// administrative access to the identity service.
type DeleteIdentityCompensation struct {
	Sessions   SessionEnder
	Identities IdentityDeleter
}

func (c DeleteIdentityCompensation) Name() string { return "delete_identity" }

func (c DeleteIdentityCompensation) Compensate(ctx context.Context, failed FailedRegistration) error {
	if err := c.Sessions.SignOut(ctx, failed.AccessToken); err != nil {
		return err
	}
	return c.Identities.Delete(ctx, failed.IdentityID)
}

// NoCompensation leaves the identity in place; the failure is only logged.
type NoCompensation struct{}

func (NoCompensation) Name() string { return "none" }

func (NoCompensation) Compensate(context.Context, FailedRegistration) error { return nil }
