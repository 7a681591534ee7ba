package signup

import (
	"fmt"
	"strings"
)

// Credentials are the caller-supplied signup inputs.
type Credentials struct {
	Email    string
	Password string
}

// ValidateCredentials enforces the input constraints that must hold before
// any network call is made.
func ValidateCredentials(creds Credentials, minPasswordLength int) error {
	if strings.TrimSpace(creds.Email) == "" {
		return &ValidationError{Reason: "Email is required"}
	}
	if creds.Password == "" {
		return &ValidationError{Reason: "Password is required"}
	}
	if len(creds.Password) < minPasswordLength {
		return &ValidationError{Reason: fmt.Sprintf("Password must be at least %d characters long", minPasswordLength)}
	}
	return nil
}
