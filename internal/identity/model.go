package identity

import (
	"strings"
	"time"
)

// Identity is the authentication record for a registered user. The application
// references identities by id; user-facing attributes live on the profile.
type Identity struct {
	ID               string     `gorm:"column:id;primaryKey;size:190;not null"`
	Email            string     `gorm:"column:email;size:320;uniqueIndex;not null"`
	PasswordHash     string     `gorm:"column:password_hash;size:128;not null"`
	EmailConfirmedAt *time.Time `gorm:"column:email_confirmed_at"`
	CreatedAt        time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName exposes the table backing identities.
func (Identity) TableName() string {
	return "identities"
}

// NormalizeEmail maps case and whitespace variants of an address to one form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
