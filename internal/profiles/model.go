package profiles

import (
	"fmt"
	"strings"
	"time"
)

// Visibility controls who may browse a user's disc inventory.
type Visibility string

const (
	VisibilityPrivate Visibility = "private"
	VisibilityPublic  Visibility = "public"
	VisibilityFriends Visibility = "friends"
)

// ParseVisibility validates raw input and returns a Visibility.
func ParseVisibility(rawInput string) (Visibility, error) {
	switch Visibility(strings.ToLower(strings.TrimSpace(rawInput))) {
	case VisibilityPrivate:
		return VisibilityPrivate, nil
	case VisibilityPublic:
		return VisibilityPublic, nil
	case VisibilityFriends:
		return VisibilityFriends, nil
	default:
		return "", fmt.Errorf("profiles: unknown visibility %q", rawInput)
	}
}

// Profile extends an identity with user-facing attributes. Its primary key is
// the identity id; exactly one profile exists per identity. Profiles are
// created by the provisioner and mutated by the owner, never deleted.
type Profile struct {
	ID                  string    `gorm:"column:id;primaryKey;size:190;not null" json:"id"`
	Email               string    `gorm:"column:email;size:320;uniqueIndex;not null" json:"email"`
	Username            string    `gorm:"column:username;size:64" json:"username"`
	FullName            string    `gorm:"column:full_name;size:190" json:"full_name"`
	Bio                 string    `gorm:"column:bio;size:2000" json:"bio"`
	FavoriteDisc        string    `gorm:"column:favorite_disc;size:190" json:"favorite_disc"`
	FavoriteGolfer      string    `gorm:"column:favorite_golfer;size:190" json:"favorite_golfer"`
	Phone               string    `gorm:"column:phone;size:32" json:"phone"`
	InventoryVisibility string    `gorm:"column:inventory_visibility;size:16;not null;default:private" json:"inventory_visibility"`
	CreatedAt           time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName exposes the table backing user profiles.
func (Profile) TableName() string {
	return "profiles"
}
