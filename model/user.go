package model

import "time"

// Role is the platform-wide role of a user.
type Role string

const (
	RolePlayer     Role = "player"
	RoleGameMaster Role = "game_master"
	RoleAdmin      Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RolePlayer, RoleGameMaster, RoleAdmin:
		return true
	}
	return false
}

// User is a registered account. Deleting a user removes the campaigns they
// run, their characters and their memberships.
type User struct {
	UUIDKey
	Email        string    `gorm:"uniqueIndex;size:128;not null" json:"email"`
	PasswordHash string    `gorm:"size:72;not null" json:"-"`
	Name         string    `gorm:"size:64;not null" json:"name"`
	Role         Role      `gorm:"size:16;not null;default:player" json:"role"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updatedAt"`

	Campaigns   []Campaign   `gorm:"foreignKey:GameMasterID;constraint:OnDelete:CASCADE" json:"-"`
	Characters  []Character  `gorm:"foreignKey:PlayerID;constraint:OnDelete:CASCADE" json:"-"`
	Memberships []Membership `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// Summary is the public projection of a user embedded in other responses.
type Summary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Summary returns the public projection of u.
func (u *User) Summary() Summary {
	return Summary{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}
