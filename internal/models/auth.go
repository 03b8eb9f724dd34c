package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type User struct {
	Base
	Name        string     `gorm:"not null" json:"name"`
	Email       string     `gorm:"uniqueIndex;not null" json:"email"`
	Password    string     `gorm:"not null" json:"-"`
	Role        UserRole   `gorm:"not null;default:'viewer'" json:"role"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// BeforeSave hashes a plain-text password. Values that are already bcrypt
// hashes are left alone so updates without a password change keep the hash.
func (u *User) BeforeSave(tx *gorm.DB) error {
	if u.Password == "" {
		return nil
	}
	if _, err := bcrypt.Cost([]byte(u.Password)); err == nil {
		return nil
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashed)
	return nil
}

func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
}

type Role struct {
	Base
	Name        string                      `gorm:"uniqueIndex;not null" json:"name"`
	Description string                      `json:"description,omitempty"`
	Permissions datatypes.JSONSlice[string] `json:"permissions,omitempty"`
}

// AuthTransaction records one issued sandbox token. Logging out revokes it.
type AuthTransaction struct {
	Base
	UserID    uint64     `gorm:"index;not null" json:"user_id"`
	User      *User      `json:"user,omitempty"`
	TokenID   string     `gorm:"uniqueIndex;not null" json:"token_id"`
	IPAddress string     `json:"ip_address,omitempty"`
	UserAgent string     `json:"user_agent,omitempty"`
	ExpiresAt time.Time  `json:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
}

func (t AuthTransaction) Active(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}
