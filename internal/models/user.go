package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// Roles is a list of role names stored as a comma-separated column.
type Roles []string

// Value implements driver.Valuer.
func (r Roles) Value() (driver.Value, error) {
	return strings.Join(r, ","), nil
}

// Scan implements sql.Scanner.
func (r *Roles) Scan(src interface{}) error {
	var raw string
	switch v := src.(type) {
	case nil:
		*r = Roles{}
		return nil
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("cannot scan %T into Roles", src)
	}
	if raw == "" {
		*r = Roles{}
		return nil
	}
	*r = strings.Split(raw, ",")
	return nil
}

// User represents an account holder.
type User struct {
	Base
	Email                    string     `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash             string     `gorm:"not null" json:"-"`
	Name                     string     `gorm:"not null" json:"name"`
	Roles                    Roles      `gorm:"type:text;not null" json:"roles"`
	IsVerified               bool       `gorm:"not null;default:false" json:"isVerified"`
	VerificationTokenHash    string     `gorm:"size:64;index" json:"-"`
	VerificationTokenExpires *time.Time `json:"-"`
	ResetTokenHash           string     `gorm:"size:64;index" json:"-"`
	ResetTokenExpires        *time.Time `json:"-"`
	RefreshTokenHash         string     `gorm:"size:64" json:"-"`
}

// OwnerID makes a user its own owner for authorization checks.
func (u *User) OwnerID() string { return u.ID }
