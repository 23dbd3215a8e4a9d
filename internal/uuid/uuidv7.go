// Package uuid generates and validates the identifiers used as primary keys.
package uuid

import (
	googleuuid "github.com/google/uuid"
)

// New returns a time-ordered UUIDv7 string, falling back to a random UUIDv4
// if the clock-based generator fails.
func New() string {
	id, err := googleuuid.NewV7()
	if err != nil {
		return googleuuid.NewString()
	}
	return id.String()
}

// IsValid checks if a string is a valid UUID
func IsValid(s string) bool {
	_, err := googleuuid.Parse(s)
	return err == nil
}

// Normalize returns the canonical lowercase form of s, or false if s is not a UUID.
func Normalize(s string) (string, bool) {
	id, err := googleuuid.Parse(s)
	if err != nil {
		return "", false
	}
	return id.String(), true
}
