// Package authz holds the ownership guard applied before any read or
// mutation of a user-owned record.
package authz

import (
	"errors"

	"gorm.io/gorm"

	apperrors "pocketbook/internal/errors"
)

// Ownable is implemented by every user-owned model.
type Ownable interface {
	OwnerID() string
}

// EnsureOwner fails with ErrUnauthorized when there is no principal and
// with ErrForbidden when the principal does not own the resource.
func EnsureOwner(principalID string, resource Ownable) error {
	if principalID == "" {
		return apperrors.ErrUnauthorized
	}
	if resource.OwnerID() != principalID {
		return apperrors.ErrForbidden
	}
	return nil
}

// LoadOwned fetches the record with the given primary key and checks that
// principalID owns it. A missing record yields notFound.
func LoadOwned[T any, PT interface {
	*T
	Ownable
}](db *gorm.DB, id, principalID string, notFound *apperrors.AppError) (*T, error) {
	if principalID == "" {
		return nil, apperrors.ErrUnauthorized
	}

	var record T
	if err := db.Where("id = ?", id).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := EnsureOwner(principalID, PT(&record)); err != nil {
		return nil, err
	}
	return &record, nil
}
