package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"pocketbook/internal/authz"
	apperrors "pocketbook/internal/errors"
	"pocketbook/internal/models"
	"pocketbook/internal/pagination"
)

const maxCategoryNameLength = 100

// categoryService handles category-related business logic.
type categoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB) CategoryServicer {
	return &categoryService{db: db}
}

// CreateCategory creates a root category, or a child of parentID when given.
func (s *categoryService) CreateCategory(userID, name string, parentID *string) (*models.Category, error) {
	name, err := validateCategoryName(name)
	if err != nil {
		return nil, err
	}

	parentID = normalizeID(parentID)
	if parentID != nil {
		if _, err := s.loadParent(userID, *parentID); err != nil {
			return nil, err
		}
	}

	if err := s.ensureUniqueName(userID, name, parentID, ""); err != nil {
		return nil, err
	}

	category := &models.Category{
		UserID:           userID,
		Name:             name,
		ParentCategoryID: parentID,
	}

	if err := s.db.Create(category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return category, nil
}

// GetUserCategories retrieves a paginated list of categories for a user,
// restricted to the children of parentID when given.
func (s *categoryService) GetUserCategories(userID string, parentID *string, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error) {
	page.Defaults()

	base := s.db.Model(&models.Category{}).Where("user_id = ?", userID)
	if parentID = normalizeID(parentID); parentID != nil {
		base = base.Where("parent_category_id = ?", *parentID)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var categories []models.Category
	if err := base.Preload("Children", func(db *gorm.DB) *gorm.DB {
		return db.Order("name ASC")
	}).Order("name ASC").Order("id ASC").Scopes(pagination.Paginate(page)).Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(categories, page.Page, page.Limit, totalItems)
	return &result, nil
}

// GetCategoryByID retrieves a category owned by userID, with its children.
func (s *categoryService) GetCategoryByID(userID, categoryID string) (*models.Category, error) {
	category, err := authz.LoadOwned[models.Category](s.db, categoryID, userID, apperrors.ErrCategoryNotFound)
	if err != nil {
		return nil, err
	}

	if err := s.db.Where("parent_category_id = ?", category.ID).Order("name ASC").Find(&category.Children).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return category, nil
}

// RenameCategory changes the name of a category.
func (s *categoryService) RenameCategory(userID, categoryID, name string) (*models.Category, error) {
	category, err := authz.LoadOwned[models.Category](s.db, categoryID, userID, apperrors.ErrCategoryNotFound)
	if err != nil {
		return nil, err
	}

	name, err = validateCategoryName(name)
	if err != nil {
		return nil, err
	}
	if name == category.Name {
		return category, nil
	}

	if err := s.ensureUniqueName(userID, name, category.ParentCategoryID, category.ID); err != nil {
		return nil, err
	}

	if err := s.db.Model(category).Update("name", name).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return category, nil
}

// ReparentCategory moves a category under newParentID, or to the root level
// when newParentID is nil. The hierarchy never exceeds two levels.
func (s *categoryService) ReparentCategory(userID, categoryID string, newParentID *string) (*models.Category, error) {
	category, err := authz.LoadOwned[models.Category](s.db, categoryID, userID, apperrors.ErrCategoryNotFound)
	if err != nil {
		return nil, err
	}

	newParentID = normalizeID(newParentID)
	if sameID(newParentID, category.ParentCategoryID) {
		return category, nil
	}

	if newParentID != nil {
		if *newParentID == category.ID {
			return nil, apperrors.ErrSelfParentCategory
		}

		var parent models.Category
		if err := s.db.Where("id = ?", *newParentID).First(&parent).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.ErrParentCategoryNotFound
			}
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if parent.UserID != userID {
			return nil, apperrors.ErrParentCategoryNotFound
		}
		if parent.ParentCategoryID != nil {
			if *parent.ParentCategoryID == category.ID {
				return nil, apperrors.ErrCategoryCycle
			}
			return nil, apperrors.ErrCategoryDepthExceeded
		}

		var childCount int64
		if err := s.db.Model(&models.Category{}).Where("parent_category_id = ?", category.ID).Count(&childCount).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if childCount > 0 {
			return nil, apperrors.ErrCategoryHasChildren
		}
	}

	if err := s.ensureUniqueName(userID, category.Name, newParentID, category.ID); err != nil {
		return nil, err
	}

	if err := s.db.Model(category).Update("parent_category_id", newParentID).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	category.ParentCategoryID = newParentID
	return category, nil
}

// DeleteCategory deletes a category together with its children, clearing
// the category of every transaction that referenced any of them. All steps
// commit or roll back together.
func (s *categoryService) DeleteCategory(userID, categoryID string) error {
	category, err := authz.LoadOwned[models.Category](s.db, categoryID, userID, apperrors.ErrCategoryNotFound)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		family := []string{category.ID}
		if category.IsRoot() {
			var childIDs []string
			if err := tx.Model(&models.Category{}).
				Where("parent_category_id = ?", category.ID).
				Pluck("id", &childIDs).Error; err != nil {
				return err
			}
			family = append(family, childIDs...)
		}

		if err := tx.Model(&models.Transaction{}).
			Where("category_id IN ?", family).
			Update("category_id", nil).Error; err != nil {
			return err
		}

		if err := tx.Where("parent_category_id = ?", category.ID).Delete(&models.Category{}).Error; err != nil {
			return err
		}

		return tx.Where("id = ?", category.ID).Delete(&models.Category{}).Error
	})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// loadParent returns the category that is about to receive a child. It must
// exist, belong to userID and be a root.
func (s *categoryService) loadParent(userID, parentID string) (*models.Category, error) {
	var parent models.Category
	if err := s.db.Where("id = ? AND user_id = ?", parentID, userID).First(&parent).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrParentCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if parent.ParentCategoryID != nil {
		return nil, apperrors.ErrCategoryDepthExceeded
	}
	return &parent, nil
}

// ensureUniqueName rejects a name already used by a sibling, ignoring excludeID.
func (s *categoryService) ensureUniqueName(userID, name string, parentID *string, excludeID string) error {
	q := s.db.Model(&models.Category{}).Where("user_id = ? AND LOWER(name) = LOWER(?)", userID, name)
	if parentID == nil {
		q = q.Where("parent_category_id IS NULL")
	} else {
		q = q.Where("parent_category_id = ?", *parentID)
	}
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.ErrDuplicateCategory
	}
	return nil
}

func validateCategoryName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}
	if len(name) > maxCategoryNameLength {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "category name must be at most 100 characters")
	}
	return name, nil
}
