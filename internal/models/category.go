package models

// Category is a user-owned label for transactions. Categories form a
// hierarchy of at most two levels: roots and their direct children.
type Category struct {
	Base
	UserID           string  `gorm:"type:uuid;not null;index" json:"userId"`
	Name             string  `gorm:"not null" json:"name"`
	ParentCategoryID *string `gorm:"type:uuid;index" json:"parentCategoryId"`

	Children []Category `gorm:"foreignKey:ParentCategoryID" json:"children,omitempty"`
}

// OwnerID returns the owning user's ID.
func (c *Category) OwnerID() string { return c.UserID }

// IsRoot reports whether the category has no parent.
func (c *Category) IsRoot() bool { return c.ParentCategoryID == nil }
