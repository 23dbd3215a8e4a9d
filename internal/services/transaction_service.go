package services

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pocketbook/internal/authz"
	apperrors "pocketbook/internal/errors"
	"pocketbook/internal/models"
	"pocketbook/internal/pagination"
)

const (
	minTransactionDescription = 3
	maxTransactionDescription = 255
	maxInstallments           = 60
)

// sortColumns whitelists the columns a listing may be ordered by.
var sortColumns = map[string]string{
	"date":        "date",
	"amount":      "amount",
	"description": "description",
}

// transactionService handles transaction-related business logic.
type transactionService struct {
	db *gorm.DB
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB) TransactionServicer {
	return &transactionService{db: db}
}

// CreateTransaction records a new journal entry for the user.
func (s *transactionService) CreateTransaction(userID string, in TransactionInput) (*models.Transaction, error) {
	txn := &models.Transaction{
		UserID:              userID,
		Description:         in.Description,
		Amount:              in.Amount,
		Date:                in.Date,
		CategoryID:          normalizeID(in.CategoryID),
		IsRecurrent:         in.IsRecurrent,
		RecurrenceFrequency: in.RecurrenceFrequency,
		Installments:        1,
	}
	if in.Installments != nil {
		txn.Installments = *in.Installments
	}
	if in.InstallmentsPaid != nil {
		txn.InstallmentsPaid = *in.InstallmentsPaid
	}

	// Default date to now if not provided
	if txn.Date.IsZero() {
		txn.Date = time.Now()
	}

	if err := validateTransaction(txn); err != nil {
		return nil, err
	}
	if err := s.ensureCategory(userID, txn.CategoryID); err != nil {
		return nil, err
	}

	if err := s.db.Create(txn).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return txn, nil
}

// GetUserTransactions retrieves a filtered, sorted and paginated list of the
// user's transactions.
func (s *transactionService) GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	q := s.db.Model(&models.Transaction{}).Where("user_id = ?", userID)

	if filter.FromDate != nil {
		q = q.Where("date >= ?", filter.FromDate.UTC())
	}
	if filter.ToDate != nil {
		q = q.Where("date <= ?", filter.ToDate.UTC())
	}
	if filter.MinAmount != nil {
		q = q.Where("amount >= ?", *filter.MinAmount)
	}
	if filter.MaxAmount != nil {
		q = q.Where("amount <= ?", *filter.MaxAmount)
	}

	switch filter.Kind {
	case KindIncome:
		q = q.Where("amount > 0")
	case KindExpense:
		q = q.Where("amount < 0")
	}

	if categoryID := normalizeID(filter.CategoryID); categoryID != nil {
		ids, err := s.categoryFamily(userID, *categoryID)
		if err != nil {
			return nil, err
		}
		q = q.Where("category_id IN ?", ids)
	}

	var totalItems int64
	if err := q.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	column, desc := "date", true
	if filter.Sort.By != "" {
		col, ok := sortColumns[filter.Sort.By]
		if !ok {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "sortBy must be one of date, amount, description")
		}
		column, desc = col, filter.Sort.Desc
	}

	var transactions []models.Transaction
	if err := q.
		Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: desc}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: desc}).
		Scopes(pagination.Paginate(page)).
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page.Page, page.Limit, totalItems)
	return &result, nil
}

// GetTransactionByID retrieves a transaction owned by userID.
func (s *transactionService) GetTransactionByID(userID, transactionID string) (*models.Transaction, error) {
	return authz.LoadOwned[models.Transaction](s.db, transactionID, userID, apperrors.ErrTransactionNotFound)
}

// UpdateTransaction merges the given fields into the transaction and
// re-validates the result before saving it.
func (s *transactionService) UpdateTransaction(userID, transactionID string, in TransactionUpdate) (*models.Transaction, error) {
	txn, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return nil, err
	}

	if in.Description != nil {
		txn.Description = *in.Description
	}
	if in.Amount != nil {
		txn.Amount = *in.Amount
	}
	if in.Date != nil {
		txn.Date = *in.Date
	}
	if in.CategoryID != nil {
		txn.CategoryID = normalizeID(in.CategoryID)
	}
	if in.IsRecurrent != nil {
		txn.IsRecurrent = *in.IsRecurrent
	}
	if in.RecurrenceFrequency != nil {
		txn.RecurrenceFrequency = in.RecurrenceFrequency
	}
	if in.Installments != nil {
		txn.Installments = *in.Installments
	}
	if in.InstallmentsPaid != nil {
		txn.InstallmentsPaid = *in.InstallmentsPaid
	}

	if err := validateTransaction(txn); err != nil {
		return nil, err
	}
	if err := s.ensureCategory(userID, txn.CategoryID); err != nil {
		return nil, err
	}

	if err := s.db.Save(txn).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return txn, nil
}

// DeleteTransaction hard-deletes a transaction owned by userID.
func (s *transactionService) DeleteTransaction(userID, transactionID string) error {
	txn, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(txn).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// ensureCategory checks that categoryID, when set, names a category of userID.
func (s *transactionService) ensureCategory(userID string, categoryID *string) error {
	if categoryID == nil {
		return nil
	}

	var count int64
	if err := s.db.Model(&models.Category{}).
		Where("id = ? AND user_id = ?", *categoryID, userID).
		Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count == 0 {
		return apperrors.ErrInvalidCategoryReference
	}
	return nil
}

// categoryFamily returns the IDs a category filter matches: the category
// itself plus, for a root, its direct children.
func (s *transactionService) categoryFamily(userID, categoryID string) ([]string, error) {
	var category models.Category
	if err := s.db.Where("id = ? AND user_id = ?", categoryID, userID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidCategoryReference
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	ids := []string{category.ID}
	if !category.IsRoot() {
		return ids, nil
	}

	var childIDs []string
	if err := s.db.Model(&models.Category{}).
		Where("parent_category_id = ?", category.ID).
		Pluck("id", &childIDs).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return append(ids, childIDs...), nil
}

// validateTransaction checks the invariants of a transaction and normalizes
// its fields in place.
func validateTransaction(t *models.Transaction) error {
	t.Description = strings.TrimSpace(t.Description)
	if n := len([]rune(t.Description)); n < minTransactionDescription || n > maxTransactionDescription {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "description must be between 3 and 255 characters")
	}

	t.Amount = t.Amount.Round(2)
	if t.Amount.IsZero() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must not be zero")
	}
	t.Date = t.Date.UTC()

	if t.IsRecurrent {
		if t.RecurrenceFrequency == nil {
			return apperrors.ErrRecurrenceFrequencyNeeded
		}
		if !t.RecurrenceFrequency.Valid() {
			return apperrors.ErrInvalidRecurrence
		}
	} else {
		t.RecurrenceFrequency = nil
	}

	if t.Installments < 1 || t.Installments > maxInstallments {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "installments must be between 1 and 60")
	}
	if t.InstallmentsPaid < 0 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "installments paid cannot be negative")
	}
	if t.InstallmentsPaid > t.Installments {
		return apperrors.ErrInstallmentsExceeded
	}
	return nil
}
