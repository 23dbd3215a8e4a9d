package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "pocketbook/internal/errors"
	"pocketbook/internal/models"
	"pocketbook/internal/pagination"
	"pocketbook/internal/services"
)

// TransactionHandler handles transaction-related requests
type TransactionHandler struct {
	transactionService services.TransactionServicer
	auditService       services.AuditServicer
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(transactionService services.TransactionServicer, auditService services.AuditServicer) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService, auditService: auditService}
}

// CreateTransactionRequest represents the transaction creation request payload.
// Positive amounts are income, negative amounts are expenses.
type CreateTransactionRequest struct {
	Description         string          `json:"description" binding:"required,max=255"`
	Amount              decimal.Decimal `json:"amount" binding:"required" swaggertype:"number"`
	Date                *Date           `json:"date" swaggertype:"string"`
	CategoryID          *string         `json:"categoryId"`
	IsRecurrent         bool            `json:"isRecurrent"`
	RecurrenceFrequency *string         `json:"recurrenceFrequency" enums:"monthly,yearly"`
	Installments        *int            `json:"installments"`
	InstallmentsPaid    *int            `json:"installmentsPaid"`
}

// UpdateTransactionRequest represents the transaction update request payload.
// Omitted fields are kept; an empty categoryId clears the category.
type UpdateTransactionRequest struct {
	Description         *string          `json:"description" binding:"omitempty,max=255"`
	Amount              *decimal.Decimal `json:"amount" swaggertype:"number"`
	Date                *Date            `json:"date" swaggertype:"string"`
	CategoryID          *string          `json:"categoryId"`
	IsRecurrent         *bool            `json:"isRecurrent"`
	RecurrenceFrequency *string          `json:"recurrenceFrequency" enums:"monthly,yearly"`
	Installments        *int             `json:"installments"`
	InstallmentsPaid    *int             `json:"installmentsPaid"`
}

// TransactionQuery holds the enumerated list parameters.
type TransactionQuery struct {
	Type      string `form:"type" binding:"omitempty,transaction_kind"`
	SortBy    string `form:"sortBy" binding:"omitempty,transaction_sort"`
	SortOrder string `form:"sortOrder" binding:"omitempty,sort_order"`
}

// CreateTransaction handles the creation of a new transaction
// @Summary     Create transaction
// @Description Record an income (positive amount) or expense (negative amount)
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateTransactionRequest true "Transaction data"
// @Success     201 {object} map[string]interface{} "Created transaction"
// @Failure     400 {object} ErrorResponse "Invalid input, recurrence, installments or category"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	categoryID, err := normalizeID(req.CategoryID, "categoryId")
	if err != nil {
		respondWithError(c, err)
		return
	}

	in := services.TransactionInput{
		Description:         req.Description,
		Amount:              req.Amount,
		CategoryID:          categoryID,
		IsRecurrent:         req.IsRecurrent,
		RecurrenceFrequency: frequency(req.RecurrenceFrequency),
		Installments:        req.Installments,
		InstallmentsPaid:    req.InstallmentsPaid,
	}
	if req.Date != nil {
		in.Date = req.Date.Time
	}

	tx, err := h.transactionService.CreateTransaction(userID, in)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_TRANSACTION", "transaction", tx.ID, c.ClientIP(),
		map[string]interface{}{"amount": tx.Amount.String()})

	c.JSON(http.StatusCreated, gin.H{"transaction": tx})
}

// GetUserTransactions handles listing the user's transactions
// @Summary     List transactions
// @Description List transactions with compound filters. A root categoryId also matches its children.
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       startDate  query string false "From date (RFC3339 or YYYY-MM-DD)"
// @Param       endDate    query string false "To date; a bare date includes the whole day"
// @Param       minAmount  query number false "Minimum signed amount"
// @Param       maxAmount  query number false "Maximum signed amount"
// @Param       categoryId query string false "Category ID"
// @Param       type       query string false "income or expense"
// @Param       sortBy     query string false "date, amount or description"
// @Param       sortOrder  query string false "asc or desc"
// @Param       page       query int    false "Page number"
// @Param       limit      query int    false "Items per page (max 100)"
// @Success     200 {object} map[string]interface{} "Transactions with pagination"
// @Failure     400 {object} ErrorResponse "Invalid filter"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /transactions [get]
func (h *TransactionHandler) GetUserTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	filter, err := parseTransactionFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.transactionService.GetUserTransactions(userID, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transactions": result.Items, "pagination": result.Pagination})
}

func parseTransactionFilter(c *gin.Context) (services.TransactionFilter, error) {
	var filter services.TransactionFilter

	var query TransactionQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "type must be income or expense, sortBy one of date, amount, description, sortOrder asc or desc")
	}
	filter.Kind = services.TransactionKind(query.Type)
	filter.Sort = services.TransactionSort{By: query.SortBy, Desc: query.SortOrder != "asc"}
	if filter.Sort.By == "" && query.SortOrder != "" {
		filter.Sort.By = "date"
	}

	var err error
	if filter.FromDate, err = optionalTime(c, "startDate", parseFlexibleTime); err != nil {
		return filter, err
	}
	if filter.ToDate, err = optionalTime(c, "endDate", parseEndTime); err != nil {
		return filter, err
	}
	if filter.MinAmount, err = optionalDecimal(c, "minAmount"); err != nil {
		return filter, err
	}
	if filter.MaxAmount, err = optionalDecimal(c, "maxAmount"); err != nil {
		return filter, err
	}
	if filter.CategoryID, err = optionalID(c, "categoryId"); err != nil {
		return filter, err
	}
	return filter, nil
}

// GetTransactionByID handles the retrieval of a specific transaction
// @Summary     Get transaction by ID
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} map[string]interface{} "Transaction"
// @Failure     400 {object} ErrorResponse "Invalid transaction ID"
// @Failure     403 {object} ErrorResponse "Not the owner"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) GetTransactionByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	txID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	tx, err := h.transactionService.GetTransactionByID(userID, txID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": tx})
}

// UpdateTransaction handles partial updates of a transaction
// @Summary     Update transaction
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                   true "Transaction ID"
// @Param       request body UpdateTransactionRequest true "Fields to change"
// @Success     200 {object} map[string]interface{} "Transaction"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Not the owner"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [put]
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	txID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	categoryID := req.CategoryID
	if categoryID != nil && *categoryID != "" {
		if categoryID, err = normalizeID(categoryID, "categoryId"); err != nil {
			respondWithError(c, err)
			return
		}
	}

	tx, err := h.transactionService.UpdateTransaction(userID, txID, services.TransactionUpdate{
		Description:         req.Description,
		Amount:              req.Amount,
		Date:                req.Date.timePtr(),
		CategoryID:          categoryID,
		IsRecurrent:         req.IsRecurrent,
		RecurrenceFrequency: frequency(req.RecurrenceFrequency),
		Installments:        req.Installments,
		InstallmentsPaid:    req.InstallmentsPaid,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_TRANSACTION", "transaction", tx.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"transaction": tx})
}

// DeleteTransaction handles the deletion of a transaction
// @Summary     Delete transaction
// @Tags        transactions
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     204 "Deleted"
// @Failure     403 {object} ErrorResponse "Not the owner"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	txID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.transactionService.DeleteTransaction(userID, txID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_TRANSACTION", "transaction", txID, c.ClientIP(), nil)

	c.Status(http.StatusNoContent)
}

func frequency(s *string) *models.RecurrenceFrequency {
	if s == nil {
		return nil
	}
	f := models.RecurrenceFrequency(strings.ToLower(strings.TrimSpace(*s)))
	return &f
}

// bindError keeps AppErrors raised while decoding a body and wraps anything
// else as invalid input.
func bindError(err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
}
