package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "pocketbook/internal/errors"
	"pocketbook/internal/services"
)

// BudgetHandler handles budget-related requests
type BudgetHandler struct {
	budgetService services.BudgetServicer
	auditService  services.AuditServicer
}

// NewBudgetHandler creates a new BudgetHandler
func NewBudgetHandler(budgetService services.BudgetServicer, auditService services.AuditServicer) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService, auditService: auditService}
}

// CreateBudgetRequest represents the budget creation request payload
type CreateBudgetRequest struct {
	Month           int             `json:"month" binding:"required,min=1,max=12"`
	Year            int             `json:"year" binding:"required,min=2000,max=9999"`
	Description     string          `json:"description" binding:"required,min=5,max=100"`
	ExpectedIncome  decimal.Decimal `json:"expectedIncome" binding:"gte=0" swaggertype:"number"`
	ExpectedExpense decimal.Decimal `json:"expectedExpense" binding:"gte=0" swaggertype:"number"`
}

// UpdateBudgetRequest represents the budget update request payload
type UpdateBudgetRequest struct {
	Month           *int             `json:"month" binding:"omitempty,min=1,max=12"`
	Year            *int             `json:"year" binding:"omitempty,min=2000,max=9999"`
	Description     *string          `json:"description" binding:"omitempty,min=5,max=100"`
	ExpectedIncome  *decimal.Decimal `json:"expectedIncome" binding:"omitempty,gte=0" swaggertype:"number"`
	ExpectedExpense *decimal.Decimal `json:"expectedExpense" binding:"omitempty,gte=0" swaggertype:"number"`
}

// CreateBudget handles budget creation
// @Summary     Create budget
// @Description Create a budget and make it the active one, deactivating the previous active budget
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateBudgetRequest true "Budget data"
// @Success     201 {object} map[string]interface{} "Created budget"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     409 {object} ErrorResponse "Concurrent activation"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets [post]
func (h *BudgetHandler) CreateBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	budget, err := h.budgetService.CreateBudget(userID, services.BudgetInput{
		Month:           req.Month,
		Year:            req.Year,
		Description:     req.Description,
		ExpectedIncome:  req.ExpectedIncome,
		ExpectedExpense: req.ExpectedExpense,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_BUDGET", "budget", budget.ID, c.ClientIP(),
		map[string]interface{}{"month": budget.Month, "year": budget.Year})

	c.JSON(http.StatusCreated, gin.H{"budget": budget})
}

// SearchBudgets handles budget search
// @Summary     Search budgets
// @Description Search the user's budgets, newest period first
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       from        query string false "Created on or after (RFC3339 or YYYY-MM-DD)"
// @Param       to          query string false "Created on or before (RFC3339 or YYYY-MM-DD)"
// @Param       description query string false "Case-insensitive description substring"
// @Param       minIncome   query number false "Minimum expected income"
// @Param       maxIncome   query number false "Maximum expected income"
// @Param       minExpense  query number false "Minimum expected expense"
// @Param       maxExpense  query number false "Maximum expected expense"
// @Success     200 {object} map[string]interface{} "Budgets"
// @Failure     400 {object} ErrorResponse "Invalid filter"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets [get]
func (h *BudgetHandler) SearchBudgets(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	filter, err := parseBudgetFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgets, err := h.budgetService.SearchBudgets(userID, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budgets": budgets})
}

func parseBudgetFilter(c *gin.Context) (services.BudgetFilter, error) {
	filter := services.BudgetFilter{Description: c.Query("description")}
	var err error

	if filter.CreatedFrom, err = optionalTime(c, "from", parseFlexibleTime); err != nil {
		return filter, err
	}
	if filter.CreatedTo, err = optionalTime(c, "to", parseEndTime); err != nil {
		return filter, err
	}
	if filter.MinIncome, err = optionalDecimal(c, "minIncome"); err != nil {
		return filter, err
	}
	if filter.MaxIncome, err = optionalDecimal(c, "maxIncome"); err != nil {
		return filter, err
	}
	if filter.MinExpense, err = optionalDecimal(c, "minExpense"); err != nil {
		return filter, err
	}
	if filter.MaxExpense, err = optionalDecimal(c, "maxExpense"); err != nil {
		return filter, err
	}
	return filter, nil
}

// GetActiveBudget returns the user's active budget
// @Summary     Get active budget
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string]interface{} "Active budget"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "No active budget"
// @Router      /budgets/active [get]
func (h *BudgetHandler) GetActiveBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budget, err := h.budgetService.GetActiveBudget(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// GetBudget handles retrieval of a single budget
// @Summary     Get budget
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Budget ID"
// @Success     200 {object} map[string]interface{} "Budget"
// @Failure     400 {object} ErrorResponse "Invalid budget ID"
// @Failure     403 {object} ErrorResponse "Not the owner"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /budgets/{id} [get]
func (h *BudgetHandler) GetBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	budget, err := h.budgetService.GetBudgetByID(userID, budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// UpdateBudget handles budget updates. The old budget is kept as inactive
// history and the merged copy becomes the active budget.
// @Summary     Update budget
// @Description Supersede a budget with an edited copy that becomes the active budget
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string              true "Budget ID"
// @Param       request body UpdateBudgetRequest true "Fields to change"
// @Success     200 {object} map[string]interface{} "New budget"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Not the owner"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     409 {object} ErrorResponse "Concurrent activation"
// @Router      /budgets/{id} [put]
func (h *BudgetHandler) UpdateBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	budget, err := h.budgetService.UpdateBudget(userID, budgetID, services.BudgetUpdate{
		Month:           req.Month,
		Year:            req.Year,
		Description:     req.Description,
		ExpectedIncome:  req.ExpectedIncome,
		ExpectedExpense: req.ExpectedExpense,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_BUDGET", "budget", budget.ID, c.ClientIP(),
		map[string]interface{}{"supersedes": budgetID})

	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// ActivateBudget makes a historical budget the active one
// @Summary     Activate budget
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Budget ID"
// @Success     200 {object} map[string]interface{} "Activated budget"
// @Failure     403 {object} ErrorResponse "Not the owner"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     409 {object} ErrorResponse "Concurrent activation"
// @Router      /budgets/{id}/activate [post]
func (h *BudgetHandler) ActivateBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	budget, err := h.budgetService.ActivateBudget(userID, budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "ACTIVATE_BUDGET", "budget", budget.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// DeleteBudget handles budget deletion. Reports keep their budget reference.
// @Summary     Delete budget
// @Tags        budgets
// @Security    BearerAuth
// @Param       id path string true "Budget ID"
// @Success     204 "Deleted"
// @Failure     403 {object} ErrorResponse "Not the owner"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /budgets/{id} [delete]
func (h *BudgetHandler) DeleteBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.budgetService.DeleteBudget(userID, budgetID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_BUDGET", "budget", budgetID, c.ClientIP(), nil)

	c.Status(http.StatusNoContent)
}
