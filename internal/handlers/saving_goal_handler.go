package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "pocketbook/internal/errors"
	"pocketbook/internal/pagination"
	"pocketbook/internal/services"
)

// SavingGoalHandler handles saving goal requests
type SavingGoalHandler struct {
	savingGoalService services.SavingGoalServicer
	auditService      services.AuditServicer
}

// NewSavingGoalHandler creates a new SavingGoalHandler
func NewSavingGoalHandler(savingGoalService services.SavingGoalServicer, auditService services.AuditServicer) *SavingGoalHandler {
	return &SavingGoalHandler{savingGoalService: savingGoalService, auditService: auditService}
}

// CreateSavingGoalRequest represents the saving goal creation payload. Amount
// and date rules are checked by the service so each violation is named.
type CreateSavingGoalRequest struct {
	Name               string          `json:"name" binding:"required"`
	TargetAmount       decimal.Decimal `json:"targetAmount" swaggertype:"number"`
	MonthlySavingGoal  decimal.Decimal `json:"monthlySavingGoal" swaggertype:"number"`
	CurrentSavedAmount decimal.Decimal `json:"currentSavedAmount" swaggertype:"number"`
	StartDate          Date            `json:"startDate" swaggertype:"string"`
	TargetDate         Date            `json:"targetDate" swaggertype:"string"`
}

// UpdateSavingGoalRequest represents the saving goal update payload; omitted
// fields are kept.
type UpdateSavingGoalRequest struct {
	Name               *string          `json:"name"`
	TargetAmount       *decimal.Decimal `json:"targetAmount" swaggertype:"number"`
	MonthlySavingGoal  *decimal.Decimal `json:"monthlySavingGoal" swaggertype:"number"`
	CurrentSavedAmount *decimal.Decimal `json:"currentSavedAmount" swaggertype:"number"`
	StartDate          *Date            `json:"startDate" swaggertype:"string"`
	TargetDate         *Date            `json:"targetDate" swaggertype:"string"`
}

// SavingGoalQuery holds the list filter.
type SavingGoalQuery struct {
	Status string `form:"status" binding:"omitempty,goal_status"`
}

// CreateSavingGoal handles saving goal creation
// @Summary     Create saving goal
// @Tags        saving-goals
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateSavingGoalRequest true "Saving goal data"
// @Success     201 {object} map[string]interface{} "Created goal with progress"
// @Failure     400 {object} ErrorResponse "Invalid goal"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /saving-goals [post]
func (h *SavingGoalHandler) CreateSavingGoal(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateSavingGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	goal, err := h.savingGoalService.CreateSavingGoal(userID, services.SavingGoalInput{
		Name:               req.Name,
		TargetAmount:       req.TargetAmount,
		MonthlySavingGoal:  req.MonthlySavingGoal,
		CurrentSavedAmount: req.CurrentSavedAmount,
		StartDate:          req.StartDate.Time,
		TargetDate:         req.TargetDate.Time,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_SAVING_GOAL", "saving_goal", goal.ID, c.ClientIP(),
		map[string]interface{}{"name": goal.Name, "targetAmount": goal.TargetAmount.String()})

	c.JSON(http.StatusCreated, gin.H{"savingGoal": goal})
}

// GetUserSavingGoals handles listing the user's saving goals
// @Summary     List saving goals
// @Tags        saving-goals
// @Produce     json
// @Security    BearerAuth
// @Param       status query string false "all, active or completed"
// @Param       page   query int    false "Page number"
// @Param       limit  query int    false "Items per page (max 100)"
// @Success     200 {object} map[string]interface{} "Saving goals with pagination"
// @Failure     400 {object} ErrorResponse "Invalid query"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /saving-goals [get]
func (h *SavingGoalHandler) GetUserSavingGoals(c *gin.Context) {
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

	var query SavingGoalQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "status must be all, active or completed"))
		return
	}
	status := services.GoalStatus(query.Status)
	if status == "" {
		status = services.GoalAll
	}

	result, err := h.savingGoalService.GetUserSavingGoals(userID, status, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"savingGoals": result.Items, "pagination": result.Pagination})
}

// GetSavingGoal handles retrieval of one saving goal
// @Summary     Get saving goal
// @Tags        saving-goals
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Saving goal ID"
// @Success     200 {object} map[string]interface{} "Goal with progress"
// @Failure     403 {object} ErrorResponse "Not the owner"
// @Failure     404 {object} ErrorResponse "Saving goal not found"
// @Router      /saving-goals/{id} [get]
func (h *SavingGoalHandler) GetSavingGoal(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	goalID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	goal, err := h.savingGoalService.GetSavingGoalByID(userID, goalID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"savingGoal": goal})
}

// UpdateSavingGoal handles partial updates of a saving goal
// @Summary     Update saving goal
// @Description Merge the given fields; the saved amount may reach or pass the target
// @Tags        saving-goals
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                  true "Saving goal ID"
// @Param       request body UpdateSavingGoalRequest true "Fields to change"
// @Success     200 {object} map[string]interface{} "Goal with progress"
// @Failure     400 {object} ErrorResponse "Invalid goal"
// @Failure     403 {object} ErrorResponse "Not the owner"
// @Failure     404 {object} ErrorResponse "Saving goal not found"
// @Router      /saving-goals/{id} [put]
func (h *SavingGoalHandler) UpdateSavingGoal(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	goalID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateSavingGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	goal, err := h.savingGoalService.UpdateSavingGoal(userID, goalID, services.SavingGoalUpdate{
		Name:               req.Name,
		TargetAmount:       req.TargetAmount,
		MonthlySavingGoal:  req.MonthlySavingGoal,
		CurrentSavedAmount: req.CurrentSavedAmount,
		StartDate:          req.StartDate.timePtr(),
		TargetDate:         req.TargetDate.timePtr(),
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_SAVING_GOAL", "saving_goal", goal.ID, c.ClientIP(),
		map[string]interface{}{"currentSavedAmount": goal.CurrentSavedAmount.String()})

	c.JSON(http.StatusOK, gin.H{"savingGoal": goal})
}

// DeleteSavingGoal handles saving goal deletion and returns the deleted goal
// @Summary     Delete saving goal
// @Tags        saving-goals
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Saving goal ID"
// @Success     200 {object} map[string]interface{} "Deleted goal"
// @Failure     403 {object} ErrorResponse "Not the owner"
// @Failure     404 {object} ErrorResponse "Saving goal not found"
// @Router      /saving-goals/{id} [delete]
func (h *SavingGoalHandler) DeleteSavingGoal(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	goalID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	goal, err := h.savingGoalService.DeleteSavingGoal(userID, goalID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_SAVING_GOAL", "saving_goal", goalID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"savingGoal": goal})
}
