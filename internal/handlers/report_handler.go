package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "pocketbook/internal/errors"
	"pocketbook/internal/pagination"
	"pocketbook/internal/services"
	"pocketbook/internal/uuid"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportHandler handles monthly report requests
type ReportHandler struct {
	reportService services.ReportServicer
	auditService  services.AuditServicer
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reportService services.ReportServicer, auditService services.AuditServicer) *ReportHandler {
	return &ReportHandler{reportService: reportService, auditService: auditService}
}

// GenerateReportRequest represents the payload of the internal generation endpoint
type GenerateReportRequest struct {
	UserID string `json:"userId" binding:"required"`
	Month  int    `json:"month" binding:"required,min=1,max=12"`
	Year   int    `json:"year" binding:"required,min=2000,max=9999"`
}

// ReportQuery holds the enumerated list parameters.
type ReportQuery struct {
	MarginSign string `form:"marginSign" binding:"omitempty,margin_sign"`
}

// GenerateReport builds the monthly report of one user. Only trusted
// callers holding the pipeline API key reach this handler.
// @Summary     Generate monthly report
// @Description Derive a user's monthly totals from their transactions and link the active budget
// @Tags        internal
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       request body GenerateReportRequest true "User and period"
// @Success     201 {object} map[string]interface{} "Created report"
// @Failure     400 {object} ErrorResponse "Invalid input or no active budget for the period"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     409 {object} ErrorResponse "Report already exists"
// @Router      /internal/reports/generate [post]
func (h *ReportHandler) GenerateReport(c *gin.Context) {
	var req GenerateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	userID, ok := uuid.Normalize(req.UserID)
	if !ok {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid userId"))
		return
	}

	report, err := h.reportService.GenerateReport(userID, req.Month, req.Year)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "GENERATE_REPORT", "report", report.ID, c.ClientIP(),
		map[string]interface{}{"month": report.Month, "year": report.Year})

	c.JSON(http.StatusCreated, gin.H{"report": report})
}

// GetUserReports handles listing the user's reports
// @Summary     List reports
// @Description List monthly reports, newest period first, each with its budget when it still exists
// @Tags        reports
// @Produce     json
// @Security    BearerAuth
// @Param       startDate  query string false "Created on or after (RFC3339 or YYYY-MM-DD)"
// @Param       endDate    query string false "Created on or before; a bare date includes the whole day"
// @Param       marginSign query string false "positive or negative"
// @Param       minMargin  query number false "Minimum margin"
// @Param       maxMargin  query number false "Maximum margin"
// @Param       page       query int    false "Page number"
// @Param       limit      query int    false "Items per page (max 100)"
// @Success     200 {object} map[string]interface{} "Reports with pagination"
// @Failure     400 {object} ErrorResponse "Invalid filter"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /reports [get]
func (h *ReportHandler) GetUserReports(c *gin.Context) {
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

	filter, err := parseReportFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.reportService.GetUserReports(userID, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reports": result.Items, "pagination": result.Pagination})
}

func parseReportFilter(c *gin.Context) (services.ReportFilter, error) {
	var filter services.ReportFilter

	var query ReportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "marginSign must be positive or negative")
	}
	filter.Sign = services.MarginSign(query.MarginSign)

	var err error
	if filter.CreatedFrom, err = optionalTime(c, "startDate", parseFlexibleTime); err != nil {
		return filter, err
	}
	if filter.CreatedTo, err = optionalTime(c, "endDate", parseEndTime); err != nil {
		return filter, err
	}
	if filter.MinMargin, err = optionalDecimal(c, "minMargin"); err != nil {
		return filter, err
	}
	if filter.MaxMargin, err = optionalDecimal(c, "maxMargin"); err != nil {
		return filter, err
	}
	return filter, nil
}

// GetReportDetail returns a report with its transactions grouped by category
// @Summary     Get report detail
// @Tags        reports
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Report ID"
// @Success     200 {object} services.ReportDetail "Report detail"
// @Failure     403 {object} ErrorResponse "Not the owner"
// @Failure     404 {object} ErrorResponse "Report not found"
// @Router      /reports/{id} [get]
func (h *ReportHandler) GetReportDetail(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	reportID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	detail, err := h.reportService.GetReportDetail(userID, reportID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

// ExportReport downloads a report as an Excel workbook
// @Summary     Export report
// @Tags        reports
// @Produce     application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security    BearerAuth
// @Param       id path string true "Report ID"
// @Success     200 {file} file "Workbook"
// @Failure     403 {object} ErrorResponse "Not the owner"
// @Failure     404 {object} ErrorResponse "Report not found"
// @Router      /reports/{id}/export [get]
func (h *ReportHandler) ExportReport(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	reportID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	data, err := h.reportService.ExportReport(userID, reportID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="report-%s.xlsx"`, reportID))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// DeleteReport handles report deletion
// @Summary     Delete report
// @Tags        reports
// @Security    BearerAuth
// @Param       id path string true "Report ID"
// @Success     204 "Deleted"
// @Failure     403 {object} ErrorResponse "Not the owner"
// @Failure     404 {object} ErrorResponse "Report not found"
// @Router      /reports/{id} [delete]
func (h *ReportHandler) DeleteReport(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	reportID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.reportService.DeleteReport(userID, reportID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_REPORT", "report", reportID, c.ClientIP(), nil)

	c.Status(http.StatusNoContent)
}
