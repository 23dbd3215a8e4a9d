package services

import (
	"encoding/json"

	"gorm.io/gorm"

	"pocketbook/internal/logger"
	"pocketbook/internal/models"
)

// auditService appends to the audit_logs table. Handlers record one entry per
// successful mutation, with resource types:
//
//	user         REGISTER, LOGIN, VERIFY_EMAIL, UPDATE_USER, DELETE_USER
//	category     CREATE_, UPDATE_, REPARENT_, DELETE_CATEGORY
//	budget       CREATE_, UPDATE_, ACTIVATE_, DELETE_BUDGET
//	transaction  CREATE_, UPDATE_, DELETE_TRANSACTION
//	report       GENERATE_, DELETE_REPORT
//	saving_goal  CREATE_, UPDATE_, DELETE_SAVING_GOAL
//
// A budget update records the id of the newly inserted copy.
type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Log records an audit event. The request has already succeeded, so a
// failure here is logged and swallowed.
func (s *auditService) Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]any) {
	entry := &models.AuditLog{
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    ipAddress,
		Changes:      encodeChanges(action, changes),
	}

	if err := s.db.Create(entry).Error; err != nil {
		logger.Get().Errorw("audit entry dropped",
			"error", err,
			"user_id", userID,
			"action", action,
			"resource_type", resourceType,
			"resource_id", resourceID,
		)
	}
}

// encodeChanges renders the changed fields as JSON; nil means no payload.
func encodeChanges(action string, changes map[string]any) string {
	if changes == nil {
		return ""
	}
	data, err := json.Marshal(changes)
	if err != nil {
		logger.Get().Errorw("audit changes not encodable", "error", err, "action", action)
		return "{}"
	}
	return string(data)
}
