package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "pocketbook/internal/errors"
	"pocketbook/internal/middleware"
	"pocketbook/internal/uuid"
)

// getUserID extracts the authenticated user ID from the Gin context.
// Returns ErrUnauthorized if not present.
func getUserID(c *gin.Context) (string, error) {
	value, exists := c.Get("userID")
	if !exists {
		return "", apperrors.ErrUnauthorized
	}
	userID, ok := value.(string)
	if !ok || userID == "" {
		return "", apperrors.ErrUnauthorized
	}
	return userID, nil
}

// parsePathID reads a UUID path parameter and returns its canonical form.
// Returns ErrInvalidInput if the parameter is not a UUID.
//
//nolint:unparam // param is intentionally generic for reuse across handlers with different path params
func parsePathID(c *gin.Context, param string) (string, error) {
	id, ok := uuid.Normalize(c.Param(param))
	if !ok {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid "+param)
	}
	return id, nil
}

// respondWithError writes a consistent JSON error response. AppErrors keep
// their status and code; anything else is logged and becomes a generic
// internal server error.
func respondWithError(c *gin.Context, err error) {
	middleware.AbortWithError(c, err)
}

// parseFlexibleTime parses a time string in RFC3339 or YYYY-MM-DD format.
func parseFlexibleTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t.UTC(), nil
	}
	return time.Parse("2006-01-02", s)
}

// parseEndTime parses the upper bound of a range. A bare date covers the
// whole day, so it becomes the last instant of that day.
func parseEndTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, err
	}
	return t.Add(24*time.Hour - time.Nanosecond), nil
}

// optionalTime parses the query parameter key if present.
func optionalTime(c *gin.Context, key string, parse func(string) (time.Time, error)) (*time.Time, error) {
	v := c.Query(key)
	if v == "" {
		return nil, nil
	}
	t, err := parse(v)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid "+key+" format, use RFC3339 or YYYY-MM-DD")
	}
	return &t, nil
}

// optionalDecimal parses the query parameter key if present.
func optionalDecimal(c *gin.Context, key string) (*decimal.Decimal, error) {
	v := c.Query(key)
	if v == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid "+key)
	}
	return &d, nil
}

// optionalID parses the UUID query parameter key if present.
func optionalID(c *gin.Context, key string) (*string, error) {
	v := c.Query(key)
	if v == "" {
		return nil, nil
	}
	id, ok := uuid.Normalize(v)
	if !ok {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid "+key)
	}
	return &id, nil
}

// Date accepts either RFC3339 or YYYY-MM-DD in JSON request bodies.
type Date struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "dates must be strings")
	}
	t, err := parseFlexibleTime(s[1 : len(s)-1])
	if err != nil {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid date format, use RFC3339 or YYYY-MM-DD")
	}
	d.Time = t
	return nil
}

// timePtr returns a pointer to the wrapped time, or nil for a nil Date.
func (d *Date) timePtr() *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error" example:"Budget not found"`
	Code  string `json:"code" example:"BUDGET_NOT_FOUND"`
}

// MessageResponse represents a response carrying only a message.
type MessageResponse struct {
	Message string `json:"message"`
}
