package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pocketbook/internal/config"
	"pocketbook/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func parseBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse response body: %v", err)
	}
	return result
}

func setTestConfig(t *testing.T) {
	t.Helper()
	prev := config.Get()
	config.Set(&config.Config{
		JWTSecret:            "test-secret",
		JWTExpirationDur:     time.Minute,
		RefreshExpirationDur: time.Hour,
	})
	t.Cleanup(func() { config.Set(prev) })
}

func testUser() *models.User {
	return &models.User{Base: models.Base{ID: "0190a1b2-c3d4-7e5f-8a9b-0c1d2e3f4a5b"}, Email: "ana@example.com"}
}

func setupAuthRouter() *gin.Engine {
	r := gin.New()
	r.Use(AuthMiddleware())
	r.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userId": c.GetString(userIDKey), "email": c.GetString(emailKey)})
	})
	return r
}

func doAuthRequest(r *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", http.NoBody)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddleware(t *testing.T) {
	setTestConfig(t)
	router := setupAuthRouter()
	user := testUser()

	access, err := GenerateAccessToken(user)
	require.NoError(t, err)
	refresh, err := GenerateRefreshToken(user)
	require.NoError(t, err)

	t.Run("valid_access_token", func(t *testing.T) {
		rec := doAuthRequest(router, "Bearer "+access)
		require.Equal(t, http.StatusOK, rec.Code)
		body := parseBody(t, rec)
		assert.Equal(t, user.ID, body["userId"])
		assert.Equal(t, user.Email, body["email"])
	})

	t.Run("lowercase_scheme", func(t *testing.T) {
		rec := doAuthRequest(router, "bearer "+access)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	tests := []struct {
		name   string
		header string
	}{
		{"missing_header", ""},
		{"wrong_scheme", "Basic " + access},
		{"garbage_token", "Bearer not-a-jwt"},
		{"refresh_token_rejected", "Bearer " + refresh},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doAuthRequest(router, tt.header)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			body := parseBody(t, rec)
			assert.Equal(t, "UNAUTHORIZED", body["code"])
			assert.NotEmpty(t, body["error"])
		})
	}

	t.Run("expired_token", func(t *testing.T) {
		claims := &JWTClaims{
			UserID:    user.ID,
			TokenType: tokenTypeAccess,
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    issuer,
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			},
		}
		expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
		require.NoError(t, err)

		rec := doAuthRequest(router, "Bearer "+expired)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong_secret", func(t *testing.T) {
		claims := &JWTClaims{
			UserID:    user.ID,
			TokenType: tokenTypeAccess,
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    issuer,
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
			},
		}
		forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other-secret"))
		require.NoError(t, err)

		rec := doAuthRequest(router, "Bearer "+forged)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestValidateRefreshToken(t *testing.T) {
	setTestConfig(t)
	user := testUser()

	refresh, err := GenerateRefreshToken(user)
	require.NoError(t, err)
	claims, err := ValidateRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	access, err := GenerateAccessToken(user)
	require.NoError(t, err)
	_, err = ValidateRefreshToken(access)
	assert.Error(t, err)
}

func TestHashToken(t *testing.T) {
	assert.Equal(t, HashToken("abc"), HashToken("abc"))
	assert.NotEqual(t, HashToken("abc"), HashToken("abd"))
	assert.Len(t, HashToken("abc"), 64)
}
