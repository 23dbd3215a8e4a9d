package router

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthAndCORS(t *testing.T) {
	app := setupApp(t)

	rec := app.request("GET", "/api/health", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected a request id header")
	}

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/budgets", http.NoBody)
	preflight := httptest.NewRecorder()
	app.Router.ServeHTTP(preflight, req)
	if preflight.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for preflight, got %d", preflight.Code)
	}
	if preflight.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("expected CORS origin header")
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	app := setupApp(t)

	for _, path := range []string{"/api/v1/profile", "/api/v1/budgets", "/api/v1/transactions", "/api/v1/reports", "/api/v1/saving-goals"} {
		rec := app.request("GET", path, "", "")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", path, rec.Code)
			continue
		}
		if parseJSON(t, rec)["code"] != "UNAUTHORIZED" {
			t.Errorf("%s: unexpected body %s", path, rec.Body.String())
		}
	}
}

func TestAuthFlow(t *testing.T) {
	app := setupApp(t)
	userID := app.registerUser(t, "flow@test.com", "password123")

	// Verify through the mailed token
	token := app.Mailer.verify["flow@test.com"]
	if token == "" {
		t.Fatal("expected a verification email")
	}
	rec := app.request("POST", "/api/v1/auth/verify-email", fmt.Sprintf(`{"token":%q}`, token), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("verify failed: %d %s", rec.Code, rec.Body.String())
	}

	access, refresh := app.loginUser(t, "flow@test.com", "password123")

	rec = app.request("GET", "/api/v1/profile", "", access)
	if rec.Code != http.StatusOK {
		t.Fatalf("profile failed: %d %s", rec.Code, rec.Body.String())
	}
	profile := parseJSON(t, rec)["user"].(map[string]interface{})
	if profile["id"] != userID || profile["isVerified"] != true {
		t.Errorf("unexpected profile %v", profile)
	}

	// Refresh rotates the token; the old one is rejected afterwards
	rec = app.request("POST", "/api/v1/auth/refresh", fmt.Sprintf(`{"refreshToken":%q}`, refresh), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh failed: %d %s", rec.Code, rec.Body.String())
	}
	rotated := parseJSON(t, rec)["refreshToken"].(string)
	if rotated == refresh {
		t.Fatal("expected a new refresh token")
	}
	rec = app.request("POST", "/api/v1/auth/refresh", fmt.Sprintf(`{"refreshToken":%q}`, refresh), "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected reused refresh token to fail, got %d", rec.Code)
	}

	// Password reset signs out the refresh session
	rec = app.request("POST", "/api/v1/auth/forgot-password", `{"email":"flow@test.com"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("forgot password failed: %d", rec.Code)
	}
	resetToken := app.Mailer.reset["flow@test.com"]
	rec = app.request("POST", "/api/v1/auth/reset-password",
		fmt.Sprintf(`{"token":%q,"password":"new-password-1"}`, resetToken), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("reset failed: %d %s", rec.Code, rec.Body.String())
	}
	rec = app.request("POST", "/api/v1/auth/refresh", fmt.Sprintf(`{"refreshToken":%q}`, rotated), "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected refresh after reset to fail, got %d", rec.Code)
	}
	app.loginUser(t, "flow@test.com", "new-password-1")

	rec = app.request("POST", "/api/v1/auth/login", `{"email":"flow@test.com","password":"password123"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected old password to fail, got %d", rec.Code)
	}
}

func TestUserRoutesAreSelfOnly(t *testing.T) {
	app := setupApp(t)
	aliceID, aliceToken := app.signUp(t, "alice@test.com")
	bobID, _ := app.signUp(t, "bob@test.com")

	rec := app.request("GET", "/api/v1/users/"+aliceID, "", aliceToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	rec = app.request("GET", "/api/v1/users/"+bobID, "", aliceToken)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	rec = app.request("DELETE", "/api/v1/users/"+bobID, "", aliceToken)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	rec = app.request("PUT", "/api/v1/users/"+aliceID, `{"name":"Alice"}`, aliceToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if parseJSON(t, rec)["user"].(map[string]interface{})["name"] != "Alice" {
		t.Error("expected name to change")
	}
	rec = app.request("DELETE", "/api/v1/users/"+aliceID, "", aliceToken)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

func TestInternalRoutesRequirePipelineKey(t *testing.T) {
	app := setupApp(t)
	userID, _ := app.signUp(t, "pipe@test.com")
	body := fmt.Sprintf(`{"userId":%q,"month":3,"year":2024}`, userID)

	rec := app.pipelineRequest("/api/v1/internal/reports/generate", body, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without key, got %d", rec.Code)
	}
	rec = app.pipelineRequest("/api/v1/internal/reports/generate", body, "wrong")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong key, got %d", rec.Code)
	}
	rec = app.pipelineRequest("/api/v1/internal/reports/generate", body, testPipelineKey)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without budget, got %d: %s", rec.Code, rec.Body.String())
	}
	if parseJSON(t, rec)["code"] != "NO_ACTIVE_BUDGET_FOR_PERIOD" {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}
