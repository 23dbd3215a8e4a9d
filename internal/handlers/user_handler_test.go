package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "pocketbook/internal/errors"
	"pocketbook/internal/models"
)

func setupUserRouter(handler *UserHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(testUserID))
	auth.GET("/users/:id", handler.GetUser)
	auth.PUT("/users/:id", handler.UpdateUser)
	auth.DELETE("/users/:id", handler.DeleteUser)
	return r
}

func TestUserHandler_GetUser(t *testing.T) {
	t.Run("returns own account", func(t *testing.T) {
		r := setupUserRouter(NewUserHandler(&mockUserService{}, &mockAuditService{}))
		rec := doRequest(r, "GET", "/users/"+testUserID, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		user := parseJSON(t, rec)["user"].(map[string]interface{})
		if user["id"] != testUserID {
			t.Errorf("unexpected user %v", user)
		}
	})

	t.Run("returns 403 for another account", func(t *testing.T) {
		r := setupUserRouter(NewUserHandler(&mockUserService{}, &mockAuditService{}))
		rec := doRequest(r, "GET", "/users/"+otherResourceID, "")
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "FORBIDDEN")
	})

	t.Run("returns 404 before 403", func(t *testing.T) {
		userSvc := &mockUserService{
			getUserByIDFn: func(string) (*models.User, error) { return nil, apperrors.ErrUserNotFound },
		}
		r := setupUserRouter(NewUserHandler(userSvc, &mockAuditService{}))
		rec := doRequest(r, "GET", "/users/"+otherResourceID, "")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on invalid id", func(t *testing.T) {
		r := setupUserRouter(NewUserHandler(&mockUserService{}, &mockAuditService{}))
		rec := doRequest(r, "GET", "/users/me", "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestUserHandler_UpdateUser(t *testing.T) {
	t.Run("passes only provided fields", func(t *testing.T) {
		userSvc := &mockUserService{
			updateUserFn: func(requesterID, userID string, name, password *string) (*models.User, error) {
				if requesterID != testUserID || userID != testUserID {
					t.Errorf("unexpected ids %s %s", requesterID, userID)
				}
				if name == nil || *name != "Ana Maria" {
					t.Errorf("unexpected name %v", name)
				}
				if password != nil {
					t.Error("expected password to be untouched")
				}
				return &models.User{Base: models.Base{ID: userID}, Name: *name}, nil
			},
		}
		r := setupUserRouter(NewUserHandler(userSvc, &mockAuditService{}))
		rec := doRequest(r, "PUT", "/users/"+testUserID, `{"name":"Ana Maria"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("returns 400 on short password", func(t *testing.T) {
		r := setupUserRouter(NewUserHandler(&mockUserService{}, &mockAuditService{}))
		rec := doRequest(r, "PUT", "/users/"+testUserID, `{"password":"short"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 403 for another account", func(t *testing.T) {
		userSvc := &mockUserService{
			updateUserFn: func(string, string, *string, *string) (*models.User, error) {
				return nil, apperrors.ErrForbidden
			},
		}
		r := setupUserRouter(NewUserHandler(userSvc, &mockAuditService{}))
		rec := doRequest(r, "PUT", "/users/"+otherResourceID, `{"name":"Mallory"}`)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})
}

func TestUserHandler_DeleteUser(t *testing.T) {
	t.Run("returns 204 on success", func(t *testing.T) {
		r := setupUserRouter(NewUserHandler(&mockUserService{}, &mockAuditService{}))
		rec := doRequest(r, "DELETE", "/users/"+testUserID, "")
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
	})

	t.Run("returns 403 for another account", func(t *testing.T) {
		userSvc := &mockUserService{
			deleteUserFn: func(string, string) error { return apperrors.ErrForbidden },
		}
		r := setupUserRouter(NewUserHandler(userSvc, &mockAuditService{}))
		rec := doRequest(r, "DELETE", "/users/"+otherResourceID, "")
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})
}
