package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/openbank/openbank/internal/cqrs"
	"github.com/openbank/openbank/internal/models"
)

type mockUserCommander struct {
	createFn func(cqrs.CreateUserCommand) (*models.User, error)
	updateFn func(cqrs.UpdateUserCommand) (*models.UserView, error)
	deleteFn func(cqrs.DeleteUserCommand) error
}

func (m *mockUserCommander) CreateUser(cmd cqrs.CreateUserCommand) (*models.User, error) {
	if m.createFn != nil {
		return m.createFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}
func (m *mockUserCommander) UpdateUser(cmd cqrs.UpdateUserCommand) (*models.UserView, error) {
	if m.updateFn != nil {
		return m.updateFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}
func (m *mockUserCommander) DeleteUser(cmd cqrs.DeleteUserCommand) error {
	if m.deleteFn != nil {
		return m.deleteFn(cmd)
	}
	return fmt.Errorf("not configured")
}

type mockUserQuerier struct {
	getFn func(cqrs.GetUserQuery) (*models.UserView, error)
}

func (m *mockUserQuerier) GetUser(q cqrs.GetUserQuery) (*models.UserView, error) {
	if m.getFn != nil {
		return m.getFn(q)
	}
	return nil, fmt.Errorf("not configured")
}

func fakeAuth(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userId", userID)
		c.Next()
	}
}

func newUserTestRouter(cmds UserCommander, qrys UserQuerier, authUserID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewUserHandler(cmds, qrys)
	r.POST("/v1/users", h.CreateUser)
	auth := r.Group("/v1", fakeAuth(authUserID))
	auth.GET("/users/:userId", h.GetUser)
	auth.PATCH("/users/:userId", h.UpdateUser)
	auth.DELETE("/users/:userId", h.DeleteUser)
	return r
}

func doRequest(router *gin.Engine, method, url string, body interface{}) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, url, nil)
	if body != nil {
		b, _ := json.Marshal(body)
		req, _ = http.NewRequest(method, url, strings.NewReader(string(b)))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

var testUserView = &models.UserView{
	ID: "usr-001", Username: "jdoe", FullName: "Jane Doe",
	Email: "jane@example.com", CreatedAt: time.Now(),
}

func validCreateBody() map[string]string {
	return map[string]string{
		"username": "jdoe", "fullName": "Jane Doe",
		"email": "jane@example.com", "password": "s3cret-pass",
		"phoneNumber": "+15551234567",
	}
}

func TestCreateUserEndpoint(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		createFn       func(cqrs.CreateUserCommand) (*models.User, error)
		expectedStatus int
	}{
		{
			name: "created",
			body: validCreateBody(),
			createFn: func(cmd cqrs.CreateUserCommand) (*models.User, error) {
				return &models.User{ID: "usr-001", Username: cmd.Username, FullName: cmd.FullName, Email: cmd.Email}, nil
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "conflict - duplicate username",
			body: validCreateBody(),
			createFn: func(cmd cqrs.CreateUserCommand) (*models.User, error) {
				return nil, fmt.Errorf("username already exists")
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name: "conflict - duplicate email",
			body: validCreateBody(),
			createFn: func(cmd cqrs.CreateUserCommand) (*models.User, error) {
				return nil, fmt.Errorf("email already exists")
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name: "bad request - short password",
			body: map[string]string{
				"username": "jdoe", "fullName": "Jane Doe",
				"email": "jane@example.com", "password": "short",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "bad request - invalid email",
			body: map[string]string{
				"username": "jdoe", "fullName": "Jane Doe",
				"email": "not-an-email", "password": "s3cret-pass",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad request - missing fields",
			body:           map[string]string{},
			expectedStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newUserTestRouter(&mockUserCommander{createFn: tt.createFn}, &mockUserQuerier{}, "")
			w := doRequest(router, http.MethodPost, "/v1/users", tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected %d got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestGetUserEndpoint(t *testing.T) {
	tests := []struct {
		name           string
		userID         string
		getFn          func(cqrs.GetUserQuery) (*models.UserView, error)
		expectedStatus int
	}{
		{
			name:   "success - own record",
			userID: "usr-001",
			getFn: func(q cqrs.GetUserQuery) (*models.UserView, error) {
				return testUserView, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "forbidden - another user's record",
			userID: "usr-002",
			getFn: func(q cqrs.GetUserQuery) (*models.UserView, error) {
				return nil, fmt.Errorf("forbidden")
			},
			expectedStatus: http.StatusForbidden,
		},
		{
			name:   "not found",
			userID: "usr-001",
			getFn: func(q cqrs.GetUserQuery) (*models.UserView, error) {
				return nil, fmt.Errorf("user not found")
			},
			expectedStatus: http.StatusNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newUserTestRouter(&mockUserCommander{}, &mockUserQuerier{getFn: tt.getFn}, "usr-001")
			w := doRequest(router, http.MethodGet, "/v1/users/"+tt.userID, nil)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected %d got %d", tt.name, tt.expectedStatus, w.Code)
			}
		})
	}
}

func TestUpdateUserEndpoint(t *testing.T) {
	updateBody := map[string]string{"fullName": "Jane A. Doe", "email": "jane@example.com"}

	t.Run("success", func(t *testing.T) {
		router := newUserTestRouter(&mockUserCommander{
			updateFn: func(cmd cqrs.UpdateUserCommand) (*models.UserView, error) {
				v := *testUserView
				v.FullName = cmd.FullName
				return &v, nil
			},
		}, &mockUserQuerier{}, "usr-001")
		w := doRequest(router, http.MethodPatch, "/v1/users/usr-001", updateBody)
		if w.Code != http.StatusOK {
			t.Errorf("expected 200 got %d; body: %s", w.Code, w.Body.String())
		}
	})

	t.Run("forbidden - path does not match token", func(t *testing.T) {
		router := newUserTestRouter(&mockUserCommander{}, &mockUserQuerier{}, "usr-001")
		w := doRequest(router, http.MethodPatch, "/v1/users/usr-002", updateBody)
		if w.Code != http.StatusForbidden {
			t.Errorf("expected 403 got %d", w.Code)
		}
	})
}

func TestDeleteUserEndpoint(t *testing.T) {
	tests := []struct {
		name           string
		userID         string
		deleteFn       func(cqrs.DeleteUserCommand) error
		expectedStatus int
	}{
		{
			name:           "success",
			userID:         "usr-001",
			deleteFn:       func(cqrs.DeleteUserCommand) error { return nil },
			expectedStatus: http.StatusNoContent,
		},
		{
			name:           "conflict - open accounts remain",
			userID:         "usr-001",
			deleteFn:       func(cqrs.DeleteUserCommand) error { return fmt.Errorf("user has open accounts") },
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "forbidden - another user",
			userID:         "usr-002",
			deleteFn:       nil,
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "not found",
			userID:         "usr-001",
			deleteFn:       func(cqrs.DeleteUserCommand) error { return fmt.Errorf("user not found") },
			expectedStatus: http.StatusNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newUserTestRouter(&mockUserCommander{deleteFn: tt.deleteFn}, &mockUserQuerier{}, "usr-001")
			w := doRequest(router, http.MethodDelete, "/v1/users/"+tt.userID, nil)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected %d got %d", tt.name, tt.expectedStatus, w.Code)
			}
		})
	}
}
