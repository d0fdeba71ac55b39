package user_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gymflex/internal/user"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Register(ctx context.Context, req user.RegisterRequest) (*user.User, string, string, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, "", "", args.Error(3)
	}
	return args.Get(0).(*user.User), args.String(1), args.String(2), args.Error(3)
}

func (m *MockService) Login(ctx context.Context, req user.LoginRequest) (*user.User, string, string, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, "", "", args.Error(3)
	}
	return args.Get(0).(*user.User), args.String(1), args.String(2), args.Error(3)
}

func (m *MockService) GetByID(ctx context.Context, userID uuid.UUID) (*user.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockService) UpdateMe(ctx context.Context, userID uuid.UUID, req user.UpdateMeRequest) (*user.User, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockService) RefreshToken(ctx context.Context, refreshToken string) (string, *user.User, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(1) == nil {
		return "", nil, args.Error(2)
	}
	return args.String(0), args.Get(1).(*user.User), args.Error(2)
}

func authAs(userID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID.String())
		c.Set("user_role", "member")
		c.Next()
	}
}

func setupUserRouter(service user.Service, userID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := user.NewHandler(service)

	router := gin.New()
	router.POST("/auth/register", handler.Register)
	router.POST("/auth/login", handler.Login)
	router.POST("/auth/refresh", handler.RefreshToken)

	authed := router.Group("/")
	authed.Use(authAs(userID))
	authed.GET("/me", handler.GetMe)
	authed.PATCH("/me", handler.UpdateMe)

	return router
}

func testUser(id uuid.UUID) *user.User {
	return &user.User{
		ID:        id,
		Name:      "Mario Rossi",
		Email:     "mario@example.com",
		Role:      "member",
		CreatedAt: time.Now(),
	}
}

func TestRegisterHandler(t *testing.T) {
	t.Run("successful registration", func(t *testing.T) {
		mockService := new(MockService)
		userID := uuid.New()
		router := setupUserRouter(mockService, userID)

		req := user.RegisterRequest{Name: "Mario Rossi", Email: "mario@example.com", Password: "password123"}
		mockService.On("Register", mock.Anything, req).Return(testUser(userID), "access-token", "refresh-token", nil)

		body, _ := json.Marshal(req)
		w := httptest.NewRecorder()
		httpReq, _ := http.NewRequest("POST", "/auth/register", bytes.NewBuffer(body))
		httpReq.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, httpReq)

		assert.Equal(t, http.StatusCreated, w.Code)

		var resp user.LoginResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "access-token", resp.AccessToken)
		assert.Equal(t, "mario@example.com", resp.User.Email)
		mockService.AssertExpectations(t)
	})

	t.Run("duplicate email", func(t *testing.T) {
		mockService := new(MockService)
		router := setupUserRouter(mockService, uuid.New())

		req := user.RegisterRequest{Name: "Mario Rossi", Email: "mario@example.com", Password: "password123"}
		mockService.On("Register", mock.Anything, req).Return(nil, "", "", user.ErrEmailExists)

		body, _ := json.Marshal(req)
		w := httptest.NewRecorder()
		httpReq, _ := http.NewRequest("POST", "/auth/register", bytes.NewBuffer(body))
		httpReq.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, httpReq)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "Email already registered")
	})

	t.Run("invalid body", func(t *testing.T) {
		mockService := new(MockService)
		router := setupUserRouter(mockService, uuid.New())

		w := httptest.NewRecorder()
		httpReq, _ := http.NewRequest("POST", "/auth/register", bytes.NewBufferString(`{"email": "not-an-email"}`))
		httpReq.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, httpReq)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockService.AssertNotCalled(t, "Register")
	})
}

func TestLoginHandler(t *testing.T) {
	t.Run("successful login", func(t *testing.T) {
		mockService := new(MockService)
		userID := uuid.New()
		router := setupUserRouter(mockService, userID)

		req := user.LoginRequest{Email: "mario@example.com", Password: "password123"}
		mockService.On("Login", mock.Anything, req).Return(testUser(userID), "access-token", "refresh-token", nil)

		body, _ := json.Marshal(req)
		w := httptest.NewRecorder()
		httpReq, _ := http.NewRequest("POST", "/auth/login", bytes.NewBuffer(body))
		httpReq.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, httpReq)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp user.LoginResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "refresh-token", resp.RefreshToken)
	})

	t.Run("wrong credentials", func(t *testing.T) {
		mockService := new(MockService)
		router := setupUserRouter(mockService, uuid.New())

		req := user.LoginRequest{Email: "mario@example.com", Password: "wrong"}
		mockService.On("Login", mock.Anything, req).Return(nil, "", "", user.ErrInvalidCredentials)

		body, _ := json.Marshal(req)
		w := httptest.NewRecorder()
		httpReq, _ := http.NewRequest("POST", "/auth/login", bytes.NewBuffer(body))
		httpReq.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, httpReq)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid email or password")
	})
}

func TestGetMeHandler(t *testing.T) {
	mockService := new(MockService)
	userID := uuid.New()
	router := setupUserRouter(mockService, userID)

	mockService.On("GetByID", mock.Anything, userID).Return(testUser(userID), nil)

	w := httptest.NewRecorder()
	httpReq, _ := http.NewRequest("GET", "/me", nil)
	router.ServeHTTP(w, httpReq)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp user.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, userID, resp.ID)
	// password_hash не должен утекать в JSON
	assert.NotContains(t, w.Body.String(), "password_hash")
}

func TestUpdateMeHandler(t *testing.T) {
	mockService := new(MockService)
	userID := uuid.New()
	router := setupUserRouter(mockService, userID)

	req := user.UpdateMeRequest{Name: "Maria Bianchi"}
	updated := testUser(userID)
	updated.Name = "Maria Bianchi"
	mockService.On("UpdateMe", mock.Anything, userID, req).Return(updated, nil)

	body, _ := json.Marshal(req)
	w := httptest.NewRecorder()
	httpReq, _ := http.NewRequest("PATCH", "/me", bytes.NewBuffer(body))
	httpReq.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, httpReq)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Maria Bianchi")
}

func TestRefreshTokenHandler(t *testing.T) {
	t.Run("missing token", func(t *testing.T) {
		mockService := new(MockService)
		router := setupUserRouter(mockService, uuid.New())

		w := httptest.NewRecorder()
		httpReq, _ := http.NewRequest("POST", "/auth/refresh", bytes.NewBufferString(`{}`))
		httpReq.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, httpReq)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "refresh_token is required")
		mockService.AssertNotCalled(t, "RefreshToken")
	})

	t.Run("expired token", func(t *testing.T) {
		mockService := new(MockService)
		router := setupUserRouter(mockService, uuid.New())

		mockService.On("RefreshToken", mock.Anything, "stale-token").Return("", nil, errors.New("token is expired"))

		w := httptest.NewRecorder()
		httpReq, _ := http.NewRequest("POST", "/auth/refresh", bytes.NewBufferString(`{"refresh_token": "stale-token"}`))
		httpReq.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, httpReq)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "invalid or expired refresh token")
	})
}
