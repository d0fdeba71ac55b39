package booking_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gymflex/internal/api"
	"gymflex/internal/booking"
	"gymflex/internal/checkin"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) BookSession(ctx context.Context, userID, sessionID uuid.UUID) (*booking.BookSessionResponse, error) {
	args := m.Called(ctx, userID, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.BookSessionResponse), args.Error(1)
}

func (m *MockService) CancelBooking(ctx context.Context, userID, bookingID uuid.UUID) error {
	return m.Called(ctx, userID, bookingID).Error(0)
}

func (m *MockService) IssueToken(ctx context.Context, userID, bookingID uuid.UUID) (*checkin.Payload, string, error) {
	args := m.Called(ctx, userID, bookingID)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).(*checkin.Payload), args.String(1), args.Error(2)
}

func (m *MockService) GetUserBookings(ctx context.Context, userID uuid.UUID) ([]booking.Booking, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]booking.Booking), args.Error(1)
}

func (m *MockService) GetBookingsBySession(ctx context.Context, sessionID uuid.UUID) ([]booking.BookingWithDetails, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]booking.BookingWithDetails), args.Error(1)
}

func (m *MockService) GetBookingsByGym(ctx context.Context, gymID uuid.UUID) ([]booking.BookingWithDetails, error) {
	args := m.Called(ctx, gymID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]booking.BookingWithDetails), args.Error(1)
}

func (m *MockService) GetBookingStatsByDay(ctx context.Context, from, to time.Time) ([]booking.BookingStatsByBucket, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]booking.BookingStatsByBucket), args.Error(1)
}

func (m *MockService) GetBookingStatsByGym(ctx context.Context, from, to time.Time) ([]booking.BookingStatsByGym, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]booking.BookingStatsByGym), args.Error(1)
}

func authAs(userID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID.String())
		c.Set("user_role", "member")
		c.Next()
	}
}

func setupBookingRouter(service booking.Service, userID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := booking.NewHandler(service)

	router := gin.New()
	authed := router.Group("/")
	authed.Use(authAs(userID))
	authed.POST("/sessions/:sessionID/book", handler.BookSession)
	authed.POST("/bookings/:bookingID/cancel", handler.CancelBooking)
	authed.POST("/bookings/:bookingID/token", handler.IssueToken)
	authed.GET("/bookings", handler.ListMyBookings)
	authed.GET("/admin/analytics/bookings", handler.GetBookingAnalytics)

	return router
}

func TestBookSessionHandler(t *testing.T) {
	userID := uuid.New()
	sessionID := uuid.New()

	t.Run("successful booking", func(t *testing.T) {
		mockService := new(MockService)
		router := setupBookingRouter(mockService, userID)

		resp := &booking.BookSessionResponse{
			Booking: &booking.Booking{
				ID:          uuid.New(),
				UserID:      userID,
				SessionID:   sessionID,
				Status:      booking.StatusActive,
				CheckinCode: "GF-4F7A2C19",
				PriceCents:  1500,
				Currency:    "EUR",
			},
			PaidWith:    "wallet",
			AmountCents: 1500,
		}
		mockService.On("BookSession", mock.Anything, userID, sessionID).Return(resp, nil)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/sessions/"+sessionID.String()+"/book", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)

		var got booking.BookSessionResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, "wallet", got.PaidWith)
		assert.Equal(t, "GF-4F7A2C19", got.Booking.CheckinCode)
	})

	t.Run("session full", func(t *testing.T) {
		mockService := new(MockService)
		router := setupBookingRouter(mockService, userID)

		mockService.On("BookSession", mock.Anything, userID, sessionID).Return(nil, booking.ErrSessionFull)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/sessions/"+sessionID.String()+"/book", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "Session is full")
	})

	t.Run("insufficient wallet balance", func(t *testing.T) {
		mockService := new(MockService)
		router := setupBookingRouter(mockService, userID)

		mockService.On("BookSession", mock.Anything, userID, sessionID).Return(nil, booking.ErrInsufficientFunds)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/sessions/"+sessionID.String()+"/book", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusPaymentRequired, w.Code)
		assert.Contains(t, w.Body.String(), "insufficient wallet balance")
	})

	t.Run("session in past", func(t *testing.T) {
		mockService := new(MockService)
		router := setupBookingRouter(mockService, userID)

		mockService.On("BookSession", mock.Anything, userID, sessionID).Return(nil, booking.ErrSessionInPast)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/sessions/"+sessionID.String()+"/book", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Cannot book a session in the past")
	})

	t.Run("session not found", func(t *testing.T) {
		mockService := new(MockService)
		router := setupBookingRouter(mockService, userID)

		mockService.On("BookSession", mock.Anything, userID, sessionID).Return(nil, booking.ErrSessionNotFound)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/sessions/"+sessionID.String()+"/book", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("invalid session id", func(t *testing.T) {
		mockService := new(MockService)
		router := setupBookingRouter(mockService, userID)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/sessions/42/book", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockService.AssertNotCalled(t, "BookSession")
	})
}

func TestCancelBookingHandler(t *testing.T) {
	userID := uuid.New()
	bookingID := uuid.New()

	t.Run("successful cancel", func(t *testing.T) {
		mockService := new(MockService)
		router := setupBookingRouter(mockService, userID)

		mockService.On("CancelBooking", mock.Anything, userID, bookingID).Return(nil)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/bookings/"+bookingID.String()+"/cancel", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Booking cancelled successfully")
	})

	t.Run("foreign booking", func(t *testing.T) {
		mockService := new(MockService)
		router := setupBookingRouter(mockService, userID)

		mockService.On("CancelBooking", mock.Anything, userID, bookingID).Return(booking.ErrNotYourBooking)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/bookings/"+bookingID.String()+"/cancel", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "You can only cancel your own bookings")
	})

	t.Run("booking not found", func(t *testing.T) {
		mockService := new(MockService)
		router := setupBookingRouter(mockService, userID)

		mockService.On("CancelBooking", mock.Anything, userID, bookingID).Return(booking.ErrBookingNotFound)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/bookings/"+bookingID.String()+"/cancel", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestIssueTokenHandler(t *testing.T) {
	userID := uuid.New()
	bookingID := uuid.New()
	gymID := uuid.New()

	t.Run("issues a pass for an active booking", func(t *testing.T) {
		mockService := new(MockService)
		router := setupBookingRouter(mockService, userID)

		start := time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)
		end := start.Add(time.Hour)
		payload := &checkin.Payload{
			Version:      checkin.Version,
			BookingID:    bookingID.String(),
			GymID:        gymID.String(),
			UserID:       userID.String(),
			CheckinCode:  "GF-4F7A2C19",
			SessionStart: start,
			SessionEnd:   end,
			AmountCents:  1500,
			Currency:     "EUR",
		}
		mockService.On("IssueToken", mock.Anything, userID, bookingID).
			Return(payload, "gymflex://checkin?payload=dGVzdA", nil)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/bookings/"+bookingID.String()+"/token", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp api.TokenResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "gymflex://checkin?payload=dGVzdA", resp.Token)
		assert.Equal(t, "GF-4F7A2C19", resp.CheckinCode)
		assert.Equal(t, end.Format(time.RFC3339), resp.ExpiresAt)
	})

	t.Run("cancelled booking cannot issue", func(t *testing.T) {
		mockService := new(MockService)
		router := setupBookingRouter(mockService, userID)

		mockService.On("IssueToken", mock.Anything, userID, bookingID).
			Return(nil, "", booking.ErrTokenNotIssuable)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/bookings/"+bookingID.String()+"/token", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "Booking is not active")
	})

	t.Run("foreign booking", func(t *testing.T) {
		mockService := new(MockService)
		router := setupBookingRouter(mockService, userID)

		mockService.On("IssueToken", mock.Anything, userID, bookingID).
			Return(nil, "", booking.ErrNotYourBooking)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/bookings/"+bookingID.String()+"/token", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestListMyBookingsHandler(t *testing.T) {
	userID := uuid.New()

	mockService := new(MockService)
	router := setupBookingRouter(mockService, userID)

	mockService.On("GetUserBookings", mock.Anything, userID).Return([]booking.Booking{
		{ID: uuid.New(), UserID: userID, Status: booking.StatusActive, CheckinCode: "GF-AAAA1111"},
	}, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/bookings", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var got []booking.Booking
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, booking.StatusActive, got[0].Status)
}

func TestGetBookingAnalyticsHandler(t *testing.T) {
	userID := uuid.New()

	t.Run("missing range params", func(t *testing.T) {
		mockService := new(MockService)
		router := setupBookingRouter(mockService, userID)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/admin/analytics/bookings", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "from and to query params are required")
	})

	t.Run("unknown group_by", func(t *testing.T) {
		mockService := new(MockService)
		router := setupBookingRouter(mockService, userID)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/admin/analytics/bookings?group_by=hour&from=2025-03-01T00:00:00Z&to=2025-03-31T00:00:00Z", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("per-day stats", func(t *testing.T) {
		mockService := new(MockService)
		router := setupBookingRouter(mockService, userID)

		mockService.On("GetBookingStatsByDay", mock.Anything, mock.Anything, mock.Anything).Return([]booking.BookingStatsByBucket{
			{Bucket: "2025-03-10T00:00:00Z", BookingsCreated: 12, BookingsCancelled: 2, CheckIns: 7},
		}, nil)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/admin/analytics/bookings?from=2025-03-01T00:00:00Z&to=2025-03-31T00:00:00Z", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"group_by":"day"`)
		assert.Contains(t, w.Body.String(), `"check_ins":7`)
	})
}
