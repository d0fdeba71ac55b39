package booking

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"gymflex/internal/api"
	"gymflex/internal/auth"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{
		service: service,
	}
}

func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	raw, ok := auth.GetUserID(c)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// BookSession godoc
// @Summary      Book session
// @Description  Books a seat in the given session, paying from the wallet.
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Param        sessionID  path      string  true  "Session ID"
// @Success      201        {object}  BookSessionResponse
// @Failure      400        {object}  gin.H
// @Failure      402        {object}  gin.H
// @Failure      404        {object}  gin.H
// @Failure      409        {object}  gin.H
// @Failure      500        {object}  gin.H
// @Router       /sessions/{sessionID}/book [post]
func (h *Handler) BookSession(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	sessionID, err := uuid.Parse(c.Param("sessionID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid session ID"})
		return
	}

	resp, err := h.service.BookSession(c.Request.Context(), userID, sessionID)
	if err != nil {
		switch {
		case errors.Is(err, ErrSessionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		case errors.Is(err, ErrSessionInPast):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot book a session in the past"})
		case errors.Is(err, ErrSessionFull):
			c.JSON(http.StatusConflict, gin.H{"error": "Session is full"})
		case errors.Is(err, ErrAlreadyBooked):
			c.JSON(http.StatusConflict, gin.H{"error": "You already have a booking for this session"})
		case errors.Is(err, ErrInsufficientFunds):
			c.JSON(http.StatusPaymentRequired, gin.H{"error": "insufficient wallet balance"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create booking"})
		}
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// CancelBooking godoc
// @Summary      Cancel booking
// @Description  Cancels an active booking of the current user and refunds the wallet.
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Param        bookingID  path      string  true  "Booking ID"
// @Success      200        {object}  CancelBookingResponse
// @Failure      400        {object}  gin.H
// @Failure      403        {object}  gin.H
// @Failure      404        {object}  gin.H
// @Failure      500        {object}  gin.H
// @Router       /bookings/{bookingID}/cancel [post]
func (h *Handler) CancelBooking(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	bookingID, err := uuid.Parse(c.Param("bookingID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking ID"})
		return
	}

	err = h.service.CancelBooking(c.Request.Context(), userID, bookingID)
	if err != nil {
		switch {
		case errors.Is(err, ErrBookingNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
		case errors.Is(err, ErrNotYourBooking):
			c.JSON(http.StatusForbidden, gin.H{"error": "You can only cancel your own bookings"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cancel booking"})
		}
		return
	}

	c.JSON(http.StatusOK, CancelBookingResponse{Message: "Booking cancelled successfully"})
}

// IssueToken godoc
// @Summary      Issue check-in token
// @Description  Returns the QR check-in pass for one of the caller's bookings.
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Param        bookingID  path      string  true  "Booking ID"
// @Success      200        {object}  api.TokenResponse
// @Failure      400        {object}  gin.H
// @Failure      403        {object}  gin.H
// @Failure      404        {object}  gin.H
// @Failure      409        {object}  gin.H
// @Failure      500        {object}  gin.H
// @Router       /bookings/{bookingID}/token [post]
func (h *Handler) IssueToken(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	bookingID, err := uuid.Parse(c.Param("bookingID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking ID"})
		return
	}

	payload, token, err := h.service.IssueToken(c.Request.Context(), userID, bookingID)
	if err != nil {
		switch {
		case errors.Is(err, ErrBookingNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
		case errors.Is(err, ErrNotYourBooking):
			c.JSON(http.StatusForbidden, gin.H{"error": "You can only get a pass for your own bookings"})
		case errors.Is(err, ErrTokenNotIssuable):
			c.JSON(http.StatusConflict, gin.H{"error": "Booking is not active"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue check-in token"})
		}
		return
	}

	c.JSON(http.StatusOK, api.TokenResponse{
		Token:       token,
		CheckinCode: payload.CheckinCode,
		ExpiresAt:   payload.SessionEnd.Format(time.RFC3339),
	})
}

// ListMyBookings godoc
// @Summary      List my bookings
// @Description  Returns bookings of the authenticated user.
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   Booking
// @Failure      500  {object}  gin.H
// @Router       /bookings [get]
func (h *Handler) ListMyBookings(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	bookings, err := h.service.GetUserBookings(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch bookings"})
		return
	}

	c.JSON(http.StatusOK, bookings)
}

// ListBookingsBySession godoc
// @Summary      List bookings by session
// @Description  Returns all bookings for a specific session. Admin only.
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Param        sessionID  path      string  true  "Session ID"
// @Success      200        {array}   BookingWithDetails
// @Failure      400        {object}  gin.H
// @Failure      500        {object}  gin.H
// @Router       /admin/sessions/{sessionID}/bookings [get]
func (h *Handler) ListBookingsBySession(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("sessionID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid session ID"})
		return
	}

	bookings, err := h.service.GetBookingsBySession(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch bookings"})
		return
	}

	c.JSON(http.StatusOK, bookings)
}

// ListBookingsByGym godoc
// @Summary      List bookings by gym
// @Description  Returns all bookings for a specific gym. Admin only.
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Param        gymID  path      string  true  "Gym ID"
// @Success      200    {array}   BookingWithDetails
// @Failure      400    {object}  gin.H
// @Failure      500    {object}  gin.H
// @Router       /admin/gyms/{gymID}/bookings [get]
func (h *Handler) ListBookingsByGym(c *gin.Context) {
	gymID, err := uuid.Parse(c.Param("gymID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid gym ID"})
		return
	}

	bookings, err := h.service.GetBookingsByGym(c.Request.Context(), gymID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch bookings"})
		return
	}

	c.JSON(http.StatusOK, bookings)
}

// GetBookingAnalytics godoc
// @Summary      Booking analytics
// @Description  Returns aggregated booking analytics. Admin only.
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Param        group_by  query     string  false  "Group by dimension (day or gym)"
// @Param        from      query     string  true   "Start datetime (RFC3339)"
// @Param        to        query     string  true   "End datetime (RFC3339)"
// @Success      200       {object}  map[string]interface{}
// @Failure      400       {object}  gin.H
// @Failure      500       {object}  gin.H
// @Router       /admin/analytics/bookings [get]
func (h *Handler) GetBookingAnalytics(c *gin.Context) {
	groupBy := c.DefaultQuery("group_by", "day")
	fromStr := c.Query("from")
	toStr := c.Query("to")

	if fromStr == "" || toStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from and to query params are required"})
		return
	}

	from, err := time.Parse(time.RFC3339, fromStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from format, use RFC3339"})
		return
	}

	to, err := time.Parse(time.RFC3339, toStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to format, use RFC3339"})
		return
	}

	switch groupBy {
	case "day":
		stats, err := h.service.GetBookingStatsByDay(c.Request.Context(), from, to)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch stats"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"group_by": "day",
			"from":     from,
			"to":       to,
			"data":     stats,
		})
	case "gym":
		stats, err := h.service.GetBookingStatsByGym(c.Request.Context(), from, to)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch stats"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"group_by": "gym",
			"from":     from,
			"to":       to,
			"data":     stats,
		})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "group_by must be 'day' or 'gym'"})
	}
}
