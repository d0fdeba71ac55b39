package scanner

import (
	"errors"
	"net/http"
	"strconv"
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

func currentIdentity(c *gin.Context) (uuid.UUID, string, bool) {
	raw, ok := auth.GetUserID(c)
	if !ok {
		return uuid.Nil, "", false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, "", false
	}
	role, _ := auth.GetUserRole(c)
	return id, role, true
}

// Scan godoc
// @Summary      Validate a check-in QR code
// @Description  Validates a scanned token for the caller's gym and records the attempt. Returns the decision for denied scans too.
// @Tags         scanner
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      ScanRequest  true  "Gym and scanned token"
// @Success      200      {object}  ScanResponse
// @Failure      400      {object}  gin.H
// @Failure      403      {object}  gin.H
// @Failure      404      {object}  gin.H
// @Failure      503      {object}  gin.H
// @Router       /owner/scan [post]
func (h *Handler) Scan(c *gin.Context) {
	userID, role, ok := currentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.BindingError(err))
		return
	}

	resp, err := h.service.Scan(c.Request.Context(), userID, role, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrGymNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Gym not found"})
		case errors.Is(err, ErrNotYourGym):
			c.JSON(http.StatusForbidden, gin.H{"error": "You can only scan for your own gyms"})
		default:
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Booking lookup unavailable"})
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListScans godoc
// @Summary      List scans for a gym
// @Description  Returns the scan audit log of a gym, newest first.
// @Tags         scanner
// @Security     BearerAuth
// @Produce      json
// @Param        gymID   path      string  true   "Gym ID"
// @Param        limit   query     int     false  "Page size (default 50)"
// @Param        offset  query     int     false  "Offset"
// @Success      200     {array}   Scan
// @Failure      400     {object}  gin.H
// @Failure      403     {object}  gin.H
// @Failure      404     {object}  gin.H
// @Failure      500     {object}  gin.H
// @Router       /owner/gyms/{gymID}/scans [get]
func (h *Handler) ListScans(c *gin.Context) {
	userID, role, ok := currentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	gymID, err := uuid.Parse(c.Param("gymID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid gym ID"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	scans, err := h.service.GetScansByGym(c.Request.Context(), userID, role, gymID, limit, offset)
	if err != nil {
		switch {
		case errors.Is(err, ErrGymNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Gym not found"})
		case errors.Is(err, ErrNotYourGym):
			c.JSON(http.StatusForbidden, gin.H{"error": "You can only view scans for your own gyms"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch scans"})
		}
		return
	}

	c.JSON(http.StatusOK, scans)
}

// GetCheckinAnalytics godoc
// @Summary      Check-in analytics
// @Description  Returns scan counts grouped by outcome. Admin only.
// @Tags         scanner
// @Security     BearerAuth
// @Produce      json
// @Param        from  query     string  true  "Start datetime (RFC3339)"
// @Param        to    query     string  true  "End datetime (RFC3339)"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  gin.H
// @Failure      500   {object}  gin.H
// @Router       /admin/analytics/checkins [get]
func (h *Handler) GetCheckinAnalytics(c *gin.Context) {
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

	stats, err := h.service.GetScanStats(c.Request.Context(), from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch stats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"from": from,
		"to":   to,
		"data": stats,
	})
}
