package gym

import (
	"net/http"
	"strings"

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

// @Summary      Create a gym
// @Description  Owner or admin: register a new gym owned by the caller
// @Tags         owner,gyms
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body gym.CreateGymRequest true "Gym payload"
// @Success      201 {object} gym.Gym
// @Failure      400 {object} api.ErrorResponse
// @Failure      401 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /owner/gyms [post]
func (h *Handler) CreateGym(c *gin.Context) {
	var req CreateGymRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}
	ownerID, err := uuid.Parse(userID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Invalid user identity"})
		return
	}

	ctx := c.Request.Context()
	gym, err := h.service.CreateGym(ctx, ownerID, req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to create gym"})
		return
	}

	c.JSON(http.StatusCreated, gym)
}

// @Summary      List gyms
// @Tags         gyms
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} gym.Gym
// @Failure      401 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /gyms [get]
// @Router       /admin/gyms [get]
func (h *Handler) ListGyms(c *gin.Context) {
	ctx := c.Request.Context()
	gyms, err := h.service.GetAllGyms(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch gyms"})
		return
	}

	c.JSON(http.StatusOK, gyms)
}

// @Summary      Get a gym
// @Tags         gyms
// @Produce      json
// @Security     BearerAuth
// @Param        gymID path string true "Gym ID"
// @Success      200 {object} gym.Gym
// @Failure      400 {object} api.ErrorResponse
// @Failure      401 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /gyms/{gymID} [get]
func (h *Handler) GetGym(c *gin.Context) {
	gymID, err := uuid.Parse(c.Param("gymID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid gym ID"})
		return
	}

	ctx := c.Request.Context()
	gym, err := h.service.GetGymByID(ctx, gymID)
	if err != nil {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Gym not found"})
		return
	}

	c.JSON(http.StatusOK, gym)
}

// @Summary      Create a session
// @Description  Owner or admin: schedule a bookable session at a gym
// @Tags         owner,gyms
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        gymID path string true "Gym ID"
// @Param        request body gym.CreateSessionRequest true "Session payload"
// @Success      201 {object} gym.Session
// @Failure      400 {object} api.ErrorResponse
// @Failure      401 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /owner/gyms/{gymID}/sessions [post]
func (h *Handler) CreateSession(c *gin.Context) {
	gymID, err := uuid.Parse(c.Param("gymID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid gym ID"})
		return
	}

	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	ctx := c.Request.Context()

	// Owners may only schedule sessions at their own gyms.
	if role, _ := auth.GetUserRole(c); role == auth.RoleOwner {
		userID, ok := auth.GetUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
			return
		}
		ownerID, err := uuid.Parse(userID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Invalid user identity"})
			return
		}
		owned, err := h.service.OwnedBy(ctx, gymID, ownerID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to verify gym ownership"})
			return
		}
		if !owned {
			c.JSON(http.StatusForbidden, api.ErrorResponse{Error: "You do not own this gym"})
			return
		}
	}

	session, err := h.service.CreateSession(ctx, gymID, req)
	if err != nil {
		switch err {
		case ErrGymNotFound:
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Gym not found"})
		case ErrSessionInvalid:
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid session data"})
		default:
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to create session"})
		}
		return
	}

	c.JSON(http.StatusCreated, session)
}

// @Summary      List sessions for a gym
// @Tags         gyms
// @Produce      json
// @Security     BearerAuth
// @Param        gymID path string true "Gym ID"
// @Success      200 {array} gym.SessionWithAvailability
// @Failure      400 {object} api.ErrorResponse
// @Failure      401 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /gyms/{gymID}/sessions [get]
// @Router       /admin/gyms/{gymID}/sessions [get]
func (h *Handler) ListSessions(c *gin.Context) {
	gymID, err := uuid.Parse(c.Param("gymID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid gym ID"})
		return
	}

	ctx := c.Request.Context()
	// Members browse upcoming sessions; admin and owner views include
	// the past ones.
	path := c.Request.URL.Path
	onlyFuture := !strings.Contains(path, "/admin/") && !strings.Contains(path, "/owner/")
	sessions, err := h.service.GetSessions(ctx, gymID, onlyFuture)
	if err != nil {
		switch err {
		case ErrGymNotFound:
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Gym not found"})
		default:
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch sessions"})
		}
		return
	}

	c.JSON(http.StatusOK, sessions)
}
