package group

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"gymflex/internal/api"
	"gymflex/internal/auth"
	"gymflex/internal/logger"
	"gymflex/internal/metrics"
)

type Handler struct {
	repo Repository
}

func NewHandler(db *sqlx.DB) *Handler {
	return &Handler{
		repo: NewRepository(db),
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

func groupIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("groupID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group ID"})
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.BindingError(err))
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "group name cannot be empty"})
		return
	}

	g, err := h.repo.CreateGroup(c.Request.Context(), name, strings.TrimSpace(req.Description), userID)
	if err != nil {
		logger.Error("create group", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create group"})
		return
	}

	c.JSON(http.StatusCreated, g)
}

func (h *Handler) List(c *gin.Context) {
	groups, err := h.repo.GetAllGroups(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load groups"})
		return
	}

	c.JSON(http.StatusOK, groups)
}

func (h *Handler) Get(c *gin.Context) {
	groupID, ok := groupIDParam(c)
	if !ok {
		return
	}

	g, err := h.repo.GetGroupByID(c.Request.Context(), groupID)
	if err != nil {
		if errors.Is(err, ErrGroupNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "group not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load group"})
		return
	}

	c.JSON(http.StatusOK, g)
}

func (h *Handler) Join(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	groupID, ok := groupIDParam(c)
	if !ok {
		return
	}

	if _, err := h.repo.GetGroupByID(c.Request.Context(), groupID); err != nil {
		if errors.Is(err, ErrGroupNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "group not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load group"})
		return
	}

	if err := h.repo.AddMember(c.Request.Context(), groupID, userID, RoleMember); err != nil {
		if errors.Is(err, ErrAlreadyMember) {
			c.JSON(http.StatusConflict, gin.H{"error": "you are already a member of this group"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to join group"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "joined the group"})
}

func (h *Handler) Leave(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	groupID, ok := groupIDParam(c)
	if !ok {
		return
	}

	role, err := h.repo.GetMemberRole(c.Request.Context(), groupID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check membership"})
		return
	}
	if role == RoleOwner {
		// Без владельца группа осиротеет.
		c.JSON(http.StatusConflict, gin.H{"error": "the owner cannot leave their own group"})
		return
	}

	if err := h.repo.RemoveMember(c.Request.Context(), groupID, userID); err != nil {
		if errors.Is(err, ErrNotMember) {
			c.JSON(http.StatusNotFound, gin.H{"error": "you are not a member of this group"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to leave group"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "left the group"})
}

func (h *Handler) ListMembers(c *gin.Context) {
	groupID, ok := groupIDParam(c)
	if !ok {
		return
	}

	members, err := h.repo.GetMembers(c.Request.Context(), groupID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load members"})
		return
	}

	c.JSON(http.StatusOK, members)
}

func (h *Handler) PostMessage(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	groupID, ok := groupIDParam(c)
	if !ok {
		return
	}

	var req PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.BindingError(err))
		return
	}

	body := strings.TrimSpace(req.Body)
	if body == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message body cannot be empty"})
		return
	}

	role, err := h.repo.GetMemberRole(c.Request.Context(), groupID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check membership"})
		return
	}
	if role == "" {
		c.JSON(http.StatusForbidden, gin.H{"error": "you must join the group first"})
		return
	}

	msg, err := h.repo.CreateMessage(c.Request.Context(), groupID, userID, body)
	if err != nil {
		logger.Error("post group message", "group_id", groupID, "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to post message"})
		return
	}

	metrics.RecordGroupMessage()

	c.JSON(http.StatusCreated, msg)
}

func (h *Handler) ListMessages(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	groupID, ok := groupIDParam(c)
	if !ok {
		return
	}

	role, err := h.repo.GetMemberRole(c.Request.Context(), groupID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check membership"})
		return
	}
	if role == "" {
		c.JSON(http.StatusForbidden, gin.H{"error": "you must join the group first"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	messages, err := h.repo.GetMessages(c.Request.Context(), groupID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	c.JSON(http.StatusOK, messages)
}
