package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/2moro-engine/internal/core/domain"
	"github.com/comitanigiacomo/2moro-engine/internal/core/services"
)

type UserHandler struct {
	svc *services.UserService
}

func NewUserHandler(svc *services.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

type updateUserRequest struct {
	Name   *string `json:"name"`
	Title  *string `json:"title"`
	Bio    *string `json:"bio"`
	Avatar *string `json:"avatar"`
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	me := router.Group("/me")
	{
		me.GET("", h.Get)
		me.PATCH("", h.Update)
		me.GET("/preferences", h.GetPreferences)
		me.PUT("/preferences", h.UpdatePreferences)
	}
}

func (h *UserHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	case errors.Is(err, domain.ErrUserNameEmpty):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// Get godoc
// @Summary  Current user
// @Tags     users
// @Produce  json
// @Security BearerAuth
// @Success  200 {object} domain.User
// @Router   /me [get]
func (h *UserHandler) Get(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	user, err := h.svc.Get(c.Request.Context(), userID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Update(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.svc.Update(c.Request.Context(), userID, domain.UserPatch{
		Name:   req.Name,
		Title:  req.Title,
		Bio:    req.Bio,
		Avatar: req.Avatar,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) GetPreferences(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	prefs, err := h.svc.Preferences(c.Request.Context(), userID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, prefs)
}

// UpdatePreferences merges the given keys into the stored preferences.
// Keys not present in the body are kept.
func (h *UserHandler) UpdatePreferences(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var prefs map[string]any
	if err := c.ShouldBindJSON(&prefs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "preferences must be a JSON object"})
		return
	}

	merged, err := h.svc.UpdatePreferences(c.Request.Context(), userID, prefs)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, merged)
}
