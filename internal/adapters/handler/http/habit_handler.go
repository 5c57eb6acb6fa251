package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/2moro-engine/internal/core/domain"
	"github.com/comitanigiacomo/2moro-engine/internal/core/services"
)

type HabitHandler struct {
	svc *services.HabitService
}

func NewHabitHandler(svc *services.HabitService) *HabitHandler {
	return &HabitHandler{
		svc: svc,
	}
}

type createHabitRequest struct {
	Title string `json:"title" binding:"required"`
}

type updateHabitRequest struct {
	Title   string `json:"title" binding:"required"`
	Version int    `json:"version"`
}

// Completed is the state the client wants. The server decides whether it
// is already in that state.
type toggleHabitRequest struct {
	Completed *bool `json:"completed" binding:"required"`
}

func (h *HabitHandler) RegisterRoutes(router *gin.RouterGroup) {
	habits := router.Group("/habits")
	{
		habits.POST("", h.Create)
		habits.GET("", h.List)
		habits.GET("/sync", h.Sync)
		habits.PUT("/:id", h.Update)
		habits.POST("/:id/toggle", h.Toggle)
		habits.DELETE("/:id", h.Delete)
	}
}

func (h *HabitHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrHabitNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "habit not found"})
	case errors.Is(err, domain.ErrHabitConflict):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "version conflict",
			"message": "Data has been modified elsewhere. Please sync.",
		})
	case errors.Is(err, domain.ErrHabitTitleEmpty), errors.Is(err, domain.ErrHabitTitleTooLong):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// Create godoc
// @Summary  Create a daily habit
// @Tags     habits
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    body body createHabitRequest true "habit"
// @Success  201 {object} domain.Habit
// @Failure  400 {object} map[string]string
// @Router   /habits [post]
func (h *HabitHandler) Create(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req createHabitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	habit, err := h.svc.Create(c.Request.Context(), services.CreateHabitInput{
		UserID: userID,
		Title:  req.Title,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, habit)
}

// List godoc
// @Summary  Active habits, oldest first
// @Tags     habits
// @Produce  json
// @Security BearerAuth
// @Success  200 {array} domain.Habit
// @Router   /habits [get]
func (h *HabitHandler) List(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	list, err := h.svc.ListByUserID(c.Request.Context(), userID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

// Sync godoc
// @Summary  Habits changed after last_sync, deletions included
// @Tags     habits
// @Produce  json
// @Security BearerAuth
// @Param    last_sync query string false "RFC3339 timestamp"
// @Router   /habits/sync [get]
func (h *HabitHandler) Sync(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var lastSync time.Time
	if raw := c.Query("last_sync"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid last_sync format, use RFC3339"})
			return
		}
		lastSync = parsed
	}

	deltas, err := h.svc.GetDelta(c.Request.Context(), userID, lastSync)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sync failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"changes":   deltas,
		"timestamp": time.Now().UTC(),
	})
}

func (h *HabitHandler) Update(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req updateHabitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	habit, err := h.svc.Update(c.Request.Context(), services.UpdateHabitInput{
		ID:      c.Param("id"),
		UserID:  userID,
		Title:   req.Title,
		Version: req.Version,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, habit)
}

// Toggle godoc
// @Summary  Mark a habit done or not done for today
// @Tags     habits
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    id   path string             true "habit id"
// @Param    body body toggleHabitRequest true "target state"
// @Success  200 {object} domain.Habit
// @Failure  404 {object} map[string]string
// @Router   /habits/{id}/toggle [post]
func (h *HabitHandler) Toggle(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req toggleHabitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	habit, err := h.svc.Toggle(c.Request.Context(), services.ToggleHabitInput{
		ID:        c.Param("id"),
		UserID:    userID,
		Completed: *req.Completed,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, habit)
}

func (h *HabitHandler) Delete(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), userID); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
