package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/2moro-engine/internal/core/domain"
	"github.com/comitanigiacomo/2moro-engine/internal/core/services"
)

type MemoryHandler struct {
	svc *services.MemoryService
}

func NewMemoryHandler(svc *services.MemoryService) *MemoryHandler {
	return &MemoryHandler{svc: svc}
}

type createMemoryRequest struct {
	Content    string     `json:"content" binding:"required"`
	Type       string     `json:"type"`
	MemoryDate *time.Time `json:"memory_date"`
	PersonIDs  []string   `json:"person_ids"`
}

type createPersonRequest struct {
	Name         string `json:"name" binding:"required"`
	Relationship string `json:"relationship"`
	Avatar       string `json:"avatar"`
}

func (h *MemoryHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/memories", h.ListMemories)
	router.POST("/memories", h.CreateMemory)
	router.GET("/people", h.ListPeople)
	router.POST("/people", h.CreatePerson)
	router.GET("/people/insight", h.PeopleInsight)
	router.GET("/search", h.Search)
}

func (h *MemoryHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrMemoryContentEmpty),
		errors.Is(err, domain.ErrInvalidMemoryType),
		errors.Is(err, domain.ErrPersonNameEmpty):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// CreateMemory godoc
// @Summary  Record a memory, optionally linked to people
// @Tags     memories
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    body body createMemoryRequest true "memory"
// @Success  201 {object} domain.Memory
// @Router   /memories [post]
func (h *MemoryHandler) CreateMemory(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req createMemoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	date := time.Now().UTC()
	if req.MemoryDate != nil {
		date = *req.MemoryDate
	}

	memory, err := h.svc.CreateMemory(c.Request.Context(), services.CreateMemoryInput{
		UserID:     userID,
		Content:    req.Content,
		Type:       req.Type,
		MemoryDate: date,
		PersonIDs:  req.PersonIDs,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, memory)
}

func (h *MemoryHandler) ListMemories(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	list, err := h.svc.ListMemories(c.Request.Context(), userID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *MemoryHandler) CreatePerson(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req createPersonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	person, err := h.svc.CreatePerson(c.Request.Context(), services.CreatePersonInput{
		UserID:       userID,
		Name:         req.Name,
		Relationship: req.Relationship,
		Avatar:       req.Avatar,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, person)
}

func (h *MemoryHandler) ListPeople(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	list, err := h.svc.ListPeople(c.Request.Context(), userID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// PeopleInsight godoc
// @Summary  AI summary of the user's social circle
// @Tags     people
// @Produce  json
// @Security BearerAuth
// @Router   /people/insight [get]
func (h *MemoryHandler) PeopleInsight(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	insight, err := h.svc.PeopleInsight(c.Request.Context(), userID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"insight": insight})
}

// Search godoc
// @Summary  Keyword search over memories and people
// @Tags     search
// @Produce  json
// @Security BearerAuth
// @Param    q query string true "at least two characters"
// @Success  200 {array} services.SearchResult
// @Router   /search [get]
func (h *MemoryHandler) Search(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	results, err := h.svc.Search(c.Request.Context(), userID, c.Query("q"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}
