package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/2moro-engine/internal/core/domain"
	"github.com/comitanigiacomo/2moro-engine/internal/core/onboarding"
	"github.com/comitanigiacomo/2moro-engine/internal/core/services"
)

// Base64 photos dominate request size.
const maxOnboardingEventBytes = 10 << 20

type OnboardingHandler struct {
	svc *services.OnboardingService
}

func NewOnboardingHandler(svc *services.OnboardingService) *OnboardingHandler {
	return &OnboardingHandler{svc: svc}
}

func (h *OnboardingHandler) RegisterRoutes(router *gin.RouterGroup) {
	ob := router.Group("/onboarding")
	{
		ob.GET("", h.Get)
		ob.POST("/events", h.Submit)
		ob.DELETE("", h.Reset)
	}
}

// Get godoc
// @Summary  Current onboarding step and accumulated profile
// @Tags     onboarding
// @Produce  json
// @Security BearerAuth
// @Success  200 {object} onboarding.State
// @Router   /onboarding [get]
func (h *OnboardingHandler) Get(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	st, err := h.svc.Get(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, st)
}

// Submit godoc
// @Summary  Submit the payload of the current step
// @Description Body is a JSON object tagged by "type": start, photo, dob, quiz, traits or confirm.
// @Tags     onboarding
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Success  200 {object} onboarding.State
// @Failure  400 {object} map[string]string
// @Failure  409 {object} map[string]string
// @Router   /onboarding/events [post]
func (h *OnboardingHandler) Submit(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxOnboardingEventBytes))
	if err != nil {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "event payload too large"})
		return
	}

	ev, err := onboarding.DecodeEvent(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	st, err := h.svc.Submit(c.Request.Context(), userID, ev)
	if err != nil {
		switch {
		case errors.Is(err, onboarding.ErrTransitionInFlight):
			c.JSON(http.StatusConflict, gin.H{"error": "onboarding transition in progress"})
		case errors.Is(err, onboarding.ErrUnexpectedEvent), errors.Is(err, onboarding.ErrOnboardingCompleted):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "step": st.Step})
		case errors.Is(err, domain.ErrBirthDateRequired), errors.Is(err, onboarding.ErrQuizAnswersRequired):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, st)
}

func (h *OnboardingHandler) Reset(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	if err := h.svc.Reset(c.Request.Context(), userID); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.Status(http.StatusNoContent)
}
