package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/2moro-engine/internal/adapters/handler/http/middleware"
)

// requireUser reads the authenticated user id. The auth middleware always
// sets it, so a miss is a wiring bug and answers 500.
func requireUser(c *gin.Context) (string, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "user context missing"})
		return "", false
	}
	return userID, true
}
