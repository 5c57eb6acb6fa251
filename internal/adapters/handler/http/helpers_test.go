package http_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/2moro-engine/internal/adapters/handler/http/middleware"
)

// fakeAuth trusts the X-User-ID header so handler tests do not need tokens.
func fakeAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			return
		}
		c.Set(middleware.ContextUserIDKey, userID)
		c.Next()
	}
}

func newEngine(register func(*gin.RouterGroup)) *gin.Engine {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	group := r.Group("/api/v1")
	group.Use(fakeAuth())
	register(group)
	return r
}

func do(r http.Handler, method, path, userID, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
