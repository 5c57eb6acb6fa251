package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/comitanigiacomo/2moro-engine/internal/config"
)

type e2eClient struct {
	t      *testing.T
	router http.Handler
	token  string
}

func (c *e2eClient) call(method, path, body string) *httptest.ResponseRecorder {
	c.t.Helper()

	req, _ := http.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)
	return w
}

func newTestApp(t *testing.T) *app {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Env:     "development",
		Port:    "0",
		Storage: config.StorageMemory,
		Cache:   config.CacheMemory,
		JWT:     config.JWTConfig{Secret: "e2e-secret", Issuer: "2moro-e2e", TTL: time.Hour},
		AI:      config.AIConfig{Models: config.DefaultModels},
	}

	a, err := newApp(context.Background(), cfg, zap.NewNop(), false)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}

func TestEndToEnd_Lifecycle(t *testing.T) {
	a := newTestApp(t)
	client := &e2eClient{t: t, router: a.router}

	t.Run("1. Auth Error", func(t *testing.T) {
		w := client.call(http.MethodGet, "/api/v1/habits", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("2. Login", func(t *testing.T) {
		w := client.call(http.MethodPost, "/api/v1/auth/login", `{"email": "e2e@2moro.app", "name": "E2E"}`)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Token string `json:"token"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.NotEmpty(t, resp.Token)
		client.token = resp.Token
	})

	t.Run("3. Onboarding without an AI backend degrades to fallbacks", func(t *testing.T) {
		require.NotEmpty(t, client.token, "Login step failed")

		events := []string{
			`{"type": "start"}`,
			`{"type": "photo"}`,
			`{"type": "dob", "dob": "1990-08-01"}`,
			`{"type": "quiz", "answers": {"q1": "a", "q2": "c"}}`,
			`{"type": "traits", "current_traits": ["Curious"], "target_traits": ["Focused"]}`,
			`{"type": "confirm"}`,
		}
		for _, ev := range events {
			w := client.call(http.MethodPost, "/api/v1/onboarding/events", ev)
			require.Equal(t, http.StatusOK, w.Code, "event %s: %s", ev, w.Body.String())
		}

		w := client.call(http.MethodGet, "/api/v1/me", "")
		require.Equal(t, http.StatusOK, w.Code)

		var me struct {
			OnboardingCompleted bool `json:"onboarding_completed"`
			Profile             struct {
				Zodiac    string   `json:"zodiac"`
				Fallbacks []string `json:"fallbacks"`
			} `json:"profile"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
		assert.True(t, me.OnboardingCompleted)
		assert.Equal(t, "Unknown", me.Profile.Zodiac)
		assert.Contains(t, me.Profile.Fallbacks, "zodiac")
		assert.Contains(t, me.Profile.Fallbacks, "personality")
	})

	var habitID string

	t.Run("4. Create Habit", func(t *testing.T) {
		w := client.call(http.MethodPost, "/api/v1/habits", `{"title": "Morning Run"}`)
		require.Equal(t, http.StatusCreated, w.Code)

		var resp struct {
			ID string `json:"id"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		habitID = resp.ID
	})

	t.Run("5. Toggle Habit", func(t *testing.T) {
		require.NotEmpty(t, habitID, "Create step failed, cannot toggle")

		w := client.call(http.MethodPost, "/api/v1/habits/"+habitID+"/toggle", `{"completed": true}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"streak":1`)

		w = client.call(http.MethodPost, "/api/v1/habits/missing/toggle", `{"completed": true}`)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("6. Delete Habit", func(t *testing.T) {
		w := client.call(http.MethodDelete, "/api/v1/habits/"+habitID, "")
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = client.call(http.MethodGet, "/api/v1/habits", "")
		assert.NotContains(t, w.Body.String(), habitID)
	})

	t.Run("7. Memories, people and search", func(t *testing.T) {
		w := client.call(http.MethodPost, "/api/v1/people", `{"name": "Sara"}`)
		require.Equal(t, http.StatusCreated, w.Code)

		w = client.call(http.MethodPost, "/api/v1/memories", `{"content": "Coffee with Sara"}`)
		require.Equal(t, http.StatusCreated, w.Code)

		w = client.call(http.MethodGet, "/api/v1/search?q=sara", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"type":"memory"`)
		assert.Contains(t, w.Body.String(), `"type":"person"`)

		w = client.call(http.MethodGet, "/api/v1/people/insight", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"insight":`)
	})

	t.Run("8. Health and metrics", func(t *testing.T) {
		w := client.call(http.MethodGet, "/health", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"database":"disabled"`)

		w = client.call(http.MethodGet, "/metrics", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "twomoro_habits_toggles_total")
	})
}
