package services_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripweaver/planner"
	"tripweaver/services"
)

func geminiServer(t *testing.T, status int, body string, seen *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		if seen != nil {
			*seen = string(b)
		}
		assert.True(t, strings.HasSuffix(r.URL.Path, "/models/test-model:generateContent"), r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGeminiClient_Generate(t *testing.T) {
	var seen string
	srv := geminiServer(t, http.StatusOK,
		`{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"summary\":"},{"text":"\"ok\"}"}]},"finishReason":"STOP"}]}`, &seen)
	c, err := services.NewGeminiClient(context.Background(), "test-key", "test-model", srv.URL)
	require.NoError(t, err)

	text, err := c.Generate(context.Background(), planner.Prompt{System: "Respond in JSON only.", User: "Plan Kandy"})

	require.NoError(t, err)
	assert.Equal(t, `{"summary":"ok"}`, text)
	assert.Equal(t, "test-model", c.Model())
	assert.Contains(t, seen, "Plan Kandy")
	assert.Contains(t, seen, "Respond in JSON only.")
	assert.Contains(t, seen, "application/json")
}

func TestGeminiClient_APIErrorMessage(t *testing.T) {
	srv := geminiServer(t, http.StatusBadRequest,
		`{"error":{"code":400,"message":"API key not valid. Please pass a valid API key.","status":"INVALID_ARGUMENT"}}`, nil)
	c, err := services.NewGeminiClient(context.Background(), "bad-key", "test-model", srv.URL)
	require.NoError(t, err)

	_, err = c.Generate(context.Background(), planner.Prompt{User: "Plan Kandy"})

	require.ErrorIs(t, err, planner.ErrTransport)
	assert.Contains(t, err.Error(), "API key not valid")
}

func TestGeminiClient_EmptyCandidatesIsEmptyText(t *testing.T) {
	srv := geminiServer(t, http.StatusOK, `{"candidates":[]}`, nil)
	c, err := services.NewGeminiClient(context.Background(), "test-key", "test-model", srv.URL)
	require.NoError(t, err)

	text, err := c.Generate(context.Background(), planner.Prompt{User: "Plan Kandy"})

	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestGeminiClient_Unconfigured(t *testing.T) {
	c, err := services.NewGeminiClient(context.Background(), "", "", "")
	require.NoError(t, err)

	_, err = c.Generate(context.Background(), planner.Prompt{User: "Plan Kandy"})

	require.ErrorIs(t, err, planner.ErrTransport)
	assert.Equal(t, services.DefaultGeminiModel, c.Model())
}
