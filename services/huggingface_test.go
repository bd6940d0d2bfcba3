package services_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripweaver/planner"
	"tripweaver/services"
)

func hfServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/org/test-model", r.URL.Path)
		assert.Equal(t, "Bearer hf-key", r.Header.Get("Authorization"))

		var req struct {
			Inputs string `json:"inputs"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req.Inputs, "[INST] sys\n\nPlan Kandy [/INST]")

		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHuggingFaceClient_Generate(t *testing.T) {
	srv := hfServer(t, http.StatusOK, `[{"generated_text":"{\"summary\":\"ok\"}"}]`)
	c := services.NewHuggingFaceClient("hf-key", "org/test-model", srv.URL)

	text, err := c.Generate(context.Background(), planner.Prompt{System: "sys", User: "Plan Kandy"})

	require.NoError(t, err)
	assert.Equal(t, `{"summary":"ok"}`, text)
}

func TestHuggingFaceClient_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
		is     error
	}{
		{"loading", http.StatusServiceUnavailable, `{"error":"Model is currently loading"}`, "loading", planner.ErrTransport},
		{"bad request", http.StatusBadRequest, `{"error":"Input validation error"}`, "Input validation error", planner.ErrTransport},
		{"bare status", http.StatusInternalServerError, ``, "(500)", planner.ErrTransport},
		{"garbage body", http.StatusOK, `not json`, "parse", planner.ErrParse},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := hfServer(t, tc.status, tc.body)
			c := services.NewHuggingFaceClient("hf-key", "org/test-model", srv.URL)

			_, err := c.Generate(context.Background(), planner.Prompt{System: "sys", User: "Plan Kandy"})

			require.ErrorIs(t, err, tc.is)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestHuggingFaceClient_TruncatedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "512")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`[{"generated_text":"{\"summ`))
	}))
	t.Cleanup(srv.Close)
	c := services.NewHuggingFaceClient("hf-key", "org/test-model", srv.URL)

	_, err := c.Generate(context.Background(), planner.Prompt{System: "sys", User: "Plan Kandy"})

	require.ErrorIs(t, err, planner.ErrTransport)
	assert.Contains(t, err.Error(), "read response")
}

func TestHuggingFaceClient_MissingKey(t *testing.T) {
	c := services.NewHuggingFaceClient("", "", "")

	_, err := c.Generate(context.Background(), planner.Prompt{User: "Plan Kandy"})

	require.ErrorIs(t, err, planner.ErrTransport)
	assert.Equal(t, services.DefaultHFModel, c.Model())
}
