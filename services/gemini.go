package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"tripweaver/planner"
)

const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiClient generates itineraries through the Gemini API.
type GeminiClient struct {
	client      *genai.Client
	model       string
	temperature float32
}

// NewGeminiClient builds the client. A missing apiKey is not an error here:
// the client stays unconfigured and every call fails as a transport error.
func NewGeminiClient(ctx context.Context, apiKey, model, baseURL string) (*GeminiClient, error) {
	if model == "" {
		model = DefaultGeminiModel
	}
	c := &GeminiClient{model: model, temperature: 0.7}

	if apiKey == "" {
		log.Println("⚠️  GEMINI_API_KEY not set — itinerary generation is disabled")
		return c, nil
	}

	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{},
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: strings.TrimRight(baseURL, "/") + "/"}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	c.client = client

	log.Println("✅ AI (Gemini) initialized with model:", model)
	return c, nil
}

func (c *GeminiClient) Model() string { return c.model }

// Generate implements planner.Generator.
func (c *GeminiClient) Generate(ctx context.Context, prompt planner.Prompt) (string, error) {
	if c.client == nil {
		return "", fmt.Errorf("%w: generation provider not configured", planner.ErrTransport)
	}

	cfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](c.temperature),
		ResponseMIMEType: "application/json",
	}
	if prompt.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(prompt.System, genai.RoleUser)
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt.User), cfg)
	if err != nil {
		return "", fmt.Errorf("%w: %s", planner.ErrTransport, geminiErrorMessage(err))
	}
	return responseText(resp), nil
}

// geminiErrorMessage prefers the API's own message over the transport wrapper.
func geminiErrorMessage(err error) string {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return fmt.Sprintf("Gemini API error (%d): %s", apiErr.Code, apiErr.Message)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr.Message != "" {
		return fmt.Sprintf("Gemini API error (%d): %s", apiErrPtr.Code, apiErrPtr.Message)
	}
	return err.Error()
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part != nil && part.Text != "" && !part.Thought {
				text.WriteString(part.Text)
			}
		}
		break
	}
	return text.String()
}

var _ planner.Generator = (*GeminiClient)(nil)
