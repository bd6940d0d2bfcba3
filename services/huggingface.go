package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"tripweaver/planner"
)

const (
	DefaultHFModel   = "mistralai/Mistral-7B-Instruct-v0.3"
	defaultHFBaseURL = "https://api-inference.huggingface.co"
)

// HuggingFaceClient generates itineraries through the HuggingFace Inference API.
type HuggingFaceClient struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

func NewHuggingFaceClient(apiKey, model, baseURL string) *HuggingFaceClient {
	if model == "" {
		model = DefaultHFModel
	}
	if baseURL == "" {
		baseURL = defaultHFBaseURL
	}

	c := &HuggingFaceClient{
		apiKey:  apiKey,
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}

	if apiKey != "" {
		log.Println("✅ AI (HuggingFace) initialized with model:", model)
	} else {
		log.Println("⚠️  HUGGINGFACE_API_KEY not set — itinerary generation is disabled")
	}
	return c
}

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
}

type hfParameters struct {
	MaxNewTokens   int     `json:"max_new_tokens"`
	Temperature    float64 `json:"temperature"`
	ReturnFullText bool    `json:"return_full_text"`
}

type hfResponse []struct {
	GeneratedText string `json:"generated_text"`
}

type hfError struct {
	Error string `json:"error"`
}

func (c *HuggingFaceClient) Model() string { return c.model }

// Generate implements planner.Generator.
func (c *HuggingFaceClient) Generate(ctx context.Context, prompt planner.Prompt) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("%w: generation provider not configured", planner.ErrTransport)
	}

	reqBody := hfRequest{
		Inputs: instructPrompt(prompt),
		Parameters: hfParameters{
			MaxNewTokens:   2048,
			Temperature:    0.6,
			ReturnFullText: false,
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/models/%s", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", planner.ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", planner.ErrTransport, err)
	}

	if resp.StatusCode == http.StatusServiceUnavailable {
		return "", fmt.Errorf("%w: AI model is loading, please retry in a few seconds", planner.ErrTransport)
	}

	if resp.StatusCode != http.StatusOK {
		var e hfError
		if json.Unmarshal(body, &e) == nil && e.Error != "" {
			return "", fmt.Errorf("%w: HuggingFace API error (%d): %s", planner.ErrTransport, resp.StatusCode, e.Error)
		}
		return "", fmt.Errorf("%w: HuggingFace API error (%d)", planner.ErrTransport, resp.StatusCode)
	}

	var hfResp hfResponse
	if err := json.Unmarshal(body, &hfResp); err != nil {
		return "", fmt.Errorf("%w: failed to parse AI response: %v", planner.ErrParse, err)
	}

	if len(hfResp) == 0 {
		return "", nil
	}
	return hfResp[0].GeneratedText, nil
}

// instructPrompt wraps the prompt in Mistral's instruction tags; the Inference
// API has no separate system channel.
func instructPrompt(p planner.Prompt) string {
	return "[INST] " + p.Text() + " [/INST]"
}

var _ planner.Generator = (*HuggingFaceClient)(nil)
