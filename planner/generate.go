package planner

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultGenerationTimeout bounds a single generation call.
const DefaultGenerationTimeout = 30 * time.Second

// Generator sends a composed prompt to a hosted text-generation model and
// returns the raw text it produced.
type Generator interface {
	Generate(ctx context.Context, prompt Prompt) (string, error)
	Model() string
}

// GenerationClient wraps a Generator with the itinerary output contract:
// one attempt, bounded by Timeout, strictly parsed.
type GenerationClient struct {
	gen     Generator
	timeout time.Duration
}

func NewGenerationClient(gen Generator, timeout time.Duration) *GenerationClient {
	if timeout <= 0 {
		timeout = DefaultGenerationTimeout
	}
	return &GenerationClient{gen: gen, timeout: timeout}
}

// Model names the backing model, for the generation log.
func (c *GenerationClient) Model() string {
	if c.gen == nil {
		return ""
	}
	return c.gen.Model()
}

// Generate submits prompt and parses the response as an Itinerary.
func (c *GenerationClient) Generate(ctx context.Context, prompt Prompt, expectedDays int) (Itinerary, error) {
	raw, err := c.raw(ctx, prompt)
	if err != nil {
		return Itinerary{}, err
	}
	return ParseItinerary(raw, expectedDays)
}

// GenerateDay submits prompt and parses the response as a single DayPlan.
func (c *GenerationClient) GenerateDay(ctx context.Context, prompt Prompt) (DayPlan, error) {
	raw, err := c.raw(ctx, prompt)
	if err != nil {
		return DayPlan{}, err
	}
	return ParseDayPlan(raw)
}

func (c *GenerationClient) raw(ctx context.Context, prompt Prompt) (string, error) {
	if c.gen == nil {
		return "", fmt.Errorf("%w: generation provider not configured", ErrTransport)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	text, err := c.gen.Generate(ctx, prompt)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: generation timed out after %s", ErrTransport, c.timeout)
		}
		if IsGenerationFailure(err) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", ErrTransport, err)
	}
	return text, nil
}
