package planner

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// StripWrapping removes code-fence markers and any prose around the
// outermost JSON object.
func StripWrapping(raw string) string {
	s := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "\ufeff"))

	if strings.HasPrefix(s, "```") {
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}

	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start >= 0 && end > start {
		s = s[start : end+1]
	}
	return strings.TrimSpace(s)
}

// ParseItinerary decodes and validates generated text against the itinerary
// contract. expectedDays > 0 also pins the number of days.
func ParseItinerary(raw string, expectedDays int) (Itinerary, error) {
	text := StripWrapping(raw)
	if text == "" {
		return Itinerary{}, fmt.Errorf("%w: the AI returned an empty response", ErrParse)
	}

	var it Itinerary
	if err := decodeStrict(text, &it); err != nil {
		return Itinerary{}, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if err := ValidateItinerary(it, expectedDays); err != nil {
		return Itinerary{}, err
	}
	return it, nil
}

// ParseDayPlan decodes a single day object.
func ParseDayPlan(raw string) (DayPlan, error) {
	text := StripWrapping(raw)
	if text == "" {
		return DayPlan{}, fmt.Errorf("%w: the AI returned an empty response", ErrParse)
	}

	var d DayPlan
	if err := decodeStrict(text, &d); err != nil {
		return DayPlan{}, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if err := validateActivities(d); err != nil {
		return DayPlan{}, err
	}
	return d, nil
}

// ValidateItinerary enforces the structural rules the generator is only
// asked to follow.
func ValidateItinerary(it Itinerary, expectedDays int) error {
	if strings.TrimSpace(it.Summary) == "" {
		return fmt.Errorf("%w: summary is missing", ErrParse)
	}
	if len(it.Days) == 0 {
		return fmt.Errorf("%w: no days in itinerary", ErrParse)
	}
	if expectedDays > 0 && len(it.Days) != expectedDays {
		return fmt.Errorf("%w: expected %d days, got %d", ErrParse, expectedDays, len(it.Days))
	}
	for i, d := range it.Days {
		if d.Day != i+1 {
			return fmt.Errorf("%w: day at position %d is numbered %d", ErrParse, i+1, d.Day)
		}
		if err := validateActivities(d); err != nil {
			return err
		}
	}
	return nil
}

func validateActivities(d DayPlan) error {
	if len(d.Activities) == 0 {
		return fmt.Errorf("%w: day %d has no activities", ErrParse, d.Day)
	}
	for j, a := range d.Activities {
		if strings.TrimSpace(a.Time) == "" || strings.TrimSpace(a.Activity) == "" {
			return fmt.Errorf("%w: day %d activity %d is incomplete", ErrParse, d.Day, j+1)
		}
	}
	return nil
}

func decodeStrict(text string, v any) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after JSON object")
	}
	return nil
}
