package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"tripweaver/planner"
)

const defaultOpenWeatherURL = "https://api.openweathermap.org"

// WeatherClient fetches 5-day / 3-hour forecasts from OpenWeatherMap.
type WeatherClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	cache      *cache.Cache
}

// NewWeatherClient returns a client; an empty baseURL uses the public API and
// cacheTTL <= 0 disables caching.
func NewWeatherClient(apiKey, baseURL string, cacheTTL time.Duration) *WeatherClient {
	if baseURL == "" {
		baseURL = defaultOpenWeatherURL
	}
	c := &WeatherClient{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	if cacheTTL > 0 {
		c.cache = cache.New(cacheTTL, 2*cacheTTL)
	}

	if apiKey != "" {
		log.Println("✅ OpenWeatherMap forecast client initialized")
	} else {
		log.Println("⚠️  OPENWEATHER_API_KEY not set — itineraries will be planned without weather")
	}
	return c
}

// statusCode decodes OpenWeatherMap's "cod", which is a string on forecast
// responses and a number on some error bodies.
type statusCode string

func (s *statusCode) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err == nil {
		*s = statusCode(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("cod: %w", err)
	}
	*s = statusCode(n.String())
	return nil
}

type owmForecast struct {
	Cod     statusCode `json:"cod"`
	Message any        `json:"message"`
	List    []struct {
		DtTxt string `json:"dt_txt"`
		Main  struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
	} `json:"list"`
}

// Forecast implements planner.ForecastProvider.
func (c *WeatherClient) Forecast(ctx context.Context, destination string) ([]planner.ForecastSample, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("openweathermap API key not configured")
	}

	key := strings.ToLower(strings.TrimSpace(destination))
	if c.cache != nil {
		if cached, ok := c.cache.Get(key); ok {
			return cached.([]planner.ForecastSample), nil
		}
	}

	params := url.Values{}
	params.Set("q", destination)
	params.Set("appid", c.apiKey)
	params.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/data/2.5/forecast?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("forecast request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read forecast: %w", err)
	}

	var out owmForecast
	if err := json.Unmarshal(body, &out); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("OpenWeatherMap error (%d): %s", resp.StatusCode, truncate(string(body), 200))
		}
		return nil, fmt.Errorf("failed to parse forecast: %v", err)
	}
	if out.Cod != "200" {
		return nil, fmt.Errorf("OpenWeatherMap error (%s): %v", out.Cod, out.Message)
	}

	samples := make([]planner.ForecastSample, 0, len(out.List))
	for _, item := range out.List {
		date, clock, _ := strings.Cut(item.DtTxt, " ")
		if date == "" {
			continue
		}
		desc := ""
		if len(item.Weather) > 0 {
			desc = item.Weather[0].Description
		}
		samples = append(samples, planner.ForecastSample{
			Date:        date,
			Time:        clock,
			Description: desc,
			TempC:       item.Main.Temp,
		})
	}

	if c.cache != nil {
		c.cache.SetDefault(key, samples)
	}
	return samples, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

var _ planner.ForecastProvider = (*WeatherClient)(nil)
