package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"tripweaver/planner"
)

type GenerateRequest struct {
	Destination      string `json:"destination"`
	StartDate        string `json:"start_date"`
	EndDate          string `json:"end_date"`
	Traveler         string `json:"traveler"`
	Budget           string `json:"budget"`
	Interest         string `json:"interest"`
	FreeFormOverride string `json:"free_form_override"`
}

type GenerateResponse struct {
	SessionID       string                        `json:"session_id"`
	Itinerary       planner.Itinerary             `json:"itinerary"`
	Dates           []string                      `json:"dates"`
	Weather         []planner.DailyWeatherSummary `json:"weather"`
	WeatherDegraded bool                          `json:"weather_degraded"`
}

type RefineRequest struct {
	DayIndex      *int   `json:"day_index" binding:"required"`
	ActivityIndex *int   `json:"activity_index" binding:"required"`
	Feedback      string `json:"feedback"`
}

type ReplanRequest struct {
	DayIndex *int   `json:"day_index" binding:"required"`
	Feedback string `json:"feedback"`
}

type ItineraryResponse struct {
	SessionID string            `json:"session_id"`
	Itinerary planner.Itinerary `json:"itinerary"`
}

func (h *Handler) CreateSession(c *gin.Context) {
	sess := h.sessions.Create()
	c.JSON(http.StatusCreated, gin.H{"session_id": sess.ID})
}

func (h *Handler) GetSession(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sess.Snapshot())
}

func (h *Handler) Generate(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	q, ok := req.query()
	if !ok {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "please select valid start and end dates"})
		return
	}

	res, err := h.planner.Generate(c.Request.Context(), sess, q)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, GenerateResponse{
		SessionID:       sess.ID,
		Itinerary:       res.Itinerary,
		Dates:           lo.Map(res.Days, func(d time.Time, _ int) string { return planner.DateKey(d) }),
		Weather:         res.Weather,
		WeatherDegraded: res.WeatherDegraded,
	})
}

// query converts the wire form. ok is false when a date is present but
// malformed; missing dates are left zero for the planner to reject.
func (r GenerateRequest) query() (planner.TripQuery, bool) {
	q := planner.TripQuery{
		Destination:      r.Destination,
		Traveler:         planner.Traveler(r.Traveler),
		Budget:           planner.Budget(r.Budget),
		Interest:         planner.Interest(r.Interest),
		FreeFormOverride: r.FreeFormOverride,
	}
	var err error
	if r.StartDate != "" {
		if q.StartDate, err = planner.ParseDate(r.StartDate); err != nil && q.FreeFormOverride == "" {
			return q, false
		}
	}
	if r.EndDate != "" {
		if q.EndDate, err = planner.ParseDate(r.EndDate); err != nil && q.FreeFormOverride == "" {
			return q, false
		}
	}
	return q, true
}

func (h *Handler) Refine(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req RefineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	it, err := h.planner.Refine(c.Request.Context(), sess, *req.DayIndex, *req.ActivityIndex, req.Feedback)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ItineraryResponse{SessionID: sess.ID, Itinerary: it})
}

func (h *Handler) Replan(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req ReplanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	it, err := h.planner.Replan(c.Request.Context(), sess, *req.DayIndex, req.Feedback)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ItineraryResponse{SessionID: sess.ID, Itinerary: it})
}

// Dates expands ?start=&end= into calendar days.
func (h *Handler) Dates(c *gin.Context) {
	start, err1 := planner.ParseDate(c.Query("start"))
	end, err2 := planner.ParseDate(c.Query("end"))
	if err1 != nil || err2 != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start and end must be dates in YYYY-MM-DD form"})
		return
	}
	if n := planner.DaySpan(start, end); n > h.planner.MaxTripDays() {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "range is longer than the maximum trip length"})
		return
	}

	days := planner.ExpandDateRange(start, end)
	c.JSON(http.StatusOK, gin.H{
		"days":  lo.Map(days, func(d time.Time, _ int) string { return planner.DateKey(d) }),
		"count": len(days),
	})
}
