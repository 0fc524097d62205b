package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"lg/fitness-tracker-api/internal/metabolism"
	"lg/fitness-tracker-api/internal/profile"
)

// weightStats summarizes a period of weight entries. Every value is nil
// when the period has no entries.
type weightStats struct {
	PeriodDays   int      `json:"period_days"`
	RecordsCount int      `json:"records_count"`
	CurrentKg    *float64 `json:"current_weight_kg"`
	InitialKg    *float64 `json:"initial_weight_kg"`
	ChangeKg     *float64 `json:"weight_change_kg"`
	AverageKg    *float64 `json:"average_weight_kg"`
	MinKg        *float64 `json:"min_weight_kg"`
	MaxKg        *float64 `json:"max_weight_kg"`
	CurrentBMI   *float64 `json:"current_bmi"`
	InitialBMI   *float64 `json:"initial_bmi"`
	BMIChange    *float64 `json:"bmi_change"`
}

func ptrTo[T any](v T) *T { return &v }

// summarizeWeights aggregates entries sorted by date ascending.
func summarizeWeights(entries []weightEntry, days int) weightStats {
	s := weightStats{PeriodDays: days, RecordsCount: len(entries)}
	if len(entries) == 0 {
		return s
	}
	first, last := entries[0], entries[len(entries)-1]
	lo, hi, sum := first.WeightKg, first.WeightKg, 0.0
	for _, e := range entries {
		lo = min(lo, e.WeightKg)
		hi = max(hi, e.WeightKg)
		sum += e.WeightKg
	}
	s.CurrentKg = ptrTo(round1(last.WeightKg))
	s.InitialKg = ptrTo(round1(first.WeightKg))
	s.ChangeKg = ptrTo(round1(last.WeightKg - first.WeightKg))
	s.AverageKg = ptrTo(round1(sum / float64(len(entries))))
	s.MinKg = ptrTo(round1(lo))
	s.MaxKg = ptrTo(round1(hi))
	if last.BMI != nil {
		s.CurrentBMI = ptrTo(round1(*last.BMI))
	}
	if first.BMI != nil {
		s.InitialBMI = ptrTo(round1(*first.BMI))
	}
	if last.BMI != nil && first.BMI != nil {
		s.BMIChange = ptrTo(round1(*last.BMI - *first.BMI))
	}
	return s
}

// bmiSnapshot returns the BMI for weightKg against the profile height, or
// nil while the height is unknown.
func bmiSnapshot(weightKg float64, heightCm *float64) *float64 {
	if heightCm == nil || *heightCm <= 0 {
		return nil
	}
	return ptrTo(metabolism.BMI(weightKg, *heightCm))
}

// getWeights returns weight entries, newest first.
// GET /api/weights?page=1&limit=30.
func (h *Handler) getWeights(c *gin.Context) {
	page, limit, ok := parsePagination(c, 30)
	if !ok {
		return
	}
	entries, count, err := h.weights.listWeights(c, c.GetInt("user_id"), pageRequest{Page: page, Limit: limit})
	if err != nil {
		h.internalError(c, err, "failed to fetch weight log")
		return
	}
	c.JSON(http.StatusOK, gin.H{"weights": entries, "pagination": newPagination(page, limit, count)})
}

// profileHeight returns the user's height for BMI snapshots.
func (h *Handler) profileHeight(c *gin.Context, userID int) (*float64, bool) {
	u, err := h.users.userByID(c, userID)
	if errors.Is(err, errUserNotFound) {
		apiError(c, http.StatusNotFound, "user not found")
		return nil, false
	}
	if err != nil {
		h.internalError(c, err, "failed to fetch user")
		return nil, false
	}
	return u.HeightCm, true
}

// addWeight records the weight for a day (default today) with a BMI
// snapshot. Posting a date that already has an entry replaces it.
// POST /api/weights. Body: { "weight_kg": 72.4, "date"? }.
func (h *Handler) addWeight(c *gin.Context) {
	userID := c.GetInt("user_id")

	var body struct {
		WeightKg float64 `json:"weight_kg"`
		Date     string  `json:"date"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := profile.CheckWeight(body.WeightKg); err != nil {
		apiError(c, http.StatusBadRequest, err.Error())
		return
	}
	date, err := parseDateParam(body.Date)
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	height, ok := h.profileHeight(c, userID)
	if !ok {
		return
	}
	entry, err := h.weights.upsertWeight(c, userID, date, body.WeightKg, bmiSnapshot(body.WeightKg, height))
	if err != nil {
		h.internalError(c, err, "failed to add weight entry")
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// getLatestWeight returns the most recent entry. GET /api/weights/latest.
func (h *Handler) getLatestWeight(c *gin.Context) {
	entry, err := h.weights.latestWeight(c, c.GetInt("user_id"))
	if errors.Is(err, errNotFound) {
		apiError(c, http.StatusNotFound, "no weight entries yet")
		return
	}
	if err != nil {
		h.internalError(c, err, "failed to fetch latest weight")
		return
	}
	c.JSON(http.StatusOK, entry)
}

// getWeightStats summarizes the last days days (default 30).
// GET /api/weights/stats?days=30.
func (h *Handler) getWeightStats(c *gin.Context) {
	days, ok := parseDaysParam(c, 30)
	if !ok {
		return
	}
	start, end := periodRange(days, time.Now())

	entries, err := h.weights.weightsBetween(c, c.GetInt("user_id"), start, end)
	if err != nil {
		h.internalError(c, err, "failed to fetch weight stats")
		return
	}
	c.JSON(http.StatusOK, summarizeWeights(entries, days))
}

// getWeight returns one entry. GET /api/weights/:id.
func (h *Handler) getWeight(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	entry, err := h.weights.weightByID(c, c.GetInt("user_id"), id)
	if errors.Is(err, errNotFound) {
		apiError(c, http.StatusNotFound, "weight entry not found")
		return
	}
	if err != nil {
		h.internalError(c, err, "failed to fetch weight entry")
		return
	}
	c.JSON(http.StatusOK, entry)
}

// updateWeight partially updates an entry. A new weight recomputes the BMI
// snapshot against the current profile height. PUT /api/weights/:id.
// Body: { "date"?, "weight_kg"? }.
func (h *Handler) updateWeight(c *gin.Context) {
	userID := c.GetInt("user_id")
	id, ok := parseID(c)
	if !ok {
		return
	}

	var body struct {
		Date     *string  `json:"date"`
		WeightKg *float64 `json:"weight_kg"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Date != nil {
		if _, err := time.Parse(dateLayout, *body.Date); err != nil {
			apiError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
			return
		}
	}
	u := weightUpdate{Date: body.Date, WeightKg: body.WeightKg}
	if body.WeightKg != nil {
		if err := profile.CheckWeight(*body.WeightKg); err != nil {
			apiError(c, http.StatusBadRequest, err.Error())
			return
		}
		height, ok := h.profileHeight(c, userID)
		if !ok {
			return
		}
		u.BMI = bmiSnapshot(*body.WeightKg, height)
	}

	entry, err := h.weights.updateWeight(c, userID, id, u)
	switch {
	case errors.Is(err, errNotFound):
		apiError(c, http.StatusNotFound, "weight entry not found")
		return
	case errors.Is(err, errDuplicateDate):
		apiError(c, http.StatusBadRequest, "a weight entry already exists for that date")
		return
	case err != nil:
		h.internalError(c, err, "failed to update weight entry")
		return
	}
	c.JSON(http.StatusOK, entry)
}

// deleteWeight removes an entry owned by the user. DELETE /api/weights/:id.
func (h *Handler) deleteWeight(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	err := h.weights.deleteWeight(c, c.GetInt("user_id"), id)
	if errors.Is(err, errNotFound) {
		apiError(c, http.StatusNotFound, "weight entry not found")
		return
	}
	if err != nil {
		h.internalError(c, err, "failed to delete weight entry")
		return
	}
	c.Status(http.StatusNoContent)
}
