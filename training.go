package main

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	trainingBodybuilding = "bodybuilding"
	trainingRunning      = "running"
)

// validateTraining checks a create body. Exercises are only meaningful for
// bodybuilding, a run only for running; the other is ignored.
func validateTraining(body createTrainingRequest) string {
	if body.Type != trainingBodybuilding && body.Type != trainingRunning {
		return "type must be one of: bodybuilding, running"
	}
	if _, err := time.Parse(dateLayout, body.Date); err != nil {
		return "invalid date, expected YYYY-MM-DD"
	}
	if body.Type == trainingBodybuilding {
		return validateExercises(body.Exercises)
	}
	return validateRun(body.Run)
}

func validateExercises(exs []exerciseRequest) string {
	for _, e := range exs {
		if strings.TrimSpace(e.Name) == "" {
			return "every exercise needs a name"
		}
		if (e.Sets != nil && *e.Sets < 0) || (e.Reps != nil && *e.Reps < 0) || (e.WeightKg != nil && *e.WeightKg < 0) {
			return "exercise values must not be negative"
		}
	}
	return ""
}

func validateRun(r *runRequest) string {
	if r == nil {
		return ""
	}
	for _, v := range []*float64{r.DistanceKm, r.DurationMin, r.PaceMinPerKm} {
		if v != nil && *v < 0 {
			return "run values must not be negative"
		}
	}
	return ""
}

// runPace fills in the pace from distance and duration when the caller
// left it out.
func runPace(r runRequest) *float64 {
	if r.PaceMinPerKm != nil {
		return r.PaceMinPerKm
	}
	if r.DistanceKm == nil || r.DurationMin == nil || *r.DistanceKm <= 0 {
		return nil
	}
	pace := round1(*r.DurationMin / *r.DistanceKm)
	return &pace
}

// withPace returns r with the pace derived when it was left out.
func withPace(r *runRequest) *runRequest {
	if r == nil {
		return nil
	}
	out := *r
	out.PaceMinPerKm = runPace(out)
	return &out
}

// getTrainings returns the user's trainings, newest first.
// GET /api/trainings?type=running&page=1&limit=10.
func (h *Handler) getTrainings(c *gin.Context) {
	page, limit, ok := parsePagination(c, 10)
	if !ok {
		return
	}
	typ := c.Query("type")
	if typ != "" && typ != trainingBodybuilding && typ != trainingRunning {
		apiError(c, http.StatusBadRequest, "type must be one of: bodybuilding, running")
		return
	}

	trainings, count, err := h.trainings.listTrainings(c, c.GetInt("user_id"), typ, pageRequest{Page: page, Limit: limit})
	if err != nil {
		h.internalError(c, err, "failed to fetch trainings")
		return
	}
	c.JSON(http.StatusOK, gin.H{"trainings": trainings, "pagination": newPagination(page, limit, count)})
}

// createTraining inserts a session with its exercises or run.
// POST /api/trainings.
func (h *Handler) createTraining(c *gin.Context) {
	var body createTrainingRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Type == "" || body.Date == "" {
		apiError(c, http.StatusBadRequest, "type and date are required")
		return
	}
	if msg := validateTraining(body); msg != "" {
		apiError(c, http.StatusBadRequest, msg)
		return
	}
	if body.Type == trainingBodybuilding {
		body.Run = nil
	} else {
		body.Exercises = nil
		body.Run = withPace(body.Run)
	}

	t, err := h.trainings.createTraining(c, c.GetInt("user_id"), body)
	if err != nil {
		h.internalError(c, err, "failed to create training")
		return
	}
	c.JSON(http.StatusCreated, t)
}

// getTraining returns one session with its details. GET /api/trainings/:id.
func (h *Handler) getTraining(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	t, err := h.trainings.trainingByID(c, c.GetInt("user_id"), id)
	if errors.Is(err, errNotFound) {
		apiError(c, http.StatusNotFound, "training not found")
		return
	}
	if err != nil {
		h.internalError(c, err, "failed to fetch training")
		return
	}
	c.JSON(http.StatusOK, t)
}

// updateTraining changes date and notes when provided. For bodybuilding a
// present exercises list replaces the old one; for running a present run is
// upserted. The type itself is immutable. PUT /api/trainings/:id.
func (h *Handler) updateTraining(c *gin.Context) {
	userID := c.GetInt("user_id")
	id, ok := parseID(c)
	if !ok {
		return
	}

	var body struct {
		Date      *string            `json:"date"`
		Notes     *string            `json:"notes"`
		Exercises *[]exerciseRequest `json:"exercises"`
		Run       *runRequest        `json:"run"`
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
	if body.Exercises != nil {
		if msg := validateExercises(*body.Exercises); msg != "" {
			apiError(c, http.StatusBadRequest, msg)
			return
		}
	}
	if msg := validateRun(body.Run); msg != "" {
		apiError(c, http.StatusBadRequest, msg)
		return
	}

	existing, err := h.trainings.trainingByID(c, userID, id)
	if errors.Is(err, errNotFound) {
		apiError(c, http.StatusNotFound, "training not found")
		return
	}
	if err != nil {
		h.internalError(c, err, "failed to fetch training")
		return
	}

	u := trainingUpdate{Date: body.Date, Notes: body.Notes}
	if existing.Type == trainingBodybuilding {
		u.Exercises = body.Exercises
	} else {
		u.Run = withPace(body.Run)
	}

	t, err := h.trainings.updateTraining(c, userID, id, u)
	if errors.Is(err, errNotFound) {
		apiError(c, http.StatusNotFound, "training not found")
		return
	}
	if err != nil {
		h.internalError(c, err, "failed to update training")
		return
	}
	c.JSON(http.StatusOK, t)
}

// deleteTraining removes a session with its details.
// DELETE /api/trainings/:id.
func (h *Handler) deleteTraining(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	err := h.trainings.deleteTraining(c, c.GetInt("user_id"), id)
	if errors.Is(err, errNotFound) {
		apiError(c, http.StatusNotFound, "training not found")
		return
	}
	if err != nil {
		h.internalError(c, err, "failed to delete training")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "training deleted"})
}
