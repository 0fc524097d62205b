package main

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"lg/fitness-tracker-api/internal/metabolism"
)

// userStats is the response shape for GET /api/users/stats.
type userStats struct {
	TrainingsCount  int       `json:"trainings_count"`
	MealsCount      int       `json:"meals_count"`
	CurrentWeightKg *float64  `json:"current_weight_kg"`
	BMI             *float64  `json:"bmi"`
	LastWeightDate  *DateOnly `json:"last_weight_date"`
}

// getProfile returns the authenticated user's profile. GET /api/users/profile.
func (h *Handler) getProfile(c *gin.Context) {
	h.me(c)
}

// updateProfile writes only the provided profile fields.
// PUT /api/users/profile.
func (h *Handler) updateProfile(c *gin.Context) {
	userID := c.GetInt("user_id")

	var body updateProfileRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Name != nil {
		trimmed := strings.TrimSpace(*body.Name)
		body.Name = &trimmed
	}
	if body.Email != nil {
		trimmed := strings.TrimSpace(*body.Email)
		body.Email = &trimmed
	}
	if msg := validateProfileFields(body.Name, body.Email, body.HeightCm, body.WeightKg, body.Goal); msg != "" {
		apiError(c, http.StatusBadRequest, msg)
		return
	}

	u, err := h.users.updateProfile(c, userID, body)
	switch {
	case errors.Is(err, errEmailTaken):
		apiError(c, http.StatusBadRequest, "this email is already used by another user")
		return
	case errors.Is(err, errUserNotFound):
		apiError(c, http.StatusNotFound, "user not found")
		return
	case err != nil:
		h.internalError(c, err, "failed to update profile")
		return
	}

	c.JSON(http.StatusOK, u)
}

// getUserStats returns activity counts and the latest weight with its BMI
// against the current profile height. GET /api/users/stats.
func (h *Handler) getUserStats(c *gin.Context) {
	userID := c.GetInt("user_id")

	var (
		stats userStats
		err   error
	)
	if stats.TrainingsCount, err = h.trainings.countTrainings(c, userID); err != nil {
		h.internalError(c, err, "failed to fetch stats")
		return
	}
	if stats.MealsCount, err = h.meals.countMeals(c, userID); err != nil {
		h.internalError(c, err, "failed to fetch stats")
		return
	}

	latest, err := h.weights.latestWeight(c, userID)
	if err != nil && !errors.Is(err, errNotFound) {
		h.internalError(c, err, "failed to fetch latest weight")
		return
	}
	if err == nil {
		stats.CurrentWeightKg = &latest.WeightKg
		stats.LastWeightDate = &latest.Date

		u, err := h.users.userByID(c, userID)
		if err != nil {
			h.internalError(c, err, "failed to fetch user")
			return
		}
		if u.HeightCm != nil {
			bmi := metabolism.BMI(latest.WeightKg, *u.HeightCm)
			stats.BMI = &bmi
		}
	}

	c.JSON(http.StatusOK, stats)
}

// deleteAccount removes the user and all owned records.
// DELETE /api/users/account.
func (h *Handler) deleteAccount(c *gin.Context) {
	userID := c.GetInt("user_id")

	err := h.users.deleteUser(c, userID)
	if errors.Is(err, errUserNotFound) {
		apiError(c, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		h.internalError(c, err, "failed to delete account")
		return
	}
	h.log.WithField("user_id", userID).Info("account deleted")
	c.JSON(http.StatusOK, gin.H{"message": "account deleted"})
}

// addMeasurement records a body measurement snapshot dated now.
// POST /api/users/measurements.
func (h *Handler) addMeasurement(c *gin.Context) {
	userID := c.GetInt("user_id")

	var body measurementRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	for _, v := range []*float64{body.WeightKg, body.ChestCm, body.WaistCm, body.HipCm, body.ArmCm, body.ThighCm} {
		if v != nil && *v <= 0 {
			apiError(c, http.StatusBadRequest, "measurements must be positive")
			return
		}
	}

	m, err := h.measurements.addMeasurement(c, userID, body)
	if err != nil {
		h.internalError(c, err, "failed to add measurement")
		return
	}

	c.JSON(http.StatusCreated, m)
}

// getMeasurements returns the 10 most recent measurements.
// GET /api/users/measurements.
func (h *Handler) getMeasurements(c *gin.Context) {
	ms, err := h.measurements.recentMeasurements(c, c.GetInt("user_id"), 10)
	if err != nil {
		h.internalError(c, err, "failed to fetch measurements")
		return
	}
	c.JSON(http.StatusOK, ms)
}
