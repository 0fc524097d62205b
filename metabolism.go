package main

import (
	"errors"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"

	"lg/fitness-tracker-api/internal/metabolism"
)

// metabolismRequest is the body for POST /api/metabolism/calculate.
type metabolismRequest struct {
	Age           *int   `json:"age"`
	Gender        string `json:"gender"`
	ActivityLevel string `json:"activity_level"`
}

type metabolismUser struct {
	WeightKg float64 `json:"weight_kg"`
	HeightCm float64 `json:"height_cm"`
	Goal     *string `json:"goal"`
	BMI      float64 `json:"bmi"`
}

type metabolicFigures struct {
	BMR            int `json:"bmr"`
	TDEE           int `json:"tdee"`
	TargetCalories int `json:"target_calories"`
	WaterNeedsMl   int `json:"water_needs_ml"`
}

type metabolismResponse struct {
	User            metabolismUser            `json:"user"`
	Metabolic       metabolicFigures          `json:"metabolic"`
	Macros          metabolism.MacroBreakdown `json:"macros"`
	Recommendations []string                  `json:"recommendations"`
}

// validateMetabolismInput enforces the ranges the core trusts callers to
// have checked. Runs after the presence checks in metabolism.Validate.
func validateMetabolismInput(body metabolismRequest) string {
	if *body.Age < 16 || *body.Age > 100 {
		return "age must be between 16 and 100"
	}
	if !metabolism.ValidGender(body.Gender) {
		return "gender must be male or female"
	}
	if !metabolism.ValidActivityLevel(body.ActivityLevel) {
		return "activity_level must be one of: sedentary, light, moderate, intense, very_intense"
	}
	return ""
}

// calculateMetabolism computes BMI, BMR, TDEE, calorie target, macros and
// water needs from the stored profile plus the request's age, gender and
// activity level. Nothing is persisted.
// POST /api/metabolism/calculate and PUT /api/metabolism/update.
func (h *Handler) calculateMetabolism(c *gin.Context) {
	userID := c.GetInt("user_id")

	var body metabolismRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.users.userByID(c, userID)
	if errors.Is(err, errUserNotFound) {
		apiError(c, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		h.internalError(c, err, "failed to fetch user")
		return
	}

	profile := metabolism.Profile{HeightCm: u.HeightCm, WeightKg: u.WeightKg}
	if u.Goal != nil {
		profile.Goal = *u.Goal
	}
	input := metabolism.Input{Age: body.Age, Gender: body.Gender, ActivityLevel: body.ActivityLevel}

	if err := metabolism.Validate(profile, input); err != nil {
		h.metrics.observeMetabolism("invalid")
		switch {
		case errors.Is(err, metabolism.ErrMissingProfileData):
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   err.Error(),
				"message": "please update your profile with height and weight",
			})
		default:
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   err.Error(),
				"message": "age, gender and activity_level must be provided",
			})
		}
		return
	}
	if msg := validateMetabolismInput(body); msg != "" {
		h.metrics.observeMetabolism("invalid")
		apiError(c, http.StatusBadRequest, msg)
		return
	}

	res, err := metabolism.Calculate(profile, input)
	if err != nil {
		// Unreachable once Validate has passed.
		h.internalError(c, err, "metabolic calculation failed")
		return
	}
	h.metrics.observeMetabolism("ok")

	c.JSON(http.StatusOK, gin.H{
		"message": "metabolic calculations completed",
		"data": metabolismResponse{
			User: metabolismUser{
				WeightKg: *profile.WeightKg,
				HeightCm: *profile.HeightCm,
				Goal:     u.Goal,
				BMI:      res.BMI,
			},
			Metabolic: metabolicFigures{
				BMR:            int(math.Round(res.BMR)),
				TDEE:           int(math.Round(res.TDEE)),
				TargetCalories: res.TargetCalories,
				WaterNeedsMl:   res.WaterNeedsMl,
			},
			Macros:          res.Macros,
			Recommendations: res.Recommendations,
		},
	})
}
