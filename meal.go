package main

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// validMealTypes is the set of allowed meal types. Unknown values get a 400
// rather than a cryptic DB constraint error.
var validMealTypes = map[string]bool{
	"breakfast": true,
	"lunch":     true,
	"snack":     true,
	"dinner":    true,
	"supper":    true,
}

// nutritionTotals sums calories and macros.
type nutritionTotals struct {
	Calories float64 `json:"calories"`
	ProteinG float64 `json:"protein_g"`
	CarbsG   float64 `json:"carbs_g"`
	FatG     float64 `json:"fat_g"`
}

// foodTotals adds up the nutrition of a meal's food lines.
func foodTotals(foods []foodRequest) nutritionTotals {
	var t nutritionTotals
	for _, f := range foods {
		t.Calories += f.Calories
		t.ProteinG += f.ProteinG
		t.CarbsG += f.CarbsG
		t.FatG += f.FatG
	}
	return t
}

// mealTotals adds up the stored totals of several meals.
func mealTotals(meals []meal) nutritionTotals {
	var t nutritionTotals
	for _, m := range meals {
		t.Calories += m.TotalCalories
		t.ProteinG += m.TotalProteinG
		t.CarbsG += m.TotalCarbsG
		t.FatG += m.TotalFatG
	}
	return t
}

// validateFoods rejects unnamed or negative food lines.
func validateFoods(foods []foodRequest) string {
	for _, f := range foods {
		if strings.TrimSpace(f.Name) == "" {
			return "every food needs a name"
		}
		if f.Calories < 0 || f.ProteinG < 0 || f.CarbsG < 0 || f.FatG < 0 {
			return "food nutrition values must not be negative"
		}
	}
	return ""
}

// getMeals returns the user's meals, newest first, optionally for one date.
// GET /api/meals?date=YYYY-MM-DD&page=1&limit=10.
func (h *Handler) getMeals(c *gin.Context) {
	page, limit, ok := parsePagination(c, 10)
	if !ok {
		return
	}
	date := c.Query("date")
	if date != "" {
		if _, err := time.Parse(dateLayout, date); err != nil {
			apiError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
			return
		}
	}

	meals, count, err := h.meals.listMeals(c, c.GetInt("user_id"), date, pageRequest{Page: page, Limit: limit})
	if err != nil {
		h.internalError(c, err, "failed to fetch meals")
		return
	}
	c.JSON(http.StatusOK, gin.H{"meals": meals, "pagination": newPagination(page, limit, count)})
}

// createMeal inserts a meal and its foods. Totals are derived from the
// foods. POST /api/meals.
func (h *Handler) createMeal(c *gin.Context) {
	var body createMealRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Date == "" || body.Type == "" {
		apiError(c, http.StatusBadRequest, "date and type are required")
		return
	}
	if _, err := time.Parse(dateLayout, body.Date); err != nil {
		apiError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}
	if !validMealTypes[body.Type] {
		apiError(c, http.StatusBadRequest, "type must be one of: breakfast, lunch, snack, dinner, supper")
		return
	}
	if msg := validateFoods(body.Foods); msg != "" {
		apiError(c, http.StatusBadRequest, msg)
		return
	}

	m, err := h.meals.createMeal(c, c.GetInt("user_id"), newMeal{
		Date: body.Date, Type: body.Type, Foods: body.Foods, Totals: foodTotals(body.Foods),
	})
	if err != nil {
		h.internalError(c, err, "failed to create meal")
		return
	}
	c.JSON(http.StatusCreated, m)
}

// getMeal returns one meal with its foods. GET /api/meals/:id.
func (h *Handler) getMeal(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	m, err := h.meals.mealByID(c, c.GetInt("user_id"), id)
	if errors.Is(err, errNotFound) {
		apiError(c, http.StatusNotFound, "meal not found")
		return
	}
	if err != nil {
		h.internalError(c, err, "failed to fetch meal")
		return
	}
	c.JSON(http.StatusOK, m)
}

// updateMeal replaces the meal's foods and recomputes totals when foods is
// present; date and type change only when provided. PUT /api/meals/:id.
func (h *Handler) updateMeal(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var body struct {
		Date  *string        `json:"date"`
		Type  *string        `json:"type"`
		Foods *[]foodRequest `json:"foods"`
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
	if body.Type != nil && !validMealTypes[*body.Type] {
		apiError(c, http.StatusBadRequest, "type must be one of: breakfast, lunch, snack, dinner, supper")
		return
	}
	u := mealUpdate{Date: body.Date, Type: body.Type, Foods: body.Foods}
	if body.Foods != nil {
		if msg := validateFoods(*body.Foods); msg != "" {
			apiError(c, http.StatusBadRequest, msg)
			return
		}
		u.Totals = foodTotals(*body.Foods)
	}

	m, err := h.meals.updateMeal(c, c.GetInt("user_id"), id, u)
	if errors.Is(err, errNotFound) {
		apiError(c, http.StatusNotFound, "meal not found")
		return
	}
	if err != nil {
		h.internalError(c, err, "failed to update meal")
		return
	}
	c.JSON(http.StatusOK, m)
}

// deleteMeal removes a meal with its foods. DELETE /api/meals/:id.
func (h *Handler) deleteMeal(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	err := h.meals.deleteMeal(c, c.GetInt("user_id"), id)
	if errors.Is(err, errNotFound) {
		apiError(c, http.StatusNotFound, "meal not found")
		return
	}
	if err != nil {
		h.internalError(c, err, "failed to delete meal")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "meal deleted"})
}

// getDailyNutrition sums the totals of every meal on date.
// GET /api/meals/daily-nutrition?date=YYYY-MM-DD (date required).
func (h *Handler) getDailyNutrition(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		apiError(c, http.StatusBadRequest, "date is required")
		return
	}
	if _, err := time.Parse(dateLayout, date); err != nil {
		apiError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	meals, err := h.meals.mealsOn(c, c.GetInt("user_id"), date)
	if err != nil {
		h.internalError(c, err, "failed to fetch meals")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"date":   date,
		"meals":  len(meals),
		"totals": mealTotals(meals),
	})
}
