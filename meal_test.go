package main

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFoodTotals(t *testing.T) {
	foods := []foodRequest{
		{Name: "Oats", Calories: 380, ProteinG: 13, CarbsG: 67, FatG: 7},
		{Name: "Milk", Calories: 120, ProteinG: 8.5, CarbsG: 12, FatG: 5},
	}
	assert.Equal(t, nutritionTotals{Calories: 500, ProteinG: 21.5, CarbsG: 79, FatG: 12}, foodTotals(foods))
	assert.Equal(t, nutritionTotals{}, foodTotals(nil))
}

func TestMealTotals(t *testing.T) {
	meals := []meal{
		{TotalCalories: 500, TotalProteinG: 20, TotalCarbsG: 60, TotalFatG: 10},
		{TotalCalories: 700, TotalProteinG: 45, TotalCarbsG: 50, TotalFatG: 30},
	}
	assert.Equal(t, nutritionTotals{Calories: 1200, ProteinG: 65, CarbsG: 110, FatG: 40}, mealTotals(meals))
}

func TestValidateFoods(t *testing.T) {
	assert.Empty(t, validateFoods([]foodRequest{{Name: "Rice", Calories: 200}}))
	assert.Equal(t, "every food needs a name", validateFoods([]foodRequest{{Name: "  "}}))
	assert.Equal(t, "food nutrition values must not be negative", validateFoods([]foodRequest{{Name: "Rice", FatG: -1}}))
}

func TestMealHandlersRejectBadInput(t *testing.T) {
	h := newTestHandler(newMemStore())
	router := gin.New()
	asUser(router, http.MethodGet, "/api/meals", 1, h.getMeals)
	asUser(router, http.MethodPost, "/api/meals", 1, h.createMeal)
	asUser(router, http.MethodGet, "/api/meals/daily-nutrition", 1, h.getDailyNutrition)
	asUser(router, http.MethodPut, "/api/meals/:id", 1, h.updateMeal)
	asUser(router, http.MethodDelete, "/api/meals/:id", 1, h.deleteMeal)

	cases := []struct {
		method, path, body, want string
	}{
		{http.MethodGet, "/api/meals?limit=500", "", "limit must be between 1 and 100"},
		{http.MethodGet, "/api/meals?date=yesterday", "", "invalid date, expected YYYY-MM-DD"},
		{http.MethodPost, "/api/meals", `{"type":"lunch"}`, "date and type are required"},
		{http.MethodPost, "/api/meals", `{"date":"2026-02-30","type":"lunch"}`, "invalid date, expected YYYY-MM-DD"},
		{http.MethodPost, "/api/meals", `{"date":"2026-03-01","type":"brunch"}`, "type must be one of: breakfast, lunch, snack, dinner, supper"},
		{http.MethodPost, "/api/meals", `{"date":"2026-03-01","type":"lunch","foods":[{"name":""}]}`, "every food needs a name"},
		{http.MethodGet, "/api/meals/daily-nutrition", "", "date is required"},
		{http.MethodGet, "/api/meals/daily-nutrition?date=03-01-2026", "", "invalid date, expected YYYY-MM-DD"},
		{http.MethodPut, "/api/meals/x", `{}`, "invalid id"},
		{http.MethodPut, "/api/meals/1", `{"type":"elevenses"}`, "type must be one of: breakfast, lunch, snack, dinner, supper"},
		{http.MethodPut, "/api/meals/1", `{"foods":[{"name":"Egg","calories":-5}]}`, "food nutrition values must not be negative"},
		{http.MethodDelete, "/api/meals/0", "", "invalid id"},
	}
	for _, tc := range cases {
		w := doJSON(router, tc.method, tc.path, tc.body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "%s %s", tc.method, tc.path)
		assert.Equal(t, tc.want, decode(t, w)["error"], "%s %s", tc.method, tc.path)
	}
}

func mealRouter(h *Handler, userID int) *gin.Engine {
	router := gin.New()
	asUser(router, http.MethodGet, "/api/meals", userID, h.getMeals)
	asUser(router, http.MethodPost, "/api/meals", userID, h.createMeal)
	asUser(router, http.MethodGet, "/api/meals/daily-nutrition", userID, h.getDailyNutrition)
	asUser(router, http.MethodGet, "/api/meals/:id", userID, h.getMeal)
	asUser(router, http.MethodPut, "/api/meals/:id", userID, h.updateMeal)
	asUser(router, http.MethodDelete, "/api/meals/:id", userID, h.deleteMeal)
	return router
}

const breakfastBody = `{"date":"2026-03-01","type":"breakfast","foods":[
	{"name":" Oats ","calories":380,"protein_g":13,"carbs_g":67,"fat_g":7},
	{"name":"Milk","calories":120,"protein_g":8.5,"carbs_g":12,"fat_g":5}]}`

func TestCreateMealDerivesTotals(t *testing.T) {
	router := mealRouter(newTestHandler(newMemStore(profileUser())), 1)

	w := doJSON(router, http.MethodPost, "/api/meals", breakfastBody)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "2026-03-01", body["date"])
	assert.Equal(t, 500.0, body["total_calories"])
	assert.Equal(t, 21.5, body["total_protein_g"])
	assert.Equal(t, 79.0, body["total_carbs_g"])
	assert.Equal(t, 12.0, body["total_fat_g"])

	foods := body["foods"].([]any)
	require.Len(t, foods, 2)
	assert.Equal(t, "Oats", foods[0].(map[string]any)["name"])

	w = doJSON(router, http.MethodGet, fmt.Sprintf("/api/meals/%d", idOf(t, body)), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["foods"], 2)
}

func TestCreateMealWithoutFoods(t *testing.T) {
	router := mealRouter(newTestHandler(newMemStore(profileUser())), 1)

	w := doJSON(router, http.MethodPost, "/api/meals", `{"date":"2026-03-01","type":"snack"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	body := decode(t, w)
	assert.Equal(t, 0.0, body["total_calories"])
	assert.Equal(t, []any{}, body["foods"])
}

// Replacing the foods recomputes every total; omitted fields are kept.
func TestUpdateMealReplacesFoods(t *testing.T) {
	router := mealRouter(newTestHandler(newMemStore(profileUser())), 1)
	id := idOf(t, decode(t, doJSON(router, http.MethodPost, "/api/meals", breakfastBody)))
	path := fmt.Sprintf("/api/meals/%d", id)

	w := doJSON(router, http.MethodPut, path, `{"foods":[{"name":"Egg","calories":70,"protein_g":6,"carbs_g":0.5,"fat_g":5}]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, 70.0, body["total_calories"])
	assert.Equal(t, 6.0, body["total_protein_g"])
	assert.Equal(t, 0.5, body["total_carbs_g"])
	assert.Equal(t, "breakfast", body["type"])
	assert.Len(t, body["foods"], 1)

	w = doJSON(router, http.MethodPut, path, `{"type":"lunch","date":"2026-03-02"}`)
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.Equal(t, "lunch", body["type"])
	assert.Equal(t, "2026-03-02", body["date"])
	assert.Equal(t, 70.0, body["total_calories"], "totals are kept when foods are omitted")
	assert.Len(t, body["foods"], 1)
}

func TestListMealsAndDailyNutrition(t *testing.T) {
	router := mealRouter(newTestHandler(newMemStore(profileUser())), 1)
	for _, body := range []string{
		`{"date":"2026-03-01","type":"breakfast","foods":[{"name":"Egg","calories":70,"protein_g":6,"carbs_g":0.5,"fat_g":5}]}`,
		`{"date":"2026-03-01","type":"lunch","foods":[{"name":"Pasta","calories":600,"protein_g":40,"carbs_g":50,"fat_g":20}]}`,
		`{"date":"2026-03-03","type":"dinner","foods":[{"name":"Soup","calories":300}]}`,
	} {
		require.Equal(t, http.StatusCreated, doJSON(router, http.MethodPost, "/api/meals", body).Code)
	}

	w := doJSON(router, http.MethodGet, "/api/meals/daily-nutrition?date=2026-03-01", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "2026-03-01", body["date"])
	assert.Equal(t, 2.0, body["meals"])
	assert.Equal(t, map[string]any{"calories": 670.0, "protein_g": 46.0, "carbs_g": 50.5, "fat_g": 25.0}, body["totals"])

	w = doJSON(router, http.MethodGet, "/api/meals", "")
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	meals := body["meals"].([]any)
	require.Len(t, meals, 3)
	assert.Equal(t, "2026-03-03", meals[0].(map[string]any)["date"], "newest first")
	assert.Equal(t, map[string]any{"current": 1.0, "total": 1.0, "count": 3.0}, body["pagination"])

	w = doJSON(router, http.MethodGet, "/api/meals?date=2026-03-01&limit=1&page=2", "")
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.Len(t, body["meals"], 1)
	assert.Equal(t, map[string]any{"current": 2.0, "total": 2.0, "count": 2.0}, body["pagination"])

	w = doJSON(router, http.MethodGet, "/api/meals/daily-nutrition?date=2026-01-01", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0.0, decode(t, w)["meals"])
}

// A meal owned by someone else looks exactly like a missing one.
func TestMealOwnership(t *testing.T) {
	h := newTestHandler(newMemStore(profileUser()))
	owner, other := mealRouter(h, 1), mealRouter(h, 2)
	path := fmt.Sprintf("/api/meals/%d", idOf(t, decode(t, doJSON(owner, http.MethodPost, "/api/meals", breakfastBody))))

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		w := doJSON(other, method, path, `{"type":"lunch"}`)
		assert.Equal(t, http.StatusNotFound, w.Code, method)
		assert.Equal(t, "meal not found", decode(t, w)["error"], method)
	}
	assert.Empty(t, decode(t, doJSON(other, http.MethodGet, "/api/meals", ""))["meals"])

	w := doJSON(owner, http.MethodDelete, path, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "meal deleted", decode(t, w)["message"])
	assert.Equal(t, http.StatusNotFound, doJSON(owner, http.MethodGet, path, "").Code)
}

func TestMealStoreFailure(t *testing.T) {
	router := mealRouter(newTestHandler(&memStore{err: errors.New("db down")}), 1)

	w := doJSON(router, http.MethodGet, "/api/meals", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "failed to fetch meals", decode(t, w)["error"])

	w = doJSON(router, http.MethodPost, "/api/meals", breakfastBody)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "failed to create meal", decode(t, w)["error"])
}
