package main

import (
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// waterDaily is the progress of one day against the daily goal.
type waterDaily struct {
	Date        string  `json:"date"`
	ConsumedMl  int     `json:"consumed_ml"`
	GoalMl      int     `json:"goal_ml"`
	Percentage  float64 `json:"percentage"`
	RemainingMl int     `json:"remaining_ml"`
}

// dailyWater computes progress for a day. Percentage is capped at 100 and
// remaining never drops below zero.
func dailyWater(date string, consumed, goal int) waterDaily {
	d := waterDaily{Date: date, ConsumedMl: consumed, GoalMl: goal}
	if goal > 0 {
		d.Percentage = math.Min(100, round1(float64(consumed)*100/float64(goal)))
	}
	d.RemainingMl = max(0, goal-consumed)
	return d
}

// waterStats summarizes a period of water logs.
type waterStats struct {
	PeriodDays     int     `json:"period_days"`
	TotalMl        int     `json:"total_ml"`
	AverageMl      float64 `json:"average_ml"`
	MaxMl          int     `json:"max_ml"`
	DaysTracked    int     `json:"days_tracked"`
	DaysGoalMet    int     `json:"days_goal_met"`
	GoalPercentage float64 `json:"goal_percentage"`
	GoalMl         int     `json:"goal_ml"`
}

// summarizeWater aggregates logs. The average is over tracked days; the
// goal percentage is the share of tracked days that met the goal.
func summarizeWater(logs []waterLog, days, goal int) waterStats {
	s := waterStats{PeriodDays: days, GoalMl: goal, DaysTracked: len(logs)}
	for _, l := range logs {
		s.TotalMl += l.MlConsumed
		s.MaxMl = max(s.MaxMl, l.MlConsumed)
		if l.MlConsumed >= goal {
			s.DaysGoalMet++
		}
	}
	if s.DaysTracked > 0 {
		s.AverageMl = round1(float64(s.TotalMl) / float64(s.DaysTracked))
		s.GoalPercentage = round1(float64(s.DaysGoalMet) * 100 / float64(s.DaysTracked))
	}
	return s
}

// getWaterLogs returns daily water totals, newest first.
// GET /api/water?date=YYYY-MM-DD&page=1&limit=30.
func (h *Handler) getWaterLogs(c *gin.Context) {
	page, limit, ok := parsePagination(c, 30)
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

	logs, count, err := h.water.listWater(c, c.GetInt("user_id"), date, pageRequest{Page: page, Limit: limit})
	if err != nil {
		h.internalError(c, err, "failed to fetch water logs")
		return
	}
	c.JSON(http.StatusOK, gin.H{"water_logs": logs, "pagination": newPagination(page, limit, count)})
}

func validWaterAmount(ml int) bool {
	return ml > 0 && ml <= 10000
}

// addWaterIntake adds amount_ml to the day's total, creating the row on
// first intake. POST /api/water. Body: { "amount_ml": 250, "date"? }.
func (h *Handler) addWaterIntake(c *gin.Context) {
	var body struct {
		AmountMl int    `json:"amount_ml"`
		Date     string `json:"date"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if !validWaterAmount(body.AmountMl) {
		apiError(c, http.StatusBadRequest, "amount_ml must be between 1 and 10000")
		return
	}
	date, err := parseDateParam(body.Date)
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	entry, err := h.water.addWater(c, c.GetInt("user_id"), date, body.AmountMl)
	if err != nil {
		h.internalError(c, err, "failed to add water intake")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"water_log": entry,
		"daily":     dailyWater(date, entry.MlConsumed, h.waterDailyGoalMl),
	})
}

// getDailyWater reports progress for a day (default today).
// GET /api/water/daily?date=YYYY-MM-DD.
func (h *Handler) getDailyWater(c *gin.Context) {
	date, err := parseDateParam(c.Query("date"))
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	consumed, err := h.water.waterOn(c, c.GetInt("user_id"), date)
	if err != nil {
		h.internalError(c, err, "failed to fetch daily water")
		return
	}
	c.JSON(http.StatusOK, dailyWater(date, consumed, h.waterDailyGoalMl))
}

// getWaterStats summarizes the last days days (default 7).
// GET /api/water/stats?days=7.
func (h *Handler) getWaterStats(c *gin.Context) {
	days, ok := parseDaysParam(c, 7)
	if !ok {
		return
	}
	start, end := periodRange(days, time.Now())

	logs, err := h.water.waterBetween(c, c.GetInt("user_id"), start, end)
	if err != nil {
		h.internalError(c, err, "failed to fetch water stats")
		return
	}
	c.JSON(http.StatusOK, summarizeWater(logs, days, h.waterDailyGoalMl))
}

// updateWaterIntake replaces a day's total. PUT /api/water/:id.
// Body: { "amount_ml": 1500 }.
func (h *Handler) updateWaterIntake(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var body struct {
		AmountMl int `json:"amount_ml"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if !validWaterAmount(body.AmountMl) {
		apiError(c, http.StatusBadRequest, "amount_ml must be between 1 and 10000")
		return
	}

	entry, err := h.water.setWater(c, c.GetInt("user_id"), id, body.AmountMl)
	if errors.Is(err, errNotFound) {
		apiError(c, http.StatusNotFound, "water log not found")
		return
	}
	if err != nil {
		h.internalError(c, err, "failed to update water log")
		return
	}
	c.JSON(http.StatusOK, entry)
}

// deleteWaterLog removes a day's row. DELETE /api/water/:id.
func (h *Handler) deleteWaterLog(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	err := h.water.deleteWater(c, c.GetInt("user_id"), id)
	if errors.Is(err, errNotFound) {
		apiError(c, http.StatusNotFound, "water log not found")
		return
	}
	if err != nil {
		h.internalError(c, err, "failed to delete water log")
		return
	}
	c.Status(http.StatusNoContent)
}
