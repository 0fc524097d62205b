package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"lg/fitness-tracker-api/internal/config"
)

// Handler holds shared dependencies for all route handlers. All storage goes
// through the embedded stores so tests can swap in an in-memory fake.
type Handler struct {
	stores
	tokens  *tokenIssuer
	log     *logrus.Logger
	metrics *metrics

	waterDailyGoalMl int
}

func newHandler(cfg config.Config, s stores, log *logrus.Logger, m *metrics) *Handler {
	return &Handler{
		stores:           s,
		tokens:           newTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		log:              log,
		metrics:          m,
		waterDailyGoalMl: cfg.Water.DailyGoalMl,
	}
}

/* ─── Database helpers ────────────────────────────────────────────────── */

// querier is satisfied by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// queryOne runs a query and scans the first row into T using RowToStructByName.
// Returns pgx.ErrNoRows when the query matched nothing.
func queryOne[T any](q querier, ctx context.Context, sql string, args pgx.NamedArgs) (T, error) {
	rows, err := q.Query(ctx, sql, args)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("query: %w", err)
	}
	return pgx.CollectOneRow(rows, pgx.RowToStructByName[T])
}

// queryMany runs a query and scans all rows into []T using RowToStructByName.
// Never returns a nil slice on success, so JSON renders [] instead of null.
func queryMany[T any](q querier, ctx context.Context, sql string, args pgx.NamedArgs) ([]T, error) {
	rows, err := q.Query(ctx, sql, args)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	results, err := pgx.CollectRows(rows, pgx.RowToStructByName[T])
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []T{}
	}
	return results, nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique_violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// apiError returns a consistent JSON error response: {"error": "message"}.
func apiError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// internalError logs err with request context and answers 500 with message.
func (h *Handler) internalError(c *gin.Context, err error, message string) {
	h.log.WithError(err).WithFields(logrus.Fields{
		"user_id": c.GetInt("user_id"),
		"path":    c.FullPath(),
	}).Error(message)
	apiError(c, http.StatusInternalServerError, message)
}

/* ─── Request parsing helpers ─────────────────────────────────────────── */

// parseID reads the :id path parameter as a positive integer.
func parseID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		apiError(c, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

// parsePagination reads page and limit query params. page defaults to 1,
// limit to defaultLimit and is capped at 100.
func parsePagination(c *gin.Context, defaultLimit int) (page, limit int, ok bool) {
	page, limit = 1, defaultLimit
	if s := c.Query("page"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			apiError(c, http.StatusBadRequest, "page must be a positive integer")
			return 0, 0, false
		}
		page = n
	}
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 100 {
			apiError(c, http.StatusBadRequest, "limit must be between 1 and 100")
			return 0, 0, false
		}
		limit = n
	}
	return page, limit, true
}

func newPagination(page, limit, count int) pagination {
	return pagination{
		Current: page,
		Total:   int(math.Ceil(float64(count) / float64(limit))),
		Count:   count,
	}
}

// parseDateParam validates an optional YYYY-MM-DD value; empty means today.
func parseDateParam(s string) (string, error) {
	if s == "" {
		return time.Now().Format(dateLayout), nil
	}
	if _, err := time.Parse(dateLayout, s); err != nil {
		return "", err
	}
	return s, nil
}

// parseDaysParam reads a look-back window in days (1..365).
func parseDaysParam(c *gin.Context, def int) (int, bool) {
	s := c.Query("days")
	if s == "" {
		return def, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 365 {
		apiError(c, http.StatusBadRequest, "days must be between 1 and 365")
		return 0, false
	}
	return n, true
}

// periodRange returns the inclusive [start, end] date strings of a window of
// exactly days calendar days ending today.
func periodRange(days int, now time.Time) (start, end string) {
	return now.AddDate(0, 0, -(days - 1)).Format(dateLayout), now.Format(dateLayout)
}

// round1 rounds to one decimal place.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

/* ─── Server setup ────────────────────────────────────────────────────── */

// getDBPool creates a connection pool. A pool (not a single conn) survives
// the server closing idle connections.
func getDBPool(ctx context.Context, url string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse DB URL: %w", err)
	}
	// Simple protocol avoids "cached plan must not change result type" after migrations.
	cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}

// registerRoutes registers all API routes on the router.
func (h *Handler) registerRoutes(router *gin.Engine) {
	router.GET("/api/health", h.health)

	// Public routes
	router.POST("/api/auth/register", h.register)
	router.POST("/api/auth/login", h.login)

	// Authenticated routes
	api := router.Group("/api", h.authMiddleware())
	api.GET("/auth/me", h.me)

	api.GET("/users/profile", h.getProfile)
	api.PUT("/users/profile", h.updateProfile)
	api.GET("/users/stats", h.getUserStats)
	api.DELETE("/users/account", h.deleteAccount)
	api.POST("/users/measurements", h.addMeasurement)
	api.GET("/users/measurements", h.getMeasurements)

	api.GET("/meals", h.getMeals)
	api.POST("/meals", h.createMeal)
	api.GET("/meals/daily-nutrition", h.getDailyNutrition)
	api.GET("/meals/:id", h.getMeal)
	api.PUT("/meals/:id", h.updateMeal)
	api.DELETE("/meals/:id", h.deleteMeal)

	api.GET("/trainings", h.getTrainings)
	api.POST("/trainings", h.createTraining)
	api.GET("/trainings/:id", h.getTraining)
	api.PUT("/trainings/:id", h.updateTraining)
	api.DELETE("/trainings/:id", h.deleteTraining)

	api.GET("/water", h.getWaterLogs)
	api.POST("/water", h.addWaterIntake)
	api.GET("/water/daily", h.getDailyWater)
	api.GET("/water/stats", h.getWaterStats)
	api.PUT("/water/:id", h.updateWaterIntake)
	api.DELETE("/water/:id", h.deleteWaterLog)

	api.GET("/weights", h.getWeights)
	api.POST("/weights", h.addWeight)
	api.GET("/weights/latest", h.getLatestWeight)
	api.GET("/weights/stats", h.getWeightStats)
	api.GET("/weights/:id", h.getWeight)
	api.PUT("/weights/:id", h.updateWeight)
	api.DELETE("/weights/:id", h.deleteWeight)

	api.POST("/metabolism/calculate", h.calculateMetabolism)
	api.PUT("/metabolism/update", h.calculateMetabolism)

	router.NoRoute(func(c *gin.Context) {
		apiError(c, http.StatusNotFound, "route not found")
	})
}

// health reports liveness. GET /api/health (public).
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "OK", "timestamp": time.Now().UTC().Format(time.RFC3339)})
}
