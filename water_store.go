package main

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// waterStore keeps one running total per user and day.
type waterStore interface {
	listWater(ctx context.Context, userID int, date string, p pageRequest) ([]waterLog, int, error)
	// addWater adds amountMl to the day's total, creating the row on first
	// intake, and returns the updated row.
	addWater(ctx context.Context, userID int, date string, amountMl int) (waterLog, error)
	waterOn(ctx context.Context, userID int, date string) (int, error)
	// waterBetween returns the rows in [start, end], oldest first.
	waterBetween(ctx context.Context, userID int, start, end string) ([]waterLog, error)
	setWater(ctx context.Context, userID, id, amountMl int) (waterLog, error)
	deleteWater(ctx context.Context, userID, id int) error
}

type pgWaterStore struct {
	db *pgxpool.Pool
}

func (s *pgWaterStore) listWater(ctx context.Context, userID int, date string, p pageRequest) ([]waterLog, int, error) {
	where := "user_id = @userID"
	args := pgx.NamedArgs{"userID": userID, "limit": p.Limit, "offset": p.offset()}
	if date != "" {
		where += " AND date = @date"
		args["date"] = date
	}

	logs, err := queryMany[waterLog](s.db, ctx,
		"SELECT * FROM water_logs WHERE "+where+" ORDER BY date DESC LIMIT @limit OFFSET @offset",
		args)
	if err != nil {
		return nil, 0, err
	}
	count, err := countRows(ctx, s.db, "SELECT COUNT(*) FROM water_logs WHERE "+where, args)
	if err != nil {
		return nil, 0, err
	}
	return logs, count, nil
}

func (s *pgWaterStore) addWater(ctx context.Context, userID int, date string, amountMl int) (waterLog, error) {
	return queryOne[waterLog](s.db, ctx,
		`INSERT INTO water_logs (user_id, date, ml_consumed)
		 VALUES (@userID, @date, @amount)
		 ON CONFLICT (user_id, date) DO UPDATE
		 SET ml_consumed = water_logs.ml_consumed + EXCLUDED.ml_consumed, updated_at = now()
		 RETURNING *`,
		pgx.NamedArgs{"userID": userID, "date": date, "amount": amountMl})
}

func (s *pgWaterStore) waterOn(ctx context.Context, userID int, date string) (int, error) {
	var consumed int
	err := s.db.QueryRow(ctx,
		"SELECT COALESCE(SUM(ml_consumed), 0) FROM water_logs WHERE user_id = @userID AND date = @date",
		pgx.NamedArgs{"userID": userID, "date": date}).Scan(&consumed)
	return consumed, err
}

func (s *pgWaterStore) waterBetween(ctx context.Context, userID int, start, end string) ([]waterLog, error) {
	return queryMany[waterLog](s.db, ctx,
		`SELECT * FROM water_logs
		 WHERE user_id = @userID AND date >= @start AND date <= @end
		 ORDER BY date ASC`,
		pgx.NamedArgs{"userID": userID, "start": start, "end": end})
}

func (s *pgWaterStore) setWater(ctx context.Context, userID, id, amountMl int) (waterLog, error) {
	l, err := queryOne[waterLog](s.db, ctx,
		`UPDATE water_logs SET ml_consumed = @amount, updated_at = now()
		 WHERE id = @id AND user_id = @userID
		 RETURNING *`,
		pgx.NamedArgs{"id": id, "userID": userID, "amount": amountMl})
	return l, noRows(err)
}

func (s *pgWaterStore) deleteWater(ctx context.Context, userID, id int) error {
	return execOwned(ctx, s.db, "DELETE FROM water_logs WHERE id = @id AND user_id = @userID", id, userID)
}
