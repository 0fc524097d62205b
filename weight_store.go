package main

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// weightUpdate changes only non-nil fields. BMI is written whenever WeightKg
// is set, including a nil BMI for a user without a height.
type weightUpdate struct {
	Date     *string
	WeightKg *float64
	BMI      *float64
}

// weightStore keeps at most one weight entry per user and day.
type weightStore interface {
	listWeights(ctx context.Context, userID int, p pageRequest) ([]weightEntry, int, error)
	// upsertWeight writes the entry for date, replacing an existing one.
	upsertWeight(ctx context.Context, userID int, date string, weightKg float64, bmi *float64) (weightEntry, error)
	latestWeight(ctx context.Context, userID int) (weightEntry, error)
	// weightsBetween returns the entries in [start, end], oldest first.
	weightsBetween(ctx context.Context, userID int, start, end string) ([]weightEntry, error)
	weightByID(ctx context.Context, userID, id int) (weightEntry, error)
	// updateWeight reports errDuplicateDate when moving onto a taken date.
	updateWeight(ctx context.Context, userID, id int, u weightUpdate) (weightEntry, error)
	deleteWeight(ctx context.Context, userID, id int) error
}

type pgWeightStore struct {
	db *pgxpool.Pool
}

func (s *pgWeightStore) listWeights(ctx context.Context, userID int, p pageRequest) ([]weightEntry, int, error) {
	args := pgx.NamedArgs{"userID": userID, "limit": p.Limit, "offset": p.offset()}
	entries, err := queryMany[weightEntry](s.db, ctx,
		`SELECT * FROM weight_log WHERE user_id = @userID
		 ORDER BY date DESC, id DESC LIMIT @limit OFFSET @offset`,
		args)
	if err != nil {
		return nil, 0, err
	}
	count, err := countRows(ctx, s.db, "SELECT COUNT(*) FROM weight_log WHERE user_id = @userID", args)
	if err != nil {
		return nil, 0, err
	}
	return entries, count, nil
}

func (s *pgWeightStore) upsertWeight(ctx context.Context, userID int, date string, weightKg float64, bmi *float64) (weightEntry, error) {
	return queryOne[weightEntry](s.db, ctx,
		`INSERT INTO weight_log (user_id, date, weight_kg, bmi)
		 VALUES (@userID, @date, @weightKg, @bmi)
		 ON CONFLICT (user_id, date) DO UPDATE
		 SET weight_kg = EXCLUDED.weight_kg, bmi = EXCLUDED.bmi, updated_at = now()
		 RETURNING *`,
		pgx.NamedArgs{"userID": userID, "date": date, "weightKg": weightKg, "bmi": bmi})
}

func (s *pgWeightStore) latestWeight(ctx context.Context, userID int) (weightEntry, error) {
	e, err := queryOne[weightEntry](s.db, ctx,
		"SELECT * FROM weight_log WHERE user_id = @userID ORDER BY date DESC, id DESC LIMIT 1",
		pgx.NamedArgs{"userID": userID})
	return e, noRows(err)
}

func (s *pgWeightStore) weightsBetween(ctx context.Context, userID int, start, end string) ([]weightEntry, error) {
	return queryMany[weightEntry](s.db, ctx,
		`SELECT * FROM weight_log
		 WHERE user_id = @userID AND date >= @start AND date <= @end
		 ORDER BY date ASC, id ASC`,
		pgx.NamedArgs{"userID": userID, "start": start, "end": end})
}

func (s *pgWeightStore) weightByID(ctx context.Context, userID, id int) (weightEntry, error) {
	e, err := queryOne[weightEntry](s.db, ctx,
		"SELECT * FROM weight_log WHERE id = @id AND user_id = @userID",
		pgx.NamedArgs{"id": id, "userID": userID})
	return e, noRows(err)
}

func (s *pgWeightStore) updateWeight(ctx context.Context, userID, id int, u weightUpdate) (weightEntry, error) {
	args := pgx.NamedArgs{"id": id, "userID": userID, "date": u.Date, "weightKg": u.WeightKg}
	bmiSet := ""
	if u.WeightKg != nil {
		bmiSet = ", bmi = @bmi"
		args["bmi"] = u.BMI
	}
	e, err := queryOne[weightEntry](s.db, ctx,
		`UPDATE weight_log SET
			date       = COALESCE(@date, date),
			weight_kg  = COALESCE(@weightKg, weight_kg),
			updated_at = now()`+bmiSet+`
		 WHERE id = @id AND user_id = @userID
		 RETURNING *`,
		args)
	if isUniqueViolation(err) {
		return weightEntry{}, errDuplicateDate
	}
	return e, noRows(err)
}

func (s *pgWeightStore) deleteWeight(ctx context.Context, userID, id int) error {
	return execOwned(ctx, s.db, "DELETE FROM weight_log WHERE id = @id AND user_id = @userID", id, userID)
}
