package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	errUserNotFound = errors.New("user not found")
	errEmailTaken   = errors.New("email already in use")

	// errNotFound is returned by the log stores when no row owned by the
	// user matches.
	errNotFound = errors.New("record not found")
	// errDuplicateDate means a per-day row already exists for that date.
	errDuplicateDate = errors.New("an entry already exists for that date")
)

// stores bundles the storage the handlers depend on. Production wires the
// pgx implementations; tests swap in an in-memory fake.
type stores struct {
	users        userStore
	measurements measurementStore
	meals        mealStore
	trainings    trainingStore
	water        waterStore
	weights      weightStore
}

func newPgStores(db *pgxpool.Pool) stores {
	return stores{
		users:        &pgUserStore{db: db},
		measurements: &pgMeasurementStore{db: db},
		meals:        &pgMealStore{db: db},
		trainings:    &pgTrainingStore{db: db},
		water:        &pgWaterStore{db: db},
		weights:      &pgWeightStore{db: db},
	}
}

// pageRequest is a validated page/limit pair.
type pageRequest struct {
	Page  int
	Limit int
}

func (p pageRequest) offset() int { return (p.Page - 1) * p.Limit }

// noRows maps pgx.ErrNoRows to errNotFound.
func noRows(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return errNotFound
	}
	return err
}

// execOwned runs a statement scoped by id and user_id and reports
// errNotFound when it touched nothing.
func execOwned(ctx context.Context, db *pgxpool.Pool, sql string, id, userID int) error {
	tag, err := db.Exec(ctx, sql, pgx.NamedArgs{"id": id, "userID": userID})
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errNotFound
	}
	return nil
}

// countRows runs a COUNT(*) query.
func countRows(ctx context.Context, db *pgxpool.Pool, sql string, args pgx.NamedArgs) (int, error) {
	var n int
	if err := db.QueryRow(ctx, sql, args).Scan(&n); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

/* ─── Users ───────────────────────────────────────────────────────────── */

// newUserParams carries the fields accepted at registration. Password is
// already hashed.
type newUserParams struct {
	Name     string
	Email    string
	Password string
	HeightCm *float64
	WeightKg *float64
	Goal     *string
}

// userStore is the account storage used by authentication, the profile
// endpoints and the metabolism calculation.
type userStore interface {
	userByID(ctx context.Context, id int) (user, error)
	userByEmail(ctx context.Context, email string) (user, error)
	createUser(ctx context.Context, p newUserParams) (user, error)
	updateProfile(ctx context.Context, id int, req updateProfileRequest) (user, error)
	deleteUser(ctx context.Context, id int) error
}

// pgUserStore implements userStore on the users table.
type pgUserStore struct {
	db *pgxpool.Pool
}

func (s *pgUserStore) userByID(ctx context.Context, id int) (user, error) {
	u, err := queryOne[user](s.db, ctx,
		"SELECT * FROM users WHERE id = @id",
		pgx.NamedArgs{"id": id})
	return u, notFound(err)
}

func (s *pgUserStore) userByEmail(ctx context.Context, email string) (user, error) {
	u, err := queryOne[user](s.db, ctx,
		"SELECT * FROM users WHERE email = @email",
		pgx.NamedArgs{"email": strings.ToLower(email)})
	return u, notFound(err)
}

func (s *pgUserStore) createUser(ctx context.Context, p newUserParams) (user, error) {
	u, err := queryOne[user](s.db, ctx,
		`INSERT INTO users (name, email, password, height_cm, weight_kg, goal)
		 VALUES (@name, @email, @password, @heightCm, @weightKg, @goal)
		 RETURNING *`,
		pgx.NamedArgs{
			"name": p.Name, "email": strings.ToLower(p.Email), "password": p.Password,
			"heightCm": p.HeightCm, "weightKg": p.WeightKg, "goal": p.Goal,
		})
	if isUniqueViolation(err) {
		return user{}, errEmailTaken
	}
	return u, err
}

// updateProfile writes only the non-nil fields of req. COALESCE keeps the
// current value for omitted fields.
func (s *pgUserStore) updateProfile(ctx context.Context, id int, req updateProfileRequest) (user, error) {
	if req.Email != nil {
		lower := strings.ToLower(*req.Email)
		req.Email = &lower
	}
	u, err := queryOne[user](s.db, ctx,
		`UPDATE users SET
			name       = COALESCE(@name, name),
			email      = COALESCE(@email, email),
			height_cm  = COALESCE(@heightCm, height_cm),
			weight_kg  = COALESCE(@weightKg, weight_kg),
			goal       = COALESCE(@goal, goal),
			updated_at = now()
		 WHERE id = @id
		 RETURNING *`,
		pgx.NamedArgs{
			"id": id, "name": req.Name, "email": req.Email,
			"heightCm": req.HeightCm, "weightKg": req.WeightKg, "goal": req.Goal,
		})
	if isUniqueViolation(err) {
		return user{}, errEmailTaken
	}
	return u, notFound(err)
}

// ownedTables lists every table keyed by user_id, children before parents.
// Foods, exercises and runs go with their parent rows via ON DELETE CASCADE.
var ownedTables = []string{"body_measurements", "weight_log", "water_logs", "meals", "trainings"}

// deleteUser removes the account and everything it owns in one transaction.
func (s *pgUserStore) deleteUser(ctx context.Context, id int) error {
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		for _, table := range ownedTables {
			if _, err := tx.Exec(ctx, "DELETE FROM "+table+" WHERE user_id = $1", id); err != nil {
				return fmt.Errorf("delete %s: %w", table, err)
			}
		}
		tag, err := tx.Exec(ctx, "DELETE FROM users WHERE id = $1", id)
		if err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return errUserNotFound
		}
		return nil
	})
}

// notFound maps pgx.ErrNoRows to errUserNotFound.
func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return errUserNotFound
	}
	return err
}

/* ─── Body measurements ───────────────────────────────────────────────── */

type measurementStore interface {
	addMeasurement(ctx context.Context, userID int, req measurementRequest) (bodyMeasurement, error)
	recentMeasurements(ctx context.Context, userID, limit int) ([]bodyMeasurement, error)
}

type pgMeasurementStore struct {
	db *pgxpool.Pool
}

func (s *pgMeasurementStore) addMeasurement(ctx context.Context, userID int, req measurementRequest) (bodyMeasurement, error) {
	return queryOne[bodyMeasurement](s.db, ctx,
		`INSERT INTO body_measurements (user_id, date, weight_kg, chest_cm, waist_cm, hip_cm, arm_cm, thigh_cm)
		 VALUES (@userID, now(), @weightKg, @chestCm, @waistCm, @hipCm, @armCm, @thighCm)
		 RETURNING *`,
		pgx.NamedArgs{
			"userID": userID, "weightKg": req.WeightKg, "chestCm": req.ChestCm,
			"waistCm": req.WaistCm, "hipCm": req.HipCm, "armCm": req.ArmCm, "thighCm": req.ThighCm,
		})
}

func (s *pgMeasurementStore) recentMeasurements(ctx context.Context, userID, limit int) ([]bodyMeasurement, error) {
	return queryMany[bodyMeasurement](s.db, ctx,
		`SELECT * FROM body_measurements WHERE user_id = @userID
		 ORDER BY date DESC, id DESC LIMIT @limit`,
		pgx.NamedArgs{"userID": userID, "limit": limit})
}
