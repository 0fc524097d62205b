package main

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// trainingUpdate changes only non-nil fields. Exercises replaces the whole
// list; Run is upserted.
type trainingUpdate struct {
	Date      *string
	Notes     *string
	Exercises *[]exerciseRequest
	Run       *runRequest
}

// trainingStore persists sessions with their exercises and run. Callers
// pass details that already match the session type.
type trainingStore interface {
	listTrainings(ctx context.Context, userID int, typ string, p pageRequest) ([]training, int, error)
	countTrainings(ctx context.Context, userID int) (int, error)
	trainingByID(ctx context.Context, userID, id int) (training, error)
	createTraining(ctx context.Context, userID int, req createTrainingRequest) (training, error)
	updateTraining(ctx context.Context, userID, id int, u trainingUpdate) (training, error)
	deleteTraining(ctx context.Context, userID, id int) error
}

type pgTrainingStore struct {
	db *pgxpool.Pool
}

func (s *pgTrainingStore) listTrainings(ctx context.Context, userID int, typ string, p pageRequest) ([]training, int, error) {
	where := "user_id = @userID"
	args := pgx.NamedArgs{"userID": userID, "limit": p.Limit, "offset": p.offset()}
	if typ != "" {
		where += " AND type = @type"
		args["type"] = typ
	}

	trainings, err := queryMany[training](s.db, ctx,
		"SELECT * FROM trainings WHERE "+where+" ORDER BY date DESC, id DESC LIMIT @limit OFFSET @offset",
		args)
	if err != nil {
		return nil, 0, err
	}
	if err := s.attachDetails(ctx, trainings); err != nil {
		return nil, 0, err
	}
	count, err := countRows(ctx, s.db, "SELECT COUNT(*) FROM trainings WHERE "+where, args)
	if err != nil {
		return nil, 0, err
	}
	return trainings, count, nil
}

func (s *pgTrainingStore) countTrainings(ctx context.Context, userID int) (int, error) {
	return countRows(ctx, s.db, "SELECT COUNT(*) FROM trainings WHERE user_id = @userID", pgx.NamedArgs{"userID": userID})
}

func (s *pgTrainingStore) trainingByID(ctx context.Context, userID, id int) (training, error) {
	t, err := queryOne[training](s.db, ctx,
		"SELECT * FROM trainings WHERE id = @id AND user_id = @userID",
		pgx.NamedArgs{"id": id, "userID": userID})
	if err != nil {
		return training{}, noRows(err)
	}
	list := []training{t}
	if err := s.attachDetails(ctx, list); err != nil {
		return training{}, err
	}
	return list[0], nil
}

// createTraining inserts the session and its details in one transaction.
func (s *pgTrainingStore) createTraining(ctx context.Context, userID int, req createTrainingRequest) (training, error) {
	var trainingID int
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO trainings (user_id, type, date, notes)
			 VALUES (@userID, @type, @date, @notes)
			 RETURNING id`,
			pgx.NamedArgs{"userID": userID, "type": req.Type, "date": req.Date, "notes": req.Notes}).
			Scan(&trainingID)
		if err != nil {
			return err
		}
		if err := insertExercises(ctx, tx, trainingID, req.Exercises); err != nil {
			return err
		}
		if req.Run != nil {
			return upsertRun(ctx, tx, trainingID, *req.Run)
		}
		return nil
	})
	if err != nil {
		return training{}, err
	}
	return s.trainingByID(ctx, userID, trainingID)
}

func (s *pgTrainingStore) updateTraining(ctx context.Context, userID, id int, u trainingUpdate) (training, error) {
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE trainings
			 SET date = COALESCE(@date, date), notes = COALESCE(@notes, notes), updated_at = now()
			 WHERE id = @id AND user_id = @userID`,
			pgx.NamedArgs{"id": id, "userID": userID, "date": u.Date, "notes": u.Notes})
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return errNotFound
		}
		if u.Exercises != nil {
			if _, err := tx.Exec(ctx, "DELETE FROM exercises WHERE training_id = $1", id); err != nil {
				return err
			}
			if err := insertExercises(ctx, tx, id, *u.Exercises); err != nil {
				return err
			}
		}
		if u.Run != nil {
			return upsertRun(ctx, tx, id, *u.Run)
		}
		return nil
	})
	if err != nil {
		return training{}, err
	}
	return s.trainingByID(ctx, userID, id)
}

// deleteTraining removes a session; exercises and run cascade.
func (s *pgTrainingStore) deleteTraining(ctx context.Context, userID, id int) error {
	return execOwned(ctx, s.db, "DELETE FROM trainings WHERE id = @id AND user_id = @userID", id, userID)
}

func insertExercises(ctx context.Context, tx pgx.Tx, trainingID int, exs []exerciseRequest) error {
	if len(exs) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, e := range exs {
		batch.Queue(
			`INSERT INTO exercises (training_id, name, sets, reps, weight_kg, notes)
			 VALUES (@trainingID, @name, @sets, @reps, @weightKg, @notes)`,
			pgx.NamedArgs{
				"trainingID": trainingID, "name": strings.TrimSpace(e.Name),
				"sets": e.Sets, "reps": e.Reps, "weightKg": e.WeightKg, "notes": e.Notes,
			})
	}
	return tx.SendBatch(ctx, batch).Close()
}

// upsertRun writes the single run of a running session.
func upsertRun(ctx context.Context, tx pgx.Tx, trainingID int, r runRequest) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO runs (training_id, distance_km, duration_min, pace_min_per_km)
		 VALUES (@trainingID, @distanceKm, @durationMin, @pace)
		 ON CONFLICT (training_id) DO UPDATE
		 SET distance_km = EXCLUDED.distance_km,
		     duration_min = EXCLUDED.duration_min,
		     pace_min_per_km = EXCLUDED.pace_min_per_km`,
		pgx.NamedArgs{
			"trainingID": trainingID, "distanceKm": r.DistanceKm,
			"durationMin": r.DurationMin, "pace": r.PaceMinPerKm,
		})
	return err
}

// attachDetails loads exercises and runs for trainings in two queries.
func (s *pgTrainingStore) attachDetails(ctx context.Context, trainings []training) error {
	if len(trainings) == 0 {
		return nil
	}
	ids := make([]int, len(trainings))
	for i, t := range trainings {
		ids[i] = t.ID
	}
	args := pgx.NamedArgs{"ids": ids}

	exs, err := queryMany[exercise](s.db, ctx,
		"SELECT * FROM exercises WHERE training_id = ANY(@ids) ORDER BY id", args)
	if err != nil {
		return err
	}
	runs, err := queryMany[run](s.db, ctx,
		"SELECT * FROM runs WHERE training_id = ANY(@ids)", args)
	if err != nil {
		return err
	}

	exByTraining := make(map[int][]exercise)
	for _, e := range exs {
		exByTraining[e.TrainingID] = append(exByTraining[e.TrainingID], e)
	}
	runByTraining := make(map[int]*run)
	for i := range runs {
		runByTraining[runs[i].TrainingID] = &runs[i]
	}
	for i := range trainings {
		t := &trainings[i]
		t.Exercises = exByTraining[t.ID]
		if t.Exercises == nil {
			t.Exercises = []exercise{}
		}
		t.Run = runByTraining[t.ID]
	}
	return nil
}
