package main

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"
)

// memStore is an in-memory implementation of every store the handlers use.
// It keeps the same per-user scoping and per-day uniqueness as the schema.
type memStore struct {
	mu           sync.Mutex
	users        map[int]user
	measurements []bodyMeasurement
	meals        map[int]meal
	trainings    map[int]training
	water        map[int]waterLog
	weights      map[int]weightEntry
	nextID       int
	err          error // returned by every call when set
}

func newMemStore(users ...user) *memStore {
	s := &memStore{
		users:     make(map[int]user),
		meals:     make(map[int]meal),
		trainings: make(map[int]training),
		water:     make(map[int]waterLog),
		weights:   make(map[int]weightEntry),
		nextID:    1,
	}
	for _, u := range users {
		s.users[u.ID] = u
		s.nextID = max(s.nextID, u.ID+1)
	}
	return s
}

func (s *memStore) bundle() stores {
	return stores{users: s, measurements: s, meals: s, trainings: s, water: s, weights: s}
}

func (s *memStore) id() int {
	id := s.nextID
	s.nextID++
	return id
}

func mustDate(v string) DateOnly {
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		panic(err)
	}
	return DateOnly{t}
}

func day(d DateOnly) string { return d.Format(dateLayout) }

// ownedBy returns the values of m belonging to userID that pass keep.
func ownedBy[T any](m map[int]T, userID int, owner func(T) int, keep func(T) bool) []T {
	out := []T{}
	for _, v := range m {
		if owner(v) == userID && (keep == nil || keep(v)) {
			out = append(out, v)
		}
	}
	return out
}

func pageOf[T any](rows []T, p pageRequest) []T {
	start := min(p.offset(), len(rows))
	end := min(start+p.Limit, len(rows))
	return rows[start:end]
}

// newestFirst orders by date then id, both descending.
func newestFirst(da, db DateOnly, ia, ib int) int {
	if c := db.Compare(da.Time); c != 0 {
		return c
	}
	return cmp.Compare(ib, ia)
}

func inRange(d DateOnly, start, end string) bool {
	v := day(d)
	return v >= start && v <= end
}

/* ─── Users ───────────────────────────────────────────────────────────── */

func (s *memStore) userByID(_ context.Context, id int) (user, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return user{}, s.err
	}
	u, ok := s.users[id]
	if !ok {
		return user{}, errUserNotFound
	}
	return u, nil
}

func (s *memStore) userByEmail(_ context.Context, email string) (user, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return user{}, s.err
	}
	for _, u := range s.users {
		if u.Email == strings.ToLower(email) {
			return u, nil
		}
	}
	return user{}, errUserNotFound
}

func (s *memStore) createUser(_ context.Context, p newUserParams) (user, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return user{}, s.err
	}
	email := strings.ToLower(p.Email)
	for _, u := range s.users {
		if u.Email == email {
			return user{}, errEmailTaken
		}
	}
	u := user{
		ID: s.id(), Name: p.Name, Email: email, Password: p.Password,
		HeightCm: p.HeightCm, WeightKg: p.WeightKg, Goal: p.Goal,
	}
	s.users[u.ID] = u
	return u, nil
}

func (s *memStore) updateProfile(_ context.Context, id int, req updateProfileRequest) (user, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return user{}, s.err
	}
	u, ok := s.users[id]
	if !ok {
		return user{}, errUserNotFound
	}
	if req.Email != nil {
		for _, other := range s.users {
			if other.ID != id && other.Email == strings.ToLower(*req.Email) {
				return user{}, errEmailTaken
			}
		}
		u.Email = strings.ToLower(*req.Email)
	}
	if req.Name != nil {
		u.Name = *req.Name
	}
	if req.HeightCm != nil {
		u.HeightCm = req.HeightCm
	}
	if req.WeightKg != nil {
		u.WeightKg = req.WeightKg
	}
	if req.Goal != nil {
		u.Goal = req.Goal
	}
	s.users[id] = u
	return u, nil
}

// deleteUser drops the account and every row it owns.
func (s *memStore) deleteUser(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if _, ok := s.users[id]; !ok {
		return errUserNotFound
	}
	delete(s.users, id)
	s.measurements = slices.DeleteFunc(s.measurements, func(m bodyMeasurement) bool { return m.UserID == id })
	deleteOwned(s.meals, id, mealOwner)
	deleteOwned(s.trainings, id, trainingOwner)
	deleteOwned(s.water, id, waterOwner)
	deleteOwned(s.weights, id, weightOwner)
	return nil
}

func deleteOwned[T any](m map[int]T, userID int, owner func(T) int) {
	for k, v := range m {
		if owner(v) == userID {
			delete(m, k)
		}
	}
}

/* ─── Measurements ────────────────────────────────────────────────────── */

func (s *memStore) addMeasurement(_ context.Context, userID int, req measurementRequest) (bodyMeasurement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return bodyMeasurement{}, s.err
	}
	m := bodyMeasurement{
		ID: s.id(), UserID: userID, Date: time.Now(),
		WeightKg: req.WeightKg, ChestCm: req.ChestCm, WaistCm: req.WaistCm,
		HipCm: req.HipCm, ArmCm: req.ArmCm, ThighCm: req.ThighCm,
	}
	s.measurements = append(s.measurements, m)
	return m, nil
}

func (s *memStore) recentMeasurements(_ context.Context, userID, limit int) ([]bodyMeasurement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := []bodyMeasurement{}
	for _, m := range s.measurements {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	slices.SortFunc(out, func(a, b bodyMeasurement) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return out[:min(limit, len(out))], nil
}

/* ─── Meals ───────────────────────────────────────────────────────────── */

func mealOwner(m meal) int { return m.UserID }

func (s *memStore) toFoods(mealID int, reqs []foodRequest) []food {
	foods := make([]food, 0, len(reqs))
	for _, f := range reqs {
		foods = append(foods, food{
			ID: s.id(), MealID: mealID, Name: strings.TrimSpace(f.Name), Quantity: f.Quantity, Unit: f.Unit,
			Calories: f.Calories, ProteinG: f.ProteinG, CarbsG: f.CarbsG, FatG: f.FatG,
		})
	}
	return foods
}

func setMealTotals(m *meal, t nutritionTotals) {
	m.TotalCalories, m.TotalProteinG, m.TotalCarbsG, m.TotalFatG = t.Calories, t.ProteinG, t.CarbsG, t.FatG
}

func (s *memStore) listMeals(_ context.Context, userID int, date string, p pageRequest) ([]meal, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, 0, s.err
	}
	rows := ownedBy(s.meals, userID, mealOwner, func(m meal) bool { return date == "" || day(m.Date) == date })
	slices.SortFunc(rows, func(a, b meal) int { return newestFirst(a.Date, b.Date, a.ID, b.ID) })
	return pageOf(rows, p), len(rows), nil
}

func (s *memStore) mealsOn(_ context.Context, userID int, date string) ([]meal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	rows := ownedBy(s.meals, userID, mealOwner, func(m meal) bool { return day(m.Date) == date })
	slices.SortFunc(rows, func(a, b meal) int { return cmp.Compare(a.ID, b.ID) })
	return rows, nil
}

func (s *memStore) countMeals(_ context.Context, userID int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	return len(ownedBy(s.meals, userID, mealOwner, nil)), nil
}

func (s *memStore) mealByID(_ context.Context, userID, id int) (meal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return meal{}, s.err
	}
	m, ok := s.meals[id]
	if !ok || m.UserID != userID {
		return meal{}, errNotFound
	}
	return m, nil
}

func (s *memStore) createMeal(_ context.Context, userID int, nm newMeal) (meal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return meal{}, s.err
	}
	m := meal{ID: s.id(), UserID: userID, Date: mustDate(nm.Date), Type: nm.Type}
	setMealTotals(&m, nm.Totals)
	m.Foods = s.toFoods(m.ID, nm.Foods)
	s.meals[m.ID] = m
	return m, nil
}

func (s *memStore) updateMeal(_ context.Context, userID, id int, u mealUpdate) (meal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return meal{}, s.err
	}
	m, ok := s.meals[id]
	if !ok || m.UserID != userID {
		return meal{}, errNotFound
	}
	if u.Date != nil {
		m.Date = mustDate(*u.Date)
	}
	if u.Type != nil {
		m.Type = *u.Type
	}
	if u.Foods != nil {
		setMealTotals(&m, u.Totals)
		m.Foods = s.toFoods(id, *u.Foods)
	}
	s.meals[id] = m
	return m, nil
}

func (s *memStore) deleteMeal(_ context.Context, userID, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if m, ok := s.meals[id]; !ok || m.UserID != userID {
		return errNotFound
	}
	delete(s.meals, id)
	return nil
}

/* ─── Trainings ───────────────────────────────────────────────────────── */

func trainingOwner(t training) int { return t.UserID }

func (s *memStore) toExercises(trainingID int, reqs []exerciseRequest) []exercise {
	exs := make([]exercise, 0, len(reqs))
	for _, e := range reqs {
		exs = append(exs, exercise{
			ID: s.id(), TrainingID: trainingID, Name: strings.TrimSpace(e.Name),
			Sets: e.Sets, Reps: e.Reps, WeightKg: e.WeightKg, Notes: e.Notes,
		})
	}
	return exs
}

func (s *memStore) listTrainings(_ context.Context, userID int, typ string, p pageRequest) ([]training, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, 0, s.err
	}
	rows := ownedBy(s.trainings, userID, trainingOwner, func(t training) bool { return typ == "" || t.Type == typ })
	slices.SortFunc(rows, func(a, b training) int { return newestFirst(a.Date, b.Date, a.ID, b.ID) })
	return pageOf(rows, p), len(rows), nil
}

func (s *memStore) countTrainings(_ context.Context, userID int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	return len(ownedBy(s.trainings, userID, trainingOwner, nil)), nil
}

func (s *memStore) trainingByID(_ context.Context, userID, id int) (training, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return training{}, s.err
	}
	t, ok := s.trainings[id]
	if !ok || t.UserID != userID {
		return training{}, errNotFound
	}
	return t, nil
}

func (s *memStore) createTraining(_ context.Context, userID int, req createTrainingRequest) (training, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return training{}, s.err
	}
	t := training{ID: s.id(), UserID: userID, Type: req.Type, Date: mustDate(req.Date), Notes: req.Notes}
	t.Exercises = s.toExercises(t.ID, req.Exercises)
	if req.Run != nil {
		t.Run = &run{ID: s.id(), TrainingID: t.ID, DistanceKm: req.Run.DistanceKm,
			DurationMin: req.Run.DurationMin, PaceMinPerKm: req.Run.PaceMinPerKm}
	}
	s.trainings[t.ID] = t
	return t, nil
}

func (s *memStore) updateTraining(_ context.Context, userID, id int, u trainingUpdate) (training, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return training{}, s.err
	}
	t, ok := s.trainings[id]
	if !ok || t.UserID != userID {
		return training{}, errNotFound
	}
	if u.Date != nil {
		t.Date = mustDate(*u.Date)
	}
	if u.Notes != nil {
		t.Notes = u.Notes
	}
	if u.Exercises != nil {
		t.Exercises = s.toExercises(id, *u.Exercises)
	}
	if u.Run != nil {
		runID := s.id()
		if t.Run != nil {
			runID = t.Run.ID
		}
		t.Run = &run{ID: runID, TrainingID: id, DistanceKm: u.Run.DistanceKm,
			DurationMin: u.Run.DurationMin, PaceMinPerKm: u.Run.PaceMinPerKm}
	}
	s.trainings[id] = t
	return t, nil
}

func (s *memStore) deleteTraining(_ context.Context, userID, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if t, ok := s.trainings[id]; !ok || t.UserID != userID {
		return errNotFound
	}
	delete(s.trainings, id)
	return nil
}

/* ─── Water ───────────────────────────────────────────────────────────── */

func waterOwner(l waterLog) int { return l.UserID }

func (s *memStore) listWater(_ context.Context, userID int, date string, p pageRequest) ([]waterLog, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, 0, s.err
	}
	rows := ownedBy(s.water, userID, waterOwner, func(l waterLog) bool { return date == "" || day(l.Date) == date })
	slices.SortFunc(rows, func(a, b waterLog) int { return newestFirst(a.Date, b.Date, a.ID, b.ID) })
	return pageOf(rows, p), len(rows), nil
}

func (s *memStore) addWater(_ context.Context, userID int, date string, amountMl int) (waterLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return waterLog{}, s.err
	}
	for id, l := range s.water {
		if l.UserID == userID && day(l.Date) == date {
			l.MlConsumed += amountMl
			s.water[id] = l
			return l, nil
		}
	}
	l := waterLog{ID: s.id(), UserID: userID, Date: mustDate(date), MlConsumed: amountMl}
	s.water[l.ID] = l
	return l, nil
}

func (s *memStore) waterOn(_ context.Context, userID int, date string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	total := 0
	for _, l := range ownedBy(s.water, userID, waterOwner, func(l waterLog) bool { return day(l.Date) == date }) {
		total += l.MlConsumed
	}
	return total, nil
}

func (s *memStore) waterBetween(_ context.Context, userID int, start, end string) ([]waterLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	rows := ownedBy(s.water, userID, waterOwner, func(l waterLog) bool { return inRange(l.Date, start, end) })
	slices.SortFunc(rows, func(a, b waterLog) int { return a.Date.Compare(b.Date.Time) })
	return rows, nil
}

func (s *memStore) setWater(_ context.Context, userID, id, amountMl int) (waterLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return waterLog{}, s.err
	}
	l, ok := s.water[id]
	if !ok || l.UserID != userID {
		return waterLog{}, errNotFound
	}
	l.MlConsumed = amountMl
	s.water[id] = l
	return l, nil
}

func (s *memStore) deleteWater(_ context.Context, userID, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if l, ok := s.water[id]; !ok || l.UserID != userID {
		return errNotFound
	}
	delete(s.water, id)
	return nil
}

/* ─── Weights ─────────────────────────────────────────────────────────── */

func weightOwner(e weightEntry) int { return e.UserID }

func (s *memStore) listWeights(_ context.Context, userID int, p pageRequest) ([]weightEntry, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, 0, s.err
	}
	rows := ownedBy(s.weights, userID, weightOwner, nil)
	slices.SortFunc(rows, func(a, b weightEntry) int { return newestFirst(a.Date, b.Date, a.ID, b.ID) })
	return pageOf(rows, p), len(rows), nil
}

func (s *memStore) upsertWeight(_ context.Context, userID int, date string, weightKg float64, bmi *float64) (weightEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return weightEntry{}, s.err
	}
	for id, e := range s.weights {
		if e.UserID == userID && day(e.Date) == date {
			e.WeightKg, e.BMI = weightKg, bmi
			s.weights[id] = e
			return e, nil
		}
	}
	e := weightEntry{ID: s.id(), UserID: userID, Date: mustDate(date), WeightKg: weightKg, BMI: bmi}
	s.weights[e.ID] = e
	return e, nil
}

func (s *memStore) latestWeight(_ context.Context, userID int) (weightEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return weightEntry{}, s.err
	}
	rows := ownedBy(s.weights, userID, weightOwner, nil)
	if len(rows) == 0 {
		return weightEntry{}, errNotFound
	}
	slices.SortFunc(rows, func(a, b weightEntry) int { return newestFirst(a.Date, b.Date, a.ID, b.ID) })
	return rows[0], nil
}

func (s *memStore) weightsBetween(_ context.Context, userID int, start, end string) ([]weightEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	rows := ownedBy(s.weights, userID, weightOwner, func(e weightEntry) bool { return inRange(e.Date, start, end) })
	slices.SortFunc(rows, func(a, b weightEntry) int { return -newestFirst(a.Date, b.Date, a.ID, b.ID) })
	return rows, nil
}

func (s *memStore) weightByID(_ context.Context, userID, id int) (weightEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return weightEntry{}, s.err
	}
	e, ok := s.weights[id]
	if !ok || e.UserID != userID {
		return weightEntry{}, errNotFound
	}
	return e, nil
}

func (s *memStore) updateWeight(_ context.Context, userID, id int, u weightUpdate) (weightEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return weightEntry{}, s.err
	}
	e, ok := s.weights[id]
	if !ok || e.UserID != userID {
		return weightEntry{}, errNotFound
	}
	if u.Date != nil {
		for _, other := range s.weights {
			if other.ID != id && other.UserID == userID && day(other.Date) == *u.Date {
				return weightEntry{}, errDuplicateDate
			}
		}
		e.Date = mustDate(*u.Date)
	}
	if u.WeightKg != nil {
		e.WeightKg, e.BMI = *u.WeightKg, u.BMI
	}
	s.weights[id] = e
	return e, nil
}

func (s *memStore) deleteWeight(_ context.Context, userID, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if e, ok := s.weights[id]; !ok || e.UserID != userID {
		return errNotFound
	}
	delete(s.weights, id)
	return nil
}
