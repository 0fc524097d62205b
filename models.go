package main

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

const dateLayout = "2006-01-02"

// DateOnly wraps time.Time to serialize as "YYYY-MM-DD" in JSON.
type DateOnly struct{ time.Time }

func (d DateOnly) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Time.Format(dateLayout) + `"`), nil
}

func (d *DateOnly) UnmarshalJSON(b []byte) error {
	t, err := time.Parse(`"`+dateLayout+`"`, string(b))
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// ScanDate implements pgtype.DateScanner so pgx can scan PostgreSQL date
// columns into DateOnly. NULL zeroes the time so *DateOnly fields become nil.
func (d *DateOnly) ScanDate(v pgtype.Date) error {
	if !v.Valid {
		d.Time = time.Time{}
		return nil
	}
	d.Time = v.Time
	return nil
}

/* ─── Domain structs ─────────────────────────────────────────────────── */

// user maps to the users table. Password is hidden from JSON responses.
// Height, weight and goal are optional until the profile is completed.
type user struct {
	ID        int        `json:"id"         db:"id"`
	Name      string     `json:"name"       db:"name"`
	Email     string     `json:"email"      db:"email"`
	Password  string     `json:"-"          db:"password"`
	HeightCm  *float64   `json:"height_cm"  db:"height_cm"`
	WeightKg  *float64   `json:"weight_kg"  db:"weight_kg"`
	Goal      *string    `json:"goal"       db:"goal"`
	CreatedAt *time.Time `json:"created_at" db:"created_at"`
	UpdatedAt *time.Time `json:"updated_at" db:"updated_at"`
}

// bodyMeasurement maps to body_measurements. All measures are optional.
type bodyMeasurement struct {
	ID       int       `json:"id"        db:"id"`
	UserID   int       `json:"user_id"   db:"user_id"`
	Date     time.Time `json:"date"      db:"date"`
	WeightKg *float64  `json:"weight_kg" db:"weight_kg"`
	ChestCm  *float64  `json:"chest_cm"  db:"chest_cm"`
	WaistCm  *float64  `json:"waist_cm"  db:"waist_cm"`
	HipCm    *float64  `json:"hip_cm"    db:"hip_cm"`
	ArmCm    *float64  `json:"arm_cm"    db:"arm_cm"`
	ThighCm  *float64  `json:"thigh_cm"  db:"thigh_cm"`
}

// meal maps to meals. Totals are derived from the meal's foods on every write.
type meal struct {
	ID            int        `json:"id"              db:"id"`
	UserID        int        `json:"user_id"         db:"user_id"`
	Date          DateOnly   `json:"date"            db:"date"`
	Type          string     `json:"type"            db:"type"`
	TotalCalories float64    `json:"total_calories"  db:"total_calories"`
	TotalProteinG float64    `json:"total_protein_g" db:"total_protein_g"`
	TotalCarbsG   float64    `json:"total_carbs_g"   db:"total_carbs_g"`
	TotalFatG     float64    `json:"total_fat_g"     db:"total_fat_g"`
	CreatedAt     *time.Time `json:"created_at"      db:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at"      db:"updated_at"`

	Foods []food `json:"foods" db:"-"`
}

// food maps to foods; rows are owned by a meal and deleted with it.
type food struct {
	ID       int      `json:"id"        db:"id"`
	MealID   int      `json:"meal_id"   db:"meal_id"`
	Name     string   `json:"name"      db:"name"`
	Quantity *float64 `json:"quantity"  db:"quantity"`
	Unit     *string  `json:"unit"      db:"unit"`
	Calories float64  `json:"calories"  db:"calories"`
	ProteinG float64  `json:"protein_g" db:"protein_g"`
	CarbsG   float64  `json:"carbs_g"   db:"carbs_g"`
	FatG     float64  `json:"fat_g"     db:"fat_g"`
}

// training maps to trainings. Bodybuilding sessions carry exercises, running
// sessions carry at most one run.
type training struct {
	ID        int        `json:"id"         db:"id"`
	UserID    int        `json:"user_id"    db:"user_id"`
	Type      string     `json:"type"       db:"type"`
	Date      DateOnly   `json:"date"       db:"date"`
	Notes     *string    `json:"notes"      db:"notes"`
	CreatedAt *time.Time `json:"created_at" db:"created_at"`
	UpdatedAt *time.Time `json:"updated_at" db:"updated_at"`

	Exercises []exercise `json:"exercises" db:"-"`
	Run       *run       `json:"run"       db:"-"`
}

type exercise struct {
	ID         int      `json:"id"          db:"id"`
	TrainingID int      `json:"training_id" db:"training_id"`
	Name       string   `json:"name"        db:"name"`
	Sets       *int     `json:"sets"        db:"sets"`
	Reps       *int     `json:"reps"        db:"reps"`
	WeightKg   *float64 `json:"weight_kg"   db:"weight_kg"`
	Notes      *string  `json:"notes"       db:"notes"`
}

type run struct {
	ID           int      `json:"id"              db:"id"`
	TrainingID   int      `json:"training_id"     db:"training_id"`
	DistanceKm   *float64 `json:"distance_km"     db:"distance_km"`
	DurationMin  *float64 `json:"duration_min"    db:"duration_min"`
	PaceMinPerKm *float64 `json:"pace_min_per_km" db:"pace_min_per_km"`
}

// waterLog maps to water_logs. UNIQUE(user_id, date): one running total per day.
type waterLog struct {
	ID         int        `json:"id"          db:"id"`
	UserID     int        `json:"user_id"     db:"user_id"`
	Date       DateOnly   `json:"date"        db:"date"`
	MlConsumed int        `json:"ml_consumed" db:"ml_consumed"`
	CreatedAt  *time.Time `json:"created_at"  db:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at"  db:"updated_at"`
}

// weightEntry maps to weight_log. BMI is a snapshot taken from the profile
// height at write time and stays nil while the height is unknown.
type weightEntry struct {
	ID        int        `json:"id"         db:"id"`
	UserID    int        `json:"user_id"    db:"user_id"`
	Date      DateOnly   `json:"date"       db:"date"`
	WeightKg  float64    `json:"weight_kg"  db:"weight_kg"`
	BMI       *float64   `json:"bmi"        db:"bmi"`
	CreatedAt *time.Time `json:"created_at" db:"created_at"`
	UpdatedAt *time.Time `json:"updated_at" db:"updated_at"`
}

// pagination is attached to every paged list response.
type pagination struct {
	Current int `json:"current"`
	Total   int `json:"total"`
	Count   int `json:"count"`
}

/* ─── Request bodies ─────────────────────────────────────────────────── */

// foodRequest is one food line inside a meal create/update body.
type foodRequest struct {
	Name     string   `json:"name"`
	Quantity *float64 `json:"quantity"`
	Unit     *string  `json:"unit"`
	Calories float64  `json:"calories"`
	ProteinG float64  `json:"protein_g"`
	CarbsG   float64  `json:"carbs_g"`
	FatG     float64  `json:"fat_g"`
}

type createMealRequest struct {
	Date  string        `json:"date"`
	Type  string        `json:"type"`
	Foods []foodRequest `json:"foods"`
}

type exerciseRequest struct {
	Name     string   `json:"name"`
	Sets     *int     `json:"sets"`
	Reps     *int     `json:"reps"`
	WeightKg *float64 `json:"weight_kg"`
	Notes    *string  `json:"notes"`
}

type runRequest struct {
	DistanceKm   *float64 `json:"distance_km"`
	DurationMin  *float64 `json:"duration_min"`
	PaceMinPerKm *float64 `json:"pace_min_per_km"`
}

type createTrainingRequest struct {
	Type      string            `json:"type"`
	Date      string            `json:"date"`
	Notes     *string           `json:"notes"`
	Exercises []exerciseRequest `json:"exercises"`
	Run       *runRequest       `json:"run"`
}

// updateProfileRequest is the body for PUT /api/users/profile. All fields
// are pointers; only non-nil fields get written.
type updateProfileRequest struct {
	Name     *string  `json:"name"`
	Email    *string  `json:"email"`
	HeightCm *float64 `json:"height_cm"`
	WeightKg *float64 `json:"weight_kg"`
	Goal     *string  `json:"goal"`
}

type measurementRequest struct {
	WeightKg *float64 `json:"weight_kg"`
	ChestCm  *float64 `json:"chest_cm"`
	WaistCm  *float64 `json:"waist_cm"`
	HipCm    *float64 `json:"hip_cm"`
	ArmCm    *float64 `json:"arm_cm"`
	ThighCm  *float64 `json:"thigh_cm"`
}
