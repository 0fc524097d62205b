// Package metabolism computes BMI, BMR, TDEE, goal calorie targets, macro
// splits and daily water needs from a user's physical profile and the
// request-scoped inputs (age, gender, activity level).
//
// Every function is pure. Lookups keyed by activity level or goal fall back
// to the sedentary / maintain_weight baseline instead of failing, so once
// Validate passes Calculate cannot fail.
package metabolism

import (
	"errors"
	"math"
)

// Gender values accepted by BMR.
const (
	GenderMale   = "male"
	GenderFemale = "female"
)

// Activity levels, ordered from least to most active.
const (
	ActivitySedentary   = "sedentary"
	ActivityLight       = "light"
	ActivityModerate    = "moderate"
	ActivityIntense     = "intense"
	ActivityVeryIntense = "very_intense"
)

// Goals stored on the user profile.
const (
	GoalLoseWeight     = "lose_weight"
	GoalGainWeight     = "gain_weight"
	GoalMaintainWeight = "maintain_weight"
	GoalGainMuscle     = "gain_muscle"
)

var (
	// ErrMissingProfileData means the stored profile lacks height or weight.
	// The user has to complete the profile before retrying.
	ErrMissingProfileData = errors.New("height and weight are required for metabolic calculations")
	// ErrMissingRequestData means age, gender or activity level was not supplied.
	ErrMissingRequestData = errors.New("age, gender and activity level are required")
)

// activityFactors maps activity level to its TDEE multiplier.
var activityFactors = map[string]float64{
	ActivitySedentary:   1.2,
	ActivityLight:       1.375,
	ActivityModerate:    1.55,
	ActivityIntense:     1.725,
	ActivityVeryIntense: 1.9,
}

// waterActivityBonusMl is added on top of the 35 ml/kg baseline.
var waterActivityBonusMl = map[string]float64{
	ActivitySedentary:   0,
	ActivityLight:       500,
	ActivityModerate:    750,
	ActivityIntense:     1000,
	ActivityVeryIntense: 1250,
}

type macroRatios struct {
	protein, carbs, fat float64
}

// goalRatios holds the protein/carbs/fat split per goal. Each row sums to 1.
var goalRatios = map[string]macroRatios{
	GoalLoseWeight: {protein: 0.35, carbs: 0.35, fat: 0.30},
	GoalGainMuscle: {protein: 0.30, carbs: 0.45, fat: 0.25},
	GoalGainWeight: {protein: 0.25, carbs: 0.50, fat: 0.25},
}

var maintainRatios = macroRatios{protein: 0.30, carbs: 0.40, fat: 0.30}

const (
	proteinKcalPerGram = 4
	carbsKcalPerGram   = 4
	fatKcalPerGram     = 9

	waterMlPerKg      = 35
	waterLoseWeightMl = 500
	loseWeightDeficit = 500
	gainWeightSurplus = 300
)

var recommendations = map[string][]string{
	GoalLoseWeight: {
		"Keep a consistent calorie deficit",
		"Prioritize protein to preserve muscle mass",
		"Include resistance training in your routine",
		"Drink more water to support your metabolism",
	},
	GoalGainMuscle: {
		"Eat protein every 3-4 hours",
		"Don't skip meals, especially after training",
		"Include complex carbohydrates in your meals",
		"Sleep at least 7-8 hours per night",
	},
	GoalGainWeight: {
		"Eat frequent meals (5-6 per day)",
		"Include healthy fats (nuts, olive oil, avocado)",
		"Add high-calorie shakes between meals",
		"Monitor weight gain gradually",
	},
}

var defaultRecommendations = []string{
	"Keep a balanced diet",
	"Exercise regularly",
	"Weigh yourself weekly",
	"Adjust calories as needed",
}

// Profile is the stored part of the input: owned by the user account and
// read-only here. Nil height or weight means the profile is incomplete.
type Profile struct {
	HeightCm *float64
	WeightKg *float64
	Goal     string
}

// Input is the request-scoped part of the input. A nil Age or empty string
// means the field was not supplied.
type Input struct {
	Age           *int
	Gender        string
	ActivityLevel string
}

// Macro is one macronutrient's share of the daily target.
type Macro struct {
	Grams      int `json:"grams"`
	Calories   int `json:"calories"`
	Percentage int `json:"percentage"`
}

// MacroBreakdown splits target calories into protein, carbs and fat.
type MacroBreakdown struct {
	Protein Macro `json:"protein"`
	Carbs   Macro `json:"carbs"`
	Fat     Macro `json:"fat"`
}

// Result is computed fresh for every request. BMR and TDEE keep full
// precision; callers round them for presentation.
type Result struct {
	BMI             float64
	BMR             float64
	TDEE            float64
	TargetCalories  int
	WaterNeedsMl    int
	Macros          MacroBreakdown
	Recommendations []string
}

// ValidGender reports whether g is a gender BMR distinguishes.
func ValidGender(g string) bool {
	return g == GenderMale || g == GenderFemale
}

// ValidActivityLevel reports whether level has an entry in the factor table.
func ValidActivityLevel(level string) bool {
	_, ok := activityFactors[level]
	return ok
}

// ValidGoal reports whether goal is one of the four known goals.
func ValidGoal(goal string) bool {
	switch goal {
	case GoalLoseWeight, GoalGainWeight, GoalMaintainWeight, GoalGainMuscle:
		return true
	}
	return false
}

// Validate checks presence only. Range and enum checks belong to the caller.
func Validate(p Profile, in Input) error {
	if p.HeightCm == nil || p.WeightKg == nil || *p.HeightCm <= 0 || *p.WeightKg <= 0 {
		return ErrMissingProfileData
	}
	if in.Age == nil || *in.Age == 0 || in.Gender == "" || in.ActivityLevel == "" {
		return ErrMissingRequestData
	}
	return nil
}

// BMR uses the revised Harris-Benedict equation. Any gender other than male
// takes the female branch.
func BMR(weightKg, heightCm float64, age int, gender string) float64 {
	if gender == GenderMale {
		return 88.362 + 13.397*weightKg + 4.799*heightCm - 5.677*float64(age)
	}
	return 447.593 + 9.247*weightKg + 3.098*heightCm - 4.330*float64(age)
}

// ActivityFactor returns the TDEE multiplier for level, or the sedentary
// factor when level is unknown.
func ActivityFactor(level string) float64 {
	if f, ok := activityFactors[level]; ok {
		return f
	}
	return activityFactors[ActivitySedentary]
}

// TDEE is BMR scaled by the activity factor.
func TDEE(bmr float64, level string) float64 {
	return bmr * ActivityFactor(level)
}

// TargetCalories applies the goal's calorie offset to tdee and rounds.
func TargetCalories(tdee float64, goal string) int {
	switch goal {
	case GoalLoseWeight:
		return round(tdee - loseWeightDeficit)
	case GoalGainWeight, GoalGainMuscle:
		return round(tdee + gainWeightSurplus)
	default:
		return round(tdee)
	}
}

// Macros splits targetCalories using the goal's ratio table. Grams, calories
// and percentage are rounded independently, so grams times kcal/g may differ
// from the displayed calories by a rounding step.
func Macros(targetCalories int, goal string) MacroBreakdown {
	r, ok := goalRatios[goal]
	if !ok {
		r = maintainRatios
	}
	total := float64(targetCalories)
	return MacroBreakdown{
		Protein: macro(total, r.protein, proteinKcalPerGram),
		Carbs:   macro(total, r.carbs, carbsKcalPerGram),
		Fat:     macro(total, r.fat, fatKcalPerGram),
	}
}

func macro(total, ratio, kcalPerGram float64) Macro {
	kcal := total * ratio
	return Macro{
		Grams:      round(kcal / kcalPerGram),
		Calories:   round(kcal),
		Percentage: round(ratio * 100),
	}
}

// WaterNeeds returns the daily water target in ml.
func WaterNeeds(weightKg float64, level, goal string) int {
	ml := weightKg*waterMlPerKg + waterActivityBonusMl[level]
	if goal == GoalLoseWeight {
		ml += waterLoseWeightMl
	}
	return round(ml)
}

// Recommendations returns the fixed advice list for goal. The returned slice
// is a copy and may be modified by the caller.
func Recommendations(goal string) []string {
	list, ok := recommendations[goal]
	if !ok {
		list = defaultRecommendations
	}
	return append([]string(nil), list...)
}

// BMI returns weight / height² (height converted to meters), rounded to one
// decimal. Zero height yields zero.
func BMI(weightKg, heightCm float64) float64 {
	if heightCm <= 0 {
		return 0
	}
	m := heightCm / 100
	return math.Round(weightKg/(m*m)*10) / 10
}

// Calculate runs the whole pipeline.
func Calculate(p Profile, in Input) (Result, error) {
	if err := Validate(p, in); err != nil {
		return Result{}, err
	}
	weight, height := *p.WeightKg, *p.HeightCm

	bmr := BMR(weight, height, *in.Age, in.Gender)
	tdee := TDEE(bmr, in.ActivityLevel)
	target := TargetCalories(tdee, p.Goal)

	return Result{
		BMI:             BMI(weight, height),
		BMR:             bmr,
		TDEE:            tdee,
		TargetCalories:  target,
		WaterNeedsMl:    WaterNeeds(weight, in.ActivityLevel, p.Goal),
		Macros:          Macros(target, p.Goal),
		Recommendations: Recommendations(p.Goal),
	}, nil
}

func round(v float64) int {
	return int(math.Round(v))
}
