package main

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// newMeal is a validated meal with totals already derived from its foods.
type newMeal struct {
	Date   string
	Type   string
	Foods  []foodRequest
	Totals nutritionTotals
}

// mealUpdate changes only non-nil fields. When Foods is set it replaces the
// meal's foods and Totals replaces the stored totals.
type mealUpdate struct {
	Date   *string
	Type   *string
	Foods  *[]foodRequest
	Totals nutritionTotals
}

// mealStore persists meals and their foods, scoped to the owning user.
type mealStore interface {
	listMeals(ctx context.Context, userID int, date string, p pageRequest) ([]meal, int, error)
	mealsOn(ctx context.Context, userID int, date string) ([]meal, error)
	countMeals(ctx context.Context, userID int) (int, error)
	mealByID(ctx context.Context, userID, id int) (meal, error)
	createMeal(ctx context.Context, userID int, m newMeal) (meal, error)
	updateMeal(ctx context.Context, userID, id int, u mealUpdate) (meal, error)
	deleteMeal(ctx context.Context, userID, id int) error
}

type pgMealStore struct {
	db *pgxpool.Pool
}

// listMeals returns one page of meals, newest first, and the total count.
// An empty date means every date.
func (s *pgMealStore) listMeals(ctx context.Context, userID int, date string, p pageRequest) ([]meal, int, error) {
	where := "user_id = @userID"
	args := pgx.NamedArgs{"userID": userID, "limit": p.Limit, "offset": p.offset()}
	if date != "" {
		where += " AND date = @date"
		args["date"] = date
	}

	meals, err := queryMany[meal](s.db, ctx,
		"SELECT * FROM meals WHERE "+where+" ORDER BY date DESC, id DESC LIMIT @limit OFFSET @offset",
		args)
	if err != nil {
		return nil, 0, err
	}
	if err := s.attachFoods(ctx, meals); err != nil {
		return nil, 0, err
	}
	count, err := countRows(ctx, s.db, "SELECT COUNT(*) FROM meals WHERE "+where, args)
	if err != nil {
		return nil, 0, err
	}
	return meals, count, nil
}

// mealsOn returns the meals of one day without their foods.
func (s *pgMealStore) mealsOn(ctx context.Context, userID int, date string) ([]meal, error) {
	return queryMany[meal](s.db, ctx,
		"SELECT * FROM meals WHERE user_id = @userID AND date = @date ORDER BY id",
		pgx.NamedArgs{"userID": userID, "date": date})
}

func (s *pgMealStore) countMeals(ctx context.Context, userID int) (int, error) {
	return countRows(ctx, s.db, "SELECT COUNT(*) FROM meals WHERE user_id = @userID", pgx.NamedArgs{"userID": userID})
}

func (s *pgMealStore) mealByID(ctx context.Context, userID, id int) (meal, error) {
	m, err := queryOne[meal](s.db, ctx,
		"SELECT * FROM meals WHERE id = @id AND user_id = @userID",
		pgx.NamedArgs{"id": id, "userID": userID})
	if err != nil {
		return meal{}, noRows(err)
	}
	list := []meal{m}
	if err := s.attachFoods(ctx, list); err != nil {
		return meal{}, err
	}
	return list[0], nil
}

// createMeal inserts the meal and its foods in one transaction.
func (s *pgMealStore) createMeal(ctx context.Context, userID int, m newMeal) (meal, error) {
	var mealID int
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO meals (user_id, date, type, total_calories, total_protein_g, total_carbs_g, total_fat_g)
			 VALUES (@userID, @date, @type, @calories, @proteinG, @carbsG, @fatG)
			 RETURNING id`,
			pgx.NamedArgs{
				"userID": userID, "date": m.Date, "type": m.Type,
				"calories": m.Totals.Calories, "proteinG": m.Totals.ProteinG,
				"carbsG": m.Totals.CarbsG, "fatG": m.Totals.FatG,
			}).Scan(&mealID)
		if err != nil {
			return err
		}
		return insertFoods(ctx, tx, mealID, m.Foods)
	})
	if err != nil {
		return meal{}, err
	}
	return s.mealByID(ctx, userID, mealID)
}

// updateMeal applies u in one transaction. Replacing foods deletes the old
// rows before inserting the new ones.
func (s *pgMealStore) updateMeal(ctx context.Context, userID, id int, u mealUpdate) (meal, error) {
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		args := pgx.NamedArgs{"id": id, "userID": userID, "date": u.Date, "type": u.Type}
		set := "date = COALESCE(@date, date), type = COALESCE(@type, type), updated_at = now()"
		if u.Foods != nil {
			set += `, total_calories = @calories, total_protein_g = @proteinG,
				total_carbs_g = @carbsG, total_fat_g = @fatG`
			args["calories"], args["proteinG"], args["carbsG"], args["fatG"] = u.Totals.Calories, u.Totals.ProteinG, u.Totals.CarbsG, u.Totals.FatG
		}
		tag, err := tx.Exec(ctx, "UPDATE meals SET "+set+" WHERE id = @id AND user_id = @userID", args)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return errNotFound
		}
		if u.Foods == nil {
			return nil
		}
		if _, err := tx.Exec(ctx, "DELETE FROM foods WHERE meal_id = $1", id); err != nil {
			return err
		}
		return insertFoods(ctx, tx, id, *u.Foods)
	})
	if err != nil {
		return meal{}, err
	}
	return s.mealByID(ctx, userID, id)
}

// deleteMeal removes a meal; its foods cascade.
func (s *pgMealStore) deleteMeal(ctx context.Context, userID, id int) error {
	return execOwned(ctx, s.db, "DELETE FROM meals WHERE id = @id AND user_id = @userID", id, userID)
}

// insertFoods writes the food lines of mealID inside tx.
func insertFoods(ctx context.Context, tx pgx.Tx, mealID int, foods []foodRequest) error {
	if len(foods) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, f := range foods {
		batch.Queue(
			`INSERT INTO foods (meal_id, name, quantity, unit, calories, protein_g, carbs_g, fat_g)
			 VALUES (@mealID, @name, @quantity, @unit, @calories, @proteinG, @carbsG, @fatG)`,
			pgx.NamedArgs{
				"mealID": mealID, "name": strings.TrimSpace(f.Name), "quantity": f.Quantity, "unit": f.Unit,
				"calories": f.Calories, "proteinG": f.ProteinG, "carbsG": f.CarbsG, "fatG": f.FatG,
			})
	}
	return tx.SendBatch(ctx, batch).Close()
}

// attachFoods loads the foods for meals in one query and assigns them.
func (s *pgMealStore) attachFoods(ctx context.Context, meals []meal) error {
	if len(meals) == 0 {
		return nil
	}
	ids := make([]int, len(meals))
	for i, m := range meals {
		ids[i] = m.ID
	}
	foods, err := queryMany[food](s.db, ctx,
		"SELECT * FROM foods WHERE meal_id = ANY(@ids) ORDER BY id",
		pgx.NamedArgs{"ids": ids})
	if err != nil {
		return err
	}
	byMeal := make(map[int][]food, len(meals))
	for _, f := range foods {
		byMeal[f.MealID] = append(byMeal[f.MealID], f)
	}
	for i := range meals {
		meals[i].Foods = byMeal[meals[i].ID]
		if meals[i].Foods == nil {
			meals[i].Foods = []food{}
		}
	}
	return nil
}
