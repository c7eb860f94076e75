package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/superapp/nutrilife/internal/apperrors"
	"github.com/superapp/nutrilife/internal/models"
)

type MealRepo struct {
	DB DBTX
}

var hundredGrams = decimal.NewFromInt(100)

const insertMeal = `-- name: InsertMeal
INSERT INTO meals (user_id, meal_type, meal_date)
VALUES ($1, $2, $3)
RETURNING id, created_at
`

const insertMealItem = `-- name: InsertMealItem
INSERT INTO meal_items (meal_id, food_id, quantity_g)
VALUES ($1, $2, $3)
RETURNING id
`

// CreateMeal stores the meal and all its items in one transaction
// A reference to an unknown food surfaces as apperrors.ErrFoodNotFound
func (r *MealRepo) CreateMeal(ctx context.Context, meal models.Meal) (saved models.Meal, err error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return saved, fmt.Errorf("db tx error: %w", err)
	}

	defer func() {
		switch err {
		case nil:
			err = tx.Commit(ctx)
		default:
			_ = tx.Rollback(ctx)
		}
	}()

	saved = meal
	err = tx.QueryRow(ctx, insertMeal, meal.UserID, meal.Type, meal.MealDate).Scan(&saved.ID, &saved.CreatedAt)
	if err != nil {
		return saved, fmt.Errorf("db error: %w", err)
	}

	for i := range saved.Items {
		item := &saved.Items[i]
		err = tx.QueryRow(ctx, insertMealItem, saved.ID, item.FoodID, item.QuantityG).Scan(&item.ID)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
				return saved, fmt.Errorf("repo error: %w", apperrors.ErrFoodNotFound)
			}
			return saved, fmt.Errorf("db error: %w", err)
		}
	}

	return saved, nil
}

const getMeal = `-- name: GetMeal
SELECT id, user_id, meal_type, meal_date, created_at
FROM meals
WHERE id = $1 AND user_id = $2
`

func (r *MealRepo) GetMeal(ctx context.Context, userID int64, mealID int64) (models.Meal, error) {
	rows, _ := r.DB.Query(ctx, getMeal, mealID, userID)
	meal, err := pgx.CollectOneRow(rows, rowToMeal)

	switch {
	case err == nil:
	case errors.Is(err, pgx.ErrNoRows):
		return meal, fmt.Errorf("repo error: %w", apperrors.ErrMealNotFound)
	default:
		return meal, fmt.Errorf("db error: %w", err)
	}

	meal.Items, err = r.listMealItems(ctx, meal.ID)
	if err != nil {
		return meal, err
	}

	return meal, nil
}

const listMealsByDate = `-- name: ListMealsByDate
SELECT id, user_id, meal_type, meal_date, created_at
FROM meals
WHERE user_id = $1 AND meal_date = $2
ORDER BY id
`

func (r *MealRepo) ListMealsByDate(ctx context.Context, userID int64, date time.Time) ([]models.Meal, error) {
	rows, _ := r.DB.Query(ctx, listMealsByDate, userID, date)
	meals, err := pgx.CollectRows(rows, rowToMeal)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	for i := range meals {
		meals[i].Items, err = r.listMealItems(ctx, meals[i].ID)
		if err != nil {
			return nil, err
		}
	}

	return meals, nil
}

const deleteMeal = `-- name: DeleteMeal
DELETE FROM meals
WHERE id = $1 AND user_id = $2
`

func (r *MealRepo) DeleteMeal(ctx context.Context, userID int64, mealID int64) error {
	tag, err := r.DB.Exec(ctx, deleteMeal, mealID, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo error: %w", apperrors.ErrMealNotFound)
	}
	return nil
}

const listMealItems = `-- name: ListMealItems
SELECT mi.id, mi.food_id, f.name, mi.quantity_g,
       f.calories, f.protein, f.carbs, f.fat, f.fiber
FROM meal_items mi
JOIN foods f ON f.id = mi.food_id
WHERE mi.meal_id = $1
ORDER BY mi.id
`

// listMealItems joins items with their foods and scales the per-100g
// nutrients to the item quantity
func (r *MealRepo) listMealItems(ctx context.Context, mealID int64) ([]models.MealItem, error) {
	rows, _ := r.DB.Query(ctx, listMealItems, mealID)
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.MealItem, error) {
		var item models.MealItem
		var per100g models.Nutrients
		err := row.Scan(&item.ID, &item.FoodID, &item.FoodName, &item.QuantityG,
			&per100g.Calories, &per100g.Protein, &per100g.Carbs, &per100g.Fat, &per100g.Fiber)
		if err != nil {
			return item, err
		}
		item.Nutrients = per100g.Scale(item.QuantityG.Div(hundredGrams))
		return item, nil
	})
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return items, nil
}

func rowToMeal(row pgx.CollectableRow) (models.Meal, error) {
	var m models.Meal
	err := row.Scan(&m.ID, &m.UserID, &m.Type, &m.MealDate, &m.CreatedAt)
	return m, err
}
