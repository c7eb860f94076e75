package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/superapp/nutrilife/internal/apperrors"
	"github.com/superapp/nutrilife/internal/models"
)

type FoodRepo struct {
	DB DBTX
}

const foodColumns = `id, name, description, calories, protein, carbs, fat, fiber, created_at, updated_at`

const createFood = `-- name: CreateFood
INSERT INTO foods (name, description, calories, protein, carbs, fat, fiber)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + foodColumns

func (r *FoodRepo) CreateFood(ctx context.Context, f models.Food) (models.Food, error) {
	rows, _ := r.DB.Query(ctx, createFood,
		f.Name, f.Description,
		f.Nutrients.Calories, f.Nutrients.Protein, f.Nutrients.Carbs, f.Nutrients.Fat, f.Nutrients.Fiber)
	food, err := pgx.CollectOneRow(rows, rowToFood)
	if err != nil {
		return food, fmt.Errorf("db error: %w", err)
	}
	return food, nil
}

const getFoodByID = `-- name: GetFoodByID
SELECT ` + foodColumns + `
FROM foods
WHERE id = $1
`

func (r *FoodRepo) GetFoodByID(ctx context.Context, id int64) (models.Food, error) {
	rows, _ := r.DB.Query(ctx, getFoodByID, id)
	return collectFood(rows)
}

const updateFood = `-- name: UpdateFood
UPDATE foods
SET name = $2, description = $3, calories = $4, protein = $5, carbs = $6,
    fat = $7, fiber = $8, updated_at = now()
WHERE id = $1
RETURNING ` + foodColumns

func (r *FoodRepo) UpdateFood(ctx context.Context, f models.Food) (models.Food, error) {
	rows, _ := r.DB.Query(ctx, updateFood,
		f.ID, f.Name, f.Description,
		f.Nutrients.Calories, f.Nutrients.Protein, f.Nutrients.Carbs, f.Nutrients.Fat, f.Nutrients.Fiber)
	return collectFood(rows)
}

const deleteFood = `-- name: DeleteFood
DELETE FROM foods
WHERE id = $1
`

func (r *FoodRepo) DeleteFood(ctx context.Context, id int64) error {
	tag, err := r.DB.Exec(ctx, deleteFood, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo error: %w", apperrors.ErrFoodNotFound)
	}
	return nil
}

const listFoods = `-- name: ListFoods
SELECT ` + foodColumns + `
FROM foods
ORDER BY name
`

func (r *FoodRepo) ListFoods(ctx context.Context) ([]models.Food, error) {
	rows, _ := r.DB.Query(ctx, listFoods)
	foods, err := pgx.CollectRows(rows, rowToFood)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return foods, nil
}

const searchFoodsByName = `-- name: SearchFoodsByName
SELECT ` + foodColumns + `
FROM foods
WHERE name ILIKE '%' || $1 || '%'
ORDER BY name
`

func (r *FoodRepo) SearchFoodsByName(ctx context.Context, name string) ([]models.Food, error) {
	rows, _ := r.DB.Query(ctx, searchFoodsByName, name)
	foods, err := pgx.CollectRows(rows, rowToFood)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return foods, nil
}

func collectFood(rows pgx.Rows) (models.Food, error) {
	food, err := pgx.CollectOneRow(rows, rowToFood)

	switch {
	case err == nil:
		return food, nil
	case errors.Is(err, pgx.ErrNoRows):
		return food, fmt.Errorf("repo error: %w", apperrors.ErrFoodNotFound)
	default:
		return food, fmt.Errorf("db error: %w", err)
	}
}

func rowToFood(row pgx.CollectableRow) (models.Food, error) {
	var f models.Food
	err := row.Scan(&f.ID, &f.Name, &f.Description,
		&f.Nutrients.Calories, &f.Nutrients.Protein, &f.Nutrients.Carbs, &f.Nutrients.Fat, &f.Nutrients.Fiber,
		&f.CreatedAt, &f.UpdatedAt)
	return f, err
}
