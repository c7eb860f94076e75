package nutrition

import (
	"context"
	"time"

	"github.com/superapp/nutrilife/internal/models"
	"github.com/superapp/nutrilife/internal/repository"
)

// Service owns the food catalog and user meals
// Plain persistence-backed request/response mapping, no token logic here
type Service struct {
	storage repository.Storage
}

func NewService(storage repository.Storage) *Service {
	return &Service{storage: storage}
}

func (s *Service) CreateFood(ctx context.Context, food models.Food) (models.Food, error) {
	return s.storage.Food().CreateFood(ctx, food)
}

func (s *Service) GetFood(ctx context.Context, id int64) (models.Food, error) {
	return s.storage.Food().GetFoodByID(ctx, id)
}

func (s *Service) UpdateFood(ctx context.Context, food models.Food) (models.Food, error) {
	return s.storage.Food().UpdateFood(ctx, food)
}

func (s *Service) DeleteFood(ctx context.Context, id int64) error {
	return s.storage.Food().DeleteFood(ctx, id)
}

// ListFoods returns the whole catalog, or only names matching search when
// it is not empty
func (s *Service) ListFoods(ctx context.Context, search string) ([]models.Food, error) {
	if search != "" {
		return s.storage.Food().SearchFoodsByName(ctx, search)
	}
	return s.storage.Food().ListFoods(ctx)
}

// CreateMeal stores the meal with its items and returns it with item
// nutrients scaled to quantities
func (s *Service) CreateMeal(ctx context.Context, userID int64, meal models.Meal) (models.Meal, error) {
	meal.UserID = userID

	saved, err := s.storage.Meal().CreateMeal(ctx, meal)
	if err != nil {
		return saved, err
	}

	// Re-read to pick up food names and computed nutrients
	return s.storage.Meal().GetMeal(ctx, userID, saved.ID)
}

func (s *Service) GetMeal(ctx context.Context, userID int64, mealID int64) (models.Meal, error) {
	return s.storage.Meal().GetMeal(ctx, userID, mealID)
}

func (s *Service) ListMealsByDate(ctx context.Context, userID int64, date time.Time) ([]models.Meal, error) {
	return s.storage.Meal().ListMealsByDate(ctx, userID, date)
}

func (s *Service) DeleteMeal(ctx context.Context, userID int64, mealID int64) error {
	return s.storage.Meal().DeleteMeal(ctx, userID, mealID)
}
