package repository

import (
	"context"
	"time"

	"github.com/superapp/nutrilife/internal/models"
)

type CreateUserParams struct {
	Username     string
	Email        string
	PasswordHash string
	Role         models.Role
}

type UserRepo interface {
	// Create user
	// Returns apperrors.ErrUserAlreadyExists when username or email is taken
	CreateUser(ctx context.Context, arg CreateUserParams) (models.User, error)

	// Get user by id or username
	// Returns apperrors.ErrUserNotFound when the user does not exist
	GetUserByID(ctx context.Context, id int64) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)

	ListUsers(ctx context.Context) ([]models.User, error)
}

type RefreshTokenRepo interface {
	// Issue stores a new refresh token for the user after revoking every
	// non-revoked one the user had. Both steps happen in a single
	// transaction, serialized per user: at any moment at most one usable
	// token per user exists
	Issue(ctx context.Context, token models.RefreshToken) (models.RefreshToken, error)

	// Get the token whether or not it is usable
	// Returns apperrors.ErrRefreshTokenNotFound if no such row exists
	Get(ctx context.Context, token string) (models.RefreshToken, error)

	// Revoke marks the token revoked; revoking a revoked token is a no-op
	Revoke(ctx context.Context, token string) error

	// RevokeAllForUser marks every token of the user revoked
	RevokeAllForUser(ctx context.Context, userID int64) error

	// Delete removes a single token row
	Delete(ctx context.Context, token string) error

	// DeleteExpired removes every token past its expiry, returns the count
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type ProfileRepo interface {
	// Returns apperrors.ErrProfileAlreadyExists when the user has a profile
	CreateProfile(ctx context.Context, profile models.Profile) (models.Profile, error)

	// Returns apperrors.ErrProfileNotFound when the user has no profile
	GetProfileByUserID(ctx context.Context, userID int64) (models.Profile, error)
	UpdateProfile(ctx context.Context, profile models.Profile) (models.Profile, error)
	DeleteProfile(ctx context.Context, userID int64) error

	ListProfiles(ctx context.Context) ([]models.Profile, error)
	SearchProfilesByName(ctx context.Context, name string) ([]models.Profile, error)
}

type FoodRepo interface {
	CreateFood(ctx context.Context, food models.Food) (models.Food, error)

	// Returns apperrors.ErrFoodNotFound when no such food exists
	GetFoodByID(ctx context.Context, id int64) (models.Food, error)
	UpdateFood(ctx context.Context, food models.Food) (models.Food, error)
	DeleteFood(ctx context.Context, id int64) error

	ListFoods(ctx context.Context) ([]models.Food, error)
	SearchFoodsByName(ctx context.Context, name string) ([]models.Food, error)
}

type MealRepo interface {
	// CreateMeal stores the meal and its items in one transaction
	CreateMeal(ctx context.Context, meal models.Meal) (models.Meal, error)

	// Returns apperrors.ErrMealNotFound when no such meal exists for the user
	GetMeal(ctx context.Context, userID int64, mealID int64) (models.Meal, error)
	ListMealsByDate(ctx context.Context, userID int64, date time.Time) ([]models.Meal, error)
	DeleteMeal(ctx context.Context, userID int64, mealID int64) error
}

// Storage aggregates all repositories over a single database handle
type Storage interface {
	User() UserRepo
	Refresh() RefreshTokenRepo
	Profile() ProfileRepo
	Food() FoodRepo
	Meal() MealRepo

	// InTx runs fn with a Storage bound to one transaction
	InTx(ctx context.Context, fn func(Storage) error) error
}
