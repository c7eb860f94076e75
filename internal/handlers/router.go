package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/superapp/nutrilife/internal/handlers/middleware"
	"github.com/superapp/nutrilife/internal/logger"
	"github.com/superapp/nutrilife/internal/models"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	auth authService,
	profiles profileService,
	nutrition nutritionService,
	users userService,
	l logger.Logger,
) http.Handler {
	withAuth := middleware.AuthMiddleware(auth)
	withAdmin := func(h http.Handler) http.Handler {
		return withAuth(middleware.RequireAdmin(h))
	}

	apiauth := http.NewServeMux()
	apiauth.Handle("POST /register", handleRegister(auth, l))
	apiauth.Handle("POST /login", handleLogin(auth, l))
	apiauth.Handle("POST /refresh", handleRefresh(auth, l))
	apiauth.Handle("POST /revoke", handleRevoke(auth, l))
	apiauth.Handle("POST /validate", handleValidate(auth, l))
	apiauth.Handle("POST /logout", handleLogout(auth, l))
	apiauth.Handle("GET /health", handleHealth())

	root := http.NewServeMux()
	root.Handle("/api/auth/", http.StripPrefix("/api/auth", apiauth))

	root.Handle("POST /api/profile", withAuth(handleCreateProfile(profiles, l)))
	root.Handle("GET /api/profile", withAuth(handleGetProfile(profiles, l)))
	root.Handle("PUT /api/profile", withAuth(handleUpdateProfile(profiles, l)))
	root.Handle("DELETE /api/profile", withAuth(handleDeleteProfile(profiles, l)))
	root.Handle("GET /api/profiles", withAdmin(handleListProfiles(profiles, l)))

	root.Handle("GET /api/foods", withAuth(handleListFoods(nutrition, l)))
	root.Handle("GET /api/foods/{id}", withAuth(handleGetFood(nutrition, l)))
	root.Handle("POST /api/foods", withAdmin(handleCreateFood(nutrition, l)))
	root.Handle("PUT /api/foods/{id}", withAdmin(handleUpdateFood(nutrition, l)))
	root.Handle("DELETE /api/foods/{id}", withAdmin(handleDeleteFood(nutrition, l)))

	root.Handle("POST /api/meals", withAuth(handleCreateMeal(nutrition, l)))
	root.Handle("GET /api/meals", withAuth(handleListMeals(nutrition, l)))
	root.Handle("GET /api/meals/{id}", withAuth(handleGetMeal(nutrition, l)))
	root.Handle("DELETE /api/meals/{id}", withAuth(handleDeleteMeal(nutrition, l)))

	root.Handle("GET /api/users", withAdmin(handleListUsers(users, l)))
	root.Handle("GET /api/users/me", withAuth(handleUserMe(users, l)))

	return chain(root,
		middleware.LoggerMiddleware(l),
	)
}

type authService interface {
	// Register creates a user with the USER role and issues a token pair
	// Has to return apperrors.ErrUserAlreadyExists on username or email conflict
	Register(ctx context.Context, username, email, password string) (models.User, models.TokenPair, error)

	// Login verifies the password and issues a token pair
	// Has to return apperrors.ErrUserNotFound for unknown user or wrong password
	Login(ctx context.Context, username, password string) (models.User, models.TokenPair, error)

	// Refresh rotates the refresh token and issues a new pair
	Refresh(ctx context.Context, refresh string) (models.TokenPair, error)

	// Validate verifies the access token against signature, expiry and the
	// revocation ledger
	Validate(ctx context.Context, access string) (models.IdentityClaims, error)

	// Logout revokes the access token and the user's refresh tokens
	Logout(ctx context.Context, access string) error

	// RevokeRefresh marks a single refresh token as revoked
	RevokeRefresh(ctx context.Context, refresh string) error

	AccessTokenTTL() time.Duration
}

type profileService interface {
	Create(ctx context.Context, userID int64, p models.Profile) (models.Profile, error)
	Get(ctx context.Context, userID int64) (models.Profile, models.BodyMetrics, error)
	Update(ctx context.Context, userID int64, p models.Profile) (models.Profile, error)
	Delete(ctx context.Context, userID int64) error
	List(ctx context.Context) ([]models.Profile, error)
	SearchByName(ctx context.Context, name string) ([]models.Profile, error)
}

type nutritionService interface {
	CreateFood(ctx context.Context, food models.Food) (models.Food, error)
	GetFood(ctx context.Context, id int64) (models.Food, error)
	UpdateFood(ctx context.Context, food models.Food) (models.Food, error)
	DeleteFood(ctx context.Context, id int64) error
	ListFoods(ctx context.Context, search string) ([]models.Food, error)

	CreateMeal(ctx context.Context, userID int64, meal models.Meal) (models.Meal, error)
	GetMeal(ctx context.Context, userID int64, mealID int64) (models.Meal, error)
	ListMealsByDate(ctx context.Context, userID int64, date time.Time) ([]models.Meal, error)
	DeleteMeal(ctx context.Context, userID int64, mealID int64) error
}

type userService interface {
	GetUserByID(ctx context.Context, id int64) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
}
