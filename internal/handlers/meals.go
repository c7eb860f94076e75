package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/superapp/nutrilife/internal/apperrors"
	"github.com/superapp/nutrilife/internal/handlers/render"
	"github.com/superapp/nutrilife/internal/handlers/userctx"
	"github.com/superapp/nutrilife/internal/logger"
	"github.com/superapp/nutrilife/internal/models"
)

type mealItemResponse struct {
	ID        int64           `json:"id"`
	FoodID    int64           `json:"foodId"`
	FoodName  string          `json:"foodName"`
	QuantityG decimal.Decimal `json:"quantityG"`
	Calories  decimal.Decimal `json:"calories"`
	Protein   decimal.Decimal `json:"protein"`
	Carbs     decimal.Decimal `json:"carbs"`
	Fat       decimal.Decimal `json:"fat"`
	Fiber     decimal.Decimal `json:"fiber"`
}

type mealResponse struct {
	ID            int64              `json:"id"`
	MealType      string             `json:"mealType"`
	MealDate      string             `json:"mealDate"`
	Items         []mealItemResponse `json:"items"`
	TotalCalories decimal.Decimal    `json:"totalCalories"`
	TotalProtein  decimal.Decimal    `json:"totalProtein"`
	TotalCarbs    decimal.Decimal    `json:"totalCarbs"`
	TotalFat      decimal.Decimal    `json:"totalFat"`
	TotalFiber    decimal.Decimal    `json:"totalFiber"`
}

func newMealResponse(m models.Meal) mealResponse {
	items := make([]mealItemResponse, 0, len(m.Items))
	for _, item := range m.Items {
		items = append(items, mealItemResponse{
			ID:        item.ID,
			FoodID:    item.FoodID,
			FoodName:  item.FoodName,
			QuantityG: item.QuantityG,
			Calories:  item.Nutrients.Calories,
			Protein:   item.Nutrients.Protein,
			Carbs:     item.Nutrients.Carbs,
			Fat:       item.Nutrients.Fat,
			Fiber:     item.Nutrients.Fiber,
		})
	}

	totals := m.Totals()
	return mealResponse{
		ID:            m.ID,
		MealType:      string(m.Type),
		MealDate:      m.MealDate.Format(dateLayout),
		Items:         items,
		TotalCalories: totals.Calories,
		TotalProtein:  totals.Protein,
		TotalCarbs:    totals.Carbs,
		TotalFat:      totals.Fat,
		TotalFiber:    totals.Fiber,
	}
}

func handleCreateMeal(ns nutritionService, l logger.Logger) http.Handler {
	type itemRequest struct {
		FoodID    int64           `json:"foodId" validate:"required,gt=0"`
		QuantityG decimal.Decimal `json:"quantityG" validate:"required"`
	}
	type request struct {
		MealType string        `json:"mealType" validate:"required,oneof=BREAKFAST LUNCH DINNER SNACK"`
		MealDate string        `json:"mealDate" validate:"required"`
		Items    []itemRequest `json:"items" validate:"required,min=1,dive"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := userctx.Identity(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		mealDate, err := time.Parse(dateLayout, data.MealDate)
		if err != nil {
			render.ServiceError(w, "Invalid meal date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}

		meal := models.Meal{
			Type:     models.MealType(data.MealType),
			MealDate: mealDate,
		}
		for _, item := range data.Items {
			if !item.QuantityG.IsPositive() {
				render.ServiceError(w, "Item quantity must be positive", http.StatusBadRequest)
				return
			}
			meal.Items = append(meal.Items, models.MealItem{
				FoodID:    item.FoodID,
				QuantityG: item.QuantityG,
			})
		}

		saved, err := ns.CreateMeal(r.Context(), identity.UserID, meal)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrFoodNotFound):
				render.ServiceError(w, "Unknown food in meal items", http.StatusBadRequest)
			default:
				l.Error("Failed to create meal", "error", err)
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSONWithStatus(w, newMealResponse(saved), http.StatusCreated)
	})
}

func handleGetMeal(ns nutritionService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := userctx.Identity(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		id, ok := pathID(w, r)
		if !ok {
			return
		}

		meal, err := ns.GetMeal(r.Context(), identity.UserID, id)
		switch {
		case err == nil:
			render.JSON(w, newMealResponse(meal))
		case errors.Is(err, apperrors.ErrMealNotFound):
			render.ServiceError(w, "Meal not found", http.StatusNotFound)
		default:
			l.Error("Failed to get meal", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

// handleListMeals returns the meals of the authenticated user for one day.
// Defaults to today when the date parameter is missing
func handleListMeals(ns nutritionService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := userctx.Identity(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		date := time.Now()
		if raw := r.URL.Query().Get("date"); raw != "" {
			parsed, err := time.Parse(dateLayout, raw)
			if err != nil {
				render.ServiceError(w, "Invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			date = parsed
		}

		meals, err := ns.ListMealsByDate(r.Context(), identity.UserID, date)
		if err != nil {
			l.Error("Failed to list meals", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		responses := make([]mealResponse, 0, len(meals))
		for _, m := range meals {
			responses = append(responses, newMealResponse(m))
		}
		render.JSON(w, responses)
	})
}

func handleDeleteMeal(ns nutritionService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := userctx.Identity(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		id, ok := pathID(w, r)
		if !ok {
			return
		}

		err := ns.DeleteMeal(r.Context(), identity.UserID, id)
		switch {
		case err == nil:
			w.WriteHeader(http.StatusNoContent)
		case errors.Is(err, apperrors.ErrMealNotFound):
			render.ServiceError(w, "Meal not found", http.StatusNotFound)
		default:
			l.Error("Failed to delete meal", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}
