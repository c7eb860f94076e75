package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/superapp/nutrilife/internal/apperrors"
	"github.com/superapp/nutrilife/internal/handlers/render"
	"github.com/superapp/nutrilife/internal/logger"
	"github.com/superapp/nutrilife/internal/models"
)

// foodRequest carries nutrient values per 100 g
type foodRequest struct {
	Name        string          `json:"name" validate:"required,max=100"`
	Description string          `json:"description" validate:"max=500"`
	Calories    decimal.Decimal `json:"calories"`
	Protein     decimal.Decimal `json:"protein"`
	Carbs       decimal.Decimal `json:"carbs"`
	Fat         decimal.Decimal `json:"fat"`
	Fiber       decimal.Decimal `json:"fiber"`
}

func (req foodRequest) toModel() models.Food {
	return models.Food{
		Name:        req.Name,
		Description: req.Description,
		Nutrients: models.Nutrients{
			Calories: req.Calories,
			Protein:  req.Protein,
			Carbs:    req.Carbs,
			Fat:      req.Fat,
			Fiber:    req.Fiber,
		},
	}
}

type foodResponse struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Calories    decimal.Decimal `json:"calories"`
	Protein     decimal.Decimal `json:"protein"`
	Carbs       decimal.Decimal `json:"carbs"`
	Fat         decimal.Decimal `json:"fat"`
	Fiber       decimal.Decimal `json:"fiber"`
}

func newFoodResponse(f models.Food) foodResponse {
	return foodResponse{
		ID:          f.ID,
		Name:        f.Name,
		Description: f.Description,
		Calories:    f.Nutrients.Calories,
		Protein:     f.Nutrients.Protein,
		Carbs:       f.Nutrients.Carbs,
		Fat:         f.Nutrients.Fat,
		Fiber:       f.Nutrients.Fiber,
	}
}

// pathID parses the {id} path segment. Writes a 400 response and returns
// false when it is not a positive integer
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		render.ServiceError(w, "Invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func handleListFoods(ns nutritionService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		foods, err := ns.ListFoods(r.Context(), r.URL.Query().Get("search"))
		if err != nil {
			l.Error("Failed to list foods", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		responses := make([]foodResponse, 0, len(foods))
		for _, f := range foods {
			responses = append(responses, newFoodResponse(f))
		}
		render.JSON(w, responses)
	})
}

func handleGetFood(ns nutritionService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		food, err := ns.GetFood(r.Context(), id)
		switch {
		case err == nil:
			render.JSON(w, newFoodResponse(food))
		case errors.Is(err, apperrors.ErrFoodNotFound):
			render.ServiceError(w, "Food not found", http.StatusNotFound)
		default:
			l.Error("Failed to get food", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleCreateFood(ns nutritionService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[foodRequest](w, r)
		if err != nil {
			return
		}

		food, err := ns.CreateFood(r.Context(), data.toModel())
		if err != nil {
			l.Error("Failed to create food", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSONWithStatus(w, newFoodResponse(food), http.StatusCreated)
	})
}

func handleUpdateFood(ns nutritionService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		data, err := render.BindAndValidate[foodRequest](w, r)
		if err != nil {
			return
		}

		food := data.toModel()
		food.ID = id

		saved, err := ns.UpdateFood(r.Context(), food)
		switch {
		case err == nil:
			render.JSON(w, newFoodResponse(saved))
		case errors.Is(err, apperrors.ErrFoodNotFound):
			render.ServiceError(w, "Food not found", http.StatusNotFound)
		default:
			l.Error("Failed to update food", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleDeleteFood(ns nutritionService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		err := ns.DeleteFood(r.Context(), id)
		switch {
		case err == nil:
			w.WriteHeader(http.StatusNoContent)
		case errors.Is(err, apperrors.ErrFoodNotFound):
			render.ServiceError(w, "Food not found", http.StatusNotFound)
		default:
			l.Error("Failed to delete food", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}
