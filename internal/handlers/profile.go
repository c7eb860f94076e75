package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/superapp/nutrilife/internal/apperrors"
	"github.com/superapp/nutrilife/internal/handlers/render"
	"github.com/superapp/nutrilife/internal/handlers/userctx"
	"github.com/superapp/nutrilife/internal/logger"
	"github.com/superapp/nutrilife/internal/models"
	"github.com/superapp/nutrilife/internal/service/profile"
)

const dateLayout = "2006-01-02"

type profileRequest struct {
	FirstName      string  `json:"firstName" validate:"required,max=50"`
	LastName       string  `json:"lastName" validate:"required,max=50"`
	BirthDate      string  `json:"birthDate" validate:"required"`
	Gender         string  `json:"gender" validate:"required,oneof=MALE FEMALE OTHER"`
	HeightCm       float64 `json:"heightCm" validate:"required,gt=0,lte=300"`
	WeightKg       float64 `json:"weightKg" validate:"required,gt=0,lte=500"`
	ActivityLevel  string  `json:"activityLevel" validate:"required,oneof=SEDENTARY LIGHTLY_ACTIVE MODERATELY_ACTIVE VERY_ACTIVE EXTRA_ACTIVE"`
	Goal           string  `json:"goal" validate:"required,oneof=WEIGHT_LOSS WEIGHT_GAIN WEIGHT_MAINTENANCE MUSCLE_GAIN GENERAL_HEALTH"`
	TargetWeightKg float64 `json:"targetWeightKg" validate:"omitempty,gt=0,lte=500"`
}

func (req profileRequest) toModel() (models.Profile, error) {
	birthDate, err := time.Parse(dateLayout, req.BirthDate)
	if err != nil {
		return models.Profile{}, err
	}

	return models.Profile{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		BirthDate:      birthDate,
		Gender:         models.Gender(req.Gender),
		HeightCm:       req.HeightCm,
		WeightKg:       req.WeightKg,
		ActivityLevel:  models.ActivityLevel(req.ActivityLevel),
		Goal:           models.Goal(req.Goal),
		TargetWeightKg: req.TargetWeightKg,
	}, nil
}

type profileResponse struct {
	FirstName      string  `json:"firstName"`
	LastName       string  `json:"lastName"`
	BirthDate      string  `json:"birthDate"`
	Gender         string  `json:"gender"`
	HeightCm       float64 `json:"heightCm"`
	WeightKg       float64 `json:"weightKg"`
	ActivityLevel  string  `json:"activityLevel"`
	Goal           string  `json:"goal"`
	TargetWeightKg float64 `json:"targetWeightKg,omitempty"`
	Age            int     `json:"age"`
	BMI            float64 `json:"bmi"`
	BMICategory    string  `json:"bmiCategory"`
	BMR            int     `json:"bmr"`
	TDEE           int     `json:"tdee"`
}

func newProfileResponse(p models.Profile, m models.BodyMetrics) profileResponse {
	return profileResponse{
		FirstName:      p.FirstName,
		LastName:       p.LastName,
		BirthDate:      p.BirthDate.Format(dateLayout),
		Gender:         string(p.Gender),
		HeightCm:       p.HeightCm,
		WeightKg:       p.WeightKg,
		ActivityLevel:  string(p.ActivityLevel),
		Goal:           string(p.Goal),
		TargetWeightKg: p.TargetWeightKg,
		Age:            m.Age,
		BMI:            m.BMI,
		BMICategory:    m.BMICategory,
		BMR:            m.BMR,
		TDEE:           m.TDEE,
	}
}

func handleCreateProfile(ps profileService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := userctx.Identity(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		data, err := render.BindAndValidate[profileRequest](w, r)
		if err != nil {
			return
		}

		p, err := data.toModel()
		if err != nil {
			render.ServiceError(w, "Invalid birth date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}

		saved, err := ps.Create(r.Context(), identity.UserID, p)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrProfileAlreadyExists):
				render.ServiceError(w, "Profile already exists", http.StatusConflict)
			default:
				l.Error("Failed to create profile", "error", err)
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSONWithStatus(w, newProfileResponse(saved, profile.Metrics(saved, time.Now())), http.StatusCreated)
	})
}

func handleGetProfile(ps profileService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := userctx.Identity(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		p, metrics, err := ps.Get(r.Context(), identity.UserID)
		switch {
		case err == nil:
			render.JSON(w, newProfileResponse(p, metrics))
		case errors.Is(err, apperrors.ErrProfileNotFound):
			render.ServiceError(w, "Profile not found", http.StatusNotFound)
		default:
			l.Error("Failed to get profile", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleUpdateProfile(ps profileService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := userctx.Identity(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		data, err := render.BindAndValidate[profileRequest](w, r)
		if err != nil {
			return
		}

		p, err := data.toModel()
		if err != nil {
			render.ServiceError(w, "Invalid birth date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}

		saved, err := ps.Update(r.Context(), identity.UserID, p)
		switch {
		case err == nil:
			render.JSON(w, newProfileResponse(saved, profile.Metrics(saved, time.Now())))
		case errors.Is(err, apperrors.ErrProfileNotFound):
			render.ServiceError(w, "Profile not found", http.StatusNotFound)
		default:
			l.Error("Failed to update profile", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleDeleteProfile(ps profileService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := userctx.Identity(r.Context())
		if !ok {
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		err := ps.Delete(r.Context(), identity.UserID)
		switch {
		case err == nil:
			w.WriteHeader(http.StatusNoContent)
		case errors.Is(err, apperrors.ErrProfileNotFound):
			render.ServiceError(w, "Profile not found", http.StatusNotFound)
		default:
			l.Error("Failed to delete profile", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

// handleListProfiles serves the admin view of all profiles.
// Uses name search when the query parameter is present
func handleListProfiles(ps profileService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var profiles []models.Profile
		var err error

		if name := r.URL.Query().Get("name"); name != "" {
			profiles, err = ps.SearchByName(r.Context(), name)
		} else {
			profiles, err = ps.List(r.Context())
		}
		if err != nil {
			l.Error("Failed to list profiles", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		now := time.Now()
		responses := make([]profileResponse, 0, len(profiles))
		for _, p := range profiles {
			responses = append(responses, newProfileResponse(p, profile.Metrics(p, now)))
		}
		render.JSON(w, responses)
	})
}
