package handlers

import (
	"errors"
	"net/http"

	"github.com/superapp/nutrilife/internal/apperrors"
	"github.com/superapp/nutrilife/internal/handlers/middleware"
	"github.com/superapp/nutrilife/internal/handlers/render"
	"github.com/superapp/nutrilife/internal/logger"
	"github.com/superapp/nutrilife/internal/models"
)

// tokenResponse returned on register, login and refresh
type tokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"`
	ExpiresIn    int64  `json:"expiresIn"`
	Username     string `json:"username,omitempty"`
	Email        string `json:"email,omitempty"`
	Role         string `json:"role,omitempty"`
}

func newTokenResponse(pair models.TokenPair, expiresIn int64) tokenResponse {
	return tokenResponse{
		AccessToken:  pair.Access.Value,
		RefreshToken: pair.Refresh.Value,
		TokenType:    "Bearer",
		ExpiresIn:    expiresIn,
	}
}

func handleRegister(auth authService, l logger.Logger) http.Handler {
	type request struct {
		Username string `json:"username" validate:"required,min=3,max=50"`
		Email    string `json:"email" validate:"required,email,max=100"`
		Password string `json:"password" validate:"required,min=8,max=72"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		user, pair, err := auth.Register(r.Context(), data.Username, data.Email, data.Password)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrUserAlreadyExists):
				render.ServiceError(w, "Username or email already taken", http.StatusConflict)
			default:
				l.Error("Failed to register user", "error", err)
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		resp := newTokenResponse(pair, int64(auth.AccessTokenTTL().Seconds()))
		resp.Username = user.Username
		resp.Email = user.Email
		resp.Role = string(user.Role)
		render.JSONWithStatus(w, resp, http.StatusCreated)
	})
}

func handleLogin(auth authService, l logger.Logger) http.Handler {
	type request struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		user, pair, err := auth.Login(r.Context(), data.Username, data.Password)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrUserNotFound):
				// Same message for unknown user and wrong password
				render.ServiceError(w, "Invalid username or password", http.StatusUnauthorized)
			default:
				l.Error("Failed to login user", "error", err)
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		resp := newTokenResponse(pair, int64(auth.AccessTokenTTL().Seconds()))
		resp.Username = user.Username
		resp.Role = string(user.Role)
		render.JSON(w, resp)
	})
}

func handleRefresh(auth authService, l logger.Logger) http.Handler {
	type request struct {
		RefreshToken string `json:"refreshToken" validate:"required"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		pair, err := auth.Refresh(r.Context(), data.RefreshToken)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrRefreshTokenNotFound),
				errors.Is(err, apperrors.ErrRefreshTokenExpired),
				errors.Is(err, apperrors.ErrRefreshTokenRevoked):
				// Single client-facing message keeps token state private
				l.Info("Refresh rejected", "error", err)
				render.ServiceError(w, "Invalid refresh token", http.StatusUnauthorized)
			default:
				l.Error("Failed to refresh tokens", "error", err)
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSON(w, newTokenResponse(pair, int64(auth.AccessTokenTTL().Seconds())))
	})
}

func handleRevoke(auth authService, l logger.Logger) http.Handler {
	type request struct {
		RefreshToken string `json:"refreshToken" validate:"required"`
	}
	type response struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		// Revocation is idempotent, unknown tokens succeed too
		if err := auth.RevokeRefresh(r.Context(), data.RefreshToken); err != nil {
			l.Error("Failed to revoke refresh token", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, response{Message: "Refresh token revoked"})
	})
}

func handleValidate(auth authService, l logger.Logger) http.Handler {
	type request struct {
		Token string `json:"token" validate:"required"`
	}
	type response struct {
		Valid    bool   `json:"valid"`
		Username string `json:"username,omitempty"`
		Role     string `json:"role,omitempty"`
		Message  string `json:"message,omitempty"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		identity, err := auth.Validate(r.Context(), data.Token)
		switch {
		case err == nil:
			render.JSON(w, response{
				Valid:    true,
				Username: identity.Username,
				Role:     string(identity.Role),
			})
		case errors.Is(err, apperrors.ErrStoreUnavailable):
			l.Error("Revocation ledger unreachable", "error", err)
			render.ServiceError(w, "Service temporarily unavailable", http.StatusServiceUnavailable)
		default:
			// All rejection reasons collapse to one message for the caller
			render.JSON(w, response{Valid: false, Message: "Invalid token"})
		}
	})
}

func handleLogout(auth authService, l logger.Logger) http.Handler {
	type response struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := middleware.BearerToken(r)
		if token == "" {
			render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		err := auth.Logout(r.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrTokenMalformed), errors.Is(err, apperrors.ErrTokenSignature):
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
			default:
				l.Error("Failed to logout", "error", err)
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.JSON(w, response{Message: "Logged out successfully"})
	})
}

func handleHealth() http.Handler {
	type response struct {
		Status  string `json:"status"`
		Service string `json:"service"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, response{Status: "ok", Service: "auth"})
	})
}
