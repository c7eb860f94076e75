package apperrors

import (
	"errors"
)

var (
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")

	// Access token rejection reasons
	// Kept distinct so logs and metrics can tell them apart, even when the
	// client-facing message stays generic
	ErrTokenMalformed = errors.New("access token is malformed")
	ErrTokenSignature = errors.New("access token signature is invalid")
	ErrTokenExpired   = errors.New("access token is expired")
	ErrTokenRevoked   = errors.New("access token is revoked")

	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrRefreshTokenExpired  = errors.New("refresh token is expired")
	ErrRefreshTokenRevoked  = errors.New("refresh token is revoked")

	// Backend (ledger or database) unavailable
	// Validation must fail closed with this error, never pass silently
	ErrStoreUnavailable = errors.New("token store unavailable")

	ErrProfileAlreadyExists = errors.New("profile already exists")
	ErrProfileNotFound      = errors.New("profile not found")

	ErrFoodNotFound = errors.New("food not found")
	ErrMealNotFound = errors.New("meal not found")
)
