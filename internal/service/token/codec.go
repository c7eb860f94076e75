package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/superapp/nutrilife/internal/apperrors"
	"github.com/superapp/nutrilife/internal/models"
)

const (
	defaultAccessTokenTTL = 24 * time.Hour
	defaultSigningMethod  = "HS256"
)

// AccessTokenClaims as encoded in the JWT payload
// Subject carries the user id in decimal form
type AccessTokenClaims struct {
	jwt.RegisteredClaims
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
}

type Config struct {
	// Secret key to sign access tokens
	// Required to be set
	SecretKey string

	// JWT MAC (Message Authentication Code) algorithm
	// If not set the default is used
	Alg string

	// Access token lifetime
	// If not set the default is used
	AccessTTL time.Duration
}

// Codec mints and verifies access tokens
// Purely cryptographic: it never consults the revocation ledger and keeps no
// state beyond the signing key
type Codec struct {
	key       []byte
	alg       jwt.SigningMethod
	accessTTL time.Duration
}

// NewCodec fails on empty key material: a misconfigured signing key is a
// startup error, not a per-request one
func NewCodec(cfg Config) (*Codec, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("secret key must not be empty")
	}

	if cfg.Alg == "" {
		cfg.Alg = defaultSigningMethod
	}
	alg := jwt.GetSigningMethod(cfg.Alg)
	if alg == nil {
		return nil, fmt.Errorf("unknown signing method: %q", cfg.Alg)
	}

	if cfg.AccessTTL == 0 {
		cfg.AccessTTL = defaultAccessTokenTTL
	}

	return &Codec{
		key:       []byte(cfg.SecretKey),
		alg:       alg,
		accessTTL: cfg.AccessTTL,
	}, nil
}

// TTL returns the configured access token lifetime
func (c *Codec) TTL() time.Duration {
	return c.accessTTL
}

// Issue mints a signed access token for the user with the configured lifetime
func (c *Codec) Issue(user models.User) (models.IssuedToken, error) {
	return c.IssueWithTTL(user, c.accessTTL)
}

func (c *Codec) IssueWithTTL(user models.User, ttl time.Duration) (models.IssuedToken, error) {
	now := time.Now().Truncate(time.Second)
	expiresAt := now.Add(ttl)

	token := jwt.NewWithClaims(
		c.alg,
		AccessTokenClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        uuid.NewString(),
				Subject:   strconv.FormatInt(user.ID, 10),
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(expiresAt),
			},
			Username: user.Username,
			Role:     user.Role,
		},
	)

	signed, err := token.SignedString(c.key)
	if err != nil {
		return models.IssuedToken{}, fmt.Errorf("error while signing access token. Err: %w", err)
	}

	return models.IssuedToken{Value: signed, ExpiresAt: expiresAt}, nil
}

// Decode verifies signature, structure and expiry and returns the claims
// Revocation is not checked here, that is the lifecycle manager's job
func (c *Codec) Decode(access string) (models.IdentityClaims, error) {
	claims := &AccessTokenClaims{}

	_, err := jwt.ParseWithClaims(
		access,
		claims,
		func(t *jwt.Token) (any, error) { return c.key, nil },
		jwt.WithValidMethods([]string{c.alg.Alg()}),
	)

	switch {
	case err == nil:
		return toIdentity(claims)
	case errors.Is(err, jwt.ErrTokenExpired):
		return models.IdentityClaims{}, fmt.Errorf("%w: %w", apperrors.ErrTokenExpired, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return models.IdentityClaims{}, fmt.Errorf("%w: %w", apperrors.ErrTokenSignature, err)
	default:
		return models.IdentityClaims{}, fmt.Errorf("%w: %w", apperrors.ErrTokenMalformed, err)
	}
}

// DecodeAllowExpired verifies the signature but skips expiry validation
// A token right at its expiry boundary must still authenticate its subject
// for logout
func (c *Codec) DecodeAllowExpired(access string) (models.IdentityClaims, error) {
	claims := &AccessTokenClaims{}

	_, err := jwt.ParseWithClaims(
		access,
		claims,
		func(t *jwt.Token) (any, error) { return c.key, nil },
		jwt.WithValidMethods([]string{c.alg.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	switch {
	case err == nil:
		return toIdentity(claims)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return models.IdentityClaims{}, fmt.Errorf("%w: %w", apperrors.ErrTokenSignature, err)
	default:
		return models.IdentityClaims{}, fmt.Errorf("%w: %w", apperrors.ErrTokenMalformed, err)
	}
}

// DecodeUnverified extracts claims without verifying signature or expiry
// The identifiers may only be used where a forgery cannot gain anything,
// such as feeding the deny-only revocation ledger
func (c *Codec) DecodeUnverified(access string) (models.IdentityClaims, error) {
	claims := &AccessTokenClaims{}

	_, _, err := jwt.NewParser().ParseUnverified(access, claims)
	if err != nil {
		return models.IdentityClaims{}, fmt.Errorf("%w: %w", apperrors.ErrTokenMalformed, err)
	}

	return toIdentity(claims)
}

// toIdentity converts JWT claims to identity claims
// A token with missing or inconsistent claims is rejected as malformed:
// claims are returned fully populated or not at all
func toIdentity(claims *AccessTokenClaims) (models.IdentityClaims, error) {
	if claims.ID == "" || claims.Username == "" || !claims.Role.Valid() ||
		claims.IssuedAt == nil || claims.ExpiresAt == nil {
		return models.IdentityClaims{}, fmt.Errorf("%w: incomplete claims", apperrors.ErrTokenMalformed)
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return models.IdentityClaims{}, fmt.Errorf("%w: bad subject", apperrors.ErrTokenMalformed)
	}

	return models.IdentityClaims{
		UserID:    userID,
		Username:  claims.Username,
		Role:      claims.Role,
		TokenID:   claims.ID,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
