package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/superapp/nutrilife/internal/apperrors"
	"github.com/superapp/nutrilife/internal/logger"
	"github.com/superapp/nutrilife/internal/models"
	"github.com/superapp/nutrilife/internal/repository"
	"github.com/superapp/nutrilife/internal/service/token"
	"github.com/superapp/nutrilife/internal/service/token/blacklist"
)

const defaultRefreshTokenTTL = 7 * 24 * time.Hour

// Interface to create or compare user password hashes
type PasswordHasher interface {
	// Generate hash from password
	Hash(password string) (string, error)

	// Compare known hashedPassword and user provided password
	// Must be protected against timing attacks
	Compare(hashedPassword string, password string) error
}

type Config struct {
	// Secret key to sign access tokens
	// Required to be set
	SecretKey string

	// JWT MAC algorithm, defaulted by the codec when empty
	Alg string

	// Access and refresh token lifetimes
	// If not set the defaults are used (24h access, 7d refresh)
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	// Hasher used on registration and login
	// Bcrypt is used when nil
	Hasher PasswordHasher

	// LogoutAccessOnly limits Logout to blacklisting the presented access
	// token. The default (false) is a full logout: every refresh token of
	// the token's subject is revoked as well
	LogoutAccessOnly bool
}

// Service orchestrates the token lifecycle: it mints access and refresh
// tokens, rotates refresh tokens, validates access tokens against signature,
// expiry and the revocation ledger, and handles logout and global revoke
type Service struct {
	codec            *token.Codec
	ledger           blacklist.Ledger
	storage          repository.Storage
	hasher           PasswordHasher
	refreshTTL       time.Duration
	logoutAccessOnly bool
	logger           logger.Logger
}

func NewService(cfg Config, storage repository.Storage, ledger blacklist.Ledger, l logger.Logger) (*Service, error) {
	if storage == nil || ledger == nil {
		return nil, errors.New("storage and ledger must not be nil")
	}
	if l == nil {
		l = logger.NewNoOp()
	}

	codec, err := token.NewCodec(token.Config{
		SecretKey: cfg.SecretKey,
		Alg:       cfg.Alg,
		AccessTTL: cfg.AccessTokenTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("error while creating token codec. Err: %w", err)
	}

	hasher := cfg.Hasher
	if hasher == nil {
		hasher = BcryptHasher{}
	}

	refreshTTL := cfg.RefreshTokenTTL
	if refreshTTL == 0 {
		refreshTTL = defaultRefreshTokenTTL
	}

	return &Service{
		codec:            codec,
		ledger:           ledger,
		storage:          storage,
		hasher:           hasher,
		refreshTTL:       refreshTTL,
		logoutAccessOnly: cfg.LogoutAccessOnly,
		logger:           l,
	}, nil
}

// AccessTokenTTL returns the configured access token lifetime
func (s *Service) AccessTokenTTL() time.Duration {
	return s.codec.TTL()
}

// Register creates the user with role USER and logs it in
func (s *Service) Register(ctx context.Context, username, email, password string) (models.User, models.TokenPair, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return models.User{}, models.TokenPair{}, fmt.Errorf("can't use this as password. Err: %w", err)
	}

	user, err := s.storage.User().CreateUser(ctx, repository.CreateUserParams{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleUser,
	})
	if err != nil {
		return models.User{}, models.TokenPair{}, err
	}

	pair, err := s.generatePair(ctx, user)
	if err != nil {
		return models.User{}, models.TokenPair{}, err
	}

	return user, pair, nil
}

// Login checks credentials and mints a fresh token pair
// Minting the refresh token revokes every previous one of the user
func (s *Service) Login(ctx context.Context, username, password string) (models.User, models.TokenPair, error) {
	user, err := s.storage.User().GetUserByUsername(ctx, username)
	if err != nil {
		// Burn a compare anyway so a missing user costs as much as a
		// wrong password
		_ = s.hasher.Compare("$2a$10$0000000000000000000000000000000000000000000000000000.", password)
		return models.User{}, models.TokenPair{}, fmt.Errorf("login failed: %w", apperrors.ErrUserNotFound)
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return models.User{}, models.TokenPair{}, fmt.Errorf("login failed: %w", apperrors.ErrUserNotFound)
	}

	pair, err := s.generatePair(ctx, user)
	if err != nil {
		return models.User{}, models.TokenPair{}, err
	}

	return user, pair, nil
}

// Refresh exchanges a usable refresh token for a new pair
// The old token is revoked in the same transaction that stores its
// replacement, so there is no window with zero or two usable tokens
func (s *Service) Refresh(ctx context.Context, refresh string) (models.TokenPair, error) {
	record, err := s.storage.Refresh().Get(ctx, refresh)
	if err != nil {
		return models.TokenPair{}, err
	}

	now := time.Now()
	switch {
	case record.Revoked:
		return models.TokenPair{}, fmt.Errorf("refresh failed: %w", apperrors.ErrRefreshTokenRevoked)
	case now.After(record.ExpiresAt):
		// Lazy cleanup: the row is useless, drop it right here
		if err := s.storage.Refresh().Delete(ctx, record.Token); err != nil {
			s.logger.Warn("can't delete expired refresh token", "error", err.Error())
		}
		return models.TokenPair{}, fmt.Errorf("refresh failed: %w", apperrors.ErrRefreshTokenExpired)
	}

	user, err := s.storage.User().GetUserByID(ctx, record.UserID)
	if err != nil {
		return models.TokenPair{}, err
	}

	return s.generatePair(ctx, user)
}

// Validate decodes the access token and checks the revocation ledger
// On ledger unavailability it fails closed with ErrStoreUnavailable
func (s *Service) Validate(ctx context.Context, access string) (models.IdentityClaims, error) {
	claims, err := s.codec.Decode(access)
	if err != nil {
		return models.IdentityClaims{}, err
	}

	revoked, err := s.ledger.IsRevoked(ctx, claims.TokenID)
	if err != nil {
		s.logger.Error("revocation ledger unavailable, failing closed", "error", err.Error())
		return models.IdentityClaims{}, err
	}
	if revoked {
		return models.IdentityClaims{}, fmt.Errorf("validation failed: %w", apperrors.ErrTokenRevoked)
	}

	return claims, nil
}

// Logout blacklists the presented access token until its own expiry
// The ledger write runs on unverified claims: identifiers there can only deny
// access, and a token right at its expiry boundary must still be revocable
// Unless configured LogoutAccessOnly, the subject's refresh tokens are
// revoked too, and that requires an authentic signature: the subject id of a
// forged token must not be able to end someone else's sessions
func (s *Service) Logout(ctx context.Context, access string) error {
	claims, err := s.codec.DecodeUnverified(access)
	if err != nil {
		return err
	}

	if err := s.ledger.Revoke(ctx, claims.TokenID, claims.ExpiresAt); err != nil {
		return err
	}

	if s.logoutAccessOnly {
		return nil
	}

	verified, err := s.codec.DecodeAllowExpired(access)
	if err != nil {
		return err
	}

	return s.storage.Refresh().RevokeAllForUser(ctx, verified.UserID)
}

// RevokeRefresh revokes a single refresh token; unknown tokens are a no-op
func (s *Service) RevokeRefresh(ctx context.Context, refresh string) error {
	return s.storage.Refresh().Revoke(ctx, refresh)
}

// RevokeAllForUser revokes every refresh token of the user
// Already issued access tokens stay valid until their natural expiry unless
// blacklisted individually via Logout
func (s *Service) RevokeAllForUser(ctx context.Context, userID int64) error {
	return s.storage.Refresh().RevokeAllForUser(ctx, userID)
}

func (s *Service) generatePair(ctx context.Context, user models.User) (models.TokenPair, error) {
	var pair models.TokenPair

	access, err := s.codec.Issue(user)
	if err != nil {
		return pair, err
	}

	// Opaque refresh token, 32 random bytes
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return pair, fmt.Errorf("error while generating refresh token. Err: %w", err)
	}
	refresh := hex.EncodeToString(b)

	now := time.Now().Truncate(time.Second)
	record, err := s.storage.Refresh().Issue(ctx, models.RefreshToken{
		Token:     refresh,
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.refreshTTL),
	})
	if err != nil {
		return pair, fmt.Errorf("error while saving refresh token. Err: %w", err)
	}

	return models.TokenPair{
		Access:  access,
		Refresh: models.IssuedToken{Value: record.Token, ExpiresAt: record.ExpiresAt},
	}, nil
}
