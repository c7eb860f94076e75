package profile

import (
	"context"
	"time"

	"github.com/superapp/nutrilife/internal/models"
	"github.com/superapp/nutrilife/internal/repository"
)

// Service owns profile CRUD
// It only ever consumes the user id extracted from a validated access token
type Service struct {
	storage repository.Storage
}

func NewService(storage repository.Storage) *Service {
	return &Service{storage: storage}
}

func (s *Service) Create(ctx context.Context, userID int64, p models.Profile) (models.Profile, error) {
	p.UserID = userID
	return s.storage.Profile().CreateProfile(ctx, p)
}

func (s *Service) Get(ctx context.Context, userID int64) (models.Profile, models.BodyMetrics, error) {
	p, err := s.storage.Profile().GetProfileByUserID(ctx, userID)
	if err != nil {
		return p, models.BodyMetrics{}, err
	}

	return p, Metrics(p, time.Now()), nil
}

func (s *Service) Update(ctx context.Context, userID int64, p models.Profile) (models.Profile, error) {
	p.UserID = userID
	return s.storage.Profile().UpdateProfile(ctx, p)
}

func (s *Service) Delete(ctx context.Context, userID int64) error {
	return s.storage.Profile().DeleteProfile(ctx, userID)
}

// List returns all profiles; exposed to admins only
func (s *Service) List(ctx context.Context) ([]models.Profile, error) {
	return s.storage.Profile().ListProfiles(ctx)
}

// SearchByName matches against first and last name, case insensitive
func (s *Service) SearchByName(ctx context.Context, name string) ([]models.Profile, error) {
	return s.storage.Profile().SearchProfilesByName(ctx, name)
}
