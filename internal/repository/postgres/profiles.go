package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/superapp/nutrilife/internal/apperrors"
	"github.com/superapp/nutrilife/internal/models"
)

type ProfileRepo struct {
	DB DBTX
}

const profileColumns = `id, user_id, first_name, last_name, birth_date, gender,
height_cm, weight_kg, activity_level, goal, target_weight_kg, created_at, updated_at`

const createProfile = `-- name: CreateProfile
INSERT INTO profiles (user_id, first_name, last_name, birth_date, gender,
                      height_cm, weight_kg, activity_level, goal, target_weight_kg)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING ` + profileColumns

func (r *ProfileRepo) CreateProfile(ctx context.Context, p models.Profile) (models.Profile, error) {
	rows, _ := r.DB.Query(ctx, createProfile,
		p.UserID, p.FirstName, p.LastName, p.BirthDate, p.Gender,
		p.HeightCm, p.WeightKg, p.ActivityLevel, p.Goal, p.TargetWeightKg)
	profile, err := pgx.CollectOneRow(rows, rowToProfile)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgerrcode.IsIntegrityConstraintViolation(pgErr.Code) {
			return profile, fmt.Errorf("repo error: %w", apperrors.ErrProfileAlreadyExists)
		}
		return profile, fmt.Errorf("db error: %w", err)
	}

	return profile, nil
}

const getProfileByUserID = `-- name: GetProfileByUserID
SELECT ` + profileColumns + `
FROM profiles
WHERE user_id = $1
`

func (r *ProfileRepo) GetProfileByUserID(ctx context.Context, userID int64) (models.Profile, error) {
	rows, _ := r.DB.Query(ctx, getProfileByUserID, userID)
	return collectProfile(rows)
}

const updateProfile = `-- name: UpdateProfile
UPDATE profiles
SET first_name = $2, last_name = $3, birth_date = $4, gender = $5,
    height_cm = $6, weight_kg = $7, activity_level = $8, goal = $9,
    target_weight_kg = $10, updated_at = now()
WHERE user_id = $1
RETURNING ` + profileColumns

func (r *ProfileRepo) UpdateProfile(ctx context.Context, p models.Profile) (models.Profile, error) {
	rows, _ := r.DB.Query(ctx, updateProfile,
		p.UserID, p.FirstName, p.LastName, p.BirthDate, p.Gender,
		p.HeightCm, p.WeightKg, p.ActivityLevel, p.Goal, p.TargetWeightKg)
	return collectProfile(rows)
}

const deleteProfile = `-- name: DeleteProfile
DELETE FROM profiles
WHERE user_id = $1
`

func (r *ProfileRepo) DeleteProfile(ctx context.Context, userID int64) error {
	tag, err := r.DB.Exec(ctx, deleteProfile, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo error: %w", apperrors.ErrProfileNotFound)
	}
	return nil
}

const listProfiles = `-- name: ListProfiles
SELECT ` + profileColumns + `
FROM profiles
ORDER BY id
`

func (r *ProfileRepo) ListProfiles(ctx context.Context) ([]models.Profile, error) {
	rows, _ := r.DB.Query(ctx, listProfiles)
	profiles, err := pgx.CollectRows(rows, rowToProfile)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return profiles, nil
}

const searchProfilesByName = `-- name: SearchProfilesByName
SELECT ` + profileColumns + `
FROM profiles
WHERE first_name ILIKE '%' || $1 || '%' OR last_name ILIKE '%' || $1 || '%'
ORDER BY id
`

func (r *ProfileRepo) SearchProfilesByName(ctx context.Context, name string) ([]models.Profile, error) {
	rows, _ := r.DB.Query(ctx, searchProfilesByName, name)
	profiles, err := pgx.CollectRows(rows, rowToProfile)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return profiles, nil
}

func collectProfile(rows pgx.Rows) (models.Profile, error) {
	profile, err := pgx.CollectOneRow(rows, rowToProfile)

	switch {
	case err == nil:
		return profile, nil
	case errors.Is(err, pgx.ErrNoRows):
		return profile, fmt.Errorf("repo error: %w", apperrors.ErrProfileNotFound)
	default:
		return profile, fmt.Errorf("db error: %w", err)
	}
}

func rowToProfile(row pgx.CollectableRow) (models.Profile, error) {
	var p models.Profile
	err := row.Scan(&p.ID, &p.UserID, &p.FirstName, &p.LastName, &p.BirthDate, &p.Gender,
		&p.HeightCm, &p.WeightKg, &p.ActivityLevel, &p.Goal, &p.TargetWeightKg,
		&p.CreatedAt, &p.UpdatedAt)
	return p, err
}
