package repositories

import (
	"context"
	"errors"
	"fmt"

	"lumi/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error)
	Upsert(ctx context.Context, profile *models.UserProfile) (*models.UserProfile, error)
	UpdateContactInfo(ctx context.Context, userID uuid.UUID, phone, address string, name *string) error
}

type profileRepo struct {
	db DB
}

func NewProfileRepo(db DB) ProfileRepository {
	return &profileRepo{db: db}
}

func (r *profileRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	profile := &models.UserProfile{}
	var role string
	query := `
		SELECT user_id, role, invited_by, phone, address, created_at
		FROM user_profiles
		WHERE user_id = $1
	`
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&profile.UserID, &role, &profile.InvitedBy,
		&profile.Phone, &profile.Address, &profile.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	profile.Role = models.UserRole(role)
	return profile, nil
}

// Upsert inserts the profile, or forces the role on conflict so an invite
// acceptance racing a plain sign-in can never downgrade the assignment.
func (r *profileRepo) Upsert(ctx context.Context, profile *models.UserProfile) (*models.UserProfile, error) {
	created := &models.UserProfile{}
	var role string
	query := `
		INSERT INTO user_profiles (user_id, role, invited_by)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET role = EXCLUDED.role
		RETURNING user_id, role, invited_by, phone, address, created_at
	`
	err := r.db.QueryRow(ctx, query, profile.UserID, string(profile.Role), profile.InvitedBy).Scan(
		&created.UserID, &role, &created.InvitedBy,
		&created.Phone, &created.Address, &created.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert profile: %w", err)
	}
	created.Role = models.UserRole(role)
	return created, nil
}

// UpdateContactInfo sets phone/address and, when name is non-nil, the user's
// display name, atomically. A nil name leaves the stored name untouched.
func (r *profileRepo) UpdateContactInfo(ctx context.Context, userID uuid.UUID, phone, address string, name *string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE user_profiles SET phone = $2, address = $3 WHERE user_id = $1`,
		userID, phone, address,
	)
	if err != nil {
		return fmt.Errorf("failed to update contact info: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("no profile exists for user %s", userID)
	}

	if name != nil {
		if _, err := tx.Exec(ctx, `UPDATE users SET name = $2 WHERE id = $1`, userID, *name); err != nil {
			return fmt.Errorf("failed to update display name: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit contact info update: %w", err)
	}
	return nil
}
