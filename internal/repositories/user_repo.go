package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lumi/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CreateClientAccountParams describes the transactional client account
// creation. ExistingUserID reuses a passwordless account for the same email
// instead of inserting a duplicate.
type CreateClientAccountParams struct {
	Email          string
	Name           *string
	PasswordHash   string
	TrainerID      uuid.UUID
	InviteID       uuid.UUID
	Phone          string
	Address        string
	ExistingUserID *uuid.UUID
}

type UserRepository interface {
	GetWithProfileByEmail(ctx context.Context, email string) (*models.UserWithProfile, error)
	GetWithProfileByID(ctx context.Context, id uuid.UUID) (*models.UserWithProfile, error)
	CreateFromOAuth(ctx context.Context, email string, name *string) (*models.User, error)
	LinkAccount(ctx context.Context, userID uuid.UUID, provider, providerAccountID string) error
	CreateClientAccount(ctx context.Context, params CreateClientAccountParams) (*models.UserWithProfile, error)
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error
}

type userRepo struct {
	db DB
}

func NewUserRepo(db DB) UserRepository {
	return &userRepo{db: db}
}

const userWithProfileQuery = `
	SELECT
		u.id, u.name, u.email, u.password_hash, u.created_at,
		up.role, up.invited_by, up.phone, up.address, up.created_at
	FROM users u
	LEFT JOIN user_profiles up ON up.user_id = u.id
`

func (r *userRepo) GetWithProfileByEmail(ctx context.Context, email string) (*models.UserWithProfile, error) {
	row := r.db.QueryRow(ctx, userWithProfileQuery+`WHERE lower(u.email) = lower($1) LIMIT 1`, email)
	return scanUserWithProfile(row)
}

func (r *userRepo) GetWithProfileByID(ctx context.Context, id uuid.UUID) (*models.UserWithProfile, error) {
	row := r.db.QueryRow(ctx, userWithProfileQuery+`WHERE u.id = $1 LIMIT 1`, id)
	return scanUserWithProfile(row)
}

// scanUserWithProfile returns nil without error when no row matched. A user
// without a profile comes back with Profile == nil.
func scanUserWithProfile(row pgx.Row) (*models.UserWithProfile, error) {
	var (
		record         models.UserWithProfile
		role           *string
		invitedBy      *uuid.UUID
		phone          *string
		address        *string
		profileCreated *time.Time
	)

	err := row.Scan(
		&record.User.ID, &record.User.Name, &record.User.Email,
		&record.User.PasswordHash, &record.User.CreatedAt,
		&role, &invitedBy, &phone, &address, &profileCreated,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	if role != nil {
		createdAt := record.User.CreatedAt
		if profileCreated != nil {
			createdAt = *profileCreated
		}
		record.Profile = &models.UserProfile{
			UserID:    record.User.ID,
			Role:      models.UserRole(*role),
			InvitedBy: invitedBy,
			Phone:     phone,
			Address:   address,
			CreatedAt: createdAt,
		}
	}

	return &record, nil
}

func (r *userRepo) CreateFromOAuth(ctx context.Context, email string, name *string) (*models.User, error) {
	user := &models.User{}
	query := `
		INSERT INTO users (email, name)
		VALUES ($1, $2)
		ON CONFLICT (email) DO UPDATE SET name = COALESCE(users.name, EXCLUDED.name)
		RETURNING id, name, email, password_hash, created_at
	`
	err := r.db.QueryRow(ctx, query, email, name).
		Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create user from oauth sign-in: %w", err)
	}
	return user, nil
}

func (r *userRepo) LinkAccount(ctx context.Context, userID uuid.UUID, provider, providerAccountID string) error {
	query := `
		INSERT INTO accounts (user_id, provider, provider_account_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (provider, provider_account_id) DO NOTHING
	`
	_, err := r.db.Exec(ctx, query, userID, provider, providerAccountID)
	if err != nil {
		return fmt.Errorf("failed to link provider account: %w", err)
	}
	return nil
}

// CreateClientAccount creates or reuses the user record, upserts the client
// profile and binds the originating invite, all in one transaction. Partial
// account creation is never observable.
func (r *userRepo) CreateClientAccount(ctx context.Context, params CreateClientAccountParams) (*models.UserWithProfile, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var user models.User
	if params.ExistingUserID != nil {
		row := tx.QueryRow(ctx, `
			UPDATE users
			SET name = COALESCE($2, name), password_hash = $3
			WHERE id = $1
			RETURNING id, name, email, password_hash, created_at
		`, *params.ExistingUserID, params.Name, params.PasswordHash)
		if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to update existing user record: %w", err)
		}
	} else {
		row := tx.QueryRow(ctx, `
			INSERT INTO users (email, name, password_hash)
			VALUES ($1, $2, $3)
			RETURNING id, name, email, password_hash, created_at
		`, params.Email, params.Name, params.PasswordHash)
		if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to insert user record: %w", err)
		}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO user_profiles (user_id, role, invited_by, phone, address)
		VALUES ($1, 'client', $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET
			role = 'client',
			invited_by = EXCLUDED.invited_by,
			phone = EXCLUDED.phone,
			address = EXCLUDED.address
	`, user.ID, params.TrainerID, params.Phone, params.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert client profile: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE client_invites
		SET status = 'accepted', accepted_at = NOW(), user_id = $1
		WHERE id = $2
	`, user.ID, params.InviteID)
	if err != nil {
		return nil, fmt.Errorf("failed to accept invite: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit client account: %w", err)
	}

	trainerID := params.TrainerID
	phone := params.Phone
	address := params.Address
	return &models.UserWithProfile{
		User: user,
		Profile: &models.UserProfile{
			UserID:    user.ID,
			Role:      models.RoleClient,
			InvitedBy: &trainerID,
			Phone:     &phone,
			Address:   &address,
			CreatedAt: user.CreatedAt,
		},
	}, nil
}

func (r *userRepo) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET password_hash = $1 WHERE id = $2`, passwordHash, userID)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}
