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

type InviteRepository interface {
	Create(ctx context.Context, invite *models.ClientInvite) error
	GetByToken(ctx context.Context, token string) (*models.InviteForRegistration, error)
	HasActiveInvite(ctx context.Context, trainerID uuid.UUID, email string) (bool, error)
	FindLatestPendingByEmail(ctx context.Context, email string) (*models.ClientInvite, error)
	MarkAccepted(ctx context.Context, inviteID, userID uuid.UUID) error
	ListTrainerClients(ctx context.Context, trainerID uuid.UUID, limit, offset int) ([]*models.TrainerClient, error)
	RemoveClient(ctx context.Context, trainerID, inviteID uuid.UUID) (bool, error)
	DeleteExpiredPending(ctx context.Context, olderThan time.Time) (int64, error)
}

type inviteRepo struct {
	db DB
}

func NewInviteRepo(db DB) InviteRepository {
	return &inviteRepo{db: db}
}

func (r *inviteRepo) Create(ctx context.Context, invite *models.ClientInvite) error {
	query := `
		INSERT INTO client_invites (id, trainer_id, email, name, token, status, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`
	err := r.db.QueryRow(ctx, query,
		invite.ID, invite.TrainerID, invite.Email, invite.Name,
		invite.Token, string(invite.Status), invite.ExpiresAt,
	).Scan(&invite.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create client invite: %w", err)
	}
	return nil
}

// GetByToken returns nil for absent tokens so callers cannot distinguish a
// guessed token from a missing one.
func (r *inviteRepo) GetByToken(ctx context.Context, token string) (*models.InviteForRegistration, error) {
	invite := &models.InviteForRegistration{}
	var status string
	query := `
		SELECT ci.id, ci.trainer_id, tu.name, ci.email, ci.name, ci.status, ci.expires_at
		FROM client_invites ci
		JOIN users tu ON tu.id = ci.trainer_id
		WHERE ci.token = $1
		LIMIT 1
	`
	err := r.db.QueryRow(ctx, query, token).Scan(
		&invite.ID, &invite.TrainerID, &invite.TrainerName,
		&invite.Email, &invite.Name, &status, &invite.ExpiresAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up invite by token: %w", err)
	}
	invite.Status = models.InviteStatus(status)
	return invite, nil
}

func (r *inviteRepo) HasActiveInvite(ctx context.Context, trainerID uuid.UUID, email string) (bool, error) {
	var count int
	query := `
		SELECT COUNT(*) FROM client_invites
		WHERE trainer_id = $1 AND lower(email) = lower($2) AND status <> 'removed'
	`
	if err := r.db.QueryRow(ctx, query, trainerID, email).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check for active invite: %w", err)
	}
	return count > 0, nil
}

func (r *inviteRepo) FindLatestPendingByEmail(ctx context.Context, email string) (*models.ClientInvite, error) {
	invite := &models.ClientInvite{}
	var status string
	query := `
		SELECT id, trainer_id, email, name, token, status, created_at, expires_at, accepted_at, user_id
		FROM client_invites
		WHERE status = 'pending' AND lower(email) = lower($1)
		  AND (expires_at IS NULL OR expires_at > NOW())
		ORDER BY created_at DESC
		LIMIT 1
	`
	err := r.db.QueryRow(ctx, query, email).Scan(
		&invite.ID, &invite.TrainerID, &invite.Email, &invite.Name, &invite.Token,
		&status, &invite.CreatedAt, &invite.ExpiresAt, &invite.AcceptedAt, &invite.UserID,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find pending invite: %w", err)
	}
	invite.Status = models.InviteStatus(status)
	return invite, nil
}

func (r *inviteRepo) MarkAccepted(ctx context.Context, inviteID, userID uuid.UUID) error {
	query := `
		UPDATE client_invites
		SET status = 'accepted', accepted_at = NOW(), user_id = $1
		WHERE id = $2
	`
	_, err := r.db.Exec(ctx, query, userID, inviteID)
	if err != nil {
		return fmt.Errorf("failed to mark invite accepted: %w", err)
	}
	return nil
}

func (r *inviteRepo) ListTrainerClients(ctx context.Context, trainerID uuid.UUID, limit, offset int) ([]*models.TrainerClient, error) {
	query := `
		SELECT ci.id, ci.email, COALESCE(u.name, ci.name), up.phone, up.address,
		       CASE WHEN ci.status = 'accepted' THEN 'active' ELSE 'pending' END,
		       ci.created_at, ci.user_id
		FROM client_invites ci
		LEFT JOIN users u ON u.id = ci.user_id
		LEFT JOIN user_profiles up ON up.user_id = ci.user_id
		WHERE ci.trainer_id = $1 AND ci.status <> 'removed'
		ORDER BY ci.created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, trainerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list trainer clients: %w", err)
	}
	defer rows.Close()

	var clients []*models.TrainerClient
	for rows.Next() {
		client := &models.TrainerClient{}
		if err := rows.Scan(
			&client.InviteID, &client.Email, &client.Name, &client.Phone,
			&client.Address, &client.Status, &client.InvitedAt, &client.UserID,
		); err != nil {
			return nil, fmt.Errorf("failed to scan trainer client: %w", err)
		}
		clients = append(clients, client)
	}
	return clients, rows.Err()
}

// RemoveClient deletes the invite and, when one is bound, the client's user
// row (profile, invites and reset tokens cascade). Returns false when the
// invite does not belong to the trainer, without revealing whether it exists.
func (r *inviteRepo) RemoveClient(ctx context.Context, trainerID, inviteID uuid.UUID) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var boundUserID *uuid.UUID
	err = tx.QueryRow(ctx,
		`SELECT user_id FROM client_invites WHERE id = $1 AND trainer_id = $2`,
		inviteID, trainerID,
	).Scan(&boundUserID)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to verify invite ownership: %w", err)
	}

	if boundUserID != nil {
		if _, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, *boundUserID); err != nil {
			return false, fmt.Errorf("failed to delete client user: %w", err)
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM client_invites WHERE id = $1`, inviteID); err != nil {
		return false, fmt.Errorf("failed to delete invite: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit client removal: %w", err)
	}
	return true, nil
}

func (r *inviteRepo) DeleteExpiredPending(ctx context.Context, olderThan time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM client_invites WHERE status = 'pending' AND expires_at IS NOT NULL AND expires_at < $1`,
		olderThan,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired invites: %w", err)
	}
	return tag.RowsAffected(), nil
}
