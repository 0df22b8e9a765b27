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

type ResetTokenRepository interface {
	Replace(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) (*models.PasswordResetToken, error)
	GetByToken(ctx context.Context, token string) (*models.PasswordResetToken, error)
	MarkUsed(ctx context.Context, id uuid.UUID) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type resetTokenRepo struct {
	db DB
}

func NewResetTokenRepo(db DB) ResetTokenRepository {
	return &resetTokenRepo{db: db}
}

// Replace deletes every prior token for the user and inserts exactly one new
// row in the same transaction, so at most one token stays live per user.
func (r *resetTokenRepo) Replace(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) (*models.PasswordResetToken, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM password_reset_tokens WHERE user_id = $1`, userID); err != nil {
		return nil, fmt.Errorf("failed to delete prior reset tokens: %w", err)
	}

	record := &models.PasswordResetToken{UserID: userID, Token: token, ExpiresAt: expiresAt}
	err = tx.QueryRow(ctx, `
		INSERT INTO password_reset_tokens (user_id, token, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, userID, token, expiresAt).Scan(&record.ID, &record.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert reset token: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit reset token: %w", err)
	}
	return record, nil
}

func (r *resetTokenRepo) GetByToken(ctx context.Context, token string) (*models.PasswordResetToken, error) {
	record := &models.PasswordResetToken{}
	query := `
		SELECT id, user_id, token, created_at, expires_at, used_at
		FROM password_reset_tokens
		WHERE token = $1
		LIMIT 1
	`
	err := r.db.QueryRow(ctx, query, token).Scan(
		&record.ID, &record.UserID, &record.Token,
		&record.CreatedAt, &record.ExpiresAt, &record.UsedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up reset token: %w", err)
	}
	return record, nil
}

func (r *resetTokenRepo) MarkUsed(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx,
		`UPDATE password_reset_tokens SET used_at = NOW() WHERE id = $1 AND used_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark reset token used: %w", err)
	}
	return nil
}

func (r *resetTokenRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM password_reset_tokens WHERE expires_at < $1 OR used_at IS NOT NULL`,
		now,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired reset tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}
