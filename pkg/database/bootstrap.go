package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Bootstrap creates the schema at most once per process. Concurrent callers
// serialize on the same run; a failed run stays retryable.
type Bootstrap struct {
	done chan struct{}
	sem  chan struct{}
}

func NewBootstrap() *Bootstrap {
	return &Bootstrap{
		done: make(chan struct{}),
		sem:  make(chan struct{}, 1),
	}
}

// Ensure runs the DDL unless an earlier call already succeeded.
func (b *Bootstrap) Ensure(ctx context.Context, pool *pgxpool.Pool) error {
	select {
	case <-b.done:
		return nil
	default:
	}

	select {
	case b.sem <- struct{}{}:
		defer func() { <-b.sem }()
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-b.done:
		return nil
	default:
	}

	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("schema bootstrap failed: %w", err)
		}
	}

	close(b.done)
	return nil
}

var schemaStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`,

	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		name TEXT,
		email TEXT UNIQUE NOT NULL,
		password_hash TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS accounts (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		provider TEXT NOT NULL,
		provider_account_id TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (provider, provider_account_id)
	)`,

	`CREATE TABLE IF NOT EXISTS user_profiles (
		user_id UUID PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
		role TEXT NOT NULL CHECK (role IN ('trainer', 'client')),
		invited_by UUID REFERENCES users(id) ON DELETE SET NULL,
		phone TEXT,
		address TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS client_invites (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		trainer_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		email TEXT NOT NULL,
		name TEXT,
		token TEXT UNIQUE NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'accepted', 'removed')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		expires_at TIMESTAMPTZ,
		accepted_at TIMESTAMPTZ,
		user_id UUID REFERENCES users(id) ON DELETE CASCADE
	)`,

	`CREATE TABLE IF NOT EXISTS password_reset_tokens (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		token TEXT UNIQUE NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		expires_at TIMESTAMPTZ NOT NULL,
		used_at TIMESTAMPTZ
	)`,

	`CREATE INDEX IF NOT EXISTS idx_users_email_lower ON users (lower(email))`,
	`CREATE INDEX IF NOT EXISTS idx_accounts_user_id ON accounts (user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_client_invites_trainer_id ON client_invites (trainer_id)`,
	`CREATE INDEX IF NOT EXISTS idx_client_invites_email_lower ON client_invites (lower(email))`,

	// One live invite per (trainer, email) and one live reset token per
	// user, enforced at the storage layer so concurrent requests cannot
	// race past the application-level existence checks.
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_client_invites_active
		ON client_invites (trainer_id, lower(email)) WHERE status <> 'removed'`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_password_reset_tokens_live
		ON password_reset_tokens (user_id) WHERE used_at IS NULL`,
}
