package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/newsletter/internal/domain"
)

// SubscriberRepo implements subscriber and token persistence against
// PostgreSQL. Write operations that must be atomic with each other take the
// caller's *sql.Tx; the caller owns begin/commit/rollback.
type SubscriberRepo struct{ db *sql.DB }

// NewSubscriberRepo creates a Postgres-backed subscriber repository.
func NewSubscriberRepo(db *sql.DB) *SubscriberRepo { return &SubscriberRepo{db: db} }

// UpsertSubscriber inserts a pending subscriber row with a fresh candidate
// id. On email conflict only the email column is written (a no-op value
// change), so name, status and subscribed_at of a pre-existing row are left
// untouched: a confirmed subscriber stays confirmed on re-subscription.
// The returned id is the surviving row's id, which on conflict is the
// pre-existing one, not the fresh candidate.
func (r *SubscriberRepo) UpsertSubscriber(ctx context.Context, tx *sql.Tx, sub domain.NewSubscriber) (uuid.UUID, error) {
	id := uuid.New()
	err := tx.QueryRowContext(ctx, `
		INSERT INTO subscriptions (id, email, name, subscribed_at, status)
		VALUES ($1, $2, $3, $4, 'pending_confirmation')
		ON CONFLICT (email)
		DO UPDATE SET email = EXCLUDED.email
		RETURNING id
	`, id, sub.Email.String(), sub.Name.String(), time.Now().UTC()).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("upsert subscriber: %w", err)
	}
	return id, nil
}

// StoreToken records the confirmation token for a subscriber. Each
// subscriber holds at most one live token: on subscriber_id conflict the
// token value is replaced, making the previous token unresolvable.
func (r *SubscriberRepo) StoreToken(ctx context.Context, tx *sql.Tx, subscriberID uuid.UUID, token domain.SubscriptionToken) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO subscription_tokens (subscription_token, subscriber_id)
		VALUES ($1, $2)
		ON CONFLICT (subscriber_id)
		DO UPDATE SET subscription_token = EXCLUDED.subscription_token
	`, token.String(), subscriberID)
	if err != nil {
		return fmt.Errorf("store subscription token: %w", err)
	}
	return nil
}

// ResolveToken looks up the subscriber a token was issued for. An unknown
// token is reported as (uuid.Nil, false, nil), not an error.
func (r *SubscriberRepo) ResolveToken(ctx context.Context, token domain.SubscriptionToken) (uuid.UUID, bool, error) {
	var id uuid.UUID
	err := r.db.QueryRowContext(ctx, `
		SELECT subscriber_id FROM subscription_tokens WHERE subscription_token = $1
	`, token.String()).Scan(&id)
	if err == sql.ErrNoRows {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("resolve subscription token: %w", err)
	}
	return id, true, nil
}

// ConfirmSubscriber marks a subscriber confirmed. Confirming an
// already-confirmed subscriber is a no-op with the same observable result.
func (r *SubscriberRepo) ConfirmSubscriber(ctx context.Context, subscriberID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE subscriptions SET status = 'confirmed' WHERE id = $1
	`, subscriberID)
	if err != nil {
		return fmt.Errorf("confirm subscriber: %w", err)
	}
	return nil
}
