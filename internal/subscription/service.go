// Package subscription implements the subscriber lifecycle workflows:
// accepting a subscription request and confirming it with the issued token.
//
// All coordination between concurrent requests is pushed to the storage
// layer. The subscribe path runs its writes inside one transaction, so the
// email uniqueness constraint serializes concurrent attempts for the same
// address: one insert wins, the others take the conflict path and reuse the
// winning row's id. The service itself holds no mutable state.
package subscription

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/newsletter/internal/domain"
	"github.com/ignite/newsletter/internal/email"
	"github.com/ignite/newsletter/internal/pkg/logger"
	"github.com/ignite/newsletter/internal/repository/postgres"
)

// SubscribeRequest carries the raw form fields of a subscription attempt.
type SubscribeRequest struct {
	Name  string
	Email string
}

// Service orchestrates validation, persistence, token issuance, and
// confirmation email dispatch.
type Service struct {
	db        *sql.DB
	repo      *postgres.SubscriberRepo
	sender    email.Sender
	templates *email.Templates
	baseURL   string
}

// NewService wires the subscription workflows.
func NewService(db *sql.DB, repo *postgres.SubscriberRepo, sender email.Sender, templates *email.Templates, baseURL string) *Service {
	return &Service{
		db:        db,
		repo:      repo,
		sender:    sender,
		templates: templates,
		baseURL:   baseURL,
	}
}

// Subscribe runs the full subscription workflow. Persistence of the
// subscriber and its token is atomic; the confirmation email is dispatched
// only after the transaction commits. An email failure therefore leaves a
// durable pending subscriber with a valid token and is reported as
// *EmailError rather than rolled back.
//
// The workflow is idempotent per email address: repeating it yields exactly
// one subscriber row and one live token, and never downgrades a confirmed
// status.
func (s *Service) Subscribe(ctx context.Context, req SubscribeRequest) error {
	name, err := domain.ParseSubscriberName(req.Name)
	if err != nil {
		return &ValidationError{Reason: err.Error()}
	}
	addr, err := domain.ParseSubscriberEmail(req.Email)
	if err != nil {
		return &ValidationError{Reason: err.Error()}
	}
	sub := domain.NewSubscriber{Name: name, Email: addr}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &StorageError{Step: "begin transaction", Err: err}
	}
	// Rollback is a no-op after a successful Commit; on every other exit
	// path, including context cancellation, it undoes the upsert.
	defer tx.Rollback()

	subscriberID, err := s.repo.UpsertSubscriber(ctx, tx, sub)
	if err != nil {
		return &StorageError{Step: "upsert subscriber", Err: err}
	}

	token := domain.GenerateSubscriptionToken()
	if err := s.repo.StoreToken(ctx, tx, subscriberID, token); err != nil {
		return &StorageError{Step: "store subscription token", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return &StorageError{Step: "commit transaction", Err: err}
	}

	logger.Info("subscriber persisted",
		"subscriber_id", subscriberID,
		"subscriber_email", addr.String(),
	)

	msg, err := s.templates.RenderConfirmation(s.baseURL, token)
	if err != nil {
		return &EmailError{Err: err}
	}
	if err := s.sender.Send(ctx, addr.String(), msg.Subject, msg.HTMLBody, msg.TextBody); err != nil {
		return &EmailError{Err: fmt.Errorf("dispatch to subscriber %s: %w", subscriberID, err)}
	}
	return nil
}

// Confirm validates a raw token, resolves it to a subscriber, and marks the
// subscription confirmed. Re-confirming with the same token succeeds
// identically; the status update is idempotent.
func (s *Service) Confirm(ctx context.Context, rawToken string) error {
	token, err := domain.ParseSubscriptionToken(rawToken)
	if err != nil {
		return &ValidationError{Reason: err.Error()}
	}

	subscriberID, found, err := s.repo.ResolveToken(ctx, token)
	if err != nil {
		return &StorageError{Step: "resolve subscription token", Err: err}
	}
	if !found {
		return ErrUnknownToken
	}

	if err := s.repo.ConfirmSubscriber(ctx, subscriberID); err != nil {
		return &StorageError{Step: "confirm subscriber", Err: err}
	}

	logger.Info("subscriber confirmed", "subscriber_id", subscriberID)
	return nil
}
