package subscription

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"

	"github.com/ignite/newsletter/internal/email"
	"github.com/ignite/newsletter/internal/repository/postgres"
)

type sentEmail struct {
	to       string
	subject  string
	htmlBody string
	textBody string
}

// fakeSender records sends and can be told to fail.
type fakeSender struct {
	sends []sentEmail
	err   error
}

func (f *fakeSender) Send(_ context.Context, to, subject, htmlBody, textBody string) error {
	if f.err != nil {
		return f.err
	}
	f.sends = append(f.sends, sentEmail{to: to, subject: subject, htmlBody: htmlBody, textBody: textBody})
	return nil
}

const testBaseURL = "https://newsletter.example.com"

func setupService(t *testing.T) (*Service, sqlmock.Sqlmock, *fakeSender, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error: %v", err)
	}
	templates, err := email.NewTemplates()
	if err != nil {
		t.Fatalf("NewTemplates() error: %v", err)
	}
	sender := &fakeSender{}
	svc := NewService(db, postgres.NewSubscriberRepo(db), sender, templates, testBaseURL)
	return svc, mock, sender, func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet sqlmock expectations: %v", err)
		}
		db.Close()
	}
}

func TestSubscribe_HappyPath(t *testing.T) {
	svc, mock, sender, cleanup := setupService(t)
	defer cleanup()

	subscriberID := uuid.New()
	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO subscriptions").
		WithArgs(sqlmock.AnyArg(), "ursula_le_guin@gmail.com", "le guin", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(subscriberID.String()))
	mock.ExpectExec("INSERT INTO subscription_tokens").
		WithArgs(sqlmock.AnyArg(), subscriberID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := svc.Subscribe(context.Background(), SubscribeRequest{Name: "le guin", Email: "ursula_le_guin@gmail.com"})
	if err != nil {
		t.Fatalf("Subscribe() error: %v", err)
	}

	if len(sender.sends) != 1 {
		t.Fatalf("got %d emails sent, want 1", len(sender.sends))
	}
	sent := sender.sends[0]
	if sent.to != "ursula_le_guin@gmail.com" {
		t.Errorf("email sent to %q", sent.to)
	}
	wantPrefix := testBaseURL + "/subscriptions/confirm?subscription_token="
	if !strings.Contains(sent.htmlBody, wantPrefix) {
		t.Errorf("html body missing confirmation link prefix %q:\n%s", wantPrefix, sent.htmlBody)
	}
	if !strings.Contains(sent.textBody, wantPrefix) {
		t.Errorf("text body missing confirmation link prefix %q:\n%s", wantPrefix, sent.textBody)
	}
}

func TestSubscribe_InvalidInputHasNoSideEffects(t *testing.T) {
	tests := []struct {
		name string
		req  SubscribeRequest
	}{
		{"empty name", SubscribeRequest{Name: "", Email: "ursula_le_guin@gmail.com"}},
		{"forbidden character in name", SubscribeRequest{Name: "le/guin", Email: "ursula_le_guin@gmail.com"}},
		{"malformed email", SubscribeRequest{Name: "le guin", Email: "definitely-not-an-email"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, sender, cleanup := setupService(t)
			defer cleanup()

			err := svc.Subscribe(context.Background(), tt.req)

			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Subscribe() error = %v, want *ValidationError", err)
			}
			if len(sender.sends) != 0 {
				t.Error("validation failure must not send email")
			}
			// cleanup asserts no database traffic happened
		})
	}
}

func TestSubscribe_UpsertFailureRollsBack(t *testing.T) {
	svc, mock, sender, cleanup := setupService(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO subscriptions").
		WillReturnError(fmt.Errorf("connection reset"))
	mock.ExpectRollback()

	err := svc.Subscribe(context.Background(), SubscribeRequest{Name: "le guin", Email: "ursula_le_guin@gmail.com"})

	var se *StorageError
	if !errors.As(err, &se) {
		t.Fatalf("Subscribe() error = %v, want *StorageError", err)
	}
	if len(sender.sends) != 0 {
		t.Error("storage failure must not send email")
	}
}

func TestSubscribe_StoreTokenFailureRollsBack(t *testing.T) {
	svc, mock, sender, cleanup := setupService(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO subscriptions").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New().String()))
	mock.ExpectExec("INSERT INTO subscription_tokens").
		WillReturnError(fmt.Errorf("deadlock detected"))
	mock.ExpectRollback()

	err := svc.Subscribe(context.Background(), SubscribeRequest{Name: "le guin", Email: "ursula_le_guin@gmail.com"})

	var se *StorageError
	if !errors.As(err, &se) {
		t.Fatalf("Subscribe() error = %v, want *StorageError", err)
	}
	if len(sender.sends) != 0 {
		t.Error("rolled-back subscription must not send email")
	}
}

func TestSubscribe_CommitFailure(t *testing.T) {
	svc, mock, sender, cleanup := setupService(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO subscriptions").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New().String()))
	mock.ExpectExec("INSERT INTO subscription_tokens").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit().WillReturnError(fmt.Errorf("server closed connection"))

	err := svc.Subscribe(context.Background(), SubscribeRequest{Name: "le guin", Email: "ursula_le_guin@gmail.com"})

	var se *StorageError
	if !errors.As(err, &se) {
		t.Fatalf("Subscribe() error = %v, want *StorageError", err)
	}
	if len(sender.sends) != 0 {
		t.Error("failed commit must not send email")
	}
}

func TestSubscribe_EmailFailureAfterCommitIsDistinct(t *testing.T) {
	svc, mock, sender, cleanup := setupService(t)
	defer cleanup()

	sender.err = fmt.Errorf("smtp 451 temporarily unavailable")

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO subscriptions").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New().String()))
	mock.ExpectExec("INSERT INTO subscription_tokens").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := svc.Subscribe(context.Background(), SubscribeRequest{Name: "le guin", Email: "ursula_le_guin@gmail.com"})

	// The commit already happened: the subscriber is durable and the error
	// class must say so.
	var ee *EmailError
	if !errors.As(err, &ee) {
		t.Fatalf("Subscribe() error = %v, want *EmailError", err)
	}
	var se *StorageError
	if errors.As(err, &se) {
		t.Error("email failure must not be classified as a storage error")
	}
}

func TestConfirm_HappyPath(t *testing.T) {
	svc, mock, _, cleanup := setupService(t)
	defer cleanup()

	subscriberID := uuid.New()
	mock.ExpectQuery("SELECT subscriber_id FROM subscription_tokens").
		WithArgs("a1B2c3D4e5F6g7H8i9J0k1L2m").
		WillReturnRows(sqlmock.NewRows([]string{"subscriber_id"}).AddRow(subscriberID.String()))
	mock.ExpectExec("UPDATE subscriptions SET status").
		WithArgs(subscriberID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := svc.Confirm(context.Background(), "a1B2c3D4e5F6g7H8i9J0k1L2m"); err != nil {
		t.Fatalf("Confirm() error: %v", err)
	}
}

func TestConfirm_MalformedTokenIsValidationError(t *testing.T) {
	svc, _, _, cleanup := setupService(t)
	defer cleanup()

	err := svc.Confirm(context.Background(), "abc!23")

	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Confirm() error = %v, want *ValidationError", err)
	}
	// cleanup asserts storage was never consulted for a malformed token
}

func TestConfirm_UnknownTokenIsUnauthorized(t *testing.T) {
	svc, mock, _, cleanup := setupService(t)
	defer cleanup()

	mock.ExpectQuery("SELECT subscriber_id FROM subscription_tokens").
		WithArgs("unknownUnknownUnknown1234").
		WillReturnError(sql.ErrNoRows)

	err := svc.Confirm(context.Background(), "unknownUnknownUnknown1234")
	if !errors.Is(err, ErrUnknownToken) {
		t.Fatalf("Confirm() error = %v, want ErrUnknownToken", err)
	}
}

func TestConfirm_StorageFailureIsServerError(t *testing.T) {
	svc, mock, _, cleanup := setupService(t)
	defer cleanup()

	mock.ExpectQuery("SELECT subscriber_id FROM subscription_tokens").
		WillReturnError(fmt.Errorf("connection refused"))

	err := svc.Confirm(context.Background(), "a1B2c3D4e5F6g7H8i9J0k1L2m")

	var se *StorageError
	if !errors.As(err, &se) {
		t.Fatalf("Confirm() error = %v, want *StorageError", err)
	}
}

func TestConfirm_RepeatSucceedsIdentically(t *testing.T) {
	svc, mock, _, cleanup := setupService(t)
	defer cleanup()

	subscriberID := uuid.New()
	for i := 0; i < 2; i++ {
		mock.ExpectQuery("SELECT subscriber_id FROM subscription_tokens").
			WithArgs("a1B2c3D4e5F6g7H8i9J0k1L2m").
			WillReturnRows(sqlmock.NewRows([]string{"subscriber_id"}).AddRow(subscriberID.String()))
		mock.ExpectExec("UPDATE subscriptions SET status").
			WithArgs(subscriberID).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}

	for i := 0; i < 2; i++ {
		if err := svc.Confirm(context.Background(), "a1B2c3D4e5F6g7H8i9J0k1L2m"); err != nil {
			t.Fatalf("Confirm() call %d error: %v", i+1, err)
		}
	}
}
