package domain

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/rivo/uniseg"
)

// SubscriberStatus enumerates the states a subscriber can be in.
type SubscriberStatus string

const (
	SubscriberPendingConfirmation SubscriberStatus = "pending_confirmation"
	SubscriberConfirmed           SubscriberStatus = "confirmed"
)

// Subscriber is the persisted subscriber record. Identity is keyed by email
// uniqueness, not by ID: re-subscribing with a known email reuses the
// existing row.
type Subscriber struct {
	ID           uuid.UUID        `json:"id" db:"id"`
	Email        string           `json:"email" db:"email"`
	Name         string           `json:"name" db:"name"`
	SubscribedAt time.Time        `json:"subscribed_at" db:"subscribed_at"`
	Status       SubscriberStatus `json:"status" db:"status"`
}

// NewSubscriber is the validated, ephemeral input to a subscription attempt.
// It is built per-request from raw form fields and never persisted as-is.
type NewSubscriber struct {
	Name  SubscriberName
	Email SubscriberEmail
}

// MaxSubscriberNameLength is the maximum subscriber name length, counted in
// grapheme clusters so combining sequences are not over-counted.
const MaxSubscriberNameLength = 256

// forbiddenNameRunes are characters rejected in subscriber names because
// they are markup-significant downstream.
var forbiddenNameRunes = map[rune]bool{
	'/': true, '(': true, ')': true, '"': true,
	'<': true, '>': true, '\\': true, '{': true, '}': true,
}

// SubscriberName is a validated subscriber display name. The zero value is
// invalid; construct via ParseSubscriberName.
type SubscriberName struct {
	value string
}

// ParseSubscriberName validates a raw name. The original characters are
// preserved on success, including any surrounding whitespace.
func ParseSubscriberName(raw string) (SubscriberName, error) {
	if strings.TrimSpace(raw) == "" {
		return SubscriberName{}, fmt.Errorf("name must not be empty")
	}
	if uniseg.GraphemeClusterCount(raw) > MaxSubscriberNameLength {
		return SubscriberName{}, fmt.Errorf("name must not exceed %d characters", MaxSubscriberNameLength)
	}
	for _, r := range raw {
		if forbiddenNameRunes[r] {
			return SubscriberName{}, fmt.Errorf("name must not contain %q", r)
		}
		if unicode.IsControl(r) {
			return SubscriberName{}, fmt.Errorf("name must not contain control characters")
		}
	}
	return SubscriberName{value: raw}, nil
}

func (n SubscriberName) String() string { return n.value }

// SubscriberEmail is a validated email address. The zero value is invalid;
// construct via ParseSubscriberEmail.
type SubscriberEmail struct {
	value string
}

// ParseSubscriberEmail validates a raw address against RFC 5322 mailbox
// grammar. Only a bare address is accepted: display-name forms and
// surrounding whitespace are rejected even though the grammar allows them.
func ParseSubscriberEmail(raw string) (SubscriberEmail, error) {
	addr, err := mail.ParseAddress(raw)
	if err != nil {
		return SubscriberEmail{}, fmt.Errorf("%q is not a valid email address", raw)
	}
	if addr.Name != "" || addr.Address != raw {
		return SubscriberEmail{}, fmt.Errorf("%q is not a valid email address", raw)
	}
	return SubscriberEmail{value: raw}, nil
}

func (e SubscriberEmail) String() string { return e.value }
