package api

import (
	"errors"
	"net/http"

	"github.com/ignite/newsletter/internal/pkg/logger"
	"github.com/ignite/newsletter/internal/subscription"
)

// Handlers holds the HTTP handlers for the subscription endpoints.
type Handlers struct {
	svc *subscription.Service
}

// NewHandlers creates the handler set.
func NewHandlers(svc *subscription.Service) *Handlers {
	return &Handlers{svc: svc}
}

// HealthCheck reports liveness.
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// Subscribe accepts a form-encoded subscription request with fields "name"
// and "email" and runs the subscription workflow.
func (h *Handlers) Subscribe(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form body", http.StatusBadRequest)
		return
	}

	req := subscription.SubscribeRequest{
		Name:  r.PostFormValue("name"),
		Email: r.PostFormValue("email"),
	}

	if err := h.svc.Subscribe(r.Context(), req); err != nil {
		writeWorkflowError(w, "subscribe", err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Confirm activates a pending subscription from the token in the
// "subscription_token" query parameter.
func (h *Handlers) Confirm(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("subscription_token")

	if err := h.svc.Confirm(r.Context(), token); err != nil {
		writeWorkflowError(w, "confirm", err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// writeWorkflowError maps workflow errors onto status codes. Validation
// reasons are safe to surface; everything else is logged with its full
// cause chain and answered with an opaque status.
func writeWorkflowError(w http.ResponseWriter, op string, err error) {
	var ve *subscription.ValidationError
	switch {
	case errors.As(err, &ve):
		http.Error(w, ve.Reason, http.StatusBadRequest)
	case errors.Is(err, subscription.ErrUnknownToken):
		w.WriteHeader(http.StatusUnauthorized)
	default:
		logger.Error(op+" failed", "error", logger.Cause(err))
		w.WriteHeader(http.StatusInternalServerError)
	}
}
