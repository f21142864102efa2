package email

import (
	_ "embed"
	"fmt"
	"net/url"

	"github.com/osteele/liquid"

	"github.com/ignite/newsletter/internal/domain"
)

//go:embed templates/confirmation.html
var confirmationHTML string

//go:embed templates/confirmation.txt
var confirmationText string

// ConfirmationSubject is the subject line of the confirmation email.
const ConfirmationSubject = "Welcome!"

// Message is a fully rendered outbound email, ready for a Sender.
type Message struct {
	Subject  string
	HTMLBody string
	TextBody string
}

// Templates renders outbound email bodies with Liquid. Templates are parsed
// once at construction and reused across requests.
type Templates struct {
	html *liquid.Template
	text *liquid.Template
}

// NewTemplates parses the embedded email templates.
func NewTemplates() (*Templates, error) {
	engine := liquid.NewEngine()

	html, err := engine.ParseTemplate([]byte(confirmationHTML))
	if err != nil {
		return nil, fmt.Errorf("parse confirmation html template: %w", err)
	}
	text, err := engine.ParseTemplate([]byte(confirmationText))
	if err != nil {
		return nil, fmt.Errorf("parse confirmation text template: %w", err)
	}
	return &Templates{html: html, text: text}, nil
}

// RenderConfirmation builds the confirmation email for a token. The link
// points at the confirm endpoint with the token as a query parameter.
func (t *Templates) RenderConfirmation(baseURL string, token domain.SubscriptionToken) (*Message, error) {
	link := fmt.Sprintf("%s/subscriptions/confirm?subscription_token=%s",
		baseURL, url.QueryEscape(token.String()))
	bindings := map[string]interface{}{"confirmation_link": link}

	htmlBody, err := t.html.Render(bindings)
	if err != nil {
		return nil, fmt.Errorf("render confirmation html: %w", err)
	}
	textBody, err := t.text.Render(bindings)
	if err != nil {
		return nil, fmt.Errorf("render confirmation text: %w", err)
	}

	return &Message{
		Subject:  ConfirmationSubject,
		HTMLBody: string(htmlBody),
		TextBody: string(textBody),
	}, nil
}
