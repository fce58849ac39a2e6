package mailer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cbroglie/mustache"

	"portal-mailer/internal/portal"
	derrors "portal-mailer/pkg/domain-errors"
)

// PortalReader is the slice of the portal API the composer needs.
type PortalReader interface {
	GetUser(ctx context.Context, userID string) (*portal.User, error)
	GetEmailTemplate(ctx context.Context, name string) (string, error)
}

// Composer turns an interesting event into a fully addressed email. It owns
// the user lookup, link resolution, template fetch, and rendering.
type Composer struct {
	portal PortalReader
	logger *slog.Logger
}

// ComposerOption configures the Composer.
type ComposerOption func(*Composer)

// WithComposerLogger sets the composer's logger.
func WithComposerLogger(logger *slog.Logger) ComposerOption {
	return func(c *Composer) {
		c.logger = logger
	}
}

// NewComposer creates a Composer backed by the given portal reader.
func NewComposer(reader PortalReader, opts ...ComposerOption) (*Composer, error) {
	if reader == nil {
		return nil, fmt.Errorf("portal reader is required")
	}
	c := &Composer{
		portal: reader,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Compose builds the email for an interesting event. A (nil, nil) return
// means the event should be acknowledged without sending anything: the user
// was deleted upstream before we got to the event, which is an expected race.
func (c *Composer) Compose(ctx context.Context, event Event, intent Intent, globals *portal.Globals) (*Email, error) {
	user, err := c.portal.GetUser(ctx, event.Data.UserID)
	if derrors.Is(err, derrors.CodeNotFound) {
		c.logger.WarnContext(ctx, "user gone, acknowledging event without email",
			"user_id", event.Data.UserID,
			"event_id", event.ID,
		)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	verificationLink := ""
	if event.Data.Link != "" {
		verificationLink, err = mustache.Render(event.Data.Link, map[string]string{"id": event.Data.ID})
		if err != nil {
			return nil, derrors.Wrap(err, derrors.CodeInvariantViolation, "render verification link")
		}
	}
	approvalsLink := globals.Network.Schema + "://" + globals.Network.PortalHost + "/admin/approvals"

	viewData := map[string]any{
		"title": globals.Title,
		"user": map[string]any{
			"id":        user.ID,
			"firstName": user.FirstName,
			"lastName":  user.LastName,
			"name":      user.Name,
			"email":     user.Email,
		},
		"verificationLink": verificationLink,
		"approvalsLink":    approvalsLink,
		"portalEmail":      globals.Mailer.SenderEmail,
	}

	templateText, err := c.portal.GetEmailTemplate(ctx, intent.Template)
	if err != nil {
		// Template unavailability is not recoverable locally.
		return nil, err
	}

	text, err := mustache.Render(templateText, viewData)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeUpstreamUnavailable,
			fmt.Sprintf("render email template %s", intent.Template))
	}

	to := fmt.Sprintf("%q <%s>", user.Name, user.Email)
	if intent.Recipient == RecipientAdmin {
		to = fmt.Sprintf("%q <%s>", globals.Mailer.AdminName, globals.Mailer.AdminEmail)
	}

	return &Email{
		From:    fmt.Sprintf("%q <%s>", globals.Mailer.SenderName, globals.Mailer.SenderEmail),
		To:      to,
		Subject: globals.Title + " - " + intent.Subject,
		Text:    text,
	}, nil
}
