package mailer

import (
	"context"
	"fmt"

	"github.com/asaskevich/govalidator"
	"golang.org/x/sync/errgroup"

	"portal-mailer/internal/portal"
)

// Init registers this service as a webhook listener and fetches the portal
// globals, concurrently. Both must succeed before the pipeline accepts
// batches; either failing aborts startup with that error.
func (s *Service) Init(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.portal.RegisterListener(ctx, ListenerID, s.myURL)
	})

	var globals *portal.Globals
	g.Go(func() error {
		var err error
		globals, err = s.portal.GetGlobals(ctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return err
	}

	if err := validateGlobals(globals); err != nil {
		return err
	}

	s.globals = globals
	s.state.setInitialized()

	s.logger.InfoContext(ctx, "mailer initialized",
		"listener_id", ListenerID,
		"listener_url", s.myURL,
		"use_mailer", globals.Mailer.UseMailer,
	)
	return nil
}

// Deinit deregisters the webhook listener. Best effort: the error is
// surfaced for logging but must not block shutdown.
func (s *Service) Deinit(ctx context.Context) error {
	return s.portal.DeleteListener(ctx, ListenerID)
}

// validateGlobals rejects portal configuration the composer cannot build
// valid envelopes from. Only enforced when the mailer is switched on, since
// a disabled mailer never addresses anything.
func validateGlobals(globals *portal.Globals) error {
	if !globals.Mailer.UseMailer {
		return nil
	}
	if !govalidator.IsEmail(globals.Mailer.SenderEmail) {
		return fmt.Errorf("globals: sender email %q is not a valid address", globals.Mailer.SenderEmail)
	}
	if !govalidator.IsEmail(globals.Mailer.AdminEmail) {
		return fmt.Errorf("globals: admin email %q is not a valid address", globals.Mailer.AdminEmail)
	}
	return nil
}
