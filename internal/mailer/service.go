// Package mailer implements the event-processing pipeline: the single-flight
// intake guard, the ordered per-event drain loop, the interesting-event
// classification, and the acknowledgment contract with the portal.
package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"portal-mailer/internal/platform/metrics"
	"portal-mailer/internal/portal"
	derrors "portal-mailer/pkg/domain-errors"
	"portal-mailer/pkg/requestcontext"
)

// PortalAPI is the slice of the portal API the guard and lifecycle need.
type PortalAPI interface {
	GetGlobals(ctx context.Context) (*portal.Globals, error)
	RegisterListener(ctx context.Context, listenerID, url string) error
	DeleteListener(ctx context.Context, listenerID string) error
	AckEvent(ctx context.Context, listenerID, eventID string) error
}

// Sender delivers a composed email. Implementations are black boxes; any
// error aborts the batch at the failing event.
type Sender interface {
	Send(ctx context.Context, email *Email) error
}

// Service is the delivery guard. It owns the process-wide pipeline state and
// drains webhook batches strictly in order, one batch at a time.
type Service struct {
	portal   PortalAPI
	composer *Composer
	sender   Sender
	myURL    string

	logger  *slog.Logger
	metrics *metrics.Metrics

	// globals is written once during Init, before initialized flips true,
	// and read-only afterwards.
	globals *portal.Globals

	state state
}

// state tracks the pipeline's intake transitions. processing is the
// single-flight latch; lastErr is sticky until the next accepted batch.
type state struct {
	mu          sync.Mutex
	initialized bool
	processing  bool
	lastErr     error
}

// beginBatch attempts the intake transition. It returns false with no error
// when another batch holds the latch; the previous lastErr is deliberately
// left untouched so health reporting still reflects the run in progress.
func (s *state) beginBatch() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return false, derrors.New(derrors.CodeNotReady, "service is initializing")
	}
	if s.processing {
		return false, nil
	}
	s.processing = true
	return true, nil
}

// endBatch releases the latch and records the batch outcome. It must run
// strictly after the batch fully completes, success or abort.
func (s *state) endBatch(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processing = false
	s.lastErr = err
}

func (s *state) setInitialized() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initialized = true
}

func (s *state) health() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized, s.lastErr
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMetrics attaches pipeline metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New creates the delivery guard. myURL is the public URL the portal should
// deliver webhook batches to.
func New(portalAPI PortalAPI, composer *Composer, sender Sender, myURL string, opts ...Option) (*Service, error) {
	if portalAPI == nil {
		return nil, fmt.Errorf("portal API client is required")
	}
	if composer == nil {
		return nil, fmt.Errorf("composer is required")
	}
	if sender == nil {
		return nil, fmt.Errorf("mail sender is required")
	}
	if myURL == "" {
		return nil, fmt.Errorf("public mailer URL is required")
	}

	svc := &Service{
		portal:   portalAPI,
		composer: composer,
		sender:   sender,
		myURL:    myURL,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Health reports the pipeline state for the ping endpoint.
func (s *Service) Health() (initialized bool, lastErr error) {
	return s.state.health()
}

// Submit drains one webhook batch. Events are processed strictly in delivery
// order; the first failure aborts the remainder of the batch, leaving those
// events unacknowledged for the portal to redeliver. A batch arriving while
// another is in flight is dropped and reported as handled: the portal will
// redeliver whatever the in-flight run does not acknowledge.
func (s *Service) Submit(ctx context.Context, batch []Event) error {
	accepted, err := s.state.beginBatch()
	if err != nil {
		return err
	}
	if !accepted {
		s.logger.InfoContext(ctx, "batch dropped, previous batch still processing",
			"request_id", requestcontext.RequestID(ctx),
			"events", len(batch),
		)
		if s.metrics != nil {
			s.metrics.IncBatchRejected()
		}
		return nil
	}

	start := time.Now()
	err = s.drain(ctx, batch)
	s.state.endBatch(err)
	if s.metrics != nil {
		s.metrics.ObserveBatch(time.Since(start))
	}

	if err != nil {
		s.logger.ErrorContext(ctx, "batch aborted",
			"request_id", requestcontext.RequestID(ctx),
			"events", len(batch),
			"error", err.Error(),
		)
		return err
	}
	return nil
}

func (s *Service) drain(ctx context.Context, batch []Event) error {
	for _, event := range batch {
		if err := s.processEvent(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

// processEvent runs one event to a terminal outcome: emailed, skipped, or
// acknowledged uninteresting. Acknowledgment always comes last so a failed
// send leaves the event upstream for redelivery. Redelivery after a sent but
// unacknowledged email means a duplicate send; that is the accepted hazard.
func (s *Service) processEvent(ctx context.Context, event Event) error {
	outcome := "acknowledged"

	if s.globals.Mailer.UseMailer && IsInteresting(event) {
		intent, err := EmailData(event)
		if err != nil {
			return err
		}

		email, err := s.composer.Compose(ctx, event, intent, s.globals)
		if err != nil {
			return err
		}

		if email == nil {
			outcome = "user_missing"
		} else {
			if err := s.sender.Send(ctx, email); err != nil {
				return derrors.Wrap(err, derrors.CodeTransportFailure,
					fmt.Sprintf("send email for event %s", event.ID))
			}
			s.logger.InfoContext(ctx, "email sent",
				"request_id", requestcontext.RequestID(ctx),
				"event_id", event.ID,
				"entity", event.Entity,
				"to", email.To,
			)
			if s.metrics != nil {
				s.metrics.IncEmailSent()
			}
			outcome = "emailed"
		}
	}

	if err := s.portal.AckEvent(ctx, ListenerID, event.ID); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.IncEventProcessed(event.Entity, outcome)
	}
	return nil
}
