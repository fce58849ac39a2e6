// Package httptransport is the thin HTTP layer over the mailer pipeline. It
// decodes webhook batches, reports health, and translates domain errors to
// HTTP responses without embedding business logic.
package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"portal-mailer/internal/mailer"
	derrors "portal-mailer/pkg/domain-errors"
	"portal-mailer/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/service_mocks.go -package=mocks Service

// Service is the pipeline interface the transport layer depends on.
type Service interface {
	Submit(ctx context.Context, batch []mailer.Event) error
	Health() (initialized bool, lastErr error)
}

// Handler handles the webhook intake and health endpoints.
type Handler struct {
	service     Service
	logger      *slog.Logger
	development bool
	pingURL     string
	startedAt   time.Time
}

// New creates a Handler. development controls whether hard-failure responses
// carry error detail; pingURL is the absolute health URL advertised to
// monitoring.
func New(service Service, logger *slog.Logger, development bool, pingURL string) *Handler {
	return &Handler{
		service:     service,
		logger:      logger,
		development: development,
		pingURL:     pingURL,
		startedAt:   time.Now(),
	}
}

// handleWebhooks is the intake endpoint the portal delivers batches to.
func (h *Handler) handleWebhooks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var batch []mailer.Event
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		h.logger.WarnContext(ctx, "invalid webhook payload",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		h.writeError(w, derrors.ToHTTPStatus(derrors.CodeBadRequest),
			derrors.New(derrors.CodeBadRequest, "request body must be a JSON array of events"))
		return
	}

	if err := h.service.Submit(ctx, batch); err != nil {
		if derrors.Is(err, derrors.CodeNotReady) {
			writeJSON(w, derrors.ToHTTPStatus(derrors.CodeNotReady), map[string]string{"message": "Initializing."})
			return
		}
		// Hard failures are always a 500 to the portal: the batch aborted
		// and the unacknowledged tail will be redelivered.
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "OK"})
}

// healthResponse is the ping payload. healthy follows the portal convention:
// 1 nominal, 2 still initializing, 0 last batch failed.
type healthResponse struct {
	Name    string `json:"name"`
	Message string `json:"message"`
	Uptime  int64  `json:"uptime"`
	Healthy int    `json:"healthy"`
	PingURL string `json:"pingUrl"`
	Version string `json:"version"`
	Error   string `json:"error,omitempty"`
}

func (h *Handler) handlePing(w http.ResponseWriter, r *http.Request) {
	health := healthResponse{
		Name:    "mailer",
		Message: "Up and running",
		Uptime:  int64(time.Since(h.startedAt).Seconds()),
		Healthy: 1,
		PingURL: h.pingURL,
		Version: version(),
	}

	initialized, lastErr := h.service.Health()
	status := http.StatusOK
	switch {
	case !initialized:
		health.Healthy = 2
		health.Message = "Initializing - Waiting for API"
		status = http.StatusServiceUnavailable
	case lastErr != nil:
		health.Healthy = 0
		health.Message = lastErr.Error()
		health.Error = string(derrors.GetCode(lastErr))
		status = http.StatusInternalServerError
	}

	writeJSON(w, status, health)
}

// writeError translates a hard failure to HTTP. Development environments get
// the error detail; production gets a generic empty error object. The health
// endpoint still exposes the message in both, on purpose.
func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	if h.development {
		writeJSON(w, status, map[string]any{
			"message": err.Error(),
			"error": map[string]string{
				"code":    string(derrors.GetCode(err)),
				"message": err.Error(),
			},
		})
		return
	}
	writeJSON(w, status, map[string]any{
		"message": http.StatusText(status),
		"error":   map[string]string{},
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// version reports the module version recorded by the build, falling back to
// "dev" for local go run builds.
func version() string {
	info, ok := debug.ReadBuildInfo()
	if !ok || info.Main.Version == "" || info.Main.Version == "(devel)" {
		return "dev"
	}
	return info.Main.Version
}
