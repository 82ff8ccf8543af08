// Package mailapi exposes the HTTP surface for submitting messages,
// reading triage results, and reloading the profile.
package mailapi

import (
	"context"
	"encoding/json"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/go-chi/chi/v5"
	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/xerrors"
	"github.com/linnemanlabs/herald/internal/mail"
	"github.com/linnemanlabs/herald/internal/triage"
)

// TriageService defines the business operations mailapi needs.
type TriageService interface {
	Submit(ctx context.Context, msg *mail.Message) (*triage.SubmitResult, error)
	Get(ctx context.Context, id string) (*triage.Result, bool, error)
}

// ProfileReloader re-reads the profile from disk. Optional.
type ProfileReloader interface {
	Reload(ctx context.Context) error
}

// API holds dependencies for HTTP handlers.
type API struct {
	logger   log.Logger
	svc      TriageService
	profiles ProfileReloader
}

// New creates a new API handler. profiles may be nil, in which case the
// reload endpoint is not registered.
func New(logger log.Logger, svc TriageService, profiles ProfileReloader) *API {
	if logger == nil {
		logger = log.Nop()
	}
	if svc == nil {
		panic(xerrors.New("triage service is required"))
	}
	return &API{
		logger:   logger,
		svc:      svc,
		profiles: profiles,
	}
}

// RegisterRoutes attaches API endpoints to the router.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/messages", a.handleSubmitMessage)
		r.Get("/triage/{id}", a.handleGetTriage)
		if a.profiles != nil {
			r.Post("/profile/reload", a.handleReloadProfile)
		}
	})
}

func (a *API) handleGetTriage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.String("herald.triage.id", id))

	result, ok, err := a.svc.Get(r.Context(), id)
	if err != nil {
		a.logger.Error(r.Context(), err, "failed to get triage result", "id", id)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}

	span.SetAttributes(attribute.String("herald.triage.status", string(result.Status)))

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(result)
}
