package triage

import (
	"context"
	"time"

	"github.com/linnemanlabs/go-core/log"
	"github.com/oklog/ulid/v2"

	"github.com/linnemanlabs/herald/internal/mail"
	"github.com/linnemanlabs/herald/internal/profile"
)

// SubmitResult is the outcome of submitting a message for triage.
type SubmitResult struct {
	ID      string
	Skipped bool
	Reason  string
}

// Notifier delivers a triage result to the user's attention channel.
type Notifier interface {
	Send(ctx context.Context, result *Result) error
}

// Drafter composes a reply draft for email/question outcomes.
type Drafter interface {
	Compose(ctx context.Context, prof *profile.Profile, msg *mail.Message, logic string) (action, content string, err error)
}

// ProfileSource yields the active profile snapshot.
type ProfileSource interface {
	Current() *profile.Profile
}

// Service is the business boundary for triage operations.
type Service struct {
	store    Store
	engine   *Engine
	profiles ProfileSource
	logger   log.Logger
	metrics  *Metrics
	notifier Notifier
	drafter  Drafter
}

// NewService creates a new triage service. metrics, notifier, and drafter
// may be nil.
func NewService(store Store, engine *Engine, profiles ProfileSource, logger log.Logger, metrics *Metrics, notifier Notifier, drafter Drafter) *Service {
	if logger == nil {
		logger = log.Nop()
	}
	return &Service{
		store:    store,
		engine:   engine,
		profiles: profiles,
		logger:   logger,
		metrics:  metrics,
		notifier: notifier,
		drafter:  drafter,
	}
}

// Submit accepts a message for triage, handling validation, dedup, and
// lifecycle. The profile snapshot is taken here; a reload during the run
// only affects later submissions.
func (s *Service) Submit(ctx context.Context, msg *mail.Message) (*SubmitResult, error) {
	if err := msg.Validate(); err != nil {
		s.countSubmit("invalid")
		return nil, err
	}

	fp := msg.Fingerprint()

	// dedup: skip if already pending or in progress
	if existing, ok, err := s.store.GetByFingerprint(ctx, fp); err != nil {
		s.countSubmit("error")
		return nil, err
	} else if ok && (existing.Status == StatusPending || existing.Status == StatusInProgress) {
		s.countSubmit("duplicate")
		return &SubmitResult{Skipped: true, Reason: "duplicate"}, nil
	}

	prof := s.profiles.Current()

	id := ulid.Make().String()
	result := &Result{
		ID:          id,
		Fingerprint: fp,
		Status:      StatusPending,
		From:        msg.From,
		To:          msg.To,
		Subject:     msg.Subject,
		Body:        msg.Body,
		CreatedAt:   time.Now(),
	}

	if err := s.store.Put(ctx, result); err != nil {
		s.countSubmit("error")
		return nil, err
	}

	s.countSubmit("accepted")

	// kick off async triage - pass only the ID to avoid sharing the Result pointer.
	go s.run(context.WithoutCancel(ctx), id, prof, msg)

	return &SubmitResult{ID: id}, nil
}

// Get retrieves a triage result by ID.
func (s *Service) Get(ctx context.Context, id string) (*Result, bool, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) run(ctx context.Context, id string, prof *profile.Profile, msg *mail.Message) {
	L := s.logger.With("triage_id", id, "sender", msg.SenderAddress())

	result, ok, err := s.store.Get(ctx, id)
	if err != nil || !ok {
		L.Error(ctx, err, "failed to fetch result for triage")
		return
	}

	result.Status = StatusInProgress
	if err := s.store.Put(ctx, result); err != nil {
		L.Error(ctx, err, "failed to update status to in_progress")
		return
	}

	var examples string
	if prof.Memory {
		recent, err := s.store.RecentCompleted(ctx, 50)
		if err != nil {
			L.Warn(ctx, "failed to load decision memory, triaging without examples", "error", err)
		} else {
			examples = RenderExamples(recent, msg, DefaultExampleLimit)
		}
	}

	rr := s.engine.Run(ctx, id, prof, msg, examples)

	result.Status = rr.Status
	result.Outcome = rr.Outcome
	result.Logic = rr.Logic
	result.Prompt = rr.Prompt
	result.Model = rr.Model
	result.CompletedAt = rr.CompletedAt
	result.Duration = rr.Duration
	result.TokensIn = rr.TokensIn
	result.TokensOut = rr.TokensOut
	if rr.Err != nil {
		result.Error = rr.Err.Error()
	}

	if rr.Status == StatusComplete && s.drafter != nil &&
		(rr.Outcome == OutcomeEmail || rr.Outcome == OutcomeQuestion) {
		action, content, err := s.drafter.Compose(ctx, prof, msg, rr.Logic)
		if err != nil {
			L.Error(ctx, err, "draft composition failed")
			s.countDraft("error")
		} else {
			result.DraftAction = action
			result.Draft = content
			s.countDraft("ok")
		}
	}

	if err := s.store.Put(ctx, result); err != nil {
		L.Error(ctx, err, "failed to persist triage result")
	}

	if s.notifier != nil && (rr.Status == StatusFailed || rr.Outcome == OutcomeNotify) {
		if err := s.notifier.Send(ctx, result); err != nil {
			L.Error(ctx, err, "notification failed")
			s.countNotification("error")
		} else {
			s.countNotification("ok")
		}
	}

	L.Info(ctx, "triage finished",
		"status", rr.Status,
		"outcome", rr.Outcome,
		"duration", rr.Duration,
		"tokens_in", rr.TokensIn,
		"tokens_out", rr.TokensOut,
	)
}

func (s *Service) countSubmit(result string) {
	if s.metrics != nil {
		s.metrics.SubmitsTotal.WithLabelValues(result).Inc()
	}
}

func (s *Service) countDraft(status string) {
	if s.metrics != nil {
		s.metrics.DraftsTotal.WithLabelValues(status).Inc()
	}
}

func (s *Service) countNotification(status string) {
	if s.metrics != nil {
		s.metrics.NotificationsTotal.WithLabelValues(status).Inc()
	}
}
