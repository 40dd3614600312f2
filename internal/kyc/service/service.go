// Package service manages one onboarding session per authenticated user:
// the form state machine, its auto-save pipeline, and its submission
// pipeline, created lazily on first touch and torn down on shutdown.
package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"kyconboard/internal/docstore"
	"kyconboard/internal/kyc/draft"
	"kyconboard/internal/kyc/form"
	"kyconboard/internal/kyc/models"
	"kyconboard/internal/kyc/submit"
	"kyconboard/internal/platform/metrics"
	"kyconboard/internal/ratelimit"
	pkgerrors "kyconboard/pkg/errors"
	"kyconboard/pkg/requestcontext"
)

// Session bundles the per-user pipeline instances. Exactly one exists per
// active user.
type Session struct {
	Form      *form.Form
	Saver     *draft.AutoSaver
	Submitter *submit.Service
}

// Service owns all active sessions.
type Service struct {
	drafts   draft.Store
	mirror   draft.Mirror
	docs     docstore.Store
	logger   *slog.Logger
	metrics  *metrics.Metrics
	debounce time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
}

// Option customises the service.
type Option func(*Service)

// WithMirror enables the remote draft copy.
func WithMirror(m draft.Mirror) Option {
	return func(s *Service) { s.mirror = m }
}

// WithDebounce overrides the auto-save quiescence window.
func WithDebounce(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.debounce = d
		}
	}
}

// WithMetrics attaches Prometheus instruments.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New builds the session service.
func New(drafts draft.Store, docs docstore.Store, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		drafts:   drafts,
		docs:     docs,
		logger:   logger,
		debounce: draft.DefaultDebounce,
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Session returns the caller's session, creating it (and restoring any
// stored draft) on first use. Requires an authenticated user in ctx.
func (s *Service) Session(ctx context.Context) (*Session, error) {
	userID := requestcontext.UserID(ctx)
	if userID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user authentication required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[userID]; ok {
		return sess, nil
	}

	f := form.New()
	saverOpts := []draft.AutoSaverOption{draft.WithDebounce(s.debounce)}
	if s.mirror != nil {
		saverOpts = append(saverOpts, draft.WithMirror(s.mirror))
	}
	if s.metrics != nil {
		saverOpts = append(saverOpts, draft.WithSaveHook(s.metrics.DraftsSaved.Inc))
	}
	saver := draft.NewAutoSaver(s.drafts, f, userID, s.logger, saverOpts...)

	restored, err := saver.Restore(ctx)
	if err != nil {
		s.logger.Warn("draft restore failed", "user_id", userID, "error", err)
	}
	if restored && s.metrics != nil {
		s.metrics.DraftsRestored.Inc()
	}
	f.OnChange(saver.Notify)

	limiter := ratelimit.New(ratelimit.DefaultMaxAttempts, ratelimit.DefaultWindow)
	sess := &Session{
		Form:      f,
		Saver:     saver,
		Submitter: submit.New(s.docs, limiter, s.logger, s.metrics),
	}
	s.sessions[userID] = sess
	return sess, nil
}

// State is the wire view of a session.
type State struct {
	Stage         models.Stage       `json:"stage"`
	Validity      form.Validity      `json:"validity"`
	CanProceed    bool               `json:"canProceed"`
	Member        models.Person      `json:"member"`
	MemberAddr    models.Address     `json:"memberAddress"`
	Nominee       models.Person      `json:"nominee"`
	NomineeAddr   models.Address     `json:"nomineeAddress"`
	Account       models.BankAccount `json:"account"`
	LastAutoSaved *time.Time         `json:"lastAutoSaved,omitempty"`
	SubmitStatus  submit.Status      `json:"submitStatus"`
	SubmitError   string             `json:"submitError,omitempty"`
}

// State assembles the current session view.
func (s *Service) State(ctx context.Context) (State, error) {
	sess, err := s.Session(ctx)
	if err != nil {
		return State{}, err
	}
	now := requestcontext.Now(ctx)
	status, lastErr := sess.Submitter.Status()
	state := State{
		Stage:        sess.Form.Stage(),
		Validity:     sess.Form.Validity(now),
		CanProceed:   sess.Form.CanProceed(now),
		Member:       sess.Form.Member(),
		MemberAddr:   sess.Form.MemberAddress(),
		Nominee:      sess.Form.Nominee(),
		NomineeAddr:  sess.Form.NomineeAddress(),
		Account:      sess.Form.Account(),
		SubmitStatus: status,
		SubmitError:  lastErr,
	}
	if saved, ok := sess.Saver.LastSaved(); ok {
		state.LastAutoSaved = &saved
	}
	return state, nil
}

// Next attempts to advance the wizard. A denied transition is a validation
// failure, not an internal error.
func (s *Service) Next(ctx context.Context) (models.Stage, error) {
	sess, err := s.Session(ctx)
	if err != nil {
		return 0, err
	}
	stage, ok := sess.Form.Next(requestcontext.Now(ctx))
	if !ok {
		return stage, pkgerrors.New(pkgerrors.CodeValidation, "current section is incomplete or invalid")
	}
	return stage, nil
}

// Previous moves the wizard back unconditionally.
func (s *Service) Previous(ctx context.Context) (models.Stage, error) {
	sess, err := s.Session(ctx)
	if err != nil {
		return 0, err
	}
	return sess.Form.Previous(), nil
}

// Submit runs the submission pipeline and clears the draft on success.
func (s *Service) Submit(ctx context.Context) error {
	sess, err := s.Session(ctx)
	if err != nil {
		return err
	}
	var observe func()
	if s.metrics != nil {
		start := time.Now()
		observe = func() { s.metrics.SubmitDuration.Observe(time.Since(start).Seconds()) }
	}
	err = sess.Submitter.Submit(ctx, sess.Form)
	if observe != nil {
		observe()
	}
	if err != nil {
		return err
	}
	if err := sess.Saver.Clear(ctx); err != nil {
		// Submission is already durable; a stale local draft is the lesser
		// problem, so log and report success.
		s.logger.Warn("draft clear after submit failed",
			"user_id", requestcontext.UserID(ctx), "error", err)
	}
	return nil
}

// ClearDraft drops the caller's draft on explicit request.
func (s *Service) ClearDraft(ctx context.Context) error {
	sess, err := s.Session(ctx)
	if err != nil {
		return err
	}
	return sess.Saver.Clear(ctx)
}

// Close flushes and stops every session's auto-saver.
func (s *Service) Close(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for userID, sess := range s.sessions {
		if err := sess.Saver.FlushPending(ctx); err != nil {
			s.logger.Warn("draft flush on shutdown failed", "user_id", userID, "error", err)
		}
		sess.Saver.Close()
	}
}
