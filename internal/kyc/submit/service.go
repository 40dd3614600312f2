// Package submit orchestrates the final KYC submission: rate-limit gate,
// sanitization, hashing and masking of sensitive fields, and one atomic
// multi-document batch to the document store.
package submit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/google/uuid"

	"kyconboard/internal/docstore"
	"kyconboard/internal/kyc/form"
	"kyconboard/internal/kyc/models"
	"kyconboard/internal/kyc/security"
	"kyconboard/internal/platform/metrics"
	"kyconboard/internal/ratelimit"
	pkgerrors "kyconboard/pkg/errors"
	"kyconboard/pkg/requestcontext"
)

// Status models the submission lifecycle.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusSubmitting Status = "submitting"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
)

const auditAction = "kyc_form_submission"

// Service runs submissions for one form session. The rate limiter is owned
// here: an attempt consumed by a failed submission is not refunded.
type Service struct {
	docs    docstore.Store
	limiter *ratelimit.Limiter
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu      sync.Mutex
	status  Status
	lastErr string
}

// New builds a submission service. metrics may be nil (tests).
func New(docs docstore.Store, limiter *ratelimit.Limiter, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		docs:    docs,
		limiter: limiter,
		logger:  logger,
		metrics: m,
		status:  StatusIdle,
	}
}

// Status returns the current lifecycle state and the last failure message
// (empty unless failed).
func (s *Service) Status() (Status, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status, s.lastErr
}

// Submit runs the pipeline end to end. On success the caller is expected to
// clear the auto-saved draft; on failure the draft is left untouched so no
// data is lost.
func (s *Service) Submit(ctx context.Context, f *form.Form) error {
	s.setStatus(StatusSubmitting, "")

	if !s.limiter.Allow() {
		wait, _ := s.limiter.RetryAfter()
		minutes := int(math.Ceil(wait.Minutes()))
		if minutes < 1 {
			minutes = 1
		}
		msg := fmt.Sprintf("Too many submission attempts. Please wait %d minutes before trying again.", minutes)
		err := pkgerrors.New(pkgerrors.CodeRateLimited, msg)
		s.fail(ctx, msg, err)
		return err
	}

	member := security.SanitizePerson(f.Member())
	member.Address = security.SanitizeAddress(f.MemberAddress())
	nominee := security.SanitizePerson(f.Nominee())
	nominee.Address = security.SanitizeAddress(f.NomineeAddress())
	account := security.SanitizeBankAccount(f.Account())

	userID := requestcontext.UserID(ctx)
	if userID == "" {
		err := pkgerrors.New(pkgerrors.CodeUnauthorized, "user authentication required")
		s.fail(ctx, "user authentication required", err)
		return err
	}

	writes, err := s.buildBatch(ctx, userID, member, nominee, account)
	if err != nil {
		s.fail(ctx, "failed to submit form", err)
		return pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to submit form")
	}

	if err := s.docs.AtomicBatch(ctx, writes); err != nil {
		s.fail(ctx, "failed to submit form", err)
		return pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to submit form")
	}

	s.setStatus(StatusSucceeded, "")
	if s.metrics != nil {
		s.metrics.SubmissionsSucceeded.Inc()
	}
	s.logger.Info("kyc form submitted",
		"user_id", userID,
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}

// buildBatch assembles the member, nominee, account, and audit documents.
// All four share one audit ID and one submission timestamp. The account
// number is stored hashed plus masked, never in the clear.
func (s *Service) buildBatch(ctx context.Context, userID string, member, nominee models.Person, account models.BankAccount) ([]*docstore.Write, error) {
	submittedAt := requestcontext.Now(ctx)
	auditID := uuid.NewString()
	memberID := uuid.NewString()

	memberFields, err := toFields(member)
	if err != nil {
		return nil, fmt.Errorf("encode member: %w", err)
	}
	memberFields["userId"] = userID
	memberFields["submittedAt"] = submittedAt
	memberFields["auditId"] = auditID

	nomineeFields, err := toFields(nominee)
	if err != nil {
		return nil, fmt.Errorf("encode nominee: %w", err)
	}
	nomineeFields["userId"] = userID
	nomineeFields["memberRef"] = memberID
	nomineeFields["submittedAt"] = submittedAt
	nomineeFields["auditId"] = auditID

	accountFields, err := toFields(account)
	if err != nil {
		return nil, fmt.Errorf("encode account: %w", err)
	}
	accountFields["accountNumberHash"] = security.HashSensitive(account.AccountNumber)
	accountFields["accountNumber"] = security.MaskAccountNumber(account.AccountNumber)
	delete(accountFields, "confirmAccountNumber")
	accountFields["userId"] = userID
	accountFields["memberRef"] = memberID
	accountFields["submittedAt"] = submittedAt
	accountFields["auditId"] = auditID

	auditFields := map[string]any{
		"userId":    userID,
		"action":    auditAction,
		"timestamp": submittedAt,
		"clientInfo": map[string]any{
			"ip":        requestcontext.ClientIP(ctx),
			"userAgent": requestcontext.UserAgent(ctx),
		},
	}

	base := "users/" + userID + "/"
	return []*docstore.Write{
		{Collection: base + "audit_logs", ID: auditID, Fields: auditFields},
		{Collection: base + "members", ID: memberID, Fields: memberFields},
		{Collection: base + "nominees", Fields: nomineeFields},
		{Collection: base + "accounts", Fields: accountFields},
	}, nil
}

func (s *Service) setStatus(status Status, lastErr string) {
	s.mu.Lock()
	s.status = status
	s.lastErr = lastErr
	s.mu.Unlock()
}

func (s *Service) fail(ctx context.Context, msg string, cause error) {
	s.setStatus(StatusFailed, msg)
	if s.metrics != nil {
		if pkgerrors.HasCode(cause, pkgerrors.CodeRateLimited) {
			s.metrics.SubmissionsRateLimited.Inc()
		} else {
			s.metrics.SubmissionsFailed.Inc()
		}
	}
	s.logger.Warn("kyc submission failed",
		"request_id", requestcontext.RequestID(ctx),
		"error", cause,
	)
}

// toFields round-trips a struct through JSON into a field map so document
// layout matches the wire tags exactly.
func toFields(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	fields := make(map[string]any)
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}
