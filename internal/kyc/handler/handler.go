// Package handler is the thin HTTP layer over the onboarding session
// service. It decodes payloads, delegates, and translates domain errors;
// business logic stays in the service and pipeline packages.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"kyconboard/internal/kyc/models"
	"kyconboard/internal/kyc/service"
	"kyconboard/internal/platform/middleware"
	pkgerrors "kyconboard/pkg/errors"
	"kyconboard/pkg/requestcontext"
)

// Handler serves the onboarding API.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// Service aliases the session service so tests can construct handlers
// without the full wiring in main.
type Service = service.Service

// New creates a Handler.
func New(svc *Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, service: svc}
}

// Register mounts the onboarding routes behind the auth middleware.
func (h *Handler) Register(r chi.Router, validator middleware.TokenValidator) {
	kyc := chi.NewRouter()
	kyc.Use(middleware.RequireAuth(validator, h.logger))

	kyc.Get("/form", h.handleGetForm)
	kyc.Put("/form/member", h.handleUpdateMember)
	kyc.Put("/form/member-address", h.handleUpdateMemberAddress)
	kyc.Put("/form/nominee", h.handleUpdateNominee)
	kyc.Put("/form/nominee-address", h.handleUpdateNomineeAddress)
	kyc.Put("/form/account", h.handleUpdateAccount)
	kyc.Put("/form/signature", h.handleUpdateSignature)
	kyc.Post("/form/next", h.handleNext)
	kyc.Post("/form/previous", h.handlePrevious)
	kyc.Post("/form/submit", h.handleSubmit)
	kyc.Delete("/form/draft", h.handleClearDraft)

	r.Mount("/kyc", kyc)
}

func (h *Handler) handleGetForm(w http.ResponseWriter, r *http.Request) {
	state, err := h.service.State(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, state)
}

func (h *Handler) handleUpdateMember(w http.ResponseWriter, r *http.Request) {
	var person models.Person
	if !h.decode(w, r, &person) {
		return
	}
	h.applyUpdate(w, r, func(sess *service.Session) { sess.Form.SetMember(person) })
}

func (h *Handler) handleUpdateMemberAddress(w http.ResponseWriter, r *http.Request) {
	var addr models.Address
	if !h.decode(w, r, &addr) {
		return
	}
	h.applyUpdate(w, r, func(sess *service.Session) { sess.Form.SetMemberAddress(addr) })
}

func (h *Handler) handleUpdateNominee(w http.ResponseWriter, r *http.Request) {
	var person models.Person
	if !h.decode(w, r, &person) {
		return
	}
	h.applyUpdate(w, r, func(sess *service.Session) { sess.Form.SetNominee(person) })
}

func (h *Handler) handleUpdateNomineeAddress(w http.ResponseWriter, r *http.Request) {
	var addr models.Address
	if !h.decode(w, r, &addr) {
		return
	}
	h.applyUpdate(w, r, func(sess *service.Session) { sess.Form.SetNomineeAddress(addr) })
}

func (h *Handler) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	var account models.BankAccount
	if !h.decode(w, r, &account) {
		return
	}
	h.applyUpdate(w, r, func(sess *service.Session) { sess.Form.SetAccount(account) })
}

func (h *Handler) handleUpdateSignature(w http.ResponseWriter, r *http.Request) {
	var sig models.DigitalSignature
	if !h.decode(w, r, &sig) {
		return
	}
	h.applyUpdate(w, r, func(sess *service.Session) { sess.Form.SetDigitalSignature(sig) })
}

func (h *Handler) handleNext(w http.ResponseWriter, r *http.Request) {
	stage, err := h.service.Next(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"stage": stage.String()})
}

func (h *Handler) handlePrevious(w http.ResponseWriter, r *http.Request) {
	stage, err := h.service.Previous(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"stage": stage.String()})
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Submit(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "succeeded"})
}

func (h *Handler) handleClearDraft(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ClearDraft(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// applyUpdate runs a mutation against the caller's session and returns the
// refreshed state so the client sees validity flags without a second round
// trip.
func (h *Handler) applyUpdate(w http.ResponseWriter, r *http.Request, mutate func(*service.Session)) {
	sess, err := h.service.Session(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	mutate(sess)
	state, err := h.service.State(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, state)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.writeError(w, r, pkgerrors.New(pkgerrors.CodeBadRequest, "invalid request body"))
		return false
	}
	return true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := pkgerrors.StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed",
			"error", err,
			"request_id", requestcontext.RequestID(r.Context()),
		)
	}
	h.writeJSON(w, status, map[string]string{"error": pkgerrors.Message(err)})
}
