package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	goGuard "github.com/MrEthical07/goGuard"
	"github.com/go-chi/chi/v5"
)

type handler struct {
	engine *goGuard.Engine
	sender otpSender
	logger *slog.Logger
}

type messageEnvelope struct {
	Message string `json:"message"`
}

type errorEnvelope struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorEnvelope{Error: msg})
}

// httpError maps engine errors onto status codes.
func (h *handler) httpError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, goGuard.ErrInvalidSubject),
		errors.Is(err, goGuard.ErrInvalidCountry),
		errors.Is(err, goGuard.ErrInvalidIP):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, goGuard.ErrStoreUnavailable):
		h.logger.ErrorContext(r.Context(), "store unavailable", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusServiceUnavailable, "service temporarily unavailable")
	default:
		h.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// bind decodes and validates the request body, writing a 400 on failure.
func bind(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := decode(w, r, dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := validateStruct(dst); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func (h *handler) emailOTP(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email" validate:"required,email,max=254"`
	}
	if !bind(w, r, &body) {
		return
	}

	code, err := h.engine.IssueEmailOTP(r.Context(), body.Email)
	if err != nil {
		h.httpError(w, r, err)
		return
	}
	if err := h.sender.SendEmail(r.Context(), strings.TrimSpace(body.Email), code); err != nil {
		h.logger.ErrorContext(r.Context(), "otp email delivery failed", "error", err)
		writeError(w, http.StatusBadGateway, "could not deliver code")
		return
	}
	writeJSON(w, http.StatusAccepted, messageEnvelope{Message: "verification code sent"})
}

func (h *handler) phoneOTP(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Phone string `json:"phone" validate:"required,max=32"`
	}
	if !bind(w, r, &body) {
		return
	}

	code, err := h.engine.IssuePhoneOTP(r.Context(), body.Phone)
	if err != nil {
		h.httpError(w, r, err)
		return
	}
	if err := h.sender.SendSMS(r.Context(), strings.TrimSpace(body.Phone), code); err != nil {
		h.logger.ErrorContext(r.Context(), "otp sms delivery failed", "error", err)
		writeError(w, http.StatusBadGateway, "could not deliver code")
		return
	}
	writeJSON(w, http.StatusAccepted, messageEnvelope{Message: "verification code sent"})
}

func (h *handler) verifyOTP(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email" validate:"omitempty,email,max=254"`
		Phone string `json:"phone" validate:"omitempty,max=32"`
		Code  string `json:"code" validate:"required,max=16"`
	}
	if !bind(w, r, &body) {
		return
	}

	var (
		key string
		err error
	)
	switch {
	case body.Email != "" && body.Phone != "":
		writeError(w, http.StatusBadRequest, "provide either email or phone")
		return
	case body.Email != "":
		key, err = goGuard.EmailOTPKey(body.Email)
	default:
		key, err = goGuard.PhoneOTPKey(body.Phone)
	}
	if err != nil {
		h.httpError(w, r, err)
		return
	}

	ok, err := h.engine.VerifyOTP(r.Context(), key, body.Code)
	if err != nil {
		h.httpError(w, r, err)
		return
	}
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid or expired code")
		return
	}
	if err := h.engine.ClearOTP(r.Context(), key); err != nil {
		h.logger.WarnContext(r.Context(), "otp clear failed", "error", err)
	}
	writeJSON(w, http.StatusOK, map[string]bool{"verified": true})
}

func (h *handler) whatsApp(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Phone   string `json:"phone" validate:"required,max=32"`
		Message string `json:"message" validate:"required,max=4096"`
	}
	if !bind(w, r, &body) {
		return
	}

	if err := h.sender.SendWhatsApp(r.Context(), strings.TrimSpace(body.Phone), body.Message); err != nil {
		h.logger.ErrorContext(r.Context(), "whatsapp delivery failed", "error", err)
		writeError(w, http.StatusBadGateway, "could not deliver message")
		return
	}
	writeJSON(w, http.StatusAccepted, messageEnvelope{Message: "message queued"})
}

func (h *handler) listBlockedCountries(w http.ResponseWriter, r *http.Request) {
	countries, err := h.engine.BlockedCountries(r.Context())
	if err != nil {
		h.httpError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"countries": countries})
}

func (h *handler) addBlockedCountry(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Country string `json:"country" validate:"required,max=64"`
	}
	if !bind(w, r, &body) {
		return
	}

	changed, err := h.engine.AddBlockedCountry(r.Context(), body.Country)
	if err != nil {
		h.httpError(w, r, err)
		return
	}
	status := http.StatusOK
	if changed {
		status = http.StatusCreated
	}
	writeJSON(w, status, messageEnvelope{Message: "country blocked"})
}

func (h *handler) removeBlockedCountry(w http.ResponseWriter, r *http.Request) {
	if _, err := h.engine.RemoveBlockedCountry(r.Context(), chi.URLParam(r, "country")); err != nil {
		h.httpError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) resetRateLimit(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.ResetRateLimit(r.Context(), chi.URLParam(r, "ip")); err != nil {
		h.httpError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) securityReport(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.SecurityReport())
}

type pinger interface {
	Ping(ctx context.Context) error
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	if p, ok := h.engine.Store().(pinger); ok {
		if err := p.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "store unreachable")
			return
		}
	}
	writeJSON(w, http.StatusOK, messageEnvelope{Message: "ok"})
}
