package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/campus-reservation/internal/application"
	"github.com/example/campus-reservation/internal/calendar"
)

// Error codes returned in the error_code field.
const (
	codeInvalid         = "INVALID"
	codeBlocked         = "BLOCKED"
	codeConflicted      = "CONFLICTED"
	codeQuotaExceeded   = "QUOTA_EXCEEDED"
	codeBadRequest      = "BAD_REQUEST"
	codeUnauthenticated = "UNAUTHENTICATED"
	codeForbidden       = "FORBIDDEN"
	codeNotFound        = "NOT_FOUND"
	codeInvalidState    = "INVALID_STATE"
	codeInternal        = "INTERNAL"
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	return responder{logger: defaultLogger(logger)}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// writeError renders a localized message for key under the given code.
func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, code, key string) {
	p := printerFromContext(ctx)
	r.writeJSON(ctx, w, status, errorResponse{ErrorCode: code, Message: p.Sprintf(key)})
}

// decodeBody reads a JSON request body into dst. A value of the wrong type is
// reported as a field error on its JSON name; any other failure is a
// malformed body. It reports whether decoding succeeded.
func (r responder) decodeBody(ctx context.Context, w http.ResponseWriter, body io.Reader, dst any) bool {
	err := json.NewDecoder(body).Decode(dst)
	if err == nil {
		return true
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		r.writeValidation(ctx, w, map[string]string{typeErr.Field: typeErr.Field + " is invalid"})
		return false
	}
	r.writeError(ctx, w, http.StatusBadRequest, codeBadRequest, msgBadRequestBody)
	return false
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.loggerFor(ctx).ErrorContext(ctx, "request failed without error detail")
		r.writeError(ctx, w, http.StatusInternalServerError, codeInternal, msgInternal)
		return
	}

	var vErr *application.ValidationError
	switch {
	case errors.As(err, &vErr):
		r.writeValidation(ctx, w, vErr.FieldErrors)
	case errors.Is(err, application.ErrUnauthorized):
		r.writeError(ctx, w, http.StatusForbidden, codeForbidden, msgForbidden)
	case errors.Is(err, application.ErrNotFound):
		r.writeError(ctx, w, http.StatusNotFound, codeNotFound, msgNotFound)
	case errors.Is(err, application.ErrInvalidState):
		r.writeError(ctx, w, http.StatusConflict, codeInvalidState, msgInvalidState)
	default:
		r.loggerFor(ctx).ErrorContext(ctx, "request failed",
			"status", http.StatusInternalServerError,
			"error", err,
			"error_kind", application.ErrorKind(err),
		)
		r.writeError(ctx, w, http.StatusInternalServerError, codeInternal, msgInternal)
	}
}

func (r responder) writeValidation(ctx context.Context, w http.ResponseWriter, fieldErrors map[string]string) {
	p := printerFromContext(ctx)
	var details map[string]string
	if len(fieldErrors) > 0 {
		details = make(map[string]string, len(fieldErrors))
		for field, msg := range fieldErrors {
			details[field] = translateFieldMessage(p, msg)
		}
	}
	r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
		ErrorCode: codeInvalid,
		Message:   p.Sprintf(msgInvalidInput),
		Errors:    details,
	})
}

// writeRejection renders a non-accepted admission. Rejections are business
// outcomes, so they are logged at info level only.
func (r responder) writeRejection(ctx context.Context, w http.ResponseWriter, admission application.Admission) {
	p := printerFromContext(ctx)
	r.loggerFor(ctx).InfoContext(ctx, "reservation rejected", "outcome", string(admission.Outcome))

	switch admission.Outcome {
	case application.OutcomeInvalid:
		r.writeValidation(ctx, w, admission.FieldErrors)
	case application.OutcomeBlocked:
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: codeBlocked,
			Message:   p.Sprintf(msgBlocked, admission.Reason),
			Reason:    admission.Reason,
		})
	case application.OutcomeConflicted:
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: codeConflicted,
			Message:   p.Sprintf(msgSlotReserved),
			Reason:    admission.Reason,
		})
	case application.OutcomeQuotaExceeded:
		resp := errorResponse{ErrorCode: codeQuotaExceeded, Reason: admission.Reason}
		if q := admission.Quota; q != nil {
			resp.Message = p.Sprintf(msgQuotaExceeded, q.Used, q.Requested, q.Limit)
			resp.Quota = &quotaDTO{
				Used:      q.Used,
				Requested: q.Requested,
				Limit:     q.Limit,
				Remaining: q.Remaining(),
				WeekStart: calendar.FormatDate(q.WeekStart),
				WeekEnd:   calendar.FormatDate(q.WeekEnd),
			}
		} else {
			resp.Message = admission.Reason
		}
		r.writeJSON(ctx, w, http.StatusConflict, resp)
	default:
		r.loggerFor(ctx).ErrorContext(ctx, "unexpected admission outcome", "outcome", string(admission.Outcome))
		r.writeError(ctx, w, http.StatusInternalServerError, codeInternal, msgInternal)
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Reason    string            `json:"reason,omitempty"`
	Errors    map[string]string `json:"errors,omitempty"`
	Quota     *quotaDTO         `json:"quota,omitempty"`
}

type quotaDTO struct {
	Used      int    `json:"used"`
	Requested int    `json:"requested"`
	Limit     int    `json:"limit"`
	Remaining int    `json:"remaining"`
	WeekStart string `json:"week_start"`
	WeekEnd   string `json:"week_end"`
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func formatOptionalTimestamp(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTimestamp(*t)
	return &s
}
