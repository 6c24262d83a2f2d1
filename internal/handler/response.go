package handler

// RESPONSE HELPERS:
// Every handler answers through writeJSON or ErrorResponder.Respond, so all
// endpoints share one content type and one error shape:
//
//	{"error": "not_found", "message": "Usuário não encontrado."}
//
// Outside production the body also carries "detail", the text of the
// underlying cause, to help while developing against the API.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/plantando/internal/apperror"
)

const (
	msgInternal      = "Ocorreu um erro interno no servidor."
	msgInvalidBody   = "Corpo da requisição inválido."
	msgRouteNotFound = "Rota não encontrada."
)

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error   string `json:"error"`            // machine-readable kind, e.g. "not_found"
	Message string `json:"message"`          // client-facing text
	Field   string `json:"field,omitempty"`  // offending field, when known
	Detail  string `json:"detail,omitempty"` // cause text; never set in production
}

// writeJSON sends data as JSON with the given status. Headers must be set
// before WriteHeader; anything after it is ignored by net/http.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// ErrorResponder is the single place where errors become HTTP responses.
//
// MAPPING:
//   - *apperror.AppError anywhere in the chain → its StatusCode and Message
//   - anything else → 500 with a generic message
//
// 5xx answers are logged with their cause; 4xx answers are left to the
// request logger.
type ErrorResponder struct {
	logger     *slog.Logger
	production bool
}

func NewErrorResponder(logger *slog.Logger, production bool) *ErrorResponder {
	return &ErrorResponder{logger: logger, production: production}
}

// Respond writes err. Its signature matches auth.ErrorWriter so the bearer
// gate answers with the same body.
func (e *ErrorResponder) Respond(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		appErr = apperror.InternalStorage(msgInternal, err)
	}

	status := appErr.StatusCode()
	body := ErrorResponse{
		Error:   appErr.Kind(),
		Message: appErr.Message,
		Field:   appErr.Field,
	}

	if status >= http.StatusInternalServerError {
		cause := appErr.Cause
		if cause == nil {
			cause = err
		}
		e.logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", status),
			slog.String("request_id", chimiddleware.GetReqID(r.Context())),
			slog.Any("error", cause),
		)
		if !e.production {
			body.Detail = cause.Error()
		}
	}

	writeJSON(w, status, body)
}

// NotFound answers requests no route matched.
func (e *ErrorResponder) NotFound(w http.ResponseWriter, r *http.Request) {
	e.Respond(w, r, apperror.NotFound(msgRouteNotFound))
}

// decodeJSON reads the request body into dst. Any decoding failure, including
// an empty body, becomes a 400 with a fixed message.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperror.InvalidInput(msgInvalidBody)
	}
	return nil
}
