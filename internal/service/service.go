// Package service holds the business rules of the API.
//
// LAYERING:
//
//	handler (HTTP) → service (rules, validation) → repository (storage)
//	                        ↘ events.Publisher (best-effort notifications)
//
// Services take raw path ids as strings and parse them here, so every
// "ID inválido" message lives next to the rule it belongs to. Every error
// returned is an *apperror.AppError; anything the repository reports that is
// not one becomes InternalStorage with a generic message.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/sakif/plantando/internal/apperror"
	"github.com/sakif/plantando/internal/events"
	"github.com/sakif/plantando/internal/observability"
)

const msgNoChanges = "Nenhum dado fornecido para atualização."

// publishTimeout bounds how long a request waits on the broker.
const publishTimeout = 3 * time.Second

// parseID parses a base-10 id, answering InvalidInput with message otherwise.
func parseID(raw, message string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, apperror.InvalidInput(message)
	}
	return id, nil
}

// storageError passes classified errors through and turns anything else
// into InternalStorage carrying the cause.
func storageError(err error, message string) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperror.InternalStorage(message, err)
}

// lookupError is storageError with the repository's NotFound replaced by a
// message specific to the operation.
func lookupError(err error, notFound, internal string) error {
	if errors.Is(err, apperror.ErrNotFound) {
		return apperror.NotFound(notFound)
	}
	return storageError(err, internal)
}

// check runs ozzo-validation rules against one value. The first failing
// rule's message becomes the client-facing message.
func check(field string, value any, rules ...validation.Rule) error {
	if err := validation.Validate(value, rules...); err != nil {
		return apperror.ValidationFailed(field, err.Error())
	}
	return nil
}

// publish delivers event without failing the caller.
func publish(ctx context.Context, pub events.Publisher, logger *slog.Logger, event events.Event) {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := pub.Publish(ctx, event); err != nil {
		observability.RecordEventFailure(event.Type)
		logger.Warn("publishing event failed",
			slog.String("type", event.Type),
			slog.String("event_id", event.ID),
			slog.Any("error", err),
		)
	}
}
