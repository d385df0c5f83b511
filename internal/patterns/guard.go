package patterns

import (
	"context"
	"errors"
	"time"

	"github.com/kollcibe05-creator/Vetty/internal/metrics"
	"github.com/kollcibe05-creator/Vetty/internal/models"
	log "github.com/sirupsen/logrus"
)

// Signaler is the part of the UI bus a guarded operation drives
type Signaler interface {
	ShowSpinner(message string) uint64
	HideSpinner(token uint64)
	ShowNotification(n models.Notice) string
}

// UserMessager is implemented by errors that carry text meant for the user
type UserMessager interface {
	UserMessage() string
}

// MessageOf returns the user-facing message carried by err, or fallback
func MessageOf(err error, fallback string) string {
	var um UserMessager
	if errors.As(err, &um) {
		if msg := um.UserMessage(); msg != "" {
			return msg
		}
	}
	return fallback
}

// Operation describes one validate -> busy -> call -> notify round trip
type Operation[T any] struct {
	Name    string
	Spinner string

	// Validate runs before anything is shown; a non-nil error aborts with no network call
	Validate func() error
	Call     func(ctx context.Context) (T, error)
	// Apply runs on success while the spinner is still held
	Apply func(T)
	// Failed runs on failure while the spinner is still held
	Failed func(message string)

	// Success is shown after a successful call; nil keeps the operation silent
	Success         *models.Notice
	FailureTitle    string
	FailureFallback string
}

// Guard runs op against ui. Every failed call yields exactly one error
// notification, every started call releases its spinner entry, and nothing is retried.
func Guard[T any](ctx context.Context, ui Signaler, op Operation[T]) (T, error) {
	var zero T

	if op.Validate != nil {
		if err := op.Validate(); err != nil {
			metrics.OperationsTotal.WithLabelValues(op.Name, "invalid").Inc()
			log.WithFields(log.Fields{
				"operation": op.Name,
				"error":     err.Error(),
			}).Debug("Operation rejected by validation")
			return zero, err
		}
	}

	start := time.Now()
	token := ui.ShowSpinner(op.Spinner)

	result, err := op.Call(ctx)
	if err != nil {
		msg := MessageOf(err, op.FailureFallback)
		if op.Failed != nil {
			op.Failed(msg)
		}
		ui.HideSpinner(token)
		ui.ShowNotification(models.Notice{
			Kind:    models.NotificationError,
			Title:   op.FailureTitle,
			Message: msg,
		})

		metrics.OperationsTotal.WithLabelValues(op.Name, "failed").Inc()
		metrics.OperationDuration.WithLabelValues(op.Name).Observe(time.Since(start).Seconds())
		log.WithFields(log.Fields{
			"operation": op.Name,
			"error":     err.Error(),
		}).Warn("Operation failed")
		return zero, err
	}

	if op.Apply != nil {
		op.Apply(result)
	}
	ui.HideSpinner(token)
	if op.Success != nil {
		ui.ShowNotification(*op.Success)
	}

	metrics.OperationsTotal.WithLabelValues(op.Name, "success").Inc()
	metrics.OperationDuration.WithLabelValues(op.Name).Observe(time.Since(start).Seconds())
	log.WithField("operation", op.Name).Info("Operation completed")
	return result, nil
}
