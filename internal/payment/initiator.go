// Package payment validates M-Pesa payment requests and hands them to the backend.
// A successful submission only means the push prompt was sent; settlement is
// confirmed by the backend and the provider, never here.
package payment

import (
	"context"
	"errors"

	"github.com/kollcibe05-creator/Vetty/internal/metrics"
	"github.com/kollcibe05-creator/Vetty/internal/models"
	"github.com/kollcibe05-creator/Vetty/internal/patterns"
	log "github.com/sirupsen/logrus"
)

// API is the payment endpoint of the backend
type API interface {
	InitiateMpesa(ctx context.Context, req models.MpesaPaymentRequest) (models.MpesaPaymentResponse, error)
}

// UI is what the initiator drives on the UI bus
type UI interface {
	patterns.Signaler
	OpenModal(id models.ModalID)
	CloseModal(id models.ModalID)
}

// CartReader exposes the cart the quick payment is taken from
type CartReader interface {
	Snapshot() models.Cart
}

// Initiator submits payment forms
type Initiator struct {
	api API
	ui  UI
}

// NewInitiator creates an initiator
func NewInitiator(api API, ui UI) *Initiator {
	return &Initiator{api: api, ui: ui}
}

// Submit validates form and, if it passes, asks the backend to send the push
// prompt. On success the form's modal closes and its fields are emptied; on
// failure the fields are kept so the user can correct them and resubmit.
func (in *Initiator) Submit(ctx context.Context, form *Form) (models.PaymentAttempt, error) {
	return in.submit(ctx, form, nil)
}

// SubmitValues replaces the fields of form with values and submits them as
// one step; concurrent submissions on the same form each send their own values.
func (in *Initiator) SubmitValues(ctx context.Context, form *Form, values models.PaymentForm) (models.PaymentAttempt, error) {
	return in.submit(ctx, form, &values)
}

func (in *Initiator) submit(ctx context.Context, form *Form, values *models.PaymentForm) (models.PaymentAttempt, error) {
	var req models.PaymentRequest

	ack, err := patterns.Guard(ctx, in.ui, patterns.Operation[models.MpesaPaymentResponse]{
		Name:    "mpesa_payment",
		Spinner: "Processing M-Pesa payment...",
		Validate: func() error {
			var err error
			req, err = form.validate(values)
			return err
		},
		Call: func(ctx context.Context) (models.MpesaPaymentResponse, error) {
			return in.api.InitiateMpesa(ctx, req.ToWire())
		},
		Apply: func(models.MpesaPaymentResponse) {
			if m := form.Modal(); m != "" {
				in.ui.CloseModal(m)
			}
			form.Reset()
		},
		Success: &models.Notice{
			Kind:    models.NotificationSuccess,
			Title:   "Payment Initiated",
			Message: "Please check your phone for the M-Pesa prompt and enter your PIN.",
		},
		FailureTitle:    "Payment Failed",
		FailureFallback: "Failed to process M-Pesa payment. Please try again.",
	})

	if err != nil {
		var fe models.FieldErrors
		if errors.As(err, &fe) {
			metrics.PaymentsTotal.WithLabelValues("invalid").Inc()
			return models.PaymentAttempt{}, err
		}
		metrics.PaymentsTotal.WithLabelValues("failed").Inc()
		return models.PaymentAttempt{
			Status:      models.PaymentStatusFailed,
			PhoneNumber: req.PhoneNumber,
			Amount:      req.Amount,
			Message:     patterns.MessageOf(err, "Failed to process M-Pesa payment. Please try again."),
		}, err
	}

	metrics.PaymentsTotal.WithLabelValues("initiated").Inc()
	metrics.PaymentAmount.Observe(req.Amount.InexactFloat64())
	log.WithFields(log.Fields{
		"checkout_request_id": ack.CheckoutRequestID,
		"amount":              req.Amount.String(),
	}).Info("M-Pesa push prompt requested")

	return models.PaymentAttempt{
		Status:            models.PaymentStatusInitiated,
		CheckoutRequestID: ack.CheckoutRequestID,
		PhoneNumber:       req.PhoneNumber,
		Amount:            req.Amount,
		Message:           ack.Message,
	}, nil
}

// PayCart prefills form with the cart total and opens the M-Pesa modal.
// With an empty cart it only warns and returns false.
func (in *Initiator) PayCart(cart CartReader, form *Form) bool {
	snap := cart.Snapshot()
	if len(snap.Items) == 0 {
		in.ui.ShowNotification(models.Notice{
			Kind:    models.NotificationWarning,
			Title:   "Cart Empty",
			Message: "Please add items to your cart first.",
		})
		return false
	}

	form.Set(models.FieldAmount, snap.TotalAmount.String())
	in.ui.OpenModal(models.ModalMpesa)
	return true
}
