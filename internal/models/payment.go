package models

import "github.com/shopspring/decimal"

// PaymentMethodMpesa tags requests sent through the M-Pesa channel
const PaymentMethodMpesa = "M-Pesa"

// PaymentType selects what a standalone payment is for
type PaymentType string

const (
	PaymentTypeNone        PaymentType = ""
	PaymentTypeOrder       PaymentType = "order"
	PaymentTypeAppointment PaymentType = "appointment"
)

// PaymentRequest is a validated mobile-money payment, discarded after submission
type PaymentRequest struct {
	PhoneNumber   string
	Amount        decimal.Decimal
	Method        string
	OrderID       string
	AppointmentID string
}

// MpesaPaymentRequest is the body of POST /payments/mpesa
type MpesaPaymentRequest struct {
	PhoneNumber   string  `json:"phone_number" binding:"required"`
	Amount        float64 `json:"amount" binding:"required,gt=0"`
	PaymentMethod string  `json:"payment_method"`
	OrderID       string  `json:"order_id,omitempty"`
	AppointmentID string  `json:"appointment_id,omitempty"`
}

// ToWire converts a validated request into its JSON body
func (r PaymentRequest) ToWire() MpesaPaymentRequest {
	return MpesaPaymentRequest{
		PhoneNumber:   r.PhoneNumber,
		Amount:        r.Amount.InexactFloat64(),
		PaymentMethod: r.Method,
		OrderID:       r.OrderID,
		AppointmentID: r.AppointmentID,
	}
}

// MpesaPaymentResponse is the provider acknowledgement; it does not mean the payment settled
type MpesaPaymentResponse struct {
	Message           string          `json:"message"`
	PaymentID         int64           `json:"payment_id"`
	CheckoutRequestID string          `json:"checkout_request_id"`
	PhoneNumber       string          `json:"phone_number"`
	Amount            decimal.Decimal `json:"amount"`
}

// PaymentStatus constants
const (
	PaymentStatusInitiated = "initiated"
	PaymentStatusFailed    = "failed"
)

// PaymentAttempt is what the initiator reports back after a submission
type PaymentAttempt struct {
	Status            string          `json:"status"`
	CheckoutRequestID string          `json:"checkout_request_id,omitempty"`
	PhoneNumber       string          `json:"phone_number"`
	Amount            decimal.Decimal `json:"amount"`
	Message           string          `json:"message,omitempty"`
}

// PaymentForm holds the raw field values typed by the user
type PaymentForm struct {
	PhoneNumber   string      `json:"phone_number"`
	Amount        string      `json:"amount"`
	PaymentType   PaymentType `json:"payment_type,omitempty"`
	OrderID       string      `json:"order_id,omitempty"`
	AppointmentID string      `json:"appointment_id,omitempty"`
}
