package models

import (
	"sort"
	"strings"
)

// Field names used in FieldErrors
const (
	FieldPhoneNumber   = "phone_number"
	FieldAmount        = "amount"
	FieldOrderID       = "order_id"
	FieldAppointmentID = "appointment_id"
	FieldQuantity      = "quantity"
	FieldProductID     = "product_id"
	FieldPaymentType   = "payment_type"
)

// FieldErrors maps a field name to its inline validation message.
// A non-empty FieldErrors blocks submission; nothing is sent over the network.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for f := range fe {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+fe[f])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records a message for field, keeping the first one
func (fe FieldErrors) Add(field, message string) {
	if _, ok := fe[field]; !ok {
		fe[field] = message
	}
}

// OrNil returns nil when there are no errors so callers can return it as error
func (fe FieldErrors) OrNil() error {
	if len(fe) == 0 {
		return nil
	}
	return fe
}
