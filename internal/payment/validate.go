package payment

import (
	"regexp"
	"strings"

	"github.com/kollcibe05-creator/Vetty/internal/models"
	"github.com/shopspring/decimal"
)

// mpesaNumber is country code 254, mobile prefix 7, then exactly eight digits
var mpesaNumber = regexp.MustCompile(`^2547[0-9]{8}$`)

// ValidatePhoneNumber returns the inline message for phone, or "" if it is valid
func ValidatePhoneNumber(phone string) string {
	switch {
	case phone == "":
		return "Phone number is required"
	case !mpesaNumber.MatchString(phone):
		return "Please enter a valid M-Pesa number (2547XXXXXXXX)"
	default:
		return ""
	}
}

// MaxAmount is the largest amount a single M-Pesa push may request
var MaxAmount = decimal.NewFromInt(250000)

// ParseAmount parses a strictly positive amount of at most two decimal places
// and no more than MaxAmount, so it always has an exact wire value
func ParseAmount(raw string) (decimal.Decimal, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, "Amount is required"
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil || !amount.IsPositive() {
		return decimal.Zero, "Please enter a valid amount"
	}
	if amount.GreaterThan(MaxAmount) {
		return decimal.Zero, "Amount cannot exceed KES " + MaxAmount.StringFixed(0)
	}
	if !amount.Equal(amount.Round(2)) {
		return decimal.Zero, "Amount can have at most two decimal places"
	}
	return amount, ""
}

// ValidatePaymentRequest checks a phone number and amount and builds the
// M-Pesa request. Both checks always run so every bad field is reported.
func ValidatePaymentRequest(phone, amount string) (models.PaymentRequest, error) {
	return ValidateForm(models.PaymentForm{PhoneNumber: phone, Amount: amount})
}

// ValidateForm validates a whole payment form, including the order or
// appointment reference when a payment type is selected
func ValidateForm(f models.PaymentForm) (models.PaymentRequest, error) {
	fe := models.FieldErrors{}

	if msg := ValidatePhoneNumber(f.PhoneNumber); msg != "" {
		fe.Add(models.FieldPhoneNumber, msg)
	}
	amount, msg := ParseAmount(f.Amount)
	if msg != "" {
		fe.Add(models.FieldAmount, msg)
	}

	req := models.PaymentRequest{
		PhoneNumber: f.PhoneNumber,
		Amount:      amount,
		Method:      models.PaymentMethodMpesa,
	}

	switch f.PaymentType {
	case models.PaymentTypeNone:
	case models.PaymentTypeOrder:
		if strings.TrimSpace(f.OrderID) == "" {
			fe.Add(models.FieldOrderID, "Order ID is required for order payments")
		}
		req.OrderID = strings.TrimSpace(f.OrderID)
	case models.PaymentTypeAppointment:
		if strings.TrimSpace(f.AppointmentID) == "" {
			fe.Add(models.FieldAppointmentID, "Appointment ID is required for appointment payments")
		}
		req.AppointmentID = strings.TrimSpace(f.AppointmentID)
	default:
		fe.Add(models.FieldPaymentType, "Unknown payment type")
	}

	if err := fe.OrNil(); err != nil {
		return models.PaymentRequest{}, err
	}
	return req, nil
}
