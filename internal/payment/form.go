package payment

import (
	"sync"

	"github.com/kollcibe05-creator/Vetty/internal/models"
)

// Form is the editable state behind a payment form. Field errors are kept
// until the user edits that field or the form is validated again.
type Form struct {
	mu     sync.Mutex
	values models.PaymentForm
	errors models.FieldErrors
	modal  models.ModalID
}

// NewModalForm returns the phone + amount form shown in the M-Pesa modal
func NewModalForm() *Form {
	return &Form{modal: models.ModalMpesa, errors: models.FieldErrors{}}
}

// NewStandaloneForm returns the full page form, defaulting to an order payment
func NewStandaloneForm() *Form {
	return &Form{
		values: models.PaymentForm{PaymentType: models.PaymentTypeOrder},
		errors: models.FieldErrors{},
	}
}

// Modal returns the modal this form lives in, or "" for a standalone form
func (f *Form) Modal() models.ModalID {
	return f.modal
}

// Set updates one field by name and clears its error
func (f *Form) Set(field, value string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch field {
	case models.FieldPhoneNumber:
		f.values.PhoneNumber = value
	case models.FieldAmount:
		f.values.Amount = value
	case models.FieldPaymentType:
		f.values.PaymentType = models.PaymentType(value)
	case models.FieldOrderID:
		f.values.OrderID = value
	case models.FieldAppointmentID:
		f.values.AppointmentID = value
	default:
		return false
	}
	delete(f.errors, field)
	return true
}

// SetValues replaces every field and clears all errors
func (f *Form) SetValues(v models.PaymentForm) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values = v
	f.errors = models.FieldErrors{}
}

// Values returns the current field values
func (f *Form) Values() models.PaymentForm {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values
}

// Errors returns a copy of the current field errors
func (f *Form) Errors() models.FieldErrors {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make(models.FieldErrors, len(f.errors))
	for k, v := range f.errors {
		out[k] = v
	}
	return out
}

// Reset empties every field; a standalone form keeps its payment type
func (f *Form) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()

	pt := f.values.PaymentType
	f.values = models.PaymentForm{}
	if f.modal == "" {
		f.values.PaymentType = pt
	}
	f.errors = models.FieldErrors{}
}

// validate checks the form and records the field errors on it. When values is
// non-nil it replaces the fields first, under the same lock, so the request
// built is always the one just submitted.
func (f *Form) validate(values *models.PaymentForm) (models.PaymentRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if values != nil {
		f.values = *values
	}
	req, err := ValidateForm(f.values)
	f.errors = models.FieldErrors{}
	if fe, ok := err.(models.FieldErrors); ok {
		for k, v := range fe {
			f.errors[k] = v
		}
	}
	return req, err
}
