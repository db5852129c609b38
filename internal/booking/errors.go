package booking

import (
	"errors"
	"fmt"
)

var (
	// ErrSlotTaken is returned when an active appointment already holds the slot.
	ErrSlotTaken = errors.New("booking: slot already taken")
	// ErrWrongStep is returned when a wizard operation is invoked out of order.
	ErrWrongStep = errors.New("booking: operation not allowed at current step")
	// ErrSessionNotFound is returned for unknown or expired wizard sessions.
	ErrSessionNotFound = errors.New("booking: wizard session not found")
)

// SlotTakenMessage is the patient-facing text for ErrSlotTaken.
const SlotTakenMessage = "Bu randevu saati maalesef doludur. Lütfen başka bir saat seçiniz."

// ValidationError reports a missing or out-of-range input field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("booking: invalid %s: %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
