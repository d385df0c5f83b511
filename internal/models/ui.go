package models

import "time"

// NotificationKind constants
type NotificationKind string

const (
	NotificationSuccess NotificationKind = "success"
	NotificationError   NotificationKind = "error"
	NotificationWarning NotificationKind = "warning"
	NotificationInfo    NotificationKind = "info"
)

// ModalID identifies a modal dialog
type ModalID string

const (
	ModalMpesa   ModalID = "mpesa"
	ModalConfirm ModalID = "confirm"
	ModalGeneric ModalID = "generic"
)

// DefaultSpinnerMessage is shown when ShowSpinner gets an empty message
const DefaultSpinnerMessage = "Loading..."

// DefaultNotificationDuration is the auto-dismiss delay when none is given
const DefaultNotificationDuration = 3000 * time.Millisecond

// Notice is a request to show a notification
type Notice struct {
	Kind     NotificationKind
	Title    string
	Message  string
	Duration time.Duration
}

// SpinnerState is the busy indicator
type SpinnerState struct {
	Active  bool   `json:"active"`
	Message string `json:"message"`
	Depth   int    `json:"depth"`
}

// NotificationState is the currently displayed notification
type NotificationState struct {
	ID            string           `json:"id,omitempty"`
	Visible       bool             `json:"visible"`
	Kind          NotificationKind `json:"kind"`
	Title         string           `json:"title"`
	Message       string           `json:"message"`
	AutoDismissMs int64            `json:"auto_dismiss_ms"`
}

// UIState is a snapshot of the process-wide UI signaling state
type UIState struct {
	Spinner       SpinnerState      `json:"spinner"`
	Notification  NotificationState `json:"notification"`
	ModalsOpen    []ModalID         `json:"modals_open"`
	FooterVisible bool              `json:"footer_visible"`
}
