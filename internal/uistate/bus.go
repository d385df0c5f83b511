// Package uistate holds the process-wide spinner, notification and modal state
// that any in-flight operation may update.
package uistate

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kollcibe05-creator/Vetty/internal/metrics"
	"github.com/kollcibe05-creator/Vetty/internal/models"
	log "github.com/sirupsen/logrus"
)

type spinnerEntry struct {
	token   uint64
	message string
}

// Bus is safe for concurrent use. The spinner is reference counted: each
// ShowSpinner returns a token and only HideSpinner with that token releases it.
type Bus struct {
	mu sync.Mutex

	spinner   []spinnerEntry
	nextToken uint64

	notification    models.NotificationState
	dismiss         *time.Timer
	defaultDuration time.Duration

	modals        map[models.ModalID]bool
	footerVisible bool
}

// Option configures a Bus
type Option func(*Bus)

// WithDefaultDuration overrides the auto-dismiss delay used when a notice has none
func WithDefaultDuration(d time.Duration) Option {
	return func(b *Bus) {
		if d > 0 {
			b.defaultDuration = d
		}
	}
}

// New creates a bus in its reset state
func New(opts ...Option) *Bus {
	b := &Bus{
		defaultDuration: models.DefaultNotificationDuration,
		modals:          make(map[models.ModalID]bool),
		footerVisible:   true,
		notification:    models.NotificationState{Kind: models.NotificationInfo},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// ShowSpinner marks one more operation as busy and returns its release token
func (b *Bus) ShowSpinner(message string) uint64 {
	if message == "" {
		message = models.DefaultSpinnerMessage
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextToken++
	b.spinner = append(b.spinner, spinnerEntry{token: b.nextToken, message: message})
	metrics.SpinnerDepth.Set(float64(len(b.spinner)))
	return b.nextToken
}

// HideSpinner releases the entry held by token. Unknown or already released tokens are ignored.
func (b *Bus) HideSpinner(token uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, e := range b.spinner {
		if e.token == token {
			b.spinner = append(b.spinner[:i], b.spinner[i+1:]...)
			break
		}
	}
	metrics.SpinnerDepth.Set(float64(len(b.spinner)))
}

// Spinner returns the busy indicator; the message is the newest held entry's
func (b *Bus) Spinner() models.SpinnerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.spinnerLocked()
}

func (b *Bus) spinnerLocked() models.SpinnerState {
	if len(b.spinner) == 0 {
		return models.SpinnerState{}
	}
	return models.SpinnerState{
		Active:  true,
		Message: b.spinner[len(b.spinner)-1].message,
		Depth:   len(b.spinner),
	}
}

// ShowNotification replaces the current notification and schedules its dismissal.
// It returns the id of the notification shown.
func (b *Bus) ShowNotification(n models.Notice) string {
	kind := n.Kind
	if kind == "" {
		kind = models.NotificationInfo
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	duration := n.Duration
	if duration <= 0 {
		duration = b.defaultDuration
	}

	id := uuid.NewString()
	b.notification = models.NotificationState{
		ID:            id,
		Visible:       true,
		Kind:          kind,
		Title:         n.Title,
		Message:       n.Message,
		AutoDismissMs: duration.Milliseconds(),
	}

	if b.dismiss != nil {
		b.dismiss.Stop()
	}
	b.dismiss = time.AfterFunc(duration, func() { b.dismissIfCurrent(id) })

	metrics.NotificationsTotal.WithLabelValues(string(kind)).Inc()
	log.WithFields(log.Fields{
		"kind":    kind,
		"title":   n.Title,
		"message": n.Message,
	}).Debug("Notification shown")
	return id
}

func (b *Bus) dismissIfCurrent(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.notification.ID == id {
		b.notification.Visible = false
	}
}

// HideNotification hides the current notification
func (b *Bus) HideNotification() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hideNotificationLocked()
}

func (b *Bus) hideNotificationLocked() {
	if b.dismiss != nil {
		b.dismiss.Stop()
		b.dismiss = nil
	}
	b.notification.Visible = false
}

// Notification returns the current notification
func (b *Bus) Notification() models.NotificationState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.notification
}

// OpenModal marks a modal as open
func (b *Bus) OpenModal(id models.ModalID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.modals[id] = true
}

// CloseModal marks a modal as closed
func (b *Bus) CloseModal(id models.ModalID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.modals, id)
}

// CloseAllModals closes every modal
func (b *Bus) CloseAllModals() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.modals = make(map[models.ModalID]bool)
}

// ModalOpen reports whether id is open
func (b *Bus) ModalOpen(id models.ModalID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.modals[id]
}

// SetFooterVisible shows or hides the footer
func (b *Bus) SetFooterVisible(visible bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.footerVisible = visible
}

// Reset returns the bus to its initial state. Spinner tokens issued before
// the reset become no-ops.
func (b *Bus) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.spinner = nil
	metrics.SpinnerDepth.Set(0)
	b.hideNotificationLocked()
	b.modals = make(map[models.ModalID]bool)
	b.footerVisible = true
}

// Snapshot returns a copy of the whole UI state
func (b *Bus) Snapshot() models.UIState {
	b.mu.Lock()
	defer b.mu.Unlock()

	open := make([]models.ModalID, 0, len(b.modals))
	for id := range b.modals {
		open = append(open, id)
	}
	sort.Slice(open, func(i, j int) bool { return open[i] < open[j] })

	return models.UIState{
		Spinner:       b.spinnerLocked(),
		Notification:  b.notification,
		ModalsOpen:    open,
		FooterVisible: b.footerVisible,
	}
}

// Close stops the pending auto-dismiss timer
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.dismiss != nil {
		b.dismiss.Stop()
		b.dismiss = nil
	}
}
