package uistate

import (
	"testing"
	"time"

	"github.com/kollcibe05-creator/Vetty/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestSpinner(t *testing.T) {
	t.Run("inactive by default", func(t *testing.T) {
		b := New()
		assert.Equal(t, models.SpinnerState{}, b.Spinner())
	})

	t.Run("empty message falls back to default", func(t *testing.T) {
		b := New()
		b.ShowSpinner("")
		assert.Equal(t, models.DefaultSpinnerMessage, b.Spinner().Message)
	})

	t.Run("fast operation does not clear a slower one", func(t *testing.T) {
		b := New()
		slow := b.ShowSpinner("Loading cart...")
		fast := b.ShowSpinner("Removing item...")

		b.HideSpinner(fast)
		s := b.Spinner()
		assert.True(t, s.Active)
		assert.Equal(t, "Loading cart...", s.Message)
		assert.Equal(t, 1, s.Depth)

		b.HideSpinner(slow)
		assert.False(t, b.Spinner().Active)
		assert.Empty(t, b.Spinner().Message)
	})

	t.Run("releasing the older entry keeps the newest message", func(t *testing.T) {
		b := New()
		first := b.ShowSpinner("first")
		b.ShowSpinner("second")

		b.HideSpinner(first)
		assert.Equal(t, "second", b.Spinner().Message)
	})

	t.Run("double release is a no-op", func(t *testing.T) {
		b := New()
		a := b.ShowSpinner("a")
		b.ShowSpinner("b")

		b.HideSpinner(a)
		b.HideSpinner(a)
		assert.Equal(t, 1, b.Spinner().Depth)
	})

	t.Run("tokens from before a reset do not release new entries", func(t *testing.T) {
		b := New()
		old := b.ShowSpinner("old")
		b.Reset()
		b.ShowSpinner("new")

		b.HideSpinner(old)
		assert.True(t, b.Spinner().Active)
	})
}

func TestNotification(t *testing.T) {
	t.Run("defaults kind and duration", func(t *testing.T) {
		b := New()
		defer b.Close()

		b.ShowNotification(models.Notice{Title: "Hi", Message: "there"})
		n := b.Notification()
		assert.True(t, n.Visible)
		assert.Equal(t, models.NotificationInfo, n.Kind)
		assert.Equal(t, int64(3000), n.AutoDismissMs)
	})

	t.Run("explicit duration is kept", func(t *testing.T) {
		b := New()
		defer b.Close()

		b.ShowNotification(models.Notice{Kind: models.NotificationError, Duration: 5 * time.Second})
		assert.Equal(t, int64(5000), b.Notification().AutoDismissMs)
		assert.Equal(t, models.NotificationError, b.Notification().Kind)
	})

	t.Run("auto dismisses after its duration", func(t *testing.T) {
		b := New()
		defer b.Close()

		b.ShowNotification(models.Notice{Title: "Saved", Duration: 10 * time.Millisecond})
		require.True(t, b.Notification().Visible)
		assert.Eventually(t, func() bool { return !b.Notification().Visible }, time.Second, 5*time.Millisecond)
	})

	t.Run("replaced notification is not dismissed by the old timer", func(t *testing.T) {
		b := New()
		defer b.Close()

		b.ShowNotification(models.Notice{Title: "first", Duration: 10 * time.Millisecond})
		id := b.ShowNotification(models.Notice{Title: "second", Duration: time.Hour})

		time.Sleep(30 * time.Millisecond)
		n := b.Notification()
		assert.True(t, n.Visible)
		assert.Equal(t, id, n.ID)
		assert.Equal(t, "second", n.Title)
	})

	t.Run("hide", func(t *testing.T) {
		b := New()
		b.ShowNotification(models.Notice{Title: "x"})
		b.HideNotification()
		assert.False(t, b.Notification().Visible)
	})
}

func TestModalsFooterAndReset(t *testing.T) {
	b := New(WithDefaultDuration(time.Minute))
	defer b.Close()

	b.OpenModal(models.ModalMpesa)
	b.OpenModal(models.ModalConfirm)
	assert.True(t, b.ModalOpen(models.ModalMpesa))

	b.CloseModal(models.ModalMpesa)
	assert.False(t, b.ModalOpen(models.ModalMpesa))
	assert.Equal(t, []models.ModalID{models.ModalConfirm}, b.Snapshot().ModalsOpen)

	b.OpenModal(models.ModalGeneric)
	b.CloseAllModals()
	assert.Empty(t, b.Snapshot().ModalsOpen)

	b.SetFooterVisible(false)
	b.ShowSpinner("busy")
	b.ShowNotification(models.Notice{Title: "x"})
	b.OpenModal(models.ModalMpesa)
	assert.Equal(t, int64(60000), b.Notification().AutoDismissMs)

	b.Reset()
	s := b.Snapshot()
	assert.False(t, s.Spinner.Active)
	assert.False(t, s.Notification.Visible)
	assert.Empty(t, s.ModalsOpen)
	assert.True(t, s.FooterVisible)
}
