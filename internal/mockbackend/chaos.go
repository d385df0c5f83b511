package mockbackend

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kollcibe05-creator/Vetty/internal/metrics"
	log "github.com/sirupsen/logrus"
)

const (
	defaultFailureRate = 0.4
	defaultSlowDelay   = 5 * time.Second
)

// SetFailureRate makes that fraction of API requests fail with 503 (0 disables)
func (b *Backend) SetFailureRate(rate float64) {
	b.chaosMutex.Lock()
	defer b.chaosMutex.Unlock()
	b.chaosFailureRate = rate

	enabled := 0.0
	if rate > 0 {
		enabled = 1
	}
	metrics.ChaosFailureRate.WithLabelValues(serviceName).Set(enabled)
}

// SetSlowDelay delays every API request by d (0 disables)
func (b *Backend) SetSlowDelay(d time.Duration) {
	b.chaosMutex.Lock()
	defer b.chaosMutex.Unlock()
	b.chaosSlowDelay = d

	enabled := 0.0
	if d > 0 {
		enabled = 1
	}
	metrics.ChaosSlowMode.WithLabelValues(serviceName).Set(enabled)
}

func (b *Backend) failureRate() float64 {
	b.chaosMutex.RLock()
	defer b.chaosMutex.RUnlock()
	return b.chaosFailureRate
}

func (b *Backend) slowDelay() time.Duration {
	b.chaosMutex.RLock()
	defer b.chaosMutex.RUnlock()
	return b.chaosSlowDelay
}

type chaosRequest struct {
	FailureRate *float64 `json:"failure_rate"`
	DelayMs     *int64   `json:"delay_ms"`
}

func (b *Backend) chaosStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":       serviceName,
		"failure_rate":  b.failureRate(),
		"slow_delay_ms": b.slowDelay().Milliseconds(),
		"timestamp":     time.Now().Format(time.RFC3339),
	})
}

func (b *Backend) enableChaos(c *gin.Context) {
	rate := defaultFailureRate
	var req chaosRequest
	if err := c.ShouldBindJSON(&req); err == nil && req.FailureRate != nil {
		rate = *req.FailureRate
	}
	if rate < 0 || rate > 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failure_rate must be between 0 and 1"})
		return
	}
	b.SetFailureRate(rate)

	log.WithField("failure_rate", rate).Info("Chaos mode ENABLED for mock backend")
	c.JSON(http.StatusOK, gin.H{
		"message":      "Chaos mode enabled",
		"failure_rate": rate,
	})
}

func (b *Backend) disableChaos(c *gin.Context) {
	b.SetFailureRate(0)
	b.SetSlowDelay(0)

	log.Info("Chaos mode DISABLED for mock backend")
	c.JSON(http.StatusOK, gin.H{"message": "Chaos mode disabled"})
}

func (b *Backend) enableSlowMode(c *gin.Context) {
	delay := defaultSlowDelay
	var req chaosRequest
	if err := c.ShouldBindJSON(&req); err == nil && req.DelayMs != nil && *req.DelayMs > 0 {
		delay = time.Duration(*req.DelayMs) * time.Millisecond
	}
	b.SetSlowDelay(delay)

	log.WithField("delay_ms", delay.Milliseconds()).Info("Slow mode ENABLED for mock backend")
	c.JSON(http.StatusOK, gin.H{
		"message":  "Slow mode enabled",
		"delay_ms": delay.Milliseconds(),
	})
}

func (b *Backend) disableSlowMode(c *gin.Context) {
	b.SetSlowDelay(0)

	log.Info("Slow mode DISABLED for mock backend")
	c.JSON(http.StatusOK, gin.H{"message": "Slow mode disabled"})
}
