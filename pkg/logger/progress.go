package logger

import (
	"sync"
	"time"
)

// ProgressTracker logs progress of long-running batch operations at a
// bounded rate so large batches do not flood the log.
type ProgressTracker struct {
	logger      Logger
	operation   string
	total       int64
	current     int64
	failed      int64
	startTime   time.Time
	lastLogTime time.Time
	logInterval time.Duration
	mutex       sync.Mutex
}

// ProgressConfig configures progress tracking behavior
type ProgressConfig struct {
	Operation   string        `json:"operation"`
	Total       int64         `json:"total"`
	LogInterval time.Duration `json:"log_interval"`
	Logger      Logger        `json:"-"`
}

// NewProgressTracker creates a new progress tracker
func NewProgressTracker(config ProgressConfig) *ProgressTracker {
	if config.Logger == nil {
		config.Logger = GetGlobalLogger()
	}
	if config.LogInterval == 0 {
		config.LogInterval = 5 * time.Second
	}

	tracker := &ProgressTracker{
		logger:      config.Logger.WithComponent("progress"),
		operation:   config.Operation,
		total:       config.Total,
		startTime:   time.Now(),
		lastLogTime: time.Now(),
		logInterval: config.LogInterval,
	}

	tracker.logger.WithFields(Fields{
		"operation": config.Operation,
		"total":     config.Total,
	}).Info("Starting operation")

	return tracker
}

// Increment increments the completed counter by 1
func (p *ProgressTracker) Increment() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.current++
	p.maybeLog()
}

// IncrementFailed increments the failure counter by 1. Failures also count
// toward completion.
func (p *ProgressTracker) IncrementFailed() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.current++
	p.failed++
	p.maybeLog()
}

// Completed returns the number of completed items
func (p *ProgressTracker) Completed() int64 {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.current
}

// Finish logs the final state of the operation
func (p *ProgressTracker) Finish() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	elapsed := time.Since(p.startTime)
	p.logger.WithFields(Fields{
		"operation": p.operation,
		"completed": p.current,
		"failed":    p.failed,
		"total":     p.total,
		"elapsed":   elapsed,
	}).Info("Operation completed")
}

// maybeLog logs progress if the log interval has elapsed. Callers must
// hold the mutex.
func (p *ProgressTracker) maybeLog() {
	now := time.Now()
	if now.Sub(p.lastLogTime) < p.logInterval {
		return
	}
	p.lastLogTime = now

	elapsed := now.Sub(p.startTime)
	fields := Fields{
		"operation": p.operation,
		"completed": p.current,
		"failed":    p.failed,
		"total":     p.total,
		"elapsed":   elapsed,
	}

	if p.total > 0 {
		percent := float64(p.current) / float64(p.total) * 100
		fields["percent"] = percent

		if p.current > 0 && p.current < p.total {
			perItem := elapsed / time.Duration(p.current)
			fields["estimated_remaining"] = perItem * time.Duration(p.total-p.current)
		}
	}

	p.logger.WithFields(fields).Info("Operation progress")
}
