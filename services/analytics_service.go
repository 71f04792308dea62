// services/analytics_service.go
package services

import (
	"sync"
	"time"

	"windowquote-backend/models"
	"windowquote-backend/repository"

	"go.uber.org/zap"
)

// EventRecorder accepts analytics events. Recording is best-effort and
// never fails the caller.
type EventRecorder interface {
	Record(event models.AnalyticsEvent)
}

// AnalyticsService buffers events and flushes them to the store in batches,
// on a timer or when the buffer reaches the configured size.
type AnalyticsService struct {
	log      *zap.Logger
	store    *repository.Store
	size     int
	interval time.Duration

	mu      sync.Mutex
	entries []models.AnalyticsEvent
	ticker  *time.Ticker
	quit    chan struct{}
}

func NewAnalyticsService(store *repository.Store, size int, interval time.Duration, log *zap.Logger) *AnalyticsService {
	if size <= 0 {
		size = 20
	}
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &AnalyticsService{
		log:      log,
		store:    store,
		size:     size,
		interval: interval,
		ticker:   time.NewTicker(interval),
		quit:     make(chan struct{}),
	}
}

// Record buffers one event. It never returns an error; a full buffer
// triggers an async flush and flush failures are logged and dropped.
func (s *AnalyticsService) Record(event models.AnalyticsEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	s.mu.Lock()
	s.entries = append(s.entries, event)
	trigger := len(s.entries) >= s.size
	s.mu.Unlock()
	if trigger {
		go s.flush()
	}
}

// Start runs the periodic flush loop until Stop is called.
func (s *AnalyticsService) Start() {
	for {
		select {
		case <-s.ticker.C:
			s.flush()
		case <-s.quit:
			s.flush()
			s.ticker.Stop()
			return
		}
	}
}

// Stop flushes remaining events and shuts the loop down.
func (s *AnalyticsService) Stop() {
	close(s.quit)
}

func (s *AnalyticsService) flush() {
	s.mu.Lock()
	if len(s.entries) == 0 {
		s.mu.Unlock()
		return
	}
	batch := s.entries
	s.entries = nil
	s.mu.Unlock()

	if err := s.store.BulkInsertEvents(batch); err != nil {
		// analytics must never block or fail a caller; drop the batch
		s.log.Warn("analytics flush failed, dropping batch",
			zap.Int("size", len(batch)), zap.Error(err))
		return
	}
	s.log.Debug("analytics batch written", zap.Int("size", len(batch)))
}
