package stats

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/saviobatista/flight-recorder/internal/logging"
)

// Sink persists statistics snapshots
type Sink interface {
	StoreRecorderStats(stats map[string]interface{}) error
}

// Stats tracks session store activity
type Stats struct {
	// Session lifecycle counts
	StartedSessions   uint64
	EndedSessions     uint64
	DiscardedSessions uint64

	// Telemetry and checkpoints
	Updates     uint64
	Compactions uint64
	Saves       uint64
	FailedSaves uint64

	// Cold-start outcomes
	RecoveredSessions uint64
	ExpiredSessions   uint64
	CorruptRecords    uint64

	// Command bus
	Commands       uint64
	FailedCommands uint64

	// Timing
	StartTime    time.Time
	LastSaveTime time.Time

	sink Sink

	mu sync.RWMutex
}

// New creates a new Stats instance
func New() *Stats {
	return &Stats{
		StartTime: time.Now(),
	}
}

// SetSink sets the destination used by Persist
func (s *Stats) SetSink(sink Sink) {
	s.mu.Lock()
	s.sink = sink
	s.mu.Unlock()
}

// Persist stores the current statistics in the sink
func (s *Stats) Persist() error {
	s.mu.RLock()
	sink := s.sink
	s.mu.RUnlock()

	if sink == nil {
		return fmt.Errorf("stats sink not set")
	}

	return sink.StoreRecorderStats(s.GetStats())
}

// IncrementStartedSessions increments the started sessions counter
func (s *Stats) IncrementStartedSessions() {
	atomic.AddUint64(&s.StartedSessions, 1)
}

// IncrementEndedSessions increments the ended sessions counter
func (s *Stats) IncrementEndedSessions() {
	atomic.AddUint64(&s.EndedSessions, 1)
}

// IncrementDiscardedSessions increments the discarded sessions counter
func (s *Stats) IncrementDiscardedSessions() {
	atomic.AddUint64(&s.DiscardedSessions, 1)
}

// IncrementUpdates increments the telemetry updates counter
func (s *Stats) IncrementUpdates() {
	atomic.AddUint64(&s.Updates, 1)
}

// IncrementCompactions increments the track compactions counter
func (s *Stats) IncrementCompactions() {
	atomic.AddUint64(&s.Compactions, 1)
}

// RecordSave increments the saves counter and records the save time
func (s *Stats) RecordSave(at time.Time) {
	atomic.AddUint64(&s.Saves, 1)
	s.mu.Lock()
	s.LastSaveTime = at
	s.mu.Unlock()
}

// IncrementFailedSaves increments the failed saves counter
func (s *Stats) IncrementFailedSaves() {
	atomic.AddUint64(&s.FailedSaves, 1)
}

// IncrementRecoveredSessions increments the recovered sessions counter
func (s *Stats) IncrementRecoveredSessions() {
	atomic.AddUint64(&s.RecoveredSessions, 1)
}

// IncrementExpiredSessions increments the expired sessions counter
func (s *Stats) IncrementExpiredSessions() {
	atomic.AddUint64(&s.ExpiredSessions, 1)
}

// IncrementCorruptRecords increments the corrupt records counter
func (s *Stats) IncrementCorruptRecords() {
	atomic.AddUint64(&s.CorruptRecords, 1)
}

// IncrementCommands increments the processed commands counter
func (s *Stats) IncrementCommands() {
	atomic.AddUint64(&s.Commands, 1)
}

// IncrementFailedCommands increments the failed commands counter
func (s *Stats) IncrementFailedCommands() {
	atomic.AddUint64(&s.FailedCommands, 1)
}

// GetStats returns a copy of the current statistics
func (s *Stats) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]interface{}{
		"started_sessions":   atomic.LoadUint64(&s.StartedSessions),
		"ended_sessions":     atomic.LoadUint64(&s.EndedSessions),
		"discarded_sessions": atomic.LoadUint64(&s.DiscardedSessions),
		"updates":            atomic.LoadUint64(&s.Updates),
		"compactions":        atomic.LoadUint64(&s.Compactions),
		"saves":              atomic.LoadUint64(&s.Saves),
		"failed_saves":       atomic.LoadUint64(&s.FailedSaves),
		"recovered_sessions": atomic.LoadUint64(&s.RecoveredSessions),
		"expired_sessions":   atomic.LoadUint64(&s.ExpiredSessions),
		"corrupt_records":    atomic.LoadUint64(&s.CorruptRecords),
		"commands":           atomic.LoadUint64(&s.Commands),
		"failed_commands":    atomic.LoadUint64(&s.FailedCommands),
		"last_save_time":     s.LastSaveTime,
		"uptime":             time.Since(s.StartTime),
	}
}

// String returns a string representation of the statistics
func (s *Stats) String() string {
	stats := s.GetStats()
	return fmt.Sprintf(
		"Started Sessions: %d\n"+
			"Ended Sessions: %d\n"+
			"Discarded Sessions: %d\n"+
			"Updates: %d\n"+
			"Compactions: %d\n"+
			"Saves: %d\n"+
			"Failed Saves: %d\n"+
			"Recovered Sessions: %d\n"+
			"Expired Sessions: %d\n"+
			"Corrupt Records: %d\n"+
			"Commands: %d\n"+
			"Failed Commands: %d\n"+
			"Uptime: %s",
		stats["started_sessions"],
		stats["ended_sessions"],
		stats["discarded_sessions"],
		stats["updates"],
		stats["compactions"],
		stats["saves"],
		stats["failed_saves"],
		stats["recovered_sessions"],
		stats["expired_sessions"],
		stats["corrupt_records"],
		stats["commands"],
		stats["failed_commands"],
		stats["uptime"],
	)
}

// StartPersistence starts periodic persistence of statistics
func (s *Stats) StartPersistence(ctx context.Context, interval time.Duration, logger *zap.SugaredLogger) {
	logger = logging.OrNop(logger)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Final persistence before shutdown
			if err := s.Persist(); err != nil {
				logger.Warnw("Failed to persist final statistics", "error", err)
			}
			return
		case <-ticker.C:
			if err := s.Persist(); err != nil {
				logger.Warnw("Failed to persist statistics", "error", err)
			}
		}
	}
}
