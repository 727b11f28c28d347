package testutils

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/saviobatista/flight-recorder/internal/types"
)

// MockWing returns a wing fixture
func MockWing() types.Wing {
	return types.Wing{ID: "wing-rush6-m", Name: "Rush 6", Size: "M"}
}

// MockTrack returns n track points one second apart starting at start.
// Point i has latitude float64(i) so its original index is recoverable.
func MockTrack(n int, start time.Time) []types.TrackPoint {
	points := make([]types.TrackPoint, n)
	for i := range points {
		altitude := 1000 + float64(i)
		points[i] = types.TrackPoint{
			Timestamp: start.Add(time.Duration(i) * time.Second),
			Latitude:  float64(i),
			Longitude: 6.0 + float64(i)/1000,
			Altitude:  &altitude,
		}
	}
	return points
}

// Clock is a manually advanced time source
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a Clock reading start
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

// Now returns the current fake time
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// MemoryBacking is an in-memory key-value backing with error injection
type MemoryBacking struct {
	mu      sync.Mutex
	data    map[string][]byte
	sets    int
	deletes int
	setErr  error
	getErr  error
	delErr  error
}

// NewMemoryBacking creates an empty MemoryBacking
func NewMemoryBacking() *MemoryBacking {
	return &MemoryBacking{data: make(map[string][]byte)}
}

// Get returns the stored value, or nil when key is absent
func (m *MemoryBacking) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

// Set stores a copy of value under key
func (m *MemoryBacking) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = append([]byte(nil), value...)
	m.sets++
	return nil
}

// Delete removes key
func (m *MemoryBacking) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.delErr != nil {
		return m.delErr
	}
	delete(m.data, key)
	m.deletes++
	return nil
}

// FailSets makes subsequent Set calls return err; nil restores success
func (m *MemoryBacking) FailSets(err error) {
	m.mu.Lock()
	m.setErr = err
	m.mu.Unlock()
}

// FailGets makes subsequent Get calls return err; nil restores success
func (m *MemoryBacking) FailGets(err error) {
	m.mu.Lock()
	m.getErr = err
	m.mu.Unlock()
}

// FailDeletes makes subsequent Delete calls return err; nil restores success
func (m *MemoryBacking) FailDeletes(err error) {
	m.mu.Lock()
	m.delErr = err
	m.mu.Unlock()
}

// Put stores raw bytes without counting a Set, for seeding fixtures
func (m *MemoryBacking) Put(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
}

// Has reports whether key is present
func (m *MemoryBacking) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok
}

// Sets returns the number of successful Set calls
func (m *MemoryBacking) Sets() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sets
}

// Deletes returns the number of successful Delete calls
func (m *MemoryBacking) Deletes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deletes
}

// WaitForCondition waits for a condition to be true with timeout
func WaitForCondition(condition func() bool, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for condition")
		case <-ticker.C:
			if condition() {
				return nil
			}
		}
	}
}
