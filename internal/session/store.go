package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/saviobatista/flight-recorder/internal/logging"
	"github.com/saviobatista/flight-recorder/internal/stats"
	"github.com/saviobatista/flight-recorder/internal/types"
)

const (
	// DefaultKey is the durable record key of the active session
	DefaultKey = "flight-session:active"
	// DefaultSaveInterval is the checkpoint period
	DefaultSaveInterval = 30 * time.Second
	// DefaultStalenessWindow is how old a checkpoint may be and still be offered for recovery
	DefaultStalenessWindow = 4 * time.Hour

	backingTimeout = 5 * time.Second
)

// Backing is the durable key-value store sessions are checkpointed to.
// Get returns nil data and a nil error when the key is absent.
type Backing interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Options configures a Store. Zero values select the defaults.
type Options struct {
	Key             string
	SaveInterval    time.Duration
	StalenessWindow time.Duration
	Logger          *zap.SugaredLogger
	Stats           *stats.Stats
	Now             func() time.Time
	NewID           func() string
}

// Store owns the single active flight session and its durability
type Store struct {
	backing         Backing
	key             string
	saveInterval    time.Duration
	stalenessWindow time.Duration
	logger          *zap.SugaredLogger
	stats           *stats.Stats
	now             func() time.Time
	newID           func() string

	// mu guards session, and is held across a checkpoint write so updates
	// and saves never interleave
	mu      sync.Mutex
	session *types.FlightSession

	timerMu  sync.Mutex
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// New creates a Store over backing and loads any recoverable session from it
func New(backing Backing, opts Options) *Store {
	s := &Store{
		backing:         backing,
		key:             opts.Key,
		saveInterval:    opts.SaveInterval,
		stalenessWindow: opts.StalenessWindow,
		logger:          logging.OrNop(opts.Logger),
		stats:           opts.Stats,
		now:             opts.Now,
		newID:           opts.NewID,
	}
	if s.key == "" {
		s.key = DefaultKey
	}
	if s.saveInterval <= 0 {
		s.saveInterval = DefaultSaveInterval
	}
	if s.stalenessWindow <= 0 {
		s.stalenessWindow = DefaultStalenessWindow
	}
	if s.stats == nil {
		s.stats = stats.New()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}

	s.load()
	return s
}

// Start begins a new session for wing, persists it and arms periodic saves.
// A session that is already active is replaced.
func (s *Store) Start(wing types.Wing, spotName *string) {
	now := s.now()
	session := &types.FlightSession{
		Version:        types.RecordVersion,
		SessionID:      s.newID(),
		WingID:         wing.ID,
		WingName:       wing.Name,
		WingSize:       wing.Size,
		StartDate:      now,
		MaxGForce:      types.RestingGForce,
		GPSTrackPoints: []types.TrackPoint{},
		IsActive:       true,
	}
	if spotName != nil {
		spot := *spotName
		session.SpotName = &spot
	}

	s.mu.Lock()
	if s.session != nil {
		s.logger.Warnw("Replacing active flight session",
			"previous_session_id", s.session.SessionID,
			"session_id", session.SessionID)
	}
	s.session = session
	s.mu.Unlock()

	s.stats.IncrementStartedSessions()
	s.logger.Infow("Flight session started",
		"session_id", session.SessionID,
		"wing_id", wing.ID,
		"spot_name", spotName)

	s.Save()
	s.StartPeriodicSave()
}

// Update replaces the session telemetry with t. Running maxima are the
// caller's responsibility; the track is compacted to MaxTrackPoints.
// Without an active session the call is ignored.
func (s *Store) Update(t types.Telemetry) {
	track, compacted := CompactTrack(t.GPSTrackPoints)
	if track == nil {
		track = []types.TrackPoint{}
	}

	gForce := t.MaxGForce
	if gForce < types.RestingGForce {
		gForce = types.RestingGForce
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return
	}

	s.session.StartAltitude = copyFloat(t.StartAltitude)
	s.session.MaxAltitude = copyFloat(t.MaxAltitude)
	s.session.CurrentAltitude = copyFloat(t.CurrentAltitude)
	s.session.TotalDistance = t.TotalDistance
	s.session.MaxSpeed = t.MaxSpeed
	s.session.MaxGForce = gForce
	s.session.GPSTrackPoints = track

	s.stats.IncrementUpdates()
	if compacted {
		s.stats.IncrementCompactions()
		s.logger.Debugw("Compacted GPS track",
			"session_id", s.session.SessionID,
			"received", len(t.GPSTrackPoints),
			"kept", len(track))
	}
}

// Save checkpoints the active session to the backing. Failures are logged
// and the next periodic save tries again. Without an active session the
// call is ignored.
func (s *Store) Save() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return
	}

	now := s.now()
	record := *s.session
	record.LastSaveDate = now

	data, err := json.Marshal(&record)
	if err != nil {
		s.stats.IncrementFailedSaves()
		s.logger.Errorw("Failed to encode flight session",
			"session_id", record.SessionID,
			"error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), backingTimeout)
	defer cancel()

	if err := s.backing.Set(ctx, s.key, data); err != nil {
		s.stats.IncrementFailedSaves()
		s.logger.Errorw("Failed to save flight session",
			"session_id", record.SessionID,
			"error", err)
		return
	}

	s.session.LastSaveDate = now
	s.stats.RecordSave(now)
}

// StartPeriodicSave arms the checkpoint timer, replacing any running one
func (s *Store) StartPeriodicSave() {
	s.timerMu.Lock()
	defer s.timerMu.Unlock()

	s.stopPeriodicSaveLocked()

	stop := make(chan struct{})
	s.stopChan = stop
	s.wg.Add(1)
	go s.saveLoop(stop)
}

// StopPeriodicSave disarms the checkpoint timer. When it returns no further
// timer-driven save will run. Calling it while disarmed does nothing.
func (s *Store) StopPeriodicSave() {
	s.timerMu.Lock()
	defer s.timerMu.Unlock()

	s.stopPeriodicSaveLocked()
}

func (s *Store) stopPeriodicSaveLocked() {
	if s.stopChan == nil {
		return
	}
	close(s.stopChan)
	s.stopChan = nil
	s.wg.Wait()
}

func (s *Store) periodicSaveArmed() bool {
	s.timerMu.Lock()
	defer s.timerMu.Unlock()
	return s.stopChan != nil
}

// saveLoop runs Save on every tick until stop is closed
func (s *Store) saveLoop(stop <-chan struct{}) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.saveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.Save()
		}
	}
}

// EndSession closes a flight that was handed off to the finishing flow
func (s *Store) EndSession() {
	if id, ok := s.clear(); ok {
		s.stats.IncrementEndedSessions()
		s.logger.Infow("Flight session ended", "session_id", id)
	}
}

// DiscardSession drops a flight the pilot cancelled
func (s *Store) DiscardSession() {
	if id, ok := s.clear(); ok {
		s.stats.IncrementDiscardedSessions()
		s.logger.Infow("Flight session discarded", "session_id", id)
	}
}

// ResumeSession re-arms periodic saves for a session recovered at startup.
// It reports whether there was a session to resume.
func (s *Store) ResumeSession() bool {
	s.mu.Lock()
	session := s.session
	s.mu.Unlock()

	if session == nil {
		return false
	}

	s.logger.Infow("Flight session resumed", "session_id", session.SessionID)
	s.StartPeriodicSave()
	return true
}

// Close stops the checkpoint timer. The durable record is kept so the
// session can be recovered on the next start.
func (s *Store) Close() {
	s.StopPeriodicSave()
}

// Shutdown stops the checkpoint timer and, when it was armed, takes a final
// checkpoint. A recovered session still awaiting resume, end or discard is
// not saved, so its age keeps counting from its last real checkpoint.
func (s *Store) Shutdown() {
	s.timerMu.Lock()
	armed := s.stopChan != nil
	s.stopPeriodicSaveLocked()
	s.timerMu.Unlock()

	if armed {
		s.Save()
	}
}

// clear disarms the timer, deletes the durable record and drops the
// in-memory session. It returns the cleared session id, if any.
func (s *Store) clear() (string, bool) {
	s.StopPeriodicSave()

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), backingTimeout)
	defer cancel()

	s.deleteRecord(ctx)

	if s.session == nil {
		return "", false
	}
	id := s.session.SessionID
	s.session = nil
	return id, true
}

func (s *Store) deleteRecord(ctx context.Context) {
	if err := s.backing.Delete(ctx, s.key); err != nil {
		s.logger.Errorw("Failed to delete flight session record",
			"key", s.key,
			"error", err)
	}
}

// HasRecoverableSession reports whether a session is held in memory
func (s *Store) HasRecoverableSession() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session != nil
}

// RecoveredFlightDuration returns the whole seconds elapsed since the session started
func (s *Store) RecoveredFlightDuration() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return 0, false
	}
	return int(s.now().Sub(s.session.StartDate) / time.Second), true
}

// RecoveredFlightData projects the session into the fields of a finished flight
func (s *Store) RecoveredFlightData() (*types.RecoveredFlight, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return nil, false
	}

	session := s.session.Clone()
	return &types.RecoveredFlight{
		SessionID:       session.SessionID,
		WingID:          session.WingID,
		WingName:        session.WingName,
		StartDate:       session.StartDate,
		EndDate:         s.now(),
		SpotName:        session.SpotName,
		StartAltitude:   session.StartAltitude,
		MaxAltitude:     session.MaxAltitude,
		CurrentAltitude: session.CurrentAltitude,
		TotalDistance:   session.TotalDistance,
		MaxSpeed:        session.MaxSpeed,
		MaxGForce:       session.MaxGForce,
		GPSTrackPoints:  session.GPSTrackPoints,
	}, true
}

// Snapshot returns a copy of the session held in memory
func (s *Store) Snapshot() (*types.FlightSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return nil, false
	}
	return s.session.Clone(), true
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
