package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/saviobatista/flight-recorder/internal/types"
)

// load adopts the durable record as the recoverable session when it is
// active and younger than the staleness window. Undecodable, expired and
// future-dated records are deleted. The checkpoint timer is left disarmed.
func (s *Store) load() {
	ctx, cancel := context.WithTimeout(context.Background(), backingTimeout)
	defer cancel()

	data, err := s.backing.Get(ctx, s.key)
	if err != nil {
		// The record may be fine; only a failed decode justifies deleting it
		s.logger.Errorw("Failed to read flight session record",
			"key", s.key,
			"error", err)
		return
	}
	if data == nil {
		return
	}

	session, err := decodeSession(data)
	if err != nil {
		s.stats.IncrementCorruptRecords()
		s.logger.Errorw("Discarding undecodable flight session record",
			"key", s.key,
			"error", err)
		s.deleteRecord(ctx)
		return
	}

	// A checkpoint from the future means the clock moved; its age is unknown
	age := s.now().Sub(session.LastSaveDate)
	if !session.IsActive || age < 0 || age >= s.stalenessWindow {
		s.stats.IncrementExpiredSessions()
		s.logger.Infow("Discarding expired flight session",
			"session_id", session.SessionID,
			"is_active", session.IsActive,
			"age", age.String())
		s.deleteRecord(ctx)
		return
	}

	s.mu.Lock()
	s.session = session
	s.mu.Unlock()

	s.stats.IncrementRecoveredSessions()
	s.logger.Infow("Recovered flight session",
		"session_id", session.SessionID,
		"wing_id", session.WingID,
		"age", age.String(),
		"track_points", len(session.GPSTrackPoints))
}

// decodeSession parses a durable record and restores the session invariants
func decodeSession(data []byte) (*types.FlightSession, error) {
	var session types.FlightSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal flight session: %w", err)
	}
	if session.Version > types.RecordVersion {
		return nil, fmt.Errorf("unsupported flight session version %d", session.Version)
	}

	session.GPSTrackPoints, _ = CompactTrack(session.GPSTrackPoints)
	if session.GPSTrackPoints == nil {
		session.GPSTrackPoints = []types.TrackPoint{}
	}
	if session.MaxGForce < types.RestingGForce {
		session.MaxGForce = types.RestingGForce
	}
	return &session, nil
}
