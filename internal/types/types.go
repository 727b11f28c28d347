package types

import (
	"time"
)

// RecordVersion is the schema version written with every persisted session
const RecordVersion = 1

// RestingGForce is the baseline g-force of a pilot at rest
const RestingGForce = 1.0

// Wing identifies the equipment flown during a session
type Wing struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Size string `json:"size,omitempty"`
}

// TrackPoint is a single GPS sample of the flight track
type TrackPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Altitude  *float64  `json:"altitude,omitempty"`
}

// Telemetry is the aggregate flight state pushed by the telemetry source.
// Running maxima are computed by the caller.
type Telemetry struct {
	StartAltitude   *float64     `json:"start_altitude,omitempty"`
	MaxAltitude     *float64     `json:"max_altitude,omitempty"`
	CurrentAltitude *float64     `json:"current_altitude,omitempty"`
	TotalDistance   float64      `json:"total_distance"`
	MaxSpeed        float64      `json:"max_speed"`
	MaxGForce       float64      `json:"max_g_force"`
	GPSTrackPoints  []TrackPoint `json:"gps_track_points"`
}

// FlightSession is the in-progress flight persisted by the session store
type FlightSession struct {
	Version         int          `json:"version"`
	SessionID       string       `json:"session_id"`
	WingID          string       `json:"wing_id"`
	WingName        string       `json:"wing_name"`
	WingSize        string       `json:"wing_size,omitempty"`
	StartDate       time.Time    `json:"start_date"`
	SpotName        *string      `json:"spot_name,omitempty"`
	StartAltitude   *float64     `json:"start_altitude,omitempty"`
	MaxAltitude     *float64     `json:"max_altitude,omitempty"`
	CurrentAltitude *float64     `json:"current_altitude,omitempty"`
	TotalDistance   float64      `json:"total_distance"`
	MaxSpeed        float64      `json:"max_speed"`
	MaxGForce       float64      `json:"max_g_force"`
	GPSTrackPoints  []TrackPoint `json:"gps_track_points"`
	LastSaveDate    time.Time    `json:"last_save_date"`
	IsActive        bool         `json:"is_active"`
}

// Clone returns a deep copy of the session
func (s *FlightSession) Clone() *FlightSession {
	if s == nil {
		return nil
	}
	dup := *s
	dup.SpotName = cloneString(s.SpotName)
	dup.StartAltitude = cloneFloat(s.StartAltitude)
	dup.MaxAltitude = cloneFloat(s.MaxAltitude)
	dup.CurrentAltitude = cloneFloat(s.CurrentAltitude)
	dup.GPSTrackPoints = CloneTrack(s.GPSTrackPoints)
	return &dup
}

// RecoveredFlight is the projection of a session needed to build a finished flight record
type RecoveredFlight struct {
	SessionID       string       `json:"session_id"`
	WingID          string       `json:"wing_id"`
	WingName        string       `json:"wing_name"`
	StartDate       time.Time    `json:"start_date"`
	EndDate         time.Time    `json:"end_date"`
	SpotName        *string      `json:"spot_name,omitempty"`
	StartAltitude   *float64     `json:"start_altitude,omitempty"`
	MaxAltitude     *float64     `json:"max_altitude,omitempty"`
	CurrentAltitude *float64     `json:"current_altitude,omitempty"`
	TotalDistance   float64      `json:"total_distance"`
	MaxSpeed        float64      `json:"max_speed"`
	MaxGForce       float64      `json:"max_g_force"`
	GPSTrackPoints  []TrackPoint `json:"gps_track_points"`
}

// FinishedFlight is the record handed off once a flight is closed
type FinishedFlight struct {
	RecoveredFlight
	DurationSeconds int    `json:"duration_seconds"`
	Outcome         string `json:"outcome"`
}

// Finished flight outcomes
const (
	OutcomeCompleted = "completed"
	OutcomeRecovered = "recovered"
)

// CloneTrack copies a track so callers never share the backing array
func CloneTrack(points []TrackPoint) []TrackPoint {
	if points == nil {
		return nil
	}
	dup := make([]TrackPoint, len(points))
	for i, p := range points {
		dup[i] = p
		dup[i].Altitude = cloneFloat(p.Altitude)
	}
	return dup
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
