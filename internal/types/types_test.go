package types

import (
	"encoding/json"
	"testing"
	"time"
)

func float(v float64) *float64 { return &v }

func TestFlightSession_WireFieldNames(t *testing.T) {
	spot := "Annecy"
	session := FlightSession{
		Version:        RecordVersion,
		SessionID:      "session-123",
		WingID:         "wing-1",
		WingName:       "Rush 6",
		WingSize:       "M",
		StartDate:      time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
		SpotName:       &spot,
		MaxAltitude:    float(2100),
		TotalDistance:  400,
		MaxSpeed:       12,
		MaxGForce:      RestingGForce,
		GPSTrackPoints: []TrackPoint{{Timestamp: time.Date(2024, 6, 1, 10, 0, 1, 0, time.UTC), Latitude: 45.9, Longitude: 6.1}},
		LastSaveDate:   time.Date(2024, 6, 1, 10, 0, 30, 0, time.UTC),
		IsActive:       true,
	}

	data, err := json.Marshal(session)
	if err != nil {
		t.Fatalf("Failed to marshal FlightSession: %v", err)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Failed to unmarshal into map: %v", err)
	}

	for _, key := range []string{
		"version", "session_id", "wing_id", "wing_name", "wing_size", "start_date",
		"spot_name", "max_altitude", "total_distance", "max_speed", "max_g_force",
		"gps_track_points", "last_save_date", "is_active",
	} {
		if _, ok := raw[key]; !ok {
			t.Errorf("Expected key %q in encoded session", key)
		}
	}

	// Absent optionals are omitted rather than encoded as null
	for _, key := range []string{"start_altitude", "current_altitude"} {
		if _, ok := raw[key]; ok {
			t.Errorf("Expected key %q to be omitted", key)
		}
	}

	points := raw["gps_track_points"].([]interface{})
	point := points[0].(map[string]interface{})
	if _, ok := point["altitude"]; ok {
		t.Error("Expected altitude to be omitted from point without altitude")
	}
	if point["latitude"].(float64) != 45.9 {
		t.Errorf("Expected latitude 45.9, got %v", point["latitude"])
	}
}

func TestFlightSession_Clone(t *testing.T) {
	spot := "Annecy"
	original := &FlightSession{
		WingID:         "wing-1",
		SpotName:       &spot,
		StartAltitude:  float(1200),
		MaxAltitude:    float(1500),
		GPSTrackPoints: []TrackPoint{{Latitude: 1, Longitude: 2, Altitude: float(1300)}},
	}

	dup := original.Clone()

	*dup.SpotName = "Chamonix"
	*dup.StartAltitude = 0
	*dup.GPSTrackPoints[0].Altitude = 0
	dup.GPSTrackPoints[0].Latitude = 99

	if *original.SpotName != "Annecy" {
		t.Errorf("SpotName shared with clone: got %s", *original.SpotName)
	}
	if *original.StartAltitude != 1200 {
		t.Errorf("StartAltitude shared with clone: got %v", *original.StartAltitude)
	}
	if *original.GPSTrackPoints[0].Altitude != 1300 {
		t.Errorf("Track altitude shared with clone: got %v", *original.GPSTrackPoints[0].Altitude)
	}
	if original.GPSTrackPoints[0].Latitude != 1 {
		t.Errorf("Track shared with clone: got %v", original.GPSTrackPoints[0].Latitude)
	}
	if original.CurrentAltitude != nil || dup.CurrentAltitude != nil {
		t.Error("Expected nil CurrentAltitude to stay nil")
	}
}

func TestFlightSession_CloneNil(t *testing.T) {
	var session *FlightSession
	if session.Clone() != nil {
		t.Error("Expected nil clone of nil session")
	}
}

func TestCloneTrack(t *testing.T) {
	if CloneTrack(nil) != nil {
		t.Error("Expected nil track to clone as nil")
	}

	empty := CloneTrack([]TrackPoint{})
	if empty == nil || len(empty) != 0 {
		t.Errorf("Expected empty non-nil track, got %v", empty)
	}
}

func TestFinishedFlight_EmbedsRecoveredFields(t *testing.T) {
	flight := FinishedFlight{
		RecoveredFlight: RecoveredFlight{SessionID: "session-123", WingID: "wing-1", WingName: "Rush 6", TotalDistance: 400},
		DurationSeconds: 3600,
		Outcome:         OutcomeCompleted,
	}

	data, err := json.Marshal(flight)
	if err != nil {
		t.Fatalf("Failed to marshal FinishedFlight: %v", err)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Failed to unmarshal into map: %v", err)
	}

	if raw["session_id"] != "session-123" {
		t.Errorf("Expected flattened session_id, got %v", raw["session_id"])
	}
	if raw["outcome"] != OutcomeCompleted {
		t.Errorf("Expected outcome %s, got %v", OutcomeCompleted, raw["outcome"])
	}
	if raw["duration_seconds"].(float64) != 3600 {
		t.Errorf("Expected duration 3600, got %v", raw["duration_seconds"])
	}
}
