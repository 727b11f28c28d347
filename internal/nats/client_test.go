package nats

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/saviobatista/flight-recorder/internal/testutils"
	"github.com/saviobatista/flight-recorder/internal/types"
)

func TestNew_InvalidURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{name: "empty URL", url: ""},
		{name: "unreachable URL", url: "nats://127.0.0.1:1"},
		{name: "malformed URL", url: "not-a-url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := New(tt.url, nil)

			if err == nil {
				t.Error("Expected error, got none")
				client.Close()
				return
			}
			if client != nil {
				t.Error("Expected nil client on error")
			}
		})
	}
}

func TestClient_Close_NilSafety(t *testing.T) {
	client := &Client{conn: nil}
	client.Close()
}

func TestSubjects_Constant(t *testing.T) {
	if SubjectCommands != "flight.commands" {
		t.Errorf("Expected SubjectCommands to be 'flight.commands', got %s", SubjectCommands)
	}
	if SubjectFinished != "flight.finished" {
		t.Errorf("Expected SubjectFinished to be 'flight.finished', got %s", SubjectFinished)
	}
	if StreamFlight != "FLIGHT" {
		t.Errorf("Expected StreamFlight to be 'FLIGHT', got %s", StreamFlight)
	}
}

func TestClient_PublishFinishedFlight_Nil(t *testing.T) {
	client := &Client{}

	if err := client.PublishFinishedFlight(nil); err == nil {
		t.Error("Expected error for nil flight")
	}
}

func TestClient_SubscribeCommands_NilHandler(t *testing.T) {
	client := &Client{}

	if _, err := client.SubscribeCommands(nil); err == nil {
		t.Error("Expected error for nil handler")
	}
}

func TestFinishedFlight_WireFormat(t *testing.T) {
	start := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	spot := "Annecy"
	flight := &types.FinishedFlight{
		RecoveredFlight: types.RecoveredFlight{
			SessionID:      "session-1",
			WingID:         "wing-rush6-m",
			WingName:       "Rush 6",
			StartDate:      start,
			EndDate:        start.Add(time.Hour),
			SpotName:       &spot,
			TotalDistance:  5400,
			MaxSpeed:       15,
			MaxGForce:      2.1,
			GPSTrackPoints: testutils.MockTrack(3, start),
		},
		DurationSeconds: 3600,
		Outcome:         types.OutcomeCompleted,
	}

	data, err := json.Marshal(flight)
	if err != nil {
		t.Fatalf("Failed to marshal finished flight: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal finished flight: %v", err)
	}

	for _, key := range []string{"session_id", "wing_id", "start_date", "end_date", "spot_name", "gps_track_points", "wing_name", "duration_seconds", "outcome"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("Expected key %q in published payload", key)
		}
	}
	if _, ok := decoded["RecoveredFlight"]; ok {
		t.Error("Expected embedded fields to be flattened")
	}
}
