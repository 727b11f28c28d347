package parser

import (
	"errors"
	"testing"
	"time"

	"github.com/saviobatista/flight-recorder/internal/testutils"
	"github.com/saviobatista/flight-recorder/internal/types"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantErr  bool
		wantType CommandType
	}{
		{
			name:     "start with wing and spot",
			raw:      `{"type":"start","wing":{"id":"w1","name":"Rush 6","size":"M"},"spot_name":"Annecy"}`,
			wantType: CommandStart,
		},
		{
			name:     "start without spot",
			raw:      `{"type":"start","wing":{"id":"w1","name":"Rush 6"}}`,
			wantType: CommandStart,
		},
		{
			name:    "start without wing",
			raw:     `{"type":"start","spot_name":"Annecy"}`,
			wantErr: true,
		},
		{
			name:    "start with blank wing id",
			raw:     `{"type":"start","wing":{"id":"  ","name":"Rush 6"}}`,
			wantErr: true,
		},
		{
			name:     "update",
			raw:      `{"type":"update","telemetry":{"total_distance":400,"max_speed":12,"max_g_force":1.8,"gps_track_points":[{"timestamp":"2024-06-01T10:00:00Z","latitude":45.9,"longitude":6.1}]}}`,
			wantType: CommandUpdate,
		},
		{
			name:    "update without telemetry",
			raw:     `{"type":"update"}`,
			wantErr: true,
		},
		{
			name:    "update with negative distance",
			raw:     `{"type":"update","telemetry":{"total_distance":-1}}`,
			wantErr: true,
		},
		{
			name:     "save",
			raw:      `{"type":"save"}`,
			wantType: CommandSave,
		},
		{
			name:     "resume",
			raw:      `{"type":"resume"}`,
			wantType: CommandResume,
		},
		{
			name:     "end",
			raw:      `{"type":"end"}`,
			wantType: CommandEnd,
		},
		{
			name:     "discard with mixed case",
			raw:      `{"type":" Discard "}`,
			wantType: CommandDiscard,
		},
		{
			name:    "malformed json",
			raw:     `{"type":"start"`,
			wantErr: true,
		},
		{
			name:    "missing type",
			raw:     `{}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := ParseCommand([]byte(tt.raw))

			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseCommand() expected error but got none")
				}
				return
			}

			if err != nil {
				t.Errorf("ParseCommand() unexpected error: %v", err)
				return
			}

			if cmd.Type != tt.wantType {
				t.Errorf("ParseCommand() Type = %v, want %v", cmd.Type, tt.wantType)
			}
		})
	}
}

func TestParseCommand_UnknownType(t *testing.T) {
	_, err := ParseCommand([]byte(`{"type":"land"}`))

	if !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("ParseCommand() error = %v, want ErrUnknownCommand", err)
	}
}

func TestParseCommand_StartFields(t *testing.T) {
	cmd, err := ParseCommand([]byte(`{"type":"start","wing":{"id":"w1","name":"Rush 6","size":"M"},"spot_name":"Annecy"}`))
	if err != nil {
		t.Fatalf("ParseCommand() unexpected error: %v", err)
	}

	if cmd.Wing.ID != "w1" || cmd.Wing.Name != "Rush 6" || cmd.Wing.Size != "M" {
		t.Errorf("ParseCommand() Wing = %+v", cmd.Wing)
	}
	if cmd.SpotName == nil || *cmd.SpotName != "Annecy" {
		t.Errorf("ParseCommand() SpotName = %v, want Annecy", cmd.SpotName)
	}
}

func TestParseCommand_BlankSpotIsAbsent(t *testing.T) {
	cmd, err := ParseCommand([]byte(`{"type":"start","wing":{"id":"w1"},"spot_name":"   "}`))
	if err != nil {
		t.Fatalf("ParseCommand() unexpected error: %v", err)
	}

	if cmd.SpotName != nil {
		t.Errorf("ParseCommand() SpotName = %q, want nil", *cmd.SpotName)
	}
}

func TestParseCommand_UpdateTelemetry(t *testing.T) {
	cmd, err := ParseCommand([]byte(`{"type":"update","telemetry":{"start_altitude":1200,"current_altitude":1500.5,"total_distance":400,"max_speed":12,"max_g_force":1.8,"gps_track_points":[{"timestamp":"2024-06-01T10:00:00Z","latitude":45.9,"longitude":6.1,"altitude":1500.5}]}}`))
	if err != nil {
		t.Fatalf("ParseCommand() unexpected error: %v", err)
	}

	tel := cmd.Telemetry
	if tel.StartAltitude == nil || *tel.StartAltitude != 1200 {
		t.Errorf("StartAltitude = %v, want 1200", tel.StartAltitude)
	}
	if tel.MaxAltitude != nil {
		t.Errorf("MaxAltitude = %v, want nil", *tel.MaxAltitude)
	}
	if tel.TotalDistance != 400 || tel.MaxSpeed != 12 || tel.MaxGForce != 1.8 {
		t.Errorf("Telemetry = %+v", tel)
	}
	if len(tel.GPSTrackPoints) != 1 {
		t.Fatalf("GPSTrackPoints length = %d, want 1", len(tel.GPSTrackPoints))
	}
	want := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	if !tel.GPSTrackPoints[0].Timestamp.Equal(want) {
		t.Errorf("Timestamp = %v, want %v", tel.GPSTrackPoints[0].Timestamp, want)
	}
}

func TestValidateTelemetry(t *testing.T) {
	start := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		telemetry types.Telemetry
		wantErr   bool
	}{
		{
			name:      "valid track",
			telemetry: types.Telemetry{TotalDistance: 10, MaxSpeed: 5, GPSTrackPoints: testutils.MockTrack(50, start)},
		},
		{
			name:      "empty",
			telemetry: types.Telemetry{},
		},
		{
			name:      "poles and antimeridian",
			telemetry: types.Telemetry{GPSTrackPoints: []types.TrackPoint{{Latitude: 90, Longitude: 180}, {Latitude: -90, Longitude: -180}}},
		},
		{
			name:      "negative speed",
			telemetry: types.Telemetry{MaxSpeed: -3},
			wantErr:   true,
		},
		{
			name:      "latitude out of range",
			telemetry: types.Telemetry{GPSTrackPoints: []types.TrackPoint{{Latitude: 91}}},
			wantErr:   true,
		},
		{
			name:      "longitude out of range",
			telemetry: types.Telemetry{GPSTrackPoints: []types.TrackPoint{{Longitude: -180.5}}},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTelemetry(&tt.telemetry)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateTelemetry() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
