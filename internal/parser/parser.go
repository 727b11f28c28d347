package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/saviobatista/flight-recorder/internal/types"
)

// CommandType identifies what a bus command asks the recorder to do
type CommandType string

const (
	// Session store commands
	CommandStart   CommandType = "start"
	CommandUpdate  CommandType = "update"
	CommandSave    CommandType = "save"
	CommandResume  CommandType = "resume"
	CommandEnd     CommandType = "end"
	CommandDiscard CommandType = "discard"
)

// ErrUnknownCommand is returned for envelopes whose type is not recognized
var ErrUnknownCommand = errors.New("unknown command type")

// Command is a decoded command envelope
type Command struct {
	Type      CommandType      `json:"type"`
	Wing      *types.Wing      `json:"wing,omitempty"`
	SpotName  *string          `json:"spot_name,omitempty"`
	Telemetry *types.Telemetry `json:"telemetry,omitempty"`
}

// ParseCommand decodes and validates a raw command envelope
func ParseCommand(raw []byte) (*Command, error) {
	var cmd Command
	if err := json.Unmarshal(raw, &cmd); err != nil {
		return nil, fmt.Errorf("invalid command envelope: %w", err)
	}

	cmd.Type = CommandType(strings.ToLower(strings.TrimSpace(string(cmd.Type))))

	switch cmd.Type {
	case CommandStart:
		if cmd.Wing == nil || strings.TrimSpace(cmd.Wing.ID) == "" {
			return nil, fmt.Errorf("start command requires a wing id")
		}
		if cmd.SpotName != nil && strings.TrimSpace(*cmd.SpotName) == "" {
			cmd.SpotName = nil
		}

	case CommandUpdate:
		if cmd.Telemetry == nil {
			return nil, fmt.Errorf("update command requires telemetry")
		}
		if err := ValidateTelemetry(cmd.Telemetry); err != nil {
			return nil, fmt.Errorf("invalid telemetry: %w", err)
		}

	case CommandSave, CommandResume, CommandEnd, CommandDiscard:
		// No payload

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Type)
	}

	return &cmd, nil
}

// ValidateTelemetry rejects readings no real flight can produce
func ValidateTelemetry(t *types.Telemetry) error {
	if t.TotalDistance < 0 {
		return fmt.Errorf("negative total distance: %v", t.TotalDistance)
	}
	if t.MaxSpeed < 0 {
		return fmt.Errorf("negative max speed: %v", t.MaxSpeed)
	}
	for i, p := range t.GPSTrackPoints {
		if p.Latitude < -90 || p.Latitude > 90 {
			return fmt.Errorf("track point %d: latitude %v out of range", i, p.Latitude)
		}
		if p.Longitude < -180 || p.Longitude > 180 {
			return fmt.Errorf("track point %d: longitude %v out of range", i, p.Longitude)
		}
	}
	return nil
}
