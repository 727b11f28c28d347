package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/saviobatista/flight-recorder/internal/types"
)

// ErrFlightExists is returned when a finished flight was already recorded
var ErrFlightExists = errors.New("finished flight already recorded")

// ErrFlightNotFound is returned when no finished flight matches a session id
var ErrFlightNotFound = errors.New("finished flight not found")

const uniqueViolation = "23505"

type Client struct {
	db *sql.DB
}

// New creates a new database client
func New(connStr string) (*Client, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &Client{db: db}, nil
}

// Ping verifies the database is reachable
func (c *Client) Ping() error {
	return c.db.Ping()
}

// Close closes the database connection
func (c *Client) Close() error {
	return c.db.Close()
}

// CreateFinishedFlight records a closed flight. Recording the same session
// twice returns ErrFlightExists.
func (c *Client) CreateFinishedFlight(flight *types.FinishedFlight) error {
	track := flight.GPSTrackPoints
	if track == nil {
		track = []types.TrackPoint{}
	}
	trackJSON, err := json.Marshal(track)
	if err != nil {
		return fmt.Errorf("failed to marshal track: %w", err)
	}

	query := `
		INSERT INTO flights (
			session_id, wing_id, wing_name, spot_name, started_at, ended_at,
			duration_seconds, start_altitude, max_altitude, current_altitude,
			total_distance, max_speed, max_g_force, outcome, gps_track
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err = c.db.Exec(query,
		flight.SessionID, flight.WingID, flight.WingName, flight.SpotName,
		flight.StartDate, flight.EndDate, flight.DurationSeconds,
		flight.StartAltitude, flight.MaxAltitude, flight.CurrentAltitude,
		flight.TotalDistance, flight.MaxSpeed, flight.MaxGForce,
		flight.Outcome, trackJSON,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrFlightExists
		}
		return fmt.Errorf("failed to insert flight %s: %w", flight.SessionID, err)
	}
	return nil
}

// GetFinishedFlight retrieves a recorded flight by session id
func (c *Client) GetFinishedFlight(sessionID string) (*types.FinishedFlight, error) {
	query := `
		SELECT session_id, wing_id, wing_name, spot_name, started_at, ended_at,
			duration_seconds, start_altitude, max_altitude, current_altitude,
			total_distance, max_speed, max_g_force, outcome, gps_track
		FROM flights
		WHERE session_id = $1
	`

	var (
		f               types.FinishedFlight
		spotName        sql.NullString
		startAltitude   sql.NullFloat64
		maxAltitude     sql.NullFloat64
		currentAltitude sql.NullFloat64
		trackJSON       []byte
	)

	err := c.db.QueryRow(query, sessionID).Scan(
		&f.SessionID, &f.WingID, &f.WingName, &spotName, &f.StartDate, &f.EndDate,
		&f.DurationSeconds, &startAltitude, &maxAltitude, &currentAltitude,
		&f.TotalDistance, &f.MaxSpeed, &f.MaxGForce, &f.Outcome, &trackJSON,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrFlightNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query flight %s: %w", sessionID, err)
	}

	if spotName.Valid {
		f.SpotName = &spotName.String
	}
	f.StartAltitude = nullableFloat(startAltitude)
	f.MaxAltitude = nullableFloat(maxAltitude)
	f.CurrentAltitude = nullableFloat(currentAltitude)

	if err := json.Unmarshal(trackJSON, &f.GPSTrackPoints); err != nil {
		return nil, fmt.Errorf("failed to unmarshal track of flight %s: %w", sessionID, err)
	}

	return &f, nil
}

// StoreRecorderStats stores a snapshot of recorder statistics
func (c *Client) StoreRecorderStats(stats map[string]interface{}) error {
	query := `
		INSERT INTO recorder_stats (
			time, started_sessions, ended_sessions, discarded_sessions,
			updates, compactions, saves, failed_saves,
			recovered_sessions, expired_sessions, corrupt_records,
			commands, failed_commands, last_save_time, uptime_seconds
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15
		)
	`

	var lastSave interface{}
	if t, ok := stats["last_save_time"].(time.Time); ok && !t.IsZero() {
		lastSave = t
	}

	var uptime int64
	if d, ok := stats["uptime"].(time.Duration); ok {
		uptime = int64(d.Seconds())
	}

	_, err := c.db.Exec(query,
		time.Now(),
		counter(stats, "started_sessions"),
		counter(stats, "ended_sessions"),
		counter(stats, "discarded_sessions"),
		counter(stats, "updates"),
		counter(stats, "compactions"),
		counter(stats, "saves"),
		counter(stats, "failed_saves"),
		counter(stats, "recovered_sessions"),
		counter(stats, "expired_sessions"),
		counter(stats, "corrupt_records"),
		counter(stats, "commands"),
		counter(stats, "failed_commands"),
		lastSave,
		uptime,
	)
	if err != nil {
		return fmt.Errorf("failed to insert recorder stats: %w", err)
	}
	return nil
}

// counter reads a uint64 counter from a stats snapshot as a BIGINT value
func counter(stats map[string]interface{}, key string) int64 {
	v, _ := stats[key].(uint64)
	return int64(v)
}

func nullableFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
