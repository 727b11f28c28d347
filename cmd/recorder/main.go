package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/saviobatista/flight-recorder/internal/config"
	"github.com/saviobatista/flight-recorder/internal/db"
	"github.com/saviobatista/flight-recorder/internal/logging"
	"github.com/saviobatista/flight-recorder/internal/nats"
	"github.com/saviobatista/flight-recorder/internal/parser"
	"github.com/saviobatista/flight-recorder/internal/redis"
	"github.com/saviobatista/flight-recorder/internal/session"
	"github.com/saviobatista/flight-recorder/internal/stats"
	"github.com/saviobatista/flight-recorder/internal/storage"
	"github.com/saviobatista/flight-recorder/internal/types"
)

// redisTTLMargin keeps redis records alive a little past the staleness window
const redisTTLMargin = 2 * time.Hour

// FlightStore records finished flights
type FlightStore interface {
	CreateFinishedFlight(flight *types.FinishedFlight) error
}

// FlightPublisher announces finished flights to downstream consumers
type FlightPublisher interface {
	PublishFinishedFlight(flight *types.FinishedFlight) error
}

// Backing is a session backing that owns a connection
type Backing interface {
	session.Backing
	Close() error
}

// Recorder dispatches bus commands to the session store and hands finished
// flights off to the flight store and publisher
type Recorder struct {
	store     *session.Store
	flights   FlightStore
	publisher FlightPublisher
	stats     *stats.Stats
	logger    *zap.SugaredLogger

	// recoveredID is the session adopted at startup, if any
	recoveredID string
}

// NewRecorder creates a recorder around store
func NewRecorder(store *session.Store, flights FlightStore, publisher FlightPublisher, st *stats.Stats, logger *zap.SugaredLogger) *Recorder {
	r := &Recorder{
		store:     store,
		flights:   flights,
		publisher: publisher,
		stats:     st,
		logger:    logging.OrNop(logger),
	}
	if snapshot, ok := store.Snapshot(); ok {
		r.recoveredID = snapshot.SessionID
	}
	return r
}

// ReportRecovery logs whether a crashed session is awaiting a decision
func (r *Recorder) ReportRecovery() {
	if !r.store.HasRecoverableSession() {
		r.logger.Info("No recoverable flight session")
		return
	}

	duration, _ := r.store.RecoveredFlightDuration()
	r.logger.Infow("Recoverable flight session found, waiting for resume, end or discard",
		"session_id", r.recoveredID,
		"duration_seconds", duration)
}

// HandleCommand decodes and applies one command envelope
func (r *Recorder) HandleCommand(data []byte) error {
	r.stats.IncrementCommands()

	cmd, err := parser.ParseCommand(data)
	if err != nil {
		r.stats.IncrementFailedCommands()
		return fmt.Errorf("failed to parse command: %w", err)
	}

	if err := r.apply(cmd); err != nil {
		r.stats.IncrementFailedCommands()
		return fmt.Errorf("failed to apply %s command: %w", cmd.Type, err)
	}
	return nil
}

func (r *Recorder) apply(cmd *parser.Command) error {
	switch cmd.Type {
	case parser.CommandStart:
		r.recoveredID = ""
		r.store.Start(*cmd.Wing, cmd.SpotName)

	case parser.CommandUpdate:
		r.store.Update(*cmd.Telemetry)

	case parser.CommandSave:
		r.store.Save()

	case parser.CommandResume:
		if !r.store.ResumeSession() {
			r.logger.Warn("Resume requested without a flight session")
		}

	case parser.CommandEnd:
		return r.finish()

	case parser.CommandDiscard:
		r.recoveredID = ""
		r.store.DiscardSession()
	}
	return nil
}

// finish records the active session as a finished flight and ends it. When
// recording fails the session is kept so the end can be retried.
func (r *Recorder) finish() error {
	data, ok := r.store.RecoveredFlightData()
	if !ok {
		// Nothing to record, make sure no stale record survives
		r.store.DiscardSession()
		return nil
	}

	flight := &types.FinishedFlight{
		RecoveredFlight: *data,
		DurationSeconds: int(data.EndDate.Sub(data.StartDate) / time.Second),
		Outcome:         types.OutcomeCompleted,
	}
	if data.SessionID == r.recoveredID {
		flight.Outcome = types.OutcomeRecovered
	}

	if err := r.flights.CreateFinishedFlight(flight); err != nil {
		if !errors.Is(err, db.ErrFlightExists) {
			return fmt.Errorf("failed to record finished flight: %w", err)
		}
		r.logger.Infow("Finished flight already recorded", "session_id", flight.SessionID)
	}

	if err := r.publisher.PublishFinishedFlight(flight); err != nil {
		r.logger.Warnw("Failed to publish finished flight",
			"session_id", flight.SessionID,
			"error", err)
	}

	r.logger.Infow("Flight finished",
		"session_id", flight.SessionID,
		"outcome", flight.Outcome,
		"duration_seconds", flight.DurationSeconds,
		"track_points", len(flight.GPSTrackPoints))

	r.recoveredID = ""
	r.store.EndSession()
	return nil
}

// Shutdown stops periodic saves, checkpointing a confirmed session one last
// time. The durable record is kept for recovery on the next start.
func (r *Recorder) Shutdown() {
	r.store.Shutdown()
}

// logStats periodically logs statistics
func (r *Recorder) logStats(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.logger.Infow("Statistics", "stats", r.stats.GetStats())
		}
	}
}

// createBacking opens the configured durable session backing
func createBacking(cfg *config.Config) (Backing, error) {
	switch cfg.Backing {
	case config.BackingRedis:
		client, err := redis.New(cfg.RedisAddr)
		if err != nil {
			return nil, fmt.Errorf("failed to create Redis backing: %w", err)
		}
		client.SetTTL(cfg.StalenessWindow + redisTTLMargin)
		return client, nil
	default:
		store, err := storage.Open(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("failed to create file backing: %w", err)
		}
		return store, nil
	}
}

// createClients creates the NATS and database clients
func createClients(cfg *config.Config, logger *zap.SugaredLogger) (*nats.Client, *db.Client, error) {
	logger = logging.OrNop(logger)

	natsClient, err := nats.New(cfg.NATSURL, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create NATS client: %w", err)
	}

	dbClient, err := db.New(cfg.DBConnStr)
	if err != nil {
		natsClient.Close()
		return nil, nil, fmt.Errorf("failed to create database client: %w", err)
	}

	if err := dbClient.Ping(); err != nil {
		natsClient.Close()
		if closeErr := dbClient.Close(); closeErr != nil {
			logger.Warnw("Failed to close database client", "error", closeErr)
		}
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return natsClient, dbClient, nil
}

func run(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) error {
	logger = logging.OrNop(logger)

	backing, err := createBacking(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := backing.Close(); err != nil {
			logger.Warnw("Failed to close session backing", "error", err)
		}
	}()

	natsClient, dbClient, err := createClients(cfg, logger)
	if err != nil {
		return err
	}
	defer natsClient.Close()
	defer func() {
		if err := dbClient.Close(); err != nil {
			logger.Warnw("Failed to close database client", "error", err)
		}
	}()

	st := stats.New()
	st.SetSink(dbClient)

	store := session.New(backing, session.Options{
		Key:             cfg.SessionKey,
		SaveInterval:    cfg.SaveInterval,
		StalenessWindow: cfg.StalenessWindow,
		Logger:          logger,
		Stats:           st,
	})

	recorder := NewRecorder(store, dbClient, natsClient, st, logger)
	recorder.ReportRecovery()

	sub, err := natsClient.SubscribeCommands(recorder.HandleCommand)
	if err != nil {
		store.Close()
		return fmt.Errorf("failed to subscribe to commands: %w", err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		st.StartPersistence(ctx, cfg.StatsInterval, logger)
	}()
	go func() {
		defer wg.Done()
		recorder.logStats(ctx, time.Minute)
	}()

	logger.Infow("Flight recorder started",
		"backing", cfg.Backing,
		"save_interval", cfg.SaveInterval.String(),
		"staleness_window", cfg.StalenessWindow.String())

	<-ctx.Done()

	logger.Info("Shutting down...")
	if err := sub.Unsubscribe(); err != nil {
		logger.Warnw("Failed to unsubscribe from commands", "error", err)
	}
	recorder.Shutdown()
	wg.Wait()

	return nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.AppEnv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err = run(ctx, cfg, logger)
	stop()
	if err != nil {
		logger.Errorw("Flight recorder failed", "error", err)
		_ = logging.Sync(logger)
		os.Exit(1)
	}
	_ = logging.Sync(logger)
}
