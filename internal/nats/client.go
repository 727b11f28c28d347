package nats

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/saviobatista/flight-recorder/internal/logging"
	"github.com/saviobatista/flight-recorder/internal/types"
)

const (
	// StreamFlight holds recorder commands and finished flights
	StreamFlight = "FLIGHT"

	SubjectCommands = "flight.commands"
	SubjectFinished = "flight.finished"

	streamMaxAge = 7 * 24 * time.Hour
)

// Client represents a NATS client
type Client struct {
	conn   *nats.Conn
	js     nats.JetStreamContext
	logger *zap.SugaredLogger
}

// New creates a new NATS client and makes sure the FLIGHT stream exists
func New(url string, logger *zap.SugaredLogger) (*Client, error) {
	nc, err := nats.Connect(url, nats.Name("flight-recorder"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to get JetStream context: %w", err)
	}

	_, err = js.AddStream(&nats.StreamConfig{
		Name:     StreamFlight,
		Subjects: []string{SubjectCommands, SubjectFinished},
		Storage:  nats.FileStorage,
		MaxAge:   streamMaxAge,
	})
	if err != nil && !strings.Contains(err.Error(), "stream name already in use") {
		nc.Close()
		return nil, fmt.Errorf("failed to create stream: %w", err)
	}

	return &Client{
		conn:   nc,
		js:     js,
		logger: logging.OrNop(logger),
	}, nil
}

// PublishCommand publishes a raw command envelope
func (c *Client) PublishCommand(data []byte) error {
	if _, err := c.js.Publish(SubjectCommands, data); err != nil {
		return fmt.Errorf("failed to publish command: %w", err)
	}
	return nil
}

// PublishFinishedFlight publishes a closed flight for downstream consumers
func (c *Client) PublishFinishedFlight(flight *types.FinishedFlight) error {
	if flight == nil {
		return fmt.Errorf("finished flight is nil")
	}

	data, err := json.Marshal(flight)
	if err != nil {
		return fmt.Errorf("failed to marshal finished flight: %w", err)
	}

	if _, err := c.js.Publish(SubjectFinished, data, nats.MsgId(flight.SessionID)); err != nil {
		return fmt.Errorf("failed to publish finished flight: %w", err)
	}

	return nil
}

// SubscribeCommands delivers command envelopes published from now on.
// Commands retained in the stream from before the subscription are not
// replayed.
func (c *Client) SubscribeCommands(handler func([]byte) error) (*nats.Subscription, error) {
	if handler == nil {
		return nil, fmt.Errorf("command handler is nil")
	}

	sub, err := c.js.Subscribe(SubjectCommands, func(msg *nats.Msg) {
		if err := handler(msg.Data); err != nil {
			c.logger.Warnw("Failed to handle command",
				"subject", msg.Subject,
				"error", err)
		}
	}, nats.DeliverNew())
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	return sub, nil
}

// Close closes the NATS connection
func (c *Client) Close() {
	if c.conn != nil {
		c.conn.Close()
	}
}
