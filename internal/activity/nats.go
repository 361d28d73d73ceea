package activity

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/notebridge/internal/config"
	"git.home.luguber.info/inful/notebridge/internal/foundation/errors"
)

// StreamName is the JetStream stream records are captured in.
const StreamName = "NOTEBRIDGE_ACTIVITY"

// streamPublisher is the subset of jetstream.JetStream used for fan-out.
type streamPublisher interface {
	Publish(ctx context.Context, subject string, payload []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// NATSPublisher forwards records to a JetStream subject.
type NATSPublisher struct {
	conn    *nats.Conn
	js      streamPublisher
	subject string
}

// NewNATSPublisher connects to cfg.URL and makes sure a stream captures
// cfg.Subject.
func NewNATSPublisher(cfg config.NATSConfig) (*NATSPublisher, error) {
	if !cfg.Enabled {
		return nil, errors.ConfigError("activity fan-out is disabled").Build()
	}

	conn, err := nats.Connect(cfg.URL, nats.Name("notebridge"))
	if err != nil {
		return nil, errors.NetworkError("failed to connect to NATS").WithCause(err).WithContext("url", cfg.URL).Build()
	}
	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, errors.NetworkError("failed to create JetStream context").WithCause(err).Build()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Description: "notebridge workflow outcomes",
		Subjects:    []string{cfg.Subject},
		MaxAge:      30 * 24 * time.Hour,
	}); err != nil {
		conn.Close()
		return nil, errors.NetworkError("failed to create activity stream").WithCause(err).Build()
	}

	slog.Info("NATS activity fan-out initialized", "url", cfg.URL, "subject", cfg.Subject)
	return &NATSPublisher{conn: conn, js: js, subject: cfg.Subject}, nil
}

// Record publishes rec as JSON.
func (p *NATSPublisher) Record(ctx context.Context, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return errors.InternalError("failed to marshal activity record").WithCause(err).Build()
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := p.js.Publish(ctx, p.subject, data, jetstream.WithMsgID(rec.ID)); err != nil {
		return errors.NetworkError("failed to publish activity record").WithCause(err).WithContext("subject", p.subject).Build()
	}
	return nil
}

// Close drains the connection.
func (p *NATSPublisher) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Drain()
}
