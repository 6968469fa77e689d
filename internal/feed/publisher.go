package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// Event is the wire form of a document-created notification. The payload
// carries only the ID; consumers load the record themselves.
type Event struct {
	DocumentID uuid.UUID `json:"document_id"`
}

// Publisher announces newly stored documents on the feed.
type Publisher interface {
	PublishDocumentCreated(ctx context.Context, docID uuid.UUID) error
}

// Connect dials NATS with retrying reconnect behavior so a broker restart
// does not take the service down with it.
func Connect(url string, logger *slog.Logger) (*nats.Conn, error) {
	if logger == nil {
		logger = slog.Default()
	}
	nc, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("feed.nats.disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("feed.nats.reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats at %s: %w", url, err)
	}
	return nc, nil
}

// NATSPublisher publishes feed events on a single subject.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
	logger  *slog.Logger
}

func NewPublisher(conn *nats.Conn, subject string, logger *slog.Logger) *NATSPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &NATSPublisher{conn: conn, subject: subject, logger: logger}
}

var _ Publisher = (*NATSPublisher)(nil)

func (p *NATSPublisher) PublishDocumentCreated(_ context.Context, docID uuid.UUID) error {
	data, err := json.Marshal(Event{DocumentID: docID})
	if err != nil {
		return fmt.Errorf("encode feed event: %w", err)
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("publish feed event: %w", err)
	}
	p.logger.Debug("feed.publish.ok", "subject", p.subject, "document_id", docID)
	return nil
}
