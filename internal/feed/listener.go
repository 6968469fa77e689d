package feed

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"docsentry/internal/common"
)

// DocumentProcessor is what the listener hands each event to. Satisfied by
// the pipeline processor.
type DocumentProcessor interface {
	ProcessDocument(ctx context.Context, docID uuid.UUID)
}

// Listener subscribes to the feed subject and runs the pipeline for every
// event, one goroutine per document. Malformed events are dropped with a
// log line; they must never stall the subscription.
type Listener struct {
	Logger    *slog.Logger
	Conn      *nats.Conn
	Subject   string
	Processor DocumentProcessor

	wg sync.WaitGroup
}

func NewListener(logger *slog.Logger, conn *nats.Conn, subject string, processor DocumentProcessor) *Listener {
	if logger == nil {
		logger = slog.Default()
	}
	return &Listener{Logger: logger, Conn: conn, Subject: subject, Processor: processor}
}

// Run subscribes and blocks until ctx is cancelled, then drains the
// subscription and waits for in-flight documents to finish.
func (l *Listener) Run(ctx context.Context) error {
	sub, err := l.Conn.Subscribe(l.Subject, func(msg *nats.Msg) {
		l.handle(ctx, msg)
	})
	if err != nil {
		return err
	}
	l.Logger.Info("feed.listener.started", "subject", l.Subject)

	<-ctx.Done()

	if err := sub.Drain(); err != nil {
		l.Logger.Warn("feed.listener.drain_error", "error", err)
	}
	l.wg.Wait()
	l.Logger.Info("feed.listener.stopped", "subject", l.Subject)
	return nil
}

func (l *Listener) handle(ctx context.Context, msg *nats.Msg) {
	var ev Event
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		l.Logger.Warn("feed.listener.bad_event", "subject", msg.Subject, "error", err)
		return
	}
	if ev.DocumentID == uuid.Nil {
		l.Logger.Warn("feed.listener.bad_event", "subject", msg.Subject, "error", "missing document_id")
		return
	}

	docCtx := common.WithDocumentID(ctx, ev.DocumentID.String())
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		l.Processor.ProcessDocument(docCtx, ev.DocumentID)
	}()
}
