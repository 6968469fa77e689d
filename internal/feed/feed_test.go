package feed

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsentry/internal/common"
)

func startTestNATSServer(t *testing.T) *natsserver.Server {
	t.Helper()
	opts := &natsserver.Options{
		Host:   "127.0.0.1",
		Port:   -1,
		NoLog:  true,
		NoSigs: true,
	}
	server, err := natsserver.NewServer(opts)
	require.NoError(t, err)

	go server.Start()
	if !server.ReadyForConnections(5 * time.Second) {
		t.Fatal("NATS server not ready")
	}
	t.Cleanup(server.Shutdown)
	return server
}

type recordingProcessor struct {
	mu     sync.Mutex
	ids    []uuid.UUID
	ctxIDs []string
	seen   chan uuid.UUID
}

func newRecordingProcessor() *recordingProcessor {
	return &recordingProcessor{seen: make(chan uuid.UUID, 16)}
}

func (p *recordingProcessor) ProcessDocument(ctx context.Context, docID uuid.UUID) {
	p.mu.Lock()
	p.ids = append(p.ids, docID)
	p.ctxIDs = append(p.ctxIDs, common.DocumentIDFromContext(ctx))
	p.mu.Unlock()
	p.seen <- docID
}

func TestPublishAndListen(t *testing.T) {
	server := startTestNATSServer(t)
	nc, err := nats.Connect(server.ClientURL())
	require.NoError(t, err)
	defer nc.Close()

	proc := newRecordingProcessor()
	listener := NewListener(nil, nc, "documents.created", proc)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- listener.Run(ctx) }()

	// Give the subscription a moment to register.
	require.NoError(t, nc.FlushTimeout(time.Second))

	pub := NewPublisher(nc, "documents.created", nil)
	docID := uuid.New()
	require.NoError(t, pub.PublishDocumentCreated(context.Background(), docID))

	select {
	case got := <-proc.seen:
		assert.Equal(t, docID, got)
	case <-time.After(5 * time.Second):
		t.Fatal("event never reached the processor")
	}

	// The listener stamps the document ID into the context for downstream
	// log lines.
	proc.mu.Lock()
	require.Len(t, proc.ctxIDs, 1)
	assert.Equal(t, docID.String(), proc.ctxIDs[0])
	proc.mu.Unlock()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("listener did not stop")
	}
}

func TestListenerDropsMalformedEvents(t *testing.T) {
	server := startTestNATSServer(t)
	nc, err := nats.Connect(server.ClientURL())
	require.NoError(t, err)
	defer nc.Close()

	proc := newRecordingProcessor()
	listener := NewListener(nil, nc, "documents.created", proc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = listener.Run(ctx) }()
	require.NoError(t, nc.FlushTimeout(time.Second))

	// Garbage, then a valid event. The garbage must not stall the feed.
	require.NoError(t, nc.Publish("documents.created", []byte("not json")))
	require.NoError(t, nc.Publish("documents.created", []byte(`{"document_id":"00000000-0000-0000-0000-000000000000"}`)))

	pub := NewPublisher(nc, "documents.created", nil)
	docID := uuid.New()
	require.NoError(t, pub.PublishDocumentCreated(context.Background(), docID))

	select {
	case got := <-proc.seen:
		assert.Equal(t, docID, got)
	case <-time.After(5 * time.Second):
		t.Fatal("valid event after garbage never processed")
	}

	proc.mu.Lock()
	defer proc.mu.Unlock()
	assert.Len(t, proc.ids, 1)
}
