package resync

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zlytics/wallet-insights/internal/adapter"
	"github.com/zlytics/wallet-insights/internal/config"
	"github.com/zlytics/wallet-insights/internal/domain"
	"github.com/zlytics/wallet-insights/internal/store"
)

type fakeNatsConn struct {
	closed bool
}

func (c *fakeNatsConn) Close()               { c.closed = true }
func (c *fakeNatsConn) LastError() error     { return nil }
func (c *fakeNatsConn) ConnectedUrl() string { return "nats://localhost:4222" }

type fakeConsumeContext struct {
	stopped chan struct{}
	once    sync.Once
}

func newFakeConsumeContext() *fakeConsumeContext {
	return &fakeConsumeContext{stopped: make(chan struct{})}
}

func (c *fakeConsumeContext) Stop()                   { c.once.Do(func() { close(c.stopped) }) }
func (c *fakeConsumeContext) Drain()                  { c.Stop() }
func (c *fakeConsumeContext) Closed() <-chan struct{} { return c.stopped }

type fakeConsumer struct {
	mu      sync.Mutex
	handler adapter.MessageHandler
	ctx     *fakeConsumeContext
}

func (c *fakeConsumer) Consume(handler adapter.MessageHandler, _ ...jetstream.PullConsumeOpt) (adapter.ConsumeContext, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler = handler
	c.ctx = newFakeConsumeContext()
	return c.ctx, nil
}

func (c *fakeConsumer) Info(context.Context) (*jetstream.ConsumerInfo, error) {
	return &jetstream.ConsumerInfo{Name: "resync-bridge"}, nil
}

func (c *fakeConsumer) deliver(msg adapter.Message) {
	c.mu.Lock()
	handler := c.handler
	c.mu.Unlock()
	handler(msg)
}

type fakeJetStream struct {
	consumer       *fakeConsumer
	consumerConfig jetstream.ConsumerConfig
}

func (j *fakeJetStream) Publish(context.Context, string, []byte, ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	return &jetstream.PubAck{}, nil
}

func (j *fakeJetStream) CreateOrUpdateConsumer(_ context.Context, _ string, cfg jetstream.ConsumerConfig) (adapter.Consumer, error) {
	j.consumerConfig = cfg
	return j.consumer, nil
}

type fakeNatsJetStream struct {
	conn *fakeNatsConn
	js   *fakeJetStream
}

func (f *fakeNatsJetStream) Connect(string, ...nats.Option) (adapter.NatsConn, adapter.JetStream, error) {
	return f.conn, f.js, nil
}

type fakeMessage struct {
	mu     sync.Mutex
	data   []byte
	acked  bool
	naked  bool
	termed bool
}

func (m *fakeMessage) Data() []byte { return m.data }

func (m *fakeMessage) Metadata() (*jetstream.MsgMetadata, error) {
	return &jetstream.MsgMetadata{NumDelivered: 1}, nil
}

func (m *fakeMessage) Ack() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acked = true
	return nil
}

func (m *fakeMessage) Nak() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.naked = true
	return nil
}

func (m *fakeMessage) Term() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.termed = true
	return nil
}

func (m *fakeMessage) state() (acked, naked, termed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.acked, m.naked, m.termed
}

func testNATSConfig() config.NATSConfig {
	return config.NATSConfig{
		URL:            "nats://localhost:4222",
		StreamName:     "INDEXER_EVENTS",
		ConsumerName:   "resync-bridge",
		MaxReconnects:  3,
		ReconnectWait:  time.Second,
		ConnectionName: "resync-bridge-test",
		AckWait:        30 * time.Second,
		MaxDeliver:     3,
	}
}

func newTestBridge(t *testing.T) (Bridge, *fakeNatsJetStream, store.Store) {
	worker, s, clock := newTestWorker(t)
	seedSamples(t, s, clock, "w1", 10)

	fake := &fakeNatsJetStream{
		conn: &fakeNatsConn{},
		js:   &fakeJetStream{consumer: &fakeConsumer{}},
	}

	b, err := NewBridge(testNATSConfig(), fake, worker)
	require.NoError(t, err)
	return b, fake, s
}

// waitFor polls until the condition holds or the deadline passes
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 5*time.Millisecond)
}

func TestBridgeRun(t *testing.T) {
	b, fake, s := newTestBridge(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	// Wait for the consume loop to register its handler
	waitFor(t, func() bool {
		fake.js.consumer.mu.Lock()
		defer fake.js.consumer.mu.Unlock()
		return fake.js.consumer.handler != nil
	})

	assert.Equal(t, "resync-bridge", fake.js.consumerConfig.Durable)
	assert.Equal(t, jetstream.AckExplicitPolicy, fake.js.consumerConfig.AckPolicy)
	assert.Equal(t, 3, fake.js.consumerConfig.MaxDeliver)
	assert.Equal(t, blockProcessedSubject, fake.js.consumerConfig.FilterSubject)

	t.Run("valid event is acked and scored", func(t *testing.T) {
		payload, err := json.Marshal(&domain.BlockProcessedEvent{
			Height:    2500000,
			BlockHash: "00000000abc",
			WalletIDs: []string{"w1"},
			EmittedAt: time.Now().UTC(),
		})
		require.NoError(t, err)

		msg := &fakeMessage{data: payload}
		fake.js.consumer.deliver(msg)

		waitFor(t, func() bool {
			acked, _, _ := msg.state()
			return acked
		})
		_, naked, termed := msg.state()
		assert.False(t, naked)
		assert.False(t, termed)
	})

	t.Run("unparseable payload is terminated", func(t *testing.T) {
		msg := &fakeMessage{data: []byte("not json")}
		fake.js.consumer.deliver(msg)

		waitFor(t, func() bool {
			_, _, termed := msg.state()
			return termed
		})
		acked, _, _ := msg.state()
		assert.False(t, acked)
	})

	t.Run("throttled repeat is still acked", func(t *testing.T) {
		payload, err := json.Marshal(&domain.BlockProcessedEvent{
			Height:    2500001,
			WalletIDs: []string{"w1"},
		})
		require.NoError(t, err)

		msg := &fakeMessage{data: payload}
		fake.js.consumer.deliver(msg)

		waitFor(t, func() bool {
			acked, _, _ := msg.state()
			return acked
		})
	})

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	// Close drains in-flight resyncs, so the score must be persisted after it
	b.Close()
	assert.True(t, fake.conn.closed)

	score, err := s.GetLatestScore(context.Background(), "w1")
	require.NoError(t, err)
	require.NotNil(t, score)
}
