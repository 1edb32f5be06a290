package resync

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/zlytics/wallet-insights/internal/adapter"
	"github.com/zlytics/wallet-insights/internal/config"
	"github.com/zlytics/wallet-insights/internal/domain"
	"github.com/zlytics/wallet-insights/internal/logger"
)

// Subject carrying block-processed events from the indexer
const blockProcessedSubject = "indexer.blocks.processed"

// Bridge consumes indexer events from JetStream and feeds them to the
// resync worker
type Bridge interface {
	// Run starts consuming until the context is cancelled
	Run(ctx context.Context) error
	// Close closes the NATS connection and drains in-flight resyncs
	Close()
}

type bridge struct {
	nc     adapter.NatsConn
	js     adapter.JetStream
	worker *Worker
	cfg    config.NATSConfig
}

// NewBridge connects to NATS and creates the event bridge
func NewBridge(cfg config.NATSConfig, natsJS adapter.NatsJetStream, worker *Worker) (Bridge, error) {
	opts := []nats.Option{
		nats.Name(cfg.ConnectionName),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Error(err, zap.String("message", "Disconnected from NATS"))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("Reconnected to NATS", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	}

	nc, js, err := natsJS.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS and create JetStream: %w", err)
	}

	return &bridge{
		nc:     nc,
		js:     js,
		worker: worker,
		cfg:    cfg,
	}, nil
}

// Run starts consuming block-processed events
func (b *bridge) Run(ctx context.Context) error {
	logger.Info("Starting resync bridge",
		zap.String("stream", b.cfg.StreamName),
		zap.String("consumer", b.cfg.ConsumerName))

	consumerConfig := jetstream.ConsumerConfig{
		Durable:       b.cfg.ConsumerName,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       b.cfg.AckWait,
		MaxDeliver:    b.cfg.MaxDeliver,
		FilterSubject: blockProcessedSubject,
	}

	consumer, err := b.js.CreateOrUpdateConsumer(ctx, b.cfg.StreamName, consumerConfig)
	if err != nil {
		return fmt.Errorf("failed to create/update consumer: %w", err)
	}

	consumerInfo, err := consumer.Info(ctx)
	if err != nil {
		return fmt.Errorf("failed to get consumer info: %w", err)
	}
	logger.Info("Consumer created/retrieved", zap.String("consumer", consumerInfo.Name))

	msgChan := make(chan adapter.Message, 100)
	sub, err := consumer.Consume(func(msg adapter.Message) {
		msgChan <- msg
	})
	if err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	defer sub.Stop()

	logger.Info("Started consuming messages")

	for {
		select {
		case <-ctx.Done():
			logger.Info("Shutting down resync bridge")
			return ctx.Err()
		case msg := <-msgChan:
			b.handleMessage(ctx, msg)
		}
	}
}

// handleMessage processes a single NATS message. Unparseable payloads are
// terminated so they do not redeliver forever; throttled events still ack
// because redelivery would only be throttled again.
func (b *bridge) handleMessage(ctx context.Context, msg adapter.Message) {
	metadata, _ := msg.Metadata()

	var event domain.BlockProcessedEvent
	if err := json.Unmarshal(msg.Data(), &event); err != nil {
		logger.Error(err, zap.String("message", "Failed to unmarshal event"))
		if err := msg.Term(); err != nil {
			logger.Error(err, zap.String("message", "Failed to terminate message"))
		}
		return
	}

	fields := []zap.Field{
		zap.Uint64("height", event.Height),
		zap.String("blockHash", event.BlockHash),
		zap.Int("walletCount", len(event.WalletIDs)),
	}
	if metadata != nil {
		fields = append(fields, zap.Uint64("deliveryCount", metadata.NumDelivered))
	}
	logger.Info("Received block event", fields...)

	b.worker.HandleEvent(ctx, &event)

	if err := msg.Ack(); err != nil {
		logger.Error(err, zap.String("message", "Failed to ACK message"))
	}
}

// Close closes the bridge and cleans up resources
func (b *bridge) Close() {
	if b.nc != nil {
		b.nc.Close()
	}
	b.worker.Drain()
}
