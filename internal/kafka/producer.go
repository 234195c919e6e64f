package kafka

import (
	"context"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Producer buffers messages in an inbox and writes them from a single goroutine.
// The inbox is never closed, so Publish stays safe while shutdown is in progress.
type Producer struct {
	w         *kafka.Writer
	inbox     chan kafka.Message
	done      chan struct{}
	closeOnce sync.Once
	closeCh   chan struct{}
	log       *zap.SugaredLogger
}

func NewProducer(brokers []string, topic string, buf int, log *zap.SugaredLogger) *Producer {
	return &Producer{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			BatchTimeout: 50 * time.Millisecond,
		},
		inbox:   make(chan kafka.Message, buf),
		done:    make(chan struct{}),
		closeCh: make(chan struct{}),
		log:     log.With("topic", topic),
	}
}

func (p *Producer) Start(ctx context.Context) {
	go func() {
		defer close(p.closeCh)
		defer func() {
			if err := p.w.Close(); err != nil {
				p.log.Warnw("kafka writer close", "error", err)
			}
		}()
		for {
			select {
			case <-ctx.Done():
				p.drain()
				return
			case <-p.done:
				p.drain()
				return
			case m := <-p.inbox:
				p.write(m)
			}
		}
	}()
}

// drain writes what is already queued.
func (p *Producer) drain() {
	for {
		select {
		case m := <-p.inbox:
			p.write(m)
		default:
			return
		}
	}
}

func (p *Producer) write(m kafka.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.w.WriteMessages(ctx, m); err != nil {
		p.log.Errorw("kafka publish failed", "key", string(m.Key), "error", err)
	}
}

// Publish queues a message, waiting for inbox space until ctx ends. The message is
// dropped, and logged, when ctx ends first or the producer is closed.
func (p *Producer) Publish(ctx context.Context, key, value []byte, headers ...kafka.Header) {
	select {
	case <-p.done:
		p.log.Warnw("kafka publish after close dropped", "key", string(key))
		return
	default:
	}
	m := kafka.Message{Key: key, Value: value, Time: time.Now(), Headers: headers}
	select {
	case p.inbox <- m:
	case <-p.done:
		p.log.Warnw("kafka publish after close dropped", "key", string(key))
	case <-ctx.Done():
		p.log.Errorw("kafka publish dropped", "key", string(key), "error", ctx.Err())
	}
}

// Close stops accepting messages; the loop flushes the rest and exits.
func (p *Producer) Close() { p.closeOnce.Do(func() { close(p.done) }) }

// WaitClosed blocks until the writer is closed.
func (p *Producer) WaitClosed() { <-p.closeCh }
