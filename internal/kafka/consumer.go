package kafka

import (
	"context"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Handler must return nil only when the message was processed and its offset may be committed.
type Handler func(ctx context.Context, m kafka.Message) error

type Consumer struct {
	r       *kafka.Reader
	workers int
	log     *zap.SugaredLogger
}

func NewConsumer(brokers []string, group, topic string, workers int, log *zap.SugaredLogger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        group,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // manual commit
	})
	if workers <= 0 {
		workers = 1
	}
	return &Consumer{r: r, workers: workers, log: log.With("topic", topic, "group", group)}
}

const (
	retryBackoff    = 200 * time.Millisecond
	retryBackoffMax = 10 * time.Second
)

// Start fetches until ctx is done. Messages of one partition always go to the same worker,
// and a worker retries a failing message until it succeeds, so offsets are committed in order
// and never past an unprocessed message.
func (c *Consumer) Start(ctx context.Context, h Handler) error {
	defer c.r.Close()

	jobs := make([]chan kafka.Message, c.workers)
	var wg sync.WaitGroup
	for i := range jobs {
		jobs[i] = make(chan kafka.Message, 256)
		wg.Add(1)
		go func(in <-chan kafka.Message) {
			defer wg.Done()
			for m := range in {
				if !handleWithRetry(ctx, h, m, retryBackoff, c.log) {
					return
				}
				if err := c.r.CommitMessages(ctx, m); err != nil {
					c.log.Warnw("commit failed", "offset", m.Offset, "partition", m.Partition, "error", err)
				}
			}
		}(jobs[i])
	}
	stop := func() {
		for _, ch := range jobs {
			close(ch)
		}
		wg.Wait()
	}

	for {
		m, err := c.r.FetchMessage(ctx)
		if err != nil {
			stop()
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
		select {
		case jobs[workerFor(m.Partition, c.workers)] <- m:
		case <-ctx.Done():
			stop()
			return nil
		}
	}
}

func workerFor(partition, workers int) int {
	if partition < 0 {
		partition = -partition
	}
	return partition % workers
}

// handleWithRetry runs h until it succeeds, doubling the pause between attempts.
// It reports false when ctx ends first; the message is then left uncommitted for redelivery.
func handleWithRetry(ctx context.Context, h Handler, m kafka.Message, backoff time.Duration, log *zap.SugaredLogger) bool {
	for attempt := 1; ; attempt++ {
		err := h(ctx, m)
		if err == nil {
			return true
		}
		log.Warnw("handler error", "offset", m.Offset, "partition", m.Partition, "attempt", attempt, "error", err)

		t := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			t.Stop()
			return false
		case <-t.C:
		}
		backoff = min(backoff*2, retryBackoffMax)
	}
}
