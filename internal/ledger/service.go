package ledger

import (
	"context"
	"encoding/json"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "github.com/knoott/partners-api/internal/kafka"
	"github.com/knoott/partners-api/internal/orders"
)

type Recorder interface {
	Record(ctx context.Context, entries []Entry) error
}

type Deduper interface {
	Claim(ctx context.Context, id string) (bool, error)
	Release(ctx context.Context, id string) error
}

// Service turns order transitions into transaction ledger entries.
type Service struct {
	Repo   Recorder
	Dedup  Deduper
	Logger *zap.SugaredLogger
}

// HandleOrderTransitioned is installed as the consumer handler.
func (s *Service) HandleOrderTransitioned(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != orders.EventOrderTransitioned {
		return nil
	}

	claimed, err := s.Dedup.Claim(ctx, env.EventID)
	if err != nil {
		s.Logger.Warnw("dedup unavailable, relying on ledger uniqueness", "event_id", env.EventID, "error", err)
	} else if !claimed {
		return nil
	}

	p, err := kafkax.UnwrapPayload[orders.OrderTransitionedPayload](env.Payload)
	if err != nil {
		return err
	}

	entries := Entries(p)
	if len(entries) == 0 {
		return nil
	}
	if err := s.Repo.Record(ctx, entries); err != nil {
		if claimed {
			_ = s.Dedup.Release(ctx, env.EventID)
		}
		return err
	}
	s.Logger.Infow("ledger recorded", "order_id", p.OrderID, "to", p.To, "entries", len(entries))
	return nil
}

// Entries maps one transition to the ledger lines it produces.
// Canceling an order after payment does not refund automatically; it is flagged for review.
func Entries(p orders.OrderTransitionedPayload) []Entry {
	base := Entry{OrderID: p.OrderID, BusinessID: p.BusinessID, CreatedAt: p.OccurredAt}
	with := func(k Kind, amount int64) Entry {
		e := base
		e.Kind, e.Amount = k, amount
		return e
	}

	switch p.To {
	case orders.StatusPaid:
		return []Entry{
			with(KindCommission, p.KnoottReceivedAmount),
			with(KindPayoutPending, p.ProviderReceivedAmount),
		}
	case orders.StatusDelivered:
		return []Entry{with(KindPayoutReleasable, p.ProviderReceivedAmount)}
	case orders.StatusCanceled:
		if p.From == orders.StatusPaid || p.From == orders.StatusShipped {
			return []Entry{with(KindCancelReview, p.TotalAmount)}
		}
	}
	return nil
}
