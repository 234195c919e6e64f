package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	kafkax "github.com/knoott/partners-api/internal/kafka"
)

// Publisher is satisfied by *kafka.Producer.
type Publisher interface {
	Publish(ctx context.Context, key, value []byte, headers ...kafkago.Header)
}

// Cache keeps the latest known order for fast dashboard reads.
type Cache interface {
	Get(ctx context.Context, id string) (Order, bool)
	Put(ctx context.Context, o Order) error
}

type Service struct {
	Store          Store
	Created        Publisher // order.created
	Transitioned   Publisher // order.transitioned
	Cache          Cache     // optional
	Logger         *zap.SugaredLogger
	ServiceName    string
	CommissionRate decimal.Decimal // zero waives the platform share
	Now            func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Create records a registry purchase in requires_confirmation.
func (s *Service) Create(ctx context.Context, actor Actor, in CheckoutInput) (Order, error) {
	if actor.Role != RoleCustomer && actor.Role != RoleSystem {
		return Order{}, fmt.Errorf("%w: only customers place orders", ErrUnauthorized)
	}
	if err := validateCheckout(in); err != nil {
		return Order{}, err
	}
	knoott, provider, err := SplitCommission(in.TotalAmount, s.CommissionRate)
	if err != nil {
		return Order{}, err
	}

	now := s.now().UTC()
	o := Order{
		ID:                     uuid.NewString(),
		Status:                 StatusRequiresConfirmation,
		TotalAmount:            in.TotalAmount,
		KnoottReceivedAmount:   knoott,
		ProviderReceivedAmount: provider,
		ProductID:              in.ProductID,
		VariantOptionID:        in.VariantOptionID,
		AddressID:              in.AddressID,
		UserID:                 actor.UserID,
		BusinessID:             in.BusinessID,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	if err := s.Store.Insert(ctx, o); err != nil {
		return Order{}, err
	}
	s.cache(ctx, o)

	if s.Created != nil {
		s.publish(ctx, s.Created, EventOrderCreated, o.ID, OrderCreatedPayload{
			OrderID:                o.ID,
			BusinessID:             o.BusinessID,
			UserID:                 o.UserID,
			TotalAmount:            o.TotalAmount,
			KnoottReceivedAmount:   o.KnoottReceivedAmount,
			ProviderReceivedAmount: o.ProviderReceivedAmount,
		})
	}
	return o, nil
}

func (s *Service) Get(ctx context.Context, actor Actor, id string) (Order, error) {
	o, ok := Order{}, false
	if s.Cache != nil {
		o, ok = s.Cache.Get(ctx, id)
	}
	if !ok {
		var err error
		if o, err = s.Store.Get(ctx, id); err != nil {
			return Order{}, err
		}
		s.cache(ctx, o)
	}
	if !canView(actor, o) {
		return Order{}, fmt.Errorf("%w: order %s", ErrUnauthorized, id)
	}
	return o, nil
}

func (s *Service) ListForBusiness(ctx context.Context, actor Actor, f Filter) ([]Order, error) {
	if actor.Role != RoleBusiness || actor.BusinessID == "" {
		return nil, fmt.Errorf("%w: business account required", ErrUnauthorized)
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, f.Status)
	}
	return s.Store.ListByBusiness(ctx, actor.BusinessID, f)
}

func (s *Service) Confirm(ctx context.Context, id string, actor Actor) (Order, error) {
	return s.transition(ctx, id, actor, Command{Action: ActionConfirm})
}

// MarkPaid is driven by the payment provider webhook.
func (s *Service) MarkPaid(ctx context.Context, id string, actor Actor, paymentRef string) (Order, error) {
	return s.transition(ctx, id, actor, Command{Action: ActionPay, PaymentRef: paymentRef})
}

func (s *Service) Ship(ctx context.Context, id string, actor Actor, shippingGuideURL string) (Order, error) {
	return s.transition(ctx, id, actor, Command{Action: ActionShip, ShippingGuideURL: shippingGuideURL})
}

func (s *Service) Deliver(ctx context.Context, id string, actor Actor) (Order, error) {
	return s.transition(ctx, id, actor, Command{Action: ActionDeliver})
}

func (s *Service) Cancel(ctx context.Context, id string, actor Actor, reason string) (Order, error) {
	return s.transition(ctx, id, actor, Command{Action: ActionCancel, Reason: reason})
}

// transition reads the order, checks it, and writes it back guarded by the status it was read in.
// A lost race surfaces as ErrConflict; nothing is retried here.
func (s *Service) transition(ctx context.Context, id string, actor Actor, cmd Command) (Order, error) {
	cur, err := s.Store.Get(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if !canView(actor, cur) {
		return Order{}, fmt.Errorf("%w: order %s", ErrUnauthorized, id)
	}
	if _, ok := Next(cur.Status, cmd.Action); !ok {
		return Order{}, &TransitionError{From: cur.Status, Action: cmd.Action}
	}
	if err := authorize(actor, cur, cmd.Action); err != nil {
		return Order{}, err
	}

	next, err := Apply(cur, cmd, s.now())
	if err != nil {
		return Order{}, err
	}
	if err := s.Store.UpdateTransition(ctx, next, cur.Status); err != nil {
		return Order{}, err
	}

	s.logger().Infow("order transitioned",
		"order_id", next.ID, "action", cmd.Action, "from", cur.Status, "to", next.Status,
		"actor", actor.UserID, "role", actor.Role)
	s.cache(ctx, next)
	if s.Transitioned != nil {
		s.publish(ctx, s.Transitioned, EventOrderTransitioned, next.ID, transitionedPayload(cur, next, cmd.Action))
	}
	return next, nil
}

func (s *Service) cache(ctx context.Context, o Order) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Put(ctx, o); err != nil {
		s.logger().Warnw("order cache put failed", "order_id", o.ID, "error", err)
	}
}

func (s *Service) publish(ctx context.Context, p Publisher, eventType, orderID string, payload any) {
	ev := Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    s.now().UTC(),
		Producer:      s.ServiceName,
		TraceID:       middleware.GetReqID(ctx),
		CorrelationID: orderID,
		Payload:       kafkax.MustMarshal(payload),
	}
	p.Publish(ctx, PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (s *Service) logger() *zap.SugaredLogger {
	if s.Logger == nil {
		return zap.NewNop().Sugar()
	}
	return s.Logger
}
