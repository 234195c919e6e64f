package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/knoott/partners-api/internal/ledger"
	"github.com/knoott/partners-api/internal/orders"
)

// OrderService is satisfied by *orders.Service.
type OrderService interface {
	Create(ctx context.Context, actor orders.Actor, in orders.CheckoutInput) (orders.Order, error)
	Get(ctx context.Context, actor orders.Actor, id string) (orders.Order, error)
	ListForBusiness(ctx context.Context, actor orders.Actor, f orders.Filter) ([]orders.Order, error)
	Confirm(ctx context.Context, id string, actor orders.Actor) (orders.Order, error)
	MarkPaid(ctx context.Context, id string, actor orders.Actor, paymentRef string) (orders.Order, error)
	Ship(ctx context.Context, id string, actor orders.Actor, shippingGuideURL string) (orders.Order, error)
	Deliver(ctx context.Context, id string, actor orders.Actor) (orders.Order, error)
	Cancel(ctx context.Context, id string, actor orders.Actor, reason string) (orders.Order, error)
}

// LedgerReader is satisfied by *ledger.Repo.
type LedgerReader interface {
	ListByBusiness(ctx context.Context, businessID string) ([]ledger.Entry, error)
}

// Deduper is satisfied by *redisx.Dedup.
type Deduper interface {
	Claim(ctx context.Context, id string) (bool, error)
	Release(ctx context.Context, id string) error
}

type OrdersHandler struct {
	Orders OrderService
	Ledger LedgerReader
	Dedup  Deduper
	Logger *zap.SugaredLogger
}

type ShipReq struct {
	ShippingGuideURL string `json:"shipping_guide_url"`
}

type CancelReq struct {
	Reason string `json:"reason"`
}

type PaymentWebhookReq struct {
	OrderID    string `json:"order_id"`
	PaymentRef string `json:"payment_ref"`
	Status     string `json:"status"`
}

const paymentSucceeded = "succeeded"

func (h *OrdersHandler) Register(r chi.Router, authn, webhook func(http.Handler) http.Handler) {
	r.With(webhook).Post("/webhooks/payments", h.paymentWebhook)

	r.Group(func(r chi.Router) {
		r.Use(authn)
		r.Post("/orders", h.createOrder)
		r.Get("/orders/{id}", h.getOrder)
		r.Post("/orders/{id}/confirm", h.confirm)
		r.Post("/orders/{id}/ship", h.ship)
		r.Post("/orders/{id}/deliver", h.deliver)
		r.Post("/orders/{id}/cancel", h.cancel)
		r.Get("/business/orders", h.listBusinessOrders)
		r.Get("/business/transactions", h.listTransactions)
	})
}

func (h *OrdersHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	writeFailure(w, r, h.Logger, err)
}

// decode reads a JSON body into v. An empty body leaves v at its zero value.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "validation_error", "invalid json")
		return false
	}
	return true
}

func (h *OrdersHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	var req orders.CheckoutInput
	if !decode(w, r, &req) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Orders.Create(ctx, actor, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Orders.Get(ctx, actor, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) listBusinessOrders(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	f := orders.Filter{Status: orders.Status(r.URL.Query().Get("status"))}
	if l := r.URL.Query().Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_error", "limit must be a number")
			return
		}
		f.Limit = n
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	list, err := h.Orders.ListForBusiness(ctx, actor, f)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if list == nil {
		list = []orders.Order{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *OrdersHandler) listTransactions(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	if actor.Role != orders.RoleBusiness {
		writeError(w, http.StatusForbidden, "unauthorized", "business account required")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	entries, err := h.Ledger.ListByBusiness(ctx, actor.BusinessID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if entries == nil {
		entries = []ledger.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *OrdersHandler) confirm(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(ctx context.Context, id string, actor orders.Actor) (orders.Order, error) {
		return h.Orders.Confirm(ctx, id, actor)
	})
}

func (h *OrdersHandler) ship(w http.ResponseWriter, r *http.Request) {
	var req ShipReq
	if !decode(w, r, &req) {
		return
	}
	h.act(w, r, func(ctx context.Context, id string, actor orders.Actor) (orders.Order, error) {
		return h.Orders.Ship(ctx, id, actor, req.ShippingGuideURL)
	})
}

func (h *OrdersHandler) deliver(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(ctx context.Context, id string, actor orders.Actor) (orders.Order, error) {
		return h.Orders.Deliver(ctx, id, actor)
	})
}

func (h *OrdersHandler) cancel(w http.ResponseWriter, r *http.Request) {
	var req CancelReq
	if !decode(w, r, &req) {
		return
	}
	h.act(w, r, func(ctx context.Context, id string, actor orders.Actor) (orders.Order, error) {
		return h.Orders.Cancel(ctx, id, actor, req.Reason)
	})
}

// act runs one transition for the authenticated actor and returns the updated order.
func (h *OrdersHandler) act(w http.ResponseWriter, r *http.Request,
	fn func(ctx context.Context, id string, actor orders.Actor) (orders.Order, error)) {
	actor, _ := actorFrom(r.Context())
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := fn(ctx, chi.URLParam(r, "id"), actor)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) paymentWebhook(w http.ResponseWriter, r *http.Request) {
	var req PaymentWebhookReq
	if !decode(w, r, &req) {
		return
	}
	if req.OrderID == "" || req.PaymentRef == "" {
		writeError(w, http.StatusBadRequest, "validation_error", "order_id and payment_ref are required")
		return
	}
	if req.Status != paymentSucceeded {
		h.Logger.Infow("payment webhook ignored", "order_id", req.OrderID, "status", req.Status)
		writeJSON(w, http.StatusAccepted, map[string]string{"result": "ignored"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	claimed, err := h.Dedup.Claim(ctx, req.PaymentRef)
	if err != nil {
		h.Logger.Warnw("payment dedup unavailable", "payment_ref", req.PaymentRef, "error", err)
	} else if !claimed {
		writeJSON(w, http.StatusOK, map[string]string{"result": "duplicate"})
		return
	}

	o, err := h.Orders.MarkPaid(ctx, req.OrderID, orders.SystemActor, req.PaymentRef)
	if err != nil {
		if claimed {
			_ = h.Dedup.Release(ctx, req.PaymentRef)
		}
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}
