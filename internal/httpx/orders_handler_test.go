package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/knoott/partners-api/internal/auth"
	"github.com/knoott/partners-api/internal/ledger"
	"github.com/knoott/partners-api/internal/orders"
)

type fakeOrders struct {
	order   orders.Order
	err     error
	calls   []string
	lastArg string
	actor   orders.Actor
}

func (f *fakeOrders) record(name string, actor orders.Actor, arg string) (orders.Order, error) {
	f.calls = append(f.calls, name)
	f.actor = actor
	f.lastArg = arg
	return f.order, f.err
}

func (f *fakeOrders) Create(_ context.Context, actor orders.Actor, in orders.CheckoutInput) (orders.Order, error) {
	return f.record("create", actor, in.ProductID)
}

func (f *fakeOrders) Get(_ context.Context, actor orders.Actor, id string) (orders.Order, error) {
	return f.record("get", actor, id)
}

func (f *fakeOrders) ListForBusiness(_ context.Context, actor orders.Actor, fl orders.Filter) ([]orders.Order, error) {
	_, err := f.record("list", actor, string(fl.Status))
	if err != nil {
		return nil, err
	}
	return []orders.Order{f.order}, nil
}

func (f *fakeOrders) Confirm(_ context.Context, id string, actor orders.Actor) (orders.Order, error) {
	return f.record("confirm", actor, id)
}

func (f *fakeOrders) MarkPaid(_ context.Context, id string, actor orders.Actor, ref string) (orders.Order, error) {
	return f.record("pay", actor, id+"|"+ref)
}

func (f *fakeOrders) Ship(_ context.Context, id string, actor orders.Actor, url string) (orders.Order, error) {
	return f.record("ship", actor, id+"|"+url)
}

func (f *fakeOrders) Deliver(_ context.Context, id string, actor orders.Actor) (orders.Order, error) {
	return f.record("deliver", actor, id)
}

func (f *fakeOrders) Cancel(_ context.Context, id string, actor orders.Actor, reason string) (orders.Order, error) {
	return f.record("cancel", actor, id+"|"+reason)
}

type fakeLedger struct{ entries []ledger.Entry }

func (f *fakeLedger) ListByBusiness(_ context.Context, businessID string) ([]ledger.Entry, error) {
	var out []ledger.Entry
	for _, e := range f.entries {
		if e.BusinessID == businessID {
			out = append(out, e)
		}
	}
	return out, nil
}

type memDedup struct{ seen map[string]bool }

func (d *memDedup) Claim(_ context.Context, id string) (bool, error) {
	if d.seen[id] {
		return false, nil
	}
	d.seen[id] = true
	return true, nil
}

func (d *memDedup) Release(_ context.Context, id string) error {
	delete(d.seen, id)
	return nil
}

const (
	testJWTSecret     = "test-secret"
	testWebhookSecret = "hook-secret"
)

var businessActor = orders.Actor{UserID: "staff-1", BusinessID: "biz-1", Role: orders.RoleBusiness}

func newTestRouter(t *testing.T, svc *fakeOrders) (*chi.Mux, *memDedup) {
	t.Helper()
	log := zap.NewNop().Sugar()
	dd := &memDedup{seen: map[string]bool{}}
	r := NewRouter(log)
	authn := Authenticate(auth.NewSigner(testJWTSecret), log)
	h := &OrdersHandler{
		Orders: svc,
		Ledger: &fakeLedger{entries: []ledger.Entry{
			{OrderID: "ord-1", BusinessID: "biz-1", Kind: ledger.KindCommission, Amount: 100},
			{OrderID: "ord-2", BusinessID: "biz-2", Kind: ledger.KindCommission, Amount: 200},
		}},
		Dedup:  dd,
		Logger: log,
	}
	h.Register(r, authn, WebhookSecret(testWebhookSecret))
	(&VariantsHandler{Logger: log}).Register(r, authn)
	return r, dd
}

func token(t *testing.T, a orders.Actor) string {
	t.Helper()
	tok, err := auth.NewSigner(testJWTSecret).Build(a)
	require.NoError(t, err)
	return "Bearer " + tok
}

func do(t *testing.T, r http.Handler, method, path, authz string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestOrderActions(t *testing.T) {
	svc := &fakeOrders{order: orders.Order{ID: "ord-1", Status: orders.StatusShipped}}
	r, _ := newTestRouter(t, svc)
	authz := token(t, businessActor)

	t.Run("Confirm", func(t *testing.T) {
		rec := do(t, r, http.MethodPost, "/orders/ord-1/confirm", authz, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ord-1", svc.lastArg)
		assert.Equal(t, businessActor, svc.actor)
	})

	t.Run("Ship", func(t *testing.T) {
		rec := do(t, r, http.MethodPost, "/orders/ord-1/ship", authz, ShipReq{ShippingGuideURL: "https://x/guide.pdf"})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ord-1|https://x/guide.pdf", svc.lastArg)

		var got orders.Order
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, orders.StatusShipped, got.Status)
	})

	t.Run("Deliver", func(t *testing.T) {
		rec := do(t, r, http.MethodPost, "/orders/ord-1/deliver", authz, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Cancel", func(t *testing.T) {
		rec := do(t, r, http.MethodPost, "/orders/ord-1/cancel", authz, CancelReq{Reason: "no stock"})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ord-1|no stock", svc.lastArg)
	})

	t.Run("CancelInvalidJSON", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/orders/ord-1/cancel", bytes.NewBufferString("{"))
		req.Header.Set("Authorization", authz)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	assert.Equal(t, []string{"confirm", "ship", "deliver", "cancel"}, svc.calls)
}

func TestOrderActions_EmptyBody(t *testing.T) {
	svc := &fakeOrders{err: fmt.Errorf("%w: shipping guide url required", orders.ErrPreconditionFailed)}
	r, _ := newTestRouter(t, svc)

	rec := do(t, r, http.MethodPost, "/orders/ord-1/ship", token(t, businessActor), nil)
	assert.Equal(t, http.StatusPreconditionFailed, rec.Code)
	assert.Contains(t, rec.Body.String(), "precondition_failed")
	assert.Equal(t, []string{"ship"}, svc.calls)
	assert.Equal(t, "ord-1|", svc.lastArg)

	svc.err = fmt.Errorf("%w: missing", orders.ErrNotFound)
	rec = do(t, r, http.MethodPost, "/orders/missing/cancel", token(t, businessActor), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "missing|", svc.lastArg)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		code int
		kind string
	}{
		{fmt.Errorf("%w: x", orders.ErrNotFound), http.StatusNotFound, "not_found"},
		{&orders.TransitionError{From: orders.StatusDelivered, Action: orders.ActionCancel}, http.StatusConflict, "invalid_transition"},
		{orders.ErrConflict, http.StatusConflict, "conflict"},
		{orders.ErrUnauthorized, http.StatusForbidden, "unauthorized"},
		{orders.ErrPreconditionFailed, http.StatusPreconditionFailed, "precondition_failed"},
		{orders.ErrValidation, http.StatusBadRequest, "validation_error"},
		{fmt.Errorf("boom"), http.StatusInternalServerError, "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			r, _ := newTestRouter(t, &fakeOrders{err: tt.err})
			rec := do(t, r, http.MethodPost, "/orders/ord-1/confirm", token(t, businessActor), nil)
			assert.Equal(t, tt.code, rec.Code)

			var body errorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.kind, body.Error)
		})
	}
}

func TestAuthentication(t *testing.T) {
	r, _ := newTestRouter(t, &fakeOrders{})

	assert.Equal(t, http.StatusUnauthorized, do(t, r, http.MethodGet, "/orders/ord-1", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, r, http.MethodGet, "/orders/ord-1", "Token abc", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, r, http.MethodGet, "/orders/ord-1", "Bearer abc", nil).Code)

	other, err := (&auth.Signer{Secret: []byte("other"), TTL: time.Hour}).Build(businessActor)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, do(t, r, http.MethodGet, "/orders/ord-1", "Bearer "+other, nil).Code)

	assert.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/orders/ord-1", token(t, businessActor), nil).Code)
}

func TestPaymentWebhook(t *testing.T) {
	svc := &fakeOrders{order: orders.Order{ID: "ord-1", Status: orders.StatusPaid}}
	r, dd := newTestRouter(t, svc)

	send := func(secret string, body PaymentWebhookReq) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
		req := httptest.NewRequest(http.MethodPost, "/webhooks/payments", &buf)
		req.Header.Set("X-Webhook-Secret", secret)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}
	ok := PaymentWebhookReq{OrderID: "ord-1", PaymentRef: "pay_1", Status: "succeeded"}

	assert.Equal(t, http.StatusUnauthorized, send("wrong", ok).Code)
	assert.Equal(t, http.StatusAccepted, send(testWebhookSecret, PaymentWebhookReq{OrderID: "ord-1", PaymentRef: "pay_0", Status: "failed"}).Code)
	assert.Equal(t, http.StatusBadRequest, send(testWebhookSecret, PaymentWebhookReq{Status: "succeeded"}).Code)

	rec := send(testWebhookSecret, ok)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ord-1|pay_1", svc.lastArg)
	assert.Equal(t, orders.SystemActor, svc.actor)

	rec = send(testWebhookSecret, ok)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "duplicate")
	assert.Equal(t, []string{"pay"}, svc.calls)

	svc.err = orders.ErrConflict
	rec = send(testWebhookSecret, PaymentWebhookReq{OrderID: "ord-1", PaymentRef: "pay_2", Status: "succeeded"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.False(t, dd.seen["pay_2"], "failed payment must be released for redelivery")
}

func TestListEndpoints(t *testing.T) {
	svc := &fakeOrders{order: orders.Order{ID: "ord-1"}}
	r, _ := newTestRouter(t, svc)
	authz := token(t, businessActor)

	rec := do(t, r, http.MethodGet, "/business/orders?status=paid", authz, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "paid", svc.lastArg)

	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodGet, "/business/orders?limit=x", authz, nil).Code)

	rec = do(t, r, http.MethodGet, "/business/transactions", authz, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []ledger.Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "ord-1", entries[0].OrderID)

	customer := token(t, orders.Actor{UserID: "user-1", Role: orders.RoleCustomer})
	assert.Equal(t, http.StatusForbidden, do(t, r, http.MethodGet, "/business/transactions", customer, nil).Code)
}

func TestCreateOrder(t *testing.T) {
	svc := &fakeOrders{order: orders.Order{ID: "ord-9", Status: orders.StatusRequiresConfirmation}}
	r, _ := newTestRouter(t, svc)
	customer := orders.Actor{UserID: "user-1", Role: orders.RoleCustomer}

	rec := do(t, r, http.MethodPost, "/orders", token(t, customer), orders.CheckoutInput{
		ProductID: "prod-1", AddressID: "addr-1", BusinessID: "biz-1", TotalAmount: 1000,
	})
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "prod-1", svc.lastArg)
	assert.Equal(t, customer, svc.actor)
}
