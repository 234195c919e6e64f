package orders

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Command is one requested transition plus its payload.
type Command struct {
	Action           Action
	PaymentRef       string
	ShippingGuideURL string
	Reason           string
}

// Apply computes the order that results from cmd without touching storage.
// The input order is not modified.
func Apply(o Order, cmd Command, now time.Time) (Order, error) {
	to, ok := Next(o.Status, cmd.Action)
	if !ok {
		return o, &TransitionError{From: o.Status, Action: cmd.Action}
	}

	next := o
	ts := now.UTC()
	switch cmd.Action {
	case ActionConfirm:
		next.VerifiedAt = &ts
	case ActionPay:
		next.PaidAt = &ts
		next.PaymentRef = strings.TrimSpace(cmd.PaymentRef)
	case ActionShip:
		guide, err := shippingGuide(o, cmd.ShippingGuideURL)
		if err != nil {
			return o, err
		}
		next.ShippingGuideURL = &guide
		next.ShippedAt = &ts
	case ActionDeliver:
		next.DeliveredAt = &ts
	case ActionCancel:
		reason := strings.TrimSpace(cmd.Reason)
		if reason == "" {
			return o, fmt.Errorf("%w: cancelation reason is required", ErrValidation)
		}
		next.CancelationReason = &reason
		next.CanceledAt = &ts
	default:
		return o, &TransitionError{From: o.Status, Action: cmd.Action}
	}
	next.Status = to
	next.UpdatedAt = ts
	return next, nil
}

// shippingGuide picks the guide from the payload, falling back to one already uploaded.
func shippingGuide(o Order, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if o.ShippingGuideURL != nil && *o.ShippingGuideURL != "" {
			return *o.ShippingGuideURL, nil
		}
		return "", fmt.Errorf("%w: shipping guide url is required to ship", ErrPreconditionFailed)
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: shipping guide url %q is not an http(s) url", ErrValidation, raw)
	}
	return raw, nil
}
