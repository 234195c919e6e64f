package orders

import (
	"fmt"
	"time"
)

// Order is one purchased product line of a wedding registry.
// Amounts are minor currency units.
type Order struct {
	ID                     string     `json:"id"`
	Status                 Status     `json:"status"`
	TotalAmount            int64      `json:"total_amount"`
	KnoottReceivedAmount   int64      `json:"knoott_received_amount"`
	ProviderReceivedAmount int64      `json:"povider_received_amount"`
	ProductID              string     `json:"product_id"`
	VariantOptionID        string     `json:"variant_option_id,omitempty"`
	AddressID              string     `json:"address_id"`
	UserID                 string     `json:"user_id"`
	BusinessID             string     `json:"business_id"`
	PaymentRef             string     `json:"payment_ref,omitempty"`
	CancelationReason      *string    `json:"cancelation_reason"`
	ShippingGuideURL       *string    `json:"shipping_guide_url"`
	CreatedAt              time.Time  `json:"created_at"`
	VerifiedAt             *time.Time `json:"verified_at"`
	PaidAt                 *time.Time `json:"paid_at"`
	ShippedAt              *time.Time `json:"shipped_at"`
	DeliveredAt            *time.Time `json:"delivered_at"`
	CanceledAt             *time.Time `json:"canceled_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
}

// SplitBalanced reports whether the commission split adds up to the total.
func (o Order) SplitBalanced() bool {
	return o.KnoottReceivedAmount+o.ProviderReceivedAmount == o.TotalAmount
}

// Validate checks the invariants every persisted order must hold.
func (o Order) Validate() error {
	if !o.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, o.Status)
	}
	if o.TotalAmount < 0 || o.KnoottReceivedAmount < 0 || o.ProviderReceivedAmount < 0 {
		return fmt.Errorf("%w: negative amount", ErrValidation)
	}
	if !o.SplitBalanced() {
		return fmt.Errorf("%w: split %d+%d does not match total %d",
			ErrValidation, o.KnoottReceivedAmount, o.ProviderReceivedAmount, o.TotalAmount)
	}

	stamps := []*time.Time{o.VerifiedAt, o.PaidAt, o.ShippedAt, o.DeliveredAt}
	if o.Status == StatusCanceled {
		if o.CanceledAt == nil {
			return fmt.Errorf("%w: canceled order without canceled_at", ErrValidation)
		}
		// stages reached before the cancel must still be contiguous
		seenGap := false
		for _, ts := range stamps {
			if ts == nil {
				seenGap = true
			} else if seenGap {
				return fmt.Errorf("%w: stage timestamps out of order", ErrValidation)
			}
		}
		return nil
	}
	if o.CanceledAt != nil {
		return fmt.Errorf("%w: canceled_at set on %s order", ErrValidation, o.Status)
	}
	reached := stageIndex(o.Status)
	for i, ts := range stamps {
		if (i < reached) != (ts != nil) {
			return fmt.Errorf("%w: stage timestamps inconsistent with status %s", ErrValidation, o.Status)
		}
	}
	return nil
}

type Role string

const (
	RoleBusiness Role = "business"
	RoleCustomer Role = "customer"
	RoleSystem   Role = "system"
)

// Actor is the authenticated identity behind a request.
type Actor struct {
	UserID     string `json:"user_id"`
	BusinessID string `json:"business_id,omitempty"`
	Role       Role   `json:"role"`
}

// SystemActor is used by the payment webhook.
var SystemActor = Actor{UserID: "system", Role: RoleSystem}

// CheckoutInput is what the registry checkout sends when a guest buys a product.
type CheckoutInput struct {
	ProductID       string `json:"product_id"`
	VariantOptionID string `json:"variant_option_id"`
	AddressID       string `json:"address_id"`
	BusinessID      string `json:"business_id"`
	TotalAmount     int64  `json:"total_amount"`
}

// Filter narrows business order listings.
type Filter struct {
	Status Status
	Limit  int
}
