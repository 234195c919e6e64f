package orders

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DefaultCommissionRate is the platform share when COMMISSION_RATE is left blank.
var DefaultCommissionRate = decimal.RequireFromString("0.10")

// SplitCommission divides total between the platform and the business.
// The platform share is rounded half-up and the business gets the remainder.
func SplitCommission(total int64, rate decimal.Decimal) (knoott, provider int64, err error) {
	if total < 0 {
		return 0, 0, fmt.Errorf("%w: total amount must not be negative", ErrValidation)
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return 0, 0, fmt.Errorf("%w: commission rate %s out of range", ErrValidation, rate)
	}
	knoott = decimal.NewFromInt(total).Mul(rate).Round(0).IntPart()
	return knoott, total - knoott, nil
}

func validateCheckout(in CheckoutInput) error {
	switch {
	case in.ProductID == "":
		return fmt.Errorf("%w: product_id is required", ErrValidation)
	case in.BusinessID == "":
		return fmt.Errorf("%w: business_id is required", ErrValidation)
	case in.AddressID == "":
		return fmt.Errorf("%w: address_id is required", ErrValidation)
	case in.TotalAmount <= 0:
		return fmt.Errorf("%w: total_amount must be positive", ErrValidation)
	}
	return nil
}
