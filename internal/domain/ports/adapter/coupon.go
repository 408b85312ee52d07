package adapter

import "context"

// CouponResult is the outcome of validating a coupon against an amount.
type CouponResult struct {
	Valid          bool
	DiscountAmount int64
	FinalAmount    int64
	Reason         string // set when invalid
}

// CouponValidator is consulted before the amount is fixed into a gateway
// order. Pure function from the engine's perspective.
type CouponValidator interface {
	Validate(ctx context.Context, code string, amountMinor int64, phone, purchaseType string) (CouponResult, error)
}
