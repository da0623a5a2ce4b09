package liqpay

import (
	"fmt"
	"strconv"
	"strings"
)

// RefKind distinguishes the two correlation-id shapes used by the checkout
// flows: a direct order reference and a cart reference issued before any
// order exists.
type RefKind int

const (
	OrderRef RefKind = iota
	CartRef
)

// Ref is the decoded correlation id linking an outbound payment request to
// its eventual inbound callback.
type Ref struct {
	Kind     RefKind
	OrderID  int64 // set for OrderRef
	UserID   int64 // set for CartRef
	IssuedAt int64 // set for CartRef, unix seconds
	Raw      string
}

// OrderRefID formats an order-derived correlation id
func OrderRefID(orderID int64) string {
	return fmt.Sprintf("order_%d", orderID)
}

// CartRefID formats a cart-derived correlation id
func CartRefID(userID, issuedAt int64) string {
	return fmt.Sprintf("cart_%d_%d", userID, issuedAt)
}

// ParseRef decodes a correlation id. Supported shapes are "order_<id>" and
// "cart_<userId>_<timestamp>"; anything else is malformed.
func ParseRef(raw string) (Ref, error) {
	parts := strings.Split(raw, "_")

	switch {
	case len(parts) == 2 && parts[0] == "order":
		orderID, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return Ref{}, fmt.Errorf("invalid order reference %q: %w", raw, err)
		}
		return Ref{Kind: OrderRef, OrderID: orderID, Raw: raw}, nil

	case len(parts) == 3 && parts[0] == "cart":
		userID, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return Ref{}, fmt.Errorf("invalid cart reference %q: %w", raw, err)
		}
		issuedAt, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			return Ref{}, fmt.Errorf("invalid cart reference %q: %w", raw, err)
		}
		return Ref{Kind: CartRef, UserID: userID, IssuedAt: issuedAt, Raw: raw}, nil

	default:
		return Ref{}, fmt.Errorf("unrecognized correlation id %q", raw)
	}
}

// MapStatus translates a gateway-reported payment status into an order
// status. Unknown statuses pass through verbatim.
func MapStatus(gatewayStatus string) string {
	switch gatewayStatus {
	case "success", "sandbox":
		return "paid"
	case "failure", "error", "limit", "9859":
		return "failed"
	default:
		return gatewayStatus
	}
}
