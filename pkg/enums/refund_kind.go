package enums

import "fmt"

// RefundKind separates the two per-payer refund entitlements an event keeps.
type RefundKind string

const (
	RefundKindTickets RefundKind = "tickets"
	RefundKindTips    RefundKind = "tips"
)

var validRefundKinds = []RefundKind{
	RefundKindTickets,
	RefundKindTips,
}

// String implements fmt.Stringer.
func (r RefundKind) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RefundKind.
func (r RefundKind) IsValid() bool {
	for _, candidate := range validRefundKinds {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRefundKind converts raw input into a RefundKind.
func ParseRefundKind(value string) (RefundKind, error) {
	for _, candidate := range validRefundKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid refund kind %q", value)
}
