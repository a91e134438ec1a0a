package enums

import "fmt"

// SettlementStatus tracks an order's payment progress.
type SettlementStatus string

const (
	SettlementStatusOpen          SettlementStatus = "open"
	SettlementStatusPartiallyPaid SettlementStatus = "partially_paid"
	SettlementStatusSettled       SettlementStatus = "settled"
)

var validSettlementStatuses = []SettlementStatus{
	SettlementStatusOpen,
	SettlementStatusPartiallyPaid,
	SettlementStatusSettled,
}

// String implements fmt.Stringer.
func (s SettlementStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SettlementStatus.
func (s SettlementStatus) IsValid() bool {
	for _, candidate := range validSettlementStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSettlementStatus converts raw input into a SettlementStatus.
func ParseSettlementStatus(value string) (SettlementStatus, error) {
	for _, candidate := range validSettlementStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid settlement status %q", value)
}
