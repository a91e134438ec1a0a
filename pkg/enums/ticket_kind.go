package enums

import "fmt"

// TicketKind selects the layout of a printed ticket.
type TicketKind string

const (
	TicketKindOrder        TicketKind = "order"
	TicketKindCancellation TicketKind = "cancellation"
	TicketKindReprint      TicketKind = "reprint"
)

var validTicketKinds = []TicketKind{
	TicketKindOrder,
	TicketKindCancellation,
	TicketKindReprint,
}

// String implements fmt.Stringer.
func (t TicketKind) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TicketKind.
func (t TicketKind) IsValid() bool {
	for _, candidate := range validTicketKinds {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTicketKind converts raw input into a TicketKind.
func ParseTicketKind(value string) (TicketKind, error) {
	for _, candidate := range validTicketKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ticket kind %q", value)
}
