package enums

import "fmt"

// TableStatus is the floor status of a table context.
type TableStatus string

const (
	TableStatusAvailable   TableStatus = "available"
	TableStatusOccupied    TableStatus = "occupied"
	TableStatusReserved    TableStatus = "reserved"
	TableStatusMaintenance TableStatus = "maintenance"
)

var validTableStatuses = []TableStatus{
	TableStatusAvailable,
	TableStatusOccupied,
	TableStatusReserved,
	TableStatusMaintenance,
}

// String implements fmt.Stringer.
func (t TableStatus) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TableStatus.
func (t TableStatus) IsValid() bool {
	for _, candidate := range validTableStatuses {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTableStatus converts raw input into a TableStatus.
func ParseTableStatus(value string) (TableStatus, error) {
	for _, candidate := range validTableStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid table status %q", value)
}
