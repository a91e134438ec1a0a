package enums

import "fmt"

// ContextKind distinguishes physical tables from named accounts.
type ContextKind string

const (
	ContextKindTable        ContextKind = "table"
	ContextKindNamedAccount ContextKind = "named_account"
)

var validContextKinds = []ContextKind{
	ContextKindTable,
	ContextKindNamedAccount,
}

// String implements fmt.Stringer.
func (c ContextKind) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ContextKind.
func (c ContextKind) IsValid() bool {
	for _, candidate := range validContextKinds {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseContextKind converts raw input into a ContextKind.
func ParseContextKind(value string) (ContextKind, error) {
	for _, candidate := range validContextKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid context kind %q", value)
}
