package enums

import "fmt"

// CombinationTargetKind is the scope of a combination rule target.
type CombinationTargetKind string

const (
	CombinationTargetKindProduct  CombinationTargetKind = "product"
	CombinationTargetKindCategory CombinationTargetKind = "category"
)

var validCombinationTargetKinds = []CombinationTargetKind{
	CombinationTargetKindProduct,
	CombinationTargetKindCategory,
}

// String implements fmt.Stringer.
func (c CombinationTargetKind) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CombinationTargetKind.
func (c CombinationTargetKind) IsValid() bool {
	for _, candidate := range validCombinationTargetKinds {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCombinationTargetKind converts raw input into a CombinationTargetKind.
func ParseCombinationTargetKind(value string) (CombinationTargetKind, error) {
	for _, candidate := range validCombinationTargetKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid combination target kind %q", value)
}
