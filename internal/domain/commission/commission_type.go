package commission

import "fmt"

// CommissionType is the closed set of commission tiers
type CommissionType string

const (
	CommissionTypeEarly      CommissionType = "early"       // Fully paid on or before the early deadline
	CommissionTypeStandard   CommissionType = "standard"    // Fully paid on or before the standard deadline
	CommissionTypeExtraBooks CommissionType = "extra_books" // Book classified as an extra book
)

// AllCommissionTypes returns every commission type in evaluation order
func AllCommissionTypes() []CommissionType {
	return []CommissionType{CommissionTypeEarly, CommissionTypeStandard, CommissionTypeExtraBooks}
}

// IsValid checks if the type is one of the known commission types
func (t CommissionType) IsValid() bool {
	switch t {
	case CommissionTypeEarly, CommissionTypeStandard, CommissionTypeExtraBooks:
		return true
	}
	return false
}

// IsTimeBased reports whether the tier depends on the last payment date.
// Time-based tiers are mutually exclusive for a single book.
func (t CommissionType) IsTimeBased() bool {
	return t == CommissionTypeEarly || t == CommissionTypeStandard
}

// String returns the string representation of CommissionType
func (t CommissionType) String() string {
	return string(t)
}

// ParseCommissionType parses a commission type string
func ParseCommissionType(s string) (CommissionType, error) {
	t := CommissionType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("unknown commission type %q", s)
	}
	return t, nil
}
