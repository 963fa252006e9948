package risk

// DefaultFraction is the equity fraction committed per position when the
// configuration leaves sizing unset.
const DefaultFraction = 0.1

// Sizer decides how large a new position should be. A capital-allocation
// collaborator can supply its own implementation.
type Sizer interface {
	Size(equity, price float64) float64
}

// FixedFractionalSizer commits a fixed fraction of current equity to each
// position.
type FixedFractionalSizer struct {
	Fraction float64
}

// NewFixedFractionalSizer creates a sizer committing the given equity
// fraction per position.
func NewFixedFractionalSizer(fraction float64) *FixedFractionalSizer {
	return &FixedFractionalSizer{Fraction: fraction}
}

// Size returns the position size in instrument units.
func (s *FixedFractionalSizer) Size(equity, price float64) float64 {
	if price <= 0 || equity <= 0 {
		return 0
	}
	return equity * s.Fraction / price
}
