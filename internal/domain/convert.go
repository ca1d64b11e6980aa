package domain

const kgToLb = 2.2046226218

// Weight units accepted by the weight endpoints.
const (
	UnitKG = "kg"
	UnitLB = "lb"
)

// ConvertWeight converts a weight value between "kg" and "lb".
// Returns v unchanged if from == to or if the units are unrecognised.
func ConvertWeight(v float64, from, to string) float64 {
	if from == to {
		return v
	}
	if from == UnitKG && to == UnitLB {
		return v * kgToLb
	}
	if from == UnitLB && to == UnitKG {
		return v / kgToLb
	}
	return v
}

// ValidUnit reports whether u is a supported weight unit.
func ValidUnit(u string) bool {
	return u == UnitKG || u == UnitLB
}
