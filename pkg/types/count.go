package types

// Count is a case counter that distinguishes "known zero" from "not yet
// reported". The hosted layer stores unknown counts as the literal 9999, so
// Count keeps that wire value but hides the magic number behind UnknownCount.
type Count int

// UnknownCount marks a counter whose value has not been reported.
// Distinct from 0, which means a confirmed zero.
const UnknownCount Count = 9999

// Known reports whether the counter holds a real value.
func (c Count) Known() bool {
	return c != UnknownCount
}

// Zeroish reports whether the counter is zero or unknown. The description
// bucket and dashboard rules treat the two the same.
func (c Count) Zeroish() bool {
	return c == 0 || c == UnknownCount
}

// OrZero maps an unknown counter to a confirmed zero. Used when a facility is
// first inserted: a brand-new record with no prior data is a known zero.
func (c Count) OrZero() Count {
	if c == UnknownCount {
		return 0
	}
	return c
}
