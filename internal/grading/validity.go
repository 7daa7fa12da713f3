package grading

import "fmt"

// Validity tier thresholds. Policy constants, fixed by design.
const (
	minWarningShots = 5
	minValidShots   = 15
)

// Tier is a three-level confidence classification based on sample size.
// Tiers are totally ordered: TierInsufficient < TierLowSample < TierValid.
type Tier int

const (
	// TierInsufficient marks a sample too small to report a percentage.
	TierInsufficient Tier = iota
	// TierLowSample marks a usable sample that warrants a warning.
	TierLowSample
	// TierValid marks a fully valid sample.
	TierValid
)

// String returns the wire form of the tier.
func (t Tier) String() string {
	switch t {
	case TierInsufficient:
		return "insufficient_data"
	case TierLowSample:
		return "low_sample_warning"
	case TierValid:
		return "valid"
	default:
		return fmt.Sprintf("Tier(%d)", int(t))
	}
}

// ParseTier converts a wire-form tier string.
func ParseTier(s string) (Tier, error) {
	switch s {
	case "insufficient_data":
		return TierInsufficient, nil
	case "low_sample_warning":
		return TierLowSample, nil
	case "valid":
		return TierValid, nil
	default:
		return 0, &ConfigError{Field: "validity tier", Value: s}
	}
}

// Validity classifies a shot count into a tier.
func Validity(count int) Tier {
	if count < minWarningShots {
		return TierInsufficient
	}
	if count < minValidShots {
		return TierLowSample
	}
	return TierValid
}

// Percentage returns 100*aCount/count, or nil when the tier is insufficient
// or the count is zero. The nil/tier pairing is a ledger invariant: a stored
// percentage is null exactly when the tier is insufficient.
func Percentage(aCount, count int, tier Tier) *float64 {
	if tier == TierInsufficient || count <= 0 {
		return nil
	}
	pct := float64(aCount) / float64(count) * 100.0
	return &pct
}
