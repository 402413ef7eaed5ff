package recurring

import "time"

// Frequencies a recurring transaction can carry.
const (
	FrequencyDaily      = "daily"
	FrequencyWeekly     = "weekly"
	FrequencyBiweekly   = "biweekly"
	FrequencyMonthly    = "monthly"
	FrequencyBimonthly  = "bimonthly"
	FrequencyQuarterly  = "quarterly"
	FrequencySemiannual = "semiannual"
	FrequencyAnnual     = "annual"
)

// ValidFrequency reports whether f is a known frequency value.
func ValidFrequency(f string) bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly,
		FrequencyBimonthly, FrequencyQuarterly, FrequencySemiannual, FrequencyAnnual:
		return true
	}
	return false
}

// NextOccurrence computes when a recurring transaction is next due. A start
// date still in the future is itself the next occurrence. Otherwise one
// period is added to now using calendar arithmetic (a month is a month, not
// thirty days). Unknown frequencies fall back to monthly.
//
// Pure function: deterministic, no I/O, no clock access.
func NextOccurrence(frequency string, startDate, now time.Time) time.Time {
	if startDate.After(now) {
		return startDate
	}

	switch frequency {
	case FrequencyDaily:
		return now.AddDate(0, 0, 1)
	case FrequencyWeekly:
		return now.AddDate(0, 0, 7)
	case FrequencyBiweekly:
		return now.AddDate(0, 0, 14)
	case FrequencyMonthly:
		return now.AddDate(0, 1, 0)
	case FrequencyBimonthly:
		return now.AddDate(0, 2, 0)
	case FrequencyQuarterly:
		return now.AddDate(0, 3, 0)
	case FrequencySemiannual:
		return now.AddDate(0, 6, 0)
	case FrequencyAnnual:
		return now.AddDate(1, 0, 0)
	default:
		return now.AddDate(0, 1, 0)
	}
}
