package recurring

import (
	"testing"
	"time"
)

func TestNextOccurrenceFutureStartDate(t *testing.T) {
	now := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	start := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	got := NextOccurrence(FrequencyMonthly, start, now)
	if !got.Equal(start) {
		t.Errorf("got %v, want the future start date itself", got)
	}
}

func TestNextOccurrencePeriods(t *testing.T) {
	now := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		frequency string
		want      time.Time
	}{
		{FrequencyDaily, time.Date(2025, 3, 16, 0, 0, 0, 0, time.UTC)},
		{FrequencyWeekly, time.Date(2025, 3, 22, 0, 0, 0, 0, time.UTC)},
		{FrequencyBiweekly, time.Date(2025, 3, 29, 0, 0, 0, 0, time.UTC)},
		{FrequencyMonthly, time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC)},
		{FrequencyBimonthly, time.Date(2025, 5, 15, 0, 0, 0, 0, time.UTC)},
		{FrequencyQuarterly, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)},
		{FrequencySemiannual, time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC)},
		{FrequencyAnnual, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"unknown", time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		t.Run(tc.frequency, func(t *testing.T) {
			got := NextOccurrence(tc.frequency, start, now)
			if !got.Equal(tc.want) {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestNextOccurrenceCalendarArithmetic(t *testing.T) {
	// A month past Jan 31 lands in early March, not on "Feb 31".
	now := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	got := NextOccurrence(FrequencyMonthly, start, now)
	want := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestValidFrequency(t *testing.T) {
	for _, f := range []string{
		FrequencyDaily, FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly,
		FrequencyBimonthly, FrequencyQuarterly, FrequencySemiannual, FrequencyAnnual,
	} {
		if !ValidFrequency(f) {
			t.Errorf("%q rejected", f)
		}
	}
	for _, f := range []string{"", "fortnightly", "MONTHLY"} {
		if ValidFrequency(f) {
			t.Errorf("%q accepted", f)
		}
	}
}
