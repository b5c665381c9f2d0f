package dates

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "30-11-2025", want: "2025-11-30"},
		{in: "2025-11-30", want: "2025-11-30"},
		{in: "01-02-2026", want: "2026-02-01"},
		{in: " 2026-02-01 ", want: "2026-02-01"},
		{in: "11/30/2025", wantErr: true},
		{in: "tomorrow", wantErr: true},
		{in: "", wantErr: true},
		{in: "2025-13-01", wantErr: true},
	}

	for _, tc := range cases {
		got, err := Normalize(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("Normalize(%q) = %q, want error", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("Normalize(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	first, err := Normalize("15-06-2026")
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	second, err := Normalize(first)
	if err != nil {
		t.Fatalf("Normalize(normalized): %v", err)
	}
	if second != first {
		t.Errorf("normalization not idempotent: %q then %q", first, second)
	}
}

func TestResolve(t *testing.T) {
	// Wednesday.
	today := date(2025, time.November, 12)

	cases := []struct {
		expr string
		want time.Time
	}{
		{"today", date(2025, time.November, 12)},
		{"tomorrow", date(2025, time.November, 13)},
		{"next_week", date(2025, time.November, 19)},
		{"next_month", date(2025, time.December, 12)},
		{"next_year", date(2026, time.November, 12)},
		{"in_3_days", date(2025, time.November, 15)},
		{"in_2_weeks", date(2025, time.November, 26)},
		{"in_1_months", date(2025, time.December, 12)},
		{"start_of_next_week", date(2025, time.November, 17)},
		{"end_of_next_week", date(2025, time.November, 23)},
		{"start_of_month", date(2025, time.November, 1)},
		{"end_of_month", date(2025, time.November, 30)},
	}

	for _, tc := range cases {
		got, ok := Resolve(tc.expr, today)
		if !ok {
			t.Errorf("Resolve(%q) not recognized", tc.expr)
			continue
		}
		if !got.Equal(tc.want) {
			t.Errorf("Resolve(%q) = %s, want %s", tc.expr, got.Format(ISO), tc.want.Format(ISO))
		}
	}
}

func TestResolveFromMonday(t *testing.T) {
	monday := date(2025, time.November, 10)

	got, ok := Resolve("start_of_next_week", monday)
	if !ok || !got.Equal(date(2025, time.November, 17)) {
		t.Errorf("start_of_next_week from Monday = %s, want 2025-11-17", got.Format(ISO))
	}

	got, ok = Resolve("end_of_next_week", monday)
	if !ok || !got.Equal(date(2025, time.November, 23)) {
		t.Errorf("end_of_next_week from Monday = %s, want 2025-11-23", got.Format(ISO))
	}
}

func TestResolveUnknown(t *testing.T) {
	today := date(2025, time.November, 12)
	for _, expr := range []string{"", "someday", "in_0_days", "in_-2_days", "yesterday", "in_3_hours"} {
		if _, ok := Resolve(expr, today); ok {
			t.Errorf("Resolve(%q) recognized, want no date", expr)
		}
	}
}

func TestEnforceFuture(t *testing.T) {
	today := date(2025, time.November, 12)

	cases := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"future unchanged", date(2026, time.March, 5), date(2026, time.March, 5)},
		{"today unchanged", today, today},
		{"past shifts one year", date(2025, time.March, 5), date(2026, time.March, 5)},
		{"two years back shifts once", date(2023, time.June, 1), date(2024, time.June, 1)},
		{"feb 29 clamps to mar 1", date(2024, time.February, 29), date(2025, time.March, 1)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := EnforceFuture(tc.in, today)
			if !got.Equal(tc.want) {
				t.Errorf("EnforceFuture(%s) = %s, want %s", tc.in.Format(ISO), got.Format(ISO), tc.want.Format(ISO))
			}
		})
	}
}

func TestEnforceFutureNeverPastForRecentDates(t *testing.T) {
	today := date(2025, time.November, 12)
	for d := date(2024, time.November, 13); d.Before(today); d = d.AddDate(0, 0, 1) {
		got := EnforceFuture(d, today)
		if got.Before(today) {
			t.Fatalf("EnforceFuture(%s) = %s, still before today", d.Format(ISO), got.Format(ISO))
		}
	}
}
