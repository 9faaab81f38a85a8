package model

import (
	"encoding/json"
	"math"
	"testing"
	"time"
)

func TestMonthlyMultiplierTimesCycleLengthIsOne(t *testing.T) {
	for _, c := range BillingCycles {
		got := c.MonthlyMultiplier() * float64(c.Months())
		if math.Abs(got-1) > 1e-12 {
			t.Errorf("%s: multiplier*months = %v, want 1", c, got)
		}
	}
}

func TestYearlyMultiplier(t *testing.T) {
	want := map[BillingCycle]float64{
		CycleMonthly:   12,
		CycleQuarterly: 4,
		CycleBiAnnual:  2,
		CycleYearly:    1,
	}
	for c, w := range want {
		if got := c.YearlyMultiplier(); got != w {
			t.Errorf("%s yearly multiplier = %v, want %v", c, got, w)
		}
	}
}

func TestParseStatus_LegacyExpired(t *testing.T) {
	st, err := ParseStatus("expired")
	if err != nil {
		t.Fatalf("ParseStatus(expired): %v", err)
	}
	if st != StatusActive {
		t.Fatalf("status = %q, want active", st)
	}
	if _, err := ParseStatus("deleted"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestParseBillingCycle(t *testing.T) {
	cases := map[string]BillingCycle{
		"monthly":   CycleMonthly,
		"Quarterly": CycleQuarterly,
		"bi-annual": CycleBiAnnual,
		"annual":    CycleYearly,
	}
	for in, want := range cases {
		got, err := ParseBillingCycle(in)
		if err != nil {
			t.Fatalf("ParseBillingCycle(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("ParseBillingCycle(%q) = %q, want %q", in, got, want)
		}
	}
	if _, err := ParseBillingCycle("weekly"); err == nil {
		t.Fatal("expected error for weekly")
	}
}

func TestDisplayStatus(t *testing.T) {
	today := NewDate(2026, time.March, 10)
	sub := Subscription{Status: StatusActive, RenewalDate: today.AddDays(-1)}
	if got := sub.DisplayStatus(today); got != "expired" {
		t.Errorf("past active = %q, want expired", got)
	}
	if sub.Counts(today) {
		t.Error("expired subscription should not count toward totals")
	}

	sub.RenewalDate = today
	if got := sub.DisplayStatus(today); got != "active" {
		t.Errorf("renewal today = %q, want active", got)
	}

	sub.Status = StatusPaused
	sub.RenewalDate = today.AddDays(-10)
	if got := sub.DisplayStatus(today); got != "paused" {
		t.Errorf("past paused = %q, want paused", got)
	}
}

func TestDateParsingAndJSON(t *testing.T) {
	d, err := ParseDate("2026-01-31T18:30:00Z")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if d.String() != "2026-01-31" {
		t.Fatalf("date = %s, want 2026-01-31", d)
	}

	data, err := json.Marshal(struct {
		D Date `json:"d"`
	}{d})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"d":"2026-01-31"}` {
		t.Fatalf("json = %s", data)
	}

	var back struct {
		D Date `json:"d"`
	}
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if !back.D.Equal(d) || back.D != d {
		t.Fatalf("round trip = %v, want %v", back.D, d)
	}

	if _, err := ParseDate("31/01/2026"); err == nil {
		t.Fatal("expected error for non-ISO date")
	}
}

func TestDaysBetween(t *testing.T) {
	a := NewDate(2026, time.February, 27)
	b := NewDate(2026, time.March, 2)
	if got := DaysBetween(a, b); got != 3 {
		t.Errorf("DaysBetween = %d, want 3", got)
	}
	if got := DaysBetween(b, a); got != -3 {
		t.Errorf("DaysBetween reversed = %d, want -3", got)
	}
}

func TestDateOfUsesLocalCalendarDay(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*3600)
	late := time.Date(2026, time.June, 1, 23, 45, 0, 0, loc)
	if got := DateOf(late).String(); got != "2026-06-01" {
		t.Errorf("DateOf = %s, want 2026-06-01", got)
	}
}
