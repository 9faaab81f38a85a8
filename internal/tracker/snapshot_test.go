package tracker

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/theirongolddev/subtrack/internal/clock"
	"github.com/theirongolddev/subtrack/internal/model"
	"github.com/theirongolddev/subtrack/internal/store"
)

func TestExportImportRoundTrip(t *testing.T) {
	s, _, clk := newTestStore(t)
	mustAdd(t, s, draft("Netflix", 15.49, model.CycleMonthly, testToday.AddDays(5)))
	clk.Advance(time.Hour + 123*time.Nanosecond)
	yearly := draft("Spotify", 119.88, model.CycleYearly, testToday.AddDays(200))
	yearly.Notes = "family plan"
	mustAdd(t, s, yearly)
	if err := s.SetCurrency("EUR"); err != nil {
		t.Fatal(err)
	}
	before := s.List()

	data, err := s.ExportSnapshot()
	if err != nil {
		t.Fatalf("ExportSnapshot: %v", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	if doc["version"] != float64(1) || doc["currency"] != "EUR" {
		t.Fatalf("snapshot header = %v / %v", doc["version"], doc["currency"])
	}

	fresh, err := Open(store.NewMemory(), Options{Clock: clock.At(testToday)})
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = fresh.Close() }()

	n, err := fresh.ImportSnapshot(data)
	if err != nil {
		t.Fatalf("ImportSnapshot: %v", err)
	}
	if n != 2 {
		t.Fatalf("imported %d, want 2", n)
	}
	if after := fresh.List(); !reflect.DeepEqual(before, after) {
		t.Fatalf("round trip mismatch\nbefore: %+v\nafter:  %+v", before, after)
	}
	if got := fresh.Preferences().Currency; got != "EUR" {
		t.Fatalf("currency = %q, want EUR", got)
	}
}

func TestImportRejectsMalformed(t *testing.T) {
	s, _, _ := newTestStore(t)
	existing := mustAdd(t, s, draft("Netflix", 10, model.CycleMonthly, testToday))

	for _, input := range []string{
		"not json",
		`{"currency":"USD"}`,
		`{"subscriptions":"nope"}`,
	} {
		if _, err := s.ImportSnapshot([]byte(input)); !errors.Is(err, ErrParse) {
			t.Errorf("ImportSnapshot(%s) err = %v, want ErrParse", input, err)
		}
	}
	if got := s.List(); len(got) != 1 || got[0].ID != existing.ID {
		t.Fatalf("failed import changed state: %+v", got)
	}
}

func TestImportRejectsInvalidRecordWholesale(t *testing.T) {
	s, _, _ := newTestStore(t)
	mustAdd(t, s, draft("Netflix", 10, model.CycleMonthly, testToday))

	input := `{"subscriptions":[
		{"id":"a","name":"Valid","cost":5,"currency":"USD","billingCycle":"monthly","renewalDate":"2026-04-01","category":"music","status":"active","reminderDaysBefore":3},
		{"id":"b","name":"Broken","cost":-5,"currency":"USD","billingCycle":"monthly","renewalDate":"2026-04-01","category":"music","status":"active","reminderDaysBefore":3}
	]}`
	_, err := s.ImportSnapshot([]byte(input))
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Index != 1 {
		t.Fatalf("err = %#v, want ValidationError at index 1", err)
	}
	if s.Len() != 1 {
		t.Fatalf("partial import applied: Len = %d", s.Len())
	}
}

func TestImportRejectsMalformedRecord(t *testing.T) {
	valid := `{"id":"a","name":"Valid","cost":5,"currency":"USD","billingCycle":"monthly","renewalDate":"2026-04-01","category":"music","status":"active","reminderDaysBefore":3}`
	cases := map[string]string{
		"bad date":     `{"id":"b","name":"Broken","cost":5,"renewalDate":"2026-13-45"}`,
		"cost string":  `{"id":"b","name":"Broken","cost":"9.99","renewalDate":"2026-04-01"}`,
		"not object":   `42`,
		"bad status":   `{"id":"b","name":"Broken","cost":5,"renewalDate":"2026-04-01","status":"gone"}`,
		"missing name": `{"id":"b","cost":5,"currency":"USD","billingCycle":"monthly","renewalDate":"2026-04-01","category":"music","status":"active","reminderDaysBefore":3}`,
	}
	for name, rec := range cases {
		t.Run(name, func(t *testing.T) {
			s, _, _ := newTestStore(t)
			mustAdd(t, s, draft("Netflix", 10, model.CycleMonthly, testToday))

			_, err := s.ImportSnapshot([]byte(`{"subscriptions":[` + valid + `,` + rec + `]}`))
			if !errors.Is(err, ErrValidation) || errors.Is(err, ErrParse) {
				t.Fatalf("err = %v, want ErrValidation", err)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) || verr.Index != 1 {
				t.Fatalf("err = %#v, want ValidationError at index 1", err)
			}
			if s.Len() != 1 {
				t.Fatalf("partial import applied: Len = %d", s.Len())
			}
		})
	}
}

func TestImportYAML(t *testing.T) {
	s, _, _ := newTestStore(t)
	good := `currency: EUR
subscriptions:
  - id: a
    name: Valid
    cost: 5
    currency: EUR
    billing_cycle: monthly
    renewal_date: "2026-04-01"
    category: music
    status: active
    reminder_days_before: 3
`
	n, err := s.ImportYAML([]byte(good))
	if err != nil || n != 1 {
		t.Fatalf("ImportYAML = %d, %v", n, err)
	}
	if s.Preferences().Currency != "EUR" {
		t.Fatalf("currency = %q, want EUR", s.Preferences().Currency)
	}

	bad := good + "  - [1, 2]\n"
	if _, err := s.ImportYAML([]byte(bad)); !errors.Is(err, ErrValidation) {
		t.Fatalf("malformed record err = %v, want ErrValidation", err)
	}
	if _, err := s.ImportYAML([]byte("currency: EUR\n")); !errors.Is(err, ErrParse) {
		t.Fatalf("missing list err = %v, want ErrParse", err)
	}
	if s.Len() != 1 {
		t.Fatalf("Len = %d, want 1", s.Len())
	}
}

func TestImportRejectsDuplicateIDs(t *testing.T) {
	s, _, _ := newTestStore(t)
	rec := `{"id":"a","name":"Same","cost":5,"currency":"USD","billingCycle":"monthly","renewalDate":"2026-04-01","category":"music","status":"active","reminderDaysBefore":3}`
	if _, err := s.ImportSnapshot([]byte(`{"subscriptions":[` + rec + `,` + rec + `]}`)); !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestImportLegacyDefaults(t *testing.T) {
	s, _, _ := newTestStore(t)
	input := `{"subscriptions":[
		{"id":"old","name":"Legacy","cost":9.99,"billingCycle":"monthly","renewalDate":"2025-12-01T00:00:00.000Z","category":"other","status":"expired","reminderDaysBefore":7}
	]}`
	if _, err := s.ImportSnapshot([]byte(input)); err != nil {
		t.Fatalf("ImportSnapshot: %v", err)
	}
	sub, ok := s.Get("old")
	if !ok {
		t.Fatal("legacy record missing")
	}
	if sub.Status != model.StatusActive {
		t.Fatalf("status = %q, want active", sub.Status)
	}
	if sub.Currency != "USD" || s.Preferences().Currency != "USD" {
		t.Fatalf("currency = %q / %q, want USD", sub.Currency, s.Preferences().Currency)
	}
	if sub.DisplayStatus(testToday) != "expired" {
		t.Fatalf("display status = %q, want expired", sub.DisplayStatus(testToday))
	}
}

func TestImportEmptyCollection(t *testing.T) {
	s, _, _ := newTestStore(t)
	mustAdd(t, s, draft("Netflix", 10, model.CycleMonthly, testToday))
	n, err := s.ImportSnapshot([]byte(`{"subscriptions":[]}`))
	if err != nil || n != 0 {
		t.Fatalf("ImportSnapshot = %d, %v", n, err)
	}
	if s.Len() != 0 {
		t.Fatalf("Len = %d, want 0", s.Len())
	}
}

func TestPreferences(t *testing.T) {
	s, kv, _ := newTestStore(t)
	if got := s.Preferences(); got != model.DefaultPreferences() {
		t.Fatalf("defaults = %+v", got)
	}
	if err := s.SetCurrency("gbp"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetCurrency("XYZ1"); !errors.Is(err, ErrValidation) {
		t.Fatalf("bad currency err = %v", err)
	}
	if err := s.SetReminderDaysDefault(0); !errors.Is(err, ErrValidation) {
		t.Fatalf("bad days err = %v", err)
	}
	if err := s.SetReminderDaysDefault(14); err != nil {
		t.Fatal(err)
	}
	if err := s.SetSort(model.SortName, model.SortDesc); err != nil {
		t.Fatal(err)
	}
	s.Flush()

	reopened, err := Open(kv, Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = reopened.Close() }()
	want := model.Preferences{Currency: "GBP", ReminderDaysDefault: 14, SortBy: model.SortName, SortDirection: model.SortDesc}
	if got := reopened.Preferences(); got != want {
		t.Fatalf("reopened prefs = %+v, want %+v", got, want)
	}

	mustAdd(t, reopened, Draft{Name: "Zeta", Cost: 1, RenewalDate: testToday})
	mustAdd(t, reopened, Draft{Name: "alpha", Cost: 1, RenewalDate: testToday})
	sorted := reopened.SortedList()
	if sorted[0].Name != "Zeta" || sorted[0].Currency != "GBP" || sorted[0].ReminderDaysBefore != 14 {
		t.Fatalf("SortedList()[0] = %+v", sorted[0])
	}
}
