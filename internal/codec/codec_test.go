package codec

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/theirongolddev/subtrack/internal/model"
)

func sampleSubs() []model.Subscription {
	created := time.Date(2026, time.January, 2, 9, 30, 0, 123, time.UTC)
	return []model.Subscription{
		{
			ID: "a1", Name: "Netflix", Provider: "netflix.com", Cost: 15.49, Currency: "USD",
			BillingCycle: model.CycleMonthly, RenewalDate: model.NewDate(2026, time.March, 10),
			Category: model.CategoryStreaming, Status: model.StatusActive,
			ReminderDaysBefore: 3, CreatedAt: created,
		},
		{
			ID: "b2", Name: "Spotify", Cost: 119.88, Currency: "USD",
			BillingCycle: model.CycleYearly, RenewalDate: model.NewDate(2026, time.November, 1),
			Category: model.CategoryMusic, Status: model.StatusPaused,
			ReminderDaysBefore: 7, CreatedAt: created, Notes: "family plan",
		},
		{
			ID: "c3", Name: "Notion", Cost: 30, Currency: "EUR",
			BillingCycle: model.CycleQuarterly, RenewalDate: model.NewDate(2026, time.April, 1),
			Category: model.CategoryProductivity, Status: model.StatusActive,
			ReminderDaysBefore: 14, CreatedAt: created,
		},
	}
}

func TestJSONRoundTrip(t *testing.T) {
	in := Snapshot{
		Version:       SnapshotVersion,
		Subscriptions: sampleSubs(),
		Currency:      "EUR",
		ExportDate:    time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
	}
	data, err := EncodeJSON(in)
	if err != nil {
		t.Fatalf("EncodeJSON: %v", err)
	}
	out, err := DecodeJSON(data)
	if err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("round trip mismatch\n in: %+v\nout: %+v", in, out)
	}
}

func TestDecodeJSONMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":          "definitely not json",
		"missing array":     `{"version":1,"currency":"USD"}`,
		"array is object":   `{"subscriptions":{"id":"a"}}`,
		"top level array":   `[{"id":"a"}]`,
		"subscriptions nil": `{"subscriptions":null}`,
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeJSON([]byte(input))
			if !errors.Is(err, ErrMalformed) {
				t.Fatalf("err = %v, want ErrMalformed", err)
			}
		})
	}
}

func TestDecodeJSONRecordError(t *testing.T) {
	input := `{"subscriptions":[{"id":"a","name":"Ok","renewalDate":"2026-01-01"},{"id":"b","cost":"twelve"}]}`
	_, err := DecodeJSON([]byte(input))
	var recErr *RecordError
	if !errors.As(err, &recErr) {
		t.Fatalf("err = %v, want *RecordError", err)
	}
	if recErr.Index != 1 {
		t.Fatalf("RecordError.Index = %d, want 1", recErr.Index)
	}
}

func TestDecodeJSONLegacyExpiredStatus(t *testing.T) {
	input := `{"subscriptions":[{"id":"a","name":"Old","status":"expired","renewalDate":"2025-01-01"}]}`
	snap, err := DecodeJSON([]byte(input))
	if err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if got := snap.Subscriptions[0].Status; got != model.StatusActive {
		t.Fatalf("status = %q, want active", got)
	}
}

func TestEncodeICS(t *testing.T) {
	stamp := time.Date(2026, time.March, 1, 8, 0, 0, 0, time.UTC)
	out := EncodeICS(sampleSubs(), stamp)

	if got := strings.Count(out, "BEGIN:VEVENT"); got != 2 {
		t.Fatalf("VEVENT count = %d, want 2 (paused excluded)", got)
	}
	lines := make(map[string]bool)
	for _, l := range strings.Split(out, "\n") {
		lines[strings.TrimRight(l, "\r")] = true
	}
	for _, want := range []string{
		"BEGIN:VCALENDAR",
		"METHOD:PUBLISH",
		"UID:a1@subtrack.local",
		"UID:c3@subtrack.local",
		"DTSTART;VALUE=DATE:20260310",
		"DTSTART;VALUE=DATE:20260401",
		"RRULE:FREQ=MONTHLY",
		"RRULE:FREQ=MONTHLY;INTERVAL=3",
		"TRIGGER:-P3D",
		"TRIGGER:-P14D",
		"ACTION:DISPLAY",
		"CATEGORIES:streaming",
		"LOCATION:netflix.com",
		"LOCATION:Online",
		"SUMMARY:Netflix - Subscription Renewal",
	} {
		if !lines[want] {
			t.Errorf("ICS output missing line %q", want)
		}
	}
	if strings.Contains(out, "Spotify") {
		t.Error("paused subscription should not be exported")
	}
}

func TestEncodeICSEmptyWhenNoActive(t *testing.T) {
	subs := sampleSubs()
	for i := range subs {
		subs[i].Status = model.StatusCancelled
	}
	if out := EncodeICS(subs, time.Now()); out != "" {
		t.Fatalf("expected empty output, got %q", out)
	}
	if out := EncodeICS(nil, time.Now()); out != "" {
		t.Fatalf("expected empty output for nil input, got %q", out)
	}
}

func TestRRule(t *testing.T) {
	want := map[model.BillingCycle]string{
		model.CycleMonthly:   "FREQ=MONTHLY",
		model.CycleQuarterly: "FREQ=MONTHLY;INTERVAL=3",
		model.CycleBiAnnual:  "FREQ=MONTHLY;INTERVAL=6",
		model.CycleYearly:    "FREQ=YEARLY",
	}
	for c, w := range want {
		if got := RRule(c); got != w {
			t.Errorf("RRule(%s) = %q, want %q", c, got, w)
		}
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	in := Snapshot{Version: SnapshotVersion, Subscriptions: sampleSubs(), Currency: "USD"}
	data, err := EncodeYAML(in)
	if err != nil {
		t.Fatalf("EncodeYAML: %v", err)
	}
	if !bytes.Contains(data, []byte("billing_cycle: monthly")) {
		t.Fatalf("yaml missing billing_cycle:\n%s", data)
	}
	out, err := DecodeYAML(data)
	if err != nil {
		t.Fatalf("DecodeYAML: %v", err)
	}
	if len(out.Subscriptions) != len(in.Subscriptions) {
		t.Fatalf("decoded %d subscriptions, want %d", len(out.Subscriptions), len(in.Subscriptions))
	}
	for i := range in.Subscriptions {
		a, b := in.Subscriptions[i], out.Subscriptions[i]
		if a.ID != b.ID || a.Name != b.Name || !a.RenewalDate.Equal(b.RenewalDate) || a.Cost != b.Cost {
			t.Errorf("record %d mismatch: %+v vs %+v", i, a, b)
		}
	}
}

func TestDecodeYAMLErrors(t *testing.T) {
	if _, err := DecodeYAML([]byte("currency: USD\n")); !errors.Is(err, ErrMalformed) {
		t.Fatalf("missing list: err = %v, want ErrMalformed", err)
	}
	if _, err := DecodeYAML([]byte("subscriptions:\n  id: a\n")); !errors.Is(err, ErrMalformed) {
		t.Fatalf("mapping list: err = %v, want ErrMalformed", err)
	}

	input := "subscriptions:\n  - id: a\n    name: Ok\n  - id: b\n    status: frozen\n"
	_, err := DecodeYAML([]byte(input))
	var recErr *RecordError
	if !errors.As(err, &recErr) {
		t.Fatalf("err = %v, want *RecordError", err)
	}
	if recErr.Index != 1 {
		t.Fatalf("RecordError.Index = %d, want 1", recErr.Index)
	}
}

func TestEncodeXLSX(t *testing.T) {
	today := model.NewDate(2026, time.March, 1)
	data, err := EncodeXLSX(sampleSubs(), today)
	if err != nil {
		t.Fatalf("EncodeXLSX: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(xlsxSheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	// header + 3 records + blank + totals
	if len(rows) != 6 {
		t.Fatalf("rows = %d, want 6: %v", len(rows), rows)
	}
	if rows[0][0] != "Name" || rows[1][0] != "Netflix" {
		t.Fatalf("unexpected first rows: %v", rows[:2])
	}
	total := rows[5]
	if total[0] != "Total (active)" {
		t.Fatalf("totals row = %v", total)
	}
	// 15.49 + 30/3 = 25.49 per month
	if total[7] != "25.49" {
		t.Fatalf("monthly total = %q, want 25.49", total[7])
	}
}
