package cmd

import (
	"strings"
	"testing"
	"time"

	"github.com/theirongolddev/subtrack/internal/codec"
	"github.com/theirongolddev/subtrack/internal/model"
)

func exportSub(id string, status model.Status) model.Subscription {
	return model.Subscription{
		ID: id, Name: "Sub " + id, Cost: 9.99, Currency: "USD",
		BillingCycle: model.CycleMonthly, RenewalDate: model.NewDate(2026, time.April, 1),
		Category: model.CategoryMusic, Status: status, ReminderDaysBefore: 3,
	}
}

func TestExportFormat(t *testing.T) {
	tests := []struct {
		flag, out, want string
	}{
		{"", "", exportJSON},
		{"", "subs.yml", exportYAML},
		{"", "cal.ICS", exportICS},
		{"", "sheet.xlsx", exportXLSX},
		{"yml", "", exportYAML},
		{"ics", "out.json", exportICS},
	}
	for _, tt := range tests {
		got, err := exportFormat(tt.flag, tt.out)
		if err != nil || got != tt.want {
			t.Errorf("exportFormat(%q, %q) = %q, %v; want %q", tt.flag, tt.out, got, err, tt.want)
		}
	}
	if _, err := exportFormat("pdf", ""); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestEncodeExportICSWithoutActive(t *testing.T) {
	snap := codec.Snapshot{Subscriptions: []model.Subscription{
		exportSub("a", model.StatusPaused),
		exportSub("b", model.StatusCancelled),
	}}
	data, count, err := encodeExport(exportICS, snap, time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 0 || count != 0 {
		t.Fatalf("ics export = %d bytes, count %d; want nothing", len(data), count)
	}
}

func TestEncodeExportICSCountsActive(t *testing.T) {
	snap := codec.Snapshot{Subscriptions: []model.Subscription{
		exportSub("a", model.StatusActive),
		exportSub("b", model.StatusPaused),
		exportSub("c", model.StatusActive),
	}}
	data, count, err := encodeExport(exportICS, snap, time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}
	if got := strings.Count(string(data), "BEGIN:VEVENT"); got != 2 {
		t.Fatalf("events = %d, want 2", got)
	}
}

func TestEncodeExportJSONCountsAll(t *testing.T) {
	snap := codec.Snapshot{Version: codec.SnapshotVersion, Subscriptions: []model.Subscription{
		exportSub("a", model.StatusActive),
		exportSub("b", model.StatusPaused),
	}}
	data, count, err := encodeExport(exportJSON, snap, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 || len(data) == 0 {
		t.Fatalf("json export = %d bytes, count %d", len(data), count)
	}
}
