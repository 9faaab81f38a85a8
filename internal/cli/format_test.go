package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/theirongolddev/subtrack/internal/model"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		amount float64
		code   string
		want   string
	}{
		{1234.5, "USD", "$1,234.50"},
		{9.99, "usd", "$9.99"},
		{-3, "USD", "-$3.00"},
		{12, "EUR", "12,00 €"},
		{100, "XYZ", "100.00 XYZ"},
	}
	for _, tt := range tests {
		if got := FormatMoney(tt.amount, tt.code); got != tt.want {
			t.Errorf("FormatMoney(%v, %q) = %q, want %q", tt.amount, tt.code, got, tt.want)
		}
	}
}

func TestFormatDays(t *testing.T) {
	cases := map[int]string{0: "today", 1: "tomorrow", -1: "yesterday", 5: "in 5 days", -4: "4 days ago"}
	for n, want := range cases {
		if got := FormatDays(n); got != want {
			t.Errorf("FormatDays(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	if got := FormatNumber(1234567); got != "1,234,567" {
		t.Fatalf("FormatNumber = %q", got)
	}
	if got := FormatNumber(-999); got != "-999" {
		t.Fatalf("FormatNumber = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("Disney Plus Premium", 8); got != "Disney …" {
		t.Fatalf("Truncate = %q", got)
	}
	if got := Truncate("Hulu", 8); got != "Hulu" {
		t.Fatalf("Truncate = %q", got)
	}
}

func TestParseOutput(t *testing.T) {
	for in, want := range map[string]string{"": OutputTable, "CSV": OutputCSV, "md": OutputMarkdown, "html": OutputHTML} {
		got, err := ParseOutput(in)
		if err != nil || got != want {
			t.Errorf("ParseOutput(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseOutput("pdf"); err == nil {
		t.Fatal("expected error for pdf")
	}
}

func testSubs() ([]model.Subscription, model.Date) {
	today := model.NewDate(2026, time.March, 10)
	return []model.Subscription{
		{ID: "0f8e7d6c-aaaa-bbbb", Name: "Netflix", Cost: 15.49, Currency: "USD", BillingCycle: model.CycleMonthly,
			RenewalDate: today.AddDays(3), Category: model.CategoryStreaming, Status: model.StatusActive},
		{ID: "short", Name: "Old Gym", Cost: 120, Currency: "USD", BillingCycle: model.CycleYearly,
			RenewalDate: today.AddDays(-2), Category: model.CategoryOther, Status: model.StatusActive},
	}, today
}

func TestSubscriptionRows(t *testing.T) {
	subs, today := testSubs()
	rows := SubscriptionRows(subs, today)
	if len(rows) != 2 {
		t.Fatalf("rows = %d", len(rows))
	}
	if rows[0][0] != "0f8e7d6c" || rows[0][4] != "$15.49/mo" || rows[0][8] != "in 3 days" {
		t.Fatalf("row 0 = %v", rows[0])
	}
	if rows[1][3] != "expired" {
		t.Fatalf("row 1 status = %q, want expired", rows[1][3])
	}

	footer := TotalsRow(subs, today, "USD")
	if footer[5] != "$15.49" {
		t.Fatalf("footer monthly = %q, expired entries must not count", footer[5])
	}
}

func TestWriteTableCSV(t *testing.T) {
	subs, today := testSubs()
	var buf bytes.Buffer
	if err := WriteTable(&buf, OutputCSV, SubscriptionHeaders, SubscriptionRows(subs, today), nil); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("csv lines = %d:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "ID,Name,Category") {
		t.Fatalf("csv header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "Netflix") {
		t.Fatalf("csv row = %q", lines[1])
	}
}

func TestWriteTableMarkdown(t *testing.T) {
	subs, today := testSubs()
	var buf bytes.Buffer
	if err := WriteTable(&buf, OutputMarkdown, SubscriptionHeaders, SubscriptionRows(subs, today), TotalsRow(subs, today, "USD")); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "| Netflix |") || !strings.Contains(buf.String(), "Total (active)") {
		t.Fatalf("markdown output:\n%s", buf.String())
	}
}

func TestRenderTable(t *testing.T) {
	out := RenderTable(Table{
		Title:   "Categories",
		Headers: []string{"Category", "Monthly"},
		Rows:    [][]string{{"streaming", "$15.49"}, {"---"}, {"Total", "$15.49"}},
	})
	for _, want := range []string{"Categories", "streaming", "$15.49", "Total"} {
		if !strings.Contains(out, want) {
			t.Fatalf("table missing %q:\n%s", want, out)
		}
	}
	if RenderTable(Table{}) != "" {
		t.Fatal("empty table should render nothing")
	}
}
