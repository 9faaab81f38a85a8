package codec

import (
	"fmt"
	"math"

	"github.com/xuri/excelize/v2"

	"github.com/theirongolddev/subtrack/internal/model"
)

const xlsxSheet = "Subscriptions"

var xlsxHeader = []any{
	"Name", "Provider", "Category", "Status", "Billing Cycle",
	"Cost", "Currency", "Monthly", "Yearly", "Renewal Date", "Reminder Days", "Notes",
}

// EncodeXLSX renders a spreadsheet with one row per subscription and a
// totals row covering subscriptions that count toward spending.
func EncodeXLSX(subs []model.Subscription, today model.Date) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), xlsxSheet); err != nil {
		return nil, fmt.Errorf("naming sheet: %w", err)
	}
	if err := f.SetSheetRow(xlsxSheet, "A1", &xlsxHeader); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}

	var monthly, yearly float64
	row := 2
	for _, s := range subs {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return nil, err
		}
		values := []any{
			s.Name, s.Provider, string(s.Category), s.DisplayStatus(today), string(s.BillingCycle),
			s.Cost, s.Currency, round2(s.MonthlyCost()), round2(s.YearlyCost()),
			s.RenewalDate.String(), s.ReminderDaysBefore, s.Notes,
		}
		if err := f.SetSheetRow(xlsxSheet, cell, &values); err != nil {
			return nil, fmt.Errorf("writing row %d: %w", row, err)
		}
		if s.Counts(today) {
			monthly += s.MonthlyCost()
			yearly += s.YearlyCost()
		}
		row++
	}

	cell, err := excelize.CoordinatesToCellName(1, row+1)
	if err != nil {
		return nil, err
	}
	totals := []any{"Total (active)", "", "", "", "", "", "", round2(monthly), round2(yearly)}
	if err := f.SetSheetRow(xlsxSheet, cell, &totals); err != nil {
		return nil, fmt.Errorf("writing totals: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("rendering xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
