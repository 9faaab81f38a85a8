package tracker

import (
	"cmp"
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/theirongolddev/subtrack/internal/model"
)

// FilterByCategory returns the subscriptions in category c, keeping order.
func FilterByCategory(subs []model.Subscription, c model.Category) []model.Subscription {
	var out []model.Subscription
	for _, s := range subs {
		if s.Category == c {
			out = append(out, s)
		}
	}
	return out
}

// FilterActive returns subscriptions whose stored status is active.
func FilterActive(subs []model.Subscription) []model.Subscription {
	var out []model.Subscription
	for _, s := range subs {
		if s.Status == model.StatusActive {
			out = append(out, s)
		}
	}
	return out
}

// FilterStatus returns subscriptions whose display status equals status
// ("active", "paused", "cancelled" or "expired").
func FilterStatus(subs []model.Subscription, status string, today model.Date) []model.Subscription {
	var out []model.Subscription
	for _, s := range subs {
		if s.DisplayStatus(today) == status {
			out = append(out, s)
		}
	}
	return out
}

// UpcomingRenewals returns active, non-expired subscriptions renewing in
// [today, today+windowDays], ordered by renewal date. Ties keep input order.
func UpcomingRenewals(subs []model.Subscription, today model.Date, windowDays int) []model.Subscription {
	limit := today.AddDays(windowDays)
	var out []model.Subscription
	for _, s := range subs {
		if !s.Counts(today) || s.RenewalDate.After(limit) {
			continue
		}
		out = append(out, s)
	}
	slices.SortStableFunc(out, func(a, b model.Subscription) int {
		return a.RenewalDate.Compare(b.RenewalDate)
	})
	return out
}

// Sorted returns a stably sorted copy of subs. Descending order reverses
// the comparison, so equal keys keep their input order either way.
func Sorted(subs []model.Subscription, field model.SortField, dir model.SortDirection) []model.Subscription {
	out := slices.Clone(subs)
	cmpFn := comparator(field)
	if dir == model.SortDesc {
		asc := cmpFn
		cmpFn = func(a, b model.Subscription) int { return -asc(a, b) }
	}
	slices.SortStableFunc(out, cmpFn)
	return out
}

func comparator(field model.SortField) func(a, b model.Subscription) int {
	switch field {
	case model.SortYearlyTotal:
		return func(a, b model.Subscription) int { return cmp.Compare(a.YearlyCost(), b.YearlyCost()) }
	case model.SortName:
		coll := collate.New(language.Und, collate.IgnoreCase)
		return func(a, b model.Subscription) int { return coll.CompareString(a.Name, b.Name) }
	case model.SortStatus:
		return func(a, b model.Subscription) int { return cmp.Compare(a.Status.Rank(), b.Status.Rank()) }
	default:
		return func(a, b model.Subscription) int { return a.RenewalDate.Compare(b.RenewalDate) }
	}
}

// TotalMonthlyCost sums the monthly-equivalent cost of subscriptions that
// are active and not expired.
func TotalMonthlyCost(subs []model.Subscription, today model.Date) float64 {
	var total float64
	for _, s := range subs {
		if s.Counts(today) {
			total += s.MonthlyCost()
		}
	}
	return total
}

// TotalYearlyCost is TotalMonthlyCost on a yearly basis.
func TotalYearlyCost(subs []model.Subscription, today model.Date) float64 {
	var total float64
	for _, s := range subs {
		if s.Counts(today) {
			total += s.YearlyCost()
		}
	}
	return total
}

// CostByCategory groups monthly-equivalent cost by category using the same
// filter as TotalMonthlyCost. Every category is present.
func CostByCategory(subs []model.Subscription, today model.Date) map[model.Category]float64 {
	out := make(map[model.Category]float64, len(model.Categories))
	for _, c := range model.Categories {
		out[c] = 0
	}
	for _, s := range subs {
		if s.Counts(today) {
			out[s.Category] += s.MonthlyCost()
		}
	}
	return out
}

// Summary is the dashboard rollup of a collection.
type Summary struct {
	Total       int
	Active      int
	Paused      int
	Cancelled   int
	Expired     int
	MonthlyCost float64
	YearlyCost  float64
	ByCategory  map[model.Category]float64
	NextRenewal *model.Subscription
	DueThisWeek int
}

// Summarize computes counts, totals and the next renewal for subs.
func Summarize(subs []model.Subscription, today model.Date) Summary {
	sum := Summary{
		Total:       len(subs),
		MonthlyCost: TotalMonthlyCost(subs, today),
		YearlyCost:  TotalYearlyCost(subs, today),
		ByCategory:  CostByCategory(subs, today),
	}
	for _, s := range subs {
		switch s.DisplayStatus(today) {
		case "expired":
			sum.Expired++
		case string(model.StatusActive):
			sum.Active++
		case string(model.StatusPaused):
			sum.Paused++
		case string(model.StatusCancelled):
			sum.Cancelled++
		}
	}
	sum.DueThisWeek = len(UpcomingRenewals(subs, today, 7))
	for _, s := range subs {
		if !s.Counts(today) {
			continue
		}
		if sum.NextRenewal == nil || s.RenewalDate.Before(sum.NextRenewal.RenewalDate) {
			next := s
			sum.NextRenewal = &next
		}
	}
	return sum
}
