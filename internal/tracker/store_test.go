package tracker

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/theirongolddev/subtrack/internal/clock"
	"github.com/theirongolddev/subtrack/internal/model"
	"github.com/theirongolddev/subtrack/internal/store"
)

var testToday = model.NewDate(2026, time.March, 10)

func seqIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("sub-%d", n)
	}
}

func newTestStore(t *testing.T) (*Store, *store.Memory, *clock.Fixed) {
	t.Helper()
	kv := store.NewMemory()
	clk := clock.At(testToday)
	s, err := Open(kv, Options{Clock: clk, NewID: seqIDs()})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, kv, clk
}

func draft(name string, cost float64, cycle model.BillingCycle, renewal model.Date) Draft {
	return Draft{
		Name:               name,
		Cost:               cost,
		Currency:           "USD",
		BillingCycle:       cycle,
		RenewalDate:        renewal,
		Category:           model.CategoryStreaming,
		Status:             model.StatusActive,
		ReminderDaysBefore: 3,
	}
}

func mustAdd(t *testing.T, s *Store, d Draft) model.Subscription {
	t.Helper()
	sub, err := s.Add(d)
	if err != nil {
		t.Fatalf("Add(%s): %v", d.Name, err)
	}
	return sub
}

func TestAddAssignsIDAndCreatedAt(t *testing.T) {
	s, kv, clk := newTestStore(t)

	sub := mustAdd(t, s, draft("Netflix", 15.49, model.CycleMonthly, testToday.AddDays(5)))
	if sub.ID != "sub-1" {
		t.Fatalf("ID = %q, want sub-1", sub.ID)
	}
	if !sub.CreatedAt.Equal(clk.Now()) {
		t.Fatalf("CreatedAt = %v, want %v", sub.CreatedAt, clk.Now())
	}

	s.Flush()
	raw, ok, err := kv.Get(KeySubscriptions)
	if err != nil || !ok {
		t.Fatalf("subscriptions not persisted: ok=%v err=%v", ok, err)
	}
	var stored []model.Subscription
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		t.Fatal(err)
	}
	if len(stored) != 1 || stored[0].ID != sub.ID {
		t.Fatalf("stored = %+v", stored)
	}
}

func TestAddDefaults(t *testing.T) {
	s, _, _ := newTestStore(t)
	sub := mustAdd(t, s, Draft{Name: "Gym", Cost: 40, RenewalDate: testToday})

	if sub.Currency != "USD" || sub.BillingCycle != model.CycleMonthly ||
		sub.Category != model.CategoryOther || sub.Status != model.StatusActive ||
		sub.ReminderDaysBefore != 7 {
		t.Fatalf("defaults not applied: %+v", sub)
	}
}

func TestAddValidation(t *testing.T) {
	s, _, _ := newTestStore(t)

	cases := []struct {
		name  string
		mut   func(*Draft)
		field string
	}{
		{"short name", func(d *Draft) { d.Name = "N" }, "name"},
		{"long name", func(d *Draft) { d.Name = strings.Repeat("x", 51) }, "name"},
		{"zero cost", func(d *Draft) { d.Cost = 0 }, "cost"},
		{"negative cost", func(d *Draft) { d.Cost = -1 }, "cost"},
		{"huge cost", func(d *Draft) { d.Cost = 1_000_001 }, "cost"},
		{"bad currency", func(d *Draft) { d.Currency = "ZZZ" }, "currency"},
		{"missing date", func(d *Draft) { d.RenewalDate = model.Date{} }, "renewalDate"},
		{"reminder too high", func(d *Draft) { d.ReminderDaysBefore = 31 }, "reminderDaysBefore"},
		{"reminder negative", func(d *Draft) { d.ReminderDaysBefore = -2 }, "reminderDaysBefore"},
		{"bad cycle", func(d *Draft) { d.BillingCycle = "weekly" }, "billingCycle"},
		{"bad category", func(d *Draft) { d.Category = "food" }, "category"},
		{"bad status", func(d *Draft) { d.Status = "expired" }, "status"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := draft("Netflix", 10, model.CycleMonthly, testToday)
			tc.mut(&d)
			_, err := s.Add(d)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("err = %v, want ErrValidation", err)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %T, want *ValidationError", err)
			}
			if _, ok := verr.Field(tc.field); !ok {
				t.Fatalf("field %q not reported in %v", tc.field, verr)
			}
		})
	}
	if s.Len() != 0 {
		t.Fatalf("invalid drafts were stored: %d", s.Len())
	}
}

func TestUpdate(t *testing.T) {
	s, _, clk := newTestStore(t)
	orig := mustAdd(t, s, draft("Netflix", 10, model.CycleMonthly, testToday))

	clk.Advance(48 * time.Hour)
	cost := 12.5
	status := model.StatusPaused
	got, err := s.Update(orig.ID, Patch{Cost: &cost, Status: &status})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Cost != 12.5 || got.Status != model.StatusPaused {
		t.Fatalf("patch not applied: %+v", got)
	}
	if got.ID != orig.ID || !got.CreatedAt.Equal(orig.CreatedAt) || got.Name != orig.Name {
		t.Fatalf("immutable or untouched fields changed: %+v vs %+v", got, orig)
	}

	bad := 0.0
	if _, err := s.Update(orig.ID, Patch{Cost: &bad}); !errors.Is(err, ErrValidation) {
		t.Fatalf("invalid patch err = %v, want ErrValidation", err)
	}
	if cur, _ := s.Get(orig.ID); cur.Cost != 12.5 {
		t.Fatalf("failed update modified record: %+v", cur)
	}
}

func TestUpdateUnknownID(t *testing.T) {
	s, _, _ := newTestStore(t)
	name := "Anything"
	if _, err := s.Update("nope", Patch{Name: &name}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	s, _, _ := newTestStore(t)
	a := mustAdd(t, s, draft("Netflix", 10, model.CycleMonthly, testToday))
	mustAdd(t, s, draft("Hulu", 8, model.CycleMonthly, testToday))

	var changes int
	s.OnChange(func([]model.Subscription) { changes++ })

	if !s.Delete(a.ID) {
		t.Fatal("Delete existing returned false")
	}
	if s.Delete(a.ID) {
		t.Fatal("second Delete returned true")
	}
	if s.Delete("never-existed") {
		t.Fatal("Delete unknown returned true")
	}
	if s.Len() != 1 {
		t.Fatalf("Len = %d, want 1", s.Len())
	}
	if changes != 1 {
		t.Fatalf("change hooks fired %d times, want 1", changes)
	}
}

func TestFind(t *testing.T) {
	s, _, _ := newTestStore(t)
	mustAdd(t, s, draft("Netflix", 10, model.CycleMonthly, testToday))
	for i := 0; i < 10; i++ {
		mustAdd(t, s, draft(fmt.Sprintf("Svc %d", i), 10, model.CycleMonthly, testToday))
	}

	if got, err := s.Find("sub-1"); err != nil || got.Name != "Netflix" {
		t.Fatalf("Find exact = %+v, %v", got, err)
	}
	if got, err := s.Find("sub-5"); err != nil || got.ID != "sub-5" {
		t.Fatalf("Find sub-5 = %+v, %v", got, err)
	}
	if _, err := s.Find("sub-"); err == nil {
		t.Fatal("ambiguous prefix should fail")
	}
	if _, err := s.Find("zzz"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Find unknown err = %v", err)
	}
}

func TestTotalsExcludePausedCancelledExpired(t *testing.T) {
	subs := []model.Subscription{
		{Cost: 12, BillingCycle: model.CycleMonthly, Status: model.StatusActive, RenewalDate: testToday, Category: model.CategoryStreaming},
		{Cost: 120, BillingCycle: model.CycleYearly, Status: model.StatusActive, RenewalDate: testToday.AddDays(30), Category: model.CategoryMusic},
		{Cost: 30, BillingCycle: model.CycleQuarterly, Status: model.StatusPaused, RenewalDate: testToday.AddDays(5), Category: model.CategoryMusic},
		{Cost: 60, BillingCycle: model.CycleBiAnnual, Status: model.StatusCancelled, RenewalDate: testToday.AddDays(5), Category: model.CategoryGaming},
		{Cost: 99, BillingCycle: model.CycleMonthly, Status: model.StatusActive, RenewalDate: testToday.AddDays(-1), Category: model.CategoryGaming},
	}

	total := TotalMonthlyCost(subs, testToday)
	if math.Abs(total-22) > 1e-9 {
		t.Fatalf("TotalMonthlyCost = %v, want 22", total)
	}

	byCat := CostByCategory(subs, testToday)
	if len(byCat) != len(model.Categories) {
		t.Fatalf("CostByCategory has %d keys, want %d", len(byCat), len(model.Categories))
	}
	if math.Abs(byCat[model.CategoryStreaming]-12) > 1e-9 || math.Abs(byCat[model.CategoryMusic]-10) > 1e-9 {
		t.Fatalf("CostByCategory = %v", byCat)
	}
	if byCat[model.CategoryGaming] != 0 || byCat[model.CategoryEducation] != 0 {
		t.Fatalf("filtered categories should be zero: %v", byCat)
	}

	var sum float64
	for _, v := range byCat {
		sum += v
	}
	if math.Abs(sum-total) > 1e-9 {
		t.Fatalf("category sum %v != total %v", sum, total)
	}
}

func TestSortedYearlyTotalDesc(t *testing.T) {
	subs := []model.Subscription{
		{ID: "monthly", Cost: 10, BillingCycle: model.CycleMonthly},
		{ID: "yearly", Cost: 100, BillingCycle: model.CycleYearly},
		{ID: "quarterly", Cost: 20, BillingCycle: model.CycleQuarterly},
	}
	got := Sorted(subs, model.SortYearlyTotal, model.SortDesc)
	want := []string{"monthly", "yearly", "quarterly"}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("order = %v, want %v", ids(got), want)
		}
	}
	if subs[0].ID != "monthly" || subs[1].ID != "yearly" {
		t.Fatal("Sorted mutated its input")
	}
}

func TestSortedStableOnTies(t *testing.T) {
	subs := []model.Subscription{
		{ID: "a", Status: model.StatusPaused},
		{ID: "b", Status: model.StatusActive},
		{ID: "c", Status: model.StatusPaused},
		{ID: "d", Status: model.StatusCancelled},
		{ID: "e", Status: model.StatusActive},
	}
	asc := ids(Sorted(subs, model.SortStatus, model.SortAsc))
	if !reflect.DeepEqual(asc, []string{"b", "e", "a", "c", "d"}) {
		t.Fatalf("status asc = %v", asc)
	}
	desc := ids(Sorted(subs, model.SortStatus, model.SortDesc))
	if !reflect.DeepEqual(desc, []string{"d", "a", "c", "b", "e"}) {
		t.Fatalf("status desc = %v", desc)
	}
}

func TestSortedByNameIgnoresCase(t *testing.T) {
	subs := []model.Subscription{{ID: "1", Name: "spotify"}, {ID: "2", Name: "Apple Music"}, {ID: "3", Name: "netflix"}}
	got := ids(Sorted(subs, model.SortName, model.SortAsc))
	if !reflect.DeepEqual(got, []string{"2", "3", "1"}) {
		t.Fatalf("name asc = %v", got)
	}
}

func TestUpcomingRenewals(t *testing.T) {
	s, _, _ := newTestStore(t)
	mustAdd(t, s, draft("Later", 10, model.CycleMonthly, testToday.AddDays(6)))
	mustAdd(t, s, draft("Today", 10, model.CycleMonthly, testToday))
	mustAdd(t, s, draft("Outside", 10, model.CycleMonthly, testToday.AddDays(8)))
	mustAdd(t, s, draft("Past", 10, model.CycleMonthly, testToday.AddDays(-1)))
	paused := draft("Paused", 10, model.CycleMonthly, testToday.AddDays(2))
	paused.Status = model.StatusPaused
	mustAdd(t, s, paused)
	mustAdd(t, s, draft("Edge", 10, model.CycleMonthly, testToday.AddDays(7)))

	var names []string
	for _, sub := range s.UpcomingRenewals(7) {
		names = append(names, sub.Name)
	}
	want := []string{"Today", "Later", "Edge"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("UpcomingRenewals = %v, want %v", names, want)
	}
}

func TestFilters(t *testing.T) {
	subs := []model.Subscription{
		{ID: "1", Category: model.CategoryMusic, Status: model.StatusActive, RenewalDate: testToday},
		{ID: "2", Category: model.CategoryGaming, Status: model.StatusPaused, RenewalDate: testToday},
		{ID: "3", Category: model.CategoryMusic, Status: model.StatusActive, RenewalDate: testToday.AddDays(-3)},
	}
	if got := ids(FilterByCategory(subs, model.CategoryMusic)); !reflect.DeepEqual(got, []string{"1", "3"}) {
		t.Fatalf("FilterByCategory = %v", got)
	}
	if got := ids(FilterActive(subs)); !reflect.DeepEqual(got, []string{"1", "3"}) {
		t.Fatalf("FilterActive = %v", got)
	}
	if got := ids(FilterStatus(subs, "expired", testToday)); !reflect.DeepEqual(got, []string{"3"}) {
		t.Fatalf("FilterStatus(expired) = %v", got)
	}
}

func TestSummarize(t *testing.T) {
	subs := []model.Subscription{
		{ID: "1", Cost: 12, BillingCycle: model.CycleMonthly, Status: model.StatusActive, RenewalDate: testToday.AddDays(10), Category: model.CategoryOther},
		{ID: "2", Cost: 12, BillingCycle: model.CycleMonthly, Status: model.StatusActive, RenewalDate: testToday.AddDays(2), Category: model.CategoryOther},
		{ID: "3", Cost: 12, BillingCycle: model.CycleMonthly, Status: model.StatusActive, RenewalDate: testToday.AddDays(-2), Category: model.CategoryOther},
		{ID: "4", Cost: 12, BillingCycle: model.CycleMonthly, Status: model.StatusPaused, RenewalDate: testToday, Category: model.CategoryOther},
	}
	sum := Summarize(subs, testToday)
	if sum.Total != 4 || sum.Active != 2 || sum.Expired != 1 || sum.Paused != 1 {
		t.Fatalf("counts = %+v", sum)
	}
	if sum.NextRenewal == nil || sum.NextRenewal.ID != "2" {
		t.Fatalf("NextRenewal = %+v", sum.NextRenewal)
	}
	if sum.DueThisWeek != 1 {
		t.Fatalf("DueThisWeek = %d, want 1", sum.DueThisWeek)
	}
	if math.Abs(sum.YearlyCost-288) > 1e-9 {
		t.Fatalf("YearlyCost = %v, want 288", sum.YearlyCost)
	}
}

func TestPersistFailureKeepsMemoryState(t *testing.T) {
	s, kv, _ := newTestStore(t)
	mustAdd(t, s, draft("Netflix", 10, model.CycleMonthly, testToday))
	s.Flush()

	kv.SetFailWrites(errors.New("quota exceeded"))
	mustAdd(t, s, draft("Hulu", 8, model.CycleMonthly, testToday))
	s.Flush()

	if s.Len() != 2 {
		t.Fatalf("in-memory Len = %d, want 2", s.Len())
	}
	if err := s.LastPersistError(); !errors.Is(err, ErrPersistence) {
		t.Fatalf("LastPersistError = %v, want ErrPersistence", err)
	}

	kv.SetFailWrites(nil)
	mustAdd(t, s, draft("Max", 9, model.CycleMonthly, testToday))
	s.Flush()
	if err := s.LastPersistError(); err != nil {
		t.Fatalf("LastPersistError after recovery = %v", err)
	}
}

func TestReloadSeesOtherWriters(t *testing.T) {
	s, kv, _ := newTestStore(t)
	mustAdd(t, s, draft("Netflix", 10, model.CycleMonthly, testToday))

	other, err := Open(kv, Options{Clock: clock.At(testToday), NewID: func() string { return "other-1" }})
	if err != nil {
		t.Fatal(err)
	}
	s.Flush()
	if err := other.Reload(); err != nil {
		t.Fatal(err)
	}
	mustAdd(t, other, draft("Hulu", 8, model.CycleMonthly, testToday))
	if err := other.Close(); err != nil {
		t.Fatal(err)
	}

	if err := s.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("Len after reload = %d, want 2", s.Len())
	}
	if _, ok := s.Get("other-1"); !ok {
		t.Fatal("record written by other store not visible")
	}
}

func TestOpenRejectsCorruptData(t *testing.T) {
	kv := store.NewMemory()
	_ = kv.Set(KeySubscriptions, "{not json")
	if _, err := Open(kv, Options{}); !errors.Is(err, ErrParse) {
		t.Fatalf("Open err = %v, want ErrParse", err)
	}
}

func TestOnChangeReceivesCopy(t *testing.T) {
	s, _, _ := newTestStore(t)
	var got []model.Subscription
	s.OnChange(func(subs []model.Subscription) {
		got = subs
		if len(subs) > 0 {
			subs[0].Name = "mutated"
		}
	})
	mustAdd(t, s, draft("Netflix", 10, model.CycleMonthly, testToday))
	if len(got) != 1 {
		t.Fatalf("hook got %d subs, want 1", len(got))
	}
	if cur, _ := s.Get("sub-1"); cur.Name != "Netflix" {
		t.Fatal("hook mutation leaked into store")
	}
}

func TestConcurrentMutations(t *testing.T) {
	s, kv, _ := newTestStore(t)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = s.Add(draft(fmt.Sprintf("Service %02d", i), 5, model.CycleMonthly, testToday))
			_ = s.List()
		}(i)
	}
	wg.Wait()
	s.Flush()

	raw, _, _ := kv.Get(KeySubscriptions)
	var stored []model.Subscription
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		t.Fatal(err)
	}
	if len(stored) != 20 || s.Len() != 20 {
		t.Fatalf("stored %d, memory %d, want 20", len(stored), s.Len())
	}
}

func ids(subs []model.Subscription) []string {
	out := make([]string, len(subs))
	for i, s := range subs {
		out[i] = s.ID
	}
	return out
}
