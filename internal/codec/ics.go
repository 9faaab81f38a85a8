package codec

import (
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/theirongolddev/subtrack/internal/model"
)

const (
	icsProductID = "-//subtrack//Subscription Renewals//EN"
	icsCalName   = "Subscription Renewals"
	icsUIDDomain = "subtrack.local"
)

// RRule returns the recurrence rule for a billing cycle.
func RRule(c model.BillingCycle) string {
	switch c {
	case model.CycleQuarterly:
		return "FREQ=MONTHLY;INTERVAL=3"
	case model.CycleBiAnnual:
		return "FREQ=MONTHLY;INTERVAL=6"
	case model.CycleYearly:
		return "FREQ=YEARLY"
	default:
		return "FREQ=MONTHLY"
	}
}

// EncodeICS renders one recurring all-day event per active subscription.
// It returns an empty string when there is nothing to export.
func EncodeICS(subs []model.Subscription, stamp time.Time) string {
	var active []model.Subscription
	for _, s := range subs {
		if s.Status == model.StatusActive {
			active = append(active, s)
		}
	}
	if len(active) == 0 {
		return ""
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(icsProductID)
	cal.SetCalscale("GREGORIAN")
	cal.SetXWRCalName(icsCalName)
	cal.SetXWRTimezone("UTC")

	for _, s := range active {
		ev := cal.AddEvent(fmt.Sprintf("%s@%s", s.ID, icsUIDDomain))
		ev.SetDtStampTime(stamp.UTC())
		ev.SetAllDayStartAt(s.RenewalDate.Time())
		ev.SetSummary(s.Name + " - Subscription Renewal")
		ev.SetDescription(eventDescription(s))
		location := s.Provider
		if location == "" {
			location = "Online"
		}
		ev.SetLocation(location)
		ev.AddProperty(ics.ComponentPropertyCategories, string(s.Category))
		ev.AddRrule(RRule(s.BillingCycle))

		alarm := ev.AddAlarm()
		alarm.SetAction(ics.ActionDisplay)
		alarm.SetTrigger(fmt.Sprintf("-P%dD", s.ReminderDaysBefore))
		alarm.SetProperty(ics.ComponentPropertyDescription, s.Name+" subscription renews soon")
	}

	return cal.Serialize()
}

func eventDescription(s model.Subscription) string {
	var b strings.Builder
	if s.Provider != "" {
		fmt.Fprintf(&b, "Provider: %s\n", s.Provider)
	}
	fmt.Fprintf(&b, "Cost: %.2f %s\n", s.Cost, s.Currency)
	fmt.Fprintf(&b, "Billing: %s\n", s.BillingCycle)
	fmt.Fprintf(&b, "Reminder: %d days", s.ReminderDaysBefore)
	if s.Notes != "" {
		fmt.Fprintf(&b, "\nNotes: %s", s.Notes)
	}
	return b.String()
}
