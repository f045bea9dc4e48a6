// Package ics exports deadline occurrences as an iCalendar feed.
package ics

import (
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"osld-portal/internal/deadline"
)

const productID = "-//OSLD Portal//Report Deadlines//EN"

// UID is the stable identifier of an occurrence inside calendar clients
func UID(occ deadline.Occurrence) string {
	return fmt.Sprintf("deadline-%d-%s@osld-portal", occ.EventID, occ.Kind)
}

// Export renders occurrences as all-day VEVENTs. stamp is written as DTSTAMP.
func Export(name string, occurrences []deadline.Occurrence, stamp time.Time) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	cal.SetXWRCalName(name)

	for _, occ := range occurrences {
		ev := cal.AddEvent(UID(occ))
		ev.SetDtStampTime(stamp.UTC())
		ev.SetAllDayStartAt(occ.DueDate)
		ev.SetAllDayEndAt(occ.DueDate.AddDate(0, 0, 1))
		ev.SetSummary(fmt.Sprintf("%s due: %s", occ.Kind.Label(), occ.EventTitle))
		ev.SetDescription(description(occ))
		ev.AddProperty(ical.ComponentPropertyCategories, strings.ToUpper(string(occ.Kind)))
	}

	return cal.Serialize()
}

func description(occ deadline.Occurrence) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s for %s (event ended %s).", occ.Kind.Label(), occ.EventTitle, occ.EventEnd.Format("January 2, 2006"))
	fmt.Fprintf(&b, " Target: %s.", occ.Target)
	if occ.Overridden {
		b.WriteString(" Deadline extended by appeal.")
	}
	return b.String()
}
