package availability

import (
	"time"

	"github.com/example/tabletop-booking/internal/booking"
)

// SlotStatus is the resolved occupancy of one calendar cell.
type SlotStatus string

const (
	// SlotAvailable marks a cell no reservation currently claims.
	SlotAvailable SlotStatus = "AVAILABLE"
	// SlotPending marks a cell claimed by a reservation awaiting a decision.
	SlotPending SlotStatus = "PENDING"
	// SlotBooked marks a cell held by an approved reservation.
	SlotBooked SlotStatus = "BOOKED"
)

// Template is a recurring weekly opportunity to book a room. Templates are
// immutable and are the only source of bookable calendar cells.
type Template struct {
	ID        string
	Name      string
	Day       Weekday
	StartTime string
	EndTime   string
}

// Slot is one derived calendar cell: a template instantiated on a concrete
// date with its occupancy resolved against the reservation set. Slots are
// recomputed on every query and never stored.
type Slot struct {
	Date          string
	Day           Weekday
	StartTime     string
	EndTime       string
	Status        SlotStatus
	ReservationID string
	TemplateID    string
}

// ResolveWeek projects a room's weekly slot templates onto the 7-day window
// starting at weekStart and overlays reservation state on each cell.
//
// weekStart is normalized to its Monday, so any reference date inside the
// intended week yields the same window. Output is day-major: all slots for
// day 0 of the week before day 1, templates in declaration order within a
// day. The function is pure; it never consults the wall clock.
func ResolveWeek(roomID string, templates []Template, weekStart time.Time, reservations []booking.Reservation) []Slot {
	start := StartOfWeek(weekStart)
	slots := make([]Slot, 0, len(templates))

	for offset := 0; offset < 7; offset++ {
		day := AddDays(start, offset)
		date := FormatDate(day)
		weekday := WeekdayOf(day)

		for _, tpl := range templates {
			if tpl.Day != weekday {
				continue
			}

			slot := Slot{
				Date:       date,
				Day:        weekday,
				StartTime:  tpl.StartTime,
				EndTime:    tpl.EndTime,
				Status:     SlotAvailable,
				TemplateID: tpl.ID,
			}

			if occupant, ok := booking.Occupant(reservations, roomID, date, tpl.StartTime); ok {
				slot.ReservationID = occupant.ID
				if occupant.Status == booking.StatusBooked {
					slot.Status = SlotBooked
				} else {
					slot.Status = SlotPending
				}
			}

			slots = append(slots, slot)
		}
	}

	return slots
}
