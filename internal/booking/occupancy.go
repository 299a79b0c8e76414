package booking

// Status enumerates the lifecycle states of a reservation record.
type Status string

const (
	// StatusPending marks a reservation awaiting an admin decision.
	StatusPending Status = "PENDING"
	// StatusBooked marks a reservation approved by an association admin.
	StatusBooked Status = "BOOKED"
	// StatusRejected marks a reservation declined by an association admin.
	StatusRejected Status = "REJECTED"
)

// Reservation is the minimal view of a reservation needed to decide cell
// occupancy. A cell is the (room, date, start time) triple.
type Reservation struct {
	ID        string
	RoomID    string
	Date      string
	StartTime string
	Status    Status
}

// Occupant returns the reservation occupying the given cell, if any.
// Rejected reservations never occupy a cell. When several non-rejected
// reservations match the same cell, a booked one wins over a pending one.
func Occupant(reservations []Reservation, roomID, date, startTime string) (Reservation, bool) {
	var pending Reservation
	foundPending := false

	for _, res := range reservations {
		if res.Status == StatusRejected {
			continue
		}
		if res.RoomID != roomID || res.Date != date || res.StartTime != startTime {
			continue
		}
		if res.Status == StatusBooked {
			return res, true
		}
		if !foundPending {
			pending = res
			foundPending = true
		}
	}

	return pending, foundPending
}

// IsBooked reports whether a booked reservation already holds the cell.
func IsBooked(reservations []Reservation, roomID, date, startTime string) bool {
	occupant, ok := Occupant(reservations, roomID, date, startTime)
	return ok && occupant.Status == StatusBooked
}
