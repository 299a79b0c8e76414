// Package seed loads the demo data set: two associations, their rooms and
// weekly slots, a couple of members and some reservation history. It exists
// so a freshly started instance is immediately explorable.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/example/tabletop-booking/internal/application"
)

// Target is the write surface both stores expose for loading records
// verbatim, bypassing the command-side checks.
type Target interface {
	PutUser(ctx context.Context, creds application.UserCredentials) error
	PutAssociation(ctx context.Context, assoc application.Association) error
	PutMembership(ctx context.Context, membership application.Membership) error
	PutRoom(ctx context.Context, room application.Room) error
	PutReservation(ctx context.Context, reservation application.Reservation) error
}

// Demo password for every seeded account.
const demoPassword = "d20-demo"

// Apply loads the demo data set into the target store.
func Apply(ctx context.Context, target Target) error {
	now := time.Date(2026, time.January, 12, 10, 0, 0, 0, time.UTC)

	hash, err := application.CreatePasswordHash(demoPassword, application.DefaultArgon2idParams)
	if err != nil {
		return fmt.Errorf("failed to hash demo password: %w", err)
	}

	users := []application.UserCredentials{
		{
			User:         application.User{ID: "u_admin", Email: "gandalf@example.com", DisplayName: "Gandalf", CreatedAt: now, UpdatedAt: now},
			PasswordHash: hash,
		},
		{
			User:         application.User{ID: "u_player", Email: "frodon@example.com", DisplayName: "Frodon", CreatedAt: now, UpdatedAt: now},
			PasswordHash: hash,
		},
	}
	for _, creds := range users {
		if err := target.PutUser(ctx, creds); err != nil {
			return fmt.Errorf("failed to seed user %s: %w", creds.User.ID, err)
		}
	}

	associations := []application.Association{
		{ID: "a1", Name: "L'Ordre du D20", Description: "Club de jeux de rôle et de plateau", MemberCount: 2, CreatedAt: now, UpdatedAt: now},
		{ID: "a2", Name: "Les Aventuriers du Dimanche", Description: "Parties dominicales en famille", MemberCount: 1, CreatedAt: now, UpdatedAt: now},
	}
	for _, assoc := range associations {
		if err := target.PutAssociation(ctx, assoc); err != nil {
			return fmt.Errorf("failed to seed association %s: %w", assoc.ID, err)
		}
	}

	memberships := []application.Membership{
		{UserID: "u_admin", AssociationID: "a1", Role: application.RoleAdmin, CreatedAt: now},
		{UserID: "u_admin", AssociationID: "a2", Role: application.RolePlayer, CreatedAt: now},
		{UserID: "u_player", AssociationID: "a1", Role: application.RolePlayer, CreatedAt: now},
	}
	for _, membership := range memberships {
		if err := target.PutMembership(ctx, membership); err != nil {
			return fmt.Errorf("failed to seed membership %s/%s: %w", membership.UserID, membership.AssociationID, err)
		}
	}

	rooms := []application.Room{
		{
			ID:            "r1",
			AssociationID: "a1",
			Name:          "La Taverne",
			Description:   "Salle principale avec grande table",
			Capacity:      5,
			WeeklySlots: []application.WeeklySlot{
				{ID: "ws1", Name: "Soirée", DayOfWeek: "FRIDAY", StartTime: "19:00", EndTime: "23:00"},
			},
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ID:            "r2",
			AssociationID: "a1",
			Name:          "Le Donjon",
			Description:   "Petite salle au sous-sol",
			Capacity:      8,
			CreatedAt:     now,
			UpdatedAt:     now,
		},
	}
	for _, room := range rooms {
		if err := target.PutRoom(ctx, room); err != nil {
			return fmt.Errorf("failed to seed room %s: %w", room.ID, err)
		}
	}

	reservations := []application.Reservation{
		{
			ID: "res1", RoomID: "r1", Date: "2026-01-20", StartTime: "19:00", EndTime: "23:00",
			Status: application.ReservationBooked, UserID: "u_player", GameName: "Pathfinder", MaxPlayers: 4,
			CreatedAt: now, UpdatedAt: now,
		},
		{
			ID: "res2", RoomID: "r1", Date: "2026-01-23", StartTime: "19:00", EndTime: "23:00",
			Status: application.ReservationPending, UserID: "u_player", GameName: "L'Appel de Cthulhu", MaxPlayers: 4,
			CreatedAt: now, UpdatedAt: now,
		},
	}
	for _, reservation := range reservations {
		if err := target.PutReservation(ctx, reservation); err != nil {
			return fmt.Errorf("failed to seed reservation %s: %w", reservation.ID, err)
		}
	}

	return nil
}
