package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/tabletop-booking/internal/application"
	"github.com/example/tabletop-booking/internal/availability"
	"github.com/example/tabletop-booking/internal/persistence"
)

func formatTime(value time.Time) string {
	return value.UTC().Format(time.RFC3339)
}

func parseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, value)
}

// PutUser inserts or replaces a user with credentials.
func (s *Store) PutUser(ctx context.Context, creds application.UserCredentials) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, display_name, password_hash, disabled, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			email = excluded.email,
			display_name = excluded.display_name,
			password_hash = excluded.password_hash,
			disabled = excluded.disabled,
			updated_at = excluded.updated_at
	`,
		creds.User.ID,
		creds.User.Email,
		creds.User.DisplayName,
		creds.PasswordHash,
		boolToInt(creds.Disabled),
		formatTime(creds.User.CreatedAt),
		formatTime(creds.User.UpdatedAt),
	)
	return mapError(err)
}

// PutAssociation inserts or replaces an association.
func (s *Store) PutAssociation(ctx context.Context, assoc application.Association) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO associations (id, name, description, member_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			member_count = excluded.member_count,
			updated_at = excluded.updated_at
	`,
		assoc.ID,
		assoc.Name,
		assoc.Description,
		assoc.MemberCount,
		formatTime(assoc.CreatedAt),
		formatTime(assoc.UpdatedAt),
	)
	return mapError(err)
}

// PutMembership inserts or replaces a role binding.
func (s *Store) PutMembership(ctx context.Context, membership application.Membership) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO memberships (user_id, association_id, role, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id, association_id) DO UPDATE SET role = excluded.role
	`,
		membership.UserID,
		membership.AssociationID,
		string(membership.Role),
		formatTime(membership.CreatedAt),
	)
	return mapError(err)
}

// PutRoom inserts or replaces a room together with its weekly slots.
func (s *Store) PutRoom(ctx context.Context, room application.Room) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO rooms (id, association_id, name, description, capacity, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				association_id = excluded.association_id,
				name = excluded.name,
				description = excluded.description,
				capacity = excluded.capacity,
				updated_at = excluded.updated_at
		`,
			room.ID,
			room.AssociationID,
			room.Name,
			room.Description,
			room.Capacity,
			formatTime(room.CreatedAt),
			formatTime(room.UpdatedAt),
		)
		if err != nil {
			return mapError(err)
		}

		if _, err := tx.Exec(`DELETE FROM weekly_slots WHERE room_id = ?`, room.ID); err != nil {
			return mapError(err)
		}
		for position, slot := range room.WeeklySlots {
			_, err := tx.Exec(`
				INSERT INTO weekly_slots (id, room_id, name, day_of_week, start_time, end_time, position)
				VALUES (?, ?, ?, ?, ?, ?, ?)
			`,
				slot.ID,
				room.ID,
				slot.Name,
				string(slot.DayOfWeek),
				slot.StartTime,
				slot.EndTime,
				position,
			)
			if err != nil {
				return mapError(err)
			}
		}
		return nil
	})
}

// PutReservation inserts or replaces a reservation without cell checks.
func (s *Store) PutReservation(ctx context.Context, reservation application.Reservation) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reservations (id, room_id, date, start_time, end_time, status, user_id, game_name, max_players, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			updated_at = excluded.updated_at
	`,
		reservation.ID,
		reservation.RoomID,
		reservation.Date,
		reservation.StartTime,
		reservation.EndTime,
		string(reservation.Status),
		reservation.UserID,
		reservation.GameName,
		reservation.MaxPlayers,
		formatTime(reservation.CreatedAt),
		formatTime(reservation.UpdatedAt),
	)
	return mapError(err)
}

// GetUser implements application.CredentialStore.
func (s *Store) GetUser(ctx context.Context, id string) (application.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, email, display_name, created_at, updated_at FROM users WHERE id = ?
	`, id)
	return scanUser(row)
}

// GetUserCredentialsByEmail implements application.CredentialStore.
func (s *Store) GetUserCredentialsByEmail(ctx context.Context, email string) (application.UserCredentials, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, email, display_name, password_hash, disabled, created_at, updated_at
		FROM users WHERE email = ? COLLATE NOCASE
	`, strings.TrimSpace(email))

	var creds application.UserCredentials
	var disabled int
	var createdAt, updatedAt string
	err := row.Scan(
		&creds.User.ID,
		&creds.User.Email,
		&creds.User.DisplayName,
		&creds.PasswordHash,
		&disabled,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return application.UserCredentials{}, mapError(err)
	}
	creds.Disabled = disabled != 0
	if creds.User.CreatedAt, err = parseTime(createdAt); err != nil {
		return application.UserCredentials{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if creds.User.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return application.UserCredentials{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return creds, nil
}

// GetAssociation implements application.AssociationCatalog.
func (s *Store) GetAssociation(ctx context.Context, id string) (application.Association, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, member_count, created_at, updated_at FROM associations WHERE id = ?
	`, id)
	return scanAssociation(row)
}

// ListAssociations implements application.AssociationLister.
func (s *Store) ListAssociations(ctx context.Context) ([]application.Association, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, member_count, created_at, updated_at FROM associations ORDER BY id
	`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var out []application.Association
	for rows.Next() {
		assoc, err := scanAssociation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, assoc)
	}
	return out, mapError(rows.Err())
}

// ListMemberships implements application.MembershipDirectory.
func (s *Store) ListMemberships(ctx context.Context, userID string) ([]application.Membership, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, association_id, role, created_at FROM memberships WHERE user_id = ? ORDER BY association_id
	`, userID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var out []application.Membership
	for rows.Next() {
		var membership application.Membership
		var role, createdAt string
		if err := rows.Scan(&membership.UserID, &membership.AssociationID, &role, &createdAt); err != nil {
			return nil, mapError(err)
		}
		membership.Role = application.Role(role)
		if membership.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		out = append(out, membership)
	}
	return out, mapError(rows.Err())
}

// GetRoom implements application.RoomCatalog.
func (s *Store) GetRoom(ctx context.Context, id string) (application.Room, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, association_id, name, description, capacity, created_at, updated_at FROM rooms WHERE id = ?
	`, id)
	room, err := scanRoom(row)
	if err != nil {
		return application.Room{}, err
	}
	if room.WeeklySlots, err = s.listWeeklySlots(ctx, room.ID); err != nil {
		return application.Room{}, err
	}
	return room, nil
}

// ListRooms implements application.RoomCatalog.
func (s *Store) ListRooms(ctx context.Context, associationID string) ([]application.Room, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, association_id, name, description, capacity, created_at, updated_at
		FROM rooms WHERE association_id = ? ORDER BY id
	`, associationID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var out []application.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, room)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	for i := range out {
		if out[i].WeeklySlots, err = s.listWeeklySlots(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Store) listWeeklySlots(ctx context.Context, roomID string) ([]application.WeeklySlot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, day_of_week, start_time, end_time FROM weekly_slots WHERE room_id = ? ORDER BY position
	`, roomID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var out []application.WeeklySlot
	for rows.Next() {
		var slot application.WeeklySlot
		var day string
		if err := rows.Scan(&slot.ID, &slot.Name, &day, &slot.StartTime, &slot.EndTime); err != nil {
			return nil, mapError(err)
		}
		slot.DayOfWeek = availability.Weekday(day)
		out = append(out, slot)
	}
	return out, mapError(rows.Err())
}

// CreateReservation implements application.ReservationRepository. The partial
// unique index on booked cells backs the conflict guarantee.
func (s *Store) CreateReservation(ctx context.Context, reservation application.Reservation) (application.Reservation, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reservations (id, room_id, date, start_time, end_time, status, user_id, game_name, max_players, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		reservation.ID,
		reservation.RoomID,
		reservation.Date,
		reservation.StartTime,
		reservation.EndTime,
		string(reservation.Status),
		reservation.UserID,
		reservation.GameName,
		reservation.MaxPlayers,
		formatTime(reservation.CreatedAt),
		formatTime(reservation.UpdatedAt),
	)
	if err != nil {
		return application.Reservation{}, mapError(err)
	}
	return reservation, nil
}

// GetReservation implements application.ReservationRepository.
func (s *Store) GetReservation(ctx context.Context, id string) (application.Reservation, error) {
	row := s.db.QueryRowContext(ctx, reservationSelect+` WHERE id = ?`, id)
	return scanReservation(row)
}

// DecideReservation implements application.ReservationRepository. The pending
// guard and the status update run in one transaction; the booked-cell index
// rejects an approval that would double-book the cell.
func (s *Store) DecideReservation(ctx context.Context, id string, status application.ReservationStatus, decidedAt time.Time) (application.Reservation, error) {
	var decided application.Reservation
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRow(reservationSelect+` WHERE id = ?`, id)
		current, err := scanReservation(row)
		if err != nil {
			return err
		}
		if current.Status != application.ReservationPending {
			return persistence.ErrInvalidState
		}

		if _, err := tx.Exec(`
			UPDATE reservations SET status = ?, updated_at = ? WHERE id = ?
		`, string(status), formatTime(decidedAt), id); err != nil {
			return mapError(err)
		}

		current.Status = status
		current.UpdatedAt = decidedAt.UTC()
		decided = current
		return nil
	})
	if err != nil {
		return application.Reservation{}, err
	}
	return decided, nil
}

// ListReservations implements application.ReservationRepository.
func (s *Store) ListReservations(ctx context.Context, filter application.ReservationFilter) ([]application.Reservation, error) {
	query := reservationSelect
	var clauses []string
	var args []any

	if filter.RoomID != "" {
		clauses = append(clauses, "room_id = ?")
		args = append(args, filter.RoomID)
	}
	if filter.UserID != "" {
		clauses = append(clauses, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if len(filter.AssociationIDs) > 0 {
		placeholders := strings.Repeat("?,", len(filter.AssociationIDs))
		clauses = append(clauses, fmt.Sprintf("room_id IN (SELECT id FROM rooms WHERE association_id IN (%s))", placeholders[:len(placeholders)-1]))
		for _, id := range filter.AssociationIDs {
			args = append(args, id)
		}
	}
	if len(filter.Statuses) > 0 {
		placeholders := strings.Repeat("?,", len(filter.Statuses))
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", placeholders[:len(placeholders)-1]))
		for _, status := range filter.Statuses {
			args = append(args, string(status))
		}
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var out []application.Reservation
	for rows.Next() {
		reservation, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, reservation)
	}
	return out, mapError(rows.Err())
}

// CreateSession implements application.SessionRepository.
func (s *Store) CreateSession(ctx context.Context, session application.Session) (application.Session, error) {
	var revokedAt sql.NullString
	if session.RevokedAt != nil {
		revokedAt = sql.NullString{String: formatTime(*session.RevokedAt), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, token, expires_at, revoked_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		session.ID,
		session.UserID,
		session.Token,
		formatTime(session.ExpiresAt),
		revokedAt,
		formatTime(session.CreatedAt),
		formatTime(session.UpdatedAt),
	)
	if err != nil {
		return application.Session{}, mapError(err)
	}
	return session, nil
}

// GetSession implements application.SessionRepository.
func (s *Store) GetSession(ctx context.Context, token string) (application.Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, token, expires_at, revoked_at, created_at, updated_at FROM sessions WHERE token = ?
	`, token)
	return scanSession(row)
}

// RevokeSession implements application.SessionRepository.
func (s *Store) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (application.Session, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET revoked_at = ?, updated_at = ? WHERE token = ?
	`, formatTime(revokedAt), formatTime(revokedAt), token)
	if err != nil {
		return application.Session{}, mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return application.Session{}, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return application.Session{}, persistence.ErrNotFound
	}
	return s.GetSession(ctx, token)
}

// DeleteExpiredSessions implements application.SessionRepository.
func (s *Store) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM sessions WHERE expires_at <= ?
	`, formatTime(reference))
	return mapError(err)
}

const reservationSelect = `
	SELECT id, room_id, date, start_time, end_time, status, user_id, game_name, max_players, created_at, updated_at
	FROM reservations`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (application.User, error) {
	var user application.User
	var createdAt, updatedAt string
	err := row.Scan(&user.ID, &user.Email, &user.DisplayName, &createdAt, &updatedAt)
	if err != nil {
		return application.User{}, mapError(err)
	}
	if user.CreatedAt, err = parseTime(createdAt); err != nil {
		return application.User{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if user.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return application.User{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return user, nil
}

func scanAssociation(row rowScanner) (application.Association, error) {
	var assoc application.Association
	var createdAt, updatedAt string
	err := row.Scan(&assoc.ID, &assoc.Name, &assoc.Description, &assoc.MemberCount, &createdAt, &updatedAt)
	if err != nil {
		return application.Association{}, mapError(err)
	}
	if assoc.CreatedAt, err = parseTime(createdAt); err != nil {
		return application.Association{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if assoc.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return application.Association{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return assoc, nil
}

func scanRoom(row rowScanner) (application.Room, error) {
	var room application.Room
	var createdAt, updatedAt string
	err := row.Scan(&room.ID, &room.AssociationID, &room.Name, &room.Description, &room.Capacity, &createdAt, &updatedAt)
	if err != nil {
		return application.Room{}, mapError(err)
	}
	if room.CreatedAt, err = parseTime(createdAt); err != nil {
		return application.Room{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if room.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return application.Room{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return room, nil
}

func scanReservation(row rowScanner) (application.Reservation, error) {
	var reservation application.Reservation
	var status, createdAt, updatedAt string
	err := row.Scan(
		&reservation.ID,
		&reservation.RoomID,
		&reservation.Date,
		&reservation.StartTime,
		&reservation.EndTime,
		&status,
		&reservation.UserID,
		&reservation.GameName,
		&reservation.MaxPlayers,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return application.Reservation{}, mapError(err)
	}
	reservation.Status = application.ReservationStatus(status)
	if reservation.CreatedAt, err = parseTime(createdAt); err != nil {
		return application.Reservation{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if reservation.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return application.Reservation{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return reservation, nil
}

func scanSession(row rowScanner) (application.Session, error) {
	var session application.Session
	var expiresAt, createdAt, updatedAt string
	var revokedAt sql.NullString
	err := row.Scan(&session.ID, &session.UserID, &session.Token, &expiresAt, &revokedAt, &createdAt, &updatedAt)
	if err != nil {
		return application.Session{}, mapError(err)
	}
	if session.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return application.Session{}, fmt.Errorf("failed to parse expires_at: %w", err)
	}
	if session.CreatedAt, err = parseTime(createdAt); err != nil {
		return application.Session{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if session.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return application.Session{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	if revokedAt.Valid {
		parsed, err := parseTime(revokedAt.String)
		if err != nil {
			return application.Session{}, fmt.Errorf("failed to parse revoked_at: %w", err)
		}
		session.RevokedAt = &parsed
	}
	return session, nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
