package postgres

import (
	"context"
	"database/sql"
	"errors"

	"eventplanner/internal/domain"
)

const guestColumns = `id, event_id, user_id, name, email, role, notes, rsvp_status, created_at, updated_at`

type guestRepository struct {
	DB *sql.DB
}

// NewGuestRepository returns a domain.GuestRepository implemented with Postgres.
func NewGuestRepository(db *sql.DB) domain.GuestRepository {
	return &guestRepository{DB: db}
}

func scanGuest(row rowScanner) (*domain.Guest, error) {
	g := &domain.Guest{}
	var userID, role, notes sql.NullString
	var status string
	if err := row.Scan(&g.ID, &g.EventID, &userID, &g.Name, &g.Email, &role, &notes, &status, &g.CreatedAt, &g.UpdatedAt); err != nil {
		return nil, err
	}
	g.RSVPStatus = domain.RSVPStatus(status)
	if userID.Valid {
		g.UserID = &userID.String
	}
	if role.Valid {
		g.Role = &role.String
	}
	if notes.Valid {
		g.Notes = &notes.String
	}
	return g, nil
}

// Add inserts one guest. The unique index on (event_id, lower(email)) makes a second
// add of the same address a no-op that reports ErrGuestExists.
func (r *guestRepository) Add(ctx context.Context, g *domain.Guest) error {
	query := `
		INSERT INTO event_guests (id, event_id, user_id, name, email, role, notes, rsvp_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (event_id, lower(email)) DO NOTHING
		RETURNING id
	`
	var id string
	err := r.DB.QueryRowContext(ctx, query,
		g.ID, g.EventID, nullString(g.UserID), g.Name, g.Email, nullString(g.Role), nullString(g.Notes),
		string(g.RSVPStatus), g.CreatedAt, g.UpdatedAt,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrGuestExists
		}
		return err
	}
	return nil
}

func (r *guestRepository) GetByID(ctx context.Context, eventID, guestID string) (*domain.Guest, error) {
	query := `SELECT ` + guestColumns + ` FROM event_guests WHERE id = $1 AND event_id = $2`
	g, err := scanGuest(r.DB.QueryRowContext(ctx, query, guestID, eventID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidID(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return g, nil
}

func (r *guestRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.Guest, error) {
	query := `SELECT ` + guestColumns + ` FROM event_guests WHERE event_id = $1 ORDER BY created_at, id`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	guests := make([]*domain.Guest, 0)
	for rows.Next() {
		g, err := scanGuest(rows)
		if err != nil {
			return nil, err
		}
		guests = append(guests, g)
	}
	return guests, rows.Err()
}

// UpdateRSVP replaces the guest's status in place; readers never observe the guest missing.
func (r *guestRepository) UpdateRSVP(ctx context.Context, eventID, guestID string, status domain.RSVPStatus, linkUserID *string) (*domain.Guest, error) {
	query := `
		UPDATE event_guests
		SET rsvp_status = $1, user_id = COALESCE($2, user_id), updated_at = NOW()
		WHERE id = $3 AND event_id = $4
		RETURNING ` + guestColumns
	g, err := scanGuest(r.DB.QueryRowContext(ctx, query, string(status), nullString(linkUserID), guestID, eventID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidID(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return g, nil
}
