package postgres

import (
	"context"
	"database/sql"
	"errors"

	"eventplanner/internal/domain"
)

const eventColumns = `id, title, description, image_ref, date, location, owner_id, owner_email, is_public, created_at, updated_at`

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*domain.Event, error) {
	e := &domain.Event{}
	var imageRef, ownerEmail sql.NullString
	if err := row.Scan(
		&e.ID, &e.Title, &e.Description, &imageRef, &e.Date, &e.Location,
		&e.OwnerID, &ownerEmail, &e.IsPublic, &e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if imageRef.Valid {
		e.ImageRef = &imageRef.String
	}
	if ownerEmail.Valid {
		e.OwnerEmail = &ownerEmail.String
	}
	return e, nil
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	query := `
		INSERT INTO events (title, description, image_ref, date, location, owner_id, owner_email, is_public, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query,
		e.Title, e.Description, nullString(e.ImageRef), e.Date, e.Location,
		e.OwnerID, nullString(e.OwnerEmail), e.IsPublic, e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidID(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

// Update overwrites the editable fields. owner_id, owner_email and created_at are never written;
// image_ref is kept when e.ImageRef is nil.
func (r *eventRepository) Update(ctx context.Context, e *domain.Event) (*domain.Event, error) {
	query := `
		UPDATE events
		SET title = $1, description = $2, date = $3, location = $4, is_public = $5,
			image_ref = COALESCE($6, image_ref), updated_at = NOW()
		WHERE id = $7
		RETURNING ` + eventColumns
	updated, err := scanEvent(r.DB.QueryRowContext(ctx, query,
		e.Title, e.Description, e.Date, e.Location, e.IsPublic, nullString(e.ImageRef), e.ID,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidID(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return updated, nil
}

func (r *eventRepository) ListPublic(ctx context.Context, params domain.PaginationParams) ([]*domain.Event, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM events WHERE is_public = TRUE`).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE is_public = TRUE
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	events, err := r.list(ctx, query, params.Limit(), params.Offset())
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

func (r *eventRepository) ListByOwnerID(ctx context.Context, ownerID string) ([]*domain.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`
	return r.list(ctx, query, ownerID)
}

// ListFlagged returns events that carry at least one flag, newest first.
func (r *eventRepository) ListFlagged(ctx context.Context, params domain.PaginationParams) ([]*domain.Event, int, error) {
	const flagged = `EXISTS (SELECT 1 FROM event_flags f WHERE f.event_id = events.id)`
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM events WHERE `+flagged).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE ` + flagged + `
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
	events, err := r.list(ctx, query, params.Limit(), params.Offset())
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

func (r *eventRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Event, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// Delete removes the event; guests and flags go with it (ON DELETE CASCADE).
func (r *eventRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM events WHERE id = $1`
	result, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		if isInvalidID(err) {
			return domain.ErrNotFound
		}
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
