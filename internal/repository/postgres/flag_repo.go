package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"eventplanner/internal/domain"

	"github.com/lib/pq"
)

const flagColumns = `id, event_id, user_id, reason, status, created_at, updated_at`

type flagRepository struct {
	DB *sql.DB
}

// NewFlagRepository returns a domain.FlagRepository implemented with Postgres.
func NewFlagRepository(db *sql.DB) domain.FlagRepository {
	return &flagRepository{DB: db}
}

func scanFlag(row rowScanner) (*domain.Flag, error) {
	f := &domain.Flag{}
	var status string
	var updatedAt sql.NullTime
	if err := row.Scan(&f.ID, &f.EventID, &f.UserID, &f.Reason, &status, &f.CreatedAt, &updatedAt); err != nil {
		return nil, err
	}
	f.Status = domain.FlagStatus(status)
	if updatedAt.Valid {
		f.UpdatedAt = &updatedAt.Time
	}
	return f, nil
}

// Create stores a new flag. A second flag from the same user on the same event
// hits the (event_id, user_id) unique constraint and returns ErrAlreadyFlagged.
func (r *flagRepository) Create(ctx context.Context, f *domain.Flag) error {
	query := `
		INSERT INTO event_flags (id, event_id, user_id, reason, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.DB.ExecContext(ctx, query, f.ID, f.EventID, f.UserID, f.Reason, string(f.Status), f.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyFlagged
		}
		var perr *pq.Error
		if errors.As(err, &perr) && perr.Code == "23503" {
			return domain.ErrNotFound
		}
		return err
	}
	return nil
}

func (r *flagRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.Flag, error) {
	query := `SELECT ` + flagColumns + ` FROM event_flags WHERE event_id = $1 ORDER BY created_at, id`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	flags := make([]*domain.Flag, 0)
	for rows.Next() {
		f, err := scanFlag(rows)
		if err != nil {
			return nil, err
		}
		flags = append(flags, f)
	}
	return flags, rows.Err()
}

// ListByEventIDs loads flags for several events in one query, keyed by event ID.
func (r *flagRepository) ListByEventIDs(ctx context.Context, eventIDs []string) (map[string][]*domain.Flag, error) {
	out := make(map[string][]*domain.Flag, len(eventIDs))
	if len(eventIDs) == 0 {
		return out, nil
	}
	query := `SELECT ` + flagColumns + ` FROM event_flags WHERE event_id = ANY($1) ORDER BY created_at, id`
	rows, err := r.DB.QueryContext(ctx, query, pq.Array(eventIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		f, err := scanFlag(rows)
		if err != nil {
			return nil, err
		}
		out[f.EventID] = append(out[f.EventID], f)
	}
	return out, rows.Err()
}

// UpdateStatus sets the flag's status under a row lock. Setting the status it already
// has changes nothing, updated_at included.
func (r *flagRepository) UpdateStatus(ctx context.Context, eventID, flagID string, status domain.FlagStatus) (*domain.Flag, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	selectQuery := `SELECT ` + flagColumns + ` FROM event_flags WHERE id = $1 AND event_id = $2 FOR UPDATE`
	current, err := scanFlag(tx.QueryRowContext(ctx, selectQuery, flagID, eventID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidID(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if current.Status == status {
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("commit: %w", err)
		}
		return current, nil
	}

	updateQuery := `UPDATE event_flags SET status = $1, updated_at = NOW() WHERE id = $2 RETURNING updated_at`
	var updatedAt sql.NullTime
	if err := tx.QueryRowContext(ctx, updateQuery, string(status), flagID).Scan(&updatedAt); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	current.Status = status
	if updatedAt.Valid {
		current.UpdatedAt = &updatedAt.Time
	}
	return current, nil
}
