package domain

import (
	"context"
	"errors"
	"time"
)

// MinFlagReasonLength is the minimum trimmed length of a flag reason.
const MinFlagReasonLength = 10

// Flag workflow errors.
var (
	ErrFlagReasonTooShort = errors.New("flag reason must be at least 10 characters")
	ErrAlreadyFlagged     = errors.New("you have already flagged this event")
)

// FlagStatus is the review state of a moderation flag. Admins may move a flag between any two states.
type FlagStatus string

const (
	FlagPending  FlagStatus = "pending"
	FlagReviewed FlagStatus = "reviewed"
	FlagResolved FlagStatus = "resolved"
)

// Valid reports whether s is one of the known flag states.
func (s FlagStatus) Valid() bool {
	switch s {
	case FlagPending, FlagReviewed, FlagResolved:
		return true
	}
	return false
}

// Flag is a moderation report attached to an event.
// swagger:model Flag
type Flag struct {
	ID        string     `json:"id"`
	EventID   string     `json:"event_id"`
	UserID    string     `json:"user_id"`
	Reason    string     `json:"reason"`
	Status    FlagStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// FlagRepository defines storage for moderation flags.
type FlagRepository interface {
	// Create inserts the flag; returns ErrAlreadyFlagged if the reporter already flagged the event.
	Create(ctx context.Context, flag *Flag) error
	ListByEventID(ctx context.Context, eventID string) ([]*Flag, error)
	ListByEventIDs(ctx context.Context, eventIDs []string) (map[string][]*Flag, error)
	// UpdateStatus sets the status inside one transaction. A flag already in that status is returned unchanged.
	UpdateStatus(ctx context.Context, eventID, flagID string, status FlagStatus) (*Flag, error)
}

// ModerationService defines the flag workflow and the admin dashboard operations.
type ModerationService interface {
	SubmitFlag(ctx context.Context, eventID, reporterID, reason string) (*Flag, error)
	SetFlagStatus(ctx context.Context, eventID, flagID string, status FlagStatus) (*Flag, error)
	ListFlaggedEvents(ctx context.Context, params PaginationParams) ([]*Event, int, error)
	DeleteFlaggedEvent(ctx context.Context, eventID string, confirmed bool) error
}
