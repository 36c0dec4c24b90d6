package domain

import (
	"context"
	"errors"
	"time"
)

// ErrGuestExists is returned when the email is already on the event's guest list.
var ErrGuestExists = errors.New("guest already on list")

// RSVPStatus is a guest's response state.
type RSVPStatus string

const (
	RSVPPending  RSVPStatus = "pending"
	RSVPAccepted RSVPStatus = "accepted"
	RSVPDeclined RSVPStatus = "declined"
)

// Valid reports whether s is one of the known RSVP states.
func (s RSVPStatus) Valid() bool {
	switch s {
	case RSVPPending, RSVPAccepted, RSVPDeclined:
		return true
	}
	return false
}

// Guest is an invitee on an event's guest list. Email identifies the guest within an event.
// swagger:model Guest
type Guest struct {
	ID         string     `json:"id"`
	EventID    string     `json:"event_id"`
	UserID     *string    `json:"user_id,omitempty"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Role       *string    `json:"role,omitempty"`
	Notes      *string    `json:"notes,omitempty"`
	RSVPStatus RSVPStatus `json:"rsvp_status"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// GuestRepository defines storage for guest entries. Every method touches a single element.
type GuestRepository interface {
	// Add inserts the guest; returns ErrGuestExists if the email is already listed for the event.
	Add(ctx context.Context, guest *Guest) error
	GetByID(ctx context.Context, eventID, guestID string) (*Guest, error)
	ListByEventID(ctx context.Context, eventID string) ([]*Guest, error)
	// UpdateRSVP replaces the status in one statement; linkUserID, if set, is stored as the guest's user.
	UpdateRSVP(ctx context.Context, eventID, guestID string, status RSVPStatus, linkUserID *string) (*Guest, error)
}

// GuestService defines guest-list management.
type GuestService interface {
	AddGuest(ctx context.Context, eventID, callerID, email string, role, notes *string) (*Guest, error)
	UpdateGuestRSVP(ctx context.Context, eventID, guestID, callerID string, status RSVPStatus) (*Guest, error)
	ListGuests(ctx context.Context, eventID, callerID string) ([]*Guest, error)
}
