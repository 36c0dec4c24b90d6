package services

import (
	"context"
	"testing"

	"eventplanner/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type guestFixture struct {
	events *fakeEventRepo
	guests *fakeGuestRepo
	users  *fakeUserRepo
	emails *fakeEmailService
	feed   *fakeFeed
	svc    domain.GuestService
}

func newGuestFixture() *guestFixture {
	f := &guestFixture{
		events: newFakeEventRepo(&domain.Event{ID: "ev-1", Title: "Party", Date: "2026-11-01", Location: "HQ", OwnerID: "owner-1"}),
		guests: &fakeGuestRepo{},
		users: newFakeUserRepo(
			&domain.User{ID: "owner-1", Email: "owner@example.com", Name: "Olivia"},
			&domain.User{ID: "guest-user", Email: "Guest@Example.com", Name: "Gus"},
			&domain.User{ID: "stranger", Email: "stranger@example.com"},
		),
		emails: &fakeEmailService{},
		feed:   newFakeFeed(),
	}
	f.svc = NewGuestService(f.events, f.guests, f.users, f.emails, f.feed, testLogger, testTimeout)
	return f
}

func TestGuestService_AddGuest(t *testing.T) {
	f := newGuestFixture()

	guest, err := f.svc.AddGuest(context.Background(), "ev-1", "owner-1", " Guest@Example.com ", strPtr(" speaker "), strPtr("  "))
	require.NoError(t, err)
	assert.NotEmpty(t, guest.ID)
	assert.Equal(t, "guest@example.com", guest.Email)
	assert.Equal(t, domain.RSVPPending, guest.RSVPStatus)
	assert.Nil(t, guest.UserID)
	require.NotNil(t, guest.Role)
	assert.Equal(t, "speaker", *guest.Role)
	assert.Nil(t, guest.Notes)

	require.Len(t, f.guests.guests, 1)
	require.Len(t, f.emails.invitations, 1)
	inv := f.emails.invitations[0]
	assert.Equal(t, "guest@example.com", inv.guest.Email)
	assert.Equal(t, "Olivia", inv.ownerName)
	assert.Equal(t, "Party", inv.event.Title)
	assert.Equal(t, 1, f.feed.publishedFor("owner-1"))
}

func TestGuestService_AddGuest_Errors(t *testing.T) {
	tests := []struct {
		name    string
		eventID string
		caller  string
		email   string
		setup   func(f *guestFixture)
		wantErr error
	}{
		{name: "invalid email", eventID: "ev-1", caller: "owner-1", email: "nope", wantErr: domain.ErrInvalidInput},
		{name: "not owner", eventID: "ev-1", caller: "stranger", email: "x@example.com", wantErr: domain.ErrForbidden},
		{name: "unknown event", eventID: "missing", caller: "owner-1", email: "x@example.com", wantErr: domain.ErrNotFound},
		{
			name:    "duplicate email",
			eventID: "ev-1",
			caller:  "owner-1",
			email:   "X@example.com",
			setup: func(f *guestFixture) {
				f.guests.guests = []*domain.Guest{{ID: "g-0", EventID: "ev-1", Email: "x@example.com"}}
			},
			wantErr: domain.ErrGuestExists,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newGuestFixture()
			if tt.setup != nil {
				tt.setup(f)
			}
			_, err := f.svc.AddGuest(context.Background(), tt.eventID, tt.caller, tt.email, nil, nil)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, f.emails.invitations)
			assert.Zero(t, f.feed.publishedFor("owner-1"))
		})
	}
}

func TestGuestService_AddGuest_EmailFailureIsNotFatal(t *testing.T) {
	f := newGuestFixture()
	f.emails.err = assert.AnError

	guest, err := f.svc.AddGuest(context.Background(), "ev-1", "owner-1", "x@example.com", nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, guest)
}

func TestGuestService_UpdateGuestRSVP(t *testing.T) {
	seed := func(f *guestFixture) {
		f.guests.guests = []*domain.Guest{
			{ID: "g-1", EventID: "ev-1", Email: "guest@example.com", RSVPStatus: domain.RSVPPending},
			{ID: "g-2", EventID: "ev-1", Email: "other@example.com", RSVPStatus: domain.RSVPPending},
		}
	}

	t.Run("owner updates by id", func(t *testing.T) {
		f := newGuestFixture()
		seed(f)
		guest, err := f.svc.UpdateGuestRSVP(context.Background(), "ev-1", "g-2", "owner-1", domain.RSVPDeclined)
		require.NoError(t, err)
		assert.Equal(t, domain.RSVPDeclined, guest.RSVPStatus)
		assert.Nil(t, guest.UserID)
		assert.Equal(t, domain.RSVPPending, f.guests.guests[0].RSVPStatus)
		assert.Len(t, f.guests.guests, 2)
	})

	t.Run("invited user answers and is linked", func(t *testing.T) {
		f := newGuestFixture()
		seed(f)
		guest, err := f.svc.UpdateGuestRSVP(context.Background(), "ev-1", "g-1", "guest-user", domain.RSVPAccepted)
		require.NoError(t, err)
		assert.Equal(t, domain.RSVPAccepted, guest.RSVPStatus)
		require.NotNil(t, guest.UserID)
		assert.Equal(t, "guest-user", *guest.UserID)
	})

	t.Run("someone else's entry is forbidden", func(t *testing.T) {
		f := newGuestFixture()
		seed(f)
		_, err := f.svc.UpdateGuestRSVP(context.Background(), "ev-1", "g-2", "guest-user", domain.RSVPAccepted)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("invalid status", func(t *testing.T) {
		f := newGuestFixture()
		seed(f)
		_, err := f.svc.UpdateGuestRSVP(context.Background(), "ev-1", "g-1", "owner-1", domain.RSVPStatus("maybe"))
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("unknown guest", func(t *testing.T) {
		f := newGuestFixture()
		seed(f)
		_, err := f.svc.UpdateGuestRSVP(context.Background(), "ev-1", "g-9", "owner-1", domain.RSVPAccepted)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestGuestService_ListGuests(t *testing.T) {
	f := newGuestFixture()
	f.guests.guests = []*domain.Guest{{ID: "g-1", EventID: "ev-1", Email: "guest@example.com"}}

	guests, err := f.svc.ListGuests(context.Background(), "ev-1", "owner-1")
	require.NoError(t, err)
	assert.Len(t, guests, 1)

	_, err = f.svc.ListGuests(context.Background(), "ev-1", "stranger")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
