package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"eventplanner/internal/domain"

	"github.com/google/uuid"
)

type guestService struct {
	eventRepo      domain.EventRepository
	guestRepo      domain.GuestRepository
	userRepo       domain.UserRepository
	emailService   domain.EmailService
	feed           domain.EventFeed
	logger         *slog.Logger
	contextTimeout time.Duration
}

// NewGuestService creates a GuestService. emailService and feed may be nil.
func NewGuestService(eventRepo domain.EventRepository,
	guestRepo domain.GuestRepository,
	userRepo domain.UserRepository,
	emailService domain.EmailService,
	feed domain.EventFeed,
	logger *slog.Logger,
	timeout time.Duration,
) domain.GuestService {
	return &guestService{
		eventRepo:      eventRepo,
		guestRepo:      guestRepo,
		userRepo:       userRepo,
		emailService:   emailService,
		feed:           feed,
		logger:         logger,
		contextTimeout: timeout,
	}
}

func optionalText(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// ownedEvent loads the event and requires callerID to be its owner.
func (s *guestService) ownedEvent(ctx context.Context, eventID, callerID string) (*domain.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.OwnerID != callerID {
		return nil, domain.ErrForbidden
	}
	return event, nil
}

// AddGuest appends a pending guest. The returned guest is what the store
// accepted; nothing is reported as added unless the insert succeeded.
func (s *guestService) AddGuest(ctx context.Context, eventID, callerID, email string, role, notes *string) (*domain.Guest, error) {
	email = normalizeEmail(email)
	if !emailRegexp.MatchString(email) {
		return nil, fmt.Errorf("%w: invalid email format", domain.ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.ownedEvent(ctx, eventID, callerID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	guest := &domain.Guest{
		ID:         uuid.NewString(),
		EventID:    eventID,
		Email:      email,
		Role:       optionalText(role),
		Notes:      optionalText(notes),
		RSVPStatus: domain.RSVPPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.guestRepo.Add(ctx, guest); err != nil {
		if errors.Is(err, domain.ErrGuestExists) {
			return nil, err
		}
		return nil, fmt.Errorf("add guest: %w", err)
	}

	s.sendInvitation(ctx, event, guest)
	notifyOwner(ctx, s.feed, s.logger, event.OwnerID)
	return guest, nil
}

func (s *guestService) sendInvitation(ctx context.Context, event *domain.Event, guest *domain.Guest) {
	if s.emailService == nil {
		return
	}
	var ownerName string
	if owner, err := s.userRepo.GetByID(ctx, event.OwnerID); err == nil {
		ownerName = owner.Name
	}
	if err := s.emailService.SendGuestInvitation(ctx, event, guest, ownerName); err != nil {
		s.logger.WarnContext(ctx, "guest invitation not sent", "event_id", event.ID, "guest_id", guest.ID, "err", err)
	}
}

// UpdateGuestRSVP sets the guest's status in a single write. The owner may set any
// guest's status; a signed-in user may answer for the guest entry carrying their
// own email, which also links the entry to their account.
func (s *guestService) UpdateGuestRSVP(ctx context.Context, eventID, guestID, callerID string, status domain.RSVPStatus) (*domain.Guest, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: rsvp_status must be pending, accepted or declined", domain.ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	guest, err := s.guestRepo.GetByID(ctx, eventID, guestID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get guest: %w", err)
	}

	var linkUserID *string
	if event.OwnerID != callerID {
		caller, err := s.userRepo.GetByID(ctx, callerID)
		if err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				return nil, domain.ErrForbidden
			}
			return nil, fmt.Errorf("get caller: %w", err)
		}
		if !strings.EqualFold(caller.Email, guest.Email) {
			return nil, domain.ErrForbidden
		}
		linkUserID = &caller.ID
	}

	updated, err := s.guestRepo.UpdateRSVP(ctx, eventID, guestID, status, linkUserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update rsvp: %w", err)
	}
	notifyOwner(ctx, s.feed, s.logger, event.OwnerID)
	return updated, nil
}

func (s *guestService) ListGuests(ctx context.Context, eventID, callerID string) ([]*domain.Guest, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.ownedEvent(ctx, eventID, callerID); err != nil {
		return nil, err
	}
	guests, err := s.guestRepo.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list guests: %w", err)
	}
	return guests, nil
}
