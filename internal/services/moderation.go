package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"eventplanner/internal/domain"
	"eventplanner/internal/metrics"

	"github.com/google/uuid"
)

type moderationService struct {
	eventRepo      domain.EventRepository
	flagRepo       domain.FlagRepository
	userRepo       domain.UserRepository
	emailService   domain.EmailService
	blobs          domain.BlobStore
	feed           domain.EventFeed
	logger         *slog.Logger
	contextTimeout time.Duration
}

// NewModerationService creates the flag workflow service. emailService, blobs and feed may be nil.
func NewModerationService(eventRepo domain.EventRepository,
	flagRepo domain.FlagRepository,
	userRepo domain.UserRepository,
	emailService domain.EmailService,
	blobs domain.BlobStore,
	feed domain.EventFeed,
	logger *slog.Logger,
	timeout time.Duration,
) domain.ModerationService {
	return &moderationService{
		eventRepo:      eventRepo,
		flagRepo:       flagRepo,
		userRepo:       userRepo,
		emailService:   emailService,
		blobs:          blobs,
		feed:           feed,
		logger:         logger,
		contextTimeout: timeout,
	}
}

func (s *moderationService) getEvent(ctx context.Context, eventID string) (*domain.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

// SubmitFlag reports an event. The reason is checked before anything touches the
// store. Uniqueness per reporter is checked up front and enforced again by the
// store, so two concurrent submissions still leave a single flag.
func (s *moderationService) SubmitFlag(ctx context.Context, eventID, reporterID, reason string) (*domain.Flag, error) {
	reason = strings.TrimSpace(reason)
	if utf8.RuneCountInString(reason) < domain.MinFlagReasonLength {
		return nil, domain.ErrFlagReasonTooShort
	}

	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.OwnerID == reporterID {
		return nil, fmt.Errorf("%w: owners cannot flag their own events", domain.ErrForbidden)
	}

	existing, err := s.flagRepo.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list flags: %w", err)
	}
	for _, f := range existing {
		if f.UserID == reporterID {
			return nil, domain.ErrAlreadyFlagged
		}
	}

	flag := &domain.Flag{
		ID:        uuid.NewString(),
		EventID:   eventID,
		UserID:    reporterID,
		Reason:    reason,
		Status:    domain.FlagPending,
		CreatedAt: time.Now(),
	}
	if err := s.flagRepo.Create(ctx, flag); err != nil {
		if errors.Is(err, domain.ErrAlreadyFlagged) || errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("create flag: %w", err)
	}
	metrics.FlagsSubmitted.Inc()

	s.notifyFlagged(ctx, event)
	notifyOwner(ctx, s.feed, s.logger, event.OwnerID)
	return flag, nil
}

func (s *moderationService) notifyFlagged(ctx context.Context, event *domain.Event) {
	if s.emailService == nil {
		return
	}
	var to string
	if owner, err := s.userRepo.GetByID(ctx, event.OwnerID); err == nil {
		to = owner.Email
	} else if event.OwnerEmail != nil {
		to = *event.OwnerEmail
	}
	if to == "" {
		return
	}
	if err := s.emailService.SendEventFlagged(ctx, to, event); err != nil {
		s.logger.WarnContext(ctx, "flag notice not sent", "event_id", event.ID, "err", err)
	}
}

// SetFlagStatus moves a flag to status. Any of the three states may follow any
// other. Setting the current status again changes nothing.
func (s *moderationService) SetFlagStatus(ctx context.Context, eventID, flagID string, status domain.FlagStatus) (*domain.Flag, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: status must be pending, reviewed or resolved", domain.ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	flag, err := s.flagRepo.UpdateStatus(ctx, eventID, flagID, status)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update flag status: %w", err)
	}
	metrics.FlagStatusChanges.WithLabelValues(string(status)).Inc()
	notifyOwner(ctx, s.feed, s.logger, event.OwnerID)
	return flag, nil
}

// ListFlaggedEvents returns events carrying at least one flag, each with its full flag list.
func (s *moderationService) ListFlaggedEvents(ctx context.Context, params domain.PaginationParams) ([]*domain.Event, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, total, err := s.eventRepo.ListFlagged(ctx, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list flagged events: %w", err)
	}
	ids := make([]string, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	flags, err := s.flagRepo.ListByEventIDs(ctx, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("list flags: %w", err)
	}
	for _, e := range events {
		e.Flags = flags[e.ID]
		attachImageURL(ctx, s.blobs, s.logger, e)
	}
	return events, total, nil
}

// DeleteFlaggedEvent hard-deletes the event with its guests and flags. It is
// irreversible, so the caller must pass confirmed.
func (s *moderationService) DeleteFlaggedEvent(ctx context.Context, eventID string, confirmed bool) error {
	if !confirmed {
		return domain.ErrConfirmationRequired
	}

	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.getEvent(ctx, eventID)
	if err != nil {
		return err
	}
	if err := s.eventRepo.Delete(ctx, eventID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete event: %w", err)
	}
	metrics.EventsDeleted.Inc()

	if event.ImageRef != nil {
		deleteBlob(ctx, s.blobs, s.logger, *event.ImageRef)
	}
	notifyOwner(ctx, s.feed, s.logger, event.OwnerID)
	return nil
}
