package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"eventplanner/internal/domain"
	"eventplanner/internal/metrics"
)

// sideEffectTimeout bounds best-effort work that outlives the request context.
const sideEffectTimeout = 5 * time.Second

type eventService struct {
	eventRepo      domain.EventRepository
	guestRepo      domain.GuestRepository
	flagRepo       domain.FlagRepository
	userRepo       domain.UserRepository
	blobs          domain.BlobStore
	feed           domain.EventFeed
	logger         *slog.Logger
	contextTimeout time.Duration
}

func NewEventService(eventRepo domain.EventRepository,
	guestRepo domain.GuestRepository,
	flagRepo domain.FlagRepository,
	userRepo domain.UserRepository,
	blobs domain.BlobStore,
	feed domain.EventFeed,
	logger *slog.Logger,
	timeout time.Duration,
) domain.EventService {
	return &eventService{
		eventRepo:      eventRepo,
		guestRepo:      guestRepo,
		flagRepo:       flagRepo,
		userRepo:       userRepo,
		blobs:          blobs,
		feed:           feed,
		logger:         logger,
		contextTimeout: timeout,
	}
}

func validateEventInput(input *domain.EventInput) error {
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	input.Date = strings.TrimSpace(input.Date)
	input.Location = strings.TrimSpace(input.Location)
	var missing []string
	if input.Title == "" {
		missing = append(missing, "title")
	}
	if input.Description == "" {
		missing = append(missing, "description")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s required", domain.ErrInvalidInput, strings.Join(missing, " and "))
	}
	return nil
}

// validateImage runs before any network call so a rejected image leaves no partial state.
func validateImage(image *domain.ImageUpload) error {
	if image == nil {
		return nil
	}
	if image.Size > domain.MaxImageBytes {
		return domain.ErrImageTooLarge
	}
	if image.Size <= 0 || image.Body == nil || !strings.HasPrefix(image.ContentType, "image/") {
		return domain.ErrInvalidImage
	}
	return nil
}

func (s *eventService) ListPublicEvents(ctx context.Context, params domain.PaginationParams) ([]*domain.Event, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, total, err := s.eventRepo.ListPublic(ctx, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list public events: %w", err)
	}
	for _, e := range events {
		attachImageURL(ctx, s.blobs, s.logger, e)
	}
	return events, total, nil
}

func (s *eventService) CreateEvent(ctx context.Context, ownerID string, input domain.EventInput, image *domain.ImageUpload) (*domain.Event, error) {
	if err := validateEventInput(&input); err != nil {
		return nil, err
	}
	if err := validateImage(image); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	owner, err := s.userRepo.GetByID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: event owner does not exist", domain.ErrForbidden)
		}
		return nil, fmt.Errorf("get owner: %w", err)
	}

	now := time.Now()
	event := domain.NewEvent(input.Title, input.Description, input.Date, input.Location, ownerID, input.IsPublic, now, now)
	if owner.Email != "" {
		email := owner.Email
		event.OwnerEmail = &email
	}
	if image != nil {
		ref, err := s.uploadImage(ctx, ownerID, image, now)
		if err != nil {
			return nil, err
		}
		event.ImageRef = &ref
	}

	if err := s.eventRepo.Create(ctx, event); err != nil {
		if event.ImageRef != nil {
			s.deleteImage(ctx, *event.ImageRef)
		}
		return nil, fmt.Errorf("create event: %w", err)
	}
	notifyOwner(ctx, s.feed, s.logger, ownerID)
	attachImageURL(ctx, s.blobs, s.logger, event)
	return event, nil
}

// UpdateEvent rewrites the editable fields. The owner and id never change; the
// stored image is replaced only when a new one is supplied.
func (s *eventService) UpdateEvent(ctx context.Context, eventID, callerID string, input domain.EventInput, image *domain.ImageUpload) (*domain.Event, error) {
	if err := validateEventInput(&input); err != nil {
		return nil, err
	}
	if err := validateImage(image); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	current, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if current.OwnerID != callerID {
		return nil, domain.ErrForbidden
	}

	patch := &domain.Event{
		ID:          eventID,
		Title:       input.Title,
		Description: input.Description,
		Date:        input.Date,
		Location:    input.Location,
		IsPublic:    input.IsPublic,
	}
	if image != nil {
		ref, err := s.uploadImage(ctx, callerID, image, time.Now())
		if err != nil {
			return nil, err
		}
		patch.ImageRef = &ref
	}

	updated, err := s.eventRepo.Update(ctx, patch)
	if err != nil {
		if patch.ImageRef != nil {
			s.deleteImage(ctx, *patch.ImageRef)
		}
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update event: %w", err)
	}
	if patch.ImageRef != nil && current.ImageRef != nil && *current.ImageRef != *patch.ImageRef {
		s.deleteImage(ctx, *current.ImageRef)
	}
	notifyOwner(ctx, s.feed, s.logger, current.OwnerID)
	attachImageURL(ctx, s.blobs, s.logger, updated)
	return updated, nil
}

// GetEventDetail loads one event for viewerID. Only the owner sees the guest list
// and whether any flag is still pending; flags themselves are never exposed here.
func (s *eventService) GetEventDetail(ctx context.Context, eventID, viewerID string) (*domain.EventDetail, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	flags, err := s.flagRepo.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list flags: %w", err)
	}

	detail := &domain.EventDetail{Event: event, IsOwner: event.OwnerID == viewerID}
	if detail.IsOwner {
		guests, err := s.guestRepo.ListByEventID(ctx, eventID)
		if err != nil {
			return nil, fmt.Errorf("list guests: %w", err)
		}
		event.Guests = guests
		for _, f := range flags {
			if f.Status == domain.FlagPending {
				event.HasPendingFlags = true
				break
			}
		}
	} else if viewerID != "" {
		detail.CanFlag = true
		for _, f := range flags {
			if f.UserID == viewerID {
				detail.CanFlag = false
				break
			}
		}
	}
	attachImageURL(ctx, s.blobs, s.logger, event)
	return detail, nil
}

func (s *eventService) ListOwnedEvents(ctx context.Context, ownerID string) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, err := s.eventRepo.ListByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list owned events: %w", err)
	}
	for _, e := range events {
		attachImageURL(ctx, s.blobs, s.logger, e)
	}
	return events, nil
}

// WatchOwnedEvents subscribes before the first read so no change between the
// read and the subscription is missed. Each delivery is the complete owned set.
// A failed re-read keeps the subscriber on its previous set and waits for the
// next change. Returns nil once ctx is done.
func (s *eventService) WatchOwnedEvents(ctx context.Context, ownerID string, onChange func([]*domain.Event) error) error {
	if s.feed == nil {
		return fmt.Errorf("%w: change feed not configured", domain.ErrUnavailable)
	}
	changes, unsubscribe, err := s.feed.Subscribe(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	defer unsubscribe()

	metrics.FeedSubscribers.Inc()
	defer metrics.FeedSubscribers.Dec()

	events, err := s.ListOwnedEvents(ctx, ownerID)
	if err != nil {
		return err
	}
	if err := onChange(events); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changes:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errors.New("event feed closed")
			}
			events, err := s.ListOwnedEvents(ctx, ownerID)
			if err != nil {
				s.logger.WarnContext(ctx, "reload owned events failed", "owner_id", ownerID, "err", err)
				continue
			}
			// Drop results that arrive after the watcher was cancelled.
			if ctx.Err() != nil {
				return nil
			}
			if err := onChange(events); err != nil {
				return err
			}
		}
	}
}

func (s *eventService) uploadImage(ctx context.Context, ownerID string, image *domain.ImageUpload, at time.Time) (string, error) {
	if s.blobs == nil {
		return "", fmt.Errorf("%w: image storage not configured", domain.ErrUnavailable)
	}
	key := domain.EventImageKey(ownerID, image.Filename, at)
	ref, err := s.blobs.Upload(ctx, key, image.Body, image.Size, image.ContentType)
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	return ref, nil
}

func (s *eventService) deleteImage(ctx context.Context, ref string) {
	deleteBlob(ctx, s.blobs, s.logger, ref)
}

// notifyOwner publishes an owned-events change. Failures are logged; the write already happened.
func notifyOwner(ctx context.Context, feed domain.EventFeed, logger *slog.Logger, ownerID string) {
	if feed == nil {
		return
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()
	if err := feed.Publish(pctx, ownerID); err != nil {
		logger.WarnContext(ctx, "publish owner change failed", "owner_id", ownerID, "err", err)
	}
}

func attachImageURL(ctx context.Context, blobs domain.BlobStore, logger *slog.Logger, e *domain.Event) {
	if blobs == nil || e.ImageRef == nil {
		return
	}
	url, err := blobs.URL(ctx, *e.ImageRef)
	if err != nil {
		logger.WarnContext(ctx, "resolve image url failed", "event_id", e.ID, "err", err)
		return
	}
	e.ImageURL = url
}

func deleteBlob(ctx context.Context, blobs domain.BlobStore, logger *slog.Logger, ref string) {
	if blobs == nil {
		return
	}
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()
	if err := blobs.Delete(dctx, ref); err != nil {
		logger.WarnContext(ctx, "delete image failed", "ref", ref, "err", err)
	}
}
