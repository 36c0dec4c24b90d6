package domain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
	"unicode"
)

// MaxImageBytes is the largest event image accepted by the editor (5 MiB).
const MaxImageBytes = 5 * 1024 * 1024

var (
	ErrImageTooLarge = errors.New("image must be 5MB or smaller")
	ErrInvalidImage  = errors.New("file must be an image")
)

// Event represents a user-created gathering.
// swagger:model Event
type Event struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	ImageRef        *string   `json:"-"`
	ImageURL        string    `json:"image_url,omitempty"`
	Date            string    `json:"date"`
	Location        string    `json:"location"`
	OwnerID         string    `json:"owner_id"`
	OwnerEmail      *string   `json:"owner_email,omitempty"`
	IsPublic        bool      `json:"is_public"`
	Guests          []*Guest  `json:"guests,omitempty"`
	Flags           []*Flag   `json:"flags,omitempty"`
	HasPendingFlags bool      `json:"has_pending_flags,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// NewEvent returns a new Event owned by ownerID. ID is set by the repository on create.
func NewEvent(title, description, date, location, ownerID string, isPublic bool, createdAt, updatedAt time.Time) *Event {
	return &Event{
		Title:       title,
		Description: description,
		Date:        date,
		Location:    location,
		OwnerID:     ownerID,
		IsPublic:    isPublic,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}
}

// EventInput carries the editor form fields for create and update.
type EventInput struct {
	Title       string
	Description string
	Date        string
	Location    string
	IsPublic    bool
}

// ImageUpload is an image selected in the editor. Size is the declared byte length.
type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// EventImageKey returns the object key for an image uploaded by ownerID at the given instant:
// events/{ownerID}/{unixMillis}_{name}. The name keeps letters, digits, '.', '-' and '_'.
func EventImageKey(ownerID, filename string, at time.Time) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	name := strings.Map(func(r rune) rune {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)), r == '.', r == '-', r == '_':
			return r
		case unicode.IsSpace(r):
			return '_'
		}
		return -1
	}, base)
	name = strings.TrimLeft(name, ".")
	if name == "" {
		name = "image"
	}
	return fmt.Sprintf("events/%s/%d_%s", ownerID, at.UnixMilli(), name)
}

// EventDetail is the single-event view. Guests and pending-flag state are only set for the owner.
type EventDetail struct {
	Event   *Event `json:"event"`
	IsOwner bool   `json:"is_owner"`
	CanFlag bool   `json:"can_flag"`
}

// EventRepository defines the interface for event storage.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	Update(ctx context.Context, event *Event) (*Event, error)
	ListPublic(ctx context.Context, params PaginationParams) ([]*Event, int, error)
	ListByOwnerID(ctx context.Context, ownerID string) ([]*Event, error)
	ListFlagged(ctx context.Context, params PaginationParams) ([]*Event, int, error)
	Delete(ctx context.Context, id string) error
}

// EventFeed carries "something changed" notifications for an owner's events.
// Subscribers re-read the full owned set on every notification.
type EventFeed interface {
	Publish(ctx context.Context, ownerID string) error
	Subscribe(ctx context.Context, ownerID string) (<-chan struct{}, func(), error)
}

// BlobStore stores event images and issues URLs for them.
type BlobStore interface {
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (ref string, err error)
	URL(ctx context.Context, ref string) (string, error)
	Delete(ctx context.Context, ref string) error
}

// EventService defines the catalog, editor, detail and ownership operations.
type EventService interface {
	ListPublicEvents(ctx context.Context, params PaginationParams) ([]*Event, int, error)
	CreateEvent(ctx context.Context, ownerID string, input EventInput, image *ImageUpload) (*Event, error)
	UpdateEvent(ctx context.Context, eventID, callerID string, input EventInput, image *ImageUpload) (*Event, error)
	GetEventDetail(ctx context.Context, eventID, viewerID string) (*EventDetail, error)
	ListOwnedEvents(ctx context.Context, ownerID string) ([]*Event, error)
	// WatchOwnedEvents calls onChange with the full owned set now and after every change, until ctx is done.
	WatchOwnedEvents(ctx context.Context, ownerID string, onChange func([]*Event) error) error
}
