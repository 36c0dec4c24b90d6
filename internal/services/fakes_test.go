package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"eventplanner/internal/domain"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

const testTimeout = 5 * time.Second

// fakeUserRepo is an in-memory UserRepository for tests.
type fakeUserRepo struct {
	byID      map[string]*domain.User
	nextID    int
	createErr error
	getErr    error
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	f := &fakeUserRepo{byID: make(map[string]*domain.User), nextID: 1}
	for _, u := range users {
		f.byID[u.ID] = u
	}
	return f
}

func (f *fakeUserRepo) Create(ctx context.Context, u *domain.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, existing := range f.byID {
		if strings.EqualFold(existing.Email, u.Email) {
			return domain.ErrDuplicateEmail
		}
	}
	u.ID = fmt.Sprintf("user-%d", f.nextID)
	f.nextID++
	f.byID[u.ID] = u
	return nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.byID {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) Update(ctx context.Context, u *domain.User) error {
	if _, ok := f.byID[u.ID]; !ok {
		return domain.ErrUserNotFound
	}
	f.byID[u.ID] = u
	return nil
}

// fakeEventRepo is an in-memory EventRepository for tests. ListFlagged consults flags when set.
type fakeEventRepo struct {
	byID      map[string]*domain.Event
	nextID    int
	flags     *fakeFlagRepo
	createErr error
	updateErr error
	listErr   error
}

func newFakeEventRepo(events ...*domain.Event) *fakeEventRepo {
	f := &fakeEventRepo{byID: make(map[string]*domain.Event), nextID: 1}
	for _, e := range events {
		f.byID[e.ID] = e
	}
	return f
}

func (f *fakeEventRepo) Create(ctx context.Context, e *domain.Event) error {
	if f.createErr != nil {
		return f.createErr
	}
	e.ID = fmt.Sprintf("ev-%d", f.nextID)
	f.nextID++
	f.byID[e.ID] = e
	return nil
}

func (f *fakeEventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	if e, ok := f.byID[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeEventRepo) Update(ctx context.Context, e *domain.Event) (*domain.Event, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	cur, ok := f.byID[e.ID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cur.Title = e.Title
	cur.Description = e.Description
	cur.Date = e.Date
	cur.Location = e.Location
	cur.IsPublic = e.IsPublic
	if e.ImageRef != nil {
		ref := *e.ImageRef
		cur.ImageRef = &ref
	}
	cur.UpdatedAt = time.Now()
	cp := *cur
	return &cp, nil
}

func sortNewestFirst(events []*domain.Event) {
	sort.SliceStable(events, func(i, j int) bool { return events[i].CreatedAt.After(events[j].CreatedAt) })
}

func page(events []*domain.Event, params domain.PaginationParams) []*domain.Event {
	start := params.Offset()
	if start > len(events) {
		start = len(events)
	}
	end := start + params.Limit()
	if end > len(events) {
		end = len(events)
	}
	return events[start:end]
}

func (f *fakeEventRepo) ListPublic(ctx context.Context, params domain.PaginationParams) ([]*domain.Event, int, error) {
	if f.listErr != nil {
		return nil, 0, f.listErr
	}
	var out []*domain.Event
	for _, e := range f.byID {
		if e.IsPublic {
			cp := *e
			out = append(out, &cp)
		}
	}
	sortNewestFirst(out)
	return page(out, params), len(out), nil
}

func (f *fakeEventRepo) ListByOwnerID(ctx context.Context, ownerID string) ([]*domain.Event, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]*domain.Event, 0)
	for _, e := range f.byID {
		if e.OwnerID == ownerID {
			cp := *e
			out = append(out, &cp)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (f *fakeEventRepo) ListFlagged(ctx context.Context, params domain.PaginationParams) ([]*domain.Event, int, error) {
	if f.listErr != nil {
		return nil, 0, f.listErr
	}
	var out []*domain.Event
	for _, e := range f.byID {
		if f.flags != nil && len(f.flags.forEvent(e.ID)) > 0 {
			cp := *e
			out = append(out, &cp)
		}
	}
	sortNewestFirst(out)
	return page(out, params), len(out), nil
}

func (f *fakeEventRepo) Delete(ctx context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.byID, id)
	if f.flags != nil {
		f.flags.deleteEvent(id)
	}
	return nil
}

// fakeGuestRepo is an in-memory GuestRepository keyed by guest ID.
type fakeGuestRepo struct {
	guests []*domain.Guest
	addErr error
}

func (f *fakeGuestRepo) Add(ctx context.Context, g *domain.Guest) error {
	if f.addErr != nil {
		return f.addErr
	}
	for _, existing := range f.guests {
		if existing.EventID == g.EventID && strings.EqualFold(existing.Email, g.Email) {
			return domain.ErrGuestExists
		}
	}
	cp := *g
	f.guests = append(f.guests, &cp)
	return nil
}

func (f *fakeGuestRepo) GetByID(ctx context.Context, eventID, guestID string) (*domain.Guest, error) {
	for _, g := range f.guests {
		if g.ID == guestID && g.EventID == eventID {
			cp := *g
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeGuestRepo) ListByEventID(ctx context.Context, eventID string) ([]*domain.Guest, error) {
	out := make([]*domain.Guest, 0)
	for _, g := range f.guests {
		if g.EventID == eventID {
			cp := *g
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeGuestRepo) UpdateRSVP(ctx context.Context, eventID, guestID string, status domain.RSVPStatus, linkUserID *string) (*domain.Guest, error) {
	for _, g := range f.guests {
		if g.ID == guestID && g.EventID == eventID {
			g.RSVPStatus = status
			if linkUserID != nil {
				id := *linkUserID
				g.UserID = &id
			}
			g.UpdatedAt = time.Now()
			cp := *g
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

// fakeFlagRepo is an in-memory FlagRepository with the one-flag-per-reporter rule.
type fakeFlagRepo struct {
	flags       []*domain.Flag
	createCalls int
	updateCalls int
	createErr   error
}

func (f *fakeFlagRepo) forEvent(eventID string) []*domain.Flag {
	out := make([]*domain.Flag, 0)
	for _, fl := range f.flags {
		if fl.EventID == eventID {
			cp := *fl
			out = append(out, &cp)
		}
	}
	return out
}

func (f *fakeFlagRepo) deleteEvent(eventID string) {
	kept := f.flags[:0]
	for _, fl := range f.flags {
		if fl.EventID != eventID {
			kept = append(kept, fl)
		}
	}
	f.flags = kept
}

func (f *fakeFlagRepo) Create(ctx context.Context, fl *domain.Flag) error {
	f.createCalls++
	if f.createErr != nil {
		return f.createErr
	}
	for _, existing := range f.flags {
		if existing.EventID == fl.EventID && existing.UserID == fl.UserID {
			return domain.ErrAlreadyFlagged
		}
	}
	cp := *fl
	f.flags = append(f.flags, &cp)
	return nil
}

func (f *fakeFlagRepo) ListByEventID(ctx context.Context, eventID string) ([]*domain.Flag, error) {
	return f.forEvent(eventID), nil
}

func (f *fakeFlagRepo) ListByEventIDs(ctx context.Context, eventIDs []string) (map[string][]*domain.Flag, error) {
	out := make(map[string][]*domain.Flag, len(eventIDs))
	for _, id := range eventIDs {
		if flags := f.forEvent(id); len(flags) > 0 {
			out[id] = flags
		}
	}
	return out, nil
}

func (f *fakeFlagRepo) UpdateStatus(ctx context.Context, eventID, flagID string, status domain.FlagStatus) (*domain.Flag, error) {
	for _, fl := range f.flags {
		if fl.ID == flagID && fl.EventID == eventID {
			if fl.Status != status {
				f.updateCalls++
				fl.Status = status
				now := time.Now()
				fl.UpdatedAt = &now
			}
			cp := *fl
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

// fakeBlobStore keeps uploads in memory.
type fakeBlobStore struct {
	objects   map[string]int64
	uploads   int
	deleted   []string
	uploadErr error
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{objects: make(map[string]int64)}
}

func (f *fakeBlobStore) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	f.uploads++
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.objects[key] = size
	return key, nil
}

func (f *fakeBlobStore) URL(ctx context.Context, ref string) (string, error) {
	return "https://blobs.test/" + ref, nil
}

func (f *fakeBlobStore) Delete(ctx context.Context, ref string) error {
	f.deleted = append(f.deleted, ref)
	delete(f.objects, ref)
	return nil
}

// fakeFeed records publishes and lets tests push notifications to subscribers.
type fakeFeed struct {
	mu         sync.Mutex
	published  []string
	subs       map[string]chan struct{}
	publishErr error
	subscribed chan struct{}
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{subs: make(map[string]chan struct{}), subscribed: make(chan struct{}, 1)}
}

func (f *fakeFeed) Publish(ctx context.Context, ownerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, ownerID)
	if f.publishErr != nil {
		return f.publishErr
	}
	if ch, ok := f.subs[ownerID]; ok {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	return nil
}

func (f *fakeFeed) Subscribe(ctx context.Context, ownerID string) (<-chan struct{}, func(), error) {
	f.mu.Lock()
	ch := make(chan struct{}, 1)
	f.subs[ownerID] = ch
	f.mu.Unlock()
	select {
	case f.subscribed <- struct{}{}:
	default:
	}
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, ownerID)
			f.mu.Unlock()
		})
	}, nil
}

func (f *fakeFeed) publishedFor(ownerID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, id := range f.published {
		if id == ownerID {
			n++
		}
	}
	return n
}

type sentInvitation struct {
	event     *domain.Event
	guest     *domain.Guest
	ownerName string
}

type sentFlagNotice struct {
	to    string
	event *domain.Event
}

// fakeEmailService records sent emails.
type fakeEmailService struct {
	invitations []sentInvitation
	flagged     []sentFlagNotice
	err         error
}

func (f *fakeEmailService) SendGuestInvitation(ctx context.Context, event *domain.Event, guest *domain.Guest, ownerName string) error {
	f.invitations = append(f.invitations, sentInvitation{event: event, guest: guest, ownerName: ownerName})
	return f.err
}

func (f *fakeEmailService) SendEventFlagged(ctx context.Context, ownerEmail string, event *domain.Event) error {
	f.flagged = append(f.flagged, sentFlagNotice{to: ownerEmail, event: event})
	return f.err
}

func strPtr(s string) *string { return &s }
