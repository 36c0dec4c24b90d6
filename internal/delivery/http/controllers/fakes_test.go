package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"eventplanner/internal/delivery/http/helpers"
	"eventplanner/internal/delivery/http/middleware"
	"eventplanner/internal/domain"

	"github.com/stretchr/testify/require"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

// authedRequest builds a request carrying userID the way RequireAuth would.
func authedRequest(method, target string, body any, userID string) *http.Request {
	var r io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return withUser(req, userID)
}

// withUser attaches userID and a session to req the way RequireAuth would.
func withUser(req *http.Request, userID string) *http.Request {
	if userID == "" {
		return req
	}
	ctx := middleware.SetUserID(req.Context(), userID)
	ctx = middleware.SetSessionID(ctx, "sess-"+userID)
	return req.WithContext(ctx)
}

// serve routes req through a mux so that path values are populated.
func serve(pattern string, handler http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.HandleFunc(pattern, handler)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

// decodeEnvelope decodes the response into the envelope, with data unmarshalled into data.
func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder, data any) *helpers.APIError {
	t.Helper()
	var raw struct {
		Data  json.RawMessage   `json:"data"`
		Error *helpers.APIError `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &raw))
	if data != nil && raw.Error == nil {
		require.NoError(t, json.Unmarshal(raw.Data, data))
	}
	return raw.Error
}

type fakeAuthService struct {
	session   *domain.Session
	authURL   string
	err       error
	lastEmail string
	lastCode  string
	lastState string
	signedOut []string
}

func (f *fakeAuthService) SignUp(_ context.Context, email, _, name string) (*domain.User, error) {
	f.lastEmail = email
	if f.err != nil {
		return nil, f.err
	}
	return &domain.User{ID: "user-1", Email: email, Name: name}, nil
}

func (f *fakeAuthService) SignIn(_ context.Context, email, _ string) (*domain.Session, error) {
	f.lastEmail = email
	return f.session, f.err
}

func (f *fakeAuthService) AdminSignIn(_ context.Context, email, _ string) (*domain.Session, error) {
	f.lastEmail = email
	return f.session, f.err
}

func (f *fakeAuthService) GoogleAuthURL(state string) (string, error) {
	f.lastState = state
	if f.err != nil {
		return "", f.err
	}
	return f.authURL + "?state=" + state, nil
}

func (f *fakeAuthService) SignInWithGoogle(_ context.Context, code string) (*domain.Session, error) {
	f.lastCode = code
	return f.session, f.err
}

func (f *fakeAuthService) SignOut(_ context.Context, sessionID string) error {
	f.signedOut = append(f.signedOut, sessionID)
	return f.err
}

type fakeUserService struct {
	user     *domain.User
	err      error
	admins   map[string]bool
	lastName string
}

func (f *fakeUserService) GetByID(_ context.Context, _ string) (*domain.User, error) {
	return f.user, f.err
}

func (f *fakeUserService) UpdateName(_ context.Context, id, name string) (*domain.User, error) {
	f.lastName = name
	if f.err != nil {
		return nil, f.err
	}
	return &domain.User{ID: id, Name: name}, nil
}

func (f *fakeUserService) IsAdmin(_ context.Context, id string) (bool, error) {
	return f.admins[id], f.err
}

type fakeEventService struct {
	events    []*domain.Event
	total     int
	detail    *domain.EventDetail
	err       error
	watchErr  error
	snapshots [][]*domain.Event
	// block keeps WatchOwnedEvents open until its context is done.
	block bool

	lastParams domain.PaginationParams
	lastInput  domain.EventInput
	lastImage  *domain.ImageUpload
	imageBytes []byte
	lastCaller string
	lastEvent  string
}

func (f *fakeEventService) ListPublicEvents(_ context.Context, params domain.PaginationParams) ([]*domain.Event, int, error) {
	f.lastParams = params
	return f.events, f.total, f.err
}

func (f *fakeEventService) record(callerID string, input domain.EventInput, image *domain.ImageUpload) {
	f.lastCaller = callerID
	f.lastInput = input
	f.lastImage = image
	if image != nil && image.Body != nil {
		f.imageBytes, _ = io.ReadAll(image.Body)
	}
}

func (f *fakeEventService) CreateEvent(_ context.Context, ownerID string, input domain.EventInput, image *domain.ImageUpload) (*domain.Event, error) {
	f.record(ownerID, input, image)
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Event{ID: "ev-new", Title: input.Title, OwnerID: ownerID, IsPublic: input.IsPublic}, nil
}

func (f *fakeEventService) UpdateEvent(_ context.Context, eventID, callerID string, input domain.EventInput, image *domain.ImageUpload) (*domain.Event, error) {
	f.lastEvent = eventID
	f.record(callerID, input, image)
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Event{ID: eventID, Title: input.Title, OwnerID: callerID}, nil
}

func (f *fakeEventService) GetEventDetail(_ context.Context, eventID, viewerID string) (*domain.EventDetail, error) {
	f.lastEvent = eventID
	f.lastCaller = viewerID
	return f.detail, f.err
}

func (f *fakeEventService) ListOwnedEvents(_ context.Context, ownerID string) ([]*domain.Event, error) {
	f.lastCaller = ownerID
	return f.events, f.err
}

func (f *fakeEventService) WatchOwnedEvents(ctx context.Context, ownerID string, onChange func([]*domain.Event) error) error {
	f.lastCaller = ownerID
	if f.watchErr != nil {
		return f.watchErr
	}
	for _, snap := range f.snapshots {
		if err := onChange(snap); err != nil {
			return err
		}
	}
	if f.block {
		<-ctx.Done()
	}
	return nil
}

type fakeGuestService struct {
	guests     []*domain.Guest
	err        error
	lastEvent  string
	lastGuest  string
	lastCaller string
	lastEmail  string
	lastStatus domain.RSVPStatus
}

func (f *fakeGuestService) AddGuest(_ context.Context, eventID, callerID, email string, role, _ *string) (*domain.Guest, error) {
	f.lastEvent, f.lastCaller, f.lastEmail = eventID, callerID, email
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Guest{ID: "g-new", EventID: eventID, Email: email, Role: role, RSVPStatus: domain.RSVPPending}, nil
}

func (f *fakeGuestService) UpdateGuestRSVP(_ context.Context, eventID, guestID, callerID string, status domain.RSVPStatus) (*domain.Guest, error) {
	f.lastEvent, f.lastGuest, f.lastCaller, f.lastStatus = eventID, guestID, callerID, status
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Guest{ID: guestID, EventID: eventID, RSVPStatus: status}, nil
}

func (f *fakeGuestService) ListGuests(_ context.Context, eventID, callerID string) ([]*domain.Guest, error) {
	f.lastEvent, f.lastCaller = eventID, callerID
	return f.guests, f.err
}

type fakeModerationService struct {
	events        []*domain.Event
	total         int
	err           error
	lastEvent     string
	lastFlag      string
	lastReason    string
	lastStatus    domain.FlagStatus
	lastConfirmed bool
	lastParams    domain.PaginationParams
}

func (f *fakeModerationService) SubmitFlag(_ context.Context, eventID, reporterID, reason string) (*domain.Flag, error) {
	f.lastEvent, f.lastReason = eventID, reason
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Flag{ID: "f-new", EventID: eventID, UserID: reporterID, Reason: reason, Status: domain.FlagPending}, nil
}

func (f *fakeModerationService) SetFlagStatus(_ context.Context, eventID, flagID string, status domain.FlagStatus) (*domain.Flag, error) {
	f.lastEvent, f.lastFlag, f.lastStatus = eventID, flagID, status
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Flag{ID: flagID, EventID: eventID, Status: status}, nil
}

func (f *fakeModerationService) ListFlaggedEvents(_ context.Context, params domain.PaginationParams) ([]*domain.Event, int, error) {
	f.lastParams = params
	return f.events, f.total, f.err
}

func (f *fakeModerationService) DeleteFlaggedEvent(_ context.Context, eventID string, confirmed bool) error {
	f.lastEvent, f.lastConfirmed = eventID, confirmed
	if f.err != nil {
		return f.err
	}
	if !confirmed {
		return domain.ErrConfirmationRequired
	}
	return nil
}
