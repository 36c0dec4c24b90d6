package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"eventplanner/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserController_GetMe(t *testing.T) {
	tests := []struct {
		name       string
		userID     string
		svc        *fakeUserService
		wantStatus int
	}{
		{name: "profile", userID: "user-1", svc: &fakeUserService{user: &domain.User{ID: "user-1", Email: "a@b.co", IsAdmin: true}}, wantStatus: http.StatusOK},
		{name: "no auth", svc: &fakeUserService{}, wantStatus: http.StatusUnauthorized},
		{name: "deleted user", userID: "user-1", svc: &fakeUserService{err: domain.ErrUserNotFound}, wantStatus: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewUserController(testLogger, tt.svc, &fakeEventService{})
			rr := httptest.NewRecorder()
			c.GetMe(rr, authedRequest(http.MethodGet, "/users/me", nil, tt.userID))

			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantStatus == http.StatusOK {
				var user domain.User
				assert.Nil(t, decodeEnvelope(t, rr, &user))
				assert.True(t, user.IsAdmin)
				assert.NotContains(t, rr.Body.String(), "password")
			}
		})
	}
}

func TestUserController_UpdateMe(t *testing.T) {
	svc := &fakeUserService{}
	c := NewUserController(testLogger, svc, &fakeEventService{})

	rr := httptest.NewRecorder()
	c.UpdateMe(rr, authedRequest(http.MethodPatch, "/users/me", UpdateUserRequest{Name: "Ada"}, "user-1"))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Ada", svc.lastName)

	rr = httptest.NewRecorder()
	c.UpdateMe(rr, authedRequest(http.MethodPatch, "/users/me", UpdateUserRequest{Name: "  "}, "user-1"))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUserController_ListMyEvents(t *testing.T) {
	events := &fakeEventService{events: []*domain.Event{{ID: "ev-1", OwnerID: "user-1"}, {ID: "ev-2", OwnerID: "user-1"}}}
	c := NewUserController(testLogger, &fakeUserService{}, events)

	rr := httptest.NewRecorder()
	c.ListMyEvents(rr, authedRequest(http.MethodGet, "/users/me/events", nil, "user-1"))

	require.Equal(t, http.StatusOK, rr.Code)
	var got []*domain.Event
	assert.Nil(t, decodeEnvelope(t, rr, &got))
	assert.Len(t, got, 2)
	assert.Equal(t, "user-1", events.lastCaller)
}

func TestUserController_ListMyEvents_EmptyIsArray(t *testing.T) {
	c := NewUserController(testLogger, &fakeUserService{}, &fakeEventService{})
	rr := httptest.NewRecorder()
	c.ListMyEvents(rr, authedRequest(http.MethodGet, "/users/me/events", nil, "user-1"))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"data":[]`)
}

func TestUserController_StreamMyEvents(t *testing.T) {
	events := &fakeEventService{snapshots: [][]*domain.Event{
		{{ID: "ev-1"}},
		{{ID: "ev-1"}, {ID: "ev-2"}},
		{{ID: "ev-2"}},
	}}
	c := NewUserController(testLogger, &fakeUserService{}, events)

	rr := httptest.NewRecorder()
	c.StreamMyEvents(rr, authedRequest(http.MethodGet, "/users/me/events/stream", nil, "user-1"))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/event-stream", rr.Header().Get("Content-Type"))
	assert.True(t, rr.Flushed)

	var snapshots [][]*domain.Event
	for _, line := range strings.Split(rr.Body.String(), "\n") {
		payload, ok := strings.CutPrefix(line, "data: ")
		if !ok {
			continue
		}
		var snap []*domain.Event
		require.NoError(t, json.Unmarshal([]byte(payload), &snap))
		snapshots = append(snapshots, snap)
	}
	require.Len(t, snapshots, 3)
	assert.Len(t, snapshots[1], 2)
	require.Len(t, snapshots[2], 1)
	assert.Equal(t, "ev-2", snapshots[2][0].ID)
	assert.Contains(t, rr.Body.String(), "id: 3\nevent: events\n")
}

func TestUserController_StreamMyEvents_Unavailable(t *testing.T) {
	c := NewUserController(testLogger, &fakeUserService{}, &fakeEventService{watchErr: domain.ErrUnavailable})
	rr := httptest.NewRecorder()
	c.StreamMyEvents(rr, authedRequest(http.MethodGet, "/users/me/events/stream", nil, "user-1"))

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
}

func TestUserController_StreamMyEvents_EndsOnShutdown(t *testing.T) {
	events := &fakeEventService{snapshots: [][]*domain.Event{{{ID: "ev-1"}}}, block: true}
	c := NewUserController(testLogger, &fakeUserService{}, events)
	closing, closeStreams := context.WithCancel(context.Background())
	c.Closing = closing

	done := make(chan struct{})
	rr := httptest.NewRecorder()
	go func() {
		defer close(done)
		c.StreamMyEvents(rr, authedRequest(http.MethodGet, "/users/me/events/stream", nil, "user-1"))
	}()

	closeStreams()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not end after shutdown")
	}
	assert.Equal(t, http.StatusOK, rr.Code)
}
