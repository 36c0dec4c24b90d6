package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"eventplanner/internal/delivery/http/helpers"
	"eventplanner/internal/domain"
)

// UpdateUserRequest is the request body for PATCH /users/me.
type UpdateUserRequest struct {
	Name string `json:"name"`
}

// Validate implements Validator.
func (u UpdateUserRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(u.Name) == "" {
		errs = append(errs, "name is required")
	}
	return errs
}

// GetMeSuccessResponse is the success response envelope for GET /users/me (200).
type GetMeSuccessResponse struct {
	Data  *domain.User      `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// ListMyEventsSuccessResponse is the success response envelope for GET /users/me/events (200).
type ListMyEventsSuccessResponse struct {
	Data  []*domain.Event   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// UserController handles the signed-in user's profile and owned events.
type UserController struct {
	Logger *slog.Logger
	Users  domain.UserService
	Events domain.EventService
	// Closing, when set, ends open event streams once it is done.
	Closing context.Context
}

// NewUserController creates a UserController with the given logger and services.
func NewUserController(logger *slog.Logger, users domain.UserService, events domain.EventService) *UserController {
	return &UserController{
		Logger: logger,
		Users:  users,
		Events: events,
	}
}

// GetMe godoc
// @Summary Get current user
// @Description Returns the authenticated user's profile (id, email, name, is_admin, timestamps). Requires Bearer token.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.GetMeSuccessResponse "data contains the user"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/me [get]
func (c *UserController) GetMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	user, err := c.Users.GetByID(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, user)
}

// UpdateMe godoc
// @Summary Update current user
// @Description Changes the authenticated user's display name. Requires Bearer token.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body UpdateUserRequest true "New display name"
// @Success 200 {object} controllers.GetMeSuccessResponse "data contains the updated user"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/me [patch]
func (c *UserController) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	var req UpdateUserRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	user, err := c.Users.UpdateName(r.Context(), userID, req.Name)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, user)
}

// ListMyEvents godoc
// @Summary List my events
// @Description Returns every event owned by the authenticated user, public or private, newest first.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.ListMyEventsSuccessResponse "data contains the owned events"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/me/events [get]
func (c *UserController) ListMyEvents(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	events, err := c.Events.ListOwnedEvents(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	if events == nil {
		events = []*domain.Event{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, events)
}

// StreamMyEvents godoc
// @Summary Stream my events
// @Description Server-sent events. Each "events" message carries the complete owned set; one is sent on connect and one after every change.
// @Tags users
// @Produce text/event-stream
// @Security BearerAuth
// @Success 200 {array} domain.Event "stream of owned-event snapshots"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 503 {object} helpers.APIResponse "error.code: service_unavailable"
// @Router /users/me/events/stream [get]
func (c *UserController) StreamMyEvents(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	if c.Closing != nil {
		stop := context.AfterFunc(c.Closing, cancel)
		defer stop()
	}

	rc := http.NewResponseController(w)
	started := false
	seq := 0

	err := c.Events.WatchOwnedEvents(ctx, userID, func(events []*domain.Event) error {
		if !started {
			// The stream outlives the server's write timeout.
			if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
				return err
			}
			w.Header().Set("Content-Type", "text/event-stream")
			w.Header().Set("Cache-Control", "no-cache")
			w.Header().Set("Connection", "keep-alive")
			w.Header().Set("X-Accel-Buffering", "no")
			w.WriteHeader(http.StatusOK)
			started = true
		}
		if events == nil {
			events = []*domain.Event{}
		}
		payload, err := json.Marshal(events)
		if err != nil {
			return err
		}
		seq++
		if _, err := fmt.Fprintf(w, "id: %d\nevent: events\ndata: %s\n\n", seq, payload); err != nil {
			return err
		}
		return rc.Flush()
	})
	if err == nil {
		return
	}
	if !started {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	c.Logger.WarnContext(r.Context(), "event stream closed", "user_id", userID, "err", err)
}
