package controllers

import (
	"log/slog"
	"net/http"
	"strconv"

	"eventplanner/internal/delivery/http/helpers"
	"eventplanner/internal/domain"
)

// FlagRequest is the request body for POST /events/{eventID}/flags.
// Reason length is checked by the service after trimming.
type FlagRequest struct {
	Reason string `json:"reason"`
}

// FlagStatusRequest is the request body for PATCH /admin/events/{eventID}/flags/{flagID}.
type FlagStatusRequest struct {
	Status domain.FlagStatus `json:"status"`
}

// Validate implements Validator.
func (f FlagStatusRequest) Validate() []string {
	if !f.Status.Valid() {
		return []string{`status must be "pending", "reviewed" or "resolved"`}
	}
	return nil
}

// FlagSuccessResponse is the success response envelope for a single flag.
type FlagSuccessResponse struct {
	Data  *domain.Flag      `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// ModerationController serves the flag workflow and the admin dashboard.
type ModerationController struct {
	Logger  *slog.Logger
	Service domain.ModerationService
}

func NewModerationController(logger *slog.Logger, svc domain.ModerationService) *ModerationController {
	return &ModerationController{
		Logger:  logger,
		Service: svc,
	}
}

// SubmitFlag godoc
// @Summary Flag an event
// @Description Reports an event for review. The reason must be at least 10 characters after trimming. Owners cannot flag their own events and each user may flag an event once.
// @Tags moderation
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param body body FlagRequest true "Reason"
// @Success 201 {object} controllers.FlagSuccessResponse "data contains the pending flag"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (own event)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (already flagged)"
// @Failure 429 {object} helpers.APIResponse "error.code: too_many_requests"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/flags [post]
func (c *ModerationController) SubmitFlag(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	var req FlagRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	flag, err := c.Service.SubmitFlag(r.Context(), eventID, userID, req.Reason)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, flag)
}

// ListFlagged godoc
// @Summary List flagged events
// @Description Admin dashboard: events with at least one flag, newest first, each with all its flags.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.ListEventsSuccessResponse "data contains items and pagination"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not admin)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /admin/flagged-events [get]
func (c *ModerationController) ListFlagged(w http.ResponseWriter, r *http.Request) {
	params := helpers.ParsePagination(r)
	events, total, err := c.Service.ListFlaggedEvents(r.Context(), params)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	if events == nil {
		events = []*domain.Event{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, helpers.NewPageResponse(events, params, total))
}

// SetFlagStatus godoc
// @Summary Set a flag's status
// @Description Moves one flag, addressed by ID, to pending, reviewed or resolved. Setting the current status again changes nothing.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param flagID path string true "Flag ID (UUID)"
// @Param body body FlagStatusRequest true "Target status"
// @Success 200 {object} controllers.FlagSuccessResponse "data contains the flag"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not admin)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /admin/events/{eventID}/flags/{flagID} [patch]
func (c *ModerationController) SetFlagStatus(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	flagID := r.PathValue("flagID")
	var req FlagStatusRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	flag, err := c.Service.SetFlagStatus(r.Context(), eventID, flagID, req.Status)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, flag)
}

// DeleteEvent godoc
// @Summary Delete a flagged event
// @Description Removes the event with its guests, flags and image. Requires confirm=true; without it nothing is deleted.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param confirm query bool true "Must be true"
// @Success 200 {object} helpers.APIResponse "data.status: deleted"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (confirmation required)"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not admin)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /admin/events/{eventID} [delete]
func (c *ModerationController) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	if err := c.Service.DeleteFlaggedEvent(r.Context(), eventID, confirmed); err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, StatusResponse{Status: "deleted"})
}
