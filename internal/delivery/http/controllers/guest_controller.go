package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"eventplanner/internal/delivery/http/helpers"
	"eventplanner/internal/domain"
)

// AddGuestRequest is the request body for POST /events/{eventID}/guests.
type AddGuestRequest struct {
	Email string  `json:"email"`
	Role  *string `json:"role"`
	Notes *string `json:"notes"`
}

// Validate implements Validator.
func (a AddGuestRequest) Validate() []string {
	var errs []string
	email := strings.TrimSpace(strings.ToLower(a.Email))
	if email == "" {
		errs = append(errs, "email is required")
	} else if !emailRegexp.MatchString(email) {
		errs = append(errs, "invalid email format")
	}
	return errs
}

// UpdateRSVPRequest is the request body for PATCH /events/{eventID}/guests/{guestID}.
type UpdateRSVPRequest struct {
	RSVPStatus domain.RSVPStatus `json:"rsvp_status"`
}

// Validate implements Validator.
func (u UpdateRSVPRequest) Validate() []string {
	if !u.RSVPStatus.Valid() {
		return []string{`rsvp_status must be "pending", "accepted" or "declined"`}
	}
	return nil
}

// GuestSuccessResponse is the success response envelope for a single guest entry.
type GuestSuccessResponse struct {
	Data  *domain.Guest     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// ListGuestsSuccessResponse is the success response envelope for GET /events/{eventID}/guests (200).
type ListGuestsSuccessResponse struct {
	Data  []*domain.Guest   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// GuestController manages an event's guest list.
type GuestController struct {
	Logger  *slog.Logger
	Service domain.GuestService
}

func NewGuestController(logger *slog.Logger, svc domain.GuestService) *GuestController {
	return &GuestController{
		Logger:  logger,
		Service: svc,
	}
}

// ListGuests godoc
// @Summary List guests
// @Description Returns the event's guest list. Owner only.
// @Tags guests
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.ListGuestsSuccessResponse "data contains the guests"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not owner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/guests [get]
func (c *GuestController) ListGuests(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	guests, err := c.Service.ListGuests(r.Context(), eventID, userID)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	if guests == nil {
		guests = []*domain.Guest{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, guests)
}

// AddGuest godoc
// @Summary Invite a guest
// @Description Adds an email to the guest list with RSVP "pending" and sends an invitation. Owner only. An email can be listed once per event.
// @Tags guests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param body body AddGuestRequest true "Guest email, optional role and notes"
// @Success 201 {object} controllers.GuestSuccessResponse "data contains the new guest"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not owner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (already invited)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/guests [post]
func (c *GuestController) AddGuest(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	var req AddGuestRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	guest, err := c.Service.AddGuest(r.Context(), eventID, userID, req.Email, req.Role, req.Notes)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, guest)
}

// UpdateRSVP godoc
// @Summary Set a guest's RSVP
// @Description Changes one guest entry's RSVP status, addressed by guest ID. The owner may set any entry; an invited user may answer their own.
// @Tags guests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param guestID path string true "Guest ID (UUID)"
// @Param body body UpdateRSVPRequest true "New RSVP status"
// @Success 200 {object} controllers.GuestSuccessResponse "data contains the updated guest"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/guests/{guestID} [patch]
func (c *GuestController) UpdateRSVP(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	guestID := r.PathValue("guestID")
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	var req UpdateRSVPRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	guest, err := c.Service.UpdateGuestRSVP(r.Context(), eventID, guestID, userID, req.RSVPStatus)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, guest)
}
