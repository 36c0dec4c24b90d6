package controllers

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"eventplanner/internal/delivery/http/helpers"
	"eventplanner/internal/domain"
)

const (
	// multipartOverhead is the room left for form fields and part headers on top of the image.
	multipartOverhead = 1 << 20
	multipartMemory   = 8 << 20
	imageFormField    = "image"
	sniffLen          = 512
)

// EventRequest is the editor form for POST /events and PUT /events/{eventID}.
// It arrives as JSON, or as multipart/form-data with an optional "image" file part.
type EventRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Location    string `json:"location"`
	IsPublic    bool   `json:"is_public"`
}

// Validate implements Validator.
func (e EventRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(e.Title) == "" {
		errs = append(errs, "title is required")
	}
	if strings.TrimSpace(e.Description) == "" {
		errs = append(errs, "description is required")
	}
	return errs
}

func (e EventRequest) input() domain.EventInput {
	return domain.EventInput{
		Title:       e.Title,
		Description: e.Description,
		Date:        e.Date,
		Location:    e.Location,
		IsPublic:    e.IsPublic,
	}
}

// EventSuccessResponse is the success response envelope for POST /events (201) and PUT /events/{eventID} (200).
type EventSuccessResponse struct {
	Data  *domain.Event     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// EventDetailSuccessResponse is the success response envelope for GET /events/{eventID} (200).
type EventDetailSuccessResponse struct {
	Data  *domain.EventDetail `json:"data"`
	Error *helpers.APIError   `json:"error"`
}

// ListEventsSuccessResponse is the success response envelope for GET /events (200).
type ListEventsSuccessResponse struct {
	Data  helpers.PageResponse `json:"data"`
	Error *helpers.APIError    `json:"error"`
}

type EventController struct {
	Logger  *slog.Logger
	Service domain.EventService
}

func NewEventController(logger *slog.Logger, svc domain.EventService) *EventController {
	return &EventController{
		Logger:  logger,
		Service: svc,
	}
}

// ListPublic godoc
// @Summary List public events
// @Description Public catalog, newest first. Private events never appear here. No authentication required.
// @Tags events
// @Produce json
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.ListEventsSuccessResponse "data contains items and pagination"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [get]
func (c *EventController) ListPublic(w http.ResponseWriter, r *http.Request) {
	params := helpers.ParsePagination(r)
	events, total, err := c.Service.ListPublicEvents(r.Context(), params)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	if events == nil {
		events = []*domain.Event{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, helpers.NewPageResponse(events, params, total))
}

// CreateEvent godoc
// @Summary Create an event
// @Description Create an event owned by the authenticated user. Send JSON, or multipart/form-data with an optional "image" part (image/*, at most 5MB).
// @Tags events
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param event body EventRequest true "Event fields"
// @Success 201 {object} controllers.EventSuccessResponse "data contains the created event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 413 {object} helpers.APIResponse "error.code: payload_too_large"
// @Failure 503 {object} helpers.APIResponse "error.code: service_unavailable (image storage)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [post]
func (c *EventController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	req, image, ok := c.readEventForm(w, r)
	if !ok {
		return
	}
	if image != nil {
		defer image.close()
	}
	event, err := c.Service.CreateEvent(r.Context(), userID, req.input(), image.upload())
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, event)
}

// UpdateEvent godoc
// @Summary Update an event
// @Description Replace the editable fields of an event. Only the owner may edit. A new image replaces the old one; without one the current image is kept.
// @Tags events
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param event body EventRequest true "Event fields"
// @Success 200 {object} controllers.EventSuccessResponse "data contains the updated event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not owner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 413 {object} helpers.APIResponse "error.code: payload_too_large"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [put]
func (c *EventController) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	req, image, ok := c.readEventForm(w, r)
	if !ok {
		return
	}
	if image != nil {
		defer image.close()
	}
	event, err := c.Service.UpdateEvent(r.Context(), eventID, userID, req.input(), image.upload())
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// GetEventDetail godoc
// @Summary Get an event
// @Description Returns the event with is_owner and can_flag. The guest list and pending-flag state are only included for the owner. Private events are reachable by id but never listed in the catalog.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} controllers.EventDetailSuccessResponse "data contains event, is_owner and can_flag"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [get]
func (c *EventController) GetEventDetail(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	detail, err := c.Service.GetEventDetail(r.Context(), eventID, userID)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, detail)
}

// formImage is the "image" part of a multipart editor form.
type formImage struct {
	file        multipart.File
	filename    string
	contentType string
	size        int64
}

func (f *formImage) upload() *domain.ImageUpload {
	if f == nil {
		return nil
	}
	return &domain.ImageUpload{
		Filename:    f.filename,
		ContentType: f.contentType,
		Size:        f.size,
		Body:        f.file,
	}
}

func (f *formImage) close() {
	_ = f.file.Close()
}

// readEventForm decodes a JSON or multipart editor form. On failure it has already
// written the error response and returns ok=false.
func (c *EventController) readEventForm(w http.ResponseWriter, r *http.Request) (EventRequest, *formImage, bool) {
	var req EventRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		ok := helpers.DecodeAndValidate(w, r, &req)
		return req, nil, ok
	}

	r.Body = http.MaxBytesReader(w, r.Body, domain.MaxImageBytes+multipartOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			helpers.WriteJSONError(w, http.StatusRequestEntityTooLarge, helpers.ErrCodePayloadTooLarge, domain.ErrImageTooLarge.Error())
			return req, nil, false
		}
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid multipart form")
		return req, nil, false
	}
	req.Title = r.FormValue("title")
	req.Description = r.FormValue("description")
	req.Date = r.FormValue("date")
	req.Location = r.FormValue("location")
	if v := r.FormValue("is_public"); v != "" {
		isPublic, err := strconv.ParseBool(v)
		if err != nil {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "is_public must be true or false")
			return req, nil, false
		}
		req.IsPublic = isPublic
	}
	if !helpers.Validate(w, req) {
		return req, nil, false
	}

	file, header, err := r.FormFile(imageFormField)
	if errors.Is(err, http.ErrMissingFile) {
		return req, nil, true
	}
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid image part")
		return req, nil, false
	}
	image := &formImage{file: file, filename: header.Filename, size: header.Size}
	image.contentType, err = sniffContentType(file)
	if err != nil {
		_ = file.Close()
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "unreadable image part")
		return req, nil, false
	}
	return req, image, true
}

// sniffContentType reads the leading bytes of f to detect its type, then rewinds.
func sniffContentType(f multipart.File) (string, error) {
	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return http.DetectContentType(buf[:n]), nil
}
