package controllers

import (
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	h "eventplanner/internal/delivery/http/helpers"
	"eventplanner/internal/delivery/http/middleware"
	"eventplanner/internal/domain"

	"github.com/google/uuid"
)

var emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

const (
	oauthStateCookie = "oauth_state"
	oauthStateTTL    = 10 * time.Minute
)

// SignUpRequest is the request body for POST /auth/signup
type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// Validate implements Validator.
func (s SignUpRequest) Validate() []string {
	var errs []string
	email := strings.TrimSpace(strings.ToLower(s.Email))
	if email == "" {
		errs = append(errs, "email is required")
	} else if !emailRegexp.MatchString(email) {
		errs = append(errs, "invalid email format")
	}
	if s.Password == "" {
		errs = append(errs, "password is required")
	} else if len(s.Password) < 8 {
		errs = append(errs, "password must be at least 8 characters")
	}
	return errs
}

// LoginRequest is the request body for POST /auth/login and POST /auth/admin/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate implements Validator.
func (l LoginRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(l.Email) == "" {
		errs = append(errs, "email is required")
	}
	if l.Password == "" {
		errs = append(errs, "password is required")
	}
	return errs
}

// SignUpSuccessResponse is the success response envelope for POST /auth/signup (201).
type SignUpSuccessResponse struct {
	Data  *domain.User `json:"data"`
	Error *h.APIError  `json:"error"`
}

// LoginSuccessResponse is the success response envelope for the sign-in endpoints (200).
type LoginSuccessResponse struct {
	Data  *domain.Session `json:"data"`
	Error *h.APIError     `json:"error"`
}

// StatusResponse is a data payload carrying only a status word.
type StatusResponse struct {
	Status string `json:"status"`
}

type AuthController struct {
	Logger  *slog.Logger
	Service domain.AuthService
	// SecureCookies marks the OAuth state cookie Secure; enable behind HTTPS.
	SecureCookies bool
}

func NewAuthController(logger *slog.Logger, svc domain.AuthService, secureCookies bool) *AuthController {
	return &AuthController{
		Logger:        logger,
		Service:       svc,
		SecureCookies: secureCookies,
	}
}

// SignUp godoc
// @Summary Sign up a new user
// @Description Create a new user with email, password, and optional name. Password is stored hashed. New users are never admins.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body SignUpRequest true "Sign-up data"
// @Success 201 {object} controllers.SignUpSuccessResponse "data contains the created user"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /auth/signup [post]
func (c *AuthController) SignUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	user, err := c.Service.SignUp(r.Context(), req.Email, req.Password, strings.TrimSpace(req.Name))
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusCreated, user)
}

// Login godoc
// @Summary Log in
// @Description Authenticate with email and password. Returns a session token bound to a revocable server-side session.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body LoginRequest true "Login credentials"
// @Success 200 {object} controllers.LoginSuccessResponse "data contains token, token_type, expires_at and user"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 429 {object} helpers.APIResponse "error.code: too_many_requests"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /auth/login [post]
func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	session, err := c.Service.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, session)
}

// AdminLogin godoc
// @Summary Log in to the moderation dashboard
// @Description Authenticate with email and password and require the admin flag on the profile. A non-admin gets 403 and no session survives.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body LoginRequest true "Login credentials"
// @Success 200 {object} controllers.LoginSuccessResponse "data contains token, token_type, expires_at and user"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not an admin)"
// @Failure 429 {object} helpers.APIResponse "error.code: too_many_requests"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /auth/admin/login [post]
func (c *AuthController) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	session, err := c.Service.AdminSignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, session)
}

// GoogleLogin godoc
// @Summary Start Google sign-in
// @Description Redirects to Google's consent page. A short-lived state cookie guards the callback.
// @Tags auth
// @Success 302 "redirect to Google"
// @Failure 503 {object} helpers.APIResponse "error.code: service_unavailable (Google sign-in not configured)"
// @Router /auth/google/login [get]
func (c *AuthController) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	url, err := c.Service.GoogleAuthURL(state)
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/auth/google",
		MaxAge:   int(oauthStateTTL.Seconds()),
		HttpOnly: true,
		Secure:   c.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, url, http.StatusFound)
}

// GoogleCallback godoc
// @Summary Finish Google sign-in
// @Description Exchanges the authorization code. The first Google sign-in creates the profile.
// @Tags auth
// @Produce json
// @Param state query string true "State issued by /auth/google/login"
// @Param code query string true "Authorization code"
// @Success 200 {object} controllers.LoginSuccessResponse "data contains token, token_type, expires_at and user"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (state mismatch)"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 503 {object} helpers.APIResponse "error.code: service_unavailable"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /auth/google/callback [get]
func (c *AuthController) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(oauthStateCookie)
	state := r.URL.Query().Get("state")
	if err != nil || state == "" || cookie.Value != state {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "invalid oauth state")
		return
	}
	http.SetCookie(w, &http.Cookie{Name: oauthStateCookie, Path: "/auth/google", MaxAge: -1, HttpOnly: true, Secure: c.SecureCookies})

	if msg := r.URL.Query().Get("error"); msg != "" {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "google sign-in failed: "+msg)
		return
	}
	session, err := c.Service.SignInWithGoogle(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, session)
}

// Logout godoc
// @Summary Log out
// @Description Revokes the session behind the bearer token. The token stops working immediately.
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data.status: signed_out"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /auth/logout [post]
func (c *AuthController) Logout(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := middleware.SessionIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if err := c.Service.SignOut(r.Context(), sessionID); err != nil {
		writeServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, StatusResponse{Status: "signed_out"})
}
