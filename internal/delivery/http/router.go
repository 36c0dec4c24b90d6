package http

import (
	"log/slog"
	"net/http"

	"eventplanner/internal/delivery/http/controllers"
	"eventplanner/internal/delivery/http/middleware"
	"eventplanner/internal/domain"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

// RouterDeps carries the controllers and guards mounted by NewRouter.
type RouterDeps struct {
	Logger         *slog.Logger
	AllowedOrigins []string

	Auth       *controllers.AuthController
	Users      *controllers.UserController
	Events     *controllers.EventController
	Guests     *controllers.GuestController
	Moderation *controllers.ModerationController
	Health     *controllers.HealthController

	TokenVerifier domain.TokenVerifier
	Sessions      domain.SessionStore
	Admins        middleware.AdminChecker

	// SignInLimiter guards the password sign-in routes; FlagLimiter guards flag submission.
	SignInLimiter *middleware.RateLimiter
	FlagLimiter   *middleware.RateLimiter
	// Proxies lists the reverse proxies whose X-Forwarded-For is believed. Nil trusts none.
	Proxies *middleware.ProxyTrust
}

// NewRouter initializes the HTTP router with all application routes
func NewRouter(d RouterDeps) http.Handler {
	mux := http.NewServeMux()

	auth := middleware.RequireAuth(d.TokenVerifier, d.Sessions, d.Logger)
	admin := func(next http.HandlerFunc) http.HandlerFunc {
		return auth(middleware.RequireAdmin(d.Admins, d.Logger)(next))
	}
	signInLimit := d.SignInLimiter.Limit(d.Proxies.ClientIP)
	flagLimit := d.FlagLimiter.Limit(d.Proxies.UserOrIP)

	// Auth
	mux.HandleFunc("POST /auth/signup", d.Auth.SignUp)
	mux.HandleFunc("POST /auth/login", signInLimit(d.Auth.Login))
	mux.HandleFunc("POST /auth/admin/login", signInLimit(d.Auth.AdminLogin))
	mux.HandleFunc("GET /auth/google/login", d.Auth.GoogleLogin)
	mux.HandleFunc("GET /auth/google/callback", d.Auth.GoogleCallback)
	mux.HandleFunc("POST /auth/logout", auth(d.Auth.Logout))

	// Events
	mux.HandleFunc("GET /events", d.Events.ListPublic)
	mux.HandleFunc("POST /events", auth(d.Events.CreateEvent))
	mux.HandleFunc("GET /events/{eventID}", auth(d.Events.GetEventDetail))
	mux.HandleFunc("PUT /events/{eventID}", auth(d.Events.UpdateEvent))

	// Guests
	mux.HandleFunc("GET /events/{eventID}/guests", auth(d.Guests.ListGuests))
	mux.HandleFunc("POST /events/{eventID}/guests", auth(d.Guests.AddGuest))
	mux.HandleFunc("PATCH /events/{eventID}/guests/{guestID}", auth(d.Guests.UpdateRSVP))

	// Flags
	mux.HandleFunc("POST /events/{eventID}/flags", auth(flagLimit(d.Moderation.SubmitFlag)))

	// Profile
	mux.HandleFunc("GET /users/me", auth(d.Users.GetMe))
	mux.HandleFunc("PATCH /users/me", auth(d.Users.UpdateMe))
	mux.HandleFunc("GET /users/me/events", auth(d.Users.ListMyEvents))
	mux.HandleFunc("GET /users/me/events/stream", auth(d.Users.StreamMyEvents))

	// Admin dashboard
	mux.HandleFunc("GET /admin/flagged-events", admin(d.Moderation.ListFlagged))
	mux.HandleFunc("PATCH /admin/events/{eventID}/flags/{flagID}", admin(d.Moderation.SetFlagStatus))
	mux.HandleFunc("DELETE /admin/events/{eventID}", admin(d.Moderation.DeleteEvent))

	// Ops
	mux.HandleFunc("GET /healthz", d.Health.Healthz)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return middleware.CORS(d.AllowedOrigins,
		middleware.LoggingMiddleware(d.Logger,
			middleware.Metrics(mux)))
}
