package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"eventplanner/internal/domain"
	"eventplanner/internal/metrics"

	"github.com/google/uuid"
)

const (
	minPasswordLen = 8
	tokenType      = "Bearer"
)

var emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

type authService struct {
	userRepo       domain.UserRepository
	hasher         domain.PasswordHasher
	tokenIssuer    domain.TokenIssuer
	sessions       domain.SessionStore
	google         domain.OAuthProvider
	tokenExpiry    time.Duration
	contextTimeout time.Duration
}

// NewAuthService creates an AuthService. google may be nil, which disables Google sign-in.
func NewAuthService(userRepo domain.UserRepository,
	hasher domain.PasswordHasher,
	tokenIssuer domain.TokenIssuer,
	sessions domain.SessionStore,
	google domain.OAuthProvider,
	tokenExpiry time.Duration,
	timeout time.Duration,
) domain.AuthService {
	return &authService{
		userRepo:       userRepo,
		hasher:         hasher,
		tokenIssuer:    tokenIssuer,
		sessions:       sessions,
		google:         google,
		tokenExpiry:    tokenExpiry,
		contextTimeout: timeout,
	}
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

func (s *authService) SignUp(ctx context.Context, email, password, name string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	email = normalizeEmail(email)
	if !emailRegexp.MatchString(email) {
		return nil, fmt.Errorf("%w: invalid email format", domain.ErrInvalidInput)
	}
	if len(password) < minPasswordLen {
		return nil, fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidInput, minPasswordLen)
	}

	salt, err := s.hasher.GenerateSalt()
	if err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(salt, password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := domain.NewUser(email, strings.TrimSpace(name), hash, salt, now, now)
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (s *authService) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	session, err := s.signIn(ctx, email, password)
	metrics.SignIns.WithLabelValues("password", outcome(err)).Inc()
	return session, err
}

func (s *authService) signIn(ctx context.Context, email, password string) (*domain.Session, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	// Accounts created through Google have no password.
	if user.PasswordHash == "" {
		return nil, domain.ErrInvalidCredentials
	}
	if err := s.hasher.Compare(user.PasswordHash, user.Salt, password); err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			return nil, err
		}
		return nil, fmt.Errorf("compare password: %w", err)
	}
	return s.startSession(ctx, user)
}

// AdminSignIn signs in and then checks the profile's admin flag. A non-admin
// never receives a token: the session created for the check is revoked first.
func (s *authService) AdminSignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	session, err := s.adminSignIn(ctx, email, password)
	switch {
	case err == nil:
		metrics.AdminSignIns.WithLabelValues(metrics.OutcomeSuccess).Inc()
	case errors.Is(err, domain.ErrNotAdmin):
		metrics.AdminSignIns.WithLabelValues(metrics.OutcomeRejected).Inc()
	default:
		metrics.AdminSignIns.WithLabelValues(metrics.OutcomeFailure).Inc()
	}
	return session, err
}

func (s *authService) adminSignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	session, err := s.signIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	profile, err := s.userRepo.GetByID(ctx, session.User.ID)
	if err == nil && profile.IsAdmin {
		session.User = profile
		return session, nil
	}

	// Revocation must happen even if the request context is already done.
	revokeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.contextTimeout)
	defer cancel()
	if rerr := s.sessions.Delete(revokeCtx, session.ID); rerr != nil {
		return nil, fmt.Errorf("revoke session after admin check: %w", rerr)
	}
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return nil, domain.ErrNotAdmin
}

func (s *authService) GoogleAuthURL(state string) (string, error) {
	if s.google == nil {
		return "", domain.ErrSignInUnavailable
	}
	if state == "" {
		return "", fmt.Errorf("%w: state is required", domain.ErrInvalidInput)
	}
	return s.google.AuthCodeURL(state), nil
}

// SignInWithGoogle exchanges the authorization code and signs the account in,
// creating a password-less user on first sign-in.
func (s *authService) SignInWithGoogle(ctx context.Context, code string) (*domain.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	session, err := s.signInWithGoogle(ctx, code)
	metrics.SignIns.WithLabelValues("google", outcome(err)).Inc()
	return session, err
}

func (s *authService) signInWithGoogle(ctx context.Context, code string) (*domain.Session, error) {
	if s.google == nil {
		return nil, domain.ErrSignInUnavailable
	}
	if strings.TrimSpace(code) == "" {
		return nil, fmt.Errorf("%w: code is required", domain.ErrInvalidInput)
	}
	identity, err := s.google.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidCredentials, err)
	}

	email := normalizeEmail(identity.Email)
	user, err := s.userRepo.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		now := time.Now()
		user = domain.NewUser(email, strings.TrimSpace(identity.Name), "", "", now, now)
		err = s.userRepo.Create(ctx, user)
		if errors.Is(err, domain.ErrDuplicateEmail) {
			// Lost a race with a concurrent first sign-in.
			user, err = s.userRepo.GetByEmail(ctx, email)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("load google user: %w", err)
	}
	return s.startSession(ctx, user)
}

func (s *authService) SignOut(ctx context.Context, sessionID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if sessionID == "" {
		return domain.ErrSessionNotFound
	}
	return s.sessions.Delete(ctx, sessionID)
}

// startSession records a server-side session and issues a token bound to it.
func (s *authService) startSession(ctx context.Context, user *domain.User) (*domain.Session, error) {
	sessionID := uuid.NewString()
	if err := s.sessions.Create(ctx, sessionID, user.ID, s.tokenExpiry); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	token, err := s.tokenIssuer.Issue(user.ID, user.Email, sessionID, s.tokenExpiry)
	if err != nil {
		_ = s.sessions.Delete(ctx, sessionID)
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &domain.Session{
		ID:        sessionID,
		Token:     token,
		TokenType: tokenType,
		ExpiresAt: time.Now().Add(s.tokenExpiry),
		User:      user,
	}, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, domain.ErrInvalidCredentials):
		return metrics.OutcomeRejected
	}
	return metrics.OutcomeFailure
}
