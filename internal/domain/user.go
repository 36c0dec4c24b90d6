package domain

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for user and sign-in operations.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicateEmail     = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotAdmin           = errors.New("unauthorized access, admin privileges required")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSignInUnavailable  = errors.New("sign-in method not configured")
)

// User represents a registered user. IsAdmin grants access to the moderation dashboard.
// swagger:model User
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	IsAdmin      bool      `json:"is_admin"`
	PasswordHash string    `json:"-"`
	Salt         string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewUser returns a new non-admin User. ID is typically set by the repository on create.
func NewUser(email, name, passwordHash, salt string, createdAt, updatedAt time.Time) *User {
	return &User{
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		Salt:         salt,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}
}

// Session is the result of a successful sign-in.
type Session struct {
	ID        string    `json:"-"`
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
	User      *User     `json:"user"`
}

// TokenClaims is what a verified token asserts about its bearer.
type TokenClaims struct {
	UserID    string
	Email     string
	SessionID string
}

// ExternalIdentity is the profile returned by a third-party sign-in provider.
type ExternalIdentity struct {
	Email string
	Name  string
}

// PasswordHasher handles salt generation, hashing, and verification.
type PasswordHasher interface {
	GenerateSalt() (string, error)
	Hash(salt, password string) (hash string, err error)
	Compare(hash, salt, password string) error
}

// TokenIssuer issues tokens (e.g. JWT) bound to a session.
type TokenIssuer interface {
	Issue(userID, email, sessionID string, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a token and returns its claims.
type TokenVerifier interface {
	Verify(token string) (*TokenClaims, error)
}

// SessionStore tracks live sign-in sessions so that signing out revokes the token.
type SessionStore interface {
	Create(ctx context.Context, sessionID, userID string, ttl time.Duration) error
	Exists(ctx context.Context, sessionID string) (bool, error)
	Delete(ctx context.Context, sessionID string) error
}

// OAuthProvider drives an authorization-code sign-in with an external identity provider.
type OAuthProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*ExternalIdentity, error)
}

// UserRepository defines the interface for user storage.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	Update(ctx context.Context, user *User) error
}

// AuthService defines sign-up, sign-in (regular, admin, Google) and sign-out.
type AuthService interface {
	SignUp(ctx context.Context, email, password, name string) (*User, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	AdminSignIn(ctx context.Context, email, password string) (*Session, error)
	GoogleAuthURL(state string) (string, error)
	SignInWithGoogle(ctx context.Context, code string) (*Session, error)
	SignOut(ctx context.Context, sessionID string) error
}

// UserService defines profile lookups.
type UserService interface {
	GetByID(ctx context.Context, id string) (*User, error)
	UpdateName(ctx context.Context, id, name string) (*User, error)
	IsAdmin(ctx context.Context, id string) (bool, error)
}
