package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"eventplanner/internal/domain"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// ErrEmailNotVerified is returned when Google reports the account email as unverified.
var ErrEmailNotVerified = errors.New("google account email is not verified")

// GoogleConfig configures the Google sign-in provider. Endpoint and UserInfoURL
// default to Google's production values when empty.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Endpoint     oauth2.Endpoint
	UserInfoURL  string
}

type googleUserInfo struct {
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
}

type googleProvider struct {
	oauth2Config *oauth2.Config
	userInfoURL  string
}

// NewGoogleProvider returns a domain.OAuthProvider for Google's authorization-code flow.
func NewGoogleProvider(cfg GoogleConfig) domain.OAuthProvider {
	endpoint := cfg.Endpoint
	if endpoint.AuthURL == "" && endpoint.TokenURL == "" {
		endpoint = google.Endpoint
	}
	userInfoURL := cfg.UserInfoURL
	if userInfoURL == "" {
		userInfoURL = googleUserInfoURL
	}
	return &googleProvider{
		oauth2Config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     endpoint,
		},
		userInfoURL: userInfoURL,
	}
}

func (p *googleProvider) AuthCodeURL(state string) string {
	return p.oauth2Config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades the authorization code for a token and fetches the account profile.
func (p *googleProvider) Exchange(ctx context.Context, code string) (*domain.ExternalIdentity, error) {
	token, err := p.oauth2Config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build userinfo request: %w", err)
	}
	resp, err := p.oauth2Config.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("get user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo request failed with status: %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("parse user info: %w", err)
	}
	if info.Email == "" {
		return nil, fmt.Errorf("parse user info: missing email")
	}
	if !info.VerifiedEmail {
		return nil, ErrEmailNotVerified
	}
	return &domain.ExternalIdentity{Email: info.Email, Name: info.Name}, nil
}
