package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newGoogleStub(t *testing.T, verified bool) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.PostForm.Get("code") != "good-code" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "at-1", "token_type": "Bearer", "expires_in": 3600})
	})
	mux.HandleFunc("GET /userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"email": "g@example.com", "verified_email": verified, "name": "Gee"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestGoogleProvider(srv *httptest.Server) *googleProvider {
	return NewGoogleProvider(GoogleConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost/auth/google/callback",
		Endpoint:     oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token", AuthStyle: oauth2.AuthStyleInParams},
		UserInfoURL:  srv.URL + "/userinfo",
	}).(*googleProvider)
}

func TestGoogleProvider_AuthCodeURL(t *testing.T) {
	p := NewGoogleProvider(GoogleConfig{ClientID: "client", RedirectURL: "http://localhost/cb"})
	u, err := url.Parse(p.AuthCodeURL("state-1"))
	require.NoError(t, err)
	assert.Equal(t, "accounts.google.com", u.Host)
	assert.Equal(t, "state-1", u.Query().Get("state"))
	assert.Equal(t, "client", u.Query().Get("client_id"))
}

func TestGoogleProvider_Exchange(t *testing.T) {
	t.Run("verified account", func(t *testing.T) {
		p := newTestGoogleProvider(newGoogleStub(t, true))
		id, err := p.Exchange(context.Background(), "good-code")
		require.NoError(t, err)
		assert.Equal(t, "g@example.com", id.Email)
		assert.Equal(t, "Gee", id.Name)
	})

	t.Run("unverified account", func(t *testing.T) {
		p := newTestGoogleProvider(newGoogleStub(t, false))
		_, err := p.Exchange(context.Background(), "good-code")
		require.ErrorIs(t, err, ErrEmailNotVerified)
	})

	t.Run("bad code", func(t *testing.T) {
		p := newTestGoogleProvider(newGoogleStub(t, true))
		_, err := p.Exchange(context.Background(), "bad-code")
		require.Error(t, err)
	})
}
