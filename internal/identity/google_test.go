package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestGoogleLoginURL(t *testing.T) {
	p := NewGoogleProvider(GoogleConfig{
		ClientID:    "client-1",
		RedirectURL: "https://app.example/callback",
	})

	raw := p.LoginURL("state-abc")
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("LoginURL produced an unparseable URL: %v", err)
	}
	if !strings.HasPrefix(raw, defaultGoogleAuthURL+"?") {
		t.Errorf("URL = %q, want %q prefix", raw, defaultGoogleAuthURL)
	}
	q := u.Query()
	if q.Get("client_id") != "client-1" || q.Get("state") != "state-abc" {
		t.Errorf("query = %v", q)
	}
	if q.Get("response_type") != "code" || q.Get("scope") != "openid email profile" {
		t.Errorf("query = %v", q)
	}
}

func TestGoogleExchange(t *testing.T) {
	userinfo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
			t.Errorf("Authorization = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"sub":            "sub-42",
			"email":          "g@b.com",
			"email_verified": true,
			"name":           "Grace",
			"picture":        "https://pic",
		})
	}))
	defer userinfo.Close()

	token := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parsing token form: %v", err)
		}
		if r.PostForm.Get("code") != "code-1" || r.PostForm.Get("grant_type") != "authorization_code" {
			t.Errorf("form = %v", r.PostForm)
		}
		json.NewEncoder(w).Encode(map[string]any{"access_token": "tok-123", "token_type": "Bearer"})
	}))
	defer token.Close()

	p := NewGoogleProvider(GoogleConfig{
		ClientID:     "client-1",
		ClientSecret: "secret",
		RedirectURL:  "https://app.example/callback",
		TokenURL:     token.URL,
		UserInfoURL:  userinfo.URL,
	})

	claim, err := p.Exchange(context.Background(), "code-1")
	if err != nil {
		t.Fatalf("Exchange failed: %v", err)
	}
	if claim.Subject != "sub-42" || claim.Email != "g@b.com" || claim.Name != "Grace" {
		t.Errorf("claim = %+v", claim)
	}
	if !claim.EmailVerified {
		t.Error("claim not marked verified")
	}
}

func TestGoogleExchangeErrors(t *testing.T) {
	t.Run("token endpoint failure", func(t *testing.T) {
		token := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
		}))
		defer token.Close()

		p := NewGoogleProvider(GoogleConfig{TokenURL: token.URL})
		if _, err := p.Exchange(context.Background(), "stale-code"); err == nil {
			t.Fatal("expected an error for a rejected code")
		}
	})

	t.Run("empty access token", func(t *testing.T) {
		token := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"token_type": "Bearer"})
		}))
		defer token.Close()

		p := NewGoogleProvider(GoogleConfig{TokenURL: token.URL})
		if _, err := p.Exchange(context.Background(), "code-1"); err == nil {
			t.Fatal("expected an error for a missing access token")
		}
	})

	t.Run("missing subject", func(t *testing.T) {
		userinfo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"email": "g@b.com"})
		}))
		defer userinfo.Close()
		token := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"access_token": "tok-123"})
		}))
		defer token.Close()

		p := NewGoogleProvider(GoogleConfig{TokenURL: token.URL, UserInfoURL: userinfo.URL})
		if _, err := p.Exchange(context.Background(), "code-1"); err == nil {
			t.Fatal("expected an error for a claim without a subject")
		}
	})
}
