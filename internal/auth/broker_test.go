package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/ChrisT3B/beats-repeats-test/internal/shared"
)

func newTestBroker(t *testing.T, store VerifierStore) *Broker {
	t.Helper()
	b, err := NewBroker("test_client_id", "http://127.0.0.1:3000/callback", store, nil)
	if err != nil {
		t.Fatalf("failed to create broker: %v", err)
	}
	return b
}

// tokenEndpoint is a fake accounts service counting exchange attempts.
func tokenEndpoint(t *testing.T, status int, body string, hits *atomic.Int64) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if err := r.ParseForm(); err != nil {
			t.Errorf("failed to parse form: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestBroker(t *testing.T) {
	t.Run("NewBroker", func(t *testing.T) {
		t.Run("requires client id", func(t *testing.T) {
			if _, err := NewBroker("", "http://localhost/cb", nil, nil); err == nil {
				t.Error("expected error for missing client_id")
			}
		})

		t.Run("requires redirect URI", func(t *testing.T) {
			if _, err := NewBroker("id", "", nil, nil); err == nil {
				t.Error("expected error for missing redirect_uri")
			}
		})
	})

	t.Run("Begin", func(t *testing.T) {
		store := NewMemoryStore()
		b := newTestBroker(t, store)

		authURL, err := b.Begin(context.Background())
		if err != nil {
			t.Fatalf("Begin failed: %v", err)
		}

		u, err := url.Parse(authURL)
		if err != nil {
			t.Fatalf("Begin returned unparseable URL: %v", err)
		}
		q := u.Query()

		for param, want := range map[string]string{
			"client_id":             "test_client_id",
			"response_type":         "code",
			"redirect_uri":          "http://127.0.0.1:3000/callback",
			"code_challenge_method": "S256",
			"show_dialog":           "true",
		} {
			if got := q.Get(param); got != want {
				t.Errorf("%s = %q, want %q", param, got, want)
			}
		}

		for _, scope := range []string{"streaming", "user-read-email", "user-read-private", "user-read-playback-state", "user-modify-playback-state"} {
			if !strings.Contains(q.Get("scope"), scope) {
				t.Errorf("scope set missing %q", scope)
			}
		}

		verifier, _ := store.Get()
		if verifier == "" {
			t.Fatal("Begin did not store the verifier")
		}
		if q.Get("code_challenge") == "" {
			t.Error("redirect carries no code challenge")
		}
		if q.Get("code_challenge") == verifier {
			t.Error("challenge must be a digest, not the verifier itself")
		}

		t.Run("second Begin replaces the stored verifier", func(t *testing.T) {
			first := verifier
			if _, err := b.Begin(context.Background()); err != nil {
				t.Fatalf("Begin failed: %v", err)
			}
			second, _ := store.Get()
			if second == "" || second == first {
				t.Error("expected a fresh verifier on every Begin")
			}
		})
	})

	t.Run("Complete", func(t *testing.T) {
		t.Run("provider error yields AuthDenied without an exchange", func(t *testing.T) {
			var hits atomic.Int64
			srv := tokenEndpoint(t, http.StatusOK, `{"access_token":"x"}`, &hits)

			store := NewMemoryStore()
			store.Put("stored-verifier")
			b := newTestBroker(t, store)
			b.tokenURL = srv.URL

			_, err := b.Complete(context.Background(), "http://127.0.0.1:3000/callback?error=access_denied")
			if !errors.Is(err, shared.ErrAuthDenied) {
				t.Errorf("expected ErrAuthDenied, got %v", err)
			}
			if hits.Load() != 0 {
				t.Errorf("token endpoint hit %d times, want 0", hits.Load())
			}
		})

		t.Run("no code means no pending authentication", func(t *testing.T) {
			b := newTestBroker(t, NewMemoryStore())

			token, err := b.Complete(context.Background(), "http://127.0.0.1:3000/callback")
			if err != nil {
				t.Errorf("expected no error, got %v", err)
			}
			if token != nil {
				t.Error("expected nil credential when nothing is pending")
			}
		})

		t.Run("code without stored verifier yields MissingVerifier without network", func(t *testing.T) {
			var hits atomic.Int64
			srv := tokenEndpoint(t, http.StatusOK, `{"access_token":"x"}`, &hits)

			b := newTestBroker(t, NewMemoryStore())
			b.tokenURL = srv.URL

			_, err := b.Complete(context.Background(), "http://127.0.0.1:3000/callback?code=abc123")
			if !errors.Is(err, shared.ErrMissingVerifier) {
				t.Errorf("expected ErrMissingVerifier, got %v", err)
			}
			if hits.Load() != 0 {
				t.Errorf("token endpoint hit %d times, want 0", hits.Load())
			}
		})

		t.Run("successful exchange consumes the verifier", func(t *testing.T) {
			var hits atomic.Int64
			srv := tokenEndpoint(t, http.StatusOK, `{"access_token":"tok_1","token_type":"Bearer","expires_in":3600}`, &hits)

			store := NewMemoryStore()
			store.Put("stored-verifier")
			b := newTestBroker(t, store)
			b.tokenURL = srv.URL

			callback := "http://127.0.0.1:3000/callback?code=abc123"
			token, err := b.Complete(context.Background(), callback)
			if err != nil {
				t.Fatalf("Complete failed: %v", err)
			}
			if token.AccessToken != "tok_1" {
				t.Errorf("access token = %q, want tok_1", token.AccessToken)
			}
			if hits.Load() != 1 {
				t.Errorf("token endpoint hit %d times, want 1", hits.Load())
			}

			if v, _ := store.Get(); v != "" {
				t.Error("verifier survived a successful exchange")
			}

			t.Run("replaying the callback yields MissingVerifier", func(t *testing.T) {
				_, err := b.Complete(context.Background(), callback)
				if !errors.Is(err, shared.ErrMissingVerifier) {
					t.Errorf("expected ErrMissingVerifier on replay, got %v", err)
				}
				if hits.Load() != 1 {
					t.Errorf("replay reached the token endpoint: %d hits", hits.Load())
				}
			})
		})

		t.Run("provider rejection yields TokenExchange error", func(t *testing.T) {
			var hits atomic.Int64
			srv := tokenEndpoint(t, http.StatusBadRequest, `{"error":"invalid_grant","error_description":"Invalid authorization code"}`, &hits)

			store := NewMemoryStore()
			store.Put("stored-verifier")
			b := newTestBroker(t, store)
			b.tokenURL = srv.URL

			_, err := b.Complete(context.Background(), "http://127.0.0.1:3000/callback?code=used")
			if !errors.Is(err, shared.ErrTokenExchange) {
				t.Fatalf("expected ErrTokenExchange, got %v", err)
			}
			if !strings.Contains(err.Error(), "400") || !strings.Contains(err.Error(), "Invalid authorization code") {
				t.Errorf("error should carry status and description, got %v", err)
			}
		})

		t.Run("exchange sends the stored verifier", func(t *testing.T) {
			var gotVerifier, gotGrant, gotCode string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				r.ParseForm()
				gotVerifier = r.PostFormValue("code_verifier")
				gotGrant = r.PostFormValue("grant_type")
				gotCode = r.PostFormValue("code")
				w.Header().Set("Content-Type", "application/json")
				fmt.Fprint(w, `{"access_token":"tok"}`)
			}))
			defer srv.Close()

			store := NewMemoryStore()
			store.Put("the-verifier")
			b := newTestBroker(t, store)
			b.tokenURL = srv.URL

			if _, err := b.Complete(context.Background(), "http://127.0.0.1:3000/callback?code=abc123"); err != nil {
				t.Fatalf("Complete failed: %v", err)
			}

			if gotGrant != "authorization_code" {
				t.Errorf("grant_type = %q", gotGrant)
			}
			if gotCode != "abc123" {
				t.Errorf("code = %q", gotCode)
			}
			if gotVerifier != "the-verifier" {
				t.Errorf("code_verifier = %q", gotVerifier)
			}
		})
	})
}
