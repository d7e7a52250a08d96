package auth

import (
	"crypto/sha256"
	"encoding/base64"
	"testing"
)

func TestGeneratePKCE(t *testing.T) {
	t.Run("challenge is base64url SHA-256 of verifier", func(t *testing.T) {
		pkce, err := GeneratePKCE()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		digest := sha256.Sum256([]byte(pkce.Verifier))
		want := base64.RawURLEncoding.EncodeToString(digest[:])
		if pkce.Challenge != want {
			t.Errorf("challenge = %s, want %s", pkce.Challenge, want)
		}
	})

	t.Run("verifier is base64url without padding", func(t *testing.T) {
		pkce, err := GeneratePKCE()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		raw, err := base64.RawURLEncoding.DecodeString(pkce.Verifier)
		if err != nil {
			t.Fatalf("verifier is not raw base64url: %v", err)
		}
		if len(raw) != 32 {
			t.Errorf("expected 32 random bytes, got %d", len(raw))
		}
	})

	t.Run("fresh pair on every call", func(t *testing.T) {
		a, err := GeneratePKCE()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		b, err := GeneratePKCE()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if a.Verifier == b.Verifier {
			t.Error("verifier reused across calls")
		}
		if a.Challenge == b.Challenge {
			t.Error("challenge reused across calls")
		}
	})
}

func TestVerifierStores(t *testing.T) {
	stores := []struct {
		name  string
		store func(t *testing.T) VerifierStore
	}{
		{"MemoryStore", func(t *testing.T) VerifierStore { return NewMemoryStore() }},
		{"FileStore", func(t *testing.T) VerifierStore { return NewFileStore(t.TempDir()) }},
	}

	for _, tc := range stores {
		t.Run(tc.name, func(t *testing.T) {
			t.Run("empty until Put", func(t *testing.T) {
				s := tc.store(t)
				got, err := s.Get()
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				if got != "" {
					t.Errorf("expected empty store, got %q", got)
				}
			})

			t.Run("Put overwrites prior value", func(t *testing.T) {
				s := tc.store(t)
				if err := s.Put("first"); err != nil {
					t.Fatalf("Put failed: %v", err)
				}
				if err := s.Put("second"); err != nil {
					t.Fatalf("Put failed: %v", err)
				}

				got, err := s.Get()
				if err != nil {
					t.Fatalf("Get failed: %v", err)
				}
				if got != "second" {
					t.Errorf("expected overwritten value, got %q", got)
				}
			})

			t.Run("Clear is idempotent", func(t *testing.T) {
				s := tc.store(t)
				if err := s.Put("secret"); err != nil {
					t.Fatalf("Put failed: %v", err)
				}
				if err := s.Clear(); err != nil {
					t.Fatalf("Clear failed: %v", err)
				}
				if err := s.Clear(); err != nil {
					t.Fatalf("second Clear failed: %v", err)
				}

				got, err := s.Get()
				if err != nil {
					t.Fatalf("Get failed: %v", err)
				}
				if got != "" {
					t.Errorf("expected cleared store, got %q", got)
				}
			})
		})
	}
}
