package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// PKCE holds a verifier/challenge pair for one authorization attempt.
// The challenge is the base64url-encoded SHA-256 digest of the verifier.
type PKCE struct {
	Verifier  string
	Challenge string
}

// GeneratePKCE creates a fresh pair from 32 cryptographically random
// bytes. Pairs are never reused across authorization attempts.
func GeneratePKCE() (PKCE, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return PKCE{}, fmt.Errorf("failed to generate verifier: %w", err)
	}

	verifier := base64.RawURLEncoding.EncodeToString(raw)
	digest := sha256.Sum256([]byte(verifier))
	challenge := base64.RawURLEncoding.EncodeToString(digest[:])

	return PKCE{Verifier: verifier, Challenge: challenge}, nil
}

// VerifierStore keeps the single live code verifier between the authorize
// redirect and the token exchange. At most one verifier is stored; Put
// overwrites any prior value and Clear destroys it after use.
type VerifierStore interface {
	Put(verifier string) error
	// Get returns the stored verifier, or "" when none is stored.
	Get() (string, error)
	Clear() error
}

// verifierFile is the fixed key the transient secret lives under.
const verifierFile = "code_verifier"

// FileStore persists the verifier in a single 0600 file so the exchange
// can complete even if it happens in a later process of the same flow.
// This is the only secret the harness ever writes to disk.
type FileStore struct {
	dir string
}

// NewFileStore creates a store rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// DefaultStoreDir returns the harness's per-user state directory.
func DefaultStoreDir() string {
	return filepath.Join(os.Getenv("HOME"), ".beats-repeats")
}

func (s *FileStore) path() string {
	return filepath.Join(s.dir, verifierFile)
}

func (s *FileStore) Put(verifier string) error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("failed to create verifier directory: %w", err)
	}
	if err := os.WriteFile(s.path(), []byte(verifier), 0600); err != nil {
		return fmt.Errorf("failed to store verifier: %w", err)
	}
	return nil
}

func (s *FileStore) Get() (string, error) {
	data, err := os.ReadFile(s.path())
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read verifier: %w", err)
	}
	return string(data), nil
}

func (s *FileStore) Clear() error {
	err := os.Remove(s.path())
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear verifier: %w", err)
	}
	return nil
}

// MemoryStore is an in-process VerifierStore used by single-process flows
// and tests.
type MemoryStore struct {
	mu       sync.Mutex
	verifier string
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (s *MemoryStore) Put(verifier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verifier = verifier
	return nil
}

func (s *MemoryStore) Get() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.verifier, nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verifier = ""
	return nil
}
