package main

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/ChrisT3B/beats-repeats-test/internal/auth"
	"github.com/ChrisT3B/beats-repeats-test/internal/session"
	"github.com/ChrisT3B/beats-repeats-test/internal/shared"
	tu "github.com/ChrisT3B/beats-repeats-test/internal/testing"
)

// TestAuthorizedSessionFlow walks the happy path end to end: the code
// exchange yields a credential, and only then is the device session stood
// up, reaching Ready with the device id the ready event announced.
func TestAuthorizedSessionFlow(t *testing.T) {
	ctx := context.Background()

	config := shared.DefaultConfig()
	config.Credentials.Spotify.ClientID = "test_client_id"

	tokenBody := `{"access_token":"flow_access_token","token_type":"Bearer","expires_in":3600}`
	r := NewRunner(RunnerOpts{
		Config: config,
		Store:  auth.NewMemoryStore(),
		HTTPClient: &http.Client{
			Transport: tu.NewMockRoundTripper(jsonResponse(http.StatusOK, tokenBody), nil),
		},
	})

	broker, err := r.broker()
	if err != nil {
		t.Fatalf("broker failed: %v", err)
	}

	authURL, err := broker.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if !strings.Contains(authURL, "code_challenge_method=S256") {
		t.Errorf("authorize URL missing challenge method: %s", authURL)
	}

	token, err := broker.Complete(ctx, config.RedirectURI()+"?code=abc123")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if token == nil || token.AccessToken != "flow_access_token" {
		t.Fatalf("token = %+v, want flow_access_token", token)
	}

	device := tu.NewFakeDevice()
	coordinator := session.NewCoordinator(r.trace)
	if err := coordinator.Initialize(ctx, device); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	device.Emit(session.Event{Kind: session.EventReady, DeviceID: "dev1"})

	snap := coordinator.Snapshot()
	if snap.State != session.Ready {
		t.Errorf("state = %s, want ready", snap.State)
	}
	if snap.DeviceID != "dev1" {
		t.Errorf("device id = %q, want dev1", snap.DeviceID)
	}
}
