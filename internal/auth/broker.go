// Package auth implements the PKCE credential negotiation against the
// Spotify accounts service.
//
// The broker is a public OAuth client: no client secret is involved, the
// verifier/challenge pair proves the exchange belongs to the request that
// initiated it. A completed or abandoned exchange never leaves a stale
// verifier behind.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ChrisT3B/beats-repeats-test/internal/shared"
	"github.com/ChrisT3B/beats-repeats-test/internal/trace"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
)

// scopes requested for the playback session and its control surface.
var scopes = []string{
	"streaming",
	"user-read-email",
	"user-read-private",
	"user-read-playback-state",
	"user-modify-playback-state",
}

// Broker drives the PKCE flow: it generates the verifier/challenge pair,
// builds the authorization redirect, and exchanges the returned code for
// an access credential. The credential lives in memory only.
type Broker struct {
	clientID    string
	redirectURI string
	store       VerifierStore
	trace       *trace.Log

	// overridable for tests
	authURL    string
	tokenURL   string
	httpClient *http.Client
}

// NewBroker creates a credential broker for the given public client.
func NewBroker(clientID, redirectURI string, store VerifierStore, tl *trace.Log) (*Broker, error) {
	if clientID == "" {
		return nil, fmt.Errorf("%w: client_id is required", shared.ErrInvalidConfig)
	}
	if redirectURI == "" {
		return nil, fmt.Errorf("%w: redirect_uri is required", shared.ErrInvalidConfig)
	}
	if store == nil {
		store = NewMemoryStore()
	}

	return &Broker{
		clientID:    clientID,
		redirectURI: redirectURI,
		store:       store,
		trace:       tl,
		authURL:     spotifyAuthURL,
		tokenURL:    spotifyTokenURL,
		httpClient:  http.DefaultClient,
	}, nil
}

// SetHTTPClient overrides the client used for the token exchange. A nil
// client leaves the current one in place.
func (b *Broker) SetHTTPClient(client *http.Client) {
	if client != nil {
		b.httpClient = client
	}
}

// Begin generates a fresh PKCE pair, stores the verifier (overwriting any
// prior one), and returns the authorization URL the operator's browser
// must visit. Control does not come back through this call: the provider
// answers on the redirect URI.
func (b *Broker) Begin(ctx context.Context) (string, error) {
	pkce, err := GeneratePKCE()
	if err != nil {
		return "", err
	}

	if err := b.store.Put(pkce.Verifier); err != nil {
		return "", err
	}

	q := url.Values{}
	q.Set("client_id", b.clientID)
	q.Set("response_type", "code")
	q.Set("redirect_uri", b.redirectURI)
	q.Set("scope", strings.Join(scopes, " "))
	q.Set("code_challenge_method", "S256")
	q.Set("code_challenge", pkce.Challenge)
	q.Set("show_dialog", "true")

	if b.trace != nil {
		b.trace.Infof("authorization redirect built for client %s", b.clientID)
	}

	return b.authURL + "?" + q.Encode(), nil
}

// Complete finishes the flow from the callback URL the provider redirected
// to. A nil credential with nil error means no authentication is pending
// (no code or error parameter present), the normal state before Begin.
//
// The stored verifier is single-use: it is cleared on a successful
// exchange, so replaying the same callback URL yields ErrMissingVerifier
// rather than a duplicate exchange.
func (b *Broker) Complete(ctx context.Context, rawURL string) (*oauth2.Token, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed callback URL: %v", shared.ErrInvalidArgument, err)
	}

	q := u.Query()
	if errParam := q.Get("error"); errParam != "" {
		if b.trace != nil {
			b.trace.Errorf("authorization denied by provider: %s", errParam)
		}
		return nil, fmt.Errorf("%w: %s", shared.ErrAuthDenied, errParam)
	}

	code := q.Get("code")
	if code == "" {
		return nil, nil
	}

	verifier, err := b.store.Get()
	if err != nil {
		return nil, err
	}
	if verifier == "" {
		if b.trace != nil {
			b.trace.Errorf("authorization code present but no stored verifier")
		}
		return nil, shared.ErrMissingVerifier
	}

	token, err := b.exchange(ctx, code, verifier)
	if err != nil {
		return nil, err
	}

	if err := b.store.Clear(); err != nil {
		return nil, err
	}

	if b.trace != nil {
		b.trace.Infof("access credential obtained")
	}

	return token, nil
}

// exchange trades the authorization code plus verifier for an access
// token at the provider's token endpoint.
func (b *Broker) exchange(ctx context.Context, code, verifier string) (*oauth2.Token, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", b.redirectURI)
	form.Set("client_id", b.clientID)
	form.Set("code_verifier", verifier)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrTokenExchange, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var body struct {
			Error       string `json:"error"`
			Description string `json:"error_description"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		if b.trace != nil {
			b.trace.Errorf("token exchange rejected: status %d: %s", resp.StatusCode, body.Description)
		}
		return nil, fmt.Errorf("%w: status %d: %s %s", shared.ErrTokenExchange, resp.StatusCode, body.Error, body.Description)
	}

	var body struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: malformed token response: %v", shared.ErrTokenExchange, err)
	}
	if body.AccessToken == "" {
		return nil, fmt.Errorf("%w: response carried no access token", shared.ErrTokenExchange)
	}

	token := &oauth2.Token{
		AccessToken: body.AccessToken,
		TokenType:   body.TokenType,
	}
	if body.ExpiresIn > 0 {
		token.Expiry = time.Now().Add(time.Duration(body.ExpiresIn) * time.Second)
	}

	return token, nil
}
