package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig   = fmt.Errorf("configuration not found")
	ErrInvalidConfig   = fmt.Errorf("invalid configuration")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")

	// Credential negotiation errors
	ErrAuthDenied      = fmt.Errorf("authorization denied")
	ErrMissingVerifier = fmt.Errorf("no stored code verifier")
	ErrTokenExchange   = fmt.Errorf("token exchange failed")

	// Device-layer errors. ErrDeviceAccount signals a plan-tier
	// restriction the harness cannot recover from.
	ErrDeviceInit    = fmt.Errorf("device initialization failed")
	ErrDeviceAuth    = fmt.Errorf("device authentication failed")
	ErrDeviceAccount = fmt.Errorf("device account restricted")

	// Command and control-plane errors
	ErrPlaybackCommand = fmt.Errorf("playback command failed")
	ErrTransferFailed  = fmt.Errorf("playback transfer failed")

	// Capture-probe errors, per-check and non-fatal
	ErrCaptureDenied = fmt.Errorf("capture unavailable")

	// Ambient errors
	ErrNotAuthenticated   = fmt.Errorf("not authenticated")
	ErrTimeout            = fmt.Errorf("operation timed out")
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
)
