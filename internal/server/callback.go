package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/oauth2"
)

// Completer finishes an authorization flow from the raw callback URL. The
// code/verifier exchange and its failure taxonomy live behind it, not here.
type Completer interface {
	Complete(ctx context.Context, callbackURL string) (*oauth2.Token, error)
}

// CallbackResult contains the outcome of one authorization callback.
type CallbackResult struct {
	Token *oauth2.Token
	err   error
}

func (r *CallbackResult) Error() error {
	return r.err
}

// CallbackHandler receives the provider's redirect and hands the full
// callback URL to the broker. Implements the Handler interface for
// registration with a Router.
type CallbackHandler struct {
	broker      Completer
	resultChan  chan CallbackResult
	once        sync.Once
	callbackHit bool
	mu          sync.Mutex
}

func NewCallbackHandler(broker Completer) *CallbackHandler {
	return &CallbackHandler{
		broker:     broker,
		resultChan: make(chan CallbackResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *CallbackHandler) Routes() []string {
	return []string{"/callback"}
}

// ServeHTTP handles the authorization callback. Only the first callback is
// processed; a second one is refused without touching the broker.
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.callbackHit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.callbackHit = true
	h.mu.Unlock()

	token, err := h.broker.Complete(r.Context(), r.URL.String())
	if err != nil {
		h.Send(CallbackResult{err: err})
		writePage(w, http.StatusBadRequest, "Authorization Failed",
			"The sign-in could not be completed. Return to the terminal for details.")
		return
	}
	if token == nil {
		err := fmt.Errorf("callback carried no authorization code")
		h.Send(CallbackResult{err: err})
		writePage(w, http.StatusBadRequest, "Authorization Failed",
			"The callback carried no authorization code.")
		return
	}

	h.Send(CallbackResult{Token: token})
	writePage(w, http.StatusOK, "Authorization Successful",
		"You can close this window and return to the terminal.")
}

// Send delivers the callback result through the channel (only once).
func (h *CallbackHandler) Send(result CallbackResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel for receiving flow completion.
//
// Channel will receive exactly one result and then be closed.
func (h *CallbackHandler) Result() <-chan CallbackResult {
	return h.resultChan
}

func writePage(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(status)
	fmt.Fprintf(w, `
<!DOCTYPE html>
<html>
<head>
    <title>%[1]s</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #1DB954; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>%[1]s</h1>
        <p>%[2]s</p>
    </div>
</body>
</html>
`, title, detail)
}
