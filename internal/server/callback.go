package server

import (
	"fmt"
	"net/http"
	"sync"
)

// CallbackResult contains the outcome of one authorization redirect.
//
// URL is the full callback URL as received, code and all. The code exchange
// itself happens elsewhere; this handler only catches the redirect.
type CallbackResult struct {
	URL string
	err error
}

func (c *CallbackResult) Error() error {
	return c.err
}

// CallbackHandler catches the OAuth2 authorization redirect on a local
// server. Implements the Handler interface for registration with a Router.
//
// PKCE binds the authorization code to the stored verifier, so there is no
// state parameter to validate here.
type CallbackHandler struct {
	path        string
	resultChan  chan CallbackResult
	once        sync.Once
	callbackHit bool
	mu          sync.Mutex
}

// NewCallbackHandler creates a handler serving the given path.
// An empty path defaults to "/callback".
func NewCallbackHandler(path string) *CallbackHandler {
	if path == "" {
		path = "/callback"
	}
	return &CallbackHandler{
		path:       path,
		resultChan: make(chan CallbackResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *CallbackHandler) Routes() []string {
	return []string{h.path}
}

// ServeHTTP handles the authorization redirect.
//
// Reports authorization server errors, otherwise sends the full callback URL
// through the result channel and renders a success page.
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Only handle callback once
	h.mu.Lock()
	if h.callbackHit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.callbackHit = true
	h.mu.Unlock()

	query := r.URL.Query()
	if errParam := query.Get("error"); errParam != "" {
		errDesc := query.Get("error_description")
		err := fmt.Errorf("authorization failed: %s - %s", errParam, errDesc)
		h.Send(CallbackResult{err: err})
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	if query.Get("code") == "" {
		err := fmt.Errorf("authorization response missing code")
		h.Send(CallbackResult{err: err})
		http.Error(w, "Missing authorization code", http.StatusBadRequest)
		return
	}

	h.Send(CallbackResult{URL: fmt.Sprintf("http://%s%s", r.Host, r.URL.String())})

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `
<!DOCTYPE html>
<html>
<head>
    <title>Authorization Successful</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #1a66ff; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>✓ Authorization Successful</h1>
        <p>You can close this window and return to the terminal.</p>
    </div>
</body>
</html>
`)
}

// Send sends the callback result through the channel (only once).
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
