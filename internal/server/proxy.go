package server

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
)

// ProxyHandler forwards browser traffic to the OAuth and data hosts.
// Implements the Handler interface for registration with a Router.
//
// Three routes:
//
//	/token        form POSTs forwarded to the token endpoint
//	/data/        API requests forwarded to the data host, Authorization preserved
//	/passthrough  ?url= downloads, the target of a client's FileProxyURL
//
// Upstream status, headers, and bodies are relayed as-is; CORS headers come
// from middleware.
type ProxyHandler struct {
	tokenURL string
	apiBase  string
	client   *http.Client
	logger   *log.Logger
}

// NewProxyHandler creates a proxy forwarding /token to tokenURL and /data/
// requests to apiBase. A nil client falls back to [http.DefaultClient]; a
// nil logger discards.
func NewProxyHandler(tokenURL, apiBase string, client *http.Client, logger *log.Logger) *ProxyHandler {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &ProxyHandler{
		tokenURL: tokenURL,
		apiBase:  strings.TrimRight(apiBase, "/"),
		client:   client,
		logger:   logger,
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *ProxyHandler) Routes() []string {
	return []string{"/token", "/data/", "/passthrough"}
}

// ServeHTTP dispatches to the proxy route matching the request path.
func (h *ProxyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/token":
		h.forwardToken(w, r)
	case strings.HasPrefix(r.URL.Path, "/data/"):
		h.forwardData(w, r)
	case r.URL.Path == "/passthrough":
		h.passthrough(w, r)
	default:
		http.NotFound(w, r)
	}
}

// forwardToken relays a form POST to the token endpoint.
func (h *ProxyHandler) forwardToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodPost, h.tokenURL, bytes.NewReader(body))
	if err != nil {
		http.Error(w, "Failed to build upstream request", http.StatusInternalServerError)
		return
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	h.relay(w, req)
}

// forwardData relays an API request to the data host, path and query intact.
func (h *ProxyHandler) forwardData(w http.ResponseWriter, r *http.Request) {
	target := h.apiBase + r.URL.Path
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}

	req, err := http.NewRequestWithContext(r.Context(), r.Method, target, r.Body)
	if err != nil {
		http.Error(w, "Failed to build upstream request", http.StatusInternalServerError)
		return
	}
	if auth := r.Header.Get("Authorization"); auth != "" {
		req.Header.Set("Authorization", auth)
	}
	if accept := r.Header.Get("Accept"); accept != "" {
		req.Header.Set("Accept", accept)
	}

	h.relay(w, req)
}

// passthrough downloads the URL named by the url query parameter.
//
// Pre-signed file hosts reject extra headers, so nothing from the incoming
// request is forwarded.
func (h *ProxyHandler) passthrough(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	target := r.URL.Query().Get("url")
	if target == "" {
		http.Error(w, "Missing url parameter", http.StatusBadRequest)
		return
	}
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		http.Error(w, "Invalid url parameter", http.StatusBadRequest)
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, target, nil)
	if err != nil {
		http.Error(w, "Invalid url parameter", http.StatusBadRequest)
		return
	}

	h.relay(w, req)
}

// relay executes the upstream request and copies status, headers, and body
// to the response. Access-Control headers are skipped; middleware owns them.
func (h *ProxyHandler) relay(w http.ResponseWriter, req *http.Request) {
	resp, err := h.client.Do(req)
	if err != nil {
		h.logger.Error("upstream request failed", "url", req.URL.String(), "error", err)
		http.Error(w, fmt.Sprintf("Upstream request failed: %v", err), http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	for key, values := range resp.Header {
		if strings.HasPrefix(key, "Access-Control-") {
			continue
		}
		for _, v := range values {
			w.Header().Add(key, v)
		}
	}
	w.WriteHeader(resp.StatusCode)

	if _, err := io.Copy(w, resp.Body); err != nil {
		h.logger.Warn("failed to copy upstream body", "error", err)
	}

	h.logger.Debug("relayed upstream response",
		"url", req.URL.String(),
		"status", resp.StatusCode,
	)
}
