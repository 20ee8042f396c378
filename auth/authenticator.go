package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
)

// Defaults for the iRacing OAuth provider.
const (
	DefaultAuthURL = "https://oauth.iracing.com/oauth2"
	DefaultScope   = "iracing.auth"
)

// Config holds the OAuth client registration. It is read at construction
// and never mutated afterwards.
type Config struct {
	ClientID    string
	RedirectURI string

	// Scope requested on authorization, defaults to [DefaultScope].
	Scope string

	// AuthURL is the provider's OAuth base. The authorize page and the
	// token endpoint are derived from it. Defaults to [DefaultAuthURL].
	AuthURL string
}

func (c Config) scope() string {
	if c.Scope == "" {
		return DefaultScope
	}
	return c.Scope
}

func (c Config) base() string {
	base := c.AuthURL
	if base == "" {
		base = DefaultAuthURL
	}
	return strings.TrimRight(base, "/")
}

func (c Config) authorizeEndpoint() string { return c.base() + "/authorize" }

func (c Config) tokenEndpoint() string { return c.base() + "/token" }

// Opts configures a new [Authenticator]. Zero fields fall back to defaults.
type Opts struct {
	// Store persists the session, defaults to a volatile [MemoryStore].
	Store TokenStore

	// Host exposes the ambient capabilities of an interactive host.
	Host HostContext

	// HTTPClient issues token endpoint requests, defaults to
	// [http.DefaultClient].
	HTTPClient *http.Client

	// Logger defaults to a discarding logger so the library is silent
	// unless the caller opts in.
	Logger *log.Logger
}

// Authenticator drives the authorization code + PKCE lifecycle for a single
// session. It owns the session exclusively: reads are served from memory,
// writes go through the [TokenStore].
type Authenticator struct {
	config Config
	store  TokenStore
	host   HostContext
	client *http.Client
	logger *log.Logger

	mu      sync.Mutex
	session *oauth2.Token
}

// New builds an Authenticator and hydrates the session from the store.
func New(config Config, opts Opts) (*Authenticator, error) {
	store := opts.Store
	if store == nil {
		store = &MemoryStore{}
	}

	host := opts.Host
	if host.Attempts == nil {
		host.Attempts = &memoryVerifier{}
	}

	client := opts.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	a := &Authenticator{
		config: config,
		store:  store,
		host:   host,
		client: client,
		logger: logger,
	}

	if err := a.load(); err != nil {
		return nil, err
	}

	return a, nil
}

// load hydrates the in-memory session from the store.
func (a *Authenticator) load() error {
	access, err := a.store.AccessToken()
	if err != nil {
		return fmt.Errorf("failed to load access token: %w", err)
	}
	refresh, err := a.store.RefreshToken()
	if err != nil {
		return fmt.Errorf("failed to load refresh token: %w", err)
	}

	if access == "" && refresh == "" {
		return nil
	}

	a.session = &oauth2.Token{AccessToken: access, RefreshToken: refresh, TokenType: "Bearer"}
	return nil
}

// AuthorizeURL generates a fresh PKCE verifier, records it as the pending
// attempt, and returns the provider's authorization page URL carrying the
// derived challenge.
func (a *Authenticator) AuthorizeURL() (string, error) {
	if a.config.ClientID == "" {
		return "", ErrMissingClientID
	}
	if a.config.RedirectURI == "" {
		return "", ErrMissingRedirectURI
	}

	verifier, err := Verifier(0)
	if err != nil {
		return "", err
	}
	if err := a.host.Attempts.SetVerifier(verifier); err != nil {
		return "", fmt.Errorf("failed to store verifier: %w", err)
	}

	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", a.config.ClientID)
	q.Set("redirect_uri", a.config.RedirectURI)
	q.Set("scope", a.config.scope())
	q.Set("code_challenge", Challenge(verifier))
	q.Set("code_challenge_method", Method)

	a.logger.Debug("authorization URL generated", "scope", a.config.scope())
	return a.config.authorizeEndpoint() + "?" + q.Encode(), nil
}

var codePattern = regexp.MustCompile(`[?&#]code=([^&#]+)`)

// extractCode pulls the authorization code out of callback input: either the
// bare code itself or a redirect URL carrying a code parameter. Malformed
// URLs fall back to a regex scan.
func extractCode(input string) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return ""
	}

	if !strings.ContainsAny(input, "?&#=/") {
		return input
	}

	if u, err := url.Parse(input); err == nil {
		if code := u.Query().Get("code"); code != "" {
			return code
		}
	}

	if m := codePattern.FindStringSubmatch(input); m != nil {
		if code, err := url.QueryUnescape(m[1]); err == nil {
			return code
		}
		return m[1]
	}

	return ""
}

// HandleCallback completes a pending authorization attempt. The input may be
// the bare authorization code, the full redirect URL, or empty, in which
// case the host's visible address is consulted.
//
// Absent a code the call is a silent no-op: most process startups happen
// without a pending redirect. A code without a stored verifier is
// [ErrMissingVerifier]. A failed exchange leaves both the session and the
// pending attempt untouched.
func (a *Authenticator) HandleCallback(ctx context.Context, input string) error {
	if input == "" && a.host.CurrentURL != nil {
		input = a.host.CurrentURL()
	}

	code := extractCode(input)
	if code == "" {
		return nil
	}

	verifier, err := a.host.Attempts.Verifier()
	if err != nil {
		return fmt.Errorf("failed to read verifier: %w", err)
	}
	if verifier == "" {
		return ErrMissingVerifier
	}

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", a.config.RedirectURI)
	form.Set("client_id", a.config.ClientID)
	form.Set("code_verifier", verifier)

	tok, err := a.postToken(ctx, form)
	if err != nil {
		return fmt.Errorf("code exchange failed: %w", err)
	}

	if err := a.setToken(sessionToken(tok)); err != nil {
		return err
	}
	if err := a.host.Attempts.ClearVerifier(); err != nil {
		a.logger.Warn("failed to clear pending verifier", "error", err)
	}

	a.logger.Info("authorization code exchanged")
	return nil
}

// RefreshAccessToken exchanges the stored refresh token for a fresh access
// token and reports whether the session is authenticated afterwards:
//
//   - no refresh token held: false, with no network traffic
//   - provider rejected the refresh: the session is cleared, false
//   - transport fault before any response: false, session preserved so a
//     later attempt can still succeed
//
// The provider may rotate the refresh token; a rotated value replaces the
// stored one, otherwise the existing value is kept.
func (a *Authenticator) RefreshAccessToken(ctx context.Context) (bool, error) {
	refresh := a.RefreshToken()
	if refresh == "" {
		return false, nil
	}
	if a.config.ClientID == "" {
		return false, ErrMissingClientID
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refresh)
	form.Set("client_id", a.config.ClientID)

	tok, err := a.postToken(ctx, form)
	if err != nil {
		var te *TokenError
		if errors.As(err, &te) {
			a.logger.Warn("refresh rejected, clearing session", "status", te.StatusCode)
			if cerr := a.clearSession(); cerr != nil {
				a.logger.Error("failed to clear session", "error", cerr)
			}
			return false, nil
		}

		a.logger.Warn("refresh request failed, session kept", "error", err)
		return false, nil
	}

	if tok.RefreshToken == "" {
		tok.RefreshToken = refresh
	}
	if err := a.setToken(sessionToken(tok)); err != nil {
		return false, err
	}

	a.logger.Info("access token refreshed")
	return true, nil
}

// HandleAuthentication resolves the session at startup: reports true right
// away when already authenticated, otherwise tries to complete a pending
// callback and falls back to refreshing. Callback errors are logged and
// swallowed so a stale redirect never blocks the refresh path.
//
// When the callback authenticates the session, the authorization code is
// scrubbed from the host's visible address. The fast path leaves the
// address untouched.
func (a *Authenticator) HandleAuthentication(ctx context.Context) (bool, error) {
	if a.IsAuthenticated() {
		return true, nil
	}

	if err := a.HandleCallback(ctx, ""); err != nil {
		a.logger.Warn("callback handling failed", "error", err)
	}
	if a.IsAuthenticated() {
		a.scrubCode()
		return true, nil
	}

	return a.RefreshAccessToken(ctx)
}

// scrubCode removes the code parameter from the host's visible address,
// leaving every other parameter in place.
func (a *Authenticator) scrubCode() {
	if a.host.CurrentURL == nil || a.host.ReplaceURL == nil {
		return
	}

	u, err := url.Parse(a.host.CurrentURL())
	if err != nil {
		return
	}

	q := u.Query()
	if !q.Has("code") {
		return
	}
	q.Del("code")
	u.RawQuery = q.Encode()

	a.host.ReplaceURL(u.String())
}

// SetSession installs a token pair obtained out of band, e.g. restored by a
// host process. The refresh token may be empty.
func (a *Authenticator) SetSession(access, refresh string) error {
	return a.setToken(&oauth2.Token{AccessToken: access, RefreshToken: refresh, TokenType: "Bearer"})
}

// Logout discards the session and any pending authorization attempt.
func (a *Authenticator) Logout() error {
	if err := a.clearSession(); err != nil {
		return err
	}
	if err := a.host.Attempts.ClearVerifier(); err != nil {
		return fmt.Errorf("failed to clear verifier: %w", err)
	}
	a.logger.Info("logged out")
	return nil
}

// AccessToken returns the session's access token, or "" when logged out.
func (a *Authenticator) AccessToken() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session == nil {
		return ""
	}
	return a.session.AccessToken
}

// RefreshToken returns the session's refresh token, or "" when absent.
func (a *Authenticator) RefreshToken() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session == nil {
		return ""
	}
	return a.session.RefreshToken
}

// IsAuthenticated reports whether an access token is held.
func (a *Authenticator) IsAuthenticated() bool { return a.AccessToken() != "" }

// AuthHeaders returns the headers for an authenticated request: a Bearer
// Authorization when a session is held, otherwise an empty map. Anonymous
// requests are valid, so callers must tolerate the empty case.
func (a *Authenticator) AuthHeaders() map[string]string {
	headers := map[string]string{}
	if tok := a.AccessToken(); tok != "" {
		headers["Authorization"] = "Bearer " + tok
	}
	return headers
}

func (a *Authenticator) setToken(tok *oauth2.Token) error {
	if err := a.store.SetAccessToken(tok.AccessToken); err != nil {
		return fmt.Errorf("failed to persist access token: %w", err)
	}
	if err := a.store.SetRefreshToken(tok.RefreshToken); err != nil {
		return fmt.Errorf("failed to persist refresh token: %w", err)
	}

	a.mu.Lock()
	a.session = tok
	a.mu.Unlock()
	return nil
}

func (a *Authenticator) clearSession() error {
	if err := a.store.Clear(); err != nil {
		return fmt.Errorf("failed to clear token store: %w", err)
	}

	a.mu.Lock()
	a.session = nil
	a.mu.Unlock()
	return nil
}

// tokenResponse mirrors the provider's token endpoint JSON.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// sessionToken converts a token endpoint response into the session token.
// Expiry is informational only: the client reacts to 401s rather than
// inspecting expiry proactively.
func sessionToken(tok *tokenResponse) *oauth2.Token {
	tokenType := tok.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	session := &oauth2.Token{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tokenType,
	}
	if tok.ExpiresIn > 0 {
		session.Expiry = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	}
	return session
}

// postToken submits a form to the token endpoint. Non-2xx responses come
// back as a [*TokenError]; transport faults as plain wrapped errors.
func (a *Authenticator) postToken(ctx context.Context, form url.Values) (*tokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.tokenEndpoint(), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &TokenError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	if tok.AccessToken == "" {
		return nil, fmt.Errorf("token response missing access_token")
	}

	return &tok, nil
}
