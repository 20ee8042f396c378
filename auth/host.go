package auth

import "sync"

// VerifierStore holds the code verifier for a pending authorization attempt,
// bridging the gap between [Authenticator.AuthorizeURL] and
// [Authenticator.HandleCallback]. An absent verifier reads back as the empty
// string.
type VerifierStore interface {
	Verifier() (string, error)
	SetVerifier(verifier string) error
	ClearVerifier() error
}

// HostContext describes the ambient capabilities of an interactive host
// process. All fields are optional: the zero value is a headless host with
// no visible address, and every address-dependent operation degrades to a
// no-op.
type HostContext struct {
	// CurrentURL reports the host's visible address. Consulted when
	// HandleCallback runs without explicit input.
	CurrentURL func() string

	// ReplaceURL rewrites the visible address without navigating. Used to
	// scrub the authorization code after a completed callback.
	ReplaceURL func(url string)

	// Attempts stores the pending attempt's verifier. Defaults to an
	// in-process slot; pass a [SQLiteStore] to survive restarts between
	// the authorize redirect and the callback.
	Attempts VerifierStore
}

// memoryVerifier is the in-process default for [HostContext.Attempts].
type memoryVerifier struct {
	mu       sync.Mutex
	verifier string
}

func (m *memoryVerifier) Verifier() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.verifier, nil
}

func (m *memoryVerifier) SetVerifier(verifier string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verifier = verifier
	return nil
}

func (m *memoryVerifier) ClearVerifier() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verifier = ""
	return nil
}
