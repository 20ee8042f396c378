package auth

import "fmt"

var (
	// Configuration errors: values the client needs before any network
	// activity can happen.
	ErrMissingClientID    = fmt.Errorf("missing client id")
	ErrMissingRedirectURI = fmt.Errorf("missing redirect uri")

	// ErrMissingVerifier means a callback carried an authorization code but
	// no verifier from a pending attempt was found, so the exchange cannot
	// be proven. Usually the attempt was started by another process or the
	// attempt storage was lost in between.
	ErrMissingVerifier = fmt.Errorf("no code verifier for pending authorization attempt")
)

// TokenError describes a non-2xx response from the token endpoint.
type TokenError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *TokenError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("token endpoint returned %s", e.Status)
	}
	return fmt.Sprintf("token endpoint returned %s: %s", e.Status, e.Body)
}
