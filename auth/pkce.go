package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"math/big"
)

// Method is the code challenge method sent with every authorization request.
// Only S256 is implemented; the plain method defeats the point of PKCE.
const Method = "S256"

// DefaultVerifierLength is used when no explicit length is requested.
const DefaultVerifierLength = 128

// Characters permitted in a code verifier (RFC 7636 section 4.1).
const verifierCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-._~"

// Verifier generates a cryptographically random code verifier of the given
// length, each character drawn uniformly from the unreserved set. A length
// of zero or less selects [DefaultVerifierLength]. The length is otherwise
// not constrained; RFC 7636 expects 43..128 characters in public requests.
func Verifier(length int) (string, error) {
	if length <= 0 {
		length = DefaultVerifierLength
	}

	max := big.NewInt(int64(len(verifierCharset)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate verifier: %w", err)
		}
		out[i] = verifierCharset[n.Int64()]
	}

	return string(out), nil
}

// Challenge derives the S256 code challenge for a verifier: the unpadded
// base64url encoding of its SHA-256 digest.
func Challenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
