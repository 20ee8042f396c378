// Package auth implements the OAuth2 authorization code + PKCE lifecycle for
// the iRacing Data API.
//
// # Auth Flow
//
// [Authenticator] is the state machine: it generates authorization URLs with a
// fresh PKCE challenge, completes callbacks by exchanging the code for tokens,
// refreshes access tokens, and answers header queries for outgoing requests.
//
// Each client owns exactly one session. There is no multi-account support and
// no client secret: the flow is PKCE only (RFC 7636), with the S256 challenge
// method.
//
// # Token Storage
//
// Session tokens persist through a [TokenStore]:
//   - [MemoryStore] : volatile, for tests and short-lived processes
//   - [SQLiteStore] : durable, rows namespaced by a fixed key prefix
//
// The Authenticator owns the session exclusively. Reads are served from
// memory; writes go through the store, which is hydrated once at
// construction.
//
// # Host Context
//
// Interactive hosts (a TUI, a browser shell) can expose their visible address
// and a durable pending-attempt slot via [HostContext]. Headless processes
// leave it zero valued and every ambient operation degrades to a no-op.
//
// # Error Handling
//
// Local misconfiguration surfaces as sentinel errors ([ErrMissingClientID],
// [ErrMissingRedirectURI], [ErrMissingVerifier]). Token endpoint rejections
// are a typed [*TokenError]. Refresh failures are soft: they report false
// rather than an error, and a transport fault never destroys the session.
package auth
