// Package server provides HTTP routing, middleware, and the local endpoints
// of the OAuth flow: a one-shot callback catcher and a CORS proxy for
// browser clients.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
// OPTIONS requests bypass the filter so [CORS] can answer preflights.
//
// # Callback Catcher
//
// [CallbackHandler] catches the OAuth2 authorization redirect.
//
// There is no state parameter: PKCE binds the authorization code to the verifier
// stored when the flow began, so the handler only captures the callback URL and
// sends it through a channel. The code exchange belongs to the auth package.
//
// It only processes one callback to prevent replay.
//
// # Proxy
//
// The OAuth and data hosts serve no CORS headers, so a page running in a
// browser cannot call them directly. [ProxyHandler] forwards three routes:
// /token for the code and refresh exchanges, /data/ for authenticated API
// calls, and /passthrough?url= for the pre-signed file downloads that a
// client's FileProxyURL points at.
//
// # Current Usage
//
// The server package currently supports the CLI login flow. When the user runs
// auth login with a localhost redirect URI, a temporary HTTP server starts,
// catches the redirect, and shuts down once the code exchange completes.
// The serve command runs the proxy standalone for the browser demo.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
