// Package web holds the plan for the static browser demo served by the proxy.
//
// # Browser Demo Implementation Plan
//
// # Architecture
//
// The demo is a single static page served alongside the proxy routes from
// `irx serve`. All OAuth and Data API work happens in the browser; the Go
// side only relays requests that the browser cannot make directly because
// of CORS. Three screens, driven by plain JS and fetch:
//
//  1. Sign In: authorize link + "complete sign-in" button after redirect
//  2. Endpoint Picker: the same catalog the TUI shows, as a select + fetch
//  3. Result: pretty-printed JSON, chunk descriptor summary when present
//
// Core Components
//
//   - Static Handler: net/http file server for index.html + app.js
//   - Proxy Routes: the existing server.ProxyHandler (/token, /data/, /passthrough)
//   - PKCE Helpers: Web Crypto (crypto.getRandomValues, crypto.subtle.digest)
//   - Token Store: sessionStorage, cleared when the tab closes
//
// Routes
//
//	GET  /             → index.html
//	GET  /app.js       → demo script
//	POST /token        → relayed to the authorization server (existing)
//	ANY  /data/*       → relayed to the Data API (existing)
//	GET  /passthrough  → relayed link-target fetch (existing)
//
// # PKCE In The Browser
//
// The page mirrors the client library's challenge generator:
//  1. Random verifier from crypto.getRandomValues over the unreserved set
//  2. Challenge = base64url(SHA-256(verifier)) via crypto.subtle.digest
//  3. Verifier saved under the state-free attempt key in sessionStorage
//  4. Redirect to the authorize URL with code_challenge + method S256
//  5. On return, read ?code= from location.search, scrub it with
//     history.replaceState, exchange through POST /token
//
// # Token Refresh
//
// Same policy as the Go client: on a 401, post the refresh token to /token
// once and replay the original request. A second 401 surfaces as an error
// banner with a "sign in again" link.
//
// State Management
//
// Everything lives in the page:
//   - sessionStorage: access/refresh tokens, pending verifier
//   - location bar: the only place the authorization code ever appears,
//     and only until replaceState runs
//   - in-memory: last fetched result for the result screen
//
// Dependencies
//
//   - net/http: static file serving, reuses the serve command's mux
//   - embed: index.html and app.js compiled into the binary
//   - no frontend framework, the page is small enough for plain JS
//
// Implementation Tasks
//
//  1. Static handler registered on the serve command's router
//  2. index.html with the three screens toggled by a class
//  3. PKCE helpers in app.js
//  4. Exchange + refresh calls against /token
//  5. Endpoint catalog shared with the TUI via a generated JSON blob
//  6. Link and chunk handling through /passthrough
//  7. Error banner wired to non-2xx responses
//
// # Testing Strategy
//
// Use httptest against the serve mux:
//   - Static routes return the embedded assets
//   - Proxy routes keep working with the static handler mounted
//   - The embedded app.js references only routes the mux serves
package web
