// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a three-view workflow for browsing the data API:
//  1. [AuthView] : Sign in by opening the authorization URL and pasting the callback
//  2. [EndpointListView] : Browse the endpoint catalog
//  3. [ResultView] : Inspect the fetched dataset
//
// The [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Fetches and the code exchange run as commands so the interface stays
// responsive, with a spinner shown while one is in flight.
//
// The auth view's address field doubles as the host context for the
// authenticator: the pasted callback URL is read through it, and after the
// exchange the field shows the URL with the code scrubbed out, the way a
// browser's location bar would.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
