package ui

import (
	"github.com/desertthunder/irx/api"
)

// authURLMsg carries the generated authorization URL for the auth view.
type authURLMsg struct {
	url string
	err error
}

// authDoneMsg reports the outcome of an authentication attempt.
type authDoneMsg struct {
	authenticated bool
	err           error
}

// dataFetchedMsg carries a fetched dataset for the result view.
type dataFetchedMsg struct {
	path   string
	result *api.DataResult
	err    error
}
