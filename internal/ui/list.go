package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
)

var (
	_ list.Item = endpointItem{}
)

// Endpoint describes one entry of the API catalog shown in the TUI.
type Endpoint struct {
	Name        string
	Path        string
	Description string
	Chunked     bool
}

// catalog lists the API endpoints the TUI offers. Chunked entries return a
// descriptor that the result view summarizes instead of a payload preview.
var catalog = []Endpoint{
	{Name: "Car Assets", Path: "/data/car/assets", Description: "Images and logos for every car"},
	{Name: "Cars", Path: "/data/car/get", Description: "Full car catalog"},
	{Name: "Tracks", Path: "/data/track/get", Description: "Track list with configurations"},
	{Name: "Member Info", Path: "/data/member/info", Description: "Profile for the signed-in member"},
	{Name: "Career Stats", Path: "/data/stats/member_career", Description: "Career stats by category"},
	{Name: "Series Seasons", Path: "/data/series/seasons", Description: "Active seasons and schedules"},
	{Name: "Season Results", Path: "/data/results/season_results", Description: "Official results, chunked", Chunked: true},
	{Name: "Countries", Path: "/data/lookup/countries", Description: "Country reference data"},
}

// endpointItem wraps [Endpoint] to implement [list.Item].
type endpointItem struct {
	endpoint Endpoint
}

func (i endpointItem) FilterValue() string { return i.endpoint.Name }
func (i endpointItem) Title() string       { return i.endpoint.Name }
func (i endpointItem) Description() string {
	return fmt.Sprintf("%s • %s", i.endpoint.Path, i.endpoint.Description)
}
