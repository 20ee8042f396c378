package ui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/irx/api"
	"github.com/desertthunder/irx/auth"
	"github.com/desertthunder/irx/internal/shared"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	AuthView ViewState = iota
	EndpointListView
	ResultView
)

// Session is the slice of the authenticator the TUI needs.
type Session interface {
	IsAuthenticated() bool
	AuthorizeURL() (string, error)
	HandleAuthentication(ctx context.Context) (bool, error)
	Logout() error
}

// DataClient fetches datasets for the result view.
type DataClient interface {
	GetData(ctx context.Context, path string) (*api.DataResult, error)
}

// AddressBar is a mutex-guarded URL field, the TUI's stand-in for a browser
// location bar. The authenticator reads the pasted callback URL through it
// and writes the scrubbed URL back after the exchange.
type AddressBar struct {
	mu  sync.Mutex
	url string
}

func NewAddressBar() *AddressBar {
	return &AddressBar{}
}

func (a *AddressBar) Get() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.url
}

func (a *AddressBar) Set(url string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.url = url
}

// Host builds the [auth.HostContext] backed by this address bar. The caller
// fills in Attempts with its verifier store.
func (a *AddressBar) Host() auth.HostContext {
	return auth.HostContext{
		CurrentURL: a.Get,
		ReplaceURL: a.Set,
	}
}

// Model represents the TUI application state.
type Model struct {
	ctx     context.Context
	view    ViewState
	session Session
	client  DataClient
	address *AddressBar

	width  int
	height int

	authURL      string
	authInput    textinput.Model
	endpointList list.Model
	spin         spinner.Model
	loading      bool
	fetching     Endpoint
	result       *api.DataResult
	err          error

	help help.Model
	keys keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
//
// The address bar must be the same one wired into the authenticator's host
// context, otherwise the auth view cannot deliver the callback URL.
func NewModel(ctx context.Context, session Session, client DataClient, address *AddressBar) *Model {
	items := make([]list.Item, len(catalog))
	for i, endpoint := range catalog {
		items[i] = endpointItem{endpoint: endpoint}
	}
	endpointList := list.New(items, list.NewDefaultDelegate(), 0, 0)
	endpointList.Title = "iRacing Data API"

	authInput := textinput.New()
	authInput.Placeholder = "Paste the callback URL or code here"
	authInput.Width = 72
	authInput.Focus()

	spin := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.warn))

	view := AuthView
	if session.IsAuthenticated() {
		view = EndpointListView
	}

	return &Model{
		ctx:          ctx,
		view:         view,
		session:      session,
		client:       client,
		address:      address,
		authInput:    authInput,
		endpointList: endpointList,
		spin:         spin,
		help:         help.New(),
		keys:         newKeyMap(),
	}
}

// Init generates the authorization URL when sign-in is needed.
func (m *Model) Init() tea.Cmd {
	if m.view == AuthView {
		return tea.Batch(m.fetchAuthURL(), textinput.Blink)
	}
	return nil
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.endpointList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch m.view {
		case AuthView:
			return m.handleAuthKeys(msg)
		case EndpointListView:
			return m.handleEndpointKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case authURLMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.authURL = msg.url
		return m, nil

	case authDoneMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		if !msg.authenticated {
			m.err = fmt.Errorf("sign-in incomplete, paste the full callback URL")
			return m, nil
		}
		m.err = nil
		// Show the scrubbed URL, code removed, like a browser would.
		m.authInput.SetValue(m.address.Get())
		m.view = EndpointListView
		return m, nil

	case dataFetchedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			m.view = EndpointListView
			return m, nil
		}
		m.err = nil
		m.result = msg.result
		m.view = ResultView
		return m, nil
	}

	if m.view == EndpointListView {
		var cmd tea.Cmd
		m.endpointList, cmd = m.endpointList.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case AuthView:
		return m.renderAuth()
	case EndpointListView:
		return m.renderEndpoints()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleAuthKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m, tea.Quit
	case tea.KeyEnter:
		if m.loading {
			return m, nil
		}
		input := strings.TrimSpace(m.authInput.Value())
		if input == "" {
			return m, nil
		}
		m.address.Set(input)
		m.loading = true
		return m, tea.Batch(m.spin.Tick, m.completeAuth())
	}

	var cmd tea.Cmd
	m.authInput, cmd = m.authInput.Update(msg)
	return m, cmd
}

func (m *Model) handleEndpointKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.endpointList.FilterState() != list.Filtering {
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.logout):
			if err := m.session.Logout(); err != nil {
				m.err = err
				return m, nil
			}
			m.view = AuthView
			m.err = nil
			m.authURL = ""
			m.address.Set("")
			m.authInput.SetValue("")
			return m, tea.Batch(m.fetchAuthURL(), textinput.Blink)
		case key.Matches(msg, m.keys.enter):
			if m.loading {
				return m, nil
			}
			selected := m.endpointList.SelectedItem()
			if item, ok := selected.(endpointItem); ok {
				m.fetching = item.endpoint
				m.loading = true
				return m, tea.Batch(m.spin.Tick, m.fetchData(item.endpoint))
			}
		}
	}

	var cmd tea.Cmd
	m.endpointList, cmd = m.endpointList.Update(msg)
	return m, cmd
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = EndpointListView
		m.result = nil
		m.err = nil
		return m, nil
	case key.Matches(msg, m.keys.retry):
		m.loading = true
		return m, tea.Batch(m.spin.Tick, m.fetchData(m.fetching))
	}
	return m, nil
}

func (m *Model) fetchAuthURL() tea.Cmd {
	return func() tea.Msg {
		url, err := m.session.AuthorizeURL()
		return authURLMsg{url: url, err: err}
	}
}

func (m *Model) completeAuth() tea.Cmd {
	return func() tea.Msg {
		authenticated, err := m.session.HandleAuthentication(m.ctx)
		return authDoneMsg{authenticated: authenticated, err: err}
	}
}

func (m *Model) fetchData(endpoint Endpoint) tea.Cmd {
	return func() tea.Msg {
		result, err := m.client.GetData(m.ctx, endpoint.Path)
		return dataFetchedMsg{path: endpoint.Path, result: result, err: err}
	}
}

func (m *Model) renderAuth() string {
	title := styles.title.Render("Sign in to iRacing")

	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n")

	if m.authURL != "" {
		b.WriteString("Open this URL in your browser and authorize access:\n\n")
		b.WriteString(styles.ok.Render(m.authURL))
		b.WriteString("\n\n")
	} else if m.err == nil {
		b.WriteString("Preparing authorization URL...\n\n")
	}

	b.WriteString(m.authInput.View())
	b.WriteString("\n")

	if m.loading {
		b.WriteString(fmt.Sprintf("\n%s Completing sign-in...\n", m.spin.View()))
	}
	if m.err != nil {
		b.WriteString(fmt.Sprintf("\n%s\n", styles.err.Render(fmt.Sprintf("Error: %v", m.err))))
	}

	enterKey := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit"))
	escKey := key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "quit"))
	b.WriteString("\n" + m.help.ShortHelpView([]key.Binding{enterKey, escKey}))

	return b.String()
}

func (m *Model) renderEndpoints() string {
	var b strings.Builder

	if url := m.address.Get(); url != "" {
		b.WriteString(styles.help.Render(fmt.Sprintf("URL: %s", url)))
		b.WriteString("\n\n")
	}

	b.WriteString(m.endpointList.View())
	b.WriteString("\n")

	if m.loading {
		b.WriteString(fmt.Sprintf("\n%s Fetching %s...\n", m.spin.View(), m.fetching.Path))
	}
	if m.err != nil {
		b.WriteString(fmt.Sprintf("\n%s\n", styles.err.Render(fmt.Sprintf("Error: %v", m.err))))
	}

	helpKeys := []key.Binding{m.keys.enter, m.keys.logout, m.keys.quit}
	b.WriteString("\n" + m.help.ShortHelpView(helpKeys))

	return b.String()
}

func (m *Model) renderResult() string {
	if m.result == nil {
		return styles.err.Render("No result available\n\nPress esc to go back, q to quit")
	}

	title := styles.title.Render(m.fetching.Name)

	meta := fmt.Sprintf(
		"Path: %s\nContent type: %s\nSize: %d bytes\nDuration: %s",
		m.fetching.Path,
		m.result.ContentType,
		m.result.SizeBytes,
		m.result.Duration.Round(time.Millisecond),
	)
	if m.result.LinkFollowed {
		meta += "\n" + styles.warn.Render("Payload fetched from a link target")
	}

	var body string
	if m.result.Chunks != nil {
		body = styles.ok.Render("Chunked result set") + fmt.Sprintf(
			"\nChunks: %d\nRows: %d\nChunk size: %d",
			m.result.Chunks.NumChunks,
			m.result.Chunks.Rows,
			m.result.Chunks.ChunkSize,
		)
	} else {
		body = previewJSON(m.result.Payload, 24)
	}

	helpKeys := []key.Binding{m.keys.back, m.keys.retry, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n\n%s\n\n%s", title, meta, body, helpView)
}

// previewJSON pretty-prints a payload, truncated to maxLines.
func previewJSON(v any, maxLines int) string {
	data, err := shared.MarshalJSON(v, true)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}

	lines := strings.Split(string(data), "\n")
	if len(lines) <= maxLines {
		return string(data)
	}

	preview := strings.Join(lines[:maxLines], "\n")
	return fmt.Sprintf("%s\n... (%d more lines)", preview, len(lines)-maxLines)
}
