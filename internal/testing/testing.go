// package testing contains shared testing utilities
package testing

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"
)

// MockAuthorizer is a test double for the api package's Authorizer seam.
// Headers is returned verbatim from AuthHeaders; RefreshFunc, when set,
// handles RefreshAccessToken. Calls are counted.
type MockAuthorizer struct {
	mu          sync.Mutex
	Headers     map[string]string
	RefreshFunc func(ctx context.Context) (bool, error)

	HeaderCalls  int
	RefreshCalls int
}

func (m *MockAuthorizer) AuthHeaders() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.HeaderCalls++
	if m.Headers == nil {
		return map[string]string{}
	}
	headers := make(map[string]string, len(m.Headers))
	for k, v := range m.Headers {
		headers[k] = v
	}
	return headers
}

func (m *MockAuthorizer) RefreshAccessToken(ctx context.Context) (bool, error) {
	m.mu.Lock()
	m.RefreshCalls++
	fn := m.RefreshFunc
	m.mu.Unlock()
	if fn == nil {
		return false, nil
	}
	return fn(ctx)
}

// SetHeaders swaps the header map, e.g. to simulate a refresh installing a
// new token between the original request and the retry.
func (m *MockAuthorizer) SetHeaders(headers map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Headers = headers
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// NewResponse builds an *http.Response suitable for a [MockRoundTripper],
// with the given status code, Content-Type header (empty to omit), and body.
func NewResponse(status int, contentType, body string) *http.Response {
	header := http.Header{}
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Header:     header,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
	}
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
