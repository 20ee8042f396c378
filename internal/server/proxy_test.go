package server

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestProxyHandler(t *testing.T) {
	t.Run("Forwards Token Form Posts", func(t *testing.T) {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("upstream method = %s, want POST", r.Method)
			}
			if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
				t.Errorf("upstream Content-Type = %q, want form encoding", ct)
			}
			if err := r.ParseForm(); err != nil {
				t.Fatalf("parse form: %v", err)
			}
			if got := r.PostForm.Get("grant_type"); got != "authorization_code" {
				t.Errorf("grant_type = %q", got)
			}
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"access_token":"tok"}`)
		}))
		defer upstream.Close()

		handler := NewProxyHandler(upstream.URL, "http://api.invalid", nil, nil)

		form := url.Values{"grant_type": {"authorization_code"}, "code": {"abc"}}
		req := httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(form.Encode()))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "access_token") {
			t.Errorf("body = %q, want the upstream token response", rec.Body.String())
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q, want the upstream header relayed", ct)
		}
	})

	t.Run("Token Route Is Post Only", func(t *testing.T) {
		handler := NewProxyHandler("http://oauth.invalid/token", "http://api.invalid", nil, nil)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/token", nil))

		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("status = %d, want 405", rec.Code)
		}
	})

	t.Run("Forwards Data Requests With Authorization", func(t *testing.T) {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/data/car/assets" {
				t.Errorf("upstream path = %q", r.URL.Path)
			}
			if got := r.URL.Query().Get("car_id"); got != "42" {
				t.Errorf("car_id = %q, want 42", got)
			}
			if got := r.Header.Get("Authorization"); got != "Bearer tok" {
				t.Errorf("Authorization = %q, want Bearer tok", got)
			}
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"car":"mx5"}`)
		}))
		defer upstream.Close()

		handler := NewProxyHandler("http://oauth.invalid/token", upstream.URL, nil, nil)

		req := httptest.NewRequest(http.MethodGet, "/data/car/assets?car_id=42", nil)
		req.Header.Set("Authorization", "Bearer tok")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "mx5") {
			t.Errorf("body = %q, want the upstream payload", rec.Body.String())
		}
	})

	t.Run("Relays Upstream Errors Untouched", func(t *testing.T) {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "token expired", http.StatusUnauthorized)
		}))
		defer upstream.Close()

		handler := NewProxyHandler("http://oauth.invalid/token", upstream.URL, nil, nil)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/data/member/info", nil))

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want the upstream 401", rec.Code)
		}
	})

	t.Run("Passthrough Fetches The Named URL", func(t *testing.T) {
		var gotAuth string
		files := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `[1,2,3]`)
		}))
		defer files.Close()

		handler := NewProxyHandler("http://oauth.invalid/token", "http://api.invalid", nil, nil)

		target := files.URL + "/results.json?sig=abc"
		req := httptest.NewRequest(http.MethodGet, "/passthrough?url="+url.QueryEscape(target), nil)
		req.Header.Set("Authorization", "Bearer should-not-forward")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
		if rec.Body.String() != "[1,2,3]" {
			t.Errorf("body = %q, want the file content", rec.Body.String())
		}
		if gotAuth != "" {
			t.Errorf("file host saw Authorization %q, want none", gotAuth)
		}
	})

	t.Run("Passthrough Requires A Valid URL", func(t *testing.T) {
		handler := NewProxyHandler("http://oauth.invalid/token", "http://api.invalid", nil, nil)

		for name, target := range map[string]string{
			"Missing": "/passthrough",
			"Scheme":  "/passthrough?url=" + url.QueryEscape("file:///etc/passwd"),
		} {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("%s: status = %d, want 400", name, rec.Code)
			}
		}
	})

	t.Run("Unreachable Upstream Is A Bad Gateway", func(t *testing.T) {
		handler := NewProxyHandler("http://oauth.invalid/token", "http://127.0.0.1:1", nil, nil)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/data/member/info", nil))

		if rec.Code != http.StatusBadGateway {
			t.Errorf("status = %d, want 502", rec.Code)
		}
	})

	t.Run("Unknown Paths 404", func(t *testing.T) {
		handler := NewProxyHandler("http://oauth.invalid/token", "http://api.invalid", nil, nil)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}
