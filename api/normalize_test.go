package api

import (
	"net/http"
	"reflect"
	"testing"
)

func TestNormalizeBody(t *testing.T) {
	header := func(contentType string) http.Header {
		h := http.Header{}
		if contentType != "" {
			h.Set("Content-Type", contentType)
		}
		return h
	}

	t.Run("Declared JSON Is Parsed", func(t *testing.T) {
		payload, contentType, err := normalizeBody([]byte(`{"ok":true}`), header("application/json"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		want := map[string]any{"ok": true}
		if !reflect.DeepEqual(payload, want) {
			t.Errorf("payload = %v, want %v", payload, want)
		}
		if contentType != "application/json" {
			t.Errorf("contentType = %q, want application/json", contentType)
		}
	})

	t.Run("Declared JSON Keeps Parameters", func(t *testing.T) {
		_, contentType, err := normalizeBody([]byte(`[1,2]`), header("application/json; charset=utf-8"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if contentType != "application/json; charset=utf-8" {
			t.Errorf("contentType = %q, want declaration preserved", contentType)
		}
	})

	t.Run("Declared JSON With Invalid Body Errors", func(t *testing.T) {
		if _, _, err := normalizeBody([]byte(`{broken`), header("application/json")); err == nil {
			t.Error("expected error for invalid JSON under a JSON declaration")
		}
	})

	t.Run("JSON Suffix Types Are Parsed", func(t *testing.T) {
		payload, _, err := normalizeBody([]byte(`{"n":1}`), header("application/vnd.api+json"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if _, ok := payload.(map[string]any); !ok {
			t.Errorf("expected parsed object, got %T", payload)
		}
	})

	t.Run("Octet Stream With JSON Body Is Rewritten", func(t *testing.T) {
		payload, contentType, err := normalizeBody([]byte(`{"lap":42}`), header("application/octet-stream"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if contentType != "application/json" {
			t.Errorf("contentType = %q, want application/json", contentType)
		}
		obj, ok := payload.(map[string]any)
		if !ok {
			t.Fatalf("expected parsed object, got %T", payload)
		}
		if obj["lap"] != float64(42) {
			t.Errorf("payload lap = %v, want 42", obj["lap"])
		}
	})

	t.Run("Octet Stream Rewrite Preserves Charset", func(t *testing.T) {
		_, contentType, err := normalizeBody([]byte(`[]`), header("application/octet-stream; charset=utf-8"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if contentType != "application/json; charset=utf-8" {
			t.Errorf("contentType = %q, want application/json; charset=utf-8", contentType)
		}
	})

	t.Run("Octet Stream With Binary Body Passes Through", func(t *testing.T) {
		payload, contentType, err := normalizeBody([]byte{0x00, 0x01, 0xff}, header("application/octet-stream"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if contentType != "application/octet-stream" {
			t.Errorf("contentType = %q, want application/octet-stream", contentType)
		}
		if _, ok := payload.(string); !ok {
			t.Errorf("expected raw string payload, got %T", payload)
		}
	})

	t.Run("Other Declared Types Pass Through", func(t *testing.T) {
		payload, contentType, err := normalizeBody([]byte("a,b\n1,2\n"), header("text/csv"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if contentType != "text/csv" {
			t.Errorf("contentType = %q, want text/csv", contentType)
		}
		if payload != "a,b\n1,2\n" {
			t.Errorf("payload = %v, want raw text", payload)
		}
	})

	t.Run("Absent Header Sniffs JSON", func(t *testing.T) {
		payload, contentType, err := normalizeBody([]byte(`{"sniffed":true}`), header(""))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if contentType != "application/json" {
			t.Errorf("contentType = %q, want application/json", contentType)
		}
		if _, ok := payload.(map[string]any); !ok {
			t.Errorf("expected parsed object, got %T", payload)
		}
	})

	t.Run("Absent Header Falls Back To Text", func(t *testing.T) {
		payload, contentType, err := normalizeBody([]byte("plain words"), header(""))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if contentType != "text/plain" {
			t.Errorf("contentType = %q, want text/plain", contentType)
		}
		if payload != "plain words" {
			t.Errorf("payload = %v, want raw text", payload)
		}
	})

	t.Run("Unparseable Declaration Passes Through", func(t *testing.T) {
		payload, contentType, err := normalizeBody([]byte("data"), header(";;;"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if contentType != ";;;" {
			t.Errorf("contentType = %q, want declaration untouched", contentType)
		}
		if payload != "data" {
			t.Errorf("payload = %v, want raw text", payload)
		}
	})
}
