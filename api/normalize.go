package api

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"strings"
)

// normalizeBody classifies a response body against its declared Content-Type
// and returns the payload plus the content type to report.
//
// A declared JSON type is decoded strictly: a body that fails to parse is an
// error. An application/octet-stream body that happens to parse as JSON is
// reported as application/json with the declaration's parameters preserved.
// Other declared types pass through as text. An absent declaration is
// sniffed: application/json when the body parses, text/plain otherwise.
func normalizeBody(body []byte, header http.Header) (any, string, error) {
	declared := header.Get("Content-Type")

	if declared == "" {
		if v, ok := tryJSON(body); ok {
			return v, "application/json", nil
		}
		return string(body), "text/plain", nil
	}

	mediaType, params, err := mime.ParseMediaType(declared)
	if err != nil {
		// Unparseable declarations pass through untouched.
		return string(body), declared, nil
	}

	switch {
	case isJSONType(mediaType):
		v, ok := tryJSON(body)
		if !ok {
			return nil, declared, fmt.Errorf("failed to decode response declared as %s", declared)
		}
		return v, declared, nil

	case mediaType == "application/octet-stream":
		if v, ok := tryJSON(body); ok {
			return v, mime.FormatMediaType("application/json", params), nil
		}
		return string(body), declared, nil

	default:
		return string(body), declared, nil
	}
}

func isJSONType(mediaType string) bool {
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

func tryJSON(body []byte) (any, bool) {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, false
	}
	return v, true
}
