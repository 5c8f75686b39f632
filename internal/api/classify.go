package api

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"strings"
)

// parseValidationErrors reads {"errors": {field: [messages]}}. A field
// holding a single string is accepted as a one-element list. Anything
// unreadable yields an empty mapping.
func parseValidationErrors(body []byte) map[string][]string {
	fields := map[string][]string{}

	var payload struct {
		Errors map[string]json.RawMessage `json:"errors"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return fields
	}

	for field, raw := range payload.Errors {
		var list []string
		if err := json.Unmarshal(raw, &list); err == nil {
			fields[field] = list
			continue
		}
		var single string
		if err := json.Unmarshal(raw, &single); err == nil {
			fields[field] = []string{single}
		}
	}
	return fields
}

// flattenValidation joins every message, ordered by field name.
func flattenValidation(fields map[string][]string) string {
	var msgs []string
	for _, field := range sortedKeys(fields) {
		msgs = append(msgs, fields[field]...)
	}
	if len(msgs) == 0 {
		return msgValidation
	}
	return strings.Join(msgs, ", ")
}

// retryAfterSeconds reads Retry-After as whole seconds.
func retryAfterSeconds(h http.Header, def int) int {
	if def <= 0 {
		def = 1
	}
	secs, err := strconv.Atoi(strings.TrimSpace(h.Get("Retry-After")))
	if err != nil || secs <= 0 {
		return def
	}
	return secs
}

// bodyMessage extracts a human-readable message from an error body.
func bodyMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}

func sortedKeys(m map[string][]string) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
