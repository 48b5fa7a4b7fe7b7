// Package httpx writes the JSON API's responses: plain JSON on success,
// RFC 7807 problem documents on failure.
package httpx

import (
	"encoding/json"
	"net/http"
)

// problemTypeBase prefixes the type URI of every problem the API emits.
const problemTypeBase = "https://pulseboard.example/problems/"

// ProblemDetail is the RFC 7807 body the API returns on failure.
type ProblemDetail struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// JSON writes data with the given status.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Problem writes an RFC 7807 response. slug names the problem type under
// the problem namespace.
func Problem(w http.ResponseWriter, status int, slug, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ProblemDetail{
		Type:   problemTypeBase + slug,
		Title:  title,
		Status: status,
		Detail: detail,
	})
}
