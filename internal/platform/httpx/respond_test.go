package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRespondErrorMapsSentinels(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		slug   string
	}{
		{"not found", fmt.Errorf("%w: pulse/2026-W33", ErrNotFound), http.StatusNotFound, "not-found"},
		{"validation", fmt.Errorf("%w: bad week", ErrValidation), http.StatusBadRequest, "invalid-request"},
		{"upstream", fmt.Errorf("%w: gotenberg down", ErrUpstream), http.StatusBadGateway, "export-upstream"},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError, "internal"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			RespondError(rec, tc.err)
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d", rec.Code, tc.status)
			}
			if got := rec.Header().Get("Content-Type"); got != "application/problem+json" {
				t.Fatalf("content type = %q", got)
			}
			var p ProblemDetail
			if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if !strings.HasSuffix(p.Type, "/"+tc.slug) {
				t.Fatalf("type = %q, want slug %q", p.Type, tc.slug)
			}
			if p.Status != tc.status {
				t.Fatalf("body status = %d, want %d", p.Status, tc.status)
			}
		})
	}
}

func TestRespondErrorHidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, errors.New("dsn=postgres://user:hunter2@db"))
	var p ProblemDetail
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if p.Detail != "" {
		t.Fatalf("internal detail leaked: %q", p.Detail)
	}
}
