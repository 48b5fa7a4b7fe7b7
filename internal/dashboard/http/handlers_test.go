package dashhttp

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/go-chi/chi/v5"

	"github.com/pulseboard/pulseboard/internal/compare"
	"github.com/pulseboard/pulseboard/internal/dashboard"
	"github.com/pulseboard/pulseboard/internal/export"
	"github.com/pulseboard/pulseboard/internal/store"
	_ "github.com/pulseboard/pulseboard/internal/testing/guard"
	"github.com/pulseboard/pulseboard/internal/view"
)

type stubPDF struct {
	last export.PDFPayload
	err  error
}

func (s *stubPDF) RenderReport(ctx context.Context, payload export.PDFPayload) ([]byte, error) {
	s.last = payload
	if s.err != nil {
		return nil, s.err
	}
	return append([]byte("%PDF-1.4\n"), bytes.Repeat([]byte("PDF"), 400)...), nil
}

func testData() fstest.MapFS {
	return fstest.MapFS{
		"index.json": &fstest.MapFile{Data: []byte(`{
			"latest": "2026-W33",
			"weeks": ["2026-W33", "2026-W32", "2026-W31"]
		}`)},
		"pulse/2026-W33.json": &fstest.MapFile{Data: []byte(`{"period":"2026-W33","kpi":{"totalTickets":120,"refunds":4,"productCount":2,"topProduct":"Widget"},
			"productBreakdown":[{"product":"Widget","count":80,"pct":66.7},{"product":"Gadget","count":40,"pct":33.3}]}`)},
		"pulse/2026-W32.json": &fstest.MapFile{Data: []byte(`{"period":"2026-W32","kpi":{"totalTickets":100,"refunds":4,"productCount":2,"topProduct":"Widget"}}`)},
		"tickets/2026-W31.json": &fstest.MapFile{Data: []byte(`{"period":"2026-W31","kpi":{"totalTickets":50}}`)},
		"qa/2026-W33.json":      &fstest.MapFile{Data: []byte(`{"period":"2026-W33","bcr":{"overall":85.5,"target":90,"qaCount":17,"customerCount":3}}`)},
	}
}

type fixture struct {
	handler  *Handler
	sessions *dashboard.Sessions
	pdf      *stubPDF
	router   chi.Router
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	templates, err := view.NewEngine()
	if err != nil {
		t.Fatalf("parse templates: %v", err)
	}
	st := store.NewFS(testData(), nil)
	sessions := dashboard.NewSessions(0)
	pdf := &stubPDF{}
	handler := NewHandler(nil, dashboard.NewRouter(st, nil), sessions, compare.NewEngine(st, nil), st, templates, pdf)

	r := chi.NewRouter()
	handler.MountRoutes(r)
	return &fixture{handler: handler, sessions: sessions, pdf: pdf, router: r}
}

func (f *fixture) get(t *testing.T, url string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func TestDashboardRendersLatest(t *testing.T) {
	f := newFixture(t)
	rr := f.get(t, "/")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	body := rr.Body.String()
	for _, want := range []string{"Support Pulse", "2026-W33", "Widget", "Compare"} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q", want)
		}
	}
	if len(rr.Result().Cookies()) == 0 {
		t.Fatal("expected session cookie on first contact")
	}
}

func TestDashboardRedirectsToServedWeek(t *testing.T) {
	f := newFixture(t)
	// tickets only has W31; the loader walks back and the handler
	// redirects so the address bar matches.
	rr := f.get(t, "/?view=weekly&report=tickets&week=2026-W33")
	if rr.Code != http.StatusFound {
		t.Fatalf("status = %d", rr.Code)
	}
	if loc := rr.Header().Get("Location"); !strings.Contains(loc, "week=2026-W31") {
		t.Fatalf("location = %s", loc)
	}
}

func TestDashboardExhaustedPeriodRendersErrorPage(t *testing.T) {
	f := newFixture(t)
	rr := f.get(t, "/?view=weekly&report=dsat&week=2026-W33")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Jump to the latest week") {
		t.Fatalf("error page missing recovery link: %s", rr.Body.String())
	}
}

func TestCompareToggleActivatesSession(t *testing.T) {
	f := newFixture(t)
	first := f.get(t, "/?view=weekly&report=pulse&week=2026-W33")
	cookies := first.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("no session cookie")
	}

	req := httptest.NewRequest(http.MethodPost, "/compare/toggle?view=weekly&report=pulse&week=2026-W33", nil)
	req.AddCookie(cookies[0])
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("status = %d", rr.Code)
	}

	sess := f.sessions.Get(cookies[0].Value)
	if sess == nil {
		t.Fatal("session lost")
	}
	ev := sess.CompareEvent("2026-W33")
	if !ev.Active || ev.Previous == nil || ev.Previous.Week != "2026-W32" {
		t.Fatalf("compare event = %+v", ev)
	}

	// The page now renders with the comparison badge.
	page := f.get(t, "/?view=weekly&report=pulse&week=2026-W33", cookies[0])
	if !strings.Contains(page.Body.String(), "Comparing") {
		t.Fatal("comparison badge missing after toggle")
	}
}

func TestCSVExport(t *testing.T) {
	f := newFixture(t)
	rr := f.get(t, "/export/csv?view=weekly&report=pulse&week=2026-W33")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("content type = %s", ct)
	}
	if !strings.Contains(rr.Body.String(), "Total Tickets,120") {
		t.Fatalf("csv body = %s", rr.Body.String())
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, "pulseboard-pulse-2026-W33.csv") {
		t.Fatalf("disposition = %s", cd)
	}
}

func TestPDFExport(t *testing.T) {
	f := newFixture(t)
	rr := f.get(t, "/export/pdf?view=weekly&report=pulse&week=2026-W33")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("content type = %s", ct)
	}
	if f.pdf.last.Title != "Support Pulse" || f.pdf.last.Doc == nil {
		t.Fatalf("pdf payload = %+v", f.pdf.last)
	}
}

func TestAPIReport(t *testing.T) {
	f := newFixture(t)
	rr := f.get(t, "/api/report/pulse/2026-W33")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), `"week":"2026-W33"`) {
		t.Fatalf("body = %s", rr.Body.String())
	}
}

func TestAPIReportRejectsUnknownDir(t *testing.T) {
	f := newFixture(t)
	rr := f.get(t, "/api/report/payroll/2026-W33")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestAPIReportNotFound(t *testing.T) {
	f := newFixture(t)
	rr := f.get(t, "/api/report/dsat/2026-W33")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
}

func TestAPIMonthAggregates(t *testing.T) {
	f := newFixture(t)
	rr := f.get(t, "/api/month/pulse/2026-08")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), `"week":"2026-08"`) {
		t.Fatalf("body = %s", rr.Body.String())
	}
}
