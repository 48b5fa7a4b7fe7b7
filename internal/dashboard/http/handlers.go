// Package dashhttp serves the dashboard pages, the comparison toggle,
// the JSON API and the CSV/PDF exports.
package dashhttp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/pulseboard/pulseboard/internal/compare"
	"github.com/pulseboard/pulseboard/internal/dashboard"
	"github.com/pulseboard/pulseboard/internal/dashboard/ui"
	"github.com/pulseboard/pulseboard/internal/export"
	"github.com/pulseboard/pulseboard/internal/period"
	"github.com/pulseboard/pulseboard/internal/platform/httpx"
	"github.com/pulseboard/pulseboard/internal/snapshot"
	"github.com/pulseboard/pulseboard/internal/store"
	"github.com/pulseboard/pulseboard/internal/view"
)

const (
	sessionCookie  = "pb_session"
	requestTimeout = 5 * time.Second
)

// PDFService renders report content to PDF bytes.
type PDFService interface {
	RenderReport(ctx context.Context, payload export.PDFPayload) ([]byte, error)
}

// Handler coordinates HTTP requests for the dashboard.
type Handler struct {
	logger    *slog.Logger
	router    *dashboard.Router
	sessions  *dashboard.Sessions
	compare   *compare.Engine
	store     store.Store
	templates *view.Engine
	pdf       PDFService
	validate  *validator.Validate
	csvPool   sync.Pool
}

// NewHandler constructs the dashboard HTTP handler.
func NewHandler(logger *slog.Logger, router *dashboard.Router, sessions *dashboard.Sessions, engine *compare.Engine, st store.Store, templates *view.Engine, pdf PDFService) *Handler {
	h := &Handler{
		logger:    logger,
		router:    router,
		sessions:  sessions,
		compare:   engine,
		store:     st,
		templates: templates,
		pdf:       pdf,
		validate:  validator.New(),
	}
	h.csvPool.New = func() interface{} { return new(bytes.Buffer) }
	return h
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	sess := h.session(w, r)
	req := dashboard.ParseParams(r.URL.Query())

	page, err := h.router.Navigate(ctx, sess, req)
	if err != nil {
		h.respondNavigateError(w, err)
		return
	}

	// The loader may have walked back to an older week; redirect so the
	// address bar matches what is on screen.
	if canonical := page.Query.Encode(); r.URL.RawQuery != "" && canonical != req.Values().Encode() {
		http.Redirect(w, r, "/?"+canonical, http.StatusFound)
		return
	}

	var ev compare.Event
	if sess != nil && page.CompareAllowed {
		ev = sess.CompareEvent(page.Period)
	}

	model, err := ui.Build(page, ev)
	if err != nil {
		h.handleServerError(w, "build view model", err)
		return
	}

	viewData := view.TemplateData{
		Title:       page.Report.Title,
		CurrentPath: r.URL.Path,
		Query:       page.Query.Encode(),
		Data:        model,
	}
	if err := h.templates.Render(w, model.Template, viewData); err != nil {
		h.handleServerError(w, "render template", err)
	}
}

func (h *Handler) handleCompareToggle(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	sess := h.session(w, r)
	req := dashboard.ParseParams(r.URL.Query())

	page, err := h.router.Navigate(ctx, sess, req)
	if err != nil {
		if errors.Is(err, dashboard.ErrBusy) {
			// Dropped, not queued. Send the visitor back unchanged.
			http.Redirect(w, r, "/?"+r.URL.RawQuery, http.StatusSeeOther)
			return
		}
		h.respondNavigateError(w, err)
		return
	}

	if sess != nil && page.CompareAllowed && h.compare != nil {
		var toggleErr error
		sess.WithCompare(func(st *compare.State) {
			_, toggleErr = h.compare.Toggle(ctx, st, page.Report.Dir, page.Period)
		})
		if toggleErr != nil {
			h.handleServerError(w, "toggle comparison", toggleErr)
			return
		}
	}

	http.Redirect(w, r, "/?"+page.Query.Encode(), http.StatusSeeOther)
}

func (h *Handler) handleCSV(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	req := dashboard.ParseParams(r.URL.Query())
	doc, report, err := h.resolveDoc(ctx, req)
	if err != nil {
		h.respondExportError(w, err)
		return
	}

	buf := h.csvPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		buf.Reset()
		h.csvPool.Put(buf)
	}()

	if err := export.WriteCSV(buf, doc); err != nil {
		h.handleServerError(w, "write csv", err)
		return
	}

	filename := fmt.Sprintf("pulseboard-%s-%s.csv", report.ID, doc.Week)
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logError("stream csv", err)
	}
}

func (h *Handler) handlePDF(w http.ResponseWriter, r *http.Request) {
	if h.pdf == nil {
		httpx.RespondError(w, fmt.Errorf("%w: pdf exporter not configured", httpx.ErrUpstream))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	req := dashboard.ParseParams(r.URL.Query())
	doc, report, err := h.resolveDoc(ctx, req)
	if err != nil {
		h.respondExportError(w, err)
		return
	}

	payload := export.PDFPayload{
		Title:       report.Title,
		PeriodLabel: periodLabelFor(req.View, doc.Week),
		Doc:         doc,
	}
	pdfBytes, err := h.pdf.RenderReport(ctx, payload)
	if err != nil {
		h.logError("render pdf", err)
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrUpstream, err))
		return
	}

	filename := fmt.Sprintf("pulseboard-%s-%s.pdf", report.ID, doc.Week)
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if _, err := w.Write(pdfBytes); err != nil {
		h.logError("stream pdf", err)
	}
}

// resolveDoc loads the document an export refers to, without touching the
// navigation guard or any session.
func (h *Handler) resolveDoc(ctx context.Context, req dashboard.NavRequest) (*snapshot.Document, dashboard.Report, error) {
	v := dashboard.ViewByID(req.View)
	report := v.Report(req.Report)
	if report.Placeholder {
		return nil, report, fmt.Errorf("%w: %s has no exportable data", httpx.ErrNotFound, report.Title)
	}
	if v.Aggregated() {
		doc, err := h.router.AggregateMonth(ctx, report.Dir, req.Period)
		return doc, report, err
	}
	p := req.Period
	if !period.IsWeek(p) {
		idx, err := h.store.Index(ctx)
		if err != nil {
			return nil, report, err
		}
		p = idx.Latest
	}
	doc, err := h.store.Report(ctx, report.Dir, p)
	return doc, report, err
}

type errorModel struct {
	Heading   string
	Message   string
	LatestURL string
}

func (h *Handler) respondNavigateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, dashboard.ErrBusy):
		h.renderError(w, http.StatusConflict, "Hold on",
			"Another page change is still loading. Go back and try again.")
	case errors.Is(err, store.ErrNoData):
		h.renderError(w, http.StatusNotFound, "Nothing here yet",
			"No report has been published for this period or any earlier one.")
	default:
		h.logError("navigate", err)
		h.renderError(w, http.StatusInternalServerError, "Something went wrong",
			"The dashboard hit an unexpected error loading this page.")
	}
}

func (h *Handler) respondExportError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, httpx.ErrNotFound):
		httpx.RespondError(w, err)
	case errors.Is(err, store.ErrNoData):
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrNotFound, err))
	default:
		h.logError("resolve export", err)
		httpx.RespondError(w, err)
	}
}

func (h *Handler) renderError(w http.ResponseWriter, status int, heading, message string) {
	latest := dashboard.NavRequest{View: dashboard.ViewWeekly, Report: "pulse", Period: period.Latest}
	w.WriteHeader(status)
	data := view.TemplateData{
		Title: heading,
		Data:  errorModel{Heading: heading, Message: message, LatestURL: "/?" + latest.Values().Encode()},
	}
	if err := h.templates.Render(w, "error.html", data); err != nil {
		h.logError("render error page", err)
	}
}

func (h *Handler) handleServerError(w http.ResponseWriter, context string, err error) {
	h.logError(context, err)
	h.renderError(w, http.StatusInternalServerError, "Something went wrong",
		"The dashboard hit an unexpected error loading this page.")
}

func (h *Handler) logError(context string, err error) {
	if h.logger != nil {
		h.logger.Error(context, slog.Any("error", err))
	}
}

// session returns the visitor's session, creating one and setting the
// cookie on first contact. A nil registry disables sessions.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) *dashboard.Session {
	if h.sessions == nil {
		return nil
	}
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		if sess := h.sessions.Get(cookie.Value); sess != nil {
			return sess
		}
	}
	sess := h.sessions.Create()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sess
}

func periodLabelFor(viewID dashboard.ViewID, p string) string {
	v := dashboard.ViewByID(viewID)
	if v.PeriodType == dashboard.PeriodMonth {
		return period.MonthLabel(p)
	}
	if w, err := period.Parse(p); err == nil {
		return w.Label()
	}
	return p
}

// HandleDashboardForTest exposes the dashboard handler for tests.
func (h *Handler) HandleDashboardForTest(w http.ResponseWriter, r *http.Request) {
	h.handleDashboard(w, r)
}

// HandleCompareToggleForTest exposes the toggle handler for tests.
func (h *Handler) HandleCompareToggleForTest(w http.ResponseWriter, r *http.Request) {
	h.handleCompareToggle(w, r)
}

// HandleCSVForTest exposes the CSV handler for tests.
func (h *Handler) HandleCSVForTest(w http.ResponseWriter, r *http.Request) { h.handleCSV(w, r) }

// HandlePDFForTest exposes the PDF handler for tests.
func (h *Handler) HandlePDFForTest(w http.ResponseWriter, r *http.Request) { h.handlePDF(w, r) }
