package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pulseboard/pulseboard/internal/snapshot"
)

func pulseDoc() *snapshot.Document {
	return &snapshot.Document{
		Dir:  snapshot.DirPulse,
		Week: "2026-W33",
		Body: json.RawMessage(`{
			"period": "2026-W33",
			"kpi": {"totalTickets": 120, "refunds": 4, "productCount": 2, "topProduct": "Widget"},
			"productBreakdown": [{"product": "Widget", "count": 80, "pct": 66.7}]
		}`),
	}
}

func TestWriteCSVPulse(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := WriteCSV(buf, pulseDoc()); err != nil {
		t.Fatalf("csv error: %v", err)
	}
	reader := csv.NewReader(bytes.NewReader(buf.Bytes()))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("csv read error: %v", err)
	}
	if len(records) < 8 {
		t.Fatalf("expected kpi and breakdown rows, got %d", len(records))
	}
	if records[1][0] != "Period" || records[1][1] != "2026-W33" {
		t.Fatalf("period row = %v", records[1])
	}
	last := records[len(records)-1]
	if last[0] != "Widget" || last[1] != "80" {
		t.Fatalf("breakdown row = %v", last)
	}
}

func TestWriteCSVQA(t *testing.T) {
	doc := &snapshot.Document{
		Dir:  snapshot.DirQA,
		Week: "2026-W33",
		Body: json.RawMessage(`{
			"period": "2026-W33",
			"bcr": {"overall": 85.5, "target": 90, "qaCount": 17, "customerCount": 3},
			"bcrByProduct": [{"product": "Widget", "qaBugs": 10, "customerBugs": 1, "total": 11, "rate": 90.9}]
		}`),
	}
	buf := &bytes.Buffer{}
	if err := WriteCSV(buf, doc); err != nil {
		t.Fatalf("csv error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Bug Catch Rate %,85.50") {
		t.Fatalf("missing headline row: %s", out)
	}
	if !strings.Contains(out, "Widget,10,1,11,90.90") {
		t.Fatalf("missing product row: %s", out)
	}
}

func TestWriteCSVUnknownDir(t *testing.T) {
	doc := &snapshot.Document{Dir: "nonsense", Body: json.RawMessage(`{}`)}
	if err := WriteCSV(&bytes.Buffer{}, doc); err == nil {
		t.Fatal("expected error for unknown directory")
	}
}

func TestPDFExporterRender(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/forms/chromium/convert/html" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(4 << 10); err != nil {
			t.Fatalf("unexpected parse error: %v", err)
		}
		if _, _, err := r.FormFile("files"); err != nil {
			t.Fatalf("missing html part: %v", err)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("PDF"))
	}))
	defer srv.Close()

	exporter := &PDFExporter{Endpoint: srv.URL}
	data, err := exporter.RenderReport(context.Background(), PDFPayload{
		Title:       "Support Pulse",
		PeriodLabel: "2026-W33 (Aug 10)",
		Doc:         pulseDoc(),
	})
	if err != nil {
		t.Fatalf("pdf render error: %v", err)
	}
	if string(data) != "PDF" {
		t.Fatalf("unexpected payload %q", string(data))
	}
}

func TestPDFExporterRejectsMissingEndpoint(t *testing.T) {
	exporter := &PDFExporter{}
	if _, err := exporter.RenderReport(context.Background(), PDFPayload{Doc: pulseDoc()}); err == nil {
		t.Fatal("expected endpoint error")
	}
}

func TestBuildHTMLEscapes(t *testing.T) {
	doc := &snapshot.Document{
		Dir:  snapshot.DirPulse,
		Week: "2026-W33",
		Body: json.RawMessage(`{"period": "2026-W33", "kpi": {"topProduct": "<script>"}}`),
	}
	html, err := buildHTML(PDFPayload{Title: "Pulse & Friends", PeriodLabel: "2026-W33", Doc: doc})
	if err != nil {
		t.Fatalf("build error: %v", err)
	}
	if strings.Contains(html, "<script>") {
		t.Fatal("html not escaped")
	}
	if !strings.Contains(html, "Pulse &amp; Friends") {
		t.Fatalf("title not escaped: %s", html)
	}
}
