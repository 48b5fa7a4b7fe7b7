package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/pulseboard/pulseboard/internal/snapshot"
)

// PDFPayload carries one rendered page destined for PDF export.
type PDFPayload struct {
	Title       string
	PeriodLabel string
	Doc         *snapshot.Document
}

// PDFExporter wraps Gotenberg interactions for report exports.
type PDFExporter struct {
	Endpoint string
	Client   *http.Client
}

// Ping checks whether the remote Gotenberg service is available.
func (p *PDFExporter) Ping(ctx context.Context) error {
	if p == nil || p.Endpoint == "" {
		return fmt.Errorf("gotenberg endpoint required")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(p.Endpoint, "/")+"/health", nil)
	if err != nil {
		return err
	}
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("gotenberg returned status %d", resp.StatusCode)
	}
	return nil
}

// RenderReport sends the report rendered as standalone HTML to Gotenberg
// and returns the PDF bytes.
func (p *PDFExporter) RenderReport(ctx context.Context, payload PDFPayload) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("pdf exporter not initialised")
	}
	endpoint := strings.TrimRight(p.Endpoint, "/")
	if endpoint == "" {
		return nil, fmt.Errorf("gotenberg endpoint required")
	}
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}

	html, err := buildHTML(payload)
	if err != nil {
		return nil, err
	}
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("files", "report.html")
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(part, html); err != nil {
		return nil, err
	}
	if err := writer.WriteField("waitDelay", "500"); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"/forms/chromium/convert/html", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("gotenberg response %d: %s", resp.StatusCode, string(data))
	}

	return io.ReadAll(resp.Body)
}

func buildHTML(payload PDFPayload) (string, error) {
	var b strings.Builder
	b.WriteString("<html><head><meta charset=\"utf-8\"><style>")
	b.WriteString("body{font-family:sans-serif;margin:24px;}h1{font-size:20px;}table{width:100%;border-collapse:collapse;margin-bottom:16px;}th,td{border:1px solid #ddd;padding:6px;text-align:right;}th{text-align:left;background:#f5f5f5;}section{margin-bottom:24px;} .metric-label{text-align:left;}")
	b.WriteString("</style></head><body>")
	b.WriteString(fmt.Sprintf("<h1>%s &ndash; %s</h1>", htmlEscape(payload.Title), htmlEscape(payload.PeriodLabel)))

	if payload.Doc != nil {
		if err := writeDocSections(&b, payload.Doc); err != nil {
			return "", err
		}
	}

	b.WriteString("</body></html>")
	return b.String(), nil
}

func writeDocSections(b *strings.Builder, doc *snapshot.Document) error {
	switch doc.Dir {
	case snapshot.DirPulse:
		var p snapshot.Pulse
		if err := doc.Decode(&p); err != nil {
			return err
		}
		b.WriteString("<section><h2>KPI Summary</h2><table><tbody>")
		writeCountRow(b, "Total Tickets", p.KPI.TotalTickets)
		writeCountRow(b, "Refunds", p.KPI.Refunds)
		writeCountRow(b, "Products", p.KPI.ProductCount)
		writeTextRow(b, "Top Product", p.KPI.TopProduct)
		b.WriteString("</tbody></table></section>")
		writeProductTable(b, p.ProductBreakdown)
	case snapshot.DirTickets:
		var tr snapshot.Tickets
		if err := doc.Decode(&tr); err != nil {
			return err
		}
		b.WriteString("<section><h2>KPI Summary</h2><table><tbody>")
		writeCountRow(b, "Total Tickets", tr.KPI.TotalTickets)
		writeCountRow(b, "Refunds", tr.KPI.Refunds)
		writeCountRow(b, "Products", tr.KPI.ProductCount)
		b.WriteString("</tbody></table></section>")
		writeProductTable(b, tr.ProductBreakdown)
	case snapshot.DirQA:
		var q snapshot.QA
		if err := doc.Decode(&q); err != nil {
			return err
		}
		b.WriteString("<section><h2>Bug Catch Rate</h2><table><tbody>")
		writeTextRow(b, "Overall", formatFloat(q.BCR.Overall)+"%")
		writeTextRow(b, "Target", formatFloat(q.BCR.Target)+"%")
		writeCountRow(b, "QA Bugs", q.BCR.QACount)
		writeCountRow(b, "Customer Bugs", q.BCR.CustomerCount)
		b.WriteString("</tbody></table></section>")
		if len(q.BCRByProduct) > 0 {
			b.WriteString("<section><h2>Catch Rate by Product</h2><table><thead><tr><th>Product</th><th>QA</th><th>Customer</th><th>Rate %</th></tr></thead><tbody>")
			for _, row := range q.BCRByProduct {
				b.WriteString("<tr><td class=\"metric-label\">")
				b.WriteString(htmlEscape(row.Product))
				b.WriteString("</td><td>")
				b.WriteString(strconv.Itoa(row.QABugs))
				b.WriteString("</td><td>")
				b.WriteString(strconv.Itoa(row.CustomerBugs))
				b.WriteString("</td><td>")
				b.WriteString(formatFloat(row.Rate))
				b.WriteString("</td></tr>")
			}
			b.WriteString("</tbody></table></section>")
		}
	case snapshot.DirDSAT:
		var d snapshot.DSAT
		if err := doc.Decode(&d); err != nil {
			return err
		}
		b.WriteString("<section><h2>Dissatisfaction</h2><table><tbody>")
		writeCountRow(b, "Bad Ratings", d.TotalBadRatings)
		writeCountRow(b, "With Comments", d.WithComments)
		writeCountRow(b, "AI Negative", d.AINegative)
		writeTextRow(b, "AI Negative of Comments", formatFloat(d.AINegativeRateOfComments)+"%")
		b.WriteString("</tbody></table></section>")
	case snapshot.DirDaily:
		var d snapshot.Daily
		if err := doc.Decode(&d); err != nil {
			return err
		}
		b.WriteString("<section><h2>Daily Summary</h2><table><tbody>")
		writeCountRow(b, "Total Tickets", d.KPI.TotalTickets)
		writeTextRow(b, "Top Product", d.KPI.TopProduct)
		b.WriteString("</tbody></table></section>")
		writeProductTable(b, d.ProductBreakdown)
	default:
		return fmt.Errorf("export: no pdf layout for %s", doc.Dir)
	}
	return nil
}

func writeProductTable(b *strings.Builder, rows []snapshot.ProductRow) {
	if len(rows) == 0 {
		return
	}
	b.WriteString("<section><h2>Products</h2><table><thead><tr><th>Product</th><th>Tickets</th><th>Share %</th></tr></thead><tbody>")
	for _, row := range rows {
		b.WriteString("<tr><td class=\"metric-label\">")
		b.WriteString(htmlEscape(row.Product))
		b.WriteString("</td><td>")
		b.WriteString(strconv.Itoa(row.Count))
		b.WriteString("</td><td>")
		b.WriteString(formatFloat(row.Pct))
		b.WriteString("</td></tr>")
	}
	b.WriteString("</tbody></table></section>")
}

func writeCountRow(b *strings.Builder, label string, value int) {
	writeTextRow(b, label, strconv.Itoa(value))
}

func writeTextRow(b *strings.Builder, label, value string) {
	b.WriteString("<tr><td class=\"metric-label\">")
	b.WriteString(htmlEscape(label))
	b.WriteString("</td><td>")
	b.WriteString(htmlEscape(value))
	b.WriteString("</td></tr>")
}

func htmlEscape(v string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		"\"", "&quot;",
		"'", "&#39;",
	)
	return replacer.Replace(v)
}
