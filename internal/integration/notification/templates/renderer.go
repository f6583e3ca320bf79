// Package templates provides notification template rendering functionality.
package templates

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
)

//go:embed *.html *.txt
var templateFS embed.FS

// Renderer produces the HTML and plain-text bodies of notification emails
// from the embedded template set.
type Renderer struct {
	html *htmltemplate.Template
	text *texttemplate.Template
}

// NewRenderer parses the embedded template files.
func NewRenderer() (*Renderer, error) {
	html, err := htmltemplate.ParseFS(templateFS, "*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML templates: %w", err)
	}
	text, err := texttemplate.ParseFS(templateFS, "*.txt")
	if err != nil {
		return nil, fmt.Errorf("failed to parse text templates: %w", err)
	}
	return &Renderer{html: html, text: text}, nil
}

// Render executes both variants of the named template. A missing text
// variant is not an error; the HTML body is returned alone.
func (r *Renderer) Render(name string, data interface{}) (html string, text string, err error) {
	var htmlBuf bytes.Buffer
	if err := r.html.ExecuteTemplate(&htmlBuf, name+".html", data); err != nil {
		return "", "", fmt.Errorf("failed to render HTML template %s: %w", name, err)
	}

	var textBuf bytes.Buffer
	if err := r.text.ExecuteTemplate(&textBuf, name+".txt", data); err != nil {
		return htmlBuf.String(), "", nil
	}
	return htmlBuf.String(), textBuf.String(), nil
}

// BatchProcessedData contains data for the processing-finished template.
type BatchProcessedData struct {
	BatchName    string
	BatchURL     string
	FiscalYear   string
	InvoiceCount string
	PaymentCount string
}

// ValidationRequiredData contains data for the review-needed template.
type ValidationRequiredData struct {
	BatchName   string
	BatchURL    string
	Reasons     string
	ReviewCount string
}

// BatchFailedData contains data for the processing-failed template.
type BatchFailedData struct {
	BatchName string
	BatchURL  string
	Reason    string
}

// DeclarationExportedData contains data for the export template.
type DeclarationExportedData struct {
	BatchName      string
	BatchURL       string
	FiscalYear     string
	TotalInvoices  string
	TotalPenalties string
}
