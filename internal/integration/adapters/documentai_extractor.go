// Package adapters provides implementations for external service integrations.
package adapters

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/shopspring/decimal"
	"google.golang.org/api/option"

	"github.com/dgi-compliance/backend/internal/application/adapter"
	"github.com/dgi-compliance/backend/internal/domain/entity"
)

// MaxDocumentAISizeBytes is the maximum document size for synchronous
// Document AI processing (20MB).
const MaxDocumentAISizeBytes = 20 * 1024 * 1024

// Day-count patterns for payment terms such as "60 jours fin de mois" or "Net 90".
var (
	delayDaysPattern = regexp.MustCompile(`(?i)(\d{1,3})\s*(?:jours|jour|j\b|days|day)`)
	delayNetPattern  = regexp.MustCompile(`(?i)net\s*(\d{1,3})`)
)

// DocumentAIExtractor implements the adapter.ExtractionProvider using the
// Google Document AI invoice parser. The parser reads the stored document
// bytes directly and runs its own layout analysis, so the OCR text is only
// used for credit-note detection. Payment documents are not supported by the
// invoice parser and are delegated to the fallback provider.
type DocumentAIExtractor struct {
	projectID       string
	location        string
	processorID     string
	credentialsJSON string

	fileStore       adapter.FileStore
	paymentFallback adapter.ExtractionProvider
}

// NewDocumentAIExtractor creates a new Document AI extraction service instance.
func NewDocumentAIExtractor(projectID, location, processorID, credentialsJSON string, fileStore adapter.FileStore, paymentFallback adapter.ExtractionProvider) *DocumentAIExtractor {
	if location == "" {
		location = "eu"
	}
	return &DocumentAIExtractor{
		projectID:       projectID,
		location:        location,
		processorID:     processorID,
		credentialsJSON: credentialsJSON,
		fileStore:       fileStore,
		paymentFallback: paymentFallback,
	}
}

// IsAvailable checks if the Document AI service is configured.
func (s *DocumentAIExtractor) IsAvailable() bool {
	return s.projectID != "" && s.processorID != ""
}

// ExtractInvoice parses invoice fields with the Document AI invoice parser.
func (s *DocumentAIExtractor) ExtractInvoice(ctx context.Context, document *entity.Document, rawText string) (*entity.ExtractedInvoice, error) {
	if !s.IsAvailable() {
		return nil, fmt.Errorf("document ai service is not configured")
	}

	content, err := s.fileStore.Load(ctx, document.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load stored document: %w", err)
	}
	if len(content) > MaxDocumentAISizeBytes {
		return nil, fmt.Errorf("document too large for synchronous processing: %d bytes", len(content))
	}

	client, err := s.newClient(ctx)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	req := &documentaipb.ProcessRequest{
		Name: s.processorName(),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  content,
				MimeType: document.ContentType,
			},
		},
	}

	resp, err := client.ProcessDocument(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("document ai call failed: %w", err)
	}
	if resp.Document == nil {
		return nil, fmt.Errorf("no document in response")
	}

	invoice := s.invoiceFromDocument(document, resp.Document)
	if !invoice.IsCreditNote {
		invoice.IsCreditNote = looksLikeCreditNote(rawText)
	}
	invoice.RecomputeMissingFields()

	return invoice, nil
}

// ExtractPayment delegates to the fallback provider; the invoice parser does
// not understand bank statements or check stubs.
func (s *DocumentAIExtractor) ExtractPayment(ctx context.Context, document *entity.Document, rawText string) (*entity.ExtractedPayment, error) {
	if s.paymentFallback == nil {
		return nil, fmt.Errorf("no extraction provider configured for payment documents")
	}
	return s.paymentFallback.ExtractPayment(ctx, document, rawText)
}

// newClient dials the regional Document AI endpoint.
func (s *DocumentAIExtractor) newClient(ctx context.Context) (*documentai.DocumentProcessorClient, error) {
	var clientOptions []option.ClientOption
	if s.location != "us" {
		endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", s.location)
		clientOptions = append(clientOptions, option.WithEndpoint(endpoint))
	}
	if s.credentialsJSON != "" {
		clientOptions = append(clientOptions, option.WithCredentialsJSON([]byte(s.credentialsJSON)))
	}

	client, err := documentai.NewDocumentProcessorClient(ctx, clientOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to create document ai client for location %s: %w", s.location, err)
	}
	return client, nil
}

// processorName constructs the full processor resource name.
func (s *DocumentAIExtractor) processorName() string {
	return fmt.Sprintf("projects/%s/locations/%s/processors/%s", s.projectID, s.location, s.processorID)
}

// invoiceFromDocument maps invoice parser entities onto the domain invoice.
func (s *DocumentAIExtractor) invoiceFromDocument(document *entity.Document, doc *documentaipb.Document) *entity.ExtractedInvoice {
	invoice := entity.NewExtractedInvoice(document.BatchID, document.ID)

	var confidenceSum float64
	var confidenceCount int

	for _, docEntity := range doc.Entities {
		value := strings.TrimSpace(docEntity.MentionText)
		if docEntity.Confidence > 0 {
			confidenceSum += float64(docEntity.Confidence)
			confidenceCount++
		}

		switch docEntity.Type {
		case "invoice_id":
			invoice.InvoiceNumber = value
		case "supplier_name":
			invoice.SupplierName = value
		case "supplier_tax_id":
			invoice.SupplierICE = value
		case "receiver_name":
			invoice.ClientName = value
		case "receiver_tax_id":
			invoice.ClientICE = value
		case "invoice_date":
			invoice.IssueDate = extractEntityDate(docEntity)
		case "delivery_date":
			invoice.DeliveryDate = extractEntityDate(docEntity)
		case "net_amount":
			if amount, ok := extractEntityAmount(docEntity); ok {
				invoice.AmountHT = amount
			}
		case "total_tax_amount", "vat":
			if amount, ok := extractEntityAmount(docEntity); ok {
				invoice.VATAmount = amount
			}
		case "total_amount":
			if amount, ok := extractEntityAmount(docEntity); ok {
				invoice.AmountTTC = amount
			}
		case "currency":
			if value != "" {
				invoice.Currency = strings.ToUpper(value)
			}
		case "payment_terms":
			if days, ok := extractDelayDays(value); ok {
				invoice.ContractualDelayDays = &days
			}
		case "line_item":
			if line, ok := extractLineItem(docEntity); ok {
				invoice.LineItems = append(invoice.LineItems, line)
			}
		}
	}

	if confidenceCount > 0 {
		invoice.ExtractionConfidence = confidenceSum / float64(confidenceCount)
	}

	return invoice
}

// extractEntityDate reads the normalized date value, falling back to parsing
// the mention text.
func extractEntityDate(docEntity *documentaipb.Document_Entity) *time.Time {
	if docEntity.NormalizedValue != nil {
		if dateValue := docEntity.NormalizedValue.GetDateValue(); dateValue != nil && dateValue.Year > 0 {
			parsed := time.Date(int(dateValue.Year), time.Month(dateValue.Month), int(dateValue.Day), 0, 0, 0, 0, time.UTC)
			return &parsed
		}
	}

	dateStr := strings.TrimSpace(docEntity.MentionText)
	if dateStr == "" {
		return nil
	}
	formats := []string{"2006-01-02", "02/01/2006", "02-01-2006", "02.01.2006"}
	for _, format := range formats {
		if parsed, err := time.Parse(format, dateStr); err == nil {
			return &parsed
		}
	}
	return nil
}

// extractEntityAmount reads the normalized money value, falling back to
// parsing the mention text in French number format.
func extractEntityAmount(docEntity *documentaipb.Document_Entity) (decimal.Decimal, bool) {
	if docEntity.NormalizedValue != nil {
		if moneyValue := docEntity.NormalizedValue.GetMoneyValue(); moneyValue != nil {
			amount := decimal.NewFromInt(moneyValue.Units).Add(decimal.New(int64(moneyValue.Nanos), -9))
			return amount, true
		}
	}
	return parseFrenchAmount(docEntity.MentionText)
}

// parseFrenchAmount converts amounts written the Moroccan way ("6 300,00",
// "6.300,00 MAD") into a decimal.
func parseFrenchAmount(raw string) (decimal.Decimal, bool) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	cleaned = strings.ReplaceAll(cleaned, "MAD", "")
	cleaned = strings.ReplaceAll(cleaned, "DH", "")
	if cleaned == "" {
		return decimal.Decimal{}, false
	}

	if strings.Contains(cleaned, ",") {
		// Dots are thousands separators when a comma is present.
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.Replace(cleaned, ",", ".", 1)
	}

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return amount, true
}

// extractDelayDays reads the day count out of a payment terms mention.
func extractDelayDays(value string) (int, bool) {
	matches := delayDaysPattern.FindStringSubmatch(value)
	if len(matches) < 2 {
		matches = delayNetPattern.FindStringSubmatch(value)
	}
	if len(matches) < 2 {
		return 0, false
	}
	days, err := strconv.Atoi(matches[1])
	if err != nil || days <= 0 {
		return 0, false
	}
	return days, true
}

// extractLineItem assembles one invoice line from the entity's sub-properties.
func extractLineItem(docEntity *documentaipb.Document_Entity) (entity.InvoiceLineItem, bool) {
	var line entity.InvoiceLineItem
	var filled bool

	for _, prop := range docEntity.Properties {
		value := strings.TrimSpace(prop.MentionText)
		switch prop.Type {
		case "line_item/description":
			line.Description = value
			filled = true
		case "line_item/quantity":
			if quantity, ok := parseFrenchAmount(value); ok {
				line.Quantity = quantity
				filled = true
			}
		case "line_item/unit_price":
			if price, ok := extractEntityAmount(prop); ok {
				line.UnitPrice = price
				filled = true
			}
		case "line_item/amount":
			if amount, ok := extractEntityAmount(prop); ok {
				line.Total = amount
				filled = true
			}
		}
	}

	return line, filled
}

// looksLikeCreditNote checks the document head for a credit-note title.
func looksLikeCreditNote(rawText string) bool {
	head := rawText
	if len(head) > 300 {
		head = head[:300]
	}
	head = strings.ToUpper(head)
	return strings.Contains(head, "AVOIR") || strings.Contains(head, "NOTE DE CREDIT") || strings.Contains(head, "NOTE DE CRÉDIT")
}
