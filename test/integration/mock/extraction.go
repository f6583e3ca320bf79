package mock

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dgi-compliance/backend/internal/application/adapter"
	"github.com/dgi-compliance/backend/internal/domain/entity"
)

// OCRStub returns the document bytes verbatim as recognized text, so test
// scenarios control the pipeline input by uploading plain-text documents.
type OCRStub struct{}

func NewOCRStub() *OCRStub {
	return &OCRStub{}
}

func (s *OCRStub) ExtractText(_ context.Context, content []byte, _ string) (*adapter.OCRResult, error) {
	return &adapter.OCRResult{
		Text:       string(content),
		Confidence: 0.99,
		PageCount:  1,
	}, nil
}

func (s *OCRStub) IsAvailable() bool {
	return true
}

// ExtractionStub parses the "Label: value" lines scenarios put into their
// uploaded documents. Lines with unknown labels are ignored, so documents
// can carry filler text around the fields.
type ExtractionStub struct{}

func NewExtractionStub() *ExtractionStub {
	return &ExtractionStub{}
}

func (s *ExtractionStub) ExtractInvoice(_ context.Context, document *entity.Document, rawText string) (*entity.ExtractedInvoice, error) {
	invoice := entity.NewExtractedInvoice(document.BatchID, document.ID)
	invoice.ExtractionConfidence = 0.95

	for label, value := range parseStubFields(rawText) {
		switch label {
		case "NUMERO":
			invoice.InvoiceNumber = value
		case "FOURNISSEUR":
			invoice.SupplierName = value
		case "ICE":
			invoice.SupplierICE = value
		case "CLIENT":
			invoice.ClientName = value
		case "DATE_FACTURE":
			invoice.IssueDate = parseStubDate(value)
		case "DATE_LIVRAISON":
			invoice.DeliveryDate = parseStubDate(value)
		case "MONTANT_HT":
			invoice.AmountHT = parseStubAmount(value)
		case "TVA":
			invoice.VATAmount = parseStubAmount(value)
		case "MONTANT_TTC":
			invoice.AmountTTC = parseStubAmount(value)
		case "DELAI_CONTRACTUEL":
			if days, err := strconv.Atoi(value); err == nil {
				invoice.ContractualDelayDays = &days
			}
		case "AVOIR":
			invoice.IsCreditNote = strings.EqualFold(value, "oui")
		case "LITIGE":
			invoice.IsDisputed = strings.EqualFold(value, "oui")
		case "CONFIANCE":
			if confidence, err := strconv.ParseFloat(value, 64); err == nil {
				invoice.ExtractionConfidence = confidence
			}
		}
	}

	invoice.RecomputeMissingFields()
	return invoice, nil
}

func (s *ExtractionStub) ExtractPayment(_ context.Context, document *entity.Document, rawText string) (*entity.ExtractedPayment, error) {
	payment := entity.NewExtractedPayment(document.BatchID, document.ID)
	payment.ExtractionConfidence = 0.95

	for label, value := range parseStubFields(rawText) {
		switch label {
		case "REFERENCE":
			payment.Reference = value
		case "BENEFICIAIRE":
			payment.BeneficiaryName = value
		case "DATE_PAIEMENT":
			payment.PaymentDate = parseStubDate(value)
		case "MONTANT":
			payment.Amount = parseStubAmount(value)
		case "MODE":
			payment.Method = entity.PaymentMethod(value)
		}
	}

	return payment, nil
}

func (s *ExtractionStub) IsAvailable() bool {
	return true
}

func parseStubFields(rawText string) map[string]string {
	fields := make(map[string]string)
	for _, line := range strings.Split(rawText, "\n") {
		label, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		fields[strings.ToUpper(strings.TrimSpace(label))] = strings.TrimSpace(value)
	}
	return fields
}

func parseStubDate(value string) *time.Time {
	date, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil
	}
	return &date
}

func parseStubAmount(value string) decimal.Decimal {
	amount, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero
	}
	return amount
}
