// Package adapters provides implementations for external service integrations.
package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/shopspring/decimal"
	"google.golang.org/api/option"

	"github.com/dgi-compliance/backend/internal/domain/entity"
)

// DefaultGeminiModel is used when no model name is configured.
const DefaultGeminiModel = "gemini-2.5-flash-lite"

// GeminiExtractor implements the adapter.ExtractionProvider using Google Gemini.
// It turns raw OCR text into structured invoices and payments without ever
// inferring values the text does not contain.
type GeminiExtractor struct {
	apiKey    string
	modelName string
}

// NewGeminiExtractor creates a new Gemini extraction service instance.
func NewGeminiExtractor(apiKey, modelName string) *GeminiExtractor {
	if modelName == "" {
		modelName = DefaultGeminiModel
	}
	return &GeminiExtractor{
		apiKey:    apiKey,
		modelName: modelName,
	}
}

// IsAvailable checks if the Gemini service is available and properly configured.
func (s *GeminiExtractor) IsAvailable() bool {
	return s.apiKey != ""
}

// ExtractInvoice parses invoice fields out of raw document text.
func (s *GeminiExtractor) ExtractInvoice(ctx context.Context, document *entity.Document, rawText string) (*entity.ExtractedInvoice, error) {
	if !s.IsAvailable() {
		return nil, fmt.Errorf("gemini service is not configured")
	}

	content, err := s.generate(ctx, s.buildInvoicePrompt(rawText))
	if err != nil {
		return nil, err
	}

	var parsed geminiInvoice
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w, content: %s", err, content)
	}

	invoice := entity.NewExtractedInvoice(document.BatchID, document.ID)
	if parsed.Supplier.Name != nil {
		invoice.SupplierName = strings.TrimSpace(*parsed.Supplier.Name)
	}
	if parsed.Supplier.ICE != nil {
		invoice.SupplierICE = strings.TrimSpace(*parsed.Supplier.ICE)
	}
	if parsed.Customer.Name != nil {
		invoice.ClientName = strings.TrimSpace(*parsed.Customer.Name)
	}
	if parsed.Customer.ICE != nil {
		invoice.ClientICE = strings.TrimSpace(*parsed.Customer.ICE)
	}
	if parsed.Invoice.Number != nil {
		invoice.InvoiceNumber = strings.TrimSpace(*parsed.Invoice.Number)
	}
	invoice.IssueDate = parseExtractedDate(parsed.Invoice.IssueDate)
	invoice.DeliveryDate = parseExtractedDate(parsed.Invoice.DeliveryDate)
	if parsed.Amounts.TotalHT != nil {
		invoice.AmountHT = *parsed.Amounts.TotalHT
	}
	if parsed.Amounts.TotalTVA != nil {
		invoice.VATAmount = *parsed.Amounts.TotalTVA
	}
	if parsed.Amounts.TotalTTC != nil {
		invoice.AmountTTC = *parsed.Amounts.TotalTTC
	}
	if parsed.Amounts.Currency != nil && *parsed.Amounts.Currency != "" {
		invoice.Currency = strings.ToUpper(strings.TrimSpace(*parsed.Amounts.Currency))
	}
	if parsed.IsCreditNote != nil {
		invoice.IsCreditNote = *parsed.IsCreditNote
	}
	if parsed.Confidence != nil {
		invoice.ExtractionConfidence = *parsed.Confidence
	}
	for _, item := range parsed.LineItems {
		line := entity.InvoiceLineItem{Description: strings.TrimSpace(item.Description)}
		if item.Quantity != nil {
			line.Quantity = *item.Quantity
		}
		if item.UnitPriceHT != nil {
			line.UnitPrice = *item.UnitPriceHT
		}
		if item.TotalHT != nil {
			line.Total = *item.TotalHT
		}
		invoice.LineItems = append(invoice.LineItems, line)
	}
	invoice.RecomputeMissingFields()

	return invoice, nil
}

// ExtractPayment parses payment fields out of raw document text.
func (s *GeminiExtractor) ExtractPayment(ctx context.Context, document *entity.Document, rawText string) (*entity.ExtractedPayment, error) {
	if !s.IsAvailable() {
		return nil, fmt.Errorf("gemini service is not configured")
	}

	content, err := s.generate(ctx, s.buildPaymentPrompt(rawText))
	if err != nil {
		return nil, err
	}

	var parsed geminiPayment
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w, content: %s", err, content)
	}

	payment := entity.NewExtractedPayment(document.BatchID, document.ID)
	if parsed.Payee.Name != nil {
		payment.BeneficiaryName = strings.TrimSpace(*parsed.Payee.Name)
	}
	if parsed.Payment.Reference != nil {
		payment.Reference = strings.TrimSpace(*parsed.Payment.Reference)
	}
	if parsed.Payment.Method != nil {
		payment.Method = paymentMethodFromString(*parsed.Payment.Method)
	}
	if parsed.Amount.Value != nil {
		payment.Amount = *parsed.Amount.Value
	}
	if parsed.Amount.Currency != nil && *parsed.Amount.Currency != "" {
		payment.Currency = strings.ToUpper(strings.TrimSpace(*parsed.Amount.Currency))
	}
	// The value date settles the debt; the operation date is when the bank
	// booked the movement. Prefer the former.
	payment.PaymentDate = parseExtractedDate(parsed.Dates.ValueDate)
	if payment.PaymentDate == nil {
		payment.PaymentDate = parseExtractedDate(parsed.Dates.OperationDate)
	}
	if parsed.Confidence != nil {
		payment.ExtractionConfidence = *parsed.Confidence
	}

	return payment, nil
}

// generate runs one prompt through the model and returns the cleaned text body.
func (s *GeminiExtractor) generate(ctx context.Context, prompt string) (string, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(s.apiKey))
	if err != nil {
		return "", fmt.Errorf("failed to create gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(s.modelName)
	model.SetTemperature(0.1)
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("empty response from gemini")
	}

	var textContent string
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			textContent = string(text)
			break
		}
	}
	if textContent == "" {
		return "", fmt.Errorf("no text content in response")
	}

	// Clean the response (remove markdown code blocks if present)
	textContent = strings.TrimPrefix(textContent, "```json")
	textContent = strings.TrimPrefix(textContent, "```")
	textContent = strings.TrimSuffix(textContent, "```")
	return strings.TrimSpace(textContent), nil
}

// buildInvoicePrompt creates the invoice extraction prompt.
func (s *GeminiExtractor) buildInvoicePrompt(rawText string) string {
	var sb strings.Builder

	sb.WriteString(`Vous etes un systeme d'extraction de documents financiers pour factures marocaines.

REGLES CRITIQUES:
- Extraire UNIQUEMENT les informations explicitement presentes dans le texte
- Ne JAMAIS deduire, calculer ou inventer des valeurs manquantes
- Pour les champs absents, retourner null
- Conserver les libelles et valeurs exactement tels qu'ecrits
- Les dates doivent etre au format YYYY-MM-DD
- Les montants doivent etre numeriques (convertir "6 300,00" en 6300.00)
- La devise est "MAD" uniquement si mentionnee explicitement, sinon null

TERMINOLOGIE DES FACTURES MAROCAINES:
- ICE = Identifiant Commun de l'Entreprise (15 chiffres)
- RC = Registre de Commerce
- HT = Hors Taxe
- TVA = Taxe sur la Valeur Ajoutee
- TTC = Toutes Taxes Comprises
- BL = Bon de Livraison
- Un document intitule "AVOIR" ou "NOTE DE CREDIT" est une note de credit (is_credit_note: true)

Repondez avec un objet JSON de cette forme exacte:
{
  "supplier": { "name": string | null, "ice": string | null, "rc": string | null },
  "customer": { "name": string | null, "ice": string | null },
  "invoice": { "number": string | null, "issue_date": "YYYY-MM-DD" | null, "delivery_date": "YYYY-MM-DD" | null, "due_date": "YYYY-MM-DD" | null },
  "amounts": { "total_ht": number | null, "total_tva": number | null, "total_ttc": number | null, "currency": "MAD" | null },
  "line_items": [ { "description": string, "quantity": number | null, "unit_price_ht": number | null, "total_ht": number | null } ],
  "is_credit_note": boolean,
  "confidence": 0.0-1.0
}

FORMAT DE REPONSE: Retournez uniquement l'objet JSON, sans texte additionnel.

TEXTE OCR DE LA FACTURE:
`)
	sb.WriteString(rawText)

	return sb.String()
}

// buildPaymentPrompt creates the payment extraction prompt.
func (s *GeminiExtractor) buildPaymentPrompt(rawText string) string {
	var sb strings.Builder

	sb.WriteString(`Vous etes un systeme d'extraction de documents financiers pour justificatifs de paiement marocains.

REGLES CRITIQUES:
- Extraire UNIQUEMENT les informations explicitement presentes dans le texte
- Ne JAMAIS deduire, calculer ou inventer des valeurs manquantes
- Pour les champs absents, retourner null
- Les dates doivent etre au format YYYY-MM-DD
- Les montants doivent etre numeriques

SPECIFICITES DES RELEVES BANCAIRES MAROCAINS:
- Chercher les lignes "VIR.EMIS WEB VERS" ou "VIREMENT" (virements sortants)
- Le nom du beneficiaire apparait APRES le mot "VERS"
- Le montant apparait dans la colonne DEBIT (argent sortant)
- Formats de date: "28 08 2025", "27/08/2025", "27/08/25" (annee 20XX)
- La date d'operation vient en premier, la date de valeur en second
- Si plusieurs paiements sortants existent, extraire le plus pertinent

REGLES DE CONVERSION DES MONTANTS:
- "6 300,00" devient 6300.00
- "6.300,00" devient 6300.00
- Supprimer les espaces, virgule decimale convertie en point

MODES DE PAIEMENT:
- bank_transfer: virement bancaire, VIR.WEB, VIR.EMIS, VIREMENT
- cheque: cheque
- cash: especes
- effet: effet de commerce, lettre de change
- unknown: si non precise

Repondez avec un objet JSON de cette forme exacte:
{
  "payee": { "name": string | null },
  "payment": { "method": "bank_transfer" | "cheque" | "cash" | "effet" | "unknown", "reference": string | null },
  "amount": { "value": number | null, "currency": "MAD" | null },
  "dates": { "operation_date": "YYYY-MM-DD" | null, "value_date": "YYYY-MM-DD" | null },
  "confidence": 0.0-1.0
}

FORMAT DE REPONSE: Retournez uniquement l'objet JSON, sans texte additionnel.

TEXTE OCR DU JUSTIFICATIF:
`)
	sb.WriteString(rawText)

	return sb.String()
}

// geminiInvoice represents the raw invoice response from Gemini.
type geminiInvoice struct {
	Supplier struct {
		Name *string `json:"name"`
		ICE  *string `json:"ice"`
		RC   *string `json:"rc"`
	} `json:"supplier"`
	Customer struct {
		Name *string `json:"name"`
		ICE  *string `json:"ice"`
	} `json:"customer"`
	Invoice struct {
		Number       *string `json:"number"`
		IssueDate    *string `json:"issue_date"`
		DeliveryDate *string `json:"delivery_date"`
		DueDate      *string `json:"due_date"`
	} `json:"invoice"`
	Amounts struct {
		TotalHT  *decimal.Decimal `json:"total_ht"`
		TotalTVA *decimal.Decimal `json:"total_tva"`
		TotalTTC *decimal.Decimal `json:"total_ttc"`
		Currency *string          `json:"currency"`
	} `json:"amounts"`
	LineItems []struct {
		Description string           `json:"description"`
		Quantity    *decimal.Decimal `json:"quantity"`
		UnitPriceHT *decimal.Decimal `json:"unit_price_ht"`
		TotalHT     *decimal.Decimal `json:"total_ht"`
	} `json:"line_items"`
	IsCreditNote *bool    `json:"is_credit_note"`
	Confidence   *float64 `json:"confidence"`
}

// geminiPayment represents the raw payment response from Gemini.
type geminiPayment struct {
	Payee struct {
		Name *string `json:"name"`
	} `json:"payee"`
	Payment struct {
		Method    *string `json:"method"`
		Reference *string `json:"reference"`
	} `json:"payment"`
	Amount struct {
		Value    *decimal.Decimal `json:"value"`
		Currency *string          `json:"currency"`
	} `json:"amount"`
	Dates struct {
		OperationDate *string `json:"operation_date"`
		ValueDate     *string `json:"value_date"`
	} `json:"dates"`
	Confidence *float64 `json:"confidence"`
}

// parseExtractedDate parses a YYYY-MM-DD date string, nil when absent or malformed.
func parseExtractedDate(value *string) *time.Time {
	if value == nil || *value == "" {
		return nil
	}
	parsed, err := time.Parse("2006-01-02", strings.TrimSpace(*value))
	if err != nil {
		return nil
	}
	return &parsed
}

// paymentMethodFromString maps the extraction enum onto the domain method set.
func paymentMethodFromString(method string) entity.PaymentMethod {
	switch strings.ToLower(strings.TrimSpace(method)) {
	case "bank_transfer", "virement":
		return entity.PaymentMethodTransfer
	case "cheque":
		return entity.PaymentMethodCheck
	case "cash", "especes":
		return entity.PaymentMethodCash
	case "effet":
		return entity.PaymentMethodEffet
	default:
		return entity.PaymentMethodUnknown
	}
}
