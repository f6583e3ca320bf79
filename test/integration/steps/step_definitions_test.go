package steps

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"os"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cucumber/godog"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dgi-compliance/backend/internal/application/adapter"
	"github.com/dgi-compliance/backend/internal/application/usecase/batch"
	"github.com/dgi-compliance/backend/internal/application/usecase/declaration"
	"github.com/dgi-compliance/backend/internal/application/usecase/matching"
	"github.com/dgi-compliance/backend/internal/application/usecase/rules"
	"github.com/dgi-compliance/backend/internal/application/usecase/workflow"
	domaindeclaration "github.com/dgi-compliance/backend/internal/domain/declaration"
	"github.com/dgi-compliance/backend/internal/domain/entity"
	domainmatching "github.com/dgi-compliance/backend/internal/domain/matching"
	domainrules "github.com/dgi-compliance/backend/internal/domain/rules"
	"github.com/dgi-compliance/backend/internal/domain/valueobject"
	"github.com/dgi-compliance/backend/internal/infra/server/router"
	"github.com/dgi-compliance/backend/internal/integration/adapters"
	"github.com/dgi-compliance/backend/internal/integration/entrypoint/controller"
	"github.com/dgi-compliance/backend/internal/integration/entrypoint/middleware"
	"github.com/dgi-compliance/backend/internal/integration/notification"
	"github.com/dgi-compliance/backend/internal/integration/persistence"
	"github.com/dgi-compliance/backend/internal/integration/persistence/model"
	"github.com/dgi-compliance/backend/test/integration/mock"
)

const testJWTSecret = "test-jwt-secret-key-for-testing-purposes"

// Fixture identities. The supplier ICE differs from the declaring company
// ICE so matching never confuses the two parties.
const (
	testCompanyICE  = "001528246000078"
	testSupplierICE = "002657893000045"
	testSupplier    = "ATLAS DISTRIBUTION SARL"
)

var tags string

func init() {
	flag.StringVar(&tags, "scenarios", "", "tags to run")
}

func TestFeatures(t *testing.T) {
	flag.Parse()

	suite := godog.TestSuite{
		ScenarioInitializer: func(s *godog.ScenarioContext) {
			InitializeScenario(s)
		},
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"../features"},
			Tags:     tags,
			Strict:   true,
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}

type testContext struct {
	uri        string
	headers    map[string]string
	client     *http.Client
	response   *response
	db         *mock.Db
	serverPort int

	accessToken       string
	currentUserID     uuid.UUID
	currentBatchID    uuid.UUID
	currentDocumentID uuid.UUID
	currentInvoiceID  uuid.UUID
}

type response struct {
	status int
	body   any
	err    error
}

var serverInit sync.Once
var testDB *mock.Db
var testServerPort int
var portInit sync.Once

func initializePort() {
	portInit.Do(func() {
		testServerPort = findAvailablePort()
	})
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	initializePort()

	test := &testContext{
		uri:        fmt.Sprintf("http://localhost:%d", testServerPort),
		client:     &http.Client{Timeout: 10 * time.Second},
		serverPort: testServerPort,
		db: mock.NewDb("dgi_compliance", map[string]any{
			"declaration_batches": &model.BatchModel{},
			"batch_documents":     &model.DocumentModel{},
			"extracted_invoices":  &model.InvoiceModel{},
			"extracted_payments":  &model.PaymentModel{},
			"batch_results":       &model.BatchResultModel{},
			"batch_audit_log":     &model.AuditEntryModel{},
			"notification_queue":  &model.NotificationQueueModel{},
		}),
	}

	testDB = test.db

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		test.before()
		return ctx, nil
	})

	ctx.After(func(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		return nil, nil
	})

	// Background steps
	ctx.Step(`^the API server is running$`, test.theAPIServerIsRunning)

	// Authentication setup steps
	ctx.Step(`^a user is authenticated$`, test.aUserIsAuthenticated)
	ctx.Step(`^a user is authenticated with email "([^"]*)"$`, test.aUserIsAuthenticatedWithEmail)
	ctx.Step(`^another user is authenticated$`, test.anotherUserIsAuthenticated)

	// Batch setup steps
	ctx.Step(`^a batch exists with status "([^"]*)"$`, test.aBatchExistsWithStatus)
	ctx.Step(`^the batch has (\d+) matched invoices? paid on "([^"]*)"$`, test.theBatchHasMatchedInvoicesPaidOn)
	ctx.Step(`^the batch has an invoice without payment$`, test.theBatchHasAnInvoiceWithoutPayment)
	ctx.Step(`^the batch results are computed as of "([^"]*)"$`, test.theBatchResultsAreComputedAsOf)

	// Document upload steps
	ctx.Step(`^I upload (\d+) invoice documents? to the batch$`, test.iUploadInvoiceDocumentsToTheBatch)
	ctx.Step(`^I upload (\d+) payment documents? to the batch$`, test.iUploadPaymentDocumentsToTheBatch)
	ctx.Step(`^I upload an invoice document without delivery date to the batch$`, test.iUploadAnInvoiceDocumentWithoutDeliveryDate)
	ctx.Step(`^I upload a file of type "([^"]*)" to the batch$`, test.iUploadAFileOfTypeToTheBatch)

	// Header steps
	ctx.Step(`^the header is empty$`, test.theHeaderIsEmpty)
	ctx.Step(`^the header contains the key "([^"]*)" with "([^"]*)"$`, test.theHeaderContainsTheKeyWith)

	// Request steps
	ctx.Step(`^I send a "([^"]*)" request to "([^"]*)"$`, test.iSendARequestTo)
	ctx.Step(`^I send a "([^"]*)" request to "([^"]*)" with body:$`, test.iSendARequestToWithBody)

	// Workflow steps
	ctx.Step(`^the batch should reach status "([^"]*)" within (\d+) seconds?$`, test.theBatchShouldReachStatusWithin)

	// Response assertion steps
	ctx.Step(`^the response status should be (\d+)$`, test.theResponseStatusShouldBe)
	ctx.Step(`^the response should be JSON$`, test.theResponseShouldBeJSON)
	ctx.Step(`^the response should contain "([^"]*)"$`, test.theResponseShouldContain)
	ctx.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, test.theResponseFieldShouldBe)
	ctx.Step(`^the response field "([^"]*)" should exist$`, test.theResponseFieldShouldExist)
	ctx.Step(`^the response body should contain "([^"]*)"$`, test.theResponseBodyShouldContain)

	// Database assertion steps
	ctx.Step(`^the db should contain (\d+) objects in the "([^"]*)" table$`, test.theDbShouldContainObjectsInTheTable)
	ctx.Step(`^the db should contain (\d+) objects in "([^"]*)" with the values$`, test.theDbShouldContainObjectsInWithTheValues)
}

func findAvailablePort() int {
	listener, err := net.Listen("tcp", ":0")
	if err != nil {
		panic(err)
	}
	defer listener.Close()
	return listener.Addr().(*net.TCPAddr).Port
}

func (t *testContext) before() {
	t.headers = make(map[string]string)
	t.accessToken = ""
	t.currentUserID = uuid.Nil
	t.currentBatchID = uuid.Nil
	t.currentDocumentID = uuid.Nil
	t.currentInvoiceID = uuid.Nil

	if t.db != nil {
		_ = t.db.ClearDB()
	}
}

func (t *testContext) startServer() {
	serverInit.Do(func() {
		go func() {
			gin.SetMode(gin.TestMode)

			// Create repositories
			batchRepo := persistence.NewBatchRepository(testDB.DbConn)
			documentRepo := persistence.NewDocumentRepository(testDB.DbConn)
			invoiceRepo := persistence.NewInvoiceRepository(testDB.DbConn)
			paymentRepo := persistence.NewPaymentRepository(testDB.DbConn)
			resultRepo := persistence.NewResultRepository(testDB.DbConn)
			auditRepo := persistence.NewAuditRepository(testDB.DbConn)
			notificationQueueRepo := persistence.NewNotificationQueueRepository(testDB.DbConn)

			// Create domain engines
			rulesEngine, err := domainrules.NewEngine(valueobject.DefaultRulesConfig())
			if err != nil {
				panic(err)
			}
			matchingEngine, err := domainmatching.NewEngine(valueobject.DefaultMatchingConfig())
			if err != nil {
				panic(err)
			}
			formatter := domaindeclaration.NewFormatter()
			exporter := domaindeclaration.NewExporter()

			// Create adapters/services. OCR and extraction run against
			// stubs that parse the plain-text documents scenarios upload.
			storageDir, err := os.MkdirTemp("", "dgi-documents-")
			if err != nil {
				panic(err)
			}
			fileStore, err := adapters.NewLocalFileStore(storageDir)
			if err != nil {
				panic(err)
			}
			ocrService := mock.NewOCRStub()
			extractor := mock.NewExtractionStub()
			tokenService := adapters.NewTokenService(testJWTSecret)
			tracker := adapters.NewRedisProcessingTracker(mock.NewRedis(), 30*time.Minute)
			notificationService := notification.NewService(notificationQueueRepo, "http://localhost:3000")

			// Create batch use cases
			createBatchUseCase := batch.NewCreateBatchUseCase(batchRepo)
			getBatchUseCase := batch.NewGetBatchUseCase(batchRepo, documentRepo, resultRepo)
			listBatchesUseCase := batch.NewListBatchesUseCase(batchRepo)
			deleteBatchUseCase := batch.NewDeleteBatchUseCase(batchRepo, documentRepo, fileStore)
			uploadDocumentsUseCase := batch.NewUploadDocumentsUseCase(batchRepo, documentRepo, auditRepo, fileStore)
			getResultsUseCase := batch.NewGetResultsUseCase(batchRepo, invoiceRepo, resultRepo)
			getAuditLogUseCase := batch.NewGetAuditLogUseCase(batchRepo, auditRepo)
			getDocumentUseCase := batch.NewGetDocumentUseCase(batchRepo, documentRepo, fileStore)

			// Create workflow use cases
			processBatchUseCase := workflow.NewProcessBatchUseCase(
				batchRepo,
				documentRepo,
				invoiceRepo,
				paymentRepo,
				resultRepo,
				auditRepo,
				ocrService,
				extractor,
				fileStore,
				matchingEngine,
				rulesEngine,
				tracker,
				notificationService,
			)
			getStatusUseCase := workflow.NewGetStatusUseCase(batchRepo, tracker)
			applyValidationUseCase := workflow.NewApplyValidationUseCase(
				batchRepo,
				invoiceRepo,
				paymentRepo,
				resultRepo,
				auditRepo,
				matchingEngine,
				rulesEngine,
				tracker,
			)
			recalculateUseCase := workflow.NewRecalculateUseCase(
				batchRepo,
				invoiceRepo,
				paymentRepo,
				resultRepo,
				auditRepo,
				matchingEngine,
				rulesEngine,
				tracker,
			)
			validateBatchUseCase := workflow.NewValidateBatchUseCase(batchRepo, auditRepo, tracker)

			// Create declaration use cases
			getDeclarationUseCase := declaration.NewGetDeclarationUseCase(batchRepo, invoiceRepo, resultRepo, formatter)
			exportCSVUseCase := declaration.NewExportCSVUseCase(
				batchRepo,
				invoiceRepo,
				resultRepo,
				auditRepo,
				formatter,
				exporter,
				notificationService,
			)
			alertsReportUseCase := declaration.NewGetAlertsReportUseCase(batchRepo, invoiceRepo, resultRepo, formatter, exporter)

			// Create rules and matching use cases
			computeUseCase := rules.NewComputeUseCase(rulesEngine)
			computeBatchUseCase := rules.NewComputeBatchUseCase(rulesEngine)
			runMatchingUseCase := matching.NewRunMatchingUseCase(matchingEngine)

			// Create controllers
			healthController := controller.NewHealthController(func() bool {
				return testDB != nil && testDB.DbConn != nil
			})

			batchController := controller.NewBatchController(
				createBatchUseCase,
				getBatchUseCase,
				listBatchesUseCase,
				deleteBatchUseCase,
				uploadDocumentsUseCase,
				getResultsUseCase,
				getAuditLogUseCase,
				getDocumentUseCase,
			)

			workflowController := controller.NewWorkflowController(
				processBatchUseCase,
				getStatusUseCase,
				applyValidationUseCase,
				recalculateUseCase,
				validateBatchUseCase,
			)

			declarationController := controller.NewDeclarationController(
				exportCSVUseCase,
				getDeclarationUseCase,
				alertsReportUseCase,
			)

			rulesController := controller.NewRulesController(computeUseCase, computeBatchUseCase)

			matchingController := controller.NewMatchingController(runMatchingUseCase)

			// Create middleware
			apiRateLimiter := middleware.NewRateLimiterWithConfig(1000, 1*time.Minute)
			authMiddleware := middleware.NewAuthMiddleware(tokenService)

			r := router.NewRouter(healthController, batchController, workflowController, declarationController, rulesController, matchingController, apiRateLimiter, authMiddleware)
			engine := r.Setup("test")

			addr := fmt.Sprintf(":%d", testServerPort)
			server := &http.Server{
				Addr:    addr,
				Handler: engine,
			}

			_ = server.ListenAndServe()
		}()
	})

	// Wait for server to be ready
	for i := 0; i < 50; i++ {
		resp, err := http.Get(t.uri + "/health")
		if err == nil && resp.StatusCode == http.StatusOK {
			resp.Body.Close()
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
}

func (t *testContext) theAPIServerIsRunning() error {
	t.startServer()
	return nil
}

func (t *testContext) aUserIsAuthenticated() error {
	return t.aUserIsAuthenticatedWithEmail("declarant@example.ma")
}

func (t *testContext) aUserIsAuthenticatedWithEmail(email string) error {
	t.currentUserID = uuid.New()

	token, err := mintAccessToken(t.currentUserID, email)
	if err != nil {
		return err
	}
	t.accessToken = token
	return nil
}

// anotherUserIsAuthenticated switches the caller identity while keeping the
// previously seeded batch, for cross-user access scenarios.
func (t *testContext) anotherUserIsAuthenticated() error {
	otherID := uuid.New()

	token, err := mintAccessToken(otherID, "intrus@example.ma")
	if err != nil {
		return err
	}
	t.accessToken = token
	return nil
}

func mintAccessToken(userID uuid.UUID, email string) (string, error) {
	now := time.Now().UTC()

	claims := jwt.MapClaims{
		"user_id":    userID.String(),
		"email":      email,
		"token_type": "access",
		"exp":        jwt.NewNumericDate(now.Add(15 * time.Minute)),
		"iat":        jwt.NewNumericDate(now),
		"nbf":        jwt.NewNumericDate(now),
		"iss":        "dgi-compliance",
		"sub":        userID.String(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString([]byte(testJWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to generate access token: %w", err)
	}
	return signed, nil
}

func (t *testContext) aBatchExistsWithStatus(status string) error {
	parsed, ok := entity.ParseBatchStatus(status)
	if !ok {
		return fmt.Errorf("unknown batch status %q", status)
	}

	b := entity.NewBatch(t.currentUserID, "Déclaration 2024", "MAGHREB NEGOCE SA", testCompanyICE, "RC45872", 2024, nil)
	b.Status = parsed
	t.currentBatchID = b.ID

	batchRepo := persistence.NewBatchRepository(t.db.DbConn)
	return batchRepo.Create(context.Background(), b)
}

// theBatchHasMatchedInvoicesPaidOn seeds invoice and payment pairs with
// distinct amounts and payment references carrying the invoice number, so
// matching resolves each pair unambiguously.
func (t *testContext) theBatchHasMatchedInvoicesPaidOn(count int, paidOn string) error {
	paymentDate, err := time.Parse("2006-01-02", paidOn)
	if err != nil {
		return fmt.Errorf("invalid payment date %q: %w", paidOn, err)
	}

	invoiceRepo := persistence.NewInvoiceRepository(t.db.DbConn)
	paymentRepo := persistence.NewPaymentRepository(t.db.DbConn)
	ctx := context.Background()

	for i := 0; i < count; i++ {
		invoice := t.seedInvoice(i)
		if err := invoiceRepo.Create(ctx, invoice); err != nil {
			return err
		}
		if i == 0 {
			t.currentInvoiceID = invoice.ID
		}

		payment := entity.NewExtractedPayment(t.currentBatchID, uuid.New())
		payment.Reference = fmt.Sprintf("VIR %s", invoice.InvoiceNumber)
		payment.BeneficiaryName = testSupplier
		payment.PaymentDate = &paymentDate
		payment.Amount = invoice.AmountTTC
		payment.Method = entity.PaymentMethodTransfer
		payment.ExtractionConfidence = 0.95
		if err := paymentRepo.Create(ctx, payment); err != nil {
			return err
		}
	}

	return nil
}

func (t *testContext) theBatchHasAnInvoiceWithoutPayment() error {
	invoiceRepo := persistence.NewInvoiceRepository(t.db.DbConn)

	invoice := t.seedInvoice(0)
	if err := invoiceRepo.Create(context.Background(), invoice); err != nil {
		return err
	}
	t.currentInvoiceID = invoice.ID
	return nil
}

func (t *testContext) seedInvoice(n int) *entity.ExtractedInvoice {
	issueDate := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	deliveryDate := time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC)

	invoice := entity.NewExtractedInvoice(t.currentBatchID, uuid.New())
	invoice.InvoiceNumber = fmt.Sprintf("FAC-2024-%03d", n+1)
	invoice.SupplierName = testSupplier
	invoice.SupplierICE = testSupplierICE
	invoice.IssueDate = &issueDate
	invoice.DeliveryDate = &deliveryDate
	invoice.AmountHT = decimal.NewFromInt(int64(10000 + 500*n))
	invoice.VATAmount = decimal.NewFromInt(int64(2000 + 100*n))
	invoice.AmountTTC = decimal.NewFromInt(int64(12000 + 600*n))
	invoice.ExtractionConfidence = 0.95
	invoice.RecomputeMissingFields()
	return invoice
}

// theBatchResultsAreComputedAsOf runs matching and the legal computation
// over the seeded invoices and stores the outcome, the way a finished
// processing run leaves the batch.
func (t *testContext) theBatchResultsAreComputedAsOf(asOf string) error {
	asOfDate, err := time.Parse("2006-01-02", asOf)
	if err != nil {
		return fmt.Errorf("invalid as-of date %q: %w", asOf, err)
	}

	ctx := context.Background()
	batchRepo := persistence.NewBatchRepository(t.db.DbConn)
	invoiceRepo := persistence.NewInvoiceRepository(t.db.DbConn)
	paymentRepo := persistence.NewPaymentRepository(t.db.DbConn)
	resultRepo := persistence.NewResultRepository(t.db.DbConn)

	invoices, err := invoiceRepo.FindByBatch(ctx, t.currentBatchID)
	if err != nil {
		return err
	}
	payments, err := paymentRepo.FindByBatch(ctx, t.currentBatchID)
	if err != nil {
		return err
	}

	matchingEngine, err := domainmatching.NewEngine(valueobject.DefaultMatchingConfig())
	if err != nil {
		return err
	}
	rulesEngine, err := domainrules.NewEngine(valueobject.DefaultRulesConfig())
	if err != nil {
		return err
	}

	matchingResults := matchingEngine.MatchBatch(invoices, payments)
	legalResults, err := rulesEngine.ComputeBatch(domainrules.BatchComputeInput{
		Invoices: invoices,
		Matching: matchingResults,
		AsOf:     asOfDate,
	})
	if err != nil {
		return err
	}

	results := make([]adapter.InvoiceResult, len(invoices))
	for i, invoice := range invoices {
		results[i] = adapter.InvoiceResult{
			InvoiceID: invoice.ID,
			Matching:  matchingResults[i],
			Legal:     legalResults[i],
		}
	}
	if err := resultRepo.ReplaceForBatch(ctx, t.currentBatchID, results); err != nil {
		return err
	}

	b, err := batchRepo.FindByID(ctx, t.currentBatchID)
	if err != nil {
		return err
	}
	b.AsOfDate = &asOfDate
	b.InvoiceCount = len(invoices)
	b.PaymentCount = len(payments)
	return batchRepo.Update(ctx, b)
}

type uploadPart struct {
	name        string
	contentType string
	content     []byte
}

func (t *testContext) iUploadInvoiceDocumentsToTheBatch(count int) error {
	parts := make([]uploadPart, 0, count)
	for i := 0; i < count; i++ {
		parts = append(parts, uploadPart{
			name:        fmt.Sprintf("facture-%03d.pdf", i+1),
			contentType: "application/pdf",
			content:     invoiceDocument(i, true),
		})
	}
	return t.uploadDocuments("invoices", parts)
}

func (t *testContext) iUploadPaymentDocumentsToTheBatch(count int) error {
	parts := make([]uploadPart, 0, count)
	for i := 0; i < count; i++ {
		parts = append(parts, uploadPart{
			name:        fmt.Sprintf("virement-%03d.pdf", i+1),
			contentType: "application/pdf",
			content:     paymentDocument(i),
		})
	}
	return t.uploadDocuments("payments", parts)
}

func (t *testContext) iUploadAnInvoiceDocumentWithoutDeliveryDate() error {
	return t.uploadDocuments("invoices", []uploadPart{{
		name:        "facture-sans-livraison.pdf",
		contentType: "application/pdf",
		content:     invoiceDocument(0, false),
	}})
}

func (t *testContext) iUploadAFileOfTypeToTheBatch(contentType string) error {
	return t.uploadDocuments("invoices", []uploadPart{{
		name:        "document.bin",
		contentType: contentType,
		content:     []byte("contenu"),
	}})
}

// invoiceDocument renders the plain-text invoice the extraction stub parses.
// Amounts vary per index so every invoice has a unique TTC.
func invoiceDocument(n int, withDeliveryDate bool) []byte {
	var b strings.Builder
	b.WriteString("FACTURE\n")
	fmt.Fprintf(&b, "Numero: FAC-2024-%03d\n", n+1)
	fmt.Fprintf(&b, "Fournisseur: %s\n", testSupplier)
	fmt.Fprintf(&b, "ICE: %s\n", testSupplierICE)
	b.WriteString("Date_Facture: 2024-01-10\n")
	if withDeliveryDate {
		b.WriteString("Date_Livraison: 2024-01-12\n")
	}
	fmt.Fprintf(&b, "Montant_HT: %d.00\n", 10000+500*n)
	fmt.Fprintf(&b, "TVA: %d.00\n", 2000+100*n)
	fmt.Fprintf(&b, "Montant_TTC: %d.00\n", 12000+600*n)
	return []byte(b.String())
}

// paymentDocument renders the payment matching invoiceDocument(n): same
// amount, the invoice number in the reference, paid well before the 60-day
// due date.
func paymentDocument(n int) []byte {
	var b strings.Builder
	b.WriteString("AVIS DE VIREMENT\n")
	fmt.Fprintf(&b, "Reference: VIR FAC-2024-%03d\n", n+1)
	fmt.Fprintf(&b, "Beneficiaire: %s\n", testSupplier)
	b.WriteString("Date_Paiement: 2024-02-20\n")
	fmt.Fprintf(&b, "Montant: %d.00\n", 12000+600*n)
	b.WriteString("Mode: virement\n")
	return []byte(b.String())
}

func (t *testContext) uploadDocuments(segment string, parts []uploadPart) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for _, part := range parts {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename="%s"`, part.name))
		header.Set("Content-Type", part.contentType)
		formPart, err := writer.CreatePart(header)
		if err != nil {
			return err
		}
		if _, err := formPart.Write(part.content); err != nil {
			return err
		}
	}
	if err := writer.Close(); err != nil {
		return err
	}

	url := fmt.Sprintf("%s/v1/batches/%s/upload/%s", t.uri, t.currentBatchID, segment)
	req, err := http.NewRequest(http.MethodPost, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if t.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+t.accessToken)
	}

	return t.do(req)
}

func (t *testContext) theHeaderIsEmpty() error {
	t.headers = make(map[string]string)
	t.accessToken = "" // Clear access token to simulate unauthenticated request
	return nil
}

func (t *testContext) theHeaderContainsTheKeyWith(key, value string) error {
	t.headers[key] = value
	return nil
}

func (t *testContext) iSendARequestTo(method, path string) error {
	// Replace placeholders in path
	path = t.replaceTokenPlaceholders(path)
	return t.executeRequest(method, path, nil)
}

func (t *testContext) iSendARequestToWithBody(method, path string, body *godog.DocString) error {
	// Replace placeholders in path
	path = t.replaceTokenPlaceholders(path)

	var payload []byte
	if body != nil && body.Content != "" {
		content := t.replaceTokenPlaceholders(body.Content)
		payload = []byte(content)
	}
	return t.executeRequest(method, path, payload)
}

func (t *testContext) replaceTokenPlaceholders(content string) string {
	content = strings.ReplaceAll(content, "{{access_token}}", t.accessToken)
	content = strings.ReplaceAll(content, "{{user_id}}", t.currentUserID.String())
	content = strings.ReplaceAll(content, "{{batch_id}}", t.currentBatchID.String())
	content = strings.ReplaceAll(content, "{{document_id}}", t.currentDocumentID.String())
	content = strings.ReplaceAll(content, "{{invoice_id}}", t.currentInvoiceID.String())
	content = strings.ReplaceAll(content, "{{supplier_ice}}", testSupplierICE)
	return content
}

func (t *testContext) executeRequest(method, path string, payload []byte) error {
	var req *http.Request
	var err error

	url := t.uri + path

	if payload != nil {
		req, err = http.NewRequest(method, url, bytes.NewReader(payload))
	} else {
		req, err = http.NewRequest(method, url, nil)
	}
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")

	if t.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+t.accessToken)
	}

	for key, value := range t.headers {
		req.Header.Set(key, value)
	}

	return t.do(req)
}

func (t *testContext) do(req *http.Request) error {
	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	t.response = &response{
		status: resp.StatusCode,
	}

	var responseBody map[string]any
	if err := json.Unmarshal(bodyBytes, &responseBody); err != nil {
		t.response.body = string(bodyBytes)
	} else {
		t.response.body = responseBody
		t.captureIdentifiers(responseBody)
	}

	return nil
}

// captureIdentifiers remembers the ids of created resources so later steps
// can reference them through placeholders.
func (t *testContext) captureIdentifiers(body map[string]any) {
	if idStr, ok := body["id"].(string); ok {
		if _, hasYear := body["fiscal_year"]; hasYear {
			if id, err := uuid.Parse(idStr); err == nil {
				t.currentBatchID = id
			}
		}
	}

	if batchBody, ok := body["batch"].(map[string]any); ok {
		if idStr, ok := batchBody["id"].(string); ok {
			if id, err := uuid.Parse(idStr); err == nil {
				t.currentBatchID = id
			}
		}
	}

	if documents, ok := body["documents"].([]any); ok && len(documents) > 0 {
		if document, ok := documents[0].(map[string]any); ok {
			if idStr, ok := document["id"].(string); ok {
				if id, err := uuid.Parse(idStr); err == nil {
					t.currentDocumentID = id
				}
			}
		}
	}

	if results, ok := body["results"].([]any); ok && len(results) > 0 {
		if result, ok := results[0].(map[string]any); ok {
			if invoiceBody, ok := result["invoice"].(map[string]any); ok {
				if idStr, ok := invoiceBody["id"].(string); ok {
					if id, err := uuid.Parse(idStr); err == nil {
						t.currentInvoiceID = id
					}
				}
			} else if idStr, ok := result["invoice_id"].(string); ok {
				if id, err := uuid.Parse(idStr); err == nil {
					t.currentInvoiceID = id
				}
			}
		}
	}
}

// theBatchShouldReachStatusWithin polls the status endpoint until the batch
// reaches the expected status. A batch that fails while waiting aborts the
// scenario immediately instead of burning the full timeout.
func (t *testContext) theBatchShouldReachStatusWithin(status string, seconds int) error {
	deadline := time.Now().Add(time.Duration(seconds) * time.Second)
	lastStatus := ""

	for {
		if err := t.executeRequest(http.MethodGet, fmt.Sprintf("/v1/batches/%s/status", t.currentBatchID), nil); err != nil {
			return err
		}
		if current, ok := getFieldValue(t.response.body, "batch.status").(string); ok {
			lastStatus = current
			if current == status {
				return nil
			}
			if current == string(entity.BatchStatusFailed) && status != string(entity.BatchStatusFailed) {
				return fmt.Errorf("batch failed while waiting for status %q: %v", status, t.response.body)
			}
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("batch did not reach status %q within %ds, last status %q", status, seconds, lastStatus)
		}
		time.Sleep(100 * time.Millisecond)
	}
}

func (t *testContext) theResponseStatusShouldBe(expectedStatus int) error {
	if t.response == nil {
		return errors.New("no response received")
	}
	if t.response.status != expectedStatus {
		return fmt.Errorf("expected status %d, got %d (body: %v)", expectedStatus, t.response.status, t.response.body)
	}
	return nil
}

func (t *testContext) theResponseShouldBeJSON() error {
	if t.response == nil {
		return errors.New("no response received")
	}
	if _, ok := t.response.body.(map[string]any); !ok {
		return fmt.Errorf("response is not JSON: %v", t.response.body)
	}
	return nil
}

func (t *testContext) theResponseShouldContain(field string) error {
	if t.response == nil {
		return errors.New("no response received")
	}

	body, ok := t.response.body.(map[string]any)
	if !ok {
		return fmt.Errorf("response is not a JSON object: %v", t.response.body)
	}

	if _, exists := body[field]; !exists {
		return fmt.Errorf("response does not contain field '%s': %v", field, body)
	}
	return nil
}

func (t *testContext) theResponseFieldShouldBe(field, expectedValue string) error {
	if t.response == nil {
		return errors.New("no response received")
	}

	body, ok := t.response.body.(map[string]any)
	if !ok {
		return fmt.Errorf("response is not a JSON object: %v", t.response.body)
	}

	value := getFieldValue(body, field)
	if value == nil {
		return fmt.Errorf("field '%s' not found in response: %v", field, body)
	}

	actualValue := fmt.Sprintf("%v", value)
	if actualValue != expectedValue {
		return fmt.Errorf("field '%s' expected '%s', got '%s'", field, expectedValue, actualValue)
	}
	return nil
}

func (t *testContext) theResponseFieldShouldExist(field string) error {
	if t.response == nil {
		return errors.New("no response received")
	}

	body, ok := t.response.body.(map[string]any)
	if !ok {
		return fmt.Errorf("response is not a JSON object: %v", t.response.body)
	}

	value := getFieldValue(body, field)
	if value == nil {
		return fmt.Errorf("field '%s' not found in response: %v", field, body)
	}
	return nil
}

// theResponseBodyShouldContain asserts on the raw body, for non-JSON
// responses such as the CSV export.
func (t *testContext) theResponseBodyShouldContain(expected string) error {
	if t.response == nil {
		return errors.New("no response received")
	}

	var raw string
	switch body := t.response.body.(type) {
	case string:
		raw = body
	default:
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		raw = string(encoded)
	}

	if !strings.Contains(raw, expected) {
		return fmt.Errorf("response body does not contain %q: %s", expected, raw)
	}
	return nil
}

func (t *testContext) theDbShouldContainObjectsInTheTable(quantity int, table string) error {
	if entity, ok := t.db.GetModel(table); ok {
		entityType := reflect.TypeOf(entity).Elem()
		entitySlice := reflect.MakeSlice(reflect.SliceOf(entityType), 0, 0)
		entitySlicePtr := reflect.New(entitySlice.Type())
		entitySlicePtr.Elem().Set(entitySlice)

		result := t.db.DbConn.Unscoped().Find(entitySlicePtr.Interface())
		if result.Error != nil {
			return result.Error
		}

		count := entitySlicePtr.Elem().Len()
		if count != quantity {
			return fmt.Errorf("expected %d objects in '%s', got %d", quantity, table, count)
		}
		return nil
	}
	return fmt.Errorf("table '%s' not found in models", table)
}

func (t *testContext) theDbShouldContainObjectsInWithTheValues(quantity int, table string, content *godog.DocString) error {
	var criteria map[string]any
	if err := json.Unmarshal([]byte(t.replaceTokenPlaceholders(content.Content)), &criteria); err != nil {
		return err
	}

	if entity, ok := t.db.GetModel(table); ok {
		entityType := reflect.TypeOf(entity).Elem()
		entitySlice := reflect.MakeSlice(reflect.SliceOf(entityType), 0, 0)
		entitySlicePtr := reflect.New(entitySlice.Type())
		entitySlicePtr.Elem().Set(entitySlice)

		query := t.db.DbConn.Unscoped()
		for key, value := range criteria {
			query = query.Where(fmt.Sprintf("%s = ?", key), value)
		}

		result := query.Find(entitySlicePtr.Interface())
		if result.Error != nil && !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return result.Error
		}

		count := entitySlicePtr.Elem().Len()
		if count != quantity {
			return fmt.Errorf("expected %d objects in '%s' with criteria %v, got %d", quantity, table, criteria, count)
		}
		return nil
	}
	return fmt.Errorf("table '%s' not found in models", table)
}

func getFieldValue(object any, dotSeparatedField string) any {
	if object == nil {
		return nil
	}

	var objectMap map[string]any
	switch v := object.(type) {
	case map[string]any:
		objectMap = v
	default:
		objectJSON, _ := json.Marshal(object)
		if err := json.Unmarshal(objectJSON, &objectMap); err != nil {
			return nil
		}
	}

	fields := strings.Split(dotSeparatedField, ".")
	var field any = objectMap

	for _, currentField := range fields {
		if field == nil {
			return nil
		}

		if i, err := strconv.Atoi(currentField); err == nil {
			if arr, ok := field.([]any); ok && i < len(arr) {
				field = arr[i]
			} else {
				return nil
			}
		} else {
			if m, ok := field.(map[string]any); ok {
				field = m[currentField]
			} else {
				return nil
			}
		}
	}

	return field
}
