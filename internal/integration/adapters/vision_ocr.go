// Package adapters provides implementations for external service integrations.
package adapters

import (
	"context"
	"fmt"
	"strings"
	"time"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"

	"github.com/dgi-compliance/backend/internal/application/adapter"
)

// MaxOCRFileSizeBytes is the maximum file size Vision accepts for synchronous
// annotation (20MB).
const MaxOCRFileSizeBytes = 20 * 1024 * 1024

// VisionOCRService implements the adapter.OCRProvider using Google Cloud Vision.
type VisionOCRService struct {
	credentialsJSON string
	timeout         time.Duration
}

// NewVisionOCRService creates a new Vision OCR service instance. A zero
// timeout means calls run until the caller's context expires.
func NewVisionOCRService(credentialsJSON string, timeout time.Duration) *VisionOCRService {
	return &VisionOCRService{
		credentialsJSON: credentialsJSON,
		timeout:         timeout,
	}
}

// IsAvailable checks if the Vision service is configured.
func (s *VisionOCRService) IsAvailable() bool {
	return s.credentialsJSON != ""
}

// ExtractText runs document text detection over the file content and returns
// the raw text with the mean annotation confidence.
func (s *VisionOCRService) ExtractText(ctx context.Context, content []byte, contentType string) (*adapter.OCRResult, error) {
	if !s.IsAvailable() {
		return nil, fmt.Errorf("vision service is not configured")
	}
	if len(content) > MaxOCRFileSizeBytes {
		return nil, fmt.Errorf("file too large for synchronous annotation: %d bytes", len(content))
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	client, err := vision.NewImageAnnotatorClient(ctx, option.WithCredentialsJSON([]byte(s.credentialsJSON)))
	if err != nil {
		return nil, fmt.Errorf("failed to create vision client: %w", err)
	}
	defer client.Close()

	if contentType == "application/pdf" {
		return s.annotatePDF(ctx, client, content)
	}
	return s.annotateImage(ctx, client, content)
}

// annotatePDF extracts text from a PDF. The synchronous Vision endpoint
// annotates at most the first five pages of a file.
func (s *VisionOCRService) annotatePDF(ctx context.Context, client *vision.ImageAnnotatorClient, content []byte) (*adapter.OCRResult, error) {
	if len(content) < 4 || string(content[:4]) != "%PDF" {
		return nil, fmt.Errorf("missing PDF header")
	}

	req := &visionpb.BatchAnnotateFilesRequest{
		Requests: []*visionpb.AnnotateFileRequest{
			{
				InputConfig: &visionpb.InputConfig{
					Content:  content,
					MimeType: "application/pdf",
				},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
				},
			},
		},
	}

	resp, err := client.BatchAnnotateFiles(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("vision api call failed: %w", err)
	}
	if len(resp.Responses) == 0 {
		return nil, fmt.Errorf("no response from vision api")
	}

	fileResp := resp.Responses[0]
	if fileResp.Error != nil {
		return nil, fmt.Errorf("vision api error: %s", fileResp.Error.Message)
	}
	if len(fileResp.Responses) == 0 {
		return nil, fmt.Errorf("document produced no pages")
	}

	var pageTexts []string
	var confidenceSum float64
	var confidenceCount int

	for pageIdx, page := range fileResp.Responses {
		if page.Error != nil {
			return nil, fmt.Errorf("error processing page %d: %s", pageIdx+1, page.Error.Message)
		}
		if page.FullTextAnnotation == nil {
			continue
		}
		pageTexts = append(pageTexts, page.FullTextAnnotation.Text)
		for _, p := range page.FullTextAnnotation.Pages {
			if p.Confidence > 0 {
				confidenceSum += float64(p.Confidence)
				confidenceCount++
			}
		}
	}

	text := strings.TrimSpace(strings.Join(pageTexts, "\n"))
	if text == "" {
		return nil, fmt.Errorf("no text detected in document")
	}

	var confidence float64
	if confidenceCount > 0 {
		confidence = confidenceSum / float64(confidenceCount)
	}

	return &adapter.OCRResult{
		Text:       text,
		Confidence: confidence,
		PageCount:  len(fileResp.Responses),
	}, nil
}

// annotateImage extracts text from a single JPEG or PNG image.
func (s *VisionOCRService) annotateImage(ctx context.Context, client *vision.ImageAnnotatorClient, content []byte) (*adapter.OCRResult, error) {
	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: content},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
				},
			},
		},
	}

	resp, err := client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("vision api call failed: %w", err)
	}
	if len(resp.Responses) == 0 {
		return nil, fmt.Errorf("no response from vision api")
	}

	imageResp := resp.Responses[0]
	if imageResp.Error != nil {
		return nil, fmt.Errorf("vision api error: %s", imageResp.Error.Message)
	}
	if imageResp.FullTextAnnotation == nil || strings.TrimSpace(imageResp.FullTextAnnotation.Text) == "" {
		return nil, fmt.Errorf("no text detected in image")
	}

	var confidenceSum float64
	var confidenceCount int
	for _, p := range imageResp.FullTextAnnotation.Pages {
		if p.Confidence > 0 {
			confidenceSum += float64(p.Confidence)
			confidenceCount++
		}
	}
	var confidence float64
	if confidenceCount > 0 {
		confidence = confidenceSum / float64(confidenceCount)
	}

	return &adapter.OCRResult{
		Text:       strings.TrimSpace(imageResp.FullTextAnnotation.Text),
		Confidence: confidence,
		PageCount:  1,
	}, nil
}
