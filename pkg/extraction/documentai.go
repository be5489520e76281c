package extraction

import (
	"context"
	"errors"
	"fmt"
	"io"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"
)

const MethodDocumentAI = "document-ai"

type documentProcessor interface {
	ProcessDocument(ctx context.Context, req *documentaipb.ProcessRequest, opts ...gax.CallOption) (*documentaipb.ProcessResponse, error)
	io.Closer
}

// DocumentAIStrategy sends the document to a Google Document AI OCR
// processor. A client is opened per call and closed on every exit path.
type DocumentAIStrategy struct {
	processor string
	dial      func(ctx context.Context) (documentProcessor, error)
}

// NewDocumentAIStrategy builds the strategy for a processor resource name of
// the form projects/*/locations/*/processors/*.
func NewDocumentAIStrategy(credentialsPath, location, processor string) (*DocumentAIStrategy, error) {
	if credentialsPath == "" || processor == "" {
		return nil, errors.New("document ai: credentials path and processor are required")
	}
	if location == "" {
		location = "us"
	}
	endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", location)

	return &DocumentAIStrategy{
		processor: processor,
		dial: func(ctx context.Context) (documentProcessor, error) {
			return documentai.NewDocumentProcessorClient(ctx,
				option.WithCredentialsFile(credentialsPath),
				option.WithEndpoint(endpoint),
			)
		},
	}, nil
}

func (s *DocumentAIStrategy) Name() string {
	return MethodDocumentAI
}

func (s *DocumentAIStrategy) Supports(mimeType string) bool {
	return isPDF(mimeType) || isImage(mimeType)
}

func (s *DocumentAIStrategy) Extract(ctx context.Context, doc Document) (string, error) {
	client, err := s.dial(ctx)
	if err != nil {
		return "", fmt.Errorf("document ai: failed to create client: %w", err)
	}
	defer client.Close()

	resp, err := client.ProcessDocument(ctx, &documentaipb.ProcessRequest{
		Name: s.processor,
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  doc.Data,
				MimeType: baseMime(doc.MimeType),
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("document ai: process failed: %w", err)
	}

	return resp.GetDocument().GetText(), nil
}
