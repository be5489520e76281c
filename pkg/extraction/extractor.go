package extraction

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ai-sceneguide-be/internal/pkg/logger"
)

const module = "EXTRACTION"

var (
	ErrExtractionFailed = errors.New("no extraction strategy produced text")
	ErrEmptyDocument    = errors.New("document is empty")
)

// Document is an uploaded file as received by the upload boundary.
type Document struct {
	Data     []byte
	MimeType string
	Filename string
}

type Extraction struct {
	Text       string
	Confidence Confidence
	Method     string
	WordCount  int
	// GatePassed is false when every strategy was rejected by the quality
	// gate and Text is the last raw output.
	GatePassed bool
}

// Strategy is one step of the extraction chain.
type Strategy interface {
	Name() string
	Supports(mimeType string) bool
	Extract(ctx context.Context, doc Document) (string, error)
}

type Extractor struct {
	strategies []Strategy
	gate       Gate
	policy     ConfidencePolicy
	logger     logger.ILogger
}

func NewExtractor(strategies []Strategy, log logger.ILogger) *Extractor {
	return &Extractor{
		strategies: strategies,
		gate:       DefaultGate,
		policy:     DefaultConfidencePolicy,
		logger:     log,
	}
}

// WithPolicy returns a copy of e using the given thresholds.
func (e *Extractor) WithPolicy(gate Gate, policy ConfidencePolicy) (*Extractor, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	clone := *e
	clone.gate = gate
	clone.policy = policy
	return &clone, nil
}

// Strategies lists the configured strategy names in chain order.
func (e *Extractor) Strategies() []string {
	names := make([]string, 0, len(e.strategies))
	for _, s := range e.strategies {
		names = append(names, s.Name())
	}
	return names
}

// Extract runs the chain and returns the first output that passes the gate.
// When none passes, the last non-empty output is returned with GatePassed
// unset and low confidence. Only a chain that produced nothing at all fails.
func (e *Extractor) Extract(ctx context.Context, doc Document) (*Extraction, error) {
	if len(doc.Data) == 0 {
		return nil, ErrEmptyDocument
	}

	var lastText, lastMethod string

	for _, strategy := range e.strategies {
		if !strategy.Supports(doc.MimeType) {
			continue
		}

		text, err := e.run(ctx, strategy, doc)
		if err != nil {
			e.logger.Warn(module, "Strategy failed", map[string]interface{}{
				"strategy": strategy.Name(),
				"filename": doc.Filename,
				"error":    err.Error(),
			})
			continue
		}

		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		lastText, lastMethod = text, strategy.Name()

		if !e.gate.Passes(text) {
			e.logger.Info(module, "Strategy output rejected by quality gate", map[string]interface{}{
				"strategy":     strategy.Name(),
				"chars":        len([]rune(text)),
				"letter_ratio": LetterRatio(text),
			})
			continue
		}

		wc := CountWords(text)
		e.logger.Info(module, "Text extracted", map[string]interface{}{
			"strategy":   strategy.Name(),
			"word_count": wc,
		})
		return &Extraction{
			Text:       text,
			Confidence: e.policy.Classify(wc),
			Method:     strategy.Name(),
			WordCount:  wc,
			GatePassed: true,
		}, nil
	}

	if lastText == "" {
		return nil, ErrExtractionFailed
	}

	e.logger.Warn(module, "No strategy passed the quality gate, returning last output", map[string]interface{}{
		"strategy": lastMethod,
		"filename": doc.Filename,
	})
	return &Extraction{
		Text:       lastText,
		Confidence: ConfidenceLow,
		Method:     lastMethod,
		WordCount:  CountWords(lastText),
		GatePassed: false,
	}, nil
}

func (e *Extractor) run(ctx context.Context, strategy Strategy, doc Document) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("strategy %s panicked: %v", strategy.Name(), r)
		}
	}()
	return strategy.Extract(ctx, doc)
}
