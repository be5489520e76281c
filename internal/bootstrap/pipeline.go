package bootstrap

import (
	"context"

	"ai-sceneguide-be/internal/config"
	"ai-sceneguide-be/internal/pkg/logger"
	"ai-sceneguide-be/pkg/extraction"
	"ai-sceneguide-be/pkg/generation"
	"ai-sceneguide-be/pkg/llm/factory"
	"ai-sceneguide-be/pkg/methodology"
	"ai-sceneguide-be/pkg/prompt"
)

// NewExtractor builds the extraction chain in fallback order:
// document-ai, pdf-text-layer, gemini-vision-ocr, plain-text. Strategies
// without credentials are left out.
func NewExtractor(ctx context.Context, cfg *config.Config, log logger.ILogger) *extraction.Extractor {
	var strategies []extraction.Strategy

	if docAI, err := extraction.NewDocumentAIStrategy(
		cfg.Extraction.DocumentAICredentialsPath,
		cfg.Extraction.DocumentAILocation,
		cfg.Extraction.DocumentAIProcessor,
	); err == nil {
		strategies = append(strategies, docAI)
	} else {
		log.Info("BOOTSTRAP", "Document AI extraction disabled", map[string]interface{}{"reason": err.Error()})
	}

	strategies = append(strategies, extraction.NewPDFTextStrategy())

	if ocr, err := extraction.NewGeminiOCRStrategy(ctx, cfg.Keys.GoogleGemini, cfg.Extraction.GeminiOCRModel, log); err == nil {
		strategies = append(strategies, ocr)
	} else {
		log.Info("BOOTSTRAP", "Gemini OCR extraction disabled", map[string]interface{}{"reason": err.Error()})
	}

	strategies = append(strategies, extraction.NewPlainTextStrategy())

	return extraction.NewExtractor(strategies, log)
}

func NewIndex(cfg *config.Config, log logger.ILogger) (*methodology.Index, error) {
	docs, err := methodology.LoadCorpus(cfg.Retrieval.CorpusDir)
	if err != nil {
		return nil, err
	}
	return methodology.NewIndex(docs, cfg.Retrieval.TopK, log), nil
}

func NewAssembler(cfg *config.Config) *prompt.Assembler {
	return prompt.NewAssembler(prompt.Config{
		ContextCharBudget:  cfg.Ai.PromptContextBudget,
		MinInputChars:      cfg.Ai.PromptMinInputChars,
		MaxOutputTokens:    cfg.Ai.MaxOutputTokens,
		MaxOutputTokensCap: cfg.Ai.MaxOutputTokensCap,
	})
}

// NewOrchestrator registers every provider that has credentials. An empty
// registry is valid: every request then degrades to the template.
func NewOrchestrator(ctx context.Context, cfg *config.Config, log logger.ILogger) *generation.Orchestrator {
	providers, skipped := factory.NewLLMProviders(ctx, factory.Settings{
		AnthropicKey:       cfg.Keys.Anthropic,
		AnthropicModel:     cfg.Ai.AnthropicModel,
		OpenAIKey:          cfg.Keys.OpenAI,
		OpenAIModel:        cfg.Ai.OpenAIModel,
		GeminiKey:          cfg.Keys.GoogleGemini,
		GeminiModel:        cfg.Ai.GeminiModel,
		OllamaBaseURL:      cfg.Ai.OllamaBaseURL,
		OllamaModel:        cfg.Ai.OllamaModel,
		HuggingFaceKey:     cfg.Keys.HuggingFace,
		HuggingFaceBaseURL: cfg.Ai.HuggingFaceBaseURL,
		HuggingFaceModel:   cfg.Ai.HuggingFaceModel,
	})
	for name, err := range skipped {
		log.Info("BOOTSTRAP", "LLM provider not registered", map[string]interface{}{
			"provider": name,
			"reason":   err.Error(),
		})
	}

	return generation.NewOrchestrator(providers, generation.Config{
		DefaultProvider: cfg.Ai.LLMProvider,
		ProviderTimeout: cfg.Ai.ProviderTimeout,
	}, log)
}
