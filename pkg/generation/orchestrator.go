package generation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"ai-sceneguide-be/internal/pkg/logger"
	"ai-sceneguide-be/pkg/llm"

	"github.com/microcosm-cc/bluemonday"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	module = "GENERATION"

	// FallbackProvider is reported as ProviderUsed for template output.
	FallbackProvider = "template"

	DefaultProviderTimeout = 90 * time.Second
)

// Result is the outcome of one generation pass.
type Result struct {
	Text         string
	ProviderUsed string
	Degraded     bool
}

type Config struct {
	DefaultProvider string
	ProviderTimeout time.Duration
}

// Orchestrator dispatches requests to registered providers and degrades to a
// static template when none of them produce usable output.
type Orchestrator struct {
	providers       map[string]llm.Provider
	defaultProvider string
	timeout         time.Duration
	fallback        *TemplateGenerator
	policy          *bluemonday.Policy
	tracer          trace.Tracer
	logger          logger.ILogger
}

func NewOrchestrator(providers []llm.Provider, cfg Config, log logger.ILogger) *Orchestrator {
	registered := make(map[string]llm.Provider, len(providers))
	for _, p := range providers {
		if p == nil {
			continue
		}
		registered[p.Name()] = p
	}

	timeout := cfg.ProviderTimeout
	if timeout <= 0 {
		timeout = DefaultProviderTimeout
	}

	return &Orchestrator{
		providers:       registered,
		defaultProvider: cfg.DefaultProvider,
		timeout:         timeout,
		fallback:        NewTemplateGenerator(),
		policy:          bluemonday.UGCPolicy(),
		tracer:          otel.Tracer("ai-sceneguide-be/generation"),
		logger:          log,
	}
}

// Providers lists the registered provider names, default first.
func (o *Orchestrator) Providers() []string {
	others := make([]string, 0, len(o.providers))
	for name := range o.providers {
		if name != o.defaultProvider {
			others = append(others, name)
		}
	}
	sort.Strings(others)

	if _, ok := o.providers[o.defaultProvider]; ok {
		return append([]string{o.defaultProvider}, others...)
	}
	return others
}

// Generate never fails for a well-formed request: provider errors are logged
// and the template result is returned with Degraded set. The returned error is
// always nil.
func (o *Orchestrator) Generate(ctx context.Context, req llm.Request, preference string) (Result, error) {
	for _, name := range o.candidates(preference, req.ProviderHint) {
		provider := o.providers[name]

		text, err := o.call(ctx, provider, req)
		if err == nil {
			o.logger.Info(module, "Generation completed", map[string]interface{}{
				"provider": name,
				"chars":    len(text),
			})
			return Result{Text: text, ProviderUsed: name}, nil
		}

		kind := llm.KindOf(err)
		o.logger.Warn(module, "Provider call failed", map[string]interface{}{
			"provider": name,
			"kind":     fmt.Sprint(kind),
			"error":    err.Error(),
		})
	}

	text := o.fallback.Render(req.Subject)
	o.logger.Warn(module, "All providers unavailable, using template", map[string]interface{}{
		"character":  req.Subject.CharacterName,
		"production": req.Subject.ProductionTitle,
	})
	return Result{Text: text, ProviderUsed: FallbackProvider, Degraded: true}, nil
}

// candidates returns registered provider names in dispatch order without
// duplicates: explicit preference, request hint, configured default.
func (o *Orchestrator) candidates(preference, hint string) []string {
	order := make([]string, 0, 3)
	seen := make(map[string]bool, 3)
	for _, name := range []string{preference, hint, o.defaultProvider} {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		if _, ok := o.providers[name]; !ok {
			o.logger.Debug(module, "Provider not registered", map[string]interface{}{"provider": name})
			continue
		}
		order = append(order, name)
	}
	return order
}

func (o *Orchestrator) call(ctx context.Context, provider llm.Provider, req llm.Request) (text string, err error) {
	name := provider.Name()

	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	callCtx, span := o.tracer.Start(callCtx, "generation.provider_call",
		trace.WithAttributes(
			attribute.String("llm.provider", name),
			attribute.Int("llm.max_output_tokens", req.MaxOutputTokens),
		))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	defer func() {
		if r := recover(); r != nil {
			err = llm.NewProviderError(name, llm.ErrTransient, 0, fmt.Errorf("provider panic: %v", r))
		}
	}()

	raw, err := provider.Call(callCtx, req)
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return "", llm.NewProviderError(name, llm.ErrTransient, 0, fmt.Errorf("timed out after %s: %w", o.timeout, err))
		}
		return "", llm.Classify(name, err)
	}

	text = Normalize(o.policy, raw)
	if text == "" {
		return "", llm.NewProviderError(name, llm.ErrMalformedResponse, 0, errors.New("empty output after normalisation"))
	}
	return text, nil
}
