package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"ai-sceneguide-be/internal/bootstrap"
	"ai-sceneguide-be/internal/config"
	"ai-sceneguide-be/internal/pkg/logger"
	"ai-sceneguide-be/internal/service"
	"ai-sceneguide-be/pkg/extraction"
	"ai-sceneguide-be/pkg/generation"
	"ai-sceneguide-be/pkg/prompt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:          "guidectl",
		Short:        "Run single stages of the scene guide pipeline from the command line",
		SilenceUsage: true,
	}
	verbose bool
	timeout time.Duration
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log pipeline details to the console")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "Overall deadline for the command")

	rootCmd.AddCommand(extractCmd())
	rootCmd.AddCommand(retrieveCmd())
	rootCmd.AddCommand(generateCmd())
}

func setup() (*config.Config, logger.ILogger) {
	cfg := config.Load()
	if verbose {
		return cfg, logger.NewZapLogger(filepath.Join(os.TempDir(), "guidectl.log"), false)
	}
	return cfg, logger.NewNop()
}

func extractFile(ctx context.Context, cfg *config.Config, log logger.ILogger, path string) (*extraction.Extraction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	mimeType, ok := service.DetectMimeType(data)
	if !ok {
		return nil, fmt.Errorf("%w: %s", service.ErrUnsupportedMedia, mimeType)
	}

	return bootstrap.NewExtractor(ctx, cfg, log).Extract(ctx, extraction.Document{
		Data:     data,
		MimeType: mimeType,
		Filename: filepath.Base(path),
	})
}

func extractCmd() *cobra.Command {
	var full bool
	cmd := &cobra.Command{
		Use:   "extract <file>",
		Short: "Extract scene text from a document and report its confidence",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			cfg, log := setup()

			res, err := extractFile(ctx, cfg, log, args[0])
			if err != nil {
				return err
			}

			color.Cyan("Method:     %s", res.Method)
			confidence := color.GreenString(string(res.Confidence))
			if res.Confidence == extraction.ConfidenceLow {
				confidence = color.YellowString(string(res.Confidence))
			}
			fmt.Printf("Confidence: %s\n", confidence)
			fmt.Printf("Words:      %d\n", res.WordCount)
			fmt.Printf("Gate:       %t\n\n", res.GatePassed)

			if full {
				fmt.Println(res.Text)
			} else {
				fmt.Println(generation.Excerpt(res.Text, 600))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&full, "full", false, "Print the full extracted text")
	return cmd
}

func retrieveCmd() *cobra.Command {
	var character, productionType string
	cmd := &cobra.Command{
		Use:   "retrieve",
		Short: "Show which methodology documents a request would retrieve",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log := setup()
			index, err := bootstrap.NewIndex(cfg, log)
			if err != nil {
				return err
			}

			results := index.Query(character, productionType, "")
			if len(results) == 0 {
				color.Yellow("No documents matched")
				return nil
			}
			for i, r := range results {
				fmt.Printf("%2d. %s %s %s\n",
					i+1,
					color.CyanString("%-24s", r.Document.ID),
					color.GreenString("score=%-3d", r.Score),
					r.Document.Category,
				)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&character, "character", "", "Character name")
	cmd.Flags().StringVar(&productionType, "type", "", "Production type, e.g. \"Single Cam Sitcom\"")
	return cmd
}

func generateCmd() *cobra.Command {
	var (
		character, title, productionType, provider, out string
		secondary, promptOnly                           bool
	)
	cmd := &cobra.Command{
		Use:   "generate <file>",
		Short: "Run extraction, retrieval and generation for one document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			cfg, log := setup()

			ext, err := extractFile(ctx, cfg, log, args[0])
			if err != nil {
				return err
			}
			index, err := bootstrap.NewIndex(cfg, log)
			if err != nil {
				return err
			}
			docs := index.Query(character, productionType, ext.Text)

			assembler := bootstrap.NewAssembler(cfg)
			meta := prompt.Meta{
				CharacterName:   character,
				ProductionTitle: title,
				ProductionType:  productionType,
				Variant:         prompt.VariantPrimary,
				ProviderHint:    provider,
			}
			req, err := assembler.Assemble(prompt.Extracted{
				Text:       ext.Text,
				Confidence: string(ext.Confidence),
				Method:     ext.Method,
			}, docs, meta)
			if err != nil {
				return err
			}

			if promptOnly {
				fmt.Println(req.SystemContext)
				fmt.Println()
				fmt.Println(req.UserContext)
				return nil
			}

			orchestrator := bootstrap.NewOrchestrator(ctx, cfg, log)
			result, err := orchestrator.Generate(ctx, req, provider)
			if err != nil {
				return err
			}
			report(result)
			html := result.Text

			if secondary {
				meta.Variant = prompt.VariantSimplified
				meta.PrimaryOutput = result.Text
				req, err := assembler.Assemble(prompt.Extracted{Text: ext.Text, Confidence: string(ext.Confidence)}, docs, meta)
				if err != nil {
					return err
				}
				simplified, err := orchestrator.Generate(ctx, req, provider)
				if err != nil {
					return err
				}
				report(simplified)
				html += "\n<hr>\n" + simplified.Text
			}

			if out == "" {
				fmt.Println(html)
				return nil
			}
			if err := os.WriteFile(out, []byte(html), 0o644); err != nil {
				return err
			}
			color.Green("Wrote %s", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&character, "character", "", "Character name")
	cmd.Flags().StringVar(&title, "title", "", "Production title")
	cmd.Flags().StringVar(&productionType, "type", "", "Production type")
	cmd.Flags().StringVar(&provider, "provider", "", "Preferred provider")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write the HTML to this file instead of stdout")
	cmd.Flags().BoolVar(&secondary, "secondary", false, "Also run the simplified pass")
	cmd.Flags().BoolVar(&promptOnly, "prompt-only", false, "Print the assembled prompt and stop")
	_ = cmd.MarkFlagRequired("character")
	return cmd
}

// report writes to stderr so the HTML on stdout can be piped.
func report(result generation.Result) {
	if result.Degraded {
		color.New(color.FgYellow).Fprintf(os.Stderr, "Provider: %s (degraded)\n", result.ProviderUsed)
		return
	}
	color.New(color.FgGreen).Fprintf(os.Stderr, "Provider: %s\n", result.ProviderUsed)
}
