package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hansollee/lorecheck/internal/model"
	"github.com/hansollee/lorecheck/internal/pipeline"
	"github.com/hansollee/lorecheck/internal/store"
)

var (
	outJSON        string
	outMD          string
	analyzeTimeout time.Duration
	noFooter       bool
	severityFlag   string
	maxChunk       int
	minChunk       int
	oracleProvider string
	oracleModel    string
	factsPath      string
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <manuscript>",
	Short: "Check a draft against the recorded canon",
	Long: `Analyze reads a manuscript (.txt, .md, or .html), splits it into
chunks along paragraph and sentence boundaries, and checks each chunk
against the fact store: world settings, character sheets, and
previously recorded episodes.

Every finding is pinned to an exact character span in the draft, names
the canonical statement it contradicts, and suggests a rewrite.

Example:
  lorecheck analyze episode-12.txt
  lorecheck analyze draft.md --json report.json --md report.md
  lorecheck analyze draft.txt --oracle openai --oracle-model gpt-4o-mini
  lorecheck analyze draft.txt --severity high`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	// Output flags
	analyzeCmd.Flags().StringVar(&outJSON, "json", "report.json", "output JSON path")
	analyzeCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	analyzeCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")

	// Analysis flags
	analyzeCmd.Flags().StringVar(&severityFlag, "severity", "", "minimum severity to report (low, medium, high)")
	analyzeCmd.Flags().IntVar(&maxChunk, "max-chunk", 0, "maximum chunk length in characters")
	analyzeCmd.Flags().IntVar(&minChunk, "min-chunk", 0, "minimum chunk length in characters")
	analyzeCmd.Flags().StringVar(&factsPath, "facts", "", "fact store path (default facts.json)")
	analyzeCmd.Flags().DurationVar(&analyzeTimeout, "timeout", 10*time.Minute, "overall analysis timeout")

	// Oracle flags
	analyzeCmd.Flags().StringVar(&oracleProvider, "oracle", "", "oracle provider (openai, ollama)")
	analyzeCmd.Flags().StringVar(&oracleModel, "oracle-model", "", "oracle model name")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	manuscript := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), analyzeTimeout)
	defer cancel()

	cfg := loadConfig()
	if severityFlag != "" {
		sev, ok := model.ParseSeverity(severityFlag)
		if !ok {
			return fmt.Errorf("invalid severity %q (want low, medium, or high)", severityFlag)
		}
		cfg.SeverityThreshold = sev
	}
	if maxChunk > 0 {
		cfg.Chunk.MaxLen = maxChunk
	}
	if minChunk > 0 {
		cfg.Chunk.MinLen = minChunk
	}
	if factsPath != "" {
		cfg.Store.Path = factsPath
	}
	if oracleProvider != "" {
		cfg.Oracle.Provider = oracleProvider
	}
	if oracleModel != "" {
		cfg.Oracle.Model = oracleModel
	}
	cfg.Output.Verbose = verbose

	if cfg.Oracle.Provider == "openai" && cfg.Oracle.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}

	logger := zap.NewNop()
	if verbose {
		var err error
		logger, err = zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
	}
	defer func() { _ = logger.Sync() }()

	st := store.Open(cfg.Store.Path, cfg.Store.SnapshotTTL)

	p, err := pipeline.New(cfg, st, logger)
	if err != nil {
		return fmt.Errorf("init pipeline: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Analyzing: %s\n", manuscript)
		fmt.Fprintf(os.Stderr, "Fact store: %s\n", cfg.Store.Path)
		if cfg.Oracle.Provider != "" {
			fmt.Fprintf(os.Stderr, "Oracle: %s/%s\n", cfg.Oracle.Provider, cfg.Oracle.Model)
		}
		fmt.Fprintln(os.Stderr)
	}

	report, err := p.Analyze(ctx, manuscript)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	renderer := pipeline.NewRenderer(!noFooter)
	if outJSON != "" {
		if err := renderer.RenderJSON(report, outJSON); err != nil {
			return err
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "Wrote %s\n", outJSON)
		}
	}
	if outMD != "" {
		if err := renderer.RenderMarkdown(report, outMD); err != nil {
			return err
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "Wrote %s\n", outMD)
		}
	}
	renderer.RenderSummary(report)

	return nil
}
