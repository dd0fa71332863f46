package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/hansollee/lorecheck/internal/model"
)

// Renderer writes analysis reports to files and the terminal
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// RenderJSON writes the report as indented JSON
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write JSON report: %w", err)
	}
	return nil
}

// RenderMarkdown writes a human-readable report
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Consistency Report: %s\n\n", report.Manuscript))
	sb.WriteString(fmt.Sprintf("- Run: `%s`\n", report.RunID))
	sb.WriteString(fmt.Sprintf("- Analyzed: %s\n", report.AnalyzedAt.Format("2006-01-02 15:04 UTC")))
	sb.WriteString(fmt.Sprintf("- Statements checked: %d\n", report.StatementsChecked))
	sb.WriteString(fmt.Sprintf("- Issues found: %d\n", report.NegativeCount))
	if report.Degraded {
		sb.WriteString("- **Warning**: some checks could not be completed\n")
	}
	sb.WriteString("\n")

	if len(report.Issues) == 0 {
		sb.WriteString("No consistency issues found.\n")
	} else {
		sb.WriteString("## Issues\n\n")
		for i, issue := range report.Issues {
			sb.WriteString(fmt.Sprintf("### %d. [%s/%s] %s\n\n", i+1, issue.Severity, issue.Category, issue.Title))
			sb.WriteString(fmt.Sprintf("> %s\n\n", issue.Sentence))
			sb.WriteString(fmt.Sprintf("%s\n\n", issue.Reason))
			if issue.Rewrite != "" {
				sb.WriteString(fmt.Sprintf("Suggested rewrite: %s\n\n", issue.Rewrite))
			}
		}
	}

	if len(report.FictionTerms) > 0 {
		sb.WriteString("## In-universe terms (exempt from checking)\n\n")
		for _, term := range report.FictionTerms {
			sb.WriteString(fmt.Sprintf("- %s\n", term))
		}
		sb.WriteString("\n")
	}

	if r.includeFooter {
		sb.WriteString("---\n\nGenerated by lorecheck. Findings describe internal consistency only, never real-world accuracy.\n")
	}

	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("write Markdown report: %w", err)
	}
	return nil
}

// RenderSummary prints a colored summary to stdout
func (r *Renderer) RenderSummary(report *model.Report) {
	bold := color.New(color.Bold)
	_, _ = bold.Printf("\n%s\n", report.Manuscript)
	fmt.Printf("  chunks: %d   statements checked: %d   issues: %d\n",
		report.ChunkCount, report.StatementsChecked, report.NegativeCount)

	if report.Degraded {
		color.Yellow("  warning: some checks could not be completed")
	}

	for _, issue := range report.Issues {
		c := severityColor(issue.Severity)
		_, _ = c.Printf("  [%s] ", issue.Severity)
		fmt.Printf("%s: %s\n", issue.Category, issue.Title)
		fmt.Printf("        %s\n", issue.Sentence)
	}

	if len(report.FictionTerms) > 0 {
		fmt.Printf("  in-universe terms: %s\n", strings.Join(report.FictionTerms, ", "))
	}
	fmt.Println()
}

func severityColor(s model.Severity) *color.Color {
	switch s {
	case model.SeverityHigh:
		return color.New(color.FgRed, color.Bold)
	case model.SeverityMedium:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgCyan)
	}
}
