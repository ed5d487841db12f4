package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/CiteGuard/internal/application/analysis"
	"github.com/turtacn/CiteGuard/internal/bootstrap"
)

// NewAnalyzeCmd creates the analyze command.
func NewAnalyzeCmd() *cobra.Command {
	var (
		text    string
		verify  bool
		outFile string
	)

	cmd := &cobra.Command{
		Use:   "analyze [file]",
		Short: "Extract and verify citations in a document",
		Long:  "Run the full citation pipeline over a document: extraction,\ncase-name and date association, parallel-citation clustering, and\noptional external verification.\n\nThe document is read from the file argument, from --text, or from\nstdin when neither is given.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			doc, err := readDocument(cmd, args, text)
			if err != nil {
				return err
			}

			svc, err := buildService(cliCtx, verify)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cliCtx.Timeout)
			defer cancel()

			result, err := svc.AnalyzeText(ctx, &analysis.AnalyzeInput{
				Text:   doc,
				Verify: verify,
			})
			if err != nil {
				return err
			}

			if outFile != "" {
				return writeResultFile(result, outFile)
			}
			return PrintResult(cmd, &analyzeOutput{result})
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "document text (alternative to a file argument)")
	cmd.Flags().BoolVar(&verify, "verify", false, "verify citations against the external database")
	cmd.Flags().StringVar(&outFile, "file", "", "write JSON result to a file instead of stdout")

	return cmd
}

// buildService assembles an in-process analysis pipeline.  The verifier is
// only constructed when verification was requested, so plain extraction
// never needs network configuration.
func buildService(cliCtx *CLIContext, verify bool) (analysis.Service, error) {
	extractor, err := bootstrap.NewExtractor(cliCtx.Config, nil, cliCtx.Logger)
	if err != nil {
		return nil, err
	}

	var verifier *analysis.Verifier
	if verify {
		verifier, err = bootstrap.NewVerifier(cliCtx.Config, nil, nil, nil, cliCtx.Logger)
		if err != nil {
			return nil, err
		}
	}

	return analysis.NewService(extractor, verifier, cliCtx.Config.Pipeline, nil, cliCtx.Logger)
}

// readDocument resolves the document body from the file argument, the
// --text flag, or stdin.
func readDocument(cmd *cobra.Command, args []string, text string) (string, error) {
	if len(args) == 1 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("failed to read document %s: %w", args[0], err)
		}
		return string(data), nil
	}
	if text != "" {
		return text, nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("failed to read document from stdin: %w", err)
	}
	return string(data), nil
}

func writeResultFile(result *analysis.DocumentResult, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()
	return writeJSON(f, result)
}

// analyzeOutput adapts a DocumentResult for text and table rendering;
// JSON output uses the underlying result unchanged.
type analyzeOutput struct {
	*analysis.DocumentResult
}

func (o *analyzeOutput) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Citations: %d  (parallel: %d, verified: %d, unverified: %d, unique cases: %d)\n",
		o.Summary.TotalCitations, o.Summary.ParallelCitations,
		o.Summary.VerifiedCitations, o.Summary.UnverifiedCitations,
		o.Summary.UniqueCases)
	for _, r := range o.Results {
		marker := " "
		if r.Verified {
			marker = "+"
		} else if r.Source != "" && r.Source != "unavailable" {
			marker = "!"
		}
		name := r.CaseName
		if name == "" {
			name = "(no case name)"
		}
		fmt.Fprintf(&sb, "%s %-30s  %s", marker, r.Citation, name)
		if r.Date != "" {
			fmt.Fprintf(&sb, "  (%s)", r.Date)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (o *analyzeOutput) TableHeaders() []string {
	return []string{"CITATION", "CASE NAME", "DATE", "VERIFIED", "PARALLEL", "METHOD"}
}

func (o *analyzeOutput) TableRows() [][]string {
	rows := make([][]string, 0, len(o.Results))
	for _, r := range o.Results {
		rows = append(rows, []string{
			r.Citation,
			r.CaseName,
			r.Date,
			strconv.FormatBool(r.Verified),
			strconv.FormatBool(r.IsParallelCitation),
			r.Method,
		})
	}
	return rows
}
