package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/CiteGuard/internal/domain/citation"
)

// NewVerifyCmd creates the verify command.
func NewVerifyCmd() *cobra.Command {
	var caseName string

	cmd := &cobra.Command{
		Use:   "verify <citation>",
		Short: "Verify one citation against the external database",
		Long:  "Look a single citation up in the configured case-law database and\nreport whether it exists.  An optional case name disambiguates\ncitations that resolve to several cases.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			svc, err := buildService(cliCtx, true)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cliCtx.Timeout)
			defer cancel()

			res, err := svc.VerifyCitation(ctx, args[0], caseName)
			if err != nil {
				return err
			}
			return PrintResult(cmd, &verifyOutput{Citation: args[0], Result: res})
		},
	}

	cmd.Flags().StringVar(&caseName, "case-name", "", "expected case name used to disambiguate lookups")

	return cmd
}

type verifyOutput struct {
	Citation string                 `json:"citation"`
	Result   *citation.LookupResult `json:"result"`
}

func (o *verifyOutput) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s\n", o.Citation, o.Result.Outcome)
	if o.Result.CaseName != "" {
		fmt.Fprintf(&sb, "  Case: %s\n", o.Result.CaseName)
	}
	if o.Result.Date != "" {
		fmt.Fprintf(&sb, "  Date: %s\n", o.Result.Date)
	}
	if o.Result.Court != "" {
		fmt.Fprintf(&sb, "  Court: %s\n", o.Result.Court)
	}
	if o.Result.URL != "" {
		fmt.Fprintf(&sb, "  URL: %s\n", o.Result.URL)
	}
	return sb.String()
}

func (o *verifyOutput) TableHeaders() []string {
	return []string{"CITATION", "OUTCOME", "CASE NAME", "DATE", "COURT"}
}

func (o *verifyOutput) TableRows() [][]string {
	return [][]string{{
		o.Citation,
		string(o.Result.Outcome),
		o.Result.CaseName,
		o.Result.Date,
		o.Result.Court,
	}}
}
