package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"

	"github.com/sparkqual/sparkqual/pkg/analysis"
	"github.com/sparkqual/sparkqual/pkg/render"
	"github.com/sparkqual/sparkqual/pkg/report"
)

var qualificationPrint bool

var qualificationCmd = &cobra.Command{
	Use:   "qualification <event-log|dir|s3-uri>...",
	Short: "Score runs for acceleration suitability",
	Long: `Analyze event logs and compute a qualification score per
application: the share of total run time spent in SQL-dataframe
processing. Dataset-style executions and executions on failed jobs
contribute nothing, so high scores mark runs that translate well to
accelerated execution.

Rows from all applications union into one table, ordered by the
application index assigned from input order.

Examples:
  sparkqual qualification app1.log app2.log
  sparkqual qualification s3://logs/prod/ --format csv -o reports/`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQualification,
}

func init() {
	rootCmd.AddCommand(qualificationCmd)
	qualificationCmd.Flags().BoolVar(&qualificationPrint, "print", false,
		"Print the summary to stdout instead of a file")
}

func runQualification(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	format, err := render.ParseFormat(cfg.Output.Format)
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid --format value", err)
	}

	sessions, err := runBatch(ctx, args, false)
	if err != nil {
		return err
	}

	summary := unionQualification(sessions)

	if qualificationPrint {
		return render.WriteTitled(os.Stdout, "qualification_summary", summary, format)
	}

	if err := os.MkdirAll(cfg.Output.Dir, 0755); err != nil {
		return exitError(foundry.ExitFileWriteError, "Failed to create output directory", err)
	}
	path := filepath.Join(cfg.Output.Dir, "qualification_summary"+fileExt(format))
	if err := writeReportFile(path, summary, format); err != nil {
		return err
	}
	fmt.Printf("Wrote qualification summary to %s\n", path)
	return nil
}

// unionQualification stacks the per-application summary rows into one
// table. Column sets are identical across applications.
func unionQualification(sessions []*analysis.Session) report.Result {
	var out report.Result
	for _, sess := range sessions {
		res := report.QualificationSummary(sess.Store)
		if out.Columns == nil {
			out.Columns = res.Columns
		}
		out.Rows = append(out.Rows, res.Rows...)
	}
	return out
}
