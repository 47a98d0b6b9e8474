package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sparkqual/sparkqual/internal/observability"
	"github.com/sparkqual/sparkqual/pkg/analysis"
	"github.com/sparkqual/sparkqual/pkg/render"
	"github.com/sparkqual/sparkqual/pkg/report"
	"github.com/sparkqual/sparkqual/pkg/store"
)

var (
	profileAccelerated bool
	profilePrint       bool
	profileGraphs      bool
)

var profileCmd = &cobra.Command{
	Use:   "profile <event-log|dir|s3-uri>...",
	Short: "Produce diagnostic reports for one or more runs",
	Long: `Analyze event logs and write the full diagnostic report set per
application: timing, executors, failures, shuffle skew, and grouped
task metrics at job, stage, and SQL granularity.

Examples:
  # Profile a single log
  sparkqual profile app.log

  # Profile every log under a directory, writing CSV
  sparkqual profile ./eventlogs --format csv -o reports/

  # Profile an accelerated run and list unsupported plan nodes
  sparkqual profile app.log --accelerated`,
	Args: cobra.MinimumNArgs(1),
	RunE: runProfile,
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.Flags().BoolVar(&profileAccelerated, "accelerated", false,
		"Treat runs as accelerated-execution and report unsupported plan nodes")
	profileCmd.Flags().BoolVar(&profilePrint, "print", false, "Print reports to stdout instead of files")
	profileCmd.Flags().BoolVar(&profileGraphs, "graphs", false, "Export per-SQL plan graphs in DOT form")
}

// profileReports lists the per-application reports in output order.
var profileReports = []struct {
	name string
	fn   func(*store.Store) report.Result
}{
	{"application_information", report.ApplicationInfo},
	{"executor_information", report.ExecutorInfo},
	{"property_information", propertiesReport},
	{"job_information", report.JobMapping},
	{"sql_plan_metrics", report.SQLPlanMetrics},
	{"job_aggregate_metrics", report.JobAggregates},
	{"stage_aggregate_metrics", report.StageAggregates},
	{"sql_aggregate_metrics", report.SQLAggregates},
	{"failed_tasks", report.FailedTasks},
	{"failed_stages", report.FailedStages},
	{"failed_jobs", report.FailedJobs},
	{"removed_executors", report.RemovedExecutors},
	{"removed_block_managers", report.RemovedBlockManagers},
	{"unsupported_plan_nodes", report.UnsupportedNodes},
	{"shuffle_skew", report.ShuffleSkew},
}

// propertiesReport lists every captured property. The empty filter
// compiles no glob, so the error branch is unreachable here.
func propertiesReport(st *store.Store) report.Result {
	res, _ := report.Properties(st, report.PropertyFilter{})
	return res
}

func runProfile(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	format, err := render.ParseFormat(cfg.Output.Format)
	if err != nil {
		return exitError(foundry.ExitInvalidArgument, "Invalid --format value", err)
	}

	sessions, err := runBatch(ctx, args, profileAccelerated)
	if err != nil {
		return err
	}

	for _, sess := range sessions {
		if profilePrint {
			if err := printProfile(sess, format); err != nil {
				return err
			}
			continue
		}
		if err := writeProfile(sess, format); err != nil {
			return err
		}
	}
	return nil
}

func printProfile(sess *analysis.Session, format render.Format) error {
	fmt.Printf("=== %s ===\n", sess.SourceName)
	for _, r := range profileReports {
		if err := render.WriteTitled(os.Stdout, r.name, r.fn(sess.Store), format); err != nil {
			return err
		}
		fmt.Println()
	}
	return nil
}

func writeProfile(sess *analysis.Session, format render.Format) error {
	dir := filepath.Join(cfg.Output.Dir, appDirName(sess))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return exitError(foundry.ExitFileWriteError, "Failed to create output directory", err)
	}

	ext := fileExt(format)
	for _, r := range profileReports {
		path := filepath.Join(dir, r.name+ext)
		if err := writeReportFile(path, r.fn(sess.Store), format); err != nil {
			return err
		}
	}

	for sqlID, desc := range report.PlanDescriptions(sess.Store) {
		path := filepath.Join(dir, "plan_description_sql_"+strconv.FormatInt(sqlID, 10)+".txt")
		if err := os.WriteFile(path, []byte(desc), 0644); err != nil {
			return exitError(foundry.ExitFileWriteError, "Failed to write plan description", err)
		}
		if profileGraphs {
			dot := report.PlanGraphDOT(sess.Store, sqlID)
			path := filepath.Join(dir, "plan_graph_sql_"+strconv.FormatInt(sqlID, 10)+".dot")
			if err := os.WriteFile(path, []byte(dot), 0644); err != nil {
				return exitError(foundry.ExitFileWriteError, "Failed to write plan graph", err)
			}
		}
	}

	observability.CLILogger.Info("Wrote profile reports",
		zap.String("source", sess.SourceName),
		zap.String("dir", dir))
	return nil
}

func writeReportFile(path string, res report.Result, format render.Format) error {
	f, err := os.Create(path)
	if err != nil {
		return exitError(foundry.ExitFileWriteError, "Failed to create report file", err)
	}
	if err := render.Write(f, res, format); err != nil {
		_ = f.Close()
		return fmt.Errorf("render %s: %w", path, err)
	}
	return f.Close()
}

func appDirName(sess *analysis.Session) string {
	if app := sess.Store.App; app != nil && app.AppID != "" {
		return app.AppID
	}
	return "app-" + strconv.Itoa(sess.Store.AppIndex)
}

func fileExt(format render.Format) string {
	switch format {
	case render.FormatCSV:
		return ".csv"
	case render.FormatJSON:
		return ".json"
	case render.FormatYAML:
		return ".yaml"
	default:
		return ".txt"
	}
}
