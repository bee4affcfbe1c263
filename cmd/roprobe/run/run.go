package run

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"go.firedancer.io/roprobe/pkg/accounts"
	"go.firedancer.io/roprobe/pkg/harness"
	"k8s.io/klog/v2"
)

var Cmd = cobra.Command{
	Use:          "run [scenario...]",
	Short:        "Run probe scenarios",
	SilenceUsage: true,
	RunE:         run,
	Long: "Runs the built-in scenarios, or those of a YAML suite, against the sealevel runtime.\n" +
		"Scenario names given as arguments select a subset.",
}

var (
	scenarioFile  string
	parallel      int
	accountsDbDir string
	metricsOut    string
	verboseLogs   bool
	computeBudget uint64
)

func init() {
	Cmd.Flags().StringVarP(&scenarioFile, "scenarios", "f", "", "YAML scenario suite (default: built-in scenarios)")
	Cmd.Flags().IntVarP(&parallel, "parallel", "p", 4, "Number of scenarios to run concurrently")
	Cmd.Flags().StringVar(&accountsDbDir, "accounts-db", "", "Persist subject accounts to a database in this directory")
	Cmd.Flags().StringVar(&metricsOut, "metrics-out", "", "Write Prometheus text metrics to this file")
	Cmd.Flags().BoolVar(&verboseLogs, "verbose-logs", false, "Print program logs of every step")
	Cmd.Flags().Uint64Var(&computeBudget, "compute-budget", 0, "Compute units available per instruction (default 200000)")
}

func run(c *cobra.Command, args []string) error {
	ctx := c.Context()

	scenarios := harness.DefaultScenarios()
	if scenarioFile != "" {
		var err error
		scenarios, err = harness.LoadScenarioFile(scenarioFile)
		if err != nil {
			return err
		}
	}

	if len(args) > 0 {
		known := lo.Map(scenarios, func(sc harness.Scenario, _ int) string { return sc.Name })
		if missing, _ := lo.Difference(lo.Uniq(args), known); len(missing) > 0 {
			return fmt.Errorf("unknown scenarios: %v", missing)
		}
		scenarios = lo.Filter(scenarios, func(sc harness.Scenario, _ int) bool {
			return lo.Contains(args, sc.Name)
		})
	}

	var store accounts.Accounts
	if accountsDbDir != "" {
		db, err := accounts.OpenAccountsDb(accountsDbDir)
		if err != nil {
			return err
		}
		defer db.Close()
		klog.Infof("persisting subject accounts to %s", accountsDbDir)
		store = db
	} else {
		store = accounts.NewMemAccounts()
	}

	runner := harness.NewRunner(store)
	runner.Parallel = parallel
	runner.Metrics = harness.NewMetrics()
	if computeBudget != 0 {
		runner.ComputeBudget = computeBudget
	}

	klog.Infof("running %d scenarios on %d workers", len(scenarios), runner.Parallel)

	var progress *mpb.Progress
	var onDone func(harness.Result)
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		progress = mpb.NewWithContext(ctx, mpb.WithOutput(os.Stderr), mpb.WithWidth(48))
		bar := progress.AddBar(int64(len(scenarios)),
			mpb.PrependDecorators(
				decor.Name("scenarios "),
				decor.CountersNoUnit("%d / %d"),
			),
			mpb.AppendDecorators(decor.Percentage()),
		)
		onDone = func(harness.Result) { bar.Increment() }
	}

	results := runner.RunAll(ctx, scenarios, onDone)
	if progress != nil {
		progress.Wait()
	}

	if err := harness.WriteReport(os.Stdout, results, verboseLogs); err != nil {
		return err
	}

	if metricsOut != "" {
		if err := writeMetrics(runner.Metrics, metricsOut); err != nil {
			return err
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if summary := harness.Summarize(results); summary.Failed > 0 {
		return fmt.Errorf("%d of %d scenarios failed", summary.Failed, summary.Total)
	}
	return nil
}

func writeMetrics(m *harness.Metrics, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := m.WriteText(f); err != nil {
		f.Close()
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return f.Close()
}
