// harnessctl is the operator CLI: it sweeps expired spill files and
// evaluates permission rules offline, without a running agent session.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/driftlock/agent-harness/internal/permission"
	"github.com/driftlock/agent-harness/internal/truncate"
	"github.com/driftlock/agent-harness/internal/version"
)

var rootCmd = &cobra.Command{
	Use:           "harnessctl",
	Short:         "harnessctl - agent harness maintenance and policy inspection",
	Version:       version.GitCommit,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	sweepDir       string
	sweepRetention time.Duration
	sweepWatch     bool
	sweepSchedule  string
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Remove spill files older than the retention window",
	RunE:  runSweep,
}

var (
	checkRulesDir   string
	checkCapability string
	checkTarget     string
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Evaluate a capability and target against a rules directory",
	RunE:  runCheck,
}

func runSweep(cmd *cobra.Command, _ []string) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer logger.Sync()

	mgr, err := truncate.NewManager(sweepDir,
		truncate.WithRetention(sweepRetention),
		truncate.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("open spill directory: %w", err)
	}

	removed, err := mgr.CleanupOnce(time.Now())
	if err != nil {
		return fmt.Errorf("sweep: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "removed %d expired spill file(s) from %s\n", removed, mgr.Dir())

	if !sweepWatch {
		return nil
	}

	janitor, err := truncate.NewJanitor(mgr, sweepSchedule)
	if err != nil {
		return fmt.Errorf("schedule %q: %w", sweepSchedule, err)
	}
	janitor.Start()
	defer janitor.Stop()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	fmt.Fprintf(cmd.OutOrStdout(), "sweeping %s on schedule %q; interrupt to stop\n", mgr.Dir(), sweepSchedule)
	<-ctx.Done()
	return nil
}

func runCheck(cmd *cobra.Command, _ []string) error {
	capability, err := permission.ParseCapability(checkCapability)
	if err != nil {
		return err
	}

	rules := permission.DefaultRules()
	if checkRulesDir != "" {
		loaded, err := permission.LoadRuleFiles(checkRulesDir, permission.SourceConfig)
		if err != nil {
			return fmt.Errorf("load rules: %w", err)
		}
		rules = append(rules, loaded...)
	}

	ruleset := permission.NewRuleset(rules)
	eval := ruleset.Evaluate(capability, checkTarget)

	if eval.UsedFallback {
		fmt.Fprintf(cmd.OutOrStdout(), "%s (no rule matched, capability default)\n", eval.Decision)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (rule: %s %s %s, source %s)\n",
		eval.Decision, eval.Rule.Capability, eval.Rule.Pattern, eval.Rule.Decision, eval.Rule.Source)
	return nil
}

func init() {
	sweepCmd.Flags().StringVar(&sweepDir, "dir", "", "spill directory to sweep")
	sweepCmd.Flags().DurationVar(&sweepRetention, "retention", truncate.DefaultRetention, "retention window for spill files")
	sweepCmd.Flags().BoolVar(&sweepWatch, "watch", false, "keep running and sweep on a schedule")
	sweepCmd.Flags().StringVar(&sweepSchedule, "schedule", "@hourly", "cron schedule for --watch sweeps")
	_ = sweepCmd.MarkFlagRequired("dir")

	checkCmd.Flags().StringVar(&checkRulesDir, "rules", "", "directory of *.rules files (optional)")
	checkCmd.Flags().StringVar(&checkCapability, "capability", "", "capability to evaluate (read, write, bash, network, external_directory)")
	checkCmd.Flags().StringVar(&checkTarget, "target", "", "target path or command")
	_ = checkCmd.MarkFlagRequired("capability")
	_ = checkCmd.MarkFlagRequired("target")

	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(checkCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
