package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"pte/internal/api"
	"pte/internal/config"
	"pte/internal/db"
	"pte/internal/runner"
	"pte/pkg/logging"
)

var (
	runIDC          string
	runEnv          string
	runBaseURL      string
	runTimeout      int
	runRetryCount   int
	runScenarioPath string
	runScenario     string
	runCategory     string
	runTag          string
	runParallel     int
	runFailFast     bool
	runVerbose      bool
	runDebug        bool
	runQuiet        bool
	runReportPath   string
	runSuiteTimeout time.Duration
	runWithDB       bool
)

// completeCategoryFlag provides shell completion for the category flag
func completeCategoryFlag(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	names := make([]string, len(runner.KnownCategories))
	for i, c := range runner.KnownCategories {
		names[i] = string(c)
	}
	return names, cobra.ShellCompDirectiveDefault
}

// completeScenarioFlag provides shell completion for the scenario flag by
// loading the available scenarios
func completeScenarioFlag(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	scenarios, err := runner.NewLoader(false).Load(scenarioPathOrDefault())
	if err != nil {
		return []string{}, cobra.ShellCompDirectiveDefault
	}
	return runner.ScenarioNames(scenarios), cobra.ShellCompDirectiveDefault
}

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute test scenarios against the configured service",
	Long: `The run command loads YAML test scenarios and executes them against the
service selected by the active IDC configuration.

Scenarios are filtered by category, tag or name. Each scenario runs under
its own LogID; its buffered log lines are flushed as one consolidated block
when the scenario completes. With --with-db the runner also executes the
database checks scenarios declare, using the MySQL connection from the IDC
configuration.

Example usage:
  pte run                                # Run all scenarios
  pte run --category=smoke               # Run smoke scenarios only
  pte run --scenario=user-crud           # Run a specific scenario
  pte run --tag=users                    # Run scenarios tagged 'users'
  pte run --parallel=5 --fail-fast       # Parallel run, stop on failure
  pte run --idc=gcp_offline --env=staging
  pte run --base-url=http://localhost:5001
  pte run --with-db --report=reports     # DB checks plus a JSON report`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	// Target selection; these flags feed the configuration loader and win
	// over environment variables and files.
	runCmd.Flags().StringVar(&runIDC, "idc", "", "IDC to target (overrides env.yaml and TEST_IDC)")
	runCmd.Flags().StringVar(&runEnv, "env", "", "Environment within the IDC (overrides env.yaml and TEST_ENV)")
	runCmd.Flags().StringVar(&runBaseURL, "base-url", "", "Service base URL (overrides the IDC host)")
	runCmd.Flags().IntVar(&runTimeout, "timeout", 0, "Request timeout in seconds (overrides the IDC setting)")
	runCmd.Flags().IntVar(&runRetryCount, "retry-count", 0, "Per-request retry budget (overrides the IDC setting)")

	// Scenario selection and filtering
	runCmd.Flags().StringVar(&runScenarioPath, "scenarios", "", "Scenario file or directory (default: scenarios)")
	runCmd.Flags().StringVar(&runScenario, "scenario", "", "Run a specific scenario by name")
	runCmd.Flags().StringVar(&runCategory, "category", "", "Run scenarios of a specific category")
	runCmd.Flags().StringVar(&runTag, "tag", "", "Run scenarios carrying a specific tag")

	// Execution control
	runCmd.Flags().IntVar(&runParallel, "parallel", 1, "Number of parallel workers (1-50)")
	runCmd.Flags().BoolVar(&runFailFast, "fail-fast", false, "Stop execution on the first failure")
	runCmd.Flags().DurationVar(&runSuiteTimeout, "suite-timeout", 10*time.Minute, "Overall execution timeout")
	runCmd.Flags().BoolVar(&runWithDB, "with-db", false, "Connect to MySQL and execute database checks")

	// Output and reporting
	runCmd.Flags().BoolVar(&runVerbose, "verbose", false, "Enable verbose step output")
	runCmd.Flags().BoolVar(&runDebug, "debug", false, "Enable debug logging")
	runCmd.Flags().BoolVar(&runQuiet, "quiet", false, "Only report failures and the final summary")
	runCmd.Flags().StringVar(&runReportPath, "report", "", "Directory to save the JSON report to (default: stdout only)")

	_ = runCmd.RegisterFlagCompletionFunc("category", completeCategoryFlag)
	_ = runCmd.RegisterFlagCompletionFunc("scenario", completeScenarioFlag)

	runCmd.MarkFlagsMutuallyExclusive("quiet", "verbose")

	runCmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		if runParallel < 1 || runParallel > 50 {
			return fmt.Errorf("parallel workers must be between 1 and 50, got %d", runParallel)
		}
		return nil
	}
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Handle interrupts gracefully.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nReceived interrupt signal, stopping tests gracefully...")
		cancel()
	}()

	loader, err := config.Load(configDir, cmd.Flags())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	// An invalid configuration maps to ExitCodeConfigInvalid through
	// getExitCode, so broken IDC files fail before anything runs.
	if err := loader.Validate(); err != nil {
		return err
	}
	resolved, err := loader.Resolved()
	if err != nil {
		return err
	}

	// Route buffered logs into the configured log directory for the whole run.
	sinkCfg := logging.DefaultFileConfig()
	sinkCfg.Directory = resolved.TestConfig.LogDir
	sink, err := logging.NewFileSink(sinkCfg)
	if err != nil {
		fmt.Printf("⚠️  File logging disabled: %v\n", err)
	} else {
		logging.SetDefault(logging.NewLoggerWithSink(sink))
		defer func() { _ = logging.Default().Close() }()
	}

	client := api.NewClientFromConfig(resolved)

	var dbc *db.Checker
	if runWithDB {
		dbc, err = db.Open(resolved.Database)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
	}

	framework := runner.NewFrameworkWithDatabase(client, dbc, runVerbose, runDebug, runReportPath)
	if runQuiet {
		framework.Reporter = runner.NewQuietReporter()
		framework.Runner = runner.NewRunnerWithDatabase(client, framework.Loader, framework.Reporter, dbc, runDebug)
	}
	defer func() { _ = framework.Close() }()

	runCfg := runner.Config{
		Timeout:      runSuiteTimeout,
		Category:     runner.Category(runCategory),
		Scenario:     runScenario,
		Tag:          runTag,
		Parallel:     runParallel,
		FailFast:     runFailFast,
		Verbose:      runVerbose,
		Debug:        runDebug,
		ScenarioPath: scenarioPathOrDefault(),
		ReportPath:   runReportPath,
	}
	if err := runner.ValidateConfig(runCfg); err != nil {
		return err
	}

	scenarios, err := framework.Loader.Load(runCfg.ScenarioPath)
	if err != nil {
		return fmt.Errorf("failed to load test scenarios: %w", err)
	}
	if len(scenarios) == 0 {
		fmt.Printf("⚠️  No test scenarios found in %s\n", runCfg.ScenarioPath)
		return nil
	}

	fmt.Printf("🌐 Target: %s (%s/%s)\n", resolved.Host, resolved.IDC, resolved.Env)

	result, err := framework.Runner.Run(ctx, runCfg, scenarios)
	if err != nil {
		return fmt.Errorf("test execution failed: %w", err)
	}

	if result.FailedScenarios > 0 || result.ErrorScenarios > 0 {
		os.Exit(ExitCodeError)
	}

	return nil
}

func scenarioPathOrDefault() string {
	if runScenarioPath != "" {
		return runScenarioPath
	}
	return runner.DefaultScenarioPath()
}
