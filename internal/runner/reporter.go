package runner

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// consoleReporter implements the Reporter interface for interactive runs
type consoleReporter struct {
	verbose      bool
	debug        bool
	reportPath   string
	parallelMode bool
	// startBuffers holds scenario start lines so parallel workers do not
	// interleave their output
	startBuffers map[string]string
	bufferMutex  sync.Mutex
}

// NewConsoleReporter creates the default stdout reporter. When reportPath
// is non-empty a timestamped JSON report is written there after the run.
func NewConsoleReporter(verbose, debug bool, reportPath string) Reporter {
	return &consoleReporter{
		verbose:      verbose,
		debug:        debug,
		reportPath:   reportPath,
		startBuffers: make(map[string]string),
	}
}

// SetParallelMode enables or disables parallel output buffering
func (r *consoleReporter) SetParallelMode(parallel bool) {
	r.bufferMutex.Lock()
	defer r.bufferMutex.Unlock()

	r.parallelMode = parallel
	if parallel {
		r.startBuffers = make(map[string]string)
	}
}

// ReportStart is called once before any scenario runs
func (r *consoleReporter) ReportStart(cfg Config) {
	fmt.Printf("🧪 Starting test run\n")

	if r.verbose {
		fmt.Printf("\n⚙️  Configuration:\n")
		fmt.Printf("   • Category: %s\n", stringOrDefault(string(cfg.Category), "all"))
		fmt.Printf("   • Scenario: %s\n", stringOrDefault(cfg.Scenario, "all"))
		fmt.Printf("   • Tag: %s\n", stringOrDefault(cfg.Tag, "all"))
		fmt.Printf("   • Parallel workers: %d\n", cfg.Parallel)
		fmt.Printf("   • Fail fast: %t\n", cfg.FailFast)
		fmt.Printf("   • Timeout: %v\n", cfg.Timeout)
		if cfg.ScenarioPath != "" {
			fmt.Printf("   • Scenario path: %s\n", cfg.ScenarioPath)
		}
		if cfg.ReportPath != "" {
			fmt.Printf("   • Report path: %s\n", cfg.ReportPath)
		}
		fmt.Printf("\n")
	}
}

// ReportScenarioStart is called when a scenario begins
func (r *consoleReporter) ReportScenarioStart(scenario Scenario) {
	if r.verbose {
		fmt.Printf("🎯 Starting scenario: %s (%s)\n", scenario.Name, scenario.Category)
		if scenario.Description != "" {
			fmt.Printf("   📝 %s\n", scenario.Description)
		}
		if len(scenario.Tags) > 0 {
			fmt.Printf("   🏷️  Tags: %s\n", strings.Join(scenario.Tags, ", "))
		}
		fmt.Printf("   📋 Steps: %d\n", len(scenario.Steps))
		if len(scenario.Cleanup) > 0 {
			fmt.Printf("   🧹 Cleanup steps: %d\n", len(scenario.Cleanup))
		}
		fmt.Printf("\n")
		return
	}

	if r.parallelMode {
		r.bufferMutex.Lock()
		r.startBuffers[scenario.Name] = fmt.Sprintf("🎯 %s... ", scenario.Name)
		r.bufferMutex.Unlock()
	} else {
		fmt.Printf("🎯 %s... ", scenario.Name)
	}
}

// ReportStepResult is called when a step completes
func (r *consoleReporter) ReportStepResult(stepResult StepResult) {
	if !r.verbose {
		return
	}

	fmt.Printf("   %s Step: %s (%v)\n",
		resultSymbol(stepResult.Result), stepResult.Step.ID, stepResult.Duration)
	if stepResult.Step.Description != "" {
		fmt.Printf("      📝 %s\n", stepResult.Step.Description)
	}
	fmt.Printf("      🔧 %s %s\n", stepResult.Step.Request.Method, stepResult.Step.Request.Path)
	if stepResult.StatusCode > 0 {
		fmt.Printf("      📤 Status: %d\n", stepResult.StatusCode)
	}
	if stepResult.Attempts > 1 {
		fmt.Printf("      🔄 Attempts: %d\n", stepResult.Attempts)
	}
	if len(stepResult.Step.DBChecks) > 0 {
		fmt.Printf("      🗄️  DB checks: %d\n", len(stepResult.Step.DBChecks))
	}
	if stepResult.Error != "" {
		fmt.Printf("      ❌ Error: %s\n", stepResult.Error)
	}
	fmt.Printf("\n")
}

// ReportScenarioResult is called when a scenario completes
func (r *consoleReporter) ReportScenarioResult(scenarioResult ScenarioResult) {
	symbol := resultSymbol(scenarioResult.Result)

	if r.verbose {
		fmt.Printf("%s Scenario completed: %s (%v)\n",
			symbol, scenarioResult.Scenario.Name, scenarioResult.Duration)
		if scenarioResult.LogID != "" {
			fmt.Printf("   🔗 LogID: %s\n", scenarioResult.LogID)
		}
		if scenarioResult.Error != "" {
			fmt.Printf("   ❌ Error: %s\n", scenarioResult.Error)
		}

		passed, failed, errors := 0, 0, 0
		for _, stepResult := range scenarioResult.StepResults {
			switch stepResult.Result {
			case ResultPassed:
				passed++
			case ResultFailed:
				failed++
			case ResultError:
				errors++
			}
		}
		fmt.Printf("   📊 Steps: %d total", len(scenarioResult.StepResults))
		if passed > 0 {
			fmt.Printf(", %d passed", passed)
		}
		if failed > 0 {
			fmt.Printf(", %d failed", failed)
		}
		if errors > 0 {
			fmt.Printf(", %d errors", errors)
		}
		fmt.Printf("\n\n")
		return
	}

	if r.parallelMode {
		r.bufferMutex.Lock()
		start, exists := r.startBuffers[scenarioResult.Scenario.Name]
		if exists {
			delete(r.startBuffers, scenarioResult.Scenario.Name)
		}
		r.bufferMutex.Unlock()

		if exists {
			fmt.Printf("%s%s (%v)\n", start, symbol, scenarioResult.Duration)
		} else {
			fmt.Printf("🎯 %s... %s (%v)\n", scenarioResult.Scenario.Name, symbol, scenarioResult.Duration)
		}
	} else {
		fmt.Printf("%s (%v)\n", symbol, scenarioResult.Duration)
	}
}

// ReportSuiteResult is called once after the whole run
func (r *consoleReporter) ReportSuiteResult(suiteResult SuiteResult) {
	fmt.Printf("\n🏁 Test Run Complete (%v)\n\n", suiteResult.Duration)

	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"Scenario", "Category", "Result", "Duration"})
	for _, sr := range suiteResult.ScenarioResults {
		tw.AppendRow(table.Row{
			sr.Scenario.Name,
			sr.Scenario.Category,
			coloredResult(sr.Result),
			sr.Duration.Round(time.Millisecond),
		})
	}
	tw.AppendFooter(table.Row{"Total", "", r.footerSummary(suiteResult), ""})
	tw.SetStyle(table.StyleLight)
	tw.Render()

	successRate := 0.0
	if suiteResult.TotalScenarios > 0 {
		successRate = float64(suiteResult.PassedScenarios) / float64(suiteResult.TotalScenarios) * 100
	}
	fmt.Printf("\n📏 Success rate: %.1f%%\n", successRate)

	if suiteResult.FailedScenarios == 0 && suiteResult.ErrorScenarios == 0 {
		fmt.Printf("🎉 All tests passed!\n")
	} else {
		fmt.Printf("💔 Some tests failed\n")
	}

	if r.reportPath != "" {
		path, err := SaveReport(r.reportPath, suiteResult)
		if err != nil {
			fmt.Printf("⚠️  Failed to save report: %v\n", err)
		} else {
			fmt.Printf("📄 Report saved to: %s\n", path)
		}
	}
}

func (r *consoleReporter) footerSummary(suiteResult SuiteResult) string {
	parts := []string{fmt.Sprintf("%d passed", suiteResult.PassedScenarios)}
	if suiteResult.FailedScenarios > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", suiteResult.FailedScenarios))
	}
	if suiteResult.ErrorScenarios > 0 {
		parts = append(parts, fmt.Sprintf("%d errors", suiteResult.ErrorScenarios))
	}
	if suiteResult.SkippedScenarios > 0 {
		parts = append(parts, fmt.Sprintf("%d skipped", suiteResult.SkippedScenarios))
	}
	return strings.Join(parts, ", ")
}

// SaveReport writes a timestamped JSON report into dir and returns the
// full path of the written file.
func SaveReport(dir string, suiteResult SuiteResult) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	filename := fmt.Sprintf("pte-report-%s.json", time.Now().Format("20060102-150405"))
	path := filepath.Join(dir, filename)

	data, err := json.MarshalIndent(suiteResult, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}

	return path, nil
}

func resultSymbol(result Result) string {
	switch result {
	case ResultPassed:
		return "✅"
	case ResultFailed:
		return "❌"
	case ResultSkipped:
		return "⏭️"
	case ResultError:
		return "💥"
	default:
		return "❓"
	}
}

func coloredResult(result Result) string {
	switch result {
	case ResultPassed:
		return text.FgGreen.Sprint(result)
	case ResultFailed, ResultError:
		return text.FgRed.Sprint(result)
	case ResultSkipped:
		return text.FgYellow.Sprint(result)
	default:
		return string(result)
	}
}

func stringOrDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// NewQuietReporter creates a reporter that only surfaces failures and the
// final summary, for CI use.
func NewQuietReporter() Reporter {
	return &quietReporter{}
}

type quietReporter struct{}

func (r *quietReporter) ReportStart(cfg Config)                 {}
func (r *quietReporter) ReportScenarioStart(scenario Scenario)  {}
func (r *quietReporter) ReportStepResult(stepResult StepResult) {}

func (r *quietReporter) ReportScenarioResult(scenarioResult ScenarioResult) {
	if scenarioResult.Result == ResultFailed || scenarioResult.Result == ResultError {
		fmt.Printf("%s %s: %s\n",
			resultSymbol(scenarioResult.Result), scenarioResult.Scenario.Name, scenarioResult.Error)
	}
}

func (r *quietReporter) ReportSuiteResult(suiteResult SuiteResult) {
	if suiteResult.FailedScenarios == 0 && suiteResult.ErrorScenarios == 0 {
		fmt.Printf("✅ All %d tests passed (%v)\n", suiteResult.TotalScenarios, suiteResult.Duration)
	} else {
		fmt.Printf("❌ %d/%d tests failed (%v)\n",
			suiteResult.FailedScenarios+suiteResult.ErrorScenarios,
			suiteResult.TotalScenarios,
			suiteResult.Duration)
	}
}

func (r *quietReporter) SetParallelMode(parallel bool) {}
