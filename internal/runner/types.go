package runner

import (
	"context"
	"time"
)

// Result represents the outcome of a test execution
type Result string

const (
	// ResultPassed indicates the test passed successfully
	ResultPassed Result = "passed"
	// ResultFailed indicates the test failed
	ResultFailed Result = "failed"
	// ResultSkipped indicates the test was skipped
	ResultSkipped Result = "skipped"
	// ResultError indicates an error occurred during test execution
	ResultError Result = "error"
)

// Category groups scenarios the way test markers group test cases
type Category string

const (
	// CategorySmoke covers fast sanity scenarios run on every deploy
	CategorySmoke Category = "smoke"
	// CategoryAPI covers endpoint-level request/response scenarios
	CategoryAPI Category = "api"
	// CategoryIntegration covers scenarios that cross the API/database boundary
	CategoryIntegration Category = "integration"
	// CategoryRegression covers scenarios pinned to previously fixed defects
	CategoryRegression Category = "regression"
	// CategorySlow covers long-running scenarios excluded from quick runs
	CategorySlow Category = "slow"
	// CategoryUnit covers scenarios exercising a single operation in isolation
	CategoryUnit Category = "unit"
)

// KnownCategories lists every category a scenario may declare.
var KnownCategories = []Category{
	CategorySmoke,
	CategoryAPI,
	CategoryIntegration,
	CategoryRegression,
	CategorySlow,
	CategoryUnit,
}

// Config holds the runtime settings for a suite run
type Config struct {
	// Timeout for the entire suite
	Timeout time.Duration `yaml:"timeout"`
	// Category filters scenarios by category (empty = all)
	Category Category `yaml:"category"`
	// Scenario filters to a specific scenario name (empty = all)
	Scenario string `yaml:"scenario"`
	// Tag filters scenarios carrying the given tag (empty = all)
	Tag string `yaml:"tag"`
	// Parallel is the number of scenarios to run concurrently
	Parallel int `yaml:"parallel"`
	// FailFast stops execution on the first failure
	FailFast bool `yaml:"failFast"`
	// Verbose enables detailed step output
	Verbose bool `yaml:"verbose"`
	// Debug enables debug logging
	Debug bool `yaml:"debug"`
	// ScenarioPath is the file or directory scenarios are loaded from
	ScenarioPath string `yaml:"scenarioPath"`
	// ReportPath is the directory the JSON report is written to (empty = none)
	ReportPath string `yaml:"reportPath"`
}

// Scenario is one YAML-defined test case: a named sequence of HTTP steps
// with expectations, optional database checks and cleanup steps.
type Scenario struct {
	// Name uniquely identifies the scenario
	Name string `yaml:"name"`
	// Category the scenario belongs to
	Category Category `yaml:"category"`
	// Description of what the scenario verifies
	Description string `yaml:"description,omitempty"`
	// Tags for additional filtering
	Tags []string `yaml:"tags,omitempty"`
	// Skip marks the scenario as skipped
	Skip bool `yaml:"skip,omitempty"`
	// SkipReason explains why the scenario is skipped
	SkipReason string `yaml:"skipReason,omitempty"`
	// Timeout for the whole scenario (0 = inherit from suite)
	Timeout time.Duration `yaml:"timeout,omitempty"`
	// Steps executed in order; the first failure stops the sequence
	Steps []Step `yaml:"steps"`
	// Cleanup steps always run after the main steps, even on failure
	Cleanup []Step `yaml:"cleanup,omitempty"`
}

// Step is a single HTTP exchange with its expectations
type Step struct {
	// ID uniquely identifies the step within the scenario
	ID string `yaml:"id"`
	// Description of what the step does
	Description string `yaml:"description,omitempty"`
	// Request describes the HTTP call to make
	Request Request `yaml:"request"`
	// Store saves the parsed response body under this variable name,
	// making its fields available to later steps as ${name.field}
	Store string `yaml:"store,omitempty"`
	// Expect holds the response expectations
	Expect Expectation `yaml:"expect,omitempty"`
	// DBChecks are database assertions run after the response checks
	DBChecks []DBCheck `yaml:"dbChecks,omitempty"`
	// Retry repeats the request until its condition holds
	Retry *RetryPolicy `yaml:"retry,omitempty"`
	// Timeout for this step (0 = inherit from scenario)
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// Request describes one HTTP call. Path and string body/query values may
// reference stored variables with ${name.field} placeholders.
type Request struct {
	// Method is the HTTP verb (GET, POST, PUT, PATCH, DELETE)
	Method string `yaml:"method"`
	// Path relative to the configured base URL
	Path string `yaml:"path"`
	// Query parameters appended to the URL
	Query map[string]string `yaml:"query,omitempty"`
	// Body is JSON-encoded and sent with POST/PUT/PATCH requests
	Body map[string]any `yaml:"body,omitempty"`
}

// Expectation describes what a step's response must look like
type Expectation struct {
	// Status is the expected HTTP status code (0 = not checked)
	Status int `yaml:"status,omitempty"`
	// Fields maps top-level JSON fields to their expected values
	Fields map[string]any `yaml:"fields,omitempty"`
	// Structure lists top-level JSON fields that must be present
	Structure []string `yaml:"structure,omitempty"`
	// Contains lists substrings the raw body must contain
	Contains []string `yaml:"contains,omitempty"`
	// NotContains lists substrings the raw body must not contain
	NotContains []string `yaml:"notContains,omitempty"`
	// ErrorMessage is the exact value of the body's "error" field;
	// requires Status to be set
	ErrorMessage string `yaml:"errorMessage,omitempty"`
}

// RetryPolicy repeats a step's request until the response meets the
// condition or the attempts are exhausted. Exhaustion without a transport
// error fails the step through its expectations, not the retry itself.
type RetryPolicy struct {
	// Attempts is the maximum number of tries
	Attempts int `yaml:"attempts"`
	// Delay is the base delay fed into the strategy
	Delay time.Duration `yaml:"delay,omitempty"`
	// Strategy names the backoff curve: fixed, exponential, linear,
	// random or fibonacci (default fixed)
	Strategy string `yaml:"strategy,omitempty"`
	// Timeout bounds the whole retry loop
	Timeout time.Duration `yaml:"timeout,omitempty"`
	// Until is an operator condition evaluated against the JSON body,
	// e.g. {"status": {"eq": "healthy"}}
	Until map[string]map[string]any `yaml:"until,omitempty"`
}

// DBCheck is one database assertion attached to a step
type DBCheck struct {
	// Kind names the assertion: record_exists, record_not_exists,
	// record_count, field_value, table_exists or column_exists
	Kind string `yaml:"kind"`
	// Table the assertion runs against
	Table string `yaml:"table"`
	// Where filters rows for record assertions; values may reference
	// stored variables
	Where map[string]any `yaml:"where,omitempty"`
	// Count is the expected row count for record_count
	Count int64 `yaml:"count,omitempty"`
	// Column is the column name for column_exists
	Column string `yaml:"column,omitempty"`
	// Field is the column checked by field_value
	Field string `yaml:"field,omitempty"`
	// Value is the expected value for field_value
	Value any `yaml:"value,omitempty"`
}

// SuiteResult aggregates the outcome of a whole run
type SuiteResult struct {
	// StartTime when the suite began
	StartTime time.Time `json:"start_time"`
	// EndTime when the suite completed
	EndTime time.Time `json:"end_time"`
	// Duration of the entire run
	Duration time.Duration `json:"duration"`
	// TotalScenarios that were selected to run
	TotalScenarios int `json:"total_scenarios"`
	// PassedScenarios count
	PassedScenarios int `json:"passed_scenarios"`
	// FailedScenarios count
	FailedScenarios int `json:"failed_scenarios"`
	// SkippedScenarios count
	SkippedScenarios int `json:"skipped_scenarios"`
	// ErrorScenarios count
	ErrorScenarios int `json:"error_scenarios"`
	// ScenarioResults holds the individual outcomes
	ScenarioResults []ScenarioResult `json:"scenario_results"`
	// Configuration the suite ran with
	Configuration Config `json:"configuration"`
}

// ScenarioResult is the outcome of one scenario
type ScenarioResult struct {
	// Scenario that was executed
	Scenario Scenario `json:"scenario"`
	// Result of the execution
	Result Result `json:"result"`
	// LogID correlating every log line of this scenario
	LogID string `json:"log_id"`
	// StartTime when the scenario began
	StartTime time.Time `json:"start_time"`
	// EndTime when the scenario completed
	EndTime time.Time `json:"end_time"`
	// Duration of the scenario
	Duration time.Duration `json:"duration"`
	// StepResults holds the individual step outcomes
	StepResults []StepResult `json:"step_results"`
	// Error message when the scenario failed or errored
	Error string `json:"error,omitempty"`
}

// StepResult is the outcome of one step
type StepResult struct {
	// Step that was executed
	Step Step `json:"step"`
	// Result of the execution
	Result Result `json:"result"`
	// StartTime when the step began
	StartTime time.Time `json:"start_time"`
	// EndTime when the step completed
	EndTime time.Time `json:"end_time"`
	// Duration of the step
	Duration time.Duration `json:"duration"`
	// StatusCode of the HTTP response, 0 when the request never landed
	StatusCode int `json:"status_code,omitempty"`
	// Attempts made, counting the first try
	Attempts int `json:"attempts"`
	// Error message when the step failed or errored
	Error string `json:"error,omitempty"`
}

// Runner executes scenarios according to a configuration
type Runner interface {
	// Run executes the scenarios and returns the aggregated result
	Run(ctx context.Context, cfg Config, scenarios []Scenario) (*SuiteResult, error)
}

// Loader loads and filters scenario definitions
type Loader interface {
	// Load reads scenarios from a YAML file or a directory of YAML files
	Load(path string) ([]Scenario, error)
	// Filter returns the scenarios matching the configuration
	Filter(scenarios []Scenario, cfg Config) []Scenario
}

// Reporter receives execution events for output
type Reporter interface {
	// ReportStart is called once before any scenario runs
	ReportStart(cfg Config)
	// ReportScenarioStart is called when a scenario begins
	ReportScenarioStart(scenario Scenario)
	// ReportStepResult is called when a step completes
	ReportStepResult(result StepResult)
	// ReportScenarioResult is called when a scenario completes
	ReportScenarioResult(result ScenarioResult)
	// ReportSuiteResult is called once after the whole run
	ReportSuiteResult(result SuiteResult)
	// SetParallelMode tells the reporter whether output may interleave
	SetParallelMode(parallel bool)
}
