package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"pte/internal/api"
	"pte/internal/check"
	"pte/internal/db"
	"pte/internal/retry"
	"pte/pkg/logging"
)

// testRunner implements the Runner interface
type testRunner struct {
	client   *api.Client
	loader   Loader
	reporter Reporter
	dbc      *db.Checker
	debug    bool
	logger   *logging.Logger
}

// NewRunner creates a runner without database access; scenarios declaring
// db checks will error at execution time.
func NewRunner(client *api.Client, loader Loader, reporter Reporter, debug bool) Runner {
	return NewRunnerWithDatabase(client, loader, reporter, nil, debug)
}

// NewRunnerWithDatabase creates a runner that can execute database checks.
func NewRunnerWithDatabase(client *api.Client, loader Loader, reporter Reporter, dbc *db.Checker, debug bool) Runner {
	return &testRunner{
		client:   client,
		loader:   loader,
		reporter: reporter,
		dbc:      dbc,
		debug:    debug,
		logger:   logging.Default(),
	}
}

// Run executes the scenarios according to the configuration
func (r *testRunner) Run(ctx context.Context, cfg Config, scenarios []Scenario) (*SuiteResult, error) {
	result := &SuiteResult{
		StartTime:       time.Now(),
		ScenarioResults: make([]ScenarioResult, 0, len(scenarios)),
		Configuration:   cfg,
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	r.reporter.ReportStart(cfg)

	selected := r.loader.Filter(scenarios, cfg)
	result.TotalScenarios = len(selected)

	if len(selected) == 0 {
		result.EndTime = time.Now()
		result.Duration = result.EndTime.Sub(result.StartTime)
		r.reporter.ReportSuiteResult(*result)
		return result, nil
	}

	if cfg.Parallel <= 1 {
		r.reporter.SetParallelMode(false)
		for _, scenario := range selected {
			scenarioResult := r.runScenario(ctx, scenario, cfg)
			result.ScenarioResults = append(result.ScenarioResults, scenarioResult)
			r.updateCounters(result, scenarioResult)
			r.reporter.ReportScenarioResult(scenarioResult)

			if cfg.FailFast && (scenarioResult.Result == ResultFailed || scenarioResult.Result == ResultError) {
				break
			}
		}
	} else {
		r.reporter.SetParallelMode(true)
		result.ScenarioResults = r.runParallel(ctx, selected, cfg, result)
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)

	r.reporter.ReportSuiteResult(*result)

	return result, nil
}

// runParallel executes scenarios through a bounded worker pool. Results are
// collected and reported as they arrive; fail-fast breaks out of reporting
// while the remaining workers drain naturally.
func (r *testRunner) runParallel(ctx context.Context, scenarios []Scenario, cfg Config, suite *SuiteResult) []ScenarioResult {
	workers := cfg.Parallel
	if workers > len(scenarios) {
		workers = len(scenarios)
	}

	resultChan := make(chan ScenarioResult, len(scenarios))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, scenario := range scenarios {
		scenario := scenario
		g.Go(func() error {
			resultChan <- r.runScenario(gctx, scenario, cfg)
			return nil
		})
	}
	go func() {
		_ = g.Wait()
		close(resultChan)
	}()

	var results []ScenarioResult
	for scenarioResult := range resultChan {
		results = append(results, scenarioResult)
		r.updateCounters(suite, scenarioResult)
		r.reporter.ReportScenarioResult(scenarioResult)

		if cfg.FailFast && (scenarioResult.Result == ResultFailed || scenarioResult.Result == ResultError) {
			break
		}
	}

	// Collect whatever the remaining workers produced without reporting it.
	for scenarioResult := range resultChan {
		results = append(results, scenarioResult)
	}

	return results
}

// runScenario executes a single scenario under its own LogID so every log
// line of the scenario, across parallel workers, stays correlated.
func (r *testRunner) runScenario(ctx context.Context, scenario Scenario, cfg Config) ScenarioResult {
	result := ScenarioResult{
		Scenario:    scenario,
		StartTime:   time.Now(),
		StepResults: make([]StepResult, 0, len(scenario.Steps)),
		Result:      ResultPassed,
	}

	r.reporter.ReportScenarioStart(scenario)

	if scenario.Skip {
		result.Result = ResultSkipped
		result.Error = scenario.SkipReason
		result.EndTime = time.Now()
		result.Duration = result.EndTime.Sub(result.StartTime)
		return result
	}

	// The scoped logger shares the default logger's file sink so the
	// scenario's lines land in the configured log files too.
	logger := logging.NewScoped()
	result.LogID = logger.LogID()
	logger.TestStart(scenario.Name)

	client := r.client.Scoped(logger)

	scenarioCtx := ctx
	if scenario.Timeout > 0 {
		var cancel context.CancelFunc
		scenarioCtx, cancel = context.WithTimeout(ctx, scenario.Timeout)
		defer cancel()
	}

	vars := newScenarioVars()

	for _, step := range scenario.Steps {
		stepResult := r.runStep(scenarioCtx, step, client, logger, vars)
		result.StepResults = append(result.StepResults, stepResult)
		r.reporter.ReportStepResult(stepResult)

		if stepResult.Result == ResultFailed || stepResult.Result == ResultError {
			result.Result = stepResult.Result
			result.Error = stepResult.Error
			break
		}
	}

	// Cleanup steps always run, so a failed scenario does not leak test data.
	for _, step := range scenario.Cleanup {
		stepResult := r.runStep(scenarioCtx, step, client, logger, vars)
		result.StepResults = append(result.StepResults, stepResult)
		r.reporter.ReportStepResult(stepResult)

		if stepResult.Result == ResultFailed || stepResult.Result == ResultError {
			if result.Result == ResultPassed {
				result.Result = stepResult.Result
				result.Error = stepResult.Error
			}
		}
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)

	logger.TestComplete(scenario.Name, result.Result == ResultPassed)

	return result
}

// runStep executes one HTTP exchange with retries, expectations and
// database checks.
func (r *testRunner) runStep(ctx context.Context, step Step, client *api.Client, logger *logging.Logger, vars *scenarioVars) StepResult {
	result := StepResult{
		Step:      step,
		StartTime: time.Now(),
		Result:    ResultPassed,
		Attempts:  1,
	}
	finish := func() StepResult {
		result.EndTime = time.Now()
		result.Duration = result.EndTime.Sub(result.StartTime)
		logger.Assertion(fmt.Sprintf("step %s", step.ID), result.Result == ResultPassed)
		return result
	}

	stepCtx := ctx
	if step.Timeout > 0 {
		var cancel context.CancelFunc
		stepCtx, cancel = context.WithTimeout(ctx, step.Timeout)
		defer cancel()
	}

	req, err := resolveRequest(step.Request, vars)
	if err != nil {
		result.Result = ResultError
		result.Error = err.Error()
		return finish()
	}

	resp, attempts, err := r.execute(stepCtx, client, logger, req, step.Retry)
	result.Attempts = attempts
	if err != nil {
		result.Result = ResultError
		result.Error = fmt.Sprintf("request failed: %v", err)
		return finish()
	}
	result.StatusCode = resp.StatusCode

	if step.Store != "" {
		vars.Store(step.Store, parseBody(resp.Body))
	}

	if err := checkExpectation(resp, step.Expect); err != nil {
		result.Result = ResultFailed
		result.Error = err.Error()
		return finish()
	}

	if len(step.DBChecks) > 0 {
		if r.dbc == nil {
			result.Result = ResultError
			result.Error = "step declares db checks but the runner has no database connection"
			return finish()
		}
		for _, dbc := range step.DBChecks {
			if err := r.runDBCheck(stepCtx, dbc, vars); err != nil {
				result.Result = ResultFailed
				result.Error = err.Error()
				return finish()
			}
		}
	}

	return finish()
}

// resolvedRequest is a request with all variable references substituted
type resolvedRequest struct {
	method string
	path   string
	query  url.Values
	body   map[string]any
}

func resolveRequest(req Request, vars *scenarioVars) (resolvedRequest, error) {
	out := resolvedRequest{method: strings.ToUpper(req.Method)}

	path, err := vars.ResolveString(req.Path)
	if err != nil {
		return out, err
	}
	out.path = path

	if len(req.Query) > 0 {
		out.query = make(url.Values, len(req.Query))
		for k, v := range req.Query {
			resolved, err := vars.ResolveString(v)
			if err != nil {
				return out, err
			}
			out.query.Set(k, resolved)
		}
	}

	out.body, err = vars.ResolveMap(req.Body)
	if err != nil {
		return out, err
	}

	return out, nil
}

// execute performs the HTTP call, wrapped in a retry loop when the step
// configures one. When the retry condition never holds the last response
// is returned without an error; the step's expectations decide the verdict.
func (r *testRunner) execute(ctx context.Context, client *api.Client, logger *logging.Logger, req resolvedRequest, policy *RetryPolicy) (*api.Response, int, error) {
	attempts := 0
	fn := func(ctx context.Context) (*api.Response, error) {
		attempts++
		return r.send(ctx, client, req)
	}

	if policy == nil {
		resp, err := fn(ctx)
		return resp, attempts, err
	}

	opts := []retry.Option{
		retry.WithMaxAttempts(policy.Attempts),
		retry.WithLogger(logger),
	}
	if policy.Delay > 0 {
		opts = append(opts, retry.WithBaseDelay(policy.Delay))
	}
	if policy.Strategy != "" {
		opts = append(opts, retry.WithStrategy(retry.Strategy(policy.Strategy)))
	}
	if policy.Timeout > 0 {
		opts = append(opts, retry.WithTimeout(policy.Timeout))
	}

	var until func(*api.Response) bool
	if len(policy.Until) > 0 {
		cond := retry.Condition(policy.Until)
		until = func(resp *api.Response) bool {
			if resp == nil {
				return false
			}
			m, err := resp.JSONMap()
			if err != nil {
				return false
			}
			return cond.Matches(m)
		}
	}

	resp, err := retry.DoValue(ctx, fn, until, opts...)
	return resp, attempts, err
}

func (r *testRunner) send(ctx context.Context, client *api.Client, req resolvedRequest) (*api.Response, error) {
	switch req.method {
	case "GET":
		return client.Get(ctx, req.path, req.query)
	case "POST":
		return client.Post(ctx, req.path, bodyOrNil(req.body))
	case "PUT":
		return client.Put(ctx, req.path, bodyOrNil(req.body))
	case "PATCH":
		return client.Patch(ctx, req.path, bodyOrNil(req.body))
	case "DELETE":
		return client.Delete(ctx, req.path, req.query)
	default:
		return nil, fmt.Errorf("unsupported method %q", req.method)
	}
}

// bodyOrNil keeps an empty body map from serializing as "{}" vs nothing.
func bodyOrNil(m map[string]any) any {
	if m == nil {
		return nil
	}
	return m
}

// checkExpectation validates the response against every configured
// expectation and joins the failures into one error.
func checkExpectation(resp *api.Response, e Expectation) error {
	var problems []string
	record := func(err error) {
		if err != nil {
			problems = append(problems, err.Error())
		}
	}

	if e.ErrorMessage != "" {
		record(check.ErrorMessage(resp, e.Status, e.ErrorMessage))
	} else if e.Status > 0 {
		record(check.StatusCode(resp, e.Status))
	}
	if len(e.Structure) > 0 {
		record(check.JSONStructure(resp, e.Structure...))
	}
	for _, field := range sortedKeys(e.Fields) {
		record(check.JSONFieldValue(resp, field, e.Fields[field]))
	}
	for _, s := range e.Contains {
		record(check.BodyContains(resp, s))
	}
	for _, s := range e.NotContains {
		if strings.Contains(string(resp.Body), s) {
			record(fmt.Errorf("expected body not to contain %q", s))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%s", strings.Join(problems, "; "))
	}
	return nil
}

// runDBCheck executes one database assertion
func (r *testRunner) runDBCheck(ctx context.Context, dbc DBCheck, vars *scenarioVars) error {
	where, err := vars.ResolveMap(dbc.Where)
	if err != nil {
		return err
	}

	switch dbc.Kind {
	case "record_exists":
		return r.dbc.AssertRecordExists(ctx, dbc.Table, where)
	case "record_not_exists":
		return r.dbc.AssertRecordNotExists(ctx, dbc.Table, where)
	case "record_count":
		return r.dbc.AssertRecordCount(ctx, dbc.Table, where, dbc.Count)
	case "field_value":
		value, err := vars.ResolveValue(dbc.Value)
		if err != nil {
			return err
		}
		return r.dbc.AssertFieldValue(ctx, dbc.Table, where, dbc.Field, value)
	case "table_exists":
		return r.dbc.AssertTableExists(ctx, dbc.Table)
	case "column_exists":
		return r.dbc.AssertColumnExists(ctx, dbc.Table, dbc.Column)
	default:
		return fmt.Errorf("unknown db check kind %q", dbc.Kind)
	}
}

// parseBody decodes a JSON body for variable storage, falling back to the
// raw string when the body is not JSON.
func parseBody(body []byte) any {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return string(body)
	}
	return v
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// updateCounters updates the suite counters from a scenario result
func (r *testRunner) updateCounters(suite *SuiteResult, scenarioResult ScenarioResult) {
	switch scenarioResult.Result {
	case ResultPassed:
		suite.PassedScenarios++
	case ResultFailed:
		suite.FailedScenarios++
	case ResultSkipped:
		suite.SkippedScenarios++
	case ResultError:
		suite.ErrorScenarios++
	}
}
