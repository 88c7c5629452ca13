package runner

import (
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"pte/pkg/logging"
)

// scenarioLoader implements the Loader interface
type scenarioLoader struct {
	debug  bool
	logger *logging.Logger
}

// NewLoader creates a new scenario loader
func NewLoader(debug bool) Loader {
	return NewLoaderWithLogger(debug, logging.Default())
}

// NewLoaderWithLogger creates a new scenario loader with a custom logger
func NewLoaderWithLogger(debug bool, logger *logging.Logger) Loader {
	return &scenarioLoader{debug: debug, logger: logger}
}

// Load reads scenarios from a YAML file or a directory of YAML files
func (l *scenarioLoader) Load(path string) ([]Scenario, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("scenario path does not exist: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat scenario path: %w", err)
	}

	var scenarios []Scenario
	if info.IsDir() {
		scenarios, err = l.loadFromDirectory(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load scenarios from directory: %w", err)
		}
	} else {
		scenario, err := l.loadFromFile(path)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, scenario)
	}

	if l.debug {
		l.logger.Debug("loaded %d scenarios from %s", len(scenarios), path)
		for _, s := range scenarios {
			l.logger.Debug("  %s (%s) - %d steps", s.Name, s.Category, len(s.Steps))
		}
	}

	return scenarios, nil
}

// loadFromDirectory loads every YAML scenario file under the directory
func (l *scenarioLoader) loadFromDirectory(dir string) ([]Scenario, error) {
	var scenarios []Scenario

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isYAMLFile(path) {
			return nil
		}
		scenario, err := l.loadFromFile(path)
		if err != nil {
			return err
		}
		scenarios = append(scenarios, scenario)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory %s: %w", dir, err)
	}

	return scenarios, nil
}

// loadFromFile loads and validates a single scenario
func (l *scenarioLoader) loadFromFile(path string) (Scenario, error) {
	var scenario Scenario

	content, err := os.ReadFile(path)
	if err != nil {
		return scenario, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(content, &scenario); err != nil {
		return scenario, fmt.Errorf("failed to parse YAML in %s: %w", path, err)
	}
	if err := validateScenario(scenario); err != nil {
		return scenario, fmt.Errorf("invalid scenario in %s: %w", path, err)
	}

	return scenario, nil
}

// validateScenario checks that a scenario carries the required fields
func validateScenario(scenario Scenario) error {
	if scenario.Name == "" {
		return fmt.Errorf("scenario name is required")
	}
	if scenario.Category == "" {
		return fmt.Errorf("scenario category is required")
	}
	if !knownCategory(scenario.Category) {
		return fmt.Errorf("unknown category %q, expected one of %s",
			scenario.Category, categoryList())
	}
	if len(scenario.Steps) == 0 && !scenario.Skip {
		return fmt.Errorf("scenario must have at least one step")
	}

	for i, step := range scenario.Steps {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	for i, step := range scenario.Cleanup {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("cleanup step %d: %w", i+1, err)
		}
	}

	return nil
}

// validateStep checks that a step carries the required fields
func validateStep(step Step) error {
	if step.ID == "" {
		return fmt.Errorf("step id is required")
	}
	if step.Request.Method == "" {
		return fmt.Errorf("request method is required")
	}
	switch strings.ToUpper(step.Request.Method) {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return fmt.Errorf("unsupported request method %q", step.Request.Method)
	}
	if step.Request.Path == "" {
		return fmt.Errorf("request path is required")
	}
	if step.Expect.ErrorMessage != "" && step.Expect.Status == 0 {
		return fmt.Errorf("errorMessage expectation requires a status expectation")
	}

	if step.Retry != nil {
		if step.Retry.Attempts < 1 {
			return fmt.Errorf("retry attempts must be at least 1")
		}
		if step.Retry.Delay < 0 {
			return fmt.Errorf("retry delay cannot be negative")
		}
	}

	for i, dbc := range step.DBChecks {
		if err := validateDBCheck(dbc); err != nil {
			return fmt.Errorf("db check %d: %w", i+1, err)
		}
	}

	return nil
}

// validateDBCheck checks a database assertion definition
func validateDBCheck(dbc DBCheck) error {
	if dbc.Table == "" {
		return fmt.Errorf("table is required")
	}
	switch dbc.Kind {
	case "record_exists", "record_not_exists", "record_count":
	case "field_value":
		if dbc.Field == "" {
			return fmt.Errorf("field_value check requires a field")
		}
	case "table_exists":
	case "column_exists":
		if dbc.Column == "" {
			return fmt.Errorf("column_exists check requires a column")
		}
	default:
		return fmt.Errorf("unknown db check kind %q", dbc.Kind)
	}
	return nil
}

// Filter returns the scenarios matching the configuration
func (l *scenarioLoader) Filter(scenarios []Scenario, cfg Config) []Scenario {
	var filtered []Scenario
	for _, scenario := range scenarios {
		if cfg.Category != "" && scenario.Category != cfg.Category {
			continue
		}
		if cfg.Scenario != "" && scenario.Name != cfg.Scenario {
			continue
		}
		if cfg.Tag != "" && !hasTag(scenario, cfg.Tag) {
			continue
		}
		filtered = append(filtered, scenario)
	}

	if l.debug {
		l.logger.Debug("filtered %d of %d scenarios (category=%q scenario=%q tag=%q)",
			len(filtered), len(scenarios), cfg.Category, cfg.Scenario, cfg.Tag)
	}

	return filtered
}

func hasTag(scenario Scenario, tag string) bool {
	for _, t := range scenario.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

func knownCategory(c Category) bool {
	for _, known := range KnownCategories {
		if c == known {
			return true
		}
	}
	return false
}

func categoryList() string {
	names := make([]string, len(KnownCategories))
	for i, c := range KnownCategories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

func isYAMLFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// DefaultScenarioPath returns the default directory scenarios live in
func DefaultScenarioPath() string {
	return "scenarios"
}

// ScenarioNames returns the names of the given scenarios, mainly for
// shell completion
func ScenarioNames(scenarios []Scenario) []string {
	names := make([]string, 0, len(scenarios))
	for _, s := range scenarios {
		names = append(names, s.Name)
	}
	return names
}

// AvailableCategories returns the distinct categories present in the
// given scenarios
func AvailableCategories(scenarios []Scenario) []Category {
	seen := make(map[Category]bool)
	var categories []Category
	for _, s := range scenarios {
		if !seen[s.Category] {
			seen[s.Category] = true
			categories = append(categories, s.Category)
		}
	}
	return categories
}
