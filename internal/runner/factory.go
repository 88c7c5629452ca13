package runner

import (
	"fmt"
	"time"

	"pte/internal/api"
	"pte/internal/db"
)

// DefaultConfig returns the default run configuration
func DefaultConfig() Config {
	return Config{
		Timeout:      5 * time.Minute,
		Parallel:     1,
		FailFast:     false,
		Verbose:      false,
		Debug:        false,
		ScenarioPath: DefaultScenarioPath(),
	}
}

// Framework bundles the components needed for a run
type Framework struct {
	Runner   Runner
	Loader   Loader
	Reporter Reporter
	Client   *api.Client
	DB       *db.Checker
}

// NewFramework wires a loader, console reporter and runner around the
// given API client.
func NewFramework(client *api.Client, verbose, debug bool, reportPath string) *Framework {
	return NewFrameworkWithDatabase(client, nil, verbose, debug, reportPath)
}

// NewFrameworkWithDatabase wires a framework whose runner can execute
// database checks.
func NewFrameworkWithDatabase(client *api.Client, dbc *db.Checker, verbose, debug bool, reportPath string) *Framework {
	loader := NewLoader(debug)
	reporter := NewConsoleReporter(verbose, debug, reportPath)

	return &Framework{
		Runner:   NewRunnerWithDatabase(client, loader, reporter, dbc, debug),
		Loader:   loader,
		Reporter: reporter,
		Client:   client,
		DB:       dbc,
	}
}

// Close releases the framework's database connection, if any.
func (f *Framework) Close() error {
	if f.DB != nil {
		return f.DB.Close()
	}
	return nil
}

// ValidateConfig validates a run configuration
func ValidateConfig(cfg Config) error {
	if cfg.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if cfg.Parallel < 1 {
		return fmt.Errorf("parallel workers must be at least 1")
	}
	if cfg.Category != "" && !knownCategory(cfg.Category) {
		return fmt.Errorf("unknown category %q, expected one of %s", cfg.Category, categoryList())
	}
	return nil
}
