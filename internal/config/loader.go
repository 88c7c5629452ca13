package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Loader reads the IDC configuration from a directory holding env.yaml and
// one <idc>.yaml per deployment zone.
//
// Precedence (highest to lowest): flags > environment variables > config
// file > defaults.
type Loader struct {
	dir       string
	flags     *pflag.FlagSet
	selection Selection
	settings  Settings
	file      string
}

// Load reads env.yaml from dir, selects the IDC and environment (both
// overridable via TEST_IDC/TEST_ENV and the --idc/--env flags), and loads
// the selected <idc>.yaml.
func Load(dir string, flags *pflag.FlagSet) (*Loader, error) {
	l := &Loader{dir: dir, flags: flags}
	if err := l.load(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Loader) load() error {
	sel, err := l.loadSelection()
	if err != nil {
		return err
	}
	l.selection = sel

	settings, path, err := l.loadSettings(sel.IDC)
	if err != nil {
		return err
	}
	l.settings = settings
	l.file = path
	return nil
}

func (l *Loader) loadSelection() (Selection, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]interface{}{
		"idc": DefaultIDC,
		"env": DefaultEnv,
	}, "."), nil); err != nil {
		return Selection{}, fmt.Errorf("failed to load selection defaults: %w", err)
	}

	envFile := filepath.Join(l.dir, "env.yaml")
	if _, err := os.Stat(envFile); err == nil {
		if err := k.Load(file.Provider(envFile), yaml.Parser()); err != nil {
			return Selection{}, fmt.Errorf("error reading config file %s: %w", envFile, err)
		}
	}

	// TEST_IDC / TEST_ENV override the file selection.
	if err := k.Load(env.Provider("TEST_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "TEST_"))
	}), nil); err != nil {
		return Selection{}, fmt.Errorf("failed to load env vars: %w", err)
	}

	if l.flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(l.flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			switch f.Name {
			case "idc", "env":
				return f.Name, posflag.FlagVal(l.flags, f)
			}
			return "", nil
		}), nil); err != nil {
			return Selection{}, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var sel Selection
	if err := k.Unmarshal("", &sel); err != nil {
		return Selection{}, fmt.Errorf("unable to decode selection: %w", err)
	}
	return sel, nil
}

func (l *Loader) loadSettings(idc string) (Settings, string, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]interface{}{
		"timeout":     DefaultTimeout,
		"retry_count": DefaultRetryCount,
		"database.mysql.port":     3306,
		"database.mysql.username": "root",
		"database.mysql.charset":  "utf8mb4",
	}, "."), nil); err != nil {
		return Settings{}, "", fmt.Errorf("failed to load defaults: %w", err)
	}

	path := filepath.Join(l.dir, idc+".yaml")
	if _, err := os.Stat(path); err != nil {
		return Settings{}, "", fmt.Errorf("no configuration file for IDC %q: %s", idc, path)
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return Settings{}, "", fmt.Errorf("error reading config file %s: %w", path, err)
	}

	// PTE_HOST, PTE_RETRY_COUNT etc. override individual keys.
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return Settings{}, "", fmt.Errorf("failed to load env vars: %w", err)
	}

	if l.flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(l.flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			// --base-url overrides the host the client targets.
			if f.Name == "base-url" {
				return "host", posflag.FlagVal(l.flags, f)
			}
			switch f.Name {
			case "timeout", "retry-count":
				return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(l.flags, f)
			}
			return "", nil
		}), nil); err != nil {
			return Settings{}, "", fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var settings Settings
	if err := k.Unmarshal("", &settings); err != nil {
		return Settings{}, "", fmt.Errorf("unable to decode config: %w", err)
	}

	applyTestConfigDefaults(&settings.TestConfig)
	return settings, path, nil
}

func applyTestConfigDefaults(tc *TestConfig) {
	defaults := DefaultTestConfig()
	if tc.DataDir == "" {
		tc.DataDir = defaults.DataDir
	}
	if tc.ReportDir == "" {
		tc.ReportDir = defaults.ReportDir
	}
	if tc.LogDir == "" {
		tc.LogDir = defaults.LogDir
	}
	if len(tc.DefaultMarkers) == 0 {
		tc.DefaultMarkers = defaults.DefaultMarkers
	}
}

// Dir returns the configuration directory.
func (l *Loader) Dir() string { return l.dir }

// File returns the path of the IDC file that was loaded.
func (l *Loader) File() string { return l.file }

// Selection returns the active IDC/environment selection.
func (l *Loader) Selection() Selection { return l.selection }

// Settings returns the raw per-IDC settings before environment merging.
func (l *Loader) Settings() Settings { return l.settings }

// Reload re-reads env.yaml and the selected IDC file from disk.
func (l *Loader) Reload() error {
	return l.load()
}

// Resolved merges the selected environment's overrides into the IDC
// defaults. Header maps merge key-wise with the environment winning.
func (l *Loader) Resolved() (Resolved, error) {
	return l.ResolvedFor(l.selection.Env)
}

// ResolvedFor resolves the configuration for a specific environment name.
func (l *Loader) ResolvedFor(envName string) (Resolved, error) {
	envCfg, ok := l.settings.Environments[envName]
	if !ok {
		return Resolved{}, fmt.Errorf("environment %q not defined for IDC %q", envName, l.selection.IDC)
	}

	r := Resolved{
		IDC:         l.selection.IDC,
		Env:         envName,
		Description: envCfg.Description,
		Host:        l.settings.Host,
		Timeout:     l.settings.Timeout,
		RetryCount:  l.settings.RetryCount,
		Headers:     make(map[string]string, len(l.settings.DefaultHeaders)+len(envCfg.Headers)),
		Database:    l.settings.Database.MySQL,
		TestConfig:  l.settings.TestConfig,
	}
	if envCfg.Timeout > 0 {
		r.Timeout = envCfg.Timeout
	}
	if envCfg.RetryCount > 0 {
		r.RetryCount = envCfg.RetryCount
	}
	for k, v := range l.settings.DefaultHeaders {
		r.Headers[k] = v
	}
	for k, v := range envCfg.Headers {
		r.Headers[k] = v
	}
	return r, nil
}
