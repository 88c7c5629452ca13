package config

import (
	"fmt"
	"strings"
)

// ValidationError collects the individual problems found while validating a
// configuration directory.
type ValidationError struct {
	Problems []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return e.Problems[0]
	}
	return fmt.Sprintf("%d validation problems:\n  - %s",
		len(e.Problems), strings.Join(e.Problems, "\n  - "))
}

func (e *ValidationError) add(format string, args ...interface{}) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
}

// Validate checks the loaded selection and settings for completeness:
// the selection must name an IDC and environment, the IDC file must carry
// host, timeout, retry count and at least one environment, and every
// environment needs its own timeout, retry count, and headers.
func (l *Loader) Validate() error {
	v := &ValidationError{}

	if l.selection.IDC == "" {
		v.add("env.yaml: idc is required")
	}
	if l.selection.Env == "" {
		v.add("env.yaml: env is required")
	}

	if l.settings.Host == "" {
		v.add("%s: host is required", l.file)
	}
	if l.settings.Timeout <= 0 {
		v.add("%s: timeout must be positive", l.file)
	}
	if l.settings.RetryCount <= 0 {
		v.add("%s: retry_count must be positive", l.file)
	}
	if len(l.settings.Environments) == 0 {
		v.add("%s: at least one environment is required", l.file)
	}
	for name, env := range l.settings.Environments {
		if env.Timeout <= 0 {
			v.add("%s: environment %q: timeout must be positive", l.file, name)
		}
		if env.RetryCount <= 0 {
			v.add("%s: environment %q: retry_count must be positive", l.file, name)
		}
		if len(env.Headers) == 0 {
			v.add("%s: environment %q: headers are required", l.file, name)
		}
	}
	if l.selection.Env != "" && len(l.settings.Environments) > 0 {
		if _, ok := l.settings.Environments[l.selection.Env]; !ok {
			v.add("%s: selected environment %q is not defined", l.file, l.selection.Env)
		}
	}
	if len(v.Problems) > 0 {
		return v
	}
	return nil
}
