package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// AvailableIDCs returns the IDC names that have a configuration file in the
// directory, sorted for stable output.
func (l *Loader) AvailableIDCs() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory %s: %w", l.dir, err)
	}
	var idcs []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".yaml") || name == "env.yaml" {
			continue
		}
		idcs = append(idcs, strings.TrimSuffix(name, ".yaml"))
	}
	sort.Strings(idcs)
	return idcs, nil
}

// SwitchIDC rewrites env.yaml to select a different IDC and reloads. The
// target IDC must have a configuration file.
func (l *Loader) SwitchIDC(idc string) error {
	path := filepath.Join(l.dir, idc+".yaml")
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("no configuration file for IDC %q: %s", idc, path)
	}

	sel := l.selection
	sel.IDC = idc
	data, err := yaml.Marshal(sel)
	if err != nil {
		return fmt.Errorf("failed to encode selection: %w", err)
	}
	envFile := filepath.Join(l.dir, "env.yaml")
	if err := os.WriteFile(envFile, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", envFile, err)
	}
	return l.load()
}

// DescribeIDC returns the human description for a known IDC name, or the
// name itself when it is not one of the standard zones.
func DescribeIDC(idc string) string {
	if desc, ok := KnownIDCs[idc]; ok {
		return desc
	}
	return idc
}
