// Package config loads the per-IDC configuration that drives pte.
//
// Configuration lives in a single directory:
//   - env.yaml selects the IDC (deployment zone) and environment
//   - <idc>.yaml holds the settings of one IDC: target host, timeouts,
//     default headers, named environments with their overrides, the MySQL
//     connection for database checks, and the runner's directory layout
//
// # Selection
//
// The active IDC/environment come from env.yaml but can be overridden
// without editing files: the TEST_IDC and TEST_ENV environment variables
// take precedence over the file, and the --idc/--env CLI flags take
// precedence over both. Individual settings can similarly be overridden
// with PTE_-prefixed variables (PTE_HOST, PTE_RETRY_COUNT).
//
// Precedence (highest to lowest): flags > env vars > config file > defaults.
//
// # Resolution
//
// Resolved() merges the selected environment's timeout, retry count and
// headers over the IDC defaults; header maps merge key-wise with the
// environment winning. Validate() checks the directory for the problems the
// `pte config validate` command reports.
package config
