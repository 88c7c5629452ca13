package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"pte/internal/config"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeConfigInvalid indicates the configuration failed validation.
	ExitCodeConfigInvalid = 2
)

// configDir is where env.yaml and the per-IDC files live. It is shared by
// every subcommand through a persistent flag.
var configDir string

// rootCmd represents the base command for the pte application.
// It is the entry point when the application is called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "pte",
	Short: "End-to-end API test automation for the user service",
	Long: `pte runs YAML-defined test scenarios against a deployed user service,
verifying HTTP responses and, optionally, the database rows behind them.
Target hosts are selected through per-IDC configuration files, so the same
scenarios run unchanged against every deployment zone.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors
	// that are handled by the application.
	SilenceUsage: true,
}

// SetVersion sets the version for the root command.
// This is called from the main package to inject the build version.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
// It is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "pte version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error type,
// giving scripts a way to tell configuration problems from test failures.
func getExitCode(err error) int {
	var validation *config.ValidationError
	if errors.As(err, &validation) {
		return ExitCodeConfigInvalid
	}
	return ExitCodeError
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "config",
		"Directory holding env.yaml and the per-IDC configuration files")

	rootCmd.AddCommand(newVersionCmd())
}
