package cmd

import (
	"fmt"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"pte/internal/config"
)

// configCmd groups the configuration inspection and switching subcommands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and switch IDC configurations",
	Long: `The config command works with the per-IDC configuration files in the
configuration directory. env.yaml selects the active IDC and environment;
each <idc>.yaml holds the host, timeouts, headers and database settings for
one deployment zone.`,
}

func init() {
	rootCmd.AddCommand(configCmd)

	configCmd.AddCommand(newConfigListCmd())
	configCmd.AddCommand(newConfigCurrentCmd())
	configCmd.AddCommand(newConfigShowCmd())
	configCmd.AddCommand(newConfigValidateCmd())
	configCmd.AddCommand(newConfigSwitchCmd())
}

// newConfigListCmd lists the IDCs that have a configuration file
func newConfigListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available IDC configurations",
		RunE: func(cmd *cobra.Command, args []string) error {
			loader, err := config.Load(configDir, cmd.Flags())
			if err != nil {
				return err
			}
			idcs, err := loader.AvailableIDCs()
			if err != nil {
				return err
			}

			current := loader.Selection().IDC
			tw := table.NewWriter()
			tw.SetOutputMirror(cmd.OutOrStdout())
			tw.AppendHeader(table.Row{"IDC", "Description", "Active"})
			for _, idc := range idcs {
				active := ""
				if idc == current {
					active = "*"
				}
				tw.AppendRow(table.Row{idc, config.DescribeIDC(idc), active})
			}
			tw.SetStyle(table.StyleLight)
			tw.Render()
			return nil
		},
	}
}

// newConfigCurrentCmd prints the active selection
func newConfigCurrentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "current",
		Short: "Show the active IDC and environment",
		RunE: func(cmd *cobra.Command, args []string) error {
			loader, err := config.Load(configDir, cmd.Flags())
			if err != nil {
				return err
			}
			sel := loader.Selection()
			fmt.Fprintf(cmd.OutOrStdout(), "IDC:         %s (%s)\n", sel.IDC, config.DescribeIDC(sel.IDC))
			fmt.Fprintf(cmd.OutOrStdout(), "Environment: %s\n", sel.Env)
			fmt.Fprintf(cmd.OutOrStdout(), "Config file: %s\n", loader.File())
			return nil
		},
	}
}

// newConfigShowCmd prints the resolved settings for the active IDC
func newConfigShowCmd() *cobra.Command {
	var envName string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the resolved configuration for the active IDC",
		RunE: func(cmd *cobra.Command, args []string) error {
			loader, err := config.Load(configDir, cmd.Flags())
			if err != nil {
				return err
			}

			target := envName
			if target == "" {
				target = loader.Selection().Env
			}
			resolved, err := loader.ResolvedFor(target)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "IDC:         %s\n", resolved.IDC)
			fmt.Fprintf(out, "Environment: %s", resolved.Env)
			if resolved.Description != "" {
				fmt.Fprintf(out, " (%s)", resolved.Description)
			}
			fmt.Fprintln(out)
			fmt.Fprintf(out, "Host:        %s\n", resolved.Host)
			fmt.Fprintf(out, "Timeout:     %ds\n", resolved.Timeout)
			fmt.Fprintf(out, "Retries:     %d\n", resolved.RetryCount)

			if len(resolved.Headers) > 0 {
				fmt.Fprintf(out, "Headers:\n")
				keys := make([]string, 0, len(resolved.Headers))
				for k := range resolved.Headers {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				for _, k := range keys {
					fmt.Fprintf(out, "  %s: %s\n", k, resolved.Headers[k])
				}
			}

			if resolved.Database.Host != "" {
				fmt.Fprintf(out, "Database:    %s@%s:%d/%s\n",
					resolved.Database.Username, resolved.Database.Host,
					resolved.Database.Port, resolved.Database.Database)
			}

			envs := make([]string, 0, len(loader.Settings().Environments))
			for name := range loader.Settings().Environments {
				envs = append(envs, name)
			}
			sort.Strings(envs)
			fmt.Fprintf(out, "Environments: %v\n", envs)
			return nil
		},
	}

	cmd.Flags().StringVar(&envName, "env", "", "Resolve for a specific environment instead of the active one")
	return cmd
}

// newConfigValidateCmd validates the active IDC configuration
func newConfigValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the active IDC configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			loader, err := config.Load(configDir, cmd.Flags())
			if err != nil {
				return err
			}
			if err := loader.Validate(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Configuration for IDC %q is valid\n", loader.Selection().IDC)
			return nil
		},
	}
}

// newConfigSwitchCmd rewrites env.yaml to select a different IDC
func newConfigSwitchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "switch <idc>",
		Short: "Switch the active IDC",
		Args:  cobra.ExactArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			loader, err := config.Load(configDir, cmd.Flags())
			if err != nil {
				return nil, cobra.ShellCompDirectiveDefault
			}
			idcs, _ := loader.AvailableIDCs()
			return idcs, cobra.ShellCompDirectiveDefault
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			loader, err := config.Load(configDir, cmd.Flags())
			if err != nil {
				return err
			}
			if err := loader.SwitchIDC(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Switched to IDC %q (%s)\n", args[0], config.DescribeIDC(args[0]))
			return nil
		},
	}
}
