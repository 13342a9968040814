// Package configcmder provides the config command for managing persistent
// fair configuration stored in the .fair/ directory.
package configcmder

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/burnes-center/fair/pkg/cliui"
	"github.com/burnes-center/fair/pkg/config"
)

const configLongDesc string = `Manage persistent fair configuration.

Configuration is stored as config.toml in the .fair/ directory. Values can
be overridden by FAIR_* environment variables and by command flags.

Keys use dotted notation matching the TOML section structure:
  gateway.listen, gateway.upstream, gateway.idle_timeout, gateway.body_limit_mb,
  storage.driver, storage.sqlite_path, storage.postgres_dsn,
  eventstream.provider, eventstream.kafka_brokers, eventstream.kafka_topic,
  eventstream.redis_addr, eventstream.redis_stream,
  client.target

Examples:
  fair config set gateway.upstream http://localhost:5000
  fair config get storage.driver
  fair config list`

const configShortDesc string = "Manage persistent fair configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func checkKey(key string) error {
	if !config.IsValidConfigKey(key) {
		return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
			key, strings.Join(config.ValidConfigKeys(), ", "))
	}
	return nil
}

func printTarget(out io.Writer, cfger *config.Configer) {
	if target := cfger.GetTarget(); target != "" {
		fmt.Fprintf(out, "\n  %s %s\n\n", cliui.KeyStyle.Render("Config file:"), cliui.DimStyle.Render(target))
		return
	}
	fmt.Fprintf(out, "\n  %s\n\n", cliui.DimStyle.Render("No config file found. Using defaults."))
}

func newSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value in config.toml.

Examples:
  fair config set gateway.upstream https://fair-backend.internal
  fair config set storage.driver sqlite
  fair config set gateway.idle_timeout 90s`,
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: completeKeys,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]
			if err := checkKey(key); err != nil {
				return err
			}

			configDir, _ := cmd.Flags().GetString("config-dir")
			cfger, err := config.NewConfiger(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			out := cmd.OutOrStdout()
			printTarget(out, cfger)

			if err := cfger.SetConfigValue(key, value); err != nil {
				return err
			}

			fmt.Fprintf(out, "  %s Set %s = %s\n\n", cliui.SuccessMark, cliui.KeyStyle.Render(key), cliui.ValueStyle.Render(value))
			return nil
		},
	}
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "get <key>",
		Short:             "Get a configuration value",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeKeys,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkKey(args[0]); err != nil {
				return err
			}

			configDir, _ := cmd.Flags().GetString("config-dir")
			cfger, err := config.NewConfiger(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			value, err := cfger.GetConfigValue(args[0])
			if err != nil {
				return err
			}

			if value == "" {
				value = cliui.DimStyle.Render("<not set>")
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), value)
			return err
		},
	}
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configuration values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			cfger, err := config.NewConfiger(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			out := cmd.OutOrStdout()
			printTarget(out, cfger)

			keys := config.ValidConfigKeys()
			rows := make([][]string, 0, len(keys))
			for _, key := range keys {
				value, err := cfger.GetConfigValue(key)
				if err != nil {
					return err
				}
				if value == "" {
					value = cliui.DimStyle.Render("<not set>")
				} else {
					value = cliui.ValueStyle.Render(value)
				}
				rows = append(rows, []string{key, value})
			}
			return cliui.Table(out, nil, rows, 0)
		},
	}
}
