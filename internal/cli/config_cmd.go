package cli

import (
	"errors"
	"fmt"

	"github.com/ariel-frischer/issuelog/internal/config"
	clierrors "github.com/ariel-frischer/issuelog/internal/errors"
	"github.com/ariel-frischer/issuelog/internal/fsutil"
	"github.com/ariel-frischer/issuelog/internal/output"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage issuelog configuration",
		Long: `Manage issuelog configuration files.

Project settings live in .issuelog/config.yml, user settings in
~/.config/issuelog/config.yml. Project settings win over user settings.`,
	}
	cmd.AddCommand(newConfigShowCmd(o))
	cmd.AddCommand(newConfigInitCmd(o))
	cmd.AddCommand(newConfigSetCmd(o))
	cmd.AddCommand(newConfigKeysCmd())
	return cmd
}

func newConfigShowCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration (credentials masked)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, o)
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(cfg.Masked()); err != nil {
				return fmt.Errorf("encoding config: %w", err)
			}
			return enc.Close()
		},
	}
}

func newConfigInitCmd(o *rootOptions) *cobra.Command {
	var user, force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a commented config file",
		Example: `  # Project config in .issuelog/config.yml
  issuelog config init

  # User config, replacing an existing one
  issuelog config init --user --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, scope, err := configTarget(o, user)
			if err != nil {
				return err
			}
			if fsutil.Exists(path) && !force {
				return clierrors.NewArgumentError(
					fmt.Sprintf("config file already exists: %s", path),
					"Pass --force to overwrite it",
				)
			}
			if err := fsutil.AtomicWrite(path, []byte(config.GetDefaultConfigTemplate()), 0o644); err != nil {
				return clierrors.FileNotWritable(path, err)
			}
			output.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Created %s config: %s", scope, path))
			return nil
		},
	}
	cmd.Flags().BoolVar(&user, "user", false, "Write the user config instead of the project config")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}

func newConfigSetCmd(o *rootOptions) *cobra.Command {
	var user bool

	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value in the project (default) or user config.

Values are checked against the key's type before the file is written;
comments in the file are kept. Run 'issuelog config keys' for all keys.`,
		Example: `  issuelog config set repo widgets
  issuelog config set labels bug,ui
  issuelog config set merged true --user`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, scope, err := configTarget(o, user)
			if err != nil {
				return err
			}
			key, value := args[0], args[1]
			if _, err := config.SetValue(path, key, value); err != nil {
				var unknown config.ErrUnknownKey
				if errors.As(err, &unknown) {
					return clierrors.Wrap(err, clierrors.Argument, "Run 'issuelog config keys' for valid keys")
				}
				return clierrors.Wrap(err, clierrors.Configuration)
			}
			output.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Set %s = %s in %s config", key, value, scope))
			return nil
		},
	}
	cmd.Flags().BoolVar(&user, "user", false, "Write the user config instead of the project config")
	return cmd
}

func newConfigKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List all configuration keys",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			rows := make([]output.KeyRow, 0, len(config.KnownKeys))
			for _, key := range config.SortedKeys() {
				s := config.KnownKeys[key]
				rows = append(rows, output.KeyRow{
					Key:         key,
					Type:        s.Type.String(),
					Default:     fmt.Sprint(s.Default),
					Description: s.Description,
				})
			}
			output.RenderKeysTable(cmd.OutOrStdout(), rows)
		},
	}
}

// configTarget returns the file config init and config set write to.
func configTarget(o *rootOptions, user bool) (path, scope string, err error) {
	if !user {
		if o.configPath != "" {
			return o.configPath, "project", nil
		}
		return config.ProjectConfigPath(), "project", nil
	}
	path, err = config.UserConfigPath()
	if err != nil {
		return "", "", clierrors.WrapWithMessage(err, clierrors.Configuration,
			"cannot locate the user config directory",
			"Set XDG_CONFIG_HOME or HOME",
		)
	}
	return path, "user", nil
}
