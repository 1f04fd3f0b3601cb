package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/yepmem/core/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage user configuration",
		Long: `Manage the user/global configuration file.

User configuration contains machine-wide settings that apply to every
project, such as the embedder provider/model and default log level.

Configuration precedence (lowest to highest):
  1. Hardcoded defaults
  2. User config (~/.config/yepmem/config.yaml)
  3. Project config (.yepmem.yaml)
  4. Environment variables (YEPMEM_*)`,
		Example: `  # Create user config with defaults
  yepmem config init

  # Show effective configuration (merged from all sources)
  yepmem config show

  # Print user config file path
  yepmem config path

  # Back up the user config, then restore it later
  yepmem config backup
  yepmem config restore --latest`,
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigPathCmd())
	cmd.AddCommand(newConfigBackupCmd())
	cmd.AddCommand(newConfigRestoreCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create user configuration file",
		Long: `Create the user/global configuration file, populated with the
hardcoded defaults, at ~/.config/yepmem/config.yaml (or
$XDG_CONFIG_HOME/yepmem/config.yaml if set).`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigInit(cmd, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	var (
		jsonOutput bool
		source     string
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		Long: `Show the effective configuration after merging all sources: hardcoded
defaults, user config, project config, and environment variables.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd, jsonOutput, source)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().StringVar(&source, "source", "merged", "Config source: merged, user, project, defaults")
	return cmd
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print user config file path",
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), config.GetUserConfigPath())
			return nil
		},
	}
}

func newConfigBackupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Back up the user configuration file",
		Long: `Create a timestamped copy of the user configuration file next to
it, keeping only the most recent backups.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigBackup(cmd)
		},
	}
}

func newConfigRestoreCmd() *cobra.Command {
	var latest bool

	cmd := &cobra.Command{
		Use:   "restore [backup-path]",
		Short: "Restore the user configuration file from a backup",
		Long: `Restore the user configuration file from a backup created by
'yepmem config backup'. The current config, if any, is itself backed
up before being overwritten.`,
		Example: `  # Restore from a specific backup
  yepmem config restore ~/.config/yepmem/config.yaml.bak.20260730-120000

  # Restore the most recent backup
  yepmem config restore --latest`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigRestore(cmd, args, latest)
		},
	}

	cmd.Flags().BoolVar(&latest, "latest", false, "Restore the most recent backup instead of naming one")
	return cmd
}

func runConfigInit(cmd *cobra.Command, force bool) error {
	out := cmd.OutOrStdout()

	configPath := config.GetUserConfigPath()
	configDir := config.GetUserConfigDir()

	if config.UserConfigExists() && !force {
		fmt.Fprintf(out, "user configuration already exists at %s (use --force to overwrite)\n", configPath)
		return nil
	}

	if config.UserConfigExists() {
		backupPath, err := config.BackupUserConfig()
		if err != nil {
			return fmt.Errorf("back up existing config: %w", err)
		}
		fmt.Fprintf(out, "backed up existing configuration to %s\n", backupPath)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("create config directory %s: %w", configDir, err)
	}

	if err := config.NewConfig().WriteYAML(configPath); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	fmt.Fprintf(out, "created user configuration at %s\n", configPath)
	return nil
}

func runConfigBackup(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	backupPath, err := config.BackupUserConfig()
	if err != nil {
		return fmt.Errorf("back up config: %w", err)
	}
	if backupPath == "" {
		fmt.Fprintf(out, "no user configuration found at %s, nothing to back up\n", config.GetUserConfigPath())
		return nil
	}

	fmt.Fprintf(out, "backed up user configuration to %s\n", backupPath)

	backups, err := config.ListUserConfigBackups()
	if err == nil && len(backups) > 1 {
		fmt.Fprintf(out, "%d backups on file (newest first), oldest beyond %d are pruned automatically\n", len(backups), config.MaxBackups)
	}
	return nil
}

func runConfigRestore(cmd *cobra.Command, args []string, latest bool) error {
	out := cmd.OutOrStdout()

	backupPath := ""
	if len(args) == 1 {
		backupPath = args[0]
	}
	if backupPath == "" && !latest {
		return fmt.Errorf("specify a backup path or pass --latest")
	}
	if backupPath != "" && latest {
		return fmt.Errorf("specify a backup path or --latest, not both")
	}

	if latest {
		backups, err := config.ListUserConfigBackups()
		if err != nil {
			return fmt.Errorf("list config backups: %w", err)
		}
		if len(backups) == 0 {
			return fmt.Errorf("no backups found for %s", config.GetUserConfigPath())
		}
		backupPath = backups[0]
	}

	if err := config.RestoreUserConfig(backupPath); err != nil {
		return fmt.Errorf("restore config: %w", err)
	}

	fmt.Fprintf(out, "restored user configuration from %s\n", backupPath)
	return nil
}

func runConfigShow(cmd *cobra.Command, jsonOutput bool, source string) error {
	out := cmd.OutOrStdout()

	var cfg *config.Config
	var sourceDesc string

	switch source {
	case "merged":
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("get current directory: %w", err)
		}
		root, err := config.FindProjectRoot(cwd)
		if err != nil {
			root = cwd
		}
		cfg, err = config.Load(root)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		sourceDesc = "merged (defaults + user + project + env)"

	case "user":
		configPath := config.GetUserConfigPath()
		if !config.UserConfigExists() {
			fmt.Fprintf(out, "no user configuration found, expected at %s (run 'yepmem config init')\n", configPath)
			return nil
		}
		cfg = config.NewConfig()
		data, err := os.ReadFile(configPath)
		if err != nil {
			return fmt.Errorf("read user config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse user config: %w", err)
		}
		sourceDesc = fmt.Sprintf("user (%s)", configPath)

	case "project":
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("get current directory: %w", err)
		}
		root, err := config.FindProjectRoot(cwd)
		if err != nil {
			root = cwd
		}

		yamlPath := filepath.Join(root, ".yepmem.yaml")
		ymlPath := filepath.Join(root, ".yepmem.yml")
		var configPath string
		switch {
		case fileExistsForConfig(yamlPath):
			configPath = yamlPath
		case fileExistsForConfig(ymlPath):
			configPath = ymlPath
		default:
			fmt.Fprintf(out, "no project configuration found, expected at %s\n", yamlPath)
			return nil
		}

		cfg = config.NewConfig()
		data, err := os.ReadFile(configPath)
		if err != nil {
			return fmt.Errorf("read project config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse project config: %w", err)
		}
		sourceDesc = fmt.Sprintf("project (%s)", configPath)

	case "defaults":
		cfg = config.NewConfig()
		sourceDesc = "defaults (hardcoded)"

	default:
		return fmt.Errorf("invalid source: %s (use: merged, user, project, defaults)", source)
	}

	if jsonOutput {
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	fmt.Fprintf(out, "configuration source: %s\n\n", sourceDesc)
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	fmt.Fprintln(out, string(data))
	return nil
}

func fileExistsForConfig(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
