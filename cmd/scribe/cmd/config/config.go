package config

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"scribe/cmd/scribe/cmd/shared"
	appconfig "scribe/internal/app/config"
	envconfig "scribe/internal/config"
)

var force bool

func init() {
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")

	Cmd.AddCommand(showCmd)
	Cmd.AddCommand(initCmd)
}

// Cmd represents the config command
var Cmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or create the configuration file",
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration with the API key masked",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := shared.LoadConfig()
		if err != nil {
			return err
		}

		masked := *cfg
		masked.Transcriber.APIKey = envconfig.MaskAPIKey(cfg.Transcriber.APIKey)

		out, err := yaml.Marshal(&masked)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s", shared.ResolvedConfigPath(), out)
		envconfig.ReportAPIKeys(cmd.ErrOrStderr(), envconfig.GetAPIKeys())
		return nil
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := shared.ResolvedConfigPath()
		if _, err := os.Stat(path); err == nil && !force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}

		if err := appconfig.Save(appconfig.Template(), path); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✅ Wrote %s\n", path)
		fmt.Fprintln(cmd.OutOrStdout(), "   The API key is read from GEMINI_API_KEY or OPENAI_API_KEY, depending on the backend.")
		return nil
	},
}
