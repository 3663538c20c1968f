package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pricing-audit-service/internal/config"
	"pricing-audit-service/internal/logger"
)

var (
	configPath string
	logLevel   string

	appConfig *config.AppConfig
	appLog    logger.Logger = logger.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "pricing-audit",
	Short: "Audit dealer discount schemes against vehicle sales and browse price lists",
	Long: `Pricing Audit Service - matches discount scheme descriptions from a schemes
workbook against vehicle sales records and annotates every record with the
first scheme it qualifies for. Also lists, shows and uploads dated price list
workbooks.

Commands:
  audit       - Match audit workbooks against a discount schemes workbook
  prices      - List, show and upload price lists
  completion  - Generate shell completion scripts

Configuration is read from configs/config.yaml (or --config / CONFIG_PATH),
.env files and environment variables.

Workflow:
  1. Audit:  pricing-audit audit --discount-file schemes.xlsx --audit-file sales.xlsx
  2. Prices: pricing-audit prices show --model "XUV 3XO" --fuel Petrol --variant AX5`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadApp(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if logLevel != "" {
			if err := config.ValidateLogLevel(logLevel); err != nil {
				return err
			}
			cfg.Logging.Level = logLevel
		}

		l, err := logger.New(cfg.Logging)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		appConfig = cfg
		appLog = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = appLog.Sync()
	},
}

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate shell completion script for pricing-audit.

To load completions:

Bash:
  $ source <(pricing-audit completion bash)

Zsh:
  $ pricing-audit completion zsh > "${fpath[1]}/_pricing-audit"

Fish:
  $ pricing-audit completion fish | source

PowerShell:
  PS> pricing-audit completion powershell | Out-String | Invoke-Expression
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	// completion needs no config
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		var err error
		switch args[0] {
		case "bash":
			err = cmd.Root().GenBashCompletion(os.Stdout)
		case "zsh":
			err = cmd.Root().GenZshCompletion(os.Stdout)
		case "fish":
			err = cmd.Root().GenFishCompletion(os.Stdout, true)
		case "powershell":
			err = cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
		}
		if err != nil {
			return fmt.Errorf("error generating completion: %w", err)
		}
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: $CONFIG_PATH or configs/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")

	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(pricesCmd)
	rootCmd.AddCommand(completionCmd)
}
