package cli

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/portsweep/portsweep/internal/config"
	"github.com/portsweep/portsweep/internal/port"
	"github.com/portsweep/portsweep/internal/process"
	"github.com/portsweep/portsweep/internal/tui"
)

var (
	// Set via ldflags at build time.
	version = "dev"

	// Global flags.
	jsonOutput bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "portsweep",
	Short: "See which process holds which port, and kill it",
	Long: `portsweep shows every locally bound port together with the owning
process, on Windows (netstat/tasklist) and Unix-like systems (lsof).
Launch without subcommands for interactive TUI mode.`,
	Version: version,
	RunE: func(cmd *cobra.Command, args []string) error {
		if shell, _ := cmd.Flags().GetString("generate-completion"); shell != "" {
			switch shell {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			default:
				return fmt.Errorf("unsupported shell: %s (use bash, zsh, or fish)", shell)
			}
		}

		// Piped or redirected output gets the plain listing.
		if jsonOutput || !isatty.IsTerminal(os.Stdout.Fd()) {
			return runList(cmd, args)
		}

		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		runner := &port.RealCmdRunner{}
		scanner := port.NewScanner(runner)
		terminator := process.NewTerminator(runner)
		fetcher := process.NewInfoFetcher(runner)

		p := tea.NewProgram(tui.New(scanner, terminator, fetcher, cfg, version), tea.WithAltScreen())
		_, err = p.Run()
		return err
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("portsweep %s\n", version))
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.Flags().String("generate-completion", "", "Generate shell completion (bash, zsh, fish)")
	rootCmd.Flags().MarkHidden("generate-completion")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.config/portsweep/config.yaml)")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(killCmd)
	rootCmd.AddCommand(infoCmd)
}
