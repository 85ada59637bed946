package cmd

import (
	"fmt"
	"os"

	"github.com/meysamhadeli/driftcheck/config"
	"github.com/meysamhadeli/driftcheck/constants/lipgloss"
	"github.com/meysamhadeli/driftcheck/integrity"
	"github.com/spf13/cobra"
)

// RootDependencies holds the wired services shared by all subcommands.
type RootDependencies struct {
	Config  *config.Config
	Checker *integrity.Checker
	Cwd     string
}

var rootCmd = &cobra.Command{
	Use:   "driftcheck",
	Short: "Detect unexpected modification of a directory tree.",
	Long: `driftcheck fingerprints every file under a directory tree and compares the
result against the previously stored baseline, reporting exactly which files
were added, changed, or deleted since the last run. Use it to detect tampering
or unexpected drift of a deployed application root without a central agent.`,
	Run: func(cmd *cobra.Command, args []string) {
		if v, _ := cmd.Flags().GetBool("version"); v {
			fmt.Println(config.DefaultConfig.Version)
			return
		}
		_ = cmd.Help()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(lipgloss.Red.Render(err.Error()))
		os.Exit(1)
	}
}

func init() {
	config.InitFlags(rootCmd)
}

// handleRootCommand loads the configuration and wires the checker. Setup
// failures (missing root, unusable store directory) are fatal here.
func handleRootCommand(cmd *cobra.Command) *RootDependencies {
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error getting current directory: %v", err)))
		return nil
	}

	cfg := config.LoadConfigs(cmd.Root(), cwd)

	if err := os.MkdirAll(cfg.StoreDir, 0755); err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error creating store directory: %v", err)))
		return nil
	}

	checker, err := integrity.NewChecker(integrity.Config{
		Root:           cfg.Root,
		StoreDir:       cfg.StoreDir,
		Exclusions:     cfg.Exclusions,
		MaxFileSize:    cfg.MaxFileSize,
		UseCompression: cfg.UseCompression,
		HashAlgorithm:  cfg.HashAlgorithm,
		Workers:        cfg.Workers,
	})
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		return nil
	}

	return &RootDependencies{Config: cfg, Checker: checker, Cwd: cwd}
}
