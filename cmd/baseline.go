package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/meysamhadeli/driftcheck/constants/lipgloss"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var baselineCmd = &cobra.Command{
	Use:   "baseline",
	Short: "Re-scan the tree and accept its current state as the new baseline.",
	Long: `The 'baseline' subcommand scans the configured directory tree and overwrites
the stored baseline with the result, without computing or reporting drift.
Use it to bootstrap a new tree or to accept the current state after a
deliberate deployment.`,
	Run: func(cmd *cobra.Command, args []string) {
		rootDependencies := handleRootCommand(cmd)
		if rootDependencies == nil {
			os.Exit(1)
		}
		os.Exit(handleBaselineCommand(rootDependencies))
	},
}

func init() {
	rootCmd.AddCommand(baselineCmd)
}

func handleBaselineCommand(rootDependencies *RootDependencies) int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	spinner := pterm.DefaultSpinner.WithStyle(pterm.NewStyle(pterm.FgLightBlue)).WithSequence("⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏").WithDelay(100).WithRemoveWhenDone(true)
	spinnerScan, _ := spinner.Start(fmt.Sprintf("Scanning %s ...", rootDependencies.Config.Root))

	snap, err := rootDependencies.Checker.Baseline(ctx)
	spinnerScan.Stop()
	fmt.Print("\r")

	if err != nil {
		if ctx.Err() != nil {
			fmt.Println(lipgloss.Yellow.Render("Scan cancelled; baseline left untouched."))
			return 1
		}
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		return 1
	}

	fmt.Println(lipgloss.Green.Render(fmt.Sprintf("✔ Baseline established for %s (%d entries)", snap.Root, snap.Len())))
	return 0
}
