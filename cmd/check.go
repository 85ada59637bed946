package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/meysamhadeli/driftcheck/constants/lipgloss"
	"github.com/meysamhadeli/driftcheck/integrity"
	"github.com/meysamhadeli/driftcheck/integrity/models"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Scan the configured tree and report drift against the stored baseline.",
	Long: `The 'check' subcommand walks the configured directory tree, fingerprints every
eligible file, compares the result against the previously stored baseline, and
reports every added, changed, and deleted entry. The new snapshot always
replaces the baseline, and a non-empty change set is persisted as an audit
artifact next to it.`,
	Run: func(cmd *cobra.Command, args []string) {
		rootDependencies := handleRootCommand(cmd)
		if rootDependencies == nil {
			os.Exit(1)
		}
		os.Exit(handleCheckCommand(rootDependencies))
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func handleCheckCommand(rootDependencies *RootDependencies) int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	spinner := pterm.DefaultSpinner.WithStyle(pterm.NewStyle(pterm.FgLightBlue)).WithSequence("⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏").WithDelay(100).WithRemoveWhenDone(true)
	spinnerScan, _ := spinner.Start(fmt.Sprintf("Checking %s ...", rootDependencies.Config.Root))

	result, err := rootDependencies.Checker.Run(ctx)
	spinnerScan.Stop()
	fmt.Print("\r")

	if err != nil {
		if ctx.Err() != nil {
			fmt.Println(lipgloss.Yellow.Render("Check cancelled; baseline left untouched."))
			return 1
		}
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		return 1
	}

	if result.BaselineErr != nil {
		fmt.Println(lipgloss.Yellow.Render(fmt.Sprintf("Warning: %v — compared against an empty baseline", result.BaselineErr)))
	}
	for _, scanErr := range result.ScanErrs {
		fmt.Println(lipgloss.Yellow.Render(fmt.Sprintf("Warning: %v", scanErr)))
	}

	printChanges(result)

	if !result.Drift && result.Err() == nil {
		fmt.Println(lipgloss.Green.Render(fmt.Sprintf("✔ No drift detected (%d entries tracked)", result.Snapshot.Len())))
		return 0
	}
	return 1
}

func printChanges(result *integrity.Result) {
	for _, change := range result.Changes {
		switch change.Status {
		case models.StatusAdded:
			fmt.Println(lipgloss.Green.Render(fmt.Sprintf("+ added    %s", change.Path)))
		case models.StatusChanged:
			fmt.Println(lipgloss.Yellow.Render(fmt.Sprintf("~ changed  %s", change.Path)))
			fmt.Println(lipgloss.Gray.Render(fmt.Sprintf("           fields: %v", change.Fields)))
		case models.StatusDeleted:
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("- deleted  %s", change.Path)))
		}
	}

	if result.Drift {
		summary := fmt.Sprintf("Drift detected: %d change(s)", len(result.Changes))
		if result.ChangeArtifact != "" {
			summary += fmt.Sprintf("\nChange artifact: %s", result.ChangeArtifact)
		}
		fmt.Println(lipgloss.BoxStyle.Render(summary))
	}
}
