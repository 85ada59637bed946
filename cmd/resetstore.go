package cmd

import (
	"bufio"
	"fmt"
	"os"

	"github.com/meysamhadeli/driftcheck/constants/lipgloss"
	"github.com/meysamhadeli/driftcheck/utils"
	"github.com/spf13/cobra"
)

// resetStoreCmd represents the reset-store command
var resetStoreCmd = &cobra.Command{
	Use:   "reset-store",
	Short: "Remove the stored baseline and change artifacts for the configured tree.",
	Long: `The 'reset-store' command removes the persisted baseline snapshot and every
change artifact recorded for the configured tree. The next check will start
from an empty baseline and report every tracked entry as added.`,
	Run: func(cmd *cobra.Command, args []string) {
		var force bool
		var stats bool

		// Parse flags
		force, _ = cmd.Flags().GetBool("force")
		stats, _ = cmd.Flags().GetBool("stats")

		handleResetStoreCommand(force, stats, cmd)
	},
}

func init() {
	// Define command-specific flags
	resetStoreCmd.Flags().BoolP("force", "f", false, "Force store reset without confirmation")
	resetStoreCmd.Flags().BoolP("stats", "s", false, "Show store statistics instead of resetting")

	rootCmd.AddCommand(resetStoreCmd)
}

func handleResetStoreCommand(force bool, showStats bool, cmd *cobra.Command) {
	rootDependencies := handleRootCommand(cmd)
	if rootDependencies == nil {
		return
	}

	store := rootDependencies.Checker.Store()
	treeID := rootDependencies.Checker.TreeID()

	if showStats {
		fmt.Println(lipgloss.Info.Render("Store Statistics:"))
		storeStats, err := store.Stats(treeID)
		if err != nil {
			fmt.Println(lipgloss.Yellow.Render(fmt.Sprintf("Warning: Could not show statistics: %v", err)))
			return
		}
		fmt.Printf("  Tree: %s (%s)\n", rootDependencies.Config.Root, treeID)
		if storeStats.BaselineExists {
			fmt.Printf("  Baseline from: %s\n", storeStats.BaselineTime.Format("2006-01-02 15:04:05"))
		} else {
			fmt.Println("  No baseline stored")
		}
		fmt.Printf("  Change artifacts: %d\n", storeStats.ChangeCount)
		fmt.Printf("  Total Size: %.2f KB\n", float64(storeStats.TotalSize)/1024)
		return
	}

	if !force {
		reader := bufio.NewReader(os.Stdin)
		confirmed, err := utils.ConfirmPrompt("Remove the stored baseline and all change artifacts?", reader)
		if err != nil {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error getting user prompt: %v", err)))
			return
		}
		if !confirmed {
			fmt.Println(lipgloss.Yellow.Render("Store reset cancelled."))
			return
		}
	}

	removed, err := store.Reset(treeID)
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error resetting store: %v", err)))
		return
	}

	fmt.Println(lipgloss.Green.Render(fmt.Sprintf("✓ Store reset: %d artifact(s) removed.", removed)))
}
