package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codewalk-dev/codewalk/internal/profile"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Configure codewalk (re-run anytime to edit settings)",
	// Bypass the normal PersistentPreRunE so setup works before profile exists.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetup(false)
	},
}

// runSetup runs the interactive setup wizard.
// If firstRun is true, a welcome message is shown.
func runSetup(firstRun bool) error {
	if firstRun {
		fmt.Println()
		fmt.Println("  Welcome to codewalk! Let's get you set up.")
	}

	// Load existing profile as defaults if present.
	var existing *profile.Profile
	if profile.Exists() {
		p, err := profile.Load()
		if err == nil {
			existing = p
		}
	}

	prof, err := profile.RunSetup(existing)
	if err != nil {
		return fmt.Errorf("setup cancelled: %w", err)
	}

	if err := profile.Save(prof); err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}
	fmt.Println("  ✓ Profile saved.")
	fmt.Println("  Setup complete. Run 'codewalk record <file>' to start a walkthrough.")
	fmt.Println()
	return nil
}

func init() {
	rootCmd.AddCommand(setupCmd)
}
