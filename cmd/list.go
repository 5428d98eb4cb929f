package cmd

import (
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := sessionStore()
		if err != nil {
			return err
		}
		metas, err := store.List()
		if err != nil {
			return err
		}
		if len(metas) == 0 {
			cmd.Println("No sessions recorded yet. Run 'codewalk record <file>' to create one.")
			return nil
		}

		cmd.Printf("%-38s %-18s %8s %10s %6s\n", "ID", "RECORDED", "LENGTH", "SNAPSHOTS", "AUDIO")
		for _, m := range metas {
			audio := "no"
			if m.HasAudio {
				audio = "yes"
			}
			cmd.Printf("%-38s %-18s %8s %10d %6s\n",
				m.ID, formatTimestamp(m.RecordedAt), formatDuration(m.DurationMS), m.CodeEvents, audio)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
