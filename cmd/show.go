package cmd

import (
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <id|file>",
	Short: "Print a plain-text summary of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := loadRecording(args[0])
		if err != nil {
			return err
		}
		printSession(cmd, rec)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}
