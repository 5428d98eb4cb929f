package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/codewalk-dev/codewalk/internal/export"
	"github.com/codewalk-dev/codewalk/internal/session"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a session from a JSON or Markdown export",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("file not found: %s", args[0])
			}
			return err
		}

		rec, err := export.ParserFor(data).Parse(data)
		if err != nil {
			return err
		}
		if rec.ID == "" {
			rec.ID = uuid.New().String()
		}

		store, err := sessionStore()
		if err != nil {
			return err
		}
		if err := store.Save(rec); err != nil {
			if errors.Is(err, session.ErrExists) {
				return fmt.Errorf("session %s is already in the store", rec.ID)
			}
			return err
		}
		cmd.Printf("Imported session %s (%s, %d snapshots)\n",
			rec.ID, formatDuration(rec.Duration()), len(rec.CodeEvents))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
