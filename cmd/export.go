package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/codewalk-dev/codewalk/internal/export"
)

var (
	exportOutput      string
	exportFormat      string
	exportInlineAudio bool
)

var exportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Render a session as a shareable document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := loadRecording(args[0])
		if err != nil {
			return err
		}

		format := exportFormat
		if format == "" {
			format = cfg.DefaultFormat
		}

		var renderer export.Renderer
		var ext string
		switch format {
		case "json":
			renderer = &export.JSONRenderer{InlineAudio: exportInlineAudio}
			ext = ".json"
		case "markdown", "md":
			renderer = &export.MarkdownRenderer{}
			ext = ".md"
		default:
			return fmt.Errorf("unknown format %q (markdown or json)", format)
		}

		data, err := renderer.Render(rec)
		if err != nil {
			return err
		}

		out := exportOutput
		if out == "" {
			out = rec.ID + ext
		}
		if out == "-" {
			cmd.Print(string(data))
			return nil
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", out, err)
		}
		cmd.Printf("Exported session %s to %s\n", rec.ID, out)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "out", "o", "", "output path ('-' for stdout)")
	exportCmd.Flags().StringVar(&exportFormat, "format", "", "output format: markdown or json")
	exportCmd.Flags().BoolVar(&exportInlineAudio, "inline-audio", false, "embed audio bytes in a JSON export")
	rootCmd.AddCommand(exportCmd)
}
