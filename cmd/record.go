package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/codewalk-dev/codewalk/internal/capture"
	"github.com/codewalk-dev/codewalk/internal/recorder"
	"github.com/codewalk-dev/codewalk/internal/session"
)

var (
	recordNoAudio bool
	recordOutput  string
)

var recordCmd = &cobra.Command{
	Use:   "record <file>",
	Short: "Record a walkthrough of edits to a file, with narration",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		initial, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		rec := recorder.New(captureBackend())

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer cancel()

		if err := rec.Start(ctx, string(initial)); err != nil {
			return err
		}

		watchErr := make(chan error, 1)
		go func() {
			watchErr <- recorder.WatchFile(ctx, path, rec.OnCodeChange)
		}()

		cmd.Printf("Recording %s — type 'pause', 'resume' or 'stop', or Ctrl-C to finish.\n", filepath.Base(path))

		lines := make(chan string)
		go func() {
			sc := bufio.NewScanner(cmd.InOrStdin())
			for sc.Scan() {
				lines <- strings.ToLower(strings.TrimSpace(sc.Text()))
			}
			close(lines)
		}()

	loop:
		for {
			select {
			case <-ctx.Done():
				break loop
			case line, ok := <-lines:
				if !ok {
					break loop
				}
				switch line {
				case "pause":
					if err := rec.Pause(); err != nil {
						cmd.Printf("  %v\n", err)
					} else {
						cmd.Println("  Paused.")
					}
				case "resume":
					if err := rec.Resume(); err != nil {
						cmd.Printf("  %v\n", err)
					} else {
						cmd.Println("  Resumed.")
					}
				case "stop":
					break loop
				case "":
				default:
					cmd.Printf("  Unknown command %q (pause/resume/stop)\n", line)
				}
			}
		}
		cancel()
		<-watchErr

		// Give the capture process a bounded window to flush its buffers.
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer stopCancel()
		finished, err := rec.Stop(stopCtx)
		if err != nil {
			if finished == nil {
				return err
			}
			cmd.Printf("  Audio flush failed, saving without narration: %v\n", err)
		}

		if recordOutput != "" {
			data, err := session.Encode(finished)
			if err != nil {
				return err
			}
			if err := os.WriteFile(recordOutput, data, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", recordOutput, err)
			}
			cmd.Printf("Session written to %s (%s, %d snapshots)\n",
				recordOutput, formatDuration(finished.Duration()), len(finished.CodeEvents))
			return nil
		}

		store, err := sessionStore()
		if err != nil {
			return err
		}
		if err := store.Save(finished); err != nil {
			return err
		}
		cmd.Printf("Session %s saved (%s, %d snapshots)\n",
			finished.ID, formatDuration(finished.Duration()), len(finished.CodeEvents))
		return nil
	},
}

// captureBackend picks the audio capture implementation for this run.
func captureBackend() recorder.Capture {
	if recordNoAudio {
		return capture.Null{}
	}
	if cmdline := GetConfig().CaptureCommand; len(cmdline) > 0 {
		return capture.NewExec(cmdline, "")
	}
	return capture.NewExec(nil, "")
}

func init() {
	recordCmd.Flags().BoolVar(&recordNoAudio, "no-audio", false, "record code only, no narration")
	recordCmd.Flags().StringVarP(&recordOutput, "output", "o", "", "write the session JSON to a file instead of the store")
	rootCmd.AddCommand(recordCmd)
}
