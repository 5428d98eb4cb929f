package cmd

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/codewalk-dev/codewalk/internal/playback"
	"github.com/codewalk-dev/codewalk/internal/session"
	"github.com/codewalk-dev/codewalk/internal/timemap"
	"github.com/codewalk-dev/codewalk/internal/tui"
)

var (
	playPlain bool
	playRate  float64
)

var playCmd = &cobra.Command{
	Use:   "play <id|file>",
	Short: "Replay a recorded walkthrough",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := loadRecording(args[0])
		if err != nil {
			return err
		}

		if playPlain {
			printSession(cmd, rec)
			return nil
		}

		player := playback.New(rec, buildTransport(rec),
			playback.WithTick(time.Duration(cfg.TickMs)*time.Millisecond))
		defer player.Close()
		if playRate != 1 {
			player.SetRate(playRate)
		}

		return tui.Run(player, args[0], int64(cfg.SeekStepMs))
	},
}

// buildTransport picks the playback transport: an external audio player when
// the session has locally readable audio and a player command is configured,
// the wall clock otherwise.
func buildTransport(rec *session.Recording) playback.Transport {
	duration := playback.RawDuration(rec)
	if rec.HasAudio() && len(cfg.PlayerCommand) > 0 {
		if path := rec.Audio.FilePath(); path != "" {
			return playback.NewExecFollower(path, cfg.PlayerCommand, duration)
		}
	}
	return playback.NewWallclock(duration)
}

// printSession writes a plain-text summary to the command output.
func printSession(cmd *cobra.Command, rec *session.Recording) {
	mapper := timemap.New(rec.AudioEvents)

	cmd.Println("## Session")
	cmd.Printf("  Id:        %s\n", rec.ID)
	cmd.Printf("  Recorded:  %s\n", formatTimestamp(rec.RecordedAt))
	cmd.Printf("  Duration:  %s\n", formatDuration(rec.Duration()))
	cmd.Printf("  Snapshots: %d\n", len(rec.CodeEvents))
	if n := mapper.PauseCount(); n > 0 {
		cmd.Printf("  Pauses:    %d (%s paused)\n", n, formatDuration(mapper.TotalPaused()))
	}
	if rec.HasAudio() {
		cmd.Printf("  Audio:     yes (%s)\n", rec.Audio.MIME)
	} else {
		cmd.Println("  Audio:     no")
	}
	cmd.Println()

	cmd.Println("## Timeline")
	if len(rec.CodeEvents) == 0 {
		cmd.Println("  (no snapshots)")
	} else {
		for _, ev := range rec.CodeEvents {
			cmd.Printf("  %8s  %-8s  %d bytes\n", formatDuration(ev.Timestamp), ev.Type, len(ev.Data))
		}
	}
	cmd.Println()

	cmd.Println("## Final Code")
	if rec.FinalCode == "" {
		cmd.Println("  (empty buffer)")
	} else {
		cmd.Println(indent(rec.FinalCode, "  "))
	}
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}

func init() {
	playCmd.Flags().BoolVar(&playPlain, "plain", false, "plain text summary instead of the replay UI")
	playCmd.Flags().Float64Var(&playRate, "rate", 1, "playback rate")
	rootCmd.AddCommand(playCmd)
}
