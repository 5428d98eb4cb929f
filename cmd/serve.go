package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/codewalk-dev/codewalk/internal/server"
)

var (
	serveAddr  string
	serveStore string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve stored sessions over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := serveAddr
		if addr == "" {
			addr = cfg.ListenAddr
		}

		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer cancel()

		var store server.Store
		switch serveStore {
		case "disk":
			local, err := sessionStore()
			if err != nil {
				return err
			}
			store = &server.DiskStore{Local: local}
		case "redis":
			redisAddr := cfg.RedisAddr
			if redisAddr == "" {
				redisAddr = "localhost:6379"
			}
			rs, err := server.NewRedisStore(ctx, redisAddr, time.Duration(cfg.SessionTTLMin)*time.Minute)
			if err != nil {
				return err
			}
			defer rs.Close()
			store = rs
		default:
			return fmt.Errorf("unknown store %q (disk or redis)", serveStore)
		}

		return server.Serve(ctx, addr, store, logger)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	serveCmd.Flags().StringVar(&serveStore, "store", "disk", "session store backend: disk or redis")
	rootCmd.AddCommand(serveCmd)
}
