package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/omochice/socket-chat-client/internal/logging"
	"github.com/omochice/socket-chat-client/internal/peer"
)

func main() {
	var addr string
	var logLevel string

	rootCmd := &cobra.Command{
		Use:          "peer",
		Short:        "WebSocket broadcast peer for development",
		Long:         "Accepts WebSocket connections on any path and broadcasts every text message to all connected clients.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.New(os.Stderr, logLevel)
			srv := peer.New(addr, logger)
			if err := srv.Listen(); err != nil {
				return fmt.Errorf("failed to listen: %w", err)
			}

			errc := make(chan error, 1)
			go func() {
				errc <- srv.Serve()
			}()

			sigc := make(chan os.Signal, 1)
			signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)

			select {
			case sig := <-sigc:
				logger.Info().Str("signal", sig.String()).Msg("shutting down")
				srv.Stop()
				return <-errc
			case err := <-errc:
				return err
			}
		},
	}
	rootCmd.Flags().StringVarP(&addr, "addr", "a", ":8080", "listen address")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "log level: trace, debug, info, warn, error or none")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
