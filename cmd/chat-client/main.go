package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/omochice/socket-chat-client/internal/client"
	"github.com/omochice/socket-chat-client/internal/config"
	"github.com/omochice/socket-chat-client/internal/logging"
	"github.com/omochice/socket-chat-client/internal/shell"
	ws "github.com/omochice/socket-chat-client/internal/transport/ws"
)

// VERSION of the client, set at build time.
var VERSION = "0.0.0"

func main() {
	var configFile string
	var envFile string

	rootCmd := &cobra.Command{
		Use:           "chat-client",
		Short:         "Interactive WebSocket chat client",
		Long:          "Connects to a WebSocket endpoint, sends typed lines as text frames and prints what the server sends back.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, envFile, configFile)
			if err != nil {
				return err
			}
			return run(cfg)
		},
	}
	config.DefineFlags(rootCmd.Flags())
	rootCmd.Flags().StringVarP(&configFile, "config", "c", "", "path to config file (toml, yaml or json)")
	rootCmd.Flags().StringVar(&envFile, "env-file", ".env", "path to .env file")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Client version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("chat-client v%s\n", VERSION)
		},
	}

	checkConfigCmd := &cobra.Command{
		Use:   "checkconfig",
		Short: "Check configuration",
		Long:  "Load configuration from flags, environment and config file, and report problems",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, envFile, configFile)
			if err != nil {
				return err
			}
			fmt.Printf("endpoint: %s%s\ntransport: %s\n", cfg.URL, cfg.Identifier, cfg.Transport)
			return nil
		},
	}
	config.DefineFlags(checkConfigCmd.Flags())
	checkConfigCmd.Flags().StringVarP(&configFile, "config", "c", "", "path to config file (toml, yaml or json)")
	checkConfigCmd.Flags().StringVar(&envFile, "env-file", ".env", "path to .env file")

	rootCmd.AddCommand(versionCmd, checkConfigCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command, envFile, configFile string) (config.Config, error) {
	if err := config.LoadDotEnv(envFile); err != nil {
		return config.Config{}, err
	}
	return config.Load(cmd.Flags(), configFile)
}

func run(cfg config.Config) error {
	logger, closeLog, err := logging.Setup(cfg.Log)
	if err != nil {
		return fmt.Errorf("error opening log file: %w", err)
	}
	defer closeLog()

	dialer, err := ws.NewDialer(cfg.Transport, cfg.DialerOptions())
	if err != nil {
		return err
	}

	sink := shell.NewTerminalSink(os.Stdout)
	c := client.New(client.Options{
		Base:          cfg.URL,
		Identifier:    cfg.Identifier,
		ValidateJSON:  cfg.ValidateJSON,
		Dialer:        dialer,
		Logger:        &logger,
		ShutdownGrace: cfg.ShutdownGrace,
	}, sink)
	defer c.Shutdown()

	log.Info().Str("url", cfg.URL).Str("identifier", cfg.Identifier).Str("transport", cfg.Transport).Msg("starting client")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sink.Print("Type /help for commands.")
	if cfg.AutoConnect {
		c.Connect()
	}

	sh := shell.New(c, os.Stdin, sink, shell.WithLogger(logger))
	if err := sh.Run(ctx); err != nil {
		return err
	}
	log.Info().Msg("shutting down")
	return nil
}
