package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/smallnest/ragagent/server"
)

var addrFlag string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the HTTP server with the REST API and WebSocket streaming.

Examples:
  ragagent serve
  ragagent serve --addr :9090`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&addrFlag, "addr", "", "Address to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	session, err := a.newSession(ctx)
	if err != nil {
		return err
	}

	addr := a.cfg.Server.Addr
	if addrFlag != "" {
		addr = addrFlag
	}

	srv := server.New(session, server.WithLogger(a.logger))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		if err := srv.Shutdown(context.Background()); err != nil {
			a.logger.Error("shutdown failed: %v", err)
		}
	}()

	return srv.Start(addr)
}
