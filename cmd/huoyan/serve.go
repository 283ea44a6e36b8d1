package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/huichen/huoyan/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve entity linking over HTTP",
	Long: `Serve loads the index and answers POST /link, GET /healthz and GET /metrics.

Examples:
  huoyan serve -c huoyan.yaml
  huoyan serve -c huoyan.yaml --addr :9000`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address, overrides server.addr")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	gin.SetMode(cfg.Server.Mode)

	searcher, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer searcher.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	router := server.NewRouter(searcher, searcher.Metrics().Handler(), logger)
	return server.Serve(ctx, cfg.Server.Addr, router, logger)
}
