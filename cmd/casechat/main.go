package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"case-chat/internal/client"
	"case-chat/internal/config"
	"case-chat/internal/logger"
	"case-chat/internal/terminal"
)

func main() {
	configFile := flag.String("config", "", "config file path (e.g. etc/config-dev.yaml)")
	baseURL := flag.String("url", "", "webhook base URL (overrides client.base_url)")
	flag.Parse()

	cfg := config.Load(*configFile)
	if *baseURL != "" {
		cfg.Client.BaseURL = *baseURL
	}
	// Chat output owns stdout; logs go to the configured file only.
	cfg.Log.Console = false
	if cfg.Log.File == "" {
		cfg.Log.File = "casechat.log"
	}
	logger.Init(cfg.Log)

	session := client.NewSession()
	session.OnLogout(func() { logger.Info("session.logout") })
	api := client.New(cfg.Client.BaseURL, cfg.ClientTimeout(), session)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := terminal.New(api, session, os.Stdin, os.Stdout, cfg.Client.Email)
	if err := app.Run(ctx); err != nil {
		logger.Error("casechat failed", "err", err)
		os.Exit(1)
	}
}
