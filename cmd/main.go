package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/term"

	"tourdesk/internal/client"
	"tourdesk/internal/config"
	"tourdesk/internal/console"
	"tourdesk/internal/session"
	"tourdesk/internal/utils/logger"
)

// tourdesk is the interactive admin console for the tour desk backend
func main() {
	log := logger.New("tourdesk")
	// the console owns stdout
	logger.SetOutput(os.Stderr)

	// check if .env file exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			log.Error("Failed to load environment variables", err)
			os.Exit(1)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		log.Error("Failed to load configuration", err)
		os.Exit(1)
	}
	logger.SetLevel(logger.ParseLevel(cfg.Log.Level))

	store, err := session.NewStore(cfg.Session, cfg.Redis)
	if err != nil {
		log.Error("Failed to open session store", err)
		os.Exit(1)
	}
	if closer, ok := store.(io.Closer); ok {
		defer closer.Close()
	}
	sessions := session.NewManager(store, cfg.API)

	api, err := client.NewFromConfig(cfg.API, client.WithTokenSource(sessions))
	if err != nil {
		log.Error("Failed to create API client", err)
		os.Exit(1)
	}

	var opts []console.Option
	if term.IsTerminal(int(os.Stdin.Fd())) {
		opts = append(opts, console.WithTerminal())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		// unblock the pending read
		<-ctx.Done()
		_ = os.Stdin.Close()
	}()

	if err := console.New(cfg, api, sessions, os.Stdin, os.Stdout, opts...).Run(ctx); err != nil && ctx.Err() == nil {
		log.Error("Console stopped", err)
		stop()
		os.Exit(1)
	}
}
