package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/eringen/notionpub"
	"github.com/eringen/notionpub/views"
)

const shutdownTimeout = 10 * time.Second

func runServe() error {
	cfg, err := notionpub.LoadConfig()
	if err != nil {
		return err
	}
	log, err := notionpub.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	warns, err := cfg.Validate()
	for _, w := range warns {
		log.Warn("config", zap.String("warning", w))
	}
	if err != nil {
		return err
	}

	app := notionpub.New(cfg, views.Default(cfg), notionpub.WithLogger(log))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() { errc <- app.Start() }()

	select {
	case err := <-errc:
		return errors.Join(err, app.Close())
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errc
}
