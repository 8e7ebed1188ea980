package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/notebookbobu/backend/internal/app"
	"github.com/notebookbobu/backend/internal/config"
)

func main() {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.LoadConfig()

	application, err := app.NewApp(ctx, cfg)
	if err != nil {
		logrus.WithField("error", err.Error()).Fatal("startup failed")
	}
	defer application.Close()

	go application.Sweeper.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- application.Server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logrus.WithField("signal", sig.String()).Info("shutting down")
	case err := <-errCh:
		if err != nil {
			logrus.WithField("error", err.Error()).Error("server stopped")
		}
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := application.Server.Shutdown(shutdownCtx); err != nil {
		logrus.WithField("error", err.Error()).Error("shutdown incomplete")
	}
}
