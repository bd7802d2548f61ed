package main

import (
	"context"
	"fmt"
	"os"

	"github.com/AlibekovAA/dining-quiz/backend/internal/common/bootstrap"
	srv "github.com/AlibekovAA/dining-quiz/backend/internal/common/server"
)

func main() {
	app, err := bootstrap.NewFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start: %v\n", err)
		os.Exit(1)
	}
	log := app.Log
	defer func() {
		if err := app.Close(); err != nil {
			log.Errorf("failed to close stores: %v", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app.StartBackground(ctx)

	server := srv.NewServer(srv.ConfigFor(app.Config.HTTPPort, app.Config.RequestTimeout), app.Handler, log)

	shutdownHooks := []srv.ShutdownHook{
		func(ctx context.Context) error {
			log.Infof("stopping background sweepers")
			cancel()
			return nil
		},
	}

	if err := srv.Run(server, log, "dining-quiz", shutdownHooks); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
