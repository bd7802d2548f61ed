package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/AlibekovAA/dining-quiz/backend/internal/admin"
	"github.com/AlibekovAA/dining-quiz/backend/internal/common/config"
)

func main() {
	if err := config.LoadDotEnv(config.EnvFile()); err != nil {
		fmt.Fprintf(os.Stderr, "quizctl: %v\n", err)
		os.Exit(1)
	}

	app := admin.NewApp(os.Stdin, os.Stdout, os.Stderr)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "quizctl: %v\n", err)
		cancel()
		os.Exit(1)
	}
}
