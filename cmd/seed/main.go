// Command seed loads sample users into the configured database.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"user-crud-service/cmd/api/app"
	"user-crud-service/cmd/api/server"
	"user-crud-service/internal/seed"
)

func main() {
	reset := flag.Bool("reset", false, "delete every existing user before seeding")
	flag.Parse()

	ctx, stop := server.WithSignal(context.Background())
	err := run(ctx, seed.DefaultSamples, *reset)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "seed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, samples []seed.Sample, reset bool) (err error) {
	a, err := app.New(ctx)
	if err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = errors.Join(err, a.Close(closeCtx))
	}()

	res, err := seed.Run(ctx, a.Container.UserUC, samples, reset, a.Logger)
	if err != nil {
		a.Logger.Error("seed failed", zap.Error(err))
		return err
	}

	a.Logger.Info("seed complete",
		zap.Int("deleted", res.Deleted),
		zap.Int("created", res.Created),
		zap.Int("skipped", res.Skipped),
	)
	return nil
}
