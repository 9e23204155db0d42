// Command payscript-server exposes script evaluation and event stream
// storage over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"payscript/internal/config"
	"payscript/pkg/payscript"
)

func main() {
	configPath := flag.String("config", "", "YAML configuration file")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	opts := []payscript.Option{
		payscript.WithSQLiteStore(cfg.Database.Path),
		payscript.WithLocalCurrency(payscript.Currency(cfg.Market.LocalCurrency)),
		payscript.WithWorkers(cfg.Workers),
	}
	if cfg.Simulation.Paths > 0 {
		opts = append(opts, payscript.WithGenerator(payscript.NewGBM(
			payscript.WithVolatility(cfg.Simulation.Volatility),
			payscript.WithDrift(cfg.Simulation.Drift),
			payscript.WithRate(cfg.Simulation.Rate),
			payscript.WithSeed(cfg.Simulation.Seed),
		), cfg.Simulation.Paths))
	}

	runtime := payscript.New(opts...)
	defer runtime.Close()

	srv := &http.Server{
		Addr:         cfg.Listen,
		Handler:      newServer(runtime).routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		fmt.Printf("listening on %s\n", cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
}
