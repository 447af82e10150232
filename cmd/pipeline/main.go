package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"coinflow/internal/cli"
	"coinflow/internal/config"
	"coinflow/internal/etl"
	"coinflow/internal/svc"
)

const shutdownTimeout = 30 * time.Second // Grace period for an in-flight run

var (
	configFile = flag.String("f", "etc/coinflow.yaml", "the config file")
	runOnce    = flag.Bool("once", false, "execute a single run and exit")
)

func main() {
	flag.Parse()
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	log.Println("[main] Starting pipeline...")

	appCfg := config.MustLoad(*configFile)

	log.Printf("[main] Configuration loaded:")
	for _, line := range cli.ConfigSummaryLines(appCfg) {
		log.Printf("  - %s", line)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svcCtx := svc.NewServiceContext(*appCfg)

	if *runOnce {
		if err := executeRun(ctx, svcCtx); err != nil {
			log.Fatalf("[main] Run failed: %v", err)
		}
		return
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		runScheduler(ctx, svcCtx, appCfg.Pipeline.Interval)
	}()

	log.Println("[main] Pipeline started. Press Ctrl+C to stop.")

	<-ctx.Done()
	log.Println("[main] Shutdown signal received, draining...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("[main] Pipeline stopped cleanly")
	case <-shutdownCtx.Done():
		log.Println("[main] Shutdown timeout exceeded, forcing exit")
	}
}

// runScheduler executes one run per tick until the context is cancelled.
func runScheduler(ctx context.Context, svcCtx *svc.ServiceContext, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Run once immediately on startup
	if err := executeRun(ctx, svcCtx); err != nil {
		log.Printf("[pipeline] Run failed: %v", err)
	}

	for {
		select {
		case <-ctx.Done():
			log.Println("[pipeline] Stopping scheduler")
			return
		case <-ticker.C:
			if err := executeRun(ctx, svcCtx); err != nil {
				log.Printf("[pipeline] Run failed: %v", err)
			}
		}
	}
}

func executeRun(ctx context.Context, svcCtx *svc.ServiceContext) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	run := etl.NewRun(time.Now())
	log.Printf("[pipeline] Run %s starting", run.BatchID)

	result, err := svcCtx.Pipeline.Execute(ctx, run)
	if err != nil {
		return err
	}

	if result.Deduplicated {
		log.Printf("[pipeline] Run %s: batch already loaded, %d rows skipped", run.BatchID, result.Fetched)
	} else {
		log.Printf("[pipeline] Run %s: %d assets fetched, %d rows loaded", run.BatchID, result.Fetched, result.Loaded)
	}
	log.Printf("[pipeline] Run %s: raw=%s transformed=%s", run.BatchID, result.RawLocation, result.TransformedLocation)
	return nil
}
