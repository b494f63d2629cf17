package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	ebnats "github.com/Strob0t/EventBoard/internal/adapter/nats"
	"github.com/Strob0t/EventBoard/internal/config"
	"github.com/Strob0t/EventBoard/internal/port/messagequeue"
	"github.com/Strob0t/EventBoard/internal/resilience"
	"github.com/Strob0t/EventBoard/internal/service"
)

// runFeed tails the change feed and prints one line per record until interrupted.
func runFeed(args []string) error {
	fs := flag.NewFlagSet("feed", flag.ContinueOnError)
	asJSON := fs.Bool("json", false, "print raw JSON records")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.NATS.URL == "" {
		return errors.New("feed requires nats.url (NATS_URL)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	queue, err := ebnats.Connect(ctx, cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("nats: %w", err)
	}
	defer func() { _ = queue.Close() }()

	feed := service.NewChangeFeed(queue, resilience.NewBreaker("changefeed", cfg.Breaker.MaxFailures, cfg.Breaker.Timeout))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if !*asJSON {
		_, _ = fmt.Fprintln(w, "AT\tKIND\tEVENT\tREQUEST")
		_ = w.Flush()
	}

	cancel, err := feed.Tail(ctx, func(_ context.Context, rec messagequeue.ChangeRecordPayload) {
		if err := printRecord(w, rec, *asJSON); err != nil {
			fmt.Fprintf(os.Stderr, "print record: %v\n", err)
		}
	})
	if err != nil {
		return fmt.Errorf("tail: %w", err)
	}
	defer cancel()

	fmt.Fprintln(os.Stderr, "Waiting for changes (Ctrl-C to stop)...")
	<-ctx.Done()
	return nil
}

// printRecord writes rec as one tab-aligned row, or as one JSON line.
func printRecord(w *tabwriter.Writer, rec messagequeue.ChangeRecordPayload, asJSON bool) error {
	if asJSON {
		if err := json.NewEncoder(w).Encode(rec); err != nil {
			return err
		}
		return w.Flush()
	}
	reqID := rec.RequestID
	if reqID == "" {
		reqID = "-"
	}
	if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
		rec.At.Format(time.RFC3339), rec.Kind, rec.EventID, reqID); err != nil {
		return err
	}
	return w.Flush()
}
