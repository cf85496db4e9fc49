// quotectl is the operator CLI for the local quote engine: onboarding,
// profile inspection, quote upload and status, and notification history.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"github.com/joseph-ayodele/fieldquote-sync/internal/app"
	"github.com/joseph-ayodele/fieldquote-sync/internal/common"
	"github.com/joseph-ayodele/fieldquote-sync/internal/notify"
)

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, a *app.App, args []string, out io.Writer) error
}

var commands = []command{
	{"onboard", "create the business profile and register it", runOnboard},
	{"register", "re-send the profile to the acceptance server", runRegister},
	{"show", "print the active profile", runShow},
	{"prefs", "change notification preferences", runPrefs},
	{"server", "point the profile at another acceptance server", runServer},
	{"link", "print the acceptance link for a transfer id", runLink},
	{"status", "query the acceptance state of a transfer", runStatus},
	{"upload", "upload a quote and its PDF", runUpload},
	{"history", "list the notification history", runHistory},
	{"export-history", "write the notification history as XLSX", runExportHistory},
	{"reset", "erase the business profile", runReset},
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if errors.Is(err, common.ErrNotInitialized) {
			fmt.Fprintln(os.Stderr, "hint: run 'quotectl onboard' first")
		}
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	global := pflag.NewFlagSet("quotectl", pflag.ContinueOnError)
	verbose := global.BoolP("verbose", "v", false, "log to stderr")
	global.SetInterspersed(false)
	if err := global.Parse(args); err != nil {
		return err
	}
	rest := global.Args()
	if len(rest) == 0 {
		printUsage(out)
		return nil
	}

	var cmd *command
	for i := range commands {
		if commands[i].name == rest[0] {
			cmd = &commands[i]
		}
	}
	if cmd == nil {
		printUsage(os.Stderr)
		return fmt.Errorf("unknown command %q", rest[0])
	}

	cfg, err := common.LoadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	level := slog.LevelWarn
	if *verbose {
		level = cfg.Log.SlogLevel()
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = common.WithRequestID(ctx, uuid.NewString())

	a, err := app.Open(ctx, cfg, notify.NewWriterNotifier(io.Discard), logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.Remote.Timeout)
		defer cancel()
		_ = a.Close(closeCtx)
	}()

	return cmd.run(ctx, a, rest[1:], out)
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: quotectl [-v] <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-16s %s\n", c.name, c.summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Configuration is read from FIELDQUOTE_* environment variables.")
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	return &t, nil
}
