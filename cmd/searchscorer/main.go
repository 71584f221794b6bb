package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"SearchScorer/internal/app"
	"SearchScorer/internal/config"
	"SearchScorer/internal/logging"
)

const usage = `usage:
  searchscorer annotate -url <page url> [-out file] [-interval d] <page.html> [fragment.html...]
  searchscorer serve
  searchscorer settings get <key>
  searchscorer settings set <key> <value>`

func main() {
	// .env is optional
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer application.Close()

	if err := run(ctx, application, os.Args[1], os.Args[2:]); err != nil {
		logger.Error("command failed", "command", os.Args[1], "error", err)
		application.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, application *app.Application, command string, args []string) error {
	switch command {
	case "annotate":
		return annotate(ctx, application, args)
	case "serve":
		return application.Serve(ctx)
	case "settings":
		return settingsCommand(ctx, application, args)
	default:
		return fmt.Errorf("unknown command %q\n%s", command, usage)
	}
}

func annotate(ctx context.Context, application *app.Application, args []string) error {
	fs := flag.NewFlagSet("annotate", flag.ContinueOnError)
	pageURL := fs.String("url", "", "URL the saved results page was loaded from")
	outPath := fs.String("out", "", "write the annotated page here instead of stdout")
	interval := fs.Duration("interval", time.Second, "delay between appended fragments")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *pageURL == "" || fs.NArg() == 0 {
		return fmt.Errorf("annotate needs -url and a page file")
	}

	var out io.Writer = os.Stdout
	if *outPath != "" {
		file, err := os.Create(*outPath)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer file.Close()
		out = file
	}

	return application.Annotate(ctx, app.AnnotateOptions{
		PageURL:   *pageURL,
		Page:      fs.Arg(0),
		Fragments: fs.Args()[1:],
		Interval:  *interval,
		Out:       out,
	})
}

func settingsCommand(ctx context.Context, application *app.Application, args []string) error {
	switch {
	case len(args) == 2 && args[0] == "get":
		value, err := application.Setting(ctx, args[1])
		if err != nil {
			return err
		}
		fmt.Println(value)
		return nil
	case len(args) == 3 && args[0] == "set":
		return application.SetSetting(ctx, args[1], args[2])
	default:
		return fmt.Errorf("settings needs get <key> or set <key> <value>")
	}
}
