package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"dreamweaver-ai/internal/app"
	"dreamweaver-ai/internal/config"
	"dreamweaver-ai/internal/ingest"
	"dreamweaver-ai/internal/logging"
	"dreamweaver-ai/internal/rag"
)

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// Metadata keys for the lazily built application and its log file.
const (
	appKey = "app"
	logKey = "log"
)

var errReset = errors.New("reset deletes every entry; rerun with --yes to confirm")

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:      "journal",
		Usage:     "Import, search and maintain your journal",
		Writer:    out,
		ErrWriter: out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Override LOG_LEVEL (debug, info, warn, error)",
			},
		},
		After: closeApp,
		Commands: []*cli.Command{
			{
				Name:      "import",
				Usage:     "Import journal files (" + strings.Join(ingest.SupportedExtensions(), " ") + ")",
				ArgsUsage: "FILE...",
				Action:    importCommand,
			},
			{
				Name:      "ask",
				Usage:     "Ask a question about your journal",
				ArgsUsage: "QUESTION",
				Action:    askCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "k",
						Usage: "Number of entries to retrieve (max 20)",
						Value: rag.DefaultK,
					},
					&cli.StringFlag{
						Name:  "date",
						Usage: "Only use entries from this day (YYYY-MM-DD)",
					},
					&cli.StringFlag{
						Name:  "mood",
						Usage: "Only use entries with this mood",
					},
					&cli.StringFlag{
						Name:  "source",
						Usage: "Only use entries from this source (text, audio, image)",
					},
				},
			},
			{
				Name:   "tags",
				Usage:  "List every tag in use",
				Action: tagsCommand,
			},
			{
				Name:   "reset",
				Usage:  "Delete every entry from both stores",
				Action: resetCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "yes",
						Usage: "Confirm the reset",
					},
				},
			},
		},
	}
}

// loadApp builds the application on first use and caches it for the rest of the run.
func loadApp(c *cli.Context) (*app.App, error) {
	if a, ok := c.App.Metadata[appKey].(*app.App); ok {
		return a, nil
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if lvl := c.String("log-level"); lvl != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(lvl)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", lvl, err)
		}
	}
	// Command output owns stdout.
	logger, logCloser := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile}, os.Stderr)
	slog.SetDefault(logger)

	a, err := app.New(cfg)
	if err != nil {
		_ = logCloser.Close()
		return nil, err
	}
	if c.App.Metadata == nil {
		c.App.Metadata = map[string]any{}
	}
	c.App.Metadata[appKey] = a
	c.App.Metadata[logKey] = logCloser
	return a, nil
}

func closeApp(c *cli.Context) error {
	var errs []error
	if a, ok := c.App.Metadata[appKey].(*app.App); ok {
		errs = append(errs, a.Close())
	}
	if closer, ok := c.App.Metadata[logKey].(io.Closer); ok {
		errs = append(errs, closer.Close())
	}
	return errors.Join(errs...)
}

func signalContext(c *cli.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
}

func importCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return errors.New("import needs at least one FILE")
	}
	for _, path := range c.Args().Slice() {
		if _, err := ingest.KindOf(path); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}

	a, err := loadApp(c)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext(c)
	defer cancel()

	var failed []string
	for _, path := range c.Args().Slice() {
		report, err := a.Pipeline.Import(ctx, path)
		if report != nil {
			printReport(c.App.Writer, report)
		}
		if err != nil {
			fmt.Fprintf(c.App.ErrWriter, "%s: %v\n", path, err)
			failed = append(failed, path)
			if errors.Is(err, ingest.ErrStoreUnavailable) || ctx.Err() != nil {
				break
			}
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("import failed for %s", strings.Join(failed, ", "))
	}
	return nil
}

func printReport(w io.Writer, r *ingest.Report) {
	fmt.Fprintf(w, "%s (%s): %d imported, %d duplicate, %d skipped, %d failed\n",
		r.File, r.Kind, r.Imported(), r.Count(ingest.StatusDuplicate), r.Count(ingest.StatusSkipped), r.Count(ingest.StatusFailed))
	for _, o := range r.Outcomes {
		switch o.Status {
		case ingest.StatusImported:
			continue
		case ingest.StatusDuplicate:
			fmt.Fprintf(w, "  #%d duplicate of entry %d (%s)\n", o.Index, o.EntryID, o.Date)
		default:
			fmt.Fprintf(w, "  #%d %s: %s\n", o.Index, o.Status, o.Error)
		}
	}
}

func askCommand(c *cli.Context) error {
	question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if question == "" {
		return errors.New("ask needs a QUESTION")
	}

	a, err := loadApp(c)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext(c)
	defer cancel()

	resp, err := a.Engine.Ask(ctx, rag.AskRequest{
		Question: question,
		K:        c.Int("k"),
		Filters: rag.Filters{
			Date:   c.String("date"),
			Mood:   c.String("mood"),
			Source: c.String("source"),
		},
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(c.App.Writer, resp.Answer)
	if len(resp.References) > 0 {
		fmt.Fprintln(c.App.Writer, "\nSources:")
		for _, ref := range resp.References {
			fmt.Fprintf(c.App.Writer, "  entry %d  %s  %s  %.3f\n", ref.EntryID, ref.Date, ref.Mood, ref.Score)
		}
	}
	return nil
}

func tagsCommand(c *cli.Context) error {
	a, err := loadApp(c)
	if err != nil {
		return err
	}
	tags, err := a.Service.Tags(c.Context)
	if err != nil {
		return err
	}
	for _, tag := range tags {
		fmt.Fprintln(c.App.Writer, tag)
	}
	return nil
}

func resetCommand(c *cli.Context) error {
	if !c.Bool("yes") {
		return errReset
	}

	a, err := loadApp(c)
	if err != nil {
		return err
	}
	if err := a.Service.Reset(c.Context); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, "All data reset (SQLite & Qdrant).")
	return nil
}
