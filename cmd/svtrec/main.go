// The svtrec command lists the streams of a show and saves one of them with ffmpeg.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/agleyzer/svtrec/internal/command"
	"github.com/agleyzer/svtrec/internal/config"
	"github.com/agleyzer/svtrec/internal/parser"
	"github.com/agleyzer/svtrec/internal/playlist"
	"github.com/agleyzer/svtrec/internal/recorder"
	"github.com/agleyzer/svtrec/internal/report"
	"github.com/agleyzer/svtrec/internal/server"
	"github.com/agleyzer/svtrec/internal/show"
	"github.com/agleyzer/svtrec/internal/variant"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	version = "1.0.0"
)

const description = `Lists the available bitrates of an SVT Play show together with the
ffmpeg command that saves each of them.

If a bitrate is given the first stream above it is saved automatically. If no
output name is given one is derived from the show title.`

// options holds the root command flags.
type options struct {
	bitrate       string
	output        string
	pageURL       string
	manifestURL   string
	length        int64
	title         string
	format        string
	writePlaylist string
	dryRun        bool
	verbose       bool
}

// app carries the process wiring so tests can replace it.
type app struct {
	stdout io.Writer
	stderr io.Writer

	// runner saves the chosen stream; nil runs ffmpeg
	runner command.Runner
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{stdout: os.Stdout, stderr: os.Stderr}
	if err := a.rootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func (a *app) rootCmd() *cobra.Command {
	var opts options

	root := &cobra.Command{
		Use:          "svtrec [flags] [url]",
		Short:        "List and save SVT Play streams",
		Long:         description,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 && opts.pageURL == "" {
				opts.pageURL = args[0]
			}
			return a.record(cmd.Context(), opts)
		},
	}

	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	flags := root.Flags()
	flags.StringVarP(&opts.bitrate, "bitrate", "b", "", "Save the first stream above this bitrate (e.g. 800k, 1.5M)")
	flags.StringVarP(&opts.output, "output", "o", "", "Base name for the output file")
	flags.StringVarP(&opts.pageURL, "url", "u", "", "URL of the show page")
	flags.StringVar(&opts.manifestURL, "manifest-url", "", "Use this master playlist instead of inspecting a show page")
	flags.Int64Var(&opts.length, "length", 0, "Show length in seconds, used with --manifest-url")
	flags.StringVar(&opts.title, "title", "", "Show title, used with --manifest-url")
	flags.StringVar(&opts.format, "format", "text", "Listing format: text, json or yaml")
	flags.StringVar(&opts.writePlaylist, "write-playlist", "", "Also write a master playlist with absolute URIs to this file")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "Print the listing but do not run ffmpeg")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose logging")

	root.AddCommand(a.serveCmd(&opts.verbose), a.versionCmd())

	return root
}

func (a *app) serveCmd(verbose *bool) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve stream listings over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port < 1 || port > 65535 {
				return fmt.Errorf("port must be between 1 and 65535")
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			logger, closeLog := newLogger(a.stderr, cfg, *verbose)
			defer closeLog()

			logger.Info("svtrec starting", "version", version, "mode", "serve")

			fetcher := parser.NewFetcher(cfg.HTTPTimeout, cfg.UserAgent, logger)
			inspector := &show.CommandInspector{
				Path:   cfg.RendererPath,
				Args:   cfg.RendererArgs,
				Script: cfg.RendererScript,
				Logger: logger,
			}
			rec := recorder.New(inspector, fetcher, logger, recorder.Options{FFmpegPath: cfg.FFmpegPath})

			if err := server.New(rec, port, logger).Start(cmd.Context()); err != nil {
				logger.Error("server error", "error", err)
				return err
			}

			logger.Info("svtrec stopped")
			return nil
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "HTTP server port")

	return cmd
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version and exit",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.stdout, "svtrec v%s\n", version)
		},
	}
}

func (a *app) record(ctx context.Context, opts options) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, closeLog := newLogger(a.stderr, cfg, opts.verbose)
	defer closeLog()

	if err := a.run(ctx, cfg, opts, logger); err != nil {
		logger.Error("application error", "error", err)
		return err
	}
	return nil
}

func (a *app) run(ctx context.Context, cfg *config.Config, opts options, logger *slog.Logger) error {
	formatter, err := report.New(opts.format)
	if err != nil {
		return err
	}

	recOpts := recorder.Options{
		FFmpegPath: cfg.FFmpegPath,
		Output:     opts.output,
	}
	if opts.bitrate != "" {
		bitrate, err := variant.ParseBitrate(opts.bitrate)
		if err != nil {
			return fmt.Errorf("invalid --bitrate: %w", err)
		}
		recOpts.MinBitrate = bitrate
		recOpts.AutoSelect = true
	}

	var inspector show.Inspector
	switch {
	case opts.manifestURL != "":
		if opts.title == "" && recOpts.Output == "" {
			recOpts.Output = "stream"
		}
		inspector = show.Static{
			Title:         opts.title,
			Alt:           opts.title,
			LengthSeconds: opts.length,
			ManifestURL:   opts.manifestURL,
		}
	case opts.pageURL != "":
		inspector = &show.CommandInspector{
			Path:   cfg.RendererPath,
			Args:   cfg.RendererArgs,
			Script: cfg.RendererScript,
			Logger: logger,
		}
	default:
		return fmt.Errorf("a show URL (-u) or --manifest-url is required")
	}

	fetcher := parser.NewFetcher(cfg.HTTPTimeout, cfg.UserAgent, logger)
	rec := recorder.New(inspector, fetcher, logger, recOpts)

	plan, err := rec.Plan(ctx, opts.pageURL)
	if err != nil {
		return err
	}

	out, err := formatter.Format(plan)
	if err != nil {
		return fmt.Errorf("failed to format listing: %w", err)
	}
	if _, err := a.stdout.Write(out); err != nil {
		return err
	}

	if opts.writePlaylist != "" {
		if err := playlist.WriteMaster(opts.writePlaylist, plan.Selection, false); err != nil {
			return err
		}
		logger.Info("wrote master playlist", "path", opts.writePlaylist)
	}

	if !recOpts.AutoSelect {
		return nil
	}

	chosen, ok := plan.Chosen()
	if !ok {
		logger.Warn("no stream above requested bitrate, nothing saved", "bitrate", variant.FormatBitrate(recOpts.MinBitrate))
		return nil
	}

	if opts.dryRun {
		logger.Info("dry run, not saving stream", "output", chosen.Output)
		return nil
	}

	// Machine readable listings keep stdout to the document itself
	if _, text := formatter.(report.TextFormatter); text {
		fmt.Fprintf(a.stdout, "\nSaving stream to %s\n\n", chosen.Output)
	}
	logger.Info("saving stream", "output", chosen.Output)

	runner := a.runner
	if runner == nil {
		runner = command.ExecRunner{Logger: logger}
	}

	if _, err := rec.Run(ctx, plan, runner); err != nil {
		return err
	}
	return nil
}

// newLogger writes text logs to w and, when configured, to a rotating file.
// The returned func closes the file.
func newLogger(w io.Writer, cfg *config.Config, verbose bool) (*slog.Logger, func()) {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}

	closeFn := func() {}
	if cfg.LogFile != "" {
		file := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    cfg.LogMaxSizeMB,
			MaxBackups: 3,
			MaxAge:     28,
		}
		w = io.MultiWriter(w, file)
		closeFn = func() { file.Close() }
	}

	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	}))

	return logger, closeFn
}
