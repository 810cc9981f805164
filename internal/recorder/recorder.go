// Package recorder runs the show-to-command pipeline: inspect the page,
// fetch and parse the manifest, select a stream and build the commands.
package recorder

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/agleyzer/svtrec/internal/command"
	"github.com/agleyzer/svtrec/internal/parser"
	"github.com/agleyzer/svtrec/internal/selector"
	"github.com/agleyzer/svtrec/internal/show"
)

// ManifestFetcher downloads a manifest and reports the final URL after
// redirects.
type ManifestFetcher interface {
	Fetch(ctx context.Context, manifestURL string) (text string, baseURL string, err error)
}

// Options tunes a Recorder.
type Options struct {
	// MinBitrate and AutoSelect are passed to the selector
	MinBitrate int64
	AutoSelect bool

	// FFmpegPath is the media tool to invoke
	FFmpegPath string

	// Output overrides the file base name derived from the show
	Output string
}

// Plan is everything known about a show once the manifest is parsed.
type Plan struct {
	Show      show.Metadata
	BaseURL   string
	Kind      parser.Kind
	Selection selector.Selection
	// Commands has one entry per Selection.Candidates entry, same order
	Commands []command.Command
}

// Chosen returns the command for the auto-selected stream, if any.
func (p *Plan) Chosen() (command.Command, bool) {
	for i, c := range p.Selection.Candidates {
		if c.AutoSelected {
			return p.Commands[i], true
		}
	}
	return command.Command{}, false
}

// Recorder turns show pages into download plans.
type Recorder struct {
	inspector show.Inspector
	fetcher   ManifestFetcher
	logger    *slog.Logger
	opts      Options
}

// New creates a Recorder.
func New(inspector show.Inspector, fetcher ManifestFetcher, logger *slog.Logger, opts Options) *Recorder {
	return &Recorder{
		inspector: inspector,
		fetcher:   fetcher,
		logger:    logger,
		opts:      opts,
	}
}

// WithMinBitrate returns a copy of the Recorder that auto-selects the first
// stream above bitrate.
func (r *Recorder) WithMinBitrate(bitrate int64) *Recorder {
	c := *r
	c.opts.MinBitrate = bitrate
	c.opts.AutoSelect = true
	return &c
}

// Plan inspects the page and builds the stream listing for it.
func (r *Recorder) Plan(ctx context.Context, pageURL string) (*Plan, error) {
	meta, err := r.inspector.Inspect(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect show page: %w", err)
	}

	return r.planShow(ctx, meta)
}

// planShow builds the stream listing for already known show metadata.
func (r *Recorder) planShow(ctx context.Context, meta show.Metadata) (*Plan, error) {
	r.logger.Info("fetching manifest", "url", meta.ManifestURL)
	text, baseURL, err := r.fetcher.Fetch(ctx, meta.ManifestURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch manifest: %w", err)
	}

	kind, err := parser.Detect(text)
	if err != nil {
		r.logger.Debug("could not classify manifest", "error", err)
	} else if kind == parser.KindMedia {
		r.logger.Warn("manifest is a media playlist, no variants to choose from", "url", baseURL)
	}

	manifest, err := parser.Parse(text, baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	for _, m := range manifest.Media {
		r.logger.Debug("media", "type", m.Type, "name", m.Name, "autoselect", m.Autoselect, "url", m.AbsoluteURL)
	}
	for _, s := range manifest.Streams {
		r.logger.Debug("stream", "bandwidth", s.Bandwidth, "resolution", s.Resolution, "url", s.AbsoluteURL)
	}

	sel := selector.Select(manifest.Streams, manifest.Media, selector.Options{
		MinBitrate:    r.opts.MinBitrate,
		AutoSelect:    r.opts.AutoSelect,
		LengthSeconds: meta.LengthSeconds,
	})

	baseName := r.opts.Output
	if baseName == "" {
		baseName = command.BaseName(meta.Alt)
	}

	plan := &Plan{
		Show:      meta,
		BaseURL:   baseURL,
		Kind:      kind,
		Selection: sel,
		Commands: command.BuildAll(sel, command.Options{
			FFmpegPath: r.opts.FFmpegPath,
			BaseName:   baseName,
		}),
	}

	r.logger.Info("parsed manifest",
		"streams", len(manifest.Streams),
		"media", len(manifest.Media),
		"audio", sel.Audio != nil,
		"subtitles", sel.Subtitles != nil,
	)

	if r.opts.AutoSelect {
		if chosen, ok := sel.Chosen(); ok {
			r.logger.Info("auto-selected stream", "bandwidth", chosen.Stream.Bandwidth, "resolution", chosen.Stream.Resolution)
		} else {
			r.logger.Info("no stream above requested bitrate", "bitrate", r.opts.MinBitrate)
		}
	}

	return plan, nil
}

// Run executes the auto-selected command. It returns false when the plan
// has nothing selected.
func (r *Recorder) Run(ctx context.Context, plan *Plan, runner command.Runner) (bool, error) {
	cmd, ok := plan.Chosen()
	if !ok {
		return false, nil
	}

	if err := runner.Run(ctx, cmd); err != nil {
		return true, fmt.Errorf("failed to save stream: %w", err)
	}
	return true, nil
}
