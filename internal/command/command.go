// Package command builds and runs the ffmpeg invocations that save a stream.
package command

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"regexp"
	"strings"

	"github.com/agleyzer/svtrec/internal/selector"
	"github.com/agleyzer/svtrec/internal/variant"
)

// Command is a single ffmpeg invocation.
type Command struct {
	Path string   `json:"path" yaml:"path"`
	Args []string `json:"args" yaml:"args"`

	// Output is the file the command writes
	Output string `json:"output" yaml:"output"`
}

// Options holds what every command of a listing has in common.
type Options struct {
	// FFmpegPath defaults to "ffmpeg"
	FFmpegPath string

	// BaseName is the output file name without bitrate suffix and extension
	BaseName string

	// AudioURL and SubtitlesURL add extra inputs when non-empty
	AudioURL     string
	SubtitlesURL string
}

// Build returns the ffmpeg command that copies the given stream, plus the
// optional audio and subtitle inputs, into a single file. Subtitles need a
// Matroska container; everything else goes to MP4.
func Build(streamURL string, bandwidth int64, opts Options) Command {
	ffmpegPath := opts.FFmpegPath
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}

	args := []string{
		"-loglevel", "quiet",
		"-stats",
		"-i", streamURL,
	}
	if opts.AudioURL != "" {
		args = append(args, "-i", opts.AudioURL)
	}
	if opts.SubtitlesURL != "" {
		args = append(args, "-i", opts.SubtitlesURL)
	}

	ext := "mp4"
	if opts.SubtitlesURL != "" {
		ext = "mkv"
	}
	output := fmt.Sprintf("%s_%s.%s", opts.BaseName, variant.FormatBitrate(bandwidth), ext)

	args = append(args,
		"-c", "copy",
		"-bsf:a", "aac_adtstoasc",
		output,
	)

	return Command{
		Path:   ffmpegPath,
		Args:   args,
		Output: output,
	}
}

// BuildAll returns one command per candidate, in listing order.
func BuildAll(sel selector.Selection, opts Options) []Command {
	if sel.Audio != nil {
		opts.AudioURL = sel.Audio.AbsoluteURL
	}
	if sel.Subtitles != nil {
		opts.SubtitlesURL = sel.Subtitles.AbsoluteURL
	}

	cmds := make([]Command, 0, len(sel.Candidates))
	for _, c := range sel.Candidates {
		cmds = append(cmds, Build(c.Stream.AbsoluteURL, c.Stream.Bandwidth, opts))
	}
	return cmds
}

// String renders the command as a shell line. Inputs are single-quoted
// because manifest URLs carry query strings.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, c.Path)

	for i, arg := range c.Args {
		if i > 0 && c.Args[i-1] == "-i" {
			parts = append(parts, shellQuote(arg))
			continue
		}
		parts = append(parts, arg)
	}

	return strings.Join(parts, " ")
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

var (
	separators    = regexp.MustCompile(`[- ]`)
	underscores   = regexp.MustCompile(`_+`)
	transliterate = strings.NewReplacer(
		"å", "a", "ä", "a", "ö", "o",
		"à", "a", "è", "e", "é", "e",
		"?", "_", "!", "_",
	)
)

// BaseName derives an output file name from the show's alt text.
func BaseName(alt string) string {
	name := transliterate.Replace(strings.ToLower(alt))
	name = separators.ReplaceAllString(name, "_")
	return underscores.ReplaceAllString(name, "_")
}

// Runner executes a command.
type Runner interface {
	Run(ctx context.Context, cmd Command) error
}

// ExecRunner runs commands as child processes attached to the terminal.
type ExecRunner struct {
	Logger *slog.Logger
}

// Run starts ffmpeg and waits for it to finish.
func (r ExecRunner) Run(ctx context.Context, c Command) error {
	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	r.Logger.Info("saving stream", "output", c.Output)

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg failed: %w", err)
	}
	return nil
}
