// Package report renders stream listings for people and for programs.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/agleyzer/svtrec/internal/parser"
	"github.com/agleyzer/svtrec/internal/recorder"
	"github.com/agleyzer/svtrec/internal/show"
	"github.com/agleyzer/svtrec/internal/track"
	"github.com/agleyzer/svtrec/internal/variant"
	"gopkg.in/yaml.v3"
)

// Formatter renders a plan.
type Formatter interface {
	Format(plan *recorder.Plan) ([]byte, error)
}

// New returns the formatter for a format name: text, json or yaml.
func New(format string) (Formatter, error) {
	switch format {
	case "", "text":
		return TextFormatter{}, nil
	case "json":
		return JSONFormatter{Indent: true}, nil
	case "yaml":
		return YAMLFormatter{}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

// TextFormatter prints the listing the way a person reads it: a header with
// the show, then one line per bitrate followed by its command.
type TextFormatter struct{}

func (TextFormatter) Format(plan *recorder.Plan) ([]byte, error) {
	var b bytes.Buffer

	fmt.Fprintln(&b, plan.Show.Alt)
	fmt.Fprintln(&b, "------------------------------------------------")
	fmt.Fprintf(&b, "Title  : %s\n", plan.Show.Title)
	fmt.Fprintf(&b, "Length : %d seconds\n", plan.Show.LengthSeconds)
	if plan.Kind == parser.KindMedia {
		fmt.Fprintln(&b, "Note   : the manifest is a media playlist, there are no bitrates to choose from")
	}
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, "Bitrates:")
	fmt.Fprintln(&b, "---------")

	for i, c := range plan.Selection.Candidates {
		fmt.Fprintf(&b, "%-12s %-12s %d MB\n",
			variant.FormatBitrate(c.Stream.Bandwidth),
			c.Stream.Resolution,
			c.EstimatedSizeMB,
		)
		fmt.Fprintln(&b, plan.Commands[i].String())
		fmt.Fprintln(&b)
	}

	return b.Bytes(), nil
}

// document is the machine readable shape of a plan. Kind is "master",
// "media" or "unknown".
type document struct {
	Show      show.Metadata     `json:"show" yaml:"show"`
	BaseURL   string            `json:"base_url" yaml:"base_url"`
	Kind      string            `json:"kind" yaml:"kind"`
	Audio     *track.MediaTrack `json:"audio,omitempty" yaml:"audio,omitempty"`
	Subtitles *track.MediaTrack `json:"subtitles,omitempty" yaml:"subtitles,omitempty"`
	Streams   []streamDoc       `json:"streams" yaml:"streams"`
}

type streamDoc struct {
	Bitrate          string `json:"bitrate" yaml:"bitrate"`
	Bandwidth        int64  `json:"bandwidth" yaml:"bandwidth"`
	AverageBandwidth int64  `json:"average_bandwidth" yaml:"average_bandwidth"`
	Resolution       string `json:"resolution,omitempty" yaml:"resolution,omitempty"`
	URL              string `json:"url" yaml:"url"`
	EstimatedSizeMB  int64  `json:"estimated_size_mb" yaml:"estimated_size_mb"`
	AutoSelected     bool   `json:"auto_selected" yaml:"auto_selected"`
	Command          string `json:"command" yaml:"command"`
	Output           string `json:"output" yaml:"output"`
}

func newDocument(plan *recorder.Plan) document {
	doc := document{
		Show:      plan.Show,
		BaseURL:   plan.BaseURL,
		Kind:      plan.Kind.String(),
		Audio:     plan.Selection.Audio,
		Subtitles: plan.Selection.Subtitles,
		Streams:   make([]streamDoc, 0, len(plan.Selection.Candidates)),
	}

	for i, c := range plan.Selection.Candidates {
		doc.Streams = append(doc.Streams, streamDoc{
			Bitrate:          variant.FormatBitrate(c.Stream.Bandwidth),
			Bandwidth:        c.Stream.Bandwidth,
			AverageBandwidth: c.Stream.AverageBandwidth,
			Resolution:       c.Stream.Resolution,
			URL:              c.Stream.AbsoluteURL,
			EstimatedSizeMB:  c.EstimatedSizeMB,
			AutoSelected:     c.AutoSelected,
			Command:          plan.Commands[i].String(),
			Output:           plan.Commands[i].Output,
		})
	}

	return doc
}

// JSONFormatter formats output as JSON
type JSONFormatter struct {
	Indent bool
}

func (f JSONFormatter) Format(plan *recorder.Plan) ([]byte, error) {
	doc := newDocument(plan)
	if f.Indent {
		return json.MarshalIndent(doc, "", "  ")
	}
	return json.Marshal(doc)
}

// YAMLFormatter formats output as YAML
type YAMLFormatter struct{}

func (YAMLFormatter) Format(plan *recorder.Plan) ([]byte, error) {
	return yaml.Marshal(newDocument(plan))
}
