// Package selector orders stream variants, attaches the default audio and
// subtitle renditions and picks the stream to record.
package selector

import (
	"slices"

	"github.com/agleyzer/svtrec/internal/track"
	"github.com/agleyzer/svtrec/internal/variant"
)

// Options controls automatic stream selection.
type Options struct {
	// MinBitrate is the threshold in bits per second. The first stream whose
	// bandwidth is strictly greater is auto-selected.
	MinBitrate int64

	// AutoSelect enables threshold matching. Without it no stream is chosen.
	AutoSelect bool

	// LengthSeconds is the show length used for size estimates
	LengthSeconds int64
}

// Candidate is one stream of the listing.
type Candidate struct {
	Stream variant.StreamVariant `json:"stream" yaml:"stream"`

	// EstimatedSizeMB is bandwidth * length / 8 / 1000000, truncated
	EstimatedSizeMB int64 `json:"estimated_size_mb" yaml:"estimated_size_mb"`

	AutoSelected bool `json:"auto_selected" yaml:"auto_selected"`
}

// Selection is the outcome of Select.
type Selection struct {
	// Candidates holds every stream, ascending by average bandwidth
	Candidates []Candidate `json:"candidates" yaml:"candidates"`

	Audio     *track.MediaTrack `json:"audio,omitempty" yaml:"audio,omitempty"`
	Subtitles *track.MediaTrack `json:"subtitles,omitempty" yaml:"subtitles,omitempty"`
}

// Chosen returns the auto-selected candidate, if any.
func (s Selection) Chosen() (Candidate, bool) {
	for _, c := range s.Candidates {
		if c.AutoSelected {
			return c, true
		}
	}
	return Candidate{}, false
}

// Select sorts a copy of streams by average bandwidth and builds the listing.
// Finding no stream above the threshold is a normal outcome.
func Select(streams []variant.StreamVariant, media []track.MediaTrack, opts Options) Selection {
	sorted := slices.Clone(streams)
	slices.SortStableFunc(sorted, func(a, b variant.StreamVariant) int {
		switch {
		case a.AverageBandwidth < b.AverageBandwidth:
			return -1
		case a.AverageBandwidth > b.AverageBandwidth:
			return 1
		default:
			return 0
		}
	})

	sel := Selection{
		Candidates: make([]Candidate, 0, len(sorted)),
		Audio:      firstAutoselect(media, track.Audio),
		Subtitles:  firstAutoselect(media, track.Subtitles),
	}

	picked := false
	for _, s := range sorted {
		c := Candidate{
			Stream:          s,
			EstimatedSizeMB: EstimateSizeMB(s.Bandwidth, opts.LengthSeconds),
		}
		if opts.AutoSelect && !picked && s.Bandwidth > opts.MinBitrate {
			c.AutoSelected = true
			picked = true
		}
		sel.Candidates = append(sel.Candidates, c)
	}

	return sel
}

// EstimateSizeMB approximates the download size in megabytes.
func EstimateSizeMB(bandwidth, lengthSeconds int64) int64 {
	return bandwidth * lengthSeconds / 8 / 1000000
}

// firstAutoselect returns the first track of type t marked AUTOSELECT=YES,
// in manifest order.
func firstAutoselect(media []track.MediaTrack, t track.Type) *track.MediaTrack {
	for i := range media {
		if media[i].Is(t) {
			m := media[i]
			return &m
		}
	}
	return nil
}
