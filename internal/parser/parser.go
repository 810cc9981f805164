// Package parser provides HLS master playlist parsing functionality.
package parser

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/agleyzer/svtrec/internal/track"
	"github.com/agleyzer/svtrec/internal/variant"
)

const (
	tagMedia     = "EXT-X-MEDIA"
	tagStreamInf = "EXT-X-STREAM-INF"
)

// Manifest contains the parsed master playlist, in encounter order.
type Manifest struct {
	// BaseURL is the URL relative URIs were resolved against
	BaseURL string

	// Media contains the EXT-X-MEDIA renditions
	Media []track.MediaTrack

	// Streams contains the EXT-X-STREAM-INF variants
	Streams []variant.StreamVariant
}

// record is one tag of the manifest together with the lines that follow it
// up to the next tag.
type record struct {
	index int
	tag   string
	lines []string
}

// Parse parses master playlist text. baseURL must be the final location the
// manifest was fetched from, after redirects. Unknown tags are ignored; the
// first malformed record aborts parsing.
func Parse(text, baseURL string) (*Manifest, error) {
	manifest := &Manifest{BaseURL: baseURL}

	for _, rec := range splitRecords(text) {
		switch rec.tag {
		case tagMedia:
			media, err := parseMedia(rec, baseURL)
			if err != nil {
				return nil, err
			}
			manifest.Media = append(manifest.Media, media)

		case tagStreamInf:
			stream, err := parseStream(rec, baseURL)
			if err != nil {
				return nil, err
			}
			manifest.Streams = append(manifest.Streams, stream)
		}
	}

	return manifest, nil
}

// splitRecords cuts the text at every line that starts with '#'.
func splitRecords(text string) []record {
	var (
		records []record
		current *record
	)

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")

		if strings.HasPrefix(line, "#") {
			if current != nil {
				records = append(records, *current)
			}
			current = &record{
				index: len(records),
				tag:   tagName(line),
				lines: []string{line},
			}
			continue
		}

		if strings.TrimSpace(line) == "" {
			continue
		}

		if current == nil {
			// Text before the first tag forms an untagged record.
			current = &record{index: 0}
		}
		current.lines = append(current.lines, line)
	}

	if current != nil {
		records = append(records, *current)
	}

	return records
}

func tagName(line string) string {
	name, _, _ := strings.Cut(strings.TrimPrefix(line, "#"), ":")
	return name
}

// attributeList returns everything after the first ':' of the record's tag line.
func (r record) attributeList() string {
	_, list, _ := strings.Cut(r.lines[0], ":")
	return list
}

func (r record) errorf(err error, format string, args ...any) *ParseError {
	return &ParseError{
		Record: r.index,
		Tag:    r.tag,
		Reason: fmt.Sprintf(format, args...),
		Err:    err,
	}
}

// resolve joins uri with baseURL and points any failure at the record.
func (r record) resolve(baseURL, uri string) (string, error) {
	abs, err := resolveURL(baseURL, uri)
	var rerr *ResolutionError
	if errors.As(err, &rerr) {
		rerr.Record = r.index
		rerr.Tag = r.tag
	}
	return abs, err
}

func parseMedia(rec record, baseURL string) (track.MediaTrack, error) {
	attrs, err := parseAttributes(rec.attributeList())
	if err != nil {
		return track.MediaTrack{}, rec.errorf(err, "malformed attribute list")
	}

	var m track.MediaTrack
	for _, a := range attrs {
		switch a.name {
		case "type":
			m.Type = track.Type(a.value)
		case "group_id":
			m.GroupID = a.value
		case "language":
			m.Language = a.value
		case "assoc_language":
			m.AssocLanguage = a.value
		case "name":
			m.Name = a.value
		case "default":
			m.Default = a.value == "YES"
		case "autoselect":
			m.Autoselect = a.value == "YES"
		case "forced":
			m.Forced = a.value == "YES"
		case "instream_id":
			m.InstreamID = a.value
		case "characteristics":
			m.Characteristics = a.value
		case "channels":
			m.Channels = a.value
		case "uri":
			m.URI = a.value
		default:
			m.Extra = setExtra(m.Extra, a)
		}
	}

	if m.URI != "" {
		abs, err := rec.resolve(baseURL, m.URI)
		if err != nil {
			return track.MediaTrack{}, err
		}
		m.AbsoluteURL = abs
	}

	return m, nil
}

func parseStream(rec record, baseURL string) (variant.StreamVariant, error) {
	attrs, err := parseAttributes(rec.attributeList())
	if err != nil {
		return variant.StreamVariant{}, rec.errorf(err, "malformed attribute list")
	}

	if len(rec.lines) < 2 {
		return variant.StreamVariant{}, rec.errorf(nil, "missing variant URI line")
	}

	var (
		v                    variant.StreamVariant
		haveBandwidth        bool
		haveAverageBandwidth bool
	)

	for _, a := range attrs {
		switch a.name {
		case "bandwidth":
			n, err := strconv.ParseInt(a.value, 10, 64)
			if err != nil {
				return variant.StreamVariant{}, rec.errorf(err, "invalid BANDWIDTH %q", a.value)
			}
			if n < 0 {
				return variant.StreamVariant{}, rec.errorf(nil, "negative BANDWIDTH %d", n)
			}
			v.Bandwidth = n
			haveBandwidth = true
		case "average_bandwidth":
			n, err := strconv.ParseInt(a.value, 10, 64)
			if err != nil {
				return variant.StreamVariant{}, rec.errorf(err, "invalid AVERAGE-BANDWIDTH %q", a.value)
			}
			if n < 0 {
				return variant.StreamVariant{}, rec.errorf(nil, "negative AVERAGE-BANDWIDTH %d", n)
			}
			v.AverageBandwidth = n
			haveAverageBandwidth = true
		case "frame_rate":
			f, err := strconv.ParseFloat(a.value, 64)
			if err != nil {
				return variant.StreamVariant{}, rec.errorf(err, "invalid FRAME-RATE %q", a.value)
			}
			v.FrameRate = f
		case "resolution":
			v.Resolution = a.value
		case "codecs":
			v.Codecs = a.value
		case "audio":
			v.Audio = a.value
		case "video":
			v.Video = a.value
		case "subtitles":
			v.Subtitles = a.value
		case "closed_captions":
			v.ClosedCaptions = a.value
		case "hdcp_level":
			v.HDCPLevel = a.value
		case "video_range":
			v.VideoRange = a.value
		case "program_id":
			v.ProgramID = a.value
		default:
			v.Extra = setExtra(v.Extra, a)
		}
	}

	if !haveBandwidth {
		return variant.StreamVariant{}, rec.errorf(nil, "missing BANDWIDTH")
	}
	if !haveAverageBandwidth {
		return variant.StreamVariant{}, rec.errorf(nil, "missing AVERAGE-BANDWIDTH")
	}

	v.URI = strings.TrimSpace(rec.lines[len(rec.lines)-1])
	abs, err := rec.resolve(baseURL, v.URI)
	if err != nil {
		return variant.StreamVariant{}, err
	}
	v.AbsoluteURL = abs

	return v, nil
}

func setExtra(extra map[string]string, a attribute) map[string]string {
	if extra == nil {
		extra = make(map[string]string)
	}
	extra[a.name] = a.value
	return extra
}

// resolveURL resolves a possibly relative URL against a base URL.
// Absolute URLs are returned exactly as given.
func resolveURL(baseURL, relativeURL string) (string, error) {
	rel, err := url.Parse(relativeURL)
	if err != nil {
		return "", &ResolutionError{Base: baseURL, URI: relativeURL, Err: fmt.Errorf("invalid relative URL: %w", err)}
	}

	if rel.IsAbs() {
		return relativeURL, nil
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return "", &ResolutionError{Base: baseURL, URI: relativeURL, Err: fmt.Errorf("invalid base URL: %w", err)}
	}

	// Resolve the relative URL against the base
	resolved := base.ResolveReference(rel)
	return resolved.String(), nil
}
