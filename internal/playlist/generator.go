// Package playlist writes a master playlist for the streams of a listing.
package playlist

import (
	"fmt"
	"math"
	"os"

	"github.com/agleyzer/svtrec/internal/selector"
	"github.com/agleyzer/svtrec/internal/track"
	"github.com/grafov/m3u8"
)

// BuildMaster encodes the candidates of a selection as an HLS master
// playlist. With onlyAuto set, only the auto-selected stream is written.
// All URIs are absolute so the file can be played from anywhere.
func BuildMaster(sel selector.Selection, onlyAuto bool) (string, error) {
	candidates := sel.Candidates
	if onlyAuto {
		chosen, ok := sel.Chosen()
		if !ok {
			return "", fmt.Errorf("no auto-selected stream to write")
		}
		candidates = []selector.Candidate{chosen}
	}

	if len(candidates) == 0 {
		return "", fmt.Errorf("cannot write master playlist with zero streams")
	}

	var alternatives []*m3u8.Alternative
	if sel.Audio != nil {
		alternatives = append(alternatives, alternative(sel.Audio))
	}
	if sel.Subtitles != nil {
		alternatives = append(alternatives, alternative(sel.Subtitles))
	}

	master := m3u8.NewMasterPlaylist()
	for _, c := range candidates {
		s := c.Stream
		if s.Bandwidth > math.MaxUint32 || s.AverageBandwidth > math.MaxUint32 {
			return "", fmt.Errorf("stream %s: bandwidth %d (average %d) does not fit in a playlist", s.AbsoluteURL, s.Bandwidth, s.AverageBandwidth)
		}

		params := m3u8.VariantParams{
			Bandwidth:        uint32(s.Bandwidth),
			AverageBandwidth: uint32(s.AverageBandwidth),
			Codecs:           s.Codecs,
			Resolution:       s.Resolution,
			FrameRate:        s.FrameRate,
			Alternatives:     alternatives,
		}
		if sel.Audio != nil {
			params.Audio = sel.Audio.GroupID
		}
		if sel.Subtitles != nil {
			params.Subtitles = sel.Subtitles.GroupID
		}

		master.Append(s.AbsoluteURL, nil, params)
	}

	return master.String(), nil
}

// WriteMaster writes the master playlist to path.
func WriteMaster(path string, sel selector.Selection, onlyAuto bool) error {
	content, err := BuildMaster(sel, onlyAuto)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write playlist: %w", err)
	}
	return nil
}

func alternative(m *track.MediaTrack) *m3u8.Alternative {
	alt := &m3u8.Alternative{
		GroupId:  m.GroupID,
		URI:      m.AbsoluteURL,
		Type:     string(m.Type),
		Language: m.Language,
		Name:     m.Name,
		Default:  m.Default,
	}
	if m.Autoselect {
		alt.Autoselect = "YES"
	}
	if m.Forced {
		alt.Forced = "YES"
	}
	return alt
}
