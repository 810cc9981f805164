package parser

import (
	"fmt"
	"strings"

	"github.com/grafov/m3u8"
)

// Kind tells master playlists from media playlists.
type Kind int

const (
	KindUnknown Kind = iota
	KindMaster
	KindMedia
)

func (k Kind) String() string {
	switch k {
	case KindMaster:
		return "master"
	case KindMedia:
		return "media"
	default:
		return "unknown"
	}
}

// Detect decodes the manifest leniently and reports which kind of playlist it is.
func Detect(text string) (Kind, error) {
	_, listType, err := m3u8.DecodeFrom(strings.NewReader(text), false)
	if err != nil {
		return KindUnknown, fmt.Errorf("failed to decode playlist: %w", err)
	}

	switch listType {
	case m3u8.MASTER:
		return KindMaster, nil
	case m3u8.MEDIA:
		return KindMedia, nil
	default:
		return KindUnknown, nil
	}
}
