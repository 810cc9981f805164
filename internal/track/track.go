// Package track defines data structures for HLS alternative renditions (EXT-X-MEDIA).
package track

// Type is the TYPE attribute of an EXT-X-MEDIA tag.
type Type string

const (
	Audio          Type = "AUDIO"
	Video          Type = "VIDEO"
	Subtitles      Type = "SUBTITLES"
	ClosedCaptions Type = "CLOSED-CAPTIONS"
)

// MediaTrack represents an audio, subtitle or other rendition that can be
// combined with a video variant.
type MediaTrack struct {
	// Type is the rendition type; unknown values are kept verbatim
	Type Type `json:"type" yaml:"type"`

	// Autoselect is true when AUTOSELECT=YES
	Autoselect bool `json:"autoselect" yaml:"autoselect"`

	// Default is true when DEFAULT=YES
	Default bool `json:"default" yaml:"default"`

	Forced bool `json:"forced,omitempty" yaml:"forced,omitempty"`

	GroupID         string `json:"group_id,omitempty" yaml:"group_id,omitempty"`
	Name            string `json:"name,omitempty" yaml:"name,omitempty"`
	Language        string `json:"language,omitempty" yaml:"language,omitempty"`
	AssocLanguage   string `json:"assoc_language,omitempty" yaml:"assoc_language,omitempty"`
	InstreamID      string `json:"instream_id,omitempty" yaml:"instream_id,omitempty"`
	Characteristics string `json:"characteristics,omitempty" yaml:"characteristics,omitempty"`
	Channels        string `json:"channels,omitempty" yaml:"channels,omitempty"`

	// URI is the rendition playlist as written in the manifest.
	// Empty for renditions carried in-band (closed captions).
	URI string `json:"uri,omitempty" yaml:"uri,omitempty"`

	// AbsoluteURL is URI resolved against the manifest base URL
	AbsoluteURL string `json:"absolute_url,omitempty" yaml:"absolute_url,omitempty"`

	// Extra holds unrecognised attributes keyed by their normalised name
	Extra map[string]string `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// Is reports whether the track has the given type and is marked AUTOSELECT=YES.
func (m MediaTrack) Is(t Type) bool {
	return m.Type == t && m.Autoselect
}
