// Package variant defines data structures for HLS variant streams in master playlists.
package variant

// StreamVariant represents a single EXT-X-STREAM-INF entry of a master playlist.
// Each variant is one selectable bitrate/resolution combination of the video.
type StreamVariant struct {
	// Bandwidth is the peak segment bitrate in bits per second
	Bandwidth int64 `json:"bandwidth" yaml:"bandwidth"`

	// AverageBandwidth is the average segment bitrate in bits per second
	AverageBandwidth int64 `json:"average_bandwidth" yaml:"average_bandwidth"`

	// Resolution is the video resolution (e.g., "1920x1080", "1280x720")
	// Empty string if not specified in master playlist
	Resolution string `json:"resolution,omitempty" yaml:"resolution,omitempty"`

	// Codecs is the codec string (e.g., "avc1.4d401f,mp4a.40.2")
	Codecs string `json:"codecs,omitempty" yaml:"codecs,omitempty"`

	// FrameRate is the maximum frame rate, zero when absent
	FrameRate float64 `json:"frame_rate,omitempty" yaml:"frame_rate,omitempty"`

	// Audio, Video, Subtitles and ClosedCaptions name the rendition groups
	// the variant refers to.
	Audio          string `json:"audio,omitempty" yaml:"audio,omitempty"`
	Video          string `json:"video,omitempty" yaml:"video,omitempty"`
	Subtitles      string `json:"subtitles,omitempty" yaml:"subtitles,omitempty"`
	ClosedCaptions string `json:"closed_captions,omitempty" yaml:"closed_captions,omitempty"`

	HDCPLevel  string `json:"hdcp_level,omitempty" yaml:"hdcp_level,omitempty"`
	VideoRange string `json:"video_range,omitempty" yaml:"video_range,omitempty"`
	ProgramID  string `json:"program_id,omitempty" yaml:"program_id,omitempty"`

	// URI is the variant playlist location exactly as written in the manifest
	URI string `json:"uri" yaml:"uri"`

	// AbsoluteURL is URI resolved against the manifest base URL
	AbsoluteURL string `json:"absolute_url" yaml:"absolute_url"`

	// Extra holds attributes that are not recognised above, keyed by their
	// normalised name.
	Extra map[string]string `json:"extra,omitempty" yaml:"extra,omitempty"`
}
