package variant

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatBitrate renders a bitrate the way stream listings and output file
// names show it: whole kilobits for anything from 1000 bps up, plain bits
// per second below that.
func FormatBitrate(bps int64) string {
	if bps >= 1000 {
		return fmt.Sprintf("%.0fkbps", float64(bps)/1000.0)
	}
	return fmt.Sprintf("%dbps", bps)
}

// ParseBitrate parses a user supplied bitrate such as "800000", "800k" or
// "1.5M" into bits per second.
func ParseBitrate(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty bitrate")
	}

	multiplier := 1.0
	switch {
	case strings.HasSuffix(s, "k"), strings.HasSuffix(s, "K"):
		multiplier = 1000
		s = s[:len(s)-1]
	case strings.HasSuffix(s, "M"):
		multiplier = 1000000
		s = s[:len(s)-1]
	}

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("bitrate must not be negative: %q", s)
		}
		if n > math.MaxInt64/int64(multiplier) {
			return 0, fmt.Errorf("bitrate out of range: %q", s)
		}
		return n * int64(multiplier), nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid bitrate %q: %w", s, err)
	}
	if f < 0 {
		return 0, fmt.Errorf("bitrate must not be negative: %q", s)
	}

	// float64(MaxInt64) rounds up to 2^63, which no longer fits
	bps := f * multiplier
	if math.IsNaN(bps) || bps >= float64(math.MaxInt64) {
		return 0, fmt.Errorf("bitrate out of range: %q", s)
	}

	return int64(bps), nil
}
