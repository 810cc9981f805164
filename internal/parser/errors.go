package parser

import "fmt"

// ParseError reports a manifest record that could not be turned into a
// media track or stream variant. Parsing stops at the first one.
type ParseError struct {
	// Record is the zero-based index of the record in the manifest
	Record int
	// Tag is the record's tag name, e.g. "EXT-X-STREAM-INF"
	Tag    string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("record %d (%s): %s", e.Record, e.Tag, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ResolutionError reports a URI that could not be joined with the base URL.
// Record and Tag locate the URI in the manifest when it came from one.
type ResolutionError struct {
	Record int
	Tag    string
	Base   string
	URI    string
	Err    error
}

func (e *ResolutionError) Error() string {
	msg := fmt.Sprintf("cannot resolve %q against %q: %v", e.URI, e.Base, e.Err)
	if e.Tag != "" {
		msg = fmt.Sprintf("record %d (%s): %s", e.Record, e.Tag, msg)
	}
	return msg
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}
