package domain

import "strings"

// Segment is one timed slice of the transcript as returned by the ASR engine.
type Segment struct {
	Speaker string  `json:"speaker"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Text    string  `json:"text"`
}

// Transcript is the write-once output of the ASR stage for a single call.
type Transcript struct {
	Text     string    `json:"text"`
	Segments []Segment `json:"segments,omitempty"`
	Language string    `json:"language,omitempty"`
	Duration float64   `json:"duration,omitempty"`
}

// IsEmpty reports whether the transcript carries no usable text.
func (t Transcript) IsEmpty() bool {
	return strings.TrimSpace(t.Text) == ""
}

// WordCount counts whitespace-separated tokens in the full text.
func (t Transcript) WordCount() int {
	return len(strings.Fields(t.Text))
}

// SpanSeconds returns the time covered by the segments, or the reported
// duration when no segment timing is available.
func (t Transcript) SpanSeconds() float64 {
	if len(t.Segments) == 0 {
		return t.Duration
	}
	first := t.Segments[0].Start
	last := t.Segments[0].End
	for _, seg := range t.Segments[1:] {
		if seg.Start < first {
			first = seg.Start
		}
		if seg.End > last {
			last = seg.End
		}
	}
	if span := last - first; span > 0 {
		return span
	}
	return t.Duration
}
