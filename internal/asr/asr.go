// Package asr is the speech-to-text boundary. The engine is an opaque
// collaborator: audio path in, transcript with segment timing out. A
// transcription failure is fatal to its call; nothing downstream can run
// without a transcript.
package asr

import (
	"context"
	"errors"

	"call-audit-go/internal/domain"
)

// ErrTranscriptionFailed wraps any terminal failure of the ASR engine.
var ErrTranscriptionFailed = errors.New("transcription failed")

// Engine converts one recording into a transcript.
type Engine interface {
	Transcribe(ctx context.Context, audioPath string) (domain.Transcript, error)
}
