package voice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
)

const (
	// MaxHoldBytes bounds a push-to-talk recording, a few minutes of compressed speech.
	MaxHoldBytes = 1 << 20
	// MaxContinuousBytes matches the upload limit of the transcription endpoint.
	MaxContinuousBytes = 25 << 20
)

var (
	ErrRecognizerNotActive = errors.New("recognizer is not active")
	ErrNothingRecorded     = errors.New("nothing recorded")
	ErrRecordingTooLong    = errors.New("recording is too long")
)

type Recognizer interface {
	Start(ctx context.Context, continuous bool) error
	// SetContinuous switches a running recording between single-utterance and dictation mode.
	SetContinuous(continuous bool)
	Stop(ctx context.Context) (string, error)
	Abort()
}

type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, fileName string) (string, error)
}

// BufferedRecognizer collects audio chunks while active and transcribes them on stop.
// A held recording accepts up to holdLimit bytes, a continuous one up to continuousLimit.
type BufferedRecognizer struct {
	mu              sync.Mutex
	transcriber     Transcriber
	fileName        string
	active          bool
	continuous      bool
	holdLimit       int
	continuousLimit int
	buf             bytes.Buffer
}

func NewBufferedRecognizer(transcriber Transcriber, fileName string) *BufferedRecognizer {
	return &BufferedRecognizer{
		transcriber:     transcriber,
		fileName:        fileName,
		holdLimit:       MaxHoldBytes,
		continuousLimit: MaxContinuousBytes,
	}
}

func (r *BufferedRecognizer) WithLimits(hold, continuous int) *BufferedRecognizer {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.holdLimit = hold
	r.continuousLimit = continuous
	return r
}

func (r *BufferedRecognizer) Start(_ context.Context, continuous bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.buf.Reset()
	r.active = true
	r.continuous = continuous
	return nil
}

func (r *BufferedRecognizer) SetContinuous(continuous bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.continuous = continuous
}

func (r *BufferedRecognizer) Continuous() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.active && r.continuous
}

func (r *BufferedRecognizer) Write(chunk []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.active {
		return 0, ErrRecognizerNotActive
	}
	limit := r.holdLimit
	if r.continuous {
		limit = r.continuousLimit
	}
	if r.buf.Len()+len(chunk) > limit {
		return 0, fmt.Errorf("%d bytes over the limit: %w", r.buf.Len()+len(chunk)-limit, ErrRecordingTooLong)
	}
	return r.buf.Write(chunk)
}

func (r *BufferedRecognizer) Stop(ctx context.Context) (string, error) {
	r.mu.Lock()
	if !r.active {
		r.mu.Unlock()
		return "", ErrRecognizerNotActive
	}
	audio := make([]byte, r.buf.Len())
	copy(audio, r.buf.Bytes())
	r.buf.Reset()
	r.active = false
	r.continuous = false
	r.mu.Unlock()

	if len(audio) == 0 {
		return "", ErrNothingRecorded
	}
	text, err := r.transcriber.Transcribe(ctx, audio, r.fileName)
	if err != nil {
		return "", fmt.Errorf("failed to transcribe recording: %w", err)
	}
	return text, nil
}

func (r *BufferedRecognizer) Abort() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.buf.Reset()
	r.active = false
	r.continuous = false
}

func (r *BufferedRecognizer) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.active
}
