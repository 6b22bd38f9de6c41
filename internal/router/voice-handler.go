package router

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"sync"
	"time"

	"github.com/iamvkosarev/ai-baby-bot/internal/usecase"
	"github.com/iamvkosarev/ai-baby-bot/internal/voice"
)

const recordingFileName = "recording.webm"

type voiceEventRequest struct {
	Type string  `json:"type"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	// At is the client's event time in unix milliseconds.
	At int64 `json:"at,omitempty"`
}

// eventTime prefers the client clock so network jitter cannot turn a hold into a tap.
func (r voiceEventRequest) eventTime(now time.Time) time.Time {
	if r.At > 0 {
		return time.UnixMilli(r.At)
	}
	return now
}

type voiceEventResponse struct {
	State      voice.State  `json:"state"`
	Action     voice.Action `json:"action"`
	Transcript string       `json:"transcript,omitempty"`
	Error      string       `json:"error,omitempty"`
}

type transcriptResponse struct {
	Transcript string `json:"transcript"`
}

type voiceControl struct {
	control    *voice.Control
	recognizer *voice.BufferedRecognizer
}

// voiceControls keeps one push-to-talk control per user.
type voiceControls struct {
	mu          sync.Mutex
	transcriber voice.Transcriber
	thresholds  voice.Thresholds
	controls    map[string]*voiceControl
}

func newVoiceControls(transcriber voice.Transcriber, thresholds voice.Thresholds) *voiceControls {
	return &voiceControls{
		transcriber: transcriber,
		thresholds:  thresholds,
		controls:    make(map[string]*voiceControl),
	}
}

func (v *voiceControls) get(key string) *voiceControl {
	v.mu.Lock()
	defer v.mu.Unlock()

	c, ok := v.controls[key]
	if !ok {
		recognizer := voice.NewBufferedRecognizer(v.transcriber, recordingFileName)
		c = &voiceControl{
			control:    voice.NewControl(recognizer, v.thresholds),
			recognizer: recognizer,
		}
		v.controls[key] = c
	}
	return c
}

// drop releases the user's recognizer and forgets the control.
func (v *voiceControls) drop(key string) {
	v.mu.Lock()
	c, ok := v.controls[key]
	delete(v.controls, key)
	v.mu.Unlock()

	if ok {
		c.control.Close()
	}
}

func (h *handler) event(w http.ResponseWriter, r *http.Request) {
	key, _, ok := h.session(w, r)
	if !ok {
		return
	}
	var req voiceEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	c := h.controls.get(key)
	result, err := c.control.Handle(
		r.Context(), voice.Event{
			Type: voice.EventType(req.Type),
			At:   req.eventTime(time.Now()),
			Pos:  voice.Point{X: req.X, Y: req.Y},
		},
	)
	resp := voiceEventResponse{
		State:      result.State,
		Action:     result.Action,
		Transcript: result.Transcript,
	}
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, resp)
	case errors.Is(err, voice.ErrUnknownEvent):
		resp.Error = err.Error()
		writeJSON(w, http.StatusBadRequest, resp)
	case errors.Is(err, voice.ErrNothingRecorded):
		writeJSON(w, http.StatusOK, resp)
	default:
		resp.Error = "voice recognition failed"
		writeJSON(w, http.StatusBadGateway, resp)
	}
}

func (h *handler) audio(w http.ResponseWriter, r *http.Request) {
	key, _, ok := h.session(w, r)
	if !ok {
		return
	}
	chunk, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxAudioBody))
	if err != nil {
		writeError(w, errInvalidJSON)
		return
	}
	c := h.controls.get(key)
	if _, err = c.recognizer.Write(chunk); err != nil {
		status := http.StatusConflict
		if errors.Is(err, voice.ErrRecordingTooLong) {
			status = http.StatusRequestEntityTooLarge
		}
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusAccepted, voiceEventResponse{State: c.control.State(), Action: voice.ActionNone})
}

func (h *handler) transcribe(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := h.session(w, r); !ok {
		return
	}
	audio, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxAudioBody))
	if err != nil {
		writeError(w, errInvalidJSON)
		return
	}
	transcript, err := h.baby.Transcribe(r.Context(), audio, audioFileName(r.Header.Get("Content-Type")))
	if err != nil {
		if errors.Is(err, usecase.ErrMissingFields) {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "voice recognition failed"})
		return
	}
	writeJSON(w, http.StatusOK, transcriptResponse{Transcript: transcript})
}

// audioFileName picks an extension the transcription endpoint can sniff the format from.
func audioFileName(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return recordingFileName
	}
	switch mediaType {
	case "audio/wav", "audio/x-wav", "audio/wave":
		return "recording.wav"
	case "audio/ogg":
		return "recording.ogg"
	case "audio/mpeg":
		return "recording.mp3"
	case "audio/mp4", "audio/m4a", "audio/x-m4a":
		return "recording.m4a"
	default:
		return recordingFileName
	}
}
