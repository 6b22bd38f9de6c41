package model

import "time"

type Speech struct {
	MimeType string
	Audio    []byte
	Duration time.Duration
	// Fallback is set when no audio could be synthesized and the client should speak locally.
	Fallback *LocalUtterance
}

type LocalUtterance struct {
	Text  string
	Lang  string
	Pitch float64
	Rate  float64
}
