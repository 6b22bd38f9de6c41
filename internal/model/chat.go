package model

import "time"

type MessageSource string

const (
	MessageSourceUser      = MessageSource("user")
	MessageSourceAssistant = MessageSource("assistant")
)

// ChatMessage lives only as long as the session that produced it.
type ChatMessage struct {
	Source    MessageSource
	Body      string
	Timestamp time.Time
}
