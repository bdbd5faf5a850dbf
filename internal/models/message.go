package models

import "time"

// Sender identifies which side of the conversation produced a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// Message is a single chat turn. Messages are append-only and ordered by
// timestamp within a session.
type Message struct {
	ID        string    `json:"message_id"`
	SessionID string    `json:"session_id"`
	Sender    Sender    `json:"sender"`
	Body      string    `json:"message"`
	CreatedAt time.Time `json:"timestamp"`
}
