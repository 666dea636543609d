package models

import "time"

// Message is one chat utterance. Rows are append-only; is_read is stored but
// no chat endpoint flips it yet.
type Message struct {
	ID        int       `db:"id" json:"id"`
	ChatID    int       `db:"chat_id" json:"chat_id"`
	SenderID  int       `db:"sender_id" json:"sender_id"`
	Content   string    `db:"content" json:"content"`
	IsRead    bool      `db:"is_read" json:"is_read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// InboundFrame is the payload clients send on the websocket channel.
type InboundFrame struct {
	ChatID     int    `json:"chatId"`
	SenderID   int    `json:"senderId"`
	ReceiverID int    `json:"receiverId"`
	Content    string `json:"content"`
}

// ChatEvent carries a persisted message to live connections.
type ChatEvent struct {
	Type    string   `json:"type"`
	Message *Message `json:"message"`
}

// ErrorFrame reports a per-frame failure on the same connection.
// The "message" key holds human-readable text here, not a Message row.
type ErrorFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

const (
	EventNewMessage = "new_message"
	EventError      = "error"
)

// NewMessageEvent wraps a persisted message for fan-out.
func NewMessageEvent(msg Message) ChatEvent {
	return ChatEvent{Type: EventNewMessage, Message: &msg}
}

// NewErrorFrame builds an error frame with a human-readable reason.
func NewErrorFrame(reason string) ErrorFrame {
	return ErrorFrame{Type: EventError, Message: reason}
}
