package models

import "time"

// Chat is a conversation about one publication between the user who opened
// it and the publication's counterpart. At most one chat exists per
// (publication_id, sender_id, receiver_id) triple.
type Chat struct {
	ID            int       `db:"id" json:"id"`
	PublicationID int       `db:"publication_id" json:"publication_id"`
	SenderID      int       `db:"sender_id" json:"sender_id"`
	ReceiverID    int       `db:"receiver_id" json:"receiver_id"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// ChatSummary is the chat-list view: the chat row enriched with both
// participant names and the publication title.
type ChatSummary struct {
	Chat
	SenderName       string `db:"sender_name" json:"sender_name"`
	ReceiverName     string `db:"receiver_name" json:"receiver_name"`
	PublicationTitle string `db:"publication_title" json:"publication_title"`
}

// OtherParticipant returns the participant that is not userID.
func (c Chat) OtherParticipant(userID int) int {
	if c.SenderID == userID {
		return c.ReceiverID
	}
	return c.SenderID
}

// HasParticipant reports whether userID is one of the chat's two users.
func (c Chat) HasParticipant(userID int) bool {
	return c.SenderID == userID || c.ReceiverID == userID
}
