package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"lostfound-backend/internal/models"
)

// MessageRepository defines interactions for chat messages.
type MessageRepository interface {
	CreateMessage(ctx context.Context, chatID int, senderID int, content string) (models.Message, error)
	ListMessages(ctx context.Context, chatID int) ([]models.Message, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// CreateMessage appends a message to a chat and returns the stored row.
// Chat existence and sender authorization are checked by the caller.
func (r *MessageRepo) CreateMessage(ctx context.Context, chatID int, senderID int, content string) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `INSERT INTO messages (chat_id, sender_id, content)
        VALUES ($1, $2, $3)
        RETURNING id, chat_id, sender_id, content, is_read, created_at`,
		chatID, senderID, content)
	return msg, err
}

// ListMessages returns the chat transcript, oldest first.
func (r *MessageRepo) ListMessages(ctx context.Context, chatID int) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, `SELECT id, chat_id, sender_id, content, is_read, created_at
        FROM messages
        WHERE chat_id=$1
        ORDER BY created_at ASC`, chatID)
	return msgs, err
}
