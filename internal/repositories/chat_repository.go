package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"lostfound-backend/internal/models"
)

var (
	ErrChatNotFound        = errors.New("chat not found")
	ErrPublicationNotFound = errors.New("publication not found")
	ErrReceiverNotFound    = errors.New("receiver not found")
)

// uniqueViolation is the Postgres error code raised when an insert loses a
// race against a uniqueness constraint.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation
}

// ChatRepository abstracts chat persistence.
type ChatRepository interface {
	CreateChatWithFirstMessage(ctx context.Context, publicationID, senderID, receiverID int, firstMessage string) (models.Chat, bool, error)
	GetChat(ctx context.Context, chatID int) (models.Chat, error)
	IsParticipant(ctx context.Context, chatID int, userID int) (bool, error)
	ListChats(ctx context.Context, userID int) ([]models.ChatSummary, error)
}

// ChatRepo is a sqlx implementation of ChatRepository.
type ChatRepo struct {
	db *sqlx.DB
}

// NewChatRepo constructs a ChatRepo.
func NewChatRepo(db *sqlx.DB) *ChatRepo {
	return &ChatRepo{db: db}
}

const selectChat = `SELECT id, publication_id, sender_id, receiver_id, created_at FROM chats`

// CreateChatWithFirstMessage opens a chat about a publication and stores its
// first message in one transaction. When a chat for the exact
// (publication, sender, receiver) triple already exists, the existing row is
// returned with created=false and nothing is inserted. The whole operation
// runs on a single transaction connection so the existence checks and
// inserts commit or roll back together.
func (r *ChatRepo) CreateChatWithFirstMessage(ctx context.Context, publicationID, senderID, receiverID int, firstMessage string) (models.Chat, bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Chat{}, false, err
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM publications WHERE id=$1)`, publicationID); err != nil {
		return models.Chat{}, false, err
	}
	if !exists {
		return models.Chat{}, false, ErrPublicationNotFound
	}

	if err := tx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM users WHERE id=$1)`, receiverID); err != nil {
		return models.Chat{}, false, err
	}
	if !exists {
		return models.Chat{}, false, ErrReceiverNotFound
	}

	var chat models.Chat
	err = tx.GetContext(ctx, &chat, selectChat+` WHERE publication_id=$1 AND sender_id=$2 AND receiver_id=$3`,
		publicationID, senderID, receiverID)
	if err == nil {
		return chat, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.Chat{}, false, err
	}

	err = tx.GetContext(ctx, &chat, `INSERT INTO chats (publication_id, sender_id, receiver_id)
        VALUES ($1, $2, $3)
        RETURNING id, publication_id, sender_id, receiver_id, created_at`,
		publicationID, senderID, receiverID)
	if err != nil {
		// Another transaction won the insert between our check and now.
		// Surface the winner's row through the already-exists path.
		if isUniqueViolation(err) {
			return r.getExisting(ctx, publicationID, senderID, receiverID)
		}
		return models.Chat{}, false, err
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO messages (chat_id, sender_id, content) VALUES ($1, $2, $3)`,
		chat.ID, senderID, firstMessage); err != nil {
		return models.Chat{}, false, err
	}

	if err := tx.Commit(); err != nil {
		return models.Chat{}, false, err
	}
	return chat, true, nil
}

// getExisting re-reads the chat row outside the failed transaction.
func (r *ChatRepo) getExisting(ctx context.Context, publicationID, senderID, receiverID int) (models.Chat, bool, error) {
	var chat models.Chat
	err := r.db.GetContext(ctx, &chat, selectChat+` WHERE publication_id=$1 AND sender_id=$2 AND receiver_id=$3`,
		publicationID, senderID, receiverID)
	if err != nil {
		return models.Chat{}, false, err
	}
	return chat, false, nil
}

// GetChat fetches a chat by id.
func (r *ChatRepo) GetChat(ctx context.Context, chatID int) (models.Chat, error) {
	var chat models.Chat
	err := r.db.GetContext(ctx, &chat, selectChat+` WHERE id=$1`, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Chat{}, ErrChatNotFound
	}
	return chat, err
}

// IsParticipant checks whether a user belongs to the chat.
func (r *ChatRepo) IsParticipant(ctx context.Context, chatID int, userID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM chats WHERE id=$1 AND (sender_id=$2 OR receiver_id=$2))`, chatID, userID)
	return exists, err
}

// ListChats returns every chat the user participates in, newest first, with
// both participant names and the publication title attached.
func (r *ChatRepo) ListChats(ctx context.Context, userID int) ([]models.ChatSummary, error) {
	query := `SELECT c.id, c.publication_id, c.sender_id, c.receiver_id, c.created_at,
            u.name AS sender_name, u2.name AS receiver_name, p.title AS publication_title
        FROM chats c
        JOIN users u ON u.id = c.sender_id
        JOIN users u2 ON u2.id = c.receiver_id
        JOIN publications p ON p.id = c.publication_id
        WHERE c.sender_id=$1 OR c.receiver_id=$1
        ORDER BY c.created_at DESC`
	var chats []models.ChatSummary
	err := r.db.SelectContext(ctx, &chats, query, userID)
	return chats, err
}
