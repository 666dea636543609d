package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"lostfound-backend/internal/models"
	"lostfound-backend/internal/repositories"
	"lostfound-backend/internal/ws"
)

// ChatHandler manages the chat HTTP surface.
type ChatHandler struct {
	chatRepo    repositories.ChatRepository
	messageRepo repositories.MessageRepository
	notifRepo   repositories.NotificationRepository
	hub         *ws.Hub
}

// NewChatHandler builds a ChatHandler.
func NewChatHandler(chatRepo repositories.ChatRepository, messageRepo repositories.MessageRepository, notifRepo repositories.NotificationRepository, hub *ws.Hub) *ChatHandler {
	return &ChatHandler{
		chatRepo:    chatRepo,
		messageRepo: messageRepo,
		notifRepo:   notifRepo,
		hub:         hub,
	}
}

// ListChats returns every chat the authenticated user participates in,
// newest first, with participant names and the publication title.
func (h *ChatHandler) ListChats(c *gin.Context) {
	userID := c.GetInt("userID")

	chats, err := h.chatRepo.ListChats(c.Request.Context(), userID)
	if err != nil {
		log.Printf("list chats failed for user %d: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load chats"})
		return
	}
	if chats == nil {
		chats = []models.ChatSummary{}
	}

	c.JSON(http.StatusOK, gin.H{"chats": chats})
}

// CreateChat opens a chat about a publication with its first message. A
// repeated request for the same (publication, sender, receiver) triple
// returns the existing chat with 200 instead of creating a duplicate.
func (h *ChatHandler) CreateChat(c *gin.Context) {
	var req struct {
		PublicationID int    `json:"publicationId" binding:"required"`
		ReceiverID    int    `json:"receiverId" binding:"required"`
		FirstMessage  string `json:"firstMessage" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt("userID")
	if userID == req.ReceiverID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot open a chat with yourself"})
		return
	}
	if strings.TrimSpace(req.FirstMessage) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "first message must not be empty"})
		return
	}

	chat, created, err := h.chatRepo.CreateChatWithFirstMessage(c.Request.Context(), req.PublicationID, userID, req.ReceiverID, req.FirstMessage)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrPublicationNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "publication not found"})
		case errors.Is(err, repositories.ErrReceiverNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "receiver not found"})
		default:
			log.Printf("create chat failed for user %d: %v", userID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create chat"})
		}
		return
	}

	if !created {
		c.JSON(http.StatusOK, gin.H{"chat": chat, "info": "chat already exists"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"chat": chat})
}

// GetChatMessages returns the chat transcript, oldest first, to a
// participant.
func (h *ChatHandler) GetChatMessages(c *gin.Context) {
	chatID, err := strconv.Atoi(c.Param("chat_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return
	}

	userID := c.GetInt("userID")
	chat, err := h.chatRepo.GetChat(c.Request.Context(), chatID)
	if err != nil {
		if errors.Is(err, repositories.ErrChatNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "chat not found"})
			return
		}
		log.Printf("get chat %d failed: %v", chatID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load chat"})
		return
	}
	if !chat.HasParticipant(userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "no access to this chat"})
		return
	}

	msgs, err := h.messageRepo.ListMessages(c.Request.Context(), chatID)
	if err != nil {
		log.Printf("list messages failed for chat %d: %v", chatID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}
	if msgs == nil {
		msgs = []models.Message{}
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// SendMessage stores a message in an existing chat and pushes it to both
// participants' live connections.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	chatID, err := strconv.Atoi(c.Param("chat_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Content) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message content is required"})
		return
	}

	userID := c.GetInt("userID")
	chat, err := h.chatRepo.GetChat(c.Request.Context(), chatID)
	if err != nil {
		if errors.Is(err, repositories.ErrChatNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "chat not found"})
			return
		}
		log.Printf("get chat %d failed: %v", chatID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load chat"})
		return
	}
	if !chat.HasParticipant(userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "no access to this chat"})
		return
	}

	msg, err := h.messageRepo.CreateMessage(c.Request.Context(), chatID, userID, req.Content)
	if err != nil {
		log.Printf("store message failed for chat %d: %v", chatID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store message"})
		return
	}

	receiverID := chat.OtherParticipant(userID)
	if err := h.notifRepo.Create(c.Request.Context(), receiverID, "message", "You have a new message", chatLink(chatID)); err != nil {
		log.Printf("notification insert failed for user %d: %v", receiverID, err)
	}

	event := models.NewMessageEvent(msg)
	h.hub.SendToUser(userID, event)
	h.hub.SendToUser(receiverID, event)

	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

func chatLink(chatID int) *string {
	link := "/chat/" + strconv.Itoa(chatID)
	return &link
}
