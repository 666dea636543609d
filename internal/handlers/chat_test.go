package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"lostfound-backend/internal/mocks"
	"lostfound-backend/internal/models"
	"lostfound-backend/internal/repositories"
	"lostfound-backend/internal/ws"
)

func setupChatRouter(handler *ChatHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", 1)
		c.Next()
	})
	r.GET("/api/chats", handler.ListChats)
	r.POST("/api/chats", handler.CreateChat)
	r.GET("/api/chats/:chat_id/messages", handler.GetChatMessages)
	r.POST("/api/chats/:chat_id/send", handler.SendMessage)
	return r
}

func newChatHandlerForTest(chatRepo *mocks.ChatRepositoryMock, messageRepo *mocks.MessageRepositoryMock, notifRepo *mocks.NotificationRepositoryMock) *ChatHandler {
	return NewChatHandler(chatRepo, messageRepo, notifRepo, ws.NewHub())
}

func TestListChatsSuccess(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	handler := newChatHandlerForTest(chatRepo, new(mocks.MessageRepositoryMock), new(mocks.NotificationRepositoryMock))
	router := setupChatRouter(handler)

	chatRepo.On("ListChats", mock.Anything, 1).Return([]models.ChatSummary{
		{
			Chat:             models.Chat{ID: 3, PublicationID: 50, SenderID: 1, ReceiverID: 2},
			SenderName:       "alice",
			ReceiverName:     "bob",
			PublicationTitle: "Lost keys",
		},
	}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/chats", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Chats []models.ChatSummary `json:"chats"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Chats, 1)
	assert.Equal(t, "Lost keys", resp.Chats[0].PublicationTitle)
	chatRepo.AssertExpectations(t)
}

func TestListChatsRepoError(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	handler := newChatHandlerForTest(chatRepo, new(mocks.MessageRepositoryMock), new(mocks.NotificationRepositoryMock))
	router := setupChatRouter(handler)

	chatRepo.On("ListChats", mock.Anything, 1).Return(([]models.ChatSummary)(nil), assert.AnError).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/chats", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	chatRepo.AssertExpectations(t)
}

func TestCreateChatSuccess(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	handler := newChatHandlerForTest(chatRepo, new(mocks.MessageRepositoryMock), new(mocks.NotificationRepositoryMock))
	router := setupChatRouter(handler)

	chatRepo.On("CreateChatWithFirstMessage", mock.Anything, 50, 1, 2, "Is this still lost?").
		Return(models.Chat{ID: 10, PublicationID: 50, SenderID: 1, ReceiverID: 2}, true, nil).Once()

	body := bytes.NewBufferString(`{"publicationId":50,"receiverId":2,"firstMessage":"Is this still lost?"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/chats", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	chatRepo.AssertExpectations(t)
}

func TestCreateChatAlreadyExists(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	handler := newChatHandlerForTest(chatRepo, new(mocks.MessageRepositoryMock), new(mocks.NotificationRepositoryMock))
	router := setupChatRouter(handler)

	chatRepo.On("CreateChatWithFirstMessage", mock.Anything, 50, 1, 2, "Is this still lost?").
		Return(models.Chat{ID: 10, PublicationID: 50, SenderID: 1, ReceiverID: 2}, false, nil).Once()

	body := bytes.NewBufferString(`{"publicationId":50,"receiverId":2,"firstMessage":"Is this still lost?"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/chats", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "chat already exists", resp["info"])
	chatRepo.AssertExpectations(t)
}

func TestCreateChatWithSelf(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	handler := newChatHandlerForTest(chatRepo, new(mocks.MessageRepositoryMock), new(mocks.NotificationRepositoryMock))
	router := setupChatRouter(handler)

	body := bytes.NewBufferString(`{"publicationId":50,"receiverId":1,"firstMessage":"hello me"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/chats", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	chatRepo.AssertNotCalled(t, "CreateChatWithFirstMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateChatBlankFirstMessage(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	handler := newChatHandlerForTest(chatRepo, new(mocks.MessageRepositoryMock), new(mocks.NotificationRepositoryMock))
	router := setupChatRouter(handler)

	body := bytes.NewBufferString(`{"publicationId":50,"receiverId":2,"firstMessage":"   "}`)
	req := httptest.NewRequest(http.MethodPost, "/api/chats", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	chatRepo.AssertNotCalled(t, "CreateChatWithFirstMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateChatPublicationMissing(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	handler := newChatHandlerForTest(chatRepo, new(mocks.MessageRepositoryMock), new(mocks.NotificationRepositoryMock))
	router := setupChatRouter(handler)

	chatRepo.On("CreateChatWithFirstMessage", mock.Anything, 404, 1, 2, "hi").
		Return(models.Chat{}, false, repositories.ErrPublicationNotFound).Once()

	body := bytes.NewBufferString(`{"publicationId":404,"receiverId":2,"firstMessage":"hi"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/chats", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	chatRepo.AssertExpectations(t)
}

func TestGetChatMessagesSuccess(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := newChatHandlerForTest(chatRepo, messageRepo, new(mocks.NotificationRepositoryMock))
	router := setupChatRouter(handler)

	chatRepo.On("GetChat", mock.Anything, 5).Return(models.Chat{ID: 5, PublicationID: 50, SenderID: 1, ReceiverID: 2}, nil).Once()
	messageRepo.On("ListMessages", mock.Anything, 5).Return([]models.Message{
		{ID: 1, ChatID: 5, SenderID: 1, Content: "first"},
		{ID: 2, ChatID: 5, SenderID: 2, Content: "second"},
	}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/chats/5/messages", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Messages []models.Message `json:"messages"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Messages, 2)
	assert.Equal(t, "first", resp.Messages[0].Content)
	chatRepo.AssertExpectations(t)
	messageRepo.AssertExpectations(t)
}

func TestGetChatMessagesForbidden(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := newChatHandlerForTest(chatRepo, messageRepo, new(mocks.NotificationRepositoryMock))
	router := setupChatRouter(handler)

	chatRepo.On("GetChat", mock.Anything, 5).Return(models.Chat{ID: 5, PublicationID: 50, SenderID: 2, ReceiverID: 3}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/chats/5/messages", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	messageRepo.AssertNotCalled(t, "ListMessages", mock.Anything, mock.Anything)
}

func TestGetChatMessagesChatNotFound(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := newChatHandlerForTest(chatRepo, messageRepo, new(mocks.NotificationRepositoryMock))
	router := setupChatRouter(handler)

	chatRepo.On("GetChat", mock.Anything, 999).Return(models.Chat{}, repositories.ErrChatNotFound).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/chats/999/messages", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	messageRepo.AssertNotCalled(t, "ListMessages", mock.Anything, mock.Anything)
}

func TestGetChatMessagesInvalidID(t *testing.T) {
	handler := newChatHandlerForTest(new(mocks.ChatRepositoryMock), new(mocks.MessageRepositoryMock), new(mocks.NotificationRepositoryMock))
	router := setupChatRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/api/chats/abc/messages", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendMessageSuccess(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	messageRepo := new(mocks.MessageRepositoryMock)
	notifRepo := new(mocks.NotificationRepositoryMock)
	handler := newChatHandlerForTest(chatRepo, messageRepo, notifRepo)
	router := setupChatRouter(handler)

	chatRepo.On("GetChat", mock.Anything, 5).Return(models.Chat{ID: 5, PublicationID: 50, SenderID: 1, ReceiverID: 2}, nil).Once()
	messageRepo.On("CreateMessage", mock.Anything, 5, 1, "hi").Return(models.Message{ID: 7, ChatID: 5, SenderID: 1, Content: "hi"}, nil).Once()
	notifRepo.On("Create", mock.Anything, 2, "message", mock.Anything, mock.Anything).Return(nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/chats/5/send", bytes.NewBufferString(`{"content":"hi"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	chatRepo.AssertExpectations(t)
	messageRepo.AssertExpectations(t)
	notifRepo.AssertExpectations(t)
}

func TestSendMessageChatNotFound(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	handler := newChatHandlerForTest(chatRepo, new(mocks.MessageRepositoryMock), new(mocks.NotificationRepositoryMock))
	router := setupChatRouter(handler)

	chatRepo.On("GetChat", mock.Anything, 5).Return(models.Chat{}, repositories.ErrChatNotFound).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/chats/5/send", bytes.NewBufferString(`{"content":"hi"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	chatRepo.AssertExpectations(t)
}

func TestSendMessageNotParticipant(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := newChatHandlerForTest(chatRepo, messageRepo, new(mocks.NotificationRepositoryMock))
	router := setupChatRouter(handler)

	chatRepo.On("GetChat", mock.Anything, 5).Return(models.Chat{ID: 5, PublicationID: 50, SenderID: 2, ReceiverID: 3}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/chats/5/send", bytes.NewBufferString(`{"content":"hi"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	messageRepo.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSendMessageEmptyContent(t *testing.T) {
	chatRepo := new(mocks.ChatRepositoryMock)
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := newChatHandlerForTest(chatRepo, messageRepo, new(mocks.NotificationRepositoryMock))
	router := setupChatRouter(handler)

	req := httptest.NewRequest(http.MethodPost, "/api/chats/5/send", bytes.NewBufferString(`{"content":"   "}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	messageRepo.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
