package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/phani-manda/chatX/internal/media"
	"github.com/phani-manda/chatX/internal/models"
	"github.com/phani-manda/chatX/internal/repositories"
	"github.com/phani-manda/chatX/internal/ws"
)

// MessageHandler serves the direct-message REST surface and pushes the
// resulting events through the hub.
type MessageHandler struct {
	users    repositories.UserRepository
	messages repositories.MessageRepository
	media    media.Store
	hub      *ws.Hub
}

func NewMessageHandler(users repositories.UserRepository, messages repositories.MessageRepository, mediaStore media.Store, hub *ws.Hub) *MessageHandler {
	return &MessageHandler{users: users, messages: messages, media: mediaStore, hub: hub}
}

// GetContacts lists every other registered user.
func (h *MessageHandler) GetContacts(c *gin.Context) {
	userID := c.GetInt("userID")
	contacts, err := h.users.ListContacts(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, contacts)
}

// GetChatPartners lists only the users the caller has exchanged messages with.
func (h *MessageHandler) GetChatPartners(c *gin.Context) {
	userID := c.GetInt("userID")
	ids, err := h.messages.ListChatPartnerIDs(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	if len(ids) == 0 {
		c.JSON(http.StatusOK, []models.UserSummary{})
		return
	}
	partners, err := h.users.ListByIDs(c.Request.Context(), ids)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, partners)
}

// GetMessages returns the conversation with the user in the path, oldest
// first.
func (h *MessageHandler) GetMessages(c *gin.Context) {
	userID := c.GetInt("userID")
	otherID, err := pathID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	msgs, err := h.messages.GetConversation(c.Request.Context(), userID, otherID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, msgs)
}

// SendMessage persists a direct message and routes a newMessage event to the
// receiver's live connections.
func (h *MessageHandler) SendMessage(c *gin.Context) {
	userID := c.GetInt("userID")
	receiverID, err := pathID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	if receiverID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot send messages to yourself"})
		return
	}

	var req struct {
		Text    string `json:"text"`
		Image   string `json:"image"`
		ReplyTo *int   `json:"replyTo"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Text == "" && req.Image == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text or image is required"})
		return
	}

	if _, err := h.users.GetUser(c.Request.Context(), receiverID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "receiver not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	imageURL := ""
	if req.Image != "" {
		imageURL, err = h.media.Upload(c.Request.Context(), req.Image)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid image"})
			return
		}
	}

	msg, err := h.messages.CreateMessage(c.Request.Context(), userID, receiverID, req.Text, imageURL, req.ReplyTo)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not send message"})
		return
	}

	h.hub.Route(c.Request.Context(), ws.MessageCreated{ReceiverID: receiverID, Message: msg})

	c.JSON(http.StatusCreated, msg)
}

// DeleteMessage removes a message the caller sent and notifies the receiver.
func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	userID := c.GetInt("userID")
	messageID, err := pathID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	msg, err := h.messages.GetMessage(c.Request.Context(), messageID)
	if err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	if msg.SenderID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "you can only delete your own messages"})
		return
	}

	if err := h.messages.DeleteMessage(c.Request.Context(), messageID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete message"})
		return
	}
	if msg.Image != "" {
		if err := h.media.Delete(c.Request.Context(), msg.Image); err != nil {
			// message row is gone; an orphaned file is the lesser problem
			c.Error(err)
		}
	}

	h.hub.Route(c.Request.Context(), ws.MessageDeleted{ReceiverID: msg.ReceiverID, MessageID: messageID})

	c.JSON(http.StatusOK, gin.H{"message": "message deleted successfully"})
}

func pathID(c *gin.Context, name string) (int, error) {
	return strconv.Atoi(c.Param(name))
}
