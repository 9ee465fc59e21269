package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"github.com/phani-manda/chatX/internal/media"
	"github.com/phani-manda/chatX/internal/repositories"
	"github.com/phani-manda/chatX/internal/ws"
)

// GroupHandler serves the group REST surface: lifecycle, roster, and group
// messages. Every mutation that changes what other members see is mirrored
// onto the hub.
type GroupHandler struct {
	users         repositories.UserRepository
	groups        repositories.GroupRepository
	groupMessages repositories.GroupMessageRepository
	media         media.Store
	hub           *ws.Hub
}

func NewGroupHandler(users repositories.UserRepository, groups repositories.GroupRepository, groupMessages repositories.GroupMessageRepository, mediaStore media.Store, hub *ws.Hub) *GroupHandler {
	return &GroupHandler{
		users:         users,
		groups:        groups,
		groupMessages: groupMessages,
		media:         mediaStore,
		hub:           hub,
	}
}

// CreateGroup creates a group with the caller as admin and notifies every
// initial member.
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	userID := c.GetInt("userID")

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Members     []int  `json:"members"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "group name is required"})
		return
	}

	members := lo.Uniq(lo.Without(req.Members, userID))
	if len(members) > 0 {
		found, err := h.users.ListByIDs(c.Request.Context(), members)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
		if len(found) != len(members) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "one or more members do not exist"})
			return
		}
	}

	group, err := h.groups.CreateGroup(c.Request.Context(), userID, req.Name, req.Description, members)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create group"})
		return
	}

	detail, err := h.groups.GetGroupDetail(c.Request.Context(), group.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	h.hub.Route(c.Request.Context(), ws.GroupCreated{Group: detail})

	c.JSON(http.StatusCreated, detail)
}

// ListGroups returns every group the caller belongs to.
func (h *GroupHandler) ListGroups(c *gin.Context) {
	userID := c.GetInt("userID")
	groups, err := h.groups.ListGroupsForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, groups)
}

// GetGroup returns one group's detail; members only.
func (h *GroupHandler) GetGroup(c *gin.Context) {
	userID := c.GetInt("userID")
	groupID, err := pathID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group id"})
		return
	}

	if !h.requireMember(c, groupID, userID) {
		return
	}

	detail, err := h.groups.GetGroupDetail(c.Request.Context(), groupID)
	if err != nil {
		h.groupError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// UpdateGroup edits group metadata; admin only. Members get a groupUpdated
// event.
func (h *GroupHandler) UpdateGroup(c *gin.Context) {
	userID := c.GetInt("userID")
	groupID, err := pathID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group id"})
		return
	}

	group, err := h.groups.GetGroup(c.Request.Context(), groupID)
	if err != nil {
		h.groupError(c, err)
		return
	}
	if group.AdminID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the group admin can edit the group"})
		return
	}

	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		Avatar      *string `json:"avatar"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Name != nil && *req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "group name cannot be empty"})
		return
	}

	if req.Avatar != nil && *req.Avatar != "" {
		url, err := h.media.Upload(c.Request.Context(), *req.Avatar)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid image"})
			return
		}
		req.Avatar = &url
	}

	if _, err := h.groups.UpdateGroup(c.Request.Context(), groupID, req.Name, req.Description, req.Avatar); err != nil {
		h.groupError(c, err)
		return
	}

	detail, err := h.groups.GetGroupDetail(c.Request.Context(), groupID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	h.hub.Route(c.Request.Context(), ws.GroupUpdated{Group: detail})

	c.JSON(http.StatusOK, detail)
}

// AddMember adds a user to the roster; admin only.
func (h *GroupHandler) AddMember(c *gin.Context) {
	userID := c.GetInt("userID")
	groupID, err := pathID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group id"})
		return
	}

	var req struct {
		UserID int `json:"userId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user id is required"})
		return
	}

	group, err := h.groups.GetGroup(c.Request.Context(), groupID)
	if err != nil {
		h.groupError(c, err)
		return
	}
	if group.AdminID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the group admin can add members"})
		return
	}

	if _, err := h.users.GetUser(c.Request.Context(), req.UserID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	if err := h.groups.AddMember(c.Request.Context(), groupID, req.UserID); err != nil {
		if errors.Is(err, repositories.ErrAlreadyMember) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user is already a member"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not add member"})
		return
	}

	detail, err := h.groups.GetGroupDetail(c.Request.Context(), groupID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	h.hub.Route(c.Request.Context(), ws.GroupUpdated{Group: detail})

	c.JSON(http.StatusOK, detail)
}

// RemoveMember removes a user from the roster. The admin may remove anyone
// but themselves; a member may remove only themselves (leave).
func (h *GroupHandler) RemoveMember(c *gin.Context) {
	userID := c.GetInt("userID")
	groupID, err := pathID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group id"})
		return
	}
	targetID, err := pathID(c, "userId")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	h.removeFromGroup(c, groupID, userID, targetID)
}

// LeaveGroup removes the caller from the roster.
func (h *GroupHandler) LeaveGroup(c *gin.Context) {
	userID := c.GetInt("userID")
	groupID, err := pathID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group id"})
		return
	}

	h.removeFromGroup(c, groupID, userID, userID)
}

func (h *GroupHandler) removeFromGroup(c *gin.Context, groupID, callerID, targetID int) {
	group, err := h.groups.GetGroup(c.Request.Context(), groupID)
	if err != nil {
		h.groupError(c, err)
		return
	}
	if targetID == group.AdminID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "the group admin cannot be removed"})
		return
	}
	if callerID != group.AdminID && callerID != targetID {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the group admin can remove other members"})
		return
	}

	if err := h.groups.RemoveMember(c.Request.Context(), groupID, targetID); err != nil {
		if errors.Is(err, repositories.ErrNotMember) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user is not a member"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not remove member"})
		return
	}

	detail, err := h.groups.GetGroupDetail(c.Request.Context(), groupID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	h.hub.Route(c.Request.Context(), ws.MemberRemoved{Group: detail, RemovedUserID: targetID})

	c.JSON(http.StatusOK, detail)
}

// GetGroupMessages returns the group's messages; members only.
func (h *GroupHandler) GetGroupMessages(c *gin.Context) {
	userID := c.GetInt("userID")
	groupID, err := pathID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group id"})
		return
	}

	if !h.requireMember(c, groupID, userID) {
		return
	}

	msgs, err := h.groupMessages.ListGroupMessages(c.Request.Context(), groupID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, msgs)
}

// PostGroupMessage persists a group message and fans it out to every member,
// sender included.
func (h *GroupHandler) PostGroupMessage(c *gin.Context) {
	userID := c.GetInt("userID")
	groupID, err := pathID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group id"})
		return
	}

	if !h.requireMember(c, groupID, userID) {
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

	imageURL := ""
	if req.Image != "" {
		imageURL, err = h.media.Upload(c.Request.Context(), req.Image)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid image"})
			return
		}
	}

	msg, err := h.groupMessages.CreateGroupMessage(c.Request.Context(), groupID, userID, req.Text, imageURL, req.ReplyTo)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not send message"})
		return
	}

	if err := h.groups.SetLastMessage(c.Request.Context(), groupID, msg.ID); err != nil {
		c.Error(err)
	}

	h.hub.Route(c.Request.Context(), ws.GroupMessageCreated{GroupID: groupID, Message: msg})

	c.JSON(http.StatusCreated, msg)
}

// DeleteGroupMessage removes a group message; the sender or the group admin
// may delete.
func (h *GroupHandler) DeleteGroupMessage(c *gin.Context) {
	userID := c.GetInt("userID")
	groupID, err := pathID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group id"})
		return
	}
	messageID, err := pathID(c, "messageId")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	group, err := h.groups.GetGroup(c.Request.Context(), groupID)
	if err != nil {
		h.groupError(c, err)
		return
	}

	msg, err := h.groupMessages.GetGroupMessage(c.Request.Context(), messageID)
	if err != nil || msg.GroupID != groupID {
		c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
		return
	}
	if msg.SenderID != userID && group.AdminID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "you can only delete your own messages"})
		return
	}

	if err := h.groupMessages.DeleteGroupMessage(c.Request.Context(), messageID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete message"})
		return
	}
	if msg.Image != "" {
		if err := h.media.Delete(c.Request.Context(), msg.Image); err != nil {
			c.Error(err)
		}
	}

	h.hub.Route(c.Request.Context(), ws.GroupMessageDeleted{GroupID: groupID, MessageID: messageID})

	c.JSON(http.StatusOK, gin.H{"message": "message deleted successfully"})
}

func (h *GroupHandler) requireMember(c *gin.Context, groupID, userID int) bool {
	member, err := h.groups.IsMember(c.Request.Context(), groupID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return false
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "you are not a member of this group"})
		return false
	}
	return true
}

func (h *GroupHandler) groupError(c *gin.Context, err error) {
	if errors.Is(err, repositories.ErrGroupNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "group not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
