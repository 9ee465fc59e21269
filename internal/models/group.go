package models

import "time"

// Group is a chat group. The admin is always a member and cannot be removed.
type Group struct {
	ID            int       `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	Description   string    `db:"description" json:"description,omitempty"`
	Avatar        string    `db:"avatar" json:"avatar,omitempty"`
	AdminID       int       `db:"admin_id" json:"adminId"`
	LastMessageID *int      `db:"last_message_id" json:"-"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `db:"updated_at" json:"updatedAt"`
}

// GroupDetail is a group with its roster populated; this is the entity
// carried by the newGroup and groupUpdated events.
type GroupDetail struct {
	Group
	Admin       UserSummary   `json:"admin"`
	Members     []UserSummary `json:"members"`
	LastMessage *GroupMessage `json:"lastMessage,omitempty"`
}

// MemberIDs returns the ids of the populated roster.
func (g GroupDetail) MemberIDs() []int {
	ids := make([]int, 0, len(g.Members))
	for _, m := range g.Members {
		ids = append(ids, m.ID)
	}
	return ids
}

// GroupMessage is a message sent in a group.
type GroupMessage struct {
	ID        int           `db:"id" json:"id"`
	GroupID   int           `db:"group_id" json:"groupId"`
	SenderID  int           `db:"sender_id" json:"senderId"`
	Text      string        `db:"text" json:"text,omitempty"`
	Image     string        `db:"image" json:"image,omitempty"`
	ReplyToID *int          `db:"reply_to" json:"replyTo,omitempty"`
	Sender    *UserSummary  `db:"-" json:"sender,omitempty"`
	Reply     *ReplyPreview `db:"-" json:"reply,omitempty"`
	CreatedAt time.Time     `db:"created_at" json:"createdAt"`
}
