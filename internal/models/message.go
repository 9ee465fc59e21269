package models

import "time"

// Message is a 1:1 chat message. Text and image are each optional but never
// both empty. ReplyToID references another message in the same conversation.
type Message struct {
	ID         int           `db:"id" json:"id"`
	SenderID   int           `db:"sender_id" json:"senderId"`
	ReceiverID int           `db:"receiver_id" json:"receiverId"`
	Text       string        `db:"text" json:"text,omitempty"`
	Image      string        `db:"image" json:"image,omitempty"`
	ReplyToID  *int          `db:"reply_to" json:"replyTo,omitempty"`
	Reply      *ReplyPreview `db:"-" json:"reply,omitempty"`
	CreatedAt  time.Time     `db:"created_at" json:"createdAt"`
}

// ReplyPreview is the populated view of a replied-to message.
type ReplyPreview struct {
	ID             int    `db:"id" json:"id"`
	Text           string `db:"text" json:"text,omitempty"`
	Image          string `db:"image" json:"image,omitempty"`
	SenderID       int    `db:"sender_id" json:"senderId"`
	SenderUsername string `db:"sender_username" json:"senderUsername"`
}
