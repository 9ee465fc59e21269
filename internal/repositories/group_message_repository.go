package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/phani-manda/chatX/internal/models"
)

// GroupMessageRepository defines interactions for group messages.
type GroupMessageRepository interface {
	CreateGroupMessage(ctx context.Context, groupID, senderID int, text, image string, replyTo *int) (models.GroupMessage, error)
	ListGroupMessages(ctx context.Context, groupID int) ([]models.GroupMessage, error)
	GetGroupMessage(ctx context.Context, messageID int) (models.GroupMessage, error)
	DeleteGroupMessage(ctx context.Context, messageID int) error
}

// GroupMessageRepo is a sqlx-backed implementation.
type GroupMessageRepo struct {
	db *sqlx.DB
}

// NewGroupMessageRepo constructs a GroupMessageRepo.
func NewGroupMessageRepo(db *sqlx.DB) *GroupMessageRepo {
	return &GroupMessageRepo{db: db}
}

const groupMessageColumns = `id, group_id, sender_id, text, image, reply_to, created_at`

// CreateGroupMessage persists a message and returns it with sender and reply
// populated, ready for fan-out.
func (r *GroupMessageRepo) CreateGroupMessage(ctx context.Context, groupID, senderID int, text, image string, replyTo *int) (models.GroupMessage, error) {
	var msg models.GroupMessage
	err := r.db.GetContext(ctx, &msg,
		`INSERT INTO group_messages (group_id, sender_id, text, image, reply_to)
         VALUES ($1, $2, $3, $4, $5) RETURNING `+groupMessageColumns,
		groupID, senderID, text, image, replyTo)
	if err != nil {
		return models.GroupMessage{}, err
	}
	if err := r.populate(ctx, &msg); err != nil {
		return models.GroupMessage{}, err
	}
	return msg, nil
}

// ListGroupMessages returns messages in creation order, sender and reply
// populated.
func (r *GroupMessageRepo) ListGroupMessages(ctx context.Context, groupID int) ([]models.GroupMessage, error) {
	var msgs []models.GroupMessage
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT `+groupMessageColumns+` FROM group_messages WHERE group_id=$1 ORDER BY created_at ASC`, groupID)
	if err != nil {
		return nil, err
	}
	for i := range msgs {
		if err := r.populate(ctx, &msgs[i]); err != nil {
			return nil, err
		}
	}
	return msgs, nil
}

// GetGroupMessage fetches a single message.
func (r *GroupMessageRepo) GetGroupMessage(ctx context.Context, messageID int) (models.GroupMessage, error) {
	var msg models.GroupMessage
	err := r.db.GetContext(ctx, &msg,
		`SELECT `+groupMessageColumns+` FROM group_messages WHERE id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.GroupMessage{}, ErrMessageNotFound
	}
	return msg, err
}

// DeleteGroupMessage removes a message permanently.
func (r *GroupMessageRepo) DeleteGroupMessage(ctx context.Context, messageID int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM group_messages WHERE id=$1`, messageID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrMessageNotFound
	}
	return nil
}

func (r *GroupMessageRepo) populate(ctx context.Context, msg *models.GroupMessage) error {
	var sender models.UserSummary
	if err := r.db.GetContext(ctx, &sender,
		`SELECT id, username, profile_pic FROM users WHERE id=$1`, msg.SenderID); err != nil {
		return err
	}
	msg.Sender = &sender

	if msg.ReplyToID == nil {
		return nil
	}
	var reply models.ReplyPreview
	err := r.db.GetContext(ctx, &reply,
		`SELECT m.id, m.text, m.image, m.sender_id, u.username AS sender_username
         FROM group_messages m JOIN users u ON u.id = m.sender_id
         WHERE m.id=$1`, *msg.ReplyToID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}
	msg.Reply = &reply
	return nil
}
