package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/phani-manda/chatX/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

// MessageRepository defines interactions for 1:1 messages.
type MessageRepository interface {
	CreateMessage(ctx context.Context, senderID, receiverID int, text, image string, replyTo *int) (models.Message, error)
	GetConversation(ctx context.Context, userID, otherID int) ([]models.Message, error)
	GetMessage(ctx context.Context, messageID int) (models.Message, error)
	DeleteMessage(ctx context.Context, messageID int) error
	ListChatPartnerIDs(ctx context.Context, userID int) ([]int, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs a MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

const messageColumns = `id, sender_id, receiver_id, text, image, reply_to, created_at`

// CreateMessage stores a message and returns it with the reply populated.
func (r *MessageRepo) CreateMessage(ctx context.Context, senderID, receiverID int, text, image string, replyTo *int) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg,
		`INSERT INTO messages (sender_id, receiver_id, text, image, reply_to)
         VALUES ($1, $2, $3, $4, $5) RETURNING `+messageColumns,
		senderID, receiverID, text, image, replyTo)
	if err != nil {
		return models.Message{}, err
	}
	if msg.ReplyToID != nil {
		if err := r.populateReply(ctx, &msg); err != nil {
			return models.Message{}, err
		}
	}
	return msg, nil
}

// GetConversation returns both directions of a 1:1 conversation in creation
// order, reply previews populated.
func (r *MessageRepo) GetConversation(ctx context.Context, userID, otherID int) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT `+messageColumns+` FROM messages
         WHERE (sender_id=$1 AND receiver_id=$2) OR (sender_id=$2 AND receiver_id=$1)
         ORDER BY created_at ASC`, userID, otherID)
	if err != nil {
		return nil, err
	}
	for i := range msgs {
		if msgs[i].ReplyToID == nil {
			continue
		}
		if err := r.populateReply(ctx, &msgs[i]); err != nil {
			return nil, err
		}
	}
	return msgs, nil
}

// GetMessage retrieves a single message.
func (r *MessageRepo) GetMessage(ctx context.Context, messageID int) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `SELECT `+messageColumns+` FROM messages WHERE id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// DeleteMessage removes a message permanently.
func (r *MessageRepo) DeleteMessage(ctx context.Context, messageID int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE id=$1`, messageID)
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

// ListChatPartnerIDs returns the distinct counterparties of every
// conversation the user participates in.
func (r *MessageRepo) ListChatPartnerIDs(ctx context.Context, userID int) ([]int, error) {
	var ids []int
	err := r.db.SelectContext(ctx, &ids,
		`SELECT DISTINCT CASE WHEN sender_id=$1 THEN receiver_id ELSE sender_id END
         FROM messages WHERE sender_id=$1 OR receiver_id=$1`, userID)
	return ids, err
}

func (r *MessageRepo) populateReply(ctx context.Context, msg *models.Message) error {
	var reply models.ReplyPreview
	err := r.db.GetContext(ctx, &reply,
		`SELECT m.id, m.text, m.image, m.sender_id, u.username AS sender_username
         FROM messages m JOIN users u ON u.id = m.sender_id
         WHERE m.id=$1`, *msg.ReplyToID)
	if errors.Is(err, sql.ErrNoRows) {
		// Replied-to message was deleted; leave the preview empty.
		return nil
	}
	if err != nil {
		return err
	}
	msg.Reply = &reply
	return nil
}
