package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"

	"github.com/phani-manda/chatX/internal/models"
)

var (
	ErrGroupNotFound = errors.New("group not found")
	ErrAlreadyMember = errors.New("user is already a member")
	ErrNotMember     = errors.New("user is not a member")
)

// GroupRepository abstracts group persistence. MemberIDs doubles as the
// membership source for the event router.
type GroupRepository interface {
	CreateGroup(ctx context.Context, adminID int, name, description string, memberIDs []int) (models.Group, error)
	GetGroup(ctx context.Context, groupID int) (models.Group, error)
	GetGroupDetail(ctx context.Context, groupID int) (models.GroupDetail, error)
	ListGroupsForUser(ctx context.Context, userID int) ([]models.GroupDetail, error)
	IsMember(ctx context.Context, groupID, userID int) (bool, error)
	MemberIDs(ctx context.Context, groupID int) ([]int, error)
	AddMember(ctx context.Context, groupID, userID int) error
	RemoveMember(ctx context.Context, groupID, userID int) error
	UpdateGroup(ctx context.Context, groupID int, name, description, avatar *string) (models.Group, error)
	SetLastMessage(ctx context.Context, groupID, messageID int) error
}

// GroupRepo is a sqlx implementation of GroupRepository.
type GroupRepo struct {
	db *sqlx.DB
}

// NewGroupRepo constructs a GroupRepo.
func NewGroupRepo(db *sqlx.DB) *GroupRepo {
	return &GroupRepo{db: db}
}

const groupColumns = `id, name, description, avatar, admin_id, last_message_id, created_at, updated_at`

// CreateGroup creates a group and its roster atomically. The admin is always
// part of the roster, and duplicate member ids collapse.
func (r *GroupRepo) CreateGroup(ctx context.Context, adminID int, name, description string, memberIDs []int) (models.Group, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Group{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var group models.Group
	if err = tx.GetContext(ctx, &group,
		`INSERT INTO groups (name, description, admin_id) VALUES ($1, $2, $3) RETURNING `+groupColumns,
		name, description, adminID); err != nil {
		return models.Group{}, err
	}

	ids := lo.Uniq(append([]int{adminID}, memberIDs...))
	for _, id := range ids {
		if _, err = tx.ExecContext(ctx, `INSERT INTO group_members (group_id, user_id) VALUES ($1, $2)`, group.ID, id); err != nil {
			return models.Group{}, err
		}
	}

	if err = tx.Commit(); err != nil {
		return models.Group{}, err
	}
	return group, nil
}

// GetGroup fetches a single group row.
func (r *GroupRepo) GetGroup(ctx context.Context, groupID int) (models.Group, error) {
	var group models.Group
	err := r.db.GetContext(ctx, &group, `SELECT `+groupColumns+` FROM groups WHERE id=$1`, groupID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Group{}, ErrGroupNotFound
	}
	return group, err
}

// GetGroupDetail fetches a group with admin and roster populated.
func (r *GroupRepo) GetGroupDetail(ctx context.Context, groupID int) (models.GroupDetail, error) {
	group, err := r.GetGroup(ctx, groupID)
	if err != nil {
		return models.GroupDetail{}, err
	}
	return r.populateDetail(ctx, group)
}

// ListGroupsForUser returns every group whose roster includes the user,
// most recently updated first.
func (r *GroupRepo) ListGroupsForUser(ctx context.Context, userID int) ([]models.GroupDetail, error) {
	var groups []models.Group
	err := r.db.SelectContext(ctx, &groups,
		`SELECT g.`+groupColumnsPrefixed(`g`)+` FROM groups g
         INNER JOIN group_members gm ON gm.group_id = g.id
         WHERE gm.user_id=$1 ORDER BY g.updated_at DESC`, userID)
	if err != nil {
		return nil, err
	}

	details := make([]models.GroupDetail, 0, len(groups))
	for _, g := range groups {
		detail, err := r.populateDetail(ctx, g)
		if err != nil {
			return nil, err
		}
		details = append(details, detail)
	}
	return details, nil
}

// IsMember checks membership.
func (r *GroupRepo) IsMember(ctx context.Context, groupID, userID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM group_members WHERE group_id=$1 AND user_id=$2)`, groupID, userID)
	return exists, err
}

// MemberIDs returns the current roster ids.
func (r *GroupRepo) MemberIDs(ctx context.Context, groupID int) ([]int, error) {
	var ids []int
	err := r.db.SelectContext(ctx, &ids,
		`SELECT user_id FROM group_members WHERE group_id=$1 ORDER BY user_id`, groupID)
	return ids, err
}

// AddMember adds a user to the roster; adding an existing member is an error.
func (r *GroupRepo) AddMember(ctx context.Context, groupID, userID int) error {
	member, err := r.IsMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if member {
		return ErrAlreadyMember
	}
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO group_members (group_id, user_id) VALUES ($1, $2)`, groupID, userID); err != nil {
		return err
	}
	return r.touch(ctx, groupID)
}

// RemoveMember removes a user from the roster.
func (r *GroupRepo) RemoveMember(ctx context.Context, groupID, userID int) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM group_members WHERE group_id=$1 AND user_id=$2`, groupID, userID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrNotMember
	}
	return r.touch(ctx, groupID)
}

// UpdateGroup applies the non-nil fields and returns the updated row.
func (r *GroupRepo) UpdateGroup(ctx context.Context, groupID int, name, description, avatar *string) (models.Group, error) {
	var group models.Group
	err := r.db.GetContext(ctx, &group,
		`UPDATE groups SET
            name = COALESCE($2, name),
            description = COALESCE($3, description),
            avatar = COALESCE($4, avatar),
            updated_at = NOW()
         WHERE id=$1 RETURNING `+groupColumns,
		groupID, name, description, avatar)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Group{}, ErrGroupNotFound
	}
	return group, err
}

// SetLastMessage records the most recent group message.
func (r *GroupRepo) SetLastMessage(ctx context.Context, groupID, messageID int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE groups SET last_message_id=$2, updated_at=NOW() WHERE id=$1`, groupID, messageID)
	return err
}

func (r *GroupRepo) populateDetail(ctx context.Context, group models.Group) (models.GroupDetail, error) {
	detail := models.GroupDetail{Group: group}

	if err := r.db.GetContext(ctx, &detail.Admin,
		`SELECT id, username, profile_pic FROM users WHERE id=$1`, group.AdminID); err != nil {
		return models.GroupDetail{}, err
	}

	if err := r.db.SelectContext(ctx, &detail.Members,
		`SELECT u.id, u.username, u.profile_pic FROM users u
         INNER JOIN group_members gm ON gm.user_id = u.id
         WHERE gm.group_id=$1 ORDER BY u.id`, group.ID); err != nil {
		return models.GroupDetail{}, err
	}

	if group.LastMessageID != nil {
		var msg models.GroupMessage
		err := r.db.GetContext(ctx, &msg,
			`SELECT id, group_id, sender_id, text, image, reply_to, created_at
             FROM group_messages WHERE id=$1`, *group.LastMessageID)
		if err == nil {
			detail.LastMessage = &msg
		} else if !errors.Is(err, sql.ErrNoRows) {
			return models.GroupDetail{}, err
		}
	}
	return detail, nil
}

func (r *GroupRepo) touch(ctx context.Context, groupID int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE groups SET updated_at=NOW() WHERE id=$1`, groupID)
	return err
}

func groupColumnsPrefixed(alias string) string {
	return `id, ` + alias + `.name, ` + alias + `.description, ` + alias + `.avatar, ` +
		alias + `.admin_id, ` + alias + `.last_message_id, ` + alias + `.created_at, ` + alias + `.updated_at`
}
