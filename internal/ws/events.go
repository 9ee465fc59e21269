package ws

import "github.com/phani-manda/chatX/internal/models"

// Event is a domain event routed to live connections. Each variant fixes its
// wire event name and payload shape; the fan-out policy lives in Hub.Route.
type Event interface {
	eventName() string
}

// MessageCreated narrowcasts a new 1:1 message to the receiver. The sender
// gets no echo; it already holds the entity from the originating request.
type MessageCreated struct {
	ReceiverID int
	Message    models.Message
}

// MessageDeleted narrowcasts a 1:1 deletion to the receiver.
type MessageDeleted struct {
	ReceiverID int
	MessageID  int
}

// GroupMessageCreated fans a new group message out to every member, sender
// included.
type GroupMessageCreated struct {
	GroupID int
	Message models.GroupMessage
}

// GroupMessageDeleted fans a group deletion out to every member.
type GroupMessageDeleted struct {
	GroupID   int
	MessageID int
}

// GroupCreated delivers the new group to every initial member.
type GroupCreated struct {
	Group models.GroupDetail
}

// GroupUpdated delivers the updated roster or metadata to current members.
type GroupUpdated struct {
	Group models.GroupDetail
}

// MemberRemoved delivers groupUpdated to the remaining members and a distinct
// removedFromGroup notification to the removed user.
type MemberRemoved struct {
	Group         models.GroupDetail
	RemovedUserID int
}

// UserTyping narrowcasts a 1:1 typing transition to the receiver.
type UserTyping struct {
	SenderID   int
	ReceiverID int
	IsTyping   bool
}

// GroupUserTyping is broadcast to every session except the typing user's own
// connections; receivers filter by group membership client-side.
type GroupUserTyping struct {
	GroupID  int
	UserID   int
	Username string
	IsTyping bool
}

// PresenceChanged broadcasts the online-user roster to every session. Emitted
// on every connect and disconnect transition.
type PresenceChanged struct{}

func (MessageCreated) eventName() string      { return "newMessage" }
func (MessageDeleted) eventName() string      { return "messageDeleted" }
func (GroupMessageCreated) eventName() string { return "newGroupMessage" }
func (GroupMessageDeleted) eventName() string { return "groupMessageDeleted" }
func (GroupCreated) eventName() string        { return "newGroup" }
func (GroupUpdated) eventName() string        { return "groupUpdated" }
func (MemberRemoved) eventName() string       { return "groupUpdated" }
func (UserTyping) eventName() string          { return "userTyping" }
func (GroupUserTyping) eventName() string     { return "groupUserTyping" }
func (PresenceChanged) eventName() string     { return "getOnlineUsers" }

// envelope is the JSON frame written to clients.
type envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// clientFrame is the JSON frame read from clients.
type clientFrame struct {
	Event string `json:"event"`
	Data  struct {
		ReceiverID int  `json:"receiverId"`
		GroupID    int  `json:"groupId"`
		IsTyping   bool `json:"isTyping"`
	} `json:"data"`
}
