package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/phani-manda/chatX/internal/models"
	"github.com/phani-manda/chatX/internal/observability"
)

// MemberLister is the slice of the group store the router needs to resolve a
// group audience. Satisfied by repositories.GroupRepo.
type MemberLister interface {
	MemberIDs(ctx context.Context, groupID int) ([]int, error)
}

// Hub owns the table of live sessions and routes domain events to them
// according to the per-event fan-out policy. Presence bookkeeping is
// delegated to the injected Registry; the hub itself never mutates it outside
// Bind and Unbind.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	presence Registry
	members  MemberLister
}

// NewHub creates a hub over the given registry and group membership source.
func NewHub(presence Registry, members MemberLister) *Hub {
	return &Hub{
		sessions: make(map[string]*Session),
		presence: presence,
		members:  members,
	}
}

// Bind registers a session. Idempotent for the same session.
func (h *Hub) Bind(s *Session) {
	h.mu.Lock()
	h.sessions[s.ID] = s
	h.mu.Unlock()
	h.presence.Register(s.UserID, s.ID)
}

// Unbind removes a session and closes it. Safe to call for a session that was
// never bound or is already gone; duplicate disconnect notifications must not
// disturb the registry.
func (h *Hub) Unbind(s *Session) {
	h.mu.Lock()
	delete(h.sessions, s.ID)
	h.mu.Unlock()
	h.presence.Deregister(s.UserID, s.ID)
	s.close()
}

// Registry exposes the presence registry for read-side consumers.
func (h *Hub) Registry() Registry {
	return h.presence
}

type messageDeletedPayload struct {
	MessageID int `json:"messageId"`
}

type groupMessagePayload struct {
	GroupID int                 `json:"groupId"`
	Message models.GroupMessage `json:"message"`
}

type groupMessageDeletedPayload struct {
	GroupID   int `json:"groupId"`
	MessageID int `json:"messageId"`
}

type typingPayload struct {
	SenderID int  `json:"senderId"`
	IsTyping bool `json:"isTyping"`
}

type groupTypingPayload struct {
	GroupID  int    `json:"groupId"`
	UserID   int    `json:"userId"`
	Username string `json:"username"`
	IsTyping bool   `json:"isTyping"`
}

// Route resolves the event's audience and delivers its payload to every
// resolved live connection, at most once each. A missing recipient is not an
// error; the persisted stores are the source of truth and the realtime layer
// only accelerates them.
func (h *Hub) Route(ctx context.Context, ev Event) {
	if h == nil {
		return
	}
	observability.IncWSEvent("out", ev.eventName())

	switch e := ev.(type) {
	case MessageCreated:
		h.toUsers([]int{e.ReceiverID}, ev, e.Message)
	case MessageDeleted:
		h.toUsers([]int{e.ReceiverID}, ev, messageDeletedPayload{MessageID: e.MessageID})
	case GroupMessageCreated:
		h.toGroup(ctx, e.GroupID, ev, groupMessagePayload{GroupID: e.GroupID, Message: e.Message})
	case GroupMessageDeleted:
		h.toGroup(ctx, e.GroupID, ev, groupMessageDeletedPayload{GroupID: e.GroupID, MessageID: e.MessageID})
	case GroupCreated:
		h.toUsers(e.Group.MemberIDs(), ev, e.Group)
	case GroupUpdated:
		h.toUsers(e.Group.MemberIDs(), ev, e.Group)
	case MemberRemoved:
		h.toUsers(e.Group.MemberIDs(), ev, e.Group)
		h.deliver(h.connsFor([]int{e.RemovedUserID}), "removedFromGroup", e.Group.ID)
	case UserTyping:
		h.toUsers([]int{e.ReceiverID}, ev, typingPayload{SenderID: e.SenderID, IsTyping: e.IsTyping})
	case GroupUserTyping:
		// Broadcast-and-filter: cheaper than per-group subscription sets;
		// every receiving client already knows its own group rosters.
		h.deliver(h.allExcept(e.UserID), ev.eventName(), groupTypingPayload{
			GroupID:  e.GroupID,
			UserID:   e.UserID,
			Username: e.Username,
			IsTyping: e.IsTyping,
		})
	case PresenceChanged:
		h.deliver(h.allExcept(0), ev.eventName(), h.presence.OnlineUserIDs())
	default:
		log.Printf("ws: unroutable event %T", ev)
	}
}

func (h *Hub) toUsers(userIDs []int, ev Event, payload any) {
	h.deliver(h.connsFor(userIDs), ev.eventName(), payload)
}

func (h *Hub) toGroup(ctx context.Context, groupID int, ev Event, payload any) {
	memberIDs, err := h.members.MemberIDs(ctx, groupID)
	if err != nil {
		log.Printf("ws: resolve group %d audience: %v", groupID, err)
		return
	}
	h.toUsers(memberIDs, ev, payload)
}

// connsFor resolves user ids to live sessions through the registry.
func (h *Hub) connsFor(userIDs []int) []*Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var targets []*Session
	for _, userID := range userIDs {
		for _, connID := range h.presence.ConnectionsFor(userID) {
			if s, ok := h.sessions[connID]; ok {
				targets = append(targets, s)
			}
		}
	}
	return targets
}

// allExcept snapshots every session except those owned by excludeUserID.
// Zero excludes nobody.
func (h *Hub) allExcept(excludeUserID int) []*Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	targets := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		if excludeUserID != 0 && s.UserID == excludeUserID {
			continue
		}
		targets = append(targets, s)
	}
	return targets
}

// deliver writes one event frame to each target, dropping sessions that can
// no longer accept writes. No retry, no queueing beyond the session buffer.
func (h *Hub) deliver(targets []*Session, event string, payload any) {
	if len(targets) == 0 {
		return
	}
	frame, err := json.Marshal(envelope{Event: event, Data: payload})
	if err != nil {
		log.Printf("ws: marshal %s event: %v", event, err)
		return
	}
	for _, s := range targets {
		if !s.enqueue(frame) {
			log.Printf("ws: dropping stalled session %s (user %d)", s.ID, s.UserID)
			h.Unbind(s)
		}
	}
}
