package event

import (
	"strconv"
	"time"

	"github.com/google/uuid"

	"go-live-chatroom/internal/model"
)

// Kind is the discriminant of the Event variant. It doubles as the topic prefix.
type Kind string

const (
	KindMessage     Kind = "message"
	KindTypingStart Kind = "typing-start"
	KindTypingStop  Kind = "typing-stop"
	KindPresence    Kind = "presence"
)

func (k Kind) Valid() bool {
	switch k {
	case KindMessage, KindTypingStart, KindTypingStop, KindPresence:
		return true
	default:
		return false
	}
}

// Event is a tagged variant: exactly one of Message, User or LiveUsers is
// meaningful, selected by Kind.
type Event struct {
	ID         string             `json:"id"`
	Kind       Kind               `json:"kind"`
	ChatroomID int64              `json:"chatroom_id"`
	ActorID    int64              `json:"actor_id,omitempty"`
	Timestamp  time.Time          `json:"timestamp"`
	Message    *model.Message     `json:"message,omitempty"`
	User       *model.PublicUser  `json:"user,omitempty"`
	LiveUsers  []model.PublicUser `json:"live_users,omitempty"`
}

type Bus interface {
	Publish(topic string, e Event)
	Subscribe(topic string) (<-chan Event, func())
}

func Topic(kind Kind, chatroomID int64) string {
	return string(kind) + "." + strconv.FormatInt(chatroomID, 10)
}

func (e Event) Topic() string {
	return Topic(e.Kind, e.ChatroomID)
}

// Payload is the value handed to a subscriber for this kind of event.
func (e Event) Payload() any {
	switch e.Kind {
	case KindMessage:
		return e.Message
	case KindTypingStart, KindTypingStop:
		return e.User
	case KindPresence:
		if e.LiveUsers == nil {
			return []model.PublicUser{}
		}
		return e.LiveUsers
	default:
		return nil
	}
}

func NewMessage(msg model.Message) Event {
	return Event{
		ID:         uuid.NewString(),
		Kind:       KindMessage,
		ChatroomID: msg.ChatroomID,
		ActorID:    msg.SenderID,
		Timestamp:  time.Now().UTC(),
		Message:    &msg,
	}
}

func NewTyping(kind Kind, chatroomID int64, user model.PublicUser) Event {
	return Event{
		ID:         uuid.NewString(),
		Kind:       kind,
		ChatroomID: chatroomID,
		ActorID:    user.ID,
		Timestamp:  time.Now().UTC(),
		User:       &user,
	}
}

func NewPresence(chatroomID int64, liveUsers []model.PublicUser) Event {
	return Event{
		ID:         uuid.NewString(),
		Kind:       KindPresence,
		ChatroomID: chatroomID,
		Timestamp:  time.Now().UTC(),
		LiveUsers:  liveUsers,
	}
}
