package event

import (
	"testing"

	"github.com/stretchr/testify/require"

	"go-live-chatroom/internal/model"
)

func TestTopic(t *testing.T) {
	t.Parallel()

	require.Equal(t, "message.5", Topic(KindMessage, 5))
	require.Equal(t, "typing-stop.12", NewTyping(KindTypingStop, 12, model.PublicUser{ID: 1}).Topic())
	require.Equal(t, "presence.7", NewPresence(7, nil).Topic())
}

func TestPayloadFollowsKind(t *testing.T) {
	t.Parallel()

	t.Run("message", func(t *testing.T) {
		e := NewMessage(model.Message{ID: 3, ChatroomID: 1, SenderID: 8, Content: "hi"})
		msg, ok := e.Payload().(*model.Message)
		require.True(t, ok)
		require.Equal(t, "hi", msg.Content)
		require.Equal(t, int64(8), e.ActorID)
	})

	t.Run("typing", func(t *testing.T) {
		e := NewTyping(KindTypingStart, 1, model.PublicUser{ID: 4, Fullname: "Ada"})
		user, ok := e.Payload().(*model.PublicUser)
		require.True(t, ok)
		require.Equal(t, "Ada", user.Fullname)
	})

	t.Run("empty presence is an empty list", func(t *testing.T) {
		users, ok := NewPresence(1, nil).Payload().([]model.PublicUser)
		require.True(t, ok)
		require.NotNil(t, users)
		require.Empty(t, users)
	})

	t.Run("unknown kind", func(t *testing.T) {
		require.False(t, Kind("bogus").Valid())
		require.Nil(t, Event{Kind: "bogus"}.Payload())
	})
}
