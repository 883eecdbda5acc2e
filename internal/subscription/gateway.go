package subscription

import (
	"context"
	"iter"
	"sync"

	"go-live-chatroom/internal/event"
	"go-live-chatroom/pkg/apierror"
)

type Operation string

const (
	OpNewMessage          Operation = "newMessage"
	OpUserStartedTyping   Operation = "userStartedTyping"
	OpUserStoppedTyping   Operation = "userStoppedTyping"
	OpLiveUsersInChatroom Operation = "liveUsersInChatroom"
)

// Args are the arguments a client supplies when subscribing.
type Args struct {
	ChatroomID int64
	ViewerID   int64
}

// Filter reports whether an event should be forwarded to a subscriber.
type Filter func(e event.Event, args Args) bool

type route struct {
	kind   event.Kind
	filter Filter
}

var routes = map[Operation]route{
	OpNewMessage:          {kind: event.KindMessage},
	OpUserStartedTyping:   {kind: event.KindTypingStart, filter: notFromViewer},
	OpUserStoppedTyping:   {kind: event.KindTypingStop, filter: notFromViewer},
	OpLiveUsersInChatroom: {kind: event.KindPresence, filter: sameChatroom},
}

func notFromViewer(e event.Event, args Args) bool {
	return e.ActorID != args.ViewerID
}

// Topics are already chatroom scoped; the check guards against a
// misaddressed publish.
func sameChatroom(e event.Event, args Args) bool {
	return e.ChatroomID == args.ChatroomID
}

type Gateway struct {
	bus event.Bus
}

func NewGateway(bus event.Bus) *Gateway {
	return &Gateway{bus: bus}
}

// Open registers a stream for the operation. The caller owns the stream and
// must Close it, or fully drain Events, to release the bus subscription.
func (g *Gateway) Open(op Operation, args Args) (*Stream, error) {
	r, ok := routes[op]
	if !ok {
		return nil, apierror.InvalidInput("unknown subscription operation", string(op))
	}
	if args.ChatroomID <= 0 {
		return nil, apierror.InvalidInput("chatroom id must be positive", "")
	}

	ch, unsubscribe := g.bus.Subscribe(event.Topic(r.kind, args.ChatroomID))
	return &Stream{
		op:          op,
		args:        args,
		events:      ch,
		unsubscribe: unsubscribe,
		filter:      r.filter,
	}, nil
}

func (g *Gateway) NewMessage(chatroomID int64) (*Stream, error) {
	return g.Open(OpNewMessage, Args{ChatroomID: chatroomID})
}

func (g *Gateway) UserStartedTyping(chatroomID int64, viewerID int64) (*Stream, error) {
	return g.Open(OpUserStartedTyping, Args{ChatroomID: chatroomID, ViewerID: viewerID})
}

func (g *Gateway) UserStoppedTyping(chatroomID int64, viewerID int64) (*Stream, error) {
	return g.Open(OpUserStoppedTyping, Args{ChatroomID: chatroomID, ViewerID: viewerID})
}

func (g *Gateway) LiveUsersInChatroom(chatroomID int64) (*Stream, error) {
	return g.Open(OpLiveUsersInChatroom, Args{ChatroomID: chatroomID})
}

// Stream is one subscriber's filtered view of a bus topic.
type Stream struct {
	op          Operation
	args        Args
	events      <-chan event.Event
	unsubscribe func()
	filter      Filter
	once        sync.Once
}

func (s *Stream) Operation() Operation {
	return s.op
}

func (s *Stream) Args() Args {
	return s.args
}

// Events yields accepted events until ctx is done, the consumer stops, or
// the bus detaches the subscriber. The stream is closed when iteration ends.
func (s *Stream) Events(ctx context.Context) iter.Seq[event.Event] {
	return func(yield func(event.Event) bool) {
		defer s.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-s.events:
				if !ok {
					return
				}
				if s.filter != nil && !s.filter(e, s.args) {
					continue
				}
				if !yield(e) {
					return
				}
			}
		}
	}
}

// Close unregisters from the bus before returning. Safe to call repeatedly.
func (s *Stream) Close() {
	s.once.Do(s.unsubscribe)
}
