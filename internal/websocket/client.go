package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"go-live-chatroom/internal/subscription"
	"go-live-chatroom/pkg/apierror"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 256
)

type activeStream struct {
	stream *subscription.Stream
	cancel context.CancelFunc
}

// Client is one authenticated websocket connection and the subscription
// streams it has open.
type Client struct {
	conn    *websocket.Conn
	hub     *Hub
	gateway *subscription.Gateway
	userID  int64
	log     *slog.Logger

	send chan serverFrame

	mu      sync.Mutex
	streams map[string]*activeStream
	wg      sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc
}

func newClient(conn *websocket.Conn, hub *Hub, gateway *subscription.Gateway, userID int64) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		conn:    conn,
		hub:     hub,
		gateway: gateway,
		userID:  userID,
		log:     slog.With("user_id", userID, "remote_addr", conn.RemoteAddr().String()),
		send:    make(chan serverFrame, sendBuffer),
		streams: make(map[string]*activeStream),
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.cancel()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame := <-c.send:
			raw, err := json.Marshal(frame)
			if err != nil {
				c.log.Error("failed to serialize frame", "type", frame.Type, "error", err)
				continue
			}
			if !c.write(websocket.TextMessage, raw) {
				return
			}
		case <-ticker.C:
			if !c.write(websocket.PingMessage, nil) {
				return
			}
		case <-c.ctx.Done():
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (c *Client) write(messageType int, data []byte) bool {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(messageType, data); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
			c.log.Warn("websocket write failed", "error", err)
		}
		return false
	}
	return true
}

// readPump runs on the connection's own goroutine. Returning tears down
// every stream the client opened.
func (c *Client) readPump() {
	defer c.close()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.log.Warn("websocket read failed", "error", err)
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

		var frame clientFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			c.queue(errorFrame("", apierror.CodeInvalidInput, "invalid frame"))
			continue
		}

		switch frame.Type {
		case typeSubscribe:
			c.subscribe(frame)
		case typeComplete:
			c.complete(frame.ID)
		case typePing:
			c.queue(serverFrame{Type: typePong})
		case typePong:
		case typeConnectionInit:
			c.queue(errorFrame("", apierror.CodeInvalidInput, "connection already initialised"))
		default:
			c.queue(errorFrame(frame.ID, apierror.CodeInvalidInput, "unknown frame type"))
		}
	}
}

func (c *Client) subscribe(frame clientFrame) {
	if frame.ID == "" {
		c.queue(errorFrame("", apierror.CodeInvalidInput, "subscription id is required"))
		return
	}

	var payload subscribePayload
	if err := json.Unmarshal(frame.Payload, &payload); err != nil {
		c.queue(errorFrame(frame.ID, apierror.CodeInvalidInput, "invalid subscribe payload"))
		return
	}

	viewer := payload.UserID
	if viewer <= 0 {
		viewer = c.userID
	}

	stream, err := c.open(frame.ID, payload.Operation, subscription.Args{
		ChatroomID: payload.ChatroomID,
		ViewerID:   viewer,
	})
	if err != nil {
		code, message := apierror.CodeInternal, "Unexpected server error"
		var apiErr *apierror.APIError
		if errors.As(err, &apiErr) {
			code, message = apiErr.Code, apiErr.Message
		}
		c.queue(errorFrame(frame.ID, code, message))
		return
	}

	c.log.Debug("subscription opened", "id", frame.ID, "operation", stream.Operation(), "chatroom_id", payload.ChatroomID)
}

// open registers the stream under id and starts its delivery goroutine.
func (c *Client) open(id string, operation string, args subscription.Args) (*subscription.Stream, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.streams[id]; exists {
		return nil, apierror.Conflict("subscription id already in use", id)
	}

	stream, err := c.gateway.Open(subscription.Operation(operation), args)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(c.ctx)
	active := &activeStream{stream: stream, cancel: cancel}
	c.streams[id] = active

	c.wg.Add(1)
	go c.deliver(ctx, id, active)

	return stream, nil
}

func (c *Client) deliver(ctx context.Context, id string, active *activeStream) {
	defer c.wg.Done()

	for e := range active.stream.Events(ctx) {
		if !c.queue(serverFrame{Type: typeNext, ID: id, Payload: e.Payload()}) {
			return
		}
	}

	// Ended without the client asking, e.g. the bus shut down.
	if c.forget(id, active) {
		c.queue(serverFrame{Type: typeComplete, ID: id})
	}
}

// complete unregisters the stream before returning.
func (c *Client) complete(id string) {
	c.mu.Lock()
	active, ok := c.streams[id]
	delete(c.streams, id)
	c.mu.Unlock()

	if !ok {
		return
	}
	active.stream.Close()
	active.cancel()
}

func (c *Client) forget(id string, active *activeStream) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.streams[id] != active {
		return false
	}
	delete(c.streams, id)
	active.cancel()
	return true
}

// queue blocks until the writer takes the frame or the connection closes.
func (c *Client) queue(frame serverFrame) bool {
	select {
	case c.send <- frame:
		return true
	case <-c.ctx.Done():
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	streams := c.streams
	c.streams = make(map[string]*activeStream)
	c.mu.Unlock()

	for _, active := range streams {
		active.stream.Close()
		active.cancel()
	}
	c.cancel()
	c.wg.Wait()

	c.hub.Unregister(c)
	c.log.Debug("websocket client closed", "streams", len(streams))
}
