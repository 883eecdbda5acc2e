package websocket

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"go-live-chatroom/internal/model"
	"go-live-chatroom/internal/subscription"
	"go-live-chatroom/pkg/apierror"
)

// Close codes sent when the handshake fails.
const (
	closeBadRequest   = 4400
	closeUnauthorized = 4401
	closeInitTimeout  = 4408
)

type tokenVerifier interface {
	VerifyAccess(token string) (*model.AuthClaims, error)
}

// Server upgrades /ws requests and authenticates them with the first frame.
// The token is checked once; later frames are not re-validated.
type Server struct {
	sessions         tokenVerifier
	gateway          *subscription.Gateway
	hub              *Hub
	handshakeTimeout time.Duration
	upgrader         websocket.Upgrader
}

func NewServer(sessions tokenVerifier, gateway *subscription.Gateway, hub *Hub, handshakeTimeout time.Duration, allowedOrigins []string) *Server {
	return &Server{
		sessions:         sessions,
		gateway:          gateway,
		hub:              hub,
		handshakeTimeout: handshakeTimeout,
		upgrader: websocket.Upgrader{
			Subprotocols: []string{"graphql-transport-ws"},
			CheckOrigin:  originChecker(allowedOrigins),
		},
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "remote_addr", r.RemoteAddr, "error", err)
		return
	}

	claims, code, err := s.handshake(conn)
	if err != nil {
		s.reject(conn, code, err)
		return
	}

	client := newClient(conn, s.hub, s.gateway, claims.UserID)
	if !s.hub.Register(client) {
		_ = conn.Close()
		return
	}
	client.log.Info("websocket client connected")

	go client.writePump()
	client.readPump()
}

// handshake waits for connection_init, verifies its token and acknowledges.
func (s *Server) handshake(conn *websocket.Conn) (*model.AuthClaims, int, error) {
	_ = conn.SetReadDeadline(time.Now().Add(s.handshakeTimeout))
	conn.SetReadLimit(maxMessageSize)

	_, raw, err := conn.ReadMessage()
	if err != nil {
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, closeInitTimeout, apierror.Unauthenticated("connection initialisation timeout")
		}
		return nil, closeBadRequest, err
	}

	var frame clientFrame
	if err := json.Unmarshal(raw, &frame); err != nil || frame.Type != typeConnectionInit {
		return nil, closeUnauthorized, apierror.Unauthenticated("expected connection_init")
	}

	var payload initPayload
	if len(frame.Payload) > 0 {
		if err := json.Unmarshal(frame.Payload, &payload); err != nil {
			return nil, closeBadRequest, apierror.InvalidInput("invalid connection_init payload", "")
		}
	}

	claims, err := s.sessions.VerifyAccess(payload.bearer())
	if err != nil {
		return nil, closeUnauthorized, err
	}

	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(serverFrame{Type: typeConnectionAck}); err != nil {
		return nil, closeBadRequest, err
	}
	_ = conn.SetReadDeadline(time.Time{})

	return claims, 0, nil
}

func (s *Server) reject(conn *websocket.Conn, code int, err error) {
	defer conn.Close()

	errCode, message := apierror.CodeInternal, "Unexpected server error"
	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		errCode, message = apiErr.Code, apiErr.Message
	}
	slog.Warn("websocket handshake rejected", "remote_addr", conn.RemoteAddr().String(), "error", err)

	deadline := time.Now().Add(writeWait)
	_ = conn.SetWriteDeadline(deadline)
	if err := conn.WriteJSON(errorFrame("", errCode, message)); err != nil {
		return
	}
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, message), deadline)
}

func (p initPayload) bearer() string {
	if p.Token != "" {
		return p.Token
	}
	scheme, token, ok := strings.Cut(strings.TrimSpace(p.Authorization), " ")
	if ok && strings.EqualFold(scheme, "Bearer") {
		return token
	}
	return ""
}

// originChecker accepts requests without an Origin header (non-browser
// clients) and browser requests from one of the allowed origins.
func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || slices.Contains(allowed, "*") {
			return true
		}
		return slices.Contains(allowed, origin)
	}
}
