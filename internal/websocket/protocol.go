package websocket

import "encoding/json"

// Frame types of the graphql-ws style protocol spoken on /ws.
const (
	typeConnectionInit = "connection_init"
	typeConnectionAck  = "connection_ack"
	typePing           = "ping"
	typePong           = "pong"
	typeSubscribe      = "subscribe"
	typeNext           = "next"
	typeError          = "error"
	typeComplete       = "complete"
)

type clientFrame struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type serverFrame struct {
	Type    string `json:"type"`
	ID      string `json:"id,omitempty"`
	Payload any    `json:"payload,omitempty"`
}

type initPayload struct {
	Token         string `json:"token"`
	Authorization string `json:"Authorization"`
}

type subscribePayload struct {
	Operation  string `json:"operation"`
	ChatroomID int64  `json:"chatroom_id"`
	UserID     int64  `json:"user_id"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func errorFrame(id string, code string, message string) serverFrame {
	return serverFrame{Type: typeError, ID: id, Payload: []errorPayload{{Code: code, Message: message}}}
}
