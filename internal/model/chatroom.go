package model

import "time"

type Chatroom struct {
	ID        int64        `json:"id"`
	Name      string       `json:"name"`
	Users     []PublicUser `json:"users,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

type Message struct {
	ID         int64       `json:"id"`
	ChatroomID int64       `json:"chatroom_id"`
	SenderID   int64       `json:"sender_id"`
	Content    string      `json:"content"`
	ImageURL   string      `json:"image_url,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	Sender     *PublicUser `json:"user,omitempty"`
}
