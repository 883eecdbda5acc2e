package repository

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-live-chatroom/internal/model"
	"go-live-chatroom/pkg/apierror"
)

type MessageRepository struct {
	pool *pgxpool.Pool
}

func NewMessageRepository(pool *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{pool: pool}
}

func (r *MessageRepository) Create(ctx context.Context, msg model.Message) (model.Message, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO messages (chatroom_id, sender_id, content, image_url)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		msg.ChatroomID, msg.SenderID, msg.Content, msg.ImageURL).
		Scan(&msg.ID, &msg.CreatedAt)
	if pgCode(err) == pgForeignKeyViolation {
		return model.Message{}, apierror.NotFound("chatroom or sender not found", strconv.FormatInt(msg.ChatroomID, 10))
	}
	if err != nil {
		return model.Message{}, fmt.Errorf("create message: %w", err)
	}
	return msg, nil
}

// ListByChatroom returns every message of the chatroom, oldest first, with
// the sender projection attached.
func (r *MessageRepository) ListByChatroom(ctx context.Context, chatroomID int64) ([]model.Message, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT m.id, m.chatroom_id, m.sender_id, m.content, m.image_url, m.created_at,
		        u.fullname, u.avatar_url
		 FROM messages m JOIN users u ON u.id = m.sender_id
		 WHERE m.chatroom_id = $1
		 ORDER BY m.id`, chatroomID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	messages, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Message, error) {
		var m model.Message
		sender := model.PublicUser{}
		err := row.Scan(&m.ID, &m.ChatroomID, &m.SenderID, &m.Content, &m.ImageURL, &m.CreatedAt,
			&sender.Fullname, &sender.AvatarURL)
		sender.ID = m.SenderID
		m.Sender = &sender
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan message: %w", err)
	}
	if messages == nil {
		messages = []model.Message{}
	}
	return messages, nil
}
