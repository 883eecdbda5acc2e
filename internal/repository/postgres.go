package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type poolPinger struct {
	pool *pgxpool.Pool
}

func (p poolPinger) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func NewPostgresDirectory(pool *pgxpool.Pool) Directory {
	return Directory{
		Users:     NewUserRepository(pool),
		Chatrooms: NewChatroomRepository(pool),
		Messages:  NewMessageRepository(pool),
		Health:    poolPinger{pool: pool},
	}
}
