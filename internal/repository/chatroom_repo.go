package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-live-chatroom/internal/model"
	"go-live-chatroom/pkg/apierror"
)

type ChatroomRepository struct {
	pool *pgxpool.Pool
}

func NewChatroomRepository(pool *pgxpool.Pool) *ChatroomRepository {
	return &ChatroomRepository{pool: pool}
}

// Create inserts the chatroom and makes ownerID its first member.
func (r *ChatroomRepository) Create(ctx context.Context, name string, ownerID int64) (model.Chatroom, error) {
	var c model.Chatroom
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx,
			`INSERT INTO chatrooms (name) VALUES ($1) RETURNING id, name, created_at, updated_at`, name).
			Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return err
		}

		_, err := tx.Exec(ctx,
			`INSERT INTO chatroom_users (chatroom_id, user_id) VALUES ($1, $2)`, c.ID, ownerID)
		return err
	})

	switch pgCode(err) {
	case pgUniqueViolation:
		return model.Chatroom{}, apierror.InvalidInput("chatroom already exists", name)
	case pgForeignKeyViolation:
		return model.Chatroom{}, apierror.NotFound("user not found", strconv.FormatInt(ownerID, 10))
	}
	if err != nil {
		return model.Chatroom{}, fmt.Errorf("create chatroom: %w", err)
	}
	return c, nil
}

func (r *ChatroomRepository) FindByID(ctx context.Context, id int64) (model.Chatroom, error) {
	var c model.Chatroom
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, created_at, updated_at FROM chatrooms WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Chatroom{}, apierror.NotFound("chatroom not found", strconv.FormatInt(id, 10))
	}
	if err != nil {
		return model.Chatroom{}, fmt.Errorf("find chatroom by id: %w", err)
	}
	return c, nil
}

// AddUsers is all or nothing; users that are already members are skipped.
func (r *ChatroomRepository) AddUsers(ctx context.Context, chatroomID int64, userIDs []int64) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		for _, userID := range userIDs {
			if _, err := tx.Exec(ctx,
				`INSERT INTO chatroom_users (chatroom_id, user_id) VALUES ($1, $2)
				 ON CONFLICT (chatroom_id, user_id) DO NOTHING`, chatroomID, userID); err != nil {
				if pgCode(err) == pgForeignKeyViolation {
					return apierror.NotFound("user or chatroom not found", strconv.FormatInt(userID, 10))
				}
				return err
			}
		}

		_, err := tx.Exec(ctx, `UPDATE chatrooms SET updated_at = now() WHERE id = $1`, chatroomID)
		return err
	})

	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	if err != nil {
		return fmt.Errorf("add chatroom users: %w", err)
	}
	return nil
}

func (r *ChatroomRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM chatrooms WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete chatroom: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apierror.NotFound("chatroom not found", strconv.FormatInt(id, 10))
	}
	return nil
}

func (r *ChatroomRepository) ListForUser(ctx context.Context, userID int64) ([]model.Chatroom, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT c.id, c.name, c.created_at, c.updated_at
		 FROM chatrooms c JOIN chatroom_users cu ON cu.chatroom_id = c.id
		 WHERE cu.user_id = $1
		 ORDER BY c.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list chatrooms for user: %w", err)
	}

	chatrooms, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Chatroom, error) {
		var c model.Chatroom
		err := row.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan chatroom: %w", err)
	}
	if chatrooms == nil {
		chatrooms = []model.Chatroom{}
	}
	return chatrooms, nil
}
