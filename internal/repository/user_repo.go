package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-live-chatroom/internal/model"
	"go-live-chatroom/pkg/apierror"
)

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `id, fullname, email, avatar_url, password_hash, created_at, updated_at`

func scanUser(row pgx.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Fullname, &u.Email, &u.AvatarURL, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (r *UserRepository) Create(ctx context.Context, u model.User) (model.User, error) {
	created, err := scanUser(r.pool.QueryRow(ctx,
		`INSERT INTO users (fullname, email, avatar_url, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $5)
		 RETURNING `+userColumns,
		u.Fullname, strings.TrimSpace(u.Email), u.AvatarURL, u.PasswordHash, u.CreatedAt))
	if pgCode(err) == pgUniqueViolation {
		return model.User{}, apierror.Conflict("user already exists", u.Email)
	}
	if err != nil {
		return model.User{}, fmt.Errorf("create user: %w", err)
	}
	return created, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, apierror.NotFound("user not found", strconv.FormatInt(id, 10))
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find user by id: %w", err)
	}
	return u, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, strings.TrimSpace(email)))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, apierror.NotFound("user not found", email)
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find user by email: %w", err)
	}
	return u, nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id int64, fullname string, avatarURL string) (model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`UPDATE users
		 SET fullname = $2,
		     avatar_url = CASE WHEN $3 = '' THEN avatar_url ELSE $3 END,
		     updated_at = now()
		 WHERE id = $1
		 RETURNING `+userColumns,
		id, fullname, avatarURL))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, apierror.NotFound("user not found", strconv.FormatInt(id, 10))
	}
	if err != nil {
		return model.User{}, fmt.Errorf("update profile: %w", err)
	}
	return u, nil
}

func (r *UserRepository) Search(ctx context.Context, fullname string, excludeID int64) ([]model.PublicUser, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, fullname, avatar_url FROM users
		 WHERE fullname ILIKE '%' || $1 || '%' AND id <> $2
		 ORDER BY fullname, id`,
		escapeLike(fullname), excludeID)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	return collectPublicUsers(rows)
}

func (r *UserRepository) ListByChatroom(ctx context.Context, chatroomID int64) ([]model.PublicUser, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT u.id, u.fullname, u.avatar_url
		 FROM users u JOIN chatroom_users cu ON cu.user_id = u.id
		 WHERE cu.chatroom_id = $1
		 ORDER BY u.id`, chatroomID)
	if err != nil {
		return nil, fmt.Errorf("list chatroom users: %w", err)
	}
	return collectPublicUsers(rows)
}

func collectPublicUsers(rows pgx.Rows) ([]model.PublicUser, error) {
	users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.PublicUser, error) {
		var u model.PublicUser
		err := row.Scan(&u.ID, &u.Fullname, &u.AvatarURL)
		return u, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	if users == nil {
		users = []model.PublicUser{}
	}
	return users, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(strings.TrimSpace(s))
}
