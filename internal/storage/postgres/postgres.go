package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chat_backend/internal/config"
	"chat_backend/internal/models"
	"chat_backend/internal/storage"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepo struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, cfg *config.Config) (*PostgresRepo, error) {
	const op = "storage.postgres.New"

	dsn := dsn(cfg)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse config: %w", op, err)
	}

	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = time.Minute * 30

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create pool: %w", op, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: failed to ping database: %w", op, err)
	}

	return &PostgresRepo{pool: pool}, nil
}

func (r *PostgresRepo) SaveUser(ctx context.Context, user models.User) (uuid.UUID, error) {
	const op = "storage.postgres.SaveUser"

	query := `
		INSERT INTO users (uid, email, username, first_name, last_name, role, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING uid;
	`

	var uid uuid.UUID

	err := r.pool.QueryRow(ctx, query,
		uuid.New(),
		user.Email,
		user.Username,
		user.FirstName,
		user.LastName,
		user.Role,
		user.PassHash,
	).Scan(&uid)
	if err != nil {
		if isUniqueViolation(err) {
			return uuid.Nil, storage.ErrUserExists
		}

		return uuid.Nil, fmt.Errorf("%s: failed to save user: %w", op, err)
	}

	return uid, nil
}

func (r *PostgresRepo) User(ctx context.Context, email string) (models.User, error) {
	query := `
		SELECT uid, email, username, first_name, last_name, role, is_verified, password_hash, created_at, updated_at
		FROM users
		WHERE email = $1;
	`

	return r.scanUser(r.pool.QueryRow(ctx, query, email))
}

func (r *PostgresRepo) UserByID(ctx context.Context, uid uuid.UUID) (models.User, error) {
	query := `
		SELECT uid, email, username, first_name, last_name, role, is_verified, password_hash, created_at, updated_at
		FROM users
		WHERE uid = $1;
	`

	return r.scanUser(r.pool.QueryRow(ctx, query, uid))
}

func (r *PostgresRepo) scanUser(row pgx.Row) (models.User, error) {
	var u models.User

	err := row.Scan(
		&u.UID,
		&u.Email,
		&u.Username,
		&u.FirstName,
		&u.LastName,
		&u.Role,
		&u.IsVerified,
		&u.PassHash,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrUserNotFound
		}

		return models.User{}, err
	}

	return u, nil
}

func (r *PostgresRepo) SetEmailVerified(ctx context.Context, uid uuid.UUID) error {
	query := `UPDATE users SET is_verified = TRUE, updated_at = NOW() WHERE uid = $1`

	_, err := r.pool.Exec(ctx, query, uid)

	return err
}

func (r *PostgresRepo) UpdatePasswordHash(ctx context.Context, uid uuid.UUID, passHash string) error {
	query := `UPDATE users SET password_hash = $1, updated_at = NOW() WHERE uid = $2`

	_, err := r.pool.Exec(ctx, query, passHash, uid)

	return err
}

func (r *PostgresRepo) SaveChat(ctx context.Context, chat models.Chat) (uuid.UUID, error) {
	const op = "storage.postgres.SaveChat"

	query := `
		INSERT INTO chats (id, chat_id, user_id, user_input, response)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id;
	`

	var id uuid.UUID

	err := r.pool.QueryRow(ctx, query,
		uuid.New(),
		chat.ChatID,
		chat.UserID,
		chat.UserInput,
		chat.Response,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: failed to save chat: %w", op, err)
	}

	return id, nil
}

func (r *PostgresRepo) ChatHistory(ctx context.Context, chatID uuid.UUID, userID string) ([]models.Chat, error) {
	const op = "storage.postgres.ChatHistory"

	query := `
		SELECT id, chat_id, user_id, user_input, response, created_at
		FROM chats
		WHERE chat_id = $1 AND user_id = $2
		ORDER BY created_at;
	`

	rows, err := r.pool.Query(ctx, query, chatID, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var chats []models.Chat

	for rows.Next() {
		var c models.Chat

		err := rows.Scan(&c.ID, &c.ChatID, &c.UserID, &c.UserInput, &c.Response, &c.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		chats = append(chats, c)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("%s: %w", op, rows.Err())
	}

	if len(chats) == 0 {
		return nil, storage.ErrChatNotFound
	}

	return chats, nil
}

// isUniqueViolation reports whether err is a Postgres unique-constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *PostgresRepo) Close() {
	r.pool.Close()
}

func dsn(cfg *config.Config) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s database=%s sslmode=%s",
		cfg.Postgres.Host,
		cfg.Postgres.Port,
		cfg.Postgres.User,
		cfg.Postgres.Password,
		cfg.Postgres.DBName,
		cfg.Postgres.SSLMode,
	)
}
