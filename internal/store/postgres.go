package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	chatmodel "github.com/amarw/wayfarer/backend/internal/model/chat"
	"github.com/amarw/wayfarer/backend/internal/model/user"
)

const uniqueViolation = "23505"

// Postgres implements Adapter on a PostgreSQL pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to the database and verifies the connection.
func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Close releases the pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

// Migrate creates the schema when missing. The kind column defaults to the
// empty string so rows written before it existed classify through the legacy
// content sniff.
func (p *Postgres) Migrate(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS profiles (
	id            TEXT PRIMARY KEY,
	first_name    TEXT NOT NULL DEFAULT '',
	last_name     TEXT NOT NULL DEFAULT '',
	email         TEXT NOT NULL UNIQUE,
	phone         TEXT NOT NULL DEFAULT '',
	usage_type    TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS chats (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	title      TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS chats_user_id_idx ON chats (user_id, created_at DESC);
CREATE TABLE IF NOT EXISTS messages (
	id         TEXT PRIMARY KEY,
	chat_id    TEXT NOT NULL,
	content    TEXT NOT NULL DEFAULT '',
	role       TEXT NOT NULL,
	kind       TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS messages_chat_id_idx ON messages (chat_id, created_at ASC);
`
	if _, err := p.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (p *Postgres) CreateUser(ctx context.Context, profile user.Profile, passwordHash string) (user.Profile, error) {
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = time.Now().UTC()
	}

	_, err := p.pool.Exec(ctx,
		`INSERT INTO profiles (id, first_name, last_name, email, phone, usage_type, password_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		profile.ID, profile.FirstName, profile.LastName, profile.Email,
		profile.Phone, profile.UsageType, passwordHash, profile.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return user.Profile{}, ErrEmailTaken
		}
		return user.Profile{}, fmt.Errorf("insert profile: %w", err)
	}
	return profile, nil
}

func (p *Postgres) UserByEmail(ctx context.Context, email string) (user.Profile, string, error) {
	var profile user.Profile
	var hash string
	err := p.pool.QueryRow(ctx,
		`SELECT id, first_name, last_name, email, phone, usage_type, password_hash, created_at
		 FROM profiles WHERE email = $1`, email).
		Scan(&profile.ID, &profile.FirstName, &profile.LastName, &profile.Email,
			&profile.Phone, &profile.UsageType, &hash, &profile.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return user.Profile{}, "", ErrNotFound
	}
	if err != nil {
		return user.Profile{}, "", fmt.Errorf("select profile: %w", err)
	}
	return profile, hash, nil
}

func (p *Postgres) ListUsers(ctx context.Context) ([]user.Profile, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, first_name, last_name, email, phone, usage_type, created_at
		 FROM profiles ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var out []user.Profile
	for rows.Next() {
		var profile user.Profile
		if err := rows.Scan(&profile.ID, &profile.FirstName, &profile.LastName,
			&profile.Email, &profile.Phone, &profile.UsageType, &profile.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		out = append(out, profile)
	}
	return out, rows.Err()
}

func (p *Postgres) Sessions(ctx context.Context, userID string) ([]chatmodel.Session, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, user_id, title, created_at FROM chats
		 WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	defer rows.Close()

	var out []chatmodel.Session
	for rows.Next() {
		var s chatmodel.Session
		if err := rows.Scan(&s.ID, &s.UserID, &s.Title, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chat: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (p *Postgres) SessionByID(ctx context.Context, chatID string) (chatmodel.Session, error) {
	var s chatmodel.Session
	err := p.pool.QueryRow(ctx,
		`SELECT id, user_id, title, created_at FROM chats WHERE id = $1`, chatID).
		Scan(&s.ID, &s.UserID, &s.Title, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return chatmodel.Session{}, ErrNotFound
	}
	if err != nil {
		return chatmodel.Session{}, fmt.Errorf("select chat: %w", err)
	}
	return s, nil
}

func (p *Postgres) CreateSession(ctx context.Context, userID, title string) (chatmodel.Session, error) {
	session := chatmodel.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		CreatedAt: time.Now().UTC(),
	}

	_, err := p.pool.Exec(ctx,
		`INSERT INTO chats (id, user_id, title, created_at) VALUES ($1, $2, $3, $4)`,
		session.ID, session.UserID, session.Title, session.CreatedAt)
	if err != nil {
		return chatmodel.Session{}, fmt.Errorf("insert chat: %w", err)
	}
	return session, nil
}

func (p *Postgres) Messages(ctx context.Context, chatID string) ([]chatmodel.StoredMessage, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, chat_id, content, role, kind, created_at FROM messages
		 WHERE chat_id = $1 ORDER BY created_at ASC`, chatID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var out []chatmodel.StoredMessage
	for rows.Next() {
		var row chatmodel.StoredMessage
		if err := rows.Scan(&row.ID, &row.ChatID, &row.Content, &row.Role, &row.Kind, &row.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (p *Postgres) SaveMessage(ctx context.Context, chatID, content, role, kind string) (chatmodel.StoredMessage, error) {
	row := chatmodel.StoredMessage{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		Content:   content,
		Role:      role,
		Kind:      kind,
		CreatedAt: time.Now().UTC(),
	}

	_, err := p.pool.Exec(ctx,
		`INSERT INTO messages (id, chat_id, content, role, kind, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		row.ID, row.ChatID, row.Content, row.Role, row.Kind, row.CreatedAt)
	if err != nil {
		return chatmodel.StoredMessage{}, fmt.Errorf("insert message: %w", err)
	}
	return row, nil
}

func (p *Postgres) CountChats(ctx context.Context) (int, error) {
	var count int
	if err := p.pool.QueryRow(ctx, `SELECT count(*) FROM chats`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count chats: %w", err)
	}
	return count, nil
}
