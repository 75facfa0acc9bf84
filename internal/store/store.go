// Package store is the thin data-access adapter in front of the external
// persistence collaborator. The core treats every call as opaque and
// possibly failing; list fetches that fail are expected to degrade to empty
// results at the call site rather than propagate.
package store

import (
	"context"
	"errors"

	chatmodel "github.com/amarw/wayfarer/backend/internal/model/chat"
	"github.com/amarw/wayfarer/backend/internal/model/user"
)

var (
	// ErrNotFound reports a missing row.
	ErrNotFound = errors.New("not found")
	// ErrEmailTaken reports a sign-up against an existing account.
	ErrEmailTaken = errors.New("user already exists")
)

// Adapter is the persistence contract: accounts, chat sessions and messages
// keyed by user and chat id.
type Adapter interface {
	// CreateUser stores a profile with its password hash.
	CreateUser(ctx context.Context, profile user.Profile, passwordHash string) (user.Profile, error)
	// UserByEmail returns a profile and its password hash.
	UserByEmail(ctx context.Context, email string) (user.Profile, string, error)
	// ListUsers returns every profile, for the admin report.
	ListUsers(ctx context.Context) ([]user.Profile, error)

	// Sessions lists a user's chats ordered by recency, newest first.
	Sessions(ctx context.Context, userID string) ([]chatmodel.Session, error)
	// SessionByID returns one chat, or ErrNotFound.
	SessionByID(ctx context.Context, chatID string) (chatmodel.Session, error)
	// CreateSession stores a new chat owned by a user.
	CreateSession(ctx context.Context, userID, title string) (chatmodel.Session, error)
	// Messages lists a chat's stored rows ordered by creation time, oldest
	// first.
	Messages(ctx context.Context, chatID string) ([]chatmodel.StoredMessage, error)
	// SaveMessage appends one row to a chat.
	SaveMessage(ctx context.Context, chatID, content, role, kind string) (chatmodel.StoredMessage, error)
	// CountChats returns the total number of chats across all users.
	CountChats(ctx context.Context) (int, error)
}
