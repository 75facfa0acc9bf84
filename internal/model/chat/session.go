package chat

import "time"

// Session is the metadata of one stored conversation, independent of its
// messages.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}
