// Package chat holds the live conversation state for active sessions: the
// ordered message list the UI mirrors, mutated incrementally while a
// generation streams.
package chat

import (
	"errors"
	"sync"

	chatmodel "github.com/amarw/wayfarer/backend/internal/model/chat"
)

// ErrGenerationInFlight rejects a send or regenerate while another one holds
// the conversation's in-flight token.
var ErrGenerationInFlight = errors.New("a generation is already in flight for this conversation")

// Conversation is the ordered transcript of one chat plus its in-flight
// token. Safe for concurrent use; the token guarantees at most one writer
// streams into it at a time.
type Conversation struct {
	mu       sync.Mutex
	chatID   string
	messages []chatmodel.Message
	inFlight bool
}

// NewConversation returns an empty conversation bound to a chat id.
func NewConversation(chatID string) *Conversation {
	return &Conversation{chatID: chatID}
}

// ChatID returns the owning chat id.
func (c *Conversation) ChatID() string {
	return c.chatID
}

// Begin acquires the in-flight token.
func (c *Conversation) Begin() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight {
		return ErrGenerationInFlight
	}
	c.inFlight = true
	return nil
}

// End releases the in-flight token.
func (c *Conversation) End() {
	c.mu.Lock()
	c.inFlight = false
	c.mu.Unlock()
}

// Append adds a message at the end of the transcript.
func (c *Conversation) Append(msg chatmodel.Message) {
	c.mu.Lock()
	c.messages = append(c.messages, msg)
	c.mu.Unlock()
}

// Replace swaps the whole transcript, used when switching sessions or
// loading history.
func (c *Conversation) Replace(msgs []chatmodel.Message) {
	c.mu.Lock()
	c.messages = append([]chatmodel.Message(nil), msgs...)
	c.mu.Unlock()
}

// Update patches a single message in place by identity. Returns false when
// the id is unknown.
func (c *Conversation) Update(id string, fn func(*chatmodel.Message)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.messages {
		if c.messages[i].ID == id {
			fn(&c.messages[i])
			return true
		}
	}
	return false
}

// Remove deletes a message by identity, preserving order.
func (c *Conversation) Remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.messages {
		if c.messages[i].ID == id {
			c.messages = append(c.messages[:i], c.messages[i+1:]...)
			return true
		}
	}
	return false
}

// Find returns a copy of the message with the given id.
func (c *Conversation) Find(id string) (chatmodel.Message, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, msg := range c.messages {
		if msg.ID == id {
			return msg, true
		}
	}
	return chatmodel.Message{}, false
}

// PrecedingUserMessage returns the message immediately before id when that
// sibling was authored by the user. Regeneration requires it.
func (c *Conversation) PrecedingUserMessage(id string) (chatmodel.Message, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.messages {
		if c.messages[i].ID == id {
			if i == 0 || c.messages[i-1].Sender != chatmodel.SenderUser {
				return chatmodel.Message{}, false
			}
			return c.messages[i-1], true
		}
	}
	return chatmodel.Message{}, false
}

// Snapshot returns a copy of the transcript.
func (c *Conversation) Snapshot() []chatmodel.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]chatmodel.Message(nil), c.messages...)
}
