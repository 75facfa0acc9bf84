// Package planner runs the send and regenerate flows: it opens the model
// stream, feeds the accumulator, mirrors progress into the live conversation
// and persists settled exchanges.
package planner

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	chatmodel "github.com/amarw/wayfarer/backend/internal/model/chat"
	"github.com/amarw/wayfarer/backend/internal/service/ai"
	chatsvc "github.com/amarw/wayfarer/backend/internal/service/chat"
	"github.com/amarw/wayfarer/backend/internal/store"
	"github.com/amarw/wayfarer/backend/internal/stream"
)

// fallbackText is appended as a fresh AI message when a stream fails.
const fallbackText = "I'm sorry, I encountered an issue while connecting to the travel network. Please try again."

// titleLimit caps the auto-derived chat title, in runes.
const titleLimit = 30

var (
	// ErrEmptyMessage rejects a blank prompt.
	ErrEmptyMessage = errors.New("message is required")
	// ErrMessageNotFound reports an unknown regenerate target.
	ErrMessageNotFound = errors.New("message not found")
	// ErrNoUserTurn makes regeneration a no-op when the target has no
	// preceding user-authored sibling.
	ErrNoUserTurn = errors.New("message has no preceding user turn")
	// ErrChatNotFound covers both unknown chats and chats owned by another
	// user, so the surface does not reveal which.
	ErrChatNotFound = errors.New("chat not found")
)

// ModelSession is the slice of ai.Session the flows need.
type ModelSession interface {
	Send(ctx context.Context, message, imageDataURI string) (ai.ChunkStream, error)
}

// SessionFactory mints a model session for a conversation. Injected so the
// flows can run against a scripted model in tests.
type SessionFactory func(ctx context.Context) (ModelSession, error)

// Notifier receives conversation progress for one request, letting the
// transport layer stream partial text to the browser as it accumulates.
// Methods are invoked sequentially from the flow goroutine.
type Notifier interface {
	MessageStarted(msg chatmodel.Message)
	MessageUpdated(messageID, text string)
	MessageResolved(msg chatmodel.Message)
}

// Service owns per-conversation live state: the transcript mirror and the
// lazily created model session, both keyed by chat id.
type Service struct {
	store      store.Adapter
	newSession SessionFactory

	mu       sync.Mutex
	convs    map[string]*chatsvc.Conversation
	sessions map[string]ModelSession
}

// NewService wires the planner against a persistence adapter and a model
// session factory.
func NewService(adapter store.Adapter, factory SessionFactory) *Service {
	return &Service{
		store:      adapter,
		newSession: factory,
		convs:      make(map[string]*chatsvc.Conversation),
		sessions:   make(map[string]ModelSession),
	}
}

// Conversation returns the live transcript for a chat, creating it when
// first touched.
func (s *Service) Conversation(chatID string) *chatsvc.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.convs[chatID]
	if !ok {
		conv = chatsvc.NewConversation(chatID)
		s.convs[chatID] = conv
	}
	return conv
}

// modelSession returns the chat's cumulative model handle, creating it on
// first use.
func (s *Service) modelSession(ctx context.Context, chatID string) (ModelSession, error) {
	s.mu.Lock()
	if sess, ok := s.sessions[chatID]; ok {
		s.mu.Unlock()
		return sess, nil
	}
	s.mu.Unlock()

	sess, err := s.newSession(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sessions[chatID]; ok {
		return existing, nil
	}
	s.sessions[chatID] = sess
	return sess, nil
}

// Reset drops all live conversation state and model handles, used on logout.
func (s *Service) Reset() {
	s.mu.Lock()
	s.convs = make(map[string]*chatsvc.Conversation)
	s.sessions = make(map[string]ModelSession)
	s.mu.Unlock()
}

// SendResult reports the messages a send produced, including the chat id
// when the send auto-created a chat.
type SendResult struct {
	ChatID      string            `json:"chatId"`
	UserMessage chatmodel.Message `json:"userMessage"`
	Reply       chatmodel.Message `json:"reply"`
}

// Send runs one user turn. An empty chatID auto-creates a chat titled from
// the prompt. The user message is persisted fire-and-forget; the reply
// streams through the accumulator into the conversation and is persisted
// once settled. A stream failure drops the in-flight reply and appends the
// fixed apology message instead.
func (s *Service) Send(ctx context.Context, userID, chatID, text, image string, notify Notifier) (SendResult, error) {
	if strings.TrimSpace(text) == "" {
		return SendResult{}, ErrEmptyMessage
	}

	if chatID == "" {
		session, err := s.store.CreateSession(ctx, userID, deriveTitle(text))
		if err != nil {
			return SendResult{}, err
		}
		chatID = session.ID
	} else if err := s.authorize(ctx, userID, chatID); err != nil {
		return SendResult{}, err
	}

	conv := s.Conversation(chatID)
	if err := conv.Begin(); err != nil {
		return SendResult{}, err
	}
	defer conv.End()

	userMsg := chatmodel.Message{
		ID:        uuid.NewString(),
		Text:      text,
		Sender:    chatmodel.SenderUser,
		Timestamp: time.Now().UTC(),
		Image:     image,
	}
	conv.Append(userMsg)
	notifyStarted(notify, userMsg)

	// Durable writes never block or roll back the visible transcript.
	if _, err := s.store.SaveMessage(ctx, chatID, text, chatmodel.RoleUser, chatmodel.KindText); err != nil {
		log.Printf("[planner] save user message for chat=%s: %v", chatID, err)
	}

	modelStream, err := s.openStream(ctx, chatID, text, image)
	if err != nil {
		log.Printf("[planner] open stream for chat=%s: %v", chatID, err)
		reply := s.appendFallback(conv, notify)
		return SendResult{ChatID: chatID, UserMessage: userMsg, Reply: reply}, nil
	}

	reply := chatmodel.Message{
		ID:          uuid.NewString(),
		Sender:      chatmodel.SenderAI,
		Timestamp:   time.Now().UTC(),
		IsStreaming: true,
	}
	conv.Append(reply)
	notifyStarted(notify, reply)

	outcome, err := s.consume(modelStream, conv, reply.ID, notify)
	if err != nil {
		log.Printf("[planner] stream failed for chat=%s: %v", chatID, err)
		conv.Remove(reply.ID)
		fallback := s.appendFallback(conv, notify)
		return SendResult{ChatID: chatID, UserMessage: userMsg, Reply: fallback}, nil
	}

	resolved := s.settle(conv, reply.ID, outcome, notify)

	content, kind := encodeOutcome(outcome)
	if _, err := s.store.SaveMessage(ctx, chatID, content, chatmodel.RoleAI, kind); err != nil {
		log.Printf("[planner] save reply for chat=%s: %v", chatID, err)
	}

	return SendResult{ChatID: chatID, UserMessage: userMsg, Reply: resolved}, nil
}

// Regenerate re-runs the stream against the prior user turn, targeting the
// existing message id. The result deliberately is not persisted; only the
// send path writes durable rows.
func (s *Service) Regenerate(ctx context.Context, userID, chatID, messageID string, notify Notifier) (chatmodel.Message, error) {
	if err := s.authorize(ctx, userID, chatID); err != nil {
		return chatmodel.Message{}, err
	}

	conv := s.Conversation(chatID)
	if err := conv.Begin(); err != nil {
		return chatmodel.Message{}, err
	}
	defer conv.End()

	if _, ok := conv.Find(messageID); !ok {
		return chatmodel.Message{}, ErrMessageNotFound
	}
	prompt, ok := conv.PrecedingUserMessage(messageID)
	if !ok {
		return chatmodel.Message{}, ErrNoUserTurn
	}

	conv.Update(messageID, func(m *chatmodel.Message) {
		m.Text = ""
		m.Itinerary = nil
		m.IsStreaming = true
	})
	if reset, ok := conv.Find(messageID); ok {
		notifyStarted(notify, reset)
	}

	modelStream, err := s.openStream(ctx, chatID, prompt.Text, prompt.Image)
	if err != nil {
		log.Printf("[planner] open regenerate stream for chat=%s: %v", chatID, err)
		return s.settleEmpty(conv, messageID, notify), nil
	}

	outcome, err := s.consume(modelStream, conv, messageID, notify)
	if err != nil {
		log.Printf("[planner] regenerate stream failed for chat=%s: %v", chatID, err)
		return s.settleEmpty(conv, messageID, notify), nil
	}

	return s.settle(conv, messageID, outcome, notify), nil
}

// OpenSession loads a chat's history from persistence, classifies stored
// content back into text or itinerary form, and replaces the live
// transcript. A failed fetch degrades to an empty transcript.
func (s *Service) OpenSession(ctx context.Context, chatID string) []chatmodel.Message {
	rows, err := s.store.Messages(ctx, chatID)
	if err != nil {
		log.Printf("[planner] load messages for chat=%s: %v", chatID, err)
		rows = nil
	}

	msgs := make([]chatmodel.Message, 0, len(rows))
	for _, row := range rows {
		msgs = append(msgs, row.ToMessage())
	}

	s.Conversation(chatID).Replace(msgs)
	return msgs
}

// authorize verifies the chat exists and belongs to the user. An ownership
// miss is indistinguishable from a missing chat.
func (s *Service) authorize(ctx context.Context, userID, chatID string) error {
	session, err := s.store.SessionByID(ctx, chatID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrChatNotFound
	}
	if err != nil {
		return err
	}
	if session.UserID != userID {
		return ErrChatNotFound
	}
	return nil
}

func (s *Service) openStream(ctx context.Context, chatID, text, image string) (ai.ChunkStream, error) {
	sess, err := s.modelSession(ctx, chatID)
	if err != nil {
		return nil, err
	}
	return sess.Send(ctx, text, image)
}

// consume drains the chunk sequence in arrival order, publishing partial
// text into the conversation, and evaluates the termination rule once the
// stream closes. A mid-stream error aborts with no resolution.
func (s *Service) consume(chunks ai.ChunkStream, conv *chatsvc.Conversation, messageID string, notify Notifier) (stream.Outcome, error) {
	acc := stream.NewAccumulator(func(text string) {
		conv.Update(messageID, func(m *chatmodel.Message) { m.Text = text })
		if notify != nil {
			notify.MessageUpdated(messageID, text)
		}
	})

	for chunk, err := range chunks {
		if err != nil {
			return stream.Outcome{}, err
		}
		for _, ev := range stream.Decode(chunk) {
			acc.Apply(ev)
		}
	}

	return acc.Resolve(), nil
}

// settle freezes the message exactly once, after the termination rule ran:
// streaming off, text as accumulated, itinerary attached when resolved.
func (s *Service) settle(conv *chatsvc.Conversation, messageID string, outcome stream.Outcome, notify Notifier) chatmodel.Message {
	conv.Update(messageID, func(m *chatmodel.Message) {
		m.IsStreaming = false
		m.Text = outcome.Text
		m.Itinerary = outcome.Itinerary
	})
	resolved, _ := conv.Find(messageID)
	if notify != nil {
		notify.MessageResolved(resolved)
	}
	return resolved
}

// settleEmpty puts a regenerated message into the empty settled state (the
// error fallback) so it is never left streaming after a failure.
func (s *Service) settleEmpty(conv *chatsvc.Conversation, messageID string, notify Notifier) chatmodel.Message {
	return s.settle(conv, messageID, stream.Outcome{}, notify)
}

func (s *Service) appendFallback(conv *chatsvc.Conversation, notify Notifier) chatmodel.Message {
	msg := chatmodel.Message{
		ID:        uuid.NewString(),
		Text:      fallbackText,
		Sender:    chatmodel.SenderAI,
		Timestamp: time.Now().UTC(),
	}
	conv.Append(msg)
	if notify != nil {
		notify.MessageResolved(msg)
	}
	return msg
}

func encodeOutcome(outcome stream.Outcome) (content, kind string) {
	if outcome.Kind == stream.OutcomeItinerary && outcome.Itinerary != nil {
		encoded, err := outcome.Itinerary.Encode()
		if err == nil {
			return encoded, chatmodel.KindItinerary
		}
		log.Printf("[planner] encode itinerary: %v", err)
	}
	return outcome.Text, chatmodel.KindText
}

func deriveTitle(text string) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) <= titleLimit {
		return string(runes)
	}
	return string(runes[:titleLimit]) + "..."
}

func notifyStarted(notify Notifier, msg chatmodel.Message) {
	if notify != nil {
		notify.MessageStarted(msg)
	}
}
