package ai

import (
	"context"
	"fmt"
	"iter"

	"google.golang.org/genai"

	"github.com/amarw/wayfarer/backend/internal/config"
)

// ChunkStream is the asynchronous chunk sequence one send produces. Errors
// surface through the second iteration value; the first error ends the
// stream.
type ChunkStream = iter.Seq2[*genai.GenerateContentResponse, error]

// Service owns the Gemini client and mints conversation sessions.
type Service struct {
	client *genai.Client
	cfg    config.AIConfig
}

// NewService creates the Gemini-backed model service.
func NewService(ctx context.Context, cfg config.AIConfig) (*Service, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &Service{client: client, cfg: cfg}, nil
}

// Session is one stateful conversation handle. Its internal history is
// cumulative across Send calls, which is what makes regeneration and
// follow-up refinement requests context-aware. A session is owned by
// whichever component manages the conversation's lifecycle; there is no
// process-wide shared handle.
type Session struct {
	chat *genai.Chat
}

// NewSession opens a fresh conversation handle bound to the planner persona,
// the propose_itinerary tool declaration, and the configured sampling
// temperature.
func (s *Service) NewSession(ctx context.Context) (*Session, error) {
	temperature := s.cfg.Temperature
	genCfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
		Temperature:       &temperature,
		Tools: []*genai.Tool{
			{FunctionDeclarations: []*genai.FunctionDeclaration{itineraryTool()}},
		},
	}

	chat, err := s.client.Chats.Create(ctx, s.cfg.Model, genCfg, nil)
	if err != nil {
		return nil, fmt.Errorf("create chat session: %w", err)
	}
	return &Session{chat: chat}, nil
}

// Send submits one user turn and returns the chunk sequence of the reply.
// A non-empty imageDataURI is paired with the text as a multi-part payload.
// An outright open failure is reported as the first iteration error; the
// session performs no retry.
func (sess *Session) Send(ctx context.Context, message, imageDataURI string) (ChunkStream, error) {
	parts := []genai.Part{{Text: message}}
	if imageDataURI != "" {
		mimeType, data, err := ParseDataURI(imageDataURI)
		if err != nil {
			return nil, fmt.Errorf("parse image payload: %w", err)
		}
		parts = append(parts, genai.Part{
			InlineData: &genai.Blob{MIMEType: mimeType, Data: data},
		})
	}

	return sess.chat.SendMessageStream(ctx, parts...), nil
}
