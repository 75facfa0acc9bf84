package chat

import (
	"time"

	"github.com/amarw/wayfarer/backend/internal/model/itinerary"
)

// Sender identifies the author of a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// Message is one entry in the live conversation transcript.
//
// While IsStreaming is true the text may still grow; once the owning stream
// closes the message settles into exactly one of: non-empty text, an attached
// itinerary, or both empty (the error-fallback state).
type Message struct {
	ID          string               `json:"id"`
	Text        string               `json:"text"`
	Sender      Sender               `json:"sender"`
	Timestamp   time.Time            `json:"timestamp"`
	IsStreaming bool                 `json:"isStreaming,omitempty"`
	Image       string               `json:"image,omitempty"` // data URI, user-authored only
	Itinerary   *itinerary.Itinerary `json:"itinerary,omitempty"`
}
