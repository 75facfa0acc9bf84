package chat

import (
	"time"

	"github.com/amarw/wayfarer/backend/internal/model/itinerary"
)

// Persisted role values.
const (
	RoleUser = "user"
	RoleAI   = "ai"
)

// Persisted content kinds. Rows written before the kind column existed carry
// an empty kind and are classified by content sniffing instead.
const (
	KindText      = "text"
	KindItinerary = "itinerary"
)

// StoredMessage is the durable row shape the persistence adapter deals in.
// Plain text is stored verbatim; a resolved itinerary is stored as its JSON
// form with Kind set to KindItinerary.
type StoredMessage struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chatId"`
	Content   string    `json:"content"`
	Role      string    `json:"role"`
	Kind      string    `json:"kind,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ToMessage reconstructs a transcript message from a stored row,
// re-establishing the text-XOR-itinerary shape that live streaming produces.
// Itinerary content that fails to parse degrades to plain text rather than
// failing the reload.
func (row StoredMessage) ToMessage() Message {
	msg := Message{
		ID:        row.ID,
		Text:      row.Content,
		Sender:    SenderAI,
		Timestamp: row.CreatedAt,
	}
	if row.Role == RoleUser {
		msg.Sender = SenderUser
		return msg
	}

	switch row.Kind {
	case KindItinerary:
		msg.attachItinerary(row.Content)
	case "":
		// Legacy row without a kind tag.
		if itinerary.LooksLikePayload(row.Content) {
			msg.attachItinerary(row.Content)
		}
	}
	return msg
}

func (m *Message) attachItinerary(content string) {
	it, err := itinerary.Decode(content)
	if err != nil {
		return
	}
	m.Itinerary = it
	m.Text = ""
}
