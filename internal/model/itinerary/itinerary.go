package itinerary

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TimeOfDay slots an activity into one of three fixed day segments.
type TimeOfDay string

const (
	Morning   TimeOfDay = "Morning"
	Afternoon TimeOfDay = "Afternoon"
	Evening   TimeOfDay = "Evening"
)

// Activity is a single scheduled item within a day plan.
type Activity struct {
	TimeOfDay   TimeOfDay `json:"time_of_day"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
}

// DayPlan groups the activities of one trip day under a theme.
// Days are kept in presentation order; day_number ascending is expected
// from the model but not enforced here.
type DayPlan struct {
	DayNumber  int        `json:"day_number"`
	Theme      string     `json:"theme"`
	Activities []Activity `json:"activities"`
}

// Itinerary is the structured trip proposal delivered through the
// propose_itinerary tool call. It is immutable once attached to a message;
// regeneration replaces it wholesale.
type Itinerary struct {
	TripTitle      string    `json:"trip_title"`
	Destination    string    `json:"destination"`
	Duration       string    `json:"duration,omitempty"`
	BudgetEstimate string    `json:"budget_estimate,omitempty"`
	Vibe           string    `json:"vibe"`
	Summary        string    `json:"summary"`
	Days           []DayPlan `json:"days"`
}

// FromArgs decodes the raw argument object of a tool invocation.
func FromArgs(args map[string]any) (*Itinerary, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("encode tool args: %w", err)
	}

	var it Itinerary
	if err := json.Unmarshal(raw, &it); err != nil {
		return nil, fmt.Errorf("decode tool args: %w", err)
	}
	return &it, nil
}

// Encode serializes the itinerary for durable storage.
func (it *Itinerary) Encode() (string, error) {
	raw, err := json.Marshal(it)
	if err != nil {
		return "", fmt.Errorf("encode itinerary: %w", err)
	}
	return string(raw), nil
}

// Decode parses stored itinerary content.
func Decode(content string) (*Itinerary, error) {
	var it Itinerary
	if err := json.Unmarshal([]byte(content), &it); err != nil {
		return nil, fmt.Errorf("decode itinerary: %w", err)
	}
	return &it, nil
}

// LooksLikePayload reports whether stored content is plausibly a serialized
// itinerary. Legacy rows carry no content-type tag, so classification falls
// back to this sniff: an object delimiter up front plus the distinguishing
// trip_title field somewhere in the body.
func LooksLikePayload(content string) bool {
	return strings.HasPrefix(strings.TrimSpace(content), "{") &&
		strings.Contains(content, `"trip_title"`)
}
