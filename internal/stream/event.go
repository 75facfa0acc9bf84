// Package stream turns the asynchronous sequence of partial model-response
// chunks for one in-flight message into exactly one resolved outcome: plain
// text or a structured itinerary.
//
// Raw backend chunks are decoded at the boundary into a closed set of events
// so the accumulator never probes optional fields.
package stream

// Event is one decoded unit of a model-response chunk. A single raw chunk may
// decode to zero events (heartbeat), a text delta, a candidate update, or
// both, in that order.
type Event interface {
	streamEvent()
}

// TextDelta carries an incremental piece of free text.
type TextDelta string

func (TextDelta) streamEvent() {}

// CandidateUpdate carries a full response candidate. Only the most recently
// seen candidate matters for function-call extraction; the backend may resend
// an updated candidate with more complete parts as the stream progresses.
type CandidateUpdate struct {
	Candidate Candidate
}

func (CandidateUpdate) streamEvent() {}

// Candidate is a backend-proposed response alternative with ordered content
// parts.
type Candidate struct {
	Parts []Part
}

// Part is one unit of candidate content: free text, a tool invocation, or
// both empty.
type Part struct {
	Text         string
	FunctionCall *FunctionCall
}

// FunctionCall is a named, argument-bearing directive embedded in a response
// part.
type FunctionCall struct {
	Name string
	Args map[string]any
}
