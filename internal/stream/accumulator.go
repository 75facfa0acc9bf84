package stream

import (
	"log"
	"strings"

	"github.com/amarw/wayfarer/backend/internal/model/itinerary"
)

// ToolProposeItinerary is the function name the model invokes to deliver a
// structured trip plan instead of free text.
const ToolProposeItinerary = "propose_itinerary"

// OutcomeKind tags how an in-flight message resolved.
type OutcomeKind int

const (
	// OutcomeText means the model replied conversationally.
	OutcomeText OutcomeKind = iota
	// OutcomeItinerary means a qualifying tool invocation was found.
	OutcomeItinerary
)

// Outcome is the final resolution of one chunk sequence. Text always holds
// the full accumulated free text; the product choice is to show the itinerary
// regardless of stray text, not to suppress one or the other.
type Outcome struct {
	Kind      OutcomeKind
	Text      string
	Itinerary *itinerary.Itinerary
}

// Accumulator merges decoded events for exactly one in-flight message.
// Events must be applied in arrival order; text deltas are concatenation-only.
// Not safe for concurrent use: one accumulator per initiating call.
type Accumulator struct {
	publish   func(text string)
	text      strings.Builder
	candidate *Candidate
}

// NewAccumulator returns an accumulator that invokes publish with the entire
// updated buffer after every text delta, so partial text reaches the visible
// message as early as possible. publish may be nil.
func NewAccumulator(publish func(text string)) *Accumulator {
	return &Accumulator{publish: publish}
}

// Apply processes one event.
func (a *Accumulator) Apply(ev Event) {
	switch ev := ev.(type) {
	case TextDelta:
		a.text.WriteString(string(ev))
		if a.publish != nil {
			a.publish(a.text.String())
		}
	case CandidateUpdate:
		c := ev.Candidate
		a.candidate = &c
	}
}

// Text returns the running text buffer.
func (a *Accumulator) Text() string {
	return a.text.String()
}

// Resolve runs the termination rule. Call exactly once, after the chunk
// sequence has fully drained: the retained candidate's parts are scanned in
// order and every qualifying propose_itinerary part decodes its arguments.
// The scan deliberately does not break early, so when multiple qualifying
// parts exist the last one wins.
func (a *Accumulator) Resolve() Outcome {
	out := Outcome{Kind: OutcomeText, Text: a.text.String()}
	if a.candidate == nil {
		return out
	}

	for _, part := range a.candidate.Parts {
		fc := part.FunctionCall
		if fc == nil || fc.Name != ToolProposeItinerary {
			continue
		}
		it, err := itinerary.FromArgs(fc.Args)
		if err != nil {
			log.Printf("[stream] skipping undecodable %s arguments: %v", fc.Name, err)
			continue
		}
		out.Kind = OutcomeItinerary
		out.Itinerary = it
	}
	return out
}
