package stream

import (
	"reflect"
	"testing"

	"google.golang.org/genai"
)

func textChunk(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{{Text: text}}}},
		},
	}
}

func functionCallChunk(name string, args map[string]any) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{
				{FunctionCall: &genai.FunctionCall{Name: name, Args: args}},
			}}},
		},
	}
}

func lisbonArgs() map[string]any {
	return map[string]any{
		"trip_title":  "Lisbon Getaway",
		"destination": "Lisbon",
		"days": []any{
			map[string]any{"day_number": 1, "theme": "Arrival", "activities": []any{}},
		},
		"summary": "A short trip.",
		"vibe":    "Relaxed",
	}
}

func apply(t *testing.T, acc *Accumulator, chunks ...*genai.GenerateContentResponse) {
	t.Helper()
	for _, chunk := range chunks {
		for _, ev := range Decode(chunk) {
			acc.Apply(ev)
		}
	}
}

func TestTextOnlyStream(t *testing.T) {
	var published []string
	acc := NewAccumulator(func(text string) { published = append(published, text) })

	apply(t, acc, textChunk("Hello"), textChunk(", "), textChunk("traveler!"))

	outcome := acc.Resolve()
	if outcome.Kind != OutcomeText {
		t.Fatalf("expected text outcome, got %v", outcome.Kind)
	}
	if outcome.Text != "Hello, traveler!" {
		t.Fatalf("unexpected text: %q", outcome.Text)
	}
	if outcome.Itinerary != nil {
		t.Fatal("expected no itinerary")
	}

	want := []string{"Hello", "Hello, ", "Hello, traveler!"}
	if !reflect.DeepEqual(published, want) {
		t.Fatalf("unexpected publish sequence: %v", published)
	}
}

func TestLisbonScenario(t *testing.T) {
	acc := NewAccumulator(nil)
	apply(t, acc,
		textChunk("Sure! "),
		functionCallChunk(ToolProposeItinerary, lisbonArgs()),
	)

	outcome := acc.Resolve()
	if outcome.Kind != OutcomeItinerary {
		t.Fatalf("expected itinerary outcome, got %v", outcome.Kind)
	}
	if outcome.Text != "Sure! " {
		t.Fatalf("accumulated text should survive resolution, got %q", outcome.Text)
	}
	if outcome.Itinerary == nil || outcome.Itinerary.TripTitle != "Lisbon Getaway" {
		t.Fatalf("unexpected itinerary: %+v", outcome.Itinerary)
	}
	if len(outcome.Itinerary.Days) != 1 || outcome.Itinerary.Days[0].DayNumber != 1 {
		t.Fatalf("unexpected days: %+v", outcome.Itinerary.Days)
	}
}

func TestLastQualifyingPartWins(t *testing.T) {
	first := lisbonArgs()
	second := lisbonArgs()
	second["trip_title"] = "Lisbon Revised"

	chunk := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{
				{FunctionCall: &genai.FunctionCall{Name: ToolProposeItinerary, Args: first}},
				{FunctionCall: &genai.FunctionCall{Name: "other_tool", Args: map[string]any{}}},
				{FunctionCall: &genai.FunctionCall{Name: ToolProposeItinerary, Args: second}},
			}}},
		},
	}

	acc := NewAccumulator(nil)
	apply(t, acc, chunk)

	outcome := acc.Resolve()
	if outcome.Itinerary == nil || outcome.Itinerary.TripTitle != "Lisbon Revised" {
		t.Fatalf("expected last qualifying part to win, got %+v", outcome.Itinerary)
	}
}

func TestLaterCandidateOverwritesEarlier(t *testing.T) {
	// The backend may resend a candidate; only the final one is scanned,
	// even when an earlier one carried the function call.
	acc := NewAccumulator(nil)
	apply(t, acc,
		functionCallChunk(ToolProposeItinerary, lisbonArgs()),
		textChunk("Actually, let me explain instead."),
	)

	outcome := acc.Resolve()
	if outcome.Kind != OutcomeText {
		t.Fatalf("expected text outcome after candidate overwrite, got %+v", outcome)
	}
	if outcome.Itinerary != nil {
		t.Fatalf("itinerary from a superseded candidate should not survive: %+v", outcome.Itinerary)
	}
	if outcome.Text != "Actually, let me explain instead." {
		t.Fatalf("unexpected text: %q", outcome.Text)
	}
}

func TestUndecodableArgsSkipped(t *testing.T) {
	good := lisbonArgs()
	bad := map[string]any{"days": "not-an-array"}

	chunk := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{
				{FunctionCall: &genai.FunctionCall{Name: ToolProposeItinerary, Args: good}},
				{FunctionCall: &genai.FunctionCall{Name: ToolProposeItinerary, Args: bad}},
			}}},
		},
	}

	acc := NewAccumulator(nil)
	apply(t, acc, chunk)

	outcome := acc.Resolve()
	if outcome.Itinerary == nil || outcome.Itinerary.TripTitle != "Lisbon Getaway" {
		t.Fatalf("expected earlier decodable part to win, got %+v", outcome.Itinerary)
	}
}

func TestDecodeEmptyChunks(t *testing.T) {
	if events := Decode(nil); events != nil {
		t.Fatalf("nil chunk should decode to nothing, got %v", events)
	}
	if events := Decode(&genai.GenerateContentResponse{}); events != nil {
		t.Fatalf("heartbeat chunk should decode to nothing, got %v", events)
	}
}

func TestDecodeContentlessCandidate(t *testing.T) {
	chunk := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}}

	events := Decode(chunk)
	if len(events) != 1 {
		t.Fatalf("expected a lone candidate update, got %v", events)
	}
	update, ok := events[0].(CandidateUpdate)
	if !ok {
		t.Fatalf("expected a CandidateUpdate, got %T", events[0])
	}
	if len(update.Candidate.Parts) != 0 {
		t.Fatalf("content-less candidate should carry no parts, got %+v", update.Candidate)
	}
}

func TestContentlessCandidateSupersedesFunctionCall(t *testing.T) {
	acc := NewAccumulator(nil)
	apply(t, acc,
		textChunk("Sure! "),
		functionCallChunk(ToolProposeItinerary, lisbonArgs()),
		&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}},
	)

	outcome := acc.Resolve()
	if outcome.Kind != OutcomeText {
		t.Fatalf("the final candidate carried no function call, got %+v", outcome)
	}
	if outcome.Itinerary != nil {
		t.Fatalf("a superseded function call must not survive: %+v", outcome.Itinerary)
	}
	if outcome.Text != "Sure! " {
		t.Fatalf("unexpected text %q", outcome.Text)
	}
}

func TestDecodeOrdersTextBeforeCandidate(t *testing.T) {
	events := Decode(textChunk("hi"))
	if len(events) != 2 {
		t.Fatalf("expected delta plus candidate, got %d events", len(events))
	}
	if _, ok := events[0].(TextDelta); !ok {
		t.Fatalf("expected first event to be a TextDelta, got %T", events[0])
	}
	if _, ok := events[1].(CandidateUpdate); !ok {
		t.Fatalf("expected second event to be a CandidateUpdate, got %T", events[1])
	}
}

func TestResolveWithoutCandidate(t *testing.T) {
	acc := NewAccumulator(nil)
	outcome := acc.Resolve()
	if outcome.Kind != OutcomeText || outcome.Text != "" || outcome.Itinerary != nil {
		t.Fatalf("empty stream should settle as empty text, got %+v", outcome)
	}
}
