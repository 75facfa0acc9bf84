package stream

import "google.golang.org/genai"

// Decode converts one raw Gemini chunk into ordered events. The text carried
// by the first candidate's parts becomes a TextDelta; the candidate itself is
// always surfaced as a CandidateUpdate so the accumulator can retain it for
// the end-of-stream scan. A candidate without content still overwrites
// whatever was retained before it. Chunks without candidates decode to
// nothing.
func Decode(chunk *genai.GenerateContentResponse) []Event {
	if chunk == nil || len(chunk.Candidates) == 0 {
		return nil
	}

	first := chunk.Candidates[0]
	if first == nil {
		return nil
	}

	var events []Event
	if first.Content != nil {
		if delta := joinText(first.Content.Parts); delta != "" {
			events = append(events, TextDelta(delta))
		}
	}
	events = append(events, CandidateUpdate{Candidate: convertCandidate(first)})
	return events
}

func joinText(parts []*genai.Part) string {
	var text string
	for _, part := range parts {
		if part != nil {
			text += part.Text
		}
	}
	return text
}

func convertCandidate(c *genai.Candidate) Candidate {
	if c.Content == nil {
		return Candidate{}
	}
	out := Candidate{Parts: make([]Part, 0, len(c.Content.Parts))}
	for _, part := range c.Content.Parts {
		if part == nil {
			continue
		}
		converted := Part{Text: part.Text}
		if part.FunctionCall != nil {
			converted.FunctionCall = &FunctionCall{
				Name: part.FunctionCall.Name,
				Args: part.FunctionCall.Args,
			}
		}
		out.Parts = append(out.Parts, converted)
	}
	return out
}
