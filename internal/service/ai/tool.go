package ai

import (
	"google.golang.org/genai"

	"github.com/amarw/wayfarer/backend/internal/stream"
)

// itineraryTool declares the propose_itinerary function signature advertised
// to the model: scalar trip fields plus an ordered array of day objects, each
// holding an ordered array of activities with an enumerated time of day.
func itineraryTool() *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        stream.ToolProposeItinerary,
		Description: "Generates a structured travel itinerary based on user preferences.",
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"trip_title":      {Type: genai.TypeString, Description: "A catchy name for the trip"},
				"destination":     {Type: genai.TypeString},
				"duration":        {Type: genai.TypeString},
				"budget_estimate": {Type: genai.TypeString},
				"vibe":            {Type: genai.TypeString, Description: "The detected mood/aesthetic of the trip"},
				"summary":         {Type: genai.TypeString, Description: "A simplified 2-sentence overview of the experience"},
				"days": {
					Type: genai.TypeArray,
					Items: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"day_number": {Type: genai.TypeInteger},
							"theme":      {Type: genai.TypeString},
							"activities": {
								Type: genai.TypeArray,
								Items: &genai.Schema{
									Type: genai.TypeObject,
									Properties: map[string]*genai.Schema{
										"time_of_day": {Type: genai.TypeString, Enum: []string{"Morning", "Afternoon", "Evening"}},
										"title":       {Type: genai.TypeString},
										"description": {Type: genai.TypeString},
										"location":    {Type: genai.TypeString},
									},
								},
							},
						},
					},
				},
			},
			Required: []string{"trip_title", "destination", "days", "summary", "vibe"},
		},
	}
}
