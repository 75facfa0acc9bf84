package itinerary

import (
	"reflect"
	"testing"
)

func sample() *Itinerary {
	return &Itinerary{
		TripTitle:      "Kyoto in Autumn",
		Destination:    "Kyoto, Japan",
		Duration:       "4 days",
		BudgetEstimate: "$1,800",
		Vibe:           "Contemplative",
		Summary:        "Temples, gardens and late-season maple leaves.",
		Days: []DayPlan{
			{
				DayNumber: 1,
				Theme:     "Arrival and Gion",
				Activities: []Activity{
					{TimeOfDay: Evening, Title: "Gion stroll", Description: "Lantern-lit streets.", Location: "Gion"},
				},
			},
			{
				DayNumber: 2,
				Theme:     "Northern temples",
				Activities: []Activity{
					{TimeOfDay: Morning, Title: "Kinkaku-ji", Description: "The golden pavilion.", Location: "Kita Ward"},
					{TimeOfDay: Afternoon, Title: "Ryoan-ji", Description: "Rock garden.", Location: "Ukyo Ward"},
				},
			},
		},
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	original := sample()

	encoded, err := original.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(original, decoded) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", decoded, original)
	}
}

func TestFromArgs(t *testing.T) {
	it, err := FromArgs(map[string]any{
		"trip_title":  "Quick Hop",
		"destination": "Porto",
		"vibe":        "Casual",
		"summary":     "Wine and tiles.",
		"days": []any{
			map[string]any{"day_number": float64(1), "theme": "Old town", "activities": []any{}},
		},
	})
	if err != nil {
		t.Fatalf("FromArgs: %v", err)
	}
	if it.TripTitle != "Quick Hop" || len(it.Days) != 1 || it.Days[0].Theme != "Old town" {
		t.Fatalf("unexpected itinerary: %+v", it)
	}
}

func TestFromArgsRejectsWrongShape(t *testing.T) {
	if _, err := FromArgs(map[string]any{"days": "tomorrow"}); err == nil {
		t.Fatal("expected an error for mistyped days")
	}
}

func TestLooksLikePayload(t *testing.T) {
	cases := []struct {
		content string
		want    bool
	}{
		{`{"trip_title":"X","destination":"Y"}`, true},
		{"  {\n\"trip_title\": \"X\"}", true},
		{`{"note":"just an object"}`, false},
		{`the word "trip_title" in prose`, false},
		{"plain text reply", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := LooksLikePayload(tc.content); got != tc.want {
			t.Errorf("LooksLikePayload(%q) = %v, want %v", tc.content, got, tc.want)
		}
	}
}
