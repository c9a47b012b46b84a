package gemini

// cardSchema is one flashcard in the model's JSON response.
type cardSchema struct {
	Front string   `json:"front"`
	Back  string   `json:"back"`
	Hint  string   `json:"hint,omitempty"`
	Tags  []string `json:"tags,omitempty"`
}

// responseSchema is the JSON document the prompt instructs the model
// to produce.
type responseSchema struct {
	Cards []cardSchema `json:"cards"`
}

// promptData carries the template inputs for one generation call.
type promptData struct {
	SourceText string
	Category   string
	Topic      string
}
