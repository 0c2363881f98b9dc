package api

const (
	// StatusCompleted - provider finished the transcription
	StatusCompleted = "completed"
	// StatusError - provider failed the transcription
	StatusError = "error"
)

// Config keeps transcription parameters sent to the provider
type Config struct {
	LanguageCode      string
	LanguageDetection bool
	SpeakerLabels     bool
	// SpeakersExpected is a hint, 0 - no hint
	SpeakersExpected int
}

// Result is a final provider response
type Result struct {
	ID         string
	Status     string
	Text       string
	Error      string
	Utterances []Utterance
}

// Utterance is a speaker labeled segment, times in ms
type Utterance struct {
	Speaker string `json:"speaker"`
	Start   int64  `json:"start"`
	End     int64  `json:"end"`
	Text    string `json:"text"`
}
