// Package grading scores a pupil's recorded reading against the expected
// text. Scoring is delegated to an external speech service; when that
// service is down the lesson flow must not break, so failures degrade to a
// zero-accuracy result with child-friendly feedback instead of an error.
package grading

import "context"

// Request is one recording to grade.
type Request struct {
	// ExpectedText is what the pupil was asked to read.
	ExpectedText string
	// Audio is the raw recording (webm/opus from the browser recorder).
	Audio []byte
	// MIMEType describes Audio, e.g. "audio/webm".
	MIMEType string
}

// Result is the outcome of grading one recording.
type Result struct {
	// Transcription is what the service heard.
	Transcription string `json:"transcription"`
	// Feedback is a short Vietnamese sentence shown to the pupil.
	Feedback string `json:"feedback"`
	// Accuracy is 0..100; it becomes the attempt score.
	Accuracy int `json:"accuracy"`
}

// Analyzer grades recordings.
type Analyzer interface {
	Analyze(ctx context.Context, req Request) Result
}
