package progress

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/xeipuuv/gojsonschema"
)

// recordSchema guards record deserialization. Stored records come from an
// untrusted local store and from the sync API, so structure is checked before
// unmarshaling; anything that fails falls back to a fresh record rather than
// blocking the learner.
const recordSchema = `{
	"type": "object",
	"required": ["completedLessons", "scores", "points", "username"],
	"properties": {
		"completedLessons": {"type": "array", "items": {"type": "string"}},
		"scores": {
			"type": "object",
			"additionalProperties": {"type": "number", "minimum": 0, "maximum": 100}
		},
		"detailedScores": {"type": "object"},
		"points": {"type": "integer", "minimum": 0},
		"username": {"type": "string"},
		"badges": {"type": "array"}
	}
}`

var compiledRecordSchema = gojsonschema.NewStringLoader(recordSchema)

// ValidateRecordJSON checks serialized record structure against the schema.
func ValidateRecordJSON(data []byte) error {
	result, err := gojsonschema.Validate(compiledRecordSchema, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("validate record: %w", err)
	}
	if !result.Valid() {
		errs := result.Errors()
		if len(errs) > 0 {
			return fmt.Errorf("invalid record: %s", errs[0])
		}
		return fmt.Errorf("invalid record")
	}
	return nil
}

// EncodeRecord serializes a record for storage.
func EncodeRecord(r Record) ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	return data, nil
}

// DecodeRecord deserializes a stored record. A corrupt or structurally
// invalid payload is recovered by returning a freshly initialized record:
// losing a malformed local record is preferable to blocking the learner.
// Records written before the badge catalog existed get the catalog injected,
// locked.
func DecodeRecord(data []byte, username string, now time.Time) Record {
	if err := ValidateRecordJSON(data); err != nil {
		slog.Warn("discarding unreadable progress record", "error", err)
		return NewRecord(username, now)
	}

	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		slog.Warn("discarding unreadable progress record", "error", err)
		return NewRecord(username, now)
	}

	if r.CompletedLessons == nil {
		r.CompletedLessons = []string{}
	}
	if r.Scores == nil {
		r.Scores = map[string]int{}
	}
	if r.DetailedScores == nil {
		r.DetailedScores = map[string]PartScores{}
	}
	if r.CompletionDates == nil {
		r.CompletionDates = map[string]time.Time{}
	}
	if len(r.Badges) == 0 {
		r.Badges = BadgeCatalog()
	}
	return r
}
