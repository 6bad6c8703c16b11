// Package assignment keeps the teacher-issued homework list: lesson
// references with a message and an optional due date, at most one per lesson.
package assignment

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hanhtrang/lop1-engine/internal/storage"
)

// DefaultMessage is used when the teacher assigns a lesson without a note.
const DefaultMessage = "Bài tập về nhà"

// Assignment is one homework entry. Whether a given student finished it is
// derived from that student's completed lessons, never stored here.
type Assignment struct {
	ID        string     `json:"id"`
	LessonID  string     `json:"lessonId"`
	Message   string     `json:"message"`
	DueDate   *time.Time `json:"dueDate,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// Outcome tells the caller whether Assign created a new entry or found an
// existing one for the lesson. Duplicates are not errors: the UI shows a
// friendly notice either way.
type Outcome int

const (
	OutcomeCreated Outcome = iota
	OutcomeAlreadyExists
)

// Registry is the ordered homework list, most recent first.
type Registry struct {
	store       storage.Store
	now         func() time.Time
	assignments []Assignment
}

// NewRegistry loads the stored assignment list. Unreadable stored data is
// dropped in favor of an empty list.
func NewRegistry(store storage.Store, now func() time.Time) (*Registry, error) {
	if store == nil {
		return nil, fmt.Errorf("store is nil")
	}
	if now == nil {
		now = time.Now
	}

	r := &Registry{store: store, now: now}
	data, ok, err := store.Get(storage.KeyAssignments)
	if err != nil {
		slog.Warn("reading assignments failed, starting empty", "error", err)
		return r, nil
	}
	if ok {
		if err := json.Unmarshal(data, &r.assignments); err != nil {
			slog.Warn("stored assignments unreadable, starting empty", "error", err)
			r.assignments = nil
		}
	}
	return r, nil
}

// Assign adds a homework entry for a lesson unless one already exists.
// New entries go to the front of the list.
func (r *Registry) Assign(lessonID, message string, dueDate *time.Time) (Assignment, Outcome, error) {
	if lessonID == "" {
		return Assignment{}, OutcomeAlreadyExists, fmt.Errorf("lessonId is required")
	}
	for _, a := range r.assignments {
		if a.LessonID == lessonID {
			return a, OutcomeAlreadyExists, nil
		}
	}

	if message == "" {
		message = DefaultMessage
	}
	a := Assignment{
		ID:        newID(),
		LessonID:  lessonID,
		Message:   message,
		DueDate:   dueDate,
		Timestamp: r.now(),
	}
	r.assignments = append([]Assignment{a}, r.assignments...)

	if err := r.persist(); err != nil {
		return Assignment{}, OutcomeCreated, err
	}
	return a, OutcomeCreated, nil
}

// List returns the assignments, most recent first.
func (r *Registry) List() []Assignment {
	return append([]Assignment{}, r.assignments...)
}

func (r *Registry) persist() error {
	data, err := json.Marshal(r.assignments)
	if err != nil {
		return fmt.Errorf("marshal assignments: %w", err)
	}
	if err := r.store.Set(storage.KeyAssignments, data); err != nil {
		return fmt.Errorf("persist assignments: %w", err)
	}
	return nil
}

func newID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return fmt.Sprintf("%x", b)
}
