// Package progress implements the per-student progress and gamification
// state: the cumulative learning record, the completion-event transition
// that updates it, the badge catalog, and the profile set sharing a device.
package progress

import (
	"crypto/rand"
	"fmt"
	"time"
)

// Profile identifies one learner on a shared device.
type Profile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PartScores holds the finest-grained scores recorded for one lesson.
// Each entry is a high-water mark: it only ever moves up.
type PartScores struct {
	Main     *int        `json:"main,omitempty"`
	Passage  *int        `json:"passage,omitempty"`
	Examples map[int]int `json:"examples,omitempty"`
}

// Record is a profile's cumulative learning state. The JSON field names match
// the serialized records the reading app has always stored, so existing
// device data loads unchanged.
type Record struct {
	CompletedLessons []string              `json:"completedLessons"`
	Scores           map[string]int        `json:"scores"`
	DetailedScores   map[string]PartScores `json:"detailedScores"`
	CompletionDates  map[string]time.Time  `json:"completionDates"`
	LastActivity     time.Time             `json:"lastActivity"`
	Points           int                   `json:"points"`
	Badges           []Badge               `json:"badges"`
	Username         string                `json:"username"`
}

// NewRecord returns a freshly initialized record for a learner.
func NewRecord(username string, now time.Time) Record {
	return Record{
		CompletedLessons: []string{},
		Scores:           map[string]int{},
		DetailedScores:   map[string]PartScores{},
		CompletionDates:  map[string]time.Time{},
		LastActivity:     now,
		Points:           0,
		Badges:           BadgeCatalog(),
		Username:         username,
	}
}

// Completed reports whether lessonID has at least one recorded completion.
func (r Record) Completed(lessonID string) bool {
	for _, id := range r.CompletedLessons {
		if id == lessonID {
			return true
		}
	}
	return false
}

// UnlockedBadges returns the badges the learner has earned, in catalog order.
func (r Record) UnlockedBadges() []Badge {
	var out []Badge
	for _, b := range r.Badges {
		if b.Unlocked {
			out = append(out, b)
		}
	}
	return out
}

// clone deep-copies a record so the transition never aliases the caller's
// maps and slices.
func (r Record) clone() Record {
	out := r
	out.CompletedLessons = append([]string{}, r.CompletedLessons...)
	out.Scores = make(map[string]int, len(r.Scores))
	for k, v := range r.Scores {
		out.Scores[k] = v
	}
	out.DetailedScores = make(map[string]PartScores, len(r.DetailedScores))
	for k, v := range r.DetailedScores {
		out.DetailedScores[k] = v.clone()
	}
	out.CompletionDates = make(map[string]time.Time, len(r.CompletionDates))
	for k, v := range r.CompletionDates {
		out.CompletionDates[k] = v
	}
	out.Badges = append([]Badge{}, r.Badges...)
	return out
}

func (p PartScores) clone() PartScores {
	out := PartScores{}
	if p.Main != nil {
		v := *p.Main
		out.Main = &v
	}
	if p.Passage != nil {
		v := *p.Passage
		out.Passage = &v
	}
	if p.Examples != nil {
		out.Examples = make(map[int]int, len(p.Examples))
		for k, v := range p.Examples {
			out.Examples[k] = v
		}
	}
	return out
}

// generateID returns a random hex id for profiles and assignments.
func generateID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return fmt.Sprintf("%x", b)
}
