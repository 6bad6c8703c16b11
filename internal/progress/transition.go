package progress

import (
	"fmt"
	"math"
	"time"
)

// Part names one scored unit within a lesson.
type Part string

const (
	PartMain    Part = "main"
	PartPassage Part = "passage"
	PartExample Part = "example"
)

// Event is one lesson completion reported by the UI or the grading service.
// Score is optional: a lesson can be marked complete without a graded
// attempt. Part is also optional independently of Score: quizzes and
// exercises report a score with no part, which marks the completion but
// keeps the score out of the sub-part aggregate. PartIndex selects the
// example slot and is only read when Part is PartExample.
type Event struct {
	LessonID  string `json:"lessonId"`
	Score     *int   `json:"score,omitempty"`
	Part      Part   `json:"part,omitempty"`
	PartIndex int    `json:"partIndex,omitempty"`
}

// Validate checks the event's structural invariants.
func (e Event) Validate() error {
	if e.LessonID == "" {
		return fmt.Errorf("lessonId is required")
	}
	if e.Score != nil {
		if *e.Score < 0 || *e.Score > 100 {
			return fmt.Errorf("score %d out of range 0-100", *e.Score)
		}
		switch e.Part {
		case "", PartMain, PartPassage:
		case PartExample:
			if e.PartIndex < 0 {
				return fmt.Errorf("partIndex %d is negative", e.PartIndex)
			}
		default:
			return fmt.Errorf("unknown part %q", e.Part)
		}
	}
	return nil
}

// Transition applies one completion event to a record and returns the
// updated copy. It is pure: the input record is never mutated, and the same
// (record, event, now) always yields the same result.
//
// Points are monotonic. The first completion of a lesson awards a flat 100.
// A graded attempt naming a part raises that sub-part high-water mark, the lesson
// score is recomputed as the rounded mean over attempted parts, and any
// positive delta over the previous lesson score is awarded as bonus points.
// A first attempt at a new sub-part can lower the mean even though no
// high-water mark regressed; the lower score is stored as-is and no points
// are deducted. Badges unlock one-way against the post-update state, 50
// points each.
func Transition(r Record, e Event, now time.Time) Record {
	out := r.clone()
	earned := 0

	if !out.Completed(e.LessonID) {
		out.CompletedLessons = append(out.CompletedLessons, e.LessonID)
		out.CompletionDates[e.LessonID] = now
		earned += 100
	}

	if e.Score != nil && e.Part != "" {
		detail := out.DetailedScores[e.LessonID]
		switch e.Part {
		case PartMain:
			detail.Main = raise(detail.Main, *e.Score)
		case PartPassage:
			detail.Passage = raise(detail.Passage, *e.Score)
		case PartExample:
			if detail.Examples == nil {
				detail.Examples = map[int]int{}
			}
			if cur, ok := detail.Examples[e.PartIndex]; !ok || *e.Score > cur {
				detail.Examples[e.PartIndex] = *e.Score
			}
		}
		out.DetailedScores[e.LessonID] = detail

		if mean, ok := lessonMean(detail); ok {
			old := out.Scores[e.LessonID]
			out.Scores[e.LessonID] = mean
			if mean > old {
				earned += mean - old
			}
		}
	}

	for i, b := range out.Badges {
		if b.Unlocked {
			continue
		}
		pred, ok := badgePredicates[b.ID]
		if ok && pred(out) {
			out.Badges[i].Unlocked = true
			earned += badgeUnlockBonus
		}
	}

	out.Points += earned
	out.LastActivity = now
	return out
}

// lessonMean computes the rounded mean over the sub-parts attempted so far.
// Missing parts are excluded from the average, not treated as zero.
func lessonMean(d PartScores) (int, bool) {
	sum, n := 0, 0
	if d.Main != nil {
		sum += *d.Main
		n++
	}
	if d.Passage != nil {
		sum += *d.Passage
		n++
	}
	for _, s := range d.Examples {
		sum += s
		n++
	}
	if n == 0 {
		return 0, false
	}
	return int(math.Round(float64(sum) / float64(n))), true
}

// raise returns the high-water mark of an optional sub-score and a new value.
func raise(cur *int, score int) *int {
	if cur != nil && *cur >= score {
		return cur
	}
	return &score
}
