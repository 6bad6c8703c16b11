package progress

// Badge is a one-way achievement flag. The catalog fields are static; only
// Unlocked varies per profile, and it never transitions back to false.
type Badge struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
	Unlocked    bool   `json:"unlocked"`
}

// badgeUnlockBonus is awarded once per badge, on the transition that unlocks it.
const badgeUnlockBonus = 50

// badgePredicates maps badge id to its unlock condition, evaluated against
// the post-transition record.
var badgePredicates = map[string]func(Record) bool{
	"first_step": func(r Record) bool {
		return len(r.CompletedLessons) >= 1
	},
	"star_student": func(r Record) bool {
		for _, s := range r.Scores {
			if s >= 100 {
				return true
			}
		}
		return false
	},
	"dedicated": func(r Record) bool {
		return len(r.CompletedLessons) >= 5
	},
	"master": func(r Record) bool {
		return len(r.CompletedLessons) >= 10
	},
}

// badgeCatalog is the process-wide read-only badge configuration.
var badgeCatalog = []Badge{
	{ID: "first_step", Name: "Bước đầu tiên", Icon: "🌱", Description: "Hoàn thành bài học đầu tiên"},
	{ID: "star_student", Name: "Học sinh gương mẫu", Icon: "⭐", Description: "Đạt điểm 100 trong một bài học"},
	{ID: "dedicated", Name: "Chăm chỉ", Icon: "📚", Description: "Hoàn thành 5 bài học"},
	{ID: "master", Name: "Bậc thầy âm vần", Icon: "👑", Description: "Hoàn thành 10 bài học"},
}

// BadgeCatalog returns a fresh, locked copy of the badge catalog for a new
// record.
func BadgeCatalog() []Badge {
	out := make([]Badge, len(badgeCatalog))
	copy(out, badgeCatalog)
	return out
}
