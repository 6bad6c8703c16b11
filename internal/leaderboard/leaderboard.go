// Package leaderboard implements both sides of the shared ranking service:
// the device-side client that pushes a profile's aggregate and fetches the
// top ranking, and the server-side store the service keeps rankings in.
package leaderboard

import "time"

// DefaultTopN is how many entries the ranking view shows.
const DefaultTopN = 10

// Entry is one row of the ranking, as served by GET /api/leaderboard.
type Entry struct {
	Username         string `json:"username"`
	Points           int    `json:"points"`
	LessonsCompleted int    `json:"lessons_completed"`
}

// Summary is a profile's aggregate, as posted to POST /api/leaderboard.
// The field casing differs from Entry for compatibility with the clients
// already in the field.
type Summary struct {
	Username         string `json:"username"`
	Points           int    `json:"points"`
	LessonsCompleted int    `json:"lessonsCompleted"`
}

// row is a stored ranking entry. FirstSeen breaks point ties: earlier
// arrivals rank higher.
type row struct {
	Entry
	FirstSeen time.Time
}
