// Package storage defines the durable key-value port the engine persists
// through. One profile's state never shares a key with another's, so a crash
// between writes leaves every other profile's record intact.
package storage

// Well-known keys. Per-profile records live under ProgressKey(id).
const (
	KeyProfileSet      = "profile-set"
	KeyActiveProfileID = "active-profile-id"
	KeyAssignments     = "assignments"
)

// ProgressKey returns the storage key for one profile's progress record.
func ProgressKey(profileID string) string {
	return "progress:" + profileID
}

// Store persists string-serialized records under independent keys.
// There is no transactional guarantee across keys.
type Store interface {
	// Get returns the value for key, and whether the key exists.
	Get(key string) ([]byte, bool, error)
	// Set writes the value for key, creating or replacing it.
	Set(key string, value []byte) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(key string) error
}
