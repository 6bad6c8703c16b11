// Package roster is the read-only class directory: which students belong to
// which class. Login and session handling live elsewhere; this package only
// stores the directory (with credentials hashed at rest) and serves lookups.
package roster

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// DefaultClassID is the class a lookup without an explicit class id targets.
const DefaultClassID = "1A3"

// Role labels a directory account.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
)

// Student is one directory entry as served to the teacher view.
type Student struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Role     Role   `json:"role"`
	ClassID  string `json:"-"`
}

// account is a stored directory entry, credentials included.
type account struct {
	Student
	PasswordHash string
}

// Store is the class directory.
type Store interface {
	// ListByClass returns a class's students ordered by full name.
	ListByClass(ctx context.Context, classID string) ([]Student, error)
	// Count returns how many accounts the directory holds.
	Count(ctx context.Context) (int, error)
	// insert adds one account; used by seeding.
	insert(ctx context.Context, a account) error
}

// vietnameseCollator orders names the way a Vietnamese class register does;
// plain byte order scatters accented names.
var vietnameseCollator = collate.New(language.Vietnamese)

// sortByGivenName orders students by name under Vietnamese collation.
// Vietnamese registers sort by given name (the last token) first.
func sortByGivenName(students []Student) {
	sort.SliceStable(students, func(i, j int) bool {
		return vietnameseCollator.CompareString(sortKey(students[i].FullName), sortKey(students[j].FullName)) < 0
	})
}

// sortKey rotates "Hà Tâm An" into "An Hà Tâm" so the given name leads.
func sortKey(fullName string) string {
	fields := splitName(fullName)
	if len(fields) < 2 {
		return fullName
	}
	given := fields[len(fields)-1]
	rest := fields[:len(fields)-1]
	key := given
	for _, f := range rest {
		key += " " + f
	}
	return key
}

func splitName(s string) []string {
	var out []string
	start := -1
	for i, r := range s {
		if r == ' ' {
			if start >= 0 {
				out = append(out, s[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		out = append(out, s[start:])
	}
	return out
}

// MemoryStore is an in-memory Store implementation.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts []account
}

// NewMemoryStore creates an empty in-memory directory.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) ListByClass(_ context.Context, classID string) ([]Student, error) {
	if classID == "" {
		classID = DefaultClassID
	}

	s.mu.RLock()
	var out []Student
	for _, a := range s.accounts {
		if a.ClassID == classID && a.Role == RoleStudent {
			out = append(out, a.Student)
		}
	}
	s.mu.RUnlock()

	sortByGivenName(out)
	return out, nil
}

func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accounts), nil
}

func (s *MemoryStore) insert(_ context.Context, a account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = append(s.accounts, a)
	return nil
}
