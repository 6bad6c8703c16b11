package progress

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hanhtrang/lop1-engine/internal/storage"
)

// ErrLastProfile is returned when removal would leave the device without any
// profile.
var ErrLastProfile = errors.New("cannot remove the last profile")

// DefaultProfileName is the display name given to the profile a fresh device
// starts with.
const DefaultProfileName = "Bé yêu"

// ProfileStore owns the set of learner profiles on a device and which one is
// active. At least one profile exists at all times.
type ProfileStore struct {
	store    storage.Store
	now      func() time.Time
	profiles []Profile
	activeID string
}

// NewProfileStore loads the profile set from storage, falling back to a
// single default profile when nothing (or nothing readable) is stored.
func NewProfileStore(store storage.Store, now func() time.Time) (*ProfileStore, error) {
	if store == nil {
		return nil, fmt.Errorf("store is nil")
	}
	if now == nil {
		now = time.Now
	}

	s := &ProfileStore{store: store, now: now}
	s.profiles = s.loadProfiles()
	s.activeID = s.loadActiveID()
	return s, nil
}

func (s *ProfileStore) loadProfiles() []Profile {
	data, ok, err := s.store.Get(storage.KeyProfileSet)
	if err != nil {
		slog.Warn("reading profile set failed, starting fresh", "error", err)
	}
	if ok {
		var profiles []Profile
		if err := json.Unmarshal(data, &profiles); err == nil && len(profiles) > 0 {
			return profiles
		}
		slog.Warn("stored profile set unreadable, starting fresh")
	}
	return []Profile{{ID: "default", Name: DefaultProfileName}}
}

func (s *ProfileStore) loadActiveID() string {
	data, ok, err := s.store.Get(storage.KeyActiveProfileID)
	if err == nil && ok {
		id := string(data)
		for _, p := range s.profiles {
			if p.ID == id {
				return id
			}
		}
	}
	return s.profiles[0].ID
}

// Profiles returns a copy of the profile set in insertion order.
func (s *ProfileStore) Profiles() []Profile {
	return append([]Profile{}, s.profiles...)
}

// Active returns the currently active profile.
func (s *ProfileStore) Active() Profile {
	for _, p := range s.profiles {
		if p.ID == s.activeID {
			return p
		}
	}
	return s.profiles[0]
}

// Add creates a profile with a fresh id, makes it active, and initializes an
// empty progress record for it.
func (s *ProfileStore) Add(name string) (Profile, error) {
	p := Profile{ID: generateID(), Name: name}
	s.profiles = append(s.profiles, p)
	if err := s.persistProfiles(); err != nil {
		return Profile{}, err
	}

	rec := NewRecord(name, s.now())
	if err := s.saveRecord(p.ID, rec); err != nil {
		return Profile{}, err
	}

	if err := s.setActive(p.ID); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// SwitchActive makes id the active profile and returns its record, loading a
// freshly initialized one if storage has nothing usable. Switching to the
// already-active profile is a no-op.
func (s *ProfileStore) SwitchActive(id string) (Record, error) {
	if id == s.activeID {
		return s.LoadRecord(s.activeID), nil
	}
	if !s.exists(id) {
		return Record{}, fmt.Errorf("unknown profile: %s", id)
	}
	if err := s.setActive(id); err != nil {
		return Record{}, err
	}
	return s.LoadRecord(id), nil
}

// Remove deletes a profile and its persisted record. Removing the only
// remaining profile fails with ErrLastProfile and changes nothing. If the
// removed profile was active, the first remaining profile becomes active.
func (s *ProfileStore) Remove(id string) error {
	if len(s.profiles) <= 1 {
		return ErrLastProfile
	}
	if !s.exists(id) {
		return fmt.Errorf("unknown profile: %s", id)
	}

	kept := make([]Profile, 0, len(s.profiles)-1)
	for _, p := range s.profiles {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	s.profiles = kept
	if err := s.persistProfiles(); err != nil {
		return err
	}
	if err := s.store.Delete(storage.ProgressKey(id)); err != nil {
		slog.Warn("deleting removed profile's record failed", "profile_id", id, "error", err)
	}

	if s.activeID == id {
		return s.setActive(s.profiles[0].ID)
	}
	return nil
}

// Rename updates a profile's display name and mirrors it into that profile's
// record username.
func (s *ProfileStore) Rename(id, name string) error {
	if !s.exists(id) {
		return fmt.Errorf("unknown profile: %s", id)
	}
	for i := range s.profiles {
		if s.profiles[i].ID == id {
			s.profiles[i].Name = name
		}
	}
	if err := s.persistProfiles(); err != nil {
		return err
	}

	rec := s.LoadRecord(id)
	rec.Username = name
	return s.saveRecord(id, rec)
}

// LoadRecord returns the stored record for a profile, or a freshly
// initialized one when storage has nothing usable.
func (s *ProfileStore) LoadRecord(id string) Record {
	username := DefaultProfileName
	for _, p := range s.profiles {
		if p.ID == id {
			username = p.Name
		}
	}

	data, ok, err := s.store.Get(storage.ProgressKey(id))
	if err != nil {
		slog.Warn("reading progress record failed, starting fresh", "profile_id", id, "error", err)
		return NewRecord(username, s.now())
	}
	if !ok {
		return NewRecord(username, s.now())
	}
	return DecodeRecord(data, username, s.now())
}

func (s *ProfileStore) saveRecord(id string, rec Record) error {
	data, err := EncodeRecord(rec)
	if err != nil {
		return err
	}
	if err := s.store.Set(storage.ProgressKey(id), data); err != nil {
		return fmt.Errorf("persist record for %s: %w", id, err)
	}
	return nil
}

func (s *ProfileStore) persistProfiles() error {
	data, err := json.Marshal(s.profiles)
	if err != nil {
		return fmt.Errorf("marshal profile set: %w", err)
	}
	if err := s.store.Set(storage.KeyProfileSet, data); err != nil {
		return fmt.Errorf("persist profile set: %w", err)
	}
	return nil
}

func (s *ProfileStore) setActive(id string) error {
	s.activeID = id
	if err := s.store.Set(storage.KeyActiveProfileID, []byte(id)); err != nil {
		return fmt.Errorf("persist active profile id: %w", err)
	}
	return nil
}

func (s *ProfileStore) exists(id string) bool {
	for _, p := range s.profiles {
		if p.ID == id {
			return true
		}
	}
	return false
}
