package progress

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hanhtrang/lop1-engine/internal/storage"
)

// Syncer pushes a profile's aggregate to the shared leaderboard. Push is
// best-effort: implementations log failures and never surface them.
type Syncer interface {
	Push(ctx context.Context, username string, points, lessonsCompleted int)
}

// EngineConfig holds dependencies for the progress engine.
type EngineConfig struct {
	Store  storage.Store
	Syncer Syncer           // optional; nil disables leaderboard pushes
	Now    func() time.Time // optional; defaults to time.Now
}

// Engine is the composition root of the state engine: it wires the profile
// set to the active profile's record and routes every completion event
// through the transition function. Completion events arrive one at a time
// from user-triggered actions, so the engine is deliberately unsynchronized.
type Engine struct {
	profiles *ProfileStore
	syncer   Syncer
	now      func() time.Time
	current  Record
}

// NewEngine loads the profile set and the active profile's record.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	store := cfg.Store
	if store == nil {
		store = storage.NewMemoryStore()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	profiles, err := NewProfileStore(store, now)
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}

	e := &Engine{
		profiles: profiles,
		syncer:   cfg.Syncer,
		now:      now,
	}
	e.current = profiles.LoadRecord(profiles.Active().ID)
	return e, nil
}

// Record returns a snapshot of the active profile's record.
func (e *Engine) Record() Record {
	return e.current.clone()
}

// Profiles returns the profile set.
func (e *Engine) Profiles() []Profile {
	return e.profiles.Profiles()
}

// ActiveProfile returns the active profile.
func (e *Engine) ActiveProfile() Profile {
	return e.profiles.Active()
}

// Apply runs one completion event through the transition function, persists
// the result under the active profile's key, and schedules a leaderboard
// push when the profile has points. Every transition persists immediately so
// a crash loses at most the in-flight event.
func (e *Engine) Apply(ev Event) (Record, error) {
	if err := ev.Validate(); err != nil {
		return Record{}, fmt.Errorf("invalid event: %w", err)
	}

	next := Transition(e.current, ev, e.now())
	if err := e.profiles.saveRecord(e.profiles.Active().ID, next); err != nil {
		return Record{}, err
	}
	e.current = next

	slog.Info("completion recorded",
		"profile_id", e.profiles.Active().ID,
		"lesson_id", ev.LessonID,
		"points", next.Points,
	)

	if e.syncer != nil && next.Points > 0 {
		go e.syncer.Push(context.Background(), next.Username, next.Points, len(next.CompletedLessons))
	}
	return next.clone(), nil
}

// AddProfile creates a profile, activates it, and loads its fresh record.
func (e *Engine) AddProfile(name string) (Profile, error) {
	p, err := e.profiles.Add(name)
	if err != nil {
		return Profile{}, err
	}
	e.current = e.profiles.LoadRecord(p.ID)
	return p, nil
}

// SwitchProfile hot-swaps the loaded record to another profile's.
func (e *Engine) SwitchProfile(id string) error {
	rec, err := e.profiles.SwitchActive(id)
	if err != nil {
		return err
	}
	e.current = rec
	return nil
}

// RemoveProfile deletes a profile and its record. The last remaining profile
// cannot be removed.
func (e *Engine) RemoveProfile(id string) error {
	if err := e.profiles.Remove(id); err != nil {
		return err
	}
	e.current = e.profiles.LoadRecord(e.profiles.Active().ID)
	return nil
}

// RenameProfile updates a profile's display name. When the renamed profile
// is active, the loaded record picks up the new username.
func (e *Engine) RenameProfile(id, name string) error {
	if err := e.profiles.Rename(id, name); err != nil {
		return err
	}
	if id == e.profiles.Active().ID {
		e.current = e.profiles.LoadRecord(id)
	}
	return nil
}
