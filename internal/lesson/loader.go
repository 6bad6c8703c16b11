// Package lesson loads the read-only lesson catalog the app teaches from.
package lesson

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Loader loads and caches lesson content from the filesystem.
type Loader struct {
	rootDir string
	lessons map[string]Lesson
	mu      sync.RWMutex
}

// NewLoader creates a new lesson loader and loads all content under rootDir.
func NewLoader(rootDir string) (*Loader, error) {
	l := &Loader{
		rootDir: rootDir,
		lessons: make(map[string]Lesson),
	}

	if err := l.loadAll(); err != nil {
		return nil, fmt.Errorf("loading lessons: %w", err)
	}

	slog.Info("lesson catalog loaded", "lessons", len(l.lessons))
	return l, nil
}

// Get returns a lesson by ID.
func (l *Loader) Get(id string) (Lesson, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	lesson, ok := l.lessons[id]
	return lesson, ok
}

// All returns every loaded lesson in curriculum order.
func (l *Loader) All() []Lesson {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Lesson, 0, len(l.lessons))
	for _, lesson := range l.lessons {
		out = append(out, lesson)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (l *Loader) loadAll() error {
	return filepath.Walk(l.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if !strings.HasSuffix(path, ".yaml") && !strings.HasSuffix(path, ".yml") {
			return nil
		}
		return l.loadLesson(path)
	})
}

func (l *Loader) loadLesson(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var lesson Lesson
	if err := yaml.Unmarshal(data, &lesson); err != nil {
		slog.Warn("skipping invalid lesson YAML", "path", path, "error", err)
		return nil
	}

	if lesson.ID == "" {
		return nil // Not a lesson file
	}

	l.mu.Lock()
	l.lessons[lesson.ID] = lesson
	l.mu.Unlock()

	return nil
}
