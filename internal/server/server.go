// Package server exposes the backend HTTP surface: the shared leaderboard,
// per-student progress snapshots, the class roster, the lesson catalog, the
// xlsx class report, and a websocket feed for the teacher dashboard.
package server

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/hanhtrang/lop1-engine/internal/grading"
	"github.com/hanhtrang/lop1-engine/internal/leaderboard"
	"github.com/hanhtrang/lop1-engine/internal/lesson"
	"github.com/hanhtrang/lop1-engine/internal/progress"
	"github.com/hanhtrang/lop1-engine/internal/report"
	"github.com/hanhtrang/lop1-engine/internal/roster"
)

// Server holds the handler dependencies.
type Server struct {
	leaderboard leaderboard.Store
	snapshots   progress.SnapshotStore
	roster      roster.Store
	lessons     *lesson.Loader
	grading     grading.Analyzer
	feed        *Feed
	classID     string
	now         func() time.Time
}

// Config collects the dependencies a Server needs.
type Config struct {
	Leaderboard leaderboard.Store
	Snapshots   progress.SnapshotStore
	Roster      roster.Store
	Lessons     *lesson.Loader
	// Grading is optional; nil disables the grade endpoint.
	Grading grading.Analyzer
	ClassID string
	// Now is the clock; defaults to time.Now.
	Now func() time.Time
}

// New creates a Server.
func New(cfg Config) *Server {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	classID := cfg.ClassID
	if classID == "" {
		classID = roster.DefaultClassID
	}
	return &Server{
		leaderboard: cfg.Leaderboard,
		snapshots:   cfg.Snapshots,
		roster:      cfg.Roster,
		lessons:     cfg.Lessons,
		grading:     cfg.Grading,
		feed:        NewFeed(),
		classID:     classID,
		now:         now,
	}
}

// Mux returns the HTTP router for the server.
func (s *Server) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/leaderboard", s.handleLeaderboardGet)
	mux.HandleFunc("POST /api/leaderboard", s.handleLeaderboardPost)
	mux.HandleFunc("GET /api/progress", s.handleProgressGet)
	mux.HandleFunc("POST /api/progress", s.handleProgressPost)
	mux.HandleFunc("GET /api/students", s.handleStudents)
	mux.HandleFunc("GET /api/lessons", s.handleLessons)
	mux.HandleFunc("POST /api/grade", s.handleGrade)
	mux.HandleFunc("GET /api/report", s.handleReport)
	mux.Handle("GET /api/feed", s.feed)
	mux.HandleFunc("GET /healthz", handleHealthz)
	mux.HandleFunc("GET /readyz", handleReadyz)
	return mux
}

func (s *Server) handleLeaderboardGet(w http.ResponseWriter, r *http.Request) {
	n := leaderboard.DefaultTopN
	if v := r.URL.Query().Get("n"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "n must be a positive integer")
			return
		}
		n = parsed
	}

	entries, err := s.leaderboard.Top(r.Context(), n)
	if err != nil {
		slog.Error("leaderboard read failed", "error", err)
		writeError(w, http.StatusInternalServerError, "leaderboard unavailable")
		return
	}
	if entries == nil {
		entries = []leaderboard.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleLeaderboardPost(w http.ResponseWriter, r *http.Request) {
	var sum leaderboard.Summary
	if err := json.NewDecoder(r.Body).Decode(&sum); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if sum.Username == "" {
		writeError(w, http.StatusBadRequest, "username is required")
		return
	}
	if sum.Points < 0 || sum.LessonsCompleted < 0 {
		writeError(w, http.StatusBadRequest, "points and lessonsCompleted must be non-negative")
		return
	}

	if err := s.leaderboard.Upsert(r.Context(), sum); err != nil {
		slog.Error("leaderboard upsert failed", "username", sum.Username, "error", err)
		writeError(w, http.StatusInternalServerError, "leaderboard unavailable")
		return
	}

	s.feed.Broadcast(FeedEvent{Type: "leaderboard", Summary: sum})
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleProgressGet(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	data, ok, err := s.snapshots.Get(r.Context(), userID)
	if err != nil {
		slog.Error("snapshot read failed", "userId", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "progress unavailable")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "no progress for user")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// handleProgressPost stores a device record snapshot. The body must be a
// valid serialized record: a malformed upload is rejected here instead of
// surfacing later as a corrupt snapshot.
func (s *Server) handleProgressPost(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	body := http.MaxBytesReader(w, r.Body, 1<<20)
	var raw json.RawMessage
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := progress.ValidateRecordJSON(raw); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid record: %v", err))
		return
	}

	if err := s.snapshots.Put(r.Context(), userID, raw); err != nil {
		slog.Error("snapshot write failed", "userId", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "progress unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStudents(w http.ResponseWriter, r *http.Request) {
	classID := r.URL.Query().Get("classId")
	if classID == "" {
		classID = s.classID
	}

	students, err := s.roster.ListByClass(r.Context(), classID)
	if err != nil {
		slog.Error("roster read failed", "classId", classID, "error", err)
		writeError(w, http.StatusInternalServerError, "roster unavailable")
		return
	}
	if students == nil {
		students = []roster.Student{}
	}
	writeJSON(w, http.StatusOK, students)
}

func (s *Server) handleLessons(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.lessons.All())
}

// gradeRequest is the recording a device submits for grading.
type gradeRequest struct {
	ExpectedText string `json:"expectedText"`
	AudioBase64  string `json:"audioBase64"`
	MIMEType     string `json:"mimeType"`
}

// handleGrade forwards a recording to the speech grading service. The
// analyzer itself degrades failures to a zero-accuracy result, so this
// handler only fails on malformed input or a missing analyzer.
func (s *Server) handleGrade(w http.ResponseWriter, r *http.Request) {
	if s.grading == nil {
		writeError(w, http.StatusServiceUnavailable, "grading is not configured")
		return
	}

	body := http.MaxBytesReader(w, r.Body, 8<<20)
	var req gradeRequest
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ExpectedText == "" {
		writeError(w, http.StatusBadRequest, "expectedText is required")
		return
	}
	audio, err := base64.StdEncoding.DecodeString(req.AudioBase64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "audioBase64 is not valid base64")
		return
	}

	result := s.grading.Analyze(r.Context(), grading.Request{
		ExpectedText: req.ExpectedText,
		Audio:        audio,
		MIMEType:     req.MIMEType,
	})
	writeJSON(w, http.StatusOK, result)
}

// handleReport streams the class progress workbook. Snapshot records that
// fail validation render as zero rows, same as students who never uploaded.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	classID := r.URL.Query().Get("classId")
	if classID == "" {
		classID = s.classID
	}

	students, err := s.roster.ListByClass(r.Context(), classID)
	if err != nil {
		slog.Error("roster read failed", "classId", classID, "error", err)
		writeError(w, http.StatusInternalServerError, "roster unavailable")
		return
	}
	snapshots, err := s.snapshots.All(r.Context())
	if err != nil {
		slog.Error("snapshot read failed", "error", err)
		writeError(w, http.StatusInternalServerError, "progress unavailable")
		return
	}

	records := make(map[string]progress.Record, len(snapshots))
	for _, st := range students {
		data, ok := snapshots[st.ID]
		if !ok {
			continue
		}
		records[st.ID] = progress.DecodeRecord(data, st.Username, s.now())
	}

	f, err := report.Render(classID, report.BuildRows(students, records))
	if err != nil {
		slog.Error("report render failed", "classId", classID, "error", err)
		writeError(w, http.StatusInternalServerError, "report unavailable")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", "tien-do-lop-"+classID+".xlsx"))
	if err := f.Write(w); err != nil {
		slog.Warn("report write aborted", "error", err)
	}
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleReadyz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("response write failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
