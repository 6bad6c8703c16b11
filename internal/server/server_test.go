package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hanhtrang/lop1-engine/internal/grading"
	"github.com/hanhtrang/lop1-engine/internal/leaderboard"
	"github.com/hanhtrang/lop1-engine/internal/lesson"
	"github.com/hanhtrang/lop1-engine/internal/progress"
	"github.com/hanhtrang/lop1-engine/internal/roster"
)

var testNow = time.Date(2026, 3, 15, 9, 30, 0, 0, time.UTC)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()

	dir := t.TempDir()
	lessonYAML := "id: l1\ntitle: Âm e\nkind: sound\nmain: e\norder: 1\n"
	if err := os.WriteFile(filepath.Join(dir, "l1.yaml"), []byte(lessonYAML), 0o644); err != nil {
		t.Fatalf("writing lesson file: %v", err)
	}
	lessons, err := lesson.NewLoader(dir)
	if err != nil {
		t.Fatalf("NewLoader() error = %v", err)
	}

	rost := roster.NewMemoryStore()
	if err := roster.Seed(context.Background(), rost); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}

	s := New(Config{
		Leaderboard: leaderboard.NewMemoryStore(),
		Snapshots:   progress.NewMemorySnapshotStore(),
		Roster:      rost,
		Lessons:     lessons,
		Grading: grading.NewMockAnalyzer(grading.Result{
			Transcription: "bé bê",
			Feedback:      "Con đọc rất tốt!",
			Accuracy:      95,
		}),
		ClassID: "1A3",
		Now:     func() time.Time { return testNow },
	})
	ts := httptest.NewServer(s.Mux())
	t.Cleanup(ts.Close)
	return s, ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshaling body: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func TestLeaderboard_PostThenGet(t *testing.T) {
	_, ts := newTestServer(t)

	for _, sum := range []leaderboard.Summary{
		{Username: "hs01", Points: 230, LessonsCompleted: 1},
		{Username: "hs02", Points: 480, LessonsCompleted: 2},
	} {
		resp := postJSON(t, ts.URL+"/api/leaderboard", sum)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("POST /api/leaderboard status = %d", resp.StatusCode)
		}
		resp.Body.Close()
	}

	resp, err := http.Get(ts.URL + "/api/leaderboard")
	if err != nil {
		t.Fatalf("GET /api/leaderboard: %v", err)
	}
	defer resp.Body.Close()

	var entries []leaderboard.Entry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Username != "hs02" {
		t.Errorf("top entry = %q, want hs02", entries[0].Username)
	}
	if entries[0].LessonsCompleted != 2 {
		t.Errorf("top lessons_completed = %d, want 2", entries[0].LessonsCompleted)
	}
}

func TestLeaderboard_GetEmptyIsJSONArray(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/leaderboard")
	if err != nil {
		t.Fatalf("GET /api/leaderboard: %v", err)
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	if got := strings.TrimSpace(buf.String()); got != "[]" {
		t.Errorf("empty leaderboard body = %q, want []", got)
	}
}

func TestLeaderboard_PostRejectsBadInput(t *testing.T) {
	_, ts := newTestServer(t)

	tests := []struct {
		name string
		body any
	}{
		{"missing username", leaderboard.Summary{Points: 10}},
		{"negative points", leaderboard.Summary{Username: "hs01", Points: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, ts.URL+"/api/leaderboard", tt.body)
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
		})
	}
}

func TestProgress_RoundTrip(t *testing.T) {
	_, ts := newTestServer(t)

	rec := progress.NewRecord("hs01", testNow)
	data, err := progress.EncodeRecord(rec)
	if err != nil {
		t.Fatalf("EncodeRecord() error = %v", err)
	}

	resp, err := http.Post(ts.URL+"/api/progress?userId=hs01", "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST /api/progress: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST /api/progress status = %d", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/api/progress?userId=hs01")
	if err != nil {
		t.Fatalf("GET /api/progress: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /api/progress status = %d", resp.StatusCode)
	}

	var got progress.Record
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decoding snapshot: %v", err)
	}
	if got.Username != "hs01" {
		t.Errorf("snapshot username = %q, want hs01", got.Username)
	}
}

func TestProgress_GetUnknownUserIs404(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/progress?userId=hs99")
	if err != nil {
		t.Fatalf("GET /api/progress: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestProgress_PostRejectsInvalidRecord(t *testing.T) {
	_, ts := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"not json", "not json at all"},
		{"wrong shape", `{"points":"many"}`},
		{"missing userId param", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url := ts.URL + "/api/progress?userId=hs01"
			if tt.name == "missing userId param" {
				url = ts.URL + "/api/progress"
				tt.body = `{}`
			}
			resp, err := http.Post(url, "application/json", strings.NewReader(tt.body))
			if err != nil {
				t.Fatalf("POST: %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
		})
	}
}

func TestStudents_DefaultClass(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/students")
	if err != nil {
		t.Fatalf("GET /api/students: %v", err)
	}
	defer resp.Body.Close()

	var students []roster.Student
	if err := json.NewDecoder(resp.Body).Decode(&students); err != nil {
		t.Fatalf("decoding students: %v", err)
	}
	if len(students) != 29 {
		t.Errorf("got %d students, want 29", len(students))
	}
}

func TestStudents_UnknownClassIsEmptyArray(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/students?classId=9Z9")
	if err != nil {
		t.Fatalf("GET /api/students: %v", err)
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	if got := strings.TrimSpace(buf.String()); got != "[]" {
		t.Errorf("body = %q, want []", got)
	}
}

func TestLessons_ListsCatalog(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/lessons")
	if err != nil {
		t.Fatalf("GET /api/lessons: %v", err)
	}
	defer resp.Body.Close()

	var lessons []lesson.Lesson
	if err := json.NewDecoder(resp.Body).Decode(&lessons); err != nil {
		t.Fatalf("decoding lessons: %v", err)
	}
	if len(lessons) != 1 || lessons[0].ID != "l1" {
		t.Errorf("lessons = %+v, want one lesson l1", lessons)
	}
}

func TestGrade_ReturnsAnalyzerResult(t *testing.T) {
	_, ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/grade", map[string]string{
		"expectedText": "bé bê",
		"audioBase64":  base64.StdEncoding.EncodeToString([]byte("opus-bytes")),
		"mimeType":     "audio/webm",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST /api/grade status = %d", resp.StatusCode)
	}
	var result grading.Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	if result.Accuracy != 95 || result.Transcription != "bé bê" {
		t.Errorf("result = %+v", result)
	}
}

func TestGrade_RejectsBadInput(t *testing.T) {
	_, ts := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"not json", "not json"},
		{"missing expectedText", `{"audioBase64":""}`},
		{"bad base64", `{"expectedText":"bé bê","audioBase64":"!!!"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(ts.URL+"/api/grade", "application/json", strings.NewReader(tt.body))
			if err != nil {
				t.Fatalf("POST: %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
		})
	}
}

func TestGrade_UnconfiguredIs503(t *testing.T) {
	s := New(Config{
		Leaderboard: leaderboard.NewMemoryStore(),
		Snapshots:   progress.NewMemorySnapshotStore(),
		Roster:      roster.NewMemoryStore(),
	})
	ts := httptest.NewServer(s.Mux())
	t.Cleanup(ts.Close)

	resp := postJSON(t, ts.URL+"/api/grade", map[string]string{"expectedText": "bé bê"})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
}

func TestReport_DownloadsWorkbook(t *testing.T) {
	_, ts := newTestServer(t)

	rec := progress.NewRecord("hs01", testNow)
	data, _ := progress.EncodeRecord(rec)
	resp, err := http.Post(ts.URL+"/api/progress?userId=hs01", "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST /api/progress: %v", err)
	}
	resp.Body.Close()

	resp, err = http.Get(ts.URL + "/api/report")
	if err != nil {
		t.Fatalf("GET /api/report: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("Content-Type = %q, want xlsx", ct)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("reading body: %v", err)
	}
	// xlsx files are zip archives
	if buf.Len() < 4 || buf.String()[:2] != "PK" {
		t.Error("body does not look like an xlsx file")
	}
}

func TestHealthEndpoints(t *testing.T) {
	_, ts := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s status = %d, want 200", path, resp.StatusCode)
		}
	}
}
