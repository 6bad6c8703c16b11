package grading

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPClient_Analyze(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/grade" {
			t.Errorf("path = %q, want /grade", r.URL.Path)
		}
		var req gradeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req.ExpectedText != "bé bê" {
			t.Errorf("expectedText = %q, want %q", req.ExpectedText, "bé bê")
		}
		audio, err := base64.StdEncoding.DecodeString(req.AudioBase64)
		if err != nil || string(audio) != "opus-bytes" {
			t.Errorf("audio round-trip failed: %q, %v", audio, err)
		}
		json.NewEncoder(w).Encode(Result{
			Transcription: "bé bê",
			Feedback:      "Con đọc rất tốt!",
			Accuracy:      95,
		})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL)
	got := c.Analyze(context.Background(), Request{
		ExpectedText: "bé bê",
		Audio:        []byte("opus-bytes"),
		MIMEType:     "audio/webm",
	})

	if got.Accuracy != 95 {
		t.Errorf("Accuracy = %d, want 95", got.Accuracy)
	}
	if got.Transcription != "bé bê" {
		t.Errorf("Transcription = %q, want %q", got.Transcription, "bé bê")
	}
}

func TestHTTPClient_FallbackOnFailure(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
		},
		{
			name: "garbage body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("not json"))
			},
		},
		{
			name: "accuracy out of range",
			handler: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(Result{Accuracy: 150})
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := NewHTTPClient(srv.URL)
			got := c.Analyze(context.Background(), Request{ExpectedText: "a"})
			if got != fallbackResult {
				t.Errorf("Analyze() = %+v, want fallback result", got)
			}
		})
	}
}

func TestHTTPClient_FallbackOnUnreachableService(t *testing.T) {
	c := NewHTTPClient("http://127.0.0.1:1")
	got := c.Analyze(context.Background(), Request{ExpectedText: "a"})
	if got.Accuracy != 0 {
		t.Errorf("Accuracy = %d, want 0", got.Accuracy)
	}
	if got.Feedback == "" {
		t.Error("fallback feedback is empty")
	}
}
