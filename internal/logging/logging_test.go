package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ironsheep/keypoint-annotator/internal/geometry"
	"github.com/ironsheep/keypoint-annotator/internal/session"
)

func decodeLine(t *testing.T, data []byte) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &entry); err != nil {
		t.Fatalf("failed to parse log output %q: %v", data, err)
	}
	return entry
}

func TestNew_Levels(t *testing.T) {
	tests := []struct {
		level     string
		debugSeen bool
		infoSeen  bool
	}{
		{"debug", true, true},
		{"INFO", false, true},
		{"warn", false, false},
		{"", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger, err := New(tt.level, &buf)
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}
			logger.Debug().Msg("d")
			if got := buf.Len() > 0; got != tt.debugSeen {
				t.Errorf("debug written = %v, want %v", got, tt.debugSeen)
			}
			buf.Reset()
			logger.Info().Msg("i")
			if got := buf.Len() > 0; got != tt.infoSeen {
				t.Errorf("info written = %v, want %v", got, tt.infoSeen)
			}
		})
	}
}

func TestNew_JSONForNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("info", &buf)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	logger.Info().Str("k", "v").Msg("hello")

	entry := decodeLine(t, buf.Bytes())
	if entry["message"] != "hello" || entry["k"] != "v" || entry["level"] != "info" {
		t.Errorf("entry = %v", entry)
	}
	if _, ok := entry["time"]; !ok {
		t.Error("entry has no timestamp")
	}
}

func TestNew_InvalidLevel(t *testing.T) {
	if _, err := New("loud", &bytes.Buffer{}); err == nil {
		t.Error("expected error for invalid level")
	}
}

func TestSaveLogger_Record(t *testing.T) {
	var buf bytes.Buffer
	logger, _ := New("info", &buf)
	sink := NewSaveLogger(logger)

	var _ session.SaveSink = sink

	rec := session.SaveRecord{
		SessionID:  "s-1",
		ImageIndex: 2,
		ImageRef:   "sample-rotated",
		Centers: map[string]geometry.Point{
			"Nose":   {X: 10, Y: 20},
			"Throat": {X: 30.5, Y: 40},
		},
		At: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := sink.Record(context.Background(), rec); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	entry := decodeLine(t, buf.Bytes())
	if entry["message"] != "keypoints saved" {
		t.Errorf("message = %v", entry["message"])
	}
	if entry["session"] != "s-1" || entry["image"] != "sample-rotated" {
		t.Errorf("entry = %v", entry)
	}
	if entry["image_index"] != float64(2) || entry["markers"] != float64(2) {
		t.Errorf("image_index/markers = %v/%v", entry["image_index"], entry["markers"])
	}
	centers, ok := entry["centers"].(map[string]any)
	if !ok {
		t.Fatalf("centers = %T", entry["centers"])
	}
	throat, ok := centers["Throat"].(map[string]any)
	if !ok || throat["x"] != 30.5 || throat["y"] != float64(40) {
		t.Errorf("Throat = %v", centers["Throat"])
	}
}

func TestSaveLogger_CanceledContext(t *testing.T) {
	var buf bytes.Buffer
	logger, _ := New("info", &buf)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := NewSaveLogger(logger).Record(ctx, session.SaveRecord{}); err == nil {
		t.Error("expected error for canceled context")
	}
	if buf.Len() != 0 {
		t.Error("canceled record was logged")
	}
}
