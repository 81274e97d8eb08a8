package log

import (
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"
)

func writeEvents(t *testing.T, events ...Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.blog")
	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	for _, ev := range events {
		logger.Log(ev)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	return path
}

func TestReaderFilters(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	path := writeEvents(t,
		Event{Timestamp: base, LoadID: "l1", Kind: KindLoaded, BlockID: "nio/I2CBase", Source: "builtin"},
		Event{Timestamp: base.Add(time.Second), LoadID: "l1", Kind: KindWarning, BlockID: "nio/HTU21D", Source: "dir"},
		Event{Timestamp: base.Add(2 * time.Second), LoadID: "l2", Kind: KindRejected, Source: "dir"},
		Event{Timestamp: base.Add(3 * time.Second), LoadID: "l2", Kind: KindLoaded, BlockID: "nio/I2CBase", Source: "builtin"},
	)

	loaded := KindLoaded
	start := base.Add(time.Second)
	end := base.Add(3 * time.Second)

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"all", Filter{}, 4},
		{"by load", Filter{LoadID: "l2"}, 2},
		{"by kind", Filter{Kind: &loaded}, 2},
		{"by block", Filter{BlockID: "nio/HTU21D"}, 1},
		{"by source", Filter{Source: "dir"}, 2},
		{"by time window", Filter{TimeStart: &start, TimeEnd: &end}, 2},
		{"combined", Filter{Kind: &loaded, LoadID: "l1"}, 1},
		{"no match", Filter{BlockID: "nio/Nothing"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewFilteredReader(path, tt.filter)
			if err != nil {
				t.Fatalf("NewFilteredReader failed: %v", err)
			}
			defer r.Close()

			events, err := r.ReadAll()
			if err != nil {
				t.Fatalf("ReadAll failed: %v", err)
			}
			if len(events) != tt.want {
				t.Errorf("got %d events, want %d", len(events), tt.want)
			}
		})
	}
}

func TestReaderNextEOF(t *testing.T) {
	path := writeEvents(t, Event{Kind: KindLoaded})
	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer r.Close()

	if _, err := r.Next(); err != nil {
		t.Fatalf("first Next failed: %v", err)
	}
	if _, err := r.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("second Next = %v, want io.EOF", err)
	}
}

func TestNewReaderMissingFile(t *testing.T) {
	if _, err := NewReader(filepath.Join(t.TempDir(), "nope.blog")); err == nil {
		t.Error("NewReader should fail for a missing file")
	}
}
