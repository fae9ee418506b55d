package internal

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
)

func newTestLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

func writePNG(t *testing.T, dir, name string, width, height int) string {
	t.Helper()
	return writeFile(t, dir, name, pngBytes(t, width, height))
}

func translationConfig(mode string) TranslationConfig {
	return TranslationConfig{Backend: "stub", Source: "en", Target: "nl", Mode: mode}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*CaptionEvent
	err    error
}

func (p *recordingPublisher) SendCaptionEvent(event *CaptionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Events() []*CaptionEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*CaptionEvent(nil), p.events...)
}

type recordingStopper struct {
	mu    sync.Mutex
	calls int
}

func (s *recordingStopper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
}

func (s *recordingStopper) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
