package internal

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// LlavaCppModel captions images with a local llava.cpp build.
type LlavaCppModel struct {
	config    LlavaCppConfig
	maxLength int

	// Only one inference at a time: the model does not fit in memory twice.
	mutex sync.Mutex
}

func NewLlavaCppModel(maxLength int, c LlavaCppConfig) (*LlavaCppModel, error) {
	m := &LlavaCppModel{config: c, maxLength: maxLength}
	if err := m.Health(context.Background()); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *LlavaCppModel) Name() string {
	return "llavacpp:" + filepath.Base(m.config.Model)
}

func (m *LlavaCppModel) Caption(ctx context.Context, img *Image) ([]string, error) {
	// Run on the bytes the loader validated, never on the reference.
	tmp, err := os.CreateTemp("", "caption-*."+img.Format)
	if err != nil {
		return nil, InternalError(err, "cannot create temp file")
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(img.Data); err != nil {
		tmp.Close()
		return nil, InternalError(err, "cannot write temp file")
	}
	if err := tmp.Close(); err != nil {
		return nil, InternalError(err, "cannot write temp file")
	}
	path := tmp.Name()

	m.mutex.Lock()
	defer m.mutex.Unlock()

	var out, stderr bytes.Buffer
	cmd := m.command(ctx, path)
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, UnavailableError(ctx.Err(), "llava.cpp interrupted")
		}
		return nil, InternalError(err, "llava.cpp failed: %s", lastLine(stderr.String()))
	}

	caption := removeLoaderOutput(out.String())
	if caption == "" {
		return []string{}, nil
	}
	return []string{caption}, nil
}

func (m *LlavaCppModel) command(ctx context.Context, imagePath string) *exec.Cmd {
	return exec.CommandContext(ctx,
		m.config.Binary,
		"-m", m.config.Model,
		"--mmproj", m.config.Projection,
		"--image", imagePath,
		"--temp", strconv.FormatFloat(m.config.Temp, 'f', -1, 64),
		"-n", strconv.Itoa(m.maxLength),
		"-p", m.config.Prompt,
	)
}

func (m *LlavaCppModel) Health(ctx context.Context) error {
	for _, path := range []string{m.config.Binary, m.config.Model, m.config.Projection} {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("llava.cpp: %w", err)
		}
	}
	return nil
}

// removeLoaderOutput drops everything llava.cpp prints before the generated text.
func removeLoaderOutput(result string) string {
	const anchor = "per image patch)"
	if i := strings.Index(result, anchor); i != -1 {
		result = result[i+len(anchor):]
	}
	return strings.TrimSpace(result)
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return lines[len(lines)-1]
}
