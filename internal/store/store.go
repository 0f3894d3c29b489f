// Package store persists the outline document and the small amount of
// session state kept next to it.
package store

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/charmbracelet/log"
	"github.com/natefinch/atomic"
	"github.com/oklog/ulid/v2"
)

type randReader struct{}

func (randReader) Read(p []byte) (int, error) { return rand.Read(p) }

var (
	ErrNotFound = errors.New("not found")
	timeNow     = func() time.Time { return time.Now().UTC() }
)

// File stores the outline as a plain text file, one line per entry.
type File struct {
	Path string
}

// NewFile returns a store for path; a leading ~/ is expanded.
func NewFile(path string) *File {
	return &File{Path: ExpandHome(path)}
}

// Load reads the file. Trailing whitespace is stripped from every line.
func (f *File) Load() ([]string, error) {
	b, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, f.Path)
		}
		return nil, err
	}
	text := strings.ReplaceAll(string(b), "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return []string{}, nil
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRightFunc(line, unicode.IsSpace)
	}
	return lines, nil
}

// Sync rewrites the file atomically. When Path is a symlink the link
// target is replaced, leaving the link in place.
func (f *File) Sync(lines []string) error {
	target, err := f.target()
	if err != nil {
		return err
	}
	log.Debug("syncing", "path", target, "lines", len(lines))
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	// Rename is atomic on same filesystem.
	return atomic.WriteFile(target, strings.NewReader(b.String()))
}

func (f *File) target() (string, error) {
	fi, err := os.Lstat(f.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return f.Path, nil
		}
		return "", err
	}
	if fi.Mode()&fs.ModeSymlink == 0 {
		return f.Path, nil
	}
	return filepath.EvalSymlinks(f.Path)
}

// Memory keeps the document in memory. It is safe for concurrent use.
type Memory struct {
	mu    sync.Mutex
	lines []string
	syncs int
}

func NewMemory(lines []string) *Memory {
	return &Memory{lines: append([]string{}, lines...)}
}

func (m *Memory) Load() ([]string, error) {
	return m.Lines(), nil
}

func (m *Memory) Sync(lines []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines = append([]string{}, lines...)
	m.syncs++
	return nil
}

// Lines returns a copy of the last synced document.
func (m *Memory) Lines() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.lines...)
}

// Syncs counts calls to Sync.
func (m *Memory) Syncs() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.syncs
}

// NewID returns an upper-case ULID.
func NewID() string {
	t := ulid.Timestamp(timeNow())
	entropy := ulid.Monotonic(randReader{}, 0)
	id, err := ulid.New(t, entropy)
	if err != nil {
		// fallback
		return fmt.Sprintf("%d", timeNow().UnixNano())
	}
	return strings.ToUpper(id.String())
}

// ExpandHome replaces a leading ~/ with the user's home directory.
func ExpandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil || home == "" {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
