package store

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"
)

const settingsFile = "state.yaml"

// Settings is the session state kept between invocations.
type Settings struct {
	Contexts  []string   `yaml:"contexts"`
	LastOrder *LastOrder `yaml:"last_order,omitempty"`
}

// LastOrder records the order most recently announced.
type LastOrder struct {
	ID   string    `yaml:"id"`
	Text string    `yaml:"text"`
	At   time.Time `yaml:"at"`
}

type SettingsStore struct {
	Dir string
}

func NewSettingsStore(dir string) *SettingsStore {
	return &SettingsStore{Dir: ExpandHome(dir)}
}

func (s *SettingsStore) Path() string {
	return filepath.Join(s.Dir, settingsFile)
}

// Load returns empty settings when none have been saved yet.
func (s *SettingsStore) Load() (Settings, error) {
	var st Settings
	b, err := os.ReadFile(s.Path())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return st, nil
		}
		return st, err
	}
	if err := yaml.Unmarshal(b, &st); err != nil {
		return Settings{}, err
	}
	return st, nil
}

func (s *SettingsStore) Save(st Settings) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(st)
	if err != nil {
		return err
	}
	return atomic.WriteFile(s.Path(), strings.NewReader(string(b)))
}

// SetContexts replaces the stored contexts, upper-cased.
func (s *SettingsStore) SetContexts(contexts []string) error {
	st, err := s.Load()
	if err != nil {
		return err
	}
	st.Contexts = make([]string, 0, len(contexts))
	for _, c := range contexts {
		if c = strings.ToUpper(strings.TrimSpace(c)); c != "" {
			st.Contexts = append(st.Contexts, c)
		}
	}
	return s.Save(st)
}

// RecordOrder stores text as the last order under a fresh ID.
func (s *SettingsStore) RecordOrder(text string) (LastOrder, error) {
	st, err := s.Load()
	if err != nil {
		return LastOrder{}, err
	}
	lo := LastOrder{ID: NewID(), Text: text, At: timeNow()}
	st.LastOrder = &lo
	return lo, s.Save(st)
}
