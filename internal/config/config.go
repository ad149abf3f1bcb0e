// Package config manages the shared JSON configuration document. The CLIs
// and the scheduler daemon read and write the same file; the scheduler
// re-reads it every cycle, so edits take effect without a restart.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"dex-liquidity-lab/internal/domain"
)

// DefaultPath is the configuration file used when none is specified.
const DefaultPath = "config.json"

// DefaultScheduleIntervalSecs is the sweep interval for a fresh document.
const DefaultScheduleIntervalSecs int64 = 900

// Document is the on-disk configuration. Heartbeat and error fields are
// written back by the scheduler; everything else is operator-edited.
type Document struct {
	PairAddresses          []string `json:"pair_addresses"`
	LadderValues           []int64  `json:"ladder_values"`
	LadderBaselineUSD      int64    `json:"ladder_baseline_usd"`
	ScheduleEnabled        bool     `json:"schedule_enabled"`
	ScheduleIntervalSecs   int64    `json:"schedule_interval_secs"`
	LastSchedulerHeartbeat int64    `json:"last_scheduler_heartbeat"`
	LastSchedulerError     string   `json:"last_scheduler_error"`
}

// EnsureDefaults fills zero-valued operational fields in place.
func (d *Document) EnsureDefaults() {
	if len(d.LadderValues) == 0 {
		d.LadderValues = append([]int64(nil), domain.DefaultUSDLadder...)
	}
	if d.LadderBaselineUSD <= 0 {
		d.LadderBaselineUSD = domain.DefaultBaselineUSD
	}
	if d.ScheduleIntervalSecs <= 0 {
		d.ScheduleIntervalSecs = DefaultScheduleIntervalSecs
	}
	if d.PairAddresses == nil {
		d.PairAddresses = []string{}
	}
}

// FileStore reads and writes a Document at a fixed path. The mutex
// serializes writers within this process; saves are atomic (temp file plus
// rename) so concurrent readers never observe a torn document.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a store for the given path.
func NewFileStore(path string) *FileStore {
	if path == "" {
		path = DefaultPath
	}
	return &FileStore{path: path}
}

// Load reads the document. A missing file yields a default document rather
// than an error, so first runs need no setup step.
func (s *FileStore) Load() (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *FileStore) load() (*Document, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		doc := &Document{}
		doc.EnsureDefaults()
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", s.path, err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", s.path, err)
	}
	doc.EnsureDefaults()
	return &doc, nil
}

// Save writes the document atomically.
func (s *FileStore) Save(doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(doc)
}

func (s *FileStore) save(doc *Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".config-*.json")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp config: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace config %s: %w", s.path, err)
	}
	return nil
}

// Update applies fn to the current document and saves the result, all under
// the writer lock. Used for scheduler heartbeat and error write-back.
func (s *FileStore) Update(fn func(*Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		return err
	}
	return s.save(doc)
}
