// Package storage keeps the JSON index of published reports.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// MaxIndexEntries bounds the index; older entries fall off the end.
const MaxIndexEntries = 50

// ReportEntry describes one published report file.
type ReportEntry struct {
	Filename    string    `json:"filename"`
	Title       string    `json:"title"`
	NewsCount   int       `json:"news_count"`
	Timestamp   string    `json:"timestamp"`
	Date        string    `json:"date"`
	GeneratedAt time.Time `json:"generated_at"`
}

// ReportIndex manages published report entries in a JSON file, newest first.
type ReportIndex struct {
	filePath string
	entries  []ReportEntry
	mu       sync.RWMutex
}

func NewReportIndex(filePath string) *ReportIndex {
	return &ReportIndex{filePath: filePath}
}

// Load reads the index file. A missing or empty file leaves the index empty.
func (ri *ReportIndex) Load() error {
	ri.mu.Lock()
	defer ri.mu.Unlock()

	data, err := os.ReadFile(ri.filePath)
	if os.IsNotExist(err) {
		ri.entries = nil
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read report index: %w", err)
	}
	if len(data) == 0 {
		ri.entries = nil
		return nil
	}

	var entries []ReportEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("failed to unmarshal report index: %w", err)
	}
	if len(entries) > MaxIndexEntries {
		entries = entries[:MaxIndexEntries]
	}
	ri.entries = entries
	return nil
}

func (ri *ReportIndex) Save() error {
	ri.mu.RLock()
	entries := ri.entries
	if entries == nil {
		entries = []ReportEntry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	ri.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal report index: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(ri.filePath), 0o755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}
	if err := os.WriteFile(ri.filePath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report index: %w", err)
	}
	return nil
}

// Add puts e at the front, replacing an older entry with the same filename.
func (ri *ReportIndex) Add(e ReportEntry) {
	ri.mu.Lock()
	defer ri.mu.Unlock()

	kept := make([]ReportEntry, 0, len(ri.entries)+1)
	kept = append(kept, e)
	for _, old := range ri.entries {
		if old.Filename != e.Filename {
			kept = append(kept, old)
		}
	}
	if len(kept) > MaxIndexEntries {
		kept = kept[:MaxIndexEntries]
	}
	ri.entries = kept
}

func (ri *ReportIndex) Entries() []ReportEntry {
	ri.mu.RLock()
	defer ri.mu.RUnlock()
	return append([]ReportEntry(nil), ri.entries...)
}

// JSON returns the entries as they are embedded into the index page.
func (ri *ReportIndex) JSON() ([]byte, error) {
	entries := ri.Entries()
	if entries == nil {
		entries = []ReportEntry{}
	}
	return json.Marshal(entries)
}

func (ri *ReportIndex) GetStats() map[string]int {
	ri.mu.RLock()
	defer ri.mu.RUnlock()
	return map[string]int{
		"total_reports": len(ri.entries),
	}
}
