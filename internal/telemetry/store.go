package telemetry

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
)

// Record is one telemetry observation from the dataset.
//
// Fields holds every numeric field of the source row, keyed by its JSON name.
// Latency extraction (including the field-name fallback chain) is the metrics
// engine's job, not the store's — a row whose latency field is absent or
// non-numeric is still a valid Record, it just never enters a working set.
type Record struct {
	Region string
	Fields map[string]float64
}

// Options controls region matching behavior.
type Options struct {
	// CaseInsensitive folds both stored and queried region names before
	// comparison. Default is exact matching.
	CaseInsensitive bool
}

// RegionCount is one region's record tally, as returned by Regions.
type RegionCount struct {
	Region  string
	Records int
}

// Store holds the telemetry dataset. Lookups are lock-protected reads;
// the record set itself is never mutated — Reload replaces it wholesale.
type Store struct {
	path string
	opts Options

	mu       sync.RWMutex
	records  []Record
	byRegion map[string][]Record
}

// Load reads the JSON dataset at path into a Store.
//
// Load never fails: if the file is absent, unreadable, or malformed, the
// returned Store is empty and the error is logged. The server must come up
// with degraded data rather than refuse to start.
func Load(path string, opts Options) *Store {
	s := &Store{path: path, opts: opts}

	records, err := readDataset(path)
	if err != nil {
		slog.Warn("telemetry: dataset load failed — starting with empty dataset",
			"path", path, "err", err)
		records = nil
	}
	s.swap(records)

	slog.Info("telemetry: dataset loaded",
		"path", path, "records", len(records))
	return s
}

// FromRecords builds a Store directly from records, bypassing file I/O.
// Used by tests and callers with synthetic datasets.
func FromRecords(records []Record, opts Options) *Store {
	s := &Store{opts: opts}
	s.swap(records)
	return s
}

// RecordsFor returns all records whose region matches region under the
// configured case policy, in dataset order. Unknown regions return nil.
// Callers must not modify the returned slice.
func (s *Store) RecordsFor(region string) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byRegion[s.key(region)]
}

// Regions returns the distinct regions in the dataset with their record
// counts, sorted by region name.
func (s *Store) Regions() []RegionCount {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]RegionCount, 0, len(s.byRegion))
	for region, recs := range s.byRegion {
		out = append(out, RegionCount{Region: region, Records: len(recs)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Region < out[j].Region })
	return out
}

// Count returns the total number of records held.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Path returns the dataset file path the store was loaded from.
func (s *Store) Path() string { return s.path }

// Reload re-reads the dataset file and atomically replaces the record set.
// On failure the previous records stay active and the error is returned.
func (s *Store) Reload() error {
	if s.path == "" {
		return fmt.Errorf("telemetry: store has no dataset path")
	}
	records, err := readDataset(s.path)
	if err != nil {
		return err
	}
	s.swap(records)
	return nil
}

// swap replaces the record set and rebuilds the region index.
func (s *Store) swap(records []Record) {
	byRegion := make(map[string][]Record, 16)
	for _, r := range records {
		k := s.key(r.Region)
		byRegion[k] = append(byRegion[k], r)
	}

	s.mu.Lock()
	s.records = records
	s.byRegion = byRegion
	s.mu.Unlock()
}

func (s *Store) key(region string) string {
	if s.opts.CaseInsensitive {
		return strings.ToLower(region)
	}
	return region
}

// readDataset reads and parses the JSON dataset at path.
func readDataset(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", path, err)
	}
	return parseDataset(data)
}

// parseDataset decodes a JSON array of telemetry rows. A row must carry a
// string "region" field to be kept; everything else is optional. Numeric
// fields are retained as-is, non-numeric fields are dropped — downstream
// consumers treat an absent value as absent, never as zero.
func parseDataset(data []byte) ([]Record, error) {
	var rows []map[string]any
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parse dataset json: %w", err)
	}

	records := make([]Record, 0, len(rows))
	skipped := 0
	for _, row := range rows {
		region, ok := row["region"].(string)
		if !ok || region == "" {
			skipped++
			continue
		}

		fields := make(map[string]float64, len(row))
		for k, v := range row {
			if n, ok := v.(float64); ok {
				fields[k] = n
			}
		}
		records = append(records, Record{Region: region, Fields: fields})
	}

	if skipped > 0 {
		slog.Warn("telemetry: dropped rows without a region field", "count", skipped)
	}
	return records, nil
}
