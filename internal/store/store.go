// Package store loads and indexes hail-event snapshots by zipcode.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/stormbuster/hailrisk/internal/domain"
	"github.com/stormbuster/hailrisk/internal/observability"
)

// Load error taxonomy. Both are fatal to the load call, never to the process.
var (
	// ErrSnapshotNotFound means the snapshot file does not exist.
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrSnapshotMalformed means the snapshot as a whole could not be parsed.
	// Individually malformed records are skipped with a warning instead.
	ErrSnapshotMalformed = errors.New("snapshot malformed")
)

// snapshotRecord is the flat JSON shape produced by the upstream snapshot
// job. All values arrive as strings, matching the NOAA CSV origin.
type snapshotRecord struct {
	Date       string `json:"date"`
	Zipcode    string `json:"zipcode"`
	Magnitude  string `json:"magnitude"` // inches; "" or "UNK" = unknown
	Lat        string `json:"lat"`
	Lon        string `json:"lon"`
	Confidence string `json:"confidence"`
}

// Store is the in-memory hail-event index. Events are immutable once loaded;
// insertion order within a zipcode is preserved for reproducible statistics.
type Store struct {
	logger  *slog.Logger
	metrics *observability.Metrics

	events       map[string][]domain.HailEvent
	maxFrequency int
	total        int
	loaded       atomic.Bool
}

// New creates an empty store. Call Load or ReplaceEvents before analysis.
func New(logger *slog.Logger, metrics *observability.Metrics) *Store {
	return &Store{
		logger:  logger,
		metrics: metrics,
		events:  make(map[string][]domain.HailEvent),
	}
}

// Load reads a JSON snapshot file into memory. A single malformed record is
// skipped with a logged warning; only a missing file or an unparsable
// snapshot fails the call.
func (s *Store) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrSnapshotNotFound, path)
		}
		return fmt.Errorf("open snapshot %s: %w", path, err)
	}
	defer f.Close()

	return s.loadReader(f, path)
}

func (s *Store) loadReader(r io.Reader, source string) error {
	var records []snapshotRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrSnapshotMalformed, source, err)
	}

	events := make([]domain.HailEvent, 0, len(records))
	skipped := 0
	for i, rec := range records {
		event, err := parseRecord(rec)
		if err != nil {
			skipped++
			s.logger.Warn("skipping malformed snapshot record",
				"source", source,
				"index", i,
				"error", err,
			)
			continue
		}
		events = append(events, event)
	}

	if skipped > 0 {
		s.metrics.SnapshotSkipped.Add(float64(skipped))
	}
	s.ReplaceEvents(events)

	s.logger.Info("snapshot loaded",
		"source", source,
		"events", len(events),
		"zipcodes", len(s.events),
		"skipped", skipped,
	)
	return nil
}

// ReplaceEvents indexes a caller-supplied event snapshot, discarding any
// previously loaded data.
func (s *Store) ReplaceEvents(events []domain.HailEvent) {
	index := make(map[string][]domain.HailEvent)
	for _, e := range events {
		index[e.Zipcode] = append(index[e.Zipcode], e)
	}

	maxFreq := 0
	for _, zipEvents := range index {
		if len(zipEvents) > maxFreq {
			maxFreq = len(zipEvents)
		}
	}

	s.events = index
	s.maxFrequency = maxFreq
	s.total = len(events)
	s.metrics.SnapshotEvents.Set(float64(len(events)))
	s.loaded.Store(true)
}

// EventsFor returns the events recorded for a zipcode in insertion order.
// An unknown zipcode yields an empty slice: "no events" is a valid state,
// not a failure.
func (s *Store) EventsFor(zipcode string) []domain.HailEvent {
	events := s.events[zipcode]
	out := make([]domain.HailEvent, len(events))
	copy(out, events)
	return out
}

// Zipcodes returns every known zipcode in ascending order.
func (s *Store) Zipcodes() []string {
	zips := make([]string, 0, len(s.events))
	for zip := range s.events {
		zips = append(zips, zip)
	}
	sort.Strings(zips)
	return zips
}

// MaxFrequency returns the largest per-zipcode event count in the snapshot,
// used to normalize frequency so scores are comparable across zipcodes.
func (s *Store) MaxFrequency() int {
	return s.maxFrequency
}

// EventCount returns the total number of loaded events.
func (s *Store) EventCount() int {
	return s.total
}

// Loaded reports whether a snapshot has been indexed.
func (s *Store) Loaded() bool {
	return s.loaded.Load()
}

// parseRecord converts one snapshot record into a HailEvent. It returns an
// error for records the caller should skip: missing zipcode, unparseable
// date, or a negative magnitude.
func parseRecord(rec snapshotRecord) (domain.HailEvent, error) {
	zipcode := strings.TrimSpace(rec.Zipcode)
	if zipcode == "" {
		return domain.HailEvent{}, errors.New("missing zipcode")
	}

	date, err := parseDate(rec.Date)
	if err != nil {
		return domain.HailEvent{}, err
	}

	magnitude, err := parseMagnitude(rec.Magnitude)
	if err != nil {
		return domain.HailEvent{}, err
	}

	return domain.HailEvent{
		Date:             date,
		Zipcode:          zipcode,
		Magnitude:        magnitude,
		Lat:              parseFloatOrZero(rec.Lat),
		Lon:              parseFloatOrZero(rec.Lon),
		SourceConfidence: parseFloatOrZero(rec.Confidence),
	}, nil
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errors.New("missing date")
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", raw)
}

// parseMagnitude parses hail diameter in inches. "UNK" and empty mean
// unknown (0). Values >= 10 are legacy hundredths-of-inches encoding and are
// divided by 100; the largest hail on record in the US is ~8 inches.
func parseMagnitude(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "UNK") {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable magnitude %q", raw)
	}
	if v < 0 {
		return 0, fmt.Errorf("negative magnitude %g", v)
	}
	if v >= 10 {
		v /= 100
	}
	return v, nil
}

func parseFloatOrZero(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return v
}
