// Package baseline stores resting-state spectral profiles on disk.
//
// Profiles are JSON files named baseline_<width>_<nanos>.json under one
// directory. The most recent profile for a channel width is the last file in
// name-sorted order, which the nanosecond suffix keeps chronological.
package baseline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/banshee-data/breath.report/internal/csi"
	"github.com/banshee-data/breath.report/internal/security"
	"github.com/banshee-data/breath.report/internal/timeutil"
)

// Store is a directory-backed baseline profile store. It implements
// csi.BaselineSource. Reads and writes touch independent files, so one Store
// may serve concurrent runs.
type Store struct {
	dir   string
	clock timeutil.Clock
}

// NewStore creates a store rooted at dir. The directory is created on the
// first save.
func NewStore(dir string) *Store {
	return &Store{dir: dir, clock: timeutil.RealClock{}}
}

// NewStoreWithClock creates a store with an explicit clock, for tests.
func NewStoreWithClock(dir string, clock timeutil.Clock) *Store {
	return &Store{dir: dir, clock: clock}
}

// profileFile is the on-disk JSON layout. Subcarrier columns are keyed by
// their decimal index.
type profileFile struct {
	ChannelWidth string  `json:"channel_width"`
	CreatedAt    string  `json:"created_at"`
	FFTData      fftData `json:"fft_data"`
}

type fftData struct {
	Frequencies []float64            `json:"frequencies"`
	Columns     map[string][]float64 `json:"columns"`
}

// Save writes a new baseline profile for the channel width and returns the
// file path.
func (s *Store) Save(channelWidth string, profile *csi.SpectralProfile) (string, error) {
	if profile == nil {
		return "", fmt.Errorf("nil baseline profile")
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create baseline directory: %w", err)
	}

	data := fftData{
		Frequencies: profile.Frequencies,
		Columns:     make(map[string][]float64, len(profile.Magnitudes)),
	}
	for col, mags := range profile.Magnitudes {
		data.Columns[strconv.Itoa(col)] = mags
	}

	now := s.clock.Now()
	file := profileFile{
		ChannelWidth: channelWidth,
		CreatedAt:    now.Format("2006-01-02T15:04:05Z07:00"),
		FFTData:      data,
	}

	name := fmt.Sprintf("baseline_%s_%d.json", security.SanitizeFilename(channelWidth), now.UnixNano())
	path := filepath.Join(s.dir, name)
	if err := security.ValidatePathWithinDirectory(path, s.dir); err != nil {
		return "", fmt.Errorf("refusing baseline path: %w", err)
	}

	raw, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal baseline profile: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", fmt.Errorf("failed to write baseline profile: %w", err)
	}
	return path, nil
}

// Latest returns the most recent baseline profile for the channel width, or
// nil when none has been recorded. A missing directory counts as no
// baseline, not an error.
func (s *Store) Latest(channelWidth string) (*csi.SpectralProfile, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read baseline directory: %w", err)
	}

	prefix := fmt.Sprintf("baseline_%s_", security.SanitizeFilename(channelWidth))
	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ".json" {
			continue
		}
		if len(name) > len(prefix) && name[:len(prefix)] == prefix {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil, nil
	}
	sort.Strings(names)
	latest := names[len(names)-1]

	raw, err := os.ReadFile(filepath.Join(s.dir, latest))
	if err != nil {
		return nil, fmt.Errorf("failed to read baseline %s: %w", latest, err)
	}
	var file profileFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse baseline %s: %w", latest, err)
	}

	profile := &csi.SpectralProfile{
		Frequencies: file.FFTData.Frequencies,
		Magnitudes:  make(map[int][]float64, len(file.FFTData.Columns)),
	}
	for key, mags := range file.FFTData.Columns {
		col, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("baseline %s has invalid subcarrier key %q", latest, key)
		}
		profile.Magnitudes[col] = mags
		profile.Columns = append(profile.Columns, col)
	}
	sort.Ints(profile.Columns)
	return profile, nil
}
