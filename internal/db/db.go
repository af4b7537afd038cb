// Package db persists breathing analysis results in SQLite.
package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// DB wraps the SQLite connection holding analysis results.
type DB struct {
	*sql.DB
	path string
}

// NewDB opens (or creates) the results database at path and brings the
// schema up to date.
func NewDB(path string) (*DB, error) {
	db, err := OpenDB(path)
	if err != nil {
		return nil, err
	}
	if err := db.MigrateUp(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

// OpenDB opens the database without touching the schema. Use NewDB unless
// migrations are being managed explicitly (the migrate subcommand).
func OpenDB(path string) (*DB, error) {
	sqldb, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	return &DB{DB: sqldb, path: path}, nil
}

// Analysis is one persisted breathing analysis run.
type Analysis struct {
	ID                  string             `json:"id"`
	DeviceID            string             `json:"device_id"`
	Timestamp           int64              `json:"timestamp"`
	BreathingRate       *float64           `json:"breathing_rate"`
	PeakFrequency       *float64           `json:"peak_frequency"`
	PeakHeight          *float64           `json:"peak_height"`
	SelectedSubcarriers []int              `json:"selected_subcarriers"`
	Similarities        map[string]float64 `json:"similarities"`
	Location            string             `json:"location,omitempty"`
	CollectionDuration  int                `json:"collection_duration"`
	ChannelWidth        string             `json:"channel_width"`
	PacketCount         int                `json:"packet_count"`
	CSIDataCount        int                `json:"csi_data_count"`
	ArchiveCID          string             `json:"archive_cid,omitempty"`
	ProcessedAt         time.Time          `json:"processed_at"`
}

// InsertAnalysis stores a run result and returns its id. An empty ID is
// assigned a fresh UUID.
func (db *DB) InsertAnalysis(a *Analysis) (string, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.SelectedSubcarriers == nil {
		a.SelectedSubcarriers = []int{}
	}
	if a.Similarities == nil {
		a.Similarities = map[string]float64{}
	}

	selected, err := json.Marshal(a.SelectedSubcarriers)
	if err != nil {
		return "", fmt.Errorf("failed to marshal selected subcarriers: %w", err)
	}
	similarities, err := json.Marshal(a.Similarities)
	if err != nil {
		return "", fmt.Errorf("failed to marshal similarities: %w", err)
	}

	_, err = db.Exec(
		`INSERT INTO analyses (
			id, device_id, timestamp, breathing_rate, peak_frequency, peak_height,
			selected_subcarriers, similarities, location, collection_duration,
			channel_width, packet_count, csi_data_count, processed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.DeviceID, a.Timestamp, a.BreathingRate, a.PeakFrequency, a.PeakHeight,
		string(selected), string(similarities), a.Location, a.CollectionDuration,
		a.ChannelWidth, a.PacketCount, a.CSIDataCount, a.ProcessedAt.UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert analysis: %w", err)
	}
	return a.ID, nil
}

// ListFilter narrows ListAnalyses. Nil time bounds are open-ended.
type ListFilter struct {
	StartTime *int64
	EndTime   *int64
	Limit     int
	Offset    int
}

const defaultListLimit = 100

// ListAnalyses returns a device's analyses, newest first.
func (db *DB) ListAnalyses(deviceID string, filter ListFilter) ([]Analysis, error) {
	query := `SELECT id, device_id, timestamp, breathing_rate, peak_frequency, peak_height,
		selected_subcarriers, similarities, location, collection_duration,
		channel_width, packet_count, csi_data_count, archive_cid, processed_at
		FROM analyses WHERE device_id = ?`
	args := []interface{}{deviceID}

	if filter.StartTime != nil {
		query += " AND timestamp >= ?"
		args = append(args, *filter.StartTime)
	}
	if filter.EndTime != nil {
		query += " AND timestamp <= ?"
		args = append(args, *filter.EndTime)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	query += " ORDER BY timestamp DESC, id LIMIT ? OFFSET ?"
	args = append(args, limit, filter.Offset)

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyses: %w", err)
	}
	defer rows.Close()

	var analyses []Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		analyses = append(analyses, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return analyses, nil
}

// LatestAnalysis returns a device's most recent analysis, or nil when the
// device has none.
func (db *DB) LatestAnalysis(deviceID string) (*Analysis, error) {
	analyses, err := db.ListAnalyses(deviceID, ListFilter{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(analyses) == 0 {
		return nil, nil
	}
	return &analyses[0], nil
}

// SetArchiveCID records the content identifier the archival mirror returned
// for an analysis.
func (db *DB) SetArchiveCID(id, cid string) error {
	res, err := db.Exec("UPDATE analyses SET archive_cid = ? WHERE id = ?", cid, id)
	if err != nil {
		return fmt.Errorf("failed to record archive cid: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("no analysis with id %s", id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAnalysis(row rowScanner) (*Analysis, error) {
	var (
		a            Analysis
		rate         sql.NullFloat64
		freq         sql.NullFloat64
		height       sql.NullFloat64
		selected     string
		similarities string
		location     sql.NullString
		archiveCID   sql.NullString
	)
	if err := row.Scan(
		&a.ID, &a.DeviceID, &a.Timestamp, &rate, &freq, &height,
		&selected, &similarities, &location, &a.CollectionDuration,
		&a.ChannelWidth, &a.PacketCount, &a.CSIDataCount, &archiveCID, &a.ProcessedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to scan analysis: %w", err)
	}

	if rate.Valid {
		a.BreathingRate = &rate.Float64
	}
	if freq.Valid {
		a.PeakFrequency = &freq.Float64
	}
	if height.Valid {
		a.PeakHeight = &height.Float64
	}
	a.Location = location.String
	a.ArchiveCID = archiveCID.String

	if err := json.Unmarshal([]byte(selected), &a.SelectedSubcarriers); err != nil {
		return nil, fmt.Errorf("failed to parse selected subcarriers for %s: %w", a.ID, err)
	}
	if err := json.Unmarshal([]byte(similarities), &a.Similarities); err != nil {
		return nil, fmt.Errorf("failed to parse similarities for %s: %w", a.ID, err)
	}
	return &a, nil
}
