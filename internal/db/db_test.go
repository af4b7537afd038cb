package db

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func floatPtr(f float64) *float64 { return &f }

func TestInsertAndListAnalyses(t *testing.T) {
	db := newTestDB(t)

	id, err := db.InsertAnalysis(&Analysis{
		DeviceID:            "device-1",
		Timestamp:           1700000000,
		BreathingRate:       floatPtr(15.0),
		PeakFrequency:       floatPtr(0.25),
		PeakHeight:          floatPtr(3.2),
		SelectedSubcarriers: []int{-21, -7, 7, 21},
		Similarities:        map[string]float64{"7": 0.91, "21": 0.88},
		Location:            "bedroom",
		CollectionDuration:  60,
		ChannelWidth:        "80MHz",
		PacketCount:         1200,
		CSIDataCount:        1180,
		ProcessedAt:         time.Now(),
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	analyses, err := db.ListAnalyses("device-1", ListFilter{})
	require.NoError(t, err)
	require.Len(t, analyses, 1)

	got := analyses[0]
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "device-1", got.DeviceID)
	require.NotNil(t, got.BreathingRate)
	assert.Equal(t, 15.0, *got.BreathingRate)
	require.NotNil(t, got.PeakFrequency)
	assert.Equal(t, 0.25, *got.PeakFrequency)
	assert.Equal(t, []int{-21, -7, 7, 21}, got.SelectedSubcarriers)
	assert.Equal(t, map[string]float64{"7": 0.91, "21": 0.88}, got.Similarities)
	assert.Equal(t, "bedroom", got.Location)
	assert.Equal(t, "80MHz", got.ChannelWidth)
	assert.Equal(t, 1200, got.PacketCount)
	assert.Equal(t, 1180, got.CSIDataCount)
	assert.Empty(t, got.ArchiveCID)
}

func TestInsertAnalysisNoPeak(t *testing.T) {
	db := newTestDB(t)

	// A run that found no dominant peak stores nulls for the estimate.
	id, err := db.InsertAnalysis(&Analysis{
		DeviceID:     "device-1",
		Timestamp:    1700000000,
		ChannelWidth: "20MHz",
		ProcessedAt:  time.Now(),
	})
	require.NoError(t, err)

	got, err := db.LatestAnalysis("device-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, id, got.ID)
	assert.Nil(t, got.BreathingRate)
	assert.Nil(t, got.PeakFrequency)
	assert.Nil(t, got.PeakHeight)
	assert.Equal(t, []int{}, got.SelectedSubcarriers)
	assert.Equal(t, map[string]float64{}, got.Similarities)
}

func TestListAnalysesFilters(t *testing.T) {
	db := newTestDB(t)

	for i, ts := range []int64{100, 200, 300, 400} {
		_, err := db.InsertAnalysis(&Analysis{
			DeviceID:     "device-1",
			Timestamp:    ts,
			ChannelWidth: "80MHz",
			PacketCount:  i,
			ProcessedAt:  time.Now(),
		})
		require.NoError(t, err)
	}
	_, err := db.InsertAnalysis(&Analysis{
		DeviceID:     "other-device",
		Timestamp:    250,
		ChannelWidth: "80MHz",
		ProcessedAt:  time.Now(),
	})
	require.NoError(t, err)

	t.Run("scoped to device", func(t *testing.T) {
		analyses, err := db.ListAnalyses("device-1", ListFilter{})
		require.NoError(t, err)
		assert.Len(t, analyses, 4)
	})

	t.Run("newest first", func(t *testing.T) {
		analyses, err := db.ListAnalyses("device-1", ListFilter{})
		require.NoError(t, err)
		require.Len(t, analyses, 4)
		assert.Equal(t, int64(400), analyses[0].Timestamp)
		assert.Equal(t, int64(100), analyses[3].Timestamp)
	})

	t.Run("time bounds", func(t *testing.T) {
		start, end := int64(150), int64(350)
		analyses, err := db.ListAnalyses("device-1", ListFilter{StartTime: &start, EndTime: &end})
		require.NoError(t, err)
		require.Len(t, analyses, 2)
		assert.Equal(t, int64(300), analyses[0].Timestamp)
		assert.Equal(t, int64(200), analyses[1].Timestamp)
	})

	t.Run("limit and offset", func(t *testing.T) {
		analyses, err := db.ListAnalyses("device-1", ListFilter{Limit: 2, Offset: 1})
		require.NoError(t, err)
		require.Len(t, analyses, 2)
		assert.Equal(t, int64(300), analyses[0].Timestamp)
		assert.Equal(t, int64(200), analyses[1].Timestamp)
	})

	t.Run("unknown device", func(t *testing.T) {
		analyses, err := db.ListAnalyses("nobody", ListFilter{})
		require.NoError(t, err)
		assert.Empty(t, analyses)
	})
}

func TestLatestAnalysisEmpty(t *testing.T) {
	db := newTestDB(t)

	got, err := db.LatestAnalysis("device-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSetArchiveCID(t *testing.T) {
	db := newTestDB(t)

	id, err := db.InsertAnalysis(&Analysis{
		DeviceID:     "device-1",
		Timestamp:    100,
		ChannelWidth: "80MHz",
		ProcessedAt:  time.Now(),
	})
	require.NoError(t, err)

	require.NoError(t, db.SetArchiveCID(id, "QmTestCID"))

	got, err := db.LatestAnalysis("device-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "QmTestCID", got.ArchiveCID)

	assert.Error(t, db.SetArchiveCID("no-such-id", "QmOther"))
}

func TestInsertAnalysisPreservesExplicitID(t *testing.T) {
	db := newTestDB(t)

	id, err := db.InsertAnalysis(&Analysis{
		ID:           "fixed-id",
		DeviceID:     "device-1",
		Timestamp:    100,
		ChannelWidth: "80MHz",
		ProcessedAt:  time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, "fixed-id", id)
}

func TestAttachAdminRoutesRegistersEndpoints(t *testing.T) {
	db := newTestDB(t)

	mux := http.NewServeMux()
	db.AttachAdminRoutes(mux)

	req := httptest.NewRequest(http.MethodGet, "/debug/tailsql/", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.NotEqual(t, http.StatusNotFound, rec.Code)
}
