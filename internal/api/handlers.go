package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/banshee-data/breath.report/internal/csi"
	"github.com/banshee-data/breath.report/internal/db"
	"github.com/banshee-data/breath.report/internal/httputil"
	"github.com/banshee-data/breath.report/internal/monitoring"
	"github.com/banshee-data/breath.report/internal/security"
)

// maxUploadBytes bounds a single capture upload. A minute of CSI
// traffic is well under this.
const maxUploadBytes = 64 << 20

// uploadMetadata is the JSON sidecar accompanying a capture upload.
type uploadMetadata struct {
	Type                string `json:"type"` // "analysis" (default) or "baseline"
	DeviceID            string `json:"device_id"`
	ChannelWidth        string `json:"channel_width"`
	Location            string `json:"location"`
	CollectionDuration  int    `json:"collection_duration"`
	Timestamp           int64  `json:"timestamp"`
	SelectedSubcarriers []int  `json:"selected_subcarriers"`
}

func (s *Server) uploadCSI(w http.ResponseWriter, r *http.Request) {
	authDevice, ok := s.authorize(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httputil.BadRequest(w, fmt.Sprintf("invalid multipart form: %v", err))
		return
	}

	var meta uploadMetadata
	if raw := r.FormValue("metadata"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &meta); err != nil {
			httputil.BadRequest(w, fmt.Sprintf("invalid metadata JSON: %v", err))
			return
		}
	}
	if authDevice != "" {
		if meta.DeviceID != "" && meta.DeviceID != authDevice {
			httputil.WriteJSONError(w, http.StatusForbidden, "device_id does not match API key")
			return
		}
		meta.DeviceID = authDevice
	}
	if meta.DeviceID == "" {
		httputil.BadRequest(w, "device_id is required")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.BadRequest(w, "capture file is required")
		return
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".pcap") {
		httputil.BadRequest(w, "capture file must be a .pcap")
		return
	}

	capturePath, cleanup, err := spoolUpload(file, header.Filename)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to store upload: %v", err))
		return
	}
	defer cleanup()

	if meta.Type == "baseline" {
		s.recordBaseline(w, capturePath, meta)
		return
	}
	s.analyzeCapture(w, capturePath, header.Filename, meta)
}

// spoolUpload writes the uploaded capture to a temp file so the
// pipeline can read it by path. cleanup removes the file.
func spoolUpload(file io.Reader, filename string) (path string, cleanup func(), err error) {
	tmp, err := os.CreateTemp("", "upload-*-"+security.SanitizeFilename(filename))
	if err != nil {
		return "", nil, err
	}
	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", nil, err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", nil, err
	}
	return tmp.Name(), func() { os.Remove(tmp.Name()) }, nil
}

func (s *Server) recordBaseline(w http.ResponseWriter, capturePath string, meta uploadMetadata) {
	profile, packets, decoded, err := s.analyzer.Spectrum(capturePath, meta.ChannelWidth)
	if err != nil {
		httputil.WriteJSONError(w, statusForError(err), err.Error())
		return
	}

	saved, err := s.baselines.Save(meta.ChannelWidth, profile)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to save baseline: %v", err))
		return
	}

	httputil.WriteJSONOK(w, map[string]interface{}{
		"status":         "baseline_recorded",
		"device_id":      meta.DeviceID,
		"baseline_file":  filepath.Base(saved),
		"packet_count":   packets,
		"csi_data_count": decoded,
	})
}

func (s *Server) analyzeCapture(w http.ResponseWriter, capturePath, filename string, meta uploadMetadata) {
	params := csi.RunParams{
		DeviceID:            meta.DeviceID,
		ChannelWidth:        meta.ChannelWidth,
		Location:            meta.Location,
		CollectionDuration:  meta.CollectionDuration,
		Timestamp:           meta.Timestamp,
		SelectedSubcarriers: meta.SelectedSubcarriers,
	}
	// a live hardware hint fills in for devices that did not send one
	if len(params.SelectedSubcarriers) == 0 && s.hints != nil {
		params.SelectedSubcarriers = s.hints.Latest()
	}

	result, err := s.analyzer.Run(capturePath, params)
	if err != nil {
		httputil.WriteJSONError(w, statusForError(err), err.Error())
		return
	}

	analysis := analysisFromResult(result)
	id, err := s.db.InsertAnalysis(analysis)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to store analysis: %v", err))
		return
	}

	if s.mirror != nil && s.mirror.Enabled() {
		data, err := os.ReadFile(capturePath)
		if err != nil {
			monitoring.Logf("api: failed to re-read capture for archival: %v", err)
		} else {
			go s.archiveCapture(id, filename, data)
		}
	}

	httputil.WriteJSONOK(w, analysis)
}

// archiveCapture mirrors the raw capture and records the resulting CID.
// Runs in its own goroutine; failures only log.
func (s *Server) archiveCapture(analysisID, filename string, data []byte) {
	cid, err := s.mirror.Upload(filename, data)
	if err != nil {
		monitoring.Logf("api: capture archival failed for %s: %v", analysisID, err)
		return
	}
	if err := s.db.SetArchiveCID(analysisID, cid); err != nil {
		monitoring.Logf("api: failed to record archive cid for %s: %v", analysisID, err)
	}
}

func analysisFromResult(result *csi.RunResult) *db.Analysis {
	similarities := make(map[string]float64, len(result.Similarities))
	for col, sim := range result.Similarities {
		similarities[strconv.Itoa(col)] = sim
	}
	return &db.Analysis{
		DeviceID:            result.DeviceID,
		Timestamp:           result.Timestamp,
		BreathingRate:       result.BreathingRateBPM,
		PeakFrequency:       result.DominantFrequency,
		PeakHeight:          result.PeakMagnitude,
		SelectedSubcarriers: result.SelectedSubcarriers,
		Similarities:        similarities,
		Location:            result.Location,
		CollectionDuration:  result.CollectionDuration,
		ChannelWidth:        result.ChannelWidth,
		PacketCount:         result.PacketCount,
		CSIDataCount:        result.CSIDataCount,
		ProcessedAt:         result.ProcessedAt,
	}
}

// statusForError maps pipeline failures onto HTTP statuses: malformed
// input is the client's fault, captures that decode but cannot be
// analyzed are unprocessable.
func statusForError(err error) int {
	var (
		captureErr      *csi.CaptureReadError
		widthErr        *csi.UnsupportedChannelWidthError
		emptySourceErr  *csi.SourceDataEmptyError
		inconsistentErr *csi.InconsistentSubcarrierSetError
		emptyInputErr   *csi.EmptyInputError
		precheckErr     *csi.PrecheckError
	)
	switch {
	case errors.As(err, &captureErr), errors.As(err, &widthErr):
		return http.StatusBadRequest
	case errors.As(err, &emptySourceErr), errors.As(err, &inconsistentErr),
		errors.As(err, &emptyInputErr), errors.As(err, &precheckErr):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) listResults(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authorize(w, r); !ok {
		return
	}
	deviceID := r.PathValue("device")

	var filter db.ListFilter
	query := r.URL.Query()
	if v := query.Get("start"); v != "" {
		start, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			httputil.BadRequest(w, "invalid 'start' parameter")
			return
		}
		filter.StartTime = &start
	}
	if v := query.Get("end"); v != "" {
		end, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			httputil.BadRequest(w, "invalid 'end' parameter")
			return
		}
		filter.EndTime = &end
	}
	if v := query.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			httputil.BadRequest(w, "invalid 'limit' parameter")
			return
		}
		filter.Limit = limit
	}
	if v := query.Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			httputil.BadRequest(w, "invalid 'offset' parameter")
			return
		}
		filter.Offset = offset
	}

	analyses, err := s.db.ListAnalyses(deviceID, filter)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to retrieve analyses: %v", err))
		return
	}
	if analyses == nil {
		analyses = []db.Analysis{}
	}
	httputil.WriteJSONOK(w, analyses)
}

func (s *Server) latestResult(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authorize(w, r); !ok {
		return
	}
	deviceID := r.PathValue("device")

	analysis, err := s.db.LatestAnalysis(deviceID)
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to retrieve analysis: %v", err))
		return
	}
	if analysis == nil {
		httputil.NotFound(w, fmt.Sprintf("no analyses for device %s", deviceID))
		return
	}
	httputil.WriteJSONOK(w, analysis)
}

// timeFormat for chart axis labels
const chartTimeFormat = "Jan 2 15:04"

func formatChartTime(ts int64) string {
	return time.Unix(ts, 0).UTC().Format(chartTimeFormat)
}
