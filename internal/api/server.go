// Package api exposes the breathing analysis HTTP surface: capture
// upload, stored results, and a debug chart.
package api

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/breath.report/internal/csi"
	"github.com/banshee-data/breath.report/internal/db"
	"github.com/banshee-data/breath.report/internal/httputil"
	"github.com/banshee-data/breath.report/internal/version"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// Analyzer runs the estimation pipeline over an uploaded capture.
type Analyzer interface {
	Run(capturePath string, params csi.RunParams) (*csi.RunResult, error)
	Spectrum(capturePath, channelWidth string) (*csi.SpectralProfile, int, int, error)
}

// BaselineRecorder persists empty-room spectral profiles.
type BaselineRecorder interface {
	Save(channelWidth string, profile *csi.SpectralProfile) (string, error)
}

// HintSource supplies the most recent hardware subcarrier hint, or nil.
type HintSource interface {
	Latest() []int
}

// Archiver mirrors raw captures to long-term storage.
type Archiver interface {
	Enabled() bool
	Upload(name string, data []byte) (string, error)
}

type Server struct {
	db        *db.DB
	analyzer  Analyzer
	baselines BaselineRecorder
	mirror    Archiver
	hints     HintSource
	keys      APIKeys
}

// NewServer assembles the API server. baselines must be non-nil; mirror
// and hints may be nil when those subsystems are not configured.
func NewServer(database *db.DB, analyzer Analyzer, baselines BaselineRecorder, mirror Archiver, hints HintSource, keys APIKeys) *Server {
	return &Server{
		db:        database,
		analyzer:  analyzer,
		baselines: baselines,
		mirror:    mirror,
		hints:     hints,
		keys:      keys,
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/breathing/upload-csi", s.uploadCSI)
	mux.HandleFunc("GET /api/breathing/results/{device}", s.listResults)
	mux.HandleFunc("GET /api/breathing/results/{device}/latest", s.latestResult)
	mux.HandleFunc("GET /api/breathing/chart/{device}", s.ratesChart)
	mux.HandleFunc("GET /api/health", s.health)
	return mux
}

// authorize verifies the request's bearer token. It writes the error
// response itself and returns false when the request must not proceed.
func (s *Server) authorize(w http.ResponseWriter, r *http.Request) (string, bool) {
	deviceID, err := s.keys.Verify(r)
	if err != nil {
		httputil.WriteJSONError(w, http.StatusUnauthorized, err.Error())
		return "", false
	}
	return deviceID, true
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, map[string]string{
		"status":  "ok",
		"version": version.Version,
	})
}
