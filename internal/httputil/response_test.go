package httputil

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriteJSONError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSONError(rec, http.StatusBadRequest, "capture file must be a .pcap")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"capture file must be a .pcap"}`, rec.Body.String())
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusCreated, map[string]int{"count": 42})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"count":42}`, rec.Body.String())
}

func TestStatusHelpers(t *testing.T) {
	tests := []struct {
		name   string
		write  func(w http.ResponseWriter)
		status int
	}{
		{"ok", func(w http.ResponseWriter) { WriteJSONOK(w, map[string]string{}) }, http.StatusOK},
		{"bad request", func(w http.ResponseWriter) { BadRequest(w, "nope") }, http.StatusBadRequest},
		{"internal error", func(w http.ResponseWriter) { InternalServerError(w, "boom") }, http.StatusInternalServerError},
		{"not found", func(w http.ResponseWriter) { NotFound(w, "gone") }, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.write(rec)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}
