package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/breath.report/internal/db"
	"github.com/banshee-data/breath.report/internal/httputil"
)

const defaultChartPoints = 200

// ratesChart renders an HTML line chart of recent breathing rates for a
// device. This is a debugging endpoint for eyeballing trends without a
// separate UI. Runs with no detected peak show up as axis gaps.
func (s *Server) ratesChart(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authorize(w, r); !ok {
		return
	}
	deviceID := r.PathValue("device")

	limit := defaultChartPoints
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= 2000 {
			limit = parsed
		}
	}

	analyses, err := s.db.ListAnalyses(deviceID, db.ListFilter{Limit: limit})
	if err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to retrieve analyses: %v", err))
		return
	}
	if len(analyses) == 0 {
		httputil.NotFound(w, fmt.Sprintf("no analyses for device %s", deviceID))
		return
	}

	// ListAnalyses returns newest first; plot oldest to newest.
	labels := make([]string, 0, len(analyses))
	rates := make([]opts.LineData, 0, len(analyses))
	for i := len(analyses) - 1; i >= 0; i-- {
		a := analyses[i]
		labels = append(labels, formatChartTime(a.Timestamp))
		if a.BreathingRate != nil {
			rates = append(rates, opts.LineData{Value: *a.BreathingRate})
		} else {
			rates = append(rates, opts.LineData{Value: nil})
		}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Breathing Rates",
			Theme:     "dark",
			Width:     "1100px",
			Height:    "500px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Breathing rate over time",
			Subtitle: fmt.Sprintf("device=%s points=%d", deviceID, len(rates)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "breaths/min"}),
	)
	line.SetXAxis(labels)
	line.AddSeries("breathing_rate", rates,
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
