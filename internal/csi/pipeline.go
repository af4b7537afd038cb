package csi

import (
	"github.com/banshee-data/breath.report/internal/monitoring"
	"github.com/banshee-data/breath.report/internal/timeutil"
	"github.com/banshee-data/breath.report/internal/units"
)

// BaselineSource supplies the most recent resting-state spectral profile for
// a channel width, or nil when none has been recorded. Implementations must
// be safe for concurrent use; the pipeline treats the returned profile as
// read-only.
type BaselineSource interface {
	Latest(channelWidth string) (*SpectralProfile, error)
}

// DefaultCollectionDuration is the nominal capture window in seconds.
const DefaultCollectionDuration = 60

// Pipeline is an explicitly constructed analysis pipeline. It holds no
// per-run state, so one instance can serve concurrent runs.
type Pipeline struct {
	decoder   Decoder
	baselines BaselineSource
	tuning    EstimatorTuning
	topN      int
	clock     timeutil.Clock
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithDecoder substitutes the CSI frame decoder. The default is the
// synthetic placeholder decoder.
func WithDecoder(d Decoder) Option {
	return func(p *Pipeline) { p.decoder = d }
}

// WithBaselines attaches a baseline store for subcarrier selection.
func WithBaselines(s BaselineSource) Option {
	return func(p *Pipeline) { p.baselines = s }
}

// WithTuning overrides the estimator tuning.
func WithTuning(t EstimatorTuning) Option {
	return func(p *Pipeline) { p.tuning = t }
}

// WithTopSubcarriers overrides how many subcarriers baseline comparison keeps.
func WithTopSubcarriers(n int) Option {
	return func(p *Pipeline) { p.topN = n }
}

// WithClock substitutes the clock used for provenance timestamps.
func WithClock(c timeutil.Clock) Option {
	return func(p *Pipeline) { p.clock = c }
}

// NewPipeline builds a pipeline with the deployed defaults, applying any
// options on top.
func NewPipeline(opts ...Option) *Pipeline {
	p := &Pipeline{
		decoder: SyntheticDecoder{},
		tuning:  DefaultTuning(),
		topN:    DefaultTopSubcarriers,
		clock:   timeutil.RealClock{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run analyzes the capture at capturePath and returns the breathing estimate
// with its provenance. Errors follow the pipeline taxonomy; a run that
// completes without finding a breathing peak is a success with unset
// estimate fields.
func (p *Pipeline) Run(capturePath string, params RunParams) (*RunResult, error) {
	width := params.ChannelWidth
	if width == "" {
		width = units.Width80MHz
	}
	duration := params.CollectionDuration
	if duration <= 0 {
		duration = DefaultCollectionDuration
	}

	frames, err := ReadCapture(capturePath)
	if err != nil {
		return nil, err
	}

	decoded, err := DecodeFrames(frames, p.decoder)
	if err != nil {
		return nil, err
	}

	ts, err := BuildTimeseries(decoded)
	if err != nil {
		return nil, err
	}

	filtered, err := FilterSubcarriers(ts, width)
	if err != nil {
		return nil, err
	}

	spectrum, err := Transform(filtered)
	if err != nil {
		return nil, err
	}

	var baseline *SpectralProfile
	if p.baselines != nil {
		baseline, err = p.baselines.Latest(width)
		if err != nil {
			// A missing or unreadable baseline degrades selection; it
			// does not fail the run.
			monitoring.Logf("baseline lookup failed for %s: %v", width, err)
			baseline = nil
		}
	}

	selection := SelectSubcarriers(spectrum, baseline, params.SelectedSubcarriers, p.topN)

	estimate, err := EstimatePeak(spectrum, selection.Subcarriers, p.tuning)
	if err != nil {
		return nil, err
	}

	timestamp := params.Timestamp
	if timestamp == 0 {
		timestamp = p.clock.Now().Unix()
	}

	return &RunResult{
		Estimate:            estimate,
		SelectedSubcarriers: selection.Subcarriers,
		Similarities:        selection.Similarities,
		DeviceID:            params.DeviceID,
		ChannelWidth:        width,
		Location:            params.Location,
		CollectionDuration:  duration,
		Timestamp:           timestamp,
		PacketCount:         len(frames),
		CSIDataCount:        len(decoded),
		ProcessedAt:         p.clock.Now(),
	}, nil
}

// Spectrum runs the front half of the pipeline (capture through spectral
// transform) and returns the per-subcarrier spectrum plus frame counts. It
// backs baseline recording and offline spectrum inspection.
func (p *Pipeline) Spectrum(capturePath, channelWidth string) (profile *SpectralProfile, packets, decoded int, err error) {
	if channelWidth == "" {
		channelWidth = units.Width80MHz
	}

	frames, err := ReadCapture(capturePath)
	if err != nil {
		return nil, 0, 0, err
	}
	decodedFrames, err := DecodeFrames(frames, p.decoder)
	if err != nil {
		return nil, len(frames), 0, err
	}
	ts, err := BuildTimeseries(decodedFrames)
	if err != nil {
		return nil, len(frames), len(decodedFrames), err
	}
	filtered, err := FilterSubcarriers(ts, channelWidth)
	if err != nil {
		return nil, len(frames), len(decodedFrames), err
	}
	spectrum, err := Transform(filtered)
	if err != nil {
		return nil, len(frames), len(decodedFrames), err
	}
	return spectrum, len(frames), len(decodedFrames), nil
}
