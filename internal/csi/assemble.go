package csi

import (
	"math/cmplx"
	"sort"
	"time"
)

// BuildTimeseries stacks decoded frames into a rectangular amplitude matrix.
// Columns are the ascending subcarrier indices of the first frame; every
// later frame must expose exactly the same set or assembly fails with a
// *InconsistentSubcarrierSetError. Only the magnitude of each sample is
// retained.
func BuildTimeseries(frames []DecodedFrame) (*Timeseries, error) {
	if len(frames) == 0 {
		return nil, &SourceDataEmptyError{}
	}

	columns := make([]int, 0, len(frames[0].Estimate))
	for idx := range frames[0].Estimate {
		columns = append(columns, idx)
	}
	sort.Ints(columns)

	ts := &Timeseries{
		Columns:    columns,
		Rows:       make([][]float64, 0, len(frames)),
		Timestamps: make([]time.Time, 0, len(frames)),
	}
	for i, f := range frames {
		if len(f.Estimate) != len(columns) {
			return nil, &InconsistentSubcarrierSetError{
				FrameIndex: i, Want: len(columns), Got: len(f.Estimate),
			}
		}
		row := make([]float64, len(columns))
		for j, col := range columns {
			v, ok := f.Estimate[col]
			if !ok {
				// Same cardinality but a different index set.
				return nil, &InconsistentSubcarrierSetError{
					FrameIndex: i, Want: len(columns), Got: len(f.Estimate),
				}
			}
			row[j] = cmplx.Abs(v)
		}
		ts.Rows = append(ts.Rows, row)
		ts.Timestamps = append(ts.Timestamps, f.Timestamp)
	}
	return ts, nil
}
