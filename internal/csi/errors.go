package csi

import "fmt"

// CaptureReadError reports a missing, truncated, or malformed capture file.
// The run aborts rather than proceeding with a partial read.
type CaptureReadError struct {
	Path string
	Err  error
}

func (e *CaptureReadError) Error() string {
	return fmt.Sprintf("failed to read capture %s: %v", e.Path, e.Err)
}

func (e *CaptureReadError) Unwrap() error { return e.Err }

// SourceDataEmptyError reports that zero frames decoded into channel
// estimates. Individual malformed frames are tolerated; a capture that
// yields nothing at all is not.
type SourceDataEmptyError struct {
	PacketCount int
}

func (e *SourceDataEmptyError) Error() string {
	return fmt.Sprintf("no CSI data decoded from capture (%d packets read)", e.PacketCount)
}

// InconsistentSubcarrierSetError reports a frame whose subcarrier columns
// differ from the first retained frame. Downstream stages require a
// rectangular matrix.
type InconsistentSubcarrierSetError struct {
	FrameIndex int
	Want, Got  int
}

func (e *InconsistentSubcarrierSetError) Error() string {
	return fmt.Sprintf("frame %d subcarrier set differs from first frame (want %d columns, got %d)",
		e.FrameIndex, e.Want, e.Got)
}

// UnsupportedChannelWidthError reports a channel width with no defined
// subcarrier profile.
type UnsupportedChannelWidthError struct {
	Width string
}

func (e *UnsupportedChannelWidthError) Error() string {
	return fmt.Sprintf("unsupported channel width %q", e.Width)
}

// EmptyInputError reports that a stage received no usable data: every
// subcarrier column was filtered or skipped.
type EmptyInputError struct {
	Stage string
}

func (e *EmptyInputError) Error() string {
	return fmt.Sprintf("%s: no subcarrier columns to process", e.Stage)
}

// PrecheckError reports an input that fails a stage's preconditions, such as
// an empty subcarrier selection handed to the peak estimator.
type PrecheckError struct {
	Reason string
}

func (e *PrecheckError) Error() string {
	return fmt.Sprintf("precheck failed: %s", e.Reason)
}
