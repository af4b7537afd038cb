package csi

import (
	"io"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// ReadCapture extracts timestamped raw payloads for every UDP frame in the
// pcap trace at path, in capture order. Non-UDP frames are silently skipped;
// a missing, truncated, or invalid file aborts with a *CaptureReadError.
//
// The pure-Go pcapgo reader is used so offline analysis needs no libpcap.
func ReadCapture(path string) ([]CaptureFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &CaptureReadError{Path: path, Err: err}
	}
	defer f.Close()

	r, err := pcapgo.NewReader(f)
	if err != nil {
		return nil, &CaptureReadError{Path: path, Err: err}
	}

	var frames []CaptureFrame
	for {
		data, ci, err := r.ReadPacketData()
		if err == io.EOF {
			break
		}
		if err != nil {
			// A short read mid-file means a truncated capture; abort
			// rather than return a partial trace.
			return nil, &CaptureReadError{Path: path, Err: err}
		}

		packet := gopacket.NewPacket(data, r.LinkType(), gopacket.Default)
		udpLayer := packet.Layer(layers.LayerTypeUDP)
		if udpLayer == nil {
			continue
		}
		udp, ok := udpLayer.(*layers.UDP)
		if !ok || len(udp.Payload) == 0 {
			continue
		}

		payload := make([]byte, len(udp.Payload))
		copy(payload, udp.Payload)
		frames = append(frames, CaptureFrame{Timestamp: ci.Timestamp, Payload: payload})
	}

	return frames, nil
}
