// Command gen-capture writes a synthetic CSI capture pcap for exercising
// the analysis pipeline without real WiFi hardware. Each packet is a UDP
// frame whose payload seeds the decoder.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

var (
	out         = flag.String("out", "capture.pcap", "Output pcap path")
	frames      = flag.Int("frames", 600, "Number of CSI frames to write")
	payloadSize = flag.Int("payload", 256, "Payload size in bytes")
	rate        = flag.Float64("rate", 10, "Frames per second")
	seed        = flag.Int64("seed", 1, "Random seed for payload content")
)

func main() {
	flag.Parse()

	if *frames < 1 {
		log.Fatal("frames must be at least 1")
	}
	if *payloadSize < 10 {
		log.Fatal("payload must be at least 10 bytes to be decodable")
	}

	if err := writeCapture(*out, *frames, *payloadSize, *rate, *seed); err != nil {
		log.Fatalf("failed to write capture: %v", err)
	}
	log.Printf("Wrote %d frames to %s", *frames, *out)
}

func writeCapture(path string, frames, payloadSize int, rate float64, seed int64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := pcapgo.NewWriter(f)
	if err := w.WriteFileHeader(65536, layers.LinkTypeEthernet); err != nil {
		return fmt.Errorf("failed to write pcap header: %w", err)
	}

	rng := rand.New(rand.NewSource(seed))
	interval := time.Duration(float64(time.Second) / rate)
	start := time.Now().Add(-time.Duration(frames) * interval)

	for i := 0; i < frames; i++ {
		payload := make([]byte, payloadSize)
		rng.Read(payload)

		data, err := serializeFrame(payload)
		if err != nil {
			return fmt.Errorf("failed to serialize frame %d: %w", i, err)
		}

		ci := gopacket.CaptureInfo{
			Timestamp:     start.Add(time.Duration(i) * interval),
			CaptureLength: len(data),
			Length:        len(data),
		}
		if err := w.WritePacket(ci, data); err != nil {
			return fmt.Errorf("failed to write frame %d: %w", i, err)
		}
	}
	return nil
}

func serializeFrame(payload []byte) ([]byte, error) {
	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x01},
		DstMAC:       net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x02},
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		Version:  4,
		IHL:      5,
		TTL:      64,
		Protocol: layers.IPProtocolUDP,
		SrcIP:    net.IP{192, 168, 1, 10},
		DstIP:    net.IP{192, 168, 1, 20},
	}
	udp := &layers.UDP{SrcPort: 5500, DstPort: 5500}
	if err := udp.SetNetworkLayerForChecksum(ip); err != nil {
		return nil, err
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	if err := gopacket.SerializeLayers(buf, opts, eth, ip, udp, gopacket.Payload(payload)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
