// Command spectrum-plot renders the averaged magnitude spectrum of a
// capture to a PNG, with the breathing band marked. Useful for checking
// why a capture did or did not produce a peak.
package main

import (
	"flag"
	"image/color"
	"log"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/breath.report/internal/csi"
	"github.com/banshee-data/breath.report/internal/units"
)

var (
	capturePath = flag.String("capture", "", "Path to the capture pcap (required)")
	width       = flag.String("width", units.Width80MHz, "Channel width of the capture")
	out         = flag.String("out", "spectrum.png", "Output PNG path")
	minFreq     = flag.Float64("min-freq", 0.2, "Lower edge of the band to mark")
	maxFreq     = flag.Float64("max-freq", 0.33, "Upper edge of the band to mark")
)

func main() {
	flag.Parse()

	if *capturePath == "" {
		log.Fatal("a capture path is required (-capture)")
	}

	pipeline := csi.NewPipeline()
	profile, packets, decoded, err := pipeline.Spectrum(*capturePath, *width)
	if err != nil {
		log.Fatalf("failed to compute spectrum: %v", err)
	}
	log.Printf("Read %d packets, decoded %d CSI frames, %d subcarriers retained",
		packets, decoded, len(profile.Columns))

	if err := renderSpectrum(profile, *minFreq, *maxFreq, *out); err != nil {
		log.Fatalf("failed to render spectrum: %v", err)
	}
	log.Printf("Wrote %s", *out)
}

// renderSpectrum plots the across-subcarrier average magnitude per
// frequency bin, with vertical lines at the band edges.
func renderSpectrum(profile *csi.SpectralProfile, minFreq, maxFreq float64, out string) error {
	avg := make(plotter.XYs, len(profile.Frequencies))
	for i, freq := range profile.Frequencies {
		var sum float64
		for _, col := range profile.Columns {
			sum += profile.Magnitudes[col][i]
		}
		avg[i].X = freq
		avg[i].Y = sum / float64(len(profile.Columns))
	}

	p := plot.New()
	p.Title.Text = "Averaged CSI magnitude spectrum"
	p.X.Label.Text = "frequency (cycles/capture)"
	p.Y.Label.Text = "magnitude"

	line, err := plotter.NewLine(avg)
	if err != nil {
		return err
	}
	line.Width = vg.Points(1)
	p.Add(line)
	p.Legend.Add("average", line)

	var maxMag float64
	for _, pt := range avg {
		if pt.Y > maxMag {
			maxMag = pt.Y
		}
	}
	for _, edge := range []float64{minFreq, maxFreq} {
		marker, err := plotter.NewLine(plotter.XYs{{X: edge, Y: 0}, {X: edge, Y: maxMag}})
		if err != nil {
			return err
		}
		marker.Width = vg.Points(1)
		marker.Color = color.RGBA{R: 200, A: 255}
		marker.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
		p.Add(marker)
	}

	return p.Save(14*vg.Inch, 6*vg.Inch, out)
}
