// Package monitor renders spectrogram history for diagnostics: a static
// PNG heatmap via gonum/plot and an interactive HTML chart via go-echarts.
package monitor

import (
	"fmt"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/YassienTawfikk/SonoMetric/internal/doppler"
)

// powerFloorDB clamps log-scaled power so empty bins don't dominate the
// colour range.
const powerFloorDB = -80.0

// spectroGrid adapts a slice of spectrogram frames to plotter.GridXYZ.
// Columns are frames (time axis), rows are frequency bins, values are
// power in dB.
type spectroGrid struct {
	frames []doppler.SpectrogramFrame
	freqs  []float64
}

func (g *spectroGrid) Dims() (c, r int) { return len(g.frames), len(g.freqs) }

func (g *spectroGrid) X(c int) float64 { return g.frames[c].Time }

func (g *spectroGrid) Y(r int) float64 { return g.freqs[r] }

func (g *spectroGrid) Z(c, r int) float64 {
	return powerDB(g.frames[c].Power[r])
}

func powerDB(p float64) float64 {
	if p <= 0 {
		return powerFloorDB
	}
	db := 10 * math.Log10(p)
	if db < powerFloorDB {
		return powerFloorDB
	}
	return db
}

// RenderSpectrogramPNG draws the frame history as a time/frequency
// heatmap and writes it to w as a PNG.
func RenderSpectrogramPNG(w io.Writer, frames []doppler.SpectrogramFrame) error {
	if len(frames) == 0 {
		return fmt.Errorf("no spectrogram frames to plot")
	}

	grid := &spectroGrid{frames: frames, freqs: frames[0].Freqs}

	p := plot.New()
	p.Title.Text = "Doppler Spectrogram"
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Frequency (Hz)"

	pal := moreland.ExtendedBlackBody().Palette(255)
	hm := plotter.NewHeatMap(grid, pal)
	p.Add(hm)

	img := vgimg.New(10*vg.Inch, 6*vg.Inch)
	dc := draw.New(img)
	p.Draw(dc)

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(w); err != nil {
		return fmt.Errorf("failed to encode spectrogram png: %w", err)
	}
	return nil
}
