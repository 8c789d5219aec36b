package monitor

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/YassienTawfikk/SonoMetric/internal/doppler"
)

// viridis colour ramp shared with the other charts.
var heatmapColors = []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}

// RenderSpectrogramHTML renders the frame history as an interactive
// ECharts heatmap (HTML document) written to w. Power values are log
// scaled so the visual map spans the usable dynamic range.
func RenderSpectrogramHTML(w io.Writer, frames []doppler.SpectrogramFrame, session string) error {
	if len(frames) == 0 {
		return fmt.Errorf("no spectrogram frames to render")
	}

	freqs := frames[0].Freqs

	xLabels := make([]string, len(frames))
	for i, f := range frames {
		xLabels[i] = fmt.Sprintf("%.3f", f.Time)
	}
	yLabels := make([]string, len(freqs))
	for j, f := range freqs {
		yLabels[j] = fmt.Sprintf("%.0f", f)
	}

	data := make([]opts.HeatMapData, 0, len(frames)*len(freqs))
	minDB, maxDB := 0.0, powerFloorDB
	for i, f := range frames {
		for j := range f.Power {
			db := powerDB(f.Power[j])
			if db < minDB {
				minDB = db
			}
			if db > maxDB {
				maxDB = db
			}
			data = append(data, opts.HeatMapData{Value: [3]interface{}{i, j, db}})
		}
	}

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Doppler Spectrogram", Theme: "dark", Width: "1200px", Height: "700px"}),
		charts.WithTitleOpts(opts.Title{Title: "Doppler Spectrogram", Subtitle: fmt.Sprintf("session=%s frames=%d bins=%d", session, len(frames), len(freqs))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Name: "Time (s)"}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Name: "Frequency (Hz)", Data: yLabels}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        float32(minDB),
			Max:        float32(maxDB),
			InRange:    &opts.VisualMapInRange{Color: heatmapColors},
		}),
	)

	hm.SetXAxis(xLabels).AddSeries("power_db", data)

	if err := hm.Render(w); err != nil {
		return fmt.Errorf("failed to render spectrogram chart: %w", err)
	}
	return nil
}
