// Command spectrum-report reads a recording session CSV and produces an HTML
// report (magnitude timeline plus the final spectrum) and optionally a PNG of
// the spectrum.
package main

import (
	"bytes"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/vibration.report/internal/analysis"
	"github.com/banshee-data/vibration.report/internal/imu"
)

func main() {
	input := flag.String("i", "", "recording CSV path (required)")
	htmlOut := flag.String("o", "report.html", "HTML report output path")
	pngOut := flag.String("png", "", "optional spectrum PNG output path")
	flag.Parse()

	if *input == "" {
		flag.Usage()
		os.Exit(2)
	}

	samples, err := readRecording(*input)
	if err != nil {
		log.Fatalf("failed to read recording: %v", err)
	}
	if len(samples) == 0 {
		log.Fatal("recording contains no samples")
	}
	log.Printf("read %d samples from %s", len(samples), *input)

	// Re-run the recording through the analysis pipeline to recover the
	// spectrum and magnitude series exactly as the server computed them.
	proc := analysis.NewProcessor(analysis.DefaultEngineParams(), 0, len(samples))
	var magnitudes []float64
	var frame *analysis.Frame
	for _, s := range samples {
		frame = proc.ProcessSample(s)
		magnitudes = append(magnitudes, frame.Magnitude)
	}

	if err := renderHTML(*htmlOut, *input, samples, magnitudes, frame); err != nil {
		log.Fatalf("failed to render HTML report: %v", err)
	}
	log.Printf("✓ Wrote %s", *htmlOut)

	if *pngOut != "" {
		if frame.Spectrum == nil {
			log.Printf("no spectrum available (need %d samples, have %d); skipping PNG",
				analysis.DefaultEngineParams().SpectralWindowSize, len(samples))
			return
		}
		if err := renderPNG(*pngOut, frame.Spectrum); err != nil {
			log.Fatalf("failed to render spectrum PNG: %v", err)
		}
		log.Printf("✓ Wrote %s", *pngOut)
	}
}

// readRecording parses a session CSV back into physical samples. Column
// layout follows the recorder header: date, time, timestamp_ms, ax..gz, then
// derived columns which are ignored here.
func readRecording(path string) ([]imu.PhysicalSample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, nil
	}

	samples := make([]imu.PhysicalSample, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) < 9 {
			return nil, fmt.Errorf("row %d: expected at least 9 columns, got %d", i+2, len(row))
		}
		ts, err := strconv.ParseInt(row[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: bad timestamp: %w", i+2, err)
		}
		vals := make([]float64, 6)
		for j := 0; j < 6; j++ {
			v, err := strconv.ParseFloat(row[3+j], 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: bad value in column %d: %w", i+2, 3+j, err)
			}
			vals[j] = v
		}
		samples = append(samples, imu.PhysicalSample{
			TimestampMS: ts,
			AxG:         vals[0],
			AyG:         vals[1],
			AzG:         vals[2],
			GxDPS:       vals[3],
			GyDPS:       vals[4],
			GzDPS:       vals[5],
		})
	}
	return samples, nil
}

func renderHTML(path, source string, samples []imu.PhysicalSample, magnitudes []float64, frame *analysis.Frame) error {
	xAxis := make([]string, len(samples))
	magData := make([]opts.LineData, len(samples))
	axData := make([]opts.LineData, len(samples))
	for i, s := range samples {
		xAxis[i] = strconv.FormatInt(s.TimestampMS, 10)
		magData[i] = opts.LineData{Value: magnitudes[i]}
		axData[i] = opts.LineData{Value: s.AxG}
	}

	timeline := charts.NewLine()
	timeline.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Vibration Report", Theme: "dark", Width: "1100px", Height: "400px"}),
		charts.WithTitleOpts(opts.Title{Title: "Acceleration", Subtitle: source}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "timestamp (ms)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "g"}),
	)
	timeline.SetXAxis(xAxis).
		AddSeries("magnitude", magData).
		AddSeries("ax", axData)

	page := components.NewPage()
	page.AddCharts(timeline)

	if frame.Spectrum != nil {
		freqs := make([]string, len(frame.Spectrum.Frequencies))
		amps := make([]opts.BarData, len(frame.Spectrum.Amplitudes))
		for i, f := range frame.Spectrum.Frequencies {
			freqs[i] = strconv.FormatFloat(f, 'f', 2, 64)
			amps[i] = opts.BarData{Value: frame.Spectrum.Amplitudes[i]}
		}

		subtitle := "no spectral peaks"
		if len(frame.Spectrum.Peaks) > 0 {
			var buf bytes.Buffer
			for i, p := range frame.Spectrum.Peaks {
				if i > 0 {
					buf.WriteString(", ")
				}
				fmt.Fprintf(&buf, "%.2f Hz", p.Frequency)
			}
			subtitle = "peaks: " + buf.String()
		}

		bar := charts.NewBar()
		bar.SetGlobalOptions(
			charts.WithInitializationOpts(opts.Initialization{Theme: "dark", Width: "1100px", Height: "400px"}),
			charts.WithTitleOpts(opts.Title{Title: "Spectrum (final window)", Subtitle: subtitle}),
			charts.WithXAxisOpts(opts.XAxis{Name: "Hz"}),
			charts.WithYAxisOpts(opts.YAxis{Name: "amplitude"}),
		)
		bar.SetXAxis(freqs).AddSeries("amplitude", amps)
		page.AddCharts(bar)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return page.Render(f)
}

func renderPNG(path string, spectrum *analysis.Spectrum) error {
	p := plot.New()
	p.Title.Text = "Magnitude Spectrum"
	p.X.Label.Text = "Frequency (Hz)"
	p.Y.Label.Text = "Amplitude"

	pts := make(plotter.XYs, len(spectrum.Frequencies))
	for i := range spectrum.Frequencies {
		pts[i] = plotter.XY{X: spectrum.Frequencies[i], Y: spectrum.Amplitudes[i]}
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	p.Add(line)

	if len(spectrum.Peaks) > 0 {
		peakPts := make(plotter.XYs, len(spectrum.Peaks))
		for i, pk := range spectrum.Peaks {
			peakPts[i] = plotter.XY{X: pk.Frequency, Y: pk.Amplitude}
		}
		scatter, err := plotter.NewScatter(peakPts)
		if err != nil {
			return err
		}
		p.Add(scatter)
		p.Legend.Add("peaks", scatter)
	}

	return p.Save(8*vg.Inch, 4*vg.Inch, path)
}
