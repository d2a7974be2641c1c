package analysis

import (
	"math"
	"math/cmplx"
	"time"

	dspwindow "github.com/mjibson/go-dsp/window"
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/vibration.report/internal/imu"
)

// EngineParams tunes the analysis engine. The time-domain and spectral peak
// thresholds were tuned independently against different recordings; they stay
// separate parameters rather than sharing one knob.
type EngineParams struct {
	// SpectralWindowSize is the number of most recent ax samples fed to
	// the FFT. Spectral output is absent until the window holds this many.
	SpectralWindowSize int `json:"spectral_window_size"`

	// SampleRate is the nominal sensor output rate in Hz, used to place
	// spectrum bins on a frequency axis.
	SampleRate float64 `json:"sample_rate"`

	// PeakThreshold is the number of standard deviations above the window
	// mean a local maximum must reach to count as a time-domain peak.
	PeakThreshold float64 `json:"peak_threshold"`

	// SpectralPeakFloor is the fraction of the maximum non-DC amplitude a
	// spectrum bin must exceed to count as a spectral peak.
	SpectralPeakFloor float64 `json:"spectral_peak_floor"`

	// RMSMinSamples gates RMS output on window fill.
	RMSMinSamples int `json:"rms_min_samples"`

	// PeakMinSamples gates time-domain peak detection on window fill.
	PeakMinSamples int `json:"peak_min_samples"`
}

// DefaultEngineParams returns the parameters matching the MPU6050 reader
// deployment: 20 Hz sampling with a 128-sample spectral window.
func DefaultEngineParams() EngineParams {
	return EngineParams{
		SpectralWindowSize: 128,
		SampleRate:         20,
		PeakThreshold:      2.0,
		SpectralPeakFloor:  0.1,
		RMSMinSamples:      10,
		PeakMinSamples:     20,
	}
}

// Engine computes analysis frames from window snapshots. The FFT plan and
// Hamming coefficients are built once at construction.
type Engine struct {
	params  EngineParams
	fft     *fourier.FFT
	hamming []float64
}

// NewEngine creates an engine for the given parameters. Zero-valued fields
// are replaced with their defaults.
func NewEngine(params EngineParams) *Engine {
	def := DefaultEngineParams()
	if params.SpectralWindowSize <= 0 {
		params.SpectralWindowSize = def.SpectralWindowSize
	}
	if params.SampleRate <= 0 {
		params.SampleRate = def.SampleRate
	}
	if params.PeakThreshold == 0 {
		params.PeakThreshold = def.PeakThreshold
	}
	if params.SpectralPeakFloor == 0 {
		params.SpectralPeakFloor = def.SpectralPeakFloor
	}
	if params.RMSMinSamples <= 0 {
		params.RMSMinSamples = def.RMSMinSamples
	}
	if params.PeakMinSamples <= 0 {
		params.PeakMinSamples = def.PeakMinSamples
	}
	return &Engine{
		params:  params,
		fft:     fourier.NewFFT(params.SpectralWindowSize),
		hamming: dspwindow.Hamming(params.SpectralWindowSize),
	}
}

// Params returns the effective engine parameters.
func (e *Engine) Params() EngineParams {
	return e.params
}

// Compute derives a frame for the newest sample s given the window snapshot
// taken after s was pushed. Statistics whose fill threshold is not yet met
// are left nil on the frame; an undersized window is never an error.
func (e *Engine) Compute(window []imu.PhysicalSample, s imu.PhysicalSample) Frame {
	ts := time.UnixMilli(s.TimestampMS)
	f := Frame{
		TimestampMS: s.TimestampMS,
		Date:        ts.Format("2006-01-02"),
		Time:        ts.Format("15:04:05.000"),
		AxG:         s.AxG,
		AyG:         s.AyG,
		AzG:         s.AzG,
		GxDPS:       s.GxDPS,
		GyDPS:       s.GyDPS,
		GzDPS:       s.GzDPS,
		Magnitude:   magnitude(s),
	}

	n := len(window)
	if n == 0 {
		return f
	}

	ax := make([]float64, n)
	ay := make([]float64, n)
	az := make([]float64, n)
	mags := make([]float64, n)
	for i, w := range window {
		ax[i] = w.AxG
		ay[i] = w.AyG
		az[i] = w.AzG
		mags[i] = magnitude(w)
	}

	f.Rolling = &RollingStats{
		MeanAx:        stat.Mean(ax, nil),
		MeanAy:        stat.Mean(ay, nil),
		MeanAz:        stat.Mean(az, nil),
		MeanMagnitude: stat.Mean(mags, nil),
	}

	if n >= e.params.RMSMinSamples {
		f.RMS = &RMSStats{
			Ax:        rms(ax),
			Ay:        rms(ay),
			Az:        rms(az),
			Magnitude: rms(mags),
		}
	}

	if n >= e.params.SpectralWindowSize {
		f.Spectrum = e.spectrum(ax[n-e.params.SpectralWindowSize:])
	}

	if n >= e.params.PeakMinSamples {
		f.Peaks = e.detectPeaks(ax)
	}

	return f
}

func magnitude(s imu.PhysicalSample) float64 {
	return math.Sqrt(s.AxG*s.AxG + s.AyG*s.AyG + s.AzG*s.AzG)
}

// rms is the root of the mean squared value: sqrt(mean(x²)).
func rms(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return math.Sqrt(floats.Dot(x, x) / float64(len(x)))
}

// spectrum applies a Hamming window to the segment, runs the real-input FFT,
// and reports the magnitude spectrum with bin k at k·rate/M Hz.
func (e *Engine) spectrum(segment []float64) *Spectrum {
	m := e.params.SpectralWindowSize

	windowed := make([]float64, m)
	for i, v := range segment {
		windowed[i] = v * e.hamming[i]
	}

	coeffs := e.fft.Coefficients(nil, windowed)
	sp := &Spectrum{
		Frequencies: make([]float64, len(coeffs)),
		Amplitudes:  make([]float64, len(coeffs)),
	}
	for k, c := range coeffs {
		sp.Frequencies[k] = float64(k) * e.params.SampleRate / float64(m)
		sp.Amplitudes[k] = cmplx.Abs(c)
	}

	if len(sp.Amplitudes) > 5 {
		sp.Peaks = e.spectralPeaks(sp)
	}
	return sp
}

// spectralPeaks finds strict local maxima in the spectrum, skipping the DC
// bin, that exceed the configured fraction of the maximum amplitude in the
// searched range.
func (e *Engine) spectralPeaks(sp *Spectrum) []SpectralPeak {
	amps := sp.Amplitudes
	floor := e.params.SpectralPeakFloor * floats.Max(amps[1:])

	var peaks []SpectralPeak
	for i := 1; i < len(amps)-1; i++ {
		if amps[i] > amps[i-1] && amps[i] > amps[i+1] && amps[i] > floor {
			peaks = append(peaks, SpectralPeak{
				Frequency: sp.Frequencies[i],
				Amplitude: amps[i],
			})
		}
	}
	return peaks
}

// detectPeaks finds strict local maxima in the ax window that rise above
// mean + threshold·stddev, reporting the values of at most the three most
// recent accepted peaks.
func (e *Engine) detectPeaks(ax []float64) *PeakResult {
	mean := stat.Mean(ax, nil)
	std := stat.PopStdDev(ax, nil)
	cutoff := mean + e.params.PeakThreshold*std

	var values []float64
	for i := 1; i < len(ax)-1; i++ {
		if ax[i] > ax[i-1] && ax[i] > ax[i+1] && ax[i] > cutoff {
			values = append(values, ax[i])
		}
	}
	if len(values) > 3 {
		values = values[len(values)-3:]
	}
	return &PeakResult{
		Detected: len(values) > 0,
		Values:   values,
	}
}
