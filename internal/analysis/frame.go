package analysis

// Frame is one enriched analysis result, derived from one sample plus the
// window contents at the time it arrived. The optional sub-structures are nil
// until the window holds enough samples to compute them, so a frame's field
// set grows as the window fills without ever representing "not yet computed"
// as a missing key.
type Frame struct {
	TimestampMS int64  `json:"timestamp_ms"`
	Date        string `json:"date"`
	Time        string `json:"time"`

	AxG   float64 `json:"ax_g"`
	AyG   float64 `json:"ay_g"`
	AzG   float64 `json:"az_g"`
	GxDPS float64 `json:"gx_dps"`
	GyDPS float64 `json:"gy_dps"`
	GzDPS float64 `json:"gz_dps"`

	// Magnitude is the acceleration vector magnitude of this sample in g.
	Magnitude float64 `json:"magnitude"`

	Rolling  *RollingStats `json:"rolling,omitempty"`
	RMS      *RMSStats     `json:"rms,omitempty"`
	Spectrum *Spectrum     `json:"spectrum,omitempty"`
	Peaks    *PeakResult   `json:"peaks,omitempty"`
}

// RollingStats holds window means. The magnitude mean is the mean of
// per-sample magnitudes, not the magnitude of the per-axis means.
type RollingStats struct {
	MeanAx        float64 `json:"mean_ax"`
	MeanAy        float64 `json:"mean_ay"`
	MeanAz        float64 `json:"mean_az"`
	MeanMagnitude float64 `json:"mean_magnitude"`
}

// RMSStats holds window root-mean-square values per axis and for the
// per-sample magnitudes.
type RMSStats struct {
	Ax        float64 `json:"rms_ax"`
	Ay        float64 `json:"rms_ay"`
	Az        float64 `json:"rms_az"`
	Magnitude float64 `json:"rms_magnitude"`
}

// Spectrum is the magnitude spectrum of the most recent spectral window of
// ax values, with bin frequencies in Hz.
type Spectrum struct {
	Frequencies []float64      `json:"frequencies"`
	Amplitudes  []float64      `json:"amplitudes"`
	Peaks       []SpectralPeak `json:"peaks,omitempty"`
}

// SpectralPeak is one local maximum in the magnitude spectrum.
type SpectralPeak struct {
	Frequency float64 `json:"freq"`
	Amplitude float64 `json:"amp"`
}

// PeakResult reports time-domain peak detection over the ax channel.
type PeakResult struct {
	Detected bool      `json:"detected"`
	Values   []float64 `json:"values,omitempty"`
}
