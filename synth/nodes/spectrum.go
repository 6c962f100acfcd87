package nodes

import (
	"fmt"

	"github.com/cwbudde/algo-dsp/dsp/spectrum"
	"github.com/cwbudde/algo-dsp/dsp/window"
	algofft "github.com/cwbudde/algo-fft"

	"github.com/cwbudde/algo-synth/synth/node"
	"github.com/cwbudde/algo-synth/synth/param"
)

// SpectrumAnalyzer passes its input through untouched while running a
// windowed FFT over a ring buffer of recent samples. Scalar features
// of the averaged spectrum come out as CV: peak bin frequency, total
// power, spectral centroid, and the power in three fixed bands
// (low <250 Hz, mid 250-4000 Hz, high >4000 Hz).
//
// A new frame is computed every half FFT length. Band and feature
// outputs hold the last computed value between frames.
type SpectrumAnalyzer struct {
	*param.Set
	info node.Info

	fftSize   float64
	winType   float64
	smoothing float64
	peakHold  float64
	rangeLow  float64
	rangeHigh float64
	gain      float64
	active    float64

	smoothingMod param.Modulated
	gainMod      param.Modulated

	plan      *algofft.Plan[complex128]
	win       []float64
	ring      []float64
	writePos  int
	filled    int
	toHop     int
	hop       int
	fftIn     []complex128
	fftOut    []complex128
	re        []float64
	im        []float64
	frame     []float64
	mags      []float64
	planSize  int
	planWin   int
	peakDecay float64

	peakFreq   float64
	totalPower float64
	centroid   float64
	bandLow    float64
	bandMid    float64
	bandHigh   float64

	sampleRate float64
}

// NewSpectrumAnalyzer builds a spectrum analyzer node.
func NewSpectrumAnalyzer(name string, sampleRate float64) (node.Node, error) {
	s := &SpectrumAnalyzer{
		Set:        param.NewSet(),
		sampleRate: sampleRate,
		planSize:   -1,
		planWin:    -1,
	}

	s.info = node.NewInfo(name, "spectrum_analyzer", node.CategoryAnalyzer)
	s.info.Description = "FFT spectrum analyzer with CV feature outputs"
	s.info.Inputs = []node.Port{
		node.AudioIn("signal_in", "signal to analyze"),
		node.CV("smoothing_cv", "smoothing modulation").AsOptional(),
		node.CV("gain_cv", "display gain modulation").AsOptional(),
	}
	s.info.Outputs = []node.Port{
		node.AudioOut("signal_out", "input passthrough"),
		node.CV("peak_frequency_cv", "strongest bin frequency in kHz"),
		node.CV("total_power_cv", "total spectral power"),
		node.CV("centroid_frequency_cv", "spectral centroid in kHz"),
		node.CV("low_band_cv", "power below 250 Hz"),
		node.CV("mid_band_cv", "power 250 Hz to 4 kHz"),
		node.CV("high_band_cv", "power above 4 kHz"),
	}

	smoothingSpec := param.New("smoothing", 0, 0.95, 0.3)
	gainSpec := param.New("gain", 0, 4, 1)

	s.Bind(param.New("fft_size", 512, 4096, 1024), &s.fftSize)
	s.Bind(param.New("window_type", 0, 3, 0), &s.winType)
	s.Bind(smoothingSpec, &s.smoothing)
	s.Bind(param.New("peak_hold", 0, 1, 0), &s.peakHold)
	s.Bind(param.New("frequency_range_low", 20, 2000, 20).WithUnit("Hz"), &s.rangeLow)
	s.Bind(param.New("frequency_range_high", 1000, 20000, 20000).WithUnit("Hz"), &s.rangeHigh)
	s.Bind(gainSpec, &s.gain)
	s.Bind(node.ActiveParam, &s.active)

	s.smoothingMod = param.NewModulated(smoothingSpec, 0.5)
	s.gainMod = param.NewModulated(gainSpec, 0.5)

	if err := s.replan(); err != nil {
		return nil, err
	}
	return s, nil
}

// Info implements node.Node.
func (s *SpectrumAnalyzer) Info() node.Info { return s.info }

// Reset clears the analysis ring and feature outputs.
func (s *SpectrumAnalyzer) Reset() {
	for i := range s.ring {
		s.ring[i] = 0
	}
	for i := range s.mags {
		s.mags[i] = 0
	}
	s.writePos = 0
	s.filled = 0
	s.toHop = 0
	s.peakFreq = 0
	s.totalPower = 0
	s.centroid = 0
	s.bandLow = 0
	s.bandMid = 0
	s.bandHigh = 0
}

// windowType maps the window_type parameter to a generator type. Only
// the first four window families are exposed.
func (s *SpectrumAnalyzer) windowType() window.Type {
	switch int(s.winType) {
	case 1:
		return window.TypeHamming
	case 2:
		return window.TypeBlackman
	case 3:
		return window.TypeRectangular
	default:
		return window.TypeHann
	}
}

// replan rebuilds the FFT plan and window when fft_size or window_type
// changed. FFT sizes snap to the nearest power of two in range.
func (s *SpectrumAnalyzer) replan() error {
	size := 512
	for size*2 <= int(s.fftSize) && size < 4096 {
		size *= 2
	}
	winKind := int(s.winType)
	if size == s.planSize && winKind == s.planWin {
		return nil
	}

	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return fmt.Errorf("spectrum analyzer fft plan: %w", err)
	}

	s.plan = plan
	s.win = window.Generate(s.windowType(), size, window.WithPeriodic())
	s.ring = make([]float64, size)
	s.fftIn = make([]complex128, size)
	s.fftOut = make([]complex128, size)
	s.re = make([]float64, size/2)
	s.im = make([]float64, size/2)
	s.frame = make([]float64, size/2)
	s.mags = make([]float64, size/2)
	s.hop = size / 2
	s.writePos = 0
	s.filled = 0
	s.toHop = 0
	s.planSize = size
	s.planWin = winKind
	return nil
}

// Process analyzes one block and passes the signal through.
func (s *SpectrumAnalyzer) Process(ctx *node.Context) error {
	out := ctx.Out.Buffer("signal_out")
	if out == nil {
		return &node.OutputBufferError{Port: "signal_out"}
	}

	if s.active <= 0.5 {
		for _, port := range s.info.Outputs {
			ctx.Out.Zero(port.Name)
		}
		return nil
	}

	if err := s.replan(); err != nil {
		return err
	}

	smoothing := s.smoothingMod.Modulate(s.smoothing, ctx.In.CVValue("smoothing_cv"))
	gain := s.gainMod.Modulate(s.gain, ctx.In.CVValue("gain_cv"))

	for i := range out {
		sample := ctx.In.Sample("signal_in", i)
		out[i] = sample
		s.push(sample, smoothing, gain)
	}

	ctx.Out.Fill("peak_frequency_cv", s.peakFreq/1000)
	ctx.Out.Fill("total_power_cv", s.totalPower)
	ctx.Out.Fill("centroid_frequency_cv", s.centroid/1000)
	ctx.Out.Fill("low_band_cv", s.bandLow)
	ctx.Out.Fill("mid_band_cv", s.bandMid)
	ctx.Out.Fill("high_band_cv", s.bandHigh)
	return nil
}

// push adds one sample to the ring and computes a frame at each hop.
func (s *SpectrumAnalyzer) push(sample, smoothing, gain float64) {
	s.ring[s.writePos] = sample
	s.writePos++
	if s.writePos >= s.planSize {
		s.writePos = 0
	}
	if s.filled < s.planSize {
		s.filled++
	}

	s.toHop++
	if s.filled < s.planSize || s.toHop < s.hop {
		return
	}
	s.toHop = 0
	s.analyzeFrame(smoothing, gain)
}

// analyzeFrame windows the ring, runs the FFT, smooths the magnitude
// spectrum, and refreshes the feature outputs.
func (s *SpectrumAnalyzer) analyzeFrame(smoothing, gain float64) {
	read := s.writePos
	for i := 0; i < s.planSize; i++ {
		s.fftIn[i] = complex(s.ring[read]*s.win[i], 0)
		read++
		if read >= s.planSize {
			read = 0
		}
	}

	if err := s.plan.Forward(s.fftOut, s.fftIn); err != nil {
		return
	}

	bins := s.planSize / 2
	norm := float64(s.planSize)
	for k := 0; k < bins; k++ {
		s.re[k] = real(s.fftOut[k]) / norm
		s.im[k] = imag(s.fftOut[k]) / norm
	}

	holding := s.peakHold > 0.5
	spectrum.MagnitudeFromParts(s.frame, s.re, s.im)
	for k := 0; k < bins; k++ {
		mag := s.frame[k] * gain
		if holding && mag < s.mags[k] {
			// Peak hold with a slow exponential decay.
			s.mags[k] *= 0.999
			continue
		}
		s.mags[k] = s.mags[k]*smoothing + mag*(1-smoothing)
	}

	s.updateFeatures()
}

// updateFeatures derives the scalar CV outputs from the magnitude
// spectrum, restricted to the configured frequency range.
func (s *SpectrumAnalyzer) updateFeatures() {
	binHz := s.sampleRate / float64(s.planSize)
	lo := s.rangeLow
	hi := s.rangeHigh
	if hi <= lo {
		hi = lo + 1
	}

	peakMag := 0.0
	peakBin := 0
	total := 0.0
	weighted := 0.0
	low, mid, high := 0.0, 0.0, 0.0

	for k := 1; k < len(s.mags); k++ {
		freq := float64(k) * binHz
		if freq < lo || freq > hi {
			continue
		}
		power := s.mags[k] * s.mags[k]
		total += power
		weighted += power * freq
		switch {
		case freq < 250:
			low += power
		case freq <= 4000:
			mid += power
		default:
			high += power
		}
		if s.mags[k] > peakMag {
			peakMag = s.mags[k]
			peakBin = k
		}
	}

	s.totalPower = total
	s.bandLow = low
	s.bandMid = mid
	s.bandHigh = high
	if total > 1e-12 {
		s.centroid = weighted / total
	} else {
		s.centroid = 0
	}
	if peakBin > 0 {
		s.peakFreq = float64(peakBin) * binHz
	} else {
		s.peakFreq = 0
	}
}
