package buffer

import (
	"github.com/cwbudde/algo-vecmath"
)

// SumInto accumulates src into dst sample by sample. Both slices must
// be the same length; mismatched lengths are truncated to the shorter
// one so a mid-mutation block never panics the audio path.
func SumInto(dst, src []float64) {
	if len(src) > len(dst) {
		src = src[:len(dst)]
	}
	if len(dst) > len(src) {
		dst = dst[:len(src)]
	}
	vecmath.AddBlockInPlace(dst, src)
}

// ScaleInto writes src*scale into dst, truncating to the shorter slice.
func ScaleInto(dst, src []float64, scale float64) {
	if len(src) > len(dst) {
		src = src[:len(dst)]
	}
	if len(dst) > len(src) {
		dst = dst[:len(src)]
	}
	vecmath.ScaleBlock(dst, src, scale)
}

// Zero clears buf.
func Zero(buf []float64) {
	for i := range buf {
		buf[i] = 0
	}
}
