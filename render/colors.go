package render

import (
	"image/color"

	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
)

// vertexColors maps a scalar field through cm, normalized to the field's own
// minimum and maximum. A nil cm uses a smooth diverging blue-red map, the
// usual rendering of the d_norm surface property. A flat field maps to the
// low end of the palette.
func vertexColors(vals []float64, cm palette.ColorMap) []color.NRGBA {
	if cm == nil {
		cm = moreland.SmoothBlueRed()
	}
	min, max := vals[0], vals[0]
	for _, v := range vals[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if max == min {
		max = min + 1
	}
	cm.SetMin(min)
	cm.SetMax(max)
	out := make([]color.NRGBA, len(vals))
	for i, v := range vals {
		c, err := cm.At(clamp(v, min, max))
		if err != nil {
			// Range was set above; out-of-range is impossible.
			panic(err)
		}
		out[i] = color.NRGBAModel.Convert(c).(color.NRGBA)
	}
	return out
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// deNormalize undoes the [0,1] property rescale applied by resampling. A
// zero scale means the property was constant and the offset alone applies.
func deNormalize(vals []float64, min, scale float64) []float64 {
	if scale == 0 && min == 0 {
		return vals
	}
	out := make([]float64, len(vals))
	for i, v := range vals {
		if scale != 0 {
			v *= scale
		}
		out[i] = v + min
	}
	return out
}
