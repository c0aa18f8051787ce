// Package colorramp computes gamma ramps that shift the white point of an
// output towards a color temperature along the blackbody locus.
package colorramp

import (
	"errors"
	"fmt"
	"math"
)

const (
	// MinTemperature is the lowest temperature in the blackbody table.
	MinTemperature = 1000
	// MaxTemperature is the highest temperature in the blackbody table.
	MaxTemperature = 25100
	// NeutralTemperature maps to a white point of 1 for every channel.
	NeutralTemperature = 6500

	temperatureStep = 100

	// scale maps the unit interval onto the 16-bit ramp samples.
	scale = math.MaxUint16 + 1
)

var (
	ErrInvalidTemperature = errors.New("invalid temperature")
	ErrInvalidGamma       = errors.New("invalid gamma")
	ErrInvalidBrightness  = errors.New("invalid brightness")
	ErrInvalidRampSize    = errors.New("invalid ramp size")
)

// Neutral leaves the output unchanged.
var Neutral = Setting{
	Temperature: NeutralTemperature,
	Gamma:       [3]float64{1, 1, 1},
	Brightness:  1,
}

// Setting is a color adjustment applied to every output.
type Setting struct {
	// Temperature is the color temperature in Kelvin. The neutral temperature
	// is 6500.
	Temperature int
	// Gamma contains the exponents for the red, green and blue channels.
	Gamma [3]float64
	// Brightness is a multiplier. Values above 1 are allowed but will clip.
	Brightness float64
}

// Validate checks the temperature range and that gamma and brightness are
// usable. Errors wrap ErrInvalidTemperature, ErrInvalidGamma or
// ErrInvalidBrightness.
func (s Setting) Validate() error {
	if s.Temperature < MinTemperature || s.Temperature > MaxTemperature {
		return fmt.Errorf("%w: must be in range [%d, %d], but was %d",
			ErrInvalidTemperature, MinTemperature, MaxTemperature, s.Temperature)
	}

	for i, g := range s.Gamma {
		if !(g > 0) || math.IsInf(g, 0) {
			return fmt.Errorf("%w: channel %d must be positive, but was %v", ErrInvalidGamma, i, g)
		}
	}

	if !(s.Brightness >= 0) || math.IsInf(s.Brightness, 0) {
		return fmt.Errorf("%w: must not be negative, but was %v", ErrInvalidBrightness, s.Brightness)
	}

	return nil
}

// WhitePoint holds the red, green and blue scale factors for a temperature.
type WhitePoint [3]float64

// GetWhitePoint interpolates the white point for the temperature between the
// two closest samples of the blackbody table. Temperatures outside of
// [MinTemperature, MaxTemperature] are rejected.
func GetWhitePoint(temperature int) (WhitePoint, error) {
	if temperature < MinTemperature || temperature > MaxTemperature {
		return WhitePoint{}, fmt.Errorf("%w: %d is outside of [%d, %d]",
			ErrInvalidTemperature, temperature, MinTemperature, MaxTemperature)
	}

	index := (temperature - MinTemperature) / temperatureStep
	if index == len(blackbody)-1 {
		return blackbody[index], nil
	}

	alpha := float64(temperature%temperatureStep) / temperatureStep

	return interpolate(alpha, blackbody[index], blackbody[index+1]), nil
}

func interpolate(alpha float64, c1, c2 WhitePoint) WhitePoint {
	var c WhitePoint

	for i := range c {
		c[i] = (1-alpha)*c1[i] + alpha*c2[i]
	}

	return c
}

// Seed writes the identity ramp to all three channels of table.
func Seed(table []uint16, rampSize int) {
	r, g, b := channels(table, rampSize)

	for i := 0; i < rampSize; i++ {
		value := toSample(float64(i) / float64(rampSize) * scale)

		r[i] = value
		g[i] = value
		b[i] = value
	}
}

// Fill seeds table with the identity ramp and applies the white point,
// brightness and gamma of the setting to it. The table must hold at least
// 3*rampSize samples: the red ramp first, followed by green and blue.
func Fill(table []uint16, rampSize int, setting Setting) error {
	if rampSize <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidRampSize, rampSize)
	}

	if len(table) < 3*rampSize {
		return fmt.Errorf("%w: table holds %d samples, need %d", ErrInvalidRampSize, len(table), 3*rampSize)
	}

	if err := setting.Validate(); err != nil {
		return err
	}

	white, err := GetWhitePoint(setting.Temperature)
	if err != nil {
		return err
	}

	Seed(table, rampSize)

	r, g, b := channels(table, rampSize)

	for c, ramp := range [3][]uint16{r, g, b} {
		exponent := 1 / setting.Gamma[c]

		for i, sample := range ramp {
			y := float64(sample) / scale
			ramp[i] = toSample(math.Pow(y*setting.Brightness*white[c], exponent) * scale)
		}
	}

	return nil
}

// Ramp allocates a table of 3*rampSize samples and fills it.
func Ramp(rampSize int, setting Setting) ([]uint16, error) {
	if rampSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRampSize, rampSize)
	}

	table := make([]uint16, 3*rampSize)

	if err := Fill(table, rampSize, setting); err != nil {
		return nil, err
	}

	return table, nil
}

func channels(table []uint16, rampSize int) (r, g, b []uint16) {
	return table[:rampSize:rampSize], table[rampSize : 2*rampSize : 2*rampSize], table[2*rampSize : 3*rampSize]
}

// toSample rounds v and clamps it to the uint16 range.
func toSample(v float64) uint16 {
	v = math.Round(v)

	switch {
	case !(v > 0):
		return 0
	case v > math.MaxUint16:
		return math.MaxUint16
	default:
		return uint16(v)
	}
}
