package colorramp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlackbodyTable(t *testing.T) {
	require.Len(t, blackbody, (MaxTemperature-MinTemperature)/temperatureStep+1)
	assert.Equal(t, WhitePoint{1, 1, 1}, blackbody[(NeutralTemperature-MinTemperature)/temperatureStep])
}

func TestGetWhitePoint(t *testing.T) {
	wp, err := GetWhitePoint(4500)
	require.NoError(t, err)
	assert.Equal(t, WhitePoint{1, 0.86860704, 0.73688797}, wp)

	wp, err = GetWhitePoint(4550)
	require.NoError(t, err)
	assert.InDelta(t, 1, wp[0], 1e-12)
	assert.InDelta(t, (0.86860704+0.87576611)/2, wp[1], 1e-12)
	assert.InDelta(t, (0.73688797+0.75326132)/2, wp[2], 1e-12)

	wp, err = GetWhitePoint(MaxTemperature)
	require.NoError(t, err)
	assert.Equal(t, WhitePoint{0.62740336, 0.75282962, 1}, wp)

	wp, err = GetWhitePoint(MinTemperature)
	require.NoError(t, err)
	assert.Equal(t, WhitePoint{1, 0.18172716, 0}, wp)
}

func TestGetWhitePoint_outOfRange(t *testing.T) {
	for _, temperature := range []int{-1, 0, 999, 25101, 100000} {
		_, err := GetWhitePoint(temperature)
		assert.ErrorIs(t, err, ErrInvalidTemperature, "temperature: %d", temperature)
	}
}

func TestGetWhitePoint_rangeAndContinuity(t *testing.T) {
	prev, err := GetWhitePoint(MinTemperature)
	require.NoError(t, err)

	for temperature := MinTemperature + 1; temperature <= MaxTemperature; temperature++ {
		wp, err := GetWhitePoint(temperature)
		require.NoError(t, err)

		for c, v := range wp {
			require.True(t, v >= 0 && v <= 1, "temperature %d channel %d: %v", temperature, c, v)
			// Neighbouring samples are less than 0.1 apart.
			require.InDelta(t, prev[c], v, 0.001, "temperature %d channel %d", temperature, c)
		}

		prev = wp
	}
}

func TestGetWhitePoint_sampleBoundary(t *testing.T) {
	for temperature := MinTemperature + temperatureStep; temperature < MaxTemperature; temperature += temperatureStep {
		below, err := GetWhitePoint(temperature - 1)
		require.NoError(t, err)
		at, err := GetWhitePoint(temperature)
		require.NoError(t, err)

		sample := blackbody[(temperature-MinTemperature)/temperatureStep]
		for c := range at {
			assert.Equal(t, sample[c], at[c])
			// 99% of the way to the sample from the previous one.
			prevSample := blackbody[(temperature-MinTemperature)/temperatureStep-1]
			assert.InDelta(t, 0.01*prevSample[c]+0.99*sample[c], below[c], 1e-9)
		}
	}
}

func TestSetting_Validate(t *testing.T) {
	assert.NoError(t, Neutral.Validate())

	s := Neutral
	s.Brightness = 2
	assert.NoError(t, s.Validate())

	s = Neutral
	s.Temperature = 999
	assert.ErrorIs(t, s.Validate(), ErrInvalidTemperature)

	s = Neutral
	s.Gamma[1] = 0
	assert.ErrorIs(t, s.Validate(), ErrInvalidGamma)

	s = Neutral
	s.Gamma[2] = -1
	assert.ErrorIs(t, s.Validate(), ErrInvalidGamma)

	s = Neutral
	s.Gamma[0] = math.NaN()
	assert.ErrorIs(t, s.Validate(), ErrInvalidGamma)

	s = Neutral
	s.Brightness = -0.1
	assert.ErrorIs(t, s.Validate(), ErrInvalidBrightness)

	s = Neutral
	s.Brightness = math.Inf(1)
	assert.ErrorIs(t, s.Validate(), ErrInvalidBrightness)
}

func TestSeed(t *testing.T) {
	table := make([]uint16, 3*4)
	for i := range table {
		table[i] = 0xdead
	}

	Seed(table, 4)

	assert.Equal(t, []uint16{
		0, 16384, 32768, 49152,
		0, 16384, 32768, 49152,
		0, 16384, 32768, 49152,
	}, table)
}

func TestFill_identity(t *testing.T) {
	for _, rampSize := range []int{1, 2, 10, 256, 1024, 4096} {
		table := make([]uint16, 3*rampSize)
		require.NoError(t, Fill(table, rampSize, Neutral))

		seed := make([]uint16, 3*rampSize)
		Seed(seed, rampSize)

		assert.Equal(t, seed, table, "ramp size: %d", rampSize)
	}
}

func TestFill_reference(t *testing.T) {
	table, err := Ramp(10, Setting{
		Temperature: 4500,
		Gamma:       [3]float64{1, 1, 1},
		Brightness:  0.8,
	})
	require.NoError(t, err)

	assert.Equal(t, []uint16{
		0, 5243, 10486, 15729, 20971, 26214, 31458, 36700, 41943, 47186,
		0, 4554, 9108, 13662, 18216, 22770, 27324, 31878, 36432, 40986,
		0, 3864, 7727, 11590, 15453, 19317, 23181, 27044, 30907, 34771,
	}, table)
}

func TestFill_clamp(t *testing.T) {
	table, err := Ramp(4, Setting{
		Temperature: NeutralTemperature,
		Gamma:       [3]float64{1, 1, 1},
		Brightness:  2,
	})
	require.NoError(t, err)

	assert.Equal(t, []uint16{
		0, 32768, 65535, 65535,
		0, 32768, 65535, 65535,
		0, 32768, 65535, 65535,
	}, table)
}

func TestFill_gamma(t *testing.T) {
	setting := Setting{
		Temperature: 3200,
		Gamma:       [3]float64{0.8, 1, 2.2},
		Brightness:  0.9,
	}

	table, err := Ramp(256, setting)
	require.NoError(t, err)

	white, err := GetWhitePoint(setting.Temperature)
	require.NoError(t, err)

	for c := 0; c < 3; c++ {
		for i := 0; i < 256; i++ {
			y := math.Round(float64(i)/256*65536) / 65536
			want := math.Pow(y*setting.Brightness*white[c], 1/setting.Gamma[c]) * 65536
			assert.InDelta(t, want, float64(table[c*256+i]), 1, "channel %d index %d", c, i)
		}
	}
}

func TestFill_deterministic(t *testing.T) {
	setting := Setting{
		Temperature: 2735,
		Gamma:       [3]float64{1.1, 0.9, 1.3},
		Brightness:  0.65,
	}

	first, err := Ramp(1024, setting)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		table := make([]uint16, 3*1024)
		for j := range table {
			table[j] = uint16(j * 7)
		}

		require.NoError(t, Fill(table, 1024, setting))
		assert.Equal(t, first, table)
	}
}

func TestFill_rampSizeOne(t *testing.T) {
	table := []uint16{1, 2, 3}
	require.NoError(t, Fill(table, 1, Setting{
		Temperature: 25100,
		Gamma:       [3]float64{2, 2, 2},
		Brightness:  1,
	}))
	assert.Equal(t, []uint16{0, 0, 0}, table)
}

func TestFill_errors(t *testing.T) {
	assert.ErrorIs(t, Fill(nil, 0, Neutral), ErrInvalidRampSize)
	assert.ErrorIs(t, Fill(make([]uint16, 5), 2, Neutral), ErrInvalidRampSize)

	s := Neutral
	s.Gamma = [3]float64{1, 0, 1}
	assert.ErrorIs(t, Fill(make([]uint16, 6), 2, s), ErrInvalidGamma)

	s = Neutral
	s.Temperature = 30000
	assert.ErrorIs(t, Fill(make([]uint16, 6), 2, s), ErrInvalidTemperature)

	_, err := Ramp(-1, Neutral)
	assert.ErrorIs(t, err, ErrInvalidRampSize)
}

func TestToSample(t *testing.T) {
	assert.Equal(t, uint16(0), toSample(-10))
	assert.Equal(t, uint16(0), toSample(math.NaN()))
	assert.Equal(t, uint16(1), toSample(0.5))
	assert.Equal(t, uint16(65535), toSample(65535.4))
	assert.Equal(t, uint16(65535), toSample(65536))
	assert.Equal(t, uint16(65535), toSample(math.Inf(1)))
}
