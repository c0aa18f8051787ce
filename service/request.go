package service

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jeremija/wl-gammarelay/colorramp"
	"github.com/jeremija/wl-gammarelay/types"
)

// ErrInvalidRequest is returned when a color cannot be parsed or is out of
// range.
var ErrInvalidRequest = errors.New("invalid request")

// Relative adjustments are clamped to these ranges. Absolute values are
// only validated by colorramp.
const (
	MinBrightness = 0
	MaxBrightness = 1

	MinGamma = 0.1
	MaxGamma = 10
)

func isRelative(str string) bool {
	return strings.HasPrefix(str, "+") || strings.HasPrefix(str, "-")
}

// NewSetting applies color on top of prev. Empty fields keep the previous
// value.
func NewSetting(color types.Color, prev colorramp.Setting) (colorramp.Setting, error) {
	ret := prev

	if color.Temperature != "" {
		temperature, err := strconv.Atoi(color.Temperature)
		if err != nil {
			return prev, fmt.Errorf("%w: failed to parse temperature: %w", ErrInvalidRequest, err)
		}

		if isRelative(color.Temperature) {
			ret.Temperature = clamp(prev.Temperature+temperature, colorramp.MinTemperature, colorramp.MaxTemperature)
		} else {
			ret.Temperature = temperature
		}
	}

	if color.Brightness != "" {
		brightness, err := strconv.ParseFloat(color.Brightness, 64)
		if err != nil {
			return prev, fmt.Errorf("%w: failed to parse brightness: %w", ErrInvalidRequest, err)
		}

		if isRelative(color.Brightness) {
			ret.Brightness = clamp(prev.Brightness+brightness, MinBrightness, MaxBrightness)
		} else {
			ret.Brightness = brightness
		}
	}

	if color.Gamma != "" {
		gamma, err := strconv.ParseFloat(color.Gamma, 64)
		if err != nil {
			return prev, fmt.Errorf("%w: failed to parse gamma: %w", ErrInvalidRequest, err)
		}

		for i := range ret.Gamma {
			if isRelative(color.Gamma) {
				ret.Gamma[i] = clamp(prev.Gamma[i]+gamma, MinGamma, MaxGamma)
			} else {
				ret.Gamma[i] = gamma
			}
		}
	}

	if err := ret.Validate(); err != nil {
		return prev, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	return ret, nil
}

// FormatColor returns the absolute representation of setting.
func FormatColor(setting colorramp.Setting) *types.Color {
	return &types.Color{
		Temperature: strconv.Itoa(setting.Temperature),
		Brightness:  strconv.FormatFloat(setting.Brightness, 'f', -1, 64),
		Gamma:       strconv.FormatFloat(setting.Gamma[0], 'f', -1, 64),
	}
}

func clamp[T int | float64](v, lo, hi T) T {
	return min(max(v, lo), hi)
}
