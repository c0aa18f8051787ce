package main

import (
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
)

func TestFormatRelative(t *testing.T) {
	assert.Equal(t, "+0.1", formatRelative(0.1))
	assert.Equal(t, "-0.25", formatRelative(-0.25))
	assert.Equal(t, "+0", formatRelative(0))
}

func TestWatchState_Format(t *testing.T) {
	s := watchState{
		temperature: 4500,
		brightness:  0.8,
		gamma:       1,
	}

	assert.Equal(t, "4500", s.Format("{t}"))
	assert.Equal(t, "4500K 0.80 1.00", s.Format("{t}K {b} {g}"))
	assert.Equal(t, "no placeholders", s.Format("no placeholders"))
}

func TestWatchState_update(t *testing.T) {
	s := defaultWatchState

	assert.True(t, s.update("{t}", map[string]dbus.Variant{
		propTemperature: dbus.MakeVariant(uint16(3000)),
	}))
	assert.Equal(t, uint16(3000), s.temperature)

	// Brightness is tracked but not printed.
	assert.False(t, s.update("{t}", map[string]dbus.Variant{
		propBrightness: dbus.MakeVariant(0.5),
	}))
	assert.Equal(t, 0.5, s.brightness)

	assert.True(t, s.update("{t} {g}", map[string]dbus.Variant{
		propGamma: dbus.MakeVariant(1.2),
	}))
	assert.Equal(t, "3000 0.50 1.20", s.Format("{t} {b} {g}"))

	// Values of the wrong type are ignored.
	assert.False(t, s.update("{t}", map[string]dbus.Variant{
		propTemperature: dbus.MakeVariant("hot"),
	}))
	assert.Equal(t, uint16(3000), s.temperature)
}
