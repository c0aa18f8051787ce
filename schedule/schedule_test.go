package schedule

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nathan-osman/go-sunrise"
	"github.com/peer-calls/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var zagreb = Solar{
	Latitude:         45.8,
	Longitude:        15.97,
	ElevationNight:   -6,
	ElevationDay:     3,
	NightTemperature: 3500,
	DayTemperature:   6500,
}

func TestSolar_TemperatureAt(t *testing.T) {
	assert.Equal(t, 3500, zagreb.TemperatureAt(-30))
	assert.Equal(t, 3500, zagreb.TemperatureAt(-6))
	assert.Equal(t, 5000, zagreb.TemperatureAt(-1.5))
	assert.Equal(t, 6500, zagreb.TemperatureAt(3))
	assert.Equal(t, 6500, zagreb.TemperatureAt(60))

	prev := zagreb.TemperatureAt(-6)
	for elevation := -6.0; elevation <= 3; elevation += 0.25 {
		temperature := zagreb.TemperatureAt(elevation)
		assert.GreaterOrEqual(t, temperature, prev)

		prev = temperature
	}
}

func TestSolar_Temperature(t *testing.T) {
	day := time.Date(2024, time.June, 21, 0, 0, 0, 0, time.UTC)

	rise, set := sunrise.SunriseSunset(zagreb.Latitude, zagreb.Longitude, day.Year(), day.Month(), day.Day())
	require.True(t, rise.Before(set))

	noon := rise.Add(set.Sub(rise) / 2)
	midnight := noon.Add(12 * time.Hour)

	assert.Equal(t, zagreb.DayTemperature, zagreb.Temperature(noon))
	assert.Equal(t, zagreb.NightTemperature, zagreb.Temperature(midnight))

	// The sun is just below the horizon at sunrise.
	at := zagreb.Temperature(rise)
	assert.Greater(t, at, zagreb.NightTemperature)
	assert.Less(t, at, zagreb.DayTemperature)
}

type recorder struct {
	mu     sync.Mutex
	values []int
	err    error
}

func (r *recorder) apply(_ context.Context, temperature int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		err := r.err
		r.err = nil

		return err
	}

	r.values = append(r.values, temperature)

	return nil
}

func (r *recorder) get() []int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]int(nil), r.values...)
}

func TestRunner(t *testing.T) {
	rec := &recorder{err: errors.New("daemon busy")}

	var (
		mu        sync.Mutex
		elevation = -10.0
	)

	solar := zagreb
	// Keep the location fixed and drive the time instead.
	start := time.Date(2024, time.June, 21, 0, 0, 0, 0, time.UTC)
	rise, _ := sunrise.SunriseSunset(solar.Latitude, solar.Longitude, start.Year(), start.Month(), start.Day())

	r := NewRunner(log.New(), solar, time.Millisecond, rec.apply)
	r.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()

		if elevation < 0 {
			return start
		}

		return rise.Add(6 * time.Hour)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)

	go func() {
		errCh <- r.Run(ctx)
	}()

	// The first attempt fails and is retried.
	require.Eventually(t, func() bool {
		return len(rec.get()) == 1
	}, 5*time.Second, time.Millisecond)
	assert.Equal(t, []int{solar.NightTemperature}, rec.get())

	mu.Lock()
	elevation = 10
	mu.Unlock()

	require.Eventually(t, func() bool {
		return len(rec.get()) == 2
	}, 5*time.Second, time.Millisecond)

	// Unchanged temperatures are not applied again.
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, []int{solar.NightTemperature, solar.DayTemperature}, rec.get())

	cancel()
	require.NoError(t, <-errCh)
}
