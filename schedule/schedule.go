// Package schedule changes the color temperature with the elevation of the
// sun.
package schedule

import (
	"context"
	"math"
	"time"

	"github.com/nathan-osman/go-sunrise"
	"github.com/peer-calls/log"
)

// Solar interpolates a temperature from the elevation of the sun at a
// location.
type Solar struct {
	Latitude  float64
	Longitude float64

	// The sun is below ElevationNight at night and above ElevationDay
	// during the day, in degrees.
	ElevationNight float64
	ElevationDay   float64

	NightTemperature int
	DayTemperature   int
}

// Temperature returns the temperature for the given time.
func (s Solar) Temperature(now time.Time) int {
	return s.TemperatureAt(sunrise.Elevation(s.Latitude, s.Longitude, now))
}

// TemperatureAt returns the temperature for the given elevation of the sun.
func (s Solar) TemperatureAt(elevation float64) int {
	var progress float64

	switch {
	case elevation <= s.ElevationNight:
		progress = 0
	case elevation >= s.ElevationDay:
		progress = 1
	default:
		progress = (elevation - s.ElevationNight) / (s.ElevationDay - s.ElevationNight)
	}

	night := float64(s.NightTemperature)
	day := float64(s.DayTemperature)

	return int(math.Round((1-progress)*night + progress*day))
}

// ApplyFunc sets the temperature.
type ApplyFunc func(ctx context.Context, temperature int) error

// Runner applies the solar temperature periodically.
type Runner struct {
	log      log.Logger
	solar    Solar
	interval time.Duration
	apply    ApplyFunc

	// now is replaced in tests.
	now func() time.Time
}

func NewRunner(logger log.Logger, solar Solar, interval time.Duration, apply ApplyFunc) *Runner {
	return &Runner{
		log:      logger.WithNamespaceAppended("schedule"),
		solar:    solar,
		interval: interval,
		apply:    apply,
		now:      time.Now,
	}
}

// Run applies the temperature immediately and then on every tick when it
// changed, until ctx is done. A failed update is retried on the next tick.
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	last := -1

	for {
		temperature := r.solar.Temperature(r.now())

		if temperature != last {
			if err := r.apply(ctx, temperature); err != nil {
				r.log.Warn("Failed to apply scheduled temperature", log.Ctx{
					"temperature": temperature,
					"error":       err,
				})
			} else {
				r.log.Debug("Applied scheduled temperature", log.Ctx{
					"temperature": temperature,
				})

				last = temperature
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
