// Package config loads the daemon configuration from a TOML file and
// watches it for changes.
package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jeremija/wl-gammarelay/colorramp"
	"github.com/peer-calls/log"
	"github.com/pelletier/go-toml/v2"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config holds the daemon defaults. Command line flags take precedence.
type Config struct {
	Socket  string `toml:"socket"`
	History string `toml:"history"`
	// LogLevel is one of trace, debug, info, warn or error.
	LogLevel string `toml:"log_level"`
	// DBus exports the rs.wl-gammarelay service on the session bus.
	DBus bool `toml:"dbus"`

	// Color applied when the daemon starts and when the file changes.
	Temperature int     `toml:"temperature"`
	Brightness  float64 `toml:"brightness"`
	Gamma       float64 `toml:"gamma"`

	Schedule Schedule `toml:"schedule"`
}

// Schedule configures the temperature to follow the elevation of the sun.
type Schedule struct {
	Enabled   bool    `toml:"enabled"`
	Latitude  float64 `toml:"latitude"`
	Longitude float64 `toml:"longitude"`

	DayTemperature   int `toml:"day_temperature"`
	NightTemperature int `toml:"night_temperature"`

	// The temperature is interpolated while the sun is between these
	// elevations, in degrees.
	ElevationDay   float64 `toml:"elevation_day"`
	ElevationNight float64 `toml:"elevation_night"`

	Interval Duration `toml:"interval"`
}

// Duration is a time.Duration written as a string, e.g. "1m30s".
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}

	*d = Duration(v)

	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Default returns the configuration used for keys missing from the file.
func Default() Config {
	return Config{
		LogLevel:    "info",
		DBus:        true,
		Temperature: colorramp.NeutralTemperature,
		Brightness:  1,
		Gamma:       1,
		Schedule: Schedule{
			DayTemperature:   colorramp.NeutralTemperature,
			NightTemperature: 4500,
			ElevationDay:     3,
			ElevationNight:   -6,
			Interval:         Duration(time.Minute),
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/wl-gammarelay/config.toml.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}

	return filepath.Join(dir, "wl-gammarelay", "config.toml")
}

// Load reads the file at path on top of Default. A missing file is not an
// error.
func Load(path string) (Config, error) {
	c := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return c, nil
	}

	if err != nil {
		return c, fmt.Errorf("reading config: %w", err)
	}

	if err := Parse(data, &c); err != nil {
		return Default(), fmt.Errorf("%s: %w", path, err)
	}

	return c, nil
}

// Parse decodes data into c and validates the result. Unknown keys are
// rejected.
func Parse(data []byte, c *Config) error {
	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(c); err != nil {
		var strictErr *toml.StrictMissingError
		if errors.As(err, &strictErr) {
			return fmt.Errorf("%w: %s", ErrInvalidConfig, strictErr.String())
		}

		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			row, col := decodeErr.Position()
			return fmt.Errorf("%w: line %d column %d: %w", ErrInvalidConfig, row, col, err)
		}

		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return c.Validate()
}

func (c Config) Validate() error {
	if err := c.Setting().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if _, err := ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if s := c.Schedule; s.Enabled {
		if s.Latitude < -90 || s.Latitude > 90 {
			return fmt.Errorf("%w: latitude must be in range [-90, 90], but was %v", ErrInvalidConfig, s.Latitude)
		}

		if s.Longitude < -180 || s.Longitude > 180 {
			return fmt.Errorf("%w: longitude must be in range [-180, 180], but was %v", ErrInvalidConfig, s.Longitude)
		}

		for _, temperature := range []int{s.DayTemperature, s.NightTemperature} {
			if _, err := colorramp.GetWhitePoint(temperature); err != nil {
				return fmt.Errorf("%w: schedule: %w", ErrInvalidConfig, err)
			}
		}

		if s.ElevationDay <= s.ElevationNight {
			return fmt.Errorf("%w: elevation_day must be above elevation_night", ErrInvalidConfig)
		}

		if s.Interval <= 0 {
			return fmt.Errorf("%w: schedule interval must be positive", ErrInvalidConfig)
		}
	}

	return nil
}

// Setting returns the configured color.
func (c Config) Setting() colorramp.Setting {
	return colorramp.Setting{
		Temperature: c.Temperature,
		Brightness:  c.Brightness,
		Gamma:       [3]float64{c.Gamma, c.Gamma, c.Gamma},
	}
}

// ParseLevel maps a level name to a log.Level.
func ParseLevel(name string) (log.Level, error) {
	switch name {
	case "trace":
		return log.LevelTrace, nil
	case "debug":
		return log.LevelDebug, nil
	case "info", "":
		return log.LevelInfo, nil
	case "warn":
		return log.LevelWarn, nil
	case "error":
		return log.LevelError, nil
	default:
		return log.LevelInfo, fmt.Errorf("unknown log level: %q", name)
	}
}

// Watch calls onChange with the new configuration every time the file at
// path is written, until ctx is done. Invalid files are logged and skipped.
func Watch(ctx context.Context, logger log.Logger, path string, onChange func(Config)) error {
	logger = logger.WithNamespaceAppended("config")

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	path = filepath.Clean(path)

	// Editors replace the file, so watch the directory.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if filepath.Clean(event.Name) != path || !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			c, err := Load(path)
			if err != nil {
				logger.Warn("Ignoring config change", log.Ctx{
					"path":  path,
					"error": err,
				})

				continue
			}

			logger.Info("Config reloaded", log.Ctx{
				"path": path,
			})

			onChange(c)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			logger.Warn("Watcher error", log.Ctx{
				"error": err,
			})
		}
	}
}
