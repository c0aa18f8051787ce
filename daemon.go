package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/jeremija/wl-gammarelay/colorramp"
	"github.com/jeremija/wl-gammarelay/config"
	"github.com/jeremija/wl-gammarelay/display"
	"github.com/jeremija/wl-gammarelay/schedule"
	"github.com/jeremija/wl-gammarelay/service"
	"github.com/jeremija/wl-gammarelay/types"
	"github.com/jeremija/wl-gammarelay/wayland"
	"github.com/peer-calls/log"
)

// ColorSetter is the part of the service used by the daemon components.
type ColorSetter interface {
	SetColor(ctx context.Context, color types.Color) (colorramp.Setting, error)
}

// daemon owns the display connection and everything serving it.
type daemon struct {
	log     log.Logger
	display *display.Display
	service *service.Service
	dbus    *DBus

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	scheduleMu     sync.Mutex
	scheduleCancel context.CancelFunc
}

func startDaemon(ctx context.Context, logger log.Logger, cfg config.Config, args Arguments) (*daemon, error) {
	conn, err := wayland.Connect(logger, args.DisplayName)
	if err != nil {
		return nil, fmt.Errorf("connect to display: %w", err)
	}

	disp, err := display.New(logger, conn)
	if err != nil {
		return nil, err
	}

	svc := service.New(logger, disp, service.Params{
		SocketPath:  args.SocketPath,
		HistoryPath: args.HistoryPath,
	})

	if err := svc.Listen(); err != nil {
		disp.Close()
		return nil, fmt.Errorf("failed to start service: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)

	d := &daemon{
		log:     logger,
		display: disp,
		service: svc,
		ctx:     ctx,
		cancel:  cancel,
	}

	d.goRun("Serve", svc.Serve)

	d.applyConfig(cfg)

	if !args.NoDBus {
		if err := d.registerDBus(); err != nil {
			// The socket still works without the session bus.
			logger.Warn("D-Bus service disabled", log.Ctx{
				"error": err,
			})
		}
	}

	if args.ConfigPath != "" {
		path := args.ConfigPath

		d.goRun("Config watch", func(ctx context.Context) error {
			return config.Watch(ctx, logger, path, d.applyConfig)
		})
	}

	return d, nil
}

func (d *daemon) goRun(name string, fn func(ctx context.Context) error) {
	d.wg.Add(1)

	go func() {
		defer d.wg.Done()

		if err := fn(d.ctx); err != nil {
			d.log.Error(name+" done", err, nil)
		}
	}()
}

func (d *daemon) registerDBus() error {
	bus, err := NewDBus(d.log)
	if err != nil {
		return err
	}

	if err := bus.RegisterDisplayService(d.ctx, d.service); err != nil {
		bus.Close()
		return err
	}

	d.dbus = bus

	return nil
}

// applyConfig sets the configured color and restarts the schedule. The
// temperature is left to the schedule when it is enabled.
func (d *daemon) applyConfig(cfg config.Config) {
	color := configColor(cfg)

	if _, err := d.service.SetColor(d.ctx, color); err != nil {
		d.log.Warn("Failed to apply configured color", log.Ctx{
			"error": err,
		})
	}

	d.startSchedule(cfg.Schedule)
}

func configColor(cfg config.Config) types.Color {
	color := *service.FormatColor(cfg.Setting())

	if cfg.Schedule.Enabled {
		color.Temperature = ""
	}

	return color
}

func (d *daemon) startSchedule(s config.Schedule) {
	d.scheduleMu.Lock()
	defer d.scheduleMu.Unlock()

	if d.scheduleCancel != nil {
		d.scheduleCancel()
		d.scheduleCancel = nil
	}

	if !s.Enabled || d.ctx.Err() != nil {
		return
	}

	ctx, cancel := context.WithCancel(d.ctx)
	d.scheduleCancel = cancel

	runner := schedule.NewRunner(d.log, schedule.Solar{
		Latitude:         s.Latitude,
		Longitude:        s.Longitude,
		ElevationNight:   s.ElevationNight,
		ElevationDay:     s.ElevationDay,
		NightTemperature: s.NightTemperature,
		DayTemperature:   s.DayTemperature,
	}, time.Duration(s.Interval), scheduleApplyFunc(d.service))

	d.wg.Add(1)

	go func() {
		defer d.wg.Done()

		if err := runner.Run(ctx); err != nil {
			d.log.Error("Schedule done", err, nil)
		}
	}()
}

func scheduleApplyFunc(setter ColorSetter) schedule.ApplyFunc {
	return func(ctx context.Context, temperature int) error {
		_, err := setter.SetColor(ctx, types.Color{
			Temperature: strconv.Itoa(temperature),
		})

		return err
	}
}

// Done is closed when the display connection is lost.
func (d *daemon) Done() <-chan struct{} {
	return d.display.Done()
}

// Close stops all components and restores the outputs.
func (d *daemon) Close() error {
	d.cancel()
	d.wg.Wait()

	var errs []error

	if d.dbus != nil {
		errs = append(errs, d.dbus.Close())
	}

	errs = append(errs, d.service.Close())

	d.display.Close()

	if err := d.display.Err(); err != nil {
		errs = append(errs, fmt.Errorf("display: %w", err))
	}

	return errors.Join(errs...)
}
