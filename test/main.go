// Command test sets a warm color on all outputs for a few seconds and then
// restores the original gamma tables. It talks to the display directly,
// without the daemon.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jeremija/wl-gammarelay/colorramp"
	"github.com/jeremija/wl-gammarelay/display"
	"github.com/jeremija/wl-gammarelay/wayland"
	"github.com/peer-calls/log"
	"github.com/spf13/pflag"
)

func main() {
	temperature := pflag.IntP("temperature", "t", 3000, "Color temperature to set")
	brightness := pflag.Float64P("brightness", "b", 1, "Brightness to set")
	duration := pflag.DurationP("duration", "d", 5*time.Second, "How long to keep the color")

	pflag.Parse()

	if err := run(*temperature, *brightness, *duration); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(temperature int, brightness float64, duration time.Duration) error {
	logger := log.New().WithConfig(log.NewConfig(log.ConfigMap{
		"**": log.LevelTrace,
	}))

	conn, err := wayland.Connect(logger, "")
	if err != nil {
		return err
	}

	d, err := display.New(logger, conn)
	if err != nil {
		return err
	}

	defer d.Close()

	setting := colorramp.Setting{
		Temperature: temperature,
		Brightness:  brightness,
		Gamma:       [3]float64{1, 1, 1},
	}

	ctx, cancel := context.WithTimeout(context.Background(), duration)
	defer cancel()

	if err := d.SetColor(ctx, setting); err != nil {
		return fmt.Errorf("set color: %w", err)
	}

	select {
	case <-ctx.Done():
	case <-d.Done():
		return d.Err()
	}

	return nil
}
