package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/godbus/dbus/v5/prop"
	"github.com/jeremija/wl-gammarelay/colorramp"
	"github.com/jeremija/wl-gammarelay/types"
	"github.com/peer-calls/log"
)

const (
	dbusServiceName   = "rs.wl-gammarelay"
	dbusObjectPath    = "/"
	dbusInterfaceName = "rs.wl.gammarelay"
	introspectable    = "org.freedesktop.DBus.Introspectable"
	propertiesChanged = "PropertiesChanged"

	propTemperature = "Temperature"
	propBrightness  = "Brightness"
	propGamma       = "Gamma"
)

// ColorService is the daemon state exposed over D-Bus.
type ColorService interface {
	SetColor(ctx context.Context, color types.Color) (colorramp.Setting, error)
	Color() colorramp.Setting
	Subscribe() (<-chan colorramp.Setting, func())
}

// srv implements the methods of the rs.wl.gammarelay interface.
type srv struct {
	ctx   context.Context
	dbus  *DBus
	color ColorService
}

func (s *srv) update(color types.Color) (colorramp.Setting, *dbus.Error) {
	setting, err := s.color.SetColor(s.ctx, color)
	if err != nil {
		return setting, dbus.MakeFailedError(fmt.Errorf("failed to set color: %w", err))
	}

	s.dbus.syncProps(setting)

	return setting, nil
}

func (s *srv) UpdateTemperature(temperature int16) (uint16, *dbus.Error) {
	setting, err := s.update(types.Color{
		Temperature: fmt.Sprintf("%+d", temperature),
	})

	return uint16(setting.Temperature), err
}

func (s *srv) UpdateBrightness(brightness float64) (float64, *dbus.Error) {
	setting, err := s.update(types.Color{
		Brightness: formatRelative(brightness),
	})

	return setting.Brightness, err
}

func (s *srv) UpdateGamma(gamma float64) (float64, *dbus.Error) {
	setting, err := s.update(types.Color{
		Gamma: formatRelative(gamma),
	})

	return setting.Gamma[0], err
}

func formatRelative(v float64) string {
	str := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.HasPrefix(str, "-") {
		str = "+" + str
	}

	return str
}

type DBus struct {
	conn   *dbus.Conn
	logger log.Logger

	propsMu sync.Mutex
	props   *prop.Properties
}

func NewDBus(logger log.Logger) (*DBus, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to dbus: %w", err)
	}

	init := func() error {
		reply, err := conn.RequestName(dbusServiceName, dbus.NameFlagDoNotQueue)
		if err != nil {
			return fmt.Errorf("failed to request name: %w", err)
		}

		if reply != dbus.RequestNameReplyPrimaryOwner {
			return fmt.Errorf("name already taken")
		}

		return nil
	}

	if err := init(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to register dbus: %w", err)
	}

	return &DBus{
		conn:   conn,
		logger: logger.WithNamespaceAppended("dbus"),
	}, nil
}

// RegisterDisplayService exports the properties and methods and keeps the
// properties in sync with changes made through other clients until ctx is
// done.
func (d *DBus) RegisterDisplayService(ctx context.Context, color ColorService) error {
	logger := d.logger
	conn := d.conn

	setProp := func(name string, c types.Color) *dbus.Error {
		if _, err := color.SetColor(ctx, c); err != nil {
			logger.Error("Failed to set property", err, log.Ctx{
				"property": name,
			})

			return dbus.MakeFailedError(fmt.Errorf("failed to set color: %w", err))
		}

		return nil
	}

	current := color.Color()

	propsSpec := map[string]map[string]*prop.Prop{
		dbusInterfaceName: {
			propTemperature: {
				Value:    uint16(current.Temperature),
				Writable: true,
				Emit:     prop.EmitTrue,
				Callback: func(c *prop.Change) *dbus.Error {
					temp, _ := c.Value.(uint16)

					return setProp(propTemperature, types.Color{
						Temperature: strconv.Itoa(int(temp)),
					})
				},
			},
			propBrightness: {
				Value:    current.Brightness,
				Writable: true,
				Emit:     prop.EmitTrue,
				Callback: func(c *prop.Change) *dbus.Error {
					bri, _ := c.Value.(float64)

					return setProp(propBrightness, types.Color{
						Brightness: strconv.FormatFloat(bri, 'f', -1, 64),
					})
				},
			},
			propGamma: {
				Value:    current.Gamma[0],
				Writable: true,
				Emit:     prop.EmitTrue,
				Callback: func(c *prop.Change) *dbus.Error {
					gamma, _ := c.Value.(float64)

					return setProp(propGamma, types.Color{
						Gamma: strconv.FormatFloat(gamma, 'f', -1, 64),
					})
				},
			},
		},
	}

	props, err := prop.Export(conn, dbusObjectPath, propsSpec)
	if err != nil {
		return fmt.Errorf("export propsSpec failed: %w", err)
	}

	d.propsMu.Lock()
	d.props = props
	d.propsMu.Unlock()

	service := &srv{
		ctx:   ctx,
		dbus:  d,
		color: color,
	}

	if err := conn.Export(service, dbusObjectPath, dbusInterfaceName); err != nil {
		return fmt.Errorf("failed to register interface: %w", err)
	}

	n := &introspect.Node{
		Name: dbusObjectPath,
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			prop.IntrospectData,
			{
				Name:       dbusInterfaceName,
				Methods:    introspect.Methods(service),
				Properties: props.Introspection(dbusInterfaceName),
			},
		},
	}

	if err = conn.Export(
		introspect.NewIntrospectable(n),
		dbusObjectPath,
		introspectable,
	); err != nil {
		return fmt.Errorf("export introspectable failed: %w", err)
	}

	updates, unsubscribe := color.Subscribe()

	go func() {
		defer unsubscribe()

		for {
			select {
			case setting := <-updates:
				d.syncProps(setting)
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// syncProps updates the properties that differ from setting. It must not be
// called from a property callback since those hold the properties lock.
func (d *DBus) syncProps(setting colorramp.Setting) {
	d.propsMu.Lock()
	defer d.propsMu.Unlock()

	if d.props == nil {
		return
	}

	values := map[string]interface{}{
		propTemperature: uint16(setting.Temperature),
		propBrightness:  setting.Brightness,
		propGamma:       setting.Gamma[0],
	}

	for _, name := range []string{propTemperature, propBrightness, propGamma} {
		if d.props.GetMust(dbusInterfaceName, name) != values[name] {
			d.props.SetMust(dbusInterfaceName, name, values[name])
		}
	}
}

func (d *DBus) Close() error {
	return d.conn.Close()
}

// watchState is the last known value of each property.
type watchState struct {
	temperature uint16
	brightness  float64
	gamma       float64
}

var defaultWatchState = watchState{
	temperature: colorramp.NeutralTemperature,
	brightness:  1,
	gamma:       1,
}

// Format replaces {t}, {b} and {g} in format with the temperature,
// brightness and gamma.
func (s watchState) Format(format string) string {
	return strings.NewReplacer(
		"{t}", strconv.Itoa(int(s.temperature)),
		"{b}", strconv.FormatFloat(s.brightness, 'f', 2, 64),
		"{g}", strconv.FormatFloat(s.gamma, 'f', 2, 64),
	).Replace(format)
}

// update applies changed properties and reports whether any of them is
// used by format.
func (s *watchState) update(format string, changed map[string]dbus.Variant) bool {
	updated := false

	if v, ok := changed[propTemperature]; ok {
		if t, ok := v.Value().(uint16); ok {
			s.temperature = t
			updated = updated || strings.Contains(format, "{t}")
		}
	}

	if v, ok := changed[propBrightness]; ok {
		if b, ok := v.Value().(float64); ok {
			s.brightness = b
			updated = updated || strings.Contains(format, "{b}")
		}
	}

	if v, ok := changed[propGamma]; ok {
		if g, ok := v.Value().(float64); ok {
			s.gamma = g
			updated = updated || strings.Contains(format, "{g}")
		}
	}

	return updated
}

// Watch prints a line formatted with format for the current state and every
// time a property used in format changes, until ctx is done.
func Watch(ctx context.Context, w io.Writer, format string) error {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	defer conn.Close()

	if err := conn.AddMatchSignal(
		dbus.WithMatchObjectPath(dbusObjectPath),
		dbus.WithMatchInterface("org.freedesktop.DBus.Properties"),
		dbus.WithMatchMember(propertiesChanged),
	); err != nil {
		return fmt.Errorf("failed to add match: %w", err)
	}

	status := defaultWatchState

	obj := conn.Object(dbusServiceName, dbusObjectPath)

	initial := map[string]dbus.Variant{}

	for _, name := range []string{propTemperature, propBrightness, propGamma} {
		if v, err := obj.GetProperty(dbusInterfaceName + "." + name); err == nil {
			initial[name] = v
		}
	}

	status.update(format, initial)

	fmt.Fprintln(w, status.Format(format))

	signals := make(chan *dbus.Signal, 16)
	conn.Signal(signals)

	for {
		select {
		case <-ctx.Done():
			return nil
		case sig, ok := <-signals:
			if !ok {
				return nil
			}

			if sig.Name != "org.freedesktop.DBus.Properties."+propertiesChanged || len(sig.Body) < 2 {
				continue
			}

			if iface, _ := sig.Body[0].(string); iface != dbusInterfaceName {
				continue
			}

			changed, ok := sig.Body[1].(map[string]dbus.Variant)
			if !ok {
				continue
			}

			if status.update(format, changed) {
				fmt.Fprintln(w, status.Format(format))
			}
		}
	}
}
