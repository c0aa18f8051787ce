package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"path"
	"syscall"

	"github.com/jeremija/wl-gammarelay/config"
	"github.com/jeremija/wl-gammarelay/types"
	"github.com/peer-calls/log"
	"github.com/spf13/pflag"
)

var (
	Version    = "unknown"
	CommitHash = ""
)

type Arguments struct {
	ConfigPath  string
	SocketPath  string
	HistoryPath string
	DisplayName string
	LogLevel    string

	NoStartDaemon bool
	NoDBus        bool

	Temperature string
	Brightness  string
	Gamma       string

	Watch     string
	Subscribe bool

	Version bool
	Verbose bool

	// changed contains the flags set on the command line.
	changed map[string]bool
}

func (a Arguments) Color() types.Color {
	return types.Color{
		Temperature: a.Temperature,
		Brightness:  a.Brightness,
		Gamma:       a.Gamma,
	}
}

// applyConfig fills in the values that were not set on the command line.
func (a *Arguments) applyConfig(c config.Config) {
	if !a.changed["sock"] && c.Socket != "" {
		a.SocketPath = c.Socket
	}

	if !a.changed["history"] && c.History != "" {
		a.HistoryPath = c.History
	}

	if !a.changed["log-level"] && c.LogLevel != "" {
		a.LogLevel = c.LogLevel
	}

	if !a.changed["no-dbus"] {
		a.NoDBus = !c.DBus
	}
}

func getSocketDir() string {
	runtimeDir := os.Getenv("XDG_RUNTIME_DIR")
	if runtimeDir != "" {
		return runtimeDir
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		return homeDir
	}

	return ""
}

func parseArgs(argsSlice []string) (Arguments, error) {
	var args Arguments

	fs := pflag.NewFlagSet(argsSlice[0], pflag.ContinueOnError)

	fs.SetOutput(os.Stdout)

	fs.Usage = func() {
		fmt.Fprintf(os.Stdout, "Usage of %s:\n", argsSlice[0])
		fs.PrintDefaults()
	}

	tempDir := os.TempDir()

	defaultHistoryPath := path.Join(tempDir, ".wl-gammarelay.hist")
	defaultSocketPath := path.Join(getSocketDir(), "wl-gammarelay.sock")

	fs.StringVarP(&args.ConfigPath, "config", "c", config.DefaultPath(), "Config file to use")
	fs.StringVarP(&args.HistoryPath, "history", "H", defaultHistoryPath, "History file to use")
	fs.StringVarP(&args.SocketPath, "sock", "s", defaultSocketPath, "Unix domain socket path for RPC")
	fs.StringVarP(&args.DisplayName, "display", "d", "", "Wayland display to connect to, defaults to $WAYLAND_DISPLAY")
	fs.StringVarP(&args.LogLevel, "log-level", "l", "info", "Daemon log level: trace, debug, info, warn or error. --verbose selects trace.")

	fs.StringVarP(&args.Temperature, "temperature", "t", "", "Color temperature to set, neutral is 6500. Prefix with + or - for relative changes.")
	fs.StringVarP(&args.Brightness, "brightness", "b", "", "Brightness to set, max is 1.0")
	fs.StringVarP(&args.Gamma, "gamma", "g", "", "Gamma to set, neutral is 1.0")

	fs.BoolVarP(&args.NoStartDaemon, "no-daemon", "D", false, "Do not start daemon if not running")
	fs.BoolVar(&args.NoDBus, "no-dbus", false, "Do not export the D-Bus service")

	fs.StringVarP(&args.Watch, "watch", "w", "", "Print a line per change using a format like \"{t} {b} {g}\" via D-Bus and exit")
	fs.BoolVarP(&args.Subscribe, "subscribe", "S", false, "Print color changes received over the socket")

	fs.BoolVarP(&args.Version, "version", "V", false, "Print version and exit")
	fs.BoolVarP(&args.Verbose, "verbose", "v", false, "Print client socket request and response messages and log at trace level")

	if err := fs.Parse(argsSlice); err != nil {
		return Arguments{}, fmt.Errorf("parsing args: %w", err)
	}

	args.changed = map[string]bool{}

	fs.Visit(func(f *pflag.Flag) {
		args.changed[f.Name] = true
	})

	return args, nil
}

func newLogger(level string) (log.Logger, error) {
	lvl, err := config.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	return log.New().WithConfig(log.NewConfig(log.ConfigMap{
		"**": lvl,
	})), nil
}

func main() {
	args, err := parseArgs(os.Args)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}

		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if args.Version {
		fmt.Println(Version)

		if CommitHash != "" {
			fmt.Println(CommitHash)
		}

		return
	}

	if err := main2(args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main2(args Arguments) error {
	ctx := context.Background()

	// We need to handle these events so that the listener removes the socket
	// file gracefully, otherwise the daemon might not start successfully next
	// time.
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if args.Watch != "" {
		return Watch(ctx, os.Stdout, args.Watch)
	}

	cfg, err := config.Load(args.ConfigPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	args.applyConfig(cfg)

	if args.Verbose && !args.changed["log-level"] {
		args.LogLevel = "trace"
	}

	logger, err := newLogger(args.LogLevel)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}

	_, err = os.Stat(args.SocketPath)
	if err != nil && !args.NoStartDaemon {
		d, err := startDaemon(ctx, logger, cfg, args)
		if err != nil {
			return fmt.Errorf("failed to start daemon: %w", err)
		}

		defer d.Close()

		logger.Info("Started daemon", nil)

		go func() {
			select {
			case <-d.Done():
				// The display connection is gone, nothing left to serve.
				cancel()
			case <-ctx.Done():
			}
		}()
	} else if !args.Subscribe {
		// So we don't block at the end.
		cancel()
	}

	if err := runClient(ctx, os.Stdout, args); err != nil {
		return err
	}

	// If we started the server, keep running until the context is canceled.
	<-ctx.Done()

	return nil
}

// runClient sends the color from args and prints the responses.
func runClient(ctx context.Context, w io.Writer, args Arguments) error {
	var dialer net.Dialer

	conn, err := dialer.DialContext(ctx, "unix", args.SocketPath)
	if err != nil {
		return fmt.Errorf("dial unix socket: %w", err)
	}

	defer conn.Close()

	color := args.Color()

	request := types.Request{
		Color: &color,
	}

	if args.Subscribe {
		request.Subscribe = []types.SubscriptionKey{types.SubscriptionKeyColor}
	}

	requestJSON, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	if args.Verbose {
		fmt.Fprintln(w, string(requestJSON))
	}

	if _, err := conn.Write(append(requestJSON, '\n')); err != nil {
		return fmt.Errorf("sending request: %w", err)
	}

	scanner := bufio.NewScanner(conn)

	if !scanner.Scan() {
		return fmt.Errorf("reading response: %w", scannerErr(scanner))
	}

	var res types.Response

	if err := json.Unmarshal(scanner.Bytes(), &res); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	if args.Verbose {
		fmt.Fprintln(w, scanner.Text())
	}

	if res.Error != "" {
		return fmt.Errorf("daemon: %s", res.Error)
	}

	if !args.Subscribe {
		return nil
	}

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	printColor(w, res.Color)

	for scanner.Scan() {
		var res types.Response

		if err := json.Unmarshal(scanner.Bytes(), &res); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}

		if res.Subscription == types.SubscriptionKeyColor {
			printColor(w, res.Color)
		}
	}

	if ctx.Err() != nil {
		return nil
	}

	return scannerErr(scanner)
}

func scannerErr(scanner *bufio.Scanner) error {
	if err := scanner.Err(); err != nil {
		return err
	}

	return io.EOF
}

func printColor(w io.Writer, color *types.Color) {
	if color == nil {
		return
	}

	fmt.Fprintf(w, "%s %s %s\n", color.Temperature, color.Brightness, color.Gamma)
}
