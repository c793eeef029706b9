// Package cmd parse args to configure application.
package cmd

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"groupcall/media"
	"groupcall/media/engine"
	"groupcall/metric"
	"groupcall/signal"
)

// Config aggregates the flag-configurable parts of the application.
type Config struct {
	Signal signal.Config
	Media  media.Config
}

// Validate validates the configuration. Media ports are validated when
// the engine is constructed.
func (c Config) Validate() error {
	return c.Signal.Validate()
}

// Run starts the application.
func Run() {
	config, err := SetupConfig(os.Stdout, os.Args[1:])
	if err != nil {
		os.Exit(1)
	}

	metrics := metric.New(metric.Config{
		Port: metric.DefaultMetricsPort,
		Path: metric.DefaultMetricsPath,
	})
	metrics.RegisterMetrics()
	metrics.Start()
	stop := make(chan struct{})
	defer close(stop)
	go metrics.UpdateSystemMetrics(stop)

	eng, err := engine.New(config.Media)
	if err != nil {
		log.Printf("failed to create media engine: %v", err)
		os.Exit(1)
	}

	s := signal.New(config.Signal, eng, metrics)
	if err = s.Start(); err != nil {
		os.Exit(1)
	}
}

// SetupConfig sets up and returns the configuration.
func SetupConfig(w io.Writer, args []string) (Config, error) {
	config, err := Parse(w, args)
	if err != nil {
		return config, err
	}
	if err = config.Validate(); err != nil {
		return config, err
	}
	return config, nil
}

// Parse parses the command line arguments.
func Parse(w io.Writer, args []string) (Config, error) {
	con := Config{}

	fs := flag.NewFlagSet("groupcall", flag.ContinueOnError)
	fs.SetOutput(w)
	fs.IntVar(&con.Signal.Port, "port", signal.DefaultPort, "listening port")
	fs.BoolVar(&con.Signal.Debug, "debug", false, "debug mode")
	fs.StringVar(&con.Signal.KeyFile, "key", "", "key file path")
	fs.StringVar(&con.Signal.CertFile, "cert", "", "cert file path")
	fs.StringVar(&con.Media.STUNServer, "stun", "", "STUN server URL")
	fs.StringVar(&con.Media.MinUDPPort, "min-udp-port", "", "minimum UDP port for media")
	fs.StringVar(&con.Media.MaxUDPPort, "max-udp-port", "", "maximum UDP port for media")

	err := fs.Parse(args)
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse args: %w", err)
	}

	if fs.NArg() != 0 {
		return Config{}, errors.New("some args are not parsed")
	}

	return con, nil
}
