package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/varken/sensorbridge/internal/config"
	"codeberg.org/varken/sensorbridge/internal/engine"
	"codeberg.org/varken/sensorbridge/internal/errors"
	"codeberg.org/varken/sensorbridge/internal/hwio"
	"codeberg.org/varken/sensorbridge/internal/logger"
	"codeberg.org/varken/sensorbridge/internal/pid"
	"codeberg.org/varken/sensorbridge/internal/sensor"
	"codeberg.org/varken/sensorbridge/internal/server"
	"codeberg.org/varken/sensorbridge/internal/statetree"
	"github.com/benbjohnson/clock"
)

const shutdownTimeout = 5 * time.Second

// ports bundles the three sensor ports and the hardware handles to
// release at teardown.
type ports struct {
	thermal sensor.ThermalHumidityPort
	power   sensor.PowerMonitorPort
	ranging sensor.RangingPort
	closers []func() error
}

func (p *ports) Close() {
	for _, close := range p.closers {
		if err := close(); err != nil {
			logger.Warn().Err(err).Msg("failed to release hardware handle")
		}
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Debug, cfg.Verbose, logger.IsService())
	if !cfg.Debug && !cfg.Verbose {
		if err := logger.SetLevel(cfg.LogLevel); err != nil {
			logger.Fatal().Err(err).Msg("invalid log level")
		}
	}
	logger.Debug().Msg("Config loaded")

	if err := pid.Acquire(); err != nil {
		logger.Fatal().Err(err).Msg("failed to acquire PID file")
	}
	defer func() {
		if err := pid.Release(); err != nil {
			logger.Warn().Err(err).Msg("failed to release PID file")
		}
	}()

	sensors := buildPorts(cfg)
	defer sensors.Close()

	tree := statetree.New()
	hub := server.NewHub()
	reader := sensor.NewReader(sensors.thermal, sensors.power, sensors.ranging, nil)

	interval := time.Duration(cfg.Interval) * time.Second
	eng := engine.New(reader, tree, hub, clock.New(), interval)
	eng.ProvisionSlots()

	// Failing to establish the publish interface is the one fatal setup
	// error; sensors merely degrade.
	srv := server.New(cfg.Listen, tree, hub)
	if err := srv.Start(); err != nil {
		logger.FatalWithCode(errors.Wrap(errors.ErrPublishSetup, err)).
			Msg("failed to start state tree server")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)
	go hub.Run(ctx)

	logger.Info().
		Str("listen", cfg.Listen).
		Int("interval_s", cfg.Interval).
		Msg("sensorbridge started")

	if err := eng.Run(ctx); err != nil {
		logger.ErrorWithCode(errors.Wrap(errors.ErrMainLoop, err)).Msg("synchronization loop failed")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shut down state tree server")
	}

	logger.Info().Msg("Exiting...")
}

// buildPorts attempts hardware init for each sensor. A failure downgrades
// that port to permanently unavailable and the process continues; the
// status slot is the only place the failure shows up for remote clients.
func buildPorts(cfg *config.Config) *ports {
	p := &ports{}

	var thermalDev sensor.ThermalHumidityDevice
	if err := hwio.Init(); err != nil {
		logger.Error().Err(err).Msg("hardware init failed; all GPIO sensors unavailable")
	} else {
		thermalDev = sensor.NewDHTDevice(cfg.DHTPin)
		logger.Info().Int("pin", cfg.DHTPin).Msg("DHT11 initialized")
	}
	p.thermal = sensor.NewDHT11Port(thermalDev)

	var powerDev sensor.PowerDevice
	if bus, err := hwio.OpenI2C(cfg.I2CBus); err != nil {
		logger.Error().Err(err).Msg("INA219 initialization failed")
	} else {
		p.closers = append(p.closers, bus.Close)
		if powerDev, err = sensor.NewINA219Device(bus, cfg.INA219Addr); err != nil {
			logger.Error().Err(err).Msg("INA219 initialization failed")
		} else {
			logger.Info().Int("addr", cfg.INA219Addr).Msg("INA219 initialized")
		}
	}
	p.power = sensor.NewINA219Port(powerDev)

	p.ranging = buildRangingPort(cfg, p)

	return p
}

func buildRangingPort(cfg *config.Config, p *ports) sensor.RangingPort {
	trigger, err := hwio.OpenOutput(cfg.TriggerPin)
	if err != nil {
		logger.Error().Err(err).Msg("HC-SR04 initialization failed")
		return sensor.NewHCSR04Port(nil, nil, nil)
	}
	p.closers = append(p.closers, trigger.Close)

	echo, err := hwio.OpenInput(cfg.EchoPin)
	if err != nil {
		logger.Error().Err(err).Msg("HC-SR04 initialization failed")
		return sensor.NewHCSR04Port(nil, nil, nil)
	}
	p.closers = append(p.closers, echo.Close)

	// Let the transducer settle after the trigger line is pulled low
	time.Sleep(500 * time.Millisecond)
	logger.Info().
		Int("trigger_pin", cfg.TriggerPin).
		Int("echo_pin", cfg.EchoPin).
		Msg("HC-SR04 initialized")

	return sensor.NewHCSR04Port(trigger, echo, clock.New())
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}
