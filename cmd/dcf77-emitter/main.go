// Command dcf77-emitter transmits the DCF77 time code on a GPIO pin and
// publishes its state to MQTT and a local status page.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/sweeney/dcf77-emitter/internal/clock"
	"github.com/sweeney/dcf77-emitter/internal/config"
	"github.com/sweeney/dcf77-emitter/internal/dcf77"
	"github.com/sweeney/dcf77-emitter/internal/emitter"
	"github.com/sweeney/dcf77-emitter/internal/gpio"
	"github.com/sweeney/dcf77-emitter/internal/logging"
	"github.com/sweeney/dcf77-emitter/internal/mqtt"
	"github.com/sweeney/dcf77-emitter/internal/status"
	"github.com/sweeney/dcf77-emitter/internal/web"
)

// statusRefresh is how often the loop samples the switch, clock sync, and
// broker connection for the status page.
const statusRefresh = time.Second

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (empty for defaults and DCF77_* env)")
	printFrame := flag.Bool("print-frame", false, "Print the frame for the next minute and exit")

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}

	if *printFrame {
		if err := writeFrame(os.Stdout, clock.NewSystem(cfg.Location(), false)); err != nil {
			fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
			os.Exit(1)
		}
		return
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("fatal", zap.Error(err))
	}
}

// writeFrame prints the frame that would be transmitted during the current
// minute, which encodes the following one.
func writeFrame(w io.Writer, src clock.Source) error {
	now, _ := src.Now()
	f := dcf77.FrameAt(now.Truncate(time.Minute).Add(time.Minute))
	bits, err := dcf77.Encode(f)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "frame: %s\nbits:  %s\n", f, bits)
	return err
}

func run(cfg *config.Config, logger *zap.Logger) error {
	// Initialize GPIO
	chip, err := gpio.OpenChip(cfg.GPIO.Chip)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer chip.Close()

	antenna, err := chip.Output(cfg.GPIO.AntennaPin, cfg.GPIO.AntennaActiveLow)
	if err != nil {
		return fmt.Errorf("antenna pin: %w", err)
	}
	led, err := chip.Output(cfg.GPIO.LEDPin, false)
	if err != nil {
		return fmt.Errorf("led pin: %w", err)
	}

	// Initialize MQTT
	var (
		publisher  mqtt.Publisher
		mqttStatus mqtt.ConnectionStatus
		rp         *mqtt.RealPublisher
	)
	if cfg.MQTT.Enabled {
		rp, err = mqtt.NewRealPublisher(mqtt.Options{
			Broker:     cfg.MQTT.Broker,
			ClientID:   cfg.MQTT.ClientID,
			Username:   cfg.MQTT.Username,
			Password:   cfg.MQTT.Password,
			Prefix:     cfg.MQTT.Prefix,
			BufferSize: cfg.MQTT.BufferSize,
			Logger:     logger,
		})
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		defer rp.Close()
		publisher, mqttStatus = rp, rp
	}

	sw, err := openSwitch(cfg, chip, rp, logger)
	if err != nil {
		return err
	}

	src := clock.NewSystem(cfg.Location(), cfg.RequireSync)

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), statusConfig(cfg))
	if net := status.ReadNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}
	refreshStatus(tracker, sw, src, mqttStatus)

	hub := web.NewHub(tracker, logger)

	observers := emitter.Observers{tracker, hub, logging.NewObserver(logger)}
	var queue *mqtt.EventQueue
	if publisher != nil {
		queue = mqtt.NewEventQueue(publisher, cfg.MQTT.BufferSize, logger)
		observers = append(observers, queue)
	}

	em, err := emitter.New(emitter.Config{
		Antenna:          antenna,
		LED:              led,
		Switch:           sw,
		Clock:            src,
		Observer:         observers,
		PollInterval:     cfg.Timing.PollInterval,
		StaleAfter:       cfg.Timing.StaleAfter,
		OverrunThreshold: cfg.Timing.OverrunThreshold,
	})
	if err != nil {
		return fmt.Errorf("init emitter: %w", err)
	}

	// Publish startup event with full status snapshot
	if publisher != nil {
		snap := tracker.Snapshot()
		startup := mqtt.SystemEvent{
			Timestamp:  snap.Now,
			Event:      "STARTUP",
			Retained:   true,
			RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
		}
		if err := publisher.PublishSystem(startup); err != nil {
			logger.Warn("startup event buffered", zap.Error(err))
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	start := func(fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn()
		}()
	}

	start(func() { hub.Run(ctx) })
	if queue != nil {
		start(func() { queue.Run(ctx) })
	}
	start(func() {
		if err := em.Run(ctx); err != nil {
			logger.Error("emitter stopped", zap.Error(err))
		}
	})

	// Start HTTP status server
	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker, hub, logger)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server", zap.Error(err))
			}
		}()
		defer func() {
			sctx, scancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer scancel()
			srv.Shutdown(sctx)
		}()
		logger.Info("http status server listening", zap.String("addr", cfg.HTTP.Addr))
	}

	logger.Info("started",
		zap.String("zone", cfg.Zone),
		zap.Int("antenna_pin", cfg.GPIO.AntennaPin),
		zap.Int("led_pin", cfg.GPIO.LEDPin),
		zap.String("switch", cfg.Switch.Mode),
		zap.Bool("require_sync", cfg.RequireSync),
		zap.Bool("mqtt", cfg.MQTT.Enabled),
		zap.Duration("heartbeat", cfg.Timing.Heartbeat))

	ticker := time.NewTicker(statusRefresh)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	err = runLoop(publisher, mqttStatus, tracker, sw, src, cfg.Timing.Heartbeat, logger, time.Now, ticker.C, sigCh)

	// Stop the emitter (releasing the antenna) and drain queued events
	// before the publisher is closed.
	cancel()
	wg.Wait()
	return err
}

func openSwitch(cfg *config.Config, chip *gpio.Chip, pub *mqtt.RealPublisher, logger *zap.Logger) (gpio.Switch, error) {
	switch cfg.Switch.Mode {
	case config.SwitchGPIO:
		sw, err := chip.Switch(cfg.Switch.Pin, cfg.Switch.ActiveLow)
		if err != nil {
			return nil, fmt.Errorf("switch pin: %w", err)
		}
		return sw, nil

	case config.SwitchMQTT:
		if pub == nil {
			return nil, errors.New("mqtt switch needs mqtt enabled")
		}
		sw := mqtt.NewCommandSwitch(cfg.Switch.Initial, pub, logger)
		if err := sw.Listen(pub, pub.Topics().SyncSet); err != nil {
			return nil, err
		}
		sw.PublishState()
		return sw, nil

	case config.SwitchOn:
		return gpio.Fixed(true), nil
	}
	return nil, fmt.Errorf("unknown switch mode %q", cfg.Switch.Mode)
}

func statusConfig(cfg *config.Config) status.Config {
	sc := status.Config{
		Zone:         cfg.Zone,
		AntennaPin:   cfg.GPIO.AntennaPin,
		LEDPin:       cfg.GPIO.LEDPin,
		SwitchMode:   cfg.Switch.Mode,
		RequireSync:  cfg.RequireSync,
		PollMs:       cfg.Timing.PollInterval.Milliseconds(),
		StaleAfterMs: cfg.Timing.StaleAfter.Milliseconds(),
		HeartbeatMs:  cfg.Timing.Heartbeat.Milliseconds(),
		HTTPAddr:     cfg.HTTP.Addr,
	}
	if cfg.Switch.Mode == config.SwitchGPIO {
		sc.SwitchPin = cfg.Switch.Pin
	}
	if cfg.MQTT.Enabled {
		sc.Broker = cfg.MQTT.Broker
		sc.Prefix = cfg.MQTT.Prefix
	}
	return sc
}

// refreshStatus copies the inputs the emitter does not report as events
// into the tracker.
func refreshStatus(tracker *status.Tracker, sw gpio.Switch, src clock.Source, mqttStatus mqtt.ConnectionStatus) {
	_, synced := src.Now()
	tracker.SetSync(sw.IsOn(), synced)
	if mqttStatus != nil {
		tracker.SetMQTTConnected(mqttStatus.IsConnected())
	}
}

// runLoop refreshes the status tracker on every tick, publishes heartbeats,
// and returns after publishing SHUTDOWN when a signal arrives. publisher may
// be nil when MQTT is disabled.
func runLoop(publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, sw gpio.Switch, src clock.Source, heartbeat time.Duration, logger *zap.Logger, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	lastHeartbeat := now()

	for {
		select {
		case s := <-sig:
			logger.Info("shutting down", zap.Stringer("signal", s))
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			if publisher == nil {
				return nil
			}
			refreshStatus(tracker, sw, src, mqttStatus)
			snap := tracker.Snapshot()
			event := mqtt.SystemEvent{
				Timestamp:  now(),
				Event:      "SHUTDOWN",
				Reason:     signalName,
				Retained:   true,
				RawPayload: status.FormatStatusEvent(snap, "SHUTDOWN", signalName),
			}
			if err := publisher.PublishSystem(event); err != nil {
				logger.Warn("failed to publish shutdown event", zap.Error(err))
			}
			return nil

		case <-tick:
			t := now()
			refreshStatus(tracker, sw, src, mqttStatus)

			if heartbeat <= 0 || t.Sub(lastHeartbeat) < heartbeat {
				continue
			}
			lastHeartbeat = t

			// Refresh network info for heartbeat
			if net := status.ReadNetworkInfo(); net != nil {
				tracker.SetNetwork(net)
			}
			snap := tracker.Snapshot()
			logger.Info("heartbeat",
				zap.Stringer("state", snap.State),
				zap.Duration("uptime", snap.Uptime()),
				zap.Int("frames", snap.Counts.Frames),
				zap.Int("transitions", snap.Counts.Transitions),
				zap.Bool("sync", snap.SyncOn),
				zap.Bool("clock_synced", snap.ClockSynced))

			if publisher == nil {
				continue
			}
			hb := mqtt.SystemEvent{
				Timestamp:  t,
				Event:      "HEARTBEAT",
				RawPayload: status.FormatStatusEvent(snap, "HEARTBEAT", ""),
			}
			if err := publisher.PublishSystem(hb); err != nil {
				logger.Debug("heartbeat publish", zap.Error(err))
			}
		}
	}
}
