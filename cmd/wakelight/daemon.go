package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/sweeney/wakelight/internal/alarm"
	"github.com/sweeney/wakelight/internal/button"
	"github.com/sweeney/wakelight/internal/camera"
	"github.com/sweeney/wakelight/internal/config"
	"github.com/sweeney/wakelight/internal/events"
	"github.com/sweeney/wakelight/internal/gpio"
	"github.com/sweeney/wakelight/internal/history"
	"github.com/sweeney/wakelight/internal/metrics"
	"github.com/sweeney/wakelight/internal/mqtt"
	"github.com/sweeney/wakelight/internal/natsbus"
	"github.com/sweeney/wakelight/internal/schedule"
	"github.com/sweeney/wakelight/internal/state"
	"github.com/sweeney/wakelight/internal/status"
	"github.com/sweeney/wakelight/internal/web"
)

func run(cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.EnsureDirs(); err != nil {
		return err
	}

	// Persistence
	states, err := state.Open(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("init state: %w", err)
	}
	records, err := history.Open(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("init history: %w", err)
	}
	defer records.Close()

	clock := clockwork.NewRealClock()
	cron, err := schedule.NewCron(clock)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	cron.Start()
	defer func() {
		if err := cron.Stop(); err != nil {
			log.Printf("scheduler shutdown: %v", err)
		}
	}()

	ctrl := alarm.NewController(states, records, cron, clock)

	// GPIO
	light, btn, err := openGPIO(cfg)
	if err != nil {
		return err
	}
	defer light.Close()
	defer btn.Close()

	// Notifications
	reg := prom.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewRecorder(reg)

	fanout := events.NewFanout()
	fanout.Add("light", events.NewLightSink(light))
	fanout.Add("metrics", recorder)

	d := &daemon{
		alarm:      ctrl,
		light:      light,
		button:     btn,
		detector:   button.NewDetector(cfg.Debounce),
		heartbeat:  cfg.Heartbeat,
		networkEnv: cfg.NetworkEnv,
		now:        time.Now,
	}

	if cfg.Broker != "" {
		p, err := mqtt.NewPublisher(cfg.Broker)
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		defer p.Close()
		fanout.Add("mqtt", p)
		d.publishers = append(d.publishers, p)
		d.mqttStatus = p
	}
	if cfg.NATSURL != "" {
		p, err := natsbus.NewPublisher(cfg.NATSURL)
		if err != nil {
			return fmt.Errorf("init nats: %w", err)
		}
		defer p.Close()
		fanout.Add("nats", p)
		d.publishers = append(d.publishers, p)
		d.natsStatus = p
	}
	ctrl.SetNotifier(fanout)

	// Status tracker (before STARTUP so snapshot is available)
	d.tracker = status.NewTracker(time.Now(), status.Config{
		TickMs:      cfg.Tick.Milliseconds(),
		DebounceMs:  cfg.Debounce.Milliseconds(),
		HeartbeatMs: cfg.Heartbeat.Milliseconds(),
		Broker:      cfg.Broker,
		NATSURL:     cfg.NATSURL,
		HTTPAddr:    cfg.HTTPAddr,
		DataDir:     cfg.DataDir,
	})
	if net := readNetworkInfo(cfg.NetworkEnv); net != nil {
		d.tracker.SetNetwork(net)
	}
	d.refresh()

	restored := ctrl.State()
	if restored.AlarmSet {
		log.Printf("restored alarm %s, waiting for hand", restored.AlarmTime)
		if err := light.Set(true); err != nil {
			log.Printf("light: %v", err)
		}
	}

	snap := d.tracker.Snapshot()
	d.publishSystem(events.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	})

	// HTTP gateway
	if cfg.HTTPAddr != "" {
		srv := web.New(cfg.HTTPAddr, web.Options{
			Alarm:         ctrl,
			Tracker:       d.tracker,
			Relay:         camera.NewRelay(clock),
			Recorder:      recorder,
			Metrics:       metrics.HTTPHandler(reg),
			ImagesDir:     cfg.ImagesDir(),
			FrameInterval: cfg.FrameInterval,
		})
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("http server error: %v", err)
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				log.Printf("http shutdown: %v", err)
			}
		}()
		log.Printf("http gateway listening on %s", cfg.HTTPAddr)
	}

	log.Printf("started: data=%s tick=%v debounce=%v broker=%q nats=%q heartbeat=%v",
		cfg.DataDir, cfg.Tick, cfg.Debounce, cfg.Broker, cfg.NATSURL, cfg.Heartbeat)

	ticker := time.NewTicker(cfg.Tick)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(d, ticker.C, sigCh)
}

func openGPIO(cfg config.Config) (gpio.Light, gpio.Button, error) {
	if cfg.NoGPIO {
		log.Printf("gpio disabled, using in-memory light and button")
		return gpio.NewFakeLight(), gpio.NewFakeButton([]bool{false}), nil
	}
	light, err := gpio.NewRealLight(cfg.PinLight)
	if err != nil {
		return nil, nil, fmt.Errorf("init light gpio: %w", err)
	}
	btn, err := gpio.NewRealButton(cfg.PinButton)
	if err != nil {
		light.Close()
		return nil, nil, fmt.Errorf("init button gpio: %w", err)
	}
	return light, btn, nil
}
