package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	_ "heater_controller/docs"
	"heater_controller/internal/config"
	"heater_controller/internal/handlers"
	"heater_controller/internal/logger"
	"heater_controller/internal/metrics"
	"heater_controller/internal/models"
	"heater_controller/internal/mqtt"
	"heater_controller/internal/relay"
	"heater_controller/internal/repository"
	"heater_controller/internal/repository/db"
	"heater_controller/internal/sensor"
	"heater_controller/internal/server"
	"heater_controller/internal/service"
	"heater_controller/internal/status"
)

const (
	simulatorTick   = time.Second
	shutdownTimeout = 10 * time.Second
)

// @title           Heater Controller API
// @version         1.0
// @description     Status, schedule and override control for a two-stage electric heater.
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	flags, err := config.ParseFlags(os.Args)
	if err != nil || flags.Help {
		flags.PrintUsage(os.Stderr)
		if err != nil {
			os.Exit(2)
		}
		return
	}

	cfg, err := config.Load(flags.ConfigFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error reading config:", err)
		os.Exit(1)
	}

	level := cfg.LogLevel
	if flags.LogLevel != "" {
		level = flags.LogLevel
	}
	log := logger.Get(level)
	log.Debugw("effective config", "config", cfg.Dump())

	loc, err := cfg.Location()
	if err != nil {
		log.Fatalw("invalid timezone", "err", err)
	}

	// open DB
	conn, err := openDB(cfg.DB.Path, log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	m := metrics.New()
	store := status.NewStore(models.InitialStatus(time.Now().In(loc)))

	driver, sim, err := openRelays(cfg, log)
	if err != nil {
		log.Fatalw("failed to open relays", "err", err)
	}
	sensors := buildSensors(cfg, sim)

	var client *mqtt.PahoClient
	deps := service.Deps{
		Store:            store,
		Driver:           driver,
		Ceilings:         cfg.Ceilings(),
		Latch:            cfg.Latch(),
		VerifyRelays:     cfg.Safety.VerifyRelays,
		Auth:             service.AuthOptions{SigningKey: cfg.Auth.SigningKey, TokenTTL: cfg.Auth.TokenTTL, AllowSignUp: cfg.Auth.AllowSignUp},
		HistoryRetention: cfg.History.Retention,
		Location:         loc,
		Metrics:          m,
		Log:              log,
	}
	if sim != nil {
		deps.Simulator = service.NewSimulatorService(driver, *sim, log.Named("simulator"), time.Now)
	}
	if cfg.MQTT.Enabled {
		client, err = mqtt.Connect(mqtt.Options{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Username: cfg.MQTT.Username,
			Password: cfg.MQTT.Password,
		}, log.Named("mqtt"))
		if err != nil {
			log.Fatalw("failed to connect mqtt", "broker", cfg.MQTT.Broker, "err", err)
		}
		bindRemoteSensors(client, cfg, &sensors, log.Named("mqtt"))
		deps.Publisher = client
		deps.StatusTopic = cfg.MQTT.StatusTopic
	}
	deps.Sensors = sensors

	// wire dependencies
	repos := repository.NewRepository(conn)
	services := service.NewService(repos, deps)

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if _, err := services.Loops.Config.Load(ctx); err != nil {
		log.Warnw("stored config not usable, running on defaults", "err", err)
	}
	services.Loops.Recorder.Record(models.EventStart, "controller started", map[string]any{"relay_driver": cfg.Relays.Driver})

	if client != nil {
		if err := mqtt.ServeCommands(ctx, client, cfg.MQTT.CommandTopic, services.Commands.Execute, log.Named("mqtt")); err != nil {
			log.Errorw("failed to subscribe command topic", "topic", cfg.MQTT.CommandTopic, "err", err)
		}
	}

	wait := services.Loops.Start(ctx, service.Periods{
		Sensor:    cfg.Loops.Sensor,
		Control:   cfg.Loops.Control,
		Actuator:  cfg.Loops.Actuator,
		Broadcast: cfg.Loops.Broadcast,
		History:   cfg.History.Interval,
		Simulator: simulatorTick,
	})

	// start HTTP server
	apiHandler := handlers.NewHandler(services, m.Handler(), log.Named("http"))
	srv := &server.Server{}
	runHTTPServer(srv, cfg.Port, apiHandler, log)

	waitForShutdown(func() {
		services.Loops.Recorder.Record(models.EventShutdown, "controller stopping", nil)
		cancel()
		wait()
		if err := services.Loops.Actuator.Shutdown(); err != nil {
			log.Errorw("relays not confirmed off", "err", err)
		}
		if err := driver.Close(); err != nil {
			log.Errorw("failed to release relays", "err", err)
		}
		if client != nil {
			client.Close()
		}
	}, srv, log)
}

// openDB initializes the SQLite database at path.
func openDB(path string, log *logger.Logger) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	log.Infow("opening sqlite", "path", path)
	return db.InitDB(path)
}

// openRelays returns the relay driver. The fake driver comes with the plant
// sensors that the simulator keeps up to date.
func openRelays(cfg *config.AppConfig, log *logger.Logger) (relay.Driver, *service.PlantSensors, error) {
	if cfg.Relays.Driver == "fake" {
		log.Warnw("using simulated relays and probes")
		plant := service.NewPlantSensors()
		return relay.NewFakeDriver(), &plant, nil
	}
	d, err := relay.NewGPIODriver(cfg.Relays.Chip, cfg.Relays.PinOne, cfg.Relays.PinTwo, cfg.Relays.ActiveLow)
	if err != nil {
		return nil, nil, err
	}
	return d, nil, nil
}

func buildSensors(cfg *config.AppConfig, sim *service.PlantSensors) service.SensorSet {
	if sim != nil {
		return sim.Set()
	}
	s := cfg.Sensors
	probe := func(label, id string) sensor.TemperatureSensor {
		if id == "" {
			return sensor.Absent{Label: label}
		}
		return sensor.NewOneWire(label, s.OneWireDir, id)
	}
	set := service.SensorSet{
		Fnt: probe("fnt", s.Fnt),
		Bck: probe("bck", s.Bck),
		Top: probe("top", s.Top),
		Bot: probe("bot", s.Bot),
		Rem: sensor.Absent{Label: "rem"},
	}
	if s.ChipPath != "" {
		set.Chip = sensor.NewThermalZone("chip", s.ChipPath)
	} else {
		set.Chip = sensor.Absent{Label: "chip"}
	}
	return set
}

// bindRemoteSensors feeds the "rem" binding into the room sensor and every
// other known binding into telemetry.
func bindRemoteSensors(c mqtt.Client, cfg *config.AppConfig, set *service.SensorSet, log *logger.Logger) {
	for name, b := range cfg.MQTT.Bindings {
		if b.Topic == "" {
			log.Warnw("mqtt binding without topic", "binding", name)
			continue
		}
		remote := sensor.NewRemote(name, cfg.Sensors.RemoteMaxAge)
		switch name {
		case "rem":
			set.Rem = remote
		case service.TelemetryOut, service.TelemetryVoltage, service.TelemetryCurrent,
			service.TelemetryPower, service.TelemetryEnergy, service.TelemetryPF:
			if set.Telemetry == nil {
				set.Telemetry = make(map[string]sensor.TemperatureSensor)
			}
			set.Telemetry[name] = remote
		default:
			log.Warnw("unknown mqtt binding ignored", "binding", name)
			continue
		}
		binding := mqtt.Binding{Name: name, Topic: b.Topic, JSONEntry: b.JSONEntry, Scale: b.Scale, Offset: b.Offset}
		if err := mqtt.Bind(c, binding, remote.Set, log); err != nil {
			log.Errorw("failed to subscribe binding", "binding", name, "topic", b.Topic, "err", err)
		}
	}
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
		log.Infow("http server listening", "port", port)
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown blocks until SIGINT or SIGTERM, runs stop and then drains
// the HTTP server.
func waitForShutdown(stop func(), srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Infow("shutting down", "signal", sig.String())
	stop()

	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
