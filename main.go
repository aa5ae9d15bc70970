package main

import (
	"context"
	"encoding/json"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gr-butler/fullstation/archive"
	"github.com/gr-butler/fullstation/cfgfile"
	"github.com/gr-butler/fullstation/eeprom"
	"github.com/gr-butler/fullstation/env"
	"github.com/gr-butler/fullstation/gps"
	"github.com/gr-butler/fullstation/health"
	"github.com/gr-butler/fullstation/led"
	"github.com/gr-butler/fullstation/n2s"
	"github.com/gr-butler/fullstation/obs"
	"github.com/gr-butler/fullstation/radio"
	"github.com/gr-butler/fullstation/sdcard"
	"github.com/gr-butler/fullstation/sensors"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	logger "github.com/sirupsen/logrus"
)

const version = env.SoftwareVersion

const archiveTable = "observations"

type weatherstation struct {
	status  *health.Status
	card    *sdcard.Card
	state   *eeprom.Store
	cfg     cfgfile.Config
	queue   *n2s.Queue
	tx      n2s.Sender
	archive archiver
	clock   clockwork.Clock
	started time.Time
	gpsWait time.Duration

	rain1    rainGauge
	rain2    rainGauge
	wind     windSensor
	atm1     atmosphereSensor
	atm2     atmosphereSensor
	temp1    thermometer
	temp2    thermometer
	light    lightSensor
	lux      sensors.LuxSensor
	pm       sensors.ParticleSensor
	distance sensors.DistanceSensor
	battery  interface{ Voltage() float64 }

	uplinkLed *led.LED

	rec obs.Record

	lock   sync.Mutex
	latest string
}

type webdata struct {
	TimeNow     string          `json:"time"`
	Version     string          `json:"version"`
	Health      string          `json:"health"`
	N2SBytes    int64           `json:"n2s_bytes"`
	Observation json.RawMessage `json:"observation,omitempty"`
}

func main() {
	args := env.Args{
		Test:    flag.Bool("test", false, "test mode, observations are logged not sent"),
		Verbose: flag.Bool("verbose", false, "debug logging"),
		SDRoot:  flag.String("sd", "/var/lib/fullstation", "SD card mount point"),
		I2CBus:  flag.String("bus", "", "I²C bus (/dev/i2c-1)"),
		Bmx1:    flag.Bool("bmx1", true, "BMx280 at 0x77 fitted"),
		Bmx2:    flag.Bool("bmx2", false, "BMx280 at 0x76 fitted"),
		Mcp1:    flag.Bool("mcp1", true, "MCP9808 fitted"),
		Mcp2:    flag.Bool("mcp2", false, "second MCP9808 fitted"),
		Windon:  flag.Bool("wind", true, "anemometer and vane fitted"),
		NoRadio: flag.Bool("noradio", false, "no uplink, every observation is saved to the need to send file"),
		GPS:     flag.String("gps", "", "GPS NMEA device, empty for none"),
	}
	flag.Parse()

	if *args.Verbose {
		logger.SetLevel(logger.DebugLevel)
	}
	logger.Infof("Starting weather station [%v]", version)
	if *args.Test {
		logger.Info("TEST MODE")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	clock := clockwork.NewRealClock()
	status := health.NewStatus(health.PowerOn)
	card := sdcard.New(*args.SDRoot, status, nil)
	cfg, err := cfgfile.Load(card.Path(env.ConfigFile))
	if err != nil {
		logger.Warnf("Running with default config [%v]", err)
	}
	state := eeprom.Open(card.Path(env.StateFile))

	logger.Infof("%v: Initialize sensors...", time.Now().Format(time.RFC822))
	hw, err := sensors.InitHardware(args, sensors.Options{Rain1: cfg.RG1, Rain2: cfg.RG2, TipLed: env.RainTipLed}, status, clock)
	if err != nil {
		logger.Errorf("Failed to initialise sensors!! [%v]", err)
		logger.Exit(1)
	}
	defer hw.Close()
	hw.Start(ctx)

	w := &weatherstation{
		status:    status,
		card:      card,
		state:     state,
		cfg:       cfg,
		queue:     n2s.New(card, state, status, clock),
		clock:     clock,
		started:   clock.Now(),
		gpsWait:   env.GPSFixWait,
		uplinkLed: led.NewLED("uplink", env.UplinkLed),
	}
	w.attach(hw)
	w.tx = radio.NewTransport(w.openRadio(ctx, args, cfg), clock)

	if dsn, ok := os.LookupEnv("ARCHIVE_DSN"); ok && !*args.Test {
		db, err := archive.Open(ctx, dsn, archiveTable, cfg.DeviceID())
		if err != nil {
			logger.Errorf("Failed to open archive [%v]", err)
		} else {
			defer db.Close()
			w.archive = db
		}
	}

	if *args.GPS != "" {
		f, err := os.Open(*args.GPS)
		if err != nil {
			logger.Errorf("GPS:Open [%v] failed [%v]", *args.GPS, err)
			status.Set(health.GPS)
		} else {
			defer f.Close()
			rx := gps.NewNMEA()
			go func() { _ = rx.Run(ctx, f) }()
			go w.reportPosition(ctx, rx)
		}
	}

	if d := cfg.RebootAfter(); d > 0 {
		go rebootAfter(ctx, clock, d, cancel)
	}

	go heartbeat(ctx, led.NewLED("heartbeat", env.HeartbeatLed), clock)

	// start web service
	http.HandleFunc("/", w.handler)
	sendData, ok := os.LookupEnv("SENDPROMDATA")
	if ok && sendData == "true" && !(*args.Test) {
		logger.Info("Starting metrics...")
		http.Handle("/metrics", promhttp.Handler())
	}
	go func() {
		logger.Info("Starting webservice...")
		if err := http.ListenAndServe(":80", nil); err != nil {
			logger.Errorf("Webservice stopped [%v]", err)
		}
	}()

	w.Reporting(ctx)
	logger.Info("Exiting...")
}

func heartbeat(ctx context.Context, l *led.LED, clock clockwork.Clock) {
	logger.Info("Heartbeat started")
	// we can add complexity later, for now just flash to say we're alive!
	ticker := clock.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			l.Off()
			return
		case <-ticker.Chan():
			logger.Debug("Sending heartbeat")
			l.Flash()
		}
	}
}

// openRadio picks the uplink. The MQTT bridge joins in the background, until
// then observations go to the need to send file.
func (w *weatherstation) openRadio(ctx context.Context, args env.Args, cfg cfgfile.Config) radio.Radio {
	if *args.Test {
		return radio.ConsoleRadio{}
	}
	if *args.NoRadio {
		logger.Info("LW:Disabled")
		w.status.Set(health.LoRa)
		return radio.OfflineRadio{}
	}
	broker, ok := os.LookupEnv("MQTT_BROKER_URL")
	if !ok || !cfg.Valid() {
		logger.Error("LW:Not configured, MQTT_BROKER_URL and CONFIG.TXT keys must be set")
		w.status.Set(health.LoRa)
		return radio.OfflineRadio{}
	}
	mcfg := radio.MQTTConfig{
		BrokerURL: broker,
		ClientID:  "fs-" + cfg.DeviceID(),
		Username:  os.Getenv("MQTT_USERNAME"),
		Password:  os.Getenv("MQTT_PASSWORD"),
		Topic:     os.Getenv("MQTT_TOPIC"),
	}
	if mcfg.Topic == "" {
		mcfg.Topic = "fullstation/" + cfg.DeviceID() + "/up"
	}
	m := radio.NewMQTTRadio(radio.NewMQTTClient(mcfg), mcfg.Topic, w.clock, w.status)
	go func() {
		if err := m.Join(ctx, time.Second, 5*time.Minute); err != nil {
			logger.Errorf("LW:Join abandoned [%v]", err)
		}
	}()
	return m
}

// rebootAfter cancels the station once d has passed. The service manager
// restarts it.
func rebootAfter(ctx context.Context, clock clockwork.Clock, d time.Duration, cancel context.CancelFunc) {
	select {
	case <-ctx.Done():
	case <-clock.After(d):
		logger.Infof("Daily reboot after [%v]", d)
		cancel()
	}
}

// attach takes the sensors that were found. Missing ones stay nil.
func (w *weatherstation) attach(hw *sensors.Sensors) {
	if hw.Rain1 != nil {
		w.rain1 = hw.Rain1
	}
	if hw.Rain2 != nil {
		w.rain2 = hw.Rain2
	}
	if hw.Wind != nil {
		w.wind = hw.Wind
	}
	if hw.Atm1 != nil {
		w.atm1 = hw.Atm1
	}
	if hw.Atm2 != nil {
		w.atm2 = hw.Atm2
	}
	if hw.Temp1 != nil {
		w.temp1 = hw.Temp1
	}
	if hw.Temp2 != nil {
		w.temp2 = hw.Temp2
	}
	if hw.Light != nil {
		w.light = hw.Light
	}
	if hw.Battery != nil {
		w.battery = hw.Battery
	}
	w.lux = hw.Lux
	w.pm = hw.PM
	w.distance = hw.Distance
}

func (w *weatherstation) setLatest(line string) {
	w.lock.Lock()
	defer w.lock.Unlock()
	w.latest = line
}

func (w *weatherstation) handler(rw http.ResponseWriter, r *http.Request) {
	rw.Header().Set("Content-Type", "application/json")
	w.lock.Lock()
	latest := w.latest
	w.lock.Unlock()

	wd := webdata{
		TimeNow:  w.clock.Now().Format(time.RFC822),
		Version:  version,
		Health:   w.status.Bits().String(),
		N2SBytes: w.queue.Size(),
	}
	if latest != "" {
		wd.Observation = json.RawMessage(latest)
	}

	js, err := json.Marshal(wd)
	if err != nil {
		logger.Errorf("JSON error [%v]", err)
		http.Error(rw, err.Error(), http.StatusInternalServerError)
		return
	}

	logger.Debugf("Web read: \n[%v]", string(js))
	_, _ = rw.Write(js) // not much we can do if this fails
}
