package main

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	logger "github.com/sirupsen/logrus"
)

var Prom_observations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "observations_total",
		Help: "Observation cycles by outcome (sent, queued, skipped)",
	},
	[]string{"outcome"},
)

var Prom_n2sDrained = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "n2s_drained_total",
		Help: "Need to send observations sent from the file",
	},
)

var Prom_n2sFileSize = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "n2s_file_bytes",
		Help: "Size of the need to send file",
	},
)

var Prom_health = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "health_bits",
		Help: "Station health bitmask",
	},
)

var Prom_atmPresure = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "atmospheric_pressure",
		Help: "Atmospheric pressure hPa",
	},
)

var Prom_rainDayTotal = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "rain_day",
		Help: "The rain total today (UTC) mm",
	},
)

var Prom_humidity = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "relative_humidity",
		Help: "Relative Humidity",
	},
)

var Prom_temperature = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "temperature",
		Help: "Temperature C",
	},
)

var Prom_windspeed = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "windspeed",
		Help: "Average Wind Speed m/s",
	},
)

var Prom_windgust = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "windgust",
		Help: "Highest 3 second wind speed m/s",
	},
)

var Prom_windDirection = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "winddirection",
		Help: "Wind Direction Deg",
	},
)

// called by prometheus
func init() {
	logger.Infof("%v: Initialize prometheus...", time.Now().Format(time.RFC822))
	prometheus.MustRegister(
		Prom_observations,
		Prom_n2sDrained,
		Prom_n2sFileSize,
		Prom_health,
		Prom_atmPresure,
		Prom_humidity,
		Prom_rainDayTotal,
		Prom_temperature,
		Prom_windspeed,
		Prom_windgust,
		Prom_windDirection)
}
