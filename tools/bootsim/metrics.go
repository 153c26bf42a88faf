package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var bootDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "bootsim_boot_duration_seconds",
	Help:    "How long it takes the kernel to go from its entry point to halting",
	Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
})

var consoleBytes = promauto.NewCounter(prometheus.CounterOpts{
	Name: "bootsim_console_bytes_total",
	Help: "The total number of bytes written to the kernel console after boot",
})

var consoleColumns = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "bootsim_console_columns",
	Help: "The number of text columns of the active console",
})

var consoleRows = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "bootsim_console_rows",
	Help: "The number of text rows of the active console",
})

var httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "bootsim_http_requests_total",
	Help: "The total number of HTTP requests served",
}, []string{"route"})

var wsClients = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "bootsim_websocket_clients",
	Help: "The number of websocket clients currently connected",
})
