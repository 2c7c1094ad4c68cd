package metrics

import (
    "net/http"
    "time"

    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
    opens = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "pageviewer",
            Name:      "opens_total",
            Help:      "Document open attempts by result (ok or failure reason)",
        },
        []string{"result"},
    )

    renders = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "pageviewer",
            Name:      "renders_total",
            Help:      "Page renders by result (ok, page_fetch, rasterize_failed, stale)",
        },
        []string{"result"},
    )

    renderLatency = prometheus.NewHistogram(
        prometheus.HistogramOpts{
            Namespace: "pageviewer",
            Name:      "render_duration_seconds",
            Help:      "Duration of page fetch plus rasterization",
            Buckets:   prometheus.DefBuckets,
        },
    )

    zoomFactor = prometheus.NewGauge(
        prometheus.GaugeOpts{
            Namespace: "pageviewer",
            Name:      "zoom_factor",
            Help:      "Zoom factor of the most recent render request",
        },
    )

    currentPage = prometheus.NewGauge(
        prometheus.GaugeOpts{
            Namespace: "pageviewer",
            Name:      "current_page",
            Help:      "One-based page index of the most recent render request",
        },
    )
)

// Init registers collectors.
func Init() {
    prometheus.MustRegister(opens, renders, renderLatency, zoomFactor, currentPage)
}

// Handler returns the http.Handler for /metrics
func Handler() http.Handler { return promhttp.Handler() }

func IncOpen(result string) { opens.WithLabelValues(result).Inc() }

func ObserveRender(result string, dur time.Duration) {
    renders.WithLabelValues(result).Inc()
    renderLatency.Observe(dur.Seconds())
}

func IncStaleRender() { renders.WithLabelValues("stale").Inc() }

func SetView(page int, zoom float64) {
    currentPage.Set(float64(page + 1))
    zoomFactor.Set(zoom)
}
