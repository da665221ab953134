// Package metrics maintains the process-local Prometheus registry for a
// rstrtr run. No listener is started; the registry is exported so embedders
// and tests can scrape it.
package metrics

import (
	"runtime"
	"runtime/debug"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registry = prometheus.NewRegistry()

	childRestarts = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "rstrtr",
		Name:      "child_restarts_total",
		Help:      "Total number of child respawns performed by the supervisor.",
	})

	childExits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rstrtr",
		Name:      "child_exits_total",
		Help:      "Total number of observed child exits, labelled by exit code.",
	}, []string{"code"})

	controlSignals = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rstrtr",
		Name:      "control_signals_total",
		Help:      "Control file events consumed by the supervisor, by kind.",
	}, []string{"kind"})

	watchErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "rstrtr",
		Name:      "watch_errors_total",
		Help:      "Transient filesystem watch errors survived by the supervisor.",
	})

	buildInfo = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "rstrtr",
		Name:      "build_info",
		Help:      "Build metadata for the running rstrtr binary.",
	}, []string{"go_version", "vcs", "vcs_revision", "vcs_time", "vcs_modified"})

	buildInfoOnce sync.Once
)

func init() {
	registry.MustRegister(childRestarts, childExits, controlSignals, watchErrors, buildInfo)
}

// Registry returns the Prometheus registry containing all rstrtr metrics.
func Registry() *prometheus.Registry {
	return registry
}

// IncChildRestart records one respawn cycle.
func IncChildRestart() {
	childRestarts.Inc()
}

// IncChildExit records one observed child exit with its exit code.
func IncChildExit(code int) {
	childExits.WithLabelValues(strconv.Itoa(code)).Inc()
}

// IncControlSignal records one consumed control file event.
func IncControlSignal(kind string) {
	if kind == "" {
		kind = "unknown"
	}
	controlSignals.WithLabelValues(kind).Inc()
}

// IncWatchError records one survived watch error.
func IncWatchError() {
	watchErrors.Inc()
}

// EmitBuildInfo publishes build metadata about the running binary.
func EmitBuildInfo() {
	buildInfoOnce.Do(func() {
		labels := prometheus.Labels{
			"go_version":   runtime.Version(),
			"vcs":          "",
			"vcs_revision": "",
			"vcs_time":     "",
			"vcs_modified": "",
		}
		if info, ok := debug.ReadBuildInfo(); ok {
			if info.GoVersion != "" {
				labels["go_version"] = info.GoVersion
			}
			for _, setting := range info.Settings {
				switch setting.Key {
				case "vcs":
					labels["vcs"] = setting.Value
				case "vcs.revision":
					labels["vcs_revision"] = setting.Value
				case "vcs.time":
					labels["vcs_time"] = setting.Value
				case "vcs.modified":
					labels["vcs_modified"] = setting.Value
				}
			}
		}
		buildInfo.With(labels).Set(1)
	})
}
