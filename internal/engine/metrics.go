package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics counts the work an engine has done. With a nil registerer the
// counters still function, they are just not exported anywhere.
type metrics struct {
	instantiations prometheus.Counter
	compilations   prometheus.Counter
	cacheHits      prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		instantiations: factory.NewCounter(prometheus.CounterOpts{
			Name: "wasmlink_instantiate_total",
			Help: "Number of module instantiations started by this engine.",
		}),
		compilations: factory.NewCounter(prometheus.CounterOpts{
			Name: "wasmlink_compile_total",
			Help: "Number of function bodies compiled by the backend.",
		}),
		cacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "wasmlink_compile_cache_hits_total",
			Help: "Number of function bodies served from the compilation cache.",
		}),
	}
}
