package metrics

import (
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every bookrec metric.
const Namespace = "bookrec"

var registerOnce sync.Once

// Register registers all bookrec collectors with the default registry.
// Must be called once from main; later calls are no-ops.
func Register() {
	registerOnce.Do(func() {
		for _, c := range Collectors() {
			prometheus.MustRegister(c)
		}
	})
}

// RegisterWith registers all collectors with reg, tolerating collectors that
// are already present. Used by embedders that bring their own registry.
func RegisterWith(reg prometheus.Registerer) error {
	for _, c := range Collectors() {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err //nolint:wrapcheck // registry error is self-describing
		}
	}
	return nil
}

// Collectors returns every collector owned by this package.
func Collectors() []prometheus.Collector {
	out := []prometheus.Collector{httpRequestDuration, httpRequestsTotal, httpRequestsInFlight}
	out = append(out, embeddingCollectors()...)
	return append(out, recommendCollectors()...)
}
