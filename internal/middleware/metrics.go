package middleware

import (
	"sync"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RedisErrors counts failed Redis commands by command name.
var RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "respawn_redis_command_errors_total",
	Help: "Redis commands that returned an error, by command",
}, []string{"command"})

var (
	promMu        sync.Mutex
	promInstances = map[string]*fiberprometheus.FiberPrometheus{}
)

// InitMetrics returns the HTTP metrics collector for the service. Collectors
// register globally, so repeated calls share one instance per service name.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	promMu.Lock()
	defer promMu.Unlock()
	if p, ok := promInstances[serviceName]; ok {
		return p
	}
	p := fiberprometheus.New(serviceName)
	promInstances[serviceName] = p
	return p
}

// MetricsMiddleware returns the request instrumentation handler. Health check and
// scrape endpoints are skipped so they do not dominate the histograms.
func MetricsMiddleware(prom *fiberprometheus.FiberPrometheus) fiber.Handler {
	return func(c *fiber.Ctx) error {
		switch c.Path() {
		case "/metrics", "/health/live", "/health/ready":
			return c.Next()
		}
		return prom.Middleware(c)
	}
}
