package gin

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthStatus is the outcome of a health check.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  HealthStatus           `json:"status"`
	Service string                 `json:"service"`
	Version string                 `json:"version"`
	Uptime  string                 `json:"uptime"`
	Checks  map[string]CheckResult `json:"checks,omitempty"`
}

// CheckResult is one named dependency check.
type CheckResult struct {
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
	Latency string       `json:"latency,omitempty"`
}

// HealthChecker performs one check.
type HealthChecker func() CheckResult

// HealthOptions configures RegisterHealthRoutes.
type HealthOptions struct {
	ServiceName    string
	ServiceVersion string
	Checks         map[string]HealthChecker
}

// RegisterHealthRoutes adds GET and HEAD /health. GET runs every check and
// answers 503 when any check is unhealthy.
func RegisterHealthRoutes(router *gin.Engine, opts HealthOptions) {
	started := time.Now()

	router.HEAD("/health", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	router.GET("/health", func(c *gin.Context) {
		resp := HealthResponse{
			Status:  HealthStatusHealthy,
			Service: opts.ServiceName,
			Version: opts.ServiceVersion,
			Uptime:  time.Since(started).Truncate(time.Second).String(),
		}

		if len(opts.Checks) > 0 {
			resp.Checks = make(map[string]CheckResult, len(opts.Checks))
			for name, check := range opts.Checks {
				result := check()
				resp.Checks[name] = result
				switch {
				case result.Status == HealthStatusUnhealthy:
					resp.Status = HealthStatusUnhealthy
				case result.Status == HealthStatusDegraded && resp.Status == HealthStatusHealthy:
					resp.Status = HealthStatusDegraded
				}
			}
		}

		code := http.StatusOK
		if resp.Status == HealthStatusUnhealthy {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, resp)
	})
}

// PingHealthChecker reports failStatus when ping returns an error.
func PingHealthChecker(name string, failStatus HealthStatus, ping func() error) HealthChecker {
	return func() CheckResult {
		start := time.Now()
		err := ping()
		latency := time.Since(start).String()

		if err != nil {
			return CheckResult{Status: failStatus, Message: name + " connection failed", Latency: latency}
		}
		return CheckResult{Status: HealthStatusHealthy, Message: name + " connection OK", Latency: latency}
	}
}
