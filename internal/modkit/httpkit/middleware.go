package httpkit

import (
	"net/http"
	"time"

	"worlddex/internal/platform/net/middleware"
)

// CommonStack is the api wide middleware chain
// it carries no timeout or compression, both would break the job stream
func CommonStack() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		middleware.RequestID(),
		middleware.RealIP(),
		middleware.RecoverJSON,
		middleware.NoCache(),
		middleware.AccessLog(time.Second),
		middleware.CORS(middleware.CORSOptions{}),
		middleware.Heartbeat(apiV1 + "/health"),
		middleware.StripSlashes(),
	}
}

// Timeout bounds a single route
func Timeout(d time.Duration) func(http.Handler) http.Handler { return middleware.Timeout(d) }

// Throttle caps in flight requests on a route, extra callers queue up to backlog for at most wait
func Throttle(limit, backlog int, wait time.Duration) func(http.Handler) http.Handler {
	return middleware.ThrottleBacklog(limit, backlog, wait)
}

// JSONOnly rejects request bodies that are not application/json with 415
func JSONOnly() func(http.Handler) http.Handler {
	return middleware.AllowContentType("application/json")
}
