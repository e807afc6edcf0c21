package middleware

import (
	"net/http"
	"runtime/debug"

	perr "worlddex/internal/platform/errors"
	"worlddex/internal/platform/logger"
	pnet "worlddex/internal/platform/net"
	phttp "worlddex/internal/platform/net/http"
)

// RecoverJSON turns a handler panic into a 500 envelope and logs the stack
func RecoverJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			if v == http.ErrAbortHandler {
				panic(v)
			}
			rid := pnet.RequestID(r.Context())
			logger.Named("http").Error().
				Str("request_id", rid).
				Interface("panic", v).
				Bytes("stack", debug.Stack()).
				Msg("panic recovered")
			if rid != "" {
				w.Header().Set("X-Request-ID", rid)
			}
			phttp.RespondError(w, r, perr.PanicErrf("panic recovered"))
		}()
		next.ServeHTTP(w, r)
	})
}
