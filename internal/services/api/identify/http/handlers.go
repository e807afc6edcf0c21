// Package http provides http transport for identify
package http

import (
	"context"
	"errors"
	stdhttp "net/http"
	"time"

	"worlddex/internal/modkit/httpkit"
	"worlddex/internal/platform/logger"
	"worlddex/internal/services/api/identify/domain"
	svc "worlddex/internal/services/api/identify/service"
)

// Limits bound the synchronous route
type Limits struct {
	Timeout     time.Duration // POST /identify only, the stream is never cut
	MaxBytes    int64
	MaxInFlight int // 0 means unbounded
	Backlog     int
}

// Register mounts the router
func Register(r httpkit.Router, s svc.Service, l Limits) {
	h := &handlers{svc: s}
	r.Group(func(g httpkit.Router) {
		g.Use(httpkit.JSONOnly())
		if l.MaxInFlight > 0 {
			wait := l.Timeout
			if wait <= 0 {
				wait = 30 * time.Second
			}
			g.Use(httpkit.Throttle(l.MaxInFlight, l.Backlog, wait))
		}
		if l.Timeout > 0 {
			g.Use(httpkit.Timeout(l.Timeout))
		}
		httpkit.PostJSONMax[domain.IdentifyInput](g, "/", l.MaxBytes, h.identify)
	})
	r.Get("/stream/{jobId}", h.stream)
}

type handlers struct{ svc svc.Service }

// swagger:route POST /identify Identify identify
// @Summary Classify a photo and queue refinement when it applies
// @Tags identify
// @Accept json
// @Produce json
// @Param payload body domain.IdentifyInput true "Capture"
// @Success 200 {object} domain.IdentifyOutput "done or pending, not enveloped"
// @Failure 400 {object} httpkit.Envelope "validation"
// @Failure 415 {string} string "body is not application/json"
// @Failure 429 {string} string "too many captures in flight"
// @Failure 503 {object} httpkit.Envelope "provider unavailable"
// @Router /identify [post]
func (h *handlers) identify(r *stdhttp.Request, in domain.IdentifyInput) (any, error) {
	out, err := h.svc.Identify(r.Context(), in)
	if err != nil {
		return nil, err
	}
	return httpkit.Bare(out), nil
}

// swagger:route GET /identify/stream/{jobId} Identify identifyStream
// @Summary Follow a refinement job until its terminal event
// @Description Server sent events, each frame is a data line holding {"event","data"}; one terminal frame then close
// @Tags identify
// @Produce text/event-stream
// @Param jobId path string true "Job id"
// @Success 200 {object} domain.StreamEvent "completed, failed or error"
// @Router /identify/stream/{jobId} [get]
func (h *handlers) stream(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	jobID := httpkit.Param(r, "jobId")

	sse, err := httpkit.NewSSE(w)
	if err != nil {
		httpkit.RespondError(w, r, err)
		return
	}

	err = h.svc.Stream(r.Context(), jobID, sseWriter{sse})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.C(r.Context()).Debug().Err(err).Str("job_id", jobID).Msg("job stream ended early")
	}
}

type sseWriter struct{ s *httpkit.SSE }

func (w sseWriter) Event(ev domain.StreamEvent) error { return w.s.Data(ev) }
func (w sseWriter) KeepAlive() error                  { return w.s.Comment("keep-alive") }
