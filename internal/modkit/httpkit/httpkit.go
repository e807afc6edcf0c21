// Package httpkit is the routing surface feature modules write handlers against
package httpkit

import (
	"net/http"

	phttp "worlddex/internal/platform/net/http"
	"worlddex/internal/platform/net/http/bind"
)

type (
	// Router is the platform router seam
	Router = phttp.Router

	// Response is a handler result the platform renders as an envelope
	Response = phttp.Response

	// Envelope is the wire shape of every json response
	Envelope = phttp.Envelope

	// SSE writes an event stream
	SSE = phttp.SSE
)

const apiV1 = "/api/v1"

// MountAPIV1 scopes mount under /api/v1 behind mw
func MountAPIV1(r Router, mw []func(http.Handler) http.Handler, mount func(Router)) {
	r.Route(apiV1, func(api Router) {
		api.Use(mw...)
		mount(api)
	})
}

// Get mounts a body-less handler, its result is wrapped in a 200 envelope unless it is already a Response
func Get(r Router, path string, h func(*http.Request) (any, error)) {
	r.Get(path, phttp.Handle(func(req *http.Request) Response { return render(h(req)) }))
}

// PostJSONMax mounts a POST handler that takes a strictly decoded json body of at most maxBytes
func PostJSONMax[T any](r Router, path string, maxBytes int64, h func(*http.Request, T) (any, error)) {
	opts := bind.JSONOptions{MaxBytes: maxBytes, DisallowUnknown: true}
	r.Post(path, phttp.Handle(func(req *http.Request) Response {
		in, err := bind.ParseJSON[T](req, opts)
		if err != nil {
			return phttp.Error(err)
		}
		return render(h(req, in))
	}))
}

func render(out any, err error) Response {
	if err != nil {
		return phttp.Error(err)
	}
	if resp, ok := out.(Response); ok {
		return resp
	}
	return phttp.OK(out)
}

// Bare marks out to be written without the envelope
func Bare(out any) Response { return phttp.Bare(out) }

// Param returns the named path parameter
func Param(r *http.Request, name string) string { return phttp.Param(r, name) }

// NewSSE starts an event stream on w
func NewSSE(w http.ResponseWriter) (*SSE, error) { return phttp.NewSSE(w) }

// RespondError writes err as an envelope, for handlers that own the writer
func RespondError(w http.ResponseWriter, r *http.Request, err error) { phttp.RespondError(w, r, err) }
