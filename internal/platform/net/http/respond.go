// Package http carries the router seam, the response envelope and the api server
package http

import (
	"encoding/json"
	stdhttp "net/http"

	perr "worlddex/internal/platform/errors"
	pnet "worlddex/internal/platform/net"
)

// Envelope wraps every json body the api writes
type Envelope struct {
	StatusCode int            `json:"status_code"`
	Status     string         `json:"status"`
	Code       perr.ErrorCode `json:"code,omitempty"`
	Error      string         `json:"error,omitempty"`
	RequestID  string         `json:"request_id,omitempty"`
	Data       any            `json:"data,omitempty"`
}

// Response is what return style handlers produce
// an error Body takes its status from the error code
// Bare writes a success Body as is, without the envelope
type Response struct {
	Status int
	Body   any
	Header stdhttp.Header
	Bare   bool
}

// OK is a 200 with data
func OK(data any) Response { return Response{Status: stdhttp.StatusOK, Body: data} }

// Bare is a 200 whose body is data itself, errors are still enveloped
func Bare(data any) Response { return Response{Status: stdhttp.StatusOK, Body: data, Bare: true} }

// Error maps err onto the envelope
func Error(err error) Response { return Response{Body: err} }

// Handle adapts a return style handler
func Handle(h func(r *stdhttp.Request) Response) stdhttp.HandlerFunc {
	return func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		resp := h(r)
		for k, vv := range resp.Header {
			for _, v := range vv {
				w.Header().Add(k, v)
			}
		}
		if err, ok := resp.Body.(error); ok {
			RespondError(w, r, err)
			return
		}
		status := resp.Status
		if status == 0 {
			status = stdhttp.StatusOK
		}
		if status == stdhttp.StatusNoContent {
			w.WriteHeader(status)
			return
		}
		if resp.Bare {
			writeJSON(w, status, resp.Body)
			return
		}
		writeEnvelope(w, status, Envelope{RequestID: pnet.RequestID(r.Context()), Data: resp.Body})
	}
}

// RespondError writes err as an envelope, status and code come from perr
func RespondError(w stdhttp.ResponseWriter, r *stdhttp.Request, err error) {
	wire := perr.WireFrom(err)
	writeEnvelope(w, perr.HTTPStatus(err), Envelope{
		Code:      wire.Code,
		Error:     wire.Message,
		RequestID: pnet.RequestID(r.Context()),
	})
}

func writeEnvelope(w stdhttp.ResponseWriter, status int, env Envelope) {
	env.StatusCode = status
	env.Status = stdhttp.StatusText(status)
	writeJSON(w, status, env)
}

func writeJSON(w stdhttp.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
