package http

import (
	"encoding/json"
	"fmt"
	stdhttp "net/http"

	perr "worlddex/internal/platform/errors"
)

// SSE writes server sent event frames and flushes after each one
type SSE struct {
	w stdhttp.ResponseWriter
	f stdhttp.Flusher
}

// NewSSE sets the event stream headers and writes the status line
// it fails when the writer cannot flush, nothing is written in that case
func NewSSE(w stdhttp.ResponseWriter) (*SSE, error) {
	f, ok := w.(stdhttp.Flusher)
	if !ok {
		return nil, perr.Internalf("streaming unsupported by response writer")
	}
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(stdhttp.StatusOK)
	f.Flush()
	return &SSE{w: w, f: f}, nil
}

// Data writes v as a single json data line
func (s *SSE) Data(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", b); err != nil {
		return err
	}
	s.f.Flush()
	return nil
}

// Comment writes a comment frame, clients ignore these
func (s *SSE) Comment(text string) error {
	if _, err := fmt.Fprintf(s.w, ": %s\n\n", text); err != nil {
		return err
	}
	s.f.Flush()
	return nil
}
