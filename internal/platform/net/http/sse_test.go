package http

import (
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type noFlush struct{ stdhttp.ResponseWriter }

func TestSSE_Frames(t *testing.T) {
	rr := httptest.NewRecorder()
	s, err := NewSSE(rr)
	if err != nil {
		t.Fatalf("NewSSE: %v", err)
	}
	if err := s.Comment("keep-alive"); err != nil {
		t.Fatalf("comment: %v", err)
	}
	if err := s.Data(map[string]any{"event": "failed", "data": nil}); err != nil {
		t.Fatalf("data: %v", err)
	}

	if ct := rr.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}
	want := ": keep-alive\n\ndata: {\"data\":null,\"event\":\"failed\"}\n\n"
	if got := rr.Body.String(); got != want {
		t.Fatalf("body = %q want %q", got, want)
	}
	if !rr.Flushed {
		t.Fatalf("expected flush")
	}
}

func TestSSE_NeedsFlusher(t *testing.T) {
	rr := httptest.NewRecorder()
	if _, err := NewSSE(noFlush{rr}); err == nil {
		t.Fatalf("expected error without flusher")
	}
	if strings.TrimSpace(rr.Body.String()) != "" {
		t.Fatalf("nothing should be written")
	}
}
