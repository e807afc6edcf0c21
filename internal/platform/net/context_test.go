package net

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"
)

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := WithRequest(context.Background(), "job-7f3a")
	if got := RequestID(ctx); got != "job-7f3a" {
		t.Fatalf("RequestID = %q", got)
	}
	if got := RequestID(WithRequest(context.Background(), "")); got != "" {
		t.Fatalf("blank id should not be stored, got %q", got)
	}
}

func TestRequestIDFromChi(t *testing.T) {
	var seen string
	h := chimw.RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
	}))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/identify", nil)
	req.Header.Set(chimw.RequestIDHeader, "client-supplied")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if seen != "client-supplied" {
		t.Fatalf("chi request id = %q", seen)
	}
}
