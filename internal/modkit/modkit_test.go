package modkit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	phttp "worlddex/internal/platform/net/http"
)

type pipelinePorts struct{ Engine string }

func TestBuild_LaterOptionsWin(t *testing.T) {
	t.Parallel()

	b := Build(
		WithName("identify"),
		WithPrefix("/identify"),
		WithPrefix("/v2/identify"),
		WithPorts(pipelinePorts{Engine: "gemini"}),
	)
	if b.Name != "identify" || b.Prefix != "/v2/identify" {
		t.Fatalf("built = %+v", b)
	}
	p, ok := b.Ports.(pipelinePorts)
	if !ok || p.Engine != "gemini" {
		t.Fatalf("ports = %#v", b.Ports)
	}
}

func TestBuilt_MountRunsMiddlewareInOrder(t *testing.T) {
	t.Parallel()

	var order []string
	tag := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	mux := chi.NewRouter()
	b := Build(WithPrefix("/meta"), WithMiddlewares(tag("first")), WithMiddlewares(tag("second")))
	b.Mount(phttp.AdaptChi(mux), func(r phttp.Router) {
		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	})

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/meta/health", nil))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rr.Code)
	}
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("middleware order = %v", order)
	}
}
