// Package swaggerkit serves the generated OpenAPI document and the swagger ui
package swaggerkit

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"

	httpSwagger "github.com/swaggo/http-swagger"

	perr "worlddex/internal/platform/errors"
	phttp "worlddex/internal/platform/net/http"
)

// Mutator edits the decoded document before it is first served
type Mutator func(spec map[string]any)

// Docs is one document mounted at /api/docs
type Docs struct {
	read     func() string
	server   string
	suffix   string
	mutators []Mutator
	built    func() ([]byte, error)
}

type Option func(*Docs)

// WithServer sets the servers entry swagger ui resolves paths against
func WithServer(url string) Option { return func(d *Docs) { d.server = url } }

// WithTitleSuffix tags the title, e.g. "(staging)"
func WithTitleSuffix(s string) Option { return func(d *Docs) { d.suffix = strings.TrimSpace(s) } }

func WithMutator(m Mutator) Option {
	return func(d *Docs) {
		if m != nil {
			d.mutators = append(d.mutators, m)
		}
	}
}

// New wraps read, usually docs.SwaggerInfo.ReadDoc
func New(read func() string, opts ...Option) *Docs {
	d := &Docs{read: read, server: "/api/v1"}
	for _, o := range opts {
		o(d)
	}
	d.built = sync.OnceValues(d.build)
	return d
}

// Mount serves /api/docs, /api/docs/doc.json and the ui assets
func (d *Docs) Mount(r phttp.Router) {
	r.Get("/api/docs", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/api/docs/", http.StatusPermanentRedirect)
	})
	r.Get("/api/docs/doc.json", d.ServeHTTP)
	r.Handle("/api/docs/*", httpSwagger.Handler(
		httpSwagger.InstanceName("api"),
		httpSwagger.URL("/api/docs/doc.json"),
	))
}

func (d *Docs) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	body, err := d.built()
	if err != nil {
		http.Error(w, "spec parse error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(body)
}

func (d *Docs) build() ([]byte, error) {
	var spec map[string]any
	if err := json.Unmarshal([]byte(d.read()), &spec); err != nil {
		return nil, err
	}

	// swagger ui renders 3.0 only and ignores basePath
	delete(spec, "swagger")
	if v, _ := spec["openapi"].(string); v == "" || strings.HasPrefix(v, "3.1") {
		spec["openapi"] = "3.0.3"
	}
	if _, ok := spec["servers"]; !ok {
		spec["servers"] = []any{map[string]any{"url": d.server}}
	}
	if info, ok := spec["info"].(map[string]any); ok && d.suffix != "" {
		if title, ok := info["title"].(string); ok {
			info["title"] = title + " " + d.suffix
		}
	}

	schemas := child(child(spec, "components"), "schemas")
	if _, ok := schemas["ErrorResponse"]; !ok {
		schemas["ErrorResponse"] = envelopeSchema
	}
	eachOperation(spec, func(op map[string]any) {
		responses := child(op, "responses")
		addMissing(responses, perr.PanicErrf("panic recovered"))
		if _, ok := op["requestBody"]; ok {
			addMissing(responses, perr.Newf(perr.ErrorCodeValidation, "imageData is required"))
		}
	})

	for _, m := range d.mutators {
		m(spec)
	}
	return json.Marshal(spec)
}

// envelopeSchema mirrors phttp.Envelope on the error path
var envelopeSchema = map[string]any{
	"type":        "object",
	"description": "Error envelope",
	"required":    []any{"status_code", "status"},
	"properties": map[string]any{
		"status_code": map[string]any{"type": "integer", "format": "int32"},
		"status":      map[string]any{"type": "string"},
		"code":        map[string]any{"type": "integer", "format": "int32"},
		"error":       map[string]any{"type": "string"},
		"request_id":  map[string]any{"type": "string"},
	},
}

// addMissing documents err under its http status unless the operation already does
func addMissing(responses map[string]any, err error) {
	status := perr.HTTPStatus(err)
	key := http.StatusText(status)
	code := strconv.Itoa(status)
	if _, ok := responses[code]; ok {
		return
	}
	w := perr.WireFrom(err)
	responses[code] = map[string]any{
		"description": key,
		"content": map[string]any{
			"application/json": map[string]any{
				"schema": map[string]any{"$ref": "#/components/schemas/ErrorResponse"},
				"example": map[string]any{
					"status_code": status,
					"status":      key,
					"code":        w.Code,
					"error":       w.Message,
					"request_id":  "worlddex-api/Xk2f9-000001",
				},
			},
		},
	}
}

func child(m map[string]any, key string) map[string]any {
	c, ok := m[key].(map[string]any)
	if !ok {
		c = map[string]any{}
		m[key] = c
	}
	return c
}

func eachOperation(spec map[string]any, fn func(op map[string]any)) {
	paths, _ := spec["paths"].(map[string]any)
	for _, p := range paths {
		methods, _ := p.(map[string]any)
		for _, v := range methods {
			if op, ok := v.(map[string]any); ok {
				fn(op)
			}
		}
	}
}
