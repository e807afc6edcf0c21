package module

import (
	"strings"
	"sync"
	"testing"

	phttp "worlddex/internal/platform/net/http"
)

type Enqueuer interface{ Enqueue(label string) string }

type queue struct{ prefix string }

func (q queue) Enqueue(label string) string { return q.prefix + label }

type stub struct {
	name  string
	ports any
}

func (s stub) MountRoutes(phttp.Router) {}
func (s stub) Ports() any               { return s.ports }
func (s stub) Name() string             { return s.name }

func TestPortsOf(t *testing.T) {
	t.Parallel()

	type bundle struct {
		Queue  Enqueuer
		Limit  int
		hidden Enqueuer
	}

	cases := []struct {
		name  string
		ports any
		ok    bool
	}{
		{"nil", nil, false},
		{"direct", Enqueuer(queue{prefix: "job:"}), true},
		{"field", bundle{Queue: queue{prefix: "job:"}}, true},
		{"unexported field ignored", bundle{hidden: queue{}}, false},
		{"not a struct", 42, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := PortsOf[Enqueuer](stub{name: "tier2", ports: tc.ports})
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v", ok, tc.ok)
			}
			if ok && got.Enqueue("dog") != "job:dog" {
				t.Fatalf("wrong port %#v", got)
			}
		})
	}
}

func TestMustPortsOf_PanicNamesModule(t *testing.T) {
	t.Parallel()

	defer func() {
		msg, _ := recover().(string)
		if !strings.Contains(msg, "tier2") {
			t.Fatalf("panic = %q", msg)
		}
	}()
	MustPortsOf[Enqueuer](stub{name: "tier2"})
}

// registry tests share package state so they run serially
func TestRegistry(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	Register("identify", "v1")
	Register("identify", "v2")
	if got, ok := PortsAs[string]("identify"); !ok || got != "v2" {
		t.Fatalf("PortsAs = %q %v", got, ok)
	}
	if _, ok := PortsAs[int]("identify"); ok {
		t.Fatalf("type mismatch should miss")
	}
	if _, ok := PortsAs[string]("missing"); ok {
		t.Fatalf("missing name should miss")
	}

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(2)
		go func() { defer wg.Done(); Register("meta", i) }()
		go func() { defer wg.Done(); _, _ = PortsAs[int]("meta") }()
	}
	wg.Wait()

	Reset()
	if _, ok := PortsAs[string]("identify"); ok {
		t.Fatalf("Reset left entries behind")
	}
}
