// Package vision wraps the image understanding providers behind one small interface
// Engines are looked up by name so callers can build ordered fallback chains from config
package vision

import (
	"context"
	"encoding/base64"
	"net/http"
	"sort"
	"strings"
	"time"

	perr "worlddex/internal/platform/errors"
)

// Request is one image plus instructions
type Request struct {
	System      string
	Prompt      string
	Image       []byte
	MIME        string
	JSON        bool // ask the provider for a bare JSON object
	Temperature float32
	MaxTokens   int
}

// Client is an image understanding provider
type Client interface {
	Name() string
	Model() string
	Generate(ctx context.Context, req Request) (string, error)
}

// Engines is a name keyed set of clients
type Engines struct {
	m map[string]Client
}

// NewEngines registers clients under their Name, later duplicates win
func NewEngines(clients ...Client) *Engines {
	e := &Engines{m: make(map[string]Client, len(clients))}
	for _, c := range clients {
		if c != nil {
			e.m[strings.ToLower(c.Name())] = c
		}
	}
	return e
}

// Get returns the engine registered under name
func (e *Engines) Get(name string) (Client, error) {
	if e != nil {
		if c, ok := e.m[strings.ToLower(strings.TrimSpace(name))]; ok {
			return c, nil
		}
	}
	return nil, perr.InvalidArgf("unknown vision engine %q", name)
}

// Chain resolves names in order, unknown names are an error
func (e *Engines) Chain(names []string) ([]Client, error) {
	out := make([]Client, 0, len(names))
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			continue
		}
		c, err := e.Get(n)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Names lists registered engines sorted
func (e *Engines) Names() []string {
	if e == nil {
		return nil
	}
	out := make([]string, 0, len(e.m))
	for n := range e.m {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// StripCodeFences removes a markdown code fence around a model answer
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// drop a language tag like json on the fence line
	if i := strings.IndexByte(s, '\n'); i >= 0 && !strings.ContainsAny(s[:i], "{[\"") {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// DecodeImage decodes standard or url safe base64, optionally wrapped in a data URL
// the MIME from a data URL prefix is returned as a hint
func DecodeImage(s string) ([]byte, string, error) {
	s = strings.TrimSpace(s)
	var hint string
	if strings.HasPrefix(s, "data:") {
		if idx := strings.IndexByte(s, ','); idx > 0 {
			meta := s[len("data:"):idx]
			if semi := strings.IndexByte(meta, ';'); semi >= 0 {
				hint = meta[:semi]
			} else {
				hint = meta
			}
			s = s[idx+1:]
		}
	}
	if s == "" {
		return nil, "", perr.InvalidArgf("image data is empty")
	}
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		if b, err := enc.DecodeString(s); err == nil {
			return b, hint, nil
		}
	}
	return nil, "", perr.InvalidArgf("image data is not valid base64")
}

// PickMIME prefers the explicit type, then the data URL hint, then sniffs the bytes
func PickMIME(explicit, hint string, data []byte) string {
	if exp := strings.TrimSpace(explicit); exp != "" {
		return strings.ToLower(exp)
	}
	if h := strings.TrimSpace(hint); h != "" {
		return strings.ToLower(h)
	}
	if len(data) > 0 {
		if ct := http.DetectContentType(data); strings.HasPrefix(ct, "image/") {
			return ct
		}
	}
	return "image/jpeg"
}

// DataURL renders image bytes as a data URL
func DataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// sleepCtx waits d or until ctx is done
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
