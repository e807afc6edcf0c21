package vision

import (
	"context"
	"encoding/base64"
	"testing"

	perr "worlddex/internal/platform/errors"
)

type stubClient struct{ name string }

func (s stubClient) Name() string  { return s.name }
func (s stubClient) Model() string { return "stub" }
func (s stubClient) Generate(context.Context, Request) (string, error) {
	return s.name, nil
}

func TestEngines_GetAndChain(t *testing.T) {
	e := NewEngines(stubClient{"gemini"}, stubClient{"OpenAI"}, nil)
	if got := e.Names(); len(got) != 2 || got[0] != "gemini" || got[1] != "openai" {
		t.Fatalf("names=%v", got)
	}
	c, err := e.Get(" OPENAI ")
	if err != nil || c.Name() != "OpenAI" {
		t.Fatalf("get: %v %v", c, err)
	}
	chain, err := e.Chain([]string{"gemini", "", "openai"})
	if err != nil || len(chain) != 2 || chain[0].Name() != "gemini" {
		t.Fatalf("chain: %v %v", chain, err)
	}
	if _, err := e.Chain([]string{"gemini", "claude"}); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("want invalid argument, got %v", err)
	}
}

func TestStripCodeFences(t *testing.T) {
	cases := map[string]string{
		"plain":                          "plain",
		"```json\n{\"a\":1}\n```":        "{\"a\":1}",
		"```\nHoover Tower\n```":         "Hoover Tower",
		"  ```{\"label\":null}```  ":     "{\"label\":null}",
		"```JSON\n[1,2]\n```\n":          "[1,2]",
		"no fence ```inside``` the text": "no fence ```inside``` the text",
	}
	for in, want := range cases {
		if got := StripCodeFences(in); got != want {
			t.Fatalf("StripCodeFences(%q)=%q want %q", in, got, want)
		}
	}
}

func TestDecodeImage(t *testing.T) {
	raw := []byte{0xFF, 0xD8, 0xFF, 0xE0, 'j', 'p', 'g'}
	std := base64.StdEncoding.EncodeToString(raw)

	b, hint, err := DecodeImage(std)
	if err != nil || string(b) != string(raw) || hint != "" {
		t.Fatalf("plain: %v %q %v", b, hint, err)
	}
	b, hint, err = DecodeImage("data:image/png;base64," + std)
	if err != nil || string(b) != string(raw) || hint != "image/png" {
		t.Fatalf("data url: %v %q %v", b, hint, err)
	}
	if _, _, err := DecodeImage("data:image/png;base64,"); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("empty: %v", err)
	}
	if _, _, err := DecodeImage("%%%not base64%%%"); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("garbage: %v", err)
	}
}

func TestPickMIME(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}
	if got := PickMIME("IMAGE/WEBP", "image/png", png); got != "image/webp" {
		t.Fatalf("explicit: %s", got)
	}
	if got := PickMIME("", "image/png", nil); got != "image/png" {
		t.Fatalf("hint: %s", got)
	}
	if got := PickMIME("", "", png); got != "image/png" {
		t.Fatalf("sniff: %s", got)
	}
	if got := PickMIME("", "", []byte("hello")); got != "image/jpeg" {
		t.Fatalf("fallback: %s", got)
	}
}

func TestGeminiConfig(t *testing.T) {
	cfg := geminiConfig(Request{JSON: true, MaxTokens: 64, Temperature: 0.2})
	if cfg.ResponseMIMEType != "application/json" || cfg.MaxOutputTokens == nil || *cfg.MaxOutputTokens != 64 {
		t.Fatalf("cfg=%+v", cfg)
	}
	if cfg.Temperature == nil || *cfg.Temperature != 0.2 {
		t.Fatalf("temperature=%v", cfg.Temperature)
	}
	if plain := geminiConfig(Request{}); plain.ResponseMIMEType != "" || plain.MaxOutputTokens != nil {
		t.Fatalf("plain=%+v", plain)
	}
}

func TestGemini_NoKeyIsUnavailable(t *testing.T) {
	g := NewGemini(GeminiOptions{})
	if g.Model() != geminiDefaultModel {
		t.Fatalf("model=%s", g.Model())
	}
	if _, err := g.Generate(context.Background(), Request{Prompt: "x"}); !perr.IsCode(err, perr.ErrorCodeUnavailable) {
		t.Fatalf("want unavailable, got %v", err)
	}
	if err := g.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
