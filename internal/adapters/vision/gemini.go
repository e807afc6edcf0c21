package vision

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	perr "worlddex/internal/platform/errors"
	"worlddex/internal/platform/logger"
)

const (
	geminiDefaultModel = "gemini-1.5-flash"
	defaultAttempts    = 3
	defaultRetryBase   = 300 * time.Millisecond
)

// GeminiOptions configures the Gemini engine
type GeminiOptions struct {
	APIKey    string
	Model     string
	Endpoint  string // optional API endpoint override
	Attempts  int
	RetryBase time.Duration
}

// Gemini calls Google's generative language API through generative-ai-go
type Gemini struct {
	opts GeminiOptions
	log  logger.Logger

	mu sync.Mutex
	cl *genai.Client
}

// NewGemini creates a Gemini engine, the SDK client is created on first use
func NewGemini(o GeminiOptions) *Gemini {
	o.APIKey = strings.TrimSpace(o.APIKey)
	o.Model = strings.TrimSpace(o.Model)
	if o.Model == "" {
		o.Model = geminiDefaultModel
	}
	if o.Attempts <= 0 {
		o.Attempts = defaultAttempts
	}
	if o.RetryBase <= 0 {
		o.RetryBase = defaultRetryBase
	}
	return &Gemini{opts: o, log: *logger.Named("gemini")}
}

// Name implements Client
func (g *Gemini) Name() string { return "gemini" }

// Model implements Client
func (g *Gemini) Model() string { return g.opts.Model }

func (g *Gemini) client(ctx context.Context) (*genai.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cl != nil {
		return g.cl, nil
	}
	if g.opts.APIKey == "" {
		return nil, perr.Unavailablef("gemini api key is empty")
	}
	opts := []option.ClientOption{option.WithAPIKey(g.opts.APIKey)}
	if g.opts.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(g.opts.Endpoint))
	}
	cl, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "gemini client init failed")
	}
	g.cl = cl
	return cl, nil
}

// Close releases the SDK client
func (g *Gemini) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cl == nil {
		return nil
	}
	err := g.cl.Close()
	g.cl = nil
	return err
}

// Generate implements Client, transient failures are retried with a linear backoff
func (g *Gemini) Generate(ctx context.Context, req Request) (string, error) {
	cl, err := g.client(ctx)
	if err != nil {
		return "", err
	}

	m := cl.GenerativeModel(g.opts.Model)
	m.GenerationConfig = geminiConfig(req)
	if s := strings.TrimSpace(req.System); s != "" {
		m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(s)}}
	}

	parts := []genai.Part{genai.Text(req.Prompt)}
	if len(req.Image) > 0 {
		parts = append(parts, &genai.Blob{MIMEType: PickMIME(req.MIME, "", req.Image), Data: req.Image})
	}

	var lastErr error
	for attempt := 1; attempt <= g.opts.Attempts; attempt++ {
		start := time.Now()
		resp, err := m.GenerateContent(ctx, parts...)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			g.log.Warn().Err(err).Int("attempt", attempt).Dur("latency", time.Since(start)).Msg("gemini generate failed")
			if attempt < g.opts.Attempts {
				if serr := sleepCtx(ctx, time.Duration(attempt)*g.opts.RetryBase); serr != nil {
					break
				}
			}
			continue
		}
		txt := strings.TrimSpace(firstText(resp))
		g.log.Debug().Str("model", g.opts.Model).Int("attempt", attempt).Dur("latency", time.Since(start)).Int("chars", len(txt)).Msg("gemini response")
		if txt == "" {
			return "", perr.Unavailablef("gemini returned an empty response")
		}
		return StripCodeFences(txt), nil
	}
	return "", perr.Wrapf(lastErr, perr.ErrorCodeUnavailable, "gemini generate failed")
}

func geminiConfig(req Request) genai.GenerationConfig {
	cfg := genai.GenerationConfig{Temperature: ptrFloat32(req.Temperature)}
	if req.JSON {
		cfg.ResponseMIMEType = "application/json"
	}
	if req.MaxTokens > 0 {
		n := int32(req.MaxTokens)
		cfg.MaxOutputTokens = &n
	}
	return cfg
}

// firstText returns the first text part of the first candidate that has one
func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}

func ptrFloat32(v float32) *float32 { return &v }
