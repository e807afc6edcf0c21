package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	perr "worlddex/internal/platform/errors"
	"worlddex/internal/platform/logger"
)

const (
	openaiBaseURL      = "https://api.openai.com/v1"
	openaiDefaultModel = "gpt-4o"
)

// OpenAIOptions configures the OpenAI engine
type OpenAIOptions struct {
	APIKey    string
	Model     string
	BaseURL   string
	Attempts  int
	RetryBase time.Duration
}

// OpenAI calls the Responses API over plain HTTP
type OpenAI struct {
	opts  OpenAIOptions
	httpc *http.Client
	log   logger.Logger
}

// NewOpenAI creates an OpenAI engine with a transport tuned for slow first bytes
func NewOpenAI(o OpenAIOptions) *OpenAI {
	o.APIKey = strings.TrimSpace(o.APIKey)
	o.Model = strings.TrimSpace(o.Model)
	if o.Model == "" {
		o.Model = openaiDefaultModel
	}
	if o.BaseURL == "" {
		o.BaseURL = openaiBaseURL
	}
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	if o.Attempts <= 0 {
		o.Attempts = defaultAttempts
	}
	if o.RetryBase <= 0 {
		o.RetryBase = defaultRetryBase
	}
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 120 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   100,
	}
	return &OpenAI{
		opts: o,
		// no client timeout, callers bound each call with a context deadline
		httpc: &http.Client{Transport: tr},
		log:   *logger.Named("openai"),
	}
}

// WithHTTPClient overrides the HTTP client, mostly for tests
func (o *OpenAI) WithHTTPClient(c *http.Client) *OpenAI {
	if c != nil {
		o.httpc = c
	}
	return o
}

// Name implements Client
func (o *OpenAI) Name() string { return "openai" }

// Model implements Client
func (o *OpenAI) Model() string { return o.opts.Model }

// Generate implements Client
func (o *OpenAI) Generate(ctx context.Context, req Request) (string, error) {
	if o.opts.APIKey == "" {
		return "", perr.Unavailablef("openai api key is empty")
	}
	payload, err := json.Marshal(o.body(req))
	if err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeJSON, "openai encode request")
	}

	var lastErr error
	for attempt := 1; attempt <= o.opts.Attempts; attempt++ {
		out, retry, err := o.do(ctx, payload)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !retry || ctx.Err() != nil {
			break
		}
		o.log.Warn().Err(err).Int("attempt", attempt).Int("attempts", o.opts.Attempts).Msg("openai request failed")
		if attempt < o.opts.Attempts {
			if serr := sleepCtx(ctx, time.Duration(attempt)*o.opts.RetryBase); serr != nil {
				break
			}
		}
	}
	if _, ok := perr.As(lastErr); ok {
		return "", lastErr
	}
	return "", perr.Wrapf(lastErr, perr.ErrorCodeUnavailable, "openai generate failed")
}

func (o *OpenAI) body(req Request) map[string]any {
	user := []any{map[string]any{"type": "input_text", "text": req.Prompt}}
	if len(req.Image) > 0 {
		user = append(user, map[string]any{
			"type":      "input_image",
			"image_url": DataURL(PickMIME(req.MIME, "", req.Image), req.Image),
		})
	}
	input := make([]any, 0, 2)
	if s := strings.TrimSpace(req.System); s != "" {
		input = append(input, map[string]any{
			"role":    "system",
			"content": []any{map[string]any{"type": "input_text", "text": s}},
		})
	}
	input = append(input, map[string]any{"type": "message", "role": "user", "content": user})

	body := map[string]any{
		"model":       o.opts.Model,
		"input":       input,
		"temperature": req.Temperature,
	}
	if req.MaxTokens > 0 {
		body["max_output_tokens"] = req.MaxTokens
	}
	if req.JSON {
		body["text"] = map[string]any{"format": map[string]any{"type": "json_object"}}
	}
	return body
}

// do sends one request, the bool reports whether a failure is worth retrying
func (o *OpenAI) do(ctx context.Context, payload []byte) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.opts.BaseURL+"/responses", bytes.NewReader(payload))
	if err != nil {
		return "", false, perr.Wrapf(err, perr.ErrorCodeUnknown, "openai new request failed")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.opts.APIKey)

	start := time.Now()
	resp, err := o.httpc.Do(req)
	if err != nil {
		return "", true, perr.Wrapf(err, perr.ErrorCodeUnavailable, "openai do failed")
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", true, perr.Wrapf(err, perr.ErrorCodeUnavailable, "openai read body failed")
	}

	o.log.Debug().Int("status", resp.StatusCode).Dur("latency", time.Since(start)).Str("model", o.opts.Model).Msg("openai http response")

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", true, perr.Newf(perr.ErrorCodeTooManyRequests, "openai rate limited")
	case resp.StatusCode >= 500:
		return "", true, perr.Newf(perr.ErrorCodeUnavailable, "openai transient server error %d", resp.StatusCode)
	default:
		return "", false, perr.Newf(perr.ErrorCodeUnavailable, "openai unexpected status %d body %s", resp.StatusCode, truncate(raw, 512))
	}

	out := StripCodeFences(responsesText(raw))
	if out == "" {
		return "", false, perr.Newf(perr.ErrorCodeUnavailable, "openai returned an empty response body=%s", truncate(raw, 512))
	}
	return out, false, nil
}

// responsesText prefers output_text and otherwise joins the text segments of output messages
func responsesText(raw []byte) string {
	type content struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	type output struct {
		Content []content `json:"content"`
	}
	var env struct {
		Output     []output `json:"output"`
		OutputText string   `json:"output_text"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return ""
	}
	if s := strings.TrimSpace(env.OutputText); s != "" {
		return s
	}
	var b strings.Builder
	for _, o := range env.Output {
		for _, c := range o.Content {
			if strings.TrimSpace(c.Text) == "" {
				continue
			}
			if c.Type == "output_text" || c.Type == "text" || c.Type == "" {
				if b.Len() > 0 {
					b.WriteByte('\n')
				}
				b.WriteString(c.Text)
			}
		}
	}
	return strings.TrimSpace(b.String())
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
