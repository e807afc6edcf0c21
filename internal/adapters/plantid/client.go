// Package plantid is a small client for the Plant.id v3 identification API
package plantid

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	perr "worlddex/internal/platform/errors"
	"worlddex/internal/platform/logger"
)

const (
	baseURLDefault   = "https://api.plant.id/v3"
	defaultTimeout   = 20 * time.Second
	defaultMaxRetry  = 2
	defaultRetryBase = 500 * time.Millisecond
)

// Options configures the Client
type Options struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	RetryBase  time.Duration
}

// Suggestion is one ranked identification
type Suggestion struct {
	Name        string   `json:"name"`
	CommonNames []string `json:"common_names,omitempty"`
	Probability float64  `json:"probability"`
}

// DisplayName is the first common name, else the scientific name
func (s Suggestion) DisplayName() string {
	for _, c := range s.CommonNames {
		if c = strings.TrimSpace(c); c != "" {
			return c
		}
	}
	return strings.TrimSpace(s.Name)
}

// Client talks to Plant.id
type Client struct {
	http  *http.Client
	opts  Options
	log   logger.Logger
	sleep func(time.Duration)
}

// NewClient creates a Client with sane defaults
func NewClient(o Options) *Client {
	o.APIKey = strings.TrimSpace(o.APIKey)
	if o.BaseURL == "" {
		o.BaseURL = baseURLDefault
	}
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	} else if o.MaxRetries == 0 {
		o.MaxRetries = defaultMaxRetry
	}
	if o.RetryBase <= 0 {
		o.RetryBase = defaultRetryBase
	}
	return &Client{
		http:  &http.Client{Timeout: o.Timeout},
		opts:  o,
		log:   *logger.Named("plantid"),
		sleep: time.Sleep,
	}
}

// WithHTTPClient overrides the HTTP client
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	if h != nil {
		c.http = h
	}
	return c
}

// Name is the provider tag recorded on results
func (c *Client) Name() string { return "plant.id" }

type identifyRequest struct {
	Images              []string `json:"images"`
	Details             []string `json:"details"`
	ClassificationLevel string   `json:"classification_level"`
}

type rawSuggestion struct {
	Name        string  `json:"name"`
	Probability float64 `json:"probability"`
	Details     struct {
		CommonNames []string `json:"common_names"`
	} `json:"details"`

	// older response shape
	PlantName    string `json:"plant_name"`
	PlantDetails struct {
		CommonNames []string `json:"common_names"`
	} `json:"plant_details"`
}

type identifyResponse struct {
	Result struct {
		Classification struct {
			Suggestions []rawSuggestion `json:"suggestions"`
		} `json:"classification"`
	} `json:"result"`
	Suggestions []rawSuggestion `json:"suggestions"`
}

// Identify returns ranked suggestions for image, best first
// an empty slice means the provider had nothing to offer
func (c *Client) Identify(ctx context.Context, image []byte) ([]Suggestion, error) {
	if c.opts.APIKey == "" {
		return nil, perr.Unavailablef("plant.id api key is empty")
	}
	if len(image) == 0 {
		return nil, perr.InvalidArgf("plant.id image is empty")
	}
	payload, err := json.Marshal(identifyRequest{
		Images:              []string{base64.StdEncoding.EncodeToString(image)},
		Details:             []string{"common_names", "taxonomy", "url"},
		ClassificationLevel: "all",
	})
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeJSON, "plant.id encode request")
	}

	body, err := c.post(ctx, "/identification", payload)
	if err != nil {
		return nil, err
	}

	var resp identifyResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeJSON, "plant.id decode response")
	}
	raw := resp.Result.Classification.Suggestions
	if len(raw) == 0 {
		raw = resp.Suggestions
	}
	out := make([]Suggestion, 0, len(raw))
	for _, r := range raw {
		s := Suggestion{Name: r.Name, CommonNames: r.Details.CommonNames, Probability: r.Probability}
		if s.Name == "" {
			s.Name = r.PlantName
		}
		if len(s.CommonNames) == 0 {
			s.CommonNames = r.PlantDetails.CommonNames
		}
		if s.DisplayName() == "" {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// post sends payload with retries on transport errors, 429 and 5xx
func (c *Client) post(ctx context.Context, path string, payload []byte) ([]byte, error) {
	url := c.opts.BaseURL + path
	attempts := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "plant.id canceled")
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeUnknown, "plant.id new request failed")
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Api-Key", c.opts.APIKey)

		start := time.Now()
		resp, err := c.http.Do(req)
		if err != nil {
			if attempts >= c.opts.MaxRetries || ctx.Err() != nil {
				return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "plant.id do failed")
			}
			c.backoff(attempts, "plant.id transport error retrying")
			attempts++
			continue
		}
		body, rerr := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
		_ = resp.Body.Close()

		c.log.Debug().
			Str("path", path).
			Int("status", resp.StatusCode).
			Int("attempt", attempts).
			Dur("latency", time.Since(start)).
			Msg("plant.id http response")

		switch {
		case rerr != nil:
			return nil, perr.Wrapf(rerr, perr.ErrorCodeUnavailable, "plant.id read body failed")
		case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
			return body, nil
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			if attempts >= c.opts.MaxRetries {
				return nil, perr.Newf(perr.ErrorCodeUnavailable, "plant.id transient error %d", resp.StatusCode)
			}
			c.backoff(attempts, "plant.id transient status retrying")
			attempts++
			continue
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return nil, perr.Newf(perr.ErrorCodeUnavailable, "plant.id rejected credentials status %d", resp.StatusCode)
		default:
			return nil, perr.Newf(perr.ErrorCodeUnavailable, "plant.id unexpected status %d body %s", resp.StatusCode, truncate(body, 512))
		}
	}
}

func (c *Client) backoff(attempt int, msg string) {
	d := c.opts.RetryBase << uint(attempt)
	if d > 10*time.Second {
		d = 10 * time.Second
	}
	c.log.Warn().Dur("retry_in", d).Int("attempt", attempt).Msg(msg)
	c.sleep(d)
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
