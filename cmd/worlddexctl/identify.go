package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	pstrings "worlddex/internal/platform/strings"
	"worlddex/internal/services/api/identify/domain"
)

func newIdentifyCommand(opts *cliOptions) *cobra.Command {
	var (
		apiURL      string
		gps         string
		collections []string
		timeout     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "identify <image-file>",
		Short: "Send a capture to a running API and follow its refinement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := captureFromFile(args[0], gps, collections)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			c := &apiClient{base: strings.TrimRight(apiURL, "/"), http: http.DefaultClient}
			out, err := c.identify(ctx, in)
			if err != nil {
				return err
			}
			if opts.json {
				if err := writeJSON(cmd, out); err != nil {
					return err
				}
			} else if err := printTier1(cmd, out); err != nil {
				return err
			}
			if out.Status != domain.StatusPending {
				return nil
			}

			ev, err := c.follow(ctx, out.JobID)
			if err != nil {
				return err
			}
			if opts.json {
				return writeJSON(cmd, ev)
			}
			return printEvent(cmd, ev)
		},
	}
	f := cmd.Flags()
	f.StringVar(&apiURL, "api", "http://localhost:8080/api/v1", "API base url")
	f.StringVar(&gps, "gps", "", "Capture location as lat,lng")
	f.StringSliceVar(&collections, "collections", nil, "Active collections")
	f.DurationVar(&timeout, "timeout", 2*time.Minute, "Give up waiting after this long")
	return cmd
}

func captureFromFile(path, gps string, collections []string) (domain.IdentifyInput, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return domain.IdentifyInput{}, err
	}
	ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if ct == "" {
		ct = http.DetectContentType(b)
	}
	in := domain.IdentifyInput{
		ImageData:         base64.StdEncoding.EncodeToString(b),
		ContentType:       ct,
		ActiveCollections: collections,
	}
	if gps != "" {
		lat, lng, ok := strings.Cut(gps, ",")
		if !ok {
			return domain.IdentifyInput{}, fmt.Errorf("gps %q must be lat,lng", gps)
		}
		p, err := parsePoint(strings.TrimSpace(lat), strings.TrimSpace(lng))
		if err != nil {
			return domain.IdentifyInput{}, err
		}
		in.GPS = &p
	}
	return in, nil
}

// apiClient speaks the identify endpoints of a running API
type apiClient struct {
	base string
	http *http.Client
}

func (c *apiClient) identify(ctx context.Context, in domain.IdentifyInput) (domain.IdentifyOutput, error) {
	var out domain.IdentifyOutput
	body, err := json.Marshal(in)
	if err != nil {
		return out, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/identify", bytes.NewReader(body))
	if err != nil {
		return out, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return out, fmt.Errorf("identify: %s: read response: %w", resp.Status, err)
	}
	if resp.StatusCode != http.StatusOK {
		var env struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(b, &env)
		return out, fmt.Errorf("identify: %s: %s", resp.Status, env.Error)
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return out, fmt.Errorf("identify: %s: decode response: %w", resp.Status, err)
	}
	return out, nil
}

// follow reads the job stream until its single terminal frame
func (c *apiClient) follow(ctx context.Context, jobID string) (domain.StreamEvent, error) {
	var ev domain.StreamEvent
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/identify/stream/"+jobID, nil)
	if err != nil {
		return ev, err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return ev, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ev, fmt.Errorf("stream: %s", resp.Status)
	}
	return readTerminal(resp.Body)
}

// readTerminal skips keep-alive comments and returns the first data frame
func readTerminal(r io.Reader) (domain.StreamEvent, error) {
	var ev domain.StreamEvent
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), 1<<20)
	for sc.Scan() {
		line := sc.Text()
		data, ok := strings.CutPrefix(line, "data:")
		if !ok {
			continue
		}
		if err := json.Unmarshal([]byte(strings.TrimSpace(data)), &ev); err != nil {
			return ev, fmt.Errorf("stream: bad frame: %w", err)
		}
		return ev, nil
	}
	if err := sc.Err(); err != nil {
		return ev, err
	}
	return ev, io.ErrUnexpectedEOF
}

func printTier1(cmd *cobra.Command, out domain.IdentifyOutput) error {
	t := out.Tier1
	score := "-"
	if t.RarityScore != nil {
		score = fmt.Sprintf("%.0f", *t.RarityScore)
	}
	rows := [][2]string{
		{"label", pstrings.DerefOr(t.Label, "(nothing identifiable)")},
		{"category", pstrings.DerefOr(t.Category, "-")},
		{"subcategory", pstrings.DerefOr(t.Subcategory, "-")},
		{"rarity", fmt.Sprintf("%s (%s)", t.RarityTier, score)},
		{"xp", fmt.Sprint(t.XPValue)},
		{"status", out.Status},
	}
	if out.JobID != "" {
		rows = append(rows, [2]string{"job", out.JobID})
	}
	return writeRows(cmd, rows)
}

func printEvent(cmd *cobra.Command, ev domain.StreamEvent) error {
	switch ev.Event {
	case domain.EventCompleted:
		if ev.Data == nil {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "refinement: no better answer")
			return err
		}
		b, err := json.Marshal(ev.Data)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "refinement: %s\n", b)
		return err
	case domain.EventFailed:
		_, err := fmt.Fprintln(cmd.OutOrStdout(), "refinement failed")
		return err
	default:
		return fmt.Errorf("stream: %v", ev.Data)
	}
}
