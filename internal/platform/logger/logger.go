// Package logger owns the process zerolog root and its context helpers
package logger

import (
	"context"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"

	"worlddex/internal/platform/config/raw"
)

// Logger is zerolog's logger under the project name
type Logger = zerolog.Logger

// Options shape the root logger
type Options struct {
	Level       string
	Format      string // console or json
	Service     string
	Caller      bool
	SampleEvery int
	Writer      io.Writer
}

// FromEnv reads LOG_* through raw, config itself logs so it cannot be used here
func FromEnv() Options {
	env := raw.New().Prefix("LOG_")
	return Options{
		Level:       env.Get("LEVEL", "info"),
		Format:      env.Get("FORMAT", "console"),
		Service:     env.Get("SERVICE", ""),
		Caller:      env.GetBool("CALLER", false),
		SampleEvery: env.GetInt("SAMPLE_EVERY", 0),
	}
}

var (
	once sync.Once
	root atomic.Pointer[Logger]
)

// Init builds the root logger, only the first call has any effect
func Init(opt Options) {
	once.Do(func() {
		zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
		zerolog.TimeFieldFormat = time.RFC3339Nano

		w := opt.Writer
		if w == nil {
			w = os.Stdout
		}
		if opt.Format != "json" {
			w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
		}
		lvl, err := zerolog.ParseLevel(opt.Level)
		if err != nil || opt.Level == "" {
			lvl = zerolog.InfoLevel
		}

		b := zerolog.New(w).Level(lvl).With().Timestamp()
		if opt.Service != "" {
			b = b.Str("service", opt.Service)
		}
		if opt.Caller {
			b = b.Caller()
		}
		l := b.Logger()
		if opt.SampleEvery > 1 {
			l = l.Sample(&zerolog.BasicSampler{N: uint32(opt.SampleEvery)})
		}
		root.Store(&l)
	})
}

// Get returns the root, initialising it from the environment on first use
func Get() *Logger {
	if l := root.Load(); l != nil {
		return l
	}
	Init(FromEnv())
	return root.Load()
}

// Named returns a child tagged with component
func Named(component string) *Logger {
	l := Get().With().Str("component", component).Logger()
	return &l
}

type jobKey struct{}

// WithJob tags ctx with a tier2 job id for C
func WithJob(ctx context.Context, jobID string) context.Context {
	if jobID == "" {
		return ctx
	}
	return context.WithValue(ctx, jobKey{}, jobID)
}

// C returns a child carrying the request id chi minted and any job id on ctx
func C(ctx context.Context) *Logger {
	b := Get().With()
	if rid := chimw.GetReqID(ctx); rid != "" {
		b = b.Str("request_id", rid)
	}
	if jid, _ := ctx.Value(jobKey{}).(string); jid != "" {
		b = b.Str("job_id", jid)
	}
	l := b.Logger()
	return &l
}
