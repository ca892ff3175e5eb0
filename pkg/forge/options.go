package forge

import (
	"log/slog"
	"time"

	"pkg.jsn.cam/forge/pkg/values"
)

// Options are the introspectable settings of a factory.
type Options struct {
	// MaxDepth bounds nested Build/Batch calls made through the capability
	// handle. Zero means unlimited.
	MaxDepth int
}

type settings struct {
	name     string
	opts     Options
	values   *values.Provider
	logger   *slog.Logger
	recorder Recorder
}

// Option configures a factory at construction.
type Option func(*settings)

// WithMaxDepth limits self-referential recursion. Values <= 0 disable the limit.
func WithMaxDepth(n int) Option {
	return func(s *settings) {
		if n < 0 {
			n = 0
		}
		s.opts.MaxDepth = n
	}
}

// WithName sets the name used in logs and metrics.
func WithName(name string) Option {
	return func(s *settings) {
		s.name = name
	}
}

// WithValues sets the value provider handed to blueprints.
func WithValues(p *values.Provider) Option {
	return func(s *settings) {
		if p != nil {
			s.values = p
		}
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRecorder sets the metrics recorder. Defaults to NoopRecorder.
func WithRecorder(r Recorder) Option {
	return func(s *settings) {
		if r != nil {
			s.recorder = r
		}
	}
}

func newSettings(defaultName string, opts []Option) settings {
	s := settings{
		name:     defaultName,
		values:   values.Default(),
		logger:   slog.Default(),
		recorder: NoopRecorder{},
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Recorder receives engine metrics. Implementations must be safe for
// concurrent use.
type Recorder interface {
	ObserveBuild(factory, mode string, d time.Duration)
	IncStageFailure(factory, stage string)
	IncTruncated(factory string)
	AddPersisted(factory, adapter string, n int)
}

// NoopRecorder discards all metrics.
type NoopRecorder struct{}

func (NoopRecorder) ObserveBuild(string, string, time.Duration) {}
func (NoopRecorder) IncStageFailure(string, string)             {}
func (NoopRecorder) IncTruncated(string)                        {}
func (NoopRecorder) AddPersisted(string, string, int)           {}

// Build modes and stage labels reported to the Recorder.
const (
	ModeSync  = "sync"
	ModeAsync = "async"

	StageBefore    = "before"
	StageBlueprint = "blueprint"
	StageMerge     = "merge"
	StageAfter     = "after"
	StagePersist   = "persist"
)
