package content

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultTimeout bounds every repository call.
	DefaultTimeout = 10 * time.Second

	// DefaultRepairConcurrency is the number of concurrent writes Repair issues.
	DefaultRepairConcurrency = 4
)

// Observer receives operation outcomes, typically to export metrics.
type Observer interface {
	ObserveOperation(collection, op string, took time.Duration, err error)
	ObserveRepair(collection string, result RepairResult)
}

type nopObserver struct{}

func (nopObserver) ObserveOperation(string, string, time.Duration, error) {}
func (nopObserver) ObserveRepair(string, RepairResult)                    {}

type options struct {
	timeout     time.Duration
	log         zerolog.Logger
	now         func() time.Time
	observer    Observer
	concurrency int
}

// Option configures repositories and singletons.
type Option func(*options)

// WithTimeout sets the deadline applied to each call. Zero or negative keeps
// DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithClock replaces time.Now for updatedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithObserver installs an Observer.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observer = obs
		}
	}
}

// WithRepairConcurrency bounds the fan-out of Repair.
func WithRepairConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		timeout:     DefaultTimeout,
		log:         zerolog.Nop(),
		now:         time.Now,
		observer:    nopObserver{},
		concurrency: DefaultRepairConcurrency,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) stamp() time.Time {
	return o.now().UTC()
}

// call runs fn under the configured timeout and reports it to the observer.
func (o options) call(ctx context.Context, collection, op string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	start := time.Now()
	err := fn(ctx)
	o.observer.ObserveOperation(collection, op, time.Since(start), err)
	return err
}
