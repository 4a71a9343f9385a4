// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package corun

import (
	"errors"

	"go.uber.org/zap"
)

const (
	// DefaultCapacity is the default number of task slots per runtime.
	DefaultCapacity = 1024

	// DefaultIOConcurrency is the default number of I/O operations the
	// loopback driver runs at once.
	DefaultIOConcurrency = 128
)

// options holds configuration for Runtime creation.
type options struct {
	capacity      int
	ioConcurrency int
	driver        Driver
	logger        *zap.Logger
	lockOSThread  bool
}

// Option configures a Runtime.
type Option interface {
	apply(*options) error
}

// optionFunc implements Option.
type optionFunc func(*options) error

func (f optionFunc) apply(o *options) error {
	return f(o)
}

// WithCapacity sets the number of task slots. The table never grows:
// Spawn fails with ErrTableFull once every slot is in use.
func WithCapacity(n int) Option {
	return optionFunc(func(o *options) error {
		if n <= 0 {
			return errors.New("corun: capacity must be positive")
		}
		o.capacity = n
		return nil
	})
}

// WithIOConcurrency bounds the loopback driver's worker pool.
// Ignored when WithDriver supplies a driver.
func WithIOConcurrency(n int) Option {
	return optionFunc(func(o *options) error {
		if n <= 0 {
			return errors.New("corun: I/O concurrency must be positive")
		}
		o.ioConcurrency = n
		return nil
	})
}

// WithDriver replaces the default loopback I/O driver.
// The runtime takes ownership and closes it in Runtime.Close.
func WithDriver(d Driver) Option {
	return optionFunc(func(o *options) error {
		if d == nil {
			return errors.New("corun: nil driver")
		}
		o.driver = d
		return nil
	})
}

// WithLogger sets the runtime's logger. Defaults to Logger().
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(o *options) error {
		o.logger = l
		return nil
	})
}

// WithLockOSThread pins the goroutine executing Run to its OS thread for
// the duration of the loop.
func WithLockOSThread(enabled bool) Option {
	return optionFunc(func(o *options) error {
		o.lockOSThread = enabled
		return nil
	})
}

// resolveOptions applies opts over the defaults.
func resolveOptions(opts []Option) (*options, error) {
	cfg := &options{
		capacity:      DefaultCapacity,
		ioConcurrency: DefaultIOConcurrency,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}
	if cfg.logger == nil {
		cfg.logger = Logger()
	}
	if cfg.driver == nil {
		cfg.driver = NewLoopback(cfg.ioConcurrency)
	}
	return cfg, nil
}
