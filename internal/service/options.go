package service

import (
	"time"

	"github.com/sirupsen/logrus"

	"notes-server/internal/logging"
)

type options struct {
	now    func() time.Time
	logger *logrus.Logger
}

type Option func(*options)

// WithClock replaces time.Now for timestamps written by the service.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func WithLogger(logger *logrus.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func buildOptions(opts []Option) options {
	o := options{
		now:    time.Now,
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
