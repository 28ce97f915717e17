package inspector

import (
	"github.com/Dynom/mxprobe/validator"
	"github.com/sirupsen/logrus"
)

type Option func(i *Inspector)

// WithCheckFn sets the per-address pipeline, e.g. EmailValidator.CheckWithProbe
func WithCheckFn(fn validator.CheckFn) Option {
	return func(i *Inspector) {
		i.check = fn
	}
}

// WithConcurrency bounds the amount of addresses inspected at the same time. Values below 2 mean sequential.
func WithConcurrency(n int) Option {
	return func(i *Inspector) {
		i.concurrency = n
	}
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(i *Inspector) {
		i.logger = l
	}
}
