package testutil

import (
	"context"
	"sync/atomic"
)

// NewContext wraps parent, Err() reports the parent's error until an ErrEvalFn is set
func NewContext(parent context.Context) *Context {
	return &Context{
		Context: parent,
	}
}

// Context lets a test decide when a context reports an error, e.g. to end a pipeline between two of its steps
type Context struct {
	context.Context
	errEvalFn ErrEvalFn
}

type ErrEvalFn func(parent context.Context) error

func (c *Context) SetParent(ctx context.Context) *Context {
	c.Context = ctx
	return c
}

// SetErrEval allows you to define a callback that can be use to influence when Err() returns an error
func (c *Context) SetErrEval(fn ErrEvalFn) *Context {
	c.errEvalFn = fn
	return c
}

func (c *Context) Err() error {
	if c.errEvalFn == nil {
		return c.Context.Err()
	}

	return c.errEvalFn(c.Context)
}

// ErrAfter returns an ErrEvalFn that reports nil for the first n calls and err for every call after that
func ErrAfter(n int32, err error) ErrEvalFn {
	var calls int32

	return func(parent context.Context) error {
		if atomic.AddInt32(&calls, 1) <= n {
			return parent.Err()
		}

		return err
	}
}
