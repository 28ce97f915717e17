package runtimer

import (
	"os"
	"os/signal"
	"sync"
)

type Callback func(s os.Signal)

// New starts waiting for the first of signals. Without signals, only Trigger invokes the callbacks.
func New(signals ...os.Signal) *SignalHandler {
	c := make(chan os.Signal, 1)
	if len(signals) > 0 {
		signal.Notify(c, signals...)
	}

	sh := &SignalHandler{
		c:    c,
		done: make(chan struct{}),
	}

	go sh.handle()

	return sh
}

// SignalHandler invokes the registered callbacks once, in registration order, for the first signal received
type SignalHandler struct {
	c    chan os.Signal
	done chan struct{}

	lock sync.Mutex
	fns  []Callback
}

func (sh *SignalHandler) handle() {
	defer close(sh.done)

	s := <-sh.c
	signal.Stop(sh.c)

	sh.lock.Lock()
	fns := append([]Callback(nil), sh.fns...)
	sh.lock.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}

func (sh *SignalHandler) RegisterCallback(fn Callback) {
	sh.lock.Lock()
	sh.fns = append(sh.fns, fn)
	sh.lock.Unlock()
}

// Trigger behaves as if s was received. It's a no-op once a signal has been handled.
func (sh *SignalHandler) Trigger(s os.Signal) {
	select {
	case sh.c <- s:
	default:
	}
}

// Wait blocks until all callbacks have been called
func (sh *SignalHandler) Wait() {
	<-sh.done
}
