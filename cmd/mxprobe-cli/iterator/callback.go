package iterator

import "strings"

// NewCallbackIterator provides an iterator interface based on closure callbacks
func NewCallbackIterator(next func() bool, value func() (string, error), close func() error) *CallbackIterator {
	return &CallbackIterator{
		next:  next,
		value: value,
		close: close,
	}
}

// CallbackIterator yields addresses from any source, e.g. an argument, lines or CSV records
type CallbackIterator struct {
	next  func() bool
	value func() (string, error)
	close func() error
}

// Next returns true if we have more iterations pending
func (i *CallbackIterator) Next() bool {
	return i.next()
}

// Value returns the current value, and/or an error
func (i *CallbackIterator) Value() (string, error) {
	return i.value()
}

// Close performs any cleanups. It may be used to return the last error
func (i *CallbackIterator) Close() error {
	return i.close()
}

// Collect drains the iterator. Values are trimmed, empty values are skipped. Errors from Value are passed to onErr
// and don't end the iteration. The error from Close is returned.
func (i *CallbackIterator) Collect(onErr func(err error)) ([]string, error) {
	var values []string
	for i.Next() {
		v, err := i.Value()
		if err != nil {
			if onErr != nil {
				onErr(err)
			}

			continue
		}

		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}

	return values, i.Close()
}
