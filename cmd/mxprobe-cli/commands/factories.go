package commands

import (
	"bufio"
	"encoding/csv"
	"errors"
	"io"

	"github.com/Dynom/mxprobe/cmd/mxprobe-cli/iterator"
	"github.com/Dynom/mxprobe/inspector"
)

// createListIterator iterates over a comma separated list of addresses
func createListIterator(raw string) *iterator.CallbackIterator {
	addresses := inspector.SplitAddresses(raw)
	i := -1

	return iterator.NewCallbackIterator(
		func() bool {
			i++
			return i < len(addresses)
		},
		func() (string, error) {
			return addresses[i], nil
		},
		func() error {
			return nil
		},
	)
}

// createTextIterator iterates over lines, one address per line
func createTextIterator(r io.Reader) *iterator.CallbackIterator {
	scanner := bufio.NewScanner(r)

	return iterator.NewCallbackIterator(
		scanner.Scan,
		func() (string, error) {
			return scanner.Text(), nil
		},
		scanner.Err,
	)
}

// createCSVIterator iterates over a single column of CSV records
func createCSVIterator(r io.Reader, opts csvOptions) *iterator.CallbackIterator {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	var lastError error
	var record []string

	for toSkip := opts.skipRows; toSkip > 0; toSkip-- {
		_, err := reader.Read()
		if err == io.EOF {
			break
		}

		if err != nil {
			lastError = err
		}
	}

	return iterator.NewCallbackIterator(
		func() bool {
			var err error
			for {
				record, err = reader.Read()
				if err == io.EOF {
					return false
				}

				if err == nil {
					return true
				}

				lastError = err

				// Skip records that can't be parsed, anything else ends the iteration
				var pe *csv.ParseError
				if !errors.As(err, &pe) {
					return false
				}
			}
		},
		func() (string, error) {
			if uint64(len(record)) > opts.column {
				return record[opts.column], nil
			}

			return "", nil
		}, func() error {
			return lastError
		},
	)
}
