package validator

import "time"

// Timings records the duration of every step that ran, in order
type Timings []Timing

func (t *Timings) Add(l string, d time.Duration) {
	*t = append(*t, Timing{Label: l, Duration: d})
}

// Total sums the durations of all steps
func (t Timings) Total() time.Duration {
	var total time.Duration
	for _, ti := range t {
		total += ti.Duration
	}

	return total
}

type Timing struct {
	Label    string
	Duration time.Duration
}
