package inspector

import (
	"context"
	"io"
	"strings"

	"github.com/Dynom/mxprobe/types"
	"github.com/Dynom/mxprobe/validator"
	"github.com/Dynom/mxprobe/werkit"
	"github.com/sirupsen/logrus"
)

// New creates a new Inspector and applies any specified functional Option argument. Without a CheckFn every address
// is probed with the default configuration.
func New(options ...Option) Inspector {
	i := Inspector{
		concurrency: 1,
	}

	for _, o := range options {
		o(&i)
	}

	if i.logger == nil {
		l := logrus.New()
		l.Out = io.Discard
		i.logger = l
	}

	if i.check == nil {
		v := validator.NewEmailAddressValidator(validator.DefaultProbeConfig(), validator.WithLogger(i.logger))
		i.check = v.CheckWithProbe
	}

	return i
}

// Inspector partitions a batch of addresses into accepted and rejected ones
type Inspector struct {
	check       validator.CheckFn
	concurrency int
	logger      logrus.FieldLogger
}

// BatchResult holds both partitions, each in input order
type BatchResult struct {
	Accepted []string
	Rejected []string
}

// Verdict is the result for a single address
type Verdict struct {
	Address  string
	Accepted bool
	Result   validator.Result
}

// SplitAddresses splits a comma separated list and trims each entry. Empty entries are kept, so that every part of the
// input ends up in exactly one partition.
func SplitAddresses(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{}
	}

	parts := strings.Split(raw, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	return parts
}

// Inspect checks every address and partitions them. Errors never escape, they count as a rejection.
func (i Inspector) Inspect(ctx context.Context, addresses []string) BatchResult {
	result := BatchResult{
		Accepted: make([]string, 0, len(addresses)),
		Rejected: make([]string, 0, len(addresses)),
	}

	i.InspectEach(ctx, addresses, func(v Verdict) {
		if v.Accepted {
			result.Accepted = append(result.Accepted, v.Address)
		} else {
			result.Rejected = append(result.Rejected, v.Address)
		}
	})

	return result
}

// InspectEach checks every address and calls fn with the verdicts, in input order
func (i Inspector) InspectEach(ctx context.Context, addresses []string, fn func(v Verdict)) {
	if i.concurrency < 2 || len(addresses) < 2 {
		for _, address := range addresses {
			fn(i.Check(ctx, address))
		}
		return
	}

	verdicts := i.inspectConcurrently(ctx, addresses)
	for _, v := range verdicts {
		fn(v)
	}
}

// Check runs the pipeline on a single address
func (i Inspector) Check(ctx context.Context, address string) Verdict {
	log := i.logger.WithField("email", address)

	if err := ctx.Err(); err != nil {
		log.WithError(err).Debug("Context done, rejecting without checking")
		return Verdict{Address: address, Result: validator.Result{Error: err}}
	}

	parts, err := types.NewEmailParts(address)
	if err != nil {
		log.WithError(err).Debug("Unable to decompose address")
		return Verdict{Address: address, Result: validator.Result{Error: err}}
	}

	return i.verdict(log, address, i.check(ctx, parts))
}

func (i Inspector) verdict(log logrus.FieldLogger, address string, r validator.Result) Verdict {
	v := Verdict{
		Address:  address,
		Accepted: r.Validations.IsValid() && r.Error == nil,
		Result:   r,
	}

	log = log.WithFields(logrus.Fields{
		"accepted": v.Accepted,
		"steps":    r.Steps.String(),
		"passed":   r.Validations.String(),
	})

	if r.Error != nil {
		log.WithError(r.Error).Debug("Address rejected")
	} else {
		log.Debug("Address inspected")
	}

	return v
}

func (i Inspector) inspectConcurrently(ctx context.Context, addresses []string) []Verdict {
	verdicts := make([]Verdict, len(addresses))

	wi := &werkit.WerkIt{}
	wi.StartCheckWorkers(i.concurrency, func(tasks <-chan werkit.CheckTask) {
		for task := range tasks {
			log := i.logger.WithField("email", task.Parts.Address)

			if err := task.Ctx.Err(); err != nil {
				verdicts[task.Index] = Verdict{Address: task.Parts.Address, Result: validator.Result{Error: err}}
				continue
			}

			// Every task writes to its own index, the slice itself is never resized
			verdicts[task.Index] = i.verdict(log, task.Parts.Address, task.Fn(task.Ctx, task.Parts))
		}
	})

	for idx, address := range addresses {
		parts, err := types.NewEmailParts(address)
		if err != nil {
			verdicts[idx] = Verdict{Address: address, Result: validator.Result{Error: err}}
			continue
		}

		err = wi.Process(werkit.CheckTask{
			Ctx:   ctx,
			Fn:    i.check,
			Parts: parts,
			Index: idx,
		})

		if err != nil {
			verdicts[idx] = Verdict{Address: address, Result: validator.Result{Error: err}}
		}
	}

	wi.Wait()

	return verdicts
}
