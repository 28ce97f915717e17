package main

import (
	"context"

	"github.com/Dynom/mxprobe/cmd/web/erihttp/handlers"
	"github.com/Dynom/mxprobe/types"
	"github.com/Dynom/mxprobe/validator"
	"github.com/sirupsen/logrus"
)

// validatorLogProxy logs the outcome of every check, together with the request that caused it
func validatorLogProxy(logger logrus.FieldLogger, fn validator.CheckFn) validator.CheckFn {
	logger = logger.WithField("middleware", "log_proxy")

	return func(ctx context.Context, parts types.EmailParts) validator.Result {
		vr := fn(ctx, parts)

		fields := logrus.Fields{
			handlers.RequestID.String(): ctx.Value(handlers.RequestID),
			"domain":                    parts.Domain,
			"valid":                     vr.Validations.IsValid(),
			"steps":                     vr.Steps.String(),
			"validations":               vr.Validations.String(),
			"outcome":                   vr.Outcome.String(),
			"confirmed":                 vr.Validations.IsProbeConfirmed(),
		}

		for _, t := range vr.Timings {
			fields["time_µs_"+t.Label] = t.Duration.Microseconds()
		}
		fields["time_µs_total"] = vr.Timings.Total().Microseconds()

		log := logger.WithFields(fields)
		if vr.Error != nil {
			log.WithError(vr.Error).Info("Address rejected")
			return vr
		}

		log.Info("Address checked")
		return vr
	}
}
