package commands

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"time"

	"github.com/Dynom/mxprobe/cmd/mxprobe-cli/iterator"
	"github.com/Dynom/mxprobe/cmd/web/config"
	"github.com/Dynom/mxprobe/inspector"
	"github.com/Dynom/mxprobe/validator"
	"github.com/Dynom/mxprobe/validator/validations"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	checkSettings = newCheckSettings()
)

func newCheckSettings() *CheckSettings {
	defaults := validator.DefaultProbeConfig()

	return &CheckSettings{
		Format: "text",
		Check: checkOptions{
			Validator:      config.VTProbe,
			Concurrency:    1,
			HeloName:       defaults.HeloName,
			From:           defaults.Sender,
			AcceptedDomain: defaults.AcceptedDomain,
			Port:           defaults.Port,
			Timeout:        defaults.Timeout,
			SessionTimeout: defaults.SessionTimeout,
		},
	}
}

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check [comma separated addresses]",
	Short: "Check if e-mail addresses are deliverable",
	Long: `Check reads addresses from a single comma separated argument, or from stdin. Every address results in a JSON
line on stdout, in input order. A summary is written to stderr once all addresses are checked.`,
	Args: func(cmd *cobra.Command, args []string) error {
		return validateArgs(args, isStdinPiped())
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		var it *iterator.CallbackIterator
		if len(args) > 0 {
			it = createListIterator(args[0])
		} else {
			switch checkSettings.Format {
			case "", "text":
				it = createTextIterator(os.Stdin)
			case "csv":
				it = createCSVIterator(os.Stdin, checkSettings.CSV)
			default:
				return errors.New("bad format " + checkSettings.Format)
			}
		}

		logger := logrus.New()
		logger.Out = cmd.ErrOrStderr()
		logger.Level = logrus.WarnLevel
		if checkSettings.Check.Verbose {
			logger.Level = logrus.DebugLevel
		}

		insp := newInspector(checkSettings.Check, logger)

		return runCheck(cmd, insp, it)
	},
}

func validateArgs(args []string, stdinPiped bool) error {
	if len(args) > 1 {
		return errors.New("too many arguments, expected 0 or 1")
	}

	if len(args) > 0 && stdinPiped {
		return errors.New("can't read both from stdin and argument")
	}

	if len(args) == 0 && !stdinPiped {
		return errors.New("missing argument")
	}

	return nil
}

func newInspector(opts checkOptions, logger logrus.FieldLogger) inspector.Inspector {
	conf := validator.ProbeConfig{
		HeloName:       opts.HeloName,
		Sender:         opts.From,
		AcceptedDomain: opts.AcceptedDomain,
		Port:           opts.Port,
		Timeout:        opts.Timeout,
		SessionTimeout: opts.SessionTimeout,
	}

	resolver := newResolver(opts.Resolver, opts.Timeout)
	if r, ok := resolver.(*validator.DNSResolver); ok && logger != nil {
		logger.WithField("resolver", r.Server()).Debug("Resolving MX records with a custom name server")
	}

	v := validator.NewEmailAddressValidator(conf,
		validator.WithResolver(resolver),
		validator.WithLogger(logger),
	)

	var fn validator.CheckFn
	switch opts.Validator {
	case config.VTStructure:
		fn = v.CheckWithSyntax
	case config.VTLookup:
		fn = v.CheckWithLookup
	default:
		fn = v.CheckWithProbe
	}

	return inspector.New(
		inspector.WithCheckFn(fn),
		inspector.WithConcurrency(opts.Concurrency),
		inspector.WithLogger(logger),
	)
}

func runCheck(cmd *cobra.Command, insp inspector.Inspector, it *iterator.CallbackIterator) error {
	addresses, err := it.Collect(func(err error) {
		cmd.PrintErrln(err)
	})

	if err != nil {
		cmd.PrintErrln("Reading input:", err)
	}

	start := time.Now()

	var stats ReportStats
	var writeErr error
	jsonEncoder := json.NewEncoder(cmd.OutOrStdout())

	insp.InspectEach(cmd.Context(), addresses, func(v inspector.Verdict) {
		if v.Accepted {
			stats.Accepted++
		} else {
			stats.Rejected++
		}

		if writeErr != nil {
			return
		}

		writeErr = jsonEncoder.Encode(toCheckResult(v))
	})

	if writeErr != nil {
		return writeErr
	}

	stats.Duration = time.Since(start).Milliseconds()

	return writeSummary(cmd.ErrOrStderr(), stats)
}

func toCheckResult(v inspector.Verdict) CheckResultFull {
	r := v.Result
	result := CheckResultFull{
		Email:     v.Address,
		Valid:     v.Accepted,
		Outcome:   r.Outcome.String(),
		Confirmed: r.Validations.IsProbeConfirmed(),
		Passed:    validations.Flag(r.Validations.RemoveFlag(validations.FValid)).AsStringSlice(),
		Checks:    validations.Flag(r.Steps).AsStringSlice(),
		MX:        r.MX.Host,
		Total:     r.Timings.Total().Milliseconds(),
		Version:   1,
	}

	if r.Error != nil {
		result.Error = r.Error.Error()
	}

	if len(r.Timings) > 0 {
		result.Timings = make(map[string]int64, len(r.Timings))
		for _, t := range r.Timings {
			result.Timings[t.Label] = t.Duration.Milliseconds()
		}
	}

	return result
}

func writeSummary(w io.Writer, stats ReportStats) error {
	return json.NewEncoder(w).Encode(stats)
}

func init() {
	rootCmd.AddCommand(checkCmd)

	f := checkCmd.Flags()
	f.StringVar(&checkSettings.Format, "format", checkSettings.Format, "text or csv. Text means a single email address per line '\\n'")
	f.Uint64Var(&checkSettings.CSV.skipRows, "csv-skip-rows", 0, "Rows to skip, useful when wanting to skip the header in CSV files")
	f.Uint64Var(&checkSettings.CSV.column, "csv-column", 0, "The column to read email addresses from, 0-indexed")
	f.IPVar(&checkSettings.Check.Resolver, "resolver", nil, "Custom resolver to use, otherwise system default is used")
	f.Var(&checkSettings.Check.Validator, "validator", "The checks to perform: structure, lookup or probe")
	f.IntVar(&checkSettings.Check.Concurrency, "concurrency", checkSettings.Check.Concurrency, "Amount of addresses checked in parallel")
	f.StringVar(&checkSettings.Check.HeloName, "helo", checkSettings.Check.HeloName, "Name announced with HELO")
	f.StringVar(&checkSettings.Check.From, "from", checkSettings.Check.From, "Address used for MAIL FROM")
	f.StringVar(&checkSettings.Check.AcceptedDomain, "accepted-domain", checkSettings.Check.AcceptedDomain, "Only addresses on this domain are checked, empty means any domain")
	f.Uint16Var(&checkSettings.Check.Port, "port", checkSettings.Check.Port, "SMTP port of the mail exchange")
	f.DurationVar(&checkSettings.Check.Timeout, "timeout", checkSettings.Check.Timeout, "Maximum time to wait on a single SMTP reply")
	f.DurationVar(&checkSettings.Check.SessionTimeout, "session-timeout", checkSettings.Check.SessionTimeout, "Maximum duration of a single SMTP session")
	f.BoolVarP(&checkSettings.Check.Verbose, "verbose", "v", false, "Log every probe step to stderr")
}
