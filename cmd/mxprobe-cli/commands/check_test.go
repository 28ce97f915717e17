package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Dynom/mxprobe/cmd/web/config"
	"github.com/Dynom/mxprobe/inspector"
	"github.com/Dynom/mxprobe/types"
	"github.com/Dynom/mxprobe/validator"
	"github.com/Dynom/mxprobe/validator/validations"
	"github.com/spf13/cobra"
)

func acceptOK(_ context.Context, parts types.EmailParts) validator.Result {
	var r validator.Result
	r.Steps.SetFlag(validations.FSyntax)
	r.Validations.SetFlag(validations.FSyntax)

	if parts.Local == "ok" {
		r.Validations.MarkAsValid()
		r.Outcome = validator.OutcomeAccepted
		return r
	}

	r.Error = errors.New("nope")
	return r
}

func Test_validateArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		piped   bool
		wantErr bool
	}{
		{name: "argument", args: []string{"a@gmail.com"}},
		{name: "stdin", piped: true},
		{name: "both", args: []string{"a@gmail.com"}, piped: true, wantErr: true},
		{name: "nothing", wantErr: true},
		{name: "too many", args: []string{"a@gmail.com", "b@gmail.com"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := validateArgs(tt.args, tt.piped); (err != nil) != tt.wantErr {
				t.Errorf("validateArgs() error = %v, wantErr %t", err, tt.wantErr)
			}
		})
	}
}

func Test_runCheck(t *testing.T) {
	var stdout, stderr bytes.Buffer

	cmd := &cobra.Command{}
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetContext(context.Background())

	insp := inspector.New(inspector.WithCheckFn(acceptOK), inspector.WithConcurrency(2))

	err := runCheck(cmd, insp, createListIterator("ok@gmail.com, nope@gmail.com,, ok@gmail.com"))
	if err != nil {
		t.Fatalf("runCheck() unexpected error %s", err)
	}

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	want := []struct {
		email string
		valid bool
	}{
		{email: "ok@gmail.com", valid: true},
		{email: "nope@gmail.com"},
		{email: "ok@gmail.com", valid: true},
	}

	if len(lines) != len(want) {
		t.Fatalf("Expected %d lines, instead I got %d: %s", len(want), len(lines), stdout.String())
	}

	for i, line := range lines {
		var r CheckResultFull
		if err := json.Unmarshal([]byte(line), &r); err != nil {
			t.Fatalf("Line %d isn't JSON %q %s", i, line, err)
		}

		if r.Email != want[i].email || r.Valid != want[i].valid {
			t.Errorf("Line %d, expected %+v, instead I got %+v", i, want[i], r)
		}
	}

	var stats ReportStats
	if err := json.Unmarshal(stderr.Bytes(), &stats); err != nil {
		t.Fatalf("Expected a JSON summary on stderr, instead I got %q %s", stderr.String(), err)
	}

	if stats.Accepted != 2 || stats.Rejected != 1 {
		t.Errorf("Unexpected summary %+v", stats)
	}
}

func Test_toCheckResult(t *testing.T) {
	var r validator.Result
	r.Steps.SetFlag(validations.FSyntax | validations.FMXLookup)
	r.Validations.SetFlag(validations.FSyntax)
	r.Timings.Add("checkEmailAddressSyntax", 2*time.Millisecond)
	r.MX = validator.MailExchangeHost{Host: "mx.example.org"}
	r.Error = validator.ErrResolution

	got := toCheckResult(inspector.Verdict{Address: "john@gmail.com", Result: r})

	if got.Valid || got.Error == "" || got.MX != "mx.example.org" || got.Version != 1 {
		t.Errorf("Unexpected result %+v", got)
	}

	if strings.Join(got.Checks, ",") != "syntax,lookup" || strings.Join(got.Passed, ",") != "syntax" {
		t.Errorf("Unexpected checks %q passed %q", got.Checks, got.Passed)
	}

	if got.Timings["checkEmailAddressSyntax"] != 2 {
		t.Errorf("Expected the timings to be converted, instead I got %+v", got.Timings)
	}

	if got.Outcome != validator.OutcomeIndeterminate.String() {
		t.Errorf("Expected an indeterminate outcome, instead I got %q", got.Outcome)
	}

	if got.Confirmed {
		t.Errorf("Didn't expect an unprobed address to be confirmed")
	}

	r.Steps.SetFlag(validations.FHostConnect | validations.FValidRCPT)
	r.Validations.SetFlag(validations.FMXLookup | validations.FHostConnect | validations.FValidRCPT)
	r.Validations.MarkAsValid()
	r.Outcome = validator.OutcomeAccepted
	r.Error = nil

	got = toCheckResult(inspector.Verdict{Address: "john@gmail.com", Accepted: true, Result: r})
	if !got.Valid || !got.Confirmed || got.Error != "" {
		t.Errorf("Expected a confirmed, valid result, instead I got %+v", got)
	}
}

func Test_newInspector(t *testing.T) {
	opts := newCheckSettings().Check
	opts.Validator = config.VTStructure
	opts.AcceptedDomain = "example.org"

	got := newInspector(opts, nil).Inspect(context.Background(), []string{"john@example.org", "john@gmail.com"})

	if strings.Join(got.Accepted, ",") != "john@example.org" || strings.Join(got.Rejected, ",") != "john@gmail.com" {
		t.Errorf("Unexpected partitions %+v", got)
	}
}

func Test_checkFlags(t *testing.T) {
	f := checkCmd.Flags()

	for _, name := range []string{"format", "resolver", "validator", "concurrency", "helo", "from", "accepted-domain", "port", "timeout", "session-timeout"} {
		if f.Lookup(name) == nil {
			t.Errorf("Expected flag %q to be registered", name)
		}
	}

	var vt config.ValidatorType
	if err := vt.Set("bogus"); err == nil {
		t.Errorf("Expected an unknown validator to be refused")
	}
}
