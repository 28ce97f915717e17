package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/Dynom/mxprobe/validator"
)

var (
	VTStructure ValidatorType = "structure"
	VTLookup    ValidatorType = "lookup"
	VTProbe     ValidatorType = "probe"

	LFJSON LogFormat = "json"
	LFText LogFormat = "text"
)

// NewConfig reads fileName on top of the defaults, keys missing from the file keep their default value
func NewConfig(fileName string) (Config, error) {
	c := NewDefaultConfig()

	b, err := os.ReadFile(fileName)
	if err != nil {
		return c, fmt.Errorf("unable to open %q, reason: %w", fileName, err)
	}

	if err := c.decode(string(b)); err != nil {
		return c, fmt.Errorf("unable to unmarshal %q, reason: %w", fileName, err)
	}

	return c, nil
}

// NewDefaultConfig returns a config that works without a config file
func NewDefaultConfig() Config {
	c := Config{}

	c.Client.InputLengthMax = 1 << 16

	c.Server.ListenOn = "localhost:1338"
	c.Server.NetTTL = Duration{duration: 60 * time.Second}
	c.Server.Log.Level = "info"
	c.Server.Log.Format = LFJSON
	c.Server.Metrics.Path = "/metrics"

	pc := validator.DefaultProbeConfig()
	c.Probe.HeloName = pc.HeloName
	c.Probe.From = pc.Sender
	c.Probe.AcceptedDomain = pc.AcceptedDomain
	c.Probe.Port = pc.Port
	c.Probe.Timeout = Duration{duration: pc.Timeout}
	c.Probe.SessionTimeout = Duration{duration: pc.SessionTimeout}
	c.Probe.Concurrency = 1
	c.Probe.Validator = VTProbe

	return c
}

func (c *Config) decode(data string) error {
	md, err := toml.Decode(data, c)
	if err != nil {
		return err
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}

		return fmt.Errorf("unknown configuration key(s) %s", strings.Join(keys, ", "))
	}

	return nil
}

// Config holds central config parameters
type Config struct {
	Client struct {
		InputLengthMax uint64 `toml:"inputLengthMax" usage:"The maximum amount of bytes allowed, for any argument"`
	} `toml:"client"`
	Server struct {
		ListenOn        string   `toml:"listenOn"`
		ConnectionLimit uint     `toml:"connectionLimit" usage:"Maximum amount of concurrent connections, 0 means unlimited"`
		NetTTL          Duration `toml:"netTTL" usage:"Read and write deadline of HTTP connections, probing requests need plenty"`
		CORS            struct {
			AllowedOrigins []string `toml:"allowedOrigins"`
			AllowedHeaders []string `toml:"allowedHeaders"`
		} `toml:"CORS"`
		Headers Headers `toml:"headers"`
		Log     struct {
			Level  string    `toml:"level"`
			Format LogFormat `toml:"format" usage:"The log output format \"json\" or \"text\""`
		} `toml:"log"`
		Profiler struct {
			Enable bool   `toml:"enable" default:"false"`
			Prefix string `toml:"prefix"`
		} `toml:"profiler"`
		Metrics struct {
			Enable bool   `toml:"enable"`
			Path   string `toml:"path" usage:"Path of the Prometheus metrics endpoint"`
		} `toml:"metrics"`
		GraphQL struct {
			PrettyOutput bool `toml:"prettyOutput"`
			GraphiQL     bool `toml:"graphiQL"`
			Playground   bool `toml:"playground"`
		} `toml:"graphql"`
		PathStrip string `toml:"pathStrip"`
	} `toml:"server"`
	Probe struct {
		HeloName       string        `toml:"heloName" usage:"The identity announced with HELO"`
		From           string        `toml:"from" usage:"The probing identity used with MAIL FROM"`
		AcceptedDomain string        `toml:"acceptedDomain" usage:"Only addresses on this domain are probed, empty means any domain"`
		Port           uint16        `toml:"port"`
		Timeout        Duration      `toml:"timeout" usage:"Idle timeout, re-armed before every SMTP read and write"`
		SessionTimeout Duration      `toml:"sessionTimeout" usage:"Upper bound of a single SMTP conversation"`
		Resolver       string        `toml:"resolver" usage:"IP of the resolver to use for MX lookups, empty means the system resolver"`
		Concurrency    uint          `toml:"concurrency" usage:"Addresses probed at the same time within a batch"`
		Validator      ValidatorType `toml:"validator" usage:"The checks to perform: \"structure\", \"lookup\" or \"probe\""`
	} `toml:"probe"`
}

// ProbeConfig maps the probe section onto the validator's configuration
func (c Config) ProbeConfig() validator.ProbeConfig {
	return validator.ProbeConfig{
		HeloName:       c.Probe.HeloName,
		Sender:         c.Probe.From,
		AcceptedDomain: c.Probe.AcceptedDomain,
		Port:           c.Probe.Port,
		Timeout:        c.Probe.Timeout.AsDuration(),
		SessionTimeout: c.Probe.SessionTimeout.AsDuration(),
	}
}

type Headers map[string]string

func (h Headers) String() string {
	var v string
	for header, value := range h {
		v += `"` + header + `:` + value + `",`
	}

	if len(v) > 0 {
		v = v[0 : len(v)-1]
	}

	return v
}

func (h *Headers) Set(v string) error {
	s := strings.SplitN(v, `:`, 2)
	if len(s) != 2 {
		return fmt.Errorf("invalid Header argument %q, expecting <header name>:<header value>", v)
	}

	if *h == nil {
		*h = make(map[string]string, 1)
	}

	(*h)[s[0]] = s[1]

	return nil
}

type ValidatorType string

func (vt ValidatorType) String() string {
	return string(vt)
}

func (vt *ValidatorType) Set(v string) error {
	return vt.UnmarshalText([]byte(v))
}

// Type names the value for command line flags
func (vt ValidatorType) Type() string {
	return "validator"
}

type ValidatorTypes []ValidatorType

func (v ValidatorTypes) AsStringSlice() []string {
	var result = make([]string, 0, len(v))
	for _, part := range v {
		result = append(result, string(part))
	}

	return result
}

func (vt *ValidatorType) UnmarshalText(value []byte) error {
	var validTypes = ValidatorTypes{VTStructure, VTLookup, VTProbe}

	v := string(value)
	for _, t := range validTypes.AsStringSlice() {
		if t == v {
			*vt = ValidatorType(v)
			return nil
		}
	}

	expected := strings.Join(validTypes.AsStringSlice(), ", ")
	return fmt.Errorf("unsupported value %q for validator type. Expected one of: %q", value, expected)
}

type Duration struct {
	duration time.Duration
}

func (d Duration) String() string {
	return d.duration.String()
}

func (d *Duration) Set(v string) error {
	var err error
	d.duration, err = time.ParseDuration(v)
	return err
}

func (d Duration) AsDuration() time.Duration {
	return d.duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	return d.Set(string(text))
}

type LogFormat string

func (vt LogFormat) String() string {
	return string(vt)
}

func (vt *LogFormat) Set(v string) error {
	return vt.UnmarshalText([]byte(v))
}

func (vt *LogFormat) UnmarshalText(value []byte) error {
	validTypes := []string{string(LFJSON), string(LFText)}
	v := string(value)
	for _, t := range validTypes {
		if t == v {
			*vt = LogFormat(v)
			return nil
		}
	}

	expected := strings.Join(validTypes, ", ")
	return fmt.Errorf("unsupported value %q for log format. Expected one of: %q", value, expected)
}
