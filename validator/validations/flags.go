package validations

import "strings"

const (
	// Validation Flags, these flags represent successful validation steps. Depending on how far you want to go, you can
	// classify a validation as valid enough, for your use-case.
	FValid       Flag = 1 << iota
	FSyntax      Flag = 1 << iota
	FMXLookup    Flag = 1 << iota
	FHostConnect Flag = 1 << iota
	FValidRCPT   Flag = 1 << iota
)

type Flag uint8

func (f Flag) String() string {
	return strings.Join(f.AsStringSlice(), ",")
}

// AsStringSlice returns the names of every flag set, lowest bit first
func (f Flag) AsStringSlice() []string {
	var result []string
	for bit := Flag(1); bit != 0; bit <<= 1 {
		if f&bit == 0 {
			continue
		}

		result = append(result, toString(bit))
	}

	return result
}

func toString(f Flag) string {
	switch f {
	case FValid:
		return "valid"
	case FSyntax:
		return "syntax"
	case FMXLookup:
		return "lookup"
	case FHostConnect:
		return "connect"
	case FValidRCPT:
		return "rcpt"
	}

	return "unknown"
}
