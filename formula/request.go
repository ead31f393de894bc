package formula

import (
	"fmt"
	"strings"
)

// Request is a parsed package request such as
//
//	nemo@5.0 +ice ~xios config=BENCH %gcc
type Request struct {
	Name     string
	Version  string
	Values   map[string]string
	Compiler string
}

// ParseRequest parses a package request given as separate words. The first
// word names the package, optionally suffixed by @version. The remaining
// words are +name, ~name, name=value or %compiler. Several boolean tokens may
// be chained in one word, as in "+ice~xios".
func ParseRequest(args []string) (Request, error) {
	if len(args) == 0 || args[0] == "" {
		return Request{}, fmt.Errorf("missing package name")
	}
	var req Request
	req.Name, req.Version = parseNameArg(args[0])
	req.Values = make(map[string]string)

	for _, arg := range args[1:] {
		switch {
		case arg == "":
			continue
		case arg[0] == '%':
			if len(arg) == 1 {
				return Request{}, fmt.Errorf("empty compiler in %q", arg)
			}
			req.Compiler = arg[1:]
		case arg[0] == '+' || arg[0] == '~':
			if err := parseBoolTokens(arg, req.Values); err != nil {
				return Request{}, err
			}
		default:
			name, value, ok := strings.Cut(arg, "=")
			if !ok || name == "" {
				return Request{}, fmt.Errorf("unrecognized token %q", arg)
			}
			req.Values[name] = value
		}
	}
	return req, nil
}

func parseBoolTokens(arg string, values map[string]string) error {
	for len(arg) > 0 {
		on := arg[0] == '+'
		if !on && arg[0] != '~' {
			return fmt.Errorf("unrecognized token %q", arg)
		}
		rest := arg[1:]
		end := strings.IndexAny(rest, "+~")
		if end < 0 {
			end = len(rest)
		}
		name := rest[:end]
		if name == "" {
			return fmt.Errorf("empty variant name in %q", arg)
		}
		values[name] = boolValue(on)
		arg = rest[end:]
	}
	return nil
}

// parseNameArg splits "name@version" at its last '@'.
func parseNameArg(arg string) (name, version string) {
	for i := len(arg) - 1; i >= 0; i-- {
		if arg[i] == '@' {
			return arg[:i], arg[i+1:]
		}
	}
	return arg, ""
}
