package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/htlc/log"
)

// resolve returns a [kong.ConfigurationLoader] that reads flag values from
// the mapping named name in a YAML document, the format written by the init
// command.
//
// It can be used with [kong.Configuration] like this:
//
//	kong.Configuration(resolve("config"), "/path/to/config.yaml")
//
// Keys are flag names. Hyphens and underscores are interchangeable, so
// "log-level" and "log_level" name the same flag. Scalars become the flag's
// value and sequences are joined for list flags.
//
// Example config file:
//
//	config:
//	  log-level: debug
//	  log-format: text
//	  jobs: 4
//	  package: apps.site
//
// Command-line flags override config file values. A document that cannot be
// parsed is ignored with a warning.
func resolve(name string) kong.ConfigurationLoader {
	return func(r io.Reader) (kong.Resolver, error) {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}

		var doc map[string]map[string]any

		err = yaml.Unmarshal(data, &doc)
		if err != nil {
			log.Warn("ignoring malformed configuration",
				slog.String("error", yaml.FormatError(err, false, true)),
			)

			return config{}, nil
		}

		return makeConfig(doc[name]), nil
	}
}

// config implements [kong.Resolver] for YAML configs. Keys are normalized
// to hyphenated flag names.
type config map[string]any

func makeConfig(values map[string]any) config {
	c := make(config, len(values))

	for key, value := range values {
		c[strings.ReplaceAll(key, "_", "-")] = flagValue(value)
	}

	return c
}

// flagValue converts a decoded YAML value to the form kong parses flag
// values from. Numbers become strings and sequences become comma-separated
// lists.
func flagValue(value any) any {
	switch v := value.(type) {
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []any:
		elems := make([]string, len(v))
		for i, e := range v {
			elems[i] = toString(flagValue(e))
		}

		return strings.Join(elems, ",")
	default:
		return v
	}
}

func toString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// Validate implements [kong.Resolver].
func (c config) Validate(*kong.Application) error {
	return nil
}

// Resolve implements [kong.Resolver].
func (c config) Resolve(
	_ *kong.Context,
	_ *kong.Path,
	flag *kong.Flag,
) (any, error) {
	if value, ok := c[flag.Name]; ok {
		return value, nil
	}

	// Not found - return nil to let Kong use defaults
	return nil, nil
}
