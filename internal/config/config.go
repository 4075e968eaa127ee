package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

const (
	// DefaultServerURL is the remote CareerMate deployment used when the user has not configured one.
	DefaultServerURL = "https://careermate-actual-server.com"

	keyServerURL      = "serverUrl"
	keyUseLocalServer = "useLocalServer"
)

var (
	// ErrMalformed is returned (wrapped) when the persisted config file is not a JSON object
	ErrMalformed = errors.New("malformed configuration file")

	// ErrInvalidServerURL is returned when a server URL is not an absolute http(s) URL
	ErrInvalidServerURL = errors.New("invalid server URL")
)

// Config is the user configuration persisted between runs.
//
// Keys that this version does not know about are kept in extra and written
// back unchanged, so a file written by a newer build survives a round trip.
type Config struct {
	ServerURL      string
	UseLocalServer bool

	extra map[string]json.RawMessage
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		ServerURL:      DefaultServerURL,
		UseLocalServer: true,
	}
}

// Clone returns a deep copy
func (c *Config) Clone() *Config {
	out := &Config{
		ServerURL:      c.ServerURL,
		UseLocalServer: c.UseLocalServer,
	}
	if len(c.extra) > 0 {
		out.extra = make(map[string]json.RawMessage, len(c.extra))
		for k, v := range c.extra {
			out.extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return out
}

// Extra returns the raw value of a key this version does not interpret
func (c *Config) Extra(key string) (json.RawMessage, bool) {
	v, ok := c.extra[key]
	return v, ok
}

// UnmarshalJSON merges data over the receiver. Keys absent from data keep
// their current value, so decoding into DefaultConfig() yields defaults for
// anything the file does not mention.
func (c *Config) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if raw == nil {
		return fmt.Errorf("%w: top-level value must be an object", ErrMalformed)
	}

	for key, value := range raw {
		switch key {
		case keyServerURL:
			if err := json.Unmarshal(value, &c.ServerURL); err != nil {
				return fmt.Errorf("%w: %s: %v", ErrMalformed, key, err)
			}
		case keyUseLocalServer:
			if err := json.Unmarshal(value, &c.UseLocalServer); err != nil {
				return fmt.Errorf("%w: %s: %v", ErrMalformed, key, err)
			}
		default:
			if c.extra == nil {
				c.extra = make(map[string]json.RawMessage)
			}
			c.extra[key] = value
		}
	}
	return nil
}

// MarshalJSON writes known fields together with preserved unknown keys
func (c *Config) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(c.extra)+2)
	for k, v := range c.extra {
		out[k] = v
	}

	serverURL, err := json.Marshal(c.ServerURL)
	if err != nil {
		return nil, err
	}
	useLocal, err := json.Marshal(c.UseLocalServer)
	if err != nil {
		return nil, err
	}
	out[keyServerURL] = serverURL
	out[keyUseLocalServer] = useLocal

	return json.Marshal(out)
}

// Validate checks the configuration for values the shell cannot work with
func (c *Config) Validate() error {
	return ValidateServerURL(c.ServerURL)
}

// ValidateServerURL accepts absolute http and https URLs with a host
func ValidateServerURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Errorf("%w: empty", ErrInvalidServerURL)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidServerURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidServerURL, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidServerURL)
	}
	return nil
}
