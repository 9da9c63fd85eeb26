package config

import (
	"fmt"
	"strconv"
	"time"
)

// Config represents the persistent streamchat configuration stored as
// config.toml in the .streamchat/ directory. The TOML layout uses sections
// for logical grouping.
type Config struct {
	Version int          `toml:"version"`
	Client  ClientConfig `toml:"client"`
	Chat    ChatConfig   `toml:"chat"`
	Log     LogConfig    `toml:"log"`
}

// ClientConfig holds settings for talking to the chat server.
type ClientConfig struct {
	// ServerURL is the full server URL (scheme + host + port).
	ServerURL string `toml:"server_url,omitempty"`

	// Timeout bounds a whole request, including reading the stream, as a
	// Go duration string. Empty or "0s" means no limit.
	Timeout string `toml:"timeout,omitempty"`
}

// ChatConfig holds the settings sent with every chat request.
type ChatConfig struct {
	Model       string  `toml:"model,omitempty"`
	Temperature float64 `toml:"temperature"`
	MaxTokens   int     `toml:"max_tokens,omitempty"`
	Stream      bool    `toml:"stream"`
	Markdown    bool    `toml:"markdown"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// File is the log file path. Relative paths are resolved against the
	// .streamchat/ directory; empty disables file logging.
	File string `toml:"file,omitempty"`
	JSON bool   `toml:"json"`
}

// configKey binds a dotted key name to a field of Config. field returns a
// pointer to the field: *string, *int, *float64 or *bool. check, if set,
// validates a parsed value before it is stored.
type configKey struct {
	name  string
	field func(c *Config) any
	check func(v any) error
}

// configKeys lists every supported key in TOML section order.
var configKeys = []configKey{
	{
		name:  "client.server_url",
		field: func(c *Config) any { return &c.Client.ServerURL },
	},
	{
		name:  "client.timeout",
		field: func(c *Config) any { return &c.Client.Timeout },
		check: func(v any) error {
			s := v.(string)
			if s == "" {
				return nil
			}
			d, err := time.ParseDuration(s)
			if err != nil {
				return err
			}
			if d < 0 {
				return fmt.Errorf("%s is negative", s)
			}
			return nil
		},
	},
	{
		name:  "chat.model",
		field: func(c *Config) any { return &c.Chat.Model },
	},
	{
		name:  "chat.temperature",
		field: func(c *Config) any { return &c.Chat.Temperature },
		check: func(v any) error {
			if f := v.(float64); f < 0 || f > 2 {
				return fmt.Errorf("%g is outside [0, 2]", f)
			}
			return nil
		},
	},
	{
		name:  "chat.max_tokens",
		field: func(c *Config) any { return &c.Chat.MaxTokens },
		check: func(v any) error {
			if n := v.(int); n <= 0 {
				return fmt.Errorf("%d is not positive", n)
			}
			return nil
		},
	},
	{
		name:  "chat.stream",
		field: func(c *Config) any { return &c.Chat.Stream },
	},
	{
		name:  "chat.markdown",
		field: func(c *Config) any { return &c.Chat.Markdown },
	},
	{
		name:  "log.file",
		field: func(c *Config) any { return &c.Log.File },
	},
	{
		name:  "log.json",
		field: func(c *Config) any { return &c.Log.JSON },
	},
}

func lookupKey(name string) (configKey, bool) {
	for _, k := range configKeys {
		if k.name == name {
			return k, true
		}
	}
	return configKey{}, false
}

// value returns the field's current value.
func (k configKey) value(c *Config) any {
	switch p := k.field(c).(type) {
	case *string:
		return *p
	case *int:
		return *p
	case *float64:
		return *p
	case *bool:
		return *p
	}
	panic("config: unsupported field type for " + k.name)
}

// get formats the field's value the way set parses it.
func (k configKey) get(c *Config) string {
	switch v := k.value(c).(type) {
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// set parses raw into the field, leaving c untouched on error.
func (k configKey) set(c *Config, raw string) error {
	var (
		v   any
		err error
	)

	switch k.field(c).(type) {
	case *string:
		v = raw
	case *int:
		v, err = strconv.Atoi(raw)
	case *float64:
		v, err = strconv.ParseFloat(raw, 64)
	case *bool:
		v, err = strconv.ParseBool(raw)
	}
	if err == nil && k.check != nil {
		err = k.check(v)
	}
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", k.name, err)
	}

	switch p := k.field(c).(type) {
	case *string:
		*p = v.(string)
	case *int:
		*p = v.(int)
	case *float64:
		*p = v.(float64)
	case *bool:
		*p = v.(bool)
	}

	return nil
}
