package config

import (
	"fmt"
	"sort"
	"strconv"
)

// settable lists the scalar keys `config get|set` accepts.
var settable = map[string]struct {
	get func(*Config) string
	set func(*Config, string) error
}{
	"installRoot": {
		get: func(c *Config) string { return c.InstallRoot },
		set: func(c *Config, v string) error { c.InstallRoot = v; return nil },
	},
	"dataDir": {
		get: func(c *Config) string { return c.DataDir },
		set: func(c *Config, v string) error { c.DataDir = v; return nil },
	},
	"logLevel": {
		get: func(c *Config) string { return c.LogLevel },
		set: func(c *Config, v string) error { c.LogLevel = v; return nil },
	},
	"refresh.onStartup": {
		get: func(c *Config) string { return strconv.FormatBool(c.Refresh.OnStartup) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("refresh.onStartup must be true or false: %w", err)
			}
			c.Refresh.OnStartup = b
			return nil
		},
	},
	"refresh.interval": {
		get: func(c *Config) string { return c.Refresh.Interval },
		set: func(c *Config, v string) error {
			r := RefreshConfig{Interval: v}
			if _, err := r.IntervalDuration(); err != nil {
				return err
			}
			c.Refresh.Interval = v
			return nil
		},
	},
}

// Keys returns the settable keys in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(settable))
	for k := range settable {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the value of a settable key.
func (c *Config) Get(key string) (string, error) {
	k, ok := settable[key]
	if !ok {
		return "", fmt.Errorf("unknown config key %q (known: %v)", key, Keys())
	}
	return k.get(c), nil
}

// Set updates a settable key in memory; call Save to persist it.
func (c *Config) Set(key, value string) error {
	k, ok := settable[key]
	if !ok {
		return fmt.Errorf("unknown config key %q (known: %v)", key, Keys())
	}
	return k.set(c, value)
}
