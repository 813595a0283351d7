// Package xtime provides time helpers for configuration decoding.
package xtime

import (
	"time"
)

// Duration is a time.Duration that marshals to and from its string form, so
// config values can be written as "10s" in TOML files and env overrides.
type Duration time.Duration

func (d Duration) String() string {
	return time.Duration(d).String()
}

func (d *Duration) UnmarshalText(text []byte) error {
	duration, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(duration)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}
