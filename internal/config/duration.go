package config

import (
	"fmt"
	"time"
)

// Duration is a time.Duration that YAML configs can spell either as a
// duration string ("350ms", "12s") or as bare numeric seconds.
type Duration struct {
	time.Duration
}

// DurationFrom wraps a time.Duration.
func DurationFrom(d time.Duration) Duration {
	return Duration{Duration: d}
}

// IsZero reports whether the duration is unset.
func (d Duration) IsZero() bool {
	return d.Duration == 0
}

// MarshalYAML writes the canonical string form, so a round-tripped config
// stays readable.
func (d Duration) MarshalYAML() (any, error) {
	return d.Duration.String(), nil
}

func (d *Duration) UnmarshalYAML(value func(any) error) error {
	var raw any
	if err := value(&raw); err != nil {
		return err
	}
	parsed, err := coerceDuration(raw)
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

func coerceDuration(raw any) (time.Duration, error) {
	switch v := raw.(type) {
	case string:
		if v == "" {
			return 0, nil
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", v, err)
		}
		return parsed, nil
	case int:
		return time.Duration(v) * time.Second, nil
	case int64:
		return time.Duration(v) * time.Second, nil
	case float64:
		return time.Duration(v * float64(time.Second)), nil
	default:
		return 0, fmt.Errorf("unsupported duration type %T", raw)
	}
}
