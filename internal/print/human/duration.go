package human

import (
	"encoding"
	"encoding/json"
	"flag"
	"fmt"
	"strconv"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// Duration is a time.Duration written with the notation of time.ParseDuration
// ("1m30s"), extended with days ("2d") and unit-less values counted in
// seconds ("10").
type Duration time.Duration

const Day = Duration(24 * time.Hour)

func ParseDuration(s string) (Duration, error) {
	number, unit := splitUnit(s)
	if number == "" {
		return 0, fmt.Errorf("malformed duration: %q", s)
	}

	var scale Duration
	switch unit {
	case "":
		scale = Duration(time.Second)
	case "d":
		scale = Day
	default:
		d, err := time.ParseDuration(strings.Join(strings.Fields(s), ""))
		if err != nil {
			return 0, fmt.Errorf("malformed duration: %q", s)
		}
		return Duration(d), nil
	}

	f, err := strconv.ParseFloat(number, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed duration: %q", s)
	}
	return Duration(f * float64(scale)), nil
}

// String returns the time.Duration representation of d without its trailing
// zero units ("1m" rather than "1m0s").
func (d Duration) String() string {
	s := time.Duration(d).String()
	if m, ok := strings.CutSuffix(s, "m0s"); ok {
		s = m + "m"
	}
	if h, ok := strings.CutSuffix(s, "h0m"); ok {
		s = h + "h"
	}
	return s
}

func (d Duration) Get() any {
	return time.Duration(d)
}

func (d *Duration) Set(s string) error {
	p, err := ParseDuration(s)
	if err != nil {
		return err
	}
	*d = p
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts strings and numbers of seconds.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		var f float64
		if json.Unmarshal(b, &f) != nil {
			return err
		}
		*d = Duration(f * float64(time.Second))
		return nil
	}
	return d.Set(s)
}

func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

func (d *Duration) UnmarshalYAML(y *yaml.Node) error {
	return d.Set(y.Value)
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	return d.Set(string(b))
}

var (
	_ fmt.Stringer = Duration(0)

	_ json.Marshaler   = Duration(0)
	_ json.Unmarshaler = (*Duration)(nil)

	_ yaml.Marshaler   = Duration(0)
	_ yaml.Unmarshaler = (*Duration)(nil)

	_ encoding.TextMarshaler   = Duration(0)
	_ encoding.TextUnmarshaler = (*Duration)(nil)

	_ flag.Getter = (*Duration)(nil)
)
