package human

import (
	"encoding"
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"strconv"
	"strings"

	yaml "gopkg.in/yaml.v3"
)

// Bytes represents a number of bytes, parsed from values like "576",
// "42 KB" or "1.5KiB". Units of the KB family are factors of 1000, units of
// the KiB family factors of 1024. Formatting always uses factors of 1024.
type Bytes uint64

const (
	B Bytes = 1

	KB Bytes = 1000 * B
	MB Bytes = 1000 * KB
	GB Bytes = 1000 * MB

	KiB Bytes = 1024 * B
	MiB Bytes = 1024 * KiB
	GiB Bytes = 1024 * MiB
)

var byteUnits = map[string]Bytes{
	"":    B,
	"b":   B,
	"k":   KB,
	"kb":  KB,
	"m":   MB,
	"mb":  MB,
	"g":   GB,
	"gb":  GB,
	"ki":  KiB,
	"kib": KiB,
	"mi":  MiB,
	"mib": MiB,
	"gi":  GiB,
	"gib": GiB,
}

func ParseBytes(s string) (Bytes, error) {
	number, unit := splitUnit(s)
	scale, ok := byteUnits[strings.ToLower(unit)]
	if !ok {
		return 0, fmt.Errorf("malformed byte size: %q (unknown unit)", s)
	}
	if scale == B {
		n, err := strconv.ParseUint(number, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("malformed byte size: %q", s)
		}
		return Bytes(n), nil
	}
	f, err := strconv.ParseFloat(number, 64)
	if err != nil || f < 0 {
		return 0, fmt.Errorf("malformed byte size: %q", s)
	}
	v := f * float64(scale)
	if v > math.MaxUint64 {
		return 0, fmt.Errorf("malformed byte size: %q (out of range)", s)
	}
	return Bytes(v), nil
}

func (b Bytes) String() string {
	scale, unit := B, "B"
	switch {
	case b >= GiB:
		scale, unit = GiB, "GiB"
	case b >= MiB:
		scale, unit = MiB, "MiB"
	case b >= KiB:
		scale, unit = KiB, "KiB"
	}
	return ftoa(float64(b), float64(scale)) + " " + unit
}

func (b Bytes) Get() any {
	return uint64(b)
}

func (b *Bytes) Set(s string) error {
	p, err := ParseBytes(s)
	if err != nil {
		return err
	}
	*b = p
	return nil
}

func (b Bytes) MarshalJSON() ([]byte, error) {
	return json.Marshal(uint64(b))
}

func (b *Bytes) UnmarshalJSON(j []byte) error {
	return json.Unmarshal(j, (*uint64)(b))
}

func (b Bytes) MarshalYAML() (any, error) {
	return uint64(b), nil
}

func (b *Bytes) UnmarshalYAML(y *yaml.Node) error {
	return b.Set(y.Value)
}

func (b Bytes) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

func (b *Bytes) UnmarshalText(t []byte) error {
	return b.Set(string(t))
}

var (
	_ fmt.Stringer = Bytes(0)

	_ json.Marshaler   = Bytes(0)
	_ json.Unmarshaler = (*Bytes)(nil)

	_ yaml.Marshaler   = Bytes(0)
	_ yaml.Unmarshaler = (*Bytes)(nil)

	_ encoding.TextMarshaler   = Bytes(0)
	_ encoding.TextUnmarshaler = (*Bytes)(nil)

	_ flag.Getter = (*Bytes)(nil)
)
