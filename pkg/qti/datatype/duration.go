package datatype

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Duration is an ISO 8601 duration. The time part is normalised so that
// seconds and minutes stay below 60 and hours below 24; date parts are kept
// as given except that 12 or more months roll over into years.
type Duration struct {
	years, months, days int
	clock               time.Duration
}

var durationRe = regexp.MustCompile(`^P(?:(\d+)Y)?(?:(\d+)M)?(?:(\d+)W)?(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+(?:\.\d+)?)S)?)?$`)

// NewDuration builds a normalised duration.
func NewDuration(years, months, days int, clock time.Duration) Duration {
	d := Duration{years: years, months: months, days: days, clock: clock}
	d.normalize()
	return d
}

// ParseDuration parses an ISO 8601 duration such as "P1DT2H30M" or "PT1.5S".
func ParseDuration(s string) (Duration, error) {
	m := durationRe.FindStringSubmatch(s)
	if m == nil || s == "P" || strings.HasSuffix(s, "T") {
		return Duration{}, invalid("duration", s)
	}
	atoi := func(v string) int {
		if v == "" {
			return 0
		}
		n, _ := strconv.Atoi(v)
		return n
	}
	var secs float64
	if m[7] != "" {
		secs, _ = strconv.ParseFloat(m[7], 64)
	}
	clock := time.Duration(atoi(m[5]))*time.Hour +
		time.Duration(atoi(m[6]))*time.Minute +
		time.Duration(math.Round(secs*float64(time.Second)))
	return NewDuration(atoi(m[1]), atoi(m[2]), atoi(m[3])*7+atoi(m[4]), clock), nil
}

func (d *Duration) normalize() {
	if d.clock >= 24*time.Hour {
		d.days += int(d.clock / (24 * time.Hour))
		d.clock %= 24 * time.Hour
	}
	if d.months >= 12 {
		d.years += d.months / 12
		d.months %= 12
	}
}

func (d Duration) Years() int   { return d.years }
func (d Duration) Months() int  { return d.months }
func (d Duration) Days() int    { return d.days }
func (d Duration) Hours() int   { return int(d.clock / time.Hour) }
func (d Duration) Minutes() int { return int(d.clock % time.Hour / time.Minute) }

// Seconds returns the seconds part, including any fraction.
func (d Duration) Seconds() float64 {
	return (d.clock % time.Minute).Seconds()
}

// IsZero reports whether every component is zero.
func (d Duration) IsZero() bool {
	return d.years == 0 && d.months == 0 && d.days == 0 && d.clock == 0
}

// Add returns the component-wise sum of two durations.
func (d Duration) Add(o Duration) Duration {
	return NewDuration(d.years+o.years, d.months+o.months, d.days+o.days, d.clock+o.clock)
}

// Equal reports whether both durations have the same normalised form.
func (d Duration) Equal(o Duration) bool {
	return d == o
}

func (d Duration) BaseType() BaseType { return BaseTypeDuration }

// String returns the ISO 8601 form. The zero duration is "PT0S".
func (d Duration) String() string {
	if d.IsZero() {
		return "PT0S"
	}
	var b strings.Builder
	b.WriteByte('P')
	if d.years > 0 {
		b.WriteString(strconv.Itoa(d.years) + "Y")
	}
	if d.months > 0 {
		b.WriteString(strconv.Itoa(d.months) + "M")
	}
	if d.days > 0 {
		b.WriteString(strconv.Itoa(d.days) + "D")
	}
	if d.clock > 0 {
		b.WriteByte('T')
		if h := d.Hours(); h > 0 {
			b.WriteString(strconv.Itoa(h) + "H")
		}
		if m := d.Minutes(); m > 0 {
			b.WriteString(strconv.Itoa(m) + "M")
		}
		if s := d.Seconds(); s > 0 {
			b.WriteString(strconv.FormatFloat(s, 'f', -1, 64) + "S")
		}
	}
	return b.String()
}

func (d Duration) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = v
	return nil
}
