package despierta

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Alarm is one scheduled wake event. ID is assigned at creation and never
// changes. An alarm with an empty Repeat set is a one-shot: it disables
// itself after firing once.
type Alarm struct {
	ID      string    `json:"id"`
	Time    TimeOfDay `json:"time"`
	Enabled bool      `json:"enabled"`
	Label   string    `json:"label"`
	Repeat  Weekdays  `json:"repeat,omitempty"`
}

func (a *Alarm) Validate() error {
	if a.ID == "" {
		return Errorf(ErrInvalid, "alarm has no id")
	}
	return a.Time.Validate()
}

// OneShot reports whether the alarm fires once and then disables itself.
func (a *Alarm) OneShot() bool {
	return a.Repeat == 0
}

// DueAt reports whether the alarm should fire on entering the minute at.
func (a *Alarm) DueAt(at time.Time) bool {
	if !a.Enabled || !a.Time.Matches(at) {
		return false
	}
	return a.Repeat == 0 || a.Repeat.Has(at.Weekday())
}

// TimeOfDay is a wall-clock time at minute resolution. Its wire form is
// "HH:MM".
type TimeOfDay struct {
	Hour   int
	Minute int
}

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	if len(s) == 5 && s[2] == ':' {
		h1, h2 := digit(s[0]), digit(s[1])
		m1, m2 := digit(s[3]), digit(s[4])
		if h1 >= 0 && h2 >= 0 && m1 >= 0 && m2 >= 0 {
			t := TimeOfDay{Hour: 10*h1 + h2, Minute: 10*m1 + m2}
			if err := t.Validate(); err != nil {
				return TimeOfDay{}, err
			}
			return t, nil
		}
	}
	return TimeOfDay{}, Errorf(ErrInvalid, "time %q is not in HH:MM form", s)
}

func digit(c byte) int {
	if c < '0' || c > '9' {
		return -1
	}
	return int(c - '0')
}

func (t TimeOfDay) Validate() error {
	switch {
	case t.Hour < 0 || t.Hour > 23:
		return Errorf(ErrInvalid, "hour %d out of range", t.Hour)
	case t.Minute < 0 || t.Minute > 59:
		return Errorf(ErrInvalid, "minute %d out of range", t.Minute)
	}
	return nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Matches reports whether at falls in the minute t names.
func (t TimeOfDay) Matches(at time.Time) bool {
	return at.Hour() == t.Hour && at.Minute() == t.Minute
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(buf []byte) error {
	var s string
	if err := json.Unmarshal(buf, &s); err != nil {
		return Errorf(ErrInvalid, "time must be a string: %v", err)
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Weekdays is a set of days an alarm repeats on, one bit per time.Weekday.
// The zero value is the empty set. Its wire form is an array of lowercase
// three-letter day names.
type Weekdays uint8

var dayNames = [...]string{"sun", "mon", "tue", "wed", "thu", "fri", "sat"}

func ParseWeekday(s string) (time.Weekday, error) {
	for i, name := range dayNames {
		if strings.EqualFold(s, name) {
			return time.Weekday(i), nil
		}
	}
	return 0, Errorf(ErrInvalid, "unknown weekday %q", s)
}

// ParseWeekdays parses a comma-separated list of day names. An empty string
// is the empty set.
func ParseWeekdays(s string) (Weekdays, error) {
	var d Weekdays
	if s = strings.TrimSpace(s); s == "" {
		return d, nil
	}
	for _, part := range strings.Split(s, ",") {
		wd, err := ParseWeekday(strings.TrimSpace(part))
		if err != nil {
			return 0, err
		}
		d = d.With(wd)
	}
	return d, nil
}

func (d Weekdays) Has(wd time.Weekday) bool {
	return d&(1<<uint(wd)) != 0
}

func (d Weekdays) With(wd time.Weekday) Weekdays {
	return d | 1<<uint(wd)
}

// String lists the set days monday-first, comma-separated.
func (d Weekdays) String() string {
	var names []string
	for i := 0; i < 7; i++ {
		wd := time.Weekday((i + 1) % 7) // start on monday
		if d.Has(wd) {
			names = append(names, dayNames[wd])
		}
	}
	return strings.Join(names, ",")
}

func (d Weekdays) MarshalJSON() ([]byte, error) {
	names := []string{}
	for i := 0; i < 7; i++ {
		wd := time.Weekday((i + 1) % 7)
		if d.Has(wd) {
			names = append(names, dayNames[wd])
		}
	}
	return json.Marshal(names)
}

func (d *Weekdays) UnmarshalJSON(buf []byte) error {
	var names []string
	if err := json.Unmarshal(buf, &names); err != nil {
		return Errorf(ErrInvalid, "repeat must be a list of day names: %v", err)
	}
	var parsed Weekdays
	for _, name := range names {
		wd, err := ParseWeekday(name)
		if err != nil {
			return err
		}
		parsed = parsed.With(wd)
	}
	*d = parsed
	return nil
}
