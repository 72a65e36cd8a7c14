package domain

import (
	"bytes"
	"fmt"
	"strings"
	"time"
)

const wireDateLayout = "2006-01-02T15:04:05"

var dateLayouts = []string{
	time.RFC3339Nano,
	wireDateLayout,
	"2006-01-02T15:04",
	"2006-01-02",
}

// Date is a calendar timestamp as exchanged with the remote API, which omits the zone.
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Date{Time: t}, nil
		}
	}
	return Date{}, fmt.Errorf("invalid date %q", s)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(wireDateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*d = Date{}
		return nil
	}
	s := strings.Trim(string(b), `"`)
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// FormValue renders the date for an HTML date input.
func (d Date) FormValue() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01-02")
}
