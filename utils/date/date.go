package date

import (
	"database/sql/driver"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
)

type Date struct {
	civil.Date
}

func DateOf(t time.Time) Date {
	var d Date
	d.Date.Year, d.Date.Month, d.Date.Day = t.Date()
	return d
}

func New(year int, month time.Month, day int) Date {
	return Date{Date: civil.Date{Year: year, Month: month, Day: day}}
}

func Parse(layout string, value string) (Date, error) {
	t, err := time.Parse(layout, value)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

func ParseDate(s string) (Date, error) {
	d, err := civil.ParseDate(s)
	if err != nil {
		return Date{}, err
	}
	return Date{Date: d}, nil
}

// DaysSince returns the signed number of calendar days from s to d.
func (d Date) DaysSince(s Date) int {
	return d.Date.DaysSince(s.Date)
}

func (d Date) Before(s Date) bool {
	return d.Date.Before(s.Date)
}

func (d Date) After(s Date) bool {
	return d.Date.After(s.Date)
}

func (d Date) Value() (driver.Value, error) {
	return d.Date.String(), nil
}

func (d *Date) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		return nil
	case time.Time:
		if !v.IsZero() {
			d.Date = civil.DateOf(v)
		}
		return nil
	case []byte:
		return d.parse(string(v))
	case string:
		return d.parse(v)
	default:
		return fmt.Errorf("cannot scan %T into date", value)
	}
}

func (d *Date) parse(s string) error {
	if len(s) > 10 {
		s = s[:10]
	}
	parsed, err := civil.ParseDate(s)
	if err != nil {
		return err
	}
	d.Date = parsed
	return nil
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.Date.String()), nil
}

func (d *Date) UnmarshalText(data []byte) error {
	return d.parse(string(data))
}
