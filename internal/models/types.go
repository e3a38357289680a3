package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Date is a calendar date stored as a DATE column and rendered as
// "YYYY-MM-DD" on the wire. The time-of-day portion is always zero UTC so
// equality and BETWEEN comparisons behave the same on MySQL and SQLite.
type Date struct{ time.Time }

// NewDate builds a Date from year/month/day of t, dropping time and zone.
func NewDate(t time.Time) Date {
	return Date{time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses "YYYY-MM-DD".
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return NewDate(t), nil
}

func (d Date) String() string { return d.Format("2006-01-02") }

// AddDays returns the date n days later.
func (d Date) AddDays(n int) Date { return NewDate(d.AddDate(0, 0, n)) }

func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.Format("2006-01-02"), nil
}

func (d *Date) Scan(v any) error {
	switch x := v.(type) {
	case time.Time:
		*d = NewDate(x)
		return nil
	case []byte:
		return d.parse(string(x))
	case string:
		return d.parse(x)
	case nil:
		*d = Date{}
		return nil
	default:
		return fmt.Errorf("date: unsupported Scan type %T", v)
	}
}

func (d *Date) parse(s string) error {
	if len(s) > 10 {
		s = s[:10]
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return err
	}
	*d = NewDate(t)
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	return d.parse(s)
}

// ContactInfo is a normalized string-to-string mapping stored as JSON.
type ContactInfo map[string]string

// ContactInfoRawKey holds input that could not be parsed as a mapping.
const ContactInfoRawKey = "raw"

// NormalizeContactInfo is the single parse step for contact_info at the input
// boundary. Clients have historically sent a JSON object, a bare string, or
// other shapes; everything unparseable is wrapped under ContactInfoRawKey so
// only one shape reaches storage. nil and empty input normalize to {}.
func NormalizeContactInfo(raw json.RawMessage) ContactInfo {
	out := ContactInfo{}
	if len(raw) == 0 || string(raw) == "null" {
		return out
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err == nil {
		for k, v := range obj {
			switch t := v.(type) {
			case nil:
				// dropped
			case string:
				out[k] = t
			case float64:
				out[k] = strconv.FormatFloat(t, 'f', -1, 64)
			case bool:
				out[k] = strconv.FormatBool(t)
			default:
				b, _ := json.Marshal(t)
				out[k] = string(b)
			}
		}
		return out
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s != "" {
			out[ContactInfoRawKey] = s
		}
		return out
	}
	out[ContactInfoRawKey] = string(raw)
	return out
}

func (c ContactInfo) Value() (driver.Value, error) {
	if c == nil {
		c = ContactInfo{}
	}
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (c *ContactInfo) Scan(v any) error {
	switch x := v.(type) {
	case []byte:
		return json.Unmarshal(x, c)
	case string:
		return json.Unmarshal([]byte(x), c)
	case nil:
		*c = ContactInfo{}
		return nil
	default:
		return fmt.Errorf("contact_info: unsupported Scan type %T", v)
	}
}

// PrayerEntry holds a prayer's earliest valid time and/or its congregation
// (jamaat) time. Missing values stay nil, not empty strings.
type PrayerEntry struct {
	Beginning *string `json:"beginning,omitempty"`
	Jamaat    *string `json:"jamaat,omitempty"`
}

// IsEmpty reports whether neither time is set.
func (e *PrayerEntry) IsEmpty() bool {
	return e == nil || (e.Beginning == nil && e.Jamaat == nil)
}

// PrayerData is the per-date schedule payload stored as a JSON column.
type PrayerData struct {
	Fajr    *PrayerEntry `json:"fajr,omitempty"`
	Sunrise *string      `json:"sunrise,omitempty"`
	Dhuhr   *PrayerEntry `json:"dhuhr,omitempty"`
	Asr     *PrayerEntry `json:"asr,omitempty"`
	Maghrib *PrayerEntry `json:"maghrib,omitempty"`
	Isha    *PrayerEntry `json:"isha,omitempty"`
	Sehri   *string      `json:"sehri,omitempty"`
	Iftari  *string      `json:"iftari,omitempty"`
}

// IsEmpty reports whether no field of the schedule is set.
func (p PrayerData) IsEmpty() bool {
	return p.Fajr.IsEmpty() && p.Dhuhr.IsEmpty() && p.Asr.IsEmpty() &&
		p.Maghrib.IsEmpty() && p.Isha.IsEmpty() &&
		p.Sunrise == nil && p.Sehri == nil && p.Iftari == nil
}

func (p PrayerData) Value() (driver.Value, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (p *PrayerData) Scan(v any) error {
	switch x := v.(type) {
	case []byte:
		return json.Unmarshal(x, p)
	case string:
		return json.Unmarshal([]byte(x), p)
	case nil:
		*p = PrayerData{}
		return nil
	default:
		return fmt.Errorf("prayer_data: unsupported Scan type %T", v)
	}
}
