// Package vision extracts prayer timetables from photographed schedules via
// an OpenAI-compatible vision chat API.
package vision

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// TimetableDay is one extracted day. Fields the model could not read stay
// nil; they must be stored as absent, never as empty strings.
type TimetableDay struct {
	Date           string  `json:"date"`
	FajrBeginning  *string `json:"fajr_beginning"`
	FajrJamaat     *string `json:"fajr_jamaat"`
	Sunrise        *string `json:"sunrise"`
	ZoharBeginning *string `json:"zohar_beginning"`
	ZoharJamaat    *string `json:"zohar_jamaat"`
	AsrBeginning   *string `json:"asr_beginning"`
	AsrJamaat      *string `json:"asr_jamaat"`
	Maghrib        *string `json:"maghrib"`
	IshaBeginning  *string `json:"isha_beginning"`
	IshaJamaat     *string `json:"isha_jamaat"`
	Sehri          *string `json:"sehri"`
	Iftari         *string `json:"iftari"`
}

// Timetable is the full extraction result.
type Timetable struct {
	Days []TimetableDay `json:"timetable"`
}

// Extractor turns a timetable photo into dated records.
type Extractor interface {
	ExtractTimetable(ctx context.Context, image []byte, mimeType string) (*Timetable, error)
}

// ErrNoDays is returned when the extraction response holds no dated entries.
var ErrNoDays = errors.New("vision: response contains no dated entries")

// ParseExtracted parses already-extracted timetable JSON as supplied by a
// client that ran the extraction itself. Three shapes are accepted:
// {"timetable": [...]}, a single flat day carrying a "date" field, and
// {"dates": {"YYYY-MM-DD": {...}}}. Anything without a recognizable date is
// rejected.
func ParseExtracted(raw json.RawMessage) (*Timetable, error) {
	var tt Timetable
	if err := json.Unmarshal(raw, &tt); err == nil && len(tt.Days) > 0 {
		return &tt, nil
	}

	var single TimetableDay
	if err := json.Unmarshal(raw, &single); err == nil && single.Date != "" {
		return &Timetable{Days: []TimetableDay{single}}, nil
	}

	var dated struct {
		Dates map[string]TimetableDay `json:"dates"`
	}
	if err := json.Unmarshal(raw, &dated); err == nil && len(dated.Dates) > 0 {
		out := &Timetable{Days: make([]TimetableDay, 0, len(dated.Dates))}
		for date, day := range dated.Dates {
			day.Date = date
			out.Days = append(out.Days, day)
		}
		sortDays(out.Days)
		return out, nil
	}

	return nil, ErrNoDays
}

func sortDays(days []TimetableDay) {
	for i := 1; i < len(days); i++ {
		for j := i; j > 0 && days[j].Date < days[j-1].Date; j-- {
			days[j], days[j-1] = days[j-1], days[j]
		}
	}
}

// stripFences removes a markdown code fence the model sometimes wraps the
// JSON payload in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
	}
	return strings.TrimSpace(s)
}

// ValidDate reports whether s parses as "YYYY-MM-DD".
func ValidDate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}
