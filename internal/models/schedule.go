package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	// MonthKeyLayout formats year-month schedule keys.
	MonthKeyLayout = "2006-01"
	// SessionDateLayout formats ClassSession dates.
	SessionDateLayout = "2006/01/02"
)

var (
	monthKeyPattern      = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)
	looseMonthKeyPattern = regexp.MustCompile(`^(\d{4})-(0?[1-9]|1[0-2])$`)
)

// Makeup records the rescheduled replacement for a canceled session.
type Makeup struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

// ClassSession is one scheduled lesson of a student within a month.
type ClassSession struct {
	Date         string  `json:"date"`
	Canceled     bool    `json:"canceled"`
	Violation    bool    `json:"violation"`
	Makeup       *Makeup `json:"makeup"`
	TimeModified float64 `json:"time modified"`
}

// Cancel marks the session canceled, optionally as a policy violation and
// with a make-up replacement.
func (s *ClassSession) Cancel(violation bool, makeup *Makeup) {
	s.Canceled = true
	s.Violation = violation
	s.Makeup = makeup
}

// Uncancel restores the session, clearing violation and make-up.
func (s *ClassSession) Uncancel() {
	s.Canceled = false
	s.Violation = false
	s.Makeup = nil
}

// Normalize forces Violation off for sessions that are not canceled.
func (s *ClassSession) Normalize() {
	if !s.Canceled {
		s.Violation = false
	}
}

// Clone returns a deep copy of the session.
func (s ClassSession) Clone() ClassSession {
	if s.Makeup != nil {
		m := *s.Makeup
		s.Makeup = &m
	}
	return s
}

// StudentSchedules maps student id to that student's sessions for one month.
type StudentSchedules map[string][]ClassSession

// MonthlySchedules maps year-month keys to per-student sessions.
type MonthlySchedules map[string]StudentSchedules

// Clone deep-copies the schedules.
func (m MonthlySchedules) Clone() MonthlySchedules {
	out := make(MonthlySchedules, len(m))
	for month, students := range m {
		out[month] = students.Clone()
	}
	return out
}

// Clone deep-copies one month of schedules.
func (s StudentSchedules) Clone() StudentSchedules {
	out := make(StudentSchedules, len(s))
	for id, sessions := range s {
		copied := make([]ClassSession, len(sessions))
		for i, session := range sessions {
			copied[i] = session.Clone()
		}
		out[id] = copied
	}
	return out
}

// IsMonthKey reports whether key is a YYYY-MM year-month key.
func IsMonthKey(key string) bool {
	return monthKeyPattern.MatchString(key)
}

// CanonicalMonthKey rewrites a hand-edited YYYY-M key as YYYY-MM. It
// returns key unchanged and false when key names no month at all.
func CanonicalMonthKey(key string) (string, bool) {
	m := looseMonthKeyPattern.FindStringSubmatch(strings.TrimSpace(key))
	if m == nil {
		return key, false
	}
	if len(m[2]) == 1 {
		return m[1] + "-0" + m[2], true
	}
	return m[1] + "-" + m[2], true
}

// ParseMonthKey returns the first day of the month named by key.
func ParseMonthKey(key string) (time.Time, error) {
	if !IsMonthKey(key) {
		return time.Time{}, fmt.Errorf("invalid month key %q", key)
	}
	return time.Parse(MonthKeyLayout, key)
}

// MonthKey formats t as a year-month key.
func MonthKey(t time.Time) string {
	return t.Format(MonthKeyLayout)
}

// MonthRange lists the month keys from..to inclusive.
func MonthRange(from, to string) ([]string, error) {
	start, err := ParseMonthKey(from)
	if err != nil {
		return nil, err
	}
	end, err := ParseMonthKey(to)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, fmt.Errorf("month range %s..%s is reversed", from, to)
	}
	keys := make([]string, 0)
	for cur := start; !cur.After(end); cur = cur.AddDate(0, 1, 0) {
		keys = append(keys, MonthKey(cur))
	}
	return keys, nil
}
