package domain

import (
	"fmt"
	"time"
)

// Role selects the date-time grammar a field is parsed with.
type Role int

const (
	RoleTriggered Role = iota
	RoleReading
	RoleOriginalReading
	RoleSent
	RoleDelivered
	RoleGeneric
)

const (
	// single digit day, hour, minute and second are accepted
	compositeLayout = "2006-1-2 15:4"
	sentLayout      = "Mon, 2 Jan 2006 15:4:5 -0700"
	deliveredLayout = "0601021504"
	bodyTimeLayout  = "2006-01-02 15:04"
)

// LocalZone is the wall clock that absolute instants are converted to
// before their zone is discarded.
var LocalZone = time.Local

type grammar struct {
	layouts []string
	parse   func(layout, value string) (time.Time, error)
	fields  []string
}

var grammars = map[Role]grammar{
	RoleTriggered:       {layouts: []string{compositeLayout}, parse: parseNaive, fields: []string{"triggeredDT"}},
	RoleReading:         {layouts: []string{compositeLayout}, parse: parseNaive, fields: []string{"readingDT"}},
	RoleOriginalReading: {layouts: []string{compositeLayout}, parse: parseNaive, fields: []string{"originalReadingDT"}},
	RoleSent:            {layouts: []string{sentLayout}, parse: parseInstant, fields: []string{"sentDT"}},
	RoleDelivered:       {layouts: []string{deliveredLayout}, parse: parseNaive, fields: []string{"deliveredDT"}},
	RoleGeneric: {
		layouts: []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02 15:04:05"},
		parse:   parseNaive,
		fields:  []string{"created", "updated"},
	},
}

// fieldRoles maps every payload field in the grammar table to its role.
var fieldRoles = func() map[string]Role {
	m := make(map[string]Role)
	for role, g := range grammars {
		for _, f := range g.fields {
			m[f] = role
		}
	}
	return m
}()

// FieldsFor returns the payload fields parsed with the grammar of role.
func FieldsFor(role Role) []string {
	return grammars[role].fields
}

// ParseTimestamp parses value with the grammar of role. The result is a
// naive wall-clock time carrying the UTC location as a zone placeholder.
func ParseTimestamp(role Role, value string) (time.Time, error) {
	g, ok := grammars[role]
	if !ok {
		return time.Time{}, fmt.Errorf("unknown date-time role %d", role)
	}

	var err error
	for _, layout := range g.layouts {
		var t time.Time
		if t, err = g.parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("input should be a valid datetime matching %q: %w", g.layouts[0], err)
}

func timestampParser(role Role) func(any) (time.Time, error) {
	return func(raw any) (time.Time, error) {
		switch v := raw.(type) {
		case time.Time:
			return v, nil
		case *time.Time:
			return *v, nil
		case string:
			return ParseTimestamp(role, v)
		}
		return time.Time{}, fmt.Errorf("input should be a valid datetime, got %T", raw)
	}
}

func parseNaive(layout, value string) (time.Time, error) {
	return time.Parse(layout, value)
}

func parseInstant(layout, value string) (time.Time, error) {
	t, err := time.Parse(layout, value)
	if err != nil {
		return time.Time{}, err
	}
	return Naive(t), nil
}

// Naive converts t to LocalZone and drops the zone, keeping only the wall clock.
func Naive(t time.Time) time.Time {
	l := t.In(LocalZone)
	return time.Date(l.Year(), l.Month(), l.Day(), l.Hour(), l.Minute(), l.Second(), l.Nanosecond(), time.UTC)
}

// NaiveNow is the current local wall-clock time.
func NaiveNow() time.Time {
	return Naive(time.Now())
}

func (r *payloadReader) timestamp(key string) *time.Time {
	role, ok := fieldRoles[key]
	if !ok {
		r.verr.add(key, fmt.Errorf("no date-time grammar for field %q", key))
		return nil
	}

	v, err := Coerce(r.payload[key], timestampParser(role))
	if err != nil {
		r.verr.add(key, err)
	}
	return v
}

// composite joins a date half and a time half with one space and parses
// the result; it is absent unless both halves are present.
func (r *payloadReader) composite(field, dateKey, timeKey string) *time.Time {
	role, ok := fieldRoles[field]
	if !ok {
		r.verr.add(field, fmt.Errorf("no date-time grammar for field %q", field))
		return nil
	}

	d := r.str(dateKey)
	t := r.str(timeKey)
	if d == nil || t == nil {
		return nil
	}

	v, err := ParseTimestamp(role, *d+" "+*t)
	if err != nil {
		r.verr.add(field, err)
		return nil
	}
	return &v
}
