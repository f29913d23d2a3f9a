package domain

import (
	"strconv"
	"strings"
	"time"
)

// Criteria selects which predicate is applied to the employee collection.
type Criteria int

const (
	CriteriaNone Criteria = iota
	CriteriaByEmailDomain
	CriteriaByRole
	CriteriaByAge
)

var criteriaNames = map[string]Criteria{
	"byemaildomain": CriteriaByEmailDomain,
	"byrole":        CriteriaByRole,
	"byage":         CriteriaByAge,
}

func (c Criteria) String() string {
	switch c {
	case CriteriaByEmailDomain:
		return "byEmailDomain"
	case CriteriaByRole:
		return "byRole"
	case CriteriaByAge:
		return "byAge"
	default:
		return "none"
	}
}

// ParseCriteria matches a criteria name case-insensitively.
func ParseCriteria(name string) (Criteria, error) {
	c, ok := criteriaNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return CriteriaNone, InvalidCriteriaf(
			"invalid criteria %q: valid criteria are byEmailDomain, byRole, byAge", name)
	}
	return c, nil
}

// Filter is a parsed list request. Value is meaningless for CriteriaNone.
type Filter struct {
	Criteria Criteria
	Value    string
}

// NewFilter builds a Filter from optional query parameters. Criteria and value
// must be given together or not at all.
func NewFilter(criteria, value *string) (Filter, error) {
	switch {
	case criteria == nil && value == nil:
		return Filter{Criteria: CriteriaNone}, nil
	case criteria == nil || value == nil:
		return Filter{}, InvalidInputf(
			"criteria and value must be provided together, or neither for a full listing")
	}

	c, err := ParseCriteria(*criteria)
	if err != nil {
		return Filter{}, err
	}
	return Filter{Criteria: c, Value: *value}, nil
}

// ParseDomain validates a byEmailDomain value and returns it lowercased.
func ParseDomain(value string) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" || !strings.Contains(v, ".") {
		return "", InvalidCriteriaf("invalid domain format %q", value)
	}
	return strings.ToLower(v), nil
}

// ParseRole validates a byRole value. Matching stays case-sensitive.
func ParseRole(value string) (string, error) {
	if strings.TrimSpace(value) == "" {
		return "", InvalidCriteriaf("role value cannot be blank")
	}
	return value, nil
}

// ParseAge validates a byAge value.
func ParseAge(value string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, InvalidCriteriaf("invalid age format %q: age must be an integer", value)
	}
	if n < 0 {
		return 0, InvalidCriteriaf("age cannot be negative: %d", n)
	}
	return n, nil
}

// AgeWindow returns the inclusive birth-date range of people who are exactly
// age years old on today: their age-th birthday has happened, their
// (age+1)-th has not.
func AgeWindow(today time.Time, age int) (from, to time.Time) {
	day := DateOf(today)
	to = minusYears(day, age)
	from = minusYears(day, age+1).AddDate(0, 0, 1)
	return from, to
}

// DateOf truncates t to a calendar date at UTC midnight, keeping t's local
// year, month and day.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// minusYears subtracts whole years, clamping Feb 29 to Feb 28 when the target
// year is not a leap year. time.AddDate would roll over to Mar 1 instead.
func minusYears(t time.Time, years int) time.Time {
	y, m, d := t.Date()
	y -= years
	if last := daysIn(y, m); d > last {
		d = last
	}
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// InRange reports whether date lies in [from, to].
func InRange(date, from, to time.Time) bool {
	return !date.Before(from) && !date.After(to)
}
