package domain

import (
	"sort"
	"strings"
	"time"
)

// Employee is the directory's aggregate root. Email is the natural key.
type Employee struct {
	Email     string
	Name      string
	Password  string
	BirthDate time.Time
	Roles     []string
	// ManagerEmail is empty when no manager is assigned.
	ManagerEmail string
}

// HasManager reports whether a manager reference is set.
func (e *Employee) HasManager() bool {
	return e.ManagerEmail != ""
}

// HasRole reports whether role is one of the employee's labels (exact match).
func (e *Employee) HasRole(role string) bool {
	for _, r := range e.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// EmailDomain returns everything after the last "@" of the email.
func (e *Employee) EmailDomain() string {
	return EmailDomain(e.Email)
}

// SortedRoles returns a sorted copy of the role labels.
func (e *Employee) SortedRoles() []string {
	out := make([]string, len(e.Roles))
	copy(out, e.Roles)
	sort.Strings(out)
	return out
}

// Clone returns a deep copy so callers can mutate without aliasing the store.
func (e *Employee) Clone() *Employee {
	if e == nil {
		return nil
	}
	c := *e
	c.Roles = append([]string(nil), e.Roles...)
	return &c
}

// EmailDomain extracts the part after the last "@". It returns "" when the
// address has no "@".
func EmailDomain(email string) string {
	i := strings.LastIndexByte(email, '@')
	if i < 0 {
		return ""
	}
	return email[i+1:]
}

// UniqueRoles removes duplicates while keeping first-seen order.
func UniqueRoles(roles []string) []string {
	seen := make(map[string]struct{}, len(roles))
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}
