package domain

import (
	"strings"
	"time"
)

// Employee is the profile of a portal user who raises tickets and holds assets.
// ID equals the identity uid.
type Employee struct {
	ID            string
	Name          string
	Email         string
	Role          Role
	CompanyID     string
	Team          string
	DateOfJoining string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NameMatches reports whether the employee name contains term, ignoring case.
func (e Employee) NameMatches(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return false
	}
	return strings.Contains(strings.ToLower(e.Name), term)
}

// Admin is a tenant administrator. Admins are not bound to a company; the
// active company is part of their session.
type Admin struct {
	UID              string
	Name             string
	Email            string
	Role             Role
	MailFromEmployee bool
	IsActive         bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
