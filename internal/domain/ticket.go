package domain

import (
	"errors"
	"slices"
	"time"
)

// MaxTicketPhotos caps the attachments a ticket may reference.
const MaxTicketPhotos = 5

// StatusLog is one audit entry of a ticket's status history.
type StatusLog struct {
	Status        string    `json:"status"`
	UpdatedByName string    `json:"updated_by_name"`
	Timestamp     time.Time `json:"timestamp"`
	IsAdmin       bool      `json:"is_admin"`
}

// Comment is one message of a ticket thread.
type Comment struct {
	Message       string    `json:"message"`
	Timestamp     time.Time `json:"timestamp"`
	UpdatedByName string    `json:"updated_by_name"`
	IsAdmin       bool      `json:"is_admin"`
}

// Ticket is the aggregate for support requests. Status always mirrors the
// last entry of StatusLogs.
type Ticket struct {
	ID           string
	Title        string
	Description  string
	AssetTag     string
	Category     string
	RaisedBy     string
	RaisedByName string
	Team         string
	CompanyID    string
	Status       string
	StatusLogs   []StatusLog
	Comments     []Comment
	PhotoURLs    []string
	Version      int64
	Timestamp    time.Time
	UpdatedAt    time.Time
}

// TicketFilter narrows an admin ticket listing. Empty fields match all.
type TicketFilter struct {
	Status   string
	Category string
	Employee string
}

// Matches reports whether t satisfies every set predicate.
func (f TicketFilter) Matches(t Ticket) bool {
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Category != "" && t.Category != f.Category {
		return false
	}
	if f.Employee != "" && t.RaisedBy != f.Employee {
		return false
	}
	return true
}

// SortNewestFirst orders tickets by creation time descending, keeping the
// relative order of equal timestamps.
func SortNewestFirst(tickets []Ticket) {
	slices.SortStableFunc(tickets, func(a, b Ticket) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
}

// FilterTickets returns the tickets matching f, preserving order.
func FilterTickets(tickets []Ticket, f TicketFilter) []Ticket {
	out := make([]Ticket, 0, len(tickets))
	for _, t := range tickets {
		if f.Matches(t) {
			out = append(out, t)
		}
	}
	return out
}

// TicketStats tallies tickets per status id. Total counts every ticket.
type TicketStats struct {
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"by_status"`
}

// CountByStatus recomputes stats from the full ticket set.
func CountByStatus(tickets []Ticket) TicketStats {
	stats := TicketStats{ByStatus: make(map[string]int)}
	for _, t := range tickets {
		stats.ByStatus[t.Status]++
		stats.Total++
	}
	return stats
}

// SortStatusLogs orders entries by timestamp ascending, stable for ties.
func SortStatusLogs(logs []StatusLog) {
	slices.SortStableFunc(logs, func(a, b StatusLog) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
}

var (
	errNoStatusLogs   = errors.New("ticket has no status logs")
	errLogsOutOfOrder = errors.New("ticket status logs are not ordered by timestamp")
	errStatusMismatch = errors.New("ticket status does not match its last status log")
)

// CheckInvariants validates the audit trail of a stored ticket.
func (t Ticket) CheckInvariants() error {
	if len(t.StatusLogs) == 0 {
		return errNoStatusLogs
	}
	for i := 1; i < len(t.StatusLogs); i++ {
		if t.StatusLogs[i].Timestamp.Before(t.StatusLogs[i-1].Timestamp) {
			return errLogsOutOfOrder
		}
	}
	if t.StatusLogs[len(t.StatusLogs)-1].Status != t.Status {
		return errStatusMismatch
	}
	return nil
}

// LastStatusLog returns the newest audit entry.
func (t Ticket) LastStatusLog() (StatusLog, bool) {
	if len(t.StatusLogs) == 0 {
		return StatusLog{}, false
	}
	return t.StatusLogs[len(t.StatusLogs)-1], true
}
