package domain

import (
	"strings"
	"time"
)

// PurchaseDateLayout is the calendar-date format of asset dates.
const PurchaseDateLayout = "2006-01-02"

// HistoryEntry is a dated note on an asset's service history.
type HistoryEntry struct {
	Note string `json:"note"`
	Date string `json:"date"`
}

// Software is a package installed on an asset.
type Software struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	InstalledOn string `json:"installed_on,omitempty"`
}

// Asset is a tracked piece of hardware owned by a company.
type Asset struct {
	ID                string
	Name              string
	Model             string
	Tag               string
	TagLower          string
	Status            string
	AssignedTo        string
	AssignedToName    string
	OS                string
	OSVersion         string
	RAM               string
	Drive             string
	SerialNumber      string
	PurchaseDate      string
	Peripherals       string
	CompanyID         string
	History           []HistoryEntry
	InstalledSoftware []Software
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NormalizeTag produces the case-insensitive uniqueness key of a tag.
func NormalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

// ClearAssignment drops the assignee fields.
func (a *Asset) ClearAssignment() {
	a.AssignedTo = ""
	a.AssignedToName = ""
}

// FlattenHistory renders history as "<date> - <note>" entries joined by "; ".
func FlattenHistory(entries []HistoryEntry) string {
	parts := make([]string, 0, len(entries))
	for _, h := range entries {
		parts = append(parts, h.Date+" - "+h.Note)
	}
	return strings.Join(parts, "; ")
}

// FlattenSoftware renders software as "<name> <version>" entries joined by "; ".
func FlattenSoftware(items []Software) string {
	parts := make([]string, 0, len(items))
	for _, s := range items {
		parts = append(parts, strings.TrimSpace(s.Name+" "+s.Version))
	}
	return strings.Join(parts, "; ")
}

// MatchesSearch reports whether term occurs in the name, model, tag or
// assignee name, ignoring case. An empty term matches everything.
func (a Asset) MatchesSearch(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	for _, field := range []string{a.Name, a.Model, a.Tag, a.AssignedToName} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

// FilterAssets applies the search and status predicates, preserving order.
func FilterAssets(assets []Asset, search, status string) []Asset {
	out := make([]Asset, 0, len(assets))
	for _, a := range assets {
		if status != "" && a.Status != status {
			continue
		}
		if !a.MatchesSearch(search) {
			continue
		}
		out = append(out, a)
	}
	return out
}
